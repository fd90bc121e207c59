/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package ioutils collects small filesystem helpers shared by the logging
// and file-handling packages.
package ioutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PathCheckCreate ensures a file or directory exists at the given path with
// the correct permissions, creating parent directories as needed.
func PathCheckCreate(isFile bool, path string, permFile os.FileMode, permDir os.FileMode) error {
	if inf, err := os.Stat(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	} else if err == nil && inf.IsDir() {
		if isFile {
			return fmt.Errorf("path '%s' already exists but is a directory", path)
		}
		if inf.Mode() != permDir {
			_ = os.Chmod(path, permDir)
		}
		return nil
	} else if err == nil && !inf.IsDir() {
		if !isFile {
			return fmt.Errorf("path '%s' already exists but is not a directory", path)
		}
		if inf.Mode() != permFile {
			_ = os.Chmod(path, permFile)
		}
		return nil
	} else if !isFile {
		return os.MkdirAll(path, permDir)
	} else if err = PathCheckCreate(false, filepath.Dir(path), permFile, permDir); err != nil {
		return err
	}

	rt, e := os.OpenRoot(filepath.Dir(path))

	defer func() {
		if rt != nil {
			_ = rt.Close()
		}
	}()

	if e != nil {
		return e
	}

	hf, e := rt.Create(filepath.Base(path))

	defer func() {
		if hf != nil {
			_ = hf.Close()
		}
	}()

	if e != nil {
		return e
	}

	_ = hf.Close()
	hf = nil

	_ = rt.Chmod(filepath.Base(path), permFile)

	return nil
}
