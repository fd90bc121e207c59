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

// Package version carries build-time identity (package name, release, build
// hash, license) for a binary and renders it into CLI banners and --version
// output.
package version

import (
	"fmt"
	"reflect"
	"runtime"
	"time"
)

// Version exposes the build-time identity of a binary.
type Version interface {
	GetTime() time.Time
	GetDate() string
	GetPackage() string
	GetDescription() string
	GetBuild() string
	GetRelease() string
	GetAuthor() string
	GetPrefix() string
	GetAppId() string
	GetRootPackagePath() string

	GetHeader() string
	GetInfo() string

	GetLicenseName() string
	GetLicenseLegal(args ...string) string
	GetLicenseBoiler(args ...string) string
	GetLicenseFull(args ...string) string
}

type vers struct {
	lic  License
	pkg  string
	desc string
	date string
	time time.Time
	build string
	release string
	author string
	prefix string
	root string
	flags int
}

// dateLayouts lists the formats tried, in order, when parsing the build date
// string passed to NewVersion.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NewVersion builds a Version from the values a build injects via
// -ldflags, plus a sample value of the caller's package (used only to
// resolve the root package path via reflection) and an arbitrary flags
// bitmask reserved for callers.
func NewVersion(lic License, pkg, description, date, build, release, author, prefix string, sample interface{}, flags int) Version {
	v := &vers{
		lic:     lic,
		pkg:     pkg,
		desc:    description,
		date:    date,
		build:   build,
		release: release,
		author:  author,
		prefix:  prefix,
		flags:   flags,
	}

	v.time = time.Now()
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			v.time = t
			break
		}
	}

	if sample != nil {
		v.root = reflect.TypeOf(sample).PkgPath()
	}

	return v
}

func (v *vers) GetTime() time.Time          { return v.time }
func (v *vers) GetDate() string             { return v.date }
func (v *vers) GetPackage() string          { return v.pkg }
func (v *vers) GetDescription() string      { return v.desc }
func (v *vers) GetBuild() string            { return v.build }
func (v *vers) GetRelease() string          { return v.release }
func (v *vers) GetAuthor() string           { return v.author }
func (v *vers) GetPrefix() string           { return v.prefix }
func (v *vers) GetRootPackagePath() string  { return v.root }

func (v *vers) GetAppId() string {
	return fmt.Sprintf("%s-%s", v.prefix, v.release)
}

func (v *vers) GetHeader() string {
	return fmt.Sprintf("%s %s (%s)", v.pkg, v.release, v.desc)
}

func (v *vers) GetInfo() string {
	return fmt.Sprintf(
		"%s\nAuthor: %s\nLicense: %s\nBuild: %s\nDate: %s\nGo: %s/%s",
		v.GetHeader(), v.author, v.lic.Name(), v.build, v.date, runtime.GOOS, runtime.GOARCH,
	)
}

func (v *vers) GetLicenseName() string {
	return v.lic.Name()
}

func (v *vers) GetLicenseLegal(args ...string) string {
	return v.lic.Legal(v.pkg, v.author, args...)
}

func (v *vers) GetLicenseBoiler(args ...string) string {
	return v.lic.Boiler(v.pkg, v.author, args...)
}

func (v *vers) GetLicenseFull(args ...string) string {
	return v.lic.Full(v.pkg, v.author, args...)
}
