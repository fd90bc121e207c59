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

package size

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse converts a human string ("512", "32K", "4M", "1.5G") into a Size.
// The numeric part may be an integer or a float; the trailing unit letter
// is case-insensitive and optional (a bare number is taken as bytes).
func Parse(s string) (Size, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\"", "")
	s = strings.ReplaceAll(s, "'", "")

	if s == "" {
		return SizeNul, nil
	}

	unit := SizeUnit
	last := s[len(s)-1]

	switch last {
	case 'b', 'B':
		unit = SizeUnit
		s = s[:len(s)-1]
	case 'k', 'K':
		unit = SizeKilo
		s = s[:len(s)-1]
	case 'm', 'M':
		unit = SizeMega
		s = s[:len(s)-1]
	case 'g', 'G':
		unit = SizeGiga
		s = s[:len(s)-1]
	case 't', 'T':
		unit = SizeTera
		s = s[:len(s)-1]
	case 'p', 'P':
		unit = SizePeta
		s = s[:len(s)-1]
	case 'e', 'E':
		unit = SizeExa
		s = s[:len(s)-1]
	}

	s = strings.TrimSpace(s)

	if s == "" {
		return SizeNul, fmt.Errorf("invalid size %q: missing numeric value", s)
	}

	f, e := strconv.ParseFloat(s, 64)
	if e != nil {
		return SizeNul, fmt.Errorf("invalid size %q: %w", s, e)
	}

	return Size(f * float64(unit)), nil
}

// ParseByte converts a raw byte slice to a Size (config unmarshalling helper).
func ParseByte(b []byte) (Size, error) {
	return Parse(string(b))
}
