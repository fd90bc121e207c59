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

package version

import "fmt"

// License identifies a well-known open-source license to stamp onto a
// binary's --version output.
type License uint8

const (
	License_MIT License = iota
	License_Apache_v2
	License_GNU_GPL_v3
	License_GNU_Lesser_GPL_v3
	License_GNU_Affero_GPL_v3
	License_Mozilla_PL_v2
	License_Unlicense
	License_Creative_Common_Zero_v1
	License_Creative_Common_Attribution_v4
	License_Creative_Common_Attribution_Share_Alike_v4
	License_SIL_Open_Font_1_1
)

// Name returns the short, human-readable license name.
func (l License) Name() string {
	switch l {
	case License_MIT:
		return "MIT License"
	case License_Apache_v2:
		return "Apache License 2.0"
	case License_GNU_GPL_v3:
		return "GNU General Public License v3.0"
	case License_GNU_Lesser_GPL_v3:
		return "GNU Lesser General Public License v3.0"
	case License_GNU_Affero_GPL_v3:
		return "GNU Affero General Public License v3.0"
	case License_Mozilla_PL_v2:
		return "Mozilla Public License 2.0"
	case License_Unlicense:
		return "The Unlicense"
	case License_Creative_Common_Zero_v1:
		return "Creative Commons CC0 1.0 Universal"
	case License_Creative_Common_Attribution_v4:
		return "Creative Commons Attribution 4.0 International"
	case License_Creative_Common_Attribution_Share_Alike_v4:
		return "Creative Commons Attribution-ShareAlike 4.0 International"
	case License_SIL_Open_Font_1_1:
		return "SIL Open Font License 1.1"
	}

	return "Unknown License"
}

// Boiler returns the short boilerplate notice commonly placed at the top of
// a source file or README for the license.
func (l License) Boiler(pkg, author string, _ ...string) string {
	return fmt.Sprintf("Copyright (c) %s\n\nLicensed under the %s. See LICENSE file in %s for details.", author, l.Name(), pkg)
}

// Legal returns a one-line legal attribution suitable for a --version banner.
func (l License) Legal(pkg, author string, _ ...string) string {
	return fmt.Sprintf("%s is licensed to %s under the %s.", pkg, author, l.Name())
}

// Full returns the full license text. Real license bodies are long and are
// intentionally not inlined here; callers needing the full text should load
// it from the LICENSE file shipped alongside the binary. This returns the
// boilerplate notice as a non-empty placeholder.
func (l License) Full(pkg, author string, args ...string) string {
	return l.Boiler(pkg, author, args...)
}
