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
	"encoding/json"
	"fmt"
)

// String renders the size using the largest unit that keeps the value >= 1,
// e.g. Size(1536).String() == "1.50K".
func (s Size) String() string {
	switch {
	case s >= SizeExa:
		return fmt.Sprintf("%.2fE", float64(s)/float64(SizeExa))
	case s >= SizePeta:
		return fmt.Sprintf("%.2fP", float64(s)/float64(SizePeta))
	case s >= SizeTera:
		return fmt.Sprintf("%.2fT", float64(s)/float64(SizeTera))
	case s >= SizeGiga:
		return fmt.Sprintf("%.2fG", float64(s)/float64(SizeGiga))
	case s >= SizeMega:
		return fmt.Sprintf("%.2fM", float64(s)/float64(SizeMega))
	case s >= SizeKilo:
		return fmt.Sprintf("%.2fK", float64(s)/float64(SizeKilo))
	default:
		return fmt.Sprintf("%dB", uint64(s))
	}
}

// Int64 returns the size as a signed 64-bit integer of bytes.
func (s Size) Int64() int64 {
	return int64(s)
}

// Uint64 returns the size as an unsigned 64-bit integer of bytes.
func (s Size) Uint64() uint64 {
	return uint64(s)
}

func (s Size) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Size) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}

	v, err := Parse(str)
	if err != nil {
		return err
	}

	*s = v
	return nil
}
