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

package pidcontroller

import "context"

// maxSteps bounds the length of a generated range so a pathological gain
// combination cannot spin the loop forever.
const maxSteps = 4096

// RangeCtx walks the controller from "from" to "to", emitting each waypoint
// it settles on along the way. At every step, the controller's output
// (proportional + integral + derivative terms on the remaining error) is
// used as the step size, so the sequence advances quickly while the error is
// large and tightens as it approaches "to". Returns early, with whatever
// waypoints were produced so far, if ctx is cancelled.
func (c *Controller) RangeCtx(ctx context.Context, from, to float64) []float64 {
	r := make([]float64, 0, 16)

	ascending := to >= from
	cur := from
	integral := 0.0
	prevErr := to - from

	for step := 0; step < maxSteps; step++ {
		select {
		case <-ctx.Done():
			return r
		default:
		}

		err := to - cur
		if (ascending && err <= 0) || (!ascending && err >= 0) {
			break
		}

		integral += err
		derivative := err - prevErr
		prevErr = err

		out := c.kp*err + c.ki*integral + c.kd*derivative
		if out == 0 {
			break
		}

		cur += out
		if (ascending && cur > to) || (!ascending && cur < to) {
			cur = to
		}

		r = append(r, cur)

		if cur == to {
			break
		}
	}

	return r
}
