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

// Package viper wraps spf13/viper with the project's logger, so configuration
// reload errors and file-watch events flow through the same structured log
// as the rest of the application instead of being dropped on the floor.
package viper

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	liblog "github.com/nabbar/tcpd/logger"
)

// Viper exposes the subset of spf13/viper's getters used across the code
// base, plus access to the underlying instance for anything not wrapped.
type Viper interface {
	Viper() *viper.Viper

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint32(key string) uint32
	GetUint64(key string) uint64
	GetFloat64(key string) float64
	GetDuration(key string) time.Duration
	GetTime(key string) time.Time
	GetIntSlice(key string) []int
	GetStringSlice(key string) []string
	GetStringMap(key string) map[string]interface{}
	GetStringMapString(key string) map[string]string
	GetStringMapStringSlice(key string) map[string][]string

	IsSet(key string) bool
	Unmarshal(rawVal interface{}) error

	// WatchConfig starts watching the configuration file for changes and
	// invokes the registered logger whenever reload fails.
	WatchConfig()
}

type vpr struct {
	ctx context.Context
	log liblog.FuncLog
	vip *viper.Viper
}

// New creates a Viper bound to the given context and logger. A nil logger
// falls back to a no-op logger so callers never need a nil check.
func New(ctx context.Context, log liblog.FuncLog) Viper {
	if log == nil {
		log = func() liblog.Logger {
			return liblog.New(ctx)
		}
	}

	return &vpr{
		ctx: ctx,
		log: log,
		vip: viper.New(),
	}
}

func (v *vpr) Viper() *viper.Viper { return v.vip }

func (v *vpr) GetBool(key string) bool                               { return v.vip.GetBool(key) }
func (v *vpr) GetString(key string) string                           { return v.vip.GetString(key) }
func (v *vpr) GetInt(key string) int                                 { return v.vip.GetInt(key) }
func (v *vpr) GetInt32(key string) int32                             { return v.vip.GetInt32(key) }
func (v *vpr) GetInt64(key string) int64                             { return v.vip.GetInt64(key) }
func (v *vpr) GetUint(key string) uint                               { return v.vip.GetUint(key) }
func (v *vpr) GetUint16(key string) uint16                           { return v.vip.GetUint16(key) }
func (v *vpr) GetUint32(key string) uint32                           { return v.vip.GetUint32(key) }
func (v *vpr) GetUint64(key string) uint64                           { return v.vip.GetUint64(key) }
func (v *vpr) GetFloat64(key string) float64                         { return v.vip.GetFloat64(key) }
func (v *vpr) GetDuration(key string) time.Duration                  { return v.vip.GetDuration(key) }
func (v *vpr) GetTime(key string) time.Time                          { return v.vip.GetTime(key) }
func (v *vpr) GetIntSlice(key string) []int                          { return v.vip.GetIntSlice(key) }
func (v *vpr) GetStringSlice(key string) []string                    { return v.vip.GetStringSlice(key) }
func (v *vpr) GetStringMap(key string) map[string]interface{}        { return v.vip.GetStringMap(key) }
func (v *vpr) GetStringMapString(key string) map[string]string       { return v.vip.GetStringMapString(key) }
func (v *vpr) GetStringMapStringSlice(key string) map[string][]string {
	return v.vip.GetStringMapStringSlice(key)
}

func (v *vpr) IsSet(key string) bool              { return v.vip.IsSet(key) }
func (v *vpr) Unmarshal(rawVal interface{}) error { return v.vip.Unmarshal(rawVal) }

func (v *vpr) WatchConfig() {
	v.vip.OnConfigChange(func(e fsnotify.Event) {
		l := v.log()
		if l == nil {
			return
		}

		l.Entry(liblog.InfoLevel, "configuration file changed").FieldAdd("file", e.Name).Log()
	})
	v.vip.WatchConfig()
}
