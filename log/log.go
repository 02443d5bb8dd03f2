// Copyright 2017 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package log provides structured, leveled logging with a target tag,
// modeled on the convention the rest of this module's dependency set
// implies (go-stack/stack for call sites, go-colorable/go-isatty for
// terminal-aware coloring, go-spew for verbose value dumps).
package log

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-stack/stack"
)

// Lvl is a verbosity level, ordered from most to least severe.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "CRIT"
	case LvlError:
		return "ERRO"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DBUG"
	case LvlTrace:
		return "TRCE"
	default:
		return "????"
	}
}

// Record is a single log event.
type Record struct {
	Time   time.Time
	Lvl    Lvl
	Target string
	Msg    string
	Ctx    []interface{}
	Call   stack.Call
}

// Handler processes a log Record. Handlers must be safe for concurrent use.
type Handler interface {
	Log(r *Record) error
}

// HandlerFunc is a convenience adapter for simple handlers.
type HandlerFunc func(r *Record) error

func (f HandlerFunc) Log(r *Record) error { return f(r) }

var (
	root         = &Logger{target: ""}
	globalLvl    int32 = int32(LvlInfo)
	globalHandle atomic.Value
)

func init() {
	globalHandle.Store(Handler(StreamHandler(colorableStderr, TerminalFormat(isTerminal(os.Stderr)))))
}

// SetHandler replaces the process-wide handler.
func SetHandler(h Handler) { globalHandle.Store(h) }

// SetLevel sets the process-wide minimum verbosity.
func SetLevel(l Lvl) { atomic.StoreInt32(&globalLvl, int32(l)) }

func currentLevel() Lvl { return Lvl(atomic.LoadInt32(&globalLvl)) }

// Logger emits Records tagged with a fixed "target" (component name), the
// same role the Rust source's `target: "net"` / `target: "sync"` string
// played in every trace!/info!/error! call site.
type Logger struct {
	target string
	mu     sync.Mutex // guards nothing yet; reserved for per-logger handlers
}

// New returns a Logger tagged with target, e.g. log.New("p2p") or, for
// call sites that want geth-style key/value context baked in,
// log.New("p2p", "peer", hash).
func New(target string, ctx ...interface{}) *Logger {
	if len(ctx) > 0 {
		target = fmt.Sprintf("%s[%s]", target, fmtCtx(ctx))
	}
	return &Logger{target: target}
}

func fmtCtx(ctx []interface{}) string {
	var b []byte
	for i := 0; i+1 < len(ctx); i += 2 {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, fmt.Sprintf("%v=%v", ctx[i], ctx[i+1])...)
	}
	return string(b)
}

func (l *Logger) write(lvl Lvl, msg string, ctx []interface{}) {
	if lvl > currentLevel() {
		return
	}
	r := &Record{
		Time:   time.Now(),
		Lvl:    lvl,
		Target: l.target,
		Msg:    msg,
		Ctx:    ctx,
	}
	if lvl <= LvlDebug {
		// Call-site capture is skipped only at Trace, the noisiest level;
		// every other level, Crit included, records its caller.
		r.Call = stack.Caller(2)
	}
	h, _ := globalHandle.Load().(Handler)
	if h != nil {
		_ = h.Log(r)
	}
}

func (l *Logger) Crit(msg string, ctx ...interface{})  { l.write(LvlCrit, msg, ctx); os.Exit(1) }
func (l *Logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *Logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *Logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *Logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *Logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }

// Package-level convenience loggers, with an empty target, for call sites that
// don't want to carry a *Logger around (mirrors package-level log.Info
// etc. in the geth family).
func Crit(msg string, ctx ...interface{})  { root.Crit(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.Warn(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { root.Info(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }
func Trace(msg string, ctx ...interface{}) { root.Trace(msg, ctx...) }
