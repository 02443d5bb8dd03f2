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

package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
)

// Format renders a Record to a byte slice.
type Format interface {
	Format(r *Record) []byte
}

type formatFunc func(r *Record) []byte

func (f formatFunc) Format(r *Record) []byte { return f(r) }

var lvlColor = map[Lvl]*color.Color{
	LvlCrit:  color.New(color.FgMagenta, color.Bold),
	LvlError: color.New(color.FgRed),
	LvlWarn:  color.New(color.FgYellow),
	LvlInfo:  color.New(color.FgGreen),
	LvlDebug: color.New(color.FgCyan),
	LvlTrace: color.New(color.FgWhite),
}

// TerminalFormat renders log lines as
//
//	INFO[01-02|15:04:05.000] message target=p2p key=value key2=value2 caller=file.go:42
//
// (target and caller only when set), colorized by level when colored is
// true, plain otherwise.
func TerminalFormat(colored bool) Format {
	return formatFunc(func(r *Record) []byte {
		lvl := r.Lvl.String()
		if colored {
			if c, ok := lvlColor[r.Lvl]; ok {
				lvl = c.Sprint(lvl)
			}
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s[%s] %s", lvl, r.Time.Format("01-02|15:04:05.000"), r.Msg)
		if r.Target != "" {
			fmt.Fprintf(&b, " target=%s", r.Target)
		}
		for i := 0; i+1 < len(r.Ctx); i += 2 {
			fmt.Fprintf(&b, " %v=%s", r.Ctx[i], formatValue(r.Ctx[i+1]))
		}
		if r.Call.Frame().Function != "" {
			fmt.Fprintf(&b, " caller=%s", r.Call)
		}
		b.WriteByte('\n')
		return []byte(b.String())
	})
}

// formatValue renders strings, common integer types, float64, bool and
// errors with %v, and every other value with go-spew's dump, at any level.
func formatValue(v interface{}) string {
	switch v.(type) {
	case string, int, int64, uint64, uint32, float64, bool, error:
		return fmt.Sprintf("%v", v)
	default:
		return strings.TrimSpace(spew.Sdump(v))
	}
}

// StreamHandler writes formatted Records to w.
func StreamHandler(w io.Writer, fmtr Format) Handler {
	return HandlerFunc(func(r *Record) error {
		_, err := w.Write(fmtr.Format(r))
		return err
	})
}

// isTerminal reports whether f is attached to a terminal, using the same
// go-isatty check the colorable wrapper needs to decide whether ANSI
// escapes should be stripped on Windows consoles.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// colorableStderr wraps os.Stderr so ANSI sequences render correctly on
// Windows terminals too; on POSIX it is a no-op passthrough.
var colorableStderr io.Writer = colorable.NewColorableStderr()
