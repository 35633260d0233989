// Copyright (c) 2026 The cc64 Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package ir

import "fmt"

// Severity distinguishes a recoverable compile error from a fatal internal
// invariant failure.
type Severity int

const (
	SeverityError Severity = iota
	SeverityInternal
)

// Pos is a source location, one-indexed.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.Line == 0 {
		return p.File
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Diagnostic is a user-visible compile error: a message plus enough
// context to point at the offending source. The analyzer collects these
// instead of panicking; the lexer and parser do not produce them and
// panic on a syntax error.
type Diagnostic struct {
	Pos      Pos
	Severity Severity
	Message  string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Pos, d.Message)
}

// CompileError aggregates every diagnostic produced while processing one
// source file. The driver prints all of them and aborts before invoking
// the back end: these terminate the compile without ever running it.
type CompileError struct {
	Diagnostics []Diagnostic
}

func (e *CompileError) Error() string {
	if len(e.Diagnostics) == 1 {
		return e.Diagnostics[0].Error()
	}
	return fmt.Sprintf("%d compile errors, first: %s", len(e.Diagnostics), e.Diagnostics[0].Error())
}

func (e *CompileError) Add(pos Pos, format string, args ...interface{}) {
	e.Diagnostics = append(e.Diagnostics, Diagnostic{
		Pos:      pos,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (e *CompileError) HasErrors() bool {
	return len(e.Diagnostics) > 0
}
