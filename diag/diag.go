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

// Package diag prints the three compiler error classes — user-visible
// compile errors, internal invariant failures, and external toolchain
// errors — to an io.Writer, color-coded by severity.
package diag

import (
	"cc64/ir"
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	errorLabel    = color.New(color.FgRed, color.Bold)
	internalLabel = color.New(color.FgMagenta, color.Bold)
	toolchainLabel = color.New(color.FgYellow, color.Bold)
	posColor      = color.New(color.Faint)
)

// PrintCompileError reports every diagnostic in errs, one per line.
func PrintCompileError(w io.Writer, errs *ir.CompileError) {
	for _, d := range errs.Diagnostics {
		label := errorLabel
		if d.Severity == ir.SeverityInternal {
			label = internalLabel
		}
		fmt.Fprintf(w, "%s %s %s\n", posColor.Sprint(d.Pos.String()), label.Sprint("error:"), d.Message)
	}
}

// PrintInternalError reports a fatal internal-invariant failure: a pass
// name and the failing assertion.
func PrintInternalError(w io.Writer, pass string, err error) {
	fmt.Fprintf(w, "%s %s\n", internalLabel.Sprintf("internal error (%s):", pass), err)
}

// PrintToolchainError reports a nonzero-exit assembler/linker failure,
// with the subprocess's stderr verbatim.
func PrintToolchainError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", toolchainLabel.Sprint("toolchain error:"), err)
}
