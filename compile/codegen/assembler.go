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
package codegen

import (
	"fmt"
	"strings"
)

// Assembler accumulates AT&T-syntax x86-64 text. Unlike a virtual-register
// scheme, every operand it's given is already a concrete Location (a
// register name or an `offset(%rbp)` string) or an immediate, so emission
// here is a thin, mostly mechanical layer over fmt.Sprintf, the way the
// teacher's own asm_x86.go stays thin over its LIR.
type Assembler struct {
	buf strings.Builder
}

func (a *Assembler) String() string { return a.buf.String() }

func (a *Assembler) comment(format string, args ...interface{}) {
	a.buf.WriteString("  # ")
	fmt.Fprintf(&a.buf, format, args...)
	a.buf.WriteByte('\n')
}

func (a *Assembler) line(format string, args ...interface{}) {
	a.buf.WriteString("  ")
	fmt.Fprintf(&a.buf, format, args...)
	a.buf.WriteByte('\n')
}

func (a *Assembler) globl(name string) {
	fmt.Fprintf(&a.buf, "  .globl %s\n", name)
}

func (a *Assembler) label(name string) {
	fmt.Fprintf(&a.buf, "%s:\n", name)
}

func (a *Assembler) mov(src, dst string) {
	if src == dst {
		return
	}
	a.line("movq %s, %s", src, dst)
}

func (a *Assembler) push(src string) { a.line("pushq %s", src) }
func (a *Assembler) pop(dst string)  { a.line("popq %s", dst) }

func (a *Assembler) add(src, dst string) { a.line("addq %s, %s", src, dst) }
func (a *Assembler) sub(src, dst string) { a.line("subq %s, %s", src, dst) }
func (a *Assembler) imul(src, dst string) { a.line("imulq %s, %s", src, dst) }
func (a *Assembler) and(src, dst string) { a.line("andq %s, %s", src, dst) }
func (a *Assembler) or(src, dst string)  { a.line("orq %s, %s", src, dst) }
func (a *Assembler) xor(src, dst string) { a.line("xorq %s, %s", src, dst) }
func (a *Assembler) neg(dst string)      { a.line("negq %s", dst) }
func (a *Assembler) not(dst string)      { a.line("notq %s", dst) }
func (a *Assembler) sal(count, dst string) { a.line("salq %s, %s", count, dst) }
func (a *Assembler) sar(count, dst string) { a.line("sarq %s, %s", count, dst) }
func (a *Assembler) cqto()               { a.line("cqto") }
func (a *Assembler) idiv(src string)     { a.line("idivq %s", src) }
func (a *Assembler) cmp(src, dst string) { a.line("cmpq %s, %s", src, dst) }
func (a *Assembler) test(src, dst string) { a.line("testq %s, %s", src, dst) }
func (a *Assembler) movzbl(src, dst string) { a.line("movzbl %s, %s", src, dst) }
func (a *Assembler) setcc(cc, dst string) { a.line("set%s %s", cc, dst) }
func (a *Assembler) jmp(target string)   { a.line("jmp %s", target) }
func (a *Assembler) jcc(cc, target string) { a.line("j%s %s", cc, target) }
func (a *Assembler) call(name string)    { a.line("call %s", name) }
func (a *Assembler) ret()                { a.line("ret") }
