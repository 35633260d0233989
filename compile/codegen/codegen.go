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

// Package codegen is InstSel: it walks a function's TAC slice with a
// cursor, consulting the allocator's table to turn each Operand into a
// concrete Location, and emits the canonical x86-64 sequence for every
// opcode. The one required optimization, the compare-branch peephole,
// fuses a comparison with an immediately following IfZero that tests
// its result.
package codegen

import (
	"cc64/compile/regalloc"
	"cc64/ir"
	"cc64/utils"
	"fmt"
)

// argRegisters names the six integer argument-passing registers, in
// calling-convention order, matching regalloc.ArgRegisterIDs.
var argRegisters = [6]string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

type funcGen struct {
	asm     *Assembler
	instrs  []ir.Instruction
	alloc   *regalloc.Result
	name    string
	labelNo int // fresh local labels (LogicalAnd), distinct from IRGen's L-namespace

	argIndex    int      // PushParam's position in the current call's argument list
	pendingCall []string // registers genCallStart pushed, for genPopParams to restore
}

func (g *funcGen) freshLabel() string {
	g.labelNo++
	return fmt.Sprintf(".Lcg_%s_%d", g.name, g.labelNo)
}

// loc turns an Operand into the text of an x86-64 operand: an immediate,
// a named register, or a stack slot.
func (g *funcGen) loc(op ir.Operand) string {
	if op.IsConst() {
		return fmt.Sprintf("$%d", op.Value)
	}
	if op.Name == "_ret" {
		return "%rax"
	}
	va, ok := g.alloc.Variables[op.Name]
	utils.Assert(ok, "codegen: function %s: %q missing from allocator table", g.name, op.Name)
	if va.Spilled {
		return fmt.Sprintf("%d(%%rbp)", va.Offset)
	}
	return "%" + regalloc.RegisterNames[va.RegisterID]
}

func isMemory(loc string) bool {
	return len(loc) > 0 && loc[0] != '%' && loc[0] != '$'
}

// GenerateProgram lowers the whole program's TAC to a single assembly
// text buffer, one function at a time, in the order functions appear in
// the instruction stream.
func GenerateProgram(instrs []ir.Instruction, frames map[string]*ir.Frame, allocs map[string]*regalloc.Result) string {
	asm := &Assembler{}
	i := 0
	for i < len(instrs) {
		if instrs[i].Op != ir.OpLabel || i+1 >= len(instrs) || instrs[i+1].Op != ir.OpBeginFunc {
			i++
			continue
		}
		name := instrs[i].Target
		frame := frames[name]
		g := &funcGen{asm: asm, instrs: instrs, alloc: allocs[name], name: name}
		g.genFunction(frame.RangeFirst, frame.RangeLast)
		i = frame.RangeLast + 1
	}
	return asm.String()
}

func (g *funcGen) genFunction(first, last int) {
	utils.Assert(g.instrs[first].Op == ir.OpLabel, "codegen: function %s: range does not start with Label", g.name)
	utils.Assert(g.instrs[first+1].Op == ir.OpBeginFunc, "codegen: function %s: missing BeginFunc", g.name)
	utils.Assert(g.instrs[last].Op == ir.OpEndFunc, "codegen: function %s: range does not end with EndFunc", g.name)

	g.asm.globl(g.name)
	g.asm.label(g.name)
	g.asm.comment("prologue")
	g.asm.push("%rbp")
	g.asm.mov("%rsp", "%rbp")
	if g.alloc.FrameSize > 0 {
		g.asm.sub(fmt.Sprintf("$%d", g.alloc.FrameSize), "%rsp")
	}

	i := first + 2
	for i < last {
		i = g.genInstr(i, last)
	}

	g.asm.label(g.name + "_end")
	g.asm.comment("epilogue")
	g.asm.mov("%rbp", "%rsp")
	g.asm.pop("%rbp")
	g.asm.ret()
}

// invertedJump maps a comparison opcode to the jump mnemonic for IfZero's
// "jump when the comparison is false" semantics (Equal → jne, Greater →
// jle, etc.).
func invertedJump(op ir.Op) string {
	switch op {
	case ir.OpEqual:
		return "ne"
	case ir.OpNotEqual:
		return "e"
	case ir.OpGreater:
		return "le"
	case ir.OpGreaterEqual:
		return "l"
	case ir.OpLess:
		return "ge"
	case ir.OpLessEqual:
		return "g"
	case ir.OpLogicalOr:
		return "e"
	default:
		utils.ShouldNotReachHere()
	}
	return ""
}

// setSuffix maps a comparison opcode to its `setcc` suffix for the
// non-fused case.
func setSuffix(op ir.Op) string {
	switch op {
	case ir.OpEqual:
		return "e"
	case ir.OpNotEqual:
		return "ne"
	case ir.OpGreater:
		return "g"
	case ir.OpGreaterEqual:
		return "ge"
	case ir.OpLess:
		return "l"
	case ir.OpLessEqual:
		return "le"
	case ir.OpLogicalOr:
		return "ne"
	default:
		utils.ShouldNotReachHere()
	}
	return ""
}

// genInstr lowers the instruction at i and returns the index of the next
// unprocessed instruction (i+1, or i+2 when the compare-branch peephole
// fuses i with i+1).
func (g *funcGen) genInstr(i, last int) int {
	instr := g.instrs[i]

	if instr.Op.IsCompare() {
		if i+1 < last && g.instrs[i+1].Op == ir.OpIfZero && g.instrs[i+1].Arg1 == instr.Dest {
			g.genCompareBranch(instr, g.instrs[i+1].Target)
			return i + 2
		}
	}

	switch instr.Op {
	case ir.OpLabel:
		g.asm.label(instr.Target)
	case ir.OpGoto:
		g.asm.jmp(instr.Target)
	case ir.OpIfZero:
		g.genIfZero(instr)
	case ir.OpReturn:
		g.genReturn(instr)
	case ir.OpAssign:
		g.genAssign(instr)
	case ir.OpAdd:
		g.genArith(instr, g.asm.add)
	case ir.OpSub:
		g.genArith(instr, g.asm.sub)
	case ir.OpMul:
		g.genArith(instr, g.asm.imul)
	case ir.OpDiv:
		g.genDivMod(instr, "%rax")
	case ir.OpMod:
		g.genDivMod(instr, "%rdx")
	case ir.OpBitwiseAnd:
		g.genArith(instr, g.asm.and)
	case ir.OpBitwiseOr:
		g.genArith(instr, g.asm.or)
	case ir.OpBitwiseXor:
		g.genArith(instr, g.asm.xor)
	case ir.OpShiftLeft:
		g.genShift(instr, g.asm.sal)
	case ir.OpShiftRight:
		g.genShift(instr, g.asm.sar)
	case ir.OpLogicalAnd:
		g.genLogicalAnd(instr)
	case ir.OpLogicalOr:
		g.genCompare(instr)
	case ir.OpEqual, ir.OpNotEqual, ir.OpGreater, ir.OpGreaterEqual, ir.OpLess, ir.OpLessEqual:
		g.genCompare(instr)
	case ir.OpNeg:
		g.genUnary(instr, func(dst string) { g.asm.neg(dst) })
	case ir.OpComplement:
		g.genUnary(instr, func(dst string) { g.asm.not(dst) })
	case ir.OpNot:
		g.genLogicalNot(instr)
	case ir.OpCallStart:
		g.genCallStart(instr)
	case ir.OpPushParam:
		g.genPushParam(instr)
	case ir.OpLCall:
		g.asm.call(instr.FuncName)
		if g.instrs[i+1].Op != ir.OpPopParams {
			// a call without arguments has no PopParams; restore the saves here
			g.genPopParams()
		}
	case ir.OpPopParams:
		g.genPopParams()
	default:
		utils.Fatal("codegen: function %s: unhandled opcode %v", g.name, instr.Op)
	}
	return i + 1
}

func (g *funcGen) genIfZero(instr ir.Instruction) {
	cond := g.loc(instr.Arg1)
	g.asm.test(cond, cond)
	g.asm.jcc("e", instr.Target)
}

func (g *funcGen) genReturn(instr ir.Instruction) {
	if !instr.Arg1.IsNone() {
		g.asm.mov(g.loc(instr.Arg1), "%rax")
	}
	g.asm.jmp(g.name + "_end")
}

func (g *funcGen) genAssign(instr ir.Instruction) {
	src, dst := g.loc(instr.Arg1), g.loc(instr.Dest)
	if isMemory(src) && isMemory(dst) {
		g.asm.mov(src, "%rax")
		g.asm.mov("%rax", dst)
		return
	}
	g.asm.mov(src, dst)
}

func (g *funcGen) genArith(instr ir.Instruction, op func(src, dst string)) {
	a, b, d := g.loc(instr.Arg1), g.loc(instr.Arg2), g.loc(instr.Dest)
	g.asm.mov(a, "%rax")
	op(b, "%rax")
	if d != "%rax" {
		g.asm.mov("%rax", d)
	}
}

// genDivMod divides through %rax/%rbx. cqto and idivq overwrite %rdx,
// which is in the allocatable pool (it also backs the 3rd argument
// register), so %rdx is saved around the division and restored before
// the result is stored.
func (g *funcGen) genDivMod(instr ir.Instruction, result string) {
	a, b, d := g.loc(instr.Arg1), g.loc(instr.Arg2), g.loc(instr.Dest)
	g.asm.push("%rdx")
	g.asm.mov(b, "%rbx")
	g.asm.mov(a, "%rax")
	g.asm.cqto()
	g.asm.idiv("%rbx")
	g.asm.mov(result, "%rax")
	g.asm.pop("%rdx")
	if d != "%rax" {
		g.asm.mov("%rax", d)
	}
}

// genShift stages the shift count in %cl, the only register the variable
// forms of salq/sarq accept. %rcx is in the allocatable pool (it also
// backs the 4th argument register), so a live value colored there is
// saved around the shift and restored before the result is stored, the
// same way genDivMod saves %rdx.
func (g *funcGen) genShift(instr ir.Instruction, op func(count, dst string)) {
	a, b, d := g.loc(instr.Arg1), g.loc(instr.Arg2), g.loc(instr.Dest)
	g.asm.push("%rcx")
	g.asm.mov(a, "%rax")
	g.asm.mov(b, "%rcx")
	op("%cl", "%rax")
	g.asm.pop("%rcx")
	if d != "%rax" {
		g.asm.mov("%rax", d)
	}
}

func (g *funcGen) genUnary(instr ir.Instruction, op func(dst string)) {
	a, d := g.loc(instr.Arg1), g.loc(instr.Dest)
	g.asm.mov(a, "%rax")
	op("%rax")
	if d != "%rax" {
		g.asm.mov("%rax", d)
	}
}

// genCompare emits the full, non-fused comparison or LogicalOr sequence:
// the flag-setting instruction, setcc into %al, zero-extend, then store
// to the destination.
func (g *funcGen) genCompare(instr ir.Instruction) {
	a, b, d := g.loc(instr.Arg1), g.loc(instr.Arg2), g.loc(instr.Dest)
	g.asm.mov(a, "%rax")
	if instr.Op == ir.OpLogicalOr {
		g.asm.or(b, "%rax")
	} else {
		g.asm.cmp(b, "%rax")
	}
	g.asm.setcc(setSuffix(instr.Op), "%al")
	g.asm.movzbl("%al", "%eax")
	if d != "%rax" {
		g.asm.mov("%rax", d)
	}
}

// genCompareBranch is the compare-branch peephole: skip materializing the
// boolean and jump straight off the flags set by cmpq/orq.
func (g *funcGen) genCompareBranch(instr ir.Instruction, target string) {
	a, b := g.loc(instr.Arg1), g.loc(instr.Arg2)
	g.asm.mov(a, "%rax")
	if instr.Op == ir.OpLogicalOr {
		g.asm.or(b, "%rax")
	} else {
		g.asm.cmp(b, "%rax")
	}
	g.asm.jcc(invertedJump(instr.Op), target)
}

// genLogicalAnd lowers short-circuit &&: only evaluate b if a is truthy,
// and the result is always canonicalized to 0 or 1.
func (g *funcGen) genLogicalAnd(instr ir.Instruction) {
	a, b, d := g.loc(instr.Arg1), g.loc(instr.Arg2), g.loc(instr.Dest)
	lfalse := g.freshLabel()
	lend := g.freshLabel()
	g.asm.mov(a, "%rax")
	g.asm.test("%rax", "%rax")
	g.asm.jcc("e", lfalse)
	g.asm.mov(b, "%rax")
	g.asm.test("%rax", "%rax")
	g.asm.jcc("e", lfalse)
	g.asm.mov("$1", "%rax")
	g.asm.jmp(lend)
	g.asm.label(lfalse)
	g.asm.mov("$0", "%rax")
	g.asm.label(lend)
	if d != "%rax" {
		g.asm.mov("%rax", d)
	}
}

func (g *funcGen) genLogicalNot(instr ir.Instruction) {
	a, d := g.loc(instr.Arg1), g.loc(instr.Dest)
	g.asm.mov(a, "%rax")
	g.asm.test("%rax", "%rax")
	g.asm.setcc("e", "%al")
	g.asm.movzbl("%al", "%eax")
	if d != "%rax" {
		g.asm.mov("%rax", d)
	}
}

// genCallStart saves every register-allocated value CallStart reports
// live across the upcoming call, in order. Spilled values already live
// in memory and need no saving.
func (g *funcGen) genCallStart(instr ir.Instruction) {
	g.pendingCall = nil
	for _, op := range instr.CallOperands {
		va, ok := g.alloc.Variables[op.Name]
		if !ok || va.Spilled {
			continue
		}
		reg := regalloc.RegisterNames[va.RegisterID]
		g.asm.push("%" + reg)
		g.pendingCall = append(g.pendingCall, reg)
	}
}

// genPushParam moves the next call argument into its calling-convention
// register; args beyond the register-passed arity spill onto the stack
// immediately before the call, since the fixed 6-register convention
// has no slot left for them.
func (g *funcGen) genPushParam(instr ir.Instruction) {
	idx := g.argIndex
	g.argIndex++
	src := g.loc(instr.Arg1)
	if idx < len(argRegisters) {
		g.asm.mov(src, "%"+argRegisters[idx])
		return
	}
	g.asm.push(src)
}

func (g *funcGen) genPopParams() {
	g.argIndex = 0
	// Undo CallStart's saves: pop the registers genCallStart recorded in
	// pendingCall, in reverse order.
	if g.pendingCall == nil {
		return
	}
	for i := len(g.pendingCall) - 1; i >= 0; i-- {
		g.asm.pop("%" + g.pendingCall[i])
	}
	g.pendingCall = nil
}
