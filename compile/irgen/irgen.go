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

// Package irgen lowers a typed AST to a flat three-address-code
// instruction stream for the whole program. A single pass, cgen, walks
// each function post-order; it returns the Operand holding an
// expression's result, or ir.None for statements.
package irgen

import (
	"cc64/ast"
	"cc64/ir"
	"cc64/utils"
	"fmt"
)

// state threads the whole-program temp/label counters through recursion
// as a single mutable counter rather than ambient package state, keeping
// the pass referentially transparent per run. Counters do not reset
// between functions (t0, t1, ... and L0, L1, ... are global).
type state struct {
	instrs  []ir.Instruction
	tempNo  int
	labelNo int
}

func (s *state) emit(i ir.Instruction) {
	s.instrs = append(s.instrs, i)
}

func (s *state) newTemp() ir.Operand {
	name := fmt.Sprintf("t%d", s.tempNo)
	s.tempNo++
	return ir.Temp(name)
}

func (s *state) newLabel() string {
	name := fmt.Sprintf("L%d", s.labelNo)
	s.labelNo++
	return name
}

// Generate lowers every function declaration in prog to TAC, in
// declaration order, using frames for each function's declared locals
// size to emit BeginFunc(locals_size).
func Generate(prog *ast.Program, frames map[string]*ir.Frame) []ir.Instruction {
	s := &state{}
	for _, fn := range prog.Funcs {
		frame := frames[fn.Name]
		s.emit(ir.Label(fn.Name))
		s.emit(ir.BeginFunc(frame.LocalsSize))
		s.genStmt(fn.Body)
		s.emit(ir.EndFunc())
	}
	return s.instrs
}

func (s *state) genStmt(stmt ast.Stmt) {
	switch n := stmt.(type) {
	case *ast.BlockStmt:
		for _, child := range n.Stmts {
			s.genStmt(child)
		}
	case *ast.DeclStmt:
		if n.Init != nil {
			val := s.genExpr(n.Init)
			s.emit(ir.Assign(ir.Var(n.Name), val))
		}
		// No initializer: the analyzer already reserved the local's slot
		// in the frame; nothing to emit.
	case *ast.AssignStmt:
		lhs := s.genLValue(n.Lhs)
		rhs := s.genExpr(n.Rhs)
		s.emit(ir.Assign(lhs, rhs))
	case *ast.ExprStmt:
		s.genExpr(n.X)
	case *ast.IfStmt:
		s.genIf(n)
	case *ast.ForStmt:
		s.genFor(n)
	case *ast.WhileStmt:
		s.genWhile(n)
	case *ast.ReturnStmt:
		s.genReturn(n)
	default:
		utils.Fatal("irgen: unhandled statement node %T", stmt)
	}
}

func (s *state) genIf(n *ast.IfStmt) {
	cond := s.genExpr(n.Cond)
	if n.Else == nil {
		lend := s.newLabel()
		s.emit(ir.IfZero(cond, lend))
		s.genStmt(n.Then)
		s.emit(ir.Label(lend))
		return
	}
	lelse := s.newLabel()
	lend := s.newLabel()
	s.emit(ir.IfZero(cond, lelse))
	s.genStmt(n.Then)
	s.emit(ir.Goto(lend))
	s.emit(ir.Label(lelse))
	s.genStmt(n.Else)
	s.emit(ir.Label(lend))
}

// genCond evaluates a (possibly absent, meaning "always true") loop
// condition. It is called twice by genFor/genWhile, once before the loop
// body and once after; re-evaluating rather than caching matches the
// source language's per-iteration condition semantics.
func (s *state) genCond(cond ast.Expr) ir.Operand {
	if cond == nil {
		return ir.Const(1)
	}
	return s.genExpr(cond)
}

func (s *state) genFor(n *ast.ForStmt) {
	if n.Init != nil {
		s.genStmt(n.Init)
	}
	lloop := s.newLabel()
	lend := s.newLabel()
	s.emit(ir.IfZero(s.genCond(n.Cond), lend))
	s.emit(ir.Label(lloop))
	s.genStmt(n.Body)
	if n.Step != nil {
		s.genStmt(n.Step)
	}
	s.emit(ir.IfZero(s.genCond(n.Cond), lend))
	s.emit(ir.Goto(lloop))
	s.emit(ir.Label(lend))
}

func (s *state) genWhile(n *ast.WhileStmt) {
	lloop := s.newLabel()
	lend := s.newLabel()
	s.emit(ir.IfZero(s.genCond(n.Cond), lend))
	s.emit(ir.Label(lloop))
	s.genStmt(n.Body)
	s.emit(ir.IfZero(s.genCond(n.Cond), lend))
	s.emit(ir.Goto(lloop))
	s.emit(ir.Label(lend))
}

func (s *state) genReturn(n *ast.ReturnStmt) {
	if n.Value == nil {
		s.emit(ir.Return(ir.None))
		return
	}
	val := s.genExpr(n.Value)
	val = s.hoistConst(val)
	s.emit(ir.Return(val))
}

// hoistConst materializes a raw constant operand into a temporary.
// Return values and call arguments both need an addressable operand, so
// a bare constant is never passed through directly.
func (s *state) hoistConst(op ir.Operand) ir.Operand {
	if !op.IsConst() {
		return op
	}
	t := s.newTemp()
	s.emit(ir.Assign(t, op))
	return t
}

// genLValue resolves the target of an assignment. The language's grammar
// has no array or pointer lvalues, so only a bare identifier is
// assignable.
func (s *state) genLValue(e ast.Expr) ir.Operand {
	id, ok := e.(*ast.IdentExpr)
	if !ok {
		utils.Fatal("irgen: unsupported assignment target %T", e)
	}
	return ir.Var(id.Name)
}

func (s *state) genExpr(e ast.Expr) ir.Operand {
	switch n := e.(type) {
	case *ast.IntLit:
		return ir.Const(n.Value)
	case *ast.CharLit:
		return ir.Const(n.Value)
	case *ast.FloatLit:
		// Non-goal: no floating-point codegen. The front end accepts the
		// type; the back end treats every value as an integer word, so a
		// float literal degrades to its truncated integer value rather
		// than panicking.
		return ir.Const(int64(n.Value))
	case *ast.DoubleLit:
		return ir.Const(int64(n.Value))
	case *ast.GroupExpr:
		return s.genExpr(n.Inner) // parenthesized grouping is transparent
	case *ast.IdentExpr:
		return ir.Var(n.Name)
	case *ast.UnaryExpr:
		return s.genUnary(n)
	case *ast.BinaryExpr:
		return s.genBinary(n)
	case *ast.CallExpr:
		return s.genCall(n)
	default:
		utils.Fatal("irgen: unhandled expression node %T", e)
	}
	return ir.None
}

func (s *state) genUnary(n *ast.UnaryExpr) ir.Operand {
	arg := s.genExpr(n.Operand)
	dest := s.newTemp()
	s.emit(ir.Unary(unaryOp(n.Op), dest, arg))
	return dest
}

func (s *state) genBinary(n *ast.BinaryExpr) ir.Operand {
	left := s.genExpr(n.Left)
	right := s.genExpr(n.Right)
	dest := s.newTemp()
	s.emit(ir.Binary(binaryOp(n.Op), dest, left, right))
	return dest
}

func (s *state) genCall(n *ast.CallExpr) ir.Operand {
	args := make([]ir.Operand, 0, len(n.Args))
	for _, a := range n.Args {
		args = append(args, s.hoistConst(s.genExpr(a)))
	}
	// CallStart marks the program point Liveness will use to compute what
	// is alive across the call; IRGen can't know that yet, so it emits an
	// empty marker that Liveness fills in.
	s.emit(ir.CallStart(nil))
	for _, a := range args {
		s.emit(ir.PushParam(a))
	}
	s.emit(ir.LCall(n.Name))
	if len(args) > 0 {
		s.emit(ir.PopParams(len(args) * 8))
	}
	// _ret is a single shared operand aliased to %rax by convention; hoist
	// it into a fresh temp immediately so an expression with more than one
	// call (e.g. f(1) + g(2)) doesn't have its first call's result
	// clobbered by the second, and so the value that enters liveness is a
	// distinct name per call rather than one name colored to %rax.
	dest := s.newTemp()
	s.emit(ir.Assign(dest, ir.Var("_ret")))
	return dest
}

func binaryOp(tok ast.TokenKind) ir.Op {
	switch tok {
	case ast.TkPlus:
		return ir.OpAdd
	case ast.TkMinus:
		return ir.OpSub
	case ast.TkStar:
		return ir.OpMul
	case ast.TkSlash:
		return ir.OpDiv
	case ast.TkPercent:
		return ir.OpMod
	case ast.TkShl:
		return ir.OpShiftLeft
	case ast.TkShr:
		return ir.OpShiftRight
	case ast.TkAmp:
		return ir.OpBitwiseAnd
	case ast.TkPipe:
		return ir.OpBitwiseOr
	case ast.TkCaret:
		return ir.OpBitwiseXor
	case ast.TkAmpAmp:
		return ir.OpLogicalAnd
	case ast.TkPipePipe:
		return ir.OpLogicalOr
	case ast.TkEq:
		return ir.OpEqual
	case ast.TkNe:
		return ir.OpNotEqual
	case ast.TkGt:
		return ir.OpGreater
	case ast.TkGe:
		return ir.OpGreaterEqual
	case ast.TkLt:
		return ir.OpLess
	case ast.TkLe:
		return ir.OpLessEqual
	default:
		utils.ShouldNotReachHere()
	}
	return 0
}

func unaryOp(tok ast.TokenKind) ir.Op {
	switch tok {
	case ast.TkMinus:
		return ir.OpNeg
	case ast.TkTilde:
		return ir.OpComplement
	case ast.TkBang:
		return ir.OpNot
	default:
		utils.ShouldNotReachHere()
	}
	return 0
}
