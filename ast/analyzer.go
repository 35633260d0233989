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
package ast

import "cc64/ir"

type signature struct {
	decl       *FuncDecl
	paramTypes []ir.Type
	returnType ir.Type
}

type analyzer struct {
	sigs  map[string]*signature
	errs  *ir.CompileError
	frame *ir.Frame // current function, set while walking its body
}

// Analyze resolves names, checks call arity, and builds the Frame table
// IRGen consumes: a typed AST together with a mapping from function name
// to Frame. User-visible mistakes are collected, not panicked on; a
// non-nil *ir.CompileError with HasErrors() == true means the back end
// must not run.
func Analyze(prog *Program) (map[string]*ir.Frame, *ir.CompileError) {
	a := &analyzer{sigs: make(map[string]*signature), errs: &ir.CompileError{}}

	for _, fn := range prog.Funcs {
		if _, dup := a.sigs[fn.Name]; dup {
			a.errs.Add(fn.Pos(), "redeclaration of function %q", fn.Name)
			continue
		}
		sig := &signature{decl: fn, returnType: fn.ReturnType}
		for _, p := range fn.Params {
			sig.paramTypes = append(sig.paramTypes, p.Type)
		}
		a.sigs[fn.Name] = sig
	}

	frames := make(map[string]*ir.Frame)
	for _, fn := range prog.Funcs {
		frame := ir.NewFrame(fn.Name)
		for _, p := range fn.Params {
			frame.AddParam(p.Name, p.Type)
		}
		fn.Frame = frame
		frames[fn.Name] = frame

		a.frame = frame
		scopes := []map[string]*ir.Symbol{{}}
		for _, p := range fn.Params {
			scopes[0][p.Name] = mustLookup(frame, p.Name)
		}
		a.walkBlock(fn.Body, scopes)
	}

	return frames, a.errs
}

func mustLookup(frame *ir.Frame, name string) *ir.Symbol {
	sym, ok := frame.Lookup(name)
	if !ok {
		panic("analyzer: symbol vanished: " + name)
	}
	return sym
}

func (a *analyzer) pushScope(scopes []map[string]*ir.Symbol) []map[string]*ir.Symbol {
	return append(scopes, map[string]*ir.Symbol{})
}

func (a *analyzer) lookup(scopes []map[string]*ir.Symbol, name string) (*ir.Symbol, bool) {
	for i := len(scopes) - 1; i >= 0; i-- {
		if sym, ok := scopes[i][name]; ok {
			return sym, true
		}
	}
	return nil, false
}

func (a *analyzer) walkBlock(b *BlockStmt, scopes []map[string]*ir.Symbol) {
	inner := a.pushScope(scopes)
	for _, s := range b.Stmts {
		a.walkStmt(s, inner)
	}
}

func (a *analyzer) walkStmt(s Stmt, scopes []map[string]*ir.Symbol) {
	switch n := s.(type) {
	case *BlockStmt:
		a.walkBlock(n, scopes)
	case *DeclStmt:
		if _, dup := scopes[len(scopes)-1][n.Name]; dup {
			a.errs.Add(n.Pos(), "redeclaration of %q", n.Name)
			return
		}
		sym := a.frame.AddLocal(n.Name, n.Type)
		if n.Init != nil {
			a.walkExpr(n.Init, scopes)
			sym.Initialized = true
		}
		scopes[len(scopes)-1][n.Name] = sym
	case *AssignStmt:
		a.walkExpr(n.Lhs, scopes)
		a.walkExpr(n.Rhs, scopes)
		if id, ok := n.Lhs.(*IdentExpr); ok {
			if sym, ok := a.lookup(scopes, id.Name); ok {
				sym.Initialized = true
			}
		}
	case *ExprStmt:
		a.walkExpr(n.X, scopes)
	case *IfStmt:
		a.walkExpr(n.Cond, scopes)
		a.walkBlock(n.Then, scopes)
		if n.Else != nil {
			a.walkBlock(n.Else, scopes)
		}
	case *ForStmt:
		inner := a.pushScope(scopes)
		if n.Init != nil {
			a.walkStmt(n.Init, inner)
		}
		if n.Cond != nil {
			a.walkExpr(n.Cond, inner)
		}
		if n.Step != nil {
			a.walkStmt(n.Step, inner)
		}
		a.walkBlock(n.Body, inner)
	case *WhileStmt:
		a.walkExpr(n.Cond, scopes)
		a.walkBlock(n.Body, scopes)
	case *ReturnStmt:
		if n.Value != nil {
			a.walkExpr(n.Value, scopes)
			if a.frame == nil {
				return
			}
			sig := a.sigs[a.frame.Name]
			if sig != nil && sig.returnType == ir.TypeVoid {
				a.errs.Add(n.Pos(), "function %q returns void but a value was given", a.frame.Name)
			}
		}
	default:
		a.errs.Add(s.Pos(), "internal: unhandled statement node %T", s)
	}
}

func (a *analyzer) walkExpr(e Expr, scopes []map[string]*ir.Symbol) {
	switch n := e.(type) {
	case *IntLit, *CharLit, *FloatLit, *DoubleLit:
		// already typed by the parser
	case *IdentExpr:
		sym, ok := a.lookup(scopes, n.Name)
		if !ok {
			a.errs.Add(n.Pos(), "undeclared name %q", n.Name)
			n.SetType(ir.TypeInt)
			return
		}
		n.SetType(sym.Type)
	case *GroupExpr:
		a.walkExpr(n.Inner, scopes)
		n.SetType(n.Inner.GetType())
	case *UnaryExpr:
		a.walkExpr(n.Operand, scopes)
		n.SetType(n.Operand.GetType())
	case *BinaryExpr:
		a.walkExpr(n.Left, scopes)
		a.walkExpr(n.Right, scopes)
		n.SetType(widen(n.Left.GetType(), n.Right.GetType()))
	case *CallExpr:
		sig, ok := a.sigs[n.Name]
		if !ok {
			a.errs.Add(n.Pos(), "call to undeclared function %q", n.Name)
			n.SetType(ir.TypeInt)
			return
		}
		if len(n.Args) != len(sig.paramTypes) {
			a.errs.Add(n.Pos(), "%q expects %d argument(s), got %d", n.Name, len(sig.paramTypes), len(n.Args))
		}
		for _, arg := range n.Args {
			a.walkExpr(arg, scopes)
		}
		n.SetType(sig.returnType)
	default:
		a.errs.Add(e.Pos(), "internal: unhandled expression node %T", e)
	}
}

// widen picks the result type of a binary operator applied to two scalar
// operands: the wider of the two, where int and char share the lowest
// rank, then float, then double; on a tie the left operand's type wins.
// The back end only ever lowers the integer
// case (Non-goals: no floating-point codegen); this purely feeds
// diagnostics and would-be future codegen.
func widen(a, b ir.Type) ir.Type {
	rank := func(t ir.Type) int {
		switch t {
		case ir.TypeInt, ir.TypeChar:
			return 0
		case ir.TypeFloat:
			return 1
		case ir.TypeDouble:
			return 2
		default:
			return 0
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}
