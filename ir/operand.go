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

// OperandKind discriminates the closed set of Operand variants.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandConst
	OperandVar
	OperandTemp
)

// Operand is an atomic value reference: a constant, a source-level
// variable, a compiler-generated temporary, or the absence of a value.
// Two operands are equal iff Kind and payload are equal (a plain struct
// comparison does this, since Operand holds only comparable fields).
// Var and Temp are both keyed for liveness/allocation purposes by Name
// alone; Const carries its literal in Value and never participates in a
// liveness or interference set.
type Operand struct {
	Kind  OperandKind
	Name  string // set for Var/Temp
	Value int64  // set for Const
}

var None = Operand{Kind: OperandNone}

func Const(v int64) Operand {
	return Operand{Kind: OperandConst, Value: v}
}

func Var(name string) Operand {
	return Operand{Kind: OperandVar, Name: name}
}

func Temp(name string) Operand {
	return Operand{Kind: OperandTemp, Name: name}
}

func (o Operand) IsNone() bool { return o.Kind == OperandNone }

func (o Operand) IsConst() bool { return o.Kind == OperandConst }

// IsVariable reports whether o is a Var or Temp, i.e. the kinds that
// participate in liveness and register allocation.
func (o Operand) IsVariable() bool {
	return o.Kind == OperandVar || o.Kind == OperandTemp
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandNone:
		return "<none>"
	case OperandConst:
		return fmt.Sprintf("%d", o.Value)
	case OperandVar, OperandTemp:
		return o.Name
	default:
		return "<bad operand>"
	}
}
