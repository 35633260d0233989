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

// Type is one of the four scalar source types the front end accepts, plus
// Void for functions without a return value. The back end is
// numerics-only: no floating-point codegen, word-sized throughout, so
// Type is consulted by the front end and by diagnostics, never by IRGen,
// CFGBuild, Liveness, the Allocator, or InstSel.
type Type int

const (
	TypeVoid Type = iota
	TypeInt
	TypeFloat
	TypeDouble
	TypeChar
)

func (t Type) String() string {
	switch t {
	case TypeVoid:
		return "void"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeChar:
		return "char"
	default:
		return "<unknown type>"
	}
}

func (t Type) IsScalar() bool {
	return t == TypeInt || t == TypeFloat || t == TypeDouble || t == TypeChar
}
