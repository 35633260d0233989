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

import "strings"

// PrintTAC renders an instruction stream one instruction per line,
// indented with three spaces, labels flush-left ending in ":".
func PrintTAC(instrs []Instruction) string {
	var b strings.Builder
	for _, inst := range instrs {
		if inst.Op == OpLabel {
			b.WriteString(inst.Target)
			b.WriteString(":\n")
			continue
		}
		b.WriteString("   ")
		b.WriteString(inst.String())
		b.WriteString("\n")
	}
	return b.String()
}
