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

// Package regalloc colors the interference graph Liveness built, Chaitin
// style: pre-color parameters to their calling-convention registers, then
// run Simplify (push low-degree vertices onto a work stack, spilling when
// none remain) to completion, and then Select (pop the stack, assigning
// the lowest free color or a stack slot), which gives every variable a
// home.
package regalloc

import (
	"cc64/compile/liveness"
	"cc64/ir"
	"cc64/utils"
)

// K is the number of general-purpose registers in the allocatable pool.
const K = 12

// RegisterNames is the physical register file backing color ids
// [0, K): r10..r15, then the six argument-passing registers. Codegen uses
// this table to turn a color into a mnemonic operand.
var RegisterNames = [K]string{
	"r10", "r11", "r12", "r13", "r14", "r15",
	"rdi", "rsi", "rdx", "rcx", "r8", "r9",
}

// ArgRegisterIDs lists the color ids aliased by the first six
// argument-passing registers, in calling-convention order: a parameter's
// pre-coloring target is one of these registers.
var ArgRegisterIDs = [6]int{6, 7, 8, 9, 10, 11}

// VarAlloc is a variable's final home: either a register color or a
// spill slot, never both.
type VarAlloc struct {
	Name       string
	RegisterID int // valid iff !Spilled
	Spilled    bool
	Offset     int // valid iff Spilled: negative, 8-byte aligned, unique
}

// Result is one function's allocation. FrameSize is the stack reservation
// InstSel must emit in the function's prologue: declared locals plus
// whatever spill slots Select added, 16-byte aligned.
type Result struct {
	Function  string
	Variables map[string]*VarAlloc
	FrameSize int
}

type stackEntry struct {
	name      string
	neighbors []string
	spilled   bool
}

// Allocate colors ifg for one function, modifying ifg in the process:
// Simplify removes vertices and Select re-inserts each vertex it colors
// together with the edges recorded at its removal. Afterwards ifg holds
// every colored variable and its interference edges; a spilled vertex
// reappears only as the endpoint of such an edge.
func Allocate(ifg *liveness.InterferenceGraph, frame *ir.Frame) *Result {
	vars := make(map[string]*VarAlloc)
	preColored := utils.NewSet[string]()

	// A parameter's argument register follows its declaration index, the
	// same index the caller's PushParam sequence uses.
	for argIdx, p := range frame.Params {
		if !ifg.HasVertex(p.Name) {
			continue // dead-on-entry: no interference vertex, nothing to color
		}
		if argIdx >= len(ArgRegisterIDs) {
			continue // beyond the register-passed arity; treated as an ordinary variable
		}
		vars[p.Name] = &VarAlloc{Name: p.Name, RegisterID: ArgRegisterIDs[argIdx]}
		preColored.Add(p.Name)
	}

	stack := simplify(ifg, preColored)
	spillCursor := frame.LocalsSize
	spillCursor = selectPhase(ifg, stack, vars, &spillCursor)

	return &Result{
		Function:  frame.Name,
		Variables: vars,
		FrameSize: utils.Align16(spillCursor),
	}
}

// simplify repeatedly removes a non-pre-colored vertex of degree < K,
// spilling (removing any remaining non-pre-colored vertex, insertion-last
// for determinism) when none qualifies, until only pre-colored vertices
// remain: those are never removed during simplify. preColored is queried
// only for membership, never iterated, so the plain unordered Set is fine
// here — determinism comes from ifg.Vertices()'s insertion order, not from
// this set.
func simplify(ifg *liveness.InterferenceGraph, preColored *utils.Set[string]) []stackEntry {
	var stack []stackEntry
	for {
		vs := ifg.Vertices()
		picked := ""
		for _, v := range vs {
			if preColored.Contains(v) {
				continue
			}
			if ifg.Degree(v) < K {
				picked = v
				break
			}
		}
		spilled := false
		if picked == "" {
			for i := len(vs) - 1; i >= 0; i-- {
				if !preColored.Contains(vs[i]) {
					picked = vs[i]
					spilled = true
					break
				}
			}
		}
		if picked == "" {
			break // only pre-colored vertices remain
		}
		neighbors := ifg.RemoveVertex(picked)
		stack = append(stack, stackEntry{name: picked, neighbors: neighbors, spilled: spilled})
	}
	return stack
}

// selectPhase pops the stack in LIFO order (the reverse of removal, so
// every recorded neighbor still live at pop time is already decided),
// assigns spill offsets or the lowest free color, and returns the
// advanced spill cursor.
func selectPhase(ifg *liveness.InterferenceGraph, stack []stackEntry, vars map[string]*VarAlloc, cursor *int) int {
	c := *cursor
	for i := len(stack) - 1; i >= 0; i-- {
		e := stack[i]
		if e.spilled {
			c += 8
			vars[e.name] = &VarAlloc{Name: e.name, Spilled: true, RegisterID: -1, Offset: -c}
			continue
		}
		ifg.RestoreVertex(e.name, e.neighbors)
		var used [K]bool
		for _, n := range e.neighbors {
			if va, ok := vars[n]; ok && !va.Spilled {
				used[va.RegisterID] = true
			}
		}
		color := -1
		for cand := 0; cand < K; cand++ {
			if !used[cand] {
				color = cand
				break
			}
		}
		utils.Assert(color != -1, "regalloc: select found no free color for %q (cannot fail by construction: degree < K when pushed)", e.name)
		vars[e.name] = &VarAlloc{Name: e.name, RegisterID: color}
	}
	return c
}

// AllocateAll runs Allocate for every function, keyed by name.
func AllocateAll(results map[string]*liveness.Result, frames map[string]*ir.Frame) map[string]*Result {
	out := make(map[string]*Result, len(results))
	for name, r := range results {
		out[name] = Allocate(r.Interference, frames[name])
	}
	return out
}
