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

// Package liveness runs the two fixed-point dataflow analyses
// (block-level, then instruction-level) and builds the interference graph
// the allocator colors. It also publishes, on each CallStart instruction,
// the set of values live across that call, mutating the shared
// instruction slice in place the way CFGBuild mutates Frame.Range.
package liveness

import (
	"cc64/compile/cfgbuild"
	"cc64/ir"
	"cc64/utils"
)

// Result is everything Liveness produces for one function.
type Result struct {
	Function string

	// LiveIn/LiveOut are indexed by the instruction's position in the
	// shared whole-program instruction slice.
	LiveIn  map[int]*utils.OrderedStringSet
	LiveOut map[int]*utils.OrderedStringSet

	Interference *InterferenceGraph
}

func operandName(op ir.Operand) (string, bool) {
	if !op.IsVariable() {
		return "", false
	}
	return op.Name, true
}

// defUse computes an instruction's def (at most one name) and filtered use
// set (Var/Temp only, constants excluded).
func defUse(instr ir.Instruction) (string, bool, []string) {
	var def string
	var hasDef bool
	if d, ok := instr.Def(); ok {
		if name, ok := operandName(d); ok {
			def, hasDef = name, true
		}
	}
	var uses []string
	for _, u := range instr.Uses() {
		if name, ok := operandName(u); ok {
			uses = append(uses, name)
		}
	}
	return def, hasDef, uses
}

// blockDefUse computes a block's local def/use sets: use is whatever is
// read before any local write; def is everything written anywhere in the
// block.
func blockDefUse(instrs []ir.Instruction, b *cfgbuild.Block) {
	localDef := utils.NewOrderedStringSet()
	for idx := b.First; idx <= b.Last; idx++ {
		def, hasDef, uses := defUse(instrs[idx])
		for _, u := range uses {
			if !localDef.Contains(u) {
				b.UseSet.Add(u)
			}
		}
		if hasDef {
			localDef.Add(def)
			b.DefSet.Add(def)
		}
	}
}

// blockLevel runs the backwards block dataflow to a fixed point:
// live_out = union of successors' live_in; live_in = use ∪
// (live_out \ def).
func blockLevel(graph *cfgbuild.ControlFlowGraph) {
	for changed := true; changed; {
		changed = false
		for i := len(graph.Blocks) - 1; i >= 0; i-- {
			b := graph.Blocks[i]
			out := utils.NewOrderedStringSet()
			for _, succ := range b.Edges {
				out.Union(graph.Blocks[succ].LiveIn)
			}
			in := b.UseSet.Clone()
			out.ForEach(func(v string) {
				if !b.DefSet.Contains(v) {
					in.Add(v)
				}
			})
			if !out.Equals(b.LiveOut) || !in.Equals(b.LiveIn) {
				changed = true
			}
			b.LiveOut = out
			b.LiveIn = in
		}
	}
}

// instructionLevel refines block-level results to per-instruction live
// sets. Within one block the dependency is acyclic (instruction i's
// live_out is instruction i+1's live_in), so a single backward sweep per
// block is already a fixed point; across blocks the block-level sets
// already converged above.
func instructionLevel(instrs []ir.Instruction, graph *cfgbuild.ControlFlowGraph) (map[int]*utils.OrderedStringSet, map[int]*utils.OrderedStringSet) {
	liveIn := make(map[int]*utils.OrderedStringSet)
	liveOut := make(map[int]*utils.OrderedStringSet)

	for _, b := range graph.Blocks {
		out := b.LiveOut.Clone()
		for idx := b.Last; idx >= b.First; idx-- {
			liveOut[idx] = out
			def, hasDef, uses := defUse(instrs[idx])
			in := utils.NewOrderedStringSet()
			for _, u := range uses {
				in.Add(u)
			}
			out.ForEach(func(v string) {
				if !hasDef || v != def {
					in.Add(v)
				}
			})
			liveIn[idx] = in
			out = in
		}
	}
	return liveIn, liveOut
}

// buildInterference adds an edge between every def and its instruction-level
// live-out set, and registers every Var/Temp ever mentioned as a vertex
// even when isolated.
func buildInterference(instrs []ir.Instruction, first, last int, liveOut map[int]*utils.OrderedStringSet) *InterferenceGraph {
	g := NewInterferenceGraph()
	for idx := first; idx <= last; idx++ {
		def, hasDef, uses := defUse(instrs[idx])
		if hasDef {
			g.AddVertex(def)
		}
		for _, u := range uses {
			g.AddVertex(u)
		}
		if !hasDef {
			continue
		}
		liveOut[idx].ForEach(func(v string) {
			if v != def {
				g.AddEdge(def, v)
			}
		})
	}
	return g
}

// publishCallOperands fills in CallOperands on every CallStart instruction
// with its instruction-level live-out set, mutating instrs in place. This
// is what InstSel's push/pop lowering for CallStart/PopParams consumes.
func publishCallOperands(instrs []ir.Instruction, first, last int, liveOut map[int]*utils.OrderedStringSet) {
	for idx := first; idx <= last; idx++ {
		if instrs[idx].Op != ir.OpCallStart {
			continue
		}
		names := liveOut[idx].Items()
		ops := make([]ir.Operand, len(names))
		for i, n := range names {
			ops[i] = ir.Var(n)
		}
		instrs[idx].CallOperands = ops
	}
}

// Analyze runs both dataflow passes and builds the interference graph for
// one function, and publishes CallStart live-out sets into instrs.
func Analyze(instrs []ir.Instruction, graph *cfgbuild.ControlFlowGraph) *Result {
	for _, b := range graph.Blocks {
		blockDefUse(instrs, b)
	}
	blockLevel(graph)
	liveIn, liveOut := instructionLevel(instrs, graph)
	publishCallOperands(instrs, graph.First, graph.Last, liveOut)
	ifg := buildInterference(instrs, graph.First, graph.Last, liveOut)
	return &Result{
		Function:     graph.Function,
		LiveIn:       liveIn,
		LiveOut:      liveOut,
		Interference: ifg,
	}
}

// AnalyzeAll runs Analyze for every function in graphs, keyed the same way.
func AnalyzeAll(instrs []ir.Instruction, graphs map[string]*cfgbuild.ControlFlowGraph) map[string]*Result {
	results := make(map[string]*Result, len(graphs))
	for name, g := range graphs {
		results[name] = Analyze(instrs, g)
	}
	return results
}
