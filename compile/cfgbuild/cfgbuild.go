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

// Package cfgbuild partitions a function's instruction slice into basic
// blocks and links their successor edges. It owns the Block and
// ControlFlowGraph types shared by Liveness and the Allocator, keeping
// a block type and the builder that constructs it in one place.
package cfgbuild

import (
	"cc64/ir"
	"cc64/utils"
	"fmt"
)

// Block is a maximal instruction range with one entry and one exit.
// Def/Use/LiveIn/LiveOut are filled in later by Liveness; they are empty
// sets right after CFGBuild runs.
type Block struct {
	Id    int
	Label string // optional: set when the block starts with an ir.Label
	First int    // first instruction index, inclusive
	Last  int    // last instruction index, inclusive
	Edges []int  // successor block ids, in taken-then-fallthrough order

	DefSet  *utils.OrderedStringSet
	UseSet  *utils.OrderedStringSet
	LiveIn  *utils.OrderedStringSet
	LiveOut *utils.OrderedStringSet
}

func newBlock(id, first, last int) *Block {
	return &Block{
		Id:      id,
		First:   first,
		Last:    last,
		DefSet:  utils.NewOrderedStringSet(),
		UseSet:  utils.NewOrderedStringSet(),
		LiveIn:  utils.NewOrderedStringSet(),
		LiveOut: utils.NewOrderedStringSet(),
	}
}

// ControlFlowGraph is the per-function container CFGBuild produces:
// ordered blocks (numbered in program order starting at 0) plus the
// function's range in the shared instruction stream.
type ControlFlowGraph struct {
	Function string
	Blocks   []*Block
	First    int
	Last     int
}

func (g *ControlFlowGraph) Block(id int) *Block {
	return g.Blocks[id]
}

// partition splits [first, last] into blocks: a block starts at
// the function's entry Label/BeginFunc or any Label in the body, and
// ends at IfZero, Goto, EndFunc, or just before the next Label.
func partition(instrs []ir.Instruction, first, last int) []*Block {
	var blocks []*Block
	i := first
	for i <= last {
		start := i
		for i <= last {
			inst := instrs[i]
			if inst.IsTerminator() {
				i++
				break
			}
			if i > start && inst.IsBlockStart() {
				break
			}
			i++
		}
		b := newBlock(len(blocks), start, i-1)
		if instrs[start].Op == ir.OpLabel {
			b.Label = instrs[start].Target
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// linkEdges computes each block's successor edges from its terminator.
func linkEdges(blocks []*Block, instrs []ir.Instruction, funcName string) error {
	labelToBlock := make(map[string]int, len(blocks))
	for _, b := range blocks {
		if b.Label != "" {
			labelToBlock[b.Label] = b.Id
		}
	}
	resolve := func(target string) (int, error) {
		id, ok := labelToBlock[target]
		if !ok {
			return 0, fmt.Errorf("cfgbuild: function %s: missing label target %q", funcName, target)
		}
		return id, nil
	}
	for idx, b := range blocks {
		last := instrs[b.Last]
		switch last.Op {
		case ir.OpIfZero:
			taken, err := resolve(last.Target)
			if err != nil {
				return err
			}
			b.Edges = append(b.Edges, taken)
			if idx+1 < len(blocks) {
				b.Edges = append(b.Edges, blocks[idx+1].Id)
			}
		case ir.OpGoto:
			target, err := resolve(last.Target)
			if err != nil {
				return err
			}
			b.Edges = append(b.Edges, target)
		case ir.OpEndFunc:
			// no successors
		default:
			// block ended because the next label forced a close: single
			// fallthrough edge.
			if idx+1 < len(blocks) {
				b.Edges = append(b.Edges, blocks[idx+1].Id)
			}
		}
	}
	return nil
}

// Build constructs the CFG for a single function whose instructions occupy
// instrs[first..last] inclusive, and records that range on frame.
func Build(instrs []ir.Instruction, frame *ir.Frame, first, last int) (*ControlFlowGraph, error) {
	frame.RangeFirst = first
	frame.RangeLast = last
	blocks := partition(instrs, first, last)
	if err := linkEdges(blocks, instrs, frame.Name); err != nil {
		return nil, err
	}
	return &ControlFlowGraph{Function: frame.Name, Blocks: blocks, First: first, Last: last}, nil
}

// BuildAll scans the whole-program instruction stream emitted by IRGen,
// locates each function's range (an ir.Label immediately followed by
// ir.BeginFunc, up to the matching ir.EndFunc), and builds its CFG. Frames
// is keyed by function name and is mutated in place: each Frame's Range is
// filled in here.
func BuildAll(instrs []ir.Instruction, frames map[string]*ir.Frame) (map[string]*ControlFlowGraph, error) {
	graphs := make(map[string]*ControlFlowGraph)
	i := 0
	for i < len(instrs) {
		if instrs[i].Op != ir.OpLabel || i+1 >= len(instrs) || instrs[i+1].Op != ir.OpBeginFunc {
			i++
			continue
		}
		name := instrs[i].Target
		frame, ok := frames[name]
		if !ok {
			return nil, fmt.Errorf("cfgbuild: function %s has no frame entry", name)
		}
		first := i
		last := -1
		for j := i; j < len(instrs); j++ {
			if instrs[j].Op == ir.OpEndFunc {
				last = j
				break
			}
		}
		if last == -1 {
			return nil, fmt.Errorf("cfgbuild: function %s: missing EndFunc", name)
		}
		g, err := Build(instrs, frame, first, last)
		if err != nil {
			return nil, err
		}
		graphs[name] = g
		i = last + 1
	}
	return graphs, nil
}
