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
package cfgbuild_test

import (
	"cc64/ast"
	"cc64/compile/cfgbuild"
	"cc64/compile/irgen"
	"cc64/ir"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func build(t *testing.T, source string) (map[string]*cfgbuild.ControlFlowGraph, []ir.Instruction) {
	t.Helper()
	prog := ast.ParseProgram("t.c", strings.NewReader(source))
	frames, errs := ast.Analyze(prog)
	require.False(t, errs.HasErrors())
	instrs := irgen.Generate(prog, frames)
	graphs, err := cfgbuild.BuildAll(instrs, frames)
	require.NoError(t, err)
	return graphs, instrs
}

func TestBlockCoverIsAPartition(t *testing.T) {
	graphs, instrs := build(t, `
	int main(){
		int x = 0;
		if (1 < 2) { x = 1; } else { x = 2; }
		return x;
	}
	`)
	g := graphs["main"]
	require.NotNil(t, g)

	next := g.First
	for _, b := range g.Blocks {
		require.Equal(t, next, b.First, "blocks must tile the range with no gap or overlap")
		require.LessOrEqual(t, b.First, b.Last)
		require.True(t, instrs[b.Last].IsTerminator() || b.Last == g.Last || instrs[b.Last+1].IsBlockStart(),
			"a block ends at a terminator, at the function's end, or just before a label")
		next = b.Last + 1
	}
	require.Equal(t, g.Last+1, next)
}

func TestLabelAlwaysStartsABlock(t *testing.T) {
	graphs, instrs := build(t, `
	int main(){
		int i = 0;
		for (i = 0; i < 5; i = i + 1) { i = i; }
		return i;
	}
	`)
	g := graphs["main"]
	for _, b := range g.Blocks {
		if instrs[b.First].Op == ir.OpLabel {
			require.Equal(t, instrs[b.First].Target, b.Label)
		}
		for idx := b.First + 1; idx <= b.Last; idx++ {
			require.NotEqual(t, ir.OpLabel, instrs[idx].Op, "a label must start its own block")
		}
	}
}

func TestIfZeroEdgesAreTakenThenFallthrough(t *testing.T) {
	graphs, instrs := build(t, `
	int main(){
		int x = 0;
		if (1 < 2) { x = 1; }
		return x;
	}
	`)
	g := graphs["main"]
	for _, b := range g.Blocks {
		if instrs[b.Last].Op == ir.OpIfZero {
			require.Len(t, b.Edges, 2, "IfZero block must have a taken edge and a fallthrough edge")
			require.Equal(t, instrs[b.Last].Target, g.Block(b.Edges[0]).Label, "first edge is the taken edge")
			require.Equal(t, b.Id+1, b.Edges[1], "second edge is the fallthrough edge")
		}
		if instrs[b.Last].Op == ir.OpGoto {
			require.Len(t, b.Edges, 1)
		}
		if instrs[b.Last].Op == ir.OpEndFunc {
			require.Empty(t, b.Edges)
		}
	}
}

func TestMissingLabelTargetIsAnError(t *testing.T) {
	// A hand-built instruction stream with a dangling Goto target, the
	// kind of malformed input CFGBuild must reject rather than panic on.
	frame := ir.NewFrame("main")
	instrs := []ir.Instruction{
		ir.Label("main"),
		ir.BeginFunc(0),
		ir.Goto("Lnowhere"),
		ir.EndFunc(),
	}
	_, err := cfgbuild.Build(instrs, frame, 0, len(instrs)-1)
	require.Error(t, err)
}
