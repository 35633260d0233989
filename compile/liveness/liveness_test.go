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
package liveness_test

import (
	"cc64/ast"
	"cc64/compile/cfgbuild"
	"cc64/compile/irgen"
	"cc64/compile/liveness"
	"cc64/ir"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, source string) (map[string]*liveness.Result, map[string]*cfgbuild.ControlFlowGraph, []ir.Instruction) {
	t.Helper()
	prog := ast.ParseProgram("t.c", strings.NewReader(source))
	frames, errs := ast.Analyze(prog)
	require.False(t, errs.HasErrors())
	instrs := irgen.Generate(prog, frames)
	graphs, err := cfgbuild.BuildAll(instrs, frames)
	require.NoError(t, err)
	return liveness.AnalyzeAll(instrs, graphs), graphs, instrs
}

func TestInterferenceSymmetry(t *testing.T) {
	results, _, _ := analyze(t, `
	int main(){
		int a = 1;
		int b = 2;
		int c = a + b;
		int d = c + a;
		return d + b;
	}
	`)
	ifg := results["main"].Interference
	for _, v := range ifg.Vertices() {
		require.False(t, ifg.HasEdge(v, v), "vertex must not interfere with itself")
		for _, u := range ifg.Neighbors(v) {
			require.True(t, ifg.HasEdge(u, v), "edges must be symmetric")
		}
	}
}

func TestLiveInUseMinusDefUnion(t *testing.T) {
	// After the block-level fixed point, every block's live_in must equal
	// use ∪ (live_out \ def).
	results, graphs, _ := analyze(t, `
	int main(){
		int s = 0;
		int i = 0;
		for (i = 0; i < 5; i = i + 1) { s = s + i; }
		return s;
	}
	`)
	g := graphs["main"]
	res := results["main"]
	entry := g.Blocks[0]
	require.NotNil(t, res.LiveIn[entry.First])
	for _, b := range g.Blocks {
		want := b.UseSet.Clone()
		b.LiveOut.ForEach(func(v string) {
			if !b.DefSet.Contains(v) {
				want.Add(v)
			}
		})
		require.True(t, want.Equals(b.LiveIn), "block %d: live_in must equal use ∪ (live_out \\ def)", b.Id)
	}
}

func TestCallStartPublishesLiveOperands(t *testing.T) {
	results, _, instrs := analyze(t, `
	int f(int a, int b){ return a + b; }
	int main(){
		int x = 1;
		int y = f(2, 3);
		return x + y;
	}
	`)
	res := results["main"]
	require.NotNil(t, res)
	found := false
	for _, i := range instrs {
		if i.Op == ir.OpCallStart {
			found = true
			for _, op := range i.CallOperands {
				require.True(t, op.IsVariable())
			}
		}
	}
	require.True(t, found)
}
