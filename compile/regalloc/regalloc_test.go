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
package regalloc_test

import (
	"cc64/ast"
	"cc64/compile/cfgbuild"
	"cc64/compile/irgen"
	"cc64/compile/liveness"
	"cc64/compile/regalloc"
	"cc64/ir"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, source string) (map[string]*liveness.Result, map[string]*ir.Frame) {
	t.Helper()
	prog := ast.ParseProgram("t.c", strings.NewReader(source))
	frames, errs := ast.Analyze(prog)
	require.False(t, errs.HasErrors())
	instrs := irgen.Generate(prog, frames)
	graphs, err := cfgbuild.BuildAll(instrs, frames)
	require.NoError(t, err)
	return liveness.AnalyzeAll(instrs, graphs), frames
}

func allocate(t *testing.T, source string) map[string]*regalloc.Result {
	t.Helper()
	live, frames := analyze(t, source)
	return regalloc.AllocateAll(live, frames)
}

// TestNoConflictColoring allocates a function with enough live ranges to
// produce real interference, then checks every edge in the (now restored)
// interference graph against the final coloring: the no-conflict
// invariant only binds pairs where neither endpoint is spilled.
func TestNoConflictColoring(t *testing.T) {
	source := `
	int main(){
		int a = 1;
		int b = 2;
		int c = a + b;
		int d = c + a;
		int e = d + b;
		return e;
	}
	`
	live, frames := analyze(t, source)
	ifg := live["main"].Interference
	result := regalloc.Allocate(ifg, frames["main"])

	for _, v := range ifg.Vertices() {
		vVa, ok := result.Variables[v]
		if !ok || vVa.Spilled {
			continue
		}
		for _, u := range ifg.Neighbors(v) {
			uVa, ok := result.Variables[u]
			if !ok || uVa.Spilled {
				continue
			}
			require.NotEqual(t, vVa.RegisterID, uVa.RegisterID,
				"interfering variables %s and %s must not share a register", v, u)
		}
	}
}

func TestSpillOffsetsDistinctAndAligned(t *testing.T) {
	source := `
	int main(){
		int v0 = 1; int v1 = 2; int v2 = 3; int v3 = 4;
		int v4 = 5; int v5 = 6; int v6 = 7; int v7 = 8;
		int v8 = 9; int v9 = 10; int v10 = 11; int v11 = 12;
		int v12 = 13; int v13 = 14; int v14 = 15; int v15 = 16;
		int s = v0 + v1 + v2 + v3 + v4 + v5 + v6 + v7 +
			v8 + v9 + v10 + v11 + v12 + v13 + v14 + v15;
		return s;
	}
	`
	allocs := allocate(t, source)
	result := allocs["main"]

	seen := map[int]bool{}
	spilledCount := 0
	for _, va := range result.Variables {
		if !va.Spilled {
			continue
		}
		spilledCount++
		require.False(t, seen[va.Offset], "spill offset %d reused", va.Offset)
		seen[va.Offset] = true
		require.Zero(t, va.Offset%8, "spill offset must be 8-byte aligned")
	}
	require.Greater(t, spilledCount, 0, "16 simultaneously-live locals must force at least one spill")
	require.Zero(t, result.FrameSize%16, "frame size must be 16-byte aligned")
}

func TestPreColoredParamsGetArgumentRegisters(t *testing.T) {
	source := `int f(int a, int b, int c){ return a + b + c; }
	int main(){ return f(1, 2, 3); }`
	allocs := allocate(t, source)
	f := allocs["f"]
	for i, name := range []string{"a", "b", "c"} {
		va, ok := f.Variables[name]
		require.True(t, ok, "param %s missing from allocation", name)
		require.False(t, va.Spilled)
		require.Equal(t, regalloc.ArgRegisterIDs[i], va.RegisterID)
	}
}

func TestDeterministicColoring(t *testing.T) {
	source := `
	int main(){
		int a = 1;
		int b = 2;
		int c = a + b;
		return c;
	}
	`
	a := allocate(t, source)["main"]
	b := allocate(t, source)["main"]
	for name, va := range a.Variables {
		other, ok := b.Variables[name]
		require.True(t, ok)
		require.Equal(t, va.RegisterID, other.RegisterID)
		require.Equal(t, va.Spilled, other.Spilled)
		require.Equal(t, va.Offset, other.Offset)
	}
}
