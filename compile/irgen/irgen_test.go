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
package irgen_test

import (
	"cc64/ast"
	"cc64/compile/irgen"
	"cc64/ir"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, source string) []ir.Instruction {
	t.Helper()
	prog := ast.ParseProgram("t.c", strings.NewReader(source))
	frames, errs := ast.Analyze(prog)
	require.False(t, errs.HasErrors())
	return irgen.Generate(prog, frames)
}

func TestGenerateShape(t *testing.T) {
	instrs := generate(t, `int main(){ return 1 + 2 * 3; }`)
	require.Equal(t, ir.OpLabel, instrs[0].Op)
	require.Equal(t, "main", instrs[0].Target)
	require.Equal(t, ir.OpBeginFunc, instrs[1].Op)
	require.Equal(t, ir.OpEndFunc, instrs[len(instrs)-1].Op)
}

func TestTempCounterThreadsAcrossFunctions(t *testing.T) {
	instrs := generate(t, `
	int f(){ return 1 + 2; }
	int g(){ return 3 + 4; }
	`)
	seen := map[string]bool{}
	for _, i := range instrs {
		if i.Dest.Kind == ir.OperandTemp {
			require.False(t, seen[i.Dest.Name], "temp name %s reused across functions", i.Dest.Name)
			seen[i.Dest.Name] = true
		}
	}
	require.NotEmpty(t, seen)
}

func TestIfGeneratesLabelsAndBranch(t *testing.T) {
	instrs := generate(t, `
	int main(){
		int x = 0;
		if (1 < 2) { x = 1; } else { x = 2; }
		return x;
	}
	`)
	var hasIfZero, hasGoto bool
	for _, i := range instrs {
		switch i.Op {
		case ir.OpIfZero:
			hasIfZero = true
		case ir.OpGoto:
			hasGoto = true
		}
	}
	require.True(t, hasIfZero)
	require.True(t, hasGoto)
}

func TestCallLoweringPushesThenCalls(t *testing.T) {
	instrs := generate(t, `
	int f(int a, int b){ return a + b; }
	int main(){ return f(1, 2); }
	`)
	var sawCallStart, sawPush, sawCall, sawPop bool
	for _, i := range instrs {
		switch i.Op {
		case ir.OpCallStart:
			sawCallStart = true
		case ir.OpPushParam:
			require.True(t, sawCallStart, "PushParam must follow CallStart")
			sawPush = true
		case ir.OpLCall:
			require.True(t, sawPush, "LCall must follow PushParam")
			sawCall = true
			require.Equal(t, "f", i.FuncName)
		case ir.OpPopParams:
			require.True(t, sawCall, "PopParams must follow LCall")
			sawPop = true
			require.Equal(t, 16, i.Size) // 2 args * 8 bytes
		}
	}
	require.True(t, sawPop)
}

func TestDeterministicAcrossRuns(t *testing.T) {
	source := `
	int f(int a, int b){ return a * b + 1; }
	int main(){ return f(4, 5); }
	`
	a := generate(t, source)
	b := generate(t, source)
	require.Equal(t, ir.PrintTAC(a), ir.PrintTAC(b))
}
