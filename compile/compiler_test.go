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
package compile_test

import (
	"cc64/compile"
	"cc64/toolchain"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// execExpect compiles source, and if an assembler/linker is on PATH,
// assembles, links, runs it, and asserts the process exit code, driving
// a real executable rather than inspecting the IR.
func execExpect(t *testing.T, source string, wantExit int) {
	t.Helper()

	result, compileErr, err := compile.Compile("t.c", strings.NewReader(source))
	require.Nil(t, compileErr, "unexpected front-end errors")
	require.NoError(t, err)
	require.NotEmpty(t, result.Assembly)

	if _, err := exec.LookPath("gcc"); err != nil {
		t.Skip("gcc not on PATH, skipping exit-code assertion")
	}

	dir := t.TempDir()
	exePath, err := toolchain.Assemble(dir, "t", result.Assembly)
	require.NoError(t, err)

	exitCode, err := toolchain.Run(exePath)
	require.NoError(t, err)
	require.Equal(t, wantExit, exitCode)

	os.Remove(exePath)
}

func TestArithmeticPrecedence(t *testing.T) {
	execExpect(t, `int main(){ return 1 + 2 * 3; }`, 7)
}

func TestSubtraction(t *testing.T) {
	execExpect(t, `int main(){ int x = 10; int y = 3; return x - y; }`, 7)
}

func TestFunctionCall(t *testing.T) {
	execExpect(t, `
	int f(int a, int b){ return a * b + 1; }
	int main(){ return f(4, 5); }
	`, 21)
}

func TestIfElse(t *testing.T) {
	execExpect(t, `
	int main(){
		int x = 0;
		if (1 < 2) { x = 42; } else { x = 7; }
		return x;
	}
	`, 42)
}

func TestForLoopSum(t *testing.T) {
	execExpect(t, `
	int main(){
		int s = 0;
		int i = 0;
		for (i = 0; i < 5; i = i + 1) { s = s + i; }
		return s;
	}
	`, 10)
}

// TestMultipleCallsInExpression guards against the two calls in one
// expression sharing the single _ret/%rax slot: f(1)'s result must
// survive evaluating g(2) before the add reads both.
func TestMultipleCallsInExpression(t *testing.T) {
	execExpect(t, `
	int f(int a){ return a + 1; }
	int g(int a){ return a + 2; }
	int main(){ return f(1) + g(2); }
	`, 6)
}

// TestSpilling declares more than K = 12 simultaneously-live locals,
// forcing the allocator to spill at least one of them.
func TestSpilling(t *testing.T) {
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
	result, compileErr, err := compile.Compile("spill.c", strings.NewReader(source))
	require.Nil(t, compileErr)
	require.NoError(t, err)

	alloc := result.Allocation["main"]
	spilled := false
	for _, va := range alloc.Variables {
		if va.Spilled {
			spilled = true
			break
		}
	}
	require.True(t, spilled, "expected at least one spilled variable under register pressure")
	require.Contains(t, result.Assembly, "(%rbp)", "expected at least one stack-offset operand")

	execExpect(t, source, 136)
}
