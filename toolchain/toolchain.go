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

// Package toolchain invokes the system assembler and linker on generated
// assembly. A nonzero exit from gcc is reported with its stderr verbatim
// and returned as an error, never printed-and-exited directly, so the
// caller decides how to surface the failure.
package toolchain

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// WriteAsm writes asm to <workDir>/<name>.s and returns that path, before
// the assembler/linker is shelled out to.
func WriteAsm(workDir, name, asm string) (string, error) {
	asmPath := filepath.Join(workDir, name+".s")
	if err := os.WriteFile(asmPath, []byte(asm), 0644); err != nil {
		return "", fmt.Errorf("toolchain: writing %s: %w", asmPath, err)
	}
	return asmPath, nil
}

// Assemble writes asm to <workDir>/<name>.s, then invokes gcc to assemble
// and link it into an executable at <workDir>/<name>. It returns the
// executable's path. Convenience wrapper over WriteAsm+Link for the
// common single-file build.
func Assemble(workDir, name, asm string) (string, error) {
	asmPath, err := WriteAsm(workDir, name, asm)
	if err != nil {
		return "", err
	}
	outPath := filepath.Join(workDir, name)
	if err := Link(workDir, outPath, []string{asmPath}); err != nil {
		return "", err
	}
	return outPath, nil
}

// Link invokes gcc to assemble and link one or more .s files into a
// single executable at target, with every object file listed on the
// command line.
func Link(workDir, target string, asmPaths []string) error {
	args := append([]string{"-o", target}, asmPaths...)
	return run(workDir, append([]string{"gcc"}, args...)...)
}

// Run executes path (an executable Assemble produced) and returns its
// exit code.
func Run(path string) (int, error) {
	cmd := exec.Command(path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("toolchain: running %s: %w", path, err)
}

func run(workDir string, args ...string) error {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = workDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("toolchain: %s: %w\n%s", args[0], err, stderr.String())
	}
	return nil
}
