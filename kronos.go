// Package kronos is the embedding surface for the Kronos scripting
// runtime: compile a script, run it on a virtual machine, exchange values
// through globals.
package kronos

import (
	"os"

	"github.com/kronos-lang/kronos/bytecode"
	"github.com/kronos-lang/kronos/compiler"
	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/vm"
)

// Compile turns source text into executable bytecode. The caller owns the
// chunk and must Close it after the last Execute.
func Compile(source string) (*bytecode.Bytecode, error) {
	return compiler.CompileSource(source)
}

// Eval compiles and runs a script on a fresh VM. Output goes to stdout
// unless vm.WithOutput overrides it.
func Eval(source string, opts ...vm.Option) error {
	bc, err := compiler.CompileSource(source)
	if err != nil {
		return err
	}
	defer bc.Close()
	v := vm.New(opts...)
	execErr := v.Execute(bc)
	if closeErr := v.Close(); execErr == nil {
		return closeErr
	}
	return execErr
}

// RunFile loads, compiles and runs a script file. Imports resolve relative
// to the file's directory.
func RunFile(path string, opts ...vm.Option) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errz.Newf(errz.IO, "cannot read %s: %s", path, err)
	}
	bc, cerr := compiler.CompileSource(string(src))
	if cerr != nil {
		return cerr
	}
	defer bc.Close()
	v := vm.New(append([]vm.Option{vm.WithScriptPath(path)}, opts...)...)
	execErr := v.Execute(bc)
	if closeErr := v.Close(); execErr == nil {
		return closeErr
	}
	return execErr
}
