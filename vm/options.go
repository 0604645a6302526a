package vm

import (
	"io"
	"path/filepath"

	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/runtime"
)

// Option configures a VM at construction.
type Option func(*VM)

// WithRuntime makes the VM share an existing runtime instead of creating
// its own. The VM acquires one reference and releases it on Close.
func WithRuntime(rt *runtime.Runtime) Option {
	return func(v *VM) {
		v.rt = rt
	}
}

// WithOutput redirects print statements, which default to stdout.
func WithOutput(w io.Writer) Option {
	return func(v *VM) {
		v.out = w
	}
}

// WithErrorCallback installs a callback invoked with every recorded error,
// including ones that are subsequently caught.
func WithErrorCallback(cb func(*errz.Error)) Option {
	return func(v *VM) {
		v.onError = cb
	}
}

// WithScriptPath records the path of the script the VM executes. Imports
// resolve relative paths against its directory, and slash-containing
// module names against the same directory unless WithImportRoot overrides
// it.
func WithScriptPath(path string) Option {
	return func(v *VM) {
		v.scriptPath = path
		if v.scriptRoot == "" {
			v.scriptRoot = filepath.Dir(path)
		}
	}
}

// WithImportRoot sets the directory that slash-containing module names
// resolve against.
func WithImportRoot(dir string) Option {
	return func(v *VM) {
		v.scriptRoot = dir
	}
}
