package vm

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kronos-lang/kronos/bytecode"
	"github.com/kronos-lang/kronos/compiler"
	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/object"
)

// DefaultExt is appended to import paths that name no extension.
const DefaultExt = ".kr"

// importModule implements the Import opcode: resolve the module path, load
// and execute the file in a nested VM, and expose the module under its
// name in this VM.
func (v *VM) importModule(f *frame) *errz.Error {
	name, err := v.readString(f)
	if err != nil {
		return err
	}
	hasPath, berr := bytecode.ReadByte(f.code, f.ip)
	if berr != nil {
		return asErrz(berr)
	}
	pathIdx, perr := bytecode.ReadU16(f.code, f.ip+1)
	if perr != nil {
		return asErrz(perr)
	}
	f.ip += 3
	path := name
	if hasPath == 1 {
		c, ok := f.consts.Constant(int(pathIdx))
		if !ok {
			return errz.Newf(errz.Runtime, "constant index %d out of range", pathIdx)
		}
		s, sok := c.(*object.String)
		if !sok {
			return errz.New(errz.Internal, "string constant expected")
		}
		path = s.Value()
	}

	mod, merr := v.loadModule(path)
	if merr != nil {
		return merr
	}
	v.moduleNames[name] = mod
	return nil
}

// resolveImport maps an import path to a file on disk. Absolute paths
// stand alone; ./ and ../ paths resolve against the importer's directory;
// slash-containing paths try the root VM's script root first; bare names
// resolve as siblings of the importer.
func (v *VM) resolveImport(path string) (string, *errz.Error) {
	if filepath.Ext(path) == "" {
		path += DefaultExt
	}
	var candidates []string
	switch {
	case filepath.IsAbs(path):
		candidates = []string{path}
	case strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../"):
		candidates = []string{filepath.Join(v.importerDir(), path)}
	case strings.Contains(path, "/"):
		candidates = []string{
			filepath.Join(v.root.scriptRoot, path),
			filepath.Join(v.importerDir(), path),
		}
	default:
		candidates = []string{filepath.Join(v.importerDir(), path)}
	}
	for _, cand := range candidates {
		abs, err := filepath.Abs(cand)
		if err != nil {
			continue
		}
		if _, serr := os.Stat(abs); serr == nil {
			return abs, nil
		}
	}
	return "", errz.Newf(errz.NotFound, "module '%s' not found", path)
}

// importerDir is the directory imports without an explicit location
// resolve against.
func (v *VM) importerDir() string {
	if v.scriptPath != "" {
		return filepath.Dir(v.scriptPath)
	}
	if v.scriptRoot != "" {
		return v.scriptRoot
	}
	return "."
}

// loadModule returns the VM holding the module at path, loading and
// executing it on first use. The root VM owns the table, so diamond
// imports share one instance.
func (v *VM) loadModule(path string) (*VM, *errz.Error) {
	resolved, rerr := v.resolveImport(path)
	if rerr != nil {
		return nil, rerr
	}
	root := v.root
	if mod, ok := root.modules[resolved]; ok {
		return mod, nil
	}
	for _, loading := range root.loading {
		if loading == resolved {
			return nil, errz.Newf(errz.Runtime, "circular import of '%s'", resolved)
		}
	}
	if v.importDepth+1 > MaxImportDepth {
		return nil, errz.New(errz.Runtime, "import depth exceeded")
	}

	src, ferr := os.ReadFile(resolved)
	if ferr != nil {
		return nil, errz.Newf(errz.IO, "cannot read module %s: %s", resolved, ferr)
	}
	bc, cerr := compiler.CompileSource(string(src))
	if cerr != nil {
		return nil, asErrz(cerr)
	}
	defer bc.Close()

	mod := New(WithRuntime(v.rt), WithOutput(v.out), WithScriptPath(resolved))
	mod.root = root
	mod.modules = nil
	mod.scriptRoot = root.scriptRoot
	mod.importDepth = v.importDepth + 1

	root.loading = append(root.loading, resolved)
	execErr := mod.Execute(bc)
	root.loading = root.loading[:len(root.loading)-1]
	if execErr != nil {
		mod.Close()
		return nil, asErrz(execErr)
	}
	root.modules[resolved] = mod
	log.Debug().Str("vm", mod.id.String()).Str("module", resolved).Msg("module loaded")
	return mod, nil
}

// callModule implements CallModule: pop the arguments, run the named
// function inside the module's VM and push its result here.
func (v *VM) callModule(f *frame) *errz.Error {
	modName, err := v.readString(f)
	if err != nil {
		return err
	}
	fnName, err := v.readString(f)
	if err != nil {
		return err
	}
	argc, berr := bytecode.ReadByte(f.code, f.ip)
	if berr != nil {
		return asErrz(berr)
	}
	f.ip++

	mod, ok := v.moduleNames[modName]
	if !ok {
		return errz.Newf(errz.NotFound, "module '%s' is not imported", modName)
	}
	bound, bok := mod.globals[fnName]
	if !bok {
		return errz.Newf(errz.NotFound, "module '%s' has no function '%s'", modName, fnName)
	}
	fn, fok := bound.value.(*object.Function)
	if !fok {
		return errz.Newf(errz.Runtime, "'%s.%s' is not a function", modName, fnName)
	}

	args, aerr := v.popArgs(int(argc))
	if aerr != nil {
		return aerr
	}
	result, cerr := mod.invoke(fn, args)
	releaseAll(args)
	if cerr != nil {
		return cerr
	}
	return v.push(result)
}
