package vm

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/object"
)

// builtinFunc receives borrowed arguments and returns a value with one
// reference owned by the caller, or nil for null.
type builtinFunc func(v *VM, args []object.Value) (object.Value, *errz.Error)

type builtinDef struct {
	arity int // -1 for variadic
	fn    builtinFunc
}

// builtins is the native function table. Entries shadow user-defined
// functions of the same name.
var builtins map[string]builtinDef

func init() {
	builtins = map[string]builtinDef{
		"len":       {1, builtinLen},
		"to_string": {1, builtinToString},
		"to_number": {1, builtinToNumber},
		"type_of":   {1, builtinTypeOf},

		"add":      {2, numericBinary("add", func(a, b float64) float64 { return a + b })},
		"subtract": {2, numericBinary("subtract", func(a, b float64) float64 { return a - b })},
		"multiply": {2, numericBinary("multiply", func(a, b float64) float64 { return a * b })},
		"divide":   {2, builtinDivide},
		"modulo":   {2, builtinModulo},

		"uppercase":   {1, stringUnary(strings.ToUpper)},
		"lowercase":   {1, stringUnary(strings.ToLower)},
		"trim":        {1, stringUnary(strings.TrimSpace)},
		"split":       {2, builtinSplit},
		"join":        {2, builtinJoin},
		"contains":    {2, builtinContains},
		"starts_with": {2, builtinStartsWith},
		"ends_with":   {2, builtinEndsWith},
		"replace":     {3, builtinReplace},
		"index_of":    {2, builtinIndexOf},

		"append":  {2, builtinAppend},
		"insert":  {3, builtinInsert},
		"remove":  {2, builtinRemove},
		"first":   {1, builtinFirst},
		"last":    {1, builtinLast},
		"reverse": {1, builtinReverse},
		"sort":    {1, builtinSort},
		"keys":    {1, builtinKeys},
		"values":  {1, builtinValues},
		"has_key": {2, builtinHasKey},

		"abs":   {1, numericUnary("abs", math.Abs)},
		"floor": {1, numericUnary("floor", math.Floor)},
		"ceil":  {1, numericUnary("ceil", math.Ceil)},
		"round": {1, numericUnary("round", math.Round)},
		"sqrt":  {1, builtinSqrt},
		"pow":   {2, numericBinary("pow", math.Pow)},
		"min":   {2, numericBinary("min", math.Min)},
		"max":   {2, numericBinary("max", math.Max)},

		"read_file":   {1, builtinReadFile},
		"write_file":  {2, builtinWriteFile},
		"read_lines":  {1, builtinReadLines},
		"file_exists": {1, builtinFileExists},
		"list_files":  {1, builtinListFiles},
		"path_join":   {-1, builtinPathJoin},
		"dirname":     {1, pathUnary(filepath.Dir)},
		"basename":    {1, pathUnary(filepath.Base)},
	}
}

func argNumber(name string, args []object.Value, i int) (float64, *errz.Error) {
	n, ok := args[i].(*object.Number)
	if !ok {
		return 0, errz.Newf(errz.InvalidArgument,
			"'%s' expects a number, got %s", name, args[i].Type())
	}
	return n.Value(), nil
}

func argString(name string, args []object.Value, i int) (string, *errz.Error) {
	s, ok := args[i].(*object.String)
	if !ok {
		return "", errz.Newf(errz.InvalidArgument,
			"'%s' expects a string, got %s", name, args[i].Type())
	}
	return s.Value(), nil
}

func argList(name string, args []object.Value, i int) (*object.List, *errz.Error) {
	l, ok := args[i].(*object.List)
	if !ok {
		return nil, errz.Newf(errz.InvalidArgument,
			"'%s' expects a list, got %s", name, args[i].Type())
	}
	return l, nil
}

func argMap(name string, args []object.Value, i int) (*object.Map, *errz.Error) {
	m, ok := args[i].(*object.Map)
	if !ok {
		return nil, errz.Newf(errz.InvalidArgument,
			"'%s' expects a map, got %s", name, args[i].Type())
	}
	return m, nil
}

func numericUnary(name string, f func(float64) float64) builtinFunc {
	return func(v *VM, args []object.Value) (object.Value, *errz.Error) {
		x, err := argNumber(name, args, 0)
		if err != nil {
			return nil, err
		}
		return object.NewNumber(f(x)), nil
	}
}

func numericBinary(name string, f func(a, b float64) float64) builtinFunc {
	return func(v *VM, args []object.Value) (object.Value, *errz.Error) {
		a, err := argNumber(name, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := argNumber(name, args, 1)
		if err != nil {
			return nil, err
		}
		return object.NewNumber(f(a, b)), nil
	}
}

func stringUnary(f func(string) string) builtinFunc {
	return func(v *VM, args []object.Value) (object.Value, *errz.Error) {
		s, ok := args[0].(*object.String)
		if !ok {
			return nil, errz.Newf(errz.InvalidArgument,
				"expected a string, got %s", args[0].Type())
		}
		return object.NewString(f(s.Value())), nil
	}
}

func pathUnary(f func(string) string) builtinFunc {
	return func(v *VM, args []object.Value) (object.Value, *errz.Error) {
		s, ok := args[0].(*object.String)
		if !ok {
			return nil, errz.Newf(errz.InvalidArgument,
				"expected a string path, got %s", args[0].Type())
		}
		return object.NewString(f(s.Value())), nil
	}
}

func builtinLen(v *VM, args []object.Value) (object.Value, *errz.Error) {
	n, err := lengthOf(args[0])
	if err != nil {
		return nil, err
	}
	return object.NewNumber(float64(n)), nil
}

func builtinToString(v *VM, args []object.Value) (object.Value, *errz.Error) {
	return object.NewString(args[0].Inspect()), nil
}

func builtinToNumber(v *VM, args []object.Value) (object.Value, *errz.Error) {
	switch a := args[0].(type) {
	case *object.Number:
		object.Retain(a)
		return a, nil
	case *object.Bool:
		if a.Value() {
			return object.NewNumber(1), nil
		}
		return object.NewNumber(0), nil
	case *object.String:
		x, err := strconv.ParseFloat(strings.TrimSpace(a.Value()), 64)
		if err != nil {
			return nil, errz.Newf(errz.InvalidArgument,
				"cannot convert \"%s\" to number", a.Value())
		}
		return object.NewNumber(x), nil
	default:
		return nil, errz.Newf(errz.InvalidArgument,
			"cannot convert %s to number", args[0].Type())
	}
}

func builtinTypeOf(v *VM, args []object.Value) (object.Value, *errz.Error) {
	return object.NewString(string(args[0].Type())), nil
}

func builtinDivide(v *VM, args []object.Value) (object.Value, *errz.Error) {
	a, err := argNumber("divide", args, 0)
	if err != nil {
		return nil, err
	}
	b, err := argNumber("divide", args, 1)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, errz.New(errz.Runtime, "division by zero")
	}
	return object.NewNumber(a / b), nil
}

func builtinModulo(v *VM, args []object.Value) (object.Value, *errz.Error) {
	a, err := argNumber("modulo", args, 0)
	if err != nil {
		return nil, err
	}
	b, err := argNumber("modulo", args, 1)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, errz.New(errz.Runtime, "modulo by zero")
	}
	return object.NewNumber(math.Mod(a, b)), nil
}

func builtinSqrt(v *VM, args []object.Value) (object.Value, *errz.Error) {
	x, err := argNumber("sqrt", args, 0)
	if err != nil {
		return nil, err
	}
	if x < 0 {
		return nil, errz.New(errz.InvalidArgument, "sqrt of a negative number")
	}
	return object.NewNumber(math.Sqrt(x)), nil
}

func builtinSplit(v *VM, args []object.Value) (object.Value, *errz.Error) {
	s, err := argString("split", args, 0)
	if err != nil {
		return nil, err
	}
	sep, err := argString("split", args, 1)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(s, sep)
	out := object.NewList(len(parts))
	for _, p := range parts {
		item := object.NewString(p)
		out.Append(item)
		object.Release(item)
	}
	return out, nil
}

func builtinJoin(v *VM, args []object.Value) (object.Value, *errz.Error) {
	l, err := argList("join", args, 0)
	if err != nil {
		return nil, err
	}
	sep, err := argString("join", args, 1)
	if err != nil {
		return nil, err
	}
	parts := make([]string, 0, l.Len())
	for _, item := range l.Items() {
		parts = append(parts, item.Inspect())
	}
	return object.NewString(strings.Join(parts, sep)), nil
}

// builtinContains checks substring membership for strings, element
// membership for lists and key presence for maps.
func builtinContains(v *VM, args []object.Value) (object.Value, *errz.Error) {
	switch t := args[0].(type) {
	case *object.String:
		needle, err := argString("contains", args, 1)
		if err != nil {
			return nil, err
		}
		return object.NewBool(strings.Contains(t.Value(), needle)), nil
	case *object.List:
		for _, item := range t.Items() {
			if object.Equal(item, args[1]) {
				return object.NewBool(true), nil
			}
		}
		return object.NewBool(false), nil
	case *object.Map:
		_, ok := t.Get(args[1])
		return object.NewBool(ok), nil
	default:
		return nil, errz.Newf(errz.InvalidArgument,
			"'contains' expects a string, list or map, got %s", args[0].Type())
	}
}

func builtinStartsWith(v *VM, args []object.Value) (object.Value, *errz.Error) {
	s, err := argString("starts_with", args, 0)
	if err != nil {
		return nil, err
	}
	prefix, err := argString("starts_with", args, 1)
	if err != nil {
		return nil, err
	}
	return object.NewBool(strings.HasPrefix(s, prefix)), nil
}

func builtinEndsWith(v *VM, args []object.Value) (object.Value, *errz.Error) {
	s, err := argString("ends_with", args, 0)
	if err != nil {
		return nil, err
	}
	suffix, err := argString("ends_with", args, 1)
	if err != nil {
		return nil, err
	}
	return object.NewBool(strings.HasSuffix(s, suffix)), nil
}

func builtinReplace(v *VM, args []object.Value) (object.Value, *errz.Error) {
	s, err := argString("replace", args, 0)
	if err != nil {
		return nil, err
	}
	old, err := argString("replace", args, 1)
	if err != nil {
		return nil, err
	}
	repl, err := argString("replace", args, 2)
	if err != nil {
		return nil, err
	}
	return object.NewString(strings.ReplaceAll(s, old, repl)), nil
}

// builtinIndexOf returns the first position of the needle, or -1.
func builtinIndexOf(v *VM, args []object.Value) (object.Value, *errz.Error) {
	switch t := args[0].(type) {
	case *object.String:
		needle, err := argString("index_of", args, 1)
		if err != nil {
			return nil, err
		}
		return object.NewNumber(float64(strings.Index(t.Value(), needle))), nil
	case *object.List:
		for i, item := range t.Items() {
			if object.Equal(item, args[1]) {
				return object.NewNumber(float64(i)), nil
			}
		}
		return object.NewNumber(-1), nil
	default:
		return nil, errz.Newf(errz.InvalidArgument,
			"'index_of' expects a string or list, got %s", args[0].Type())
	}
}

// builtinAppend mutates the list in place and returns it.
func builtinAppend(v *VM, args []object.Value) (object.Value, *errz.Error) {
	l, err := argList("append", args, 0)
	if err != nil {
		return nil, err
	}
	l.Append(args[1])
	object.Retain(l)
	return l, nil
}

func builtinInsert(v *VM, args []object.Value) (object.Value, *errz.Error) {
	l, err := argList("insert", args, 0)
	if err != nil {
		return nil, err
	}
	idx, err := argNumber("insert", args, 1)
	if err != nil {
		return nil, err
	}
	i := int(idx)
	if i < 0 {
		i += l.Len() + 1
	}
	if !l.Insert(i, args[2]) {
		return nil, errz.Newf(errz.Runtime, "index %s out of range", object.FormatNumber(idx))
	}
	object.Retain(l)
	return l, nil
}

// builtinRemove deletes the element at the index and returns it.
func builtinRemove(v *VM, args []object.Value) (object.Value, *errz.Error) {
	l, err := argList("remove", args, 0)
	if err != nil {
		return nil, err
	}
	idx, err := argNumber("remove", args, 1)
	if err != nil {
		return nil, err
	}
	i, ok := normalizeIndex(idx, l.Len())
	if !ok {
		return nil, errz.Newf(errz.Runtime, "index %s out of range", object.FormatNumber(idx))
	}
	removed, _ := l.Remove(i)
	return removed, nil
}

func builtinFirst(v *VM, args []object.Value) (object.Value, *errz.Error) {
	l, err := argList("first", args, 0)
	if err != nil {
		return nil, err
	}
	item, ok := l.Get(0)
	if !ok {
		return nil, errz.New(errz.Runtime, "list is empty")
	}
	object.Retain(item)
	return item, nil
}

func builtinLast(v *VM, args []object.Value) (object.Value, *errz.Error) {
	l, err := argList("last", args, 0)
	if err != nil {
		return nil, err
	}
	item, ok := l.Get(l.Len() - 1)
	if !ok {
		return nil, errz.New(errz.Runtime, "list is empty")
	}
	object.Retain(item)
	return item, nil
}

// builtinReverse returns a reversed copy of a list or string.
func builtinReverse(v *VM, args []object.Value) (object.Value, *errz.Error) {
	switch t := args[0].(type) {
	case *object.List:
		out := object.NewList(t.Len())
		items := t.Items()
		for i := len(items) - 1; i >= 0; i-- {
			out.Append(items[i])
		}
		return out, nil
	case *object.String:
		b := []byte(t.Value())
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
		return object.NewString(string(b)), nil
	default:
		return nil, errz.Newf(errz.InvalidArgument,
			"'reverse' expects a list or string, got %s", args[0].Type())
	}
}

// builtinSort returns a sorted copy. All elements must be numbers, or all
// strings.
func builtinSort(v *VM, args []object.Value) (object.Value, *errz.Error) {
	l, err := argList("sort", args, 0)
	if err != nil {
		return nil, err
	}
	items := l.Items()
	if len(items) == 0 {
		return object.NewList(0), nil
	}
	switch items[0].(type) {
	case *object.Number:
		nums := make([]float64, 0, len(items))
		for _, item := range items {
			n, ok := item.(*object.Number)
			if !ok {
				return nil, errz.New(errz.InvalidArgument, "'sort' requires elements of one type")
			}
			nums = append(nums, n.Value())
		}
		sort.Float64s(nums)
		out := object.NewList(len(nums))
		for _, x := range nums {
			item := object.NewNumber(x)
			out.Append(item)
			object.Release(item)
		}
		return out, nil
	case *object.String:
		strs := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(*object.String)
			if !ok {
				return nil, errz.New(errz.InvalidArgument, "'sort' requires elements of one type")
			}
			strs = append(strs, s.Value())
		}
		sort.Strings(strs)
		out := object.NewList(len(strs))
		for _, x := range strs {
			item := object.NewString(x)
			out.Append(item)
			object.Release(item)
		}
		return out, nil
	default:
		return nil, errz.Newf(errz.InvalidArgument,
			"'sort' cannot order %s elements", items[0].Type())
	}
}

func builtinKeys(v *VM, args []object.Value) (object.Value, *errz.Error) {
	m, err := argMap("keys", args, 0)
	if err != nil {
		return nil, err
	}
	out := object.NewList(m.Len())
	for _, k := range m.Keys() {
		out.Append(k)
	}
	return out, nil
}

func builtinValues(v *VM, args []object.Value) (object.Value, *errz.Error) {
	m, err := argMap("values", args, 0)
	if err != nil {
		return nil, err
	}
	out := object.NewList(m.Len())
	for _, val := range m.Values() {
		out.Append(val)
	}
	return out, nil
}

func builtinHasKey(v *VM, args []object.Value) (object.Value, *errz.Error) {
	m, err := argMap("has_key", args, 0)
	if err != nil {
		return nil, err
	}
	_, ok := m.Get(args[1])
	return object.NewBool(ok), nil
}

func builtinReadFile(v *VM, args []object.Value) (object.Value, *errz.Error) {
	path, err := argString("read_file", args, 0)
	if err != nil {
		return nil, err
	}
	data, rerr := os.ReadFile(path)
	if rerr != nil {
		return nil, errz.Newf(errz.IO, "cannot read %s: %s", path, rerr)
	}
	return object.NewString(string(data)), nil
}

func builtinWriteFile(v *VM, args []object.Value) (object.Value, *errz.Error) {
	path, err := argString("write_file", args, 0)
	if err != nil {
		return nil, err
	}
	content, err := argString("write_file", args, 1)
	if err != nil {
		return nil, err
	}
	if werr := os.WriteFile(path, []byte(content), 0o644); werr != nil {
		return nil, errz.Newf(errz.IO, "cannot write %s: %s", path, werr)
	}
	return nil, nil
}

// builtinReadLines splits the file on newlines, dropping a trailing empty
// line from a final newline.
func builtinReadLines(v *VM, args []object.Value) (object.Value, *errz.Error) {
	path, err := argString("read_lines", args, 0)
	if err != nil {
		return nil, err
	}
	data, rerr := os.ReadFile(path)
	if rerr != nil {
		return nil, errz.Newf(errz.IO, "cannot read %s: %s", path, rerr)
	}
	text := strings.TrimSuffix(string(data), "\n")
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	out := object.NewList(len(lines))
	for _, line := range lines {
		item := object.NewString(strings.TrimSuffix(line, "\r"))
		out.Append(item)
		object.Release(item)
	}
	return out, nil
}

func builtinFileExists(v *VM, args []object.Value) (object.Value, *errz.Error) {
	path, err := argString("file_exists", args, 0)
	if err != nil {
		return nil, err
	}
	_, serr := os.Stat(path)
	return object.NewBool(serr == nil), nil
}

func builtinListFiles(v *VM, args []object.Value) (object.Value, *errz.Error) {
	dir, err := argString("list_files", args, 0)
	if err != nil {
		return nil, err
	}
	entries, rerr := os.ReadDir(dir)
	if rerr != nil {
		return nil, errz.Newf(errz.IO, "cannot list %s: %s", dir, rerr)
	}
	out := object.NewList(len(entries))
	for _, entry := range entries {
		item := object.NewString(entry.Name())
		out.Append(item)
		object.Release(item)
	}
	return out, nil
}

func builtinPathJoin(v *VM, args []object.Value) (object.Value, *errz.Error) {
	if len(args) == 0 {
		return nil, errz.New(errz.Runtime, "Function 'path_join' expects at least 1 argument, got 0")
	}
	parts := make([]string, 0, len(args))
	for i := range args {
		p, err := argString("path_join", args, i)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return object.NewString(filepath.Join(parts...)), nil
}
