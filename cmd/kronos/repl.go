package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/kronos-lang/kronos"
	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/vm"
)

// repl reads statements from stdin and executes them on one long-lived VM
// so variables and functions persist between lines. A line ending in a
// colon opens a block that is submitted on the next blank line.
func repl(out io.Writer) error {
	fmt.Fprintf(out, "kronos %s — type scripts, blank line runs a block, ctrl-d exits\n", version)

	v := vm.New(vm.WithOutput(out))
	defer v.Close()

	prompt := func(cont bool) {
		p := ">>> "
		if cont {
			p = "... "
		}
		if useColor() {
			color.New(color.FgCyan).Fprint(out, p)
		} else {
			fmt.Fprint(out, p)
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	var block []string
	prompt(false)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case len(block) > 0 && strings.TrimSpace(line) != "":
			block = append(block, line)
			prompt(true)
			continue
		case len(block) > 0:
			runChunk(v, out, strings.Join(block, "\n")+"\n")
			block = nil
		case strings.HasSuffix(strings.TrimSpace(line), ":"):
			block = []string{line}
			prompt(true)
			continue
		case strings.TrimSpace(line) != "":
			runChunk(v, out, line+"\n")
		}
		prompt(false)
	}
	return scanner.Err()
}

// runChunk compiles and executes one REPL submission, printing any error
// without ending the session.
func runChunk(v *vm.VM, out io.Writer, src string) {
	bc, err := kronos.Compile(src)
	if err != nil {
		printErr(out, err)
		return
	}
	defer bc.Close()
	if err := v.Execute(bc); err != nil {
		printErr(out, err)
	}
}

func printErr(out io.Writer, err error) {
	msg := err.Error()
	if e, ok := err.(*errz.Error); ok {
		msg = fmt.Sprintf("%s: %s", e.Name(), e.Message)
	}
	if useColor() {
		color.New(color.FgRed).Fprintln(out, msg)
	} else {
		fmt.Fprintln(out, msg)
	}
}
