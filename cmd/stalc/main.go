// Command stalc compiles stalfos .sta assembly into a .stf binary, with
// optional round-trip checking and immediate execution.
//
// Usage: stalc <input.sta> <output.stf> [-r|--run] [--check] [-d|--debug]
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/stalfos/stalfos/asm"
	"github.com/stalfos/stalfos/codec"
	"github.com/stalfos/stalfos/vm"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: stalc <input.sta> <output.stf> [-r|--run] [--check] [-d|--debug]")
		os.Exit(1)
	}

	infile, outfile := os.Args[1], os.Args[2]
	var run, check, debug bool
	for _, a := range os.Args[3:] {
		switch a {
		case "-r", "--run":
			run = true
		case "--check":
			check = true
		case "-d", "--debug":
			debug = true
		}
	}

	source, err := os.ReadFile(infile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	_, program, err := asm.Parse(string(source))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	binary, err := codec.Encode(program)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if check {
		roundTripped, err := codec.Decode(binary)
		if err != nil {
			fmt.Fprintln(os.Stderr, "check:", err)
			os.Exit(1)
		}
		reencoded, err := codec.Encode(roundTripped)
		if err != nil {
			fmt.Fprintln(os.Stderr, "check:", err)
			os.Exit(1)
		}
		if !bytes.Equal(binary, reencoded) {
			fmt.Fprintln(os.Stderr, "check: binary is not stable under decode/re-encode")
			os.Exit(1)
		}
	}

	if err := os.WriteFile(outfile, binary, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if run {
		machine := vm.New(program, os.Stdout)
		if debug {
			machine.Trace = os.Stderr
		}
		if err := machine.Prepare(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := machine.Run(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for _, w := range machine.Output {
			fmt.Println(w)
		}
	}
}
