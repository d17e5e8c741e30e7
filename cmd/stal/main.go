// Command stal runs stalfos programs: textual .sta assembly or assembled
// .stf binaries, optionally preloading .stalib libraries the program calls
// into via LIBLOAD/LIBCALL.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/stalfos/stalfos/asm"
	"github.com/stalfos/stalfos/codec"
	"github.com/stalfos/stalfos/library"
	"github.com/stalfos/stalfos/op"
	"github.com/stalfos/stalfos/vm"
)

type libFlag []string

func (f *libFlag) String() string { return strings.Join(*f, ",") }
func (f *libFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

var (
	debug = flag.Bool("debug", false, "trace each executed operator to stderr")
	libs  libFlag
)

func init() {
	flag.Var(&libs, "lib", "namespace=path.stalib, preloaded before the program runs; may repeat")
}

func main() {
	flag.Parse()

	args := os.Args[len(os.Args)-flag.NArg():]
	if len(args) == 0 {
		fmt.Println("Usage: stal [-debug] [-lib ns=path.stalib]... <file1> [file2] ...")
		os.Exit(1)
	}

	registry := library.NewRegistry()
	for _, spec := range libs {
		ns, path, ok := strings.Cut(spec, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "stal: -lib %q must be namespace=path.stalib\n", spec)
			os.Exit(1)
		}
		if err := registry.LoadFile(path, ns); err != nil {
			fmt.Fprintf(os.Stderr, "stal: %v\n", err)
			os.Exit(1)
		}
	}

	for _, path := range args {
		if err := run(path, registry); err != nil {
			fmt.Fprintf(os.Stderr, "stal: %s: %v\n", path, err)
			os.Exit(1)
		}
	}
}

func run(path string, registry *library.Registry) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	program, err := loadProgram(path, raw)
	if err != nil {
		return err
	}

	machine := vm.New(program, os.Stdout)
	machine.Libraries = registry
	if *debug {
		machine.Trace = os.Stderr
	}

	if err := machine.Prepare(); err != nil {
		return err
	}
	if err := machine.Run(); err != nil {
		return err
	}

	for _, w := range machine.Output {
		fmt.Println(w)
	}
	return nil
}

// loadProgram decides between the binary codec and the textual assembler by
// the DE AD FA CE magic stalfos binaries are prefixed with.
func loadProgram(path string, raw []byte) ([]op.Operator, error) {
	if codec.HasMagic(raw) {
		return codec.Decode(raw)
	}
	_, program, err := asm.Parse(string(raw))
	return program, err
}
