// Command stallib compiles a stalfos library source (a .sta file whose
// header binds entry points with JMP_DEF and closes with a JT_END label)
// into a .stalib binary that cmd/stal's -lib flag or the LIBLOAD family can
// load at runtime.
//
// Usage: stallib <input.sta> <namespace> <output.stalib>
package main

import (
	"fmt"
	"os"

	"github.com/stalfos/stalfos/asm"
	"github.com/stalfos/stalfos/codec"
	"github.com/stalfos/stalfos/op"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "Usage: stallib <input.sta> <namespace> <output.stalib>")
		os.Exit(1)
	}
	infile, namespace, outfile := os.Args[1], os.Args[2], os.Args[3]
	_ = namespace // the namespace a library is loaded under is chosen by the caller, not baked into the file

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

	if !hasJTEnd(program) {
		fmt.Fprintln(os.Stderr, "stallib: input has no JT_END label; not a valid library header")
		os.Exit(1)
	}

	binary, err := codec.Encode(program)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := os.WriteFile(outfile, binary, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func hasJTEnd(program []op.Operator) bool {
	for _, o := range program {
		if o.Code == op.LABEL && o.Str == "JT_END" {
			return true
		}
	}
	return false
}
