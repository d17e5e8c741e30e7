// Package library implements loading and invoking `.stalib` files: the
// compiled bytecode a program reaches with the LIBLOAD/LIBCALL family of
// operators. Each call runs the entry point in its own fresh VM seeded only
// with the caller's argument words, per spec §4.6.
package library

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/stalfos/stalfos/codec"
	"github.com/stalfos/stalfos/op"
	"github.com/stalfos/stalfos/vm"
)

var (
	ErrUnknownNamespace = errors.New("library: unknown namespace")
	ErrUnknownEntry     = errors.New("library: unknown entry point")
)

// Library is one loaded `.stalib` file: its program and the jump table built
// from the JMP_DEF/JT_END header every `.stalib` carries.
type Library struct {
	Namespace string
	Program   []op.Operator
	JumpTable map[string]uint64
}

// buildJumpTable scans JMP_DEF bindings until a LABEL named JT_END, the
// sentinel every .stalib file's header ends with (stalfos_vm/src/
// stal_dll.rs's load_library/load_file_as_library path — not
// StalDynamicLibrary::new's full-program LABEL scan, which this repo treats
// as an inconsistent, unused alternative and does not port).
func buildJumpTable(program []op.Operator) map[string]uint64 {
	table := make(map[string]uint64)
	for _, o := range program {
		switch o.Code {
		case op.JMP_DEF:
			if _, bound := table[o.Str]; !bound {
				table[o.Str] = o.ID
			}
		case op.LABEL:
			if o.Str == "JT_END" {
				return table
			}
		}
	}
	return table
}

func fromBytes(namespace string, raw []byte) (*Library, error) {
	program, err := codec.Decode(raw)
	if err != nil {
		return nil, err
	}
	return &Library{
		Namespace: namespace,
		Program:   program,
		JumpTable: buildJumpTable(program),
	}, nil
}

// Registry holds every library loaded into a process, keyed by namespace.
// It implements vm.LibraryCaller.
type Registry struct {
	libs map[string]*Library
}

func NewRegistry() *Registry {
	return &Registry{libs: make(map[string]*Library)}
}

// Load reads {namespace}.stalib from the current directory and binds it
// under namespace.
func (r *Registry) Load(namespace string) error {
	raw, err := os.ReadFile(namespace + ".stalib")
	if err != nil {
		return fmt.Errorf("library: %w", err)
	}
	lib, err := fromBytes(namespace, raw)
	if err != nil {
		return err
	}
	r.libs[namespace] = lib
	return nil
}

// LoadFile reads path and binds it under an explicit namespace, regardless
// of the namespace header encoded inside the file.
func (r *Registry) LoadFile(path, namespace string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("library: %w", err)
	}
	lib, err := fromBytes(namespace, raw)
	if err != nil {
		return err
	}
	r.libs[namespace] = lib
	return nil
}

// LoadReader binds namespace from an already-open reader.
func (r *Registry) LoadReader(namespace string, rd io.Reader) error {
	raw, err := io.ReadAll(rd)
	if err != nil {
		return err
	}
	lib, err := fromBytes(namespace, raw)
	if err != nil {
		return err
	}
	r.libs[namespace] = lib
	return nil
}

// Call runs entry in namespace's library against a fresh VM seeded with
// args, and returns its result words (without the trailing count the VM's
// LIB*CALL family appends itself).
func (r *Registry) Call(namespace, entry string, args []uint32) ([]uint32, error) {
	lib, ok := r.libs[namespace]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNamespace, namespace)
	}
	target, ok := lib.JumpTable[entry]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownEntry, namespace, entry)
	}

	callee := vm.New(lib.Program, io.Discard)
	callee.IsLib = true
	callee.JumpTable = lib.JumpTable
	callee.PC = target
	callee.Stack = append([]uint32(nil), args...)
	callee.Libraries = r

	if err := callee.Run(); err != nil {
		return nil, err
	}

	stack := callee.Stack
	if len(stack) == 0 {
		return nil, nil
	}
	n := stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	if uint64(n) > uint64(len(stack)) {
		return nil, fmt.Errorf("library: %s.%s left %d results but only %d words on the stack", namespace, entry, n, len(stack))
	}
	result := make([]uint32, n)
	copy(result, stack[uint64(len(stack))-uint64(n):])
	return result, nil
}
