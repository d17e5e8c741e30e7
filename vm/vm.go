// Package vm implements the stalfos bytecode interpreter: the operand
// stack, call-frame stack, registers, and the fetch-execute dispatch loop
// that drives an op.Operator program against a heap.Heap.
package vm

import (
	"bufio"
	"io"

	"github.com/stalfos/stalfos/heap"
	"github.com/stalfos/stalfos/op"
)

// Frame is a pushed (return_site, target_site) pair. Every taken branch
// pushes one; RET and exception unwinding pop them.
type Frame struct {
	ReturnSite uint64
	TargetSite uint64
}

// LibraryCaller loads `.stalib` files by namespace and invokes entry points
// within them, returning result words bottom-first. Implemented by the
// library package; kept as an interface here so vm never imports library
// (library imports vm to build each call's own fresh VM).
type LibraryCaller interface {
	Load(namespace string) error
	Call(namespace, entry string, args []uint32) ([]uint32, error)
}

// VM holds everything one program execution needs. Constructed directly or
// via New; Prepare must run once before Run.
type VM struct {
	Program []op.Operator
	PC      uint64

	Stack     []uint32
	CallStack []Frame
	JumpTable map[string]uint64

	Heap  heap.Heap
	Table *heap.Table

	// r and r128 are the small register files spec §4 names; neither
	// operator in the closed set currently addresses them by index, so
	// they exist as raw storage a library call or future extension can
	// read/write directly.
	R    [16]byte
	R128 [16]byte

	Output []uint32

	Finished bool
	Overflow bool
	IsLib    bool

	Libraries LibraryCaller

	Stdout *bufio.Writer
	Trace  io.Writer
}

// New builds a VM ready for Prepare. program is not copied.
func New(program []op.Operator, stdout io.Writer) *VM {
	return &VM{
		Program: program,
		Table:   heap.NewTable(),
		Stdout:  bufio.NewWriter(stdout),
	}
}

// Prepare builds the jump table and locates main, matching the original's
// directive scan: it walks the program from the front processing JMP_DEF
// and JMP_SCAN only, and stops at the first operator that is neither —
// directives are only ever honored as a contiguous header block.
func (vm *VM) Prepare() error {
	vm.JumpTable = make(map[string]uint64)

directives:
	for i, o := range vm.Program {
		switch o.Code {
		case op.JMP_DEF:
			if _, bound := vm.JumpTable[o.Str]; !bound {
				vm.JumpTable[o.Str] = o.ID
			}
		case op.JMP_SCAN:
			for j := i; j < len(vm.Program); j++ {
				if vm.Program[j].Code == op.LABEL {
					if _, bound := vm.JumpTable[vm.Program[j].Str]; !bound {
						vm.JumpTable[vm.Program[j].Str] = uint64(j)
					}
				}
			}
		default:
			break directives
		}
	}

	pc, ok := vm.JumpTable["main"]
	if !ok {
		if vm.IsLib {
			return nil
		}
		return ErrNoMain
	}

	vm.PC = pc
	vm.CallStack = append(vm.CallStack, Frame{ReturnSite: 0, TargetSite: pc})
	return nil
}

func (vm *VM) push(w uint32) { vm.Stack = append(vm.Stack, w) }

func (vm *VM) pop() (uint32, error) {
	if len(vm.Stack) == 0 {
		return 0, vm.fail(ErrStackUnderflow)
	}
	w := vm.Stack[len(vm.Stack)-1]
	vm.Stack = vm.Stack[:len(vm.Stack)-1]
	return w, nil
}

// popArgs pops n words and returns them in push order: the first argument
// pushed ends up first in the result, matching SYSCALL/SYSCALLD/LIBCALL's
// documented argument convention.
func (vm *VM) popArgs(n uint64) ([]uint32, error) {
	args := make([]uint32, n)
	for i := int64(n) - 1; i >= 0; i-- {
		w, err := vm.pop()
		if err != nil {
			return nil, err
		}
		args[i] = w
	}
	return args, nil
}

func (vm *VM) lookup(id uint64) (heap.Allocation, error) {
	a, ok := vm.Table.Lookup(id)
	if !ok {
		return heap.Allocation{}, vm.fail(ErrUnknownIdentifier)
	}
	return a, nil
}

func (vm *VM) branch(target uint64) {
	vm.CallStack = append(vm.CallStack, Frame{ReturnSite: vm.PC, TargetSite: target})
	vm.PC = target
}

func (vm *VM) jumpTarget(label string) (uint64, error) {
	target, ok := vm.JumpTable[label]
	if !ok {
		return 0, vm.fail(ErrUnknownLabel)
	}
	return target, nil
}
