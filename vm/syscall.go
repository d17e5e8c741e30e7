package vm

import "fmt"

// syscall implements the four reserved syscall ids. A missing argument is
// treated as a single arg of 1, matching the original's "empty args means
// false" convention.
func (vm *VM) syscall(id uint64, args []uint32) error {
	if len(args) == 0 {
		args = []uint32{1}
	}

	switch id {
	case 0:
		return vm.fail(fmt.Errorf("%w: code %d", ErrPanic, args[0]))
	case 1:
		fmt.Fprintln(vm.Stdout, args[0])
	case 2:
		fmt.Fprintf(vm.Stdout, "exit code %d\n", args[0])
		vm.Finished = true
	case 3:
		fmt.Fprintln(vm.Stdout, stringFromWords(args))
	default:
		fmt.Fprintf(vm.Stdout, "unknown syscall: %d\n", id)
	}
	return nil
}

// stringFromWords packs each word as 4 big-endian bytes and trims trailing
// NUL padding, matching get_string_from_u32_vec.
func stringFromWords(words []uint32) string {
	b := make([]byte, 0, len(words)*4)
	for _, w := range words {
		bs := wordBytes(w)
		b = append(b, bs[:]...)
	}
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}
