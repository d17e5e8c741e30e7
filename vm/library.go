package vm

import "github.com/stalfos/stalfos/op"

// libOp dispatches the six library-invocation extension operators (§3.4 of
// the opcode extension). LIBLOAD and DLIBLOAD only load and push nothing;
// the four call operators push results bottom-first followed by the result
// count, mirroring SYSCALLD's argument convention in reverse.
func (vm *VM) libOp(o op.Operator) error {
	if vm.Libraries == nil {
		return vm.fail(ErrUnknownLibrary)
	}

	switch o.Code {
	case op.LIBLOAD:
		if err := vm.Libraries.Load(o.Str); err != nil {
			return vm.fail(err)
		}
		return nil
	case op.DLIBLOAD:
		ns, err := vm.popString()
		if err != nil {
			return err
		}
		if err := vm.Libraries.Load(ns); err != nil {
			return vm.fail(err)
		}
		return nil
	case op.LIBCALL:
		return vm.libCall(o.Str, o.Str2)
	case op.DLIBCALL:
		ns, err := vm.popString()
		if err != nil {
			return err
		}
		return vm.libCall(ns, o.Str)
	case op.LIBDCALL:
		entry, err := vm.popString()
		if err != nil {
			return err
		}
		return vm.libCall(o.Str, entry)
	case op.DLIBDCALL:
		entry, err := vm.popString()
		if err != nil {
			return err
		}
		ns, err := vm.popString()
		if err != nil {
			return err
		}
		return vm.libCall(ns, entry)
	}
	return nil
}

func (vm *VM) libCall(namespace, entry string) error {
	n, err := vm.pop()
	if err != nil {
		return err
	}
	args, err := vm.popArgs(uint64(n))
	if err != nil {
		return err
	}
	results, err := vm.Libraries.Call(namespace, entry, args)
	if err != nil {
		return vm.fail(err)
	}
	for _, r := range results {
		vm.push(r)
	}
	vm.push(uint32(len(results)))
	return nil
}

// popString pops a length-prefixed string: a word count n followed by n
// words packing UTF-8 bytes, the same shape LOADD/EMITD leave on the stack.
func (vm *VM) popString() (string, error) {
	n, err := vm.pop()
	if err != nil {
		return "", err
	}
	words := make([]uint32, n)
	for i := int(n) - 1; i >= 0; i-- {
		w, err := vm.pop()
		if err != nil {
			return "", err
		}
		words[i] = w
	}
	return stringFromWords(words), nil
}
