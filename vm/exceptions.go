package vm

import "github.com/stalfos/stalfos/op"

// exceptThrow walks the call stack backward from the current frame looking
// for an EXCEPT_CATCH, ported from the original's unwind loop: pop the
// current frame (before, after); decrement pc and inspect each operator; on
// EXCEPT_CATCH(h) push (pc, jmp[h]) and resume there; if pc reaches the
// popped frame's own target site without finding a catch, reset pc to that
// frame's return site and continue unwinding into the enclosing call.
// Running out of frames is fatal.
func (vm *VM) exceptThrow() error {
	if len(vm.CallStack) == 0 {
		return vm.fail(ErrUncaughtException)
	}
	frame := vm.CallStack[len(vm.CallStack)-1]
	vm.CallStack = vm.CallStack[:len(vm.CallStack)-1]

	for {
		if vm.PC == 0 {
			return vm.fail(ErrUncaughtException)
		}
		vm.PC--
		o := vm.Program[vm.PC]

		if o.Code == op.ExceptCatch {
			target, err := vm.jumpTarget(o.Str)
			if err != nil {
				return err
			}
			vm.CallStack = append(vm.CallStack, Frame{ReturnSite: vm.PC, TargetSite: target})
			vm.PC = target
			return nil
		}

		if vm.PC == frame.TargetSite {
			vm.PC = frame.ReturnSite
			if len(vm.CallStack) == 0 {
				return vm.fail(ErrUncaughtException)
			}
			frame = vm.CallStack[len(vm.CallStack)-1]
			vm.CallStack = vm.CallStack[:len(vm.CallStack)-1]
		}
	}
}
