package vm

import (
	"fmt"

	"github.com/stalfos/stalfos/op"
)

// exec runs one operator and reports whether it assigned pc itself (in
// which case Step must not apply the normal auto-increment).
func (vm *VM) exec(o op.Operator) (bool, error) {
	switch o.Code {
	case op.LABEL, op.ExceptCatch:
		return false, nil // inert in forward execution

	case op.JMP_DEF:
		return false, vm.fail(ErrRuntimeJmpDef)
	case op.JMP_SCAN:
		return false, nil // directives only bind at prepare time

	case op.PUSH:
		vm.push(o.Word)
		return false, nil
	case op.POP:
		_, err := vm.pop()
		return false, err
	case op.DUP:
		return false, vm.dupo(0)
	case op.DUPO:
		return false, vm.dupo(o.ID)
	case op.SWAP:
		return false, vm.swap()

	case op.JMP:
		target, err := vm.jumpTarget(o.Str)
		if err != nil {
			return false, err
		}
		vm.branch(target)
		return true, nil
	case op.JMPo:
		if !vm.Overflow {
			return false, nil
		}
		target, err := vm.jumpTarget(o.Str)
		if err != nil {
			return false, err
		}
		vm.branch(target)
		return true, nil
	case op.JMPe, op.JMPne:
		v, err := vm.pop()
		if err != nil {
			return false, err
		}
		taken := v == 0
		if o.Code == op.JMPne {
			taken = v != 0
		}
		if !taken {
			return false, nil
		}
		target, err := vm.jumpTarget(o.Str)
		if err != nil {
			return false, err
		}
		vm.branch(target)
		return true, nil
	case op.JMPs:
		v, err := vm.pop()
		if err != nil {
			return false, err
		}
		label := o.Str2
		if v == 0 {
			label = o.Str
		}
		target, err := vm.jumpTarget(label)
		if err != nil {
			return false, err
		}
		vm.branch(target)
		return true, nil

	case op.DJMP:
		target, err := vm.pop()
		if err != nil {
			return false, err
		}
		vm.branch(uint64(target))
		return true, nil
	case op.DJMPe, op.DJMPne:
		target, err := vm.pop()
		if err != nil {
			return false, err
		}
		v, err := vm.pop()
		if err != nil {
			return false, err
		}
		taken := v == 0
		if o.Code == op.DJMPne {
			taken = v != 0
		}
		if !taken {
			return false, nil
		}
		vm.branch(uint64(target))
		return true, nil

	case op.RET:
		return vm.ret()

	case op.ExceptThrow:
		if err := vm.exceptThrow(); err != nil {
			return false, err
		}
		return true, nil

	case op.CMP:
		a, b, err := vm.pop2()
		if err != nil {
			return false, err
		}
		vm.push(a - b)
		return false, nil

	case op.ADDu, op.ADDi, op.ADDfi, op.ADDif, op.ADDf,
		op.SUBu, op.SUBi, op.SUBfi, op.SUBif, op.SUBf,
		op.MULu, op.MULi, op.MULfi, op.MULif, op.MULf,
		op.DIVu, op.DIVi, op.DIVfi, op.DIVif, op.DIVf,
		op.MODu, op.MODi, op.MODfi, op.MODif, op.MODf:
		return false, vm.alu(o.Code)

	case op.ROR, op.ROL, op.LSR, op.ASR, op.LSL, op.ASL:
		return false, vm.shift(o.Code)
	case op.NEG:
		a, err := vm.pop()
		if err != nil {
			return false, err
		}
		vm.push(^a)
		return false, nil
	case op.AND, op.OR, op.XOR, op.NAND, op.NOR:
		a, b, err := vm.pop2()
		if err != nil {
			return false, err
		}
		vm.push(bitwise(o.Code, a, b))
		return false, nil
	case op.CNT:
		a, err := vm.pop()
		if err != nil {
			return false, err
		}
		vm.push(uint32(popcount(a)))
		return false, nil

	case op.LOAD, op.LOAD_CONST:
		return false, vm.load(o.ID)
	case op.LOADD:
		return false, vm.loadd(o.ID)
	case op.POPS:
		return false, vm.pops(o.ID)
	case op.CONST_U:
		return false, vm.constU(o.ID, o.Word)
	case op.CONST_F:
		return false, vm.constF(o.ID, o.Float)
	case op.CONST_I:
		return false, vm.constI(o.ID, o.Int32)
	case op.CONST_B:
		return false, vm.constB(o.ID, o.Bool)
	case op.CONST_S:
		return false, vm.constS(o.ID, o.Str)
	case op.ALLOC:
		vm.Table.AllocateStatic(&vm.Heap, o.ID, o.Word)
		return false, nil
	case op.DALLOC:
		size, err := vm.pop()
		if err != nil {
			return false, err
		}
		vm.Table.AllocateStatic(&vm.Heap, o.ID, size)
		return false, nil
	case op.DEALLOC:
		if err := vm.Table.Deallocate(&vm.Heap, o.ID); err != nil {
			return false, vm.fail(err)
		}
		return false, nil
	case op.GETLEN:
		a, err := vm.lookup(o.ID)
		if err != nil {
			return false, err
		}
		vm.push(a.Size)
		return false, nil
	case op.GETBYTELEN:
		return false, vm.getByteLen(o.ID)
	case op.GETBYTE:
		return false, vm.getByte(o.ID, o.ID2)
	case op.GETWORD:
		return false, vm.getWord(o.ID, o.ID2)
	case op.SETBYTE:
		return false, vm.setByte(o.ID, o.ID2, o.Byte)
	case op.SETWORD:
		return false, vm.setWord(o.ID, o.ID2, o.Word)

	case op.EMIT:
		w, err := vm.pop()
		if err != nil {
			return false, err
		}
		vm.Output = append(vm.Output, w)
		return false, nil
	case op.EMITS:
		return false, vm.emitWords(o.ID, false)
	case op.EMITD:
		return false, vm.emitWords(o.ID, true)
	case op.EMITW:
		a, err := vm.lookup(o.ID)
		if err != nil {
			return false, err
		}
		w, ok := vm.Heap.Get(a.Base)
		if !ok {
			return false, vm.fail(ErrHeapOutOfBounds)
		}
		vm.Output = append(vm.Output, w)
		return false, nil

	case op.SYSCALL:
		args, err := vm.popArgs(o.ID2)
		if err != nil {
			return false, err
		}
		return false, vm.syscall(o.ID, args)
	case op.SYSCALLD:
		n, err := vm.pop()
		if err != nil {
			return false, err
		}
		args, err := vm.popArgs(uint64(n))
		if err != nil {
			return false, err
		}
		return false, vm.syscall(o.ID, args)

	case op.LIBLOAD, op.DLIBLOAD, op.LIBCALL, op.DLIBCALL, op.LIBDCALL, op.DLIBDCALL:
		return false, vm.libOp(o)

	default:
		return false, vm.fail(fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, byte(o.Code)))
	}
}

func (vm *VM) pop2() (a, b uint32, err error) {
	if a, err = vm.pop(); err != nil {
		return 0, 0, err
	}
	if b, err = vm.pop(); err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func (vm *VM) dupo(n uint64) error {
	if n >= uint64(len(vm.Stack)) {
		return vm.fail(ErrStackUnderflow)
	}
	vm.push(vm.Stack[uint64(len(vm.Stack))-1-n])
	return nil
}

func (vm *VM) swap() error {
	x, err := vm.pop()
	if err != nil {
		return err
	}
	y, err := vm.pop()
	if err != nil {
		return err
	}
	vm.push(x)
	vm.push(y)
	return nil
}

// ret pops the current frame and resumes at its return site. Unlike every
// other pc-assigning operator it does not suppress Step's auto-increment,
// so the net effect is pc = return_site + 1 — the instruction after the
// original call.
func (vm *VM) ret() (bool, error) {
	if len(vm.CallStack) == 0 {
		vm.Finished = true
		return true, nil
	}
	frame := vm.CallStack[len(vm.CallStack)-1]
	vm.CallStack = vm.CallStack[:len(vm.CallStack)-1]
	if len(vm.CallStack) == 0 {
		// the frame just popped was the last one (the one Prepare seeds for
		// main): nothing left to resume into, so the program is done.
		vm.Finished = true
		return true, nil
	}
	vm.PC = frame.ReturnSite
	return false, nil
}
