package vm

import (
	"math"
	"math/bits"

	"github.com/stalfos/stalfos/op"
)

func wordToFloat(w uint32) float32 { return math.Float32frombits(w) }
func floatToWord(f float32) uint32 { return math.Float32bits(f) }
func wordToInt(w uint32) int32     { return int32(w) }
func intToWord(i int32) uint32     { return uint32(i) }

// alu executes one of the 25 ADD/SUB/MUL/DIV/MOD{u,i,fi,if,f} operators. It
// pops a (top) then b (second), matching CMP's pop order, and pushes the
// combined result a OP b. u and i variants use checked arithmetic and set
// vm.Overflow on wrap; fi, if and f variants never touch vm.Overflow.
func (vm *VM) alu(code op.Code) error {
	a, b, err := vm.pop2()
	if err != nil {
		return err
	}

	family, variant := splitALU(code)

	switch variant {
	case 'u':
		result, overflow, divErr := aluUnsigned(family, a, b)
		if divErr != nil {
			return vm.fail(divErr)
		}
		vm.Overflow = overflow
		vm.push(result)
	case 'i':
		result, overflow, divErr := aluSigned(family, wordToInt(a), wordToInt(b))
		if divErr != nil {
			return vm.fail(divErr)
		}
		vm.Overflow = overflow
		vm.push(intToWord(result))
	case 'f':
		vm.push(floatToWord(aluFloat(family, wordToFloat(a), wordToFloat(b))))
	case 'F': // fi: a is float, b is int, result is float-encoded
		vm.push(floatToWord(aluFloat(family, wordToFloat(a), float32(wordToInt(b)))))
	case 'I': // if: a is int, b is float truncated to int, result is int-encoded
		result, _, divErr := aluSigned(family, wordToInt(a), int32(wordToFloat(b)))
		if divErr != nil {
			return vm.fail(divErr)
		}
		vm.push(intToWord(result))
	}
	return nil
}

// splitALU maps a code to its family ('+','-','*','/','%') and variant
// ('u','i','f' for matched-type, 'F' for fi, 'I' for if).
func splitALU(code op.Code) (family byte, variant byte) {
	switch code {
	case op.ADDu:
		return '+', 'u'
	case op.ADDi:
		return '+', 'i'
	case op.ADDfi:
		return '+', 'F'
	case op.ADDif:
		return '+', 'I'
	case op.ADDf:
		return '+', 'f'
	case op.SUBu:
		return '-', 'u'
	case op.SUBi:
		return '-', 'i'
	case op.SUBfi:
		return '-', 'F'
	case op.SUBif:
		return '-', 'I'
	case op.SUBf:
		return '-', 'f'
	case op.MULu:
		return '*', 'u'
	case op.MULi:
		return '*', 'i'
	case op.MULfi:
		return '*', 'F'
	case op.MULif:
		return '*', 'I'
	case op.MULf:
		return '*', 'f'
	case op.DIVu:
		return '/', 'u'
	case op.DIVi:
		return '/', 'i'
	case op.DIVfi:
		return '/', 'F'
	case op.DIVif:
		return '/', 'I'
	case op.DIVf:
		return '/', 'f'
	case op.MODu:
		return '%', 'u'
	case op.MODi:
		return '%', 'i'
	case op.MODfi:
		return '%', 'F'
	case op.MODif:
		return '%', 'I'
	case op.MODf:
		return '%', 'f'
	default:
		return 0, 0
	}
}

func aluUnsigned(family byte, a, b uint32) (result uint32, overflow bool, err error) {
	switch family {
	case '+':
		sum := a + b
		return sum, sum < a, nil
	case '-':
		return a - b, b > a, nil
	case '*':
		prod := a * b
		return prod, b != 0 && prod/b != a, nil
	case '/':
		if b == 0 {
			return 0, false, ErrDivisionByZero
		}
		return a / b, false, nil
	case '%':
		if b == 0 {
			return 0, false, ErrDivisionByZero
		}
		return a % b, false, nil
	}
	return 0, false, nil
}

func aluSigned(family byte, a, b int32) (result int32, overflow bool, err error) {
	wide := func(v int64) (int32, bool) {
		return int32(v), v < math.MinInt32 || v > math.MaxInt32
	}
	switch family {
	case '+':
		r, o := wide(int64(a) + int64(b))
		return r, o, nil
	case '-':
		r, o := wide(int64(a) - int64(b))
		return r, o, nil
	case '*':
		r, o := wide(int64(a) * int64(b))
		return r, o, nil
	case '/':
		if b == 0 {
			return 0, false, ErrDivisionByZero
		}
		return a / b, false, nil
	case '%':
		if b == 0 {
			return 0, false, ErrDivisionByZero
		}
		return a % b, false, nil
	}
	return 0, false, nil
}

func aluFloat(family byte, a, b float32) float32 {
	switch family {
	case '+':
		return a + b
	case '-':
		return a - b
	case '*':
		return a * b
	case '/':
		return a / b
	case '%':
		return float32(math.Mod(float64(a), float64(b)))
	}
	return 0
}

// shift executes ROR/ROL/LSR/ASR/LSL/ASL. Pops a (top, the value) then b
// (second, the amount), same pop order as every other binary ALU op.
func (vm *VM) shift(code op.Code) error {
	a, b, err := vm.pop2()
	if err != nil {
		return err
	}
	amount := int(b % 32)
	var result uint32
	switch code {
	case op.ROR:
		result = bits.RotateLeft32(a, -amount)
	case op.ROL:
		result = bits.RotateLeft32(a, amount)
	case op.LSR:
		result = a >> amount
	case op.ASR:
		result = uint32(int32(a) >> amount)
	case op.LSL, op.ASL:
		result = a << amount
	}
	vm.push(result)
	return nil
}

func bitwise(code op.Code, a, b uint32) uint32 {
	switch code {
	case op.AND:
		return a & b
	case op.OR:
		return a | b
	case op.XOR:
		return a ^ b
	case op.NAND:
		return ^(a & b)
	case op.NOR:
		return ^(a | b)
	}
	return 0
}

func popcount(w uint32) int { return bits.OnesCount32(w) }
