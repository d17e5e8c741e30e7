package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/stalfos/stalfos/op"
)

type cursor struct {
	b   []byte
	pos int
}

func (c *cursor) need(n int) error {
	if c.pos+n > len(c.b) {
		return ErrTruncated
	}
	return nil
}

func (c *cursor) byte() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.b[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) word() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.b[c.pos : c.pos+4])
	c.pos += 4
	return v, nil
}

func (c *cursor) ptr() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(c.b[c.pos : c.pos+8])
	c.pos += 8
	return v, nil
}

func (c *cursor) boolean() (bool, error) {
	v, err := c.byte()
	if err != nil {
		return false, err
	}
	switch v {
	case 0x00:
		return false, nil
	case 0xFF:
		return true, nil
	default:
		return false, ErrBadBool
	}
}

func (c *cursor) str() (string, error) {
	n, err := c.ptr()
	if err != nil {
		return "", err
	}
	if err := c.need(int(n)); err != nil {
		return "", err
	}
	raw := c.b[c.pos : c.pos+int(n)]
	c.pos += int(n)
	if !utf8.Valid(raw) {
		return "", ErrBadUTF8
	}
	return string(raw), nil
}

// Decode parses a binary program, validating the magic prefix and every
// opcode and operand it encounters. It never returns a partial program.
func Decode(b []byte) ([]op.Operator, error) {
	if len(b) < 4 || b[0] != Magic[0] || b[1] != Magic[1] || b[2] != Magic[2] || b[3] != Magic[3] {
		return nil, ErrBadMagic
	}
	c := &cursor{b: b, pos: 4}
	var program []op.Operator
	for c.pos < len(c.b) {
		code, err := c.byte()
		if err != nil {
			return nil, err
		}
		o, err := decodeOne(c, op.Code(code))
		if err != nil {
			return nil, err
		}
		program = append(program, o)
	}
	return program, nil
}

func decodeOne(c *cursor, code op.Code) (op.Operator, error) {
	o := op.Operator{Code: code}
	var err error
	switch code {
	case op.PUSH:
		o.Word, err = c.word()
	case op.LOAD, op.LOAD_CONST, op.DEALLOC, op.POPS, op.GETLEN, op.GETBYTELEN,
		op.SYSCALLD, op.EMITS, op.EMITW, op.EMITD, op.DUPO, op.DALLOC:
		o.ID, err = c.ptr()
	case op.CONST_U:
		if o.ID, err = c.ptr(); err == nil {
			o.Word, err = c.word()
		}
	case op.CONST_F:
		var bits uint32
		if o.ID, err = c.ptr(); err == nil {
			bits, err = c.word()
			o.Float = math.Float32frombits(bits)
		}
	case op.CONST_I:
		var bits uint32
		if o.ID, err = c.ptr(); err == nil {
			bits, err = c.word()
			o.Int32 = int32(bits)
		}
	case op.CONST_B:
		if o.ID, err = c.ptr(); err == nil {
			o.Bool, err = c.boolean()
		}
	case op.CONST_S:
		if o.ID, err = c.ptr(); err == nil {
			o.Str, err = c.str()
		}
	case op.ALLOC:
		if o.ID, err = c.ptr(); err == nil {
			o.Word, err = c.word()
		}
	case op.JMP, op.JMPo, op.JMPe, op.JMPne, op.LABEL, op.ExceptCatch, op.LIBLOAD, op.LIBDCALL:
		o.Str, err = c.str()
	case op.JMPs:
		if o.Str, err = c.str(); err == nil {
			o.Str2, err = c.str()
		}
	case op.JMP_DEF:
		if o.Str, err = c.str(); err == nil {
			o.ID, err = c.ptr()
		}
	case op.SYSCALL:
		if o.ID, err = c.ptr(); err == nil {
			o.ID2, err = c.ptr()
		}
	case op.GETBYTE, op.GETWORD:
		if o.ID, err = c.ptr(); err == nil {
			o.ID2, err = c.ptr()
		}
	case op.SETBYTE:
		if o.ID, err = c.ptr(); err == nil {
			if o.ID2, err = c.ptr(); err == nil {
				o.Byte, err = c.byte()
			}
		}
	case op.SETWORD:
		if o.ID, err = c.ptr(); err == nil {
			if o.ID2, err = c.ptr(); err == nil {
				o.Word, err = c.word()
			}
		}
	case op.LIBCALL, op.DLIBCALL:
		if o.Str, err = c.str(); err == nil {
			o.Str2, err = c.str()
		}
	case op.POP, op.ExceptThrow, op.RET, op.EMIT, op.DUP, op.SWAP,
		op.ADDu, op.ADDi, op.ADDfi, op.ADDif, op.ADDf,
		op.SUBu, op.SUBi, op.SUBfi, op.SUBif, op.SUBf,
		op.MULu, op.MULi, op.MULfi, op.MULif, op.MULf,
		op.DIVu, op.DIVi, op.DIVfi, op.DIVif, op.DIVf,
		op.MODu, op.MODi, op.MODfi, op.MODif, op.MODf,
		op.ROR, op.ROL, op.LSR, op.ASR, op.LSL, op.ASL,
		op.NEG, op.AND, op.XOR, op.NAND, op.CNT, op.CMP, op.JMP_SCAN, op.OR, op.NOR,
		op.DJMP, op.DJMPe, op.DJMPne, op.DLIBLOAD, op.DLIBDCALL:
		// no operands
	default:
		return op.Operator{}, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, byte(code))
	}
	if err != nil {
		return op.Operator{}, err
	}
	return o, nil
}
