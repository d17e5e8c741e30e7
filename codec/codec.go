// Package codec implements the binary object format: encoding an operator
// list to a self-delimiting byte stream with a fixed magic prefix, and the
// inverse decoder. Encode/Decode round-trip exactly (spec §4.2, §8.1).
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/stalfos/stalfos/op"
)

// Magic is the 4-byte prefix every valid binary program begins with.
var Magic = [4]byte{0xDE, 0xAD, 0xFA, 0xCE}

// HasMagic reports whether raw begins with Magic, letting callers tell a
// compiled binary apart from textual .sta source before decoding either.
func HasMagic(raw []byte) bool {
	if len(raw) < len(Magic) {
		return false
	}
	for i, b := range Magic {
		if raw[i] != b {
			return false
		}
	}
	return true
}

var (
	ErrBadMagic     = errors.New("codec: bad magic prefix")
	ErrUnknownOpcode = errors.New("codec: unknown opcode")
	ErrTruncated    = errors.New("codec: truncated stream")
	ErrBadBool      = errors.New("codec: malformed boolean byte")
	ErrBadUTF8      = errors.New("codec: malformed utf-8 string")
)

// Encode serializes program to bytes, magic prefix first.
func Encode(program []op.Operator) ([]byte, error) {
	buf := make([]byte, 0, 4+len(program)*8)
	buf = append(buf, Magic[:]...)
	for _, o := range program {
		var err error
		buf, err = encodeOne(buf, o)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func putPtr(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func putWord(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func putBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 0xFF)
	}
	return append(buf, 0x00)
}

func putString(buf []byte, s string) []byte {
	buf = putPtr(buf, uint64(len(s)))
	return append(buf, s...)
}

func encodeOne(buf []byte, o op.Operator) ([]byte, error) {
	buf = append(buf, byte(o.Code))
	switch o.Code {
	case op.PUSH:
		buf = putWord(buf, o.Word)
	case op.LOAD, op.LOAD_CONST, op.DEALLOC, op.POPS, op.GETLEN, op.GETBYTELEN,
		op.SYSCALLD, op.EMITS, op.EMITW, op.EMITD, op.DUPO, op.DALLOC:
		buf = putPtr(buf, o.ID)
	case op.CONST_U:
		buf = putPtr(buf, o.ID)
		buf = putWord(buf, o.Word)
	case op.CONST_F:
		buf = putPtr(buf, o.ID)
		buf = putWord(buf, math.Float32bits(o.Float))
	case op.CONST_I:
		buf = putPtr(buf, o.ID)
		buf = putWord(buf, uint32(o.Int32))
	case op.CONST_B:
		buf = putPtr(buf, o.ID)
		buf = putBool(buf, o.Bool)
	case op.CONST_S:
		buf = putPtr(buf, o.ID)
		buf = putString(buf, o.Str)
	case op.ALLOC:
		buf = putPtr(buf, o.ID)
		buf = putWord(buf, o.Word)
	case op.JMP, op.JMPo, op.JMPe, op.JMPne, op.LABEL, op.ExceptCatch, op.LIBLOAD, op.LIBDCALL:
		buf = putString(buf, o.Str)
	case op.JMPs:
		buf = putString(buf, o.Str)
		buf = putString(buf, o.Str2)
	case op.JMP_DEF:
		buf = putString(buf, o.Str)
		buf = putPtr(buf, o.ID)
	case op.SYSCALL:
		buf = putPtr(buf, o.ID)
		buf = putPtr(buf, o.ID2)
	case op.GETBYTE, op.GETWORD:
		buf = putPtr(buf, o.ID)
		buf = putPtr(buf, o.ID2)
	case op.SETBYTE:
		buf = putPtr(buf, o.ID)
		buf = putPtr(buf, o.ID2)
		buf = append(buf, o.Byte)
	case op.SETWORD:
		buf = putPtr(buf, o.ID)
		buf = putPtr(buf, o.ID2)
		buf = putWord(buf, o.Word)
	case op.LIBCALL, op.DLIBCALL:
		buf = putString(buf, o.Str)
		buf = putString(buf, o.Str2)
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
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, byte(o.Code))
	}
	return buf, nil
}
