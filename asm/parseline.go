package asm

import (
	"fmt"
	"strings"

	"github.com/stalfos/stalfos/op"
)

func parseLine(tokens []string) (op.Operator, error) {
	mnemonic := tokens[0]

	if strings.HasPrefix(mnemonic, ".") {
		return op.Operator{Code: op.LABEL, Str: unquote(mnemonic[1:])}, nil
	}

	code, ok := op.FromMnemonic(mnemonic)
	if !ok {
		return op.Operator{}, fmt.Errorf("%w: %q", ErrUnknownMnemonic, mnemonic)
	}

	o := op.Operator{Code: code}
	var err error

	next := func(i int) (string, error) { return arg(tokens, i) }

	switch code {
	case op.PUSH:
		var a string
		if a, err = next(1); err == nil {
			o.Word, err = parseWord(a)
		}
	case op.LOAD, op.LOAD_CONST, op.DEALLOC, op.POPS, op.GETLEN, op.GETBYTELEN,
		op.SYSCALLD, op.EMITS, op.EMITW, op.EMITD, op.DUPO, op.DALLOC:
		var a string
		if a, err = next(1); err == nil {
			var v uint64
			v, err = parseUint(a)
			o.ID = v
		}
	case op.CONST_U:
		err = twoArgs(tokens, &o.ID, parseUint, &o.Word, parseWord)
	case op.CONST_F:
		var idTok, valTok string
		if idTok, err = next(1); err == nil {
			if o.ID, err = parseUint(idTok); err == nil {
				if valTok, err = next(2); err == nil {
					o.Float, err = parseFloat32(valTok)
				}
			}
		}
	case op.CONST_I:
		var idTok, valTok string
		if idTok, err = next(1); err == nil {
			if o.ID, err = parseUint(idTok); err == nil {
				if valTok, err = next(2); err == nil {
					o.Int32, err = parseInt32(valTok)
				}
			}
		}
	case op.CONST_B:
		var idTok, valTok string
		if idTok, err = next(1); err == nil {
			if o.ID, err = parseUint(idTok); err == nil {
				if valTok, err = next(2); err == nil {
					o.Bool, err = parseBool(valTok)
				}
			}
		}
	case op.CONST_S:
		var idTok, s string
		if idTok, err = next(1); err == nil {
			if o.ID, err = parseUint(idTok); err == nil {
				if s, err = next(2); err == nil {
					o.Str = unquote(s)
				}
			}
		}
	case op.ALLOC:
		err = twoArgs(tokens, &o.ID, parseUint, &o.Word, parseWord)
	case op.JMP, op.JMPo, op.JMPe, op.JMPne, op.ExceptCatch, op.LIBLOAD, op.LIBDCALL:
		var s string
		if s, err = next(1); err == nil {
			o.Str = unquote(s)
		}
	case op.LABEL:
		var s string
		if s, err = next(1); err == nil {
			o.Str = unquote(s)
		}
	case op.JMPs:
		var t, f string
		if t, err = next(1); err == nil {
			if f, err = next(2); err == nil {
				o.Str, o.Str2 = unquote(t), unquote(f)
			}
		}
	case op.JMP_DEF:
		var name, pc string
		if name, err = next(1); err == nil {
			o.Str = unquote(name)
			if pc, err = next(2); err == nil {
				o.ID, err = parseUint(pc)
			}
		}
	case op.SYSCALL:
		var a, b string
		if a, err = next(1); err == nil {
			if o.ID, err = parseUint(a); err == nil {
				if b, err = next(2); err == nil {
					o.ID2, err = parseUint(b)
				}
			}
		}
	case op.GETBYTE, op.GETWORD:
		var a, b string
		if a, err = next(1); err == nil {
			if o.ID, err = parseUint(a); err == nil {
				if b, err = next(2); err == nil {
					o.ID2, err = parseUint(b)
				}
			}
		}
	case op.SETBYTE:
		var a, b, c string
		if a, err = next(1); err == nil {
			if o.ID, err = parseUint(a); err == nil {
				if b, err = next(2); err == nil {
					if o.ID2, err = parseUint(b); err == nil {
						if c, err = next(3); err == nil {
							o.Byte, err = parseByte(c)
						}
					}
				}
			}
		}
	case op.SETWORD:
		var a, b, c string
		if a, err = next(1); err == nil {
			if o.ID, err = parseUint(a); err == nil {
				if b, err = next(2); err == nil {
					if o.ID2, err = parseUint(b); err == nil {
						if c, err = next(3); err == nil {
							o.Word, err = parseWord(c)
						}
					}
				}
			}
		}
	case op.LIBCALL, op.DLIBCALL:
		var a, b string
		if a, err = next(1); err == nil {
			if b, err = next(2); err == nil {
				o.Str, o.Str2 = unquote(a), unquote(b)
			}
		}
	case op.POP, op.ExceptThrow, op.RET, op.EMIT, op.DUP, op.SWAP, op.JMP_SCAN,
		op.ADDu, op.ADDi, op.ADDfi, op.ADDif, op.ADDf,
		op.SUBu, op.SUBi, op.SUBfi, op.SUBif, op.SUBf,
		op.MULu, op.MULi, op.MULfi, op.MULif, op.MULf,
		op.DIVu, op.DIVi, op.DIVfi, op.DIVif, op.DIVf,
		op.MODu, op.MODi, op.MODfi, op.MODif, op.MODf,
		op.ROR, op.ROL, op.LSR, op.ASR, op.LSL, op.ASL,
		op.NEG, op.AND, op.XOR, op.NAND, op.CNT, op.CMP, op.OR, op.NOR,
		op.DJMP, op.DJMPe, op.DJMPne, op.DLIBLOAD, op.DLIBDCALL:
		// no operands
	default:
		return op.Operator{}, fmt.Errorf("%w: %q", ErrUnknownMnemonic, mnemonic)
	}

	if err != nil {
		return op.Operator{}, err
	}
	return o, nil
}

// twoArgs parses tokens[1] into *idOut via idParse and tokens[2] into
// *wordOut via wordParse.
func twoArgs(tokens []string, idOut *uint64, idParse func(string) (uint64, error), wordOut *uint32, wordParse func(string) (uint32, error)) error {
	a, err := arg(tokens, 1)
	if err != nil {
		return err
	}
	if *idOut, err = idParse(a); err != nil {
		return err
	}
	b, err := arg(tokens, 2)
	if err != nil {
		return err
	}
	*wordOut, err = wordParse(b)
	return err
}
