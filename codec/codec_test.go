package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stalfos/stalfos/codec"
	"github.com/stalfos/stalfos/op"
)

func helloProgram() []op.Operator {
	return []op.Operator{
		{Code: op.JMP_SCAN},
		{Code: op.LABEL, Str: "main"},
		{Code: op.CONST_S, ID: 1, Str: "hello world!"},
		{Code: op.LOADD, ID: 1},
		{Code: op.SYSCALLD, ID: 3},
		{Code: op.RET},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := helloProgram()
	b, err := codec.Encode(p)
	require.NoError(t, err)
	require.Equal(t, codec.Magic[:], b[:4])

	decoded, err := codec.Decode(b)
	require.NoError(t, err)
	require.Equal(t, p, decoded)

	reencoded, err := codec.Encode(decoded)
	require.NoError(t, err)
	require.Equal(t, b, reencoded)
}

func TestDecodeBadMagic(t *testing.T) {
	_, err := codec.Decode([]byte{0, 0, 0, 0})
	require.ErrorIs(t, err, codec.ErrBadMagic)
}

func TestDecodeTruncated(t *testing.T) {
	b, err := codec.Encode([]op.Operator{{Code: op.PUSH, Word: 42}})
	require.NoError(t, err)
	_, err = codec.Decode(b[:len(b)-1])
	require.ErrorIs(t, err, codec.ErrTruncated)
}

func TestDecodeUnknownOpcode(t *testing.T) {
	b := append([]byte{}, codec.Magic[:]...)
	b = append(b, 0x99)
	_, err := codec.Decode(b)
	require.ErrorIs(t, err, codec.ErrUnknownOpcode)
}

func TestDecodeBadBool(t *testing.T) {
	b := append([]byte{}, codec.Magic[:]...)
	b = append(b, byte(op.CONST_B))
	b = append(b, 0, 0, 0, 0, 0, 0, 0, 1) // id=1
	b = append(b, 0x7F)                  // neither 0x00 nor 0xFF
	_, err := codec.Decode(b)
	require.ErrorIs(t, err, codec.ErrBadBool)
}

func TestEmitdRoundTripsIdentifier(t *testing.T) {
	// Regression: the Rust original's assembler.rs never appended EMITD's
	// identifier bytes to its output, breaking the round-trip property.
	p := []op.Operator{{Code: op.EMITD, ID: 7}}
	b, err := codec.Encode(p)
	require.NoError(t, err)
	decoded, err := codec.Decode(b)
	require.NoError(t, err)
	require.Equal(t, p, decoded)
}

func TestDisassembleRendersLabelShorthand(t *testing.T) {
	text := codec.Disassemble("", helloProgram())
	require.Contains(t, text, ".main\n")
	require.Contains(t, text, "CONST_S 1 \"hello world!\"")
}
