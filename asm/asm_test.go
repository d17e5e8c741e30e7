package asm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stalfos/stalfos/asm"
	"github.com/stalfos/stalfos/op"
)

func TestParseHelloProgram(t *testing.T) {
	src := `#greeter
; entry point
JMP_SCAN
.main
CONST_S 1 "hello world!"
LOADD 1
SYSCALLD 3
RET
`
	ns, program, err := asm.Parse(src)
	require.NoError(t, err)
	require.Equal(t, "greeter", ns)
	require.Equal(t, []op.Operator{
		{Code: op.JMP_SCAN},
		{Code: op.LABEL, Str: "main"},
		{Code: op.CONST_S, ID: 1, Str: "hello world!"},
		{Code: op.LOADD, ID: 1},
		{Code: op.SYSCALLD, ID: 3},
		{Code: op.RET},
	}, program)
}

func TestParseNumericLiteralForms(t *testing.T) {
	_, program, err := asm.Parse("PUSH 0x2A\nPUSH 0b101010\nPUSH 42\nPUSH 4_2\n")
	require.NoError(t, err)
	for _, p := range program {
		require.EqualValues(t, 42, p.Word)
	}
}

func TestParseFloatSuffix(t *testing.T) {
	_, program, err := asm.Parse("CONST_F 1 3.5f\n")
	require.NoError(t, err)
	require.InDelta(t, 3.5, program[0].Float, 0.0001)
}

func TestParseIntDoesNotStripFSuffix(t *testing.T) {
	_, _, err := asm.Parse("CONST_I 1 3f\n")
	require.ErrorIs(t, err, asm.ErrBadNumericLiteral)
}

func TestParseBooleanForms(t *testing.T) {
	for _, tok := range []string{"1", "t", "true", "T", "TRUE"} {
		_, program, err := asm.Parse("CONST_B 1 " + tok + "\n")
		require.NoError(t, err)
		require.True(t, program[0].Bool)
	}
	for _, tok := range []string{"0", "f", "false"} {
		_, program, err := asm.Parse("CONST_B 1 " + tok + "\n")
		require.NoError(t, err)
		require.False(t, program[0].Bool)
	}
}

func TestParseUnknownMnemonic(t *testing.T) {
	_, _, err := asm.Parse("FROB 1\n")
	require.ErrorIs(t, err, asm.ErrUnknownMnemonic)
}

func TestParseUnterminatedString(t *testing.T) {
	_, _, err := asm.Parse(`CONST_S 1 "unterminated`)
	require.ErrorIs(t, err, asm.ErrUnterminatedString)
}

func TestParseCommentsAndBlankLinesIgnored(t *testing.T) {
	_, program, err := asm.Parse("; a comment\nPOP ; trailing comment\n\nRET\n")
	require.NoError(t, err)
	require.Equal(t, []op.Operator{{Code: op.POP}, {Code: op.RET}}, program)
}

func TestParseEscapedQuoteInString(t *testing.T) {
	_, program, err := asm.Parse(`CONST_S 1 "say \"hi\""` + "\n")
	require.NoError(t, err)
	require.Equal(t, `say "hi"`, program[0].Str)
}
