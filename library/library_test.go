package library_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stalfos/stalfos/codec"
	"github.com/stalfos/stalfos/library"
	"github.com/stalfos/stalfos/op"
)

func doublerLib(t *testing.T) []byte {
	t.Helper()
	program := []op.Operator{
		{Code: op.JMP_DEF, Str: "double", ID: 2},
		{Code: op.LABEL, Str: "JT_END"},
		{Code: op.DUP},
		{Code: op.ADDu},
		{Code: op.PUSH, Word: 1},
		{Code: op.RET},
	}
	raw, err := codec.Encode(program)
	require.NoError(t, err)
	return raw
}

func TestRegistryCallRunsEntryInFreshVM(t *testing.T) {
	reg := library.NewRegistry()
	require.NoError(t, reg.LoadReader("mathlib", bytes.NewReader(doublerLib(t))))

	results, err := reg.Call("mathlib", "double", []uint32{21})
	require.NoError(t, err)
	require.Equal(t, []uint32{42}, results)
}

func TestRegistryCallUnknownNamespace(t *testing.T) {
	reg := library.NewRegistry()
	_, err := reg.Call("nope", "double", nil)
	require.ErrorIs(t, err, library.ErrUnknownNamespace)
}

func TestRegistryCallUnknownEntry(t *testing.T) {
	reg := library.NewRegistry()
	require.NoError(t, reg.LoadReader("mathlib", bytes.NewReader(doublerLib(t))))

	_, err := reg.Call("mathlib", "triple", nil)
	require.ErrorIs(t, err, library.ErrUnknownEntry)
}
