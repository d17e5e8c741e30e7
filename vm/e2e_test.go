package vm_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stalfos/stalfos/asm"
	"github.com/stalfos/stalfos/codec"
	"github.com/stalfos/stalfos/library"
	"github.com/stalfos/stalfos/vm"
)

// These mirror spec §8's end-to-end scenarios E1-E4 and E6 (E5, the binary
// round-trip property, is exercised directly in codec_test.go).

func buildAndRun(t *testing.T, path string) (*vm.VM, *bytes.Buffer) {
	t.Helper()
	source, err := os.ReadFile(path)
	require.NoError(t, err)

	_, program, err := asm.Parse(string(source))
	require.NoError(t, err)

	var out bytes.Buffer
	machine := vm.New(program, &out)
	require.NoError(t, machine.Prepare())
	require.NoError(t, machine.Run())
	return machine, &out
}

func TestE1Hello(t *testing.T) {
	_, out := buildAndRun(t, "../testdata/e1_hello.sta")
	require.Equal(t, "hello world!\n", out.String())
}

func TestE2Exception(t *testing.T) {
	_, out := buildAndRun(t, "../testdata/e2_exception.sta")
	require.Equal(t, "42\n", out.String())
}

func TestE3ArithmeticOverflow(t *testing.T) {
	_, out := buildAndRun(t, "../testdata/e3_overflow.sta")
	require.Contains(t, out.String(), "7\n")
	require.NotContains(t, out.String(), "999")
}

func TestE4StringBuiltByteByByte(t *testing.T) {
	_, out := buildAndRun(t, "../testdata/e4_setbyte.sta")
	require.Contains(t, out.String(), "hello!")
}

func TestE6LibraryCall(t *testing.T) {
	libSource, err := os.ReadFile("../testdata/e6_squarelib.sta")
	require.NoError(t, err)
	_, libProgram, err := asm.Parse(string(libSource))
	require.NoError(t, err)
	libBinary, err := codec.Encode(libProgram)
	require.NoError(t, err)

	reg := library.NewRegistry()
	require.NoError(t, reg.LoadReader("squarelib", bytes.NewReader(libBinary)))

	callerSource, err := os.ReadFile("../testdata/e6_caller.sta")
	require.NoError(t, err)
	_, callerProgram, err := asm.Parse(string(callerSource))
	require.NoError(t, err)

	var out bytes.Buffer
	machine := vm.New(callerProgram, &out)
	machine.Libraries = reg
	require.NoError(t, machine.Prepare())
	require.NoError(t, machine.Run())

	require.Equal(t, []uint32{25, 1}, machine.Stack)
}
