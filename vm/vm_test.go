package vm

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stalfos/stalfos/asm"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func runSource(t *testing.T, source string) (*VM, error) {
	t.Helper()
	_, program, err := asm.Parse(source)
	assert(t, err == nil, "failed to assemble: %v", err)

	var out bytes.Buffer
	machine := New(program, &out)
	assert(t, machine.Prepare() == nil, "failed to prepare vm")
	return machine, machine.Run()
}

func TestAddSubRoundTripsThroughMain(t *testing.T) {
	machine, err := runSource(t, `
JMP_SCAN
.main
PUSH 3
PUSH 10
ADDu
PUSH 4
SUBu
RET
`)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, len(machine.Stack) == 1, "expected 1 value left on stack, got %d", len(machine.Stack))
	// ADDu pushes a+b with a the top (10), b second (3): 10+3=13, then
	// SUBu pops 4 (top) and 13 (second): 4-13 wraps around uint32 to 0xFFFFFFF7.
	assert(t, machine.Stack[0] == uint32(0xFFFFFFF7), "unexpected result: %d", machine.Stack[0])
}

func TestCallAndReturnResumesAfterCallSite(t *testing.T) {
	machine, err := runSource(t, `
JMP_SCAN
.main
JMP helper
PUSH 99
RET
.helper
PUSH 1
RET
`)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, len(machine.Stack) == 2, "expected 2 values on stack, got %d", len(machine.Stack))
	assert(t, machine.Stack[0] == 1, "helper's push missing: %v", machine.Stack)
	assert(t, machine.Stack[1] == 99, "did not resume after the call site: %v", machine.Stack)
}

func TestExceptionUnwindsToCatch(t *testing.T) {
	machine, err := runSource(t, `
JMP_SCAN
.main
EXCEPT_CATCH handler
JMP risky
PUSH 0
RET
.risky
EXCEPT_THROW
.handler
PUSH 7
RET
`)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, len(machine.Stack) == 1, "expected 1 value on stack, got %d", len(machine.Stack))
	assert(t, machine.Stack[0] == 7, "did not land in handler: %v", machine.Stack)
}

func TestUncaughtExceptionIsFatal(t *testing.T) {
	machine, err := runSource(t, `
JMP_SCAN
.main
EXCEPT_THROW
`)
	assert(t, err != nil, "expected an uncaught exception error")
	_ = machine
}

func TestStackUnderflowIsFatal(t *testing.T) {
	_, err := runSource(t, `
JMP_SCAN
.main
POP
`)
	assert(t, err != nil, "expected stack underflow error")
}

func TestConstStringAndEmitD(t *testing.T) {
	machine, err := runSource(t, `
JMP_SCAN
.main
CONST_S 1 "hi"
EMITD 1
RET
`)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, len(machine.Output) == 2, "expected 1 data word plus length, got %d", len(machine.Output))
	assert(t, machine.Output[1] == 1, "expected length 1 word, got %d", machine.Output[1])
}

func TestAddIfTruncatesFloatAndComputesInIntSpace(t *testing.T) {
	machine, err := runSource(t, `
JMP_SCAN
.main
CONST_F 1 2.9
LOAD 1
PUSH 7
ADDif
RET
`)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, len(machine.Stack) == 1, "expected 1 value on stack, got %d", len(machine.Stack))
	// a=7 (int, top), b=2.9 (float, second) truncates to 2: 7+2=9, int-encoded.
	assert(t, machine.Stack[0] == 9, "expected int-encoded 9, got %d", machine.Stack[0])
}

func TestDynamicJumpToPoppedTarget(t *testing.T) {
	machine, err := runSource(t, `
JMP_SCAN
.main
PUSH 5
DJMP
PUSH 111
.target
PUSH 222
RET
`)
	assert(t, err == nil, "unexpected run error: %v", err)
	assert(t, len(machine.Stack) == 1, "expected only .target's push, got %v", machine.Stack)
	assert(t, machine.Stack[0] == 222, "unexpected result: %v", machine.Stack)
}
