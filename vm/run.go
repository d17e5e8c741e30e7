package vm

import "fmt"

// Run drives the fetch-execute loop until the program finishes or a runtime
// error aborts it.
func (vm *VM) Run() error {
	for !vm.Finished {
		if err := vm.Step(); err != nil {
			vm.Stdout.Flush()
			return err
		}
	}
	return vm.Stdout.Flush()
}

// Step executes exactly one operator. Running off the end of the program
// counts as a clean finish.
func (vm *VM) Step() error {
	if vm.PC >= uint64(len(vm.Program)) {
		vm.Finished = true
		return nil
	}

	o := vm.Program[vm.PC]
	if vm.Trace != nil {
		fmt.Fprintf(vm.Trace, "%d: %s\n", vm.PC, o)
	}

	assignedPC, err := vm.exec(o)
	if err != nil {
		return err
	}
	if !assignedPC {
		vm.PC++
	}
	return nil
}
