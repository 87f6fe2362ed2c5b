package core

import "fmt"

// AdapterFailure records that one module's signal collection failed.
// It is isolated: the cycle continues with the remaining modules.
type AdapterFailure struct {
	Module Module
	Err    error
}

func (f *AdapterFailure) Error() string {
	return fmt.Sprintf("adapter %s: %v", f.Module, f.Err)
}

func (f *AdapterFailure) Unwrap() error { return f.Err }

// ExecutionFailure records that one admitted signal could not be executed.
// Isolated per signal; remaining signals still execute.
type ExecutionFailure struct {
	Signal Signal
	Err    error
}

func (f *ExecutionFailure) Error() string {
	return fmt.Sprintf("execute %s %s: %v", f.Signal.Key, f.Signal.Symbol, f.Err)
}

func (f *ExecutionFailure) Unwrap() error { return f.Err }
