package kfmt

import "github.com/asterism-labs/hadron-sub002/kernel"

// cpuHaltFn is mocked by tests and inlined by the compiler in release builds.
var cpuHaltFn = func() {}

// SetHaltFunc registers the function used to stop the CPU once Panic has
// finished printing. kmain wires this to cpu.Halt once the cpu package is
// safe to call into.
func SetHaltFunc(fn func()) {
	cpuHaltFn = fn
}

var errUnknownPanic = &kernel.Error{Module: "kfmt", Message: "unknown cause"}

// Panic prints e (a *kernel.Error, a string, or an error) to the active
// output sink and halts the CPU. Panic never returns. It is the target that
// ring-0 invariant violations and CPU exceptions redirect into; it is
// deliberately distinct from Go's built-in panic because unwinding through
// runtime.gopanic is not available without a fully initialized goroutine
// runtime this early in boot.
func Panic(e interface{}) {
	var err *kernel.Error

	switch v := e.(type) {
	case *kernel.Error:
		err = v
	case string:
		Printf("\n-----------------------------------\n")
		Printf("*** kernel panic: %s ***\n", v)
		Printf("-----------------------------------\n")
		for {
			cpuHaltFn()
		}
	case error:
		errUnknownPanic.Message = v.Error()
		err = errUnknownPanic
	default:
		err = errUnknownPanic
	}

	Printf("\n-----------------------------------\n")
	if err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Printf("*** kernel panic: system halted ***\n")
	Printf("-----------------------------------\n")

	for {
		cpuHaltFn()
	}
}
