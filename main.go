package main

import (
	"github.com/asterism-labs/hadron-sub002/kernel/hal/limine"
	"github.com/asterism-labs/hadron-sub002/kernel/kmain"
)

// bootRequests lives in package scope, not inside main, so the linker
// places it in the .requests section the Limine protocol scans for
// before jumping here; referencing it from main also keeps the Go
// compiler from inlining the call to kmain.Kmain and discarding the
// rest of the kernel as dead code.
var bootRequests = limine.NewRequests()

// main is the only Go symbol visible to the boot trampoline's assembly,
// which has already set up the GDT and a minimal stack by the time this
// runs. main is not expected to return; if it does, the trampoline halts
// the CPU.
func main() {
	kmain.Kmain(limine.New(bootRequests))
}
