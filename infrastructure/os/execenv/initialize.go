package execenv

import (
	"runtime"
	"runtime/debug"
)

// gcPercent trades memory for fewer collections while large entry caches
// are being built.
const gcPercent = 50

// Initialize initializes the execution environment required to run
// smartrewardsd
func Initialize() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	debug.SetGCPercent(gcPercent)
}
