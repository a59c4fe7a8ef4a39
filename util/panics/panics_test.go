package panics

import (
	"testing"
	"time"

	"github.com/smartcash/smartrewardsd/infrastructure/logger"
)

func TestGoroutineWrapperFuncExitsOnPanic(t *testing.T) {
	exitCodes := make(chan int, 1)
	defer func(original func(int)) { osExit = original }(osExit)
	osExit = func(code int) { exitCodes <- code }

	log := logger.NewBackend().Logger("TEST")
	spawn := GoroutineWrapperFunc(log)
	spawn(func() {
		panic("flush failed")
	})

	select {
	case code := <-exitCodes:
		if code != 1 {
			t.Fatalf("exit code: got %d, want 1", code)
		}
	case <-time.After(exitHandlerTimeout + time.Second):
		t.Fatalf("the panic did not exit")
	}
}

func TestGoroutineWrapperFuncRuns(t *testing.T) {
	done := make(chan struct{})
	spawn := GoroutineWrapperFunc(logger.NewBackend().Logger("TEST"))
	spawn(func() {
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("the wrapped function did not run")
	}
}
