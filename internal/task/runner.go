// Package task defines the task-execution primitive the scheduler dispatches
// node updates onto. The engine does not bring its own thread pool; embedding
// code may supply any Runner that executes work concurrently.
package task

// Completion is the awaitable result of one dispatched unit of work. Exactly
// one value is sent; a nil error means the work finished cleanly.
type Completion <-chan error

// Runner executes work concurrently and hands back an awaitable completion.
type Runner interface {
	Run(work func() error) Completion
}

// GoRunner is the default Runner, dispatching each unit of work onto its own
// goroutine. The Go scheduler multiplexes the goroutines; the frame
// coordinator bounds how many are in flight.
type GoRunner struct{}

// Run implements Runner.
func (GoRunner) Run(work func() error) Completion {
	done := make(chan error, 1)
	go func() {
		done <- work()
	}()
	return done
}

// SyncRunner executes work inline on the calling goroutine. It exists for
// tests that need deterministic, single-threaded execution.
type SyncRunner struct{}

// Run implements Runner.
func (SyncRunner) Run(work func() error) Completion {
	done := make(chan error, 1)
	done <- work()
	return done
}
