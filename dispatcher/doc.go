// Package dispatcher implements the bounded worker pool and request queue
// that admit, run, and recycle upgrade.Orchestrator executions (spec.md
// §4.6). A Pool enforces the active_workers/max_threads admission protocol
// with a mutex and condition variable exactly as the Design Notes require;
// a Queue is the bounded FIFO workers pull from; Dispatcher wires the two
// together and tracks worker goroutine lifecycles with errgroup.
package dispatcher
