// Package profile records runtime profiles of the xel command with
// [github.com/pkg/profile].
//
// Profiling is compiled in only with the pprof build tag. Without it,
// [Modes] is empty and every [Profiler] is a no-op:
//
//	go build -tags pprof -o xel .
//
// A session covers one command:
//
//	stop := profile.Profiler{Mode: "cpu", Dir: dir, Quiet: true}.Start()
//	defer stop.Stop()
//
// Each mode writes one file named after it, such as cpu.pprof or
// mem.pprof, into the directory. The modes are:
//
//	allocs     memory allocations since program start
//	block      blocking on synchronization primitives
//	clock      wall-clock time, including time spent off CPU
//	cpu        CPU time
//	goroutine  goroutine stacks at stop
//	heap       live heap allocations
//	mem        sampled memory allocations
//	mutex      mutex contention
//	thread     OS thread creation
//	trace      execution trace, read with go tool trace
//
// A typical workflow profiles a long evaluation loop and opens the result
// in the pprof web UI:
//
//	xel --pprof-mode=cpu eval -m immediate -n 100000 "#cat('a', 'b')"
//	go tool pprof -http=: xel ~/.cache/xel/pprof/cpu.pprof
//
// Comparing the interpreter with compiled evaluation is a matter of
// profiling both modes and passing one as the base of the other:
//
//	go tool pprof -base=off/cpu.pprof immediate/cpu.pprof
package profile
