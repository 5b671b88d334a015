package profile

// Tag is the build tag that enables profiling.
const Tag = "pprof"

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Profiler describes a profiling session.
type Profiler struct {
	// Mode is one of [Modes]. An empty or unsupported mode disables
	// profiling.
	Mode string
	// Dir is the directory profiles are written to. If empty, a temporary
	// directory is created.
	Dir string
	// Quiet suppresses the profiler's own start and stop messages.
	Quiet bool
}

// Enabled reports whether Start would begin profiling.
func (p Profiler) Enabled() bool { return p.Mode != "" && supported(p.Mode) }

// Start begins profiling. The returned Stopper is never nil, and its Stop
// method must be called exactly once.
func (p Profiler) Start() Stopper {
	if !p.Enabled() {
		return nop{}
	}

	return start(p)
}

type nop struct{}

func (nop) Stop() {}
