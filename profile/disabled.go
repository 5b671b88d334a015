//go:build !pprof

package profile

// Modes returns nil unless built with the pprof tag.
func Modes() []string { return nil }

func supported(string) bool { return false }

func start(Profiler) Stopper { return nop{} }
