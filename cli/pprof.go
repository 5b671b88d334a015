//go:build pprof

package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/xel/log"
	"github.com/ardnew/xel/pkg"
	"github.com/ardnew/xel/profile"
)

type pprofConfig struct {
	Mode string `default:""            enum:",${pprofModes}" help:"Record a runtime profile (${pprofModes})" placeholder:"MODE" short:"p"`
	Dir  string `default:"${pprofDir}" help:"Profile output directory"                            type:"path"`
}

func (pprofConfig) vars() kong.Vars {
	return kong.Vars{
		"pprofModes": strings.Join(profile.Modes(), ","),
		"pprofDir":   filepath.Join(pkg.CacheDir(), profile.Tag),
	}
}

func (pprofConfig) group() kong.Group {
	return kong.Group{Key: "pprof", Title: "Profiling options"}
}

// start begins a profile when a mode is selected and returns the function
// that ends it.
func (f pprofConfig) start(ctx context.Context) (stop func()) {
	p := profile.Profiler{Mode: f.Mode, Dir: f.Dir, Quiet: true}
	if !p.Enabled() {
		return func() {}
	}

	logger := log.FromContext(ctx).Component(profile.Tag)
	logger.DebugContext(ctx, "start profile",
		slog.String("mode", p.Mode),
		slog.String("dir", p.Dir),
	)

	s := p.Start()

	return func() {
		s.Stop()
		logger.DebugContext(ctx, "stop profile", slog.String("mode", p.Mode))
	}
}
