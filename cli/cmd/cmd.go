package cmd

import (
	"context"
	"io"
	"iter"
	"os"
	"slices"

	"github.com/alecthomas/kong"
)

type (
	kongKey        struct{}
	sourceFilesKey struct{}
)

// WithContext returns a copy of ctx carrying the parsed command line.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, kongKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(kongKey{}).(*kong.Context)

	return ktx
}

// stdout returns the writer commands print results to.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// SourceFiles is the ordered set of distinct root object documents.
type SourceFiles interface {
	// IsZero reports whether there are no documents.
	IsZero() bool
	// Stdin returns standard input if it is one of the documents.
	Stdin() io.Reader
	// Documents yields the named files in order, then standard input.
	Documents() iter.Seq[io.Reader]
}

// stdinSource names standard input among the sources.
const stdinSource = "-"

type sourceFiles struct {
	files []*os.File
	stdin bool
}

func (s *sourceFiles) IsZero() bool { return len(s.files) == 0 && !s.stdin }

func (s *sourceFiles) Stdin() io.Reader {
	if !s.stdin {
		return nil
	}

	return os.Stdin
}

func (s *sourceFiles) Documents() iter.Seq[io.Reader] {
	return func(yield func(io.Reader) bool) {
		for _, f := range s.files {
			if !yield(f) {
				return
			}
		}

		if s.stdin {
			yield(os.Stdin)
		}
	}
}

// WithSourceFiles returns a copy of ctx carrying the documents named by
// sources. A file named more than once, under any path or through a
// symlink, is read once. Standard input, named "-" or by a path to the
// same file, is read once and last. Files that cannot be opened are
// skipped.
func WithSourceFiles(ctx context.Context, sources []string) context.Context {
	return context.WithValue(ctx, sourceFilesKey{}, buildSourceFiles(sources))
}

func buildSourceFiles(sources []string) SourceFiles {
	var (
		s    sourceFiles
		seen []os.FileInfo
	)

	stdin, _ := os.Stdin.Stat()

	for _, src := range sources {
		if src == stdinSource {
			s.stdin = true

			continue
		}

		f, err := os.Open(src)
		if err != nil {
			continue
		}

		info, err := f.Stat()

		switch {
		case err != nil:
		case stdin != nil && os.SameFile(stdin, info):
			s.stdin = true
		case slices.ContainsFunc(seen, func(fi os.FileInfo) bool { return os.SameFile(fi, info) }):
		default:
			seen = append(seen, info)
			s.files = append(s.files, f)

			continue
		}

		_ = f.Close()
	}

	if s.IsZero() {
		return nil
	}

	return &s
}

// sourceFilesFrom returns the documents stored by [WithSourceFiles], or nil.
func sourceFilesFrom(ctx context.Context) SourceFiles {
	s, _ := ctx.Value(sourceFilesKey{}).(SourceFiles)

	return s
}
