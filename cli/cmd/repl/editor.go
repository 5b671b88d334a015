package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/xel/log"
)

const defaultEditor = "vi"

// ErrEditDeclined ends the edit loop when the user chooses not to fix a
// document that fails to decode.
var ErrEditDeclined = errors.New("edit declined")

// editRootCommand implements [tea.ExecCommand] for the root document
// edit-decode-retry loop. It writes the current root object as YAML to a
// temp file, opens the user's editor, and decodes the result. On decode error
// the user is prompted to re-edit; declining exits the program.
type editRootCommand struct {
	root    any
	decode  Decoder
	ctxFunc func() context.Context
	newRoot map[string]any
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editRootCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editRootCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editRootCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-decode-retry loop. If the user declines to re-edit,
// it returns [ErrEditDeclined].
func (c *editRootCommand) Run() error {
	ctx := c.ctxFunc()

	var content []byte

	if c.root != nil {
		var err error

		content, err = yaml.MarshalContext(ctx, c.root, yaml.Indent(2))
		if err != nil {
			return fmt.Errorf("marshal root: %w", err)
		}
	}

	f, err := os.CreateTemp(os.TempDir(), "xel-root-*.yaml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		r, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		doc, empty, decodeErr := decodeRoot(ctx, r, c.decode)
		r.Close()

		c.logger.TraceContext(
			ctx,
			"editor decode attempt",
			slog.Bool("empty", empty),
			slog.Bool("success", decodeErr == nil),
		)

		if empty {
			return nil
		}

		if decodeErr == nil {
			c.newRoot = doc

			return nil
		}

		fmt.Fprintf(c.stderr, "\nDecode error: %s\n", decodeErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		content, err = os.ReadFile(tmpPath)
		if err != nil {
			return err
		}
	}
}

// decodeRoot decodes a root document from r with decode. It reports empty
// when r holds no document.
func decodeRoot(ctx context.Context, r io.Reader, decode Decoder) (doc map[string]any, empty bool, err error) {
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil {
		return nil, true, nil
	}

	doc, err = decode(ctx, br)
	if err == nil && doc == nil {
		return nil, true, nil
	}

	return doc, false, err
}

// runEditor launches the user's editor on the given file path and returns a
// reader over the edited file content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) (io.ReadCloser, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, err
	}

	return os.Open(path)
}
