package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/xel/lang"
	"github.com/ardnew/xel/lang/eval"
	"github.com/ardnew/xel/log"
)

// ErrNoDecoder is reported by the edit command when the session has no
// [Decoder].
var ErrNoDecoder = errors.New("no root document decoder")

// Decoder reads a root object document.
type Decoder func(ctx context.Context, r io.Reader) (map[string]any, error)

// Config configures an interactive session.
type Config struct {
	// Context is the evaluation context shared by every input line.
	Context *eval.Context
	// Decode reads the root document back after the edit command.
	Decode   Decoder
	Logger   log.Logger
	CacheDir string
	Options  []lang.Option
	Mode     lang.Mode
}

// editRootMsg is sent when root editing completes successfully.
type editRootMsg struct{ root map[string]any }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a decode
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters a non-decode error.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help         Print this cruft
  vars         List variables
  funcs        List functions
  types        List type names usable in T(...) and new
  root         Print the root object
  exprs        List evaluated expressions and whether they are compiled
  mode [MODE]  Show or set the compiler mode (off, immediate, mixed)
  edit         Edit the root object in external $EDITOR
  clear        Clear screen
  quit         Exit REPL

Usage:
  Type an expression to evaluate it against the root object
  Assignments such as #x = 1 persist for the rest of the session
  Completions appear automatically as you type: root properties,
    #variables and #functions, members after '.', and types inside T(
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to switch to command mode and navigate command history
    (restores original mode when reaching end of history)
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// formatCommand formats the command echo line with prompt and input styled.
func formatCommand(input string) string {
	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// formatCtrlCommand formats the control command echo line with prompt and input
// styled.
func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc          func() context.Context
	session          *session
	decode           Decoder
	input            textinput.Model
	logger           log.Logger
	history          *History
	historyIdx       int
	matches          fuzzy.Matches // current fuzzy match results
	candidates       []string      // backing candidate list
	scope            scope         // what the current word refers to
	wordStart        int           // byte offset of current word start
	wordEnd          int           // byte offset of current word end
	suggIdx          int           // selected candidate index
	tabActive        bool          // whether user is tab-cycling
	preTabText       string        // input text before tab-cycling began
	preTabCursor     int           // cursor position before tab-cycling began
	altNavActive     bool          // whether user is in Alt+Up/Down navigation
	altNavOrigMode   inputMode     // original mode before Alt navigation
	altNavOrigText   string        // original text before Alt navigation
	altNavOrigCursor int           // original cursor position before Alt navigation
	width            int           // terminal width for ellipsization
	quitting         bool
	mode             inputMode
	evalText         string
	evalCursor       int
	ctrlText         string
	ctrlCursor       int
}

// Run starts the REPL.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	cfg.Logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cfg.CacheDir),
		slog.String("mode", cfg.Mode.String()),
		slog.Bool("has_root", cfg.Context.Root() != nil),
	)

	history := NewHistory(filepath.Join(cfg.CacheDir, baseHistory))
	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	cfg.Logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	s := newSession(cfg.Context, cfg.Logger, cfg.Mode, cfg.Options...)
	m := newModel(ctx, s, cfg.Decode, history, cfg.Logger)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	s *session,
	decode Decoder,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		session:    s,
		decode:     decode,
		input:      ti,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editRootMsg:
		m.session.setRoot(msg.root)
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("keys", len(msg.root)),
		)

		return m, tea.Println(resultStyle.Render("✔ root updated"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(
			errorStyle.Render("🗴 error: " + msg.err.Error()),
		)
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

// callable reports whether a candidate names a function.
func (m model) callable(name string) bool {
	if m.scope != scopeReference {
		return false
	}

	_, ok := m.session.ectx.Functions()[name]

	return ok
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	viewingHistory := m.historyIdx < m.history.Len()
	funcCall := detectFunctionCall(input, m.input.Position())

	var signature string

	var params []string

	if funcCall.inCall && m.mode == modeEval {
		signature, params = getSignature(m.session, funcCall.name)
	}

	switch {
	case viewingHistory:
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		hint := "Type an expression or press Esc for commands"
		if m.mode == modeCtrl {
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case len(m.matches) > 0 && (m.tabActive || signature == ""):
		b.WriteString(renderCandidateBar(
			m.matches, m.suggIdx, m.tabActive, m.width, m.callable,
		))

	case signature != "":
		b.WriteString(renderSignatureHint(signature, params, funcCall.argIndex))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.altNavActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			m.altNavActive = false

			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		m.altNavActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycleCandidate(1), nil

	case tea.KeyShiftTab:
		return m.cycleCandidate(-1), nil

	case tea.KeyUp:
		if msg.Alt {
			return m.historyCtrl(-1), nil
		}

		m.historySeek(-1, anyEntry)

		return m, nil

	case tea.KeyDown:
		if msg.Alt {
			return m.historyCtrl(1), nil
		}

		if !m.historySeek(1, anyEntry) {
			m.historyReset()
		}

		return m, nil

	case tea.KeyShiftUp:
		m.historySeek(-1, inMode(m.mode))

		return m, nil

	case tea.KeyShiftDown:
		if !m.historySeek(1, inMode(m.mode)) && m.historyIdx < m.history.Len() {
			m.historyReset()
		}

		return m, nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		m.altNavActive = false

		return m.toggleMode()

	case tea.KeyRunes:
		// Space is a "breaking" key while tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// For any other key (backspace, delete, arrows, etc.),
	// update input and recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.altNavActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycleCandidate moves the tab selection by step, wrapping around, and
// writes the selected candidate into the input. A sole candidate is
// completed and confirmed immediately.
func (m model) cycleCandidate(step int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	if n == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + step + n) % n
	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also auto-confirms the completion when exactly
// one candidate remains and the typed word already equals that candidate.
// autoConfirm should be false for deletions and cursor navigation so that
// the user can freely edit without unexpected completions.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.scope, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	word := m.input.Value()[m.wordStart:m.wordEnd]

	if word == candidate {
		replaceCurrentWord(m, candidate)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	// Reset both mode inputs after submission
	m.evalText = ""
	m.evalCursor = 0
	m.ctrlText = ""
	m.ctrlCursor = 0
	m.input.SetValue("")
	refreshMatches(&m, false)

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.DebugContext(m.ctxFunc(), "repl history write", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		return m.executeCommand(input)
	}

	echoCmd := tea.Println(formatCommand(input))

	result, expr, err := m.session.evaluate(input)
	if err != nil {
		return m, tea.Sequence(
			echoCmd,
			tea.Println(errorStyle.Render("error: "+err.Error())),
		)
	}

	return m, tea.Sequence(
		echoCmd,
		tea.Println(formatResult(result, expr)),
	)
}

// formatResult renders a result followed by its type, noting when the
// expression ran compiled.
func formatResult(result any, expr *lang.Expression) string {
	hint := eval.TypeName(result)
	if expr != nil && expr.Compiled() {
		hint += ", compiled"
	}

	return resultStyle.Render(eval.Stringify(result)) + " " +
		hintStyle.Render("("+hint+")")
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echoCmd := tea.Println(formatCtrlCommand(input))

	cmd := parts[0]
	args := parts[1:]

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", cmd),
		slog.Any("args", args),
	)

	var out string

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echoCmd, m.handleEdit())

	case "h", "help":
		out = helpMessage()

	case "v", "vars":
		out = m.listVariables()

	case "f", "funcs":
		out = m.listFunctions()

	case "t", "types":
		out = "  " + strings.Join(m.session.types(), "\n  ")

	case "r", "root":
		out = m.showRoot()

	case "x", "exprs":
		out = m.listExpressions()

	case "m", "mode":
		var err error

		out, err = m.changeMode(args)
		if err != nil {
			return m, tea.Sequence(echoCmd, tea.Println(errorStyle.Render(err.Error())))
		}

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + cmd + " (try 'help')"),
		)
	}

	return m, tea.Sequence(echoCmd, tea.Println(out))
}

func (m model) listVariables() string {
	vars := m.session.ectx.Variables()

	var b strings.Builder

	for _, name := range m.session.variables() {
		v := vars[name]
		fmt.Fprintf(&b, "  #%s = %s %s\n",
			name, eval.Stringify(v), hintStyle.Render("("+eval.TypeName(v)+")"))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (m model) listFunctions() string {
	funcs := m.session.ectx.Functions()

	var b strings.Builder

	for _, name := range m.session.functions() {
		sig, _, ok := funcSignature("#"+name, reflect.TypeOf(funcs[name]), 0)
		if !ok {
			sig = "#" + name
		}

		fmt.Fprintf(&b, "  %s\n", sig)
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (m model) showRoot() string {
	root := m.session.root()
	if root == nil {
		return hintStyle.Render("  (no root object)")
	}

	data, err := yaml.MarshalContext(m.ctxFunc(), root, yaml.Indent(2))
	if err != nil {
		return errorStyle.Render("error: " + err.Error())
	}

	return strings.TrimSuffix(string(data), "\n")
}

func (m model) listExpressions() string {
	var b strings.Builder

	for _, e := range m.session.expressions() {
		state := "interpreted"
		if e.Compiled() {
			state = "compiled"
		}

		fmt.Fprintf(&b, "  %s %s\n", e.Source(), hintStyle.Render("("+state+")"))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// changeMode shows the compiler mode, or sets it from args[0].
func (m model) changeMode(args []string) (string, error) {
	if len(args) == 0 {
		return "  " + m.session.currentMode().String(), nil
	}

	mode, err := lang.ParseMode(args[0])
	if err != nil {
		return "", err
	}

	m.session.setMode(mode)

	return "  " + mode.String(), nil
}

func (m model) handleEdit() tea.Cmd {
	if m.decode == nil {
		return tea.Println(errorStyle.Render("error: " + ErrNoDecoder.Error()))
	}

	cmd := &editRootCommand{
		root:    m.session.root(),
		decode:  m.decode,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if errors.Is(err, ErrEditDeclined) {
			return editDeclinedMsg{}
		}

		if err != nil {
			return editErrorMsg{err: err}
		}

		if cmd.newRoot == nil {
			return editCancelledMsg{}
		}

		return editRootMsg{root: cmd.newRoot}
	})
}

func anyEntry(HistoryEntry) bool { return true }

func inMode(mode inputMode) func(HistoryEntry) bool {
	return func(e HistoryEntry) bool { return e.Mode == mode }
}

// historySeek moves from the current history index by step to the nearest
// entry accepted by keep and loads it into the input, switching modes if
// needed. It reports false if there is no such entry.
func (m *model) historySeek(step int, keep func(HistoryEntry) bool) bool {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil || !keep(entry) {
			continue
		}

		m.historyIdx = i

		if m.mode != entry.Mode {
			*m, _ = m.switchToMode(entry.Mode)
		}

		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		refreshMatches(m, false)

		return true
	}

	return false
}

// historyReset leaves history navigation with an empty input.
func (m *model) historyReset() {
	m.historyIdx = m.history.Len()
	m.input.SetValue("")
	refreshMatches(m, false)
}

// historyCtrl navigates command history by step. The first step switches
// to command mode; running off either end restores the original mode and
// input.
func (m model) historyCtrl(step int) model {
	if !m.altNavActive {
		m.altNavActive = true
		m.altNavOrigMode = m.mode
		m.altNavOrigText = m.input.Value()
		m.altNavOrigCursor = m.input.Position()

		if m.mode != modeCtrl {
			m, _ = m.switchToMode(modeCtrl)
		}
	}

	if m.historySeek(step, inMode(modeCtrl)) {
		return m
	}

	m.altNavActive = false
	if m.altNavOrigMode != m.mode {
		m, _ = m.switchToMode(m.altNavOrigMode)
	}

	m.input.SetValue(m.altNavOrigText)
	m.input.SetCursor(m.altNavOrigCursor)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m
}

// toggleMode switches between eval and control modes, preserving input state.
func (m model) toggleMode() (model, tea.Cmd) {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to the specified mode, preserving input state.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	if m.mode == modeEval {
		m.evalText = m.input.Value()
		m.evalCursor = m.input.Position()
	} else {
		m.ctrlText = m.input.Value()
		m.ctrlCursor = m.input.Position()
	}

	m.mode = mode
	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m, nil
}
