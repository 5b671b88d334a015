package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "vars", "funcs", "types", "root", "exprs", "mode", "edit", "clear", "quit",
}

// scope identifies what the word at the cursor refers to.
type scope int

const (
	scopeRoot      scope = iota // property of the root object
	scopeReference              // variable or function after '#'
	scopeMember                 // property of the chain before '.'
	scopeType                   // type name inside T(...)
)

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes: whitespace, the member-access dot, and operator or punctuation
// characters.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%', '^',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'#', '@', '\'', '"':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input.
// Returns an empty word when the cursor sits on a boundary (after a space,
// between dots, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// typeBounds reports whether the cursor sits on a type name inside T(...)
// and returns that name and its boundaries. Type names may contain dots.
func typeBounds(input string, cursor int) (word string, start, end int, ok bool) {
	if cursor > len(input) {
		cursor = len(input)
	}

	isName := func(r rune) bool { return r == '.' || !isWordBoundary(r) }

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isName(r) {
			break
		}

		start -= size
	}

	if !strings.HasSuffix(strings.TrimRight(input[:start], " \t"), "T(") {
		return "", cursor, cursor, false
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if !isName(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end, true
}

// parentPath returns the reference chain leading up to the current word,
// considering only the contiguous member-access chain. For input
// "x + #cfg?.server.ho" with the word "ho", the parent path is
// "#cfg?.server". Returns "" for top-level words.
func parentPath(input string, wordStart int) string {
	prefix, ok := strings.CutSuffix(input[:wordStart], ".")
	if !ok {
		return ""
	}

	prefix = strings.TrimSuffix(prefix, "?")

	end := len(prefix)
	pos := end

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r == '.' || r == '?' {
			pos -= size

			continue
		}

		if r == '#' {
			pos -= size

			break
		}

		if isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.TrimSpace(prefix[pos:end])
}

// completionScope classifies the word starting at wordStart.
func completionScope(input string, wordStart int) (scope, string) {
	if wordStart == 0 {
		return scopeRoot, ""
	}

	switch input[wordStart-1] {
	case '#':
		return scopeReference, ""
	case '.':
		return scopeMember, parentPath(input, wordStart)
	}

	return scopeRoot, ""
}

// candidates returns the names that are valid completions in scope sc.
func (s *session) candidates(sc scope, parent string) []string {
	switch sc {
	case scopeReference:
		return append(s.variables(), s.functions()...)

	case scopeMember:
		v, ok := s.resolve(parent)
		if !ok {
			return nil
		}

		return properties(v)

	case scopeType:
		return s.types()

	default:
		return properties(s.root())
	}
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, the scope
// of the word, and the word boundaries. When the current word is empty at the
// top level, it returns nil matches. When the word is empty after a dot, '#',
// or T(, it returns all candidates as matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	sc scope,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)

	if m.mode == modeCtrl {
		if word == "" {
			return nil, nil, sc, wordStart, wordEnd
		}

		candidates = ctrlCommands
	} else {
		var parent string

		sc, parent = completionScope(input, wordStart)

		if tw, ts, te, ok := typeBounds(input, cursor); ok {
			sc, word, wordStart, wordEnd = scopeType, tw, ts, te
		}

		candidates = m.session.candidates(sc, parent)

		// When the word is empty at the top level, don't show completions
		// (allows the hint text to be visible). In any other scope, show all
		// candidates immediately so the user can browse them.
		if word == "" {
			if sc == scopeRoot || len(candidates) == 0 {
				return nil, nil, sc, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, sc, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, sc, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, sc, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style. Candidates for which callable reports true get a "()"
// suffix.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
	callable func(string) bool,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		selected := tabActive && i == suggIdx
		rendered := renderCandidate(match, selected, callable != nil && callable(match.Str))
		candidateWidth := lipgloss.Width(rendered)

		entryWidth := candidateWidth
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected, callable bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		ch := string(r)
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(ch))
		} else {
			b.WriteString(baseStyle.Render(ch))
		}
	}

	if callable {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}
