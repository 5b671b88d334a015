package lang

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Mode selects when an [Expression] compiles itself.
type Mode uint8

const (
	// ModeOff never compiles.
	ModeOff Mode = iota
	// ModeImmediate attempts compilation after every successful
	// interpretation until one succeeds.
	ModeImmediate
	// ModeMixed interprets a number of times before attempting
	// compilation. See [WithThreshold].
	ModeMixed
)

//nolint:gochecknoglobals
var modeNames = []string{"off", "immediate", "mixed"}

// Modes returns the names accepted by [ParseMode].
func Modes() iter.Seq[string] { return slices.Values(modeNames) }

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}

	return fmt.Sprintf("Mode(%d)", m)
}

// ParseMode returns the mode named s, ignoring case.
func ParseMode(s string) (Mode, error) {
	i := slices.Index(modeNames, strings.ToLower(strings.TrimSpace(s)))
	if i < 0 {
		return ModeOff, fmt.Errorf("%w: %q (expected one of %s)",
			ErrInvalidMode, s, strings.Join(modeNames, ", "))
	}

	return Mode(i), nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}

	*m = v

	return nil
}
