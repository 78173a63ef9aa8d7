package probe

import (
	"fmt"
	"strings"

	"github.com/kbukum/gatewayprobe/errors"
)

// Mode is an invocation pattern a model is tested with.
type Mode string

// Modes in declared order.
const (
	ModeCompletion Mode = "completion"
	ModeStructured Mode = "structured"
	ModeStreaming  Mode = "streaming"
)

var declaredModes = []Mode{ModeCompletion, ModeStructured, ModeStreaming}

// AllModes returns every mode in declared order.
func AllModes() []Mode {
	return append([]Mode(nil), declaredModes...)
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m.order() >= 0
}

func (m Mode) order() int {
	for i, d := range declaredModes {
		if d == m {
			return i
		}
	}
	return -1
}

// ParseModes parses mode names, dropping duplicates and returning them in
// declared order. An empty list selects every mode. Unknown names are a
// configuration error.
func ParseModes(names []string) ([]Mode, error) {
	seen := make([]bool, len(declaredModes))
	picked := false
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		m := Mode(name)
		if !m.Valid() {
			return nil, errors.Configuration(fmt.Sprintf("unknown mode %q (want completion, structured or streaming)", name))
		}
		seen[m.order()] = true
		picked = true
	}
	if !picked {
		return AllModes(), nil
	}

	modes := make([]Mode, 0, len(declaredModes))
	for i, ok := range seen {
		if ok {
			modes = append(modes, declaredModes[i])
		}
	}
	return modes, nil
}

// Strings converts modes to their names.
func Strings(modes []Mode) []string {
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}
