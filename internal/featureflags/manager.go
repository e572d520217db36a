// Package featureflags holds the site toggles configured through FEATURE_FLAGS.
package featureflags

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Site toggles. Both are on unless FEATURE_FLAGS turns them off.
const (
	// SelfSignup allows visitors to create an account.
	SelfSignup = "self_signup"
	// Comments allows signed-in readers to submit comments.
	Comments = "comments"
)

var defaults = map[string]bool{
	SelfSignup: true,
	Comments:   true,
}

var (
	ErrInvalidToggle = errors.New("toggle must be name=on or name=off")
	ErrUnknownToggle = errors.New("unknown toggle")
)

// Manager holds the toggles parsed from a list such as "self_signup=off,comments=on".
type Manager struct {
	values  map[string]bool
	ignored []string
}

// Parse reads raw strictly. Every entry must name a known toggle with an
// on/off value; configuration validation uses it to reject typos at startup.
func Parse(raw string) (*Manager, error) {
	return parse(raw, true)
}

// NewManager reads raw leniently. Entries Parse would reject are kept in Ignored.
func NewManager(raw string) *Manager {
	m, _ := parse(raw, false)
	return m
}

func parse(raw string, strict bool) (*Manager, error) {
	m := &Manager{values: make(map[string]bool)}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, value, found := strings.Cut(entry, "=")
		name = normalize(name)
		on, valid := parseToggle(value)

		var err error
		switch _, known := defaults[name]; {
		case !found || !valid:
			err = fmt.Errorf("%w: %q", ErrInvalidToggle, entry)
		case !known:
			err = fmt.Errorf("%w: %q", ErrUnknownToggle, name)
		default:
			m.values[name] = on
			continue
		}
		if strict {
			return nil, err
		}
		m.ignored = append(m.ignored, entry)
	}

	return m, nil
}

func parseToggle(value string) (on, ok bool) {
	switch normalize(value) {
	case "on", "true", "1":
		return true, true
	case "off", "false", "0":
		return false, true
	}
	return false, false
}

// Enabled reports whether the named toggle is on. Unconfigured toggles take
// their default; names that are not site toggles are off.
func (m *Manager) Enabled(name string) bool {
	name = normalize(name)
	if m != nil {
		if on, ok := m.values[name]; ok {
			return on
		}
	}
	return defaults[name]
}

// Snapshot returns the state of every site toggle.
func (m *Manager) Snapshot() map[string]bool {
	out := make(map[string]bool, len(defaults))
	for name := range defaults {
		out[name] = m.Enabled(name)
	}
	return out
}

// Names returns the site toggles in name order.
func Names() []string {
	return slices.Sorted(maps.Keys(defaults))
}

// Ignored returns the entries NewManager could not use, in input order.
func (m *Manager) Ignored() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.ignored)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
