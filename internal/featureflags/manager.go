// Package featureflags evaluates FEATURE_FLAGS toggles such as
// "strict_status_transitions=on,new_search=25%".
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flags consulted by the API.
const (
	// StrictStatusTransitions rejects challenge status moves that go backwards.
	StrictStatusTransitions = "strict_status_transitions"
)

// Known lists the flags the API reads, with what they change.
var Known = map[string]string{
	StrictStatusTransitions: "Challenge status may only move open -> ongoing -> completed",
}

// State is one flag evaluated for a caller.
type State struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Configured  string `json:"configured,omitempty"`
	// Enabled is the value for the caller; Global is what user-less checks see.
	Enabled bool `json:"enabled"`
	Global  bool `json:"global"`
	Known   bool `json:"known"`
}

type rule struct {
	raw     string
	percent int
}

// Manager holds parsed flag rules. A nil Manager reports every flag off.
type Manager struct {
	rules map[string]rule
}

// NewManager parses a comma-separated key=value list. Values are on/off
// (true/false, 1/0) or an N% rollout keyed by user id. Malformed entries are
// dropped.
func NewManager(raw string) *Manager {
	m := &Manager{rules: make(map[string]rule)}
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key, value = normalize(key), normalize(value)
		if !ok || key == "" || value == "" {
			continue
		}
		pct, valid := percentOf(value)
		if !valid {
			continue
		}
		m.rules[key] = rule{raw: value, percent: pct}
	}
	return m
}

func percentOf(value string) (int, bool) {
	switch value {
	case "on", "true", "1":
		return 100, true
	case "off", "false", "0":
		return 0, true
	}
	n, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if err != nil || !strings.HasSuffix(value, "%") {
		return 0, false
	}
	return min(max(n, 0), 100), true
}

// Enabled reports whether name is on for userID. Partial rollouts are
// deterministic per user and always off for anonymous callers.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	switch {
	case !ok || r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < r.percent
}

// EnabledGlobally reports whether name is fully on, for checks that have no user.
func (m *Manager) EnabledGlobally(name string) bool {
	if m == nil {
		return false
	}
	return m.rules[normalize(name)].percent == 100
}

// names lists known and configured flags in sorted order.
func (m *Manager) names() []string {
	set := make(map[string]struct{}, len(Known))
	for k := range Known {
		set[k] = struct{}{}
	}
	if m != nil {
		for k := range m.rules {
			set[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for k := range set {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// States evaluates every known or configured flag for userID. Flags that are
// configured but never read by the API are reported with Known false.
func (m *Manager) States(userID uint) []State {
	names := m.names()
	out := make([]State, 0, len(names))
	for _, name := range names {
		desc, known := Known[name]
		st := State{
			Name:        name,
			Description: desc,
			Enabled:     m.Enabled(name, userID),
			Global:      m.EnabledGlobally(name),
			Known:       known,
		}
		if m != nil {
			st.Configured = m.rules[name].raw
		}
		out = append(out, st)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
