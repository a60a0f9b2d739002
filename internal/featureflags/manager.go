// Package featureflags evaluates rollout flags configured as a key=value list.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync/atomic"
)

// Flags used by the API.
const (
	// ServerSideSuppression hides the viewer's hidden and reported posts from feed listings.
	ServerSideSuppression = "server_side_suppression"
	// FeedCache serves anonymous feed pages from Redis.
	FeedCache = "feed_cache"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "feed_cache=on,server_side_suppression=25%"
// The flag set can be swapped at runtime with Update.
type Manager struct {
	flags atomic.Pointer[map[string]string]
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	m := &Manager{}
	m.Update(raw)
	return m
}

// Update replaces the flag set.
func (m *Manager) Update(raw string) {
	parsed := parse(raw)
	m.flags.Store(&parsed)
}

func parse(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func (m *Manager) current() map[string]string {
	if m == nil {
		return nil
	}
	if p := m.flags.Load(); p != nil {
		return *p
	}
	return nil
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic user rollout, e.g. 25%)
func (m *Manager) Enabled(name string, userID uint) bool {
	value, ok := m.current()[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if userID == 0 {
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	flags := m.current()
	out := make(map[string]string, len(flags))
	for k, v := range flags {
		out[k] = v
	}
	return out
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	flags := m.current()
	out := make(map[string]bool, len(flags))
	for name := range flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
