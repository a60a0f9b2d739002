package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=abc%")

	assert.True(t, m.Enabled("always", 1))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("junk", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout evaluation must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0), "percentage rollout requires non-zero userID")
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, raw)
	assert.Len(t, m.Snapshot(123), 3)
}

func TestUpdate_SwapsFlags(t *testing.T) {
	m := NewManager("feed_cache=on")
	assert.True(t, m.Enabled(FeedCache, 0))
	assert.False(t, m.Enabled(ServerSideSuppression, 7))

	m.Update("server_side_suppression=on")
	assert.False(t, m.Enabled(FeedCache, 0))
	assert.True(t, m.Enabled(ServerSideSuppression, 7))
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(FeedCache, 1))
	assert.Empty(t, m.Raw())
}
