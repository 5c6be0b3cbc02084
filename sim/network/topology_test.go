package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/cloudsim/sim"
)

func newTopology(ids ...int) *Topology {
	t := NewTopology()
	for _, id := range ids {
		t.Register(id)
	}
	return t
}

func TestAddLink_UnknownEntity_ReturnsError(t *testing.T) {
	// GIVEN only the broker and one datacenter are registered
	topo := newTopology(1001, 1002)

	// WHEN a link names an entity that was never registered
	err := topo.AddLink(1001, 4242, 1000, 0.1)

	// THEN it is rejected and nothing is stored
	assert.ErrorIs(t, err, ErrUnknownEntity)
	assert.Empty(t, topo.Links())
	assert.Zero(t, topo.Delay(1001, 4242))
}

func TestAddLink_InvalidParameters(t *testing.T) {
	topo := newTopology(1, 2)

	tests := []struct {
		name      string
		a, b      int
		bandwidth float64
		latency   float64
	}{
		{"self link", 1, 1, 10, 0.1},
		{"zero bandwidth", 1, 2, 0, 0.1},
		{"negative bandwidth", 1, 2, -5, 0.1},
		{"negative latency", 1, 2, 10, -0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, topo.AddLink(tt.a, tt.b, tt.bandwidth, tt.latency), ErrInvalidLink)
		})
	}
	assert.Empty(t, topo.Links())
}

func TestDelay_DirectLink_IsSymmetric(t *testing.T) {
	topo := newTopology(1, 2)
	require.NoError(t, topo.AddLink(1, 2, 1000, 0.25))

	assert.InDelta(t, 0.25, topo.Delay(1, 2), 1e-12)
	assert.InDelta(t, 0.25, topo.Delay(2, 1), 1e-12)
	assert.Zero(t, topo.Delay(1, 1))
}

func TestDelay_PicksLowestLatencyPath(t *testing.T) {
	// GIVEN a slow direct link and a faster two-hop route
	topo := newTopology(1, 2, 3)
	require.NoError(t, topo.AddLink(1, 3, 1000, 1.0))
	require.NoError(t, topo.AddLink(1, 2, 1000, 0.2))
	require.NoError(t, topo.AddLink(2, 3, 1000, 0.3))

	// WHEN the delay between the ends is queried
	d := topo.Delay(1, 3)

	// THEN the two-hop latency sum wins
	assert.InDelta(t, 0.5, d, 1e-12)
}

func TestDelay_UnreachableOrUnknown_IsZero(t *testing.T) {
	topo := newTopology(1, 2, 3)
	require.NoError(t, topo.AddLink(1, 2, 1000, 0.2))

	assert.Zero(t, topo.Delay(1, 3), "no path")
	assert.Zero(t, topo.Delay(1, 99), "unknown target")
	assert.Zero(t, topo.Delay(99, 1), "unknown source")
}

func TestAddLink_ReplacesEarlierLink(t *testing.T) {
	topo := newTopology(1, 2)
	require.NoError(t, topo.AddLink(1, 2, 1000, 0.2))
	assert.InDelta(t, 0.2, topo.Delay(1, 2), 1e-12, "cached before replacement")

	require.NoError(t, topo.AddLink(2, 1, 500, 0.7))

	assert.InDelta(t, 0.7, topo.Delay(1, 2), 1e-12)
	assert.Equal(t, []Link{{From: 2, To: 1, Bandwidth: 500, Latency: 0.7}}, topo.Links())
}

func TestRegister_Twice_KeepsLinks(t *testing.T) {
	topo := newTopology(1, 2)
	require.NoError(t, topo.AddLink(1, 2, 1000, 0.2))

	topo.Register(1)

	assert.InDelta(t, 0.2, topo.Delay(1, 2), 1e-12)
}

func TestLinks_SortedByEndpoints(t *testing.T) {
	topo := newTopology(1, 2, 3, 4)
	require.NoError(t, topo.AddLink(3, 4, 10, 0))
	require.NoError(t, topo.AddLink(2, 1, 10, 0))
	require.NoError(t, topo.AddLink(1, 3, 10, 0))

	links := topo.Links()

	require.Len(t, links, 3)
	got := make([][2]int, len(links))
	for i, l := range links {
		got[i] = linkKey(l.From, l.To)
	}
	assert.Equal(t, [][2]int{{1, 2}, {1, 3}, {3, 4}}, got)
}

func TestRegister_SetsFactory(t *testing.T) {
	l, err := sim.NewLinkTopology()
	require.NoError(t, err)
	_, ok := l.(*Topology)
	assert.True(t, ok)
}
