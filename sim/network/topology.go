// Package network stores links between simulation entities and derives the
// delay of a message between two of them as the lowest total latency over
// the link graph.
package network

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	// ErrUnknownEntity is returned for link endpoints never registered.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrInvalidLink is returned for self links and out-of-range link parameters.
	ErrInvalidLink = errors.New("invalid link")
)

// Link is an undirected connection between two entities.
type Link struct {
	From      int
	To        int
	Bandwidth float64
	Latency   float64
}

// Topology is an undirected graph of entities weighted by link latency.
type Topology struct {
	mu    sync.Mutex
	graph *simple.WeightedUndirectedGraph
	links map[[2]int]Link
	cache map[int]path.Shortest // source id -> shortest paths, dropped on change
}

// NewTopology creates a topology with no entities.
func NewTopology() *Topology {
	return &Topology{
		graph: simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		links: make(map[[2]int]Link),
		cache: make(map[int]path.Shortest),
	}
}

// Register makes id a valid link endpoint. Registering twice is a no-op.
func (t *Topology) Register(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.graph.Node(int64(id)) != nil {
		return
	}
	t.graph.AddNode(simple.Node(id))
	t.cache = make(map[int]path.Shortest)
}

// AddLink connects a and b, replacing any earlier link between them.
func (t *Topology) AddLink(a, b int, bandwidth, latency float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.graph.Node(int64(a)) == nil:
		return fmt.Errorf("%w: %d", ErrUnknownEntity, a)
	case t.graph.Node(int64(b)) == nil:
		return fmt.Errorf("%w: %d", ErrUnknownEntity, b)
	case a == b:
		return fmt.Errorf("%w: %d linked to itself", ErrInvalidLink, a)
	case bandwidth <= 0 || math.IsNaN(bandwidth):
		return fmt.Errorf("%w: bandwidth must be positive, got %v", ErrInvalidLink, bandwidth)
	case latency < 0 || math.IsNaN(latency) || math.IsInf(latency, 0):
		return fmt.Errorf("%w: latency must be non-negative, got %v", ErrInvalidLink, latency)
	}

	t.graph.SetWeightedEdge(t.graph.NewWeightedEdge(simple.Node(a), simple.Node(b), latency))
	t.links[linkKey(a, b)] = Link{From: a, To: b, Bandwidth: bandwidth, Latency: latency}
	t.cache = make(map[int]path.Shortest)
	logrus.Debugf("network: link %d <-> %d (bw=%v, latency=%v)", a, b, bandwidth, latency)
	return nil
}

// Delay is the lowest total latency from a to b, or 0 when either entity is
// unknown or b cannot be reached.
func (t *Topology) Delay(a, b int) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a == b {
		return 0
	}
	src := t.graph.Node(int64(a))
	if src == nil || t.graph.Node(int64(b)) == nil {
		return 0
	}
	sp, ok := t.cache[a]
	if !ok {
		sp = path.DijkstraFrom(src, t.graph)
		t.cache[a] = sp
	}
	d := sp.WeightTo(int64(b))
	if math.IsInf(d, 1) {
		return 0
	}
	return d
}

// Links returns every link ordered by endpoints.
func (t *Topology) Links() []Link {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Link, 0, len(t.links))
	for _, l := range t.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := linkKey(out[i].From, out[i].To), linkKey(out[j].From, out[j].To)
		if ki[0] != kj[0] {
			return ki[0] < kj[0]
		}
		return ki[1] < kj[1]
	})
	return out
}

func linkKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
