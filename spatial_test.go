package canvas

import (
	"math/rand/v2"
	"sort"
	"strconv"
	"testing"
)

func randomBox(rng *rand.Rand) AABB {
	x, y := rng.Float64()*1000, rng.Float64()*1000
	return NewAABB(x, y, x+1+rng.Float64()*40, y+1+rng.Float64()*40)
}

// bruteSearch returns the names of every node whose box intersects q.
func bruteSearch(boxes map[*Node]AABB, q AABB) []string {
	var out []string
	for n, b := range boxes {
		if b.Intersects(q) {
			out = append(out, n.Name)
		}
	}
	sort.Strings(out)
	return out
}

func searchNames(idx *SpatialIndex, q AABB) []string {
	names := pickNames(idx.Search(q, nil))
	sort.Strings(names)
	return names
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSpatialIndexMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	idx := NewSpatialIndex(0.25)
	boxes := make(map[*Node]AABB)
	nodes := make([]*Node, 500)
	for i := range nodes {
		n := NewCircle(strconv.Itoa(i), 0, 0, 1)
		nodes[i] = n
		b := randomBox(rng)
		boxes[n] = b
		idx.Update(n, b)
	}

	check := func(round int) {
		t.Helper()
		for range 50 {
			q := randomBox(rng).Expand(rng.Float64() * 100)
			got, want := searchNames(idx, q), bruteSearch(boxes, q)
			if !sameStrings(got, want) {
				t.Fatalf("round %d: Search(%v) = %d hits, want %d", round, q, len(got), len(want))
			}
		}
	}
	check(0)

	// Move a few (pending, linear scan) and then many (rebuild).
	for round, moves := range []int{5, 200} {
		for range moves {
			n := nodes[rng.IntN(len(nodes))]
			b := randomBox(rng)
			boxes[n] = b
			idx.Update(n, b)
		}
		for range 10 {
			n := nodes[rng.IntN(len(nodes))]
			if _, ok := boxes[n]; ok {
				delete(boxes, n)
				idx.Remove(n)
			}
		}
		check(round + 1)
	}
	if idx.Len() != len(boxes) {
		t.Errorf("Len = %d, want %d", idx.Len(), len(boxes))
	}
}

func TestSpatialIndexRebuildRatio(t *testing.T) {
	idx := NewSpatialIndex(0.5)
	nodes := make([]*Node, 100)
	for i := range nodes {
		nodes[i] = NewCircle("n", 0, 0, 1)
		idx.Update(nodes[i], NewAABB(float64(i*10), 0, float64(i*10+5), 5))
	}
	idx.Search(NewAABB(0, 0, 1, 1), nil)
	if idx.Rebuilds() != 1 {
		t.Fatalf("initial build count = %d, want 1", idx.Rebuilds())
	}

	// 40 changes stay under half of 100.
	for i := range 40 {
		idx.Update(nodes[i], NewAABB(float64(i*10), 100, float64(i*10+5), 105))
	}
	if got := idx.Search(NewAABB(0, 100, 1000, 110), nil); len(got) != 40 {
		t.Errorf("pending search found %d, want 40", len(got))
	}
	if idx.Rebuilds() != 1 {
		t.Errorf("rebuilt below the ratio: %d", idx.Rebuilds())
	}

	for i := 40; i < 60; i++ {
		idx.Update(nodes[i], NewAABB(float64(i*10), 100, float64(i*10+5), 105))
	}
	if got := idx.Search(NewAABB(0, 100, 1000, 110), nil); len(got) != 60 {
		t.Errorf("search after rebuild found %d, want 60", len(got))
	}
	if idx.Rebuilds() != 2 {
		t.Errorf("Rebuilds = %d, want 2 once changes pass the ratio", idx.Rebuilds())
	}
}

func TestSpatialIndexSmallChangesNeverRebuild(t *testing.T) {
	idx := NewSpatialIndex(0.01)
	nodes := make([]*Node, 20)
	for i := range nodes {
		nodes[i] = NewCircle("n", 0, 0, 1)
		idx.Update(nodes[i], NewAABB(0, 0, 1, 1))
	}
	idx.Search(NewAABB(0, 0, 1, 1), nil)
	for i := range minRebuildItems - 1 {
		idx.Update(nodes[i], NewAABB(5, 5, 6, 6))
	}
	idx.Search(NewAABB(0, 0, 1, 1), nil)
	if idx.Rebuilds() != 1 {
		t.Errorf("Rebuilds = %d, want 1 below minRebuildItems", idx.Rebuilds())
	}
}

func TestSpatialIndexUpdateAndRemove(t *testing.T) {
	idx := NewSpatialIndex(0)
	a := NewCircle("a", 0, 0, 1)
	idx.Update(a, NewAABB(0, 0, 10, 10))
	idx.Rebuild()

	if b, ok := idx.Bounds(a); !ok || b != NewAABB(0, 0, 10, 10) {
		t.Errorf("Bounds = %v, %v", b, ok)
	}
	// Moved out of its old box: the stale tree entry must not match.
	idx.Update(a, NewAABB(100, 100, 110, 110))
	if got := idx.SearchPoint(5, 5, nil); len(got) != 0 {
		t.Errorf("stale box matched: %v", pickNames(got))
	}
	if got := idx.SearchPoint(105, 105, nil); len(got) != 1 {
		t.Errorf("moved box not found")
	}

	idx.Update(a, EmptyAABB())
	if idx.Len() != 0 {
		t.Error("an empty box should remove the item")
	}
	if got := idx.SearchPoint(105, 105, nil); len(got) != 0 {
		t.Errorf("removed item found: %v", pickNames(got))
	}
	if _, ok := idx.Bounds(a); ok {
		t.Error("Bounds of a removed item should report false")
	}
	idx.Remove(a) // removing twice is a no-op
}

func TestSpatialIndexPrune(t *testing.T) {
	idx := NewSpatialIndex(0)
	a, b := NewCircle("a", 0, 0, 1), NewCircle("b", 0, 0, 1)
	idx.Update(a, NewAABB(0, 0, 1, 1))
	idx.Update(b, NewAABB(0, 0, 1, 1))
	idx.mark(a, 7)
	idx.mark(b, 6)
	if n := idx.prune(7); n != 1 {
		t.Errorf("prune = %d, want 1", n)
	}
	assertNames(t, "after prune", idx.SearchPoint(0, 0, nil), "a")
}

func TestSpatialIndexDepth(t *testing.T) {
	idx := NewSpatialIndex(0)
	if idx.Depth() != 0 {
		t.Errorf("empty Depth = %d, want 0", idx.Depth())
	}
	tests := []struct {
		items int
		depth int
	}{
		{1, 1},
		{bvhFanout, 1},
		{bvhFanout + 1, 2},
		{bvhFanout * bvhFanout, 2},
		{bvhFanout*bvhFanout + 1, 3},
	}
	for _, tt := range tests {
		idx := NewSpatialIndex(0)
		for i := range tt.items {
			idx.Update(NewCircle("n", 0, 0, 1), NewAABB(float64(i), 0, float64(i)+1, 1))
		}
		idx.Rebuild()
		if got := idx.Depth(); got != tt.depth {
			t.Errorf("Depth with %d items = %d, want %d", tt.items, got, tt.depth)
		}
	}
}

func TestSpatialIndexEmptyQuery(t *testing.T) {
	idx := NewSpatialIndex(0)
	idx.Update(NewCircle("a", 0, 0, 1), NewAABB(0, 0, 10, 10))
	if got := idx.Search(EmptyAABB(), nil); len(got) != 0 {
		t.Errorf("empty query returned %d", len(got))
	}
}
