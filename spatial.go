package canvas

import (
	"math"
	"sort"
)

// bvhFanout is the number of children per index node.
const bvhFanout = 8

// minRebuildItems is the change count below which pending changes are always
// scanned linearly instead of triggering a rebuild.
const minRebuildItems = 16

type spatialItem struct {
	node    *Node
	box     AABB // current bounds
	treeBox AABB // bounds the tree was built with
	inTree  bool
	pending bool // box changed since the last build; searched linearly
	removed bool
	seen    uint64
}

type bvhNode struct {
	box          AABB
	first, count int
	leaf         bool // children index leaves, otherwise nodes
}

// SpatialIndex is a bounding-volume hierarchy over shape bounds. It is bulk
// loaded with sort-tile-recursive packing. Changes between builds go to a
// pending list searched linearly; once the pending share of all items passes
// the rebuild ratio, the next query rebuilds the tree.
type SpatialIndex struct {
	items   map[*Node]*spatialItem
	leaves  []*spatialItem
	nodes   []bvhNode
	root    int
	pending []*spatialItem

	ratio    float64
	dirty    int // removed items still referenced by the tree
	rebuilds int
}

// NewSpatialIndex creates an empty index. ratio is the changed-item share
// that triggers a rebuild; values <= 0 use 0.25.
func NewSpatialIndex(ratio float64) *SpatialIndex {
	if ratio <= 0 {
		ratio = 0.25
	}
	return &SpatialIndex{items: make(map[*Node]*spatialItem), ratio: ratio, root: -1}
}

// Len returns the number of indexed shapes.
func (s *SpatialIndex) Len() int { return len(s.items) }

// Rebuilds returns how many bulk rebuilds have run.
func (s *SpatialIndex) Rebuilds() int { return s.rebuilds }

// Bounds returns the indexed box for n.
func (s *SpatialIndex) Bounds(n *Node) (AABB, bool) {
	it, ok := s.items[n]
	if !ok {
		return AABB{}, false
	}
	return it.box, true
}

// Update inserts n or moves it to box. An empty box removes it.
func (s *SpatialIndex) Update(n *Node, box AABB) {
	if box.IsEmpty() {
		s.Remove(n)
		return
	}
	it, ok := s.items[n]
	if !ok {
		it = &spatialItem{node: n}
		s.items[n] = it
	} else if it.box == box {
		return
	}
	it.box = box
	if !it.pending {
		it.pending = true
		s.pending = append(s.pending, it)
	}
}

// Remove drops n from the index.
func (s *SpatialIndex) Remove(n *Node) {
	it, ok := s.items[n]
	if !ok {
		return
	}
	delete(s.items, n)
	it.removed = true
	if it.inTree {
		s.dirty++
	}
	if it.pending {
		s.pending = removeItem(s.pending, it)
	}
}

// mark flags n as still present for the current frame.
func (s *SpatialIndex) mark(n *Node, frame uint64) {
	if it, ok := s.items[n]; ok {
		it.seen = frame
	}
}

// prune removes every item not marked in frame and returns how many.
func (s *SpatialIndex) prune(frame uint64) int {
	removed := 0
	for n, it := range s.items {
		if it.seen != frame {
			s.Remove(n)
			removed++
		}
	}
	return removed
}

func removeItem(list []*spatialItem, it *spatialItem) []*spatialItem {
	for i, p := range list {
		if p == it {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			return list[:len(list)-1]
		}
	}
	return list
}

// needsRebuild reports whether pending changes outweigh the tree.
func (s *SpatialIndex) needsRebuild() bool {
	changes := len(s.pending) + s.dirty
	if changes < minRebuildItems && s.root >= 0 {
		return false
	}
	return float64(changes) > s.ratio*float64(len(s.items)) || s.root < 0 && len(s.items) > 0
}

// Rebuild bulk loads the tree from the current items.
func (s *SpatialIndex) Rebuild() {
	s.leaves = s.leaves[:0]
	for _, it := range s.items {
		it.inTree = true
		it.pending = false
		it.treeBox = it.box
		s.leaves = append(s.leaves, it)
	}
	clear(s.pending)
	s.pending = s.pending[:0]
	s.dirty = 0
	s.nodes = s.nodes[:0]
	s.root = -1
	s.rebuilds++
	if len(s.leaves) == 0 {
		return
	}

	// Leaf level: sort-tile-recursive over item centers.
	strSort(s.leaves)
	level := make([]int, 0, len(s.leaves)/bvhFanout+1)
	for i := 0; i < len(s.leaves); i += bvhFanout {
		end := min(i+bvhFanout, len(s.leaves))
		b := EmptyAABB()
		for _, it := range s.leaves[i:end] {
			b.Union(it.treeBox)
		}
		s.nodes = append(s.nodes, bvhNode{box: b, first: i, count: end - i, leaf: true})
		level = append(level, len(s.nodes)-1)
	}

	// Upper levels. Nodes of one level are contiguous, so parents reference
	// a run of the previous level.
	for len(level) > 1 {
		next := make([]int, 0, len(level)/bvhFanout+1)
		for i := 0; i < len(level); i += bvhFanout {
			end := min(i+bvhFanout, len(level))
			b := EmptyAABB()
			for _, ci := range level[i:end] {
				b.Union(s.nodes[ci].box)
			}
			s.nodes = append(s.nodes, bvhNode{box: b, first: level[i], count: end - i})
			next = append(next, len(s.nodes)-1)
		}
		level = next
	}
	s.root = level[0]
}

// strSort orders items into vertical slabs by center x, each slab sorted by
// center y, so consecutive runs of bvhFanout items are spatially tight.
func strSort(items []*spatialItem) {
	cx := func(it *spatialItem) float64 { return (it.treeBox.MinX + it.treeBox.MaxX) / 2 }
	cy := func(it *spatialItem) float64 { return (it.treeBox.MinY + it.treeBox.MaxY) / 2 }
	sort.Slice(items, func(i, j int) bool { return cx(items[i]) < cx(items[j]) })
	leafCount := (len(items) + bvhFanout - 1) / bvhFanout
	slabs := int(math.Ceil(math.Sqrt(float64(leafCount))))
	slabSize := slabs * bvhFanout
	for i := 0; i < len(items); i += slabSize {
		slab := items[i:min(i+slabSize, len(items))]
		sort.Slice(slab, func(a, b int) bool { return cy(slab[a]) < cy(slab[b]) })
	}
}

// Search appends to dst every node whose box intersects q.
func (s *SpatialIndex) Search(q AABB, dst []*Node) []*Node {
	if q.IsEmpty() {
		return dst
	}
	if s.needsRebuild() {
		s.Rebuild()
	}
	if s.root >= 0 {
		var stackBuf [64]int
		stack := append(stackBuf[:0], s.root)
		for len(stack) > 0 {
			ni := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			nd := &s.nodes[ni]
			if !nd.box.Intersects(q) {
				continue
			}
			if nd.leaf {
				for _, it := range s.leaves[nd.first : nd.first+nd.count] {
					if it.removed || it.pending || !it.treeBox.Intersects(q) {
						continue
					}
					dst = append(dst, it.node)
				}
				continue
			}
			for c := nd.first; c < nd.first+nd.count; c++ {
				stack = append(stack, c)
			}
		}
	}
	for _, it := range s.pending {
		if it.box.Intersects(q) {
			dst = append(dst, it.node)
		}
	}
	return dst
}

// SearchPoint appends every node whose box contains (x, y).
func (s *SpatialIndex) SearchPoint(x, y float64, dst []*Node) []*Node {
	return s.Search(AABB{MinX: x, MinY: y, MaxX: x, MaxY: y}, dst)
}

// Depth returns the height of the tree, 0 when empty.
func (s *SpatialIndex) Depth() int {
	if s.root < 0 {
		return 0
	}
	d := 1
	for ni := s.root; !s.nodes[ni].leaf; ni = s.nodes[ni].first {
		d++
	}
	return d
}
