package canvas

import (
	"fmt"
	"slices"
)

// Handle is an opaque scene-wide node identifier. Handles are never reused
// within a process.
type Handle uint32

// handleCounter is a plain counter (no atomic: the scene graph is
// single-threaded).
var handleCounter Handle

func nextHandle() Handle {
	handleCounter++
	return handleCounter
}

// versionCounter stamps every cache-relevant mutation. Stamps start at 1, so
// a zero "seen" stamp always reads as stale.
var versionCounter uint64

func nextVersion() uint64 {
	versionCounter++
	return versionCounter
}

// --- Node ---

// Node is a scene graph element. A single struct is used for every shape
// kind; kind-specific geometry lives behind the Geometry interface and the
// common style block is RenderAttributes.
type Node struct {
	// Name is a free-form label, not required to be unique.
	Name string
	// UserData is arbitrary host data.
	UserData any
	// EntityID links the node to a host ECS entity. Non-zero IDs are passed
	// to the scene's EventSink with every dispatched event.
	EntityID uint32

	handle Handle
	id     string
	kind   ShapeKind
	geom   Geometry

	scene    *Scene
	parent   *Node
	children []*Node

	tf         transform
	attrs      RenderAttributes
	visible    bool
	renderable bool
	zIndex     int

	// Version stamps. geomVersion changes with geometry; extentVersion with
	// anything that moves render bounds (geometry, stroke extent, shadow);
	// renderVersion with any visual change at all.
	geomVersion   uint64
	extentVersion uint64
	renderVersion uint64

	geomBounds       AABB
	geomBoundsSeen   uint64
	renderBounds     AABB
	renderBoundsSeen uint64
	worldBounds      AABB
	worldBoundsSeen  [2]uint64

	flatSubpaths []Subpath
	flatSeen     uint64
	text         *TextLayout
	textSeen     uint64

	paintOrder int
	visitFrame uint64
	drawable   bool // renderable here and in every ancestor, as of the last traversal

	// worldOpacity is Opacity multiplied down from the root, as of the last
	// refreshWorld.
	worldOpacity float64

	listeners []listener

	disposed       bool
	childrenSorted bool
	sortedChildren []*Node // children in paint order, rebuilt when childrenSorted is false
}

// initNode fills in the defaults every constructor shares.
func initNode(n *Node) {
	n.handle = nextHandle()
	n.tf.scaleX = 1
	n.tf.scaleY = 1
	n.tf.localVersion = nextVersion()
	n.attrs = DefaultAttributes()
	n.visible = true
	n.renderable = true
	n.childrenSorted = true
	v := nextVersion()
	n.geomVersion = v
	n.extentVersion = v
	n.renderVersion = v
}

func newNode(name string, kind ShapeKind, g Geometry) *Node {
	n := &Node{Name: name, kind: kind, geom: g}
	initNode(n)
	return n
}

// NewGroup creates a group node with no geometry.
func NewGroup(name string) *Node {
	return newNode(name, KindGroup, nil)
}

// NewCircle creates a circle centered at (cx, cy).
func NewCircle(name string, cx, cy, r float64) *Node {
	return newNode(name, KindCircle, &CircleGeometry{CX: cx, CY: cy, R: r})
}

// NewEllipse creates an ellipse centered at (cx, cy).
func NewEllipse(name string, cx, cy, rx, ry float64) *Node {
	return newNode(name, KindEllipse, &EllipseGeometry{CX: cx, CY: cy, RX: rx, RY: ry})
}

// NewRect creates a rectangle with its top-left corner at (x, y).
func NewRect(name string, x, y, w, h float64) *Node {
	return newNode(name, KindRect, &RectGeometry{X: x, Y: y, Width: w, Height: h})
}

// NewPath creates a path node. A nil geometry creates an empty path.
func NewPath(name string, g *PathGeometry) *Node {
	if g == nil {
		g = &PathGeometry{}
	}
	return newNode(name, KindPath, g)
}

// NewPolyline creates a polyline through points.
func NewPolyline(name string, points []Vec2) *Node {
	return newNode(name, KindPolyline, &PolylineGeometry{Points: points})
}

// NewText creates a text node.
func NewText(name string, g *TextGeometry) *Node {
	if g == nil {
		g = &TextGeometry{}
	}
	return newNode(name, KindText, g)
}

// NewShape creates a node of the given kind with geometry g. g must match
// kind (nil for groups).
func NewShape(name string, kind ShapeKind, g Geometry) (*Node, error) {
	if kind == KindGroup {
		if g != nil {
			return nil, fmt.Errorf("%w: group with %s geometry", ErrInvalidShapeKind, g.Kind())
		}
		return NewGroup(name), nil
	}
	if g == nil || g.Kind() != kind || kind > KindText {
		return nil, fmt.Errorf("%w: %s", ErrInvalidShapeKind, kind)
	}
	return newNode(name, kind, g), nil
}

// --- Accessors ---

// Handle returns the node's scene handle.
func (n *Node) Handle() Handle { return n.handle }

// ID returns the node's serialized record ID, or "" if none was assigned.
func (n *Node) ID() string { return n.id }

// SetID sets the serialized record ID.
func (n *Node) SetID(id string) { n.id = id }

// Kind returns the node's shape kind.
func (n *Node) Kind() ShapeKind { return n.kind }

// Geometry returns the node's geometry, nil for groups. After mutating the
// returned value's fields directly, call MarkGeometryDirty.
func (n *Node) Geometry() Geometry { return n.geom }

// SetGeometry replaces the node's geometry. The new geometry must be of the
// node's kind.
func (n *Node) SetGeometry(g Geometry) error {
	if n.disposed {
		return ErrDisposed
	}
	if n.kind == KindGroup || g == nil || g.Kind() != n.kind {
		return fmt.Errorf("%w: cannot set geometry on %s", ErrInvalidShapeKind, n.kind)
	}
	n.geom = g
	n.MarkGeometryDirty()
	return nil
}

// MarkGeometryDirty invalidates geometry and render bounds and flags the
// node for re-upload. Call it after editing Geometry() fields in place.
func (n *Node) MarkGeometryDirty() {
	v := nextVersion()
	n.geomVersion = v
	n.extentVersion = v
	n.renderVersion = v
}

// markExtentDirty invalidates render bounds only.
func (n *Node) markExtentDirty() {
	v := nextVersion()
	n.extentVersion = v
	n.renderVersion = v
}

// markRenderDirty flags a visual change that moves no bounds.
func (n *Node) markRenderDirty() {
	n.renderVersion = nextVersion()
}

// RenderVersion returns the stamp of the node's last visual change.
func (n *Node) RenderVersion() uint64 { return n.renderVersion }

// Parent returns the node's parent, or nil for a root or detached node.
func (n *Node) Parent() *Node { return n.parent }

// Scene returns the scene the node is attached to, or nil.
func (n *Node) Scene() *Scene { return n.scene }

// Visible reports whether the node and its subtree are drawn and pickable.
func (n *Node) Visible() bool { return n.visible }

// SetVisible shows or hides the node and its subtree.
func (n *Node) SetVisible(v bool) {
	if n.visible == v {
		return
	}
	n.visible = v
	n.markRenderDirty()
}

// Renderable reports whether the node's own geometry is drawn.
func (n *Node) Renderable() bool { return n.renderable }

// SetRenderable toggles drawing of the node and its subtree without hiding
// it from picking.
func (n *Node) SetRenderable(v bool) {
	if n.renderable == v {
		return
	}
	n.renderable = v
	n.markRenderDirty()
}

// ZIndex returns the node's z-index among its siblings.
func (n *Node) ZIndex() int { return n.zIndex }

// SetZIndex sets the node's z-index and marks the parent's children as unsorted.
// Higher values paint later. Ties keep child order.
func (n *Node) SetZIndex(z int) {
	if n.zIndex == z {
		return
	}
	n.zIndex = z
	if n.parent != nil {
		n.parent.childrenSorted = false
	}
}

// WorldOpacity returns the product of the opacities from the root down to n,
// as of the last Update.
func (n *Node) WorldOpacity() float64 { return n.worldOpacity }

// PaintOrder returns the node's global paint order from the last scene
// update. Higher values paint on top.
func (n *Node) PaintOrder() int { return n.paintOrder }

// --- Children ---

func (n *Node) checkAdd(child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	if n.disposed || child.disposed {
		return ErrDisposed
	}
	if child == n {
		return ErrSelfParent
	}
	if hasAncestor(child, n) {
		return ErrCycle
	}
	return nil
}

// AddChild makes child the last child of n, detaching it from any previous
// parent. ErrSelfParent and ErrCycle are returned before anything changes.
func (n *Node) AddChild(child *Node) error {
	if err := n.checkAdd(child); err != nil {
		return err
	}
	n.adopt(child, len(n.children))
	return nil
}

// AddChildAt is AddChild with an explicit position among the children.
func (n *Node) AddChildAt(child *Node, index int) error {
	if err := n.checkAdd(child); err != nil {
		return err
	}
	limit := len(n.children)
	if child.parent == n {
		limit--
	}
	if index < 0 || index > limit {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	n.adopt(child, index)
	return nil
}

// adopt links child under n at index. A move within one scene keeps the
// subtree's registrations, index entries and GPU resources; only its world
// transforms go stale.
func (n *Node) adopt(child *Node, index int) {
	moving := child.scene != nil && child.scene == n.scene
	if moving {
		child.unlink()
	} else {
		child.detachFromParent()
	}
	index = min(index, len(n.children))
	child.parent = n
	n.children = slices.Insert(n.children, index, child)
	n.childrenSorted = false
	child.tf.worldValid = false
	if !moving {
		n.scene.attach(child)
	} else if n.scene.debug {
		debugCheckChildCount(n)
		debugCheckTreeDepth(child)
	}
}

// RemoveChild detaches child, which must be a direct child of n.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	if child.parent != n {
		return ErrNotChild
	}
	child.detachFromParent()
	return nil
}

// RemoveChildAt detaches the child at index and returns it.
func (n *Node) RemoveChildAt(index int) (*Node, error) {
	if index < 0 || index >= len(n.children) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	c := n.children[index]
	c.detachFromParent()
	return c, nil
}

// RemoveFromParent detaches n from its parent, if it has one.
func (n *Node) RemoveFromParent() {
	n.detachFromParent()
}

// RemoveChildren detaches every child of n. The children stay usable.
func (n *Node) RemoveChildren() {
	for _, c := range n.children {
		c.parent = nil
		c.tf.worldValid = false
		if c.scene != nil {
			c.scene.detach(c)
		}
	}
	clear(n.children)
	n.children = n.children[:0]
	n.childrenSorted = true
}

// Children returns the children in insertion order. The slice is owned by n.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of direct children.
func (n *Node) NumChildren() int { return len(n.children) }

// ChildAt returns the child at the given index, or nil when out of range.
func (n *Node) ChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		return nil
	}
	return n.children[index]
}

// SetChildIndex reorders child so it sits at index among its siblings.
func (n *Node) SetChildIndex(child *Node, index int) error {
	if child == nil || child.parent != n {
		return ErrNotChild
	}
	if index < 0 || index >= len(n.children) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	from := n.childIndex(child)
	if from == index {
		return nil
	}
	n.children = slices.Insert(slices.Delete(n.children, from, from+1), index, child)
	n.childrenSorted = false
	return nil
}

// --- Disposal ---

// Dispose detaches n and marks its whole subtree disposed. Disposed nodes drop out of the spatial index
// and their batches on the next frame.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	stack := []*Node{n}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = append(stack, c.children...)
		c.dispose()
	}
}

func (n *Node) dispose() {
	n.disposed = true
	n.children = nil
	n.sortedChildren = nil
	n.parent = nil
	n.scene = nil
	n.geom = nil
	n.flatSubpaths = nil
	n.text = nil
	n.listeners = nil
	n.UserData = nil
}

// IsDisposed reports whether Dispose has been called on n or an ancestor.
func (n *Node) IsDisposed() bool { return n.disposed }

// --- Helpers ---

// hasAncestor reports whether a is n or one of n's ancestors.
func hasAncestor(a, n *Node) bool {
	for p := n; p != nil; p = p.parent {
		if p == a {
			return true
		}
	}
	return false
}

// childIndex is linear in the sibling count, the same cost as the slice
// shift that removing the child performs.
func (n *Node) childIndex(child *Node) int {
	return slices.Index(n.children, child)
}

// detachFromParent removes n from its parent's child list and from the
// parent's scene.
func (n *Node) detachFromParent() {
	if n.parent == nil {
		return
	}
	n.unlink()
	if n.scene != nil {
		n.scene.detach(n)
	}
}

// unlink removes n from its parent's child list and nothing else.
func (n *Node) unlink() {
	p := n.parent
	if p == nil {
		return
	}
	if i := p.childIndex(n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	p.childrenSorted = false
	n.parent = nil
	n.tf.worldValid = false
}

// walk visits n and its descendants depth-first in child order without
// recursion. Returning false from fn skips the node's subtree.
func (n *Node) walk(fn func(*Node) bool) {
	stack := []*Node{n}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(c) {
			continue
		}
		for i := len(c.children) - 1; i >= 0; i-- {
			stack = append(stack, c.children[i])
		}
	}
}

// Walk visits n and its descendants depth-first in child order. Returning
// false from fn skips that node's subtree.
func (n *Node) Walk(fn func(*Node) bool) { n.walk(fn) }
