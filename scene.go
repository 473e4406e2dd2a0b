package canvas

import (
	"fmt"
	"time"

	"github.com/phanxgames/canvas/gpu"
)

// ErrorHandler receives errors that do not abort the frame: a node that
// could not be drawn, a panicking listener, a lost device.
type ErrorHandler func(err error)

// NodeError wraps an error caused by a specific node.
type NodeError struct {
	Node *Node
	Err  error
}

func (e *NodeError) Error() string {
	if e.Node == nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("node %d (%s %q): %v", e.Node.handle, e.Node.kind, e.Node.Name, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// Scene owns the node tree, the camera, the spatial index, input state and
// the renderer. It is single-threaded: call Update and Render from one
// goroutine, once per frame.
type Scene struct {
	cfg      Config
	platform Platform

	root   *Node
	camera *Camera
	index  *SpatialIndex
	nodes  map[Handle]*Node

	renderer *Renderer

	frame     uint64
	travStack []*Node
	commands  []RenderCommand
	cullBuf   []*Node

	input       inputState
	injectQueue []PointerSample
	listeners   []listener
	sink        EventSink
	script      *ScriptRunner

	onError      ErrorHandler
	debug        bool
	stats        FrameStats
	framePending bool
}

// NewScene creates a scene with an empty root group. Zero Config fields take
// their defaults; a nil Platform.Device disables rendering.
func NewScene(cfg Config, p Platform) *Scene {
	cfg = cfg.withDefaults()
	p = p.withDefaults()
	s := &Scene{
		cfg:      cfg,
		platform: p,
		index:    NewSpatialIndex(cfg.SpatialRebuildRatio),
		nodes:    make(map[Handle]*Node),
		debug:    cfg.Debug,
	}
	s.camera = NewCamera(0, 0)
	s.camera.SetZoomLimits(cfg.MinZoom, cfg.MaxZoom)
	s.camera.SetClock(p.Now)
	s.camera.SetDefaultLandmarkDuration(cfg.LandmarkDuration)
	s.root = NewGroup("root")
	s.attach(s.root)
	if p.Device != nil {
		s.renderer = NewRenderer(p.Device, p.Compiler, cfg)
		s.renderer.onError = s.report
		if n, ok := p.Device.(gpu.ContextLossNotifier); ok {
			n.OnContextRestored(s.RequestFrame)
		}
	}
	return s
}

// Root returns the scene's root group.
func (s *Scene) Root() *Node { return s.root }

// Camera returns the scene camera.
func (s *Scene) Camera() *Camera { return s.camera }

// Platform returns the strategies the scene was built with, defaults filled.
func (s *Scene) Platform() Platform { return s.platform }

// Config returns the scene configuration.
func (s *Scene) Config() Config { return s.cfg }

// Index returns the spatial index as of the last Update.
func (s *Scene) Index() *SpatialIndex { return s.index }

// Renderer returns the renderer, or nil when the scene has no device.
func (s *Scene) Renderer() *Renderer { return s.renderer }

// Frame returns the number of completed Update calls.
func (s *Scene) Frame() uint64 { return s.frame }

// Lookup resolves a handle to a node attached to this scene.
func (s *Scene) Lookup(h Handle) (*Node, bool) {
	n, ok := s.nodes[h]
	return n, ok
}

// NumNodes returns the number of nodes attached to the scene, root included.
func (s *Scene) NumNodes() int { return len(s.nodes) }

// attach registers n's subtree with the scene. Safe on a nil scene.
func (s *Scene) attach(n *Node) {
	if s == nil {
		return
	}
	n.walk(func(c *Node) bool {
		c.scene = s
		s.nodes[c.handle] = c
		if s.debug {
			debugCheckChildCount(c)
		}
		return true
	})
	if s.debug {
		debugCheckTreeDepth(n)
	}
}

// detach unregisters n's subtree and releases its index entries and GPU
// resources. Safe on a nil scene.
func (s *Scene) detach(n *Node) {
	if s == nil {
		return
	}
	n.walk(func(c *Node) bool {
		if c.scene != s {
			return false
		}
		c.scene = nil
		delete(s.nodes, c.handle)
		s.index.Remove(c)
		if s.renderer != nil {
			s.renderer.Forget(c)
		}
		s.input.forget(c)
		return true
	})
}

// SetErrorHandler sets the callback for non-fatal frame errors.
func (s *Scene) SetErrorHandler(fn ErrorHandler) { s.onError = fn }

func (s *Scene) report(err error) {
	if err == nil {
		return
	}
	Logger().Warn("canvas: frame error", "err", err)
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *Scene) reportf(n *Node, format string, args ...any) {
	s.report(&NodeError{Node: n, Err: fmt.Errorf(format, args...)})
}

// SetDebugMode turns per-frame statistics logging and tree sanity checks on
// or off.
func (s *Scene) SetDebugMode(enabled bool) { s.debug = enabled }

// Stats returns the statistics of the last frame.
func (s *Scene) Stats() FrameStats { return s.stats }

// --- Frame loop ---

// Update advances one frame. Camera transitions tick first, then world
// transforms, paint order and the spatial index are refreshed. An attached
// script runner steps and one queued synthetic pointer sample is fed last.
func (s *Scene) Update(now time.Time) {
	s.stats = FrameStats{Frame: s.frame + 1}
	s.camera.Tick(now)

	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}
	s.traverse()
	if s.debug {
		s.stats.Traverse = time.Since(t0)
	}

	if s.script != nil {
		s.script.step(s)
	}
	s.processInjected(now)

	if s.camera.Animating() || len(s.injectQueue) > 0 || (s.script != nil && !s.script.Done()) {
		s.RequestFrame()
	}
}

// RequestFrame asks the platform scheduler for a frame that runs Update and
// Render. Repeated requests before the frame runs are merged. Without a
// scheduler this does nothing.
func (s *Scene) RequestFrame() {
	if s.platform.Scheduler == nil || s.framePending {
		return
	}
	s.framePending = true
	s.platform.Scheduler.RequestFrame(s.runFrame)
}

func (s *Scene) runFrame(now time.Time) {
	s.framePending = false
	s.Update(now)
	if err := s.Render(); err != nil {
		s.report(err)
	}
}

// traverse walks the tree in paint order without recursion. It refreshes
// world matrices top-down, numbers nodes in paint order, and updates the
// spatial index with the world render bounds of every visible shape.
// Hidden subtrees are skipped and drop out of the index.
func (s *Scene) traverse() {
	s.frame++
	frame := s.frame
	order := 0
	stack := append(s.travStack[:0], s.root)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n.refreshWorld()
		n.paintOrder = order
		order++
		n.visitFrame = frame
		n.drawable = n.renderable && (n.parent == nil || n.parent.drawable)
		if !n.visible {
			continue
		}
		if n.geom != nil {
			s.index.Update(n, n.worldRenderBounds())
			s.index.mark(n, frame)
		}
		children := n.children
		if len(children) > 1 {
			if !n.childrenSorted {
				rebuildSortedChildren(n)
			}
			children = n.sortedChildren
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	clear(stack)
	s.travStack = stack[:0]
	s.stats.Nodes = order
	s.stats.Pruned = s.index.prune(frame)
	s.stats.Indexed = s.index.Len()
}

// rebuildSortedChildren rebuilds the ZIndex-sorted child order with a stable
// insertion sort.
func rebuildSortedChildren(n *Node) {
	nc := len(n.children)
	if cap(n.sortedChildren) < nc {
		n.sortedChildren = make([]*Node, nc)
	}
	n.sortedChildren = n.sortedChildren[:nc]
	copy(n.sortedChildren, n.children)
	for i := 1; i < nc; i++ {
		key := n.sortedChildren[i]
		j := i - 1
		for j >= 0 && n.sortedChildren[j].zIndex > key.zIndex {
			n.sortedChildren[j+1] = n.sortedChildren[j]
			j--
		}
		n.sortedChildren[j+1] = key
	}
	n.childrenSorted = true
}

// Close releases every GPU resource the scene's renderer holds.
func (s *Scene) Close() error {
	if s.renderer == nil {
		return nil
	}
	s.renderer.Destroy()
	return nil
}

// HasDevice reports whether Render draws anything.
func (s *Scene) HasDevice() bool { return s.renderer != nil }

// Device returns the platform device, or nil.
func (s *Scene) Device() gpu.Device { return s.platform.Device }
