package canvas

import (
	"cmp"
	"slices"
	"time"
)

// RenderCommand is one shape that survived culling, in paint order.
type RenderCommand struct {
	Node       *Node
	Technique  Technique
	PaintOrder int
}

// Render culls the scene against the camera and draws what is left. It uses
// the state of the last Update. Without a device only culling runs.
func (s *Scene) Render() error {
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}
	s.cull()
	if s.debug {
		s.stats.Cull = time.Since(t0)
	}
	var err error
	if s.renderer != nil {
		err = s.renderer.Render(s.commands, s.camera, &s.stats, s.debug)
	}
	s.debugLog()
	return err
}

// Commands returns the culled, paint-ordered command list of the last
// Render. The slice is reused between frames.
func (s *Scene) Commands() []RenderCommand { return s.commands }

// cull issues one box query for the camera's visible rectangle and keeps the
// drawable, painted shapes, sorted by paint order.
func (s *Scene) cull() {
	s.cullBuf = s.index.Search(s.camera.VisibleBounds(), s.cullBuf[:0])
	s.commands = s.commands[:0]
	for _, n := range s.cullBuf {
		if n.disposed || !n.drawable || !n.hasPaint() {
			continue
		}
		s.commands = append(s.commands, RenderCommand{
			Node:       n,
			Technique:  techniqueFor(n.kind),
			PaintOrder: n.paintOrder,
		})
	}
	clear(s.cullBuf)
	s.stats.Commands = len(s.commands)
	s.stats.Culled = s.index.Len() - len(s.commands)
	sortCommands(s.commands)
}

// hasPaint reports whether drawing n would put any pixels on screen.
func (n *Node) hasPaint() bool {
	a := &n.attrs
	if n.worldOpacity <= 0 {
		return false
	}
	return !a.Fill.IsNone() || a.hasStroke() || a.DropShadow.Enabled() || a.InnerShadow.Enabled()
}

// sortCommands orders commands by paint order.
func sortCommands(cmds []RenderCommand) {
	slices.SortStableFunc(cmds, func(a, b RenderCommand) int {
		return cmp.Compare(a.PaintOrder, b.PaintOrder)
	})
}
