package canvas

import "time"

// FrameStats holds per-frame timing and draw metrics. Timings are only
// measured in debug mode; counts are always filled.
type FrameStats struct {
	Frame uint64

	Traverse time.Duration
	Cull     time.Duration
	Batch    time.Duration
	Submit   time.Duration

	Nodes    int // nodes visited by the traversal
	Indexed  int // shapes in the spatial index
	Pruned   int // shapes dropped from the index this frame
	Commands int // shapes that survived culling
	Culled   int // indexed shapes outside the viewport or not renderable

	Batches           int // instanced batches drawn
	DrawCalls         int
	Instances         int // shapes drawn through instanced batches
	InstancesUploaded int // instance records re-uploaded
	BytesUploaded     int
}

// debugLog writes the frame statistics at debug level.
func (s *Scene) debugLog() {
	if !s.debug {
		return
	}
	st := &s.stats
	total := st.Traverse + st.Cull + st.Batch + st.Submit
	Logger().Debug("frame timing",
		"frame", st.Frame,
		"traverse", st.Traverse,
		"cull", st.Cull,
		"batch", st.Batch,
		"submit", st.Submit,
		"total", total)
	Logger().Debug("frame counts",
		"commands", st.Commands,
		"culled", st.Culled,
		"batches", st.Batches,
		"draw_calls", st.DrawCalls,
		"uploaded", st.InstancesUploaded,
		"bytes", st.BytesUploaded)
}

// debugMaxTreeDepth is the depth above which attach logs a warning.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		Logger().Warn("tree depth exceeds threshold", "node", n.Name, "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

// debugMaxChildCount is the child count above which attach logs a warning.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		Logger().Warn("child count exceeds threshold", "node", n.Name, "children", len(n.children), "threshold", debugMaxChildCount)
	}
}
