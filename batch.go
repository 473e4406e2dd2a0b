package canvas

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/phanxgames/canvas/gpu"
)

// Technique is the drawing method used for a shape kind.
type Technique uint8

const (
	TechniqueNone    Technique = iota // groups; never drawn
	TechniqueCircle                   // SDF circle, instanceable
	TechniqueEllipse                  // SDF ellipse, instanceable
	TechniqueRect                     // SDF rounded rectangle, instanceable
	TechniqueMesh                     // tessellated path or polyline
	TechniqueText                     // glyph quads over an atlas
	techniqueCount
)

var techniqueNames = [...]string{"none", "circle", "ellipse", "rect", "mesh", "text"}

func (t Technique) String() string {
	if int(t) < len(techniqueNames) {
		return techniqueNames[t]
	}
	return "unknown"
}

// Instanceable reports whether shapes of this technique can share one
// instanced draw.
func (t Technique) Instanceable() bool {
	return t >= TechniqueCircle && t <= TechniqueRect
}

func techniqueFor(k ShapeKind) Technique {
	switch k {
	case KindCircle:
		return TechniqueCircle
	case KindEllipse:
		return TechniqueEllipse
	case KindRect:
		return TechniqueRect
	case KindPath, KindPolyline:
		return TechniqueMesh
	case KindText:
		return TechniqueText
	}
	return TechniqueNone
}

// --- Instance records ---

// instanceStride is the size of one packed shape record: ten vec4<f32>.
const instanceStride = 160

// instanceStamp identifies the state an uploaded record was packed from.
type instanceStamp [3]uint64

func stampOf(n *Node) instanceStamp {
	return instanceStamp{n.renderVersion, n.tf.worldVersion, math.Float64bits(n.worldOpacity)}
}

// packInstance appends n's shape record to dst. Colors are premultiplied;
// the overall opacity travels separately so the shader can apply it after
// compositing stroke, fill and shadows.
func packInstance(dst []byte, n *Node) []byte {
	w := n.tf.world
	a := &n.attrs

	var cx, cy, hx, hy, corner float64
	switch g := n.geom.(type) {
	case *CircleGeometry:
		cx, cy, hx, hy, corner = g.CX, g.CY, g.R, g.R, g.R
	case *EllipseGeometry:
		cx, cy, hx, hy = g.CX, g.CY, g.RX, g.RY
		corner = math.Min(g.RX, g.RY)
	case *RectGeometry:
		cx, cy = g.X+g.Width/2, g.Y+g.Height/2
		hx, hy = math.Abs(g.Width)/2, math.Abs(g.Height)/2
		corner = g.radius()
	}

	var strokeW float64
	var fill, stroke [4]float32
	if !a.Fill.IsNone() {
		fill = a.Fill.Premultiplied(a.FillOpacity)
	}
	if a.hasStroke() {
		strokeW = a.StrokeWidth
		stroke = a.Stroke.Premultiplied(a.StrokeOpacity)
	}

	dst = gpu.Float32Bytes(dst,
		float32(w[0]), float32(w[1]), float32(w[2]), float32(w[3]),
		float32(w[4]), float32(w[5]), 0, 0,
		float32(cx), float32(cy), float32(hx), float32(hy),
		float32(corner), float32(strokeW), float32(a.StrokeAlignment), float32(n.worldOpacity),
	)
	dst = gpu.Float32Bytes(dst, fill[:]...)
	dst = gpu.Float32Bytes(dst, stroke[:]...)
	dst = packShadow(dst, a.DropShadow, true)
	dst = packShadow(dst, a.InnerShadow, false)
	return dst
}

func packShadow(dst []byte, s Shadow, drop bool) []byte {
	if !s.Enabled() {
		return gpu.Float32Bytes(dst, 0, 0, 0, 0, 0, 0, 0, 0)
	}
	c := s.Color.Premultiplied(1)
	var reach float64
	if drop {
		reach = math.Max(math.Abs(s.OffsetX), math.Abs(s.OffsetY)) + s.reach()
	}
	dst = gpu.Float32Bytes(dst, c[:]...)
	return gpu.Float32Bytes(dst, float32(s.OffsetX), float32(s.OffsetY), float32(s.Sigma()), float32(reach))
}

// --- Instanced batches ---

// batchID names a batch by technique and its position among this frame's
// batches of that technique. Stable scenes keep stable IDs, so buffers are
// reused across frames.
type batchID struct {
	tech Technique
	slot int
}

// instanceBatch is one instanced draw and its instance buffer.
type instanceBatch struct {
	buf      gpu.Buffer
	capacity int
	members  []*Node
	stamps   []instanceStamp
	used     uint64
}

func (b *instanceBatch) destroy() {
	if b.buf != nil {
		b.buf.Destroy()
		b.buf = nil
	}
	b.capacity = 0
	clear(b.members)
	b.members = b.members[:0]
}

func sameMembers(members []*Node, run []RenderCommand) bool {
	if len(members) != len(run) {
		return false
	}
	for i, n := range members {
		if run[i].Node != n {
			return false
		}
	}
	return true
}

// drawBatch draws run with one instanced call. When the members match the
// previous frame only records whose node changed are re-uploaded; otherwise
// the whole run is repacked, growing the buffer if needed. The returned error
// is non-nil only for a lost device.
func (r *Renderer) drawBatch(pass gpu.RenderPass, t Technique, run []RenderCommand) error {
	id := batchID{t, r.slots[t]}
	r.slots[t]++
	b := r.batches[id]
	if b == nil {
		b = &instanceBatch{}
		r.batches[id] = b
	}
	b.used = r.frame
	n := len(run)

	if b.capacity < n {
		b.destroy()
		capacity := 16
		for capacity < n {
			capacity *= 2
		}
		capacity = max(min(capacity, r.cfg.MaxInstances), n)
		buf, err := r.dev.CreateBuffer(&gpu.BufferDescriptor{
			Label: "canvas " + t.String() + " instances",
			Size:  uint64(capacity * instanceStride),
			Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return r.drawErr(nil, err)
		}
		b.buf = buf
		b.capacity = capacity
	}

	if sameMembers(b.members, run) {
		start := -1
		for i := 0; i <= n; i++ {
			if i < n && b.stamps[i] != stampOf(run[i].Node) {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				if err := r.writeInstances(b, run, start, i); err != nil {
					return err
				}
				start = -1
			}
		}
	} else {
		b.members = b.members[:0]
		for _, cmd := range run {
			b.members = append(b.members, cmd.Node)
		}
		if cap(b.stamps) < n {
			b.stamps = make([]instanceStamp, n)
		}
		b.stamps = b.stamps[:n]
		if err := r.writeInstances(b, run, 0, n); err != nil {
			return err
		}
	}

	p, err := r.pipeline(t, true)
	if p == nil {
		return err
	}
	pass.SetPipeline(p)
	pass.SetUniformBuffer(0, r.cameraUB)
	pass.SetVertexBuffer(0, r.quadVB)
	pass.SetVertexBuffer(1, b.buf)
	pass.SetIndexBuffer(r.quadIB, gputypes.IndexFormatUint16)
	pass.DrawIndexed(6, uint32(n))

	if s := r.stats; s != nil {
		s.Batches++
		s.DrawCalls++
		s.Instances += n
	}
	return nil
}

// writeInstances packs and uploads run[lo:hi] into the matching records.
func (r *Renderer) writeInstances(b *instanceBatch, run []RenderCommand, lo, hi int) error {
	r.scratch = r.scratch[:0]
	for i := lo; i < hi; i++ {
		r.scratch = packInstance(r.scratch, run[i].Node)
	}
	if err := b.buf.Write(uint64(lo*instanceStride), r.scratch); err != nil {
		// Force a full repack next frame.
		clear(b.members)
		b.members = b.members[:0]
		return r.drawErr(nil, err)
	}
	for i := lo; i < hi; i++ {
		b.stamps[i] = stampOf(run[i].Node)
	}
	if s := r.stats; s != nil {
		s.InstancesUploaded += hi - lo
		s.BytesUploaded += len(r.scratch)
	}
	return nil
}
