package canvas

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/phanxgames/canvas/gpu"
)

//go:embed shaders/*.wgsl
var shaderFS embed.FS

func shaderSource(name string) string {
	b, err := shaderFS.ReadFile("shaders/" + name)
	if err != nil {
		panic("canvas: missing embedded shader " + name)
	}
	return string(b)
}

const (
	cameraUniformSize = 64  // mat3x3<f32> + vec4<f32>
	modelUniformSize  = 64  // mat3x3<f32> + vec4<f32>
	textVertexSize    = 16  // position + uv
	staleDrawFrames   = 120 // unused frames before a per-shape draw is released
)

// RendererStats counts the GPU resources a renderer currently holds.
type RendererStats struct {
	Batches   int
	NodeDraws int
	Pipelines int
	Atlases   int
	Lost      bool
}

type pipelineKey struct {
	tech      Technique
	instanced bool
}

// pipelineEntry caches a pipeline or the fact that it could not be built, so
// a broken shader is reported once instead of every frame.
type pipelineEntry struct {
	p      gpu.Pipeline
	failed bool
}

// nodeDraw holds the GPU resources of a shape drawn on its own.
type nodeDraw struct {
	uniform      gpu.Buffer
	uniformStamp instanceStamp

	vb, ib     gpu.Buffer
	indexCount uint32
	meshKey    meshKey

	used uint64
}

func (d *nodeDraw) destroy() {
	for _, b := range []gpu.Buffer{d.uniform, d.vb, d.ib} {
		if b != nil {
			b.Destroy()
		}
	}
	*d = nodeDraw{}
}

// meshKey identifies the inputs a tessellated mesh was built from.
type meshKey struct {
	geom, extent  uint64
	fill, stroke  Color
	fillOpacity   float64
	strokeOpacity float64
}

type atlasTexture struct {
	tex     gpu.Texture
	w, h    int
	version uint64
	used    uint64
}

// Renderer turns culled render commands into GPU work. Consecutive shapes of
// one instanceable technique are drawn with a single instanced call; every
// other shape gets its own draw with a per-shape uniform buffer. Buffers are
// kept across frames and only changed records are re-uploaded.
type Renderer struct {
	dev      gpu.Device
	compiler gpu.ShaderCompiler
	cfg      Config
	onError  func(error)
	clear    Color

	notifier bool
	lost     bool

	pipelines map[pipelineKey]*pipelineEntry
	spirv     map[string][]byte // compiled programs by source
	quadVB    gpu.Buffer
	quadIB    gpu.Buffer
	cameraUB  gpu.Buffer
	camSeen   uint64

	batches map[batchID]*instanceBatch
	draws   map[*Node]*nodeDraw
	atlases map[GlyphSupplier]*atlasTexture

	frame   uint64
	slots   [techniqueCount]int
	scratch []byte
	mesh    meshBuilder
	stats   *FrameStats
}

// NewRenderer creates a renderer drawing through dev. A nil compiler skips
// shader compilation. Devices that report context loss are hooked up to
// HandleContextLost and HandleContextRestored.
func NewRenderer(dev gpu.Device, compiler gpu.ShaderCompiler, cfg Config) *Renderer {
	if compiler == nil {
		compiler = gpu.NopCompiler{}
	}
	r := &Renderer{
		dev:       dev,
		compiler:  compiler,
		cfg:       cfg.withDefaults(),
		pipelines: make(map[pipelineKey]*pipelineEntry),
		spirv:     make(map[string][]byte),
		batches:   make(map[batchID]*instanceBatch),
		draws:     make(map[*Node]*nodeDraw),
		atlases:   make(map[GlyphSupplier]*atlasTexture),
	}
	if n, ok := dev.(gpu.ContextLossNotifier); ok {
		r.notifier = true
		n.OnContextLost(r.HandleContextLost)
		n.OnContextRestored(r.HandleContextRestored)
	}
	return r
}

// SetClearColor sets the color the surface is cleared to each frame.
func (r *Renderer) SetClearColor(c Color) { r.clear = c }

// Stats returns the renderer's current resource counts.
func (r *Renderer) Stats() RendererStats {
	return RendererStats{
		Batches:   len(r.batches),
		NodeDraws: len(r.draws),
		Pipelines: len(r.pipelines),
		Atlases:   len(r.atlases),
		Lost:      r.lost,
	}
}

func (r *Renderer) report(err error) {
	if r.onError != nil {
		r.onError(err)
		return
	}
	Logger().Warn("canvas: render error", "err", err)
}

// drawErr classifies a resource error. A lost device aborts the frame and is
// returned; anything else is reported and the draw skipped.
func (r *Renderer) drawErr(n *Node, err error) error {
	if errors.Is(err, gpu.ErrDeviceLost) {
		return err
	}
	if n != nil {
		r.report(&NodeError{Node: n, Err: err})
	} else {
		r.report(err)
	}
	return nil
}

// Render draws cmds, which must be in paint order, with the camera's view.
// While the context is lost it draws nothing and returns nil.
func (r *Renderer) Render(cmds []RenderCommand, cam *Camera, stats *FrameStats, timed bool) error {
	if r.lost {
		return nil
	}
	r.frame++
	r.stats = stats
	defer func() { r.stats = nil }()

	if err := r.ensureShared(); err != nil {
		return r.fail(err)
	}
	if err := r.uploadCamera(cam); err != nil {
		return r.fail(err)
	}
	pass, err := r.dev.CreateRenderPass(&gpu.RenderPassDescriptor{
		Label:      "canvas",
		ClearColor: gputypes.Color{R: r.clear.R, G: r.clear.G, B: r.clear.B, A: r.clear.A},
		Load:       gputypes.LoadOpClear,
	})
	if err != nil {
		return r.fail(err)
	}

	var t0 time.Time
	if timed {
		t0 = time.Now()
	}
	r.slots = [techniqueCount]int{}
	if err := r.encode(pass, cmds); err != nil {
		pass.End()
		return r.fail(err)
	}
	pass.End()
	if timed && stats != nil {
		stats.Batch = time.Since(t0)
		t0 = time.Now()
	}
	err = r.dev.Submit(pass)
	if timed && stats != nil {
		stats.Submit = time.Since(t0)
	}
	r.sweep()
	if err != nil {
		return r.fail(err)
	}
	return nil
}

// encode splits cmds into runs. A run of at least InstancingThreshold
// consecutive shapes of one instanceable technique becomes instanced draws of
// at most MaxInstances each; everything else is drawn shape by shape.
func (r *Renderer) encode(pass gpu.RenderPass, cmds []RenderCommand) error {
	for i := 0; i < len(cmds); {
		t := cmds[i].Technique
		j := i + 1
		if t.Instanceable() {
			for j < len(cmds) && cmds[j].Technique == t {
				j++
			}
		}
		if t.Instanceable() && j-i >= r.cfg.InstancingThreshold {
			for k := i; k < j; k += r.cfg.MaxInstances {
				if err := r.drawBatch(pass, t, cmds[k:min(k+r.cfg.MaxInstances, j)]); err != nil {
					return err
				}
			}
		} else {
			for k := i; k < j; k++ {
				if err := r.drawShape(pass, &cmds[k]); err != nil {
					return err
				}
			}
		}
		i = j
	}
	return nil
}

// fail handles a frame-level error. A lost device drops every resource.
func (r *Renderer) fail(err error) error {
	if errors.Is(err, gpu.ErrDeviceLost) {
		r.HandleContextLost()
		if !r.notifier {
			// Nobody will announce a restore; retry next frame.
			r.lost = false
		}
	}
	return fmt.Errorf("canvas: render: %w", err)
}

// sweep releases batches not drawn this frame and per-shape resources unused
// for a while.
func (r *Renderer) sweep() {
	for id, b := range r.batches {
		if b.used != r.frame {
			b.destroy()
			delete(r.batches, id)
		}
	}
	for n, d := range r.draws {
		if r.frame-d.used > staleDrawFrames {
			d.destroy()
			delete(r.draws, n)
		}
	}
	for s, a := range r.atlases {
		if r.frame-a.used > staleDrawFrames {
			a.tex.Destroy()
			delete(r.atlases, s)
		}
	}
}

// Forget releases the per-shape resources held for n. The scene calls it
// when n leaves the tree.
func (r *Renderer) Forget(n *Node) {
	if d, ok := r.draws[n]; ok {
		d.destroy()
		delete(r.draws, n)
	}
}

// Destroy releases every GPU resource.
func (r *Renderer) Destroy() {
	for _, b := range r.batches {
		b.destroy()
	}
	for _, d := range r.draws {
		d.destroy()
	}
	for _, a := range r.atlases {
		a.tex.Destroy()
	}
	for _, e := range r.pipelines {
		if e.p != nil {
			e.p.Destroy()
		}
	}
	for _, b := range []gpu.Buffer{r.quadVB, r.quadIB, r.cameraUB} {
		if b != nil {
			b.Destroy()
		}
	}
	r.dropAll()
}

// dropAll forgets every handle without destroying it.
func (r *Renderer) dropAll() {
	clear(r.batches)
	clear(r.draws)
	clear(r.atlases)
	clear(r.pipelines)
	r.quadVB, r.quadIB, r.cameraUB = nil, nil, nil
	r.camSeen = 0
}

// HandleContextLost drops every GPU handle; they are invalid once the
// context is gone. Rendering pauses until HandleContextRestored.
func (r *Renderer) HandleContextLost() {
	if r.lost {
		return
	}
	Logger().Warn("canvas: GPU context lost")
	r.lost = true
	r.dropAll()
}

// HandleContextRestored resumes rendering. Resources are recreated lazily
// by the next Render.
func (r *Renderer) HandleContextRestored() {
	if !r.lost {
		return
	}
	Logger().Info("canvas: GPU context restored")
	r.lost = false
}

// --- Shared resources ---

var (
	quadCorners = []float32{-1, -1, 1, -1, 1, 1, -1, 1}
	quadIndices = []uint16{0, 1, 2, 0, 2, 3}
)

func (r *Renderer) createBuffer(label string, size uint64, usage gputypes.BufferUsage, data []byte) (gpu.Buffer, error) {
	b, err := r.dev.CreateBuffer(&gpu.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := b.Write(0, data); err != nil {
			b.Destroy()
			return nil, err
		}
		r.uploaded(len(data))
	}
	return b, nil
}

func (r *Renderer) uploaded(n int) {
	if r.stats != nil {
		r.stats.BytesUploaded += n
	}
}

func (r *Renderer) ensureShared() error {
	var err error
	if r.quadVB == nil {
		r.quadVB, err = r.createBuffer("canvas quad vertices", 32,
			gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst, gpu.Float32Bytes(nil, quadCorners...))
		if err != nil {
			return err
		}
	}
	if r.quadIB == nil {
		r.quadIB, err = r.createBuffer("canvas quad indices", 12,
			gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst, gpu.Uint16Bytes(nil, quadIndices...))
		if err != nil {
			return err
		}
	}
	if r.cameraUB == nil {
		r.cameraUB, err = r.createBuffer("canvas camera", cameraUniformSize,
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst, nil)
		if err != nil {
			return err
		}
		r.camSeen = 0
	}
	return nil
}

// uploadCamera writes the view-projection matrix and pixel parameters when
// the camera changed.
func (r *Renderer) uploadCamera(cam *Camera) error {
	if r.camSeen == cam.Version() {
		return nil
	}
	vp := cam.ViewProjection().Mat3()
	w, h := cam.Viewport()
	data := gpu.Float32Bytes(r.scratch[:0], vp[:]...)
	data = gpu.Float32Bytes(data, float32(cam.PixelSize()), float32(w), float32(h), float32(r.cfg.OpacityEpsilon))
	if err := r.cameraUB.Write(0, data); err != nil {
		return err
	}
	r.uploaded(len(data))
	r.camSeen = cam.Version()
	return nil
}

// --- Pipelines ---

var (
	quadLayout = gputypes.VertexBufferLayout{
		ArrayStride: 8,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
		},
	}
	instanceLayout = func() gputypes.VertexBufferLayout {
		l := gputypes.VertexBufferLayout{ArrayStride: instanceStride, StepMode: gputypes.VertexStepModeInstance}
		for i := range instanceStride / 16 {
			l.Attributes = append(l.Attributes, gputypes.VertexAttribute{
				Format:         gputypes.VertexFormatFloat32x4,
				Offset:         uint64(i * 16),
				ShaderLocation: uint32(i + 1),
			})
		}
		return l
	}()
	meshLayout = gputypes.VertexBufferLayout{
		ArrayStride: meshVertexSize,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1},
		},
	}
	textLayout = gputypes.VertexBufferLayout{
		ArrayStride: textVertexSize,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
		},
	}
)

// shapeSource returns the SDF shape program with the configured shadow
// sample count.
func (r *Renderer) shapeSource() string {
	src := shaderSource("shapes.wgsl")
	return strings.Replace(src, "const SHADOW_SAMPLES: i32 = 4;",
		fmt.Sprintf("const SHADOW_SAMPLES: i32 = %d;", r.cfg.ShadowSamples), 1)
}

// pipelineDescriptor describes the pipeline for a technique.
func (r *Renderer) pipelineDescriptor(t Technique, instanced bool) gpu.PipelineDescriptor {
	d := gpu.PipelineDescriptor{
		Label:         "canvas/" + t.String(),
		Technique:     t.String(),
		Instanced:     instanced,
		Topology:      gputypes.PrimitiveTopologyTriangleList,
		Blend:         gputypes.BlendStatePremultiplied(),
		Format:        gputypes.TextureFormatRGBA8Unorm,
		FragmentEntry: "fs_main",
		VertexEntry:   "vs_main",
		UniformBuffers: []gpu.UniformBinding{
			{Binding: 0, Size: cameraUniformSize},
		},
	}
	switch t {
	case TechniqueCircle, TechniqueEllipse, TechniqueRect:
		d.Source = r.shapeSource()
		d.FragmentEntry = "fs_" + t.String()
		if instanced {
			d.Label += "/instanced"
			d.VertexEntry = "vs_instanced"
			d.Buffers = []gputypes.VertexBufferLayout{quadLayout, instanceLayout}
		} else {
			d.VertexEntry = "vs_uniform"
			d.Buffers = []gputypes.VertexBufferLayout{quadLayout}
			d.UniformBuffers = append(d.UniformBuffers, gpu.UniformBinding{Binding: 1, Size: instanceStride})
		}
	case TechniqueMesh:
		d.Source = shaderSource("mesh.wgsl")
		d.Buffers = []gputypes.VertexBufferLayout{meshLayout}
		d.UniformBuffers = append(d.UniformBuffers, gpu.UniformBinding{Binding: 1, Size: modelUniformSize})
	case TechniqueText:
		d.Source = shaderSource("text.wgsl")
		d.Buffers = []gputypes.VertexBufferLayout{textLayout}
		d.UniformBuffers = append(d.UniformBuffers, gpu.UniformBinding{Binding: 1, Size: modelUniformSize})
		d.Textures = []uint32{2}
	}
	return d
}

// pipeline returns the cached pipeline for (t, instanced), building it on
// first use. A nil pipeline with a nil error means the pipeline is broken and
// the draw should be skipped; the failure was already reported.
func (r *Renderer) pipeline(t Technique, instanced bool) (gpu.Pipeline, error) {
	key := pipelineKey{t, instanced}
	if e, ok := r.pipelines[key]; ok {
		return e.p, nil
	}
	desc := r.pipelineDescriptor(t, instanced)
	spirv, ok := r.spirv[desc.Source]
	if !ok {
		var err error
		spirv, err = r.compiler.Compile(desc.Source)
		if err != nil {
			r.pipelines[key] = &pipelineEntry{failed: true}
			r.report(fmt.Errorf("canvas: %s shader: %w", t, err))
			return nil, nil
		}
		r.spirv[desc.Source] = spirv
	}
	desc.SPIRV = spirv
	p, err := r.dev.CreatePipeline(&desc)
	if err != nil {
		if errors.Is(err, gpu.ErrDeviceLost) {
			return nil, err
		}
		r.pipelines[key] = &pipelineEntry{failed: true}
		r.report(fmt.Errorf("canvas: %s pipeline: %w", desc.Label, err))
		return nil, nil
	}
	r.pipelines[key] = &pipelineEntry{p: p}
	return p, nil
}

// --- Per-shape draws ---

func (r *Renderer) drawFor(n *Node) *nodeDraw {
	d := r.draws[n]
	if d == nil {
		d = &nodeDraw{}
		r.draws[n] = d
	}
	d.used = r.frame
	return d
}

// drawShape draws one shape with its own uniform buffer.
func (r *Renderer) drawShape(pass gpu.RenderPass, cmd *RenderCommand) error {
	switch cmd.Technique {
	case TechniqueCircle, TechniqueEllipse, TechniqueRect:
		return r.drawSDF(pass, cmd)
	case TechniqueMesh:
		return r.drawMesh(pass, cmd)
	case TechniqueText:
		return r.drawText(pass, cmd)
	}
	return nil
}

// writeUniform creates d's uniform buffer on first use and rewrites it when
// the node's stamp moved.
func (r *Renderer) writeUniform(d *nodeDraw, n *Node, size uint64, pack func([]byte) []byte) error {
	if d.uniform == nil {
		b, err := r.createBuffer("canvas shape uniform", size,
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst, nil)
		if err != nil {
			return err
		}
		d.uniform = b
		d.uniformStamp = instanceStamp{}
	}
	if d.uniformStamp == stampOf(n) {
		return nil
	}
	r.scratch = pack(r.scratch[:0])
	if err := d.uniform.Write(0, r.scratch); err != nil {
		return err
	}
	r.uploaded(len(r.scratch))
	d.uniformStamp = stampOf(n)
	return nil
}

func (r *Renderer) drawSDF(pass gpu.RenderPass, cmd *RenderCommand) error {
	n := cmd.Node
	d := r.drawFor(n)
	err := r.writeUniform(d, n, instanceStride, func(b []byte) []byte { return packInstance(b, n) })
	if err != nil {
		return r.drawErr(n, err)
	}
	p, err := r.pipeline(cmd.Technique, false)
	if p == nil {
		return err
	}
	pass.SetPipeline(p)
	pass.SetUniformBuffer(0, r.cameraUB)
	pass.SetUniformBuffer(1, d.uniform)
	pass.SetVertexBuffer(0, r.quadVB)
	pass.SetIndexBuffer(r.quadIB, gputypes.IndexFormatUint16)
	pass.DrawIndexed(6, 1)
	r.countDraw()
	return nil
}

func (r *Renderer) countDraw() {
	if s := r.stats; s != nil {
		s.DrawCalls++
	}
}

// packModel appends the world matrix and a trailing vec4.
func packModel(dst []byte, world Affine, v [4]float32) []byte {
	m := world.Mat3()
	dst = gpu.Float32Bytes(dst, m[:]...)
	return gpu.Float32Bytes(dst, v[:]...)
}

// uploadGeometry writes vertex and index data, growing d's buffers as needed.
func (r *Renderer) uploadGeometry(d *nodeDraw, verts, indices []byte) error {
	var err error
	if d.vb == nil || d.vb.Size() < uint64(len(verts)) {
		if d.vb != nil {
			d.vb.Destroy()
			d.vb = nil
		}
		d.vb, err = r.createBuffer("canvas shape vertices", growSize(len(verts)),
			gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst, nil)
		if err != nil {
			return err
		}
	}
	if d.ib == nil || d.ib.Size() < uint64(len(indices)) {
		if d.ib != nil {
			d.ib.Destroy()
			d.ib = nil
		}
		d.ib, err = r.createBuffer("canvas shape indices", growSize(len(indices)),
			gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst, nil)
		if err != nil {
			return err
		}
	}
	if err := d.vb.Write(0, verts); err != nil {
		return err
	}
	if err := d.ib.Write(0, indices); err != nil {
		return err
	}
	r.uploaded(len(verts) + len(indices))
	return nil
}

// growSize rounds n up to a power of two, at least 256 bytes.
func growSize(n int) uint64 {
	s := uint64(256)
	for s < uint64(n) {
		s *= 2
	}
	return s
}

func (r *Renderer) drawMesh(pass gpu.RenderPass, cmd *RenderCommand) error {
	n := cmd.Node
	d := r.drawFor(n)
	a := &n.attrs
	key := meshKey{
		geom: n.geomVersion, extent: n.extentVersion,
		fill: a.Fill, stroke: a.Stroke,
		fillOpacity: a.FillOpacity, strokeOpacity: a.StrokeOpacity,
	}
	if d.meshKey != key || d.vb == nil {
		m := &r.mesh
		m.reset()
		m.tol = r.cfg.FlattenTolerance
		sps := n.subpaths()
		if !a.Fill.IsNone() {
			m.color = a.Fill.Premultiplied(a.FillOpacity)
			m.fill(sps)
		}
		if a.hasStroke() {
			m.color = a.Stroke.Premultiplied(a.StrokeOpacity)
			m.stroke(sps, strokeStyle{
				width: a.StrokeWidth, align: a.StrokeAlignment,
				cap: a.StrokeCap, join: a.StrokeJoin, miter: a.MiterLimit,
			})
		}
		d.indexCount = uint32(len(m.indices))
		if d.indexCount > 0 {
			verts := make([]float32, 0, len(m.verts)*6)
			for _, v := range m.verts {
				verts = append(verts, v.X, v.Y, v.R, v.G, v.B, v.A)
			}
			vb := gpu.Float32Bytes(nil, verts...)
			ib := gpu.Uint32Bytes(nil, m.indices...)
			if err := r.uploadGeometry(d, vb, ib); err != nil {
				d.meshKey = meshKey{}
				return r.drawErr(n, err)
			}
		}
		d.meshKey = key
	}
	if d.indexCount == 0 {
		return nil
	}
	err := r.writeUniform(d, n, modelUniformSize, func(b []byte) []byte {
		return packModel(b, n.tf.world, [4]float32{float32(n.worldOpacity)})
	})
	if err != nil {
		return r.drawErr(n, err)
	}
	p, err := r.pipeline(TechniqueMesh, false)
	if p == nil {
		return err
	}
	pass.SetPipeline(p)
	pass.SetUniformBuffer(0, r.cameraUB)
	pass.SetUniformBuffer(1, d.uniform)
	pass.SetVertexBuffer(0, d.vb)
	pass.SetIndexBuffer(d.ib, gputypes.IndexFormatUint32)
	pass.DrawIndexed(d.indexCount, 1)
	r.countDraw()
	return nil
}

// atlasFor returns the texture mirroring a supplier's atlas, uploading the
// pixels again when the supplier reports a new version.
func (r *Renderer) atlasFor(s GlyphSupplier) (*atlasTexture, error) {
	pixels, w, h, version := s.Atlas()
	if w <= 0 || h <= 0 {
		return nil, nil
	}
	a := r.atlases[s]
	if a != nil && (a.w != w || a.h != h) {
		a.tex.Destroy()
		a = nil
	}
	if a == nil {
		tex, err := r.dev.CreateTexture(&gpu.TextureDescriptor{
			Label:  "canvas glyph atlas",
			Width:  w,
			Height: h,
			Format: gputypes.TextureFormatRGBA8Unorm,
			Usage:  gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
		})
		if err != nil {
			return nil, err
		}
		a = &atlasTexture{tex: tex, w: w, h: h, version: version + 1}
		r.atlases[s] = a
	}
	a.used = r.frame
	if a.version != version {
		if err := a.tex.Write(pixels); err != nil {
			return nil, err
		}
		r.uploaded(len(pixels))
		a.version = version
	}
	return a, nil
}

func (r *Renderer) drawText(pass gpu.RenderPass, cmd *RenderCommand) error {
	n := cmd.Node
	g, ok := n.geom.(*TextGeometry)
	if !ok || g.Supplier == nil || n.attrs.Fill.IsNone() {
		return nil
	}
	layout := n.TextLayout()
	if layout == nil || len(layout.Glyphs) == 0 {
		return nil
	}
	atlas, err := r.atlasFor(g.Supplier)
	if err != nil {
		return r.drawErr(n, err)
	}
	if atlas == nil {
		return nil
	}
	d := r.drawFor(n)
	key := meshKey{geom: n.geomVersion}
	if d.meshKey != key || d.vb == nil {
		verts := make([]float32, 0, len(layout.Glyphs)*16)
		indices := make([]uint32, 0, len(layout.Glyphs)*6)
		for i, q := range layout.Glyphs {
			x0, y0 := float32(q.X), float32(q.Y)
			x1, y1 := float32(q.X+q.W), float32(q.Y+q.H)
			u0, v0, u1, v1 := float32(q.U0), float32(q.V0), float32(q.U1), float32(q.V1)
			verts = append(verts,
				x0, y0, u0, v0,
				x1, y0, u1, v0,
				x1, y1, u1, v1,
				x0, y1, u0, v1,
			)
			b := uint32(i * 4)
			indices = append(indices, b, b+1, b+2, b, b+2, b+3)
		}
		if err := r.uploadGeometry(d, gpu.Float32Bytes(nil, verts...), gpu.Uint32Bytes(nil, indices...)); err != nil {
			d.meshKey = meshKey{}
			return r.drawErr(n, err)
		}
		d.indexCount = uint32(len(indices))
		d.meshKey = key
	}
	a := &n.attrs
	err = r.writeUniform(d, n, modelUniformSize, func(b []byte) []byte {
		return packModel(b, n.tf.world, a.Fill.Premultiplied(a.FillOpacity*n.worldOpacity))
	})
	if err != nil {
		return r.drawErr(n, err)
	}
	p, err := r.pipeline(TechniqueText, false)
	if p == nil {
		return err
	}
	pass.SetPipeline(p)
	pass.SetUniformBuffer(0, r.cameraUB)
	pass.SetUniformBuffer(1, d.uniform)
	pass.SetTexture(2, atlas.tex)
	pass.SetVertexBuffer(0, d.vb)
	pass.SetIndexBuffer(d.ib, gputypes.IndexFormatUint32)
	pass.DrawIndexed(d.indexCount, 1)
	r.countDraw()
	return nil
}
