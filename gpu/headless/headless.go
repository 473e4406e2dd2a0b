// Package headless provides a gpu.Device that records every resource and
// command instead of drawing. It backs tests and the canvasbench tool, and can
// simulate context loss and allocation failure.
package headless

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/phanxgames/canvas/gpu"
)

// Device is a recording gpu.Device.
type Device struct {
	// FailAllocations makes every Create* call fail with gpu.ErrOutOfMemory.
	FailAllocations bool

	lost         bool
	generation   int
	nextID       int
	onLost       []func()
	onRestored   []func()
	buffers      []*Buffer
	textures     []*Texture
	pipelines    []*Pipeline
	submissions  [][]Command
	bytesWritten int
}

// New returns an empty recording device.
func New() *Device {
	return &Device{}
}

var (
	_ gpu.Device              = (*Device)(nil)
	_ gpu.ContextLossNotifier = (*Device)(nil)
)

func (d *Device) check() error {
	if d.lost {
		return gpu.ErrDeviceLost
	}
	if d.FailAllocations {
		return gpu.ErrOutOfMemory
	}
	return nil
}

// CreateBuffer implements gpu.Device.
func (d *Device) CreateBuffer(desc *gpu.BufferDescriptor) (gpu.Buffer, error) {
	if err := d.check(); err != nil {
		return nil, fmt.Errorf("headless: create buffer %q: %w", desc.Label, err)
	}
	d.nextID++
	b := &Buffer{
		dev:   d,
		id:    d.nextID,
		gen:   d.generation,
		label: desc.Label,
		usage: desc.Usage,
		data:  make([]byte, desc.Size),
	}
	d.buffers = append(d.buffers, b)
	return b, nil
}

// CreateTexture implements gpu.Device.
func (d *Device) CreateTexture(desc *gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := d.check(); err != nil {
		return nil, fmt.Errorf("headless: create texture %q: %w", desc.Label, err)
	}
	d.nextID++
	t := &Texture{
		dev:    d,
		id:     d.nextID,
		gen:    d.generation,
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
	}
	d.textures = append(d.textures, t)
	return t, nil
}

// CreatePipeline implements gpu.Device.
func (d *Device) CreatePipeline(desc *gpu.PipelineDescriptor) (gpu.Pipeline, error) {
	if err := d.check(); err != nil {
		return nil, fmt.Errorf("headless: create pipeline %q: %w", desc.Label, err)
	}
	d.nextID++
	p := &Pipeline{id: d.nextID, desc: *desc}
	d.pipelines = append(d.pipelines, p)
	return p, nil
}

// CreateRenderPass implements gpu.Device.
func (d *Device) CreateRenderPass(desc *gpu.RenderPassDescriptor) (gpu.RenderPass, error) {
	if d.lost {
		return nil, fmt.Errorf("headless: create render pass: %w", gpu.ErrDeviceLost)
	}
	return &RenderPass{label: desc.Label}, nil
}

// Submit implements gpu.Device. Each pass's commands are kept as one
// submission entry.
func (d *Device) Submit(passes ...gpu.RenderPass) error {
	if d.lost {
		return fmt.Errorf("headless: submit: %w", gpu.ErrDeviceLost)
	}
	var cmds []Command
	for _, p := range passes {
		rp, ok := p.(*RenderPass)
		if !ok {
			return fmt.Errorf("headless: submit: foreign render pass %T", p)
		}
		cmds = append(cmds, rp.cmds...)
	}
	d.submissions = append(d.submissions, cmds)
	return nil
}

// OnContextLost implements gpu.ContextLossNotifier.
func (d *Device) OnContextLost(fn func()) { d.onLost = append(d.onLost, fn) }

// OnContextRestored implements gpu.ContextLossNotifier.
func (d *Device) OnContextRestored(fn func()) { d.onRestored = append(d.onRestored, fn) }

// LoseContext simulates a context loss. Every resource created so far becomes
// invalid and every Create* call fails until RestoreContext.
func (d *Device) LoseContext() {
	if d.lost {
		return
	}
	d.lost = true
	d.generation++
	for _, fn := range d.onLost {
		fn()
	}
}

// RestoreContext simulates the context coming back.
func (d *Device) RestoreContext() {
	if !d.lost {
		return
	}
	d.lost = false
	for _, fn := range d.onRestored {
		fn()
	}
}

// Lost reports whether the context is currently lost.
func (d *Device) Lost() bool { return d.lost }

// Submissions returns the recorded submissions, oldest first.
func (d *Device) Submissions() [][]Command { return d.submissions }

// LastSubmission returns the commands of the most recent submission.
func (d *Device) LastSubmission() []Command {
	if len(d.submissions) == 0 {
		return nil
	}
	return d.submissions[len(d.submissions)-1]
}

// Draws returns the draw commands of the most recent submission.
func (d *Device) Draws() []Command {
	var out []Command
	for _, c := range d.LastSubmission() {
		if c.Op == OpDraw || c.Op == OpDrawIndexed {
			out = append(out, c)
		}
	}
	return out
}

// LiveBuffers returns buffers that have not been destroyed and belong to the
// current context generation.
func (d *Device) LiveBuffers() []*Buffer {
	var out []*Buffer
	for _, b := range d.buffers {
		if !b.destroyed && b.gen == d.generation {
			out = append(out, b)
		}
	}
	return out
}

// Textures returns every texture created on the device.
func (d *Device) Textures() []*Texture { return d.textures }

// Pipelines returns every pipeline created on the device.
func (d *Device) Pipelines() []*Pipeline { return d.pipelines }

// BytesWritten returns the total bytes written into buffers.
func (d *Device) BytesWritten() int { return d.bytesWritten }

// ResetStats clears the byte counter and recorded submissions.
func (d *Device) ResetStats() {
	d.bytesWritten = 0
	d.submissions = nil
}

// Buffer is a recorded buffer.
type Buffer struct {
	dev       *Device
	id        int
	gen       int
	label     string
	usage     gputypes.BufferUsage
	data      []byte
	writes    int
	destroyed bool
}

// Size implements gpu.Buffer.
func (b *Buffer) Size() uint64 { return uint64(len(b.data)) }

// Write implements gpu.Buffer.
func (b *Buffer) Write(offset uint64, data []byte) error {
	if b.destroyed {
		return fmt.Errorf("headless: write %q: %w", b.label, gpu.ErrDestroyed)
	}
	if b.gen != b.dev.generation || b.dev.lost {
		return fmt.Errorf("headless: write %q: %w", b.label, gpu.ErrDeviceLost)
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("headless: write %q: %d bytes at %d overflows size %d", b.label, len(data), offset, len(b.data))
	}
	copy(b.data[offset:], data)
	b.writes++
	b.dev.bytesWritten += len(data)
	return nil
}

// Destroy implements gpu.Buffer.
func (b *Buffer) Destroy() { b.destroyed = true }

// Label returns the buffer label.
func (b *Buffer) Label() string { return b.label }

// Usage returns the buffer usage flags.
func (b *Buffer) Usage() gputypes.BufferUsage { return b.usage }

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte { return b.data }

// Writes returns how many times the buffer was written.
func (b *Buffer) Writes() int { return b.writes }

// Destroyed reports whether Destroy was called.
func (b *Buffer) Destroyed() bool { return b.destroyed }

// Texture is a recorded texture.
type Texture struct {
	dev       *Device
	id        int
	gen       int
	label     string
	width     int
	height    int
	pixels    []byte
	destroyed bool
}

// Width implements gpu.Texture.
func (t *Texture) Width() int { return t.width }

// Height implements gpu.Texture.
func (t *Texture) Height() int { return t.height }

// Write implements gpu.Texture.
func (t *Texture) Write(pixels []byte) error {
	if t.destroyed {
		return fmt.Errorf("headless: write texture %q: %w", t.label, gpu.ErrDestroyed)
	}
	if t.gen != t.dev.generation || t.dev.lost {
		return fmt.Errorf("headless: write texture %q: %w", t.label, gpu.ErrDeviceLost)
	}
	t.pixels = append(t.pixels[:0], pixels...)
	return nil
}

// Destroy implements gpu.Texture.
func (t *Texture) Destroy() { t.destroyed = true }

// Label returns the texture label.
func (t *Texture) Label() string { return t.label }

// Pixels returns the last uploaded pixels.
func (t *Texture) Pixels() []byte { return t.pixels }

// Destroyed reports whether Destroy was called.
func (t *Texture) Destroyed() bool { return t.destroyed }

// Pipeline is a recorded pipeline.
type Pipeline struct {
	id        int
	desc      gpu.PipelineDescriptor
	destroyed bool
}

// Label implements gpu.Pipeline.
func (p *Pipeline) Label() string { return p.desc.Label }

// Destroy implements gpu.Pipeline.
func (p *Pipeline) Destroy() { p.destroyed = true }

// Descriptor returns the descriptor the pipeline was created with.
func (p *Pipeline) Descriptor() gpu.PipelineDescriptor { return p.desc }

// Op identifies a recorded command.
type Op uint8

// Recorded command kinds.
const (
	OpSetPipeline Op = iota
	OpSetVertexBuffer
	OpSetIndexBuffer
	OpSetUniformBuffer
	OpSetTexture
	OpDraw
	OpDrawIndexed
)

// Command is one recorded render pass command. For draws, Pipeline and the
// bound resources reflect the state at the time of the draw.
type Command struct {
	Op            Op
	Pipeline      *Pipeline
	Slot          uint32
	Buffer        *Buffer
	Texture       *Texture
	Count         uint32
	InstanceCount uint32
	Vertex        map[uint32]*Buffer
	Uniforms      map[uint32]*Buffer
	Textures      map[uint32]*Texture
}

// RenderPass records commands.
type RenderPass struct {
	label    string
	pipeline *Pipeline
	vertex   map[uint32]*Buffer
	uniforms map[uint32]*Buffer
	textures map[uint32]*Texture
	cmds     []Command
	ended    bool
}

func asBuffer(b gpu.Buffer) *Buffer {
	hb, _ := b.(*Buffer)
	return hb
}

// SetPipeline implements gpu.RenderPass.
func (p *RenderPass) SetPipeline(pl gpu.Pipeline) {
	p.pipeline, _ = pl.(*Pipeline)
	p.cmds = append(p.cmds, Command{Op: OpSetPipeline, Pipeline: p.pipeline})
}

// SetVertexBuffer implements gpu.RenderPass.
func (p *RenderPass) SetVertexBuffer(slot uint32, b gpu.Buffer) {
	if p.vertex == nil {
		p.vertex = make(map[uint32]*Buffer)
	}
	p.vertex[slot] = asBuffer(b)
	p.cmds = append(p.cmds, Command{Op: OpSetVertexBuffer, Slot: slot, Buffer: asBuffer(b)})
}

// SetIndexBuffer implements gpu.RenderPass.
func (p *RenderPass) SetIndexBuffer(b gpu.Buffer, _ gputypes.IndexFormat) {
	p.cmds = append(p.cmds, Command{Op: OpSetIndexBuffer, Buffer: asBuffer(b)})
}

// SetUniformBuffer implements gpu.RenderPass.
func (p *RenderPass) SetUniformBuffer(binding uint32, b gpu.Buffer) {
	if p.uniforms == nil {
		p.uniforms = make(map[uint32]*Buffer)
	}
	p.uniforms[binding] = asBuffer(b)
	p.cmds = append(p.cmds, Command{Op: OpSetUniformBuffer, Slot: binding, Buffer: asBuffer(b)})
}

// SetTexture implements gpu.RenderPass.
func (p *RenderPass) SetTexture(binding uint32, t gpu.Texture) {
	ht, _ := t.(*Texture)
	if p.textures == nil {
		p.textures = make(map[uint32]*Texture)
	}
	p.textures[binding] = ht
	p.cmds = append(p.cmds, Command{Op: OpSetTexture, Slot: binding, Texture: ht})
}

// Draw implements gpu.RenderPass.
func (p *RenderPass) Draw(vertexCount, instanceCount uint32) {
	p.cmds = append(p.cmds, p.drawCommand(OpDraw, vertexCount, instanceCount))
}

// DrawIndexed implements gpu.RenderPass.
func (p *RenderPass) DrawIndexed(indexCount, instanceCount uint32) {
	p.cmds = append(p.cmds, p.drawCommand(OpDrawIndexed, indexCount, instanceCount))
}

func (p *RenderPass) drawCommand(op Op, count, instances uint32) Command {
	c := Command{
		Op:            op,
		Pipeline:      p.pipeline,
		Count:         count,
		InstanceCount: instances,
		Vertex:        make(map[uint32]*Buffer, len(p.vertex)),
		Uniforms:      make(map[uint32]*Buffer, len(p.uniforms)),
		Textures:      make(map[uint32]*Texture, len(p.textures)),
	}
	for k, v := range p.vertex {
		c.Vertex[k] = v
	}
	for k, v := range p.uniforms {
		c.Uniforms[k] = v
	}
	for k, v := range p.textures {
		c.Textures[k] = v
	}
	return c
}

// End implements gpu.RenderPass.
func (p *RenderPass) End() { p.ended = true }
