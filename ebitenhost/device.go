// Package ebitenhost runs a canvas scene inside an [Ebitengine] window. It
// provides a gpu.Device that replays recorded passes with Kage shaders,
// samples mouse, wheel and touch input into canvas.PointerSample values,
// and drives the frame loop.
//
// [Ebitengine]: https://ebitengine.org
package ebitenhost

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"

	"github.com/charmbracelet/log"
	"github.com/gogpu/gputypes"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canvas"
	"github.com/phanxgames/canvas/gpu"
)

var (
	//go:embed shaders/shape.kage
	shapeKage []byte
	//go:embed shaders/mesh.kage
	meshKage []byte
	//go:embed shaders/text.kage
	textKage []byte
)

// errNoTarget is returned by Submit before SetTarget was called.
var errNoTarget = errors.New("ebitenhost: no render target")

// Options configures a Device.
type Options struct {
	// Logger receives shader compile failures. Defaults to canvas.Logger().
	Logger *log.Logger
}

// Device is a gpu.Device drawing onto an ebiten.Image. Buffers live in host
// memory; textures are ebiten images. Each technique maps to a Kage shader,
// so the WGSL program and SPIR-V in pipeline descriptors are ignored.
type Device struct {
	log     *log.Logger
	target  *ebiten.Image
	shaders map[string]*ebiten.Shader

	verts   []ebiten.Vertex
	indices []uint16
	remap   map[uint32]uint16
	floats  []float32
}

var _ gpu.Device = (*Device)(nil)

// NewDevice returns a device with no target.
func NewDevice(opts Options) *Device {
	l := opts.Logger
	if l == nil {
		l = canvas.Logger()
	}
	return &Device{
		log:     l,
		shaders: make(map[string]*ebiten.Shader),
		remap:   make(map[uint32]uint16),
	}
}

// SetTarget sets the image submitted passes draw onto, normally the screen
// passed to ebiten.Game.Draw.
func (d *Device) SetTarget(img *ebiten.Image) { d.target = img }

// CreateBuffer implements gpu.Device.
func (d *Device) CreateBuffer(desc *gpu.BufferDescriptor) (gpu.Buffer, error) {
	return &Buffer{data: make([]byte, desc.Size)}, nil
}

// CreateTexture implements gpu.Device. Only RGBA8 textures are supported.
func (d *Device) CreateTexture(desc *gpu.TextureDescriptor) (gpu.Texture, error) {
	if desc.Format != gputypes.TextureFormatRGBA8Unorm {
		return nil, fmt.Errorf("ebitenhost: texture %q: unsupported format %v", desc.Label, desc.Format)
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("ebitenhost: texture %q: invalid size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	return &Texture{img: ebiten.NewImage(desc.Width, desc.Height), w: desc.Width, h: desc.Height}, nil
}

// CreatePipeline implements gpu.Device.
func (d *Device) CreatePipeline(desc *gpu.PipelineDescriptor) (gpu.Pipeline, error) {
	var kind pipelineKind
	var src []byte
	switch desc.Technique {
	case "circle":
		kind, src = kindCircle, shapeKage
	case "ellipse":
		kind, src = kindEllipse, shapeKage
	case "rect":
		kind, src = kindRect, shapeKage
	case "mesh":
		kind, src = kindMesh, meshKage
	case "text":
		kind, src = kindText, textKage
	default:
		return nil, fmt.Errorf("ebitenhost: pipeline %q: unknown technique %q", desc.Label, desc.Technique)
	}
	sh, err := d.shader(string(src))
	if err != nil {
		d.log.Warn("ebitenhost: shader compile failed", "pipeline", desc.Label, "err", err)
		return nil, fmt.Errorf("ebitenhost: pipeline %q: %w", desc.Label, err)
	}
	return &Pipeline{desc: *desc, kind: kind, shader: sh}, nil
}

func (d *Device) shader(src string) (*ebiten.Shader, error) {
	if sh, ok := d.shaders[src]; ok {
		return sh, nil
	}
	sh, err := ebiten.NewShader([]byte(src))
	if err != nil {
		return nil, err
	}
	d.shaders[src] = sh
	return sh, nil
}

// CreateRenderPass implements gpu.Device.
func (d *Device) CreateRenderPass(desc *gpu.RenderPassDescriptor) (gpu.RenderPass, error) {
	return &RenderPass{desc: *desc}, nil
}

// Submit implements gpu.Device by replaying every pass onto the target.
func (d *Device) Submit(passes ...gpu.RenderPass) error {
	if d.target == nil {
		return errNoTarget
	}
	for _, p := range passes {
		rp, ok := p.(*RenderPass)
		if !ok {
			return fmt.Errorf("ebitenhost: foreign render pass %T", p)
		}
		if rp.desc.Load == gputypes.LoadOpClear {
			c := rp.desc.ClearColor
			d.target.Fill(color.NRGBA{
				R: unit8(c.R), G: unit8(c.G), B: unit8(c.B), A: unit8(c.A),
			})
		}
		for i := range rp.draws {
			d.replay(&rp.draws[i])
		}
	}
	return nil
}

func unit8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// --- Resources ---

// Buffer is a host-memory gpu.Buffer.
type Buffer struct {
	data      []byte
	destroyed bool
}

// Size implements gpu.Buffer.
func (b *Buffer) Size() uint64 { return uint64(len(b.data)) }

// Write implements gpu.Buffer.
func (b *Buffer) Write(offset uint64, data []byte) error {
	if b.destroyed {
		return gpu.ErrDestroyed
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("ebitenhost: write of %d bytes at %d overflows buffer of %d", len(data), offset, len(b.data))
	}
	copy(b.data[offset:], data)
	return nil
}

// Destroy implements gpu.Buffer.
func (b *Buffer) Destroy() {
	b.destroyed = true
	b.data = nil
}

// Texture is an ebiten.Image-backed gpu.Texture.
type Texture struct {
	img  *ebiten.Image
	w, h int
}

// Width implements gpu.Texture.
func (t *Texture) Width() int { return t.w }

// Height implements gpu.Texture.
func (t *Texture) Height() int { return t.h }

// Write implements gpu.Texture.
func (t *Texture) Write(pixels []byte) error {
	if t.img == nil {
		return gpu.ErrDestroyed
	}
	if len(pixels) != t.w*t.h*4 {
		return fmt.Errorf("ebitenhost: texture write of %d bytes, want %d", len(pixels), t.w*t.h*4)
	}
	t.img.WritePixels(pixels)
	return nil
}

// Destroy implements gpu.Texture.
func (t *Texture) Destroy() {
	if t.img != nil {
		t.img.Deallocate()
		t.img = nil
	}
}

type pipelineKind uint8

const (
	kindCircle pipelineKind = iota
	kindEllipse
	kindRect
	kindMesh
	kindText
)

// Pipeline pairs a descriptor with the Kage shader drawing its technique.
type Pipeline struct {
	desc   gpu.PipelineDescriptor
	kind   pipelineKind
	shader *ebiten.Shader
}

// Label implements gpu.Pipeline.
func (p *Pipeline) Label() string { return p.desc.Label }

// Destroy implements gpu.Pipeline. Shaders are shared and stay cached on the
// device.
func (p *Pipeline) Destroy() {}

// --- Render passes ---

// drawCall is the bound state at the time of one draw.
type drawCall struct {
	pipeline  *Pipeline
	vertex    [2]*Buffer
	index     *Buffer
	format    gputypes.IndexFormat
	uniforms  [2]*Buffer
	texture   *Texture
	count     uint32
	instances uint32
	indexed   bool
}

// RenderPass records draws for replay on Submit.
type RenderPass struct {
	desc  gpu.RenderPassDescriptor
	state drawCall
	draws []drawCall
	ended bool
}

// SetPipeline implements gpu.RenderPass.
func (p *RenderPass) SetPipeline(pl gpu.Pipeline) {
	p.state.pipeline, _ = pl.(*Pipeline)
}

// SetVertexBuffer implements gpu.RenderPass.
func (p *RenderPass) SetVertexBuffer(slot uint32, b gpu.Buffer) {
	if int(slot) < len(p.state.vertex) {
		p.state.vertex[slot], _ = b.(*Buffer)
	}
}

// SetIndexBuffer implements gpu.RenderPass.
func (p *RenderPass) SetIndexBuffer(b gpu.Buffer, format gputypes.IndexFormat) {
	p.state.index, _ = b.(*Buffer)
	p.state.format = format
}

// SetUniformBuffer implements gpu.RenderPass.
func (p *RenderPass) SetUniformBuffer(binding uint32, b gpu.Buffer) {
	if int(binding) < len(p.state.uniforms) {
		p.state.uniforms[binding], _ = b.(*Buffer)
	}
}

// SetTexture implements gpu.RenderPass.
func (p *RenderPass) SetTexture(_ uint32, t gpu.Texture) {
	p.state.texture, _ = t.(*Texture)
}

// Draw implements gpu.RenderPass.
func (p *RenderPass) Draw(vertexCount, instanceCount uint32) {
	c := p.state
	c.count, c.instances, c.indexed = vertexCount, instanceCount, false
	p.draws = append(p.draws, c)
}

// DrawIndexed implements gpu.RenderPass.
func (p *RenderPass) DrawIndexed(indexCount, instanceCount uint32) {
	c := p.state
	c.count, c.instances, c.indexed = indexCount, instanceCount, true
	p.draws = append(p.draws, c)
}

// End implements gpu.RenderPass.
func (p *RenderPass) End() { p.ended = true }
