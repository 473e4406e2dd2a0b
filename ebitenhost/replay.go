package ebitenhost

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/hajimehoshi/ebiten/v2"
)

// shapeFloats is the length of one packed shape record in float32s.
const shapeFloats = 40

// camera is the decoded camera uniform.
type camera struct {
	vp      [12]float32 // column-major mat3, columns padded to vec4
	pixel   float32
	w, h    float32
	epsilon float32
}

// toPixels maps a canvas point to target pixels.
func (c *camera) toPixels(x, y float32) (float32, float32) {
	cx := c.vp[0]*x + c.vp[4]*y + c.vp[8]
	cy := c.vp[1]*x + c.vp[5]*y + c.vp[9]
	return (cx + 1) * 0.5 * c.w, (1 - cy) * 0.5 * c.h
}

// floatsOf decodes little-endian float32s from b, reusing dst.
func floatsOf(dst []float32, b []byte) []float32 {
	dst = dst[:0]
	for i := 0; i+4 <= len(b); i += 4 {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(b[i:])))
	}
	return dst
}

func (d *Device) camera(dc *drawCall) (camera, bool) {
	var c camera
	ub := dc.uniforms[0]
	if ub == nil || len(ub.data) < 64 {
		return c, false
	}
	f := floatsOf(d.floats, ub.data[:64])
	d.floats = f
	copy(c.vp[:], f[:12])
	c.pixel, c.w, c.h, c.epsilon = f[12], f[13], f[14], f[15]
	return c, true
}

func (d *Device) replay(dc *drawCall) {
	if dc.pipeline == nil {
		return
	}
	cam, ok := d.camera(dc)
	if !ok {
		return
	}
	switch dc.pipeline.kind {
	case kindCircle, kindEllipse, kindRect:
		d.replayShapes(dc, &cam)
	case kindMesh:
		d.replayMesh(dc, &cam)
	case kindText:
		d.replayText(dc, &cam)
	}
}

// --- SDF shapes ---

func (d *Device) replayShapes(dc *drawCall, cam *camera) {
	var src []byte
	count := 1
	if dc.pipeline.desc.Instanced {
		if dc.vertex[1] == nil {
			return
		}
		src = dc.vertex[1].data
		count = int(dc.instances)
	} else {
		if dc.uniforms[1] == nil {
			return
		}
		src = dc.uniforms[1].data
	}
	rec := make([]float32, 0, shapeFloats)
	for i := range count {
		lo := i * shapeFloats * 4
		hi := lo + shapeFloats*4
		if hi > len(src) {
			return
		}
		rec = floatsOf(rec, src[lo:hi])
		d.drawShape(dc.pipeline, rec, cam)
	}
}

func outerExtent(width, align float32) float32 {
	switch {
	case align > 1.5:
		return width
	case align > 0.5:
		return 0
	}
	return width / 2
}

// drawShape draws one shape record as a padded quad in local space.
func (d *Device) drawShape(p *Pipeline, rec []float32, cam *camera) {
	a, b, c, dd := rec[0], rec[1], rec[2], rec[3]
	tx, ty := rec[4], rec[5]
	geom := rec[8:12]
	style := rec[12:16]
	pad := outerExtent(style[1], style[2]) + rec[31] + 2*cam.pixel

	d.verts = d.verts[:0]
	for _, corner := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
		lx := corner[0] * (geom[2] + pad)
		ly := corner[1] * (geom[3] + pad)
		px, py := geom[0]+lx, geom[1]+ly
		wx := a*px + c*py + tx
		wy := b*px + dd*py + ty
		sx, sy := cam.toPixels(wx, wy)
		d.verts = append(d.verts, ebiten.Vertex{DstX: sx, DstY: sy, SrcX: lx, SrcY: ly})
	}
	d.indices = append(d.indices[:0], 0, 1, 2, 0, 2, 3)

	op := &ebiten.DrawTrianglesShaderOptions{
		Uniforms: map[string]any{
			"Kind":        float32(p.kind - kindCircle),
			"Geom":        geom,
			"Style":       style,
			"Fill":        rec[16:20],
			"Stroke":      rec[20:24],
			"DropColor":   rec[24:28],
			"DropParams":  rec[28:32],
			"InnerColor":  rec[32:36],
			"InnerParams": rec[36:40],
			"Epsilon":     cam.epsilon,
		},
	}
	d.target.DrawTrianglesShader(d.verts, d.indices, p.shader, op)
}

// --- Meshes and text ---

// model decodes a model uniform: world matrix and one vec4.
func (d *Device) model(dc *drawCall) (world [12]float32, v [4]float32, ok bool) {
	ub := dc.uniforms[1]
	if ub == nil || len(ub.data) < 64 {
		return world, v, false
	}
	f := floatsOf(d.floats, ub.data[:64])
	d.floats = f
	copy(world[:], f[:12])
	copy(v[:], f[12:16])
	return world, v, true
}

func applyMat3(m *[12]float32, x, y float32) (float32, float32) {
	return m[0]*x + m[4]*y + m[8], m[1]*x + m[5]*y + m[9]
}

func (d *Device) indexList(dc *drawCall) []uint32 {
	if dc.index == nil {
		return nil
	}
	data := dc.index.data
	n := int(dc.count)
	out := make([]uint32, 0, n)
	if dc.format == gputypes.IndexFormatUint16 {
		for i := 0; i < n && 2*i+2 <= len(data); i++ {
			out = append(out, uint32(binary.LittleEndian.Uint16(data[2*i:])))
		}
		return out
	}
	for i := 0; i < n && 4*i+4 <= len(data); i++ {
		out = append(out, binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out
}

func (d *Device) replayMesh(dc *drawCall, cam *camera) {
	world, params, ok := d.model(dc)
	if !ok || dc.vertex[0] == nil {
		return
	}
	f := floatsOf(nil, dc.vertex[0].data)
	all := make([]ebiten.Vertex, 0, len(f)/6)
	for i := 0; i+6 <= len(f); i += 6 {
		wx, wy := applyMat3(&world, f[i], f[i+1])
		sx, sy := cam.toPixels(wx, wy)
		all = append(all, ebiten.Vertex{
			DstX: sx, DstY: sy,
			ColorR: f[i+2], ColorG: f[i+3], ColorB: f[i+4], ColorA: f[i+5],
		})
	}
	op := &ebiten.DrawTrianglesShaderOptions{
		Uniforms: map[string]any{"Opacity": params[0], "Epsilon": cam.epsilon},
	}
	d.drawChunked(all, d.indexList(dc), func(v []ebiten.Vertex, idx []uint16) {
		d.target.DrawTrianglesShader(v, idx, dc.pipeline.shader, op)
	})
}

func (d *Device) replayText(dc *drawCall, cam *camera) {
	world, col, ok := d.model(dc)
	if !ok || dc.vertex[0] == nil || dc.texture == nil || dc.texture.img == nil {
		return
	}
	tw, th := float32(dc.texture.w), float32(dc.texture.h)
	f := floatsOf(nil, dc.vertex[0].data)
	all := make([]ebiten.Vertex, 0, len(f)/4)
	for i := 0; i+4 <= len(f); i += 4 {
		wx, wy := applyMat3(&world, f[i], f[i+1])
		sx, sy := cam.toPixels(wx, wy)
		all = append(all, ebiten.Vertex{DstX: sx, DstY: sy, SrcX: f[i+2] * tw, SrcY: f[i+3] * th})
	}
	op := &ebiten.DrawTrianglesShaderOptions{
		Uniforms: map[string]any{"Color": col[:], "Epsilon": cam.epsilon},
	}
	op.Images[0] = dc.texture.img
	d.drawChunked(all, d.indexList(dc), func(v []ebiten.Vertex, idx []uint16) {
		d.target.DrawTrianglesShader(v, idx, dc.pipeline.shader, op)
	})
}

// maxChunkVerts is the most vertices one ebiten draw can address.
const maxChunkVerts = math.MaxUint16

// drawChunked issues triangles with 32-bit indices as draws with 16-bit
// indices, splitting and re-indexing when the vertex count overflows.
func (d *Device) drawChunked(all []ebiten.Vertex, idx []uint32, draw func([]ebiten.Vertex, []uint16)) {
	if len(idx) < 3 {
		return
	}
	if len(all) <= maxChunkVerts {
		d.indices = d.indices[:0]
		for _, i := range idx {
			if int(i) >= len(all) {
				return
			}
			d.indices = append(d.indices, uint16(i))
		}
		draw(all, d.indices)
		return
	}
	clear(d.remap)
	d.verts, d.indices = d.verts[:0], d.indices[:0]
	flush := func() {
		if len(d.indices) > 0 {
			draw(d.verts, d.indices)
		}
		clear(d.remap)
		d.verts, d.indices = d.verts[:0], d.indices[:0]
	}
	for t := 0; t+3 <= len(idx); t += 3 {
		if len(d.verts)+3 > maxChunkVerts {
			flush()
		}
		for _, i := range idx[t : t+3] {
			if int(i) >= len(all) {
				return
			}
			j, ok := d.remap[i]
			if !ok {
				j = uint16(len(d.verts))
				d.remap[i] = j
				d.verts = append(d.verts, all[i])
			}
			d.indices = append(d.indices, j)
		}
	}
	flush()
}
