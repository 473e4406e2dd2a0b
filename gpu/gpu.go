// Package gpu defines the device abstraction the canvas renderer draws
// through. The renderer never touches a platform window directly: it asks a
// Device for buffers, textures, pipelines and render passes, and submits the
// recorded passes once per frame.
//
// Descriptor enums (buffer usage, vertex formats, step modes, topology,
// blending) come from [gputypes] so that WebGPU-style backends can pass them
// through unchanged.
//
// [gputypes]: https://github.com/gogpu/gputypes
package gpu

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Errors reported by devices. Backends wrap these so callers can test with
// errors.Is.
var (
	// ErrDeviceLost is returned when the underlying context has been lost.
	// All resources created before the loss are invalid.
	ErrDeviceLost = errors.New("gpu: device lost")

	// ErrOutOfMemory is returned when a resource allocation fails.
	ErrOutOfMemory = errors.New("gpu: out of memory")

	// ErrDestroyed is returned when writing to a destroyed resource.
	ErrDestroyed = errors.New("gpu: resource destroyed")
)

// Device creates GPU resources and submits recorded work.
type Device interface {
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)
	CreateTexture(desc *TextureDescriptor) (Texture, error)
	CreatePipeline(desc *PipelineDescriptor) (Pipeline, error)
	CreateRenderPass(desc *RenderPassDescriptor) (RenderPass, error)
	Submit(passes ...RenderPass) error
}

// ContextLossNotifier is implemented by devices that can lose their context
// (e.g. a browser tab losing its WebGL/WebGPU context). The renderer registers
// callbacks and rebuilds its resources after a restore.
type ContextLossNotifier interface {
	OnContextLost(fn func())
	OnContextRestored(fn func())
}

// Buffer is a linear GPU allocation.
type Buffer interface {
	Size() uint64
	Write(offset uint64, data []byte) error
	Destroy()
}

// Texture is a 2D GPU image.
type Texture interface {
	Width() int
	Height() int
	// Write replaces the full texture contents with tightly packed pixels in
	// the texture's format.
	Write(pixels []byte) error
	Destroy()
}

// Pipeline is a compiled render pipeline.
type Pipeline interface {
	Label() string
	Destroy()
}

// RenderPass records draw commands. Commands are executed on Submit.
type RenderPass interface {
	SetPipeline(p Pipeline)
	SetVertexBuffer(slot uint32, b Buffer)
	SetIndexBuffer(b Buffer, format gputypes.IndexFormat)
	SetUniformBuffer(binding uint32, b Buffer)
	SetTexture(binding uint32, t Texture)
	Draw(vertexCount, instanceCount uint32)
	DrawIndexed(indexCount, instanceCount uint32)
	End()
}

// BufferDescriptor describes a buffer allocation.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// TextureDescriptor describes a texture allocation.
type TextureDescriptor struct {
	Label  string
	Width  int
	Height int
	Format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
}

// PipelineDescriptor describes a render pipeline.
//
// Source holds the WGSL program; SPIRV holds its compiled form when a
// ShaderCompiler was available. Technique names the shape technique the
// pipeline draws so that backends without a WGSL toolchain can substitute
// their own shader for it.
type PipelineDescriptor struct {
	Label          string
	Technique      string
	Instanced      bool
	Source         string
	SPIRV          []byte
	VertexEntry    string
	FragmentEntry  string
	Buffers        []gputypes.VertexBufferLayout
	Topology       gputypes.PrimitiveTopology
	Blend          gputypes.BlendState
	Format         gputypes.TextureFormat
	UniformBuffers []UniformBinding
	Textures       []uint32
}

// UniformBinding declares a uniform buffer slot used by a pipeline.
type UniformBinding struct {
	Binding uint32
	Size    uint64
}

// RenderPassDescriptor describes a render pass targeting the surface.
type RenderPassDescriptor struct {
	Label      string
	ClearColor gputypes.Color
	Load       gputypes.LoadOp
}
