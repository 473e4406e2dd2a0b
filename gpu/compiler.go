package gpu

import (
	"fmt"

	"github.com/gogpu/naga"
)

// ShaderCompiler turns WGSL source into a backend binary (SPIR-V bytes for
// naga). Backends that consume WGSL directly can use NopCompiler.
type ShaderCompiler interface {
	Compile(wgsl string) ([]byte, error)
}

// NagaCompiler compiles WGSL to SPIR-V with the pure-Go naga compiler.
type NagaCompiler struct{}

// Compile implements ShaderCompiler.
func (NagaCompiler) Compile(wgsl string) ([]byte, error) {
	spirv, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile shader: %w", err)
	}
	return spirv, nil
}

// NopCompiler skips compilation and returns no binary.
type NopCompiler struct{}

// Compile implements ShaderCompiler.
func (NopCompiler) Compile(string) ([]byte, error) { return nil, nil }

// SPIRVWords converts little-endian SPIR-V bytes to 32-bit words.
func SPIRVWords(spirv []byte) []uint32 {
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}
	return words
}
