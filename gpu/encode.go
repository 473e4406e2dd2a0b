package gpu

import (
	"encoding/binary"
	"math"
)

// Float32Bytes packs float32 values little-endian into dst, growing it as
// needed, and returns the extended slice.
func Float32Bytes(dst []byte, vals ...float32) []byte {
	for _, v := range vals {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// Uint32Bytes packs uint32 values little-endian into dst.
func Uint32Bytes(dst []byte, vals ...uint32) []byte {
	for _, v := range vals {
		dst = binary.LittleEndian.AppendUint32(dst, v)
	}
	return dst
}

// Uint16Bytes packs uint16 values little-endian into dst.
func Uint16Bytes(dst []byte, vals ...uint16) []byte {
	for _, v := range vals {
		dst = binary.LittleEndian.AppendUint16(dst, v)
	}
	return dst
}

// ReadFloat32s decodes little-endian float32 values from src.
func ReadFloat32s(src []byte) []float32 {
	out := make([]float32, len(src)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return out
}
