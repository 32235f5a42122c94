package cluster

import (
	"encoding/binary"
	gomath "math"
	"unsafe"

	"github.com/Faultbox/midgard-clusters/internal/engine/lighting"
)

// Sizes of the published GPU records in bytes.
const (
	GPUClusterUniformsSize = 32
	GPURangeSize           = 8  // uvec2 start, count
	GPUIndexSize           = 4  // uint index
	GPUPointLightSize      = 32 // vec4 position+range, vec4 color+pad
)

// GPUClusterUniforms is what the shading stage needs to map a fragment to a
// cluster. Size: 32 bytes.
//
// Layout:
//
//	u32 dim_x        (offset  0)
//	u32 dim_y        (offset  4)
//	u32 dim_z        (offset  8)
//	u32 light_count  (offset 12)
//	f32 cell_width   (offset 16)
//	f32 cell_height  (offset 20)
//	f32 cell_depth   (offset 24)
//	f32 far          (offset 28)
type GPUClusterUniforms struct {
	DimX       uint32
	DimY       uint32
	DimZ       uint32
	LightCount uint32
	CellWidth  float32
	CellHeight float32
	CellDepth  float32
	Far        float32
}

// Size returns the struct size in bytes (32).
func (u *GPUClusterUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the uniforms little-endian.
func (u *GPUClusterUniforms) Marshal() []byte {
	buf := make([]byte, 0, GPUClusterUniformsSize)
	buf = binary.LittleEndian.AppendUint32(buf, u.DimX)
	buf = binary.LittleEndian.AppendUint32(buf, u.DimY)
	buf = binary.LittleEndian.AppendUint32(buf, u.DimZ)
	buf = binary.LittleEndian.AppendUint32(buf, u.LightCount)
	buf = appendFloat32(buf, u.CellWidth)
	buf = appendFloat32(buf, u.CellHeight)
	buf = appendFloat32(buf, u.CellDepth)
	buf = appendFloat32(buf, u.Far)
	return buf
}

// NewGPUClusterUniforms builds the uniforms for a grid and light count.
func NewGPUClusterUniforms(g Grid, lightCount int) GPUClusterUniforms {
	return GPUClusterUniforms{
		DimX:       uint32(g.DimX),
		DimY:       uint32(g.DimY),
		DimZ:       uint32(g.DimZ),
		LightCount: uint32(lightCount),
		CellWidth:  g.CellWidth,
		CellHeight: g.CellHeight,
		CellDepth:  g.CellDepth,
		Far:        g.Far,
	}
}

// MarshalRanges appends ranges to dst[:0] as uvec2 pairs.
func MarshalRanges(dst []byte, ranges []LightIndexRange) []byte {
	dst = dst[:0]
	for _, r := range ranges {
		dst = binary.LittleEndian.AppendUint32(dst, r.Start)
		dst = binary.LittleEndian.AppendUint32(dst, r.Count)
	}
	return dst
}

// MarshalIndices appends indices to dst[:0].
func MarshalIndices(dst []byte, indices []uint32) []byte {
	dst = dst[:0]
	for _, i := range indices {
		dst = binary.LittleEndian.AppendUint32(dst, i)
	}
	return dst
}

// MarshalLights appends the snapshot to dst[:0], two vec4 per light:
// (x, y, z, range) then (r, g, b, 0).
func MarshalLights(dst []byte, lights []lighting.PointLight) []byte {
	dst = dst[:0]
	for i := range lights {
		l := &lights[i]
		dst = appendFloat32(dst, l.Position.X)
		dst = appendFloat32(dst, l.Position.Y)
		dst = appendFloat32(dst, l.Position.Z)
		dst = appendFloat32(dst, l.Range)
		dst = appendFloat32(dst, l.Color.X)
		dst = appendFloat32(dst, l.Color.Y)
		dst = appendFloat32(dst, l.Color.Z)
		dst = appendFloat32(dst, 0)
	}
	return dst
}

func appendFloat32(dst []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, gomath.Float32bits(f))
}
