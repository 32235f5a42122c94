// Package clusterbuf uploads published culling frames to OpenGL.
//
// Ranges, indices and lights live in buffer textures so a GL 4.1 fragment
// shader can texelFetch them; the grid uniforms live in a std140 uniform
// block:
//
//	layout(std140) uniform ClusterUniforms {
//	    uint  dimX, dimY, dimZ, lightCount;
//	    float cellWidth, cellHeight, cellDepth, far;
//	};
//	uniform usamplerBuffer u_ranges;  // RG32UI  (start, count)
//	uniform usamplerBuffer u_indices; // R32UI   light index
//	uniform samplerBuffer  u_lights;  // RGBA32F pos+range, color+pad
package clusterbuf

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-clusters/internal/cluster"
)

// UniformBlockName is the uniform block the uploader binds.
const UniformBlockName = "ClusterUniforms"

// minBufferSize keeps GL from seeing zero-sized buffers on empty frames.
const minBufferSize = 64

// growCapacity returns the buffer size to allocate for need bytes.
// Storage grows by half again to absorb frame-to-frame jitter.
func growCapacity(cur, need int) int {
	if need <= cur {
		return cur
	}
	return max(need+need/2, minBufferSize)
}

// Encoded holds one frame serialized to GPU layouts.
type Encoded struct {
	Uniforms []byte
	Ranges   []byte
	Indices  []byte
	Lights   []byte
}

// Encode serializes f, reusing the storage in e.
func (e *Encoded) Encode(f *cluster.Frame) {
	u := f.Uniforms()
	e.Uniforms = u.Marshal()
	e.Ranges = cluster.MarshalRanges(e.Ranges, f.Ranges)
	e.Indices = cluster.MarshalIndices(e.Indices, f.Indices)
	e.Lights = cluster.MarshalLights(e.Lights, f.Lights)
}

type bufferTexture struct {
	buf    uint32
	tex    uint32
	format uint32
	cap    int
}

func newBufferTexture(format uint32) bufferTexture {
	b := bufferTexture{format: format}
	gl.GenBuffers(1, &b.buf)
	gl.GenTextures(1, &b.tex)

	b.cap = minBufferSize
	gl.BindBuffer(gl.TEXTURE_BUFFER, b.buf)
	gl.BufferData(gl.TEXTURE_BUFFER, b.cap, nil, gl.DYNAMIC_DRAW)
	gl.BindTexture(gl.TEXTURE_BUFFER, b.tex)
	gl.TexBuffer(gl.TEXTURE_BUFFER, b.format, b.buf)
	gl.BindTexture(gl.TEXTURE_BUFFER, 0)
	gl.BindBuffer(gl.TEXTURE_BUFFER, 0)
	return b
}

// upload grows the buffer when needed, otherwise sub-updates it. The texture
// is re-attached after a realloc.
func (b *bufferTexture) upload(data []byte) {
	gl.BindBuffer(gl.TEXTURE_BUFFER, b.buf)
	if n := growCapacity(b.cap, len(data)); n != b.cap {
		b.cap = n
		gl.BufferData(gl.TEXTURE_BUFFER, b.cap, nil, gl.DYNAMIC_DRAW)
		gl.BindTexture(gl.TEXTURE_BUFFER, b.tex)
		gl.TexBuffer(gl.TEXTURE_BUFFER, b.format, b.buf)
		gl.BindTexture(gl.TEXTURE_BUFFER, 0)
	}
	if len(data) > 0 {
		gl.BufferSubData(gl.TEXTURE_BUFFER, 0, len(data), gl.Ptr(data))
	}
	gl.BindBuffer(gl.TEXTURE_BUFFER, 0)
}

func (b *bufferTexture) delete() {
	gl.DeleteTextures(1, &b.tex)
	gl.DeleteBuffers(1, &b.buf)
	b.tex, b.buf, b.cap = 0, 0, 0
}

// Uploader owns the GL objects holding the published tables.
// Requires a current GL context on the calling thread.
type Uploader struct {
	ranges  bufferTexture
	indices bufferTexture
	lights  bufferTexture
	ubo     uint32

	enc Encoded
}

// NewUploader allocates the buffers.
func NewUploader() *Uploader {
	u := &Uploader{
		ranges:  newBufferTexture(gl.RG32UI),
		indices: newBufferTexture(gl.R32UI),
		lights:  newBufferTexture(gl.RGBA32F),
	}

	gl.GenBuffers(1, &u.ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, u.ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, cluster.GPUClusterUniformsSize, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return u
}

// Publish uploads a frame.
func (u *Uploader) Publish(f *cluster.Frame) error {
	u.enc.Encode(f)

	u.ranges.upload(u.enc.Ranges)
	u.indices.upload(u.enc.Indices)
	u.lights.upload(u.enc.Lights)

	gl.BindBuffer(gl.UNIFORM_BUFFER, u.ubo)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(u.enc.Uniforms), gl.Ptr(u.enc.Uniforms))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("uploading cluster frame %d: gl error 0x%x", f.Stats.Frame, code)
	}
	return nil
}

// Bind attaches ranges, indices and lights to texture units firstUnit,
// firstUnit+1 and firstUnit+2, and the uniform block to binding.
func (u *Uploader) Bind(firstUnit, binding uint32) {
	for i, b := range []*bufferTexture{&u.ranges, &u.indices, &u.lights} {
		gl.ActiveTexture(gl.TEXTURE0 + firstUnit + uint32(i))
		gl.BindTexture(gl.TEXTURE_BUFFER, b.tex)
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, binding, u.ubo)
}

// Bytes returns the allocated GPU storage in bytes.
func (u *Uploader) Bytes() int {
	return u.ranges.cap + u.indices.cap + u.lights.cap + cluster.GPUClusterUniformsSize
}

// Close releases the GL objects.
func (u *Uploader) Close() {
	u.ranges.delete()
	u.indices.delete()
	u.lights.delete()
	gl.DeleteBuffers(1, &u.ubo)
	u.ubo = 0
}
