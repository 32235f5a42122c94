package main

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-clusters/internal/cluster"
	"github.com/Faultbox/midgard-clusters/internal/engine/debug"
	"github.com/Faultbox/midgard-clusters/internal/engine/shader"
	"github.com/Faultbox/midgard-clusters/pkg/math"
)

// boxOverlay draws wireframes of occupied clusters.
type boxOverlay struct {
	program   uint32
	vao, vbo  uint32
	locToClip int32
	locColor  int32
	verts     []float32
	capacity  int
}

func newBoxOverlay() (*boxOverlay, error) {
	program, err := shader.CompileProgram(lineVertexShader, lineFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("compiling box shader: %w", err)
	}
	b := &boxOverlay{
		program:   program,
		locToClip: shader.GetUniform(program, "u_toClip"),
		locColor:  shader.GetUniform(program, "u_color"),
	}

	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.BindVertexArray(0)
	return b, nil
}

// boxClip maps vertices in the culling view's space to the current clip space.
func boxClip(proj, currentView, cullView math.Mat4) math.Mat4 {
	return proj.Mul(currentView).Mul(cullView.Inverse())
}

func (b *boxOverlay) draw(f *cluster.Frame, slice int32, toClip math.Mat4) {
	b.verts = debug.ClusterBoxLines(b.verts, f, int(slice))
	if len(b.verts) == 0 {
		return
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	size := len(b.verts) * 4
	if size > b.capacity {
		gl.BufferData(gl.ARRAY_BUFFER, size, gl.Ptr(b.verts), gl.DYNAMIC_DRAW)
		b.capacity = size
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(b.verts))
	}

	gl.UseProgram(b.program)
	gl.UniformMatrix4fv(b.locToClip, 1, false, &toClip[0])
	gl.Uniform3f(b.locColor, 0.2, 0.9, 1.0)
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.LINES, 0, int32(len(b.verts)/3))
	gl.BindVertexArray(0)
}

func (b *boxOverlay) close() {
	gl.DeleteBuffers(1, &b.vbo)
	gl.DeleteVertexArrays(1, &b.vao)
	gl.DeleteProgram(b.program)
}
