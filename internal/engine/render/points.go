// Package render draws the loaded point cloud as a single GL point
// pass. The spatial index is never rendered, only the (possibly
// decimated) point set.
package render

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/metroa-labs/pointwalk/internal/pointcloud"
)

const pointVertexShader = `#version 410 core
layout(location = 0) in vec3 aPos;
layout(location = 1) in vec3 aColor;

uniform mat4 uView;
uniform mat4 uProj;
uniform float uPointSize;

out vec3 vColor;

void main() {
	gl_Position = uProj * uView * vec4(aPos, 1.0);
	gl_PointSize = uPointSize;
	vColor = aColor;
}
`

const pointFragmentShader = `#version 410 core
in vec3 vColor;
out vec4 fragColor;

void main() {
	fragColor = vec4(vColor, 1.0);
}
`

// floats per vertex: position xyz + color rgb, interleaved
const vertexStride = 6

// PointRenderer owns the GL resources for one uploaded cloud.
type PointRenderer struct {
	program   uint32
	vao       uint32
	vbo       uint32
	count     int32
	pointSize float32

	uView      int32
	uProj      int32
	uPointSize int32
}

// New initializes GL state and compiles the point shader. Must run on
// the thread owning the GL context.
func New(pointSize float32) (*PointRenderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}

	program, err := compileProgram(pointVertexShader, pointFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("compiling point shader: %w", err)
	}

	r := &PointRenderer{
		program:    program,
		pointSize:  pointSize,
		uView:      uniform(program, "uView"),
		uProj:      uniform(program, "uProj"),
		uPointSize: uniform(program, "uPointSize"),
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.GenBuffers(1, &r.vbo)

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.ClearColor(0.05, 0.05, 0.08, 1.0)

	return r, nil
}

// Upload replaces the GPU-resident point set. Called once per loaded
// cloud, not per frame. Colorless clouds get a height-based gray ramp
// so the geometry stays readable.
func (r *PointRenderer) Upload(cloud *pointcloud.Cloud) {
	data := make([]float32, 0, cloud.Size()*vertexStride)

	minY := cloud.Bounds.Min.Y()
	spanY := cloud.Bounds.Size().Y()
	if spanY <= 0 {
		spanY = 1
	}

	for _, p := range cloud.Points {
		data = append(data, p.Position.X(), p.Position.Y(), p.Position.Z())
		if cloud.HasColor {
			data = append(data,
				float32(p.Color[0])/255,
				float32(p.Color[1])/255,
				float32(p.Color[2])/255,
			)
		} else {
			shade := 0.25 + 0.7*(p.Position.Y()-minY)/spanY
			data = append(data, shade, shade, shade)
		}
	}

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, vertexStride*4, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, vertexStride*4, 3*4)

	gl.BindVertexArray(0)
	r.count = int32(cloud.Size())
}

// Draw renders the uploaded points with the given matrices.
func (r *PointRenderer) Draw(view, proj mgl32.Mat4) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if r.count == 0 {
		return
	}

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.uView, 1, false, &view[0])
	gl.UniformMatrix4fv(r.uProj, 1, false, &proj[0])
	gl.Uniform1f(r.uPointSize, r.pointSize)

	gl.BindVertexArray(r.vao)
	gl.DrawArrays(gl.POINTS, 0, r.count)
	gl.BindVertexArray(0)
}

// SetViewport resizes the GL viewport after a window resize.
func (r *PointRenderer) SetViewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Close releases GL resources.
func (r *PointRenderer) Close() {
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteVertexArrays(1, &r.vao)
	gl.DeleteProgram(r.program)
}
