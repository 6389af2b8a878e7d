// Package renderer draws geometry snapshots with OpenGL.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/explodeview/internal/engine/debug"
	"github.com/Faultbox/explodeview/internal/engine/scene"
	"github.com/Faultbox/explodeview/internal/engine/shader"
	"github.com/Faultbox/explodeview/internal/geometry"
	"github.com/Faultbox/explodeview/internal/logger"
)

const vertexShaderSource = `#version 410 core
layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;

out vec3 vNormal;

void main() {
    vNormal = mat3(uModel) * aNormal;
    gl_Position = uProjection * uView * uModel * vec4(aPosition, 1.0);
}
`

const fragmentShaderSource = `#version 410 core
in vec3 vNormal;

uniform vec3 uColor;
uniform vec3 uLightDir;
uniform vec3 uAmbient;
uniform vec3 uDiffuse;

out vec4 FragColor;

void main() {
    // Two-sided: soups carry no consistent winding. Zero normals
    // (degenerate faces, wireframes) are drawn fully lit.
    float diff = 1.0;
    if (length(vNormal) > 0.0) {
        diff = abs(dot(normalize(vNormal), normalize(uLightDir)));
    }
    FragColor = vec4((uAmbient + diff * uDiffuse) * uColor, 1.0);
}
`

// floatsPerVertex is position + normal.
const floatsPerVertex = 6

// boxVertexCount is the number of line endpoints in a bounds wireframe.
const boxVertexCount = 24

// BoundsColor is the wireframe color of the bounding box overlay.
var BoundsColor = [3]float32{0.9, 0.9, 0.9}

// MeshRenderer uploads and draws the active snapshot.
type MeshRenderer struct {
	// ShowBounds draws the snapshot's bounding box.
	ShowBounds bool

	program uint32
	vao     uint32
	vbo     uint32
	ebo     uint32
	boxVAO  uint32
	boxVBO  uint32

	locModel      int32
	locView       int32
	locProjection int32
	locColor      int32
	locLightDir   int32
	locAmbient    int32
	locDiffuse    int32

	generation uint64
	indexCount int32
	color      [3]float32

	interleaved []float32
	log         *zap.Logger
}

// New initializes OpenGL state and creates a mesh renderer.
// Must be called after the OpenGL context is current.
func New() (*MeshRenderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r := &MeshRenderer{log: logger.Named("renderer")}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	program, err := shader.CompileProgram(vertexShaderSource, fragmentShaderSource)
	if err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	r.program = program

	locs, err := shader.Uniforms(program,
		"uModel", "uView", "uProjection", "uColor", "uLightDir", "uAmbient", "uDiffuse")
	if err != nil {
		gl.DeleteProgram(program)
		return nil, err
	}
	r.locModel, r.locView, r.locProjection = locs[0], locs[1], locs[2]
	r.locColor, r.locLightDir, r.locAmbient, r.locDiffuse = locs[3], locs[4], locs[5], locs[6]

	gl.GenVertexArrays(1, &r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.GenBuffers(1, &r.ebo)

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)

	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, nil)
	gl.EnableVertexAttribArray(0)
	//nolint:govet // Valid OpenGL offset pointer usage
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)

	gl.GenVertexArrays(1, &r.boxVAO)
	gl.GenBuffers(1, &r.boxVBO)
	gl.BindVertexArray(r.boxVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.boxVBO)
	gl.BufferData(gl.ARRAY_BUFFER, boxVertexCount*floatsPerVertex*4, nil, gl.DYNAMIC_DRAW)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, nil)
	gl.EnableVertexAttribArray(0)
	//nolint:govet // Valid OpenGL offset pointer usage
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)

	return r, nil
}

// Upload copies the snapshot to the GPU if it differs from the one already
// resident. It reports whether an upload happened.
func (r *MeshRenderer) Upload(snap *geometry.Snapshot) bool {
	if snap == nil || snap.Generation == r.generation {
		return false
	}

	r.interleaved = Interleave(r.interleaved[:0], snap.Vertices, snap.Normals)
	r.indexCount = int32(len(snap.Indices))
	r.color = scene.ModelColor(snap.Mode)
	r.generation = snap.Generation

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	if len(r.interleaved) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(r.interleaved)*4, gl.Ptr(r.interleaved), gl.DYNAMIC_DRAW)
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)
	if len(snap.Indices) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(snap.Indices)*4, gl.Ptr(snap.Indices), gl.DYNAMIC_DRAW)
	}
	gl.BindVertexArray(0)

	box := Interleave(make([]float32, 0, boxVertexCount*floatsPerVertex), debug.BoxLines(snap.Bounds), nil)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.boxVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(box)*4, gl.Ptr(box))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.log.Debug("snapshot uploaded",
		zap.Uint64("generation", snap.Generation),
		zap.String("mode", snap.Mode.String()),
		zap.Int32("indices", r.indexCount))
	return true
}

// Resize updates the viewport.
func (r *MeshRenderer) Resize(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Draw clears the frame and draws the resident mesh.
func (r *MeshRenderer) Draw(ctx *scene.RenderContext, m scene.Matrices) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if r.indexCount == 0 {
		return
	}

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.locModel, 1, false, m.Model.Ptr())
	gl.UniformMatrix4fv(r.locView, 1, false, m.View.Ptr())
	gl.UniformMatrix4fv(r.locProjection, 1, false, m.Projection.Ptr())

	gl.Uniform3fv(r.locColor, 1, &r.color[0])
	gl.Uniform3fv(r.locLightDir, 1, &ctx.Light.Direction[0])
	gl.Uniform3fv(r.locAmbient, 1, &ctx.Light.Ambient[0])
	gl.Uniform3fv(r.locDiffuse, 1, &ctx.Light.Diffuse[0])

	gl.BindVertexArray(r.vao)
	gl.DrawElements(gl.TRIANGLES, r.indexCount, gl.UNSIGNED_INT, nil)

	if r.ShowBounds {
		gl.Uniform3fv(r.locColor, 1, &BoundsColor[0])
		gl.BindVertexArray(r.boxVAO)
		gl.DrawArrays(gl.LINES, 0, boxVertexCount)
	}
	gl.BindVertexArray(0)
}

// ReadPixels reads back the current framebuffer as bottom-up RGBA rows.
func (r *MeshRenderer) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// Close releases GPU resources.
func (r *MeshRenderer) Close() {
	r.log.Info("closing renderer")
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.boxVAO != 0 {
		gl.DeleteVertexArrays(1, &r.boxVAO)
	}
	if r.boxVBO != 0 {
		gl.DeleteBuffers(1, &r.boxVBO)
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	if r.ebo != 0 {
		gl.DeleteBuffers(1, &r.ebo)
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
}

// Interleave packs positions and normals as [px py pz nx ny nz ...],
// appending to dst.
func Interleave(dst, vertices, normals []float32) []float32 {
	n := len(vertices) / 3
	for i := 0; i < n; i++ {
		dst = append(dst, vertices[3*i:3*i+3]...)
		if 3*i+3 <= len(normals) {
			dst = append(dst, normals[3*i:3*i+3]...)
		} else {
			dst = append(dst, 0, 0, 0)
		}
	}
	return dst
}
