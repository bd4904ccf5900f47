package shell

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/veandco/go-sdl2/sdl"
)

type window struct {
	*sdl.Window
	prog    uint32
	texture uint32
	vao     uint32
	context sdl.GLContext

	texw, texh int
}

// newWindow creates an opengl window showing a full screen texture of size
// (texw, texh), scaled by wscale. Must run on the main thread, via sdl.Do.
func newWindow(title string, texw, texh, wscale int) (*window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL: %s", err)
	}

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 3)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)

	winw := int32(texw * wscale)
	winh := int32(texh * wscale)
	w, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		winw, winh,
		sdl.WINDOW_OPENGL|sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %s", err)
	}

	context, err := w.GLCreateContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenGL context: %s", err)
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize opengl: %s", err)
	}

	// Create empty texture buffer. The console pixels must stay crisp when
	// scaled up, hence nearest-neighbour filtering.
	tbuf := make([]byte, texw*texh*4)

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(texw), int32(texh), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&tbuf[0]))

	vert, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("vertex shader compilation: %s", err)
	}

	frag, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, fmt.Errorf("fragment shader compilation: %s", err)
	}

	prog, err := linkProgram(vert, frag)
	if err != nil {
		return nil, fmt.Errorf("shader program link: %s", err)
	}

	var VBO, VAO, EBO uint32
	gl.GenVertexArrays(1, &VAO)
	gl.GenBuffers(1, &VBO)
	gl.GenBuffers(1, &EBO)

	gl.BindVertexArray(VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	// Position attributes
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 5*4, 0)
	gl.EnableVertexAttribArray(0)

	// Texture coordinate attributes.
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, 5*4, 3*4)
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	return &window{
		Window:  w,
		prog:    prog,
		texture: texture,
		vao:     VAO,
		context: context,
		texw:    texw,
		texh:    texh,
	}, nil
}

// render uploads one RGBA frame into the texture and draws the quad.
func (w *window) render(video []byte) {
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.BindTexture(gl.TEXTURE_2D, w.texture)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(w.texw), int32(w.texh),
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&video[0]))

	gl.UseProgram(w.prog)
	gl.BindVertexArray(w.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, 6, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)

	w.GLSwap()
}

// resize keeps the viewport letterboxed to the texture aspect ratio.
func (w *window) resize(winw, winh int32) {
	scalew := winw / int32(w.texw)
	scaleh := winh / int32(w.texh)
	scale := min(scalew, scaleh)
	if scale < 1 {
		scale = 1
	}
	vw := int32(w.texw) * scale
	vh := int32(w.texh) * scale
	gl.Viewport((winw-vw)/2, (winh-vh)/2, vw, vh)
}

func (w *window) close() error {
	if w.context != nil {
		sdl.GLDeleteContext(w.context)
	}
	err := w.Destroy()
	sdl.Quit()
	return err
}

// Columns are position and texture coordinates.
// Rows are the quad vertices in clockwise order.
var vertices = []float32{
	// x, y, z, s, t
	1.0, 1.0, 0, 1, 0, // top right
	1.0, -1.0, 0, 1, 1, // bottom right
	-1.0, -1.0, 0, 0, 1, // bottom left
	-1.0, 1.0, 0, 0, 0, // top left
}

var indices = []uint32{
	0, 1, 3,
	1, 2, 3,
}

const vertexShaderSource = `
#version 330 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aTexCoord;

out vec2 TexCoord;

void main() {
    gl_Position = vec4(aPos, 1.0);
    TexCoord = aTexCoord;
}
` + "\x00"

const fragmentShaderSource = `
#version 330 core
out vec4 FragColor;
in vec2 TexCoord;

uniform sampler2D ourTexture;

void main() {
    FragColor = texture(ourTexture, TexCoord);
}
` + "\x00"

func compileShader(source string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(source)
	gl.ShaderSource(sh, 1, csrc, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	if gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status); status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLength)

		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(sh, logLength, nil, &log[0])

		return 0, fmt.Errorf("shader compile error: %v", string(log))
	}

	return sh, nil
}

func linkProgram(vertexShader, fragmentShader uint32) (uint32, error) {
	prg := gl.CreateProgram()
	gl.AttachShader(prg, vertexShader)
	gl.AttachShader(prg, fragmentShader)
	gl.LinkProgram(prg)

	var status int32
	if gl.GetProgramiv(prg, gl.LINK_STATUS, &status); status == gl.FALSE {
		var logLength int32
		var glLog [256]byte
		gl.GetProgramInfoLog(prg, int32(len(glLog)), &logLength, &glLog[0])
		return 0, fmt.Errorf("shader program link error: %v", string(glLog[:logLength]))
	}

	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	return prg, nil
}
