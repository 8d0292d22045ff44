package bridge

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/wasm-gl/errors"
	"github.com/wippyai/wasm-gl/gl"
	"github.com/wippyai/wasm-gl/gl/gltrace"
)

const (
	testVertex = `#version 330 core
in vec2 a_pos;
uniform mat3 u_transform;
void main() { gl_Position = vec4(a_pos, 0.0, 1.0); }
`
	testFragment = `#version 330 core
uniform vec4 u_color;
out vec4 frag;
void main() { frag = u_color; }
`
)

func newTestContext(t *testing.T) (*Context, *gltrace.Recorder) {
	t.Helper()
	rec := gltrace.New()
	return NewContext(rec, zap.NewNop()), rec
}

func linkedProgram(t *testing.T, c *Context) Handle {
	t.Helper()
	p := c.CreateProgram()
	for typ, src := range map[gl.Enum]string{gl.VERTEX_SHADER: testVertex, gl.FRAGMENT_SHADER: testFragment} {
		s := c.CreateShader(typ)
		if err := c.ShaderSource(s, src); err != nil {
			t.Fatalf("ShaderSource: %v", err)
		}
		if err := c.CompileShader(s); err != nil {
			t.Fatalf("CompileShader: %v", err)
		}
		if err := c.AttachShader(p, s); err != nil {
			t.Fatalf("AttachShader: %v", err)
		}
	}
	if err := c.LinkProgram(p); err != nil {
		t.Fatalf("LinkProgram: %v", err)
	}
	return p
}

func TestCategoriesHaveIndependentHandles(t *testing.T) {
	c, rec := newTestContext(t)

	b := c.CreateBuffer()
	tex := c.CreateTexture()
	if b != 1 || tex != 1 {
		t.Fatalf("first handles: buffer=%d texture=%d, want 1 and 1", b, tex)
	}

	if err := c.BindBuffer(gl.ARRAY_BUFFER, b); err != nil {
		t.Fatalf("BindBuffer: %v", err)
	}
	if err := c.BindTexture(gl.TEXTURE_2D, tex); err != nil {
		t.Fatalf("BindTexture: %v", err)
	}

	bind := rec.Find("BindBuffer")
	if len(bind) != 1 || bind[0].Args[1] != gl.Buffer(gltrace.FirstName) {
		t.Errorf("BindBuffer calls = %v", bind)
	}
	bindTex := rec.Find("BindTexture")
	if len(bindTex) != 1 || bindTex[0].Args[1] != gl.Texture(gltrace.FirstName+1) {
		t.Errorf("BindTexture calls = %v", bindTex)
	}
}

func TestInvalidHandles(t *testing.T) {
	c, rec := newTestContext(t)

	b := c.CreateBuffer()
	if err := c.DeleteBuffer(b); err != nil {
		t.Fatalf("DeleteBuffer: %v", err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"bind zero buffer", func() error { return c.BindBuffer(gl.ARRAY_BUFFER, 0) }},
		{"bind stale buffer", func() error { return c.BindBuffer(gl.ARRAY_BUFFER, b) }},
		{"double delete", func() error { return c.DeleteBuffer(b) }},
		{"never issued", func() error { return c.UseProgram(99) }},
		{"zero texture", func() error { return c.BindTexture(gl.TEXTURE_2D, 0) }},
		{"zero uniform", func() error { return c.UniformFloats(0, 1, []float32{1}) }},
		{"attach unknown shader", func() error { return c.AttachShader(c.CreateProgram(), 7) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(rec.Calls)
			err := tt.call()
			if !errors.IsNotFound(err) {
				t.Fatalf("got %v, want not_found", err)
			}
			for _, call := range rec.Calls[before:] {
				if call.Name != "CreateProgram" {
					t.Errorf("native call %s issued for invalid handle", call)
				}
			}
		})
	}
}

func TestBindDefaultFramebuffer(t *testing.T) {
	c, rec := newTestContext(t)

	if err := c.BindFramebuffer(gl.FRAMEBUFFER, 0); err != nil {
		t.Fatalf("BindFramebuffer(0): %v", err)
	}
	calls := rec.Find("BindFramebuffer")
	if len(calls) != 1 || calls[0].Args[1] != gl.Framebuffer(0) {
		t.Fatalf("BindFramebuffer calls = %v", calls)
	}

	f := c.CreateFramebuffer()
	if err := c.DeleteFramebuffer(f); err != nil {
		t.Fatal(err)
	}
	if err := c.BindFramebuffer(gl.FRAMEBUFFER, f); !errors.IsNotFound(err) {
		t.Fatalf("bind deleted framebuffer: got %v, want not_found", err)
	}
}

func TestUniformLocations(t *testing.T) {
	c, rec := newTestContext(t)
	p := linkedProgram(t, c)

	loc, err := c.GetUniformLocation(p, "u_color")
	if err != nil {
		t.Fatalf("GetUniformLocation: %v", err)
	}
	again, err := c.GetUniformLocation(p, "u_color")
	if err != nil || again != loc {
		t.Fatalf("second query = %d, %v; want %d", again, err, loc)
	}
	if n := rec.Count("GetUniformLocation"); n != 1 {
		t.Errorf("native location queries = %d, want 1", n)
	}

	if _, err := c.GetUniformLocation(p, "u_missing"); !errors.IsNotFound(err) {
		t.Errorf("unknown uniform: got %v, want not_found", err)
	}

	if err := c.UniformFloats(loc, 4, []float32{1, 0, 0, 1}); err != nil {
		t.Fatalf("UniformFloats: %v", err)
	}
	if calls := rec.Find("Uniform4fv"); len(calls) != 1 {
		t.Fatalf("Uniform4fv calls = %v", calls)
	}
	if err := c.UniformFloats(loc, 5, nil); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("width 5: got %v, want invalid_input", err)
	}

	if err := c.DeleteProgram(p); err != nil {
		t.Fatal(err)
	}
	if err := c.UniformFloats(loc, 4, []float32{0, 0, 0, 0}); !errors.IsNotFound(err) {
		t.Errorf("location of deleted program: got %v, want not_found", err)
	}
}

func TestAttribLocation(t *testing.T) {
	c, _ := newTestContext(t)
	p := linkedProgram(t, c)

	loc, err := c.GetAttribLocation(p, "a_pos")
	if err != nil || loc != 0 {
		t.Fatalf("a_pos = %d, %v; want 0", loc, err)
	}
	loc, err = c.GetAttribLocation(p, "a_nothing")
	if err != nil || loc != -1 {
		t.Fatalf("unknown attribute = %d, %v; want -1", loc, err)
	}
}

func TestInfoLogIsDiagnostic(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := NewContext(gltrace.New(), zap.New(core))

	s := c.CreateShader(gl.FRAGMENT_SHADER)
	if err := c.ShaderSource(s, "#error broken"); err != nil {
		t.Fatal(err)
	}
	if err := c.CompileShader(s); err != nil {
		t.Fatal(err)
	}
	status, err := c.GetShaderParameter(s, gl.COMPILE_STATUS)
	if err != nil || status != 0 {
		t.Fatalf("compile status = %d, %v", status, err)
	}

	msg, err := c.ShaderInfoLog(s)
	if err != nil {
		t.Fatalf("ShaderInfoLog returned error: %v", err)
	}
	if msg == "" {
		t.Fatal("empty info log")
	}
	if logs.FilterMessage("shader info log").Len() != 1 {
		t.Errorf("warn logs = %v", logs.All())
	}
}

func TestCloseDeletesLiveObjects(t *testing.T) {
	c, rec := newTestContext(t)

	c.CreateBuffer()
	c.CreateBuffer()
	c.CreateTexture()
	c.CreateFramebuffer()
	p := linkedProgram(t, c)
	if _, err := c.GetUniformLocation(p, "u_transform"); err != nil {
		t.Fatal(err)
	}

	stats := c.Stats()
	if stats.Live[CategoryBuffer] != 2 || stats.Live[CategoryUniform] != 1 {
		t.Fatalf("live before close = %v", stats.Live)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rec.Live() != 0 {
		t.Errorf("native objects still live: %d", rec.Live())
	}
	for category, n := range c.Stats().Live {
		if n != 0 {
			t.Errorf("%s live = %d after close", category, n)
		}
	}

	before := len(rec.Calls)
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if len(rec.Calls) != before {
		t.Error("second Close issued native calls")
	}
}

func TestDrawCallsCounted(t *testing.T) {
	c, rec := newTestContext(t)

	c.DrawArrays(gl.TRIANGLES, 0, 3)
	c.DrawElements(gl.TRIANGLES, 6, gl.UNSIGNED_INT, 0)
	c.DrawElementsInstanced(gl.TRIANGLES, 6, gl.UNSIGNED_INT, 24, 10)

	if got := c.Stats().DrawCalls; got != 3 {
		t.Errorf("draw calls = %d, want 3", got)
	}
	calls := rec.Find("DrawElementsInstanced")
	if len(calls) != 1 || calls[0].Args[3] != 24 || calls[0].Args[4] != int32(10) {
		t.Errorf("DrawElementsInstanced = %v", calls)
	}
}
