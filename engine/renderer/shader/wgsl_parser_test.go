package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStructSizesNested(t *testing.T) {
	source := `
struct Lights {
    count: u32,
    lights: array<Light, 4>,
};
struct Light {
    color: vec3f,
    intensity: f32,
};
struct Instances {
    @align(16) scale: f32,
    data: array<vec4f>,
};
`
	sizes := computeStructSizes(parseStructBlocks(source))

	require.Contains(t, sizes, "Light")
	assert.Equal(t, wgslTypeLayout{16, 16}, sizes["Light"])
	assert.Equal(t, wgslTypeLayout{80, 16}, sizes["Lights"])
	assert.Equal(t, wgslTypeLayout{32, 16}, sizes["Instances"])
}

func TestResolveTypeLayoutArrays(t *testing.T) {
	layout, ok := resolveTypeLayout("array<vec3f, 3>", nil)
	require.True(t, ok)
	assert.Equal(t, uint64(48), layout.size)

	layout, ok = resolveTypeLayout("array<f32>", nil)
	require.True(t, ok)
	assert.Equal(t, uint64(4), layout.size)

	_, ok = resolveTypeLayout("Unknown", nil)
	assert.False(t, ok)
}

func TestStripComments(t *testing.T) {
	source := "a /* b /* nested */ c */ d // tail\ne"
	assert.Equal(t, "a  d \ne", stripComments(source))
}

func TestParseStructFieldsSkipsAttributes(t *testing.T) {
	fields := parseStructFields(`
    @builtin(position) pos: vec4f,
    @location(0) uv: vec2f,
`)

	require.Len(t, fields, 2)
	assert.True(t, fields[0].isBuiltin)
	assert.Equal(t, "pos", fields[0].name)
	assert.Equal(t, "vec2f", fields[1].typeName)
	assert.False(t, fields[1].isBuiltin)
}

func TestPreProcessorIncludes(t *testing.T) {
	pp := NewPreProcessor()
	pp.Register("fog", "struct Fog { density: f32 };")

	out, err := pp.Process("//@oxy:include fog\n  //@oxy:include fog\n//@oxy:include camera\nfn main() {}")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "struct Fog"))
	assert.Contains(t, out, "struct CameraUniform")
	assert.Contains(t, out, "fn main() {}")

	_, err = pp.Process("//@oxy:include missing")
	assert.ErrorContains(t, err, `unknown include "missing"`)

	_, err = pp.Process("//@oxy:include")
	assert.ErrorContains(t, err, "exactly one name")
}
