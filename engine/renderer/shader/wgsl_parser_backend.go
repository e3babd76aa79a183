package shader

import (
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-bind/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgslPrimitiveLayoutMap maps WGSL scalar, vector, matrix and atomic types to their size and alignment.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"f16":  {2, 2},
	"bool": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},

	"vec2<i32>": {8, 8},
	"vec2i":     {8, 8},
	"vec3<i32>": {12, 16},
	"vec3i":     {12, 16},
	"vec4<i32>": {16, 16},
	"vec4i":     {16, 16},

	"vec2<u32>": {8, 8},
	"vec2u":     {8, 8},
	"vec3<u32>": {12, 16},
	"vec3u":     {12, 16},
	"vec4<u32>": {16, 16},
	"vec4u":     {16, 16},

	"vec2<f16>": {4, 4},
	"vec2h":     {4, 4},
	"vec4<f16>": {8, 8},
	"vec4h":     {8, 8},

	// matCxR<f32> is C columns of vecR<f32>
	"mat2x2<f32>": {16, 8},
	"mat2x3<f32>": {32, 16},
	"mat2x4<f32>": {32, 16},
	"mat3x2<f32>": {24, 8},
	"mat3x3<f32>": {48, 16},
	"mat3x4<f32>": {48, 16},
	"mat4x2<f32>": {32, 8},
	"mat4x3<f32>": {64, 16},
	"mat4x4<f32>": {64, 16},
	"mat2x2f":     {16, 8},
	"mat3x3f":     {48, 16},
	"mat4x4f":     {64, 16},

	"atomic<u32>": {4, 4},
	"atomic<i32>": {4, 4},
}

// resolveTypeLayout resolves a WGSL type to its size and alignment from the primitive table and
// already resolved structs. A runtime-sized array resolves to its element stride.
//
// Parameters:
//   - typeName: the WGSL type, e.g. "f32", "CameraUniform", "array<Light, 4>"
//   - knownTypes: resolved struct layouts by name
//
// Returns:
//   - wgslTypeLayout: the resolved layout
//   - bool: false for unknown types
func resolveTypeLayout(typeName string, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	if layout, ok := knownTypes[typeName]; ok {
		return layout, true
	}

	elemType, count, isArray := splitArrayType(typeName)
	if !isArray {
		return wgslTypeLayout{}, false
	}

	elem, ok := resolveTypeLayout(elemType, knownTypes)
	if !ok {
		return wgslTypeLayout{}, false
	}

	stride := common.AlignUp(elem.size, elem.align)
	if count == 0 {
		return wgslTypeLayout{stride, elem.align}, true
	}
	return wgslTypeLayout{count * stride, elem.align}, true
}

// splitArrayType splits array<T, N> into T and N. N is 0 for runtime-sized arrays.
func splitArrayType(typeName string) (elem string, count uint64, ok bool) {
	if !strings.HasPrefix(typeName, "array<") || !strings.HasSuffix(typeName, ">") {
		return "", 0, false
	}

	inner := typeName[len("array<") : len(typeName)-1]
	parts := splitAtTopLevelCommas(inner)
	elem = strings.TrimSpace(parts[0])
	if len(parts) == 1 {
		return elem, 0, true
	}

	count, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil || count == 0 {
		return "", 0, false
	}
	return elem, count, true
}

// computeStructLayout lays out a struct with the WGSL rules: each member at the next offset
// aligned to its type, the size rounded up to the largest member alignment. A trailing
// runtime-sized array contributes one element.
//
// Parameters:
//   - ps: the struct to lay out
//   - knownTypes: resolved struct layouts by name
//
// Returns:
//   - wgslTypeLayout: the struct layout
//   - bool: false while a member type is still unresolved
func computeStructLayout(ps parsedStruct, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	var offset uint64
	maxAlign := uint64(1)

	for _, field := range ps.fields {
		if field.isBuiltin {
			continue
		}

		layout, ok := resolveTypeLayout(field.typeName, knownTypes)
		if !ok {
			return wgslTypeLayout{}, false
		}

		offset = common.AlignUp(offset, layout.align) + layout.size
		maxAlign = max(maxAlign, layout.align)
	}

	return wgslTypeLayout{common.AlignUp(offset, maxAlign), maxAlign}, true
}

// computeStructSizes resolves the layout of every struct, repeating passes until structs
// that nest other structs are all resolved or no further progress is made.
func computeStructSizes(structs []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(structs))
	pending := structs

	for len(pending) > 0 {
		var unresolved []parsedStruct
		for _, ps := range pending {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
			} else {
				unresolved = append(unresolved, ps)
			}
		}
		if len(unresolved) == len(pending) {
			break
		}
		pending = unresolved
	}

	return resolved
}

// classifyDeclaration fills the kind and the layout fields of a declaration from its
// address space and type.
//
// Parameters:
//   - decl: the declaration to fill, with TypeName set
//   - addressSpace: the var<...> qualifier, empty for handle types
func classifyDeclaration(decl *Declaration, addressSpace string) {
	typeName := decl.TypeName

	if addressSpace != "" {
		space, access, _ := strings.Cut(addressSpace, ",")
		switch strings.TrimSpace(space) {
		case "uniform":
			decl.Kind = KindUniform
			decl.BufferType = wgpu.BufferBindingTypeUniform
		case "storage":
			decl.Kind = KindStorage
			decl.BufferType = wgpu.BufferBindingTypeReadOnlyStorage
			if strings.TrimSpace(access) == "read_write" {
				decl.BufferType = wgpu.BufferBindingTypeStorage
			}
		}
		return
	}

	switch {
	case typeName == "sampler":
		decl.Kind = KindSampler
	case typeName == "sampler_comparison":
		decl.Kind = KindComparisonSampler
	case typeName == "texture_external":
		decl.Kind = KindExternalTexture
		decl.ViewDimension = wgpu.TextureViewDimension2D
		decl.SampleType = wgpu.TextureSampleTypeFloat
	case strings.HasPrefix(typeName, "texture_storage_"):
		decl.Kind = KindStorageTexture
		classifyStorageTexture(decl)
	case strings.HasPrefix(typeName, "texture_"):
		decl.Kind = KindSampledTexture
		classifySampledTexture(decl)
	}
}

func classifySampledTexture(decl *Declaration) {
	base, param := splitTypeParams(decl.TypeName)
	if info, ok := wgslSampledTextureMap[base]; ok {
		decl.ViewDimension = info.viewDimension
		decl.Multisampled = info.multisampled
	}

	if strings.HasPrefix(base, "texture_depth_") {
		decl.SampleType = wgpu.TextureSampleTypeDepth
		return
	}
	if st, ok := wgslSampleTypeMap[param]; ok {
		decl.SampleType = st
	}
}

func classifyStorageTexture(decl *Declaration) {
	base, params := splitTypeParams(decl.TypeName)
	if dim, ok := wgslStorageTextureDimMap[base]; ok {
		decl.ViewDimension = dim
	}

	format, access, _ := strings.Cut(params, ",")
	if f, ok := wgslTexelFormatMap[strings.TrimSpace(format)]; ok {
		decl.Format = f
	}
	if a, ok := wgslStorageAccessMap[strings.TrimSpace(access)]; ok {
		decl.Access = a
	}
}

// splitTypeParams splits "texture_2d<f32>" into "texture_2d" and "f32".
// A type without parameters returns an empty parameter string.
func splitTypeParams(typeName string) (base string, params string) {
	before, after, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return before, strings.TrimSpace(strings.TrimSuffix(after, ">"))
}

// stripComments removes line comments and nested block comments from WGSL source.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))

	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			case depth == 0 && source[i] == '/' && source[i+1] == '/':
				for i < len(source) && source[i] != '\n' {
					i++
				}
				if i < len(source) {
					sb.WriteByte('\n')
				}
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}

	return sb.String()
}

// splitAtTopLevelCommas splits s at commas outside angle brackets, so array<T, N> stays whole.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth = max(depth-1, 0)
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
