package shader

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslSampledTextureMap maps WGSL sampled texture base names to their view dimension and multisample flag
var wgslSampledTextureMap = map[string]sampledTextureInfo{
	"texture_1d":                    {wgpu.TextureViewDimension1D, false},
	"texture_2d":                    {wgpu.TextureViewDimension2D, false},
	"texture_2d_array":              {wgpu.TextureViewDimension2DArray, false},
	"texture_3d":                    {wgpu.TextureViewDimension3D, false},
	"texture_cube":                  {wgpu.TextureViewDimensionCube, false},
	"texture_cube_array":            {wgpu.TextureViewDimensionCubeArray, false},
	"texture_multisampled_2d":       {wgpu.TextureViewDimension2D, true},
	"texture_depth_2d":              {wgpu.TextureViewDimension2D, false},
	"texture_depth_2d_array":        {wgpu.TextureViewDimension2DArray, false},
	"texture_depth_cube":            {wgpu.TextureViewDimensionCube, false},
	"texture_depth_cube_array":      {wgpu.TextureViewDimensionCubeArray, false},
	"texture_depth_multisampled_2d": {wgpu.TextureViewDimension2D, true},
}

// wgslStorageTextureDimMap maps WGSL storage texture base names to their view dimension
var wgslStorageTextureDimMap = map[string]wgpu.TextureViewDimension{
	"texture_storage_1d":       wgpu.TextureViewDimension1D,
	"texture_storage_2d":       wgpu.TextureViewDimension2D,
	"texture_storage_2d_array": wgpu.TextureViewDimension2DArray,
	"texture_storage_3d":       wgpu.TextureViewDimension3D,
}

// wgslSampleTypeMap maps WGSL texel scalar types to texture sample types
var wgslSampleTypeMap = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

// wgslStorageAccessMap maps WGSL access keywords to storage texture access modes
var wgslStorageAccessMap = map[string]wgpu.StorageTextureAccess{
	"write":      wgpu.StorageTextureAccessWriteOnly,
	"read":       wgpu.StorageTextureAccessReadOnly,
	"read_write": wgpu.StorageTextureAccessReadWrite,
}

// wgslTexelFormatMap maps the WGSL storage texel formats to texture formats
var wgslTexelFormatMap = map[string]wgpu.TextureFormat{
	"rgba8unorm":  wgpu.TextureFormatRGBA8Unorm,
	"rgba8snorm":  wgpu.TextureFormatRGBA8Snorm,
	"rgba8uint":   wgpu.TextureFormatRGBA8Uint,
	"rgba8sint":   wgpu.TextureFormatRGBA8Sint,
	"rgba16uint":  wgpu.TextureFormatRGBA16Uint,
	"rgba16sint":  wgpu.TextureFormatRGBA16Sint,
	"rgba16float": wgpu.TextureFormatRGBA16Float,
	"r32uint":     wgpu.TextureFormatR32Uint,
	"r32sint":     wgpu.TextureFormatR32Sint,
	"r32float":    wgpu.TextureFormatR32Float,
	"rg32uint":    wgpu.TextureFormatRG32Uint,
	"rg32sint":    wgpu.TextureFormatRG32Sint,
	"rg32float":   wgpu.TextureFormatRG32Float,
	"rgba32uint":  wgpu.TextureFormatRGBA32Uint,
	"rgba32sint":  wgpu.TextureFormatRGBA32Sint,
	"rgba32float": wgpu.TextureFormatRGBA32Float,
	"bgra8unorm":  wgpu.TextureFormatBGRA8Unorm,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct member: optional attributes, name, colon, type
	fieldRegex = regexp.MustCompile(`^(?:@\w+(?:\([^)]*\))?\s*)*(\w+)\s*:\s*(.+)$`)

	// stageRegexes detect the entry point stages present in a module
	stageRegexes = []struct {
		re    *regexp.Regexp
		stage wgpu.ShaderStage
	}{
		{regexp.MustCompile(`@vertex\b`), wgpu.ShaderStageVertex},
		{regexp.MustCompile(`@fragment\b`), wgpu.ShaderStageFragment},
		{regexp.MustCompile(`@compute\b`), wgpu.ShaderStageCompute},
	}

	// bindGroupDeclRegex captures group, binding, optional address space, variable name and type
	// from declarations like: @group(0) @binding(0) var<uniform> camera: CameraUniform;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseDeclarations extracts every @group/@binding variable of a WGSL module, sorted by
// group then binding. Buffer declarations are sized from the module's struct layouts.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//   - visibility: the stage mask applied to every declaration
//
// Returns:
//   - []Declaration: the declarations found in source
func parseDeclarations(source string, visibility wgpu.ShaderStage) []Declaration {
	structSizes := computeStructSizes(parseStructBlocks(source))

	matches := bindGroupDeclRegex.FindAllStringSubmatch(source, -1)
	decls := make([]Declaration, 0, len(matches))
	for _, m := range matches {
		group, _ := strconv.ParseUint(m[1], 10, 32)
		index, _ := strconv.ParseUint(m[2], 10, 32)

		decl := Declaration{
			Group:      uint32(group),
			Binding:    uint32(index),
			Name:       m[4],
			TypeName:   strings.TrimSpace(m[5]),
			Visibility: visibility,
		}
		classifyDeclaration(&decl, strings.TrimSpace(m[3]))

		if decl.Kind == KindUniform || decl.Kind == KindStorage {
			if layout, ok := resolveTypeLayout(decl.TypeName, structSizes); ok {
				decl.Size = layout.size
			}
		}

		decls = append(decls, decl)
	}

	sortDeclarations(decls)
	return decls
}

// sortDeclarations orders declarations by group then binding.
func sortDeclarations(decls []Declaration) {
	slices.SortFunc(decls, func(a, b Declaration) int {
		return cmp.Or(cmp.Compare(a.Group, b.Group), cmp.Compare(a.Binding, b.Binding))
	})
}

// detectStages returns the mask of entry point stages declared in source.
func detectStages(source string) wgpu.ShaderStage {
	var stages wgpu.ShaderStage
	for _, s := range stageRegexes {
		if s.re.MatchString(source) {
			stages |= s.stage
		}
	}
	return stages
}

// parseStructBlocks finds all struct blocks in comment-free WGSL source.
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, m := range matches {
		structs = append(structs, parsedStruct{
			name:   m[1],
			fields: parseStructFields(m[2]),
		})
	}
	return structs
}

// parseStructFields splits a struct body into its members.
func parseStructFields(body string) []parsedField {
	members := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(members))

	for _, member := range members {
		member = strings.TrimSpace(member)
		fm := fieldRegex.FindStringSubmatch(member)
		if fm == nil {
			continue
		}
		fields = append(fields, parsedField{
			name:      fm[1],
			typeName:  strings.TrimSpace(fm[2]),
			isBuiltin: builtinRegex.MatchString(member),
		})
	}

	return fields
}
