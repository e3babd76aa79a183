// pre_processor.go implements the WGSL include pre-processor. A line of the form
//
//	//@oxy:include <name>
//
// is replaced by the WGSL source registered under name, so shaders share the struct
// definitions of the engine's GPU types instead of repeating them.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-bind/engine/camera"
)

const includePrefix = "//@oxy:include"

// PreProcessor expands include annotations in WGSL source.
type PreProcessor interface {
	// Process replaces every include annotation with its registered source.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded source
	//   - error: an error if an annotation is malformed or names an unknown include
	Process(source string) (string, error)

	// Register adds or replaces the source of an include.
	//
	// Parameters:
	//   - name: the include name used in annotations
	//   - source: the WGSL source injected for it
	Register(name, source string)
}

type preProcessor struct {
	includes map[string]string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the engine's GPU types registered.
// "camera" injects the CameraUniform struct.
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		includes: map[string]string{
			"camera": camera.GPUCameraUniformSource,
		},
	}
}

func (p *preProcessor) Register(name, source string) {
	p.includes[name] = source
}

func (p *preProcessor) Process(source string) (string, error) {
	lines := strings.Split(source, "\n")
	included := make(map[string]bool)

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, includePrefix) {
			continue
		}

		args := strings.Fields(strings.TrimPrefix(trimmed, includePrefix))
		if len(args) != 1 {
			return "", fmt.Errorf("line %d: include expects exactly one name, got %d", i+1, len(args))
		}

		name := args[0]
		src, ok := p.includes[name]
		if !ok {
			return "", fmt.Errorf("line %d: unknown include %q", i+1, name)
		}

		// repeated includes would redeclare the struct
		if included[name] {
			lines[i] = ""
			continue
		}
		included[name] = true
		lines[i] = strings.TrimRight(src, "\n")
	}

	return strings.Join(lines, "\n"), nil
}
