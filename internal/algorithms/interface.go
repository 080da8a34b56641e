// Filter registry for the pixel pipeline
package algorithms

import (
	"sort"

	"image-filter-sandbox/internal/buffer"
)

// Options carries the numeric parameter of a step and, for kernel
// filters, the convolution weights.
type Options struct {
	Param  float64
	Kernel *Kernel
}

// Filter is a pure buffer -> buffer transformation. Implementations never
// modify src and always return a buffer with alpha forced to 255.
type Filter interface {
	Apply(src *buffer.Buffer, opts Options) *buffer.Buffer
	Name() string
	Description() string
	Label(opts Options) string
	Parameters() []ParameterInfo
}

// ParameterInfo describes a parameter for UI generation
type ParameterInfo struct {
	Name        string  `json:"name" yaml:"name"`
	Type        string  `json:"type" yaml:"type"` // "int", "float", "kernel"
	Min         float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max         float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Default     float64 `json:"default" yaml:"default"`
	Description string  `json:"description" yaml:"description"`
}

var filters = make(map[string]Filter)

func Register(name string, filter Filter) {
	filters[name] = filter
}

func Get(name string) (Filter, bool) {
	filter, exists := filters[name]
	return filter, exists
}

// Apply runs the named filter. Unknown names fall back to convolution when
// a kernel is supplied and to an unchanged copy otherwise.
func Apply(name string, src *buffer.Buffer, opts Options) *buffer.Buffer {
	if src.Empty() {
		return src.Clone()
	}
	if filter, exists := filters[name]; exists {
		return filter.Apply(src, opts)
	}
	if opts.Kernel != nil {
		return Convolve(src, opts.Kernel)
	}
	return src.Clone()
}

// Label returns the pipeline display label for a step.
func Label(name string, opts Options) string {
	if filter, exists := filters[name]; exists {
		return filter.Label(opts)
	}
	return name
}

func IsValid(name string) bool {
	_, exists := filters[name]
	return exists
}

// Names returns every registered filter name in sorted order.
func Names() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ByCategory() map[string][]string {
	return map[string][]string{
		"Tone": {
			"threshold",
			"invert",
			"sepia",
			"posterize",
		},
		"Convolution": {
			"edge",
			"gaussian",
			"sharpen",
			"emboss",
			"diagonalEmboss",
			"boxBlur",
			"custom",
		},
	}
}

func init() {
	Register("threshold", NewThreshold())
	Register("invert", NewInvert())
	Register("sepia", NewSepia())
	Register("posterize", NewPosterize())

	Register("custom", NewCustomConvolution())
	for _, name := range KernelNames() {
		Register(name, NewNamedConvolution(name))
	}
}
