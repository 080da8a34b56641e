package algorithms

import "sort"

var presetKernels = map[string][][]float64{
	"edge": {
		{-1, -1, -1},
		{-1, 8, -1},
		{-1, -1, -1},
	},
	"gaussian": {
		{0.0625, 0.125, 0.0625},
		{0.125, 0.25, 0.125},
		{0.0625, 0.125, 0.0625},
	},
	"sharpen": {
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	},
	"emboss": {
		{-2, -1, 0},
		{-1, 1, 1},
		{0, 1, 2},
	},
	"diagonalEmboss": {
		{-1, -1, 0},
		{-1, 0, 1},
		{0, 1, 1},
	},
	"boxBlur": {
		{0.111, 0.111, 0.111},
		{0.111, 0.111, 0.111},
		{0.111, 0.111, 0.111},
	},
}

// LookupKernel returns a copy of a preset kernel.
func LookupKernel(name string) (*Kernel, bool) {
	values, ok := presetKernels[name]
	if !ok {
		return nil, false
	}
	k, err := NewKernel(values)
	if err != nil {
		return nil, false
	}
	return k, true
}

// KernelNames lists the preset kernels in sorted order.
func KernelNames() []string {
	names := make([]string, 0, len(presetKernels))
	for name := range presetKernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IdentityKernel leaves interior pixels unchanged.
func IdentityKernel() *Kernel {
	k, _ := NewKernel([][]float64{
		{0, 0, 0},
		{0, 1, 0},
		{0, 0, 0},
	})
	return k
}

// DefaultKernel seeds the custom kernel grid.
func DefaultKernel() *Kernel {
	k, _ := LookupKernel("edge")
	return k
}
