package registry

// Released tags. Append new kinds at the end; never edit or remove a
// released entry, doing so breaks every link already shared.
var builtinKinds = []Kind{
	{
		Tag: "S", Name: "source", Description: "Polarized laser source",
		Params: []ParamSpec{
			{Name: "wavelength", Key: "w", Unit: "nm", Min: 380, Max: 780, Default: 550},
			{Name: "intensity", Key: "i", Unit: "%", Min: 0, Max: 100, Default: 100},
			{Name: "polarization", Key: "p", Unit: "deg", Min: 0, Max: 180, Default: 0},
		},
	},
	{
		Tag: "M", Name: "mirror", Description: "Plane mirror",
		Params: []ParamSpec{
			{Name: "reflectivity", Key: "r", Min: 0, Max: 1, Default: 1},
		},
	},
	{
		Tag: "L", Name: "lens", Description: "Thin lens",
		Params: []ParamSpec{
			{Name: "focal-length", Key: "f", Unit: "mm", Min: -1000, Max: 1000, Default: 100},
		},
	},
	{
		Tag: "P", Name: "polarizer", Description: "Linear polarizer",
		Params: []ParamSpec{
			{Name: "transmission-axis", Key: "a", Unit: "deg", Min: 0, Max: 180, Default: 0},
			{Name: "extinction", Key: "e", Min: 0, Max: 1, Default: 0},
		},
	},
	{
		Tag: "D", Name: "detector", Description: "Intensity detector",
		Params: []ParamSpec{
			{Name: "gain", Key: "g", Min: 0, Max: 10, Default: 1},
		},
	},
	{
		Tag: "B", Name: "beam-splitter", Description: "Non-polarizing beam splitter",
		Params: []ParamSpec{
			{Name: "reflectance", Key: "r", Min: 0, Max: 1, Default: 0.5},
		},
	},
	{
		Tag: "W", Name: "waveplate", Description: "Linear retarder",
		Params: []ParamSpec{
			{Name: "fast-axis", Key: "a", Unit: "deg", Min: 0, Max: 180, Default: 0},
			{Name: "retardance", Key: "r", Unit: "waves", Min: 0, Max: 1, Default: 0.25},
		},
	},
	{
		Tag: "R", Name: "rotator", Description: "Optical rotator",
		Params: []ParamSpec{
			{Name: "optical-rotation", Key: "a", Unit: "deg", Min: -180, Max: 180, Default: 45},
		},
	},
	{
		Tag: "F", Name: "filter", Description: "Neutral density filter",
		Params: []ParamSpec{
			{Name: "transmittance", Key: "t", Min: 0, Max: 1, Default: 1},
		},
	},
	{
		Tag: "C", Name: "crystal", Description: "Birefringent crystal",
		Params: []ParamSpec{
			{Name: "optic-axis", Key: "a", Unit: "deg", Min: 0, Max: 180, Default: 0},
			{Name: "thickness", Key: "d", Unit: "mm", Min: 0.1, Max: 50, Default: 10},
		},
	},
}

var defaultRegistry = MustNew(builtinKinds...)

// Default returns the process-wide registry of built-in kinds. It is built
// once at package initialization and never mutated.
func Default() *Registry {
	return defaultRegistry
}
