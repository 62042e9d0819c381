// Package tags declares the layouts of the tag kinds h2tags understands.
//
// Each kind is a Go struct implementing blam.Kind plus a package-level
// layout built with blam.DefineTag. Layouts are static; Default collects
// them into a registry for blam.Load.
package tags

import (
	"github.com/samcharles93/h2tags/pkg/blam"
)

// Default returns a registry holding every layout in this package.
func Default() *blam.Registry {
	reg := blam.NewRegistry()
	blam.Register(reg, BitmapLayout)
	blam.Register(reg, ShaderLayout)
	blam.Register(reg, ShaderTemplateLayout)
	blam.Register(reg, ScenarioLayout)
	blam.Register(reg, BspLayout)
	blam.Register(reg, PhysicalModelLayout)
	blam.Register(reg, ModelLayout)
	blam.Register(reg, MachineryLayout)
	blam.Register(reg, BlocLayout)
	return reg
}
