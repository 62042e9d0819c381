package tags

import (
	"github.com/samcharles93/h2tags/pkg/blam"
)

// Scenario is the root tag of a map.
type Scenario struct {
	SkyboxReferences []SkyboxReference
	Terrains         []Terrain
}

func (Scenario) TagLabel() blam.Label { return blam.MakeLabel("scnr") }

type SkyboxReference struct {
	Skybox blam.TagRef
}

// Terrain places one structure BSP and its lightmap.
type Terrain struct {
	Bsp      blam.Ref[Bsp]
	Lightmap blam.TagRef
}

var (
	skyboxReferenceLayout = blam.DefineShape("SkyboxReference", 8, func(b *blam.Builder[SkyboxReference]) {
		blam.UntypedRef(b, 4, "Skybox", func(r *SkyboxReference) *blam.TagRef { return &r.Skybox })
	})

	terrainLayout = blam.DefineShape("Terrain", 68, func(b *blam.Builder[Terrain]) {
		blam.TypedRef(b, 20, "Bsp", func(r *Terrain) *blam.Ref[Bsp] { return &r.Bsp })
		blam.UntypedRef(b, 28, "Lightmap", func(r *Terrain) *blam.TagRef { return &r.Lightmap })
	})
)

var ScenarioLayout = blam.DefineTag(536, func(b *blam.Builder[Scenario]) {
	blam.Blocks(b, 8, "SkyboxReferences", skyboxReferenceLayout, func(t *Scenario) *[]SkyboxReference { return &t.SkyboxReferences })
	blam.Blocks(b, 528, "Terrains", terrainLayout, func(t *Scenario) *[]Terrain { return &t.Terrains })
})
