package tags

import (
	"github.com/samcharles93/h2tags/pkg/blam"
)

// PhysicalModel ties a render model to its collision and physics data.
type PhysicalModel struct {
	Model       blam.Ref[Model]
	Collider    blam.TagRef
	PhysicsInfo blam.TagRef
	Phmo        blam.TagRef
	Params      []float32
}

func (PhysicalModel) TagLabel() blam.Label { return blam.MakeLabel("hlmt") }

type Model struct {
	NameID uint32
	Bounds blam.Mat4
}

func (Model) TagLabel() blam.Label { return blam.MakeLabel("mode") }

// Machinery is a device such as a door or elevator.
type Machinery struct {
	Type               int32
	UniformScale       float32
	Unknown            float32
	Model              blam.Ref[PhysicalModel]
	Bloc               blam.Ref[Bloc]
	Effect             blam.TagRef
	Foot               blam.TagRef
	ValueA             float32
	PositionChangeRate float32
	UnknownChangeRate  float32
	ValueD             float32
	ActivationRange    float32
}

func (Machinery) TagLabel() blam.Label { return blam.MakeLabel("mach") }

// Bloc is a crate-like placeable object.
type Bloc struct {
	UniformScale float32
	Model        blam.Ref[PhysicalModel]
}

func (Bloc) TagLabel() blam.Label { return blam.MakeLabel("bloc") }

var PhysicalModelLayout = blam.DefineTag(72, func(b *blam.Builder[PhysicalModel]) {
	blam.TypedRef(b, 4, "Model", func(t *PhysicalModel) *blam.Ref[Model] { return &t.Model })
	blam.UntypedRef(b, 12, "Collider", func(t *PhysicalModel) *blam.TagRef { return &t.Collider })
	blam.UntypedRef(b, 28, "PhysicsInfo", func(t *PhysicalModel) *blam.TagRef { return &t.PhysicsInfo })
	blam.UntypedRef(b, 36, "Phmo", func(t *PhysicalModel) *blam.TagRef { return &t.Phmo })
	blam.Array(b, 40, 8, "Params", blam.Float32, func(t *PhysicalModel) *[]float32 { return &t.Params })
})

var ModelLayout = blam.DefineTag(80, func(b *blam.Builder[Model]) {
	blam.Value(b, 0, "NameID", blam.Uint32, func(t *Model) *uint32 { return &t.NameID })
	blam.Value(b, 16, "Bounds", blam.Matrix4, func(t *Model) *blam.Mat4 { return &t.Bounds })
})

var MachineryLayout = blam.DefineTag(284, func(b *blam.Builder[Machinery]) {
	blam.Value(b, 0, "Type", blam.Int32, func(t *Machinery) *int32 { return &t.Type })
	blam.Value(b, 4, "UniformScale", blam.Float32, func(t *Machinery) *float32 { return &t.UniformScale })
	blam.Value(b, 16, "Unknown", blam.Float32, func(t *Machinery) *float32 { return &t.Unknown })
	blam.TypedRef(b, 56, "Model", func(t *Machinery) *blam.Ref[PhysicalModel] { return &t.Model })
	blam.TypedRef(b, 64, "Bloc", func(t *Machinery) *blam.Ref[Bloc] { return &t.Bloc })
	blam.UntypedRef(b, 80, "Effect", func(t *Machinery) *blam.TagRef { return &t.Effect })
	blam.UntypedRef(b, 88, "Foot", func(t *Machinery) *blam.TagRef { return &t.Foot })
	blam.Value(b, 196, "ValueA", blam.Float32, func(t *Machinery) *float32 { return &t.ValueA })
	blam.Value(b, 200, "PositionChangeRate", blam.Float32, func(t *Machinery) *float32 { return &t.PositionChangeRate })
	blam.Value(b, 204, "UnknownChangeRate", blam.Float32, func(t *Machinery) *float32 { return &t.UnknownChangeRate })
	blam.Value(b, 212, "ValueD", blam.Float32, func(t *Machinery) *float32 { return &t.ValueD })
	blam.Value(b, 280, "ActivationRange", blam.Float32, func(t *Machinery) *float32 { return &t.ActivationRange })
})

var BlocLayout = blam.DefineTag(60, func(b *blam.Builder[Bloc]) {
	blam.Value(b, 4, "UniformScale", blam.Float32, func(t *Bloc) *float32 { return &t.UniformScale })
	blam.TypedRef(b, 56, "Model", func(t *Bloc) *blam.Ref[PhysicalModel] { return &t.Model })
})
