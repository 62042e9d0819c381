package tags

import (
	"github.com/samcharles93/h2tags/pkg/blam"
)

// Shader binds a shader template to the bitmaps and parameters it samples.
type Shader struct {
	StemTag                 string
	Template                blam.Ref[ShaderTemplate]
	BitmapInfos             []BitmapInfo
	Arguments               []ShaderArguments
	BitmapReferenceSettings []BitmapReferenceSetting
}

func (Shader) TagLabel() blam.Label { return blam.MakeLabel("shad") }

type BitmapInfo struct {
	DiffuseBitmap  blam.Ref[Bitmap]
	EmissiveBitmap blam.Ref[Bitmap]
	Param1         float32
	Param2         float32
	Param3         float32
	Param4         float32
	AlphaBitmap    blam.Ref[Bitmap]
}

type ShaderArguments struct {
	Template          blam.Ref[ShaderTemplate]
	ShaderMaps        []ShaderMap
	BitmapParameter2s []BitmapParameter2
	ShaderInputs      []blam.Vec4
	BitmapParameter4s []BitmapParameter4
}

type ShaderMap struct {
	Bitmap    blam.Ref[Bitmap]
	Something blam.Vec2
}

type BitmapParameter2 struct {
	ValueA uint16
	ValueB uint16
}

type BitmapParameter4 struct {
	ValueA uint16
	ValueB uint16
	ValueC uint16
}

type BitmapReferenceSetting struct {
	ValueA int16
	ValueB int16
	Bitmap blam.Ref[Bitmap]
}

// ShaderTemplate is the stem a shader instantiates.
type ShaderTemplate struct {
	Name  string
	Flags uint32
}

func (ShaderTemplate) TagLabel() blam.Label { return blam.MakeLabel("stem") }

var (
	bitmapInfoLayout = blam.DefineShape("BitmapInfo", 80, func(b *blam.Builder[BitmapInfo]) {
		blam.TypedRef(b, 4, "DiffuseBitmap", func(r *BitmapInfo) *blam.Ref[Bitmap] { return &r.DiffuseBitmap })
		blam.TypedRef(b, 12, "EmissiveBitmap", func(r *BitmapInfo) *blam.Ref[Bitmap] { return &r.EmissiveBitmap })
		blam.Value(b, 16, "Param1", blam.Float32, func(r *BitmapInfo) *float32 { return &r.Param1 })
		blam.Value(b, 20, "Param2", blam.Float32, func(r *BitmapInfo) *float32 { return &r.Param2 })
		blam.Value(b, 24, "Param3", blam.Float32, func(r *BitmapInfo) *float32 { return &r.Param3 })
		blam.Value(b, 28, "Param4", blam.Float32, func(r *BitmapInfo) *float32 { return &r.Param4 })
		blam.TypedRef(b, 48, "AlphaBitmap", func(r *BitmapInfo) *blam.Ref[Bitmap] { return &r.AlphaBitmap })
	})

	shaderMapLayout = blam.DefineShape("ShaderMap", 12, func(b *blam.Builder[ShaderMap]) {
		blam.TypedRef(b, 0, "Bitmap", func(r *ShaderMap) *blam.Ref[Bitmap] { return &r.Bitmap })
		blam.Value(b, 4, "Something", blam.Vector2, func(r *ShaderMap) *blam.Vec2 { return &r.Something })
	})

	bitmapParameter2Layout = blam.DefineShape("BitmapParameter2", 4, func(b *blam.Builder[BitmapParameter2]) {
		blam.Value(b, 0, "ValueA", blam.Uint16, func(r *BitmapParameter2) *uint16 { return &r.ValueA })
		blam.Value(b, 2, "ValueB", blam.Uint16, func(r *BitmapParameter2) *uint16 { return &r.ValueB })
	})

	bitmapParameter4Layout = blam.DefineShape("BitmapParameter4", 6, func(b *blam.Builder[BitmapParameter4]) {
		blam.Value(b, 0, "ValueA", blam.Uint16, func(r *BitmapParameter4) *uint16 { return &r.ValueA })
		blam.Value(b, 2, "ValueB", blam.Uint16, func(r *BitmapParameter4) *uint16 { return &r.ValueB })
		blam.Value(b, 4, "ValueC", blam.Uint16, func(r *BitmapParameter4) *uint16 { return &r.ValueC })
	})

	shaderArgumentsLayout = blam.DefineShape("ShaderArguments", 124, func(b *blam.Builder[ShaderArguments]) {
		blam.TypedRef(b, 0, "Template", func(r *ShaderArguments) *blam.Ref[ShaderTemplate] { return &r.Template })
		blam.Blocks(b, 4, "ShaderMaps", shaderMapLayout, func(r *ShaderArguments) *[]ShaderMap { return &r.ShaderMaps })
		blam.Blocks(b, 12, "BitmapParameter2s", bitmapParameter2Layout, func(r *ShaderArguments) *[]BitmapParameter2 { return &r.BitmapParameter2s })
		blam.PrimBlocks(b, 20, "ShaderInputs", blam.Vector4, func(r *ShaderArguments) *[]blam.Vec4 { return &r.ShaderInputs })
		blam.Blocks(b, 28, "BitmapParameter4s", bitmapParameter4Layout, func(r *ShaderArguments) *[]BitmapParameter4 { return &r.BitmapParameter4s })
	})

	bitmapReferenceSettingLayout = blam.DefineShape("BitmapReferenceSetting", 8, func(b *blam.Builder[BitmapReferenceSetting]) {
		blam.Value(b, 0, "ValueA", blam.Int16, func(r *BitmapReferenceSetting) *int16 { return &r.ValueA })
		blam.Value(b, 2, "ValueB", blam.Int16, func(r *BitmapReferenceSetting) *int16 { return &r.ValueB })
		blam.TypedRef(b, 4, "Bitmap", func(r *BitmapReferenceSetting) *blam.Ref[Bitmap] { return &r.Bitmap })
	})
)

var ShaderLayout = blam.DefineTag(52, func(b *blam.Builder[Shader]) {
	blam.Text(b, 0, 4, "StemTag", func(t *Shader) *string { return &t.StemTag })
	blam.TypedRef(b, 4, "Template", func(t *Shader) *blam.Ref[ShaderTemplate] { return &t.Template })
	blam.Blocks(b, 12, "BitmapInfos", bitmapInfoLayout, func(t *Shader) *[]BitmapInfo { return &t.BitmapInfos })
	blam.Blocks(b, 32, "Arguments", shaderArgumentsLayout, func(t *Shader) *[]ShaderArguments { return &t.Arguments })
	blam.Blocks(b, 44, "BitmapReferenceSettings", bitmapReferenceSettingLayout, func(t *Shader) *[]BitmapReferenceSetting {
		return &t.BitmapReferenceSettings
	})
})

var ShaderTemplateLayout = blam.DefineTag(36, func(b *blam.Builder[ShaderTemplate]) {
	blam.Text(b, 0, 32, "Name", func(t *ShaderTemplate) *string { return &t.Name })
	blam.Value(b, 32, "Flags", blam.Uint32, func(t *ShaderTemplate) *uint32 { return &t.Flags })
})
