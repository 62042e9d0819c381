package tags

import (
	"github.com/samcharles93/h2tags/pkg/blam"
)

// Bsp is a structure BSP: the static level geometry of one scenario zone.
type Bsp struct {
	Checksum  int32
	Shaders   []BspShader
	RawBlocks []RawBlock
}

func (Bsp) TagLabel() blam.Label { return blam.MakeLabel("sbsp") }

type BspShader struct {
	Tag     string
	Unknown int32
	Value1  int32
	OldTag  string
	Value2  int32
}

// RawBlock is one collision geometry section.
type RawBlock struct {
	RawObject1s []RawObject1
	RawObject2s []RawObject2
	RawObject3s []RawObject3
	RawObject4s []RawObject4
	RawObject5s []RawObject5
	Faces       []Face
	HalfEdges   []HalfEdge
	Vertices    []Vertex
	Unknown     int32
}

type RawObject1 struct {
	Val1, Val2         uint16
	Unknown1, Unknown2 uint16
}

type RawObject2 struct {
	X, Y, Z, W float32
}

type RawObject3 struct {
	Val1, Val2 uint16
}

type RawObject4 struct {
	Val1, Val2 uint16
}

type RawObject5 struct {
	X, Y, Z float32
	U, V    int16
}

type Face struct {
	Val1      uint16
	FirstEdge uint16
	Val3      uint16
	Val4      uint16
}

type HalfEdge struct {
	Vertex0, Vertex1   uint16
	NextEdge, PrevEdge uint16
	Face0, Face1       uint16
}

type Vertex struct {
	X, Y, Z float32
	Edge    int32
}

var (
	bspShaderLayout = blam.DefineShape("BspShader", 20, func(b *blam.Builder[BspShader]) {
		blam.Text(b, 0, 4, "Tag", func(r *BspShader) *string { return &r.Tag })
		blam.Value(b, 4, "Unknown", blam.Int32, func(r *BspShader) *int32 { return &r.Unknown })
		blam.Value(b, 8, "Value1", blam.Int32, func(r *BspShader) *int32 { return &r.Value1 })
		blam.Text(b, 12, 4, "OldTag", func(r *BspShader) *string { return &r.OldTag })
		blam.Value(b, 16, "Value2", blam.Int32, func(r *BspShader) *int32 { return &r.Value2 })
	})

	rawObject1Layout = blam.DefineShape("RawObject1", 8, func(b *blam.Builder[RawObject1]) {
		blam.Value(b, 0, "Val1", blam.Uint16, func(r *RawObject1) *uint16 { return &r.Val1 })
		blam.Value(b, 2, "Val2", blam.Uint16, func(r *RawObject1) *uint16 { return &r.Val2 })
		blam.Value(b, 4, "Unknown1", blam.Uint16, func(r *RawObject1) *uint16 { return &r.Unknown1 })
		blam.Value(b, 6, "Unknown2", blam.Uint16, func(r *RawObject1) *uint16 { return &r.Unknown2 })
	})

	rawObject2Layout = blam.DefineShape("RawObject2", 16, func(b *blam.Builder[RawObject2]) {
		blam.Value(b, 0, "X", blam.Float32, func(r *RawObject2) *float32 { return &r.X })
		blam.Value(b, 4, "Y", blam.Float32, func(r *RawObject2) *float32 { return &r.Y })
		blam.Value(b, 8, "Z", blam.Float32, func(r *RawObject2) *float32 { return &r.Z })
		blam.Value(b, 12, "W", blam.Float32, func(r *RawObject2) *float32 { return &r.W })
	})

	rawObject3Layout = blam.DefineShape("RawObject3", 4, func(b *blam.Builder[RawObject3]) {
		blam.Value(b, 0, "Val1", blam.Uint16, func(r *RawObject3) *uint16 { return &r.Val1 })
		blam.Value(b, 2, "Val2", blam.Uint16, func(r *RawObject3) *uint16 { return &r.Val2 })
	})

	rawObject4Layout = blam.DefineShape("RawObject4", 4, func(b *blam.Builder[RawObject4]) {
		blam.Value(b, 0, "Val1", blam.Uint16, func(r *RawObject4) *uint16 { return &r.Val1 })
		blam.Value(b, 2, "Val2", blam.Uint16, func(r *RawObject4) *uint16 { return &r.Val2 })
	})

	rawObject5Layout = blam.DefineShape("RawObject5", 16, func(b *blam.Builder[RawObject5]) {
		blam.Value(b, 0, "X", blam.Float32, func(r *RawObject5) *float32 { return &r.X })
		blam.Value(b, 4, "Y", blam.Float32, func(r *RawObject5) *float32 { return &r.Y })
		blam.Value(b, 8, "Z", blam.Float32, func(r *RawObject5) *float32 { return &r.Z })
		blam.Value(b, 12, "U", blam.Int16, func(r *RawObject5) *int16 { return &r.U })
		blam.Value(b, 14, "V", blam.Int16, func(r *RawObject5) *int16 { return &r.V })
	})

	faceLayout = blam.DefineShape("Face", 8, func(b *blam.Builder[Face]) {
		blam.Value(b, 0, "Val1", blam.Uint16, func(r *Face) *uint16 { return &r.Val1 })
		blam.Value(b, 2, "FirstEdge", blam.Uint16, func(r *Face) *uint16 { return &r.FirstEdge })
		blam.Value(b, 4, "Val3", blam.Uint16, func(r *Face) *uint16 { return &r.Val3 })
		blam.Value(b, 6, "Val4", blam.Uint16, func(r *Face) *uint16 { return &r.Val4 })
	})

	halfEdgeLayout = blam.DefineShape("HalfEdge", 12, func(b *blam.Builder[HalfEdge]) {
		blam.Value(b, 0, "Vertex0", blam.Uint16, func(r *HalfEdge) *uint16 { return &r.Vertex0 })
		blam.Value(b, 2, "Vertex1", blam.Uint16, func(r *HalfEdge) *uint16 { return &r.Vertex1 })
		blam.Value(b, 4, "NextEdge", blam.Uint16, func(r *HalfEdge) *uint16 { return &r.NextEdge })
		blam.Value(b, 6, "PrevEdge", blam.Uint16, func(r *HalfEdge) *uint16 { return &r.PrevEdge })
		blam.Value(b, 8, "Face0", blam.Uint16, func(r *HalfEdge) *uint16 { return &r.Face0 })
		blam.Value(b, 10, "Face1", blam.Uint16, func(r *HalfEdge) *uint16 { return &r.Face1 })
	})

	vertexLayout = blam.DefineShape("Vertex", 16, func(b *blam.Builder[Vertex]) {
		blam.Value(b, 0, "X", blam.Float32, func(r *Vertex) *float32 { return &r.X })
		blam.Value(b, 4, "Y", blam.Float32, func(r *Vertex) *float32 { return &r.Y })
		blam.Value(b, 8, "Z", blam.Float32, func(r *Vertex) *float32 { return &r.Z })
		blam.Value(b, 12, "Edge", blam.Int32, func(r *Vertex) *int32 { return &r.Edge })
	})

	rawBlockLayout = blam.DefineShape("RawBlock", 68, func(b *blam.Builder[RawBlock]) {
		blam.Blocks(b, 0, "RawObject1s", rawObject1Layout, func(r *RawBlock) *[]RawObject1 { return &r.RawObject1s })
		blam.Blocks(b, 8, "RawObject2s", rawObject2Layout, func(r *RawBlock) *[]RawObject2 { return &r.RawObject2s })
		blam.Blocks(b, 16, "RawObject3s", rawObject3Layout, func(r *RawBlock) *[]RawObject3 { return &r.RawObject3s })
		blam.Blocks(b, 24, "RawObject4s", rawObject4Layout, func(r *RawBlock) *[]RawObject4 { return &r.RawObject4s })
		blam.Blocks(b, 32, "RawObject5s", rawObject5Layout, func(r *RawBlock) *[]RawObject5 { return &r.RawObject5s })
		blam.Blocks(b, 40, "Faces", faceLayout, func(r *RawBlock) *[]Face { return &r.Faces })
		blam.Blocks(b, 48, "HalfEdges", halfEdgeLayout, func(r *RawBlock) *[]HalfEdge { return &r.HalfEdges })
		blam.Blocks(b, 56, "Vertices", vertexLayout, func(r *RawBlock) *[]Vertex { return &r.Vertices })
		blam.Value(b, 64, "Unknown", blam.Int32, func(r *RawBlock) *int32 { return &r.Unknown })
	})
)

var BspLayout = blam.DefineTag(28, func(b *blam.Builder[Bsp]) {
	blam.Value(b, 8, "Checksum", blam.Int32, func(t *Bsp) *int32 { return &t.Checksum })
	blam.Blocks(b, 12, "Shaders", bspShaderLayout, func(t *Bsp) *[]BspShader { return &t.Shaders })
	blam.Blocks(b, 20, "RawBlocks", rawBlockLayout, func(t *Bsp) *[]RawBlock { return &t.RawBlocks })
})
