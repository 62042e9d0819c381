package tags

import (
	"fmt"

	"github.com/samcharles93/h2tags/pkg/blam"
)

// LevelCount is the number of level-of-detail payload slots in a bitmap.
const LevelCount = 6

type TextureType uint16

const (
	Texture2D TextureType = iota
	Texture3D
	TextureCube
	TextureSprite
	TextureInterface
)

func (t TextureType) String() string {
	switch t {
	case Texture2D:
		return "2d"
	case Texture3D:
		return "3d"
	case TextureCube:
		return "cube"
	case TextureSprite:
		return "sprite"
	case TextureInterface:
		return "interface"
	default:
		return fmt.Sprintf("texture_type(%d)", uint16(t))
	}
}

func (t TextureType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

type TextureFormat uint16

const (
	FormatDXT1 TextureFormat = iota
	FormatDXT23
	FormatDXT45
	Format16Bit
	Format32Bit
	FormatMonochrome
)

func (f TextureFormat) String() string {
	switch f {
	case FormatDXT1:
		return "dxt1"
	case FormatDXT23:
		return "dxt2/3"
	case FormatDXT45:
		return "dxt4/5"
	case Format16Bit:
		return "16bit"
	case Format32Bit:
		return "32bit"
	case FormatMonochrome:
		return "monochrome"
	default:
		return fmt.Sprintf("texture_format(%d)", uint16(f))
	}
}

func (f TextureFormat) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

type TextureUsage uint16

// TextureProperties is a bit set of per-bitmap flags.
type TextureProperties uint16

// Bitmap holds texture metadata. Pixel data for each level of detail lives
// outside the tag and is fetched into LevelsOfDetail by the second pass.
type Bitmap struct {
	TextureType   TextureType
	TextureFormat TextureFormat
	TextureUsage  TextureUsage
	MipMapCount   int16

	Tag          string
	Width        int16
	Height       int16
	Depth        int16
	Type         int16
	Format       int16
	Properties   TextureProperties
	RegX         int16
	RegY         int16
	MipMapCount2 int16
	PixelOffset  int16

	LodOffsets     []uint32
	LodSizes       []uint32
	LevelsOfDetail []blam.ExternalSpan
	ID             uint32
}

func (Bitmap) TagLabel() blam.Label { return blam.MakeLabel("bitm") }

// Level returns the payload of level i, or nil when it was not loaded.
func (b *Bitmap) Level(i int) []byte {
	if i < 0 || i >= len(b.LevelsOfDetail) {
		return nil
	}
	return b.LevelsOfDetail[i].Data
}

var BitmapLayout = blam.DefineTag(160, func(b *blam.Builder[Bitmap]) {
	blam.Value(b, 0, "TextureType", blam.Enum16[TextureType](), func(t *Bitmap) *TextureType { return &t.TextureType })
	blam.Value(b, 2, "TextureFormat", blam.Enum16[TextureFormat](), func(t *Bitmap) *TextureFormat { return &t.TextureFormat })
	blam.Value(b, 4, "TextureUsage", blam.Enum16[TextureUsage](), func(t *Bitmap) *TextureUsage { return &t.TextureUsage })
	blam.Value(b, 52, "MipMapCount", blam.Int16, func(t *Bitmap) *int16 { return &t.MipMapCount })
	blam.Text(b, 80, 4, "Tag", func(t *Bitmap) *string { return &t.Tag })
	blam.Value(b, 84, "Width", blam.Int16, func(t *Bitmap) *int16 { return &t.Width })
	blam.Value(b, 86, "Height", blam.Int16, func(t *Bitmap) *int16 { return &t.Height })
	blam.Value(b, 88, "Depth", blam.Int16, func(t *Bitmap) *int16 { return &t.Depth })
	blam.Value(b, 90, "Type", blam.Int16, func(t *Bitmap) *int16 { return &t.Type })
	blam.Value(b, 92, "Format", blam.Int16, func(t *Bitmap) *int16 { return &t.Format })
	blam.Value(b, 94, "Properties", blam.Enum16[TextureProperties](), func(t *Bitmap) *TextureProperties { return &t.Properties })
	blam.Value(b, 96, "RegX", blam.Int16, func(t *Bitmap) *int16 { return &t.RegX })
	blam.Value(b, 98, "RegY", blam.Int16, func(t *Bitmap) *int16 { return &t.RegY })
	blam.Value(b, 100, "MipMapCount2", blam.Int16, func(t *Bitmap) *int16 { return &t.MipMapCount2 })
	blam.Value(b, 102, "PixelOffset", blam.Int16, func(t *Bitmap) *int16 { return &t.PixelOffset })
	blam.Array(b, 108, LevelCount, "LodOffsets", blam.Uint32, func(t *Bitmap) *[]uint32 { return &t.LodOffsets })
	blam.Array(b, 132, LevelCount, "LodSizes", blam.Uint32, func(t *Bitmap) *[]uint32 { return &t.LodSizes })
	blam.Value(b, 156, "ID", blam.Uint32, func(t *Bitmap) *uint32 { return &t.ID })
	blam.External(b, 108, 132, LevelCount, "LevelsOfDetail", func(t *Bitmap) *[]blam.ExternalSpan { return &t.LevelsOfDetail })
})
