package blam

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// TagID identifies a tag within one map.
type TagID uint32

// NoTag is the identifier stored in unset reference fields.
const NoTag TagID = 0xFFFFFFFF

func (id TagID) String() string {
	return fmt.Sprintf("0x%08X", uint32(id))
}

func (id TagID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *TagID) UnmarshalText(b []byte) error {
	v, err := ParseTagID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// ParseTagID accepts decimal or 0x-prefixed hexadecimal identifiers.
func ParseTagID(s string) (TagID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("parse tag id %q: %w", s, err)
	}
	return TagID(v), nil
}

// Label is a four character tag type label such as "bitm".
type Label [4]byte

// MakeLabel builds a label from a string of at most four bytes; shorter
// strings are space padded the way the format pads them.
func MakeLabel(s string) Label {
	l := Label{' ', ' ', ' ', ' '}
	copy(l[:], s)
	return l
}

// ParseLabel is MakeLabel with validation.
func ParseLabel(s string) (Label, error) {
	if len(s) == 0 || len(s) > 4 {
		return Label{}, fmt.Errorf("invalid tag label %q", s)
	}
	return MakeLabel(s), nil
}

func (l Label) String() string {
	return strings.TrimRight(string(l[:]), " \x00")
}

func (l Label) IsZero() bool {
	return l == Label{}
}

func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts the empty string as the zero label.
func (l *Label) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*l = Label{}
		return nil
	}
	v, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Kind is implemented by materialized tag bodies so that typed references
// can check the label of their target without runtime type inspection.
type Kind interface {
	TagLabel() Label
}

// TagRef is an unresolved reference to another tag.
type TagRef struct {
	ID TagID
}

func (r TagRef) IsNull() bool {
	return r.ID == NoTag || r.ID == 0
}

func (r TagRef) MarshalText() ([]byte, error) {
	return r.ID.MarshalText()
}

func (r *TagRef) UnmarshalText(b []byte) error {
	return r.ID.UnmarshalText(b)
}

// Ref is a TagRef annotated with the kind of tag it is expected to address.
type Ref[K Kind] struct {
	ID TagID
}

func (r Ref[K]) Untyped() TagRef {
	return TagRef{ID: r.ID}
}

// Expect returns the label the reference is expected to resolve to.
func (r Ref[K]) Expect() Label {
	var zero K
	return zero.TagLabel()
}

func (r Ref[K]) IsNull() bool {
	return r.Untyped().IsNull()
}

func (r Ref[K]) MarshalText() ([]byte, error) {
	return r.ID.MarshalText()
}

func (r *Ref[K]) UnmarshalText(b []byte) error {
	return r.ID.UnmarshalText(b)
}

// Tag is one materialized asset. ID and Label never change after load;
// Body is the typed object built from the tag's layout and may be edited
// by consumers.
type Tag struct {
	ID     TagID
	Label  Label
	Name   string
	Data   []byte
	Body   any
	Chunks []Chunk
}

// Fingerprint is a content digest of the tag's backing bytes.
func (t *Tag) Fingerprint() uint64 {
	return xxhash.Sum64(t.Data)
}

func (t *Tag) String() string {
	if t.Name == "" {
		return fmt.Sprintf("%s %s", t.Label, t.ID)
	}
	return fmt.Sprintf("%s %s %s", t.Label, t.ID, t.Name)
}
