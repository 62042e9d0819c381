// Package patch applies tag patch documents to a writable map buffer.
//
// A patch document names tags and, for each, a list of selectors into the
// tag's declared layout with the value to store there:
//
//	[
//	  // comments and trailing commas are accepted
//	  {"tag": "shaders\\opaque", "properties": [
//	    {"selector": "BitmapInfos[0].Param1", "value": 1.5},
//	  ]},
//	]
//
// Writes are layout-identical: a field is overwritten with exactly the
// bytes its declared kind reads, and nothing else in the buffer changes.
package patch

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
)

// Document is an ordered list of tag patches.
type Document []TagPatch

// TagPatch targets one tag by name, "name.label" or identifier.
type TagPatch struct {
	Tag        string          `json:"tag"`
	Properties []PropertyPatch `json:"properties"`
}

// PropertyPatch writes Value at Selector.
type PropertyPatch struct {
	Selector string `json:"selector"`
	Value    Value  `json:"value"`
}

// Value is the textual form of a patched value. JSON strings are taken as
// is; numbers and booleans keep their literal text.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	if len(b) == 0 || b[0] == '{' || b[0] == '[' || string(b) == "null" {
		return fmt.Errorf("patch value must be a string, number or boolean, got %s", b)
	}
	*v = Value(b)
	return nil
}

// Parse reads a patch document. Comments and trailing commas are stripped
// first.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, fmt.Errorf("parsing patch document: %w", err)
	}
	for i, tp := range doc {
		if tp.Tag == "" {
			return nil, fmt.Errorf("patch %d: missing tag", i)
		}
		for j, pp := range tp.Properties {
			if pp.Selector == "" {
				return nil, fmt.Errorf("patch %d (%s) property %d: missing selector", i, tp.Tag, j)
			}
		}
	}
	return doc, nil
}

// ReadFile reads and parses the patch document at path.
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
