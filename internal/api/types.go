package api

import (
	"github.com/samcharles93/h2tags/pkg/blam"
)

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

type MapInfo struct {
	Object       string            `json:"object"`
	SessionID    string            `json:"session_id"`
	Path         string            `json:"path,omitempty"`
	Name         string            `json:"name"`
	Build        string            `json:"build"`
	ScenarioPath string            `json:"scenario_path"`
	Version      int32             `json:"version"`
	TotalBytes   int32             `json:"total_bytes"`
	Compressed   bool              `json:"compressed"`
	Signature    string            `json:"signature"`
	ScenarioID   blam.TagID        `json:"scenario_id"`
	GlobalsID    blam.TagID        `json:"globals_id"`
	SharedFiles  []blam.DataFile   `json:"shared_files,omitempty"`
	Entries      int               `json:"entries"`
	Loaded       int               `json:"loaded"`
	Failures     int               `json:"failures"`
	Labels       []blam.LabelCount `json:"labels"`
}

type TagSummary struct {
	ID     blam.TagID `json:"id"`
	Label  blam.Label `json:"label"`
	Name   string     `json:"name,omitempty"`
	Offset int        `json:"offset"`
	Size   int        `json:"size"`
	Loaded bool       `json:"loaded"`
	Typed  bool       `json:"typed"`
}

type TagList struct {
	Object string       `json:"object"`
	Data   []TagSummary `json:"data"`
}

type TagDetail struct {
	Object string `json:"object"`
	TagSummary
	Fingerprint string       `json:"fingerprint"`
	Body        any          `json:"body,omitempty"`
	Chunks      []blam.Chunk `json:"chunks"`
}

type RefView struct {
	Path   string      `json:"path"`
	ID     blam.TagID  `json:"id"`
	Expect blam.Label  `json:"expect,omitzero"`
	Target *TagSummary `json:"target,omitempty"`
	Reason string      `json:"reason,omitempty"`
	Error  string      `json:"error,omitempty"`
}

type RefList struct {
	Object string    `json:"object"`
	Tag    blam.TagID `json:"tag"`
	Data   []RefView `json:"data"`
}

type FieldView struct {
	blam.Field
	Fields []FieldView `json:"fields,omitempty"`
}

type LayoutView struct {
	Object   string      `json:"object"`
	Name     string      `json:"name"`
	Label    blam.Label  `json:"label"`
	Size     int         `json:"size"`
	External bool        `json:"external"`
	Fields   []FieldView `json:"fields"`
}

type LayoutList struct {
	Object string       `json:"object"`
	Data   []LayoutView `json:"data"`
}

type FailureView struct {
	ID      blam.TagID `json:"id"`
	Label   blam.Label `json:"label"`
	Name    string     `json:"name,omitempty"`
	Pass    string     `json:"pass"`
	Reason  string     `json:"reason"`
	Message string     `json:"message"`
}

type ReportView struct {
	Object   string        `json:"object"`
	Entries  int           `json:"entries"`
	Loaded   int           `json:"loaded"`
	Untyped  int           `json:"untyped"`
	External int           `json:"external"`
	Failures []FailureView `json:"failures"`
}
