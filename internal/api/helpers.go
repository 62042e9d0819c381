package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/h2tags/pkg/blam"
)

func writeBadRequest(c *echo.Context, err error) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), paramOf(err), "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// writeJSON encodes v with go-json.
func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
	return c.JSONBlob(status, b)
}

// findEntry accepts a tag identifier, a tag name or "name.label". Names
// contain backslashes, so the parameter may arrive escaped.
func findEntry(idx *blam.Index, param string) (blam.Entry, error) {
	key, err := url.PathUnescape(param)
	if err != nil {
		return blam.Entry{}, newInvalidRequest("id", "bad tag key %q", param)
	}
	if key == "" {
		return blam.Entry{}, newInvalidRequest("id", "missing tag key")
	}
	e, ok := idx.Find(key)
	if !ok {
		return blam.Entry{}, fmt.Errorf("%w: %s", blam.ErrNotFound, key)
	}
	return e, nil
}

func summarize(e blam.Entry, t *blam.Tag) TagSummary {
	return TagSummary{
		ID:     e.ID,
		Label:  e.Label,
		Name:   e.Name,
		Offset: e.Offset,
		Size:   e.Size,
		Loaded: t != nil,
		Typed:  t != nil && t.Body != nil,
	}
}

func fieldViews(fields []blam.Field) []FieldView {
	out := make([]FieldView, len(fields))
	for i, f := range fields {
		out[i] = FieldView{Field: f}
		if f.Sub != nil {
			out[i].Fields = fieldViews(f.Sub.Fields())
		}
	}
	return out
}

func layoutView(l blam.Layout) LayoutView {
	return LayoutView{
		Object:   "layout",
		Name:     l.Name(),
		Label:    l.Label(),
		Size:     l.Size(),
		External: l.HasExternal(),
		Fields:   fieldViews(l.Fields()),
	}
}

func failureView(f blam.Failure) FailureView {
	return FailureView{
		ID:      f.ID,
		Label:   f.Label,
		Name:    f.Name,
		Pass:    f.Pass,
		Reason:  f.Reason(),
		Message: f.Err.Error(),
	}
}
