package api

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/h2tags/pkg/blam"
	"github.com/samcharles93/h2tags/pkg/h2map"
)

// Server exposes one loaded session read-only.
type Server struct {
	session  *h2map.Session
	failures map[blam.TagID]blam.Failure
}

// NewServer serves s, which must already be loaded.
func NewServer(s *h2map.Session) *Server {
	srv := &Server{session: s, failures: make(map[blam.TagID]blam.Failure)}
	if s != nil && s.Report != nil {
		for _, f := range s.Report.Failures {
			srv.failures[f.ID] = f
		}
	}
	return srv
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/map", s.handleMap)
	e.GET("/v1/tags", s.handleListTags)
	e.GET("/v1/tags/:id", s.handleGetTag)
	e.GET("/v1/tags/:id/refs", s.handleTagRefs)
	e.GET("/v1/layouts", s.handleListLayouts)
	e.GET("/v1/layouts/:label", s.handleGetLayout)
	e.GET("/v1/report", s.handleReport)
}

func (s *Server) ready(c *echo.Context) (*blam.Graph, error) {
	if s.session == nil || s.session.Graph == nil {
		return nil, writeError(c, http.StatusServiceUnavailable, "server_error", "map not loaded", "", "")
	}
	return s.session.Graph, nil
}

func (s *Server) handleMap(c *echo.Context) error {
	g, err := s.ready(c)
	if g == nil {
		return err
	}
	m := s.session.Map
	info := MapInfo{
		Object:       "map",
		SessionID:    s.session.ID,
		Path:         s.session.Path,
		Name:         m.Header.Name,
		Build:        m.Header.Build,
		ScenarioPath: m.Header.ScenarioPath,
		Version:      m.Header.Version,
		TotalBytes:   m.Header.TotalBytes,
		Compressed:   m.Compressed(),
		Signature:    fmt.Sprintf("0x%08X", m.Header.StoredSignature),
		ScenarioID:   m.Index.Header.ScenarioID,
		GlobalsID:    m.Index.Header.GlobalsID,
		Entries:      m.Index.Len(),
		Loaded:       g.Len(),
		Failures:     len(s.failures),
		Labels:       m.Index.LabelCounts(),
	}
	for file := range s.session.Shared {
		info.SharedFiles = append(info.SharedFiles, file)
	}
	slices.Sort(info.SharedFiles)
	return writeJSON(c, http.StatusOK, info)
}

func (s *Server) handleListTags(c *echo.Context) error {
	g, err := s.ready(c)
	if g == nil {
		return err
	}
	var filter *blam.Label
	if q := strings.TrimSpace(c.QueryParam("label")); q != "" {
		l, err := blam.ParseLabel(q)
		if err != nil {
			return writeBadRequest(c, newInvalidRequest("label", "%v", err))
		}
		filter = &l
	}
	list := TagList{Object: "list", Data: []TagSummary{}}
	for _, e := range g.Index().Entries() {
		if filter != nil && e.Label != *filter {
			continue
		}
		t, _ := g.Tag(e.ID)
		list.Data = append(list.Data, summarize(e, t))
	}
	return writeJSON(c, http.StatusOK, list)
}

// lookup finds the entry named by the :id parameter and its loaded tag,
// writing the error response itself when either is missing.
func (s *Server) lookup(c *echo.Context, g *blam.Graph) (blam.Entry, *blam.Tag, error) {
	e, err := findEntry(g.Index(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			return e, nil, writeBadRequest(c, err)
		}
		return e, nil, writeNotFound(c, err.Error())
	}
	t, ok := g.Tag(e.ID)
	if !ok {
		msg := fmt.Sprintf("tag %s failed to load", e.ID)
		code := blam.ReasonUnknown
		if f, ok := s.failures[e.ID]; ok {
			msg = fmt.Sprintf("tag %s failed to load in the %s pass: %v", e.ID, f.Pass, f.Err)
			code = f.Reason()
		}
		return e, nil, writeError(c, http.StatusUnprocessableEntity, "load_error", msg, "id", code)
	}
	return e, t, nil
}

func (s *Server) handleGetTag(c *echo.Context) error {
	g, err := s.ready(c)
	if g == nil {
		return err
	}
	e, t, err := s.lookup(c, g)
	if t == nil {
		return err
	}
	return writeJSON(c, http.StatusOK, TagDetail{
		Object:      "tag",
		TagSummary:  summarize(e, t),
		Fingerprint: fmt.Sprintf("%016x", t.Fingerprint()),
		Body:        t.Body,
		Chunks:      t.Chunks,
	})
}

func (s *Server) handleTagRefs(c *echo.Context) error {
	g, err := s.ready(c)
	if g == nil {
		return err
	}
	_, t, err := s.lookup(c, g)
	if t == nil {
		return err
	}
	list := RefList{Object: "list", Tag: t.ID, Data: []RefView{}}
	for _, site := range g.Refs(t) {
		v := RefView{Path: site.Path, ID: site.Ref.ID, Expect: site.Expect}
		if !site.Ref.IsNull() {
			next, err := g.Follow(site)
			if err != nil {
				v.Reason = blam.ReasonOf(err)
				v.Error = err.Error()
			} else {
				e, _ := g.Index().Lookup(next.ID)
				sum := summarize(e, next)
				v.Target = &sum
			}
		}
		list.Data = append(list.Data, v)
	}
	return writeJSON(c, http.StatusOK, list)
}

func (s *Server) handleListLayouts(c *echo.Context) error {
	g, err := s.ready(c)
	if g == nil {
		return err
	}
	list := LayoutList{Object: "list", Data: []LayoutView{}}
	for _, l := range g.Registry().Layouts() {
		list.Data = append(list.Data, layoutView(l))
	}
	return writeJSON(c, http.StatusOK, list)
}

func (s *Server) handleGetLayout(c *echo.Context) error {
	g, err := s.ready(c)
	if g == nil {
		return err
	}
	l, err := blam.ParseLabel(c.Param("label"))
	if err != nil {
		return writeBadRequest(c, newInvalidRequest("label", "%v", err))
	}
	layout, ok := g.Registry().Layout(l)
	if !ok {
		return writeNotFound(c, fmt.Sprintf("no layout registered for %q", l))
	}
	return writeJSON(c, http.StatusOK, layoutView(layout))
}

func (s *Server) handleReport(c *echo.Context) error {
	g, err := s.ready(c)
	if g == nil {
		return err
	}
	rep := s.session.Report
	view := ReportView{
		Object:   "report",
		Entries:  rep.Entries,
		Loaded:   rep.Loaded,
		Untyped:  rep.Untyped,
		External: rep.External,
		Failures: make([]FailureView, 0, len(rep.Failures)),
	}
	for _, f := range rep.Failures {
		view.Failures = append(view.Failures, failureView(f))
	}
	return writeJSON(c, http.StatusOK, view)
}
