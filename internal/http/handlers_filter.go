package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"ledgerstats/internal/core"
)

// filterState is the body returned by every filter endpoint.
type filterState struct {
	Filter     core.FilterSpec  `json:"filter"`
	Tags       []core.FilterTag `json:"tags"`
	TagOptions []string         `json:"tagOptions"`
}

func (s *Server) currentFilter() filterState {
	return filterState{
		Filter:     s.dash.Filter(),
		Tags:       s.dash.FilterTags(),
		TagOptions: s.dash.TagOptions(),
	}
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]any{
		"filterOptions": s.dash.FilterOptions(),
		"tagOptions":    s.dash.TagOptions(),
		"categoryMeta":  s.dash.CategoryMeta(),
		"viewOptions":   s.dash.ViewOptions(),
	})
}

func (s *Server) handleGetFilter(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.currentFilter())
}

// handleSetFilter replaces the whole filter.
func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	spec, err := DecodeFilterSpec(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.dash.SetFilter(spec); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, s.currentFilter())
}

func (s *Server) handleResetFilter(w http.ResponseWriter, r *http.Request) {
	s.dash.ResetFilter()
	writeData(w, s.currentFilter())
}

// handleChangeCategories selects categories from a JSON or form body and
// narrows the tag options to match.
func (s *Server) handleChangeCategories(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	s.dash.ChangeCategories(parser.GetList("categories"))
	writeData(w, s.currentFilter())
}

func (s *Server) handleRemoveFilterTag(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.dash.RemoveFilterTag(vars["type"], vars["value"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, s.currentFilter())
}
