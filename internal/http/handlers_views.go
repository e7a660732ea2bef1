package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"ledgerstats/internal/core"
	"ledgerstats/internal/log"
	"ledgerstats/internal/sources/excel"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleGetViewOptions(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.dash.ViewOptions())
}

// handleSetViewOptions accepts seriesUnit and pivotUnit; either may be
// omitted.
func (s *Server) handleSetViewOptions(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	opts, err := s.dash.SetViewOptions(parser.Get("seriesUnit"), parser.Get("pivotUnit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, opts)
}

func (s *Server) handleAverages(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.dash.Averages())
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	cal := s.dash.Calendar()
	writeData(w, map[string]any{
		"years": cal.Years(),
		"days":  cal,
	})
}

// handleSeries uses ?unit= when given, else the selected series unit.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	unit := s.dash.ViewOptions().SeriesUnit
	if raw := r.URL.Query().Get("unit"); raw != "" {
		u, err := core.ParseTimeUnit(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		unit = u
	}
	writeData(w, s.dash.Series(unit))
}

// handlePivot uses ?unit= when given, else the selected pivot unit.
// ?ranked=true orders buckets by amount.
func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	unit := s.dash.ViewOptions().PivotUnit
	if raw := query.Get("unit"); raw != "" {
		u, err := core.ParsePivotUnit(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		unit = u
	}
	writeData(w, s.dash.Pivot(unit, parseBool(query.Get("ranked"))))
}

func (s *Server) handlePie(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("field")
	if field == "" {
		field = "category"
	}
	pie, err := s.dash.Pie(field)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, pie)
}

func (s *Server) handleTimeSpan(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.dash.TimeSpan())
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.dash.Timeline())
}

func (s *Server) handleTimelineMore(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.dash.LoadMoreTimeline())
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.dash.Table(ParseTableQuery(r.URL.Query())))
}

// handleExport streams the table set as an xlsx workbook. The workbook is
// built in memory first so a failure can still be reported as JSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	records := s.dash.TableRecords()

	var buf bytes.Buffer
	if err := excel.WriteRecords(&buf, records); err != nil {
		s.writeError(w, r, fmt.Errorf("export workbook: %w", err))
		return
	}

	filename := fmt.Sprintf("ledger-%s.xlsx", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Export interrupted",
			log.FieldRecords, len(records),
			log.FieldError, err)
	}
}
