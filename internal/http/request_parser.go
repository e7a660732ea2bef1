// Package http provides the JSON view API over the dashboard.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ledgerstats/internal/core"
)

// maxBodyBytes caps request bodies; filter specs are small.
const maxBodyBytes = 1 << 20

// ParseTableQuery reads the table paging and sorting parameters. Missing or
// malformed numbers are left zero so the table applies its defaults.
func ParseTableQuery(query url.Values) core.TableQuery {
	return core.TableQuery{
		SortBy:            strings.TrimSpace(query.Get("sort_by")),
		SortOrder:         strings.ToLower(strings.TrimSpace(query.Get("sort_order"))),
		Page:              atoiOrZero(query.Get("page")),
		PageSize:          atoiOrZero(query.Get("page_size")),
		FreqSortField:     strings.TrimSpace(query.Get("freq_sort_field")),
		FreqSortEmptyLast: parseBool(query.Get("freq_sort_empty_last")),
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

// DecodeFilterSpec reads a FilterSpec from a JSON body. Unknown fields are
// rejected so typos do not silently widen the filter.
func DecodeFilterSpec(r *http.Request) (core.FilterSpec, error) {
	var spec core.FilterSpec
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return core.FilterSpec{}, errors.New("empty request body")
		}
		return core.FilterSpec{}, fmt.Errorf("decode filter: %w", err)
	}
	spec.SearchQuery = sanitizeInput(spec.SearchQuery)
	return spec, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(trimmed, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetList returns a list value: a JSON array, repeated form keys, or a
// comma-separated single value. Blank entries are dropped.
func (p *RequestBodyParser) GetList(key string) []string {
	var raw []string
	switch {
	case p.jsonData != nil:
		switch val := p.jsonData[key].(type) {
		case []any:
			for _, item := range val {
				raw = append(raw, stringValue(item))
			}
		case nil:
		default:
			raw = strings.Split(stringValue(val), ",")
		}
	case p.formData != nil:
		values := p.formData[key]
		if len(values) == 1 {
			values = strings.Split(values[0], ",")
		}
		raw = values
	}

	out := []string{}
	for _, v := range raw {
		if v = sanitizeInput(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Has reports whether key was present in the body.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
