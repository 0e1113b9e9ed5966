package fcc

import (
	"strings"

	"github.com/dialscan/stationdb/internal/model"
)

// Record is one parsed feed line with fields addressable by mapped name.
type Record struct {
	Service model.ServiceType
	Line    int

	fields []string
	fmap   FieldMap
}

// Field returns the trimmed value of a mapped field, or "" when the field is
// unmapped or the record is too short.
func (r *Record) Field(name string) string {
	idx, ok := r.fmap[name]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

// Trailing returns the trimmed columns in the half-open index range
// [from, to), clipped to the record length. The licensee name lives in an
// unstable trailing position, so the normalizer scans rather than maps it.
func (r *Record) Trailing(from, to int) []string {
	if from < 0 {
		from = 0
	}
	if to > len(r.fields) {
		to = len(r.fields)
	}
	if from >= to {
		return nil
	}
	out := make([]string, 0, to-from)
	for _, f := range r.fields[from:to] {
		out = append(out, strings.TrimSpace(f))
	}
	return out
}

// Parser decodes feed lines for a single format variant.
type Parser struct {
	format Format
}

// NewParser returns a parser for the given service's feed format.
func NewParser(service model.ServiceType) (*Parser, error) {
	f, err := FormatFor(service)
	if err != nil {
		return nil, err
	}
	return &Parser{format: f}, nil
}

// Parse decodes one feed line. A malformed line yields a *ParseError; the
// caller decides whether the batch continues.
func (p *Parser) Parse(line string, lineNum int) (*Record, error) {
	fields := strings.Split(line, "|")
	if len(fields) < p.format.Fields.MinFields() {
		return nil, &ParseError{Line: lineNum, Record: line, Reason: "too few fields"}
	}

	rec := &Record{
		Service: p.format.Service,
		Line:    lineNum,
		fields:  fields,
		fmap:    p.format.Fields,
	}

	if rec.Field("call_sign") == "" {
		return nil, &ParseError{Line: lineNum, Record: line, Reason: "empty call sign"}
	}

	return rec, nil
}
