// Package fcc parses the FCC FM and AM query dumps into normalized station
// drafts. Each dump is a sequence of pipe-delimited records; the column
// layout is declared in mappings.yaml rather than hard-coded so that feed
// drift is a data change, not a code change.
package fcc

import (
	_ "embed"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/dialscan/stationdb/internal/model"
)

//go:embed mappings.yaml
var mappingsYAML []byte

// FieldMap maps a field name to its pipe-delimited column index.
type FieldMap map[string]int

// MinFields returns the minimum number of columns a record must have for
// every mapped field to be addressable.
func (m FieldMap) MinFields() int {
	max := 0
	for _, idx := range m {
		if idx > max {
			max = idx
		}
	}
	return max + 1
}

// Format describes one feed variant: which service it carries and where its
// fields live.
type Format struct {
	Service model.ServiceType
	Fields  FieldMap
}

var (
	formatsOnce sync.Once
	formats     map[model.ServiceType]Format
	formatsErr  error
)

// FormatFor returns the parsing format for the given service.
func FormatFor(service model.ServiceType) (Format, error) {
	formatsOnce.Do(func() {
		var raw struct {
			FM FieldMap `yaml:"fm"`
			AM FieldMap `yaml:"am"`
		}
		if err := yaml.Unmarshal(mappingsYAML, &raw); err != nil {
			formatsErr = eris.Wrap(err, "fcc: parse field mappings")
			return
		}
		formats = map[model.ServiceType]Format{
			model.ServiceFM: {Service: model.ServiceFM, Fields: raw.FM},
			model.ServiceAM: {Service: model.ServiceAM, Fields: raw.AM},
		}
	})
	if formatsErr != nil {
		return Format{}, formatsErr
	}
	f, ok := formats[service]
	if !ok {
		return Format{}, eris.Errorf("fcc: no format for service %q", service)
	}
	return f, nil
}
