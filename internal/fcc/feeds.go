package fcc

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"

	"github.com/dialscan/stationdb/internal/model"
)

// Feed query URLs for the full FM and AM directory dumps.
const (
	FMFeedURL = "https://transition.fcc.gov/fcc-bin/fmq?call=&filenumber=&state=&city=&freq=88.1&fre2=107.9&serv=FM&status=3&facid=&asrn=&class=&list=4&NextTab=Results+to+Next+Page%2FTab&dist=&dlat2=&mlat2=&slat2=&NS=N&dlon2=&mlon2=&slon2=&EW=W&size=9"
	AMFeedURL = "https://transition.fcc.gov/fcc-bin/amq?call=&filenumber=&state=&city=&freq=530&fre2=1700&type=3&facid=&class=&hours=&list=4&NextTab=Results+to+Next+Page%2FTab&dist=&dlat2=&mlat2=&slat2=&NS=N&dlon2=&mlon2=&slon2=&EW=W&size=9"
)

// FeedURL returns the default dump URL for a service.
func FeedURL(service model.ServiceType) string {
	if service == model.ServiceAM {
		return AMFeedURL
	}
	return FMFeedURL
}

// SourceID returns the provenance string stamped on rows ingested from the
// given service's feed.
func SourceID(service model.ServiceType) string {
	return "FCC_" + string(service)
}

// ReadLines reads an entire feed body and splits it into records. The dumps
// occasionally carry Latin-1 bytes in licensee names; those are transcoded
// to UTF-8 so the store never rejects a row over encoding.
func ReadLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, eris.Wrap(err, "fcc: read feed")
	}

	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, eris.Wrap(err, "fcc: decode latin-1 feed")
		}
		data = decoded
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}
