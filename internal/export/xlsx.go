// Package export writes station listings to spreadsheet files.
package export

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/dialscan/stationdb/internal/model"
)

var headerRow = []string{
	"Call Sign", "Service", "Frequency", "Station Name", "City", "State",
	"Latitude", "Longitude", "Power (W)", "Genre", "Status", "Source",
}

// WriteXLSX writes stations to an XLSX workbook at path.
func WriteXLSX(path string, stations []model.Station) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Stations")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	hdr := sheet.AddRow()
	for _, h := range headerRow {
		hdr.AddCell().SetString(h)
	}

	for _, st := range stations {
		row := sheet.AddRow()
		row.AddCell().SetString(st.CallSign)
		row.AddCell().SetString(string(st.ServiceType))
		row.AddCell().SetString(st.FrequencyLabel())
		row.AddCell().SetString(strOrEmpty(st.StationName))
		row.AddCell().SetString(st.City)
		row.AddCell().SetString(st.State)
		row.AddCell().SetString(floatOrEmpty(st.Latitude, 6))
		row.AddCell().SetString(floatOrEmpty(st.Longitude, 6))
		row.AddCell().SetString(floatOrEmpty(st.PowerWatts, 0))
		row.AddCell().SetString(strOrEmpty(st.Genre))
		row.AddCell().SetString(st.Status)
		row.AddCell().SetString(st.DataSource)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(f *float64, prec int) string {
	if f == nil {
		return ""
	}
	if prec == 0 {
		return strconv.FormatInt(int64(*f), 10)
	}
	return fmt.Sprintf("%.*f", prec, *f)
}
