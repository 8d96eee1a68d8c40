package french

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aristath/factorlens/internal/domain"
)

// ErrNoData is returned when a file has no recognizable daily section.
var ErrNoData = errors.New("no daily rows found")

var fiveFactorColumns = []string{
	domain.FactorMktRF,
	domain.FactorSMB,
	domain.FactorHML,
	domain.FactorRMW,
	domain.FactorCMA,
	domain.FactorRF,
}

// ParseFiveFactors reads the daily five factor CSV. Values in the file are
// percentages and are returned as fractions.
func ParseFiveFactors(data []byte) ([]domain.FactorRow, error) {
	table, err := readDailyTable(data, domain.FactorMktRF)
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(fiveFactorColumns))
	for _, name := range fiveFactorColumns {
		i, ok := table.columns[name]
		if !ok {
			return nil, fmt.Errorf("missing column %s", name)
		}
		idx[name] = i
	}

	rows := make([]domain.FactorRow, 0, len(table.rows))
	for _, rec := range table.rows {
		vals := make(map[string]float64, len(idx))
		ok := true
		for name, i := range idx {
			v, err := percent(rec.fields, i)
			if err != nil {
				ok = false
				break
			}
			vals[name] = v
		}
		if !ok {
			continue
		}
		rows = append(rows, domain.FactorRow{
			Date:  rec.date,
			MktRF: vals[domain.FactorMktRF],
			SMB:   vals[domain.FactorSMB],
			HML:   vals[domain.FactorHML],
			RMW:   vals[domain.FactorRMW],
			CMA:   vals[domain.FactorCMA],
			RF:    vals[domain.FactorRF],
		})
	}

	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return rows, nil
}

// ParseMomentum reads the daily momentum CSV into fractions keyed by date.
func ParseMomentum(data []byte) (map[string]float64, error) {
	table, err := readDailyTable(data, "Mom")
	if err != nil {
		return nil, err
	}
	col := table.columns["Mom"]

	out := make(map[string]float64, len(table.rows))
	for _, rec := range table.rows {
		v, err := percent(rec.fields, col)
		if err != nil {
			continue
		}
		out[rec.date] = v
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

// MergeMomentum attaches momentum to matching rows. HasMomentum is true
// when at least one row received a value.
func MergeMomentum(set domain.FactorSet, mom map[string]float64) domain.FactorSet {
	out := domain.FactorSet{Rows: make([]domain.FactorRow, len(set.Rows))}
	for i, row := range set.Rows {
		if v, ok := mom[row.Date]; ok {
			v := v
			row.MOM = &v
			out.HasMomentum = true
		}
		out.Rows[i] = row
	}
	return out
}

type dailyRecord struct {
	date   string
	fields []string
}

type dailyTable struct {
	columns map[string]int
	rows    []dailyRecord
}

// readDailyTable skips the preamble up to the header naming marker, then
// collects rows whose first field is a YYYYMMDD date until the first row
// that is not.
func readDailyTable(data []byte, marker string) (*dailyTable, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var table *dailyTable
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		if table == nil {
			cols := headerColumns(rec)
			if _, ok := cols[marker]; ok {
				table = &dailyTable{columns: cols}
			}
			continue
		}

		date, ok := parseDate(rec)
		if !ok {
			if len(table.rows) > 0 {
				break
			}
			continue
		}
		table.rows = append(table.rows, dailyRecord{date: date, fields: rec})
	}

	if table == nil || len(table.rows) == 0 {
		return nil, ErrNoData
	}
	return table, nil
}

func headerColumns(rec []string) map[string]int {
	cols := make(map[string]int, len(rec))
	for i, name := range rec {
		name = strings.TrimSpace(name)
		if name != "" {
			cols[name] = i
		}
	}
	return cols
}

func parseDate(rec []string) (string, bool) {
	if len(rec) == 0 {
		return "", false
	}
	d := strings.TrimSpace(rec[0])
	if len(d) != 8 {
		return "", false
	}
	for _, ch := range d {
		if ch < '0' || ch > '9' {
			return "", false
		}
	}
	return d[0:4] + "-" + d[4:6] + "-" + d[6:8], true
}

func percent(fields []string, i int) (float64, error) {
	if i >= len(fields) {
		return 0, fmt.Errorf("missing field %d", i)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
	if err != nil {
		return 0, err
	}
	return v / 100, nil
}
