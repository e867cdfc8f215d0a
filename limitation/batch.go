package limitation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	// ErrMissingColumns signals a CSV header that names none of the date columns.
	ErrMissingColumns = errors.New("limitation: csv header has no date columns")
	// ErrMalformedCSV signals input that cannot be read as comma separated records.
	ErrMalformedCSV = errors.New("limitation: malformed csv")
)

// BatchRow is one evaluated CSV record.
type BatchRow struct {
	Line   int
	CaseID string
	Dates  Dates
	Result Result
}

var headerAliases = map[string]string{
	"case_id":                  "case_id",
	"caseid":                   "case_id",
	"id":                       "case_id",
	"processo":                 "case_id",
	"triggering_event_date":    "trigger",
	"data_fato_gerador":        "trigger",
	"fato_gerador":             "trigger",
	"registration_date":        "registration",
	"data_inscricao":           "registration",
	"inscricao":                "registration",
	"citation_date":            "citation",
	"data_citacao":             "citation",
	"citacao":                  "citation",
	"last_movement_date":       "last_movement",
	"data_ultima_movimentacao": "last_movement",
	"ultima_movimentacao":      "last_movement",
}

// EvaluateCSV evaluates every record of a CSV whose header names a case id
// column and any of the four date columns. Unparseable dates are absent.
func EvaluateCSV(r io.Reader, now time.Time) ([]BatchRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrMalformedCSV)
		}
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedCSV, err)
	}
	if len(header) == 1 && strings.Contains(header[0], ";") {
		return nil, fmt.Errorf("%w: expected comma separated values", ErrMalformedCSV)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if canonical, ok := headerAliases[key]; ok {
			if _, seen := columns[canonical]; !seen {
				columns[canonical] = i
			}
		}
	}
	if !hasAny(columns, "trigger", "registration", "citation", "last_movement") {
		return nil, ErrMissingColumns
	}

	out := make([]BatchRow, 0, 16)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}

		row := BatchRow{
			Line:   line,
			CaseID: cell(record, columns, "case_id"),
			Dates: Dates{
				TriggeringEvent: ParseDate(cell(record, columns, "trigger")),
				Registration:    ParseDate(cell(record, columns, "registration")),
				Citation:        ParseDate(cell(record, columns, "citation")),
				LastMovement:    ParseDate(cell(record, columns, "last_movement")),
			},
		}
		row.Result = Evaluate(row.Dates, now)
		out = append(out, row)
	}
	return out, nil
}

func cell(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func hasAny(columns map[string]int, names ...string) bool {
	for _, n := range names {
		if _, ok := columns[n]; ok {
			return true
		}
	}
	return false
}
