package limitation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEvaluateCSV(t *testing.T) {
	input := strings.Join([]string{
		"case_id,triggering_event_date,registration_date,citation_date,last_movement_date",
		"A-1,2010-03-10,2015-06-15,,",
		"A-2,2019-11-05,2020-12-10,2016-01-20,2019-11-05",
		"A-3,2020-01-01,2020-02-01,,",
		"A-4,garbage,,,",
	}, "\n")

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows, err := EvaluateCSV(strings.NewReader(input), now)
	if err != nil {
		t.Fatalf("evaluate csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}

	want := []Status{StatusInitialExpired, StatusInterveningExpired, StatusNoLimitation, StatusNoLimitation}
	for i, row := range rows {
		if row.Result.Status != want[i] {
			t.Fatalf("row %d (%s): expected %s, got %s", i, row.CaseID, want[i], row.Result.Status)
		}
	}
	if rows[0].CaseID != "A-1" || rows[0].Line != 2 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[3].Dates.TriggeringEvent != nil {
		t.Fatal("garbage date should be absent")
	}
}

func TestEvaluateCSV_PortugueseHeaders(t *testing.T) {
	input := "processo,data_fato_gerador,data_inscricao\n0001,10/03/2010,15/06/2015\n"
	rows, err := EvaluateCSV(strings.NewReader(input), time.Now())
	if err != nil {
		t.Fatalf("evaluate csv: %v", err)
	}
	if len(rows) != 1 || rows[0].Result.Status != StatusInitialExpired {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestEvaluateCSV_MissingColumns(t *testing.T) {
	_, err := EvaluateCSV(strings.NewReader("name,value\na,b\n"), time.Now())
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
}

func TestEvaluateCSV_Empty(t *testing.T) {
	if _, err := EvaluateCSV(strings.NewReader(""), time.Now()); !errors.Is(err, ErrMalformedCSV) {
		t.Fatalf("expected ErrMalformedCSV for empty input, got %v", err)
	}
}

func TestEvaluateCSV_Semicolons(t *testing.T) {
	_, err := EvaluateCSV(strings.NewReader("case_id;registration_date\n1;2015-06-15\n"), time.Now())
	if !errors.Is(err, ErrMalformedCSV) {
		t.Fatalf("expected ErrMalformedCSV, got %v", err)
	}
}

func TestEvaluateCSV_BrokenQuotes(t *testing.T) {
	_, err := EvaluateCSV(strings.NewReader("case_id,registration_date\n\"1,2015-06-15\n"), time.Now())
	if !errors.Is(err, ErrMalformedCSV) {
		t.Fatalf("expected ErrMalformedCSV, got %v", err)
	}
}
