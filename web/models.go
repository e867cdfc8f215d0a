package web

import (
	"time"

	"guarulhosfacil/cases"
	"guarulhosfacil/limitation"
)

type Case struct {
	ID            string    `json:"id"`
	Protocol      string    `json:"protocol"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	Latitude      float64   `json:"lat"`
	Longitude     float64   `json:"lng"`
	CreatedAt     time.Time `json:"created_at"`
	Confirmations int       `json:"confirmations"`
	Status        string    `json:"status"`
	PhotoURL      *string   `json:"photo_url,omitempty"`
	Dates         Dates     `json:"dates"`
}

type Dates struct {
	TriggeringEvent string `json:"triggering_event_date,omitempty"`
	Registration    string `json:"registration_date,omitempty"`
	Citation        string `json:"citation_date,omitempty"`
	LastMovement    string `json:"last_movement_date,omitempty"`
}

type Limitation struct {
	InitialExpired     bool   `json:"initial_expired"`
	InterveningExpired bool   `json:"intervening_expired"`
	Status             string `json:"status"`
	Risk               string `json:"risk"`
	Recommendation     string `json:"recommendation"`
}

type Evaluation struct {
	CaseID string     `json:"case_id,omitempty"`
	Line   int        `json:"line,omitempty"`
	Dates  Dates      `json:"dates"`
	Result Limitation `json:"result"`
}

func newCase(rec cases.Record) Case {
	return Case{
		ID:            rec.ID,
		Protocol:      rec.Protocol(),
		Category:      rec.Category,
		Description:   rec.Description,
		Latitude:      rec.Latitude,
		Longitude:     rec.Longitude,
		CreatedAt:     rec.CreatedAt,
		Confirmations: rec.Confirmations,
		Status:        string(rec.Status),
		PhotoURL:      rec.PhotoURL,
		Dates:         newDates(rec.Dates),
	}
}

func newCases(recs []cases.Record) []Case {
	out := make([]Case, 0, len(recs))
	for _, rec := range recs {
		out = append(out, newCase(rec))
	}
	return out
}

func newDates(d limitation.Dates) Dates {
	return Dates{
		TriggeringEvent: limitation.FormatDate(d.TriggeringEvent),
		Registration:    limitation.FormatDate(d.Registration),
		Citation:        limitation.FormatDate(d.Citation),
		LastMovement:    limitation.FormatDate(d.LastMovement),
	}
}

func newLimitation(r limitation.Result) Limitation {
	return Limitation{
		InitialExpired:     r.InitialExpired,
		InterveningExpired: r.InterveningExpired,
		Status:             string(r.Status),
		Risk:               string(r.Risk),
		Recommendation:     r.Recommendation,
	}
}
