package cases

import (
	"strconv"
	"strings"
	"time"

	"guarulhosfacil/limitation"
)

// Stored field names, shared by the document-style backends.
const (
	fieldCategory      = "category"
	fieldDescription   = "description"
	fieldLatitude      = "lat"
	fieldLongitude     = "lng"
	fieldCreatedAt     = "created_at"
	fieldConfirmations = "confirmations"
	fieldStatus        = "status"
	fieldPhotoURL      = "photo_url"
	fieldSubmitterHash = "submitter_hash"
	fieldTriggerDate   = "triggering_event_date"
	fieldRegistration  = "registration_date"
	fieldCitation      = "citation_date"
	fieldLastMovement  = "last_movement_date"
)

// EncodeFields flattens rec into string values for a document store. Absent
// optional values are omitted.
func EncodeFields(rec Record) map[string]any {
	out := map[string]any{
		fieldCategory:      rec.Category,
		fieldDescription:   rec.Description,
		fieldLatitude:      strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
		fieldLongitude:     strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
		fieldCreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		fieldConfirmations: strconv.Itoa(rec.Confirmations),
		fieldStatus:        string(rec.Status),
	}
	if rec.PhotoURL != nil && *rec.PhotoURL != "" {
		out[fieldPhotoURL] = *rec.PhotoURL
	}
	if rec.SubmitterHash != "" {
		out[fieldSubmitterHash] = rec.SubmitterHash
	}
	putDate(out, fieldTriggerDate, rec.Dates.TriggeringEvent)
	putDate(out, fieldRegistration, rec.Dates.Registration)
	putDate(out, fieldCitation, rec.Dates.Citation)
	putDate(out, fieldLastMovement, rec.Dates.LastMovement)
	return out
}

// DecodeFields builds a typed record from loosely typed stored values. Missing
// or malformed values fall back to their zero value, dates become absent and
// confirmations never drops below 1.
func DecodeFields(id string, raw map[string]string) Record {
	rec := Record{
		ID:            id,
		Category:      raw[fieldCategory],
		Description:   raw[fieldDescription],
		Latitude:      parseFloat(raw[fieldLatitude]),
		Longitude:     parseFloat(raw[fieldLongitude]),
		Confirmations: 1,
		Status:        Status(strings.TrimSpace(raw[fieldStatus])),
		SubmitterHash: raw[fieldSubmitterHash],
		Dates: limitation.Dates{
			TriggeringEvent: limitation.ParseDate(raw[fieldTriggerDate]),
			Registration:    limitation.ParseDate(raw[fieldRegistration]),
			Citation:        limitation.ParseDate(raw[fieldCitation]),
			LastMovement:    limitation.ParseDate(raw[fieldLastMovement]),
		},
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	if n, err := strconv.Atoi(strings.TrimSpace(raw[fieldConfirmations])); err == nil && n >= 1 {
		rec.Confirmations = n
	}
	if ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw[fieldCreatedAt])); err == nil {
		rec.CreatedAt = ts
	}
	if url := strings.TrimSpace(raw[fieldPhotoURL]); url != "" {
		rec.PhotoURL = &url
	}
	return rec
}

func putDate(out map[string]any, key string, t *time.Time) {
	if t != nil {
		out[key] = limitation.FormatDate(t)
	}
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
