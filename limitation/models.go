package limitation

import "time"

// Threshold is the limitation period in days. It is a fixed 5*365 and does not
// account for leap days.
const Threshold = 5 * 365

// Status classifies a record's limitation outcome.
type Status string

// Statuses in evaluation order; the first that applies wins.
const (
	StatusInitialExpired     Status = "Initial limitation expired"
	StatusInterveningExpired Status = "Intervening limitation expired"
	StatusNoLimitation       Status = "No apparent limitation"
)

// Risk is the enforcement risk left to the debtor for a given Status.
type Risk string

// Risk levels paired with the statuses above.
const (
	RiskLow    Risk = "Low"
	RiskMedium Risk = "Medium"
	RiskHigh   Risk = "High"
)

// Recommendations shown with each status.
const (
	RecommendationInitial     = "Limitation recognized — underlying instrument is void."
	RecommendationIntervening = "Raise intervening-limitation objection."
	RecommendationNone        = "Monitor or evaluate alternative defenses."
)

// Dates holds the four optional dates of a case record. A nil field means the
// date is absent or could not be parsed.
type Dates struct {
	TriggeringEvent *time.Time
	Registration    *time.Time
	Citation        *time.Time
	LastMovement    *time.Time
}

// Result is the outcome of Evaluate.
type Result struct {
	InitialExpired     bool
	InterveningExpired bool
	Status             Status
	Risk               Risk
	Recommendation     string
}
