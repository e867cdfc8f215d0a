package limitation

import "time"

// Evaluate applies both limitation rules to d as of now and classifies the
// pair. Missing dates make the corresponding rule false; it never fails.
func Evaluate(d Dates, now time.Time) Result {
	res := Result{
		InitialExpired:     initialExpired(d),
		InterveningExpired: interveningExpired(d, now),
	}

	switch {
	case res.InitialExpired:
		res.Status = StatusInitialExpired
		res.Risk = RiskLow
		res.Recommendation = RecommendationInitial
	case res.InterveningExpired:
		res.Status = StatusInterveningExpired
		res.Risk = RiskMedium
		res.Recommendation = RecommendationIntervening
	default:
		res.Status = StatusNoLimitation
		res.Risk = RiskHigh
		res.Recommendation = RecommendationNone
	}
	return res
}

func initialExpired(d Dates) bool {
	if d.TriggeringEvent == nil || d.Registration == nil {
		return false
	}
	return DaysBetween(*d.TriggeringEvent, *d.Registration) > Threshold
}

func interveningExpired(d Dates, now time.Time) bool {
	if d.Citation == nil || d.LastMovement == nil {
		return false
	}
	return DaysBetween(*d.LastMovement, now) > Threshold
}

// DaysBetween returns the number of calendar days from a to b, negative when b
// is before a. Only the year, month and day of each instant are considered.
func DaysBetween(a, b time.Time) int {
	return int(civil(b).Sub(civil(a)).Hours() / 24)
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
