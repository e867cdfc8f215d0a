package limitation

import (
	"testing"
	"time"
)

func date(t *testing.T, s string) *time.Time {
	t.Helper()
	d := ParseDate(s)
	if d == nil {
		t.Fatalf("parse %q: got nil", s)
	}
	return d
}

func TestEvaluate_InitialExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	res := Evaluate(Dates{
		TriggeringEvent: date(t, "2010-03-10"),
		Registration:    date(t, "2015-06-15"),
	}, now)

	if !res.InitialExpired {
		t.Fatal("expected initial limitation to be expired")
	}
	if res.Status != StatusInitialExpired || res.Risk != RiskLow {
		t.Fatalf("unexpected classification: %+v", res)
	}
	if res.Recommendation != RecommendationInitial {
		t.Fatalf("unexpected recommendation %q", res.Recommendation)
	}
}

func TestEvaluate_InitialWinsRegardlessOfOtherDates(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res := Evaluate(Dates{
		TriggeringEvent: date(t, "2010-03-10"),
		Registration:    date(t, "2015-06-15"),
		Citation:        date(t, "2016-01-20"),
		LastMovement:    date(t, "2016-02-01"),
	}, now)

	if !res.InterveningExpired {
		t.Fatal("expected intervening predicate to also be true")
	}
	if res.Status != StatusInitialExpired {
		t.Fatalf("expected initial classification to win, got %s", res.Status)
	}
}

func TestEvaluate_InterveningExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res := Evaluate(Dates{
		TriggeringEvent: date(t, "2019-11-05"),
		Registration:    date(t, "2020-12-10"),
		Citation:        date(t, "2016-01-20"),
		LastMovement:    date(t, "2019-11-05"),
	}, now)

	if res.InitialExpired {
		t.Fatal("initial limitation should not be expired after 401 days")
	}
	if res.Status != StatusInterveningExpired || res.Risk != RiskMedium {
		t.Fatalf("unexpected classification: %+v", res)
	}
	if res.Recommendation != RecommendationIntervening {
		t.Fatalf("unexpected recommendation %q", res.Recommendation)
	}
}

func TestEvaluate_InterveningNeedsCitation(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res := Evaluate(Dates{LastMovement: date(t, "2010-01-01")}, now)
	if res.InterveningExpired {
		t.Fatal("intervening limitation requires a citation date")
	}
	if res.Status != StatusNoLimitation {
		t.Fatalf("expected no limitation, got %s", res.Status)
	}
}

func TestEvaluate_NoLimitation(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res := Evaluate(Dates{
		TriggeringEvent: date(t, "2020-01-01"),
		Registration:    date(t, "2020-02-01"),
	}, now)

	if res.InitialExpired || res.InterveningExpired {
		t.Fatalf("expected both predicates false: %+v", res)
	}
	if res.Status != StatusNoLimitation || res.Risk != RiskHigh {
		t.Fatalf("unexpected classification: %+v", res)
	}
	if res.Recommendation != RecommendationNone {
		t.Fatalf("unexpected recommendation %q", res.Recommendation)
	}
}

func TestEvaluate_AllDatesAbsent(t *testing.T) {
	for _, now := range []time.Time{
		time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 23, 59, 0, 0, time.UTC),
		time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
	} {
		if res := Evaluate(Dates{}, now); res.Status != StatusNoLimitation {
			t.Fatalf("now=%s: expected %s, got %s", now, StatusNoLimitation, res.Status)
		}
	}
}

func TestEvaluate_BoundaryIsStrict(t *testing.T) {
	trigger := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	exact := trigger.AddDate(0, 0, Threshold)
	over := trigger.AddDate(0, 0, Threshold+1)
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := DaysBetween(trigger, exact); got != Threshold {
		t.Fatalf("expected %d days, got %d", Threshold, got)
	}
	if res := Evaluate(Dates{TriggeringEvent: &trigger, Registration: &exact}, now); res.InitialExpired {
		t.Fatal("exactly 1825 days must not expire the initial limitation")
	}
	if res := Evaluate(Dates{TriggeringEvent: &trigger, Registration: &over}, now); !res.InitialExpired {
		t.Fatal("1826 days must expire the initial limitation")
	}

	citation := trigger
	last := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	atBoundary := last.AddDate(0, 0, Threshold)
	if res := Evaluate(Dates{Citation: &citation, LastMovement: &last}, atBoundary); res.InterveningExpired {
		t.Fatal("exactly 1825 days since last movement must not expire")
	}
	if res := Evaluate(Dates{Citation: &citation, LastMovement: &last}, atBoundary.AddDate(0, 0, 1)); !res.InterveningExpired {
		t.Fatal("1826 days since last movement must expire")
	}
}

func TestEvaluate_IgnoresTimeOfDay(t *testing.T) {
	trigger := time.Date(2020, 1, 1, 23, 59, 0, 0, time.UTC)
	registration := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, Threshold+1)
	res := Evaluate(Dates{TriggeringEvent: &trigger, Registration: &registration}, registration)
	if !res.InitialExpired {
		t.Fatal("expected calendar-day difference to ignore the clock time")
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d := Dates{
		TriggeringEvent: date(t, "2019-11-05"),
		Registration:    date(t, "2020-12-10"),
		Citation:        date(t, "2016-01-20"),
		LastMovement:    date(t, "2019-11-05"),
	}
	first := Evaluate(d, now)
	second := Evaluate(d, now)
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}
