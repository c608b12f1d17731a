package validation

import (
	"regexp"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
}

func intPtr(n int) *int { return &n }

func TestApplyCollectsAllFailures(t *testing.T) {
	rs := RuleSet{
		Name: "test",
		Rules: []Rule{
			{Field: "name", Required: true, MinLen: 2},
			{Field: "email", Required: true, Pattern: regexp.MustCompile(`@`)},
			{Field: "rating", Required: true, Int: true, Min: intPtr(1), Max: intPtr(5)},
		},
	}

	_, failures := rs.Apply(map[string]interface{}{
		"email":  "not-an-email",
		"rating": "9",
	})

	if len(failures) != 3 {
		t.Fatalf("expected 3 failures, got %d: %+v", len(failures), failures)
	}
	fields := map[string]bool{}
	for _, f := range failures {
		fields[f.Field] = true
	}
	for _, want := range []string{"name", "email", "rating"} {
		if !fields[want] {
			t.Fatalf("expected a failure on %q, got %+v", want, failures)
		}
	}
}

func TestNormalizationBeforeChecks(t *testing.T) {
	rs := RuleSet{
		Rules: []Rule{
			{Field: "email", Required: true, Lowercase: true, Pattern: regexp.MustCompile(`^[a-z0-9.@]+$`)},
			{Field: "passport", Required: true, Uppercase: true, Pattern: regexp.MustCompile(`^[A-Z0-9]{6,20}$`)},
		},
	}

	values, failures := rs.Apply(map[string]interface{}{
		"email":    "  USER@Example.COM ",
		"passport": "ab123456",
	})
	if len(failures) > 0 {
		t.Fatalf("unexpected failures: %+v", failures)
	}
	if got := values.String("email"); got != "user@example.com" {
		t.Fatalf("email not case-folded: %q", got)
	}
	if got := values.String("passport"); got != "AB123456" {
		t.Fatalf("passport not uppercased: %q", got)
	}
}

func TestOptionalAbsentFieldIsNotPresent(t *testing.T) {
	rs := RuleSet{
		Rules: []Rule{
			{Field: "name", MinLen: 2},
		},
	}

	values, failures := rs.Apply(map[string]interface{}{"name": "   "})
	if len(failures) > 0 {
		t.Fatalf("blank optional field must not fail: %+v", failures)
	}
	if values.Has("name") {
		t.Fatal("blank optional field must be treated as absent, not empty string")
	}
}

func TestIntRejectsNonNumericInput(t *testing.T) {
	rs := RuleSet{
		Rules: []Rule{
			{Field: "rating", Required: true, Int: true, Min: intPtr(1), Max: intPtr(5)},
		},
	}

	_, failures := rs.Apply(map[string]interface{}{"rating": "five"})
	if len(failures) != 1 || failures[0].Field != "rating" {
		t.Fatalf("non-numeric input must fail, not coerce to 0: %+v", failures)
	}

	values, failures := rs.Apply(map[string]interface{}{"rating": "5"})
	if len(failures) > 0 {
		t.Fatalf("unexpected failures: %+v", failures)
	}
	if values.Int("rating") != 5 {
		t.Fatalf("expected 5, got %d", values.Int("rating"))
	}
}

func TestEnumRejectsUnknownValues(t *testing.T) {
	rs := RuleSet{
		Rules: []Rule{
			{Field: "visa_type", Required: true, Enum: []string{"tourist", "business"}},
		},
	}

	if _, failures := rs.Apply(map[string]interface{}{"visa_type": "pilgrimage"}); len(failures) != 1 {
		t.Fatalf("unknown enum value must fail: %+v", failures)
	}
}

func TestDateFutureOnlyAtDayGranularity(t *testing.T) {
	rs := RuleSet{
		Now: fixedNow,
		Rules: []Rule{
			{Field: "arrival", Required: true, Date: true, FutureOnly: true},
		},
	}

	// Same calendar day is not "in the future" even though a later
	// time-of-day would be.
	if _, failures := rs.Apply(map[string]interface{}{"arrival": "2025-06-01"}); len(failures) != 1 {
		t.Fatalf("same-day date must fail FutureOnly: %+v", failures)
	}
	if _, failures := rs.Apply(map[string]interface{}{"arrival": "2025-06-02"}); len(failures) != 0 {
		t.Fatalf("next-day date must pass FutureOnly: %+v", failures)
	}
	if _, failures := rs.Apply(map[string]interface{}{"arrival": "01/06/2025"}); len(failures) != 1 {
		t.Fatalf("non-ISO date must fail: %+v", failures)
	}
}

func TestElementWiseEnumFailsWholeField(t *testing.T) {
	rs := RuleSet{
		Rules: []Rule{
			{Field: "preferences", Each: []string{"visa_updates", "travel_tips"}},
		},
	}

	_, failures := rs.Apply(map[string]interface{}{
		"preferences": []interface{}{"visa_updates", "stock_tips"},
	})
	if len(failures) != 1 || failures[0].Field != "preferences" {
		t.Fatalf("unknown element must fail the whole field: %+v", failures)
	}

	values, failures := rs.Apply(map[string]interface{}{
		"preferences": []interface{}{"visa_updates", "travel_tips"},
	})
	if len(failures) > 0 {
		t.Fatalf("unexpected failures: %+v", failures)
	}
	if got := values.Strings("preferences"); len(got) != 2 {
		t.Fatalf("expected 2 normalized tags, got %v", got)
	}
}

func TestCrossChecksRunAfterFieldRules(t *testing.T) {
	rs := RuleSet{
		Now: fixedNow,
		Rules: []Rule{
			{Field: "arrival_date", Required: true, Date: true},
			{Field: "departure_date", Required: true, Date: true},
			{Field: "duration_of_stay", Required: true, Int: true, Min: intPtr(1)},
		},
		Checks: []CrossCheck{
			func(v Values) *FieldError {
				days, err := DayCount(v.String("arrival_date"), v.String("departure_date"))
				if err != nil || days > 0 {
					return nil
				}
				return &FieldError{Field: "departure_date", Message: "departure_date must be after arrival_date"}
			},
			func(v Values) *FieldError {
				days, err := DayCount(v.String("arrival_date"), v.String("departure_date"))
				if err != nil || days <= 0 || v.Int("duration_of_stay") == days {
					return nil
				}
				return &FieldError{Field: "duration_of_stay", Message: "duration mismatch"}
			},
		},
	}

	// Accepted: 2025-06-10 -> 2025-06-15 is 5 days.
	_, failures := rs.Apply(map[string]interface{}{
		"arrival_date":     "2025-06-10",
		"departure_date":   "2025-06-15",
		"duration_of_stay": "5",
	})
	if len(failures) > 0 {
		t.Fatalf("consistent dates must pass: %+v", failures)
	}

	// Rejected: declared duration 6 does not match the 5-day gap.
	_, failures = rs.Apply(map[string]interface{}{
		"arrival_date":     "2025-06-10",
		"departure_date":   "2025-06-15",
		"duration_of_stay": "6",
	})
	if len(failures) != 1 || failures[0].Field != "duration_of_stay" {
		t.Fatalf("duration mismatch must fail on duration_of_stay: %+v", failures)
	}

	// Rejected: departure not strictly after arrival.
	_, failures = rs.Apply(map[string]interface{}{
		"arrival_date":     "2025-06-15",
		"departure_date":   "2025-06-15",
		"duration_of_stay": "1",
	})
	if len(failures) != 1 || failures[0].Field != "departure_date" {
		t.Fatalf("equal dates must fail on departure_date: %+v", failures)
	}
}

func TestDayCount(t *testing.T) {
	days, err := DayCount("2025-06-10", "2025-06-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 5 {
		t.Fatalf("expected 5 days, got %d", days)
	}
}
