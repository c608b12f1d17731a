// Package validation implements the declarative per-field rule sets shared
// by the visa, contact, feedback and newsletter intake endpoints.
//
// A RuleSet is applied to the raw form fields and produces either a
// normalized value map or the complete list of field failures. Rules never
// panic and never stop at the first failure: a rejection reports every
// violated field in one response.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"visa-consult-api/utils"
)

const dateLayout = "2006-01-02"

// FieldError describes a single violated rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Values holds normalized, coerced field values keyed by field name.
// Absent optional fields have no entry.
type Values map[string]interface{}

// String returns the normalized string value for a field, or "".
func (v Values) String(field string) string {
	if s, ok := v[field].(string); ok {
		return s
	}
	return ""
}

// Int returns the coerced integer value for a field, or 0.
func (v Values) Int(field string) int {
	if n, ok := v[field].(int); ok {
		return n
	}
	return 0
}

// Strings returns the normalized list value for a field, or nil.
func (v Values) Strings(field string) []string {
	if l, ok := v[field].([]string); ok {
		return l
	}
	return nil
}

// Has reports whether the field was present in the submission.
func (v Values) Has(field string) bool {
	_, ok := v[field]
	return ok
}

// Rule is the declarative validation spec for one field.
type Rule struct {
	Field    string
	Required bool

	// Normalization, applied before any check.
	Lowercase bool
	Uppercase bool

	// String shape
	MinLen     int
	MaxLen     int
	Pattern    *regexp.Regexp
	PatternMsg string

	// Enum membership. For list-valued fields set Each instead: every
	// element is checked against the vocabulary and one unknown element
	// fails the whole field.
	Enum []string
	Each []string

	// Numeric range. Int fields reject non-numeric input instead of
	// coercing it to zero.
	Int bool
	Min *int
	Max *int

	// ISO-8601 calendar date, optionally constrained to the future or
	// past at day granularity.
	Date       bool
	FutureOnly bool
	PastOnly   bool
}

// CrossCheck validates consistency between already-normalized fields.
// It runs only when all involved fields passed their own rules, so
// implementations may assume well-formed values.
type CrossCheck func(v Values) *FieldError

// RuleSet names the rules for one form kind.
type RuleSet struct {
	Name   string
	Rules  []Rule
	Checks []CrossCheck

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// Apply evaluates every rule against the raw submission. Raw values may be
// string or []string; anything else fails the field. All failures are
// collected so the caller can report them in one response.
func (rs RuleSet) Apply(raw map[string]interface{}) (Values, []FieldError) {
	values := make(Values, len(raw))
	var failures []FieldError
	failed := make(map[string]bool)

	for _, rule := range rs.Rules {
		value, present := raw[rule.Field]
		if !present || isEmpty(value) {
			if rule.Required {
				failures = append(failures, FieldError{
					Field:   rule.Field,
					Message: fmt.Sprintf("%s is required", rule.Field),
				})
				failed[rule.Field] = true
			}
			continue
		}

		if errs := rule.check(value, values, rs.now()); len(errs) > 0 {
			failures = append(failures, errs...)
			failed[rule.Field] = true
		}
	}

	if len(failures) == 0 {
		for _, check := range rs.Checks {
			if fe := check(values); fe != nil {
				failures = append(failures, *fe)
			}
		}
	}

	if len(failures) > 0 {
		return nil, failures
	}
	return values, nil
}

func (rs RuleSet) now() time.Time {
	if rs.Now != nil {
		return rs.Now()
	}
	return time.Now()
}

func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	}
	return false
}

func (r Rule) check(raw interface{}, out Values, now time.Time) []FieldError {
	if len(r.Each) > 0 {
		return r.checkList(raw, out)
	}

	s, ok := asString(raw)
	if !ok {
		return []FieldError{{Field: r.Field, Message: fmt.Sprintf("%s has an invalid value", r.Field)}}
	}

	s = utils.SanitizeInput(s)
	if r.Lowercase {
		s = strings.ToLower(s)
	}
	if r.Uppercase {
		s = strings.ToUpper(s)
	}

	if r.Int {
		return r.checkInt(s, out)
	}
	if r.Date {
		return r.checkDate(s, out, now)
	}

	var errs []FieldError
	if r.MinLen > 0 && len(s) < r.MinLen {
		errs = append(errs, FieldError{
			Field:   r.Field,
			Message: fmt.Sprintf("%s must be at least %d characters", r.Field, r.MinLen),
			Value:   s,
		})
	}
	if r.MaxLen > 0 && len(s) > r.MaxLen {
		errs = append(errs, FieldError{
			Field:   r.Field,
			Message: fmt.Sprintf("%s must be at most %d characters", r.Field, r.MaxLen),
			Value:   s,
		})
	}
	if r.Pattern != nil && !r.Pattern.MatchString(s) {
		msg := r.PatternMsg
		if msg == "" {
			msg = fmt.Sprintf("%s has an invalid format", r.Field)
		}
		errs = append(errs, FieldError{Field: r.Field, Message: msg, Value: s})
	}
	if len(r.Enum) > 0 && !contains(r.Enum, s) {
		errs = append(errs, FieldError{
			Field:   r.Field,
			Message: fmt.Sprintf("%s must be one of: %s", r.Field, strings.Join(r.Enum, ", ")),
			Value:   s,
		})
	}

	if len(errs) == 0 {
		out[r.Field] = s
	}
	return errs
}

func (r Rule) checkInt(s string, out Values) []FieldError {
	n, err := strconv.Atoi(s)
	if err != nil {
		return []FieldError{{
			Field:   r.Field,
			Message: fmt.Sprintf("%s must be a number", r.Field),
			Value:   s,
		}}
	}
	if r.Min != nil && n < *r.Min {
		return []FieldError{{
			Field:   r.Field,
			Message: fmt.Sprintf("%s must be at least %d", r.Field, *r.Min),
			Value:   s,
		}}
	}
	if r.Max != nil && n > *r.Max {
		return []FieldError{{
			Field:   r.Field,
			Message: fmt.Sprintf("%s must be at most %d", r.Field, *r.Max),
			Value:   s,
		}}
	}
	out[r.Field] = n
	return nil
}

func (r Rule) checkDate(s string, out Values, now time.Time) []FieldError {
	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		return []FieldError{{
			Field:   r.Field,
			Message: fmt.Sprintf("%s must be a valid date (YYYY-MM-DD)", r.Field),
			Value:   s,
		}}
	}

	// Day granularity: time of day on either side is ignored.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)

	if r.FutureOnly && !day.After(today) {
		return []FieldError{{
			Field:   r.Field,
			Message: fmt.Sprintf("%s must be in the future", r.Field),
			Value:   s,
		}}
	}
	if r.PastOnly && !day.Before(today) {
		return []FieldError{{
			Field:   r.Field,
			Message: fmt.Sprintf("%s must be in the past", r.Field),
			Value:   s,
		}}
	}

	out[r.Field] = parsed.Format(dateLayout)
	return nil
}

func (r Rule) checkList(raw interface{}, out Values) []FieldError {
	items, ok := asStringList(raw)
	if !ok {
		return []FieldError{{Field: r.Field, Message: fmt.Sprintf("%s has an invalid value", r.Field)}}
	}

	normalized := make([]string, 0, len(items))
	for _, item := range items {
		item = utils.SanitizeInput(item)
		if r.Lowercase {
			item = strings.ToLower(item)
		}
		if item == "" {
			continue
		}
		if !contains(r.Each, item) {
			return []FieldError{{
				Field:   r.Field,
				Message: fmt.Sprintf("%s contains an unknown value: %s", r.Field, item),
				Value:   item,
			}}
		}
		normalized = append(normalized, item)
	}

	out[r.Field] = normalized
	return nil
}

func asString(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case float64:
		// JSON numbers arrive as float64; keep integers exact.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	}
	return "", false
}

func asStringList(raw interface{}) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return v, true
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := asString(item)
			if !ok {
				return nil, false
			}
			items = append(items, s)
		}
		return items, true
	case string:
		return []string{v}, true
	}
	return nil, false
}

func contains(set []string, value string) bool {
	for _, item := range set {
		if item == value {
			return true
		}
	}
	return false
}

// DayCount returns the number of whole days between two ISO dates.
func DayCount(from, to string) (int, error) {
	a, err := time.Parse(dateLayout, from)
	if err != nil {
		return 0, err
	}
	b, err := time.Parse(dateLayout, to)
	if err != nil {
		return 0, err
	}
	return int(b.Sub(a).Hours() / 24), nil
}
