// Package validation holds the declarative rule set applied to incoming
// weight records before they reach the store.
//
// Rules are expressed as go-playground/validator struct tags on Fields.
// Every field is checked and each violated field contributes exactly one
// message (the first failing rule for that field), so a body violating two
// fields yields two messages.
//
// Custom tags registered here:
//
//   - isodate:   YYYY-MM-DD or an RFC 3339 timestamp
//   - notfuture: calendar date not after "today" (server local date)
//   - integer:   base-10 integer, given as a JSON number or numeric string
//     (whole-valued numbers such as 5e2 count as integers)
//   - intmin / intmax: inclusive integer bounds
package validation

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the normalized storage format for record dates.
const DateLayout = "2006-01-02"

// MaxCreateWeight is the upper weight bound (grams) applied on create.
const MaxCreateWeight = 10000

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"   example:"date"`
	Message string `json:"message" example:"date cannot be later than the current date"`
}

// Errors aggregates every violated field of a request body.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Value is a loosely typed JSON scalar kept in textual form. Any JSON value
// decodes without error, so a wrongly typed field ("weight":true,
// "date":20240101) is reported by the rules of that field rather than
// failing the whole body. null decodes to "" and counts as missing.
//
// Whole-valued numbers are canonicalized ("500.0" and "5e2" become "500").
type Value string

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*v = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
	default:
		*v = Value(canonicalNumber(raw))
	}
	return nil
}

// canonicalNumber rewrites a whole-valued JSON number literal as a plain
// integer. Anything else (fractions, true, objects) is returned unchanged.
func canonicalNumber(raw string) string {
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return raw
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactFloatInt {
		return raw
	}
	return strconv.FormatInt(int64(f), 10)
}

// maxExactFloatInt is the largest magnitude where every integer is exactly
// representable as a float64.
const maxExactFloatInt = 1 << 53

// Fields is the raw, unvalidated shape of a record body.
type Fields struct {
	Date   Value `json:"date"   swaggertype:"string" example:"2024-01-01"`
	Weight Value `json:"weight" swaggertype:"integer" example:"500"`
	Animal Value `json:"animal" swaggertype:"string" example:"dog" enums:"cat,dog,hamster"`
}

// Valid is the normalized output of a successful validation.
type Valid struct {
	Date   string
	Weight int
	Animal string
}

type createFields struct {
	Date   string `validate:"required,isodate,notfuture"`
	Weight string `validate:"required,integer,intmin=1,intmax=10000"`
	Animal string `validate:"required,oneof=cat dog hamster"`
}

// Update has no upper weight bound.
// TODO: confirm with product whether updates should also cap weight at MaxCreateWeight.
type updateFields struct {
	Date   string `validate:"required,isodate,notfuture"`
	Weight string `validate:"required,integer,intmin=1"`
	Animal string `validate:"required,oneof=cat dog hamster"`
}

// Rules validates record bodies. The zero value is not usable; build one
// with New.
type Rules struct {
	v   *validator.Validate
	now func() time.Time
}

// New returns a Rules instance. now supplies the reference clock for the
// "not in the future" check; nil means time.Now.
func New(now func() time.Time) *Rules {
	if now == nil {
		now = time.Now
	}
	r := &Rules{v: validator.New(validator.WithRequiredStructEnabled()), now: now}

	// Report lowercase JSON-style field names.
	r.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.ToLower(f.Name)
	})

	mustRegister(r.v, "isodate", func(fl validator.FieldLevel) bool {
		_, ok := NormalizeDate(fl.Field().String())
		return ok
	})
	mustRegister(r.v, "notfuture", func(fl validator.FieldLevel) bool {
		d, ok := NormalizeDate(fl.Field().String())
		if !ok {
			return false
		}
		return d <= r.now().Format(DateLayout)
	})
	mustRegister(r.v, "integer", func(fl validator.FieldLevel) bool {
		_, err := parseInt(fl.Field().String())
		return err == nil
	})
	mustRegister(r.v, "intmin", func(fl validator.FieldLevel) bool {
		n, err := parseInt(fl.Field().String())
		if err != nil {
			return false
		}
		min, err := strconv.ParseInt(fl.Param(), 10, 64)
		return err == nil && n >= min
	})
	mustRegister(r.v, "intmax", func(fl validator.FieldLevel) bool {
		n, err := parseInt(fl.Field().String())
		if err != nil {
			return false
		}
		max, err := strconv.ParseInt(fl.Param(), 10, 64)
		return err == nil && n <= max
	})
	return r
}

// Create validates a body against the create rule set.
func (r *Rules) Create(in Fields) (Valid, error) {
	s := createFields{Date: strings.TrimSpace(string(in.Date)), Weight: string(in.Weight), Animal: string(in.Animal)}
	if err := r.v.Struct(s); err != nil {
		return Valid{}, translate(err, createMessages)
	}
	return normalize(s.Date, s.Weight, s.Animal), nil
}

// Update validates a body against the update rule set.
func (r *Rules) Update(in Fields) (Valid, error) {
	s := updateFields{Date: strings.TrimSpace(string(in.Date)), Weight: string(in.Weight), Animal: string(in.Animal)}
	if err := r.v.Struct(s); err != nil {
		return Valid{}, translate(err, updateMessages)
	}
	return normalize(s.Date, s.Weight, s.Animal), nil
}

// NormalizeDate parses an ISO-8601 calendar date (YYYY-MM-DD) or an RFC 3339
// timestamp and returns it as YYYY-MM-DD.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.Format(DateLayout), true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.Format(DateLayout), true
	}
	return "", false
}

func normalize(date, weight, animal string) Valid {
	d, _ := NormalizeDate(date)
	n, _ := parseInt(weight)
	return Valid{Date: d, Weight: int(n), Animal: animal}
}

// parseInt accepts a base-10 integer literal only. Whole-valued JSON numbers
// were already canonicalized by Value, so the string "1.0" is rejected.
func parseInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}
