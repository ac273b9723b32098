package validation

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"
)

// fixed clock: 2024-06-15 local time
func fixedNow() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local) }

func asErrors(t *testing.T, err error) Errors {
	t.Helper()
	var ve Errors
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation.Errors, got %T (%v)", err, err)
	}
	return ve
}

func messageFor(ve Errors, field string) string {
	for _, fe := range ve {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

func TestCreate_ValidInput_Normalized(t *testing.T) {
	r := New(fixedNow)

	got, err := r.Create(Fields{Date: "2024-01-01", Weight: "500", Animal: "dog"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Date != "2024-01-01" || got.Weight != 500 || got.Animal != "dog" {
		t.Fatalf("unexpected output: %+v", got)
	}

	// RFC 3339 timestamp is normalized to a calendar date.
	got, err = r.Create(Fields{Date: "2024-06-15T08:30:00Z", Weight: "1", Animal: "hamster"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Date != "2024-06-15" || got.Weight != 1 {
		t.Fatalf("unexpected output: %+v", got)
	}

	// Upper bound is inclusive.
	if _, err := r.Create(Fields{Date: "2024-06-15", Weight: Value(strconv.Itoa(MaxCreateWeight)), Animal: "cat"}); err != nil {
		t.Fatalf("weight %d should be accepted: %v", MaxCreateWeight, err)
	}
}

func TestCreate_FutureDate_Rejected(t *testing.T) {
	r := New(fixedNow)

	_, err := r.Create(Fields{Date: "2999-01-01", Weight: "500", Animal: "dog"})
	ve := asErrors(t, err)
	if len(ve) != 1 {
		t.Fatalf("expected exactly one message, got %+v", ve)
	}
	if msg := messageFor(ve, "date"); msg != "date cannot be later than the current date" {
		t.Fatalf("unexpected date message: %q", msg)
	}

	// Tomorrow relative to the injected clock is also in the future.
	_, err = r.Create(Fields{Date: "2024-06-16", Weight: "500", Animal: "dog"})
	if msg := messageFor(asErrors(t, err), "date"); msg == "" {
		t.Fatalf("expected date message for tomorrow")
	}
}

func TestCreate_OneMessagePerViolatedField(t *testing.T) {
	r := New(fixedNow)

	cases := []struct {
		name   string
		in     Fields
		fields map[string]string
	}{
		{
			name: "all missing",
			in:   Fields{},
			fields: map[string]string{
				"date":   "date is required",
				"weight": "weight is required",
				"animal": "animal type is required",
			},
		},
		{
			name: "bad date and animal",
			in:   Fields{Date: "01/02/2024", Weight: "10", Animal: "parrot"},
			fields: map[string]string{
				"date":   "invalid date format",
				"animal": "invalid animal type",
			},
		},
		{
			name: "weight over max",
			in:   Fields{Date: "2024-01-01", Weight: "10001", Animal: "cat"},
			fields: map[string]string{
				"weight": "weight must be a positive integer no greater than 10000 grams",
			},
		},
		{
			name: "weight zero and impossible date",
			in:   Fields{Date: "2024-02-30", Weight: "0", Animal: "cat"},
			fields: map[string]string{
				"date":   "invalid date format",
				"weight": "weight must be a positive integer no greater than 10000 grams",
			},
		},
		{
			name: "weight not an integer",
			in:   Fields{Date: "2024-01-01", Weight: "12.5", Animal: "Cat"},
			fields: map[string]string{
				"weight": "weight must be a positive integer no greater than 10000 grams",
				"animal": "invalid animal type",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Create(tc.in)
			ve := asErrors(t, err)
			if len(ve) != len(tc.fields) {
				t.Fatalf("got %d messages, want %d: %+v", len(ve), len(tc.fields), ve)
			}
			for field, want := range tc.fields {
				if got := messageFor(ve, field); got != want {
					t.Fatalf("%s: got %q, want %q", field, got, want)
				}
			}
		})
	}
}

func TestUpdate_NoUpperWeightBound(t *testing.T) {
	r := New(fixedNow)

	got, err := r.Update(Fields{Date: "2024-01-01", Weight: "20000", Animal: "dog"})
	if err != nil {
		t.Fatalf("update should accept weight above create max: %v", err)
	}
	if got.Weight != 20000 {
		t.Fatalf("unexpected weight: %d", got.Weight)
	}

	_, err = r.Update(Fields{Date: "2024-01-01", Weight: "-3", Animal: "dog"})
	if msg := messageFor(asErrors(t, err), "weight"); msg != "weight must be a positive integer" {
		t.Fatalf("unexpected update weight message: %q", msg)
	}

	_, err = r.Update(Fields{Date: "2999-01-01", Weight: "5", Animal: "dog"})
	if msg := messageFor(asErrors(t, err), "date"); msg != "date cannot be later than the current date" {
		t.Fatalf("unexpected update date message: %q", msg)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2024-01-01":                "2024-01-01",
		" 2024-01-01 ":              "2024-01-01",
		"2024-01-01T23:59:59+02:00": "2024-01-01",
		"2024-01-01T00:00:00.5Z":    "2024-01-01",
	}
	for in, want := range cases {
		got, ok := NormalizeDate(in)
		if !ok || got != want {
			t.Fatalf("NormalizeDate(%q) = %q,%v; want %q", in, got, ok, want)
		}
	}
	for _, bad := range []string{"", "yesterday", "2024-13-01", "2024/01/01", "20240101"} {
		if _, ok := NormalizeDate(bad); ok {
			t.Fatalf("NormalizeDate(%q) should fail", bad)
		}
	}
}

func TestErrors_ErrorString(t *testing.T) {
	e := Errors{{Field: "date", Message: "date is required"}, {Field: "animal", Message: "invalid animal type"}}
	s := e.Error()
	if !strings.Contains(s, "date: date is required") || !strings.Contains(s, "animal: invalid animal type") {
		t.Fatalf("unexpected Error(): %q", s)
	}
}

func TestFields_DecodeWeightFromNumberOrString(t *testing.T) {
	for _, body := range []string{
		`{"date":"2024-01-01","weight":500,"animal":"dog"}`,
		`{"date":"2024-01-01","weight":"500","animal":"dog"}`,
		`{"date":"2024-01-01","weight":500.0,"animal":"dog"}`,
		`{"date":"2024-01-01","weight":5e2,"animal":"dog"}`,
	} {
		var f Fields
		if err := json.Unmarshal([]byte(body), &f); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
		got, err := New(fixedNow).Create(f)
		if err != nil || got.Weight != 500 {
			t.Fatalf("body %s: got %+v err=%v", body, got, err)
		}
	}
}

func TestValue_DecodesAnyScalar(t *testing.T) {
	cases := map[string]Value{
		`"dog"`:     "dog",
		`""`:        "",
		`null`:      "",
		`true`:      "true",
		`20240101`:  "20240101",
		`12.5`:      "12.5",
		`1.0e3`:     "1000",
		`-0.0`:      "0",
		`1e400`:     "1e400",
		`{"g":500}`: `{"g":500}`,
	}
	for raw, want := range cases {
		var v Value
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
		if v != want {
			t.Errorf("decode %s = %q; want %q", raw, v, want)
		}
	}
}

func TestCreate_WronglyTypedFieldsAreRuleViolations(t *testing.T) {
	r := New(fixedNow)

	cases := []struct {
		body   string
		fields map[string]string
	}{
		{
			body: `{"date":20240101,"weight":true,"animal":7}`,
			fields: map[string]string{
				"date":   "invalid date format",
				"weight": "weight must be a positive integer no greater than 10000 grams",
				"animal": "invalid animal type",
			},
		},
		{
			body: `{"date":"2024-01-01","weight":"","animal":"cat"}`,
			fields: map[string]string{
				"weight": "weight is required",
			},
		},
		{
			body: `{"date":null,"weight":[500],"animal":"cat"}`,
			fields: map[string]string{
				"date":   "date is required",
				"weight": "weight must be a positive integer no greater than 10000 grams",
			},
		},
	}
	for _, tc := range cases {
		var f Fields
		if err := json.Unmarshal([]byte(tc.body), &f); err != nil {
			t.Fatalf("decode %s: %v", tc.body, err)
		}
		_, err := r.Create(f)
		ve := asErrors(t, err)
		if len(ve) != len(tc.fields) {
			t.Fatalf("%s: got %+v, want %d messages", tc.body, ve, len(tc.fields))
		}
		for field, want := range tc.fields {
			if got := messageFor(ve, field); got != want {
				t.Errorf("%s: %s = %q; want %q", tc.body, field, got, want)
			}
		}
	}
}
