package core

import (
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time { return time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC) }

func validRecord() Record {
	return Record{
		Name:   "김철수",
		Email:  "charles@x.com",
		Phone:  "010-7531-2468",
		Joined: time.Date(2018, 3, 7, 0, 0, 0, 0, time.UTC),
	}
}

func TestDefaultValidator(t *testing.T) {
	v := DefaultValidator{Now: fixedNow}

	tests := []struct {
		name      string
		mutate    func(r *Record)
		wantField string
	}{
		{"valid", func(r *Record) {}, ""},
		{"plain mobile", func(r *Record) { r.Phone = "01075312468" }, ""},
		{"tomorrow allowed", func(r *Record) { r.Joined = time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC) }, ""},
		{"missing name", func(r *Record) { r.Name = " " }, "Name"},
		{"long name", func(r *Record) { r.Name = strings.Repeat("가", MaxNameLength+1) }, "Name"},
		{"missing email", func(r *Record) { r.Email = "" }, "Email"},
		{"email without at", func(r *Record) { r.Email = "charles.x.com" }, "Email"},
		{"email two ats", func(r *Record) { r.Email = "a@b@c" }, "Email"},
		{"email trailing at", func(r *Record) { r.Email = "charles@" }, "Email"},
		{"missing tel", func(r *Record) { r.Phone = "" }, "Tel"},
		{"short tel", func(r *Record) { r.Phone = "010" }, "Tel"},
		{"landline", func(r *Record) { r.Phone = "02-123-4567" }, "Tel"},
		{"zero joined", func(r *Record) { r.Joined = time.Time{} }, "Joined"},
		{"future joined", func(r *Record) { r.Joined = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC) }, "Joined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			got := v.Validate(r)

			if tt.wantField == "" {
				if len(got) != 0 {
					t.Fatalf("expected no violations, got %+v", got)
				}
				return
			}
			if len(got) != 1 || got[0].Field != tt.wantField {
				t.Fatalf("violations = %+v, want one on %s", got, tt.wantField)
			}
		})
	}
}

func TestValidateBatch(t *testing.T) {
	good := validRecord()
	bad := validRecord()
	bad.Email = "nope"
	bad.Phone = ""

	valid, violations := ValidateBatch(DefaultValidator{Now: fixedNow}, []Record{bad, good, bad})
	if len(valid) != 1 || valid[0].Name != good.Name {
		t.Fatalf("valid = %+v", valid)
	}
	if len(violations) != 4 {
		t.Fatalf("violations = %d, want 4", len(violations))
	}
	if got := violations[0].Code(); got != "Employee[0].Email" {
		t.Errorf("first code = %q", got)
	}
	if got := violations[3].Code(); got != "Employee[2].Tel" {
		t.Errorf("last code = %q", got)
	}
}

func TestValidatorFunc(t *testing.T) {
	calls := 0
	v := ValidatorFunc(func(Record) []FieldViolation {
		calls++
		return nil
	})
	valid, violations := ValidateBatch(v, []Record{{}, {}})
	if calls != 2 || len(valid) != 2 || violations != nil {
		t.Errorf("calls=%d valid=%d violations=%v", calls, len(valid), violations)
	}
}
