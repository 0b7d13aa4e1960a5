package common

import (
	"errors"
	"testing"
	"time"
)

func TestValidatorCollectsAllErrors(t *testing.T) {
	v := NewValidator()
	v.Require("file_location", "")
	v.Require("file_id", "   ")
	v.Require("source", "email")
	v.RequireTime("date", time.Time{})

	if !v.HasErrors() {
		t.Fatal("expected errors")
	}
	fields := v.Fields()
	if len(fields) != 3 {
		t.Fatalf("expected 3 offending fields, got %v", fields)
	}
	want := []string{"file_location", "file_id", "date"}
	for i, f := range want {
		if fields[i] != f {
			t.Errorf("position %d: expected %s, got %s", i, f, fields[i])
		}
	}
	if v.ErrorMessage() == "" {
		t.Error("expected a combined message")
	}
}

func TestValidatorClean(t *testing.T) {
	v := NewValidator()
	v.Require("source", "email")
	v.RequireTime("date", time.Now())

	if v.HasErrors() {
		t.Errorf("unexpected errors: %v", v.Errors())
	}
	if v.ErrorMessage() != "" {
		t.Errorf("expected empty message, got %q", v.ErrorMessage())
	}
}

func TestDatabaseErrorDetection(t *testing.T) {
	err := DatabaseError("duplicate check failed", errors.New("connection reset"))
	if !IsDatabaseError(err) {
		t.Error("expected database error detection")
	}
	if IsDatabaseError(ErrNotFound) {
		t.Error("not-found must not read as a database error")
	}
	if IsDatabaseError(nil) {
		t.Error("nil is not a database error")
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewAppError("TEST", "something broke", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to unwrap")
	}
	if err.Error() != "TEST: something broke: boom" {
		t.Errorf("message: %q", err.Error())
	}
}
