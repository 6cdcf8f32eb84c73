package messagequeue

import (
	"strings"
	"testing"
)

func TestValidateRunCompleted(t *testing.T) {
	data := []byte(`{"run_id":"r1","status":"completed","provider":"fake","destination":"Paris","duration":7,"duration_ms":12}`)
	if err := Validate(SubjectRunCompleted, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRunFailed(t *testing.T) {
	data := []byte(`{"run_id":"r1","status":"failed","failed_task":"itinerary_creation"}`)
	if err := Validate(SubjectRunFailed, data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateMissingRunID(t *testing.T) {
	err := Validate(SubjectRunCompleted, []byte(`{"status":"completed"}`))
	if err == nil || !strings.Contains(err.Error(), "run_id is required") {
		t.Fatalf("expected run_id error, got: %v", err)
	}
}

func TestValidateUnknownSubject(t *testing.T) {
	if err := Validate("unknown.subject", []byte(`{"foo":"bar"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInvalidJSON(t *testing.T) {
	err := Validate(SubjectRunCompleted, []byte(`{not valid json`))
	if err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Fatalf("expected 'invalid JSON' in error, got: %v", err)
	}
}

func TestValidateInvalidSchema(t *testing.T) {
	err := Validate(SubjectRunFailed, []byte(`"just a string"`))
	if err == nil || !strings.Contains(err.Error(), "schema validation failed") {
		t.Fatalf("expected 'schema validation failed' in error, got: %v", err)
	}
}
