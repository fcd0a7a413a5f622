package credstore

import (
	"testing"
)

func TestCredentialRoundTrip(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	cred, err := s.LoadCredential()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cred != nil {
		t.Fatalf("expected empty slot, got %+v", cred)
	}

	if err := s.SaveCredential(Credential{AccessToken: "abc123", TokenType: "Bearer"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	cred, err = s.LoadCredential()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cred == nil || cred.AccessToken != "abc123" {
		t.Fatalf("unexpected credential: %+v", cred)
	}
	if got := cred.AuthorizationValue(); got != "Bearer abc123" {
		t.Errorf("authorization value = %q", got)
	}

	// Overwrite replaces, not appends.
	if err := s.SaveCredential(Credential{AccessToken: "def456"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	cred, _ = s.LoadCredential()
	if cred.AccessToken != "def456" {
		t.Errorf("expected overwrite, got %q", cred.AccessToken)
	}
	if got := cred.AuthorizationValue(); got != "Bearer def456" {
		t.Errorf("missing token type should default to Bearer, got %q", got)
	}

	if err := s.ClearCredential(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	cred, _ = s.LoadCredential()
	if cred != nil {
		t.Errorf("expected cleared slot, got %+v", cred)
	}
}

func TestVerifierSingleUse(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.PutVerifier("state-1", "verifier-1"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutVerifier("state-2", "verifier-2"); err != nil {
		t.Fatalf("put: %v", err)
	}

	v, ok, err := s.TakeVerifier("state-1")
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if !ok || v != "verifier-1" {
		t.Fatalf("take = %q, %v", v, ok)
	}

	// Second take for the same state must miss.
	_, ok, err = s.TakeVerifier("state-1")
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if ok {
		t.Error("verifier was not single-use")
	}

	// An unknown state misses without error.
	_, ok, err = s.TakeVerifier("never-stored")
	if err != nil || ok {
		t.Fatalf("unknown state: ok=%v err=%v", ok, err)
	}

	// The untouched slot is still there until cleared.
	if err := s.ClearVerifiers(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	_, ok, _ = s.TakeVerifier("state-2")
	if ok {
		t.Error("expected verifiers cleared")
	}
}

func TestOpenCreatesDataDir(t *testing.T) {
	dir := t.TempDir() + "/nested/data"
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.SaveCredential(Credential{AccessToken: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
}
