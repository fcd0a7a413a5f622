package mapping

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveFirstNonEmpty(t *testing.T) {
	fields := map[string]any{
		"A": "",
		"B": map[string]any{},
		"C": "found",
		"D": "later",
	}

	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"skips empty string and empty object", []string{"A", "B", "C", "D"}, "found"},
		{"missing keys skipped", []string{"X", "Y", "D"}, "later"},
		{"nothing matches", []string{"X", "Y"}, ""},
		{"order preserved exactly as configured", []string{"D", "C"}, "later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := String(Resolve(fields, tt.candidates)); got != tt.want {
				t.Errorf("Resolve(%v) = %q, want %q", tt.candidates, got, tt.want)
			}
		})
	}
}

func TestResolveNilFields(t *testing.T) {
	if got := Resolve(nil, []string{"A"}); got != nil {
		t.Errorf("Resolve(nil) = %v", got)
	}
}

func TestLookupPathDotted(t *testing.T) {
	fields := map[string]any{
		"Customer": map[string]any{
			"contact": map[string]any{"name": "Deep Dana"},
		},
		"Flat": "flat value",
	}

	if got := String(lookupPath(fields, "Customer.contact.name")); got != "Deep Dana" {
		t.Errorf("dotted lookup = %q", got)
	}
	if got := String(lookupPath(fields, "Flat")); got != "flat value" {
		t.Errorf("flat lookup = %q", got)
	}
	if got := lookupPath(fields, "Customer.missing.name"); got != nil {
		t.Errorf("missing path = %v", got)
	}
	if got := lookupPath(fields, "Flat.nested"); got != nil {
		t.Errorf("descending into a string = %v", got)
	}
}

func TestLoadFieldMapOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fieldmap.yaml")
	override := `
clientName:
  - "Account Holder"
  - "Customer.fullName"
status:
  - "Pipeline Stage"
`
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fm, err := LoadFieldMap(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(fm.ClientName) != 2 || fm.ClientName[0] != "Account Holder" {
		t.Errorf("clientName = %v", fm.ClientName)
	}
	if len(fm.Status) != 1 || fm.Status[0] != "Pipeline Stage" {
		t.Errorf("status = %v", fm.Status)
	}
	// Lists absent from the override keep their defaults.
	if len(fm.ClientEmail) == 0 || fm.ClientEmail[0] != "Client Email" {
		t.Errorf("clientEmail = %v", fm.ClientEmail)
	}
}

func TestLoadFieldMapDefaults(t *testing.T) {
	fm, err := LoadFieldMap("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(fm.ClientName) == 0 || len(fm.CommentLog) == 0 {
		t.Error("defaults missing lists")
	}
}

func TestLoadFieldMapBadFile(t *testing.T) {
	if _, err := LoadFieldMap("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	os.WriteFile(path, []byte(":\t not yaml ["), 0o644)
	if _, err := LoadFieldMap(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
