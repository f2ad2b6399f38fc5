package fieldnames

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDisplayNameKnownKeys(t *testing.T) {
	tests := map[string]string{
		"id":                            "ID",
		"S1_Name_of_Medicinal_product":  "Medicinal Product Name",
		"s_8_authorisation_number":      "Marketing Authorisation Number",
		"S_4_2_posology_administration": "Posology & Administration",
		"S_10_revision_date":            "Date of Revision",
		"last_updated_by":               "Last Updated By",
	}

	for key, want := range tests {
		if got := DisplayName(key); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", key, got, want)
		}
	}

	if n := len(Defaults()); n != 31 {
		t.Errorf("expected 31 built-in labels, got %d", n)
	}
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"S_4_10_paediatric_use", "4 10 Paediatric Use"},
		{"S12_extra_notes", "Extra Notes"},
		{"S_notes", "Notes"},
		{"brand_family", "Brand Family"},
		{"s_9_lowercase_prefix", "S 9 Lowercase Prefix"},
		{"alreadyCamel", "AlreadyCamel"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := Humanize(tt.key); got != tt.want {
				t.Errorf("Humanize(%q) = %q, want %q", tt.key, got, tt.want)
			}
			if got := DisplayName(tt.key); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestRegistryOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.yaml")
	if err := os.WriteFile(path, []byte("id: Identifier\nbrand_family: Family of brands\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadOverrides(path); err != nil {
		t.Fatalf("LoadOverrides returned error: %v", err)
	}

	if got := r.DisplayName("id"); got != "Identifier" {
		t.Errorf("expected override, got %q", got)
	}
	if got := r.DisplayName("brand_family"); got != "Family of brands" {
		t.Errorf("expected new label, got %q", got)
	}
	if got := r.DisplayName("country"); got != "Country" {
		t.Errorf("defaults should survive overrides, got %q", got)
	}
	if r.Generation() != 1 {
		t.Errorf("expected generation 1, got %d", r.Generation())
	}

	// the package default table is untouched
	if got := DisplayName("id"); got != "ID" {
		t.Errorf("default registry changed: %q", got)
	}
}

func TestRegistryRejectsInvalidOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.yaml")
	if err := os.WriteFile(path, []byte("id: \"\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadOverrides(path); err == nil {
		t.Fatal("expected an error for an empty label")
	}
	if err := r.LoadOverrides(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if got := r.DisplayName("id"); got != "ID" {
		t.Errorf("failed loads must keep the previous table, got %q", got)
	}
}

func TestRegistryWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.yaml")
	if err := os.WriteFile(path, []byte("id: First\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadOverrides(path); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, path) }()

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("id: Second\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for r.DisplayName("id") != "Second" && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if got := r.DisplayName("id"); got != "Second" {
		t.Errorf("expected reloaded label, got %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch did not stop after cancel")
	}
}
