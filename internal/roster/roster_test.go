package roster

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeRoster(t, `staff:
  - id: jane.smith@example.com
    name: Jane S.
    ics_url: https://calendars.example.com/jane.ics
  - id: bob_jones@example.com
`)

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	wantIDs := []string{"jane.smith@example.com", "bob_jones@example.com"}
	if !reflect.DeepEqual(r.IDs(), wantIDs) {
		t.Errorf("IDs() = %v, want %v", r.IDs(), wantIDs)
	}

	names := r.Names()
	if names["jane.smith@example.com"] != "Jane S." {
		t.Errorf("expected name override, got %v", names)
	}
	if _, ok := names["bob_jones@example.com"]; ok {
		t.Error("entry without a name should have no override")
	}

	feeds := r.Feeds()
	if feeds["jane.smith@example.com"] != "https://calendars.example.com/jane.ics" {
		t.Errorf("unexpected feeds: %v", feeds)
	}
	if len(feeds) != 1 {
		t.Errorf("expected 1 feed, got %d", len(feeds))
	}
}

func TestLoadRejectsMissingID(t *testing.T) {
	path := writeRoster(t, `staff:
  - name: Nameless
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for entry without id")
	}
}

func TestLoadRejectsDuplicates(t *testing.T) {
	path := writeRoster(t, `staff:
  - id: a@example.com
  - id: a@example.com
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate ids")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFromEmails(t *testing.T) {
	r := FromEmails([]string{"a@example.com", "b@example.com"})
	if !reflect.DeepEqual(r.IDs(), []string{"a@example.com", "b@example.com"}) {
		t.Errorf("unexpected ids: %v", r.IDs())
	}
	if len(r.Names()) != 0 || len(r.Feeds()) != 0 {
		t.Error("email roster should carry no overrides or feeds")
	}
}
