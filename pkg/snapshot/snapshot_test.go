package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func populatedSnapshot() (s Snapshot) {
	s = Snapshot{
		State:            StatePopulated,
		GeneratedAt:      time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC),
		Contributions30d: 412,
		Contributions90d: 1187,
		OriginalVsForked: RepoOrigin{Original: 38, Forked: 9},
		ActiveVsArchived: RepoActivity{Active: 41, Archived: 6},
		LanguageMix: []LanguageShare{
			{Label: "Go", Percentage: 48.5},
			{Label: "Python", Percentage: 21.2},
			{Label: "TypeScript", Percentage: 15.0},
			{Label: "Shell", Percentage: 9.1},
			{Label: "HCL", Percentage: 6.2},
		},
		PublicRepoCount:  27,
		PrivateRepoCount: 20,
		StarCount:        1342,
		FollowerCount:    215,
	}
	return s
}

func TestPending(t *testing.T) {
	s := Pending()

	if !s.IsPending() {
		t.Error("Expected pending snapshot to report IsPending")
	}

	err := s.Validate()
	if err != nil {
		t.Errorf("Expected pending snapshot to validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(s *Snapshot)
		wantError bool
	}{
		{
			name:      "valid populated",
			mutate:    func(s *Snapshot) {},
			wantError: false,
		},
		{
			name: "populated with empty language mix",
			mutate: func(s *Snapshot) {
				s.LanguageMix = nil
			},
			wantError: false,
		},
		{
			name: "populated missing generated_at",
			mutate: func(s *Snapshot) {
				s.GeneratedAt = time.Time{}
			},
			wantError: true,
		},
		{
			name: "negative counter",
			mutate: func(s *Snapshot) {
				s.StarCount = -1
			},
			wantError: true,
		},
		{
			name: "negative pair member",
			mutate: func(s *Snapshot) {
				s.ActiveVsArchived.Archived = -3
			},
			wantError: true,
		},
		{
			name: "too many languages",
			mutate: func(s *Snapshot) {
				for i := 0; i < MaxLanguages; i++ {
					s.LanguageMix = append(s.LanguageMix, LanguageShare{Label: "Lang", Percentage: 0})
				}
			},
			wantError: true,
		},
		{
			name: "language without label",
			mutate: func(s *Snapshot) {
				s.LanguageMix[0].Label = ""
			},
			wantError: true,
		},
		{
			name: "percentage out of range",
			mutate: func(s *Snapshot) {
				s.LanguageMix[0].Percentage = 120
			},
			wantError: true,
		},
		{
			name: "percentages sum past 100",
			mutate: func(s *Snapshot) {
				s.LanguageMix[0].Percentage = 60
			},
			wantError: true,
		},
		{
			name: "unknown state",
			mutate: func(s *Snapshot) {
				s.State = "partial"
			},
			wantError: true,
		},
		{
			name: "pending with values is mixed",
			mutate: func(s *Snapshot) {
				s.State = StatePending
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := populatedSnapshot()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestValidatePendingWithSingleValue(t *testing.T) {
	s := Pending()
	s.FollowerCount = 3

	err := s.Validate()
	if err == nil {
		t.Error("Expected error for pending snapshot carrying a value, got nil")
	}
}

func TestParseJSON(t *testing.T) {
	data := []byte(`{
  "generated_at": "2026-10-18T06:00:00Z",
  "contributions_30d": 412,
  "contributions_90d": 1187,
  "original_vs_forked": {"original": 38, "forked": 9},
  "active_vs_archived": {"active": 41, "archived": 6},
  "language_mix": [{"label": "Go", "percentage": 70.5}, {"label": "Shell", "percentage": 29.5}],
  "public_repo_count": 27,
  "private_repo_count": 20,
  "star_count": 1342,
  "follower_count": 215
}`)

	s, err := Parse(data, FormatJSON)
	if err != nil {
		t.Fatalf("Failed to parse snapshot: %v", err)
	}

	if s.State != StatePopulated {
		t.Errorf("Expected inferred state populated, got %s", s.State)
	}

	if s.Contributions90d != 1187 {
		t.Errorf("Expected contributions_90d 1187, got %d", s.Contributions90d)
	}

	if len(s.LanguageMix) != 2 || s.LanguageMix[1].Label != "Shell" {
		t.Errorf("Unexpected language mix: %+v", s.LanguageMix)
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`state: populated
generated_at: 2026-10-18T06:00:00Z
contributions_30d: 12
contributions_90d: 40
original_vs_forked:
  original: 5
  forked: 1
active_vs_archived:
  active: 6
  archived: 0
language_mix:
  - label: Go
    percentage: 100
public_repo_count: 4
private_repo_count: 2
star_count: 9
follower_count: 3
`)

	s, err := Parse(data, FormatYAML)
	if err != nil {
		t.Fatalf("Failed to parse YAML snapshot: %v", err)
	}

	if !s.GeneratedAt.Equal(time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected generated_at %v", s.GeneratedAt)
	}

	if s.OriginalVsForked.Original != 5 {
		t.Errorf("Expected 5 original repos, got %d", s.OriginalVsForked.Original)
	}
}

func TestParseInfersPending(t *testing.T) {
	s, err := Parse([]byte(`{}`), FormatJSON)
	if err != nil {
		t.Fatalf("Failed to parse empty object: %v", err)
	}

	if !s.IsPending() {
		t.Errorf("Expected empty snapshot to be pending, got %s", s.State)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{name: "empty", data: "  \n", format: FormatJSON},
		{name: "invalid json", data: "not json", format: FormatJSON},
		{name: "invalid yaml", data: "state: [unterminated", format: FormatYAML},
		{name: "mixed state", data: `{"state": "pending", "star_count": 4}`, format: FormatJSON},
		{name: "unknown format", data: `{}`, format: Format("toml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			if err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected Format
	}{
		{"snapshot.json", FormatJSON},
		{"snapshot.yaml", FormatYAML},
		{"SNAPSHOT.YML", FormatYAML},
		{"snapshot", FormatJSON},
		{"/stats/latest.yml", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := FormatFromPath(tt.path); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	for _, name := range []string{"snapshot.json", "snapshot.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			original := populatedSnapshot()

			err := Save(path, original)
			if err != nil {
				t.Fatalf("Failed to save snapshot: %v", err)
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Failed to load snapshot: %v", err)
			}

			if loaded.StarCount != original.StarCount || !loaded.GeneratedAt.Equal(original.GeneratedAt) {
				t.Errorf("Loaded snapshot differs: %+v", loaded)
			}

			if len(loaded.LanguageMix) != len(original.LanguageMix) {
				t.Errorf("Expected %d languages, got %d", len(original.LanguageMix), len(loaded.LanguageMix))
			}
		})
	}
}

func TestSavePending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")

	err := Save(path, Pending())
	if err != nil {
		t.Fatalf("Failed to save pending snapshot: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load pending snapshot: %v", err)
	}

	if !loaded.IsPending() {
		t.Error("Expected loaded snapshot to be pending")
	}
}

func TestSaveInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	s := populatedSnapshot()
	s.GeneratedAt = time.Time{}

	err := Save(path, s)
	if err == nil {
		t.Fatal("Expected error saving invalid snapshot, got nil")
	}

	_, err = os.Stat(path)
	if !os.IsNotExist(err) {
		t.Error("Invalid snapshot should not have been written")
	}
}

func TestLoadNonexistent(t *testing.T) {
	_, err := Load("/nonexistent/snapshot.json")
	if err == nil {
		t.Error("Expected error loading nonexistent snapshot, got nil")
	}
}
