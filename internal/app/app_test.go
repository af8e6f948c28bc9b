package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bilingual/internal/config"
)

const lessonJSON = `{
    "1": {"english": {"sentence": "Good morning"}, "french": {"sentence": "Bonjour"}},
    "2": {"english": {"sentence": "Thank you"}, "french": {"sentence": "Merci"}}
}`

func writeContent(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "basics"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "basics", "greetings.json"), []byte(lessonJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name         string
		store        string
		wantProfiles bool
	}{
		{name: "lesson files", store: config.StoreLessons, wantProfiles: false},
		{name: "profile files", store: config.StoreProfiles, wantProfiles: true},
		{name: "sqlite database", store: config.StoreDatabase, wantProfiles: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				ContentPath:   writeContent(t),
				ProgressStore: tt.store,
				ProfilesPath:  t.TempDir(),
				DatabaseType:  "sqlite",
				DatabasePath:  filepath.Join(t.TempDir(), "bilingual.db"),
			}

			a, err := Open(cfg)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer a.Close()

			if a.Store.Len() != 2 {
				t.Errorf("Store.Len() = %d, want 2", a.Store.Len())
			}
			if (a.Profiles != nil) != tt.wantProfiles {
				t.Errorf("Profiles set = %v, want %v", a.Profiles != nil, tt.wantProfiles)
			}
			if a.Profiles != nil {
				if _, err := a.Profiles.CreateProfile(context.Background(), "tester", ""); err != nil {
					t.Errorf("CreateProfile() error = %v", err)
				}
			}
		})
	}
}

func TestOpenRejectsUnknownPolicy(t *testing.T) {
	cfg := &config.Config{
		ContentPath:     writeContent(t),
		ProgressStore:   config.StoreLessons,
		RetentionPolicy: "forgetful",
	}
	if _, err := Open(cfg); err == nil {
		t.Error("Open() should reject an unknown retention policy")
	}
}
