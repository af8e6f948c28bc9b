package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bilingual/internal/content"
	"bilingual/internal/database"
	"bilingual/internal/models"
	"bilingual/internal/utils"

	"github.com/google/uuid"
)

var airportRef = models.QuestionRef{Category: "travel", Lesson: "airport", QuestionID: "1"}

func newTestStore(t *testing.T) *content.Store {
	t.Helper()
	store := content.NewStore()
	questions := []*models.Question{
		{ID: "1", Languages: map[string]*models.LanguageEntry{
			"english": {Sentence: "Where is the gate?"},
			"french":  {Sentence: "Où est la porte ?"},
		}},
		{ID: "2", Languages: map[string]*models.LanguageEntry{
			"english": {Sentence: "My flight is late."},
			"french":  {Sentence: "Mon vol est en retard."},
		}},
	}
	for _, q := range questions {
		if err := store.AddQuestion("travel", "airport", q); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func newTestProfile(name string) *models.Profile {
	return &models.Profile{ID: uuid.New(), Name: name, CreatedAt: time.Unix(1700000000, 0)}
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestProfileFileRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileFileRepository(t.TempDir())

	if err := repo.CreateProfile(ctx, newTestProfile("zoe")); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if err := repo.CreateProfile(ctx, newTestProfile("adam")); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if err := repo.CreateProfile(ctx, newTestProfile("zoe")); !errors.Is(err, ErrProfileExists) {
		t.Errorf("CreateProfile() duplicate error = %v, want ErrProfileExists", err)
	}

	profiles, err := repo.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	if len(profiles) != 2 || profiles[0].Name != "adam" || profiles[1].Name != "zoe" {
		t.Errorf("ListProfiles() = %+v, want adam then zoe", profiles)
	}

	if _, err := repo.GetProfileByName(ctx, "nobody"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("GetProfileByName() error = %v, want ErrProfileNotFound", err)
	}

	if err := repo.DeleteProfile(ctx, "zoe"); err != nil {
		t.Fatalf("DeleteProfile() error = %v", err)
	}
	if err := repo.DeleteProfile(ctx, "zoe"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("DeleteProfile() twice error = %v, want ErrProfileNotFound", err)
	}
}

func TestProfileFileRepositoryProgressRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := NewProfileFileRepository(dir)
	if err := repo.CreateProfile(ctx, newTestProfile("alice")); err != nil {
		t.Fatal(err)
	}

	store := newTestStore(t)
	q, _ := store.Question(airportRef)
	*q.EnsureMastery("french") = models.Mastery{SuccessRate: 0.75, Tries: 4}
	if err := repo.SaveProgress(ctx, "alice", store, airportRef); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}

	fresh := newTestStore(t)
	if err := repo.LoadProgress(ctx, "alice", fresh); err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	got, _ := fresh.Question(airportRef)
	if m := got.Mastery("french"); m.Tries != 4 || m.SuccessRate != 0.75 {
		t.Errorf("loaded mastery = %+v, want tries=4 rate=0.75", m)
	}
	if other, _ := fresh.Question(models.QuestionRef{Category: "travel", Lesson: "airport", QuestionID: "2"}); other.Mastery("french").Attempted() {
		t.Error("untouched question should have no mastery")
	}
}

func TestProfileFileRepositoryKeepsUnknownContent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := NewProfileFileRepository(dir)
	if err := repo.CreateProfile(ctx, newTestProfile("alice")); err != nil {
		t.Fatal(err)
	}

	// Progress for a lesson that is no longer part of the content
	tree, err := repo.GetProgress("alice")
	if err != nil {
		t.Fatal(err)
	}
	retired := models.QuestionRef{Category: "retired", Lesson: "old", QuestionID: "9"}
	tree.Set(retired, "french", models.Mastery{SuccessRate: 1, Tries: 1})
	pf, _ := repo.read("alice")
	pf.Progress = tree
	if err := repo.write(pf); err != nil {
		t.Fatal(err)
	}

	store := newTestStore(t)
	if err := repo.LoadProgress(ctx, "alice", store); err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	q, _ := store.Question(airportRef)
	*q.EnsureMastery("french") = models.Mastery{Tries: 1}
	if err := repo.SaveProgress(ctx, "alice", store, airportRef); err != nil {
		t.Fatal(err)
	}

	saved, err := repo.GetProgress("alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := saved.Get(retired, "french"); !ok {
		t.Error("SaveProgress() dropped mastery for unloaded content")
	}
	if _, ok := saved.Get(airportRef, "french"); !ok {
		t.Error("SaveProgress() did not persist the answered question")
	}
}

func TestProfileFileRepositoryMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	repo := NewProfileFileRepository(dir)

	if err := repo.LoadProgress(context.Background(), "broken", newTestStore(t)); err == nil {
		t.Error("LoadProgress() should fail on a malformed profile file")
	}
	if _, err := repo.ListProfiles(context.Background()); err == nil {
		t.Error("ListProfiles() should fail on a malformed profile file")
	}
}

func TestProfileFileRepositoryRejectsUnsafeNames(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	lessonPath := filepath.Join(root, "content", "travel", "greetings.json")
	lesson := []byte(`{"1": {"english": {"sentence": "Hello"}, "french": {"sentence": "Bonjour"}}}`)
	if err := os.MkdirAll(filepath.Dir(lessonPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lessonPath, lesson, 0644); err != nil {
		t.Fatal(err)
	}
	repo := NewProfileFileRepository(filepath.Join(root, "profiles"))
	name := "../content/travel/greetings"

	tests := []struct {
		name string
		call func() error
	}{
		{name: "get", call: func() error { _, err := repo.GetProfileByName(ctx, name); return err }},
		{name: "create", call: func() error { return repo.CreateProfile(ctx, newTestProfile(name)) }},
		{name: "load", call: func() error { return repo.LoadProgress(ctx, name, newTestStore(t)) }},
		{name: "save", call: func() error { return repo.SaveProgress(ctx, name, newTestStore(t), airportRef) }},
		{name: "delete", call: func() error { return repo.DeleteProfile(ctx, name) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr utils.ValidationError
			if err := tt.call(); !errors.As(err, &verr) {
				t.Errorf("error = %v, want ValidationError", err)
			}
		})
	}

	got, err := os.ReadFile(lessonPath)
	if err != nil {
		t.Fatalf("lesson file is gone: %v", err)
	}
	if string(got) != string(lesson) {
		t.Errorf("lesson file was rewritten: %s", got)
	}
}

func TestProfileFileRepositoryListSkipsInvalidNames(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := NewProfileFileRepository(dir)
	if err := repo.CreateProfile(ctx, newTestProfile("alice")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "not a profile.json"), []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}

	profiles, err := repo.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	if len(profiles) != 1 || profiles[0].Name != "alice" {
		t.Errorf("ListProfiles() = %+v, want only alice", profiles)
	}
}

func TestProfileFileRepositoryRejectsOutOfRangeMastery(t *testing.T) {
	tests := []struct {
		name    string
		mastery string
	}{
		{name: "rate above one", mastery: `{"success_rate": 7, "tries": 2}`},
		{name: "negative rate", mastery: `{"success_rate": -0.5, "tries": 2}`},
		{name: "negative tries", mastery: `{"success_rate": 0.5, "tries": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			body := `{"name": "alice", "progress": {"travel": {"airport": {"1": {"french": ` + tt.mastery + `}}}}}`
			if err := os.WriteFile(filepath.Join(dir, "alice.json"), []byte(body), 0600); err != nil {
				t.Fatal(err)
			}
			repo := NewProfileFileRepository(dir)

			store := newTestStore(t)
			if err := repo.LoadProgress(context.Background(), "alice", store); !errors.Is(err, models.ErrInvalidMastery) {
				t.Errorf("LoadProgress() error = %v, want ErrInvalidMastery", err)
			}
			if store.Snapshot().Count() != 0 {
				t.Error("corrupt mastery reached the store")
			}
		})
	}
}

func TestLessonFileRepository(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := newTestStore(t)
	if err := content.SaveLesson(dir, store, "travel", "airport"); err != nil {
		t.Fatal(err)
	}

	repo := NewLessonFileRepository(dir)
	q, _ := store.Question(airportRef)
	*q.EnsureMastery("french") = models.Mastery{SuccessRate: 0.5, Tries: 2}
	if err := repo.SaveProgress(ctx, "", store, airportRef); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}

	store.ResetMastery()
	if err := repo.LoadProgress(ctx, "", store); err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	if m := q.Mastery("french"); m.Tries != 2 || m.SuccessRate != 0.5 {
		t.Errorf("mastery after reload = %+v, want tries=2 rate=0.5", m)
	}
}

func TestProfileRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	ctx := context.Background()
	repo := NewProfileRepository(openTestDB(t))

	alice := newTestProfile("alice")
	alice.PinHash = "hash"
	if err := repo.CreateProfile(ctx, alice); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if err := repo.CreateProfile(ctx, newTestProfile("alice")); !errors.Is(err, ErrProfileExists) {
		t.Errorf("CreateProfile() duplicate error = %v, want ErrProfileExists", err)
	}

	got, err := repo.GetProfileByName(ctx, "alice")
	if err != nil {
		t.Fatalf("GetProfileByName() error = %v", err)
	}
	if got.ID != alice.ID || got.PinHash != "hash" || !got.CreatedAt.Equal(alice.CreatedAt) {
		t.Errorf("GetProfileByName() = %+v, want %+v", got, alice)
	}

	if err := repo.CreateProfile(ctx, newTestProfile("bob")); err != nil {
		t.Fatal(err)
	}
	profiles, err := repo.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	if len(profiles) != 2 || profiles[0].Name != "alice" {
		t.Errorf("ListProfiles() = %+v", profiles)
	}

	if err := repo.DeleteProfile(ctx, "bob"); err != nil {
		t.Fatalf("DeleteProfile() error = %v", err)
	}
	if _, err := repo.GetProfileByName(ctx, "bob"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("GetProfileByName() after delete error = %v, want ErrProfileNotFound", err)
	}
}

func TestMasteryRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	ctx := context.Background()
	db := openTestDB(t)
	profiles := NewProfileRepository(db)
	mastery := NewMasteryRepository(db, profiles)

	alice := newTestProfile("alice")
	if err := profiles.CreateProfile(ctx, alice); err != nil {
		t.Fatal(err)
	}

	store := newTestStore(t)
	q, _ := store.Question(airportRef)
	last := time.Unix(1700000500, 0)
	*q.EnsureMastery("french") = models.Mastery{SuccessRate: 0.5, Tries: 2, LastSuccess: &last}

	// Saving twice exercises the upsert path
	for i := 0; i < 2; i++ {
		if err := mastery.SaveProgress(ctx, "alice", store, airportRef); err != nil {
			t.Fatalf("SaveProgress() error = %v", err)
		}
	}

	tree, err := mastery.GetProgress(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetProgress() error = %v", err)
	}
	if tree.Count() != 1 {
		t.Errorf("GetProgress() returned %d records, want 1", tree.Count())
	}

	fresh := newTestStore(t)
	if err := mastery.LoadProgress(ctx, "alice", fresh); err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	got, _ := fresh.Question(airportRef)
	m := got.Mastery("french")
	if m.Tries != 2 || m.SuccessRate != 0.5 || m.LastSuccess == nil || !m.LastSuccess.Equal(last) {
		t.Errorf("loaded mastery = %+v", m)
	}

	if err := mastery.LoadProgress(ctx, "nobody", fresh); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("LoadProgress() unknown profile error = %v, want ErrProfileNotFound", err)
	}

	if err := profiles.DeleteProfile(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	tree, err = mastery.GetProgress(ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Count() != 0 {
		t.Errorf("mastery survived profile deletion: %d records", tree.Count())
	}
}

func TestMasteryRepositoryRejectsOutOfRangeRows(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	ctx := context.Background()
	db := openTestDB(t)
	profiles := NewProfileRepository(db)
	mastery := NewMasteryRepository(db, profiles)

	alice := newTestProfile("alice")
	if err := profiles.CreateProfile(ctx, alice); err != nil {
		t.Fatal(err)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO mastery (profile_id, category, lesson, question_id, language, success_rate, tries, last_success, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, alice.ID.String(), "travel", "airport", "1", "french", 7.0, 2, nil, int64(1700000000))
	if err != nil {
		t.Fatalf("Failed to insert mastery row: %v", err)
	}

	if _, err := mastery.GetProgress(ctx, alice.ID); !errors.Is(err, models.ErrInvalidMastery) {
		t.Errorf("GetProgress() error = %v, want ErrInvalidMastery", err)
	}
	store := newTestStore(t)
	if err := mastery.LoadProgress(ctx, "alice", store); !errors.Is(err, models.ErrInvalidMastery) {
		t.Errorf("LoadProgress() error = %v, want ErrInvalidMastery", err)
	}
	if store.Snapshot().Count() != 0 {
		t.Error("corrupt mastery reached the store")
	}
}
