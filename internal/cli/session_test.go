package cli

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"bilingual/internal/content"
	"bilingual/internal/models"
	"bilingual/internal/repository"
	"bilingual/internal/service"
)

var gareRef = models.QuestionRef{Category: "travel", Lesson: "station", QuestionID: "1"}

func newTestStore(t *testing.T) *content.Store {
	t.Helper()
	store := content.NewStore()
	q := &models.Question{ID: "1", Languages: map[string]*models.LanguageEntry{
		"english": {Sentence: "Where is the station?", Hints: "gare"},
		"french": {
			Sentence:     "Où est la gare ?",
			Explanations: map[string]string{"est": "third person of être"},
		},
	}}
	if err := store.AddQuestion("travel", "station", q); err != nil {
		t.Fatal(err)
	}
	return store
}

func newTestOptions(t *testing.T, store *content.Store, progress service.ProgressStore) Options {
	t.Helper()
	progressService, err := service.NewProgressService(store, nil)
	if err != nil {
		t.Fatal(err)
	}
	return Options{
		Scheduler: service.NewScheduler(store, progress, service.SchedulerConfig{Rand: rand.New(rand.NewSource(1))}),
		Progress:  progressService,
		Languages: store.Languages(),
	}
}

func TestSessionPlaysALesson(t *testing.T) {
	store := newTestStore(t)
	opts := newTestOptions(t, store, nil)

	input := strings.Join([]string{
		"english", "french", // languages
		"1",                // category
		"station",          // lesson by name
		"ou est la gare",   // wrong: accents matter
		"",                 // leave the review
		"où est la gare ?", // correct
		"",                 // back to lessons
		":q",               // back to categories
		"",                 // back to languages
		"",                 // quit
	}, "\n") + "\n"

	var out bytes.Buffer
	if err := NewSession(strings.NewReader(input), &out, opts).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, want := range []string{
		"Where is the station?",
		"hint: gare",
		"Incorrect.",
		"expected:  Où est la gare ?",
		"est: third person of être",
		"Correct!",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output is missing %q\n%s", want, out.String())
		}
	}

	q, _ := store.Question(gareRef)
	if m := q.Mastery("french"); m.Tries != 2 || m.SuccessRate != 0.5 {
		t.Errorf("mastery = %+v, want tries=2 rate=0.5", m)
	}
	if st := opts.Scheduler.State(); st.Category != "" || st.Lesson != "" {
		t.Errorf("state after leaving = %+v", st)
	}
}

func TestSessionProfiles(t *testing.T) {
	store := newTestStore(t)
	repo := repository.NewProfileFileRepository(t.TempDir())
	opts := newTestOptions(t, store, repo)
	opts.Profiles = service.NewProfileService(repo, opts.Scheduler)
	opts.SpokenLanguage, opts.LearnedLanguage = "english", "french"

	// The preselected pair skips the language prompt
	input := strings.Join([]string{
		"+alice", "", // create without pin
		"1",          // select alice
		"1",          // category
		"*",          // whole category
		"Où est la gare ?",
		"", // back to lessons
		"", // back to categories
		"", // back to languages
		"", // back to profiles
		"", // quit
	}, "\n") + "\n"

	var out bytes.Buffer
	if err := NewSession(strings.NewReader(input), &out, opts).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, want := range []string{"Created profile alice", "Welcome back, alice", "Translating from english to french", "[station]", "Correct!"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output is missing %q\n%s", want, out.String())
		}
	}

	tree, err := repo.GetProgress("alice")
	if err != nil {
		t.Fatal(err)
	}
	if m, ok := tree.Get(gareRef, "french"); !ok || m.Tries != 1 {
		t.Errorf("saved mastery = %+v, %v; want one try", m, ok)
	}
}

func TestSessionEndOfInput(t *testing.T) {
	opts := newTestOptions(t, newTestStore(t), nil)
	var out bytes.Buffer
	if err := NewSession(strings.NewReader("english\n"), &out, opts).Run(context.Background()); err != nil {
		t.Errorf("Run() at end of input error = %v, want nil", err)
	}
}

func TestSessionRejectsBadChoices(t *testing.T) {
	opts := newTestOptions(t, newTestStore(t), nil)
	input := "english\nenglish\nenglish\nfrench\n7\n\n\n"

	var out bytes.Buffer
	if err := NewSession(strings.NewReader(input), &out, opts).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "must differ") {
		t.Errorf("output does not explain the same-language error:\n%s", out.String())
	}
	if !strings.Contains(out.String(), `No category "7"`) {
		t.Errorf("output does not reject category 7:\n%s", out.String())
	}
}

func TestPickName(t *testing.T) {
	names := []string{"food", "travel"}
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{input: "1", want: "food", wantOK: true},
		{input: "2", want: "travel", wantOK: true},
		{input: "travel", want: "travel", wantOK: true},
		{input: "0", want: "0", wantOK: false},
		{input: "3", want: "3", wantOK: false},
		{input: "Travel", want: "Travel", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := pickName(tt.input, names)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("pickName(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
