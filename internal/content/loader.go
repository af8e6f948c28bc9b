package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"bilingual/internal/models"
	"bilingual/internal/utils"
)

const lessonExt = ".json"

var ErrMalformedLesson = errors.New("malformed lesson file")

// languageJSON is one language of a question as stored in a lesson file.
// last_success is a unix timestamp, as written by the earliest data format.
type languageJSON struct {
	Sentence          string            `json:"sentence"`
	Hints             string            `json:"hints,omitempty"`
	Explanation       string            `json:"explanation,omitempty"`
	LegacyExplanation string            `json:"explaination,omitempty"`
	Explanations      map[string]string `json:"explanations,omitempty"`
	SuccessRate       *float64          `json:"success_rate,omitempty"`
	Tries             *int              `json:"tries,omitempty"`
	LastSuccess       *int64            `json:"last_success,omitempty"`
}

// Load reads every <dir>/<category>/<lesson>.json file into a new store.
// A file that cannot be parsed aborts the whole load.
func Load(dir string) (*Store, error) {
	categories, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	store := NewStore()
	for _, categoryDir := range categories {
		if !categoryDir.IsDir() {
			continue
		}
		category := categoryDir.Name()

		files, err := os.ReadDir(filepath.Join(dir, category))
		if err != nil {
			return nil, fmt.Errorf("failed to read category %s: %w", category, err)
		}

		for _, file := range files {
			if file.IsDir() || filepath.Ext(file.Name()) != lessonExt {
				continue
			}
			lesson := strings.TrimSuffix(file.Name(), lessonExt)
			path := filepath.Join(dir, category, file.Name())

			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read lesson %s: %w", path, err)
			}
			questions, err := DecodeLesson(data)
			if err != nil {
				return nil, fmt.Errorf("failed to load lesson %s: %w", path, err)
			}
			for _, q := range questions {
				if err := store.AddQuestion(category, lesson, q); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := store.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Loaded %d questions from %d categories in %s", store.Len(), len(store.ListCategories()), dir)
	return store, nil
}

// LessonPath returns the file a lesson is stored in
func LessonPath(dir, category, lesson string) string {
	return filepath.Join(dir, category, lesson+lessonExt)
}

// SaveLesson rewrites a whole lesson file from the store
func SaveLesson(dir string, store *Store, category, lesson string) error {
	questions, err := store.ListQuestions(category, lesson)
	if err != nil {
		return err
	}
	data, err := EncodeLesson(questions)
	if err != nil {
		return fmt.Errorf("failed to encode lesson %s/%s: %w", category, lesson, err)
	}
	return utils.WriteFileAtomic(LessonPath(dir, category, lesson), data, 0644)
}

// DecodeLesson parses a lesson file. Two layouts are accepted: an object keyed by
// question id, and the earliest array layout where ids are assigned by position.
func DecodeLesson(data []byte) ([]*models.Question, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedLesson)
	}

	raw := make(map[string]map[string]languageJSON)
	if trimmed[0] == '[' {
		var list []map[string]languageJSON
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLesson, err)
		}
		for i, languages := range list {
			raw[strconv.Itoa(i+1)] = languages
		}
	} else if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLesson, err)
	}

	if len(raw) == 0 {
		return nil, ErrEmptyLesson
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sortIDs(ids)

	questions := make([]*models.Question, 0, len(ids))
	for _, id := range ids {
		q, err := toQuestion(id, raw[id])
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// EncodeLesson renders questions in the object layout, mastery included
func EncodeLesson(questions []*models.Question) ([]byte, error) {
	raw := make(map[string]map[string]languageJSON, len(questions))
	for _, q := range questions {
		languages := make(map[string]languageJSON, len(q.Languages))
		for language, entry := range q.Languages {
			languages[language] = fromEntry(entry)
		}
		raw[q.ID] = languages
	}
	return json.MarshalIndent(raw, "", "    ")
}

func toQuestion(id string, languages map[string]languageJSON) (*models.Question, error) {
	if len(languages) == 0 {
		return nil, fmt.Errorf("%w: question %s has no languages", ErrMalformedLesson, id)
	}

	q := &models.Question{ID: id, Languages: make(map[string]*models.LanguageEntry, len(languages))}
	for language, l := range languages {
		if strings.TrimSpace(l.Sentence) == "" {
			return nil, fmt.Errorf("%w: question %s has no %s sentence", ErrMalformedLesson, id, language)
		}
		mastery, err := toMastery(l)
		if err != nil {
			return nil, fmt.Errorf("%w: question %s (%s): %v", ErrMalformedLesson, id, language, err)
		}

		explanation := l.Explanation
		if explanation == "" {
			explanation = l.LegacyExplanation
		}
		q.Languages[language] = &models.LanguageEntry{
			Sentence:     l.Sentence,
			Hints:        l.Hints,
			Explanation:  explanation,
			Explanations: l.Explanations,
			Mastery:      mastery,
		}
	}
	return q, nil
}

// toMastery normalizes both mastery schemas to the running-rate form.
// An entry that only carries last_success comes from the time-decay format:
// a recorded success counts as one correct try.
func toMastery(l languageJSON) (*models.Mastery, error) {
	var last *time.Time
	if l.LastSuccess != nil {
		t := time.Unix(*l.LastSuccess, 0)
		last = &t
	}

	if l.Tries == nil && l.SuccessRate == nil {
		if last == nil {
			return nil, nil
		}
		return &models.Mastery{SuccessRate: 1, Tries: 1, LastSuccess: last}, nil
	}

	m := &models.Mastery{LastSuccess: last}
	if l.Tries != nil {
		m.Tries = *l.Tries
	}
	if l.SuccessRate != nil {
		m.SuccessRate = *l.SuccessRate
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func fromEntry(entry *models.LanguageEntry) languageJSON {
	l := languageJSON{
		Sentence:     entry.Sentence,
		Hints:        entry.Hints,
		Explanation:  entry.Explanation,
		Explanations: entry.Explanations,
	}
	if m := entry.Mastery; m != nil {
		rate, tries := m.SuccessRate, m.Tries
		l.SuccessRate = &rate
		l.Tries = &tries
		if m.LastSuccess != nil {
			unix := m.LastSuccess.Unix()
			l.LastSuccess = &unix
		}
	}
	return l
}

// sortIDs orders numeric ids numerically and everything else lexically after them
func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}
