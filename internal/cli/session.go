package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"bilingual/internal/models"
	"bilingual/internal/service"
)

// quitCommand leaves the current state, like a blank line
const quitCommand = ":q"

// allLessons selects every lesson of a category at once
const allLessons = "*"

type state int

const (
	stateProfile state = iota
	stateLanguages
	stateCategories
	stateLessons
	stateQuestion
	stateReview
	stateDone
)

var errBack = errors.New("back")

// Options configures a Session
type Options struct {
	Scheduler *service.Scheduler
	Progress  *service.ProgressService
	Profiles  *service.ProfileService // nil skips profile selection
	Languages []string

	// Preselected language pair; both must be set to skip the prompt
	SpokenLanguage  string
	LearnedLanguage string
}

// Session drives one play session over a line-oriented terminal
type Session struct {
	opts Options
	in   *bufio.Scanner
	out  io.Writer

	wholeCategory bool
	lastResult    *service.AnswerResult
}

// NewSession creates a session reading answers from in and writing to out
func NewSession(in io.Reader, out io.Writer, opts Options) *Session {
	return &Session{
		opts: opts,
		in:   bufio.NewScanner(in),
		out:  out,
	}
}

// Run plays until the learner leaves the first screen or input ends
func (s *Session) Run(ctx context.Context) error {
	current := stateProfile
	if s.opts.Profiles == nil {
		current = stateLanguages
	}

	for current != stateDone {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, err := s.step(ctx, current)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		current = next
	}
	return nil
}

func (s *Session) step(ctx context.Context, current state) (state, error) {
	switch current {
	case stateProfile:
		return s.chooseProfile(ctx)
	case stateLanguages:
		return s.chooseLanguages()
	case stateCategories:
		return s.chooseCategory()
	case stateLessons:
		return s.chooseLesson()
	case stateQuestion:
		return s.askQuestion(ctx)
	case stateReview:
		return s.review()
	default:
		return stateDone, nil
	}
}

func (s *Session) chooseProfile(ctx context.Context) (state, error) {
	profiles, err := s.opts.Profiles.ListProfiles(ctx)
	if err != nil {
		return stateDone, err
	}

	fmt.Fprintln(s.out, "Profiles:")
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
		lock := ""
		if p.HasPin() {
			lock = " (pin)"
		}
		fmt.Fprintf(s.out, "  %d. %s%s\n", i+1, p.Name, lock)
	}

	line, err := s.prompt("Choose a profile, or +name to create one (+ alone picks a name): ")
	if err == errBack {
		return stateDone, nil
	}
	if err != nil {
		return stateDone, err
	}

	if strings.HasPrefix(line, "+") {
		pin, err := s.prompt("PIN for the new profile (blank for none): ")
		if err != nil && err != errBack {
			return stateDone, err
		}
		profile, err := s.opts.Profiles.CreateProfile(ctx, strings.TrimPrefix(line, "+"), pin)
		if err != nil {
			fmt.Fprintf(s.out, "Could not create profile: %v\n", err)
			return stateProfile, nil
		}
		fmt.Fprintf(s.out, "Created profile %s\n", profile.Name)
		return stateProfile, nil
	}

	name, ok := pickName(line, names)
	if !ok {
		fmt.Fprintf(s.out, "No profile %q\n", line)
		return stateProfile, nil
	}

	pin := ""
	for _, p := range profiles {
		if p.Name == name && p.HasPin() {
			pin, err = s.prompt("PIN: ")
			if err == errBack {
				return stateProfile, nil
			}
			if err != nil {
				return stateDone, err
			}
		}
	}

	if _, err := s.opts.Profiles.SelectProfile(ctx, name, pin); err != nil {
		fmt.Fprintf(s.out, "Could not open profile: %v\n", err)
		return stateProfile, nil
	}
	fmt.Fprintf(s.out, "Welcome back, %s\n", name)
	return stateLanguages, nil
}

func (s *Session) chooseLanguages() (state, error) {
	previous := stateDone
	if s.opts.Profiles != nil {
		previous = stateProfile
	}

	if s.opts.SpokenLanguage != "" && s.opts.LearnedLanguage != "" {
		spoken, learned := s.opts.SpokenLanguage, s.opts.LearnedLanguage
		// Preselection applies once; going back shows the prompt
		s.opts.SpokenLanguage, s.opts.LearnedLanguage = "", ""
		err := s.opts.Scheduler.SelectLanguages(spoken, learned)
		if err == nil {
			fmt.Fprintf(s.out, "Translating from %s to %s\n", spoken, learned)
			return stateCategories, nil
		}
		fmt.Fprintf(s.out, "Ignoring configured languages: %v\n", err)
	}

	fmt.Fprintf(s.out, "Languages: %s\n", strings.Join(s.opts.Languages, ", "))
	spoken, err := s.prompt("Language you speak: ")
	if err == errBack {
		return previous, nil
	}
	if err != nil {
		return stateDone, err
	}
	learned, err := s.prompt("Language you learn: ")
	if err == errBack {
		return stateLanguages, nil
	}
	if err != nil {
		return stateDone, err
	}

	spoken, _ = pickName(spoken, s.opts.Languages)
	learned, _ = pickName(learned, s.opts.Languages)
	if err := s.opts.Scheduler.SelectLanguages(spoken, learned); err != nil {
		fmt.Fprintf(s.out, "%v\n", err)
		return stateLanguages, nil
	}
	return stateCategories, nil
}

func (s *Session) chooseCategory() (state, error) {
	learned := s.opts.Scheduler.State().LearnedLanguage
	categories := s.opts.Progress.Categories()

	fmt.Fprintln(s.out, "Categories:")
	for i, category := range categories {
		seen, _ := s.opts.Progress.CategoryOverview(category, learned)
		stars, _ := s.opts.Progress.Stars(category, "", learned)
		fmt.Fprintf(s.out, "  %d. %-20s %s %3.0f%% seen\n", i+1, category, s.stars(stars), seen*100)
	}

	line, err := s.prompt("Choose a category: ")
	if err == errBack {
		return stateLanguages, nil
	}
	if err != nil {
		return stateDone, err
	}

	category, ok := pickName(line, categories)
	if !ok {
		fmt.Fprintf(s.out, "No category %q\n", line)
		return stateCategories, nil
	}
	if err := s.opts.Scheduler.SelectCategory(category); err != nil {
		fmt.Fprintf(s.out, "%v\n", err)
		return stateCategories, nil
	}
	return stateLessons, nil
}

func (s *Session) chooseLesson() (state, error) {
	st := s.opts.Scheduler.State()
	lessons, err := s.opts.Progress.Lessons(st.Category)
	if err != nil {
		return stateDone, err
	}

	fmt.Fprintf(s.out, "Lessons in %s:\n", st.Category)
	for i, lesson := range lessons {
		seen, _ := s.opts.Progress.LessonOverview(st.Category, lesson, st.LearnedLanguage)
		stars, _ := s.opts.Progress.Stars(st.Category, lesson, st.LearnedLanguage)
		fmt.Fprintf(s.out, "  %d. %-20s %s %3.0f%% seen\n", i+1, lesson, s.stars(stars), seen*100)
	}

	line, err := s.prompt("Choose a lesson, or * for the whole category: ")
	if err == errBack {
		s.opts.Scheduler.LeaveCategory()
		return stateCategories, nil
	}
	if err != nil {
		return stateDone, err
	}

	if line == allLessons {
		s.wholeCategory = true
		return stateQuestion, nil
	}

	lesson, ok := pickName(line, lessons)
	if !ok {
		fmt.Fprintf(s.out, "No lesson %q\n", line)
		return stateLessons, nil
	}
	if err := s.opts.Scheduler.SelectLesson(st.Category, lesson); err != nil {
		fmt.Fprintf(s.out, "%v\n", err)
		return stateLessons, nil
	}
	s.wholeCategory = false
	return stateQuestion, nil
}

func (s *Session) askQuestion(ctx context.Context) (state, error) {
	var q *models.Question
	var err error
	if s.wholeCategory {
		q, err = s.opts.Scheduler.NextQuestionInCategory()
	} else {
		q, err = s.opts.Scheduler.NextQuestion()
	}
	if err != nil {
		fmt.Fprintf(s.out, "%v\n", err)
		s.opts.Scheduler.LeaveLesson()
		return stateLessons, nil
	}

	st := s.opts.Scheduler.State()
	fmt.Fprintln(s.out)
	if s.wholeCategory {
		fmt.Fprintf(s.out, "[%s]\n", st.Lesson)
	}
	fmt.Fprintf(s.out, "%s\n", q.Sentence(st.SpokenLanguage))
	if hints := q.Hints(st.SpokenLanguage); hints != "" {
		fmt.Fprintf(s.out, "  hint: %s\n", hints)
	}

	answer, err := s.prompt("> ")
	if err == errBack {
		s.opts.Scheduler.LeaveLesson()
		return stateLessons, nil
	}
	if err != nil {
		return stateDone, err
	}

	result, err := s.opts.Scheduler.RecordAnswer(ctx, answer)
	if result == nil {
		return stateDone, err
	}
	if err != nil {
		fmt.Fprintf(s.out, "Warning: progress not saved: %v\n", err)
	}

	if result.Outcome == models.Correct {
		stars, _ := s.opts.Progress.Stars(result.Ref.Category, result.Ref.Lesson, st.LearnedLanguage)
		fmt.Fprintf(s.out, "Correct! %s\n", s.stars(stars))
		return stateQuestion, nil
	}

	s.lastResult = result
	return stateReview, nil
}

func (s *Session) review() (state, error) {
	result := s.lastResult
	s.lastResult = nil
	if result == nil {
		return stateQuestion, nil
	}

	fmt.Fprintf(s.out, "Incorrect.\n  you wrote: %s\n  expected:  %s\n", result.Response, result.Expected)

	learned := s.opts.Scheduler.State().LearnedLanguage
	if q, err := s.opts.Scheduler.CurrentQuestion(); err == nil {
		if entry := q.Entry(learned); entry != nil {
			if entry.Explanation != "" {
				fmt.Fprintf(s.out, "  %s\n", entry.Explanation)
			}
			parts := make([]string, 0, len(entry.Explanations))
			for part := range entry.Explanations {
				parts = append(parts, part)
			}
			sort.Strings(parts)
			for _, part := range parts {
				fmt.Fprintf(s.out, "  %s: %s\n", part, entry.Explanations[part])
			}
		}
	}

	if _, err := s.prompt("Press Enter to continue"); err != nil && err != errBack {
		return stateDone, err
	}
	return stateQuestion, nil
}

// prompt reads one trimmed line. A blank line or :q returns errBack.
func (s *Session) prompt(text string) (string, error) {
	fmt.Fprint(s.out, text)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	line := strings.TrimSpace(s.in.Text())
	if line == "" || line == quitCommand {
		return "", errBack
	}
	return line, nil
}

func (s *Session) stars(n int) string {
	total := len(s.opts.Progress.Thresholds())
	return strings.Repeat("*", n) + strings.Repeat(".", total-n)
}

// pickName resolves a 1-based list number or an exact name
func pickName(input string, names []string) (string, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(names) {
			return names[n-1], true
		}
		return input, false
	}
	for _, name := range names {
		if name == input {
			return name, true
		}
	}
	return input, false
}
