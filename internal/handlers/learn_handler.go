package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"sorokinportal/internal/logging"
	"sorokinportal/internal/quiz"
	"sorokinportal/internal/service"
	"sorokinportal/internal/validation"
)

// LearnHandler drives the tutoring session and its quiz
type LearnHandler struct {
	tutor   *service.TutorService
	quizzes *service.QuizService
	usage   *service.UsageService
	pages   *Renderer
	logger  *logging.Logger
}

func NewLearnHandler(tutor *service.TutorService, quizzes *service.QuizService, usage *service.UsageService, pages *Renderer, logger *logging.Logger) *LearnHandler {
	return &LearnHandler{tutor: tutor, quizzes: quizzes, usage: usage, pages: pages, logger: logger}
}

// StartLesson opens a lesson and generates its first section
func (h *LearnHandler) StartLesson(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	key := r.PathValue("key")

	difficulty := r.FormValue("difficulty")
	if difficulty != "" {
		if err := validation.ValidateDifficulty(difficulty); err != nil {
			h.pages.Fail(w, r, "/courses", "", err)
			return
		}
	}

	if _, err := h.tutor.StartLesson(r.Context(), user, key, difficulty); err != nil {
		h.pages.Fail(w, r, "/courses", "Error starting lesson", err)
		return
	}
	http.Redirect(w, r, "/learn", http.StatusSeeOther)
}

// ShowLesson renders the current lesson transcript
func (h *LearnHandler) ShowLesson(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	view, err := h.tutor.Current(r.Context(), user.ID)
	if errors.Is(err, service.ErrNoLessonSession) {
		http.Redirect(w, r, "/courses", http.StatusSeeOther)
		return
	}
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error loading lesson", err)
		return
	}

	data := LearnViewData{
		Page:   h.pages.Page(w, r, view.Lesson.Title),
		Lesson: view,
		Usage:  h.usage.Snapshot(user),
	}
	current := view.Session.Section
	for n := 1; n <= service.LessonSections; n++ {
		data.Sections = append(data.Sections, SectionView{
			Number:  n,
			Name:    service.SectionName(n),
			Current: n == current,
			Done:    n < current,
		})
	}
	if current < service.LessonSections {
		data.NextSection = current + 1
	}
	h.pages.Render(w, r, "learn.tmpl", data)
}

// Section generates section n of the current lesson
func (h *LearnHandler) Section(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		h.pages.Fail(w, r, "/learn", "", service.ErrInvalidSection)
		return
	}
	if _, err := h.tutor.GoToSection(r.Context(), user, n); err != nil {
		h.pages.Fail(w, r, "/learn", "Error generating section", err)
		return
	}
	http.Redirect(w, r, "/learn", http.StatusSeeOther)
}

// Ask answers a free-form question inside the lesson
func (h *LearnHandler) Ask(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if _, err := h.tutor.Ask(r.Context(), user, r.FormValue("question")); err != nil {
		h.pages.Fail(w, r, "/learn", "Error answering question", err)
		return
	}
	http.Redirect(w, r, "/learn#latest", http.StatusSeeOther)
}

// Complete finishes the lesson, granting rewards and possibly attaching a quiz
func (h *LearnHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	completion, err := h.tutor.Complete(r.Context(), user)
	if err != nil {
		h.pages.Fail(w, r, "/learn", "Error completing lesson", err)
		return
	}

	prefix := "Lesson complete!"
	if completion.Quiz != nil {
		prefix = "Lesson complete! Your quiz is ready."
	}
	h.pages.Redirect(w, r, "/learn", rewardsMessage(prefix, completion.Rewards))
}

// Exit abandons the current lesson
func (h *LearnHandler) Exit(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if err := h.tutor.Exit(r.Context(), user.ID); err != nil {
		h.pages.Fail(w, r, "/learn", "Error leaving lesson", err)
		return
	}
	http.Redirect(w, r, "/courses", http.StatusSeeOther)
}

// SubmitQuiz grades the pending quiz. Answers arrive as answer_0..answer_N option indexes.
func (h *LearnHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	outcome, err := h.quizzes.Submit(r.Context(), user, parseAnswers(r))
	if err != nil {
		h.pages.Fail(w, r, "/learn", "Error submitting quiz", err)
		return
	}

	prefix := fmt.Sprintf("Quiz score: %d%% (%d/%d).", outcome.Result.Score, outcome.Result.Correct, outcome.Result.Total)
	h.pages.Redirect(w, r, "/learn", rewardsMessage(prefix, outcome.Rewards))
}

// maxAnswers bounds the answer_N indexes read from a form
const maxAnswers = 50

// parseAnswers reads answer_0..answer_N up to the highest index posted, using -1 for
// anything missing or malformed. Grading sizes the result by the stored quiz.
func parseAnswers(r *http.Request) []int {
	if err := r.ParseForm(); err != nil {
		return nil
	}

	n := 0
	for key := range r.Form {
		idx, ok := strings.CutPrefix(key, "answer_")
		if !ok {
			continue
		}
		if i, err := strconv.Atoi(idx); err == nil && i >= 0 && i < maxAnswers && i+1 > n {
			n = i + 1
		}
	}

	answers := make([]int, n)
	for i := range answers {
		answers[i] = -1
		raw := strings.TrimSpace(r.FormValue(fmt.Sprintf("answer_%d", i)))
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 && v < quiz.OptionCount {
			answers[i] = v
		}
	}
	return answers
}
