package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/llm"
	"sorokinportal/internal/logging"
	"sorokinportal/internal/models"
	"sorokinportal/internal/quiz"
	"sorokinportal/internal/repository"
)

// LessonSections is the number of steps in a lesson
const LessonSections = 5

var sectionNames = [LessonSections]string{"Intro", "Examples", "Practice", "Common mistakes", "Summary"}

// SectionName is the label of section n (1-based), or "" when out of range
func SectionName(n int) string {
	if n < 1 || n > LessonSections {
		return ""
	}
	return sectionNames[n-1]
}

// LessonView is the current lesson together with its catalog entry
type LessonView struct {
	Session *models.LessonSession
	Lesson  *catalog.Lesson
	Course  *catalog.Course
	Quiz    *quiz.Quiz
}

// Completion is the result of finishing a lesson
type Completion struct {
	Rewards *Rewards
	Quiz    *quiz.Quiz
}

// TutorService drives the five-section lesson transcript
type TutorService struct {
	catalog  *catalog.Catalog
	sessions *repository.LessonSessionRepository
	progress *repository.ProgressRepository
	usage    *UsageService
	rewards  *RewardService
	llm      *llm.Router
	logger   *logging.Logger
}

func NewTutorService(
	cat *catalog.Catalog,
	sessions *repository.LessonSessionRepository,
	progress *repository.ProgressRepository,
	usage *UsageService,
	rewards *RewardService,
	router *llm.Router,
	logger *logging.Logger,
) *TutorService {
	return &TutorService{
		catalog:  cat,
		sessions: sessions,
		progress: progress,
		usage:    usage,
		rewards:  rewards,
		llm:      router,
		logger:   logger,
	}
}

func teachPrompt(course *catalog.Course, lesson *catalog.Lesson, grade, difficulty string) string {
	return fmt.Sprintf(
		"Teach %s - %s to a %s student.\nTopic: %s. Difficulty: %s. %s\n1. Welcome 2. Core concept with examples 3. Practice problem. Use emojis!",
		course.Name, lesson.Title, grade, lesson.Description, difficulty, catalog.DifficultyHint(difficulty),
	)
}

func sectionPrompt(course *catalog.Course, lesson *catalog.Lesson, section int, difficulty string) string {
	parts := make([]string, len(sectionNames))
	for i, name := range sectionNames {
		parts[i] = fmt.Sprintf("%d-%s", i+1, name)
	}
	return fmt.Sprintf(
		"Continue %s - %s. Section %d/%d.\nSections: %s. Difficulty: %s",
		course.Name, lesson.Title, section, LessonSections, strings.Join(parts, ", "), difficulty,
	)
}

func questionPrompt(course *catalog.Course, lesson *catalog.Lesson, question string) string {
	return fmt.Sprintf("Student learning %s - %s asked: %s. Help them!", course.Name, lesson.Title, question)
}

func (s *TutorService) generate(ctx context.Context, userID int64, prompt string) (string, error) {
	text, err := s.llm.Fast().Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("Tutor request failed", "user_id", userID, "model", s.llm.Fast().Name(), "error", err)
		return "", ErrTutorUnavailable
	}
	return text, nil
}

// StartLesson opens a lesson at section 1, replacing any lesson in progress
func (s *TutorService) StartLesson(ctx context.Context, user *models.User, lessonKey, difficulty string) (*models.LessonSession, error) {
	lesson := s.catalog.Lesson(lessonKey)
	if lesson == nil {
		return nil, ErrUnknownLesson
	}
	course := s.catalog.Course(lesson.CourseID)

	progress, err := s.progress.GetProgressMap(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if !s.catalog.IsVisible(lesson, progress) {
		return nil, ErrLessonLocked
	}

	if difficulty == "" {
		difficulty = user.Difficulty
	}
	if difficulty == "" {
		difficulty = catalog.DifficultyStandard
	}

	if err := s.usage.Consume(ctx, user.ID, llm.TierFast); err != nil {
		return nil, err
	}

	text, err := s.generate(ctx, user.ID, teachPrompt(course, lesson, user.Grade, difficulty))
	if err != nil {
		return nil, err
	}

	session := &models.LessonSession{
		UserID:     user.ID,
		LessonKey:  lesson.Key,
		Section:    1,
		Difficulty: difficulty,
		Transcript: []models.Message{{Role: models.RoleAssistant, Content: text}},
	}
	if err := s.sessions.Start(session); err != nil {
		return nil, err
	}
	if err := s.progress.EnsureAvailable(user.ID, lesson.Key); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *TutorService) current(userID int64) (*models.LessonSession, *catalog.Lesson, *catalog.Course, error) {
	session, err := s.sessions.Get(userID)
	if err != nil {
		return nil, nil, nil, err
	}
	if session == nil {
		return nil, nil, nil, ErrNoLessonSession
	}
	lesson := s.catalog.Lesson(session.LessonKey)
	if lesson == nil {
		// The catalog no longer has this lesson
		if err := s.sessions.Delete(userID); err != nil {
			return nil, nil, nil, err
		}
		return nil, nil, nil, ErrNoLessonSession
	}
	return session, lesson, s.catalog.Course(lesson.CourseID), nil
}

// Current returns the lesson in progress, or ErrNoLessonSession
func (s *TutorService) Current(ctx context.Context, userID int64) (*LessonView, error) {
	session, lesson, course, err := s.current(userID)
	if err != nil {
		return nil, err
	}
	view := &LessonView{Session: session, Lesson: lesson, Course: course}
	if session.HasQuiz() {
		var q quiz.Quiz
		if err := json.Unmarshal(session.Quiz, &q); err != nil {
			s.logger.Warn("Discarding unreadable stored quiz", "user_id", userID, "error", err)
		} else {
			view.Quiz = &q
		}
	}
	return view, nil
}

// GoToSection generates section n of the current lesson and appends it to the transcript
func (s *TutorService) GoToSection(ctx context.Context, user *models.User, section int) (*models.LessonSession, error) {
	if section < 1 || section > LessonSections {
		return nil, ErrInvalidSection
	}
	session, lesson, course, err := s.current(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.usage.Consume(ctx, user.ID, llm.TierFast); err != nil {
		return nil, err
	}
	text, err := s.generate(ctx, user.ID, sectionPrompt(course, lesson, section, session.Difficulty))
	if err != nil {
		return nil, err
	}

	session.Section = section
	session.Transcript = append(session.Transcript, models.Message{
		Role:    models.RoleAssistant,
		Content: fmt.Sprintf("## Section %d\n\n%s", section, text),
	})
	if err := s.sessions.SaveTranscript(user.ID, session.Section, session.Transcript); err != nil {
		return nil, err
	}
	return session, nil
}

// Ask answers a student question in the context of the current lesson
func (s *TutorService) Ask(ctx context.Context, user *models.User, question string) (*models.LessonSession, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	session, lesson, course, err := s.current(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.usage.Consume(ctx, user.ID, llm.TierFast); err != nil {
		return nil, err
	}
	text, err := s.generate(ctx, user.ID, questionPrompt(course, lesson, question))
	if err != nil {
		return nil, err
	}

	session.Transcript = append(session.Transcript,
		models.Message{Role: models.RoleUser, Content: question},
		models.Message{Role: models.RoleAssistant, Content: text},
	)
	if err := s.sessions.SaveTranscript(user.ID, session.Section, session.Transcript); err != nil {
		return nil, err
	}
	return session, nil
}

// Complete marks the current lesson done and, from the last section, attaches a quiz
func (s *TutorService) Complete(ctx context.Context, user *models.User) (*Completion, error) {
	session, lesson, course, err := s.current(user.ID)
	if err != nil {
		return nil, err
	}

	rewards, err := s.rewards.CompleteLesson(ctx, user.ID, lesson)
	if err != nil {
		return nil, err
	}
	result := &Completion{Rewards: rewards}

	if session.Section < LessonSections || session.HasQuiz() {
		return result, nil
	}

	// One quiz per lesson
	p, err := s.progress.GetProgress(user.ID, lesson.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if p != nil && p.QuizScore != nil {
		return result, nil
	}

	if err := s.usage.Consume(ctx, user.ID, llm.TierFast); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			s.logger.Info("Skipping quiz, daily quota used", "user_id", user.ID, "lesson", lesson.Key)
			return result, nil
		}
		return nil, err
	}

	q, err := s.GenerateQuiz(ctx, course, lesson)
	if err != nil {
		// Rewards are already granted; the lesson just ends without a quiz
		s.logger.Warn("Quiz generation failed", "user_id", user.ID, "lesson", lesson.Key, "error", err)
		return result, nil
	}
	if q == nil {
		return result, nil
	}

	raw, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quiz: %w", err)
	}
	if err := s.sessions.SetQuiz(user.ID, raw); err != nil {
		return nil, err
	}
	result.Quiz = q
	return result, nil
}

// GenerateQuiz asks the fast tier for a quiz. Unusable output yields (nil, nil).
func (s *TutorService) GenerateQuiz(ctx context.Context, course *catalog.Course, lesson *catalog.Lesson) (*quiz.Quiz, error) {
	raw, err := s.llm.Fast().Generate(ctx, quiz.Prompt(course.Name, lesson.Title, lesson.Description))
	if err != nil {
		return nil, fmt.Errorf("failed to generate quiz: %w", err)
	}
	q := quiz.Parse(raw)
	if q == nil {
		s.logger.Warn("Model returned no usable quiz", "lesson", lesson.Key)
	}
	return q, nil
}

// Exit abandons the lesson in progress
func (s *TutorService) Exit(ctx context.Context, userID int64) error {
	return s.sessions.Delete(userID)
}

