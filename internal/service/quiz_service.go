package service

import (
	"context"

	"sorokinportal/internal/logging"
	"sorokinportal/internal/models"
	"sorokinportal/internal/quiz"
	"sorokinportal/internal/repository"
)

// QuizOutcome is a graded quiz together with what it earned
type QuizOutcome struct {
	LessonKey string
	Quiz      *quiz.Quiz
	Answers   []int
	Result    quiz.Result
	Rewards   *Rewards
}

// QuizService scores the quiz attached to the current lesson
type QuizService struct {
	tutor    *TutorService
	sessions *repository.LessonSessionRepository
	rewards  *RewardService
	logger   *logging.Logger
}

func NewQuizService(tutor *TutorService, sessions *repository.LessonSessionRepository, rewards *RewardService, logger *logging.Logger) *QuizService {
	return &QuizService{tutor: tutor, sessions: sessions, rewards: rewards, logger: logger}
}

// Submit grades answers (one option index per question, -1 when unanswered),
// stores the score and clears the pending quiz
func (s *QuizService) Submit(ctx context.Context, user *models.User, answers []int) (*QuizOutcome, error) {
	view, err := s.tutor.Current(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if view.Quiz == nil || len(view.Quiz.Questions) == 0 {
		return nil, ErrNoQuiz
	}

	result := view.Quiz.Grade(answers)

	rewards, err := s.rewards.RecordQuiz(ctx, user.ID, view.Lesson.Key, result.Score, result.XP)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SetQuiz(user.ID, nil); err != nil {
		return nil, err
	}

	s.logger.Info("Quiz submitted", "user_id", user.ID, "lesson", view.Lesson.Key, "score", result.Score)
	return &QuizOutcome{
		LessonKey: view.Lesson.Key,
		Quiz:      view.Quiz,
		Answers:   answers,
		Result:    result,
		Rewards:   rewards,
	}, nil
}
