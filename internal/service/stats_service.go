package service

import (
	"context"
	"time"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/gamification"
	"sorokinportal/internal/models"
	"sorokinportal/internal/repository"
)

// RecentTransactionLimit is how many ledger rows the dashboard shows
const RecentTransactionLimit = 10

// BadgeView is a catalog badge with the user's earned state
type BadgeView struct {
	catalog.Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// DailyGoal is today's lesson count against the user's goal
type DailyGoal struct {
	Completed int     `json:"completed"`
	Goal      int     `json:"goal"`
	Percent   float64 `json:"percent"`
	Reached   bool    `json:"reached"`
}

// Dashboard is everything the dashboard page and /api/me render
type Dashboard struct {
	Username         string                  `json:"username"`
	Level            gamification.LevelInfo  `json:"level"`
	Streak           int                     `json:"streak"`
	DailyGoal        DailyGoal               `json:"daily_goal"`
	Pet              gamification.PetDisplay `json:"pet"`
	Badges           []BadgeView             `json:"badges"`
	BadgesEarned     int                     `json:"badges_earned"`
	LessonsCompleted int                     `json:"lessons_completed"`
	TotalLessons     int                     `json:"total_lessons"`
	Pomodoros        int                     `json:"pomodoros"`
	Usage            Usage                   `json:"usage"`
	Today            models.DailyActivity    `json:"-"`
	Recent           []models.XPTransaction  `json:"-"`
}

// LessonStatus is a lesson as it appears in the course list
type LessonStatus struct {
	*catalog.Lesson
	Status  string
	Visible bool
}

// CourseView is a course with per-lesson status
type CourseView struct {
	*catalog.Course
	Lessons   []LessonStatus
	Completed int
	Percent   float64
}

// SubjectView groups courses under their subject
type SubjectView struct {
	*catalog.Subject
	Courses []CourseView
}

// StatsService builds read-only views over the progression ledger
type StatsService struct {
	catalog  *catalog.Catalog
	progress *repository.ProgressRepository
	badges   *repository.BadgeRepository
	ledger   *repository.LedgerRepository
	usage    *UsageService
	clock    Clock
}

func NewStatsService(
	cat *catalog.Catalog,
	progress *repository.ProgressRepository,
	badges *repository.BadgeRepository,
	ledger *repository.LedgerRepository,
	usage *UsageService,
	clock Clock,
) *StatsService {
	return &StatsService{
		catalog:  cat,
		progress: progress,
		badges:   badges,
		ledger:   ledger,
		usage:    usage,
		clock:    clock,
	}
}

func (s *StatsService) progressMap(userID int64) (catalog.Progress, error) {
	m, err := s.progress.GetProgressMap(userID)
	if err != nil {
		return nil, err
	}
	return catalog.Progress(m), nil
}

// Dashboard reads the user's current progression. user should be freshly loaded.
func (s *StatsService) Dashboard(ctx context.Context, user *models.User) (*Dashboard, error) {
	today := s.clock.Today()

	progress, err := s.progressMap(user.ID)
	if err != nil {
		return nil, err
	}
	earned, err := s.badges.ListBadges(user.ID)
	if err != nil {
		return nil, err
	}
	activity, err := s.ledger.GetActivity(user.ID, today)
	if err != nil {
		return nil, err
	}
	recent, err := s.ledger.RecentTransactions(user.ID, RecentTransactionLimit)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Username:         user.Username,
		Level:            gamification.GetLevelInfo(user.TotalXP),
		Streak:           user.StreakCount,
		Pet:              gamification.DisplayPet(user.PetStage, gamification.PetMood(user.LastStudyDate, today)),
		LessonsCompleted: progress.CompletedCount(),
		TotalLessons:     s.catalog.TotalLessons(),
		Pomodoros:        user.PomodorosCompleted,
		Usage:            s.usage.Snapshot(user),
		Recent:           recent,
	}
	if activity != nil {
		d.Today = *activity
	}

	d.DailyGoal = dailyGoal(user, today)
	d.Badges = badgeViews(earned)
	for _, b := range d.Badges {
		if b.Earned {
			d.BadgesEarned++
		}
	}
	return d, nil
}

func dailyGoal(user *models.User, today string) DailyGoal {
	g := DailyGoal{Goal: user.DailyGoal}
	if user.DailyLessonsDate == today {
		g.Completed = user.DailyLessonsCompleted
	}
	if g.Goal > 0 {
		g.Percent = min(100, float64(g.Completed)/float64(g.Goal)*100)
	}
	g.Reached = g.Goal > 0 && g.Completed >= g.Goal
	return g
}

func badgeViews(earned []models.UserBadge) []BadgeView {
	at := make(map[string]time.Time, len(earned))
	for _, b := range earned {
		at[b.BadgeID] = b.EarnedAt
	}
	views := make([]BadgeView, 0, len(catalog.Badges))
	for _, b := range catalog.Badges {
		v := BadgeView{Badge: b}
		if t, ok := at[b.ID]; ok {
			v.Earned = true
			v.EarnedAt = &t
		}
		views = append(views, v)
	}
	return views
}

// Courses lists every subject and course with the user's lock state per lesson
func (s *StatsService) Courses(ctx context.Context, userID int64) ([]SubjectView, error) {
	progress, err := s.progressMap(userID)
	if err != nil {
		return nil, err
	}

	var out []SubjectView
	for _, subject := range s.catalog.Subjects() {
		sv := SubjectView{Subject: subject}
		for _, course := range s.catalog.CoursesBySubject(subject.ID) {
			cv := CourseView{Course: course}
			for _, lesson := range course.Lessons {
				status := s.catalog.Status(lesson, progress)
				if status == catalog.StatusCompleted {
					cv.Completed++
				}
				cv.Lessons = append(cv.Lessons, LessonStatus{
					Lesson:  lesson,
					Status:  status,
					Visible: s.catalog.IsVisible(lesson, progress),
				})
			}
			if len(course.Lessons) > 0 {
				cv.Percent = float64(cv.Completed) / float64(len(course.Lessons)) * 100
			}
			sv.Courses = append(sv.Courses, cv)
		}
		out = append(out, sv)
	}
	return out, nil
}

// Graph is the knowledge graph for the D3 view
func (s *StatsService) Graph(ctx context.Context, user *models.User) (catalog.Graph, error) {
	progress, err := s.progressMap(user.ID)
	if err != nil {
		return catalog.Graph{}, err
	}
	return s.catalog.BuildGraph(user.Username, progress), nil
}

// Constellation is the per-course completion overview
func (s *StatsService) Constellation(ctx context.Context, userID int64) (catalog.Constellation, error) {
	progress, err := s.progressMap(userID)
	if err != nil {
		return catalog.Constellation{}, err
	}
	return s.catalog.Constellation(progress), nil
}
