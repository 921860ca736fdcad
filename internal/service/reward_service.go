package service

import (
	"context"
	"fmt"
	"strconv"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/gamification"
	"sorokinportal/internal/logging"
	"sorokinportal/internal/models"
	"sorokinportal/internal/repository"
)

// PomodoroXP is granted for every finished focus session
const PomodoroXP = 25

// PomodoroBadgeCount is the lifetime pomodoro count that earns the focus badge
const PomodoroBadgeCount = 5

// XPAward describes one XP grant after multipliers
type XPAward struct {
	Base       int
	Amount     int
	Multiplier float64
	TotalXP    int
	Level      int
	LevelUp    bool
}

// Rewards collects everything a single action earned, for display on the next page
type Rewards struct {
	XP               int
	Badges           []catalog.Badge
	NewLevel         int
	Streak           int
	StreakBonus      int
	DailyGoalReached bool
	AlreadyCompleted bool
}

func (r *Rewards) addXP(a *XPAward) {
	if r == nil || a == nil {
		return
	}
	r.XP += a.Amount
	if a.LevelUp {
		r.NewLevel = a.Level
	}
}

func (r *Rewards) addBadge(b catalog.Badge) {
	if r == nil {
		return
	}
	r.Badges = append(r.Badges, b)
}

// RewardService turns gameplay events into ledger mutations
type RewardService struct {
	catalog  *catalog.Catalog
	users    *repository.UserRepository
	progress *repository.ProgressRepository
	badges   *repository.BadgeRepository
	pets     *repository.PetRepository
	ledger   *repository.LedgerRepository
	clock    Clock
	logger   *logging.Logger
}

func NewRewardService(
	cat *catalog.Catalog,
	users *repository.UserRepository,
	progress *repository.ProgressRepository,
	badges *repository.BadgeRepository,
	pets *repository.PetRepository,
	ledger *repository.LedgerRepository,
	clock Clock,
	logger *logging.Logger,
) *RewardService {
	return &RewardService{
		catalog:  cat,
		users:    users,
		progress: progress,
		badges:   badges,
		pets:     pets,
		ledger:   ledger,
		clock:    clock,
		logger:   logger,
	}
}

// AwardXP grants base XP scaled by the equipped pets, updates the level and logs the transaction
func (s *RewardService) AwardXP(ctx context.Context, userID int64, base int, source, sourceID string) (*XPAward, error) {
	return s.awardXP(ctx, userID, base, source, sourceID, nil)
}

func (s *RewardService) awardXP(ctx context.Context, userID int64, base int, source, sourceID string, out *Rewards) (*XPAward, error) {
	if base <= 0 {
		return &XPAward{}, nil
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	multipliers, err := s.pets.EquippedMultipliers(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pet multipliers: %w", err)
	}
	amount, product := gamification.ApplyMultipliers(base, multipliers)

	total, err := s.users.AddXP(userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to add xp: %w", err)
	}

	award := &XPAward{Base: base, Amount: amount, Multiplier: product, TotalXP: total, Level: gamification.LevelForXP(total)}
	if award.Level != user.Level {
		if err := s.users.SetLevel(userID, award.Level); err != nil {
			return nil, fmt.Errorf("failed to set level: %w", err)
		}
		award.LevelUp = award.Level > user.Level
	}

	if err := s.ledger.RecordTransaction(models.XPTransaction{
		UserID:     userID,
		Amount:     amount,
		BaseAmount: base,
		Multiplier: product,
		SourceType: source,
		SourceID:   sourceID,
	}); err != nil {
		return nil, fmt.Errorf("failed to record xp transaction: %w", err)
	}
	if err := s.ledger.AddActivity(userID, s.clock.Today(), repository.ActivityDelta{XP: amount}); err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	out.addXP(award)

	if award.LevelUp {
		s.logger.Info("Level up", "user_id", userID, "level", award.Level)
		if _, err := s.UpdatePetStatus(ctx, userID, award.Level); err != nil {
			return nil, err
		}
	}
	return award, nil
}

// AwardBadge grants a catalog badge once. It returns true only when the badge is newly earned.
func (s *RewardService) AwardBadge(ctx context.Context, userID int64, badgeID string) (bool, error) {
	return s.awardBadge(ctx, userID, badgeID, nil)
}

func (s *RewardService) awardBadge(ctx context.Context, userID int64, badgeID string, out *Rewards) (bool, error) {
	badge, ok := catalog.LookupBadge(badgeID)
	if !ok {
		return false, nil
	}

	owned, err := s.badges.HasBadge(userID, badgeID)
	if err != nil {
		return false, fmt.Errorf("failed to check badge: %w", err)
	}
	if owned {
		return false, nil
	}

	// The unique (user_id, badge_id) pair settles concurrent awards
	inserted, err := s.badges.Award(userID, badgeID)
	if err != nil {
		return false, fmt.Errorf("failed to award badge: %w", err)
	}
	if !inserted {
		return false, nil
	}

	out.addBadge(badge)
	if _, err := s.awardXP(ctx, userID, badge.XP, models.SourceBadge, badgeID, out); err != nil {
		return true, err
	}
	return true, nil
}

// UpdateStreak records a study action today and grants milestone bonuses
func (s *RewardService) UpdateStreak(ctx context.Context, userID int64) (gamification.StreakUpdate, error) {
	return s.updateStreak(ctx, userID, nil)
}

func (s *RewardService) updateStreak(ctx context.Context, userID int64, out *Rewards) (gamification.StreakUpdate, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return gamification.StreakUpdate{}, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return gamification.StreakUpdate{}, fmt.Errorf("user %d not found", userID)
	}

	today := s.clock.Today()
	update := gamification.NextStreak(user.StreakCount, user.LastStudyDate, today)
	if out != nil {
		out.Streak = update.Count
	}
	if !update.Changed {
		return update, nil
	}

	if err := s.users.UpdateStreak(userID, update.Count, today); err != nil {
		return update, fmt.Errorf("failed to update streak: %w", err)
	}

	if update.Bonus > 0 {
		if out != nil {
			out.StreakBonus = update.Bonus
		}
		if _, err := s.awardXP(ctx, userID, update.Bonus, models.SourceStreak, strconv.Itoa(update.Count), out); err != nil {
			return update, err
		}
	}
	return update, nil
}

// IncrementDailyLessons bumps today's lesson counter. It returns true when the daily goal was just reached.
func (s *RewardService) IncrementDailyLessons(ctx context.Context, userID int64) (bool, error) {
	return s.incrementDailyLessons(ctx, userID, nil)
}

func (s *RewardService) incrementDailyLessons(ctx context.Context, userID int64, out *Rewards) (bool, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return false, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return false, fmt.Errorf("user %d not found", userID)
	}

	today := s.clock.Today()
	count, bonus := gamification.NextDailyCount(user.DailyLessonsCompleted, user.DailyLessonsDate, today, user.DailyGoal)
	if err := s.users.UpdateDailyLessons(userID, count, today); err != nil {
		return false, fmt.Errorf("failed to update daily lessons: %w", err)
	}
	if err := s.ledger.AddActivity(userID, today, repository.ActivityDelta{Lessons: 1}); err != nil {
		return false, fmt.Errorf("failed to record activity: %w", err)
	}

	if bonus == 0 {
		return false, nil
	}
	if out != nil {
		out.DailyGoalReached = true
	}
	if _, err := s.awardXP(ctx, userID, bonus, models.SourceDailyGoal, today, out); err != nil {
		return true, err
	}
	return true, nil
}

// UpdatePetStatus recomputes the companion's stage and mood, writing only on change.
// It returns true when something changed.
func (s *RewardService) UpdatePetStatus(ctx context.Context, userID int64, level int) (bool, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return false, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return false, fmt.Errorf("user %d not found", userID)
	}

	stage := gamification.PetStage(level)
	mood := gamification.PetMood(user.LastStudyDate, s.clock.Today())
	if stage == user.PetStage && mood == user.PetMood {
		return false, nil
	}

	if err := s.users.UpdatePetStatus(userID, stage, mood); err != nil {
		return false, fmt.Errorf("failed to update pet status: %w", err)
	}
	if stage != user.PetStage {
		s.logger.Info("Pet evolved", "user_id", userID, "stage", stage)
	}
	return true, nil
}

// CompletePomodoro rewards a finished focus session
func (s *RewardService) CompletePomodoro(ctx context.Context, userID int64) (*Rewards, error) {
	out := &Rewards{}

	count, err := s.users.IncrementPomodoros(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to record pomodoro: %w", err)
	}
	if err := s.ledger.AddActivity(userID, s.clock.Today(), repository.ActivityDelta{Pomodoros: 1}); err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}
	if _, err := s.awardXP(ctx, userID, PomodoroXP, models.SourcePomodoro, strconv.Itoa(count), out); err != nil {
		return nil, err
	}
	if count >= PomodoroBadgeCount {
		if _, err := s.awardBadge(ctx, userID, catalog.BadgePomodoro5, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CompleteLesson runs the completion reward flow. Completing a lesson twice grants nothing the second time.
func (s *RewardService) CompleteLesson(ctx context.Context, userID int64, lesson *catalog.Lesson) (*Rewards, error) {
	out := &Rewards{}
	now := s.clock.Now()

	newly, err := s.progress.MarkCompleted(userID, lesson.Key, now)
	if err != nil {
		return nil, fmt.Errorf("failed to complete lesson: %w", err)
	}
	if !newly {
		out.AlreadyCompleted = true
		return out, nil
	}

	if next := s.catalog.NextLesson(lesson.Key); next != nil {
		if err := s.progress.EnsureAvailable(userID, next.Key); err != nil {
			return out, fmt.Errorf("failed to unlock next lesson: %w", err)
		}
	}

	if _, err := s.updateStreak(ctx, userID, out); err != nil {
		return out, err
	}
	if _, err := s.incrementDailyLessons(ctx, userID, out); err != nil {
		return out, err
	}
	if _, err := s.awardXP(ctx, userID, lesson.XPValue, models.SourceLesson, lesson.Key, out); err != nil {
		return out, err
	}

	completed, err := s.progress.CountCompleted(userID)
	if err != nil {
		return out, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	earned := []string{catalog.BadgeFirstLesson}
	if completed >= 5 {
		earned = append(earned, catalog.BadgeFiveLessons)
	}
	if completed >= 10 {
		earned = append(earned, catalog.BadgeTenLessons)
	}
	if b := catalog.ExplorerBadge(lesson.Subject); b != "" {
		earned = append(earned, b)
	}
	if b := gamification.StudyTimeBadge(now.Hour()); b != "" {
		earned = append(earned, b)
	}
	for _, id := range earned {
		if _, err := s.awardBadge(ctx, userID, id, out); err != nil {
			return out, err
		}
	}

	// Studying today cheers the pet up
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return out, fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil {
		if _, err := s.UpdatePetStatus(ctx, userID, user.Level); err != nil {
			return out, err
		}
	}

	s.logger.Info("Lesson completed", "user_id", userID, "lesson", lesson.Key, "xp", out.XP)
	return out, nil
}

// RecordQuiz stores a quiz score and grants its badges. Quiz XP is paid only for the
// first score recorded on a lesson.
func (s *RewardService) RecordQuiz(ctx context.Context, userID int64, lessonKey string, score, xp int) (*Rewards, error) {
	out := &Rewards{}

	first, err := s.progress.SetQuizScore(userID, lessonKey, score)
	if err != nil {
		return nil, fmt.Errorf("failed to save quiz score: %w", err)
	}
	if first {
		if _, err := s.awardXP(ctx, userID, xp, models.SourceQuiz, lessonKey, out); err != nil {
			return out, err
		}
	}
	if _, err := s.awardBadge(ctx, userID, catalog.BadgeFirstQuiz, out); err != nil {
		return out, err
	}
	if score == 100 {
		if _, err := s.awardBadge(ctx, userID, catalog.BadgePerfectQuiz, out); err != nil {
			return out, err
		}
	}
	return out, nil
}
