package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"sorokinportal/internal/database"
	"sorokinportal/internal/logging"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version        string                `json:"version"`
	ExportedAt     time.Time             `json:"exported_at"`
	DatabaseType   string                `json:"database_type"`
	Users          []UserBackup          `json:"users"`
	Progress       []ProgressBackup      `json:"lesson_progress"`
	Badges         []BadgeBackup         `json:"user_badges"`
	XPTransactions []XPTransactionBackup `json:"xp_transactions"`
	Activity       []ActivityBackup      `json:"daily_activity"`
	UserPets       []UserPetBackup       `json:"user_pets"`
	EggPurchases   []EggPurchaseBackup   `json:"egg_purchases"`
	Chats          []ChatBackup          `json:"chat_logs"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID                    int64     `json:"id"`
	Username              string    `json:"username"`
	Email                 string    `json:"email"`
	PasswordHash          string    `json:"password_hash"`
	OAuthProvider         string    `json:"oauth_provider"`
	OAuthSubject          string    `json:"oauth_subject"`
	IsAdmin               bool      `json:"is_admin"`
	Grade                 string    `json:"grade"`
	Theme                 string    `json:"theme"`
	SoundsEnabled         bool      `json:"sounds_enabled"`
	Difficulty            string    `json:"difficulty"`
	DailyGoal             int       `json:"daily_goal"`
	TotalXP               int       `json:"total_xp"`
	Level                 int       `json:"level"`
	StreakCount           int       `json:"streak_count"`
	LastStudyDate         string    `json:"last_study_date"`
	DailyLessonsCompleted int       `json:"daily_lessons_completed"`
	DailyLessonsDate      string    `json:"daily_lessons_date"`
	PetStage              string    `json:"pet_stage"`
	PetMood               string    `json:"pet_mood"`
	PomodorosCompleted    int       `json:"pomodoros_completed"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ProgressBackup represents a lesson progress row
type ProgressBackup struct {
	UserID      int64      `json:"user_id"`
	LessonKey   string     `json:"lesson_key"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
	QuizScore   *int64     `json:"quiz_score"`
}

// BadgeBackup represents an earned badge
type BadgeBackup struct {
	UserID   int64     `json:"user_id"`
	BadgeID  string    `json:"badge_id"`
	EarnedAt time.Time `json:"earned_at"`
}

// XPTransactionBackup represents one XP ledger entry
type XPTransactionBackup struct {
	UserID     int64     `json:"user_id"`
	Amount     int       `json:"amount"`
	BaseAmount int       `json:"base_amount"`
	Multiplier float64   `json:"multiplier"`
	SourceType string    `json:"source_type"`
	SourceID   string    `json:"source_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActivityBackup represents a daily activity row
type ActivityBackup struct {
	UserID           int64  `json:"user_id"`
	ActivityDate     string `json:"activity_date"`
	LessonsCompleted int    `json:"lessons_completed"`
	XPEarned         int    `json:"xp_earned"`
	Pomodoros        int    `json:"pomodoros"`
}

// UserPetBackup represents an owned pet
type UserPetBackup struct {
	UserID     int64     `json:"user_id"`
	PetID      string    `json:"pet_id"`
	AcquiredAt time.Time `json:"acquired_at"`
	IsEquipped bool      `json:"is_equipped"`
	EquipSlot  *int64    `json:"equip_slot"`
}

// EggPurchaseBackup represents a purchase audit row
type EggPurchaseBackup struct {
	UserID      int64     `json:"user_id"`
	EggType     string    `json:"egg_type"`
	PetID       string    `json:"pet_id"`
	XPCost      int       `json:"xp_cost"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// ChatBackup represents a chat transcript; Messages is the stored JSON array
type ChatBackup struct {
	SessionID string          `json:"session_id"`
	UserID    int64           `json:"user_id"`
	Title     string          `json:"title"`
	Messages  json.RawMessage `json:"messages"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// clearOrder lists the tables in reverse dependency order
var clearOrder = []string{
	"lesson_sessions",
	"chat_logs",
	"egg_purchases",
	"user_pets",
	"daily_activity",
	"xp_transactions",
	"user_badges",
	"lesson_progress",
	"password_reset_tokens",
	"sessions",
	"users",
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db     *database.DB
	logger *logging.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *logging.Logger) *BackupService {
	return &BackupService{db: db, logger: logger}
}

// Export writes a complete backup as indented JSON
func (s *BackupService) Export(w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	steps := []struct {
		name string
		fn   func(*BackupData) error
	}{
		{"users", s.exportUsers},
		{"lesson progress", s.exportProgress},
		{"badges", s.exportBadges},
		{"xp transactions", s.exportXPTransactions},
		{"daily activity", s.exportActivity},
		{"user pets", s.exportUserPets},
		{"egg purchases", s.exportEggPurchases},
		{"chats", s.exportChats},
	}
	for _, step := range steps {
		if err := step.fn(backup); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", step.name, err)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("Database exported",
		"users", len(backup.Users),
		"progress", len(backup.Progress),
		"badges", len(backup.Badges),
		"pets", len(backup.UserPets),
		"chats", len(backup.Chats),
	)
	return backup, nil
}

// Import restores a backup in a single transaction
func (s *BackupService) Import(r io.Reader) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	s.logger.Info("Importing backup", "version", backup.Version, "exported_at", backup.ExportedAt)

	err := s.db.WithTx(func(tx *database.Tx) error {
		steps := []struct {
			name string
			fn   func(*database.Tx, *BackupData) error
		}{
			{"users", importUsers},
			{"lesson progress", importProgress},
			{"badges", importBadges},
			{"xp transactions", importXPTransactions},
			{"daily activity", importActivity},
			{"user pets", importUserPets},
			{"egg purchases", importEggPurchases},
			{"chats", importChats},
		}
		for _, step := range steps {
			if err := step.fn(tx, &backup); err != nil {
				return fmt.Errorf("failed to import %s: %w", step.name, err)
			}
		}
		return s.resetSequences(tx)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Database import completed", "users", len(backup.Users))
	return &backup, nil
}

// Clear deletes all user data, leaving the catalog tables alone
func (s *BackupService) Clear() error {
	return s.db.WithTx(func(tx *database.Tx) error {
		for _, table := range clearOrder {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			s.logger.Debug("Cleared table", "table", table)
		}
		return nil
	})
}

// DatabaseStats counts the rows an import or clear would touch
type DatabaseStats struct {
	Users    int
	Lessons  int
	Badges   int
	Pets     int
	Chats    int
	XPEvents int
}

// Stats counts rows in the main user tables for the admin page
func (s *BackupService) Stats() (*DatabaseStats, error) {
	stats := &DatabaseStats{}
	counts := []struct {
		table string
		dest  *int
	}{
		{"users", &stats.Users},
		{"lesson_progress", &stats.Lessons},
		{"user_badges", &stats.Badges},
		{"user_pets", &stats.Pets},
		{"chat_logs", &stats.Chats},
		{"xp_transactions", &stats.XPEvents},
	}
	for _, c := range counts {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}
	return stats, nil
}

// resetSequences moves Postgres serial counters past the imported ids
func (s *BackupService) resetSequences(tx *database.Tx) error {
	if s.db.Dialect.DriverName() != "postgres" {
		return nil
	}
	if _, err := tx.Exec("SELECT setval(pg_get_serial_sequence('users', 'id'), COALESCE(MAX(id), 1)) FROM users"); err != nil {
		return fmt.Errorf("failed to reset users sequence: %w", err)
	}
	return nil
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	query := `
		SELECT id, username, COALESCE(email, ''), password_hash, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''),
			is_admin, grade, theme, sounds_enabled, difficulty, daily_goal, total_xp, level, streak_count,
			last_study_date, daily_lessons_completed, daily_lessons_date, pet_stage, pet_mood, pomodoros_completed,
			created_at, updated_at
		FROM users ORDER BY id
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.OAuthProvider, &u.OAuthSubject,
			&u.IsAdmin, &u.Grade, &u.Theme, &u.SoundsEnabled, &u.Difficulty, &u.DailyGoal, &u.TotalXP, &u.Level, &u.StreakCount,
			&u.LastStudyDate, &u.DailyLessonsCompleted, &u.DailyLessonsDate, &u.PetStage, &u.PetMood, &u.PomodorosCompleted,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportProgress(backup *BackupData) error {
	rows, err := s.db.Query("SELECT user_id, lesson_key, status, completed_at, quiz_score FROM lesson_progress ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p ProgressBackup
		var completedAt sql.NullTime
		var quizScore sql.NullInt64
		if err := rows.Scan(&p.UserID, &p.LessonKey, &p.Status, &completedAt, &quizScore); err != nil {
			return err
		}
		if completedAt.Valid {
			p.CompletedAt = &completedAt.Time
		}
		if quizScore.Valid {
			p.QuizScore = &quizScore.Int64
		}
		backup.Progress = append(backup.Progress, p)
	}
	return rows.Err()
}

func (s *BackupService) exportBadges(backup *BackupData) error {
	rows, err := s.db.Query("SELECT user_id, badge_id, earned_at FROM user_badges ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var b BadgeBackup
		if err := rows.Scan(&b.UserID, &b.BadgeID, &b.EarnedAt); err != nil {
			return err
		}
		backup.Badges = append(backup.Badges, b)
	}
	return rows.Err()
}

func (s *BackupService) exportXPTransactions(backup *BackupData) error {
	rows, err := s.db.Query("SELECT user_id, amount, base_amount, multiplier, source_type, source_id, created_at FROM xp_transactions ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t XPTransactionBackup
		if err := rows.Scan(&t.UserID, &t.Amount, &t.BaseAmount, &t.Multiplier, &t.SourceType, &t.SourceID, &t.CreatedAt); err != nil {
			return err
		}
		backup.XPTransactions = append(backup.XPTransactions, t)
	}
	return rows.Err()
}

func (s *BackupService) exportActivity(backup *BackupData) error {
	rows, err := s.db.Query("SELECT user_id, activity_date, lessons_completed, xp_earned, pomodoros FROM daily_activity ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a ActivityBackup
		if err := rows.Scan(&a.UserID, &a.ActivityDate, &a.LessonsCompleted, &a.XPEarned, &a.Pomodoros); err != nil {
			return err
		}
		backup.Activity = append(backup.Activity, a)
	}
	return rows.Err()
}

func (s *BackupService) exportUserPets(backup *BackupData) error {
	rows, err := s.db.Query("SELECT user_id, pet_id, acquired_at, is_equipped, equip_slot FROM user_pets ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p UserPetBackup
		var slot sql.NullInt64
		if err := rows.Scan(&p.UserID, &p.PetID, &p.AcquiredAt, &p.IsEquipped, &slot); err != nil {
			return err
		}
		if slot.Valid {
			p.EquipSlot = &slot.Int64
		}
		backup.UserPets = append(backup.UserPets, p)
	}
	return rows.Err()
}

func (s *BackupService) exportEggPurchases(backup *BackupData) error {
	rows, err := s.db.Query("SELECT user_id, egg_type, pet_id, xp_cost, purchased_at FROM egg_purchases ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p EggPurchaseBackup
		if err := rows.Scan(&p.UserID, &p.EggType, &p.PetID, &p.XPCost, &p.PurchasedAt); err != nil {
			return err
		}
		backup.EggPurchases = append(backup.EggPurchases, p)
	}
	return rows.Err()
}

func (s *BackupService) exportChats(backup *BackupData) error {
	rows, err := s.db.Query("SELECT session_id, user_id, title, messages, created_at, updated_at FROM chat_logs ORDER BY created_at")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c ChatBackup
		var messages string
		if err := rows.Scan(&c.SessionID, &c.UserID, &c.Title, &messages, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		c.Messages = json.RawMessage(messages)
		backup.Chats = append(backup.Chats, c)
	}
	return rows.Err()
}

func importUsers(tx *database.Tx, backup *BackupData) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, oauth_provider, oauth_subject, is_admin, grade, theme,
			sounds_enabled, difficulty, daily_goal, total_xp, level, streak_count, last_study_date,
			daily_lessons_completed, daily_lessons_date, pet_stage, pet_mood, pomodoros_completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, u := range backup.Users {
		if _, err := tx.Exec(query, u.ID, u.Username, nullIfEmpty(u.Email), u.PasswordHash, nullIfEmpty(u.OAuthProvider),
			nullIfEmpty(u.OAuthSubject), u.IsAdmin, u.Grade, u.Theme, u.SoundsEnabled, u.Difficulty, u.DailyGoal, u.TotalXP,
			u.Level, u.StreakCount, u.LastStudyDate, u.DailyLessonsCompleted, u.DailyLessonsDate, u.PetStage, u.PetMood,
			u.PomodorosCompleted, u.CreatedAt, u.UpdatedAt); err != nil {
			return fmt.Errorf("failed to import user %d: %w", u.ID, err)
		}
	}
	return nil
}

func importProgress(tx *database.Tx, backup *BackupData) error {
	for _, p := range backup.Progress {
		if _, err := tx.Exec(
			"INSERT INTO lesson_progress (user_id, lesson_key, status, completed_at, quiz_score) VALUES (?, ?, ?, ?, ?)",
			p.UserID, p.LessonKey, p.Status, p.CompletedAt, p.QuizScore,
		); err != nil {
			return fmt.Errorf("failed to import progress %d/%s: %w", p.UserID, p.LessonKey, err)
		}
	}
	return nil
}

func importBadges(tx *database.Tx, backup *BackupData) error {
	for _, b := range backup.Badges {
		if _, err := tx.Exec("INSERT INTO user_badges (user_id, badge_id, earned_at) VALUES (?, ?, ?)", b.UserID, b.BadgeID, b.EarnedAt); err != nil {
			return fmt.Errorf("failed to import badge %d/%s: %w", b.UserID, b.BadgeID, err)
		}
	}
	return nil
}

func importXPTransactions(tx *database.Tx, backup *BackupData) error {
	query := "INSERT INTO xp_transactions (user_id, amount, base_amount, multiplier, source_type, source_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	for _, t := range backup.XPTransactions {
		if _, err := tx.Exec(query, t.UserID, t.Amount, t.BaseAmount, t.Multiplier, t.SourceType, t.SourceID, t.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func importActivity(tx *database.Tx, backup *BackupData) error {
	query := "INSERT INTO daily_activity (user_id, activity_date, lessons_completed, xp_earned, pomodoros) VALUES (?, ?, ?, ?, ?)"
	for _, a := range backup.Activity {
		if _, err := tx.Exec(query, a.UserID, a.ActivityDate, a.LessonsCompleted, a.XPEarned, a.Pomodoros); err != nil {
			return err
		}
	}
	return nil
}

func importUserPets(tx *database.Tx, backup *BackupData) error {
	query := "INSERT INTO user_pets (user_id, pet_id, acquired_at, is_equipped, equip_slot) VALUES (?, ?, ?, ?, ?)"
	for _, p := range backup.UserPets {
		if _, err := tx.Exec(query, p.UserID, p.PetID, p.AcquiredAt, p.IsEquipped, p.EquipSlot); err != nil {
			return err
		}
	}
	return nil
}

func importEggPurchases(tx *database.Tx, backup *BackupData) error {
	query := "INSERT INTO egg_purchases (user_id, egg_type, pet_id, xp_cost, purchased_at) VALUES (?, ?, ?, ?, ?)"
	for _, p := range backup.EggPurchases {
		if _, err := tx.Exec(query, p.UserID, p.EggType, p.PetID, p.XPCost, p.PurchasedAt); err != nil {
			return err
		}
	}
	return nil
}

func importChats(tx *database.Tx, backup *BackupData) error {
	query := "INSERT INTO chat_logs (session_id, user_id, title, messages, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"
	for _, c := range backup.Chats {
		messages := string(c.Messages)
		if messages == "" || messages == "null" {
			messages = "[]"
		}
		if _, err := tx.Exec(query, c.SessionID, c.UserID, c.Title, messages, c.CreatedAt, c.UpdatedAt); err != nil {
			return fmt.Errorf("failed to import chat %s: %w", c.SessionID, err)
		}
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
