package repository

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/database"
	"sorokinportal/internal/models"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo_test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *database.DB, username string) *models.User {
	t.Helper()
	user, err := NewUserRepository(db).CreateUser(username, "", "hash", "9th")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	first, err := repo.CreateUser("ada", "ada@example.com", "hash", "10th")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if !first.IsAdmin {
		t.Error("first user should be admin")
	}
	if first.Level != 1 || first.PetStage != "egg" || first.DailyGoal != 3 || first.Theme != "Auto" {
		t.Errorf("unexpected defaults: %+v", first)
	}

	second, err := repo.CreateUser("grace", "", "hash", "9th")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if second.IsAdmin {
		t.Error("second user should not be admin")
	}
	if second.Email != "" {
		t.Errorf("Email = %q, want empty", second.Email)
	}

	if _, err := repo.CreateUser("ada", "", "hash", "9th"); err == nil {
		t.Error("duplicate username should fail")
	}

	got, err := repo.GetUserByUsername("ada")
	if err != nil || got == nil || got.ID != first.ID {
		t.Fatalf("GetUserByUsername = %v, %v", got, err)
	}
	missing, err := repo.GetUserByUsername("nobody")
	if err != nil || missing != nil {
		t.Errorf("GetUserByUsername(nobody) = %v, %v; want nil, nil", missing, err)
	}

	err = repo.UpdateSettings(first.ID, Settings{Grade: "College", Theme: "Sunset", SoundsEnabled: false, DailyGoal: 5, Difficulty: "Advanced"})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	got, _ = repo.GetUserByID(first.ID)
	if got.Grade != "College" || got.Theme != "Sunset" || got.SoundsEnabled || got.DailyGoal != 5 || got.Difficulty != "Advanced" || got.Email != "" {
		t.Errorf("settings not saved: %+v", got)
	}
}

func TestXPDebitIsConditional(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	user := createTestUser(t, db, "ada")

	total, err := repo.AddXP(user.ID, 300)
	if err != nil || total != 300 {
		t.Fatalf("AddXP = %d, %v", total, err)
	}

	ok, err := repo.DebitXP(user.ID, 500)
	if err != nil {
		t.Fatalf("DebitXP failed: %v", err)
	}
	if ok {
		t.Error("debit beyond balance should be refused")
	}

	ok, err = repo.DebitXP(user.ID, 200)
	if err != nil || !ok {
		t.Fatalf("DebitXP = %v, %v", ok, err)
	}
	got, _ := repo.GetUserByID(user.ID)
	if got.TotalXP != 100 {
		t.Errorf("TotalXP = %d, want 100", got.TotalXP)
	}
}

func TestUsageQuota(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	user := createTestUser(t, db, "ada")

	reset, err := repo.ResetUsageIfStale(user.ID, "2026-03-10")
	if err != nil || !reset {
		t.Fatalf("ResetUsageIfStale = %v, %v", reset, err)
	}
	reset, _ = repo.ResetUsageIfStale(user.ID, "2026-03-10")
	if reset {
		t.Error("second reset on the same day should be a no-op")
	}

	for i := 0; i < 2; i++ {
		ok, err := repo.ConsumeUsage(user.ID, TierPremium, 2)
		if err != nil || !ok {
			t.Fatalf("ConsumeUsage #%d = %v, %v", i, ok, err)
		}
	}
	ok, err := repo.ConsumeUsage(user.ID, TierPremium, 2)
	if err != nil {
		t.Fatalf("ConsumeUsage failed: %v", err)
	}
	if ok {
		t.Error("third premium call should exceed the limit")
	}

	if _, err := repo.ConsumeUsage(user.ID, "turbo", 2); err == nil {
		t.Error("unknown tier should error")
	}

	if reset, _ := repo.ResetUsageIfStale(user.ID, "2026-03-11"); !reset {
		t.Error("new day should reset usage")
	}
	got, _ := repo.GetUserByID(user.ID)
	if got.ProUsage != 0 || got.LastActiveDate != "2026-03-11" {
		t.Errorf("usage not reset: pro=%d date=%s", got.ProUsage, got.LastActiveDate)
	}
}

func TestProgressRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProgressRepository(db)
	user := createTestUser(t, db, "ada")

	if err := repo.EnsureAvailable(user.ID, "algebra1_L02"); err != nil {
		t.Fatalf("EnsureAvailable failed: %v", err)
	}
	if err := repo.EnsureAvailable(user.ID, "algebra1_L02"); err != nil {
		t.Fatalf("second EnsureAvailable failed: %v", err)
	}

	first, err := repo.MarkCompleted(user.ID, "algebra1_L01", time.Now())
	if err != nil || !first {
		t.Fatalf("MarkCompleted = %v, %v", first, err)
	}
	again, err := repo.MarkCompleted(user.ID, "algebra1_L01", time.Now())
	if err != nil || again {
		t.Errorf("re-completing should report false, got %v, %v", again, err)
	}

	progress, err := repo.GetProgressMap(user.ID)
	if err != nil {
		t.Fatalf("GetProgressMap failed: %v", err)
	}
	if progress["algebra1_L01"] != models.StatusCompleted || progress["algebra1_L02"] != models.StatusAvailable {
		t.Errorf("progress = %v", progress)
	}

	first, err = repo.SetQuizScore(user.ID, "algebra1_L01", 60)
	if err != nil || !first {
		t.Fatalf("SetQuizScore = %v, %v, want the first score", first, err)
	}
	first, err = repo.SetQuizScore(user.ID, "algebra1_L01", 80)
	if err != nil || first {
		t.Fatalf("SetQuizScore = %v, %v, want a repeat score", first, err)
	}
	p, err := repo.GetProgress(user.ID, "algebra1_L01")
	if err != nil || p == nil {
		t.Fatalf("GetProgress = %v, %v", p, err)
	}
	if p.QuizScore == nil || *p.QuizScore != 80 || p.CompletedAt == nil {
		t.Errorf("unexpected progress row: %+v", p)
	}

	count, _ := repo.CountCompleted(user.ID)
	if count != 1 {
		t.Errorf("CountCompleted = %d, want 1", count)
	}
}

func TestBadgeAwardIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)
	user := createTestUser(t, db, "ada")

	for i, want := range []bool{true, false, false} {
		got, err := repo.Award(user.ID, "first_lesson")
		if err != nil {
			t.Fatalf("Award #%d failed: %v", i, err)
		}
		if got != want {
			t.Errorf("Award #%d = %v, want %v", i, got, want)
		}
	}

	badges, _ := repo.ListBadges(user.ID)
	if len(badges) != 1 {
		t.Errorf("ListBadges returned %d, want 1", len(badges))
	}
}

func TestLedgerActivity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLedgerRepository(db)
	user := createTestUser(t, db, "ada")

	if err := repo.AddActivity(user.ID, "2026-03-10", ActivityDelta{Lessons: 1, XP: 50}); err != nil {
		t.Fatalf("AddActivity failed: %v", err)
	}
	if err := repo.AddActivity(user.ID, "2026-03-10", ActivityDelta{XP: 25, Pomodoros: 1}); err != nil {
		t.Fatalf("AddActivity failed: %v", err)
	}

	a, err := repo.GetActivity(user.ID, "2026-03-10")
	if err != nil || a == nil {
		t.Fatalf("GetActivity = %v, %v", a, err)
	}
	if a.LessonsCompleted != 1 || a.XPEarned != 75 || a.Pomodoros != 1 {
		t.Errorf("activity = %+v", a)
	}

	if err := repo.RecordTransaction(models.XPTransaction{UserID: user.ID, Amount: -200, BaseAmount: -200, Multiplier: 1, SourceType: models.SourceEggPurchase, SourceID: "basic"}); err != nil {
		t.Fatalf("RecordTransaction failed: %v", err)
	}
	txs, _ := repo.RecentTransactions(user.ID, 10)
	if len(txs) != 1 || txs[0].Amount != -200 {
		t.Errorf("transactions = %+v", txs)
	}
}

func TestPetEquipSlots(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPetRepository(db)
	user := createTestUser(t, db, "ada")

	c, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load failed: %v", err)
	}
	if err := repo.SyncCatalog(c.Pets.Pets()); err != nil {
		t.Fatalf("SyncCatalog failed: %v", err)
	}
	if err := repo.SyncCatalog(c.Pets.Pets()); err != nil {
		t.Fatalf("second SyncCatalog failed: %v", err)
	}

	deadlines := map[string]bool{"frost_penguin": true, "study_cat": false}
	for petID, limited := range deadlines {
		var until sql.NullTime
		if err := db.QueryRow("SELECT limited_until FROM pets WHERE pet_id = ?", petID).Scan(&until); err != nil {
			t.Fatalf("failed to read limited_until for %s: %v", petID, err)
		}
		if until.Valid != limited {
			t.Errorf("%s: limited_until set = %v, want %v", petID, until.Valid, limited)
		}
		if limited && !until.Time.Equal(*c.Pets.Pet(petID).LimitedUntil) {
			t.Errorf("%s: limited_until = %v, want %v", petID, until.Time, c.Pets.Pet(petID).LimitedUntil)
		}
	}

	cat, _ := repo.AddUserPet(user.ID, "study_cat")
	fox, _ := repo.AddUserPet(user.ID, "brainy_fox")

	if err := repo.Equip(user.ID, cat, 1); err != nil {
		t.Fatalf("Equip failed: %v", err)
	}
	if err := repo.Equip(user.ID, fox, 1); err != nil {
		t.Fatalf("Equip into occupied slot failed: %v", err)
	}

	catRow, _ := repo.GetUserPet(user.ID, cat)
	if catRow.IsEquipped || catRow.EquipSlot != nil {
		t.Errorf("previous occupant should be unequipped: %+v", catRow)
	}

	if err := repo.Equip(user.ID, cat, 2); err != nil {
		t.Fatalf("Equip slot 2 failed: %v", err)
	}
	multipliers, _ := repo.EquippedMultipliers(user.ID)
	if len(multipliers) != 2 {
		t.Fatalf("EquippedMultipliers = %v, want 2 entries", multipliers)
	}

	// moving a pet to a new slot frees its old one
	if err := repo.Equip(user.ID, fox, 3); err != nil {
		t.Fatalf("Equip move failed: %v", err)
	}
	foxRow, _ := repo.GetUserPet(user.ID, fox)
	if foxRow.EquipSlot == nil || *foxRow.EquipSlot != 3 {
		t.Errorf("fox slot = %v, want 3", foxRow.EquipSlot)
	}

	if err := repo.Unequip(user.ID, cat); err != nil {
		t.Fatalf("Unequip failed: %v", err)
	}
	multipliers, _ = repo.EquippedMultipliers(user.ID)
	if len(multipliers) != 1 {
		t.Errorf("EquippedMultipliers after unequip = %v", multipliers)
	}

	other := createTestUser(t, db, "grace")
	if up, _ := repo.GetUserPet(other.ID, cat); up != nil {
		t.Error("another user's pet should not be visible")
	}
}

func TestChatRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)
	user := createTestUser(t, db, "ada")

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Create(user.ID, id); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if err := repo.SaveMessages(user.ID, "b", []models.Message{{Role: models.RoleUser, Content: "hi"}}); err != nil {
		t.Fatalf("SaveMessages failed: %v", err)
	}

	removed, err := repo.DeleteEmpty(user.ID, "c")
	if err != nil {
		t.Fatalf("DeleteEmpty failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("DeleteEmpty removed %d, want 1", removed)
	}

	chat, _ := repo.Get(user.ID, "b")
	if chat == nil || len(chat.Messages) != 1 {
		t.Fatalf("Get(b) = %+v", chat)
	}
	if gone, _ := repo.Get(user.ID, "a"); gone != nil {
		t.Error("empty chat a should have been deleted")
	}

	chats, _ := repo.ListRecent(user.ID, 20)
	if len(chats) != 2 {
		t.Errorf("ListRecent returned %d chats, want 2", len(chats))
	}
}

func TestLessonSessionRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLessonSessionRepository(db)
	user := createTestUser(t, db, "ada")

	err := repo.Start(&models.LessonSession{
		UserID:     user.ID,
		LessonKey:  "algebra1_L01",
		Section:    1,
		Difficulty: "Standard",
		Transcript: []models.Message{{Role: models.RoleAssistant, Content: "Welcome!"}},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := repo.SetQuiz(user.ID, json.RawMessage(`{"questions":[]}`)); err != nil {
		t.Fatalf("SetQuiz failed: %v", err)
	}
	s, _ := repo.Get(user.ID)
	if s == nil || !s.HasQuiz() || len(s.Transcript) != 1 {
		t.Fatalf("Get = %+v", s)
	}

	// starting again replaces the session
	if err := repo.Start(&models.LessonSession{UserID: user.ID, LessonKey: "geometry_L01", Section: 1, Difficulty: "Simple"}); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	s, _ = repo.Get(user.ID)
	if s.LessonKey != "geometry_L01" || s.HasQuiz() || len(s.Transcript) != 0 {
		t.Errorf("restart did not replace session: %+v", s)
	}

	if err := repo.Delete(user.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if s, _ := repo.Get(user.ID); s != nil {
		t.Error("session should be gone")
	}
}
