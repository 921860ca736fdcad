package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/database"
	"sorokinportal/internal/llm"
	"sorokinportal/internal/logging"
	"sorokinportal/internal/models"
	"sorokinportal/internal/repository"
)

// testNow is noon so lesson completions never earn a time-of-day badge
var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	t   *testing.T
	db  *database.DB
	cat *catalog.Catalog

	mu  sync.Mutex
	now time.Time

	users    *repository.UserRepository
	progress *repository.ProgressRepository
	badges   *repository.BadgeRepository
	pets     *repository.PetRepository
	ledger   *repository.LedgerRepository
	sessions *repository.LessonSessionRepository
	chatRepo *repository.ChatRepository

	rewards  *RewardService
	usage    *UsageService
	tutor    *TutorService
	quizzes  *QuizService
	chats    *ChatService
	gacha    *GachaService
	stats    *StatsService
	settings *SettingsService
	mailer   *fakeMailer
	auth     *AuthService
}

func (e *testEnv) clock() Clock {
	return Clock{Location: time.UTC, NowFunc: func() time.Time {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.now
	}}
}

func (e *testEnv) setNow(t time.Time) {
	e.mu.Lock()
	e.now = t
	e.mu.Unlock()
}

// newTestEnv wires every service against a fresh SQLite file. client backs both LLM tiers.
func newTestEnv(t *testing.T, client llm.Client) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cat, err := catalog.Load()
	require.NoError(t, err)

	if client == nil {
		client = llm.NewOfflineClient()
	}
	router := llm.NewRouter(client, client)
	logger := logging.NewNop()

	e := &testEnv{t: t, db: db, cat: cat, now: testNow}
	clock := e.clock()

	e.users = repository.NewUserRepository(db)
	e.progress = repository.NewProgressRepository(db)
	e.badges = repository.NewBadgeRepository(db)
	e.pets = repository.NewPetRepository(db)
	e.ledger = repository.NewLedgerRepository(db)
	e.sessions = repository.NewLessonSessionRepository(db)
	e.chatRepo = repository.NewChatRepository(db)

	require.NoError(t, e.pets.SyncCatalog(cat.Pets.Pets()))

	e.rewards = NewRewardService(cat, e.users, e.progress, e.badges, e.pets, e.ledger, clock, logger)
	e.usage = NewUsageService(e.users, 100, 2, clock)
	e.tutor = NewTutorService(cat, e.sessions, e.progress, e.usage, e.rewards, router, logger)
	e.quizzes = NewQuizService(e.tutor, e.sessions, e.rewards, logger)
	e.chats = NewChatService(e.chatRepo, e.users, e.usage, router, logger)
	e.gacha = NewGachaService(db, cat.Pets, fixedRand{}, clock, logger)
	e.stats = NewStatsService(cat, e.progress, e.badges, e.ledger, e.usage, clock)
	e.settings = NewSettingsService(e.users, logger)
	e.mailer = &fakeMailer{}
	e.auth = NewAuthService(e.users, db, e.usage, e.chats, e.mailer, 24*time.Hour, logger)
	return e
}

func (e *testEnv) createUser(username string) *models.User {
	e.t.Helper()
	user, err := e.users.CreateUser(username, "", "hash", "9th")
	require.NoError(e.t, err)
	return user
}

func (e *testEnv) reload(id int64) *models.User {
	e.t.Helper()
	user, err := e.users.GetUserByID(id)
	require.NoError(e.t, err)
	require.NotNil(e.t, user)
	return user
}

func (e *testEnv) lesson(key string) *catalog.Lesson {
	e.t.Helper()
	l := e.cat.Lesson(key)
	require.NotNil(e.t, l, "lesson %s", key)
	return l
}

// fixedRand always returns n, clamped to the range
type fixedRand struct{ n int }

func (r fixedRand) IntN(n int) int {
	if r.n >= n {
		return n - 1
	}
	return r.n
}

type failingClient struct{}

func (failingClient) Name() string { return "failing" }

func (failingClient) Generate(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("connection refused")
}

// countingClient counts the prompts sent to the wrapped client
type countingClient struct {
	llm.Client
	mu    sync.Mutex
	calls int
}

func (c *countingClient) Generate(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.Client.Generate(ctx, prompt)
}

func (c *countingClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type sentMail struct {
	kind, to, name, token string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) IsEnabled() bool { return true }

func (m *fakeMailer) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "reset", to: toEmail, name: toName, token: resetToken})
	return nil
}

func (m *fakeMailer) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "welcome", to: toEmail, name: toName})
	return nil
}

func (m *fakeMailer) last(kind string) (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i], true
		}
	}
	return sentMail{}, false
}

func badgeIDs(badges []catalog.Badge) []string {
	ids := make([]string, 0, len(badges))
	for _, b := range badges {
		ids = append(ids, b.ID)
	}
	return ids
}
