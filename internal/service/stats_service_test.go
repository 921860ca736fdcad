package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorokinportal/internal/catalog"
)

func TestDashboard(t *testing.T) {
	e := newTestEnv(t, nil)
	ctx := context.Background()
	user := e.createUser("ada")

	_, err := e.rewards.CompleteLesson(ctx, user.ID, e.lesson("algebra1_L01"))
	require.NoError(t, err)

	d, err := e.stats.Dashboard(ctx, e.reload(user.ID))
	require.NoError(t, err)
	assert.Equal(t, "ada", d.Username)
	assert.Equal(t, 2, d.Level.Level)
	assert.Equal(t, "Learner", d.Level.Name)
	assert.Equal(t, 1, d.Streak)
	assert.Equal(t, 1, d.DailyGoal.Completed)
	assert.Equal(t, 3, d.DailyGoal.Goal)
	assert.InDelta(t, 33.33, d.DailyGoal.Percent, 0.01)
	assert.False(t, d.DailyGoal.Reached)
	assert.Equal(t, 2, d.BadgesEarned)
	assert.Len(t, d.Badges, len(catalog.Badges))
	assert.Equal(t, 1, d.LessonsCompleted)
	assert.Equal(t, 130, d.TotalLessons)
	assert.Equal(t, "happy", d.Pet.Mood)
	assert.Equal(t, 150, d.Today.XPEarned)
	assert.Len(t, d.Recent, 3)

	for _, b := range d.Badges {
		if b.ID == catalog.BadgeFirstLesson {
			assert.True(t, b.Earned)
			assert.NotNil(t, b.EarnedAt)
		}
		if b.ID == catalog.BadgePerfectQuiz {
			assert.False(t, b.Earned)
		}
	}
}

func TestCoursesLockState(t *testing.T) {
	e := newTestEnv(t, nil)
	ctx := context.Background()
	user := e.createUser("ada")

	_, err := e.rewards.CompleteLesson(ctx, user.ID, e.lesson("algebra1_L01"))
	require.NoError(t, err)

	subjects, err := e.stats.Courses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, subjects, 3)

	var algebra *CourseView
	for i := range subjects[0].Courses {
		if subjects[0].Courses[i].ID == "algebra1" {
			algebra = &subjects[0].Courses[i]
		}
	}
	require.NotNil(t, algebra)
	assert.Equal(t, 1, algebra.Completed)
	assert.Equal(t, catalog.StatusCompleted, algebra.Lessons[0].Status)
	assert.Equal(t, catalog.StatusAvailable, algebra.Lessons[1].Status)
	assert.True(t, algebra.Lessons[2].Visible)
	assert.Equal(t, catalog.StatusLocked, algebra.Lessons[4].Status)
	assert.False(t, algebra.Lessons[4].Visible)
}

func TestGraphAndConstellation(t *testing.T) {
	e := newTestEnv(t, nil)
	ctx := context.Background()
	user := e.createUser("ada")

	_, err := e.rewards.CompleteLesson(ctx, user.ID, e.lesson("physics_L01"))
	require.NoError(t, err)

	g, err := e.stats.Graph(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "ada", g.Nodes[0].Name)
	// student + 3 subjects + 9 courses + 130 lessons
	assert.Len(t, g.Nodes, 1+3+9+130)

	c, err := e.stats.Constellation(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Completed)
	assert.Equal(t, 130, c.Total)
	assert.InDelta(t, 0.8, c.Percent, 1e-9)
}
