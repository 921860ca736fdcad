package gamification

// StreakBonuses grants extra XP when a streak reaches these lengths
var StreakBonuses = map[int]int{
	7:  100,
	14: 200,
	30: 500,
}

// StreakUpdate is the outcome of studying on a given day
type StreakUpdate struct {
	Count   int
	Bonus   int
	Changed bool
}

// NextStreak computes the streak after a study action today.
// lastStudy is "" when the user has never studied.
func NextStreak(current int, lastStudy, today string) StreakUpdate {
	if lastStudy == "" {
		return StreakUpdate{Count: 1, Changed: true}
	}

	days, err := DaysBetween(lastStudy, today)
	if err != nil {
		return StreakUpdate{Count: 1, Changed: true}
	}

	switch {
	case days <= 0:
		return StreakUpdate{Count: current}
	case days == 1:
		count := current + 1
		return StreakUpdate{Count: count, Bonus: StreakBonuses[count], Changed: true}
	default:
		return StreakUpdate{Count: 1, Changed: true}
	}
}

// DailyGoalBonus is granted once when the daily lesson count reaches the goal
const DailyGoalBonus = 50

// NextDailyCount increments the per-day lesson counter, resetting it on a new day.
// The bonus fires only when the count equals the goal.
func NextDailyCount(count int, countDate, today string, goal int) (int, int) {
	if countDate != today {
		count = 0
	}
	count++
	if count == goal {
		return count, DailyGoalBonus
	}
	return count, 0
}
