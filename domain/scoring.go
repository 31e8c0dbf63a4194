package domain

import "time"

const (
	basePoints     = 10
	onTimeBonus    = 5
	streakPerLevel = 2
)

// Award is the outcome of scoring a single completion.
type Award struct {
	Points int `json:"points"`
	Streak int `json:"streak"`
}

// ScoreCompletion computes the deterministic point award and streak for a
// task entering Done at completedAt. Only the calendar date of the previous
// completion is compared: completing a second task on the same day leaves
// the streak untouched, a gap of exactly one day extends it, anything else
// resets it to 1.
func ScoreCompletion(user *User, task *Task, completedAt time.Time) Award {
	streak := 1
	if user != nil && user.LastCompletionDate != nil {
		switch calendarDaysBetween(*user.LastCompletionDate, completedAt) {
		case 0:
			streak = user.Streak
			if streak < 1 {
				streak = 1
			}
		case 1:
			streak = user.Streak + 1
		}
	}

	points := basePoints
	if task != nil && task.DueDate != nil && !completedAt.After(*task.DueDate) {
		points += onTimeBonus
	}
	points += streak * streakPerLevel

	return Award{Points: points, Streak: streak}
}

// ApplyAward mutates the user's gamification state for a completion at now.
func (u *User) ApplyAward(award Award, now time.Time) {
	if u == nil {
		return
	}
	u.Points += award.Points
	u.Streak = award.Streak
	completed := now
	u.LastCompletionDate = &completed
}

// calendarDaysBetween returns the absolute whole-day distance between the
// local calendar dates of a and b, ignoring time of day.
func calendarDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	diff := db.Sub(da)
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}
