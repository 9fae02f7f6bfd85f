// Package stats aggregates study history into the figures the analytics
// page renders: totals, correct rate, weekly activity, and streaks.
package stats

import (
	"time"

	"github.com/quizlify/quizlify/internal/storage"
)

// ModeStats is the per-mode slice of the aggregate.
type ModeStats struct {
	Sessions  int   `json:"sessions"`
	TimeMs    int64 `json:"time_ms"`
	BestScore int   `json:"best_score,omitempty"`
	BestMs    int64 `json:"best_ms,omitempty"`
}

// Performance is the aggregate over a user's study history.
type Performance struct {
	TotalStudyMs     int64   `json:"total_study_ms"`
	Sessions         int     `json:"sessions"`
	CardsStudied     int     `json:"cards_studied"`
	CorrectRate      float64 `json:"correct_rate"`
	AverageSessionMs int64   `json:"average_session_ms"`
	// WeeklyProgress counts sessions per day over the trailing week,
	// oldest day first, today last.
	WeeklyProgress [7]int               `json:"weekly_progress"`
	DailyStreak    int                  `json:"daily_streak"`
	LongestStreak  int                  `json:"longest_streak"`
	ByMode         map[string]ModeStats `json:"by_mode"`
}

// Compute aggregates study records relative to now. Correct rate is the
// share of test answers that were correct; mastery sessions contribute
// mastered/total to cards studied but not to the correct rate.
func Compute(records []storage.StudyRecord, now time.Time) Performance {
	p := Performance{ByMode: make(map[string]ModeStats)}

	correct, answered := 0, 0
	days := make(map[string]bool)

	for _, r := range records {
		p.Sessions++
		p.TotalStudyMs += r.ElapsedMs
		p.CardsStudied += r.Total

		if r.Questions > 0 {
			correct += r.Correct
			answered += r.Questions
		}

		m := p.ByMode[r.Mode]
		m.Sessions++
		m.TimeMs += r.ElapsedMs
		if r.Questions > 0 && r.ScorePercent > m.BestScore {
			m.BestScore = r.ScorePercent
		}
		if r.Mode == "match" && r.ElapsedMs > 0 && (m.BestMs == 0 || r.ElapsedMs < m.BestMs) {
			m.BestMs = r.ElapsedMs
		}
		p.ByMode[r.Mode] = m

		day := r.StartedAt.Format("2006-01-02")
		days[day] = true

		// Trailing-week bucket: 0 is six days ago, 6 is today.
		age := daysBetween(r.StartedAt, now)
		if age >= 0 && age < 7 {
			p.WeeklyProgress[6-age]++
		}
	}

	if p.Sessions > 0 {
		p.AverageSessionMs = p.TotalStudyMs / int64(p.Sessions)
	}
	if answered > 0 {
		p.CorrectRate = float64(correct) / float64(answered)
	}

	p.DailyStreak, p.LongestStreak = streaks(days, now)
	return p
}

// daysBetween returns how many calendar days before now t falls.
func daysBetween(t, now time.Time) int {
	tDay := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(nowDay.Sub(tDay).Hours() / 24)
}

// streaks computes the current and longest run of consecutive study days.
// The current streak counts back from today, or from yesterday if today has
// no session yet.
func streaks(days map[string]bool, now time.Time) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}

	day := now
	if !days[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
	}
	for days[day.Format("2006-01-02")] {
		current++
		day = day.AddDate(0, 0, -1)
	}

	// Longest run anywhere in history: walk each day that starts a run.
	for key := range days {
		start, err := time.ParseInLocation("2006-01-02", key, now.Location())
		if err != nil {
			continue
		}
		if days[start.AddDate(0, 0, -1).Format("2006-01-02")] {
			continue // not the start of a run
		}
		run := 0
		for d := start; days[d.Format("2006-01-02")]; d = d.AddDate(0, 0, 1) {
			run++
		}
		if run > longest {
			longest = run
		}
	}
	return current, longest
}
