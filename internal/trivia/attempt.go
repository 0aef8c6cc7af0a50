package trivia

import "time"

// sameDay reports whether two times fall on the same local calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// PlayedOn reports whether the record's attempt happened on the given
// local calendar day. A zero date is never "played".
func (r AttemptRecord) PlayedOn(day time.Time) bool {
	if r.Date.IsZero() {
		return false
	}
	return sameDay(r.Date.Local(), day)
}

// NextAttempt derives the stored record for a new attempt from the previous
// record for the same (club, game type). It recomputes the streak and the
// record score; both attempt stores share these rules.
//
// Streak: a win on the day after a winning day extends the streak by one.
// A win with no winning attempt yesterday starts a streak of 1. A loss
// resets it to 0.
// Record score: max of the previous record score and the new score.
func NextAttempt(prev *AttemptRecord, next AttemptRecord, now time.Time) AttemptRecord {
	if next.Date.IsZero() {
		next.Date = now
	}

	if next.Won {
		next.Streak = 1
		if prev != nil && prev.Won && !prev.Date.IsZero() {
			switch {
			case sameDay(prev.Date.Local(), now.AddDate(0, 0, -1)):
				next.Streak = prev.Streak + 1
			case sameDay(prev.Date.Local(), now):
				// Replay on the same day keeps the streak; it only grows
				// once per calendar day.
				next.Streak = prev.Streak
			}
		}
	} else {
		next.Streak = 0
	}

	next.RecordScore = next.Score
	if prev != nil && prev.RecordScore > next.RecordScore {
		next.RecordScore = prev.RecordScore
	}
	return next
}
