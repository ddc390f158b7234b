package history

import (
	"context"
	"database/sql"
	"time"
)

// Round is one finished word-duel round.
type Round struct {
	ID          string    `json:"id"`
	Setter      string    `json:"setter"`
	Guesser     string    `json:"guesser"`
	Language    string    `json:"language"`
	WordLen     int       `json:"wordLen"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"maxAttempts"`
	Won         bool      `json:"won"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// Stats are the guesser-side counters kept per participant.
type Stats struct {
	Name        string `json:"name"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	Streak      int    `json:"streak"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// RecordRound inserts the round and bumps the guesser's counters in one
// transaction. A loss resets the streak.
func (s *Store) RecordRound(ctx context.Context, r Round) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	outcome := "loss"
	if r.Won {
		outcome = "win"
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO rounds (id, setter, guesser, language, word_len, attempts, max_attempts, outcome, finished_at)
        VALUES (?,?,?,?,?,?,?,?,?)`,
		r.ID, r.Setter, r.Guesser, r.Language, r.WordLen, r.Attempts, r.MaxAttempts, outcome,
		r.FinishedAt.UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}

	var gp, wins, streak int
	err = tx.QueryRowContext(ctx,
		`SELECT games_played, wins, streak FROM users WHERE username=?`, r.Guesser,
	).Scan(&gp, &wins, &streak)
	if err == nil {
		gp++
		if r.Won {
			wins++
			streak++
		} else {
			streak = 0
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET games_played=?, wins=?, streak=? WHERE username=?`,
			gp, wins, streak, r.Guesser,
		); err != nil {
			return err
		}
	} else if err != sql.ErrNoRows {
		return err
	}
	return tx.Commit()
}

func (s *Store) Stats(ctx context.Context, name string) (Stats, error) {
	st := Stats{Name: name}
	err := s.db.QueryRowContext(ctx,
		`SELECT games_played, wins, streak FROM users WHERE username=?`, name,
	).Scan(&st.GamesPlayed, &st.Wins, &st.Streak)
	return st, err
}

// RecentRounds returns the participant's latest rounds, either role, newest
// first. Default limit is 50.
func (s *Store) RecentRounds(ctx context.Context, name string, limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, setter, guesser, language, word_len, attempts, max_attempts, outcome, finished_at
        FROM rounds
        WHERE setter=? OR guesser=?
        ORDER BY finished_at DESC
        LIMIT ?`, name, name, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Round{}
	for rows.Next() {
		var r Round
		var outcome, finished string
		if err := rows.Scan(&r.ID, &r.Setter, &r.Guesser, &r.Language, &r.WordLen,
			&r.Attempts, &r.MaxAttempts, &outcome, &finished); err != nil {
			return nil, err
		}
		r.Won = outcome == "win"
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}
