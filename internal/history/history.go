// Package history is the day-indexed per-user feature history store backing
// the temporal feature builder in serving: append a day, fetch the last N
// days per user. It also derives the cycle analytics surfaced to the app.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"
)

// RetentionDays is how much history is kept per user; rolling windows need at
// most 21 days, retention leaves headroom beyond that.
const RetentionDays = 30

// DB wraps the user history database.
type DB struct {
	*sql.DB

	// Retention is the per-user retention window in days. NewDB sets it to
	// RetentionDays; deployments can override it before serving.
	Retention int
}

// NewDB opens (creating if needed) the history database at path.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS user_days (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id          TEXT NOT NULL,
			date             TEXT NOT NULL,
			rmssd_mean       REAL,
			wrist_temp_mean  REAL,
			estrogen         REAL,
			pdg              REAL,
			lh               REAL,
			stress_score_mean REAL,
			oxygen_ratio_mean REAL,
			day_in_study     REAL,
			predicted_phase  TEXT,
			confidence       REAL,
			created_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, date)
		);
		CREATE INDEX IF NOT EXISTS idx_user_days_user_date
			ON user_days(user_id, date DESC);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &DB{DB: db, Retention: RetentionDays}, nil
}

// Day is one stored daily feature row, with the prediction made for it.
type Day struct {
	UserID          string   `json:"user_id"`
	Date            string   `json:"date"` // YYYY-MM-DD
	RMSSDMean       *float64 `json:"rmssd_mean"`
	WristTempMean   *float64 `json:"wrist_temp_mean"`
	Estrogen        *float64 `json:"estrogen"`
	PDG             *float64 `json:"pdg"`
	LH              *float64 `json:"lh"`
	StressScoreMean *float64 `json:"stress_score_mean"`
	OxygenRatioMean *float64 `json:"oxygen_ratio_mean"`
	DayInStudy      *float64 `json:"day_in_study"`
	PredictedPhase  *string  `json:"predicted_phase"`
	Confidence      *float64 `json:"confidence"`
}

// AddDay inserts or replaces the entry for (user, date), then trims entries
// older than the retention window.
func (db *DB) AddDay(d *Day) error {
	if d.UserID == "" || d.Date == "" {
		return fmt.Errorf("user id and date are required")
	}
	if _, err := time.Parse("2006-01-02", d.Date); err != nil {
		return fmt.Errorf("date %q is not YYYY-MM-DD: %w", d.Date, err)
	}

	_, err := db.Exec(`
		INSERT OR REPLACE INTO user_days (
			user_id, date, rmssd_mean, wrist_temp_mean, estrogen, pdg, lh,
			stress_score_mean, oxygen_ratio_mean, day_in_study,
			predicted_phase, confidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		d.UserID, d.Date, d.RMSSDMean, d.WristTempMean, d.Estrogen, d.PDG, d.LH,
		d.StressScoreMean, d.OxygenRatioMean, d.DayInStudy,
		d.PredictedPhase, d.Confidence,
	)
	if err != nil {
		return fmt.Errorf("failed to add history day: %w", err)
	}

	return db.cleanup(d.UserID, db.Retention)
}

// History returns the user's most recent entries, oldest first, at most days
// rows.
func (db *DB) History(userID string, days int) ([]Day, error) {
	rows, err := db.Query(`
		SELECT user_id, date, rmssd_mean, wrist_temp_mean, estrogen, pdg, lh,
		       stress_score_mean, oxygen_ratio_mean, day_in_study,
		       predicted_phase, confidence
		FROM user_days
		WHERE user_id = ?
		ORDER BY date DESC
		LIMIT ?
	`, userID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Day
	for rows.Next() {
		var d Day
		if err := rows.Scan(
			&d.UserID, &d.Date, &d.RMSSDMean, &d.WristTempMean, &d.Estrogen,
			&d.PDG, &d.LH, &d.StressScoreMean, &d.OxygenRatioMean,
			&d.DayInStudy, &d.PredictedPhase, &d.Confidence,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// HasSufficientHistory reports whether the user has at least minDays entries.
func (db *DB) HasSufficientHistory(userID string, minDays int) (bool, error) {
	var count int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM user_days WHERE user_id = ?`, userID,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count history: %w", err)
	}
	return count >= minDays, nil
}

// DeleteUser removes every entry for the user and returns how many rows were
// deleted.
func (db *DB) DeleteUser(userID string) (int, error) {
	res, err := db.Exec(`DELETE FROM user_days WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// AllUsers returns the distinct user IDs with stored history.
func (db *DB) AllUsers() ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT user_id FROM user_days ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ExportUser writes the user's retained history as JSON to path.
func (db *DB) ExportUser(userID, path string) error {
	history, err := db.History(userID, 90)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history export: %w", err)
	}
	return nil
}

func (db *DB) cleanup(userID string, days int) error {
	_, err := db.Exec(`
		DELETE FROM user_days
		WHERE user_id = ?
		AND date < date('now', '-' || ? || ' days')
	`, userID, days)
	if err != nil {
		return fmt.Errorf("failed to trim old history: %w", err)
	}
	return nil
}

// CycleStats summarises a user's cycle from their stored predictions.
type CycleStats struct {
	DaysSinceMenstruation *int     `json:"days_since_menstruation,omitempty"`
	LastMenstrualDate     *string  `json:"last_menstrual_date,omitempty"`
	AverageCycleLength    *float64 `json:"average_cycle_length,omitempty"`
	CycleStd              *float64 `json:"cycle_std,omitempty"`
	IsRegular             *bool    `json:"is_regular,omitempty"`
	EstrogenTrend         string   `json:"estrogen_trend,omitempty"`
}

// Stats derives cycle analytics from up to 30 days of history. Fewer than 7
// stored days yields an empty result.
func (db *DB) Stats(userID string) (CycleStats, error) {
	var stats CycleStats
	history, err := db.History(userID, 30)
	if err != nil {
		return stats, err
	}
	if len(history) < 7 {
		return stats, nil
	}

	var menstrualDays []int
	for i, d := range history {
		if d.PredictedPhase != nil && *d.PredictedPhase == "Menstrual" {
			menstrualDays = append(menstrualDays, i)
		}
	}
	if len(menstrualDays) > 0 {
		last := menstrualDays[len(menstrualDays)-1]
		since := len(history) - last - 1
		stats.DaysSinceMenstruation = &since
		stats.LastMenstrualDate = &history[last].Date
	}
	if len(menstrualDays) >= 2 {
		gaps := make([]float64, len(menstrualDays)-1)
		for i := 1; i < len(menstrualDays); i++ {
			gaps[i-1] = float64(menstrualDays[i] - menstrualDays[i-1])
		}
		avg := stat.Mean(gaps, nil)
		sd := 0.0
		if len(gaps) >= 2 {
			sd = stat.StdDev(gaps, nil)
		}
		regular := sd < 3
		stats.AverageCycleLength = &avg
		stats.CycleStd = &sd
		stats.IsRegular = &regular
	}

	// Estrogen trend over the last week, by least-squares slope.
	var xs, ys []float64
	start := len(history) - 7
	if start < 0 {
		start = 0
	}
	for i, d := range history[start:] {
		if d.Estrogen != nil {
			xs = append(xs, float64(i))
			ys = append(ys, *d.Estrogen)
		}
	}
	if len(xs) >= 2 {
		_, slope := stat.LinearRegression(xs, ys, nil, false)
		if slope > 0 {
			stats.EstrogenTrend = "rising"
		} else {
			stats.EstrogenTrend = "falling"
		}
	}
	return stats, nil
}
