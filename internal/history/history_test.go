package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(v float64) *float64 { return &v }

// addDays stores n consecutive days for the user ending today.
func addDays(t *testing.T, db *DB, userID string, n int, phase func(i int) string) {
	t.Helper()
	for i := 0; i < n; i++ {
		date := time.Now().AddDate(0, 0, -(n - 1 - i)).Format("2006-01-02")
		d := &Day{
			UserID:    userID,
			Date:      date,
			Estrogen:  ptr(100 + float64(i)*10),
			LH:        ptr(0.5),
			RMSSDMean: ptr(45),
		}
		if phase != nil {
			p := phase(i)
			d.PredictedPhase = &p
		}
		if err := db.AddDay(d); err != nil {
			t.Fatalf("AddDay %d failed: %v", i, err)
		}
	}
}

func TestAddDayAndHistoryChronological(t *testing.T) {
	db := setupTestDB(t)
	addDays(t, db, "u1", 3, nil)

	hist, err := db.History("u1", 21)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("expected 3 days, got %d", len(hist))
	}
	for i := 1; i < len(hist); i++ {
		if hist[i].Date <= hist[i-1].Date {
			t.Errorf("history not chronological: %s then %s", hist[i-1].Date, hist[i].Date)
		}
	}
	if hist[0].Estrogen == nil || *hist[0].Estrogen != 100 {
		t.Errorf("oldest day estrogen = %v, want 100", hist[0].Estrogen)
	}
}

func TestAddDayReplacesSameDate(t *testing.T) {
	db := setupTestDB(t)
	date := time.Now().Format("2006-01-02")

	if err := db.AddDay(&Day{UserID: "u1", Date: date, LH: ptr(0.2)}); err != nil {
		t.Fatalf("AddDay failed: %v", err)
	}
	if err := db.AddDay(&Day{UserID: "u1", Date: date, LH: ptr(0.9)}); err != nil {
		t.Fatalf("second AddDay failed: %v", err)
	}

	hist, err := db.History("u1", 21)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("expected 1 day after replace, got %d", len(hist))
	}
	if *hist[0].LH != 0.9 {
		t.Errorf("LH = %v, want the replacing value 0.9", *hist[0].LH)
	}
}

func TestAddDayValidation(t *testing.T) {
	db := setupTestDB(t)
	if err := db.AddDay(&Day{UserID: "", Date: "2026-01-01"}); err == nil {
		t.Error("expected error for empty user id")
	}
	if err := db.AddDay(&Day{UserID: "u1", Date: "Jan 1 2026"}); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestRetentionTrimsOldDays(t *testing.T) {
	db := setupTestDB(t)
	old := time.Now().AddDate(0, 0, -(RetentionDays + 10)).Format("2006-01-02")
	if err := db.AddDay(&Day{UserID: "u1", Date: old}); err != nil {
		t.Fatalf("AddDay(old) failed: %v", err)
	}
	// Adding a fresh day triggers the cleanup.
	if err := db.AddDay(&Day{UserID: "u1", Date: time.Now().Format("2006-01-02")}); err != nil {
		t.Fatalf("AddDay failed: %v", err)
	}

	hist, err := db.History("u1", 90)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hist) != 1 {
		t.Errorf("expected the stale day to be trimmed, got %d days", len(hist))
	}
}

func TestHasSufficientHistory(t *testing.T) {
	db := setupTestDB(t)
	addDays(t, db, "u1", 2, nil)

	ok, err := db.HasSufficientHistory("u1", 3)
	if err != nil {
		t.Fatalf("HasSufficientHistory failed: %v", err)
	}
	if ok {
		t.Error("2 days should not satisfy a 3-day minimum")
	}
	ok, err = db.HasSufficientHistory("u1", 2)
	if err != nil {
		t.Fatalf("HasSufficientHistory failed: %v", err)
	}
	if !ok {
		t.Error("2 days should satisfy a 2-day minimum")
	}
}

func TestDeleteUserRemovesOnlyThatUser(t *testing.T) {
	db := setupTestDB(t)
	addDays(t, db, "u1", 3, nil)
	addDays(t, db, "u2", 2, nil)

	n, err := db.DeleteUser("u1")
	if err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted %d rows, want 3", n)
	}
	users, err := db.AllUsers()
	if err != nil {
		t.Fatalf("AllUsers failed: %v", err)
	}
	if len(users) != 1 || users[0] != "u2" {
		t.Errorf("remaining users = %v, want [u2]", users)
	}
}

func TestExportUserWritesJSON(t *testing.T) {
	db := setupTestDB(t)
	addDays(t, db, "u1", 2, nil)

	path := filepath.Join(t.TempDir(), "export.json")
	if err := db.ExportUser("u1", path); err != nil {
		t.Fatalf("ExportUser failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("export file is empty")
	}
}

func TestStatsRequiresSevenDays(t *testing.T) {
	db := setupTestDB(t)
	addDays(t, db, "u1", 5, nil)

	stats, err := db.Stats("u1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.DaysSinceMenstruation != nil || stats.EstrogenTrend != "" {
		t.Errorf("stats should be empty below 7 days, got %+v", stats)
	}
}

func TestStatsCycleAnalytics(t *testing.T) {
	db := setupTestDB(t)
	// 10 days: menstrual on the 3rd and 8th (0-indexed 2 and 7).
	addDays(t, db, "u1", 10, func(i int) string {
		if i == 2 || i == 7 {
			return "Menstrual"
		}
		return "Follicular"
	})

	stats, err := db.Stats("u1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.DaysSinceMenstruation == nil || *stats.DaysSinceMenstruation != 2 {
		t.Errorf("DaysSinceMenstruation = %v, want 2", stats.DaysSinceMenstruation)
	}
	if stats.AverageCycleLength == nil || *stats.AverageCycleLength != 5 {
		t.Errorf("AverageCycleLength = %v, want 5", stats.AverageCycleLength)
	}
	if stats.IsRegular == nil || !*stats.IsRegular {
		t.Error("single observed gap should count as regular")
	}
	// Estrogen rises by 10 per day in the fixture.
	if stats.EstrogenTrend != "rising" {
		t.Errorf("EstrogenTrend = %q, want rising", stats.EstrogenTrend)
	}
}

func TestMigrateUpAndVersion(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	files := map[string]string{
		"000001_create_notes.up.sql":   `CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT);`,
		"000001_create_notes.down.sql": `DROP TABLE notes;`,
	}
	for name, sql := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
			t.Fatalf("writing migration: %v", err)
		}
	}

	if err := db.MigrateUp(dir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	version, dirty, err := db.MigrateVersion(dir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("version = %d dirty = %v, want 1, clean", version, dirty)
	}
	// Idempotent: a second run is a no-op.
	if err := db.MigrateUp(dir); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}

	if err := db.MigrateDown(dir); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='notes'`).Scan(&count)
	if err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	if count != 0 {
		t.Error("notes table should be gone after MigrateDown")
	}
}

func TestHistoryLimit(t *testing.T) {
	db := setupTestDB(t)
	addDays(t, db, "u1", 10, nil)

	hist, err := db.History("u1", 4)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hist) != 4 {
		t.Fatalf("expected 4 days, got %d", len(hist))
	}
	// The limit keeps the most recent days, returned oldest first.
	want := time.Now().AddDate(0, 0, -3).Format("2006-01-02")
	if hist[0].Date != want {
		t.Errorf("oldest returned day = %s, want %s", hist[0].Date, want)
	}
}
