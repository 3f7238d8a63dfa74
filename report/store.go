package report

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/swdee/go-zonecount/pipeline"
)

// schemaSQL creates the run, per frame count and summary tables
//
//go:embed schema.sql
var schemaSQL string

// Store persists counts to a SQLite database
type Store struct {
	*sql.DB
	runID string
}

// ZoneFrameCount is a stored per frame count of one zone
type ZoneFrameCount struct {
	Frame           int
	Zone            string
	CurrentlyInside int
	TotalSeen       int
	NewlySeen       []int
}

// OpenStore opens or creates the database at path and starts a run record.
// Use ":memory:" for a throw away database.
func OpenStore(path, runID, input string) (*Store, error) {

	db, err := sql.Open("sqlite", path)

	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// a single connection keeps an in memory database alive between calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating schema: %w", err)
	}

	_, err = db.Exec(`INSERT INTO zone_runs (run_id, input, started_unix_nanos) VALUES (?, ?, ?)`,
		runID, input, time.Now().UnixNano())

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error recording run: %w", err)
	}

	return &Store{DB: db, runID: runID}, nil
}

// Write stores one row per zone for the frame
func (s *Store) Write(res pipeline.FrameResult) error {

	tx, err := s.Begin()

	if err != nil {
		return err
	}

	stmt := `INSERT INTO zone_frame_counts (run_id, frame, zone, currently_inside, total_seen, newly_seen)
			 VALUES (?, ?, ?, ?, ?, ?)`

	for _, zc := range res.Zones {
		_, err := tx.Exec(stmt, s.runID, res.Frame, zc.Name, zc.CurrentlyInside,
			zc.TotalSeen, joinIDs(zc.NewlySeen))

		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error storing frame %d zone %s: %w", res.Frame, zc.Name, err)
		}
	}

	return tx.Commit()
}

// Finish records the run summary
func (s *Store) Finish(sum pipeline.Summary) error {

	tx, err := s.Begin()

	if err != nil {
		return err
	}

	_, err = tx.Exec(`UPDATE zone_runs SET finished_unix_nanos = ?, frames = ?, total_seen = ? WHERE run_id = ?`,
		time.Now().UnixNano(), sum.Frames, sum.TotalSeen, s.runID)

	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error finishing run: %w", err)
	}

	stmt := `INSERT OR REPLACE INTO zone_summaries (run_id, zone, total_seen, peak_occupancy, mean_occupancy)
			 VALUES (?, ?, ?, ?, ?)`

	for _, zs := range sum.Zones {
		if _, err := tx.Exec(stmt, s.runID, zs.Name, zs.TotalSeen, zs.PeakOccupancy, zs.MeanOccupancy); err != nil {
			tx.Rollback()
			return fmt.Errorf("error storing summary of zone %s: %w", zs.Name, err)
		}
	}

	return tx.Commit()
}

// FrameCounts returns the stored counts of a zone in frame order
func (s *Store) FrameCounts(zone string) ([]ZoneFrameCount, error) {

	rows, err := s.Query(`SELECT frame, zone, currently_inside, total_seen, newly_seen
		FROM zone_frame_counts WHERE run_id = ? AND zone = ? ORDER BY frame`, s.runID, zone)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ZoneFrameCount

	for rows.Next() {
		var c ZoneFrameCount
		var newly string

		if err := rows.Scan(&c.Frame, &c.Zone, &c.CurrentlyInside, &c.TotalSeen, &newly); err != nil {
			return nil, err
		}

		if c.NewlySeen, err = splitIDs(newly); err != nil {
			return nil, err
		}

		out = append(out, c)
	}

	return out, rows.Err()
}

// Summary returns the stored summary of the run
func (s *Store) Summary() (pipeline.Summary, error) {

	var sum pipeline.Summary
	var frames, total sql.NullInt64

	err := s.QueryRow(`SELECT frames, total_seen FROM zone_runs WHERE run_id = ?`, s.runID).
		Scan(&frames, &total)

	if err != nil {
		return sum, err
	}

	sum.Frames = int(frames.Int64)
	sum.TotalSeen = int(total.Int64)

	rows, err := s.Query(`SELECT zone, total_seen, peak_occupancy, mean_occupancy
		FROM zone_summaries WHERE run_id = ? ORDER BY rowid`, s.runID)

	if err != nil {
		return sum, err
	}
	defer rows.Close()

	for rows.Next() {
		var zs pipeline.ZoneSummary

		if err := rows.Scan(&zs.Name, &zs.TotalSeen, &zs.PeakOccupancy, &zs.MeanOccupancy); err != nil {
			return sum, err
		}

		sum.Zones = append(sum.Zones, zs)
	}

	return sum, rows.Err()
}

// joinIDs stores an id list as comma separated text
func joinIDs(ids []int) string {

	parts := make([]string, len(ids))

	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}

	return strings.Join(parts, ",")
}

func splitIDs(s string) ([]int, error) {

	ids := []int{}

	if s == "" {
		return ids, nil
	}

	for _, p := range strings.Split(s, ",") {
		id, err := strconv.Atoi(p)

		if err != nil {
			return nil, fmt.Errorf("bad stored id %q: %w", p, err)
		}

		ids = append(ids, id)
	}

	return ids, nil
}
