package state

import (
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/llehouerou/nowplaying/internal/db"
)

// ErrUnknownSource is returned when a source has never been seen.
var ErrUnknownSource = errors.New("unknown source")

// Source is a media application that has reported a session.
type Source struct {
	Name      string // e.g. "spotify"
	Enabled   bool
	FirstSeen time.Time
}

// RegisterSource records name if it is new and returns whether it is enabled.
// New sources start as defaultEnabled.
func (m *Manager) RegisterSource(name string, defaultEnabled bool) (bool, error) {
	return registerSource(m.db, name, defaultEnabled, time.Now())
}

// Sources lists all known sources ordered by name.
func (m *Manager) Sources() ([]Source, error) {
	return listSources(m.db)
}

// SetSourceEnabled enables or disables a known source.
func (m *Manager) SetSourceEnabled(name string, enabled bool) error {
	res, err := m.db.Exec(`UPDATE sources SET enabled = ? WHERE name = ?`, enabled, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUnknownSource
	}
	return nil
}

// ClearSources forgets all sources and returns how many were removed.
func (m *Manager) ClearSources() (int64, error) {
	res, err := m.db.Exec(`DELETE FROM sources`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func registerSource(db *sql.DB, name string, defaultEnabled bool, now time.Time) (bool, error) {
	var enabled bool
	err := dbutil.WithTx(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO sources (name, enabled, first_seen)
			VALUES (?, ?, ?)
		`, name, defaultEnabled, now.Unix()); err != nil {
			return err
		}
		return tx.QueryRow(`SELECT enabled FROM sources WHERE name = ?`, name).Scan(&enabled)
	})
	return enabled, err
}

func listSources(db *sql.DB) ([]Source, error) {
	rows, err := db.Query(`
		SELECT name, enabled, first_seen
		FROM sources ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		var s Source
		var firstSeen int64
		if err := rows.Scan(&s.Name, &s.Enabled, &firstSeen); err != nil {
			return nil, err
		}
		s.FirstSeen = dbutil.UnixTime(firstSeen)
		out = append(out, s)
	}
	return out, rows.Err()
}
