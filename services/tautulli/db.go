package tautulli

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"medialens/models"
)

// historyQuery is one candidate against the foreign Tautulli schema. The
// fallback chain is data, not branches: queries run in order and the first one
// returning rows wins.
type historyQuery struct {
	name string
	sql  string
}

var historyQueries = []historyQuery{
	{
		name: "session_history joined with metadata",
		sql: `SELECT sh.started AS date, sh.stopped AS stopped,
		             shm.title AS title, shm.grandparent_title AS grandparent_title,
		             shm.media_type AS media_type, shm.year AS year, shm.thumb AS thumb
		      FROM session_history sh
		      JOIN session_history_metadata shm ON shm.id = sh.id
		      ORDER BY sh.started DESC LIMIT ?`,
	},
	{
		name: "session_history only",
		sql: `SELECT started AS date, stopped, full_title AS title, media_type
		      FROM session_history
		      ORDER BY started DESC LIMIT ?`,
	},
	{
		name: "sessions table",
		sql: `SELECT date, title, media_type
		      FROM sessions
		      ORDER BY date DESC LIMIT ?`,
	},
}

// dbHistory walks the fallback chain against the read-only database. It never
// returns an error: on exhaustion the rows are empty and reason explains what
// was tried, so the request path can degrade instead of failing.
func (c *Client) dbHistory(limit int) ([]models.RawRecord, string) {
	db, err := sql.Open("sqlite3", "file:"+c.dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Sprintf("open database %s: %v", c.dbPath, err)
	}
	defer db.Close()

	var attempts []string
	for _, q := range historyQueries {
		recs, err := runQuery(db, q.sql, limit)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", q.name, err))
			continue
		}
		if len(recs) == 0 {
			attempts = append(attempts, fmt.Sprintf("%s: no rows", q.name))
			continue
		}
		return recs, ""
	}
	return nil, "all queries failed (" + strings.Join(attempts, "; ") + ")"
}

// runQuery scans arbitrary columns into raw records, keyed by column name, so
// the extractor can resolve them like any other upstream shape.
func runQuery(db *sql.DB, query string, limit int) ([]models.RawRecord, error) {
	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var recs []models.RawRecord
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(models.RawRecord, len(cols))
		for i, col := range cols {
			rec[col] = normalizeDBValue(values[i])
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func normalizeDBValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
