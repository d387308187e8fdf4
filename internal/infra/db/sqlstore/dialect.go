// Package sqlstore holds the database/sql repositories shared by the
// mysql, postgres and sqlite drivers. Queries are written with `?`
// placeholders and rebound per dialect.
package sqlstore

import (
	"strconv"
	"strings"
)

type Dialect struct {
	Name string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
	// ON DUPLICATE KEY UPDATE instead of ON CONFLICT
	duplicateKey bool
}

var (
	MySQL    = Dialect{Name: "mysql", duplicateKey: true}
	Postgres = Dialect{Name: "postgres", numbered: true}
	SQLite   = Dialect{Name: "sqlite3"}
)

func (d Dialect) rebind(q string) string {
	if !d.numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// upsert builds the conflict clause that refreshes cols on key collision.
func (d Dialect) upsert(key string, cols ...string) string {
	set := make([]string, len(cols))
	for i, c := range cols {
		if d.duplicateKey {
			set[i] = c + "=VALUES(" + c + ")"
		} else {
			set[i] = c + "=excluded." + c
		}
	}
	if d.duplicateKey {
		return "ON DUPLICATE KEY UPDATE " + strings.Join(set, ", ")
	}
	return "ON CONFLICT (" + key + ") DO UPDATE SET " + strings.Join(set, ", ")
}
