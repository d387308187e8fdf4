package postgres

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_DeclaresSharedTables(t *testing.T) {
	all := strings.Join(schema, "\n")
	for _, table := range []string{"epub_checks", "epub_check_diagnostics", "epub_check_errors", "epub_check_advice"} {
		assert.Contains(t, all, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}

func TestSchema_NoReservedColumnNames(t *testing.T) {
	bare := regexp.MustCompile(`(?m)^\s*usage\s`)
	for i, stmt := range schema {
		assert.False(t, bare.MatchString(stmt), "statement %d declares a bare usage column", i)
	}
	assert.Contains(t, schema[0], "usage_count")
	assert.Contains(t, schema[0], "usage_enabled")
}
