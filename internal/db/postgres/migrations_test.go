package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrations_Ordered(t *testing.T) {
	for i, m := range migrations {
		assert.Equal(t, i+1, m.version)
		assert.NotEmpty(t, m.sql)
	}
}

func TestMigrations_CoverRepositories(t *testing.T) {
	var all string
	for _, m := range migrations {
		all += m.sql
	}
	for _, table := range []string{"members", "ledger_snapshots", "admin_actions"} {
		assert.Contains(t, all, "CREATE TABLE IF NOT EXISTS "+table)
	}
}
