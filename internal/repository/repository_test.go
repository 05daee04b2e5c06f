package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialectFor(t *testing.T) {
	assert.Equal(t, DialectOracle, DialectFor("oracle"))
	assert.Equal(t, DialectSQLite, DialectFor("sqlite"))
	assert.Equal(t, DialectPostgres, DialectFor("pgx"))
	assert.Equal(t, DialectPostgres, DialectFor("sqlmock"))
}

func TestDialect_ForUpdate(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", DialectPostgres.ForUpdate())
	assert.Equal(t, " FOR UPDATE", DialectOracle.ForUpdate())
	assert.Equal(t, "", DialectSQLite.ForUpdate())
}

func TestDialect_Paginate(t *testing.T) {
	base := "SELECT id FROM users ORDER BY xp DESC"
	assert.Equal(t, base+" LIMIT 10", DialectPostgres.Paginate(base, 10, 0))
	assert.Equal(t, base+" LIMIT 10 OFFSET 20", DialectSQLite.Paginate(base, 10, 20))
	assert.Equal(t, base+" FETCH FIRST 10 ROWS ONLY", DialectOracle.Paginate(base, 10, 0))
	assert.Equal(t, base+" OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY", DialectOracle.Paginate(base, 10, 20))
}

func TestDialect_InsertIgnore(t *testing.T) {
	key := []string{"user_id", "badge"}
	cols := []string{"user_id", "badge", "awarded_at"}

	assert.Equal(t,
		"INSERT INTO user_badges (user_id, badge, awarded_at) VALUES (?, ?, ?) ON CONFLICT (user_id, badge) DO NOTHING",
		DialectPostgres.InsertIgnore("user_badges", key, cols))
	assert.Equal(t,
		"INSERT OR IGNORE INTO user_badges (user_id, badge, awarded_at) VALUES (?, ?, ?)",
		DialectSQLite.InsertIgnore("user_badges", key, cols))
	assert.Equal(t,
		"INSERT /*+ IGNORE_ROW_ON_DUPKEY_INDEX(user_badges(user_id, badge)) */ INTO user_badges (user_id, badge, awarded_at) VALUES (?, ?, ?)",
		DialectOracle.InsertIgnore("user_badges", key, cols))
}
