package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/koustreak/dbpool/internal/database/sqlbridge"
)

func TestWithBusyTimeout(t *testing.T) {
	attrs := sqlbridge.Attrs{ConnectionTimeout: 2 * time.Second}

	assert.Equal(t, "game.db?_pragma=busy_timeout(2000)", withBusyTimeout("game.db", attrs))
	assert.Equal(t, "file:game.db?mode=ro&_pragma=busy_timeout(2000)", withBusyTimeout("file:game.db?mode=ro", attrs))
	assert.Equal(t, "game.db?_pragma=busy_timeout(50)", withBusyTimeout("game.db?_pragma=busy_timeout(50)", attrs))
	assert.Equal(t, "game.db", withBusyTimeout("game.db", sqlbridge.Attrs{}))
}
