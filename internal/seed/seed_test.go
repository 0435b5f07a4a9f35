package seed_test

import (
	"testing"

	"github.com/smallbiznis/campusswap/internal/migration/migrationtest"
	"github.com/smallbiznis/campusswap/internal/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureHarnessFixturesIsRerunnable(t *testing.T) {
	conn := migrationtest.Open(t)

	require.NoError(t, seed.EnsureHarnessFixtures(conn))
	require.NoError(t, seed.EnsureHarnessFixtures(conn))

	var orders int64
	require.NoError(t, conn.Table("orders").Count(&orders).Error)
	assert.Equal(t, int64(2), orders)

	var status string
	require.NoError(t, conn.Raw(`SELECT status FROM orders WHERE id = ?`, seed.HarnessSuccessOrderID).Scan(&status).Error)
	assert.Equal(t, "PENDING_PAYMENT", status)
}

func TestEnsureHarnessFixturesRequiresHandle(t *testing.T) {
	assert.Error(t, seed.EnsureHarnessFixtures(nil))
}
