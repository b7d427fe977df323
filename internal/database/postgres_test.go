package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsOrder(t *testing.T) {
	reg, err := Migrations()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_daily_logs", "002_daily_logs_updated_at_index"}, reg.IDs())
	assert.Equal(t, "daily_logs", DailyLogRecord{}.TableName())
}
