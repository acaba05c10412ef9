package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSeedTestData(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(Models()...))

	require.NoError(t, SeedTestData(gdb))

	var users, edges, msgs int64
	require.NoError(t, gdb.Model(&User{}).Count(&users).Error)
	require.NoError(t, gdb.Model(&LikeEdge{}).Count(&edges).Error)
	require.NoError(t, gdb.Model(&Message{}).Count(&msgs).Error)
	assert.Equal(t, int64(5), users)
	assert.Equal(t, int64(5), edges)
	assert.Equal(t, int64(3), msgs)

	// every persona takes part in the like web
	for _, email := range []string{"sarah@example.com", "michael@example.com", "emma@example.com", "james@example.com", "olivia@example.com"} {
		var u User
		require.NoError(t, gdb.Where("email = ?", email).First(&u).Error)
		var involved int64
		require.NoError(t, gdb.Model(&LikeEdge{}).
			Where("from_id = ? OR to_id = ?", u.ID, u.ID).
			Count(&involved).Error)
		assert.Positive(t, involved, "seed user %s has no like edges", email)
	}

	// reseeding clears and repopulates rather than duplicating
	require.NoError(t, SeedTestData(gdb))
	require.NoError(t, gdb.Model(&User{}).Count(&users).Error)
	assert.Equal(t, int64(5), users)
}
