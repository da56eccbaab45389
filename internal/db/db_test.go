package db

import (
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDB_MigratesModels(t *testing.T) {
	conn, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(conn)

	for _, m := range Models() {
		assert.True(t, conn.Migrator().HasTable(m))
	}
	assert.True(t, conn.Migrator().HasColumn(&model.User{}, "reset_password_token"))
	assert.True(t, conn.Migrator().HasColumn(&model.Store{}, "location_lng"))
}

func TestTruncateAllTables(t *testing.T) {
	conn, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(conn)

	require.NoError(t, conn.Create(&model.User{Email: "a@example.com", Name: "A", PasswordHash: "x"}).Error)
	require.NoError(t, TruncateAllTables(conn))

	var count int64
	require.NoError(t, conn.Model(&model.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
