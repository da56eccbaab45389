package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/pkg/mailer"
	appredis "github.com/ikkim/storefront-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func setupTokenStore(t *testing.T) *appredis.TokenStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return appredis.NewTokenStore(client)
}

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

// fakeClock is a settable time source
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func createUser(t *testing.T, testDB *gorm.DB, email, password string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: "Test User", Role: model.RoleUser}
	require.NoError(t, user.SetPassword(password))
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func reloadUser(t *testing.T, testDB *gorm.DB, id uint) *model.User {
	t.Helper()
	var u model.User
	require.NoError(t, testDB.First(&u, id).Error)
	return &u
}
