package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testBaseURL = "http://localhost:7777"

type resetFixture struct {
	db     *gorm.DB
	svc    PasswordResetService
	mailer *fakeMailer
	clock  *fakeClock
	user   *model.User
}

func setupPasswordResetTest(t *testing.T) *resetFixture {
	testDB := setupTestDB(t)
	f := &resetFixture{
		db:     testDB,
		mailer: &fakeMailer{},
		clock:  &fakeClock{now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)},
		user:   createUser(t, testDB, "wes@example.com", "old-password"),
	}
	f.svc = NewPasswordResetService(
		repository.NewUserRepository(testDB),
		repository.NewPasswordResetRepository(testDB),
		f.mailer,
		WithClock(f.clock.Now),
	)
	return f
}

// requestToken runs a successful forgot request and returns the issued token
func (f *resetFixture) requestToken(t *testing.T) string {
	t.Helper()
	require.NoError(t, f.svc.RequestReset(context.Background(), f.user.Email, testBaseURL))
	u := reloadUser(t, f.db, f.user.ID)
	require.NotNil(t, u.ResetPasswordToken)
	return *u.ResetPasswordToken
}

func TestPasswordResetService_RequestReset(t *testing.T) {
	f := setupPasswordResetTest(t)

	require.NoError(t, f.svc.RequestReset(context.Background(), "WES@example.com ", testBaseURL))

	u := reloadUser(t, f.db, f.user.ID)
	require.True(t, u.HasPendingReset())
	assert.Len(t, *u.ResetPasswordToken, 40)
	assert.True(t, f.clock.now.Add(time.Hour).Equal(*u.ResetPasswordExpires))

	require.Len(t, f.mailer.sent, 1)
	msg := f.mailer.sent[0]
	assert.Equal(t, "wes@example.com", msg.To)
	assert.Equal(t, "Password Reset", msg.Subject)
	assert.Equal(t, "password-reset", msg.Template)
	assert.Equal(t, testBaseURL+"/account/reset/"+*u.ResetPasswordToken, msg.ResetURL)
}

func TestPasswordResetService_RequestReset_UnknownEmail(t *testing.T) {
	f := setupPasswordResetTest(t)

	err := f.svc.RequestReset(context.Background(), "nobody@example.com", testBaseURL)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	assert.Empty(t, f.mailer.sent)
	assert.False(t, reloadUser(t, f.db, f.user.ID).HasPendingReset())
}

func TestPasswordResetService_RequestReset_ReplacesEarlierToken(t *testing.T) {
	f := setupPasswordResetTest(t)

	first := f.requestToken(t)
	f.clock.Advance(10 * time.Minute)
	second := f.requestToken(t)
	assert.NotEqual(t, first, second)

	_, err := f.svc.ValidateToken(context.Background(), first)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	_, err = f.svc.ValidateToken(context.Background(), second)
	assert.NoError(t, err)
}

func TestPasswordResetService_RequestReset_MailFailureWithdrawsToken(t *testing.T) {
	f := setupPasswordResetTest(t)
	f.mailer.err = errors.New("smtp down")

	err := f.svc.RequestReset(context.Background(), f.user.Email, testBaseURL)
	assert.ErrorIs(t, err, ErrMailDispatch)

	require.Len(t, f.mailer.sent, 1)
	u := reloadUser(t, f.db, f.user.ID)
	assert.False(t, u.HasPendingReset())
	assert.Nil(t, u.ResetPasswordToken)
	assert.Nil(t, u.ResetPasswordExpires)

	// the emailed link is unusable
	token := strings.TrimPrefix(f.mailer.sent[0].ResetURL, testBaseURL+"/account/reset/")
	_, err = f.svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestPasswordResetService_RequestReset_TokenGeneratorFailure(t *testing.T) {
	f := setupPasswordResetTest(t)
	svc := NewPasswordResetService(
		repository.NewUserRepository(f.db),
		repository.NewPasswordResetRepository(f.db),
		f.mailer,
		WithTokenGenerator(func() (string, error) { return "", errors.New("no entropy") }),
	)

	assert.Error(t, svc.RequestReset(context.Background(), f.user.Email, testBaseURL))
	assert.Empty(t, f.mailer.sent)
	assert.False(t, reloadUser(t, f.db, f.user.ID).HasPendingReset())
}

func TestPasswordResetService_ValidateToken(t *testing.T) {
	f := setupPasswordResetTest(t)
	token := f.requestToken(t)
	issued := f.clock.now

	tests := []struct {
		name    string
		token   string
		at      time.Time
		wantErr error
	}{
		{name: "Fresh token", token: token, at: issued},
		{name: "One second before expiry", token: token, at: issued.Add(time.Hour - time.Second)},
		{name: "At expiry", token: token, at: issued.Add(time.Hour), wantErr: ErrInvalidOrExpiredToken},
		{name: "After expiry", token: token, at: issued.Add(2 * time.Hour), wantErr: ErrInvalidOrExpiredToken},
		{name: "Unknown token", token: strings.Repeat("0", 40), at: issued, wantErr: ErrInvalidOrExpiredToken},
		{name: "Empty token", token: "", at: issued, wantErr: ErrInvalidOrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.clock.now = tt.at
			user, err := f.svc.ValidateToken(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, f.user.ID, user.ID)
		})
	}
}

func TestPasswordResetService_ResetPassword(t *testing.T) {
	f := setupPasswordResetTest(t)
	token := f.requestToken(t)
	f.clock.Advance(30 * time.Minute)

	user, err := f.svc.ResetPassword(context.Background(), token, "new-password", "new-password")
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, user.ID)
	assert.False(t, user.HasPendingReset())

	stored := reloadUser(t, f.db, f.user.ID)
	assert.True(t, stored.CheckPassword("new-password"))
	assert.False(t, stored.CheckPassword("old-password"))
	assert.Nil(t, stored.ResetPasswordToken)
	assert.Nil(t, stored.ResetPasswordExpires)

	// single use
	_, err = f.svc.ResetPassword(context.Background(), token, "again-password", "again-password")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	assert.True(t, reloadUser(t, f.db, f.user.ID).CheckPassword("new-password"))
}

func TestPasswordResetService_ResetPassword_Mismatch(t *testing.T) {
	f := setupPasswordResetTest(t)
	token := f.requestToken(t)
	before := reloadUser(t, f.db, f.user.ID)

	_, err := f.svc.ResetPassword(context.Background(), token, "new-password", "other-password")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	after := reloadUser(t, f.db, f.user.ID)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	require.True(t, after.HasPendingReset())
	assert.Equal(t, token, *after.ResetPasswordToken)
	assert.True(t, before.ResetPasswordExpires.Equal(*after.ResetPasswordExpires))

	// the user may retry with the same link
	_, err = f.svc.ResetPassword(context.Background(), token, "new-password", "new-password")
	assert.NoError(t, err)
}

func TestPasswordResetService_ResetPassword_MismatchCheckedBeforeToken(t *testing.T) {
	f := setupPasswordResetTest(t)

	_, err := f.svc.ResetPassword(context.Background(), "not-a-token", "a", "b")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestPasswordResetService_ResetPassword_Expired(t *testing.T) {
	f := setupPasswordResetTest(t)
	token := f.requestToken(t)
	before := reloadUser(t, f.db, f.user.ID)
	f.clock.Advance(time.Hour + time.Second)

	_, err := f.svc.ResetPassword(context.Background(), token, "new-password", "new-password")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	after := reloadUser(t, f.db, f.user.ID)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Equal(t, token, *after.ResetPasswordToken)
}

func TestPasswordResetService_ResetPassword_ExpiresBeforeCommit(t *testing.T) {
	f := setupPasswordResetTest(t)
	token := f.requestToken(t)
	before := reloadUser(t, f.db, f.user.ID)

	// the guard passes, then the clock crosses the expiry before the commit
	issued := f.clock.now
	calls := 0
	svc := NewPasswordResetService(
		repository.NewUserRepository(f.db),
		repository.NewPasswordResetRepository(f.db),
		f.mailer,
		WithClock(func() time.Time {
			calls++
			if calls == 1 {
				return issued.Add(59 * time.Minute)
			}
			return issued.Add(61 * time.Minute)
		}),
	)

	_, err := svc.ResetPassword(context.Background(), token, "new-password", "new-password")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	assert.Equal(t, before.PasswordHash, reloadUser(t, f.db, f.user.ID).PasswordHash)
}

func TestPasswordResetService_SweepExpired(t *testing.T) {
	f := setupPasswordResetTest(t)
	f.requestToken(t)

	n, err := f.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, reloadUser(t, f.db, f.user.ID).HasPendingReset())

	f.clock.Advance(2 * time.Hour)
	n, err = f.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, reloadUser(t, f.db, f.user.ID).HasPendingReset())
}
