package model

import "time"

// ResetTokenTTL is how long an emailed reset link stays usable
const ResetTokenTTL = time.Hour

// IssueResetToken moves the user into the reset-requested state
func (u *User) IssueResetToken(token string, expires time.Time) {
	expires = expires.UTC()
	u.ResetPasswordToken = &token
	u.ResetPasswordExpires = &expires
}

// ClearResetToken clears both reset fields
func (u *User) ClearResetToken() {
	u.ResetPasswordToken = nil
	u.ResetPasswordExpires = nil
}

func (u *User) HasPendingReset() bool {
	return u.ResetPasswordToken != nil && u.ResetPasswordExpires != nil
}

// ResetTokenValid reports token == stored token and now < stored expiry.
// Unknown, wrong and expired tokens are indistinguishable to the caller.
func (u *User) ResetTokenValid(token string, now time.Time) bool {
	if !u.HasPendingReset() || token == "" {
		return false
	}
	return *u.ResetPasswordToken == token && now.Before(*u.ResetPasswordExpires)
}
