package account

import (
	"context"
	"errors"
	"strings"
	"testing"

	"riff-review/internal/gateway"
	"riff-review/internal/models"
	"riff-review/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	err           error
	profile       *models.Profile
	notifications []models.Notification
	resets        []models.PasswordReset
	updates       []models.ProfileUpdate
}

func (f *fakeGateway) UpdateProfile(_ context.Context, _ string, update models.ProfileUpdate) (*models.Profile, error) {
	f.updates = append(f.updates, update)
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeGateway) Notifications(context.Context, string) ([]models.Notification, error) {
	return f.notifications, f.err
}

func (f *fakeGateway) ResetPassword(_ context.Context, req models.PasswordReset) error {
	f.resets = append(f.resets, req)
	return f.err
}

func (f *fakeGateway) Login(_ context.Context, username, _ string) (*gateway.LoginResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.LoginResult{Token: "tok-" + username, UserID: "u-" + username}, nil
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Fields
}

func TestUpdateProfileValidation(t *testing.T) {
	gw := &fakeGateway{profile: &models.Profile{UserID: "u1"}}
	svc := NewService(gw)
	ctx := context.Background()

	cases := []struct {
		name   string
		update models.ProfileUpdate
		field  string
	}{
		{"nickname missing", models.ProfileUpdate{Nickname: "   "}, "nickname"},
		{"nickname short", models.ProfileUpdate{Nickname: "a"}, "nickname"},
		{"nickname long", models.ProfileUpdate{Nickname: strings.Repeat("n", 21)}, "nickname"},
		{"bio long", models.ProfileUpdate{Nickname: "hana", Bio: strings.Repeat("b", 301)}, "bio"},
		{"avatar not url", models.ProfileUpdate{Nickname: "hana", AvatarURL: "not a url"}, "avatarUrl"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(ctx, "token", tc.update)
			assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
			assert.Contains(t, fieldsOf(t, err), tc.field)
		})
	}
	assert.Empty(t, gw.updates)

	profile, err := svc.UpdateProfile(ctx, "token", models.ProfileUpdate{Nickname: " hana ", AvatarURL: "https://cdn.test/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "u1", profile.UserID)
	require.Len(t, gw.updates, 1)
	assert.Equal(t, "hana", gw.updates[0].Nickname)
}

func TestUpdateProfileGatewayFailure(t *testing.T) {
	gw := &fakeGateway{err: errors.New("dial tcp: connection refused")}
	svc := NewService(gw)

	profile, err := svc.UpdateProfile(context.Background(), "token", models.ProfileUpdate{Nickname: "hana"})
	assert.Nil(t, profile)
	assert.True(t, utils.IsErrorCode(err, utils.ErrGateway))

	gw.err = utils.NewAppError(utils.ErrUnauthenticated, "Please sign in again.", nil)
	_, err = svc.UpdateProfile(context.Background(), "token", models.ProfileUpdate{Nickname: "hana"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrUnauthenticated))
}

func TestNotificationsNeverFail(t *testing.T) {
	gw := &fakeGateway{notifications: []models.Notification{{ID: "n1"}}}
	svc := NewService(gw)

	assert.Len(t, svc.Notifications(context.Background(), "token"), 1)

	gw.err = errors.New("boom")
	got := svc.Notifications(context.Background(), "token")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestResetPasswordValidation(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw)
	ctx := context.Background()

	cases := []struct {
		name  string
		req   models.PasswordReset
		field string
	}{
		{"token missing", models.PasswordReset{NewPassword: "abcdefg1", ConfirmPassword: "abcdefg1"}, "token"},
		{"too short", models.PasswordReset{Token: "t", NewPassword: "abc1", ConfirmPassword: "abc1"}, "newPassword"},
		{"too long", models.PasswordReset{Token: "t", NewPassword: strings.Repeat("a1", 33), ConfirmPassword: strings.Repeat("a1", 33)}, "newPassword"},
		{"no digit", models.PasswordReset{Token: "t", NewPassword: "abcdefgh", ConfirmPassword: "abcdefgh"}, "newPassword"},
		{"no letter", models.PasswordReset{Token: "t", NewPassword: "12345678", ConfirmPassword: "12345678"}, "newPassword"},
		{"mismatch", models.PasswordReset{Token: "t", NewPassword: "abcdefg1", ConfirmPassword: "abcdefg2"}, "confirmPassword"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.ResetPassword(ctx, tc.req)
			fields := fieldsOf(t, err)
			assert.Contains(t, fields, tc.field)
			assert.NotEmpty(t, fields[tc.field])
		})
	}
	assert.Empty(t, gw.resets)

	require.NoError(t, svc.ResetPassword(ctx, models.PasswordReset{Token: " t ", NewPassword: "abcdefg1", ConfirmPassword: "abcdefg1"}))
	require.Len(t, gw.resets, 1)
	assert.Equal(t, "t", gw.resets[0].Token)
}

func TestResetPasswordMessages(t *testing.T) {
	svc := NewService(&fakeGateway{})

	err := svc.ResetPassword(context.Background(), models.PasswordReset{Token: "t", NewPassword: "abcdefgh", ConfirmPassword: "abcdefgh"})
	assert.Equal(t, "newPassword must contain at least one letter and one digit", fieldsOf(t, err)["newPassword"])

	err = svc.ResetPassword(context.Background(), models.PasswordReset{Token: "t", NewPassword: "abcdefg1", ConfirmPassword: "abcdefg2"})
	assert.Equal(t, "confirmPassword must match newPassword", fieldsOf(t, err)["confirmPassword"])
}

func TestResetPasswordGatewayError(t *testing.T) {
	gw := &fakeGateway{err: utils.NewAppError(utils.ErrInvalidInput, "This reset link has expired.", nil)}
	svc := NewService(gw)

	err := svc.ResetPassword(context.Background(), models.PasswordReset{Token: "t", NewPassword: "abcdefg1", ConfirmPassword: "abcdefg1"})
	assert.Equal(t, "This reset link has expired.", utils.AsAppError(err).Message)
}

func TestLogin(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw)

	_, err := svc.Login(context.Background(), "  ", "pw")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))

	result, err := svc.Login(context.Background(), " hana ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-hana", result.Token)
}
