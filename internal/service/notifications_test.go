package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"digicoop/internal/domain"
	"digicoop/internal/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	sentTo string
	pin    string
	err    error
}

func (f *fakeTokens) SendToken(_ context.Context, to string) (*gateway.TokenSent, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sentTo = to
	return &gateway.TokenSent{PinID: "pin-1", To: to, SmsStatus: "Message Sent"}, nil
}

func (f *fakeTokens) VerifyToken(_ context.Context, pinID, pin string) (*gateway.TokenCheck, error) {
	if f.err != nil {
		return nil, f.err
	}
	verdict, _ := json.Marshal(pin == f.pin)
	return &gateway.TokenCheck{PinID: pinID, Status: verdict}, nil
}

func TestSendAndVerifyOtp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tokens := &fakeTokens{pin: "123456"}
	svc := NewNotificationService(env.db, tokens, env.log)
	m := env.member(t, "ada@example.com", "0")

	sent, err := svc.SendOtp(ctx, m.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "pin-1", sent.PinID)
	assert.Equal(t, "08030000000", tokens.sentTo, "falls back to the phone on record")

	_, err = svc.SendOtp(ctx, m.ID, " +2348031112222 ")
	require.NoError(t, err)
	assert.Equal(t, "+2348031112222", tokens.sentTo)

	res, err := svc.VerifyOtp(ctx, m.ID, "pin-1", "123456")
	require.NoError(t, err)
	assert.True(t, res.Verified)
	res, err = svc.VerifyOtp(ctx, m.ID, "pin-1", "000000")
	require.NoError(t, err)
	assert.False(t, res.Verified)

	assert.Empty(t, env.entries(t))
}

func TestOtpRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewNotificationService(env.db, &fakeTokens{}, env.log)

	_, err := svc.SendOtp(ctx, 404, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.SendOtp(ctx, 1, "0803-abc")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.VerifyOtp(ctx, 1, "pin-1", " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	down := NewNotificationService(env.db, &fakeTokens{err: errors.New("connection refused")}, env.log)
	_, err = down.SendOtp(ctx, 1, "08030000000")
	assert.ErrorIs(t, err, domain.ErrExternalService)
	_, err = down.VerifyOtp(ctx, 1, "pin-1", "123456")
	assert.ErrorIs(t, err, domain.ErrExternalService)
}
