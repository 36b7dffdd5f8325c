package flow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/2beens/easyathlete/internal/flow"
)

func TestMachine_ConfirmPaymentIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.onboarded(t, false)

	changed, err := env.machine.ConfirmPayment(ctx, testProfileID, flow.PaymentMessageSuccess)
	require.NoError(t, err)
	assert.True(t, changed)

	before := env.snapshot(t)
	changed, err = env.machine.ConfirmPayment(ctx, testProfileID, flow.PaymentMessageSuccess)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, env.snapshot(t))
	assert.True(t, before.HasPaid)
}

func TestMachine_ConfirmPaymentUnknownMessage(t *testing.T) {
	env := newTestEnv(t)
	env.onboarded(t, false)

	changed, err := env.machine.ConfirmPayment(context.Background(), testProfileID, "stripe_payment_failed")
	assert.ErrorIs(t, err, flow.ErrUnknownPaymentSignal)
	assert.False(t, changed)
	assert.False(t, env.snapshot(t).HasPaid)
}

func TestMachine_BypassPayment(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("operator-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	env := newTestEnv(t, func(params *flow.NewMachineParams) {
		params.AdminSecretHash = string(hash)
	})
	ctx := context.Background()
	env.onboarded(t, false)

	for _, secret := range []string{"", "wrong"} {
		_, err = env.machine.BypassPayment(ctx, testProfileID, secret)
		assert.ErrorIs(t, err, flow.ErrForbidden)
	}
	assert.False(t, env.snapshot(t).HasPaid)

	changed, err := env.machine.BypassPayment(ctx, testProfileID, "operator-secret")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, env.snapshot(t).HasPaid)
}

func TestMachine_BypassPaymentNotConfigured(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.machine.BypassPayment(context.Background(), testProfileID, "anything")
	assert.ErrorIs(t, err, flow.ErrForbidden)
	assert.False(t, env.machine.AdminSecretValid("anything"))
}

func TestIsPaymentSuccess(t *testing.T) {
	assert.True(t, flow.IsPaymentSuccess(map[string][]string{"payment": {"success"}}))
	assert.False(t, flow.IsPaymentSuccess(map[string][]string{"payment": {"cancel"}}))
	assert.False(t, flow.IsPaymentSuccess(nil))
}
