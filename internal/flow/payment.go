package flow

import (
	"context"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/easyathlete/internal/session"
	"github.com/2beens/easyathlete/pkg"
)

type PaymentSource string

const (
	PaymentSourceQuery   PaymentSource = "query"
	PaymentSourceMessage PaymentSource = "message"
	PaymentSourceBypass  PaymentSource = "bypass"

	PaymentQueryParam     = "payment"
	PaymentQuerySuccess   = "success"
	PaymentMessageSuccess = "stripe_payment_success"
)

// IsPaymentSuccess reports whether a page query carries the checkout
// success marker.
func IsPaymentSuccess(query url.Values) bool {
	return query.Get(PaymentQueryParam) == PaymentQuerySuccess
}

// ConfirmPayment handles the success message posted by the checkout window.
// Confirming an already paid session changes nothing.
func (m *Machine) ConfirmPayment(ctx context.Context, profileID, message string) (bool, error) {
	if message != PaymentMessageSuccess {
		log.Warnf("profile [%s]: unrecognized payment message [%s]", profileID, message)
		return false, ErrUnknownPaymentSignal
	}

	unlock := m.locks.Lock(profileID)
	defer unlock()

	return m.markPaid(ctx, m.profile(profileID), PaymentSourceMessage)
}

// BypassPayment marks the session as paid for operators knowing the admin
// secret.
func (m *Machine) BypassPayment(ctx context.Context, profileID, secret string) (bool, error) {
	if !m.adminSecretValid(secret) {
		log.Warnf("profile [%s]: payment bypass with invalid secret", profileID)
		return false, ErrForbidden
	}

	unlock := m.locks.Lock(profileID)
	defer unlock()

	return m.markPaid(ctx, m.profile(profileID), PaymentSourceBypass)
}

// markPaid must be called with the profile lock held.
func (m *Machine) markPaid(ctx context.Context, profile *session.Profile, source PaymentSource) (bool, error) {
	changed, err := profile.SetPaid(ctx)
	if err != nil {
		return false, err
	}
	if changed {
		m.metricsManager.CounterPaymentConfirmed.WithLabelValues(string(source)).Inc()
		log.Infof("profile [%s]: payment confirmed via %s", profile.ID(), source)
	}
	return changed, nil
}

func (m *Machine) adminSecretValid(secret string) bool {
	if m.adminSecretHash == "" || secret == "" {
		return false
	}
	return pkg.CheckPasswordHash(secret, m.adminSecretHash)
}
