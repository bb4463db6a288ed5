package service

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piteam/pi_api/internal/config"
	"github.com/piteam/pi_api/internal/models"
	"github.com/piteam/pi_api/internal/utils"
)

// Mock for SubscriptionStore
type mockSubscriptionStore struct {
	createFunc            func(sub *models.Subscription) error
	getByIDFunc           func(id string) (*models.Subscription, error)
	findPendingByCodeFunc func(id, email, code string) (*models.Subscription, error)
	findPendingFunc       func(id, email string) (*models.Subscription, error)
	findVerifiedFunc      func(email, subscriberNumber string) (*models.Subscription, error)
	markVerifiedFunc      func(id, subscriberNumber string, verifiedAt time.Time) (*models.Subscription, error)
	updateCodeFunc        func(id, code, expiresAt string) error
	subscriberExistsFunc  func(number string) (bool, error)
}

func (m *mockSubscriptionStore) Create(sub *models.Subscription) error {
	if m.createFunc != nil {
		return m.createFunc(sub)
	}
	sub.ID = "11111111-2222-4333-8444-555555555555"
	sub.CreatedAt = time.Now()
	return nil
}

func (m *mockSubscriptionStore) GetByID(id string) (*models.Subscription, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(id)
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubscriptionStore) FindPendingByCode(id, email, code string) (*models.Subscription, error) {
	if m.findPendingByCodeFunc != nil {
		return m.findPendingByCodeFunc(id, email, code)
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubscriptionStore) FindPending(id, email string) (*models.Subscription, error) {
	if m.findPendingFunc != nil {
		return m.findPendingFunc(id, email)
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubscriptionStore) FindVerified(email, subscriberNumber string) (*models.Subscription, error) {
	if m.findVerifiedFunc != nil {
		return m.findVerifiedFunc(email, subscriberNumber)
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubscriptionStore) MarkVerified(id, subscriberNumber string, verifiedAt time.Time) (*models.Subscription, error) {
	if m.markVerifiedFunc != nil {
		return m.markVerifiedFunc(id, subscriberNumber, verifiedAt)
	}
	return &models.Subscription{
		ID:               id,
		Status:           models.StatusVerified,
		SubscriberNumber: &subscriberNumber,
		VerifiedAt:       &verifiedAt,
	}, nil
}

func (m *mockSubscriptionStore) UpdateVerificationCode(id, code, expiresAt string) error {
	if m.updateCodeFunc != nil {
		return m.updateCodeFunc(id, code, expiresAt)
	}
	return nil
}

func (m *mockSubscriptionStore) SubscriberNumberExists(number string) (bool, error) {
	if m.subscriberExistsFunc != nil {
		return m.subscriberExistsFunc(number)
	}
	return false, nil
}

// Mock for Notifier
type mockNotifier struct {
	sent []string
	ok   bool
}

func (m *mockNotifier) SendVerificationCode(email, code string, subType models.SubscriptionType) bool {
	m.sent = append(m.sent, code)
	return m.ok
}

func newTestService(store SubscriptionStore, notifier Notifier) *SubscriptionService {
	return NewSubscriptionService(store, notifier, nil, &config.VerificationConfig{CodeTTL: 15 * time.Minute})
}

var codePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
var subscriberPattern = regexp.MustCompile(`^[1-9][0-9]{8}$`)

func brokerSubmit() *SubmitRequest {
	return &SubmitRequest{
		SubscriptionType:       models.TypeBroker,
		Email:                  "a@b.com",
		Phone:                  "0500000000",
		Name:                   "Dana",
		BrokerageLicenseNumber: "123",
		BrokerOfficeName:       "Acme",
	}
}

func TestSubmit_Broker(t *testing.T) {
	var stored *models.Subscription
	store := &mockSubscriptionStore{
		createFunc: func(sub *models.Subscription) error {
			sub.ID = "11111111-2222-4333-8444-555555555555"
			stored = sub
			return nil
		},
	}
	notifier := &mockNotifier{ok: true}
	svc := newTestService(store, notifier)

	result, err := svc.Submit(brokerSubmit())
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, models.TypeBroker, stored.SubscriptionType)
	assert.Equal(t, models.StatusPendingVerification, stored.Status)
	require.NotNil(t, stored.VerificationCode)
	assert.Regexp(t, codePattern, *stored.VerificationCode)
	assert.Equal(t, *stored.VerificationCode, result.VerificationCode)

	require.NotNil(t, stored.VerificationCodeExpires)
	expiresAt, perr := utils.ParseStoredUTC(*stored.VerificationCodeExpires)
	require.NoError(t, perr)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	require.NotNil(t, stored.Name)
	assert.Equal(t, "Dana", *stored.Name)
	// Broker office name doubles as the stored business name.
	require.NotNil(t, stored.BusinessName)
	assert.Equal(t, "Acme", *stored.BusinessName)

	assert.Equal(t, []string{result.VerificationCode}, notifier.sent)
}

func TestSubmit_NotifierFailureDoesNotFailSubmission(t *testing.T) {
	svc := newTestService(&mockSubscriptionStore{}, &mockNotifier{ok: false})

	result, err := svc.Submit(brokerSubmit())
	require.NoError(t, err)
	assert.NotEmpty(t, result.Subscription.ID)
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  *SubmitRequest
		ok   bool
	}{
		{"company_missing_office_phone", &SubmitRequest{
			SubscriptionType:  models.TypeCompany,
			BusinessName:      "Acme Ltd",
			ContactPersonName: "Noa",
			Email:             "c@d.com",
		}, false},
		{"company_complete", &SubmitRequest{
			SubscriptionType:  models.TypeCompany,
			BusinessName:      "Acme Ltd",
			ContactPersonName: "Noa",
			Email:             "c@d.com",
			OfficePhone:       "039999999",
		}, true},
		{"broker_missing_license", &SubmitRequest{
			SubscriptionType: models.TypeBroker,
			Email:            "a@b.com",
			Phone:            "0500000000",
			Name:             "Dana",
			BrokerOfficeName: "Acme",
		}, false},
		{"professional_business_name_only", &SubmitRequest{
			SubscriptionType: models.TypeProfessional,
			Email:            "p@q.com",
			Phone:            "0521111111",
			BusinessName:     "Pipes & Co",
		}, true},
		{"professional_no_name_at_all", &SubmitRequest{
			SubscriptionType: models.TypeProfessional,
			Email:            "p@q.com",
			Phone:            "0521111111",
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockSubscriptionStore{}, &mockNotifier{ok: true})
			_, err := svc.Submit(tt.req)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, utils.ErrValidation)
			}
		})
	}
}

func TestSubmit_CompanyNameAndPhoneResolution(t *testing.T) {
	var stored *models.Subscription
	store := &mockSubscriptionStore{
		createFunc: func(sub *models.Subscription) error {
			sub.ID = "id"
			stored = sub
			return nil
		},
	}
	svc := newTestService(store, &mockNotifier{ok: true})

	_, err := svc.Submit(&SubmitRequest{
		SubscriptionType:  models.TypeCompany,
		BusinessName:      "Acme Ltd",
		ContactPersonName: "Noa",
		Email:             "c@d.com",
		OfficePhone:       "039999999",
	})
	require.NoError(t, err)

	// Display name resolution order: name, agent name, business name,
	// contact person. Here businessName wins over contactPersonName.
	require.NotNil(t, stored.Name)
	assert.Equal(t, "Acme Ltd", *stored.Name)
	// Phone falls back to the office phone.
	require.NotNil(t, stored.Phone)
	assert.Equal(t, "039999999", *stored.Phone)
}

func pendingSubscription(code, expiresAt string) *models.Subscription {
	sub := &models.Subscription{
		ID:               "11111111-2222-4333-8444-555555555555",
		SubscriptionType: models.TypeBroker,
		Email:            "a@b.com",
		Status:           models.StatusPendingVerification,
		VerificationCode: &code,
	}
	if expiresAt != "" {
		sub.VerificationCodeExpires = &expiresAt
	}
	return sub
}

func TestVerify_Success(t *testing.T) {
	expires := utils.FormatStoredUTC(time.Now().Add(10 * time.Minute))
	store := &mockSubscriptionStore{
		findPendingByCodeFunc: func(id, email, code string) (*models.Subscription, error) {
			if email == "a@b.com" && code == "654321" {
				return pendingSubscription(code, expires), nil
			}
			return nil, sql.ErrNoRows
		},
	}
	svc := newTestService(store, &mockNotifier{ok: true})

	sub, err := svc.Verify(&VerifyRequest{Email: "a@b.com", VerificationCode: "654321"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusVerified, sub.Status)
	require.NotNil(t, sub.SubscriberNumber)
	assert.Regexp(t, subscriberPattern, *sub.SubscriberNumber)
	assert.NotNil(t, sub.VerifiedAt)
}

func TestVerify_WrongCodeIsOpaque(t *testing.T) {
	svc := newTestService(&mockSubscriptionStore{}, &mockNotifier{ok: true})

	// No pending record matches: wrong code, consumed code, and unknown
	// subscriber all collapse to the same category.
	_, err := svc.Verify(&VerifyRequest{Email: "a@b.com", VerificationCode: "000000"})
	assert.ErrorIs(t, err, utils.ErrInvalidCode)
}

func TestVerify_SecondAttemptFailsAfterConsumption(t *testing.T) {
	consumed := false
	expires := utils.FormatStoredUTC(time.Now().Add(10 * time.Minute))
	store := &mockSubscriptionStore{
		findPendingByCodeFunc: func(id, email, code string) (*models.Subscription, error) {
			if consumed {
				return nil, sql.ErrNoRows
			}
			return pendingSubscription(code, expires), nil
		},
		markVerifiedFunc: func(id, number string, at time.Time) (*models.Subscription, error) {
			consumed = true
			return &models.Subscription{ID: id, Status: models.StatusVerified, SubscriberNumber: &number, VerifiedAt: &at}, nil
		},
	}
	svc := newTestService(store, &mockNotifier{ok: true})

	_, err := svc.Verify(&VerifyRequest{Email: "a@b.com", VerificationCode: "654321"})
	require.NoError(t, err)

	_, err = svc.Verify(&VerifyRequest{Email: "a@b.com", VerificationCode: "654321"})
	assert.ErrorIs(t, err, utils.ErrInvalidCode)
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn time.Duration
		wantErr   error
	}{
		{"one_second_before_expiry", time.Second, nil},
		{"one_second_after_expiry", -time.Second, utils.ErrExpiredCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expires := utils.FormatStoredUTC(time.Now().Add(tt.expiresIn))
			store := &mockSubscriptionStore{
				findPendingByCodeFunc: func(id, email, code string) (*models.Subscription, error) {
					return pendingSubscription(code, expires), nil
				},
			}
			svc := newTestService(store, &mockNotifier{ok: true})

			_, err := svc.Verify(&VerifyRequest{Email: "a@b.com", VerificationCode: "654321"})
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestVerify_OffsetlessExpiryReadAsUTC(t *testing.T) {
	// A stored expiry without a zone suffix must behave exactly like the
	// same instant with an explicit "Z": here the instant is in the future,
	// so verification succeeds even though local time may be ahead of UTC.
	naked := time.Now().UTC().Add(10 * time.Minute).Format("2006-01-02T15:04:05")
	store := &mockSubscriptionStore{
		findPendingByCodeFunc: func(id, email, code string) (*models.Subscription, error) {
			return pendingSubscription(code, naked), nil
		},
	}
	svc := newTestService(store, &mockNotifier{ok: true})

	_, err := svc.Verify(&VerifyRequest{Email: "a@b.com", VerificationCode: "654321"})
	assert.NoError(t, err)

	// And a past offset-less instant is expired, not treated as local.
	nakedPast := time.Now().UTC().Add(-10 * time.Minute).Format("2006-01-02T15:04:05")
	store.findPendingByCodeFunc = func(id, email, code string) (*models.Subscription, error) {
		return pendingSubscription(code, nakedPast), nil
	}
	_, err = svc.Verify(&VerifyRequest{Email: "a@b.com", VerificationCode: "654321"})
	assert.ErrorIs(t, err, utils.ErrExpiredCode)
}

func TestVerify_MissingOrUnparseableExpiryAllows(t *testing.T) {
	for _, expiry := range []string{"", "garbage"} {
		store := &mockSubscriptionStore{
			findPendingByCodeFunc: func(id, email, code string) (*models.Subscription, error) {
				return pendingSubscription(code, expiry), nil
			},
		}
		svc := newTestService(store, &mockNotifier{ok: true})

		_, err := svc.Verify(&VerifyRequest{Email: "a@b.com", VerificationCode: "654321"})
		assert.NoError(t, err, "expiry %q should fail open", expiry)
	}
}

func TestVerify_MintRetriesPastCollisions(t *testing.T) {
	assigned := map[string]bool{}
	expires := utils.FormatStoredUTC(time.Now().Add(10 * time.Minute))
	collisions := 0
	store := &mockSubscriptionStore{
		findPendingByCodeFunc: func(id, email, code string) (*models.Subscription, error) {
			return pendingSubscription(code, expires), nil
		},
		subscriberExistsFunc: func(number string) (bool, error) {
			if collisions < 3 {
				collisions++
				return true, nil
			}
			return assigned[number], nil
		},
		markVerifiedFunc: func(id, number string, at time.Time) (*models.Subscription, error) {
			assigned[number] = true
			return &models.Subscription{ID: id, Status: models.StatusVerified, SubscriberNumber: &number}, nil
		},
	}
	svc := newTestService(store, &mockNotifier{ok: true})

	sub, err := svc.Verify(&VerifyRequest{Email: "a@b.com", VerificationCode: "654321"})
	require.NoError(t, err)
	assert.Equal(t, 3, collisions)
	assert.True(t, assigned[*sub.SubscriberNumber])
}

func TestVerify_RequiresCodeAndIdentity(t *testing.T) {
	svc := newTestService(&mockSubscriptionStore{}, &mockNotifier{ok: true})

	_, err := svc.Verify(&VerifyRequest{Email: "a@b.com"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.Verify(&VerifyRequest{VerificationCode: "654321"})
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestResend_IssuesFreshCodeAndExpiry(t *testing.T) {
	oldCode := "111111"
	oldExpiry := utils.FormatStoredUTC(time.Now().Add(2 * time.Minute))
	var newCode, newExpiry string
	store := &mockSubscriptionStore{
		findPendingFunc: func(id, email string) (*models.Subscription, error) {
			return pendingSubscription(oldCode, oldExpiry), nil
		},
		updateCodeFunc: func(id, code, expiresAt string) error {
			newCode, newExpiry = code, expiresAt
			return nil
		},
	}
	notifier := &mockNotifier{ok: true}
	svc := newTestService(store, notifier)

	result, err := svc.Resend(&ResendRequest{Email: "a@b.com"})
	require.NoError(t, err)

	assert.Regexp(t, codePattern, newCode)
	assert.NotEqual(t, oldCode, newCode)
	assert.Equal(t, newCode, result.VerificationCode)

	oldAt, _ := utils.ParseStoredUTC(oldExpiry)
	newAt, perr := utils.ParseStoredUTC(newExpiry)
	require.NoError(t, perr)
	assert.True(t, newAt.After(oldAt), "new expiry must be strictly later")

	assert.Equal(t, []string{newCode}, notifier.sent)
}

func TestResend_NotFound(t *testing.T) {
	svc := newTestService(&mockSubscriptionStore{}, &mockNotifier{ok: true})

	_, err := svc.Resend(&ResendRequest{Email: "nobody@b.com"})
	assert.ErrorIs(t, err, utils.ErrSubscriptionNotFound)
}

func TestGetCurrent_RequiresIdentity(t *testing.T) {
	svc := newTestService(&mockSubscriptionStore{}, &mockNotifier{ok: true})

	_, err := svc.GetCurrent(context.Background(), "", "")
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestGetCurrent_VerifiedOnly(t *testing.T) {
	number := "987654321"
	store := &mockSubscriptionStore{
		findVerifiedFunc: func(email, subscriberNumber string) (*models.Subscription, error) {
			if subscriberNumber == number {
				return &models.Subscription{ID: "id", Status: models.StatusVerified, SubscriberNumber: &number}, nil
			}
			return nil, sql.ErrNoRows
		},
	}
	svc := newTestService(store, &mockNotifier{ok: true})

	sub, err := svc.GetCurrent(context.Background(), "", number)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, sub.Status)

	_, err = svc.GetCurrent(context.Background(), "pending@b.com", "")
	assert.ErrorIs(t, err, utils.ErrUserNotFound)
}
