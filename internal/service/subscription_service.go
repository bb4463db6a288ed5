package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/piteam/pi_api/internal/config"
	"github.com/piteam/pi_api/internal/models"
	"github.com/piteam/pi_api/internal/utils"
)

// Maximum random draws before subscriber-number minting degrades to the
// timestamp fallback.
const maxMintAttempts = 10

// SubscriptionStore is the record-store surface the verification engine needs.
type SubscriptionStore interface {
	Create(sub *models.Subscription) error
	GetByID(id string) (*models.Subscription, error)
	FindPendingByCode(id, email, code string) (*models.Subscription, error)
	FindPending(id, email string) (*models.Subscription, error)
	FindVerified(email, subscriberNumber string) (*models.Subscription, error)
	MarkVerified(id, subscriberNumber string, verifiedAt time.Time) (*models.Subscription, error)
	UpdateVerificationCode(id, code, expiresAt string) error
	SubscriberNumberExists(number string) (bool, error)
}

// SubscriberCacher caches verified subscription lookups. May be nil.
type SubscriberCacher interface {
	Get(ctx context.Context, email, subscriberNumber string) *models.Subscription
	Set(ctx context.Context, sub *models.Subscription)
}

// SubscriptionService owns the subscription verification lifecycle: submission,
// code issuance, verification, resend, and subscriber-number assignment.
type SubscriptionService struct {
	store    SubscriptionStore
	notifier Notifier
	cache    SubscriberCacher
	codeTTL  time.Duration
}

// NewSubscriptionService constructs a SubscriptionService.
func NewSubscriptionService(store SubscriptionStore, notifier Notifier, cache SubscriberCacher, cfg *config.VerificationConfig) *SubscriptionService {
	return &SubscriptionService{
		store:    store,
		notifier: notifier,
		cache:    cache,
		codeTTL:  cfg.CodeTTL,
	}
}

// SubmitRequest carries the type-dependent subscription form fields. Media
// URLs are resolved by the caller before submission since they are columns on
// the subscription row.
type SubmitRequest struct {
	SubscriptionType       models.SubscriptionType
	Email                  string
	Phone                  string
	Name                   string
	AgentName              string
	BusinessName           string
	BusinessAddress        string
	BrokerageLicenseNumber string
	BrokerOfficeName       string
	DealerNumber           string
	CompanyID              string
	ContactPersonName      string
	OfficePhone            string
	MobilePhone            string
	CompanyWebsite         string
	Description            string
	Types                  []string
	Specializations        []string
	ActivityRegions        []string
	AgreedToTerms          bool

	ProfilePictureURL   string
	AdditionalImageURLs []string
	CompanyLogoURL      string
	VideoURL            string
}

// SubmitResult is the outcome of a successful submission. VerificationCode is
// populated so the handler can optionally echo it in debug builds.
type SubmitResult struct {
	Subscription     *models.Subscription
	VerificationCode string
}

// Submit validates the type-dependent required fields, issues a verification
// code with a fresh expiry, persists the pending record, and attempts to
// notify the subscriber. Notification failure never fails the submission.
func (s *SubscriptionService) Submit(req *SubmitRequest) (*SubmitResult, error) {
	if err := validateSubmit(req); err != nil {
		return nil, err
	}

	code, err := utils.GenerateVerificationCode()
	if err != nil {
		return nil, err
	}
	expiresAt := utils.FormatStoredUTC(time.Now().Add(s.codeTTL))

	sub := &models.Subscription{
		SubscriptionType:        req.SubscriptionType,
		Email:                   req.Email,
		Phone:                   optional(firstNonEmpty(req.Phone, req.OfficePhone)),
		Name:                    optional(firstNonEmpty(req.Name, req.AgentName, req.BusinessName, req.ContactPersonName)),
		BusinessName:            optional(firstNonEmpty(req.BusinessName, req.BrokerOfficeName)),
		BusinessAddress:         optional(req.BusinessAddress),
		BrokerageLicenseNumber:  optional(req.BrokerageLicenseNumber),
		BrokerOfficeName:        optional(req.BrokerOfficeName),
		DealerNumber:            optional(req.DealerNumber),
		CompanyID:               optional(req.CompanyID),
		ContactPersonName:       optional(req.ContactPersonName),
		OfficePhone:             optional(req.OfficePhone),
		MobilePhone:             optional(req.MobilePhone),
		CompanyWebsite:          optional(req.CompanyWebsite),
		Description:             optional(req.Description),
		Types:                   marshalList(req.Types),
		Specializations:         marshalList(req.Specializations),
		ActivityRegions:         marshalList(req.ActivityRegions),
		ProfilePictureURL:       optional(req.ProfilePictureURL),
		AdditionalImagesURLs:    marshalList(req.AdditionalImageURLs),
		CompanyLogoURL:          optional(req.CompanyLogoURL),
		VideoURL:                optional(req.VideoURL),
		VerificationCode:        &code,
		VerificationCodeExpires: &expiresAt,
		AgreedToTerms:           req.AgreedToTerms,
		Status:                  models.StatusPendingVerification,
	}

	if err := s.store.Create(sub); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	if !s.notifier.SendVerificationCode(sub.Email, code, sub.SubscriptionType) {
		log.Warn().Str("subscription_id", sub.ID).Msg("verification code not delivered")
	}

	return &SubmitResult{Subscription: sub, VerificationCode: code}, nil
}

// VerifyRequest identifies a pending subscription by id (preferred) or email
// and carries the code to check.
type VerifyRequest struct {
	SubscriptionID   string `json:"subscriptionId"`
	Email            string `json:"email"`
	VerificationCode string `json:"verificationCode"`
}

// Verify checks the code against the pending record, enforces expiry, mints a
// unique subscriber number, and transitions the record to verified.
//
// Lookup misses, wrong codes, and already-consumed codes are all reported as
// the same invalid-code category so callers cannot enumerate subscribers; the
// finer distinction is only logged.
func (s *SubscriptionService) Verify(req *VerifyRequest) (*models.Subscription, error) {
	if req.VerificationCode == "" {
		return nil, fmt.Errorf("%w: verification code is required", utils.ErrValidation)
	}
	if req.SubscriptionID == "" && req.Email == "" {
		return nil, fmt.Errorf("%w: email or subscription ID is required", utils.ErrValidation)
	}

	sub, err := s.store.FindPendingByCode(req.SubscriptionID, req.Email, req.VerificationCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn().Str("subscription_id", req.SubscriptionID).Str("email", req.Email).
				Msg("verification failed: no pending record matches the code")
			return nil, utils.ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to look up subscription: %w", err)
	}

	now := time.Now()
	if expired := s.codeExpired(sub, now); expired {
		return nil, utils.ErrExpiredCode
	}

	number, err := utils.MintSubscriberNumber(s.store.SubscriberNumberExists, maxMintAttempts, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mint subscriber number: %w", err)
	}

	updated, err := s.store.MarkVerified(sub.ID, number, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to verify subscription: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(context.Background(), updated)
	}

	log.Info().Str("subscription_id", updated.ID).Str("subscriber_number", number).
		Msg("subscription verified")
	return updated, nil
}

// codeExpired applies the tolerant expiry rule: a missing expiry (legacy rows)
// or an unparseable one counts as non-expired; otherwise the code is expired
// when the stored instant is strictly earlier than now. Offset-less stored
// values are interpreted as UTC.
func (s *SubscriptionService) codeExpired(sub *models.Subscription, now time.Time) bool {
	if sub.VerificationCodeExpires == nil || *sub.VerificationCodeExpires == "" {
		log.Warn().Str("subscription_id", sub.ID).Msg("no expiration date on subscription, allowing verification")
		return false
	}

	expiresAt, err := utils.ParseStoredUTC(*sub.VerificationCodeExpires)
	if err != nil {
		log.Error().Err(err).Str("subscription_id", sub.ID).
			Msg("unparseable expiration date, allowing verification")
		return false
	}

	if expiresAt.Before(now) {
		log.Warn().Str("subscription_id", sub.ID).
			Time("expires_at", expiresAt).Time("now", now.UTC()).
			Msg("verification code expired")
		return true
	}
	return false
}

// ResendRequest identifies a pending subscription by id (preferred) or email.
type ResendRequest struct {
	SubscriptionID string `json:"subscriptionId"`
	Email          string `json:"email"`
}

// Resend issues a fresh code and expiry for a pending subscription and
// attempts notification. Unlike Verify, a miss is reported distinctly so the
// caller can be told to resubmit the form.
func (s *SubscriptionService) Resend(req *ResendRequest) (*SubmitResult, error) {
	if req.SubscriptionID == "" && req.Email == "" {
		return nil, fmt.Errorf("%w: email or subscription ID is required", utils.ErrValidation)
	}

	sub, err := s.store.FindPending(req.SubscriptionID, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to look up subscription: %w", err)
	}

	code, err := utils.GenerateVerificationCode()
	if err != nil {
		return nil, err
	}
	expiresAt := utils.FormatStoredUTC(time.Now().Add(s.codeTTL))

	if err := s.store.UpdateVerificationCode(sub.ID, code, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to update verification code: %w", err)
	}
	sub.VerificationCode = &code
	sub.VerificationCodeExpires = &expiresAt

	if !s.notifier.SendVerificationCode(sub.Email, code, sub.SubscriptionType) {
		log.Warn().Str("subscription_id", sub.ID).Msg("verification code not delivered")
	}

	return &SubmitResult{Subscription: sub, VerificationCode: code}, nil
}

// GetByID fetches a subscription regardless of status.
func (s *SubscriptionService) GetByID(id string) (*models.Subscription, error) {
	sub, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to look up subscription: %w", err)
	}
	return sub, nil
}

// GetCurrent fetches a verified subscription by email or subscriber number,
// consulting the cache first.
func (s *SubscriptionService) GetCurrent(ctx context.Context, email, subscriberNumber string) (*models.Subscription, error) {
	if email == "" && subscriberNumber == "" {
		return nil, fmt.Errorf("%w: email or subscriber number is required", utils.ErrValidation)
	}

	if s.cache != nil {
		if sub := s.cache.Get(ctx, email, subscriberNumber); sub != nil {
			return sub, nil
		}
	}

	sub, err := s.store.FindVerified(email, subscriberNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up subscriber: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, sub)
	}
	return sub, nil
}

// validateSubmit enforces the type-dependent required fields.
func validateSubmit(req *SubmitRequest) error {
	switch req.SubscriptionType {
	case models.TypeCompany:
		if req.BusinessName == "" || req.ContactPersonName == "" || req.Email == "" || req.OfficePhone == "" {
			return fmt.Errorf("%w: missing required fields for company subscription", utils.ErrValidation)
		}
	case models.TypeBroker:
		if req.Email == "" || req.Phone == "" || req.Name == "" || req.BrokerageLicenseNumber == "" || req.BrokerOfficeName == "" {
			return fmt.Errorf("%w: missing required fields for broker subscription: provide email, phone, agent name, brokerage license number, and broker office name", utils.ErrValidation)
		}
	default:
		if req.Email == "" || req.Phone == "" || (req.Name == "" && req.BusinessName == "") {
			return fmt.Errorf("%w: missing required fields: provide email, phone, and name or business name", utils.ErrValidation)
		}
	}
	return nil
}

// firstNonEmpty returns the first non-empty string from values.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// optional converts a form value to a nullable column value.
func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// marshalList stores a non-empty string list as a JSON array column value.
func marshalList(values []string) json.RawMessage {
	if len(values) == 0 {
		return nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return raw
}
