package repository

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/piteam/pi_api/internal/models"
)

// subscriptionColumns is the full column list selected for subscription rows.
const subscriptionColumns = `id, subscription_type, email, phone, name, business_name, business_address,
	brokerage_license_number, broker_office_name, dealer_number, company_id, contact_person_name,
	office_phone, mobile_phone, company_website, description, types, specializations, activity_regions,
	profile_picture_url, additional_images_urls, company_logo_url, video_url,
	verification_code, verification_code_expires_at, agreed_to_terms, status,
	subscriber_number, verified_at, created_at`

// SubscriptionRepository provides data access methods for the subscriptions table.
type SubscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create inserts a new subscription and fills the store-assigned id and
// created_at on the passed record.
func (r *SubscriptionRepository) Create(sub *models.Subscription) error {
	query := `INSERT INTO subscriptions (
			subscription_type, email, phone, name, business_name, business_address,
			brokerage_license_number, broker_office_name, dealer_number, company_id, contact_person_name,
			office_phone, mobile_phone, company_website, description, types, specializations, activity_regions,
			profile_picture_url, additional_images_urls, company_logo_url, video_url,
			verification_code, verification_code_expires_at, agreed_to_terms, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26)
		RETURNING id, created_at`

	return r.db.QueryRowx(query,
		sub.SubscriptionType,
		sub.Email,
		sub.Phone,
		sub.Name,
		sub.BusinessName,
		sub.BusinessAddress,
		sub.BrokerageLicenseNumber,
		sub.BrokerOfficeName,
		sub.DealerNumber,
		sub.CompanyID,
		sub.ContactPersonName,
		sub.OfficePhone,
		sub.MobilePhone,
		sub.CompanyWebsite,
		sub.Description,
		sub.Types,
		sub.Specializations,
		sub.ActivityRegions,
		sub.ProfilePictureURL,
		sub.AdditionalImagesURLs,
		sub.CompanyLogoURL,
		sub.VideoURL,
		sub.VerificationCode,
		sub.VerificationCodeExpires,
		sub.AgreedToTerms,
		sub.Status,
	).Scan(&sub.ID, &sub.CreatedAt)
}

// GetByID finds a subscription by its id.
func (r *SubscriptionRepository) GetByID(id string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Get(&sub, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindPendingByCode finds a pending subscription matching the verification
// code plus either the subscription id (preferred) or the email.
func (r *SubscriptionRepository) FindPendingByCode(id, email, code string) (*models.Subscription, error) {
	var sub models.Subscription
	var err error
	if id != "" {
		err = r.db.Get(&sub, `SELECT `+subscriptionColumns+` FROM subscriptions
			WHERE id = $1 AND verification_code = $2 AND status = $3 LIMIT 1`,
			id, code, models.StatusPendingVerification)
	} else {
		err = r.db.Get(&sub, `SELECT `+subscriptionColumns+` FROM subscriptions
			WHERE email = $1 AND verification_code = $2 AND status = $3 LIMIT 1`,
			email, code, models.StatusPendingVerification)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindPending finds a pending subscription by id (preferred) or email.
func (r *SubscriptionRepository) FindPending(id, email string) (*models.Subscription, error) {
	var sub models.Subscription
	var err error
	if id != "" {
		err = r.db.Get(&sub, `SELECT `+subscriptionColumns+` FROM subscriptions
			WHERE id = $1 AND status = $2 LIMIT 1`, id, models.StatusPendingVerification)
	} else {
		err = r.db.Get(&sub, `SELECT `+subscriptionColumns+` FROM subscriptions
			WHERE email = $1 AND status = $2 LIMIT 1`, email, models.StatusPendingVerification)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindVerified finds a verified subscription by subscriber number (preferred)
// or email. Pending records are never returned.
func (r *SubscriptionRepository) FindVerified(email, subscriberNumber string) (*models.Subscription, error) {
	var sub models.Subscription
	var err error
	if subscriberNumber != "" {
		err = r.db.Get(&sub, `SELECT `+subscriptionColumns+` FROM subscriptions
			WHERE subscriber_number = $1 AND status = $2 LIMIT 1`,
			subscriberNumber, models.StatusVerified)
	} else {
		err = r.db.Get(&sub, `SELECT `+subscriptionColumns+` FROM subscriptions
			WHERE email = $1 AND status = $2 LIMIT 1`, email, models.StatusVerified)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// MarkVerified transitions a subscription to verified, assigning its
// subscriber number and verification instant, and returns the updated row.
func (r *SubscriptionRepository) MarkVerified(id, subscriberNumber string, verifiedAt time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Get(&sub, `UPDATE subscriptions
		SET status = $1, subscriber_number = $2, verified_at = $3
		WHERE id = $4
		RETURNING `+subscriptionColumns,
		models.StatusVerified, subscriberNumber, verifiedAt, id)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateVerificationCode replaces the verification code and its expiry on a
// pending subscription. The status is left unchanged.
func (r *SubscriptionRepository) UpdateVerificationCode(id, code, expiresAt string) error {
	res, err := r.db.Exec(`UPDATE subscriptions
		SET verification_code = $1, verification_code_expires_at = $2
		WHERE id = $3`, code, expiresAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SubscriberNumberExists reports whether a subscriber number is already assigned.
func (r *SubscriptionRepository) SubscriberNumberExists(number string) (bool, error) {
	var exists bool
	err := r.db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE subscriber_number = $1)`, number)
	if err != nil {
		return false, err
	}
	return exists, nil
}
