package models

import (
	"encoding/json"
	"time"
)

type SubscriptionType string
type SubscriptionStatus string

const (
	TypeBroker       SubscriptionType = "broker"
	TypeCompany      SubscriptionType = "company"
	TypeProfessional SubscriptionType = "professional"
)

const (
	StatusPendingVerification SubscriptionStatus = "pending_verification"
	StatusVerified            SubscriptionStatus = "verified"
)

// Subscription is one onboarding record for a broker, company, or professional.
// Most columns are optional: each subscription type fills only its own fields.
// The verification code is kept after verification for audit history.
type Subscription struct {
	ID                      string             `db:"id" json:"id"`
	SubscriptionType        SubscriptionType   `db:"subscription_type" json:"subscriptionType"`
	Email                   string             `db:"email" json:"email"`
	Phone                   *string            `db:"phone" json:"phone,omitempty"`
	Name                    *string            `db:"name" json:"name,omitempty"`
	BusinessName            *string            `db:"business_name" json:"businessName,omitempty"`
	BusinessAddress         *string            `db:"business_address" json:"businessAddress,omitempty"`
	BrokerageLicenseNumber  *string            `db:"brokerage_license_number" json:"brokerageLicenseNumber,omitempty"`
	BrokerOfficeName        *string            `db:"broker_office_name" json:"brokerOfficeName,omitempty"`
	DealerNumber            *string            `db:"dealer_number" json:"dealerNumber,omitempty"`
	CompanyID               *string            `db:"company_id" json:"companyId,omitempty"`
	ContactPersonName       *string            `db:"contact_person_name" json:"contactPersonName,omitempty"`
	OfficePhone             *string            `db:"office_phone" json:"officePhone,omitempty"`
	MobilePhone             *string            `db:"mobile_phone" json:"mobilePhone,omitempty"`
	CompanyWebsite          *string            `db:"company_website" json:"companyWebsite,omitempty"`
	Description             *string            `db:"description" json:"description,omitempty"`
	Types                   json.RawMessage    `db:"types" json:"types,omitempty"`
	Specializations         json.RawMessage    `db:"specializations" json:"specializations,omitempty"`
	ActivityRegions         json.RawMessage    `db:"activity_regions" json:"activityRegions,omitempty"`
	ProfilePictureURL       *string            `db:"profile_picture_url" json:"profilePictureUrl,omitempty"`
	AdditionalImagesURLs    json.RawMessage    `db:"additional_images_urls" json:"additionalImagesUrls,omitempty"`
	CompanyLogoURL          *string            `db:"company_logo_url" json:"companyLogoUrl,omitempty"`
	VideoURL                *string            `db:"video_url" json:"videoUrl,omitempty"`
	VerificationCode        *string            `db:"verification_code" json:"-"`
	VerificationCodeExpires *string            `db:"verification_code_expires_at" json:"-"`
	AgreedToTerms           bool               `db:"agreed_to_terms" json:"agreedToTerms"`
	Status                  SubscriptionStatus `db:"status" json:"status"`
	SubscriberNumber        *string            `db:"subscriber_number" json:"subscriberNumber,omitempty"`
	VerifiedAt              *time.Time         `db:"verified_at" json:"verifiedAt,omitempty"`
	CreatedAt               time.Time          `db:"created_at" json:"createdAt"`
}
