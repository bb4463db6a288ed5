package models

import (
	"encoding/json"
	"time"
)

type ListingStatus string

const (
	ListingDraft     ListingStatus = "draft"
	ListingPublished ListingStatus = "published"
)

// Listing is one row in the unified ads table. All categories share this wide
// schema; fields irrelevant to a category stay null. Numeric fields are either
// a parsed number or null, structured fields either a JSON object/array or null.
type Listing struct {
	ID                  string          `db:"id" json:"id"`
	SubscriptionID      *string         `db:"subscription_id" json:"subscription_id"`
	SubscriptionType    *string         `db:"subscription_type" json:"subscription_type,omitempty"`
	Category            int             `db:"category" json:"category"`
	Status              ListingStatus   `db:"status" json:"status"`
	MainImageURL        *string         `db:"main_image_url" json:"main_image_url,omitempty"`
	AdditionalImageURLs json.RawMessage `db:"additional_image_urls" json:"additional_image_urls,omitempty"`
	VideoURL            *string         `db:"video_url" json:"video_url,omitempty"`
	SalesImageURL       *string         `db:"sales_image_url" json:"sales_image_url,omitempty"`
	ProfileImageURL     *string         `db:"profile_image_url" json:"profile_image_url,omitempty"`
	DisplayOption       *string         `db:"display_option" json:"display_option,omitempty"`

	// Property attributes
	PropertyType *string         `db:"property_type" json:"property_type,omitempty"`
	Area         *int            `db:"area" json:"area,omitempty"`
	Rooms        *int            `db:"rooms" json:"rooms,omitempty"`
	Floor        *int            `db:"floor" json:"floor,omitempty"`
	Purpose      string          `db:"purpose" json:"purpose"`
	Price        *float64        `db:"price" json:"price,omitempty"`
	Amenities    json.RawMessage `db:"amenities" json:"amenities,omitempty"`
	Condition    *string         `db:"condition" json:"condition,omitempty"`
	Address      *string         `db:"address" json:"address,omitempty"`
	Phone        *string         `db:"phone" json:"phone,omitempty"`
	Description  *string         `db:"description" json:"description,omitempty"`

	// Search / roommate attributes
	SearchPurpose          *string         `db:"search_purpose" json:"search_purpose,omitempty"`
	PreferredApartmentType *string         `db:"preferred_apartment_type" json:"preferred_apartment_type,omitempty"`
	PreferredGender        *string         `db:"preferred_gender" json:"preferred_gender,omitempty"`
	PreferredAgeMin        *int            `db:"preferred_age_min" json:"preferred_age_min,omitempty"`
	PreferredAgeMax        *int            `db:"preferred_age_max" json:"preferred_age_max,omitempty"`
	Preferences            json.RawMessage `db:"preferences" json:"preferences,omitempty"`
	Budget                 *float64        `db:"budget" json:"budget,omitempty"`

	// Hospitality attributes
	PricePerNight       *float64        `db:"price_per_night" json:"price_per_night,omitempty"`
	HospitalityNature   *string         `db:"hospitality_nature" json:"hospitality_nature,omitempty"`
	ServiceFacility     json.RawMessage `db:"service_facility" json:"service_facility,omitempty"`
	AccommodationOffers json.RawMessage `db:"accommodation_offers" json:"accommodation_offers,omitempty"`
	CancellationPolicy  *string         `db:"cancellation_policy" json:"cancellation_policy,omitempty"`
	ContactDetails      json.RawMessage `db:"contact_details" json:"contact_details,omitempty"`

	// Land / construction attributes
	ProposedLand          json.RawMessage `db:"proposed_land" json:"proposed_land,omitempty"`
	PlanApproval          *string         `db:"plan_approval" json:"plan_approval,omitempty"`
	LandInMortgage        *string         `db:"land_in_mortgage" json:"land_in_mortgage,omitempty"`
	Permit                *string         `db:"permit" json:"permit,omitempty"`
	AgriculturalLand      *string         `db:"agricultural_land" json:"agricultural_land,omitempty"`
	LandOwnership         *string         `db:"land_ownership" json:"land_ownership,omitempty"`
	LandAddress           *string         `db:"land_address" json:"land_address,omitempty"`
	ConstructionStatus    *string         `db:"construction_status" json:"construction_status,omitempty"`
	SaleAtPresale         *bool           `db:"sale_at_presale" json:"sale_at_presale,omitempty"`
	GeneralDetails        json.RawMessage `db:"general_details" json:"general_details,omitempty"`
	ProjectOffers         json.RawMessage `db:"project_offers" json:"project_offers,omitempty"`
	CompanyOffersLandSize json.RawMessage `db:"company_offers_land_sizes" json:"company_offers_land_sizes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ListingImage is one entry in the derived media view of a listing.
type ListingImage struct {
	ImageURL  string `json:"image_url"`
	ImageType string `json:"image_type"`
}

// ListingVideo is one entry in the derived video view of a listing.
type ListingVideo struct {
	VideoURL string `json:"video_url"`
}

// ListingView is a listing row with the derived media lists attached. The
// lists are additive; every stored column is still present.
type ListingView struct {
	Listing
	ListingImages []ListingImage `json:"listing_images"`
	ListingVideos []ListingVideo `json:"listing_videos"`
}
