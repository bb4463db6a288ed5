package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/piteam/pi_api/internal/models"
)

const listingColumns = `id, subscription_id, subscription_type, category, status,
	main_image_url, additional_image_urls, video_url, sales_image_url, profile_image_url, display_option,
	property_type, area, rooms, floor, purpose, price, amenities, condition, address, phone, description,
	search_purpose, preferred_apartment_type, preferred_gender, preferred_age_min, preferred_age_max,
	preferences, budget, price_per_night, hospitality_nature, service_facility, accommodation_offers,
	cancellation_policy, contact_details, proposed_land, plan_approval, land_in_mortgage, permit,
	agricultural_land, land_ownership, land_address, construction_status, sale_at_presale,
	general_details, project_offers, company_offers_land_sizes, created_at`

// ListingRepository provides data access methods for the ads table.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create inserts a new listing and fills the store-assigned id and created_at.
func (r *ListingRepository) Create(l *models.Listing) error {
	query := `INSERT INTO ads (
			subscription_id, subscription_type, category, status,
			main_image_url, additional_image_urls, video_url, sales_image_url, profile_image_url, display_option,
			property_type, area, rooms, floor, purpose, price, amenities, condition, address, phone, description,
			search_purpose, preferred_apartment_type, preferred_gender, preferred_age_min, preferred_age_max,
			preferences, budget, price_per_night, hospitality_nature, service_facility, accommodation_offers,
			cancellation_policy, contact_details, proposed_land, plan_approval, land_in_mortgage, permit,
			agricultural_land, land_ownership, land_address, construction_status, sale_at_presale,
			general_details, project_offers, company_offers_land_sizes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37, $38,
			$39, $40, $41, $42, $43, $44, $45, $46)
		RETURNING id, created_at`

	return r.db.QueryRowx(query,
		l.SubscriptionID,
		l.SubscriptionType,
		l.Category,
		l.Status,
		l.MainImageURL,
		l.AdditionalImageURLs,
		l.VideoURL,
		l.SalesImageURL,
		l.ProfileImageURL,
		l.DisplayOption,
		l.PropertyType,
		l.Area,
		l.Rooms,
		l.Floor,
		l.Purpose,
		l.Price,
		l.Amenities,
		l.Condition,
		l.Address,
		l.Phone,
		l.Description,
		l.SearchPurpose,
		l.PreferredApartmentType,
		l.PreferredGender,
		l.PreferredAgeMin,
		l.PreferredAgeMax,
		l.Preferences,
		l.Budget,
		l.PricePerNight,
		l.HospitalityNature,
		l.ServiceFacility,
		l.AccommodationOffers,
		l.CancellationPolicy,
		l.ContactDetails,
		l.ProposedLand,
		l.PlanApproval,
		l.LandInMortgage,
		l.Permit,
		l.AgriculturalLand,
		l.LandOwnership,
		l.LandAddress,
		l.ConstructionStatus,
		l.SaleAtPresale,
		l.GeneralDetails,
		l.ProjectOffers,
		l.CompanyOffersLandSize,
	).Scan(&l.ID, &l.CreatedAt)
}

// List retrieves listings filtered by status and, when category > 0, by
// category. Results are newest-first.
func (r *ListingRepository) List(status models.ListingStatus, category int) ([]*models.Listing, error) {
	var listings []*models.Listing
	var err error
	if category > 0 {
		err = r.db.Select(&listings, `SELECT `+listingColumns+` FROM ads
			WHERE status = $1 AND category = $2
			ORDER BY created_at DESC`, status, category)
	} else {
		err = r.db.Select(&listings, `SELECT `+listingColumns+` FROM ads
			WHERE status = $1
			ORDER BY created_at DESC`, status)
	}
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// GetByID finds a listing by its id.
func (r *ListingRepository) GetByID(id string) (*models.Listing, error) {
	var l models.Listing
	err := r.db.Get(&l, `SELECT `+listingColumns+` FROM ads WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
