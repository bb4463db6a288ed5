package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/piteam/pi_api/internal/models"
)

// Canonical unique-identifier pattern for subscription references: 32 hex
// digits grouped 8-4-4-4-12 with the version and variant nibbles constrained.
// Clients may send "user-123" style ids; those must never reach storage.
var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// ListingStore is the record-store surface the listing service needs.
type ListingStore interface {
	Create(l *models.Listing) error
	List(status models.ListingStatus, category int) ([]*models.Listing, error)
	GetByID(id string) (*models.Listing, error)
}

// ListingService owns translation between the wide client listing payload and
// the canonical ads row, plus the derived media view for reads.
type ListingService struct {
	store ListingStore
}

// NewListingService constructs a ListingService.
func NewListingService(store ListingStore) *ListingService {
	return &ListingService{store: store}
}

// CreateListingRequest is the wide client payload. Every field is optional.
// Fields whose wire type varies between clients (numbers sent as strings,
// objects sent as scalars) are declared as any and coerced; a malformed value
// resolves to null instead of failing the write.
type CreateListingRequest struct {
	Category         any    `json:"category"`
	Status           string `json:"status"`
	SubscriptionID   string `json:"subscriptionId"`
	SubscriptionType string `json:"subscriptionType"`

	PropertyType  string `json:"propertyType"`
	Area          any    `json:"area"`
	Rooms         any    `json:"rooms"`
	Floor         any    `json:"floor"`
	Purpose       string `json:"purpose"`
	Price         any    `json:"price"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	Description   string `json:"description"`
	DisplayOption string `json:"displayOption"`
	Amenities     any    `json:"amenities"`
	Condition     string `json:"condition"`

	MainImageURL        string `json:"mainImageUrl"`
	AdditionalImageURLs any    `json:"additionalImageUrls"`
	VideoURL            string `json:"videoUrl"`
	HasVideo            any    `json:"hasVideo"`
	SalesImageURL       string `json:"salesImageUrl"`
	ProfileImageURL     string `json:"profileImageUrl"`

	SearchPurpose          string `json:"searchPurpose"`
	PreferredApartmentType string `json:"preferredApartmentType"`
	PreferredGender        string `json:"preferredGender"`
	PreferredAgeMin        any    `json:"preferredAgeMin"`
	PreferredAgeMax        any    `json:"preferredAgeMax"`
	Preferences            any    `json:"preferences"`
	Budget                 any    `json:"budget"`

	PricePerNight       any    `json:"pricePerNight"`
	HospitalityNature   string `json:"hospitalityNature"`
	ServiceFacility     any    `json:"serviceFacility"`
	AccommodationOffers any    `json:"accommodationOffers"`
	CancellationPolicy  string `json:"cancellationPolicy"`
	ContactDetails      any    `json:"contactDetails"`

	ProposedLand           any    `json:"proposedLand"`
	PlanApproval           string `json:"planApproval"`
	LandInMortgage         string `json:"landInMortgage"`
	Permit                 string `json:"permit"`
	AgriculturalLand       string `json:"agriculturalLand"`
	LandOwnership          string `json:"landOwnership"`
	LandAddress            string `json:"landAddress"`
	ConstructionStatus     string `json:"constructionStatus"`
	SaleAtPresale          any    `json:"saleAtPresale"`
	GeneralDetails         any    `json:"generalDetails"`
	ProjectOffers          any    `json:"projectOffers"`
	CompanyOffersLandSizes any    `json:"companyOffersLandSizes"`
}

// NormalizeListing maps the wide client payload onto the canonical stored
// shape. It is a pure function: no store or network access, so the coercion
// rules are testable in isolation.
func NormalizeListing(req *CreateListingRequest) *models.Listing {
	status := models.ListingDraft
	if req.Status == string(models.ListingPublished) {
		status = models.ListingPublished
	}

	purpose := req.Purpose
	if purpose == "" {
		purpose = "sale"
	}

	return &models.Listing{
		SubscriptionID:      validSubscriptionID(req.SubscriptionID),
		SubscriptionType:    optional(req.SubscriptionType),
		Category:            coerceCategory(req.Category),
		Status:              status,
		MainImageURL:        optional(req.MainImageURL),
		AdditionalImageURLs: coerceURLList(req.AdditionalImageURLs),
		VideoURL:            optional(req.VideoURL),
		SalesImageURL:       optional(req.SalesImageURL),
		ProfileImageURL:     optional(req.ProfileImageURL),
		DisplayOption:       optional(req.DisplayOption),

		PropertyType: optional(req.PropertyType),
		Area:         coerceInt(req.Area),
		Rooms:        coerceInt(req.Rooms),
		Floor:        coerceInt(req.Floor),
		Purpose:      purpose,
		Price:        coerceFloat(req.Price),
		Amenities:    coerceObject(req.Amenities),
		Condition:    optional(req.Condition),
		Address:      optional(req.Address),
		Phone:        optional(req.Phone),
		Description:  optional(req.Description),

		SearchPurpose:          optional(req.SearchPurpose),
		PreferredApartmentType: optional(req.PreferredApartmentType),
		PreferredGender:        optional(req.PreferredGender),
		PreferredAgeMin:        coerceInt(req.PreferredAgeMin),
		PreferredAgeMax:        coerceInt(req.PreferredAgeMax),
		Preferences:            coerceObject(req.Preferences),
		Budget:                 coerceFloat(req.Budget),

		PricePerNight:       coerceFloat(req.PricePerNight),
		HospitalityNature:   optional(req.HospitalityNature),
		ServiceFacility:     coerceObject(req.ServiceFacility),
		AccommodationOffers: coerceObject(req.AccommodationOffers),
		CancellationPolicy:  optional(req.CancellationPolicy),
		ContactDetails:      coerceObject(req.ContactDetails),

		ProposedLand:          coerceObject(req.ProposedLand),
		PlanApproval:          optional(req.PlanApproval),
		LandInMortgage:        optional(req.LandInMortgage),
		Permit:                optional(req.Permit),
		AgriculturalLand:      optional(req.AgriculturalLand),
		LandOwnership:         optional(req.LandOwnership),
		LandAddress:           optional(req.LandAddress),
		ConstructionStatus:    optional(req.ConstructionStatus),
		SaleAtPresale:         coerceBool(req.SaleAtPresale),
		GeneralDetails:        coerceObject(req.GeneralDetails),
		ProjectOffers:         coerceObject(req.ProjectOffers),
		CompanyOffersLandSize: coerceObject(req.CompanyOffersLandSizes),
	}
}

// ShapeListing attaches the derived media view to a stored row: main image
// first, then additional images in stored order, then the video list.
func ShapeListing(l *models.Listing) *models.ListingView {
	view := &models.ListingView{
		Listing:       *l,
		ListingImages: []models.ListingImage{},
		ListingVideos: []models.ListingVideo{},
	}

	if l.MainImageURL != nil && *l.MainImageURL != "" {
		view.ListingImages = append(view.ListingImages, models.ListingImage{
			ImageURL:  *l.MainImageURL,
			ImageType: "main",
		})
	}

	if len(l.AdditionalImageURLs) > 0 {
		var urls []string
		if err := json.Unmarshal(l.AdditionalImageURLs, &urls); err == nil {
			for _, url := range urls {
				if url != "" {
					view.ListingImages = append(view.ListingImages, models.ListingImage{
						ImageURL:  url,
						ImageType: "additional",
					})
				}
			}
		}
	}

	if l.VideoURL != nil && *l.VideoURL != "" {
		view.ListingVideos = append(view.ListingVideos, models.ListingVideo{VideoURL: *l.VideoURL})
	}

	return view
}

// CreateListing normalizes and persists a new listing.
func (s *ListingService) CreateListing(req *CreateListingRequest) (*models.Listing, error) {
	listing := NormalizeListing(req)
	if err := s.store.Create(listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return listing, nil
}

// ListListings fetches listings newest-first with the derived media view
// attached. Status defaults to published; an unparseable category is ignored.
func (s *ListingService) ListListings(status, category string) ([]*models.ListingView, error) {
	st := models.ListingStatus(status)
	if st != models.ListingDraft && st != models.ListingPublished {
		st = models.ListingPublished
	}

	cat := 0
	if c, err := strconv.Atoi(category); err == nil && c > 0 {
		cat = c
	}

	rows, err := s.store.List(st, cat)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}

	views := make([]*models.ListingView, 0, len(rows))
	for _, row := range rows {
		views = append(views, ShapeListing(row))
	}
	return views, nil
}

// validSubscriptionID accepts only canonical unique identifiers; anything
// else becomes null to protect referential integrity.
func validSubscriptionID(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !uuidPattern.MatchString(strings.ToLower(trimmed)) {
		return nil
	}
	return &trimmed
}

// coerceCategory coerces to a positive integer category code, defaulting to 1
// when absent or unparseable.
func coerceCategory(v any) int {
	if n := coerceInt(v); n != nil && *n > 0 {
		return *n
	}
	return 1
}

// coerceInt accepts a JSON number or a numeric string; anything else is null.
func coerceInt(v any) *int {
	switch val := v.(type) {
	case float64:
		n := int(val)
		return &n
	case string:
		val = strings.TrimSpace(val)
		if val == "" {
			return nil
		}
		if n, err := strconv.Atoi(val); err == nil {
			return &n
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			n := int(f)
			return &n
		}
	}
	return nil
}

// coerceFloat accepts a JSON number or a numeric string; anything else is null.
func coerceFloat(v any) *float64 {
	switch val := v.(type) {
	case float64:
		return &val
	case string:
		val = strings.TrimSpace(val)
		if val == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return &f
		}
	}
	return nil
}

// coerceBool accepts a genuine boolean or the literal string "true"; anything
// else is null.
func coerceBool(v any) *bool {
	switch val := v.(type) {
	case bool:
		return &val
	case string:
		if val == "true" {
			t := true
			return &t
		}
	}
	return nil
}

// coerceObject accepts only genuine structured values (JSON objects or
// arrays); scalars are discarded to null.
func coerceObject(v any) json.RawMessage {
	switch v.(type) {
	case map[string]any, []any:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return raw
	}
	return nil
}

// coerceURLList keeps non-empty string entries of an additional-images list,
// preserving order. A non-list value or an empty result is stored as an empty
// JSON array, matching the column default.
func coerceURLList(v any) json.RawMessage {
	kept := []string{}
	if items, ok := v.([]any); ok {
		for _, item := range items {
			if s, ok := item.(string); ok && s != "" {
				kept = append(kept, s)
			}
		}
	}
	raw, err := json.Marshal(kept)
	if err != nil {
		return json.RawMessage(`[]`)
	}
	return raw
}
