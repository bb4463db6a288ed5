package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/piteam/pi_api/internal/service"
	"github.com/piteam/pi_api/internal/utils"
)

// ListingHandler handles the classified-listings endpoints.
type ListingHandler struct {
	listingService *service.ListingService
}

// NewListingHandler constructs a ListingHandler.
func NewListingHandler(listingService *service.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

// List handles GET /api/listings
func (h *ListingHandler) List(c *gin.Context) {
	listings, err := h.listingService.ListListings(c.Query("status"), c.Query("category"))
	if err != nil {
		log.Error().Err(err).Msg("fetch listings failed")
		utils.Error(c, 500, utils.ErrStoreFailure.Error(), "Failed to fetch listings")
		return
	}

	utils.Success(c, 200, "Listings retrieved", gin.H{"listings": listings})
}

// Create handles POST /api/listings
func (h *ListingHandler) Create(c *gin.Context) {
	var req service.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, utils.ErrValidation.Error(), "Invalid request body")
		return
	}

	listing, err := h.listingService.CreateListing(&req)
	if err != nil {
		log.Error().Err(err).Msg("create listing failed")
		utils.Error(c, 500, utils.ErrStoreFailure.Error(), "Failed to create listing")
		return
	}

	utils.Success(c, 201, "Listing created", gin.H{
		"id":      listing.ID,
		"listing": listing,
	})
}
