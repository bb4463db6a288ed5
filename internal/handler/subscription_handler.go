package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/piteam/pi_api/internal/models"
	"github.com/piteam/pi_api/internal/service"
	"github.com/piteam/pi_api/internal/utils"
)

var fileNamePattern = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// maxAdditionalImages caps the gallery uploads accepted per submission.
const maxAdditionalImages = 10

// SubscriptionHandler handles the subscription onboarding endpoints.
type SubscriptionHandler struct {
	subService *service.SubscriptionService
	media      *service.MediaService
	// exposeCodes echoes raw verification codes in responses; development only.
	exposeCodes bool
}

// NewSubscriptionHandler constructs a SubscriptionHandler.
func NewSubscriptionHandler(subService *service.SubscriptionService, media *service.MediaService, exposeCodes bool) *SubscriptionHandler {
	return &SubscriptionHandler{
		subService:  subService,
		media:       media,
		exposeCodes: exposeCodes,
	}
}

// Submit handles POST /api/subscription/submit (multipart form, all types).
func (h *SubscriptionHandler) Submit(c *gin.Context) {
	req := &service.SubmitRequest{
		SubscriptionType:       models.SubscriptionType(c.PostForm("subscriptionType")),
		Email:                  c.PostForm("email"),
		Phone:                  c.PostForm("phone"),
		Name:                   c.PostForm("name"),
		AgentName:              c.PostForm("agentName"),
		BusinessName:           c.PostForm("businessName"),
		BusinessAddress:        c.PostForm("businessAddress"),
		BrokerageLicenseNumber: c.PostForm("brokerageLicenseNumber"),
		BrokerOfficeName:       c.PostForm("brokerOfficeName"),
		DealerNumber:           c.PostForm("dealerNumber"),
		CompanyID:              c.PostForm("companyId"),
		ContactPersonName:      c.PostForm("contactPersonName"),
		OfficePhone:            c.PostForm("officePhone"),
		MobilePhone:            c.PostForm("mobilePhone"),
		CompanyWebsite:         c.PostForm("companyWebsite"),
		Description:            c.PostForm("description"),
		Types:                  c.PostFormArray("types"),
		Specializations:        c.PostFormArray("specializations"),
		ActivityRegions:        c.PostFormArray("activityRegions"),
		AgreedToTerms:          c.PostForm("agreedToTerms") == "true",
	}

	// Media uploads resolve before the insert: the URLs are columns on the
	// subscription row. Individual upload failures are logged, not fatal.
	if form, err := c.MultipartForm(); err == nil && form != nil {
		ctx := c.Request.Context()
		if file := firstFile(form, "profilePicture"); file != nil {
			req.ProfilePictureURL = h.uploadFormFile(ctx, "profiles", file)
		}
		additional := form.File["additionalImages"]
		if len(additional) > maxAdditionalImages {
			additional = additional[:maxAdditionalImages]
		}
		for _, file := range additional {
			if url := h.uploadFormFile(ctx, "additional", file); url != "" {
				req.AdditionalImageURLs = append(req.AdditionalImageURLs, url)
			}
		}
		if file := firstFile(form, "companyLogo"); file != nil {
			req.CompanyLogoURL = h.uploadFormFile(ctx, "logos", file)
		}
		if file := firstFile(form, "video"); file != nil {
			req.VideoURL = h.uploadFormFile(ctx, "videos", file)
		}
	}

	result, err := h.subService.Submit(req)
	if err != nil {
		if errors.Is(err, utils.ErrValidation) {
			utils.Error(c, 400, utils.ErrValidation.Error(), utils.HumanMessage(err))
			return
		}
		log.Error().Err(err).Msg("subscription submit failed")
		utils.Error(c, 500, utils.ErrStoreFailure.Error(), "Failed to save subscription data")
		return
	}

	data := gin.H{
		"subscriptionId": result.Subscription.ID,
		"subscription":   result.Subscription,
	}
	if h.exposeCodes {
		data["verificationCode"] = result.VerificationCode
	}
	utils.Success(c, 200, "Subscription submitted successfully. Please check your email for verification code.", data)
}

// Verify handles POST /api/subscription/verify
func (h *SubscriptionHandler) Verify(c *gin.Context) {
	var req service.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, utils.ErrValidation.Error(), "Invalid request body")
		return
	}

	sub, err := h.subService.Verify(&req)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrValidation):
			utils.Error(c, 400, utils.ErrValidation.Error(), utils.HumanMessage(err))
		case errors.Is(err, utils.ErrExpiredCode):
			utils.Error(c, 400, utils.ErrExpiredCode.Error(), "Verification code has expired. Please request a new code.")
		case errors.Is(err, utils.ErrInvalidCode):
			utils.Error(c, 400, utils.ErrInvalidCode.Error(), "Invalid verification code")
		default:
			log.Error().Err(err).Msg("subscription verify failed")
			utils.Error(c, 500, utils.ErrStoreFailure.Error(), "Failed to verify subscription")
		}
		return
	}

	utils.Success(c, 200, "Email verified successfully", gin.H{
		"subscription":     sub,
		"subscriberNumber": sub.SubscriberNumber,
	})
}

// ResendCode handles POST /api/subscription/resend-code
func (h *SubscriptionHandler) ResendCode(c *gin.Context) {
	var req service.ResendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, utils.ErrValidation.Error(), "Invalid request body")
		return
	}

	result, err := h.subService.Resend(&req)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrValidation):
			utils.Error(c, 400, utils.ErrValidation.Error(), utils.HumanMessage(err))
		case errors.Is(err, utils.ErrSubscriptionNotFound):
			utils.Error(c, 404, utils.ErrSubscriptionNotFound.Error(), "Subscription not found. Please make sure you completed the form submission.")
		default:
			log.Error().Err(err).Msg("resend verification code failed")
			utils.Error(c, 500, utils.ErrStoreFailure.Error(), "Failed to resend verification code")
		}
		return
	}

	data := gin.H{}
	if h.exposeCodes {
		data["verificationCode"] = result.VerificationCode
	}
	utils.Success(c, 200, "Verification code resent successfully", data)
}

// GetByID handles GET /api/subscription/:id
func (h *SubscriptionHandler) GetByID(c *gin.Context) {
	sub, err := h.subService.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, utils.ErrSubscriptionNotFound) {
			utils.Error(c, 404, utils.ErrSubscriptionNotFound.Error(), "Subscription not found")
			return
		}
		log.Error().Err(err).Msg("fetch subscription failed")
		utils.Error(c, 500, utils.ErrStoreFailure.Error(), "Failed to fetch subscription")
		return
	}

	utils.Success(c, 200, "Subscription retrieved", gin.H{"subscription": sub})
}

// GetCurrent handles GET /api/user/current
func (h *SubscriptionHandler) GetCurrent(c *gin.Context) {
	email := c.Query("email")
	subscriberNumber := c.Query("subscriberNumber")

	sub, err := h.subService.GetCurrent(c.Request.Context(), email, subscriberNumber)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrValidation):
			utils.Error(c, 400, utils.ErrValidation.Error(), utils.HumanMessage(err))
		case errors.Is(err, utils.ErrUserNotFound):
			utils.Error(c, 404, utils.ErrUserNotFound.Error(), "User not found")
		default:
			log.Error().Err(err).Msg("fetch current user failed")
			utils.Error(c, 500, utils.ErrStoreFailure.Error(), "Failed to fetch current user")
		}
		return
	}

	utils.Success(c, 200, "Subscription retrieved", gin.H{"subscription": sub})
}

// uploadFormFile reads a multipart file and stores it in the media bucket.
// Returns the public URL, or empty when storage is disabled or the upload
// failed; the subscription write proceeds either way.
func (h *SubscriptionHandler) uploadFormFile(ctx context.Context, folder string, file *multipart.FileHeader) string {
	if !h.media.Enabled() {
		return ""
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Str("file", file.Filename).Msg("failed to open uploaded file")
		return ""
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Error().Err(err).Str("file", file.Filename).Msg("failed to read uploaded file")
		return ""
	}

	safeName := fileNamePattern.ReplaceAllString(file.Filename, "_")
	key := fmt.Sprintf("%s/%d-%s", folder, time.Now().UnixMilli(), safeName)

	url, err := h.media.Upload(ctx, key, data, file.Header.Get("Content-Type"))
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("media upload failed during submission")
		return ""
	}
	return url
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	if files := form.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}
