package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/clubverify/kyc-backend/middleware"
	"github.com/clubverify/kyc-backend/model"
	"github.com/clubverify/kyc-backend/notify"
	"github.com/clubverify/kyc-backend/risk"
	"github.com/clubverify/kyc-backend/util"
)

// analysisTimeout bounds the post-response risk analysis and notification
// dispatch; the submitter never waits on either.
const analysisTimeout = 30 * time.Second

type geolocationPayload struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type deviceSpecsPayload struct {
	DeviceID          string          `json:"device_id"`
	BrowserInfo       json.RawMessage `json:"browser_info"`
	ScreenResolution  string          `json:"screen_resolution"`
	Timezone          string          `json:"timezone"`
	Language          string          `json:"language"`
	Platform          string          `json:"platform"`
	UserAgent         string          `json:"user_agent"`
	CanvasFingerprint string          `json:"canvas_fingerprint"`
	WebGLFingerprint  string          `json:"webgl_fingerprint"`
	AudioFingerprint  string          `json:"audio_fingerprint"`
	Fonts             json.RawMessage `json:"fonts"`
	Plugins           json.RawMessage `json:"plugins"`
}

type submitKYCRequest struct {
	FullName   string `json:"full_name" binding:"required" example:"Jane Player"`
	Email      string `json:"email" example:"jane@example.com"`
	Phone      string `json:"phone" example:"+1-555-0100"`
	Address    string `json:"address" example:"123 Main St"`
	City       string `json:"city" example:"Austin"`
	State      string `json:"state" example:"TX"`
	Country    string `json:"country" example:"USA"`
	PostalCode string `json:"postal_code" example:"78701"`

	PokerPlatform string `json:"poker_platform" example:"GGPoker"`
	PlayerID      string `json:"player_id" example:"GG12345"`

	// Opaque storage references filled in by the upload front; this service
	// never touches the binary content.
	DriverLicensePath     string `json:"driver_license_path"`
	VerificationVideoPath string `json:"verification_video_path"`

	DeviceFingerprint string              `json:"device_fingerprint"`
	Geolocation       *geolocationPayload `json:"geolocation"`
	DeviceSpecs       *deviceSpecsPayload `json:"device_specs"`
}

func buildSubmissionModel(req submitKYCRequest, submissionID, clientIP string) (model.Submission, error) {
	sub := model.Submission{
		SubmissionID:          submissionID,
		FullName:              util.NormalizeName(req.FullName),
		Email:                 req.Email,
		Phone:                 req.Phone,
		Address:               req.Address,
		City:                  req.City,
		State:                 req.State,
		Country:               req.Country,
		PostalCode:            req.PostalCode,
		PokerPlatform:         req.PokerPlatform,
		PlayerID:              req.PlayerID,
		DriverLicensePath:     req.DriverLicensePath,
		VerificationVideoPath: req.VerificationVideoPath,
		IPAddress:             clientIP,
		DeviceFingerprint:     req.DeviceFingerprint,
		Status:                model.StatusPending,
	}

	if req.Geolocation != nil {
		geo, err := json.Marshal(req.Geolocation)
		if err != nil {
			return model.Submission{}, err
		}
		sub.Geolocation = datatypes.JSON(geo)
	}
	if req.DeviceSpecs != nil {
		specs, err := json.Marshal(req.DeviceSpecs)
		if err != nil {
			return model.Submission{}, err
		}
		sub.DeviceSpecs = datatypes.JSON(specs)
	}
	return sub, nil
}

func buildDeviceDataModel(specs deviceSpecsPayload, submissionRef uint) model.DeviceData {
	return model.DeviceData{
		SubmissionRef:     submissionRef,
		DeviceID:          specs.DeviceID,
		BrowserInfo:       datatypes.JSON(specs.BrowserInfo),
		ScreenResolution:  specs.ScreenResolution,
		Timezone:          specs.Timezone,
		Language:          specs.Language,
		Platform:          specs.Platform,
		UserAgent:         specs.UserAgent,
		CanvasFingerprint: specs.CanvasFingerprint,
		WebGLFingerprint:  specs.WebGLFingerprint,
		AudioFingerprint:  specs.AudioFingerprint,
		Fonts:             datatypes.JSON(specs.Fonts),
		Plugins:           datatypes.JSON(specs.Plugins),
	}
}

// SubmitKYC godoc
// @Summary      Submit a KYC application
// @Description  Accept a new identity-verification submission (public endpoint - no authentication required)
// @Tags         KYC
// @Accept       json
// @Produce      json
// @Param        request body submitKYCRequest true "Submission payload"
// @Success      201 {object} util.APIResponse{data=object} "Submission received"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /kyc/submit [post]
func SubmitKYC(analyzer *risk.Analyzer, dispatcher *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitKYCRequest
		if !bindJSONOrRespond(c, &req, "Invalid request payload") {
			return
		}
		if util.NormalizeName(req.FullName) == "" {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Full name is required",
				Err: fmt.Errorf("full name is empty"),
			})
			return
		}

		db, ok := getDBOrRespond(c)
		if !ok {
			return
		}

		submissionID := uuid.NewString()
		sub, err := buildSubmissionModel(req, submissionID, c.ClientIP())
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Invalid geolocation or device data",
				Err: err,
			})
			return
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&sub).Error; err != nil {
				return err
			}
			if req.DeviceSpecs != nil {
				device := buildDeviceDataModel(*req.DeviceSpecs, sub.ID)
				if err := tx.Create(&device).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to store submission",
				Err: err,
			})
			return
		}

		util.LogSubmissionReceived(submissionID, c.ClientIP(), c.Request.UserAgent())

		util.CallSuccessCreated(c, util.APISuccessParams{
			Msg:  "KYC submission received successfully",
			Data: map[string]string{"submission_id": submissionID},
		})

		// Risk analysis and notification delivery happen after the response;
		// neither ever gates acceptance of a submission.
		if analyzer != nil && dispatcher != nil {
			go analyzeAndNotify(analyzer, dispatcher, sub, req.Geolocation)
		}
	}
}

func analyzeAndNotify(analyzer *risk.Analyzer, dispatcher *notify.Dispatcher, sub model.Submission, geo *geolocationPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
	defer cancel()

	input := risk.Input{
		IPAddress: sub.IPAddress,
		Country:   sub.Country,
	}
	if geo != nil {
		input.Geo = &risk.Geolocation{City: geo.City, Country: geo.Country}
	}

	report := analyzer.Analyze(ctx, input)
	dispatcher.Dispatch(ctx, sub, report)
}

// SubmissionStatus godoc
// @Summary      Check submission status
// @Description  Public status lookup by submission id; returns review state only
// @Tags         KYC
// @Accept       json
// @Produce      json
// @Param        submissionId path string true "Submission ID"
// @Success      200 {object} util.APIResponse{data=object} "Status retrieved"
// @Failure      404 {object} util.APIResponse "Submission not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /kyc/status/{submissionId} [get]
func SubmissionStatus(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var sub model.Submission
	err := db.Where("submission_id = ?", c.Param("submissionId")).First(&sub).Error
	if err == gorm.ErrRecordNotFound {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Submission not found",
			Err: err,
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to fetch submission status",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Status retrieved",
		Data: map[string]interface{}{
			"submission_id":      sub.SubmissionID,
			"full_name":          sub.FullName,
			"status":             sub.Status,
			"verification_notes": sub.VerificationNotes,
			"verified_at":        sub.VerifiedAt,
			"created_at":         sub.CreatedAt,
			"updated_at":         sub.UpdatedAt,
		},
	})
}

// ListSubmissions godoc
// @Summary      List KYC submissions
// @Description  Paginated submission listing with optional status filter
// @Tags         KYC
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        status query string false "Filter by review state (pending, approved, rejected, under_review)"
// @Param        page query int false "1-based page number"
// @Param        limit query int false "Page size"
// @Success      200 {object} util.APIResponse{data=object} "Submissions retrieved"
// @Failure      400 {object} util.APIResponse "Invalid status value"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /kyc/submissions [get]
func ListSubmissions(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	status := c.Query("status")
	if status != "" && !model.ValidStatus(status) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid status value",
			Err: fmt.Errorf("unknown status %q", status),
		})
		return
	}

	page, ok := parseIntParamOrRespond(c, "page")
	if !ok {
		return
	}
	limit, ok := parseIntParamOrRespond(c, "limit")
	if !ok {
		return
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 500 {
		limit = 500
	}

	countQuery := db.Model(&model.Submission{})
	listQuery := db.Model(&model.Submission{})
	if status != "" {
		countQuery = countQuery.Where("status = ?", status)
		listQuery = listQuery.Where("status = ?", status)
	}

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to count submissions",
			Err: err,
		})
		return
	}

	var subs []model.Submission
	err := listQuery.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&subs).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve submissions",
			Err: err,
		})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Submissions retrieved",
		Data: map[string]interface{}{
			"submissions": subs,
			"pagination": map[string]interface{}{
				"total":       total,
				"page":        page,
				"limit":       limit,
				"total_pages": totalPages,
			},
		},
	})
}

// GetSubmissionDetail godoc
// @Summary      Get submission detail
// @Description  Full submission record including captured device data
// @Tags         KYC
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Submission primary key"
// @Success      200 {object} util.APIResponse{data=object} "Submission retrieved"
// @Failure      404 {object} util.APIResponse "Submission not found"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /kyc/submission/{id} [get]
func GetSubmissionDetail(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var sub model.Submission
	err := db.First(&sub, c.Param("id")).Error
	if err == gorm.ErrRecordNotFound {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Submission not found",
			Err: err,
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to fetch submission",
			Err: err,
		})
		return
	}

	var device model.DeviceData
	var devicePtr *model.DeviceData
	if err := db.Where("submission_ref = ?", sub.ID).First(&device).Error; err == nil {
		devicePtr = &device
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Submission retrieved",
		Data: map[string]interface{}{
			"submission":  sub,
			"device_data": devicePtr,
		},
	})
}

type updateStatusRequest struct {
	Status            string `json:"status" binding:"required" example:"approved"`
	VerificationNotes string `json:"verification_notes" example:"Documents verified"`
}

// UpdateSubmissionStatus godoc
// @Summary      Update submission review state
// @Description  Record a review decision with optional notes
// @Tags         KYC
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Submission primary key"
// @Param        request body updateStatusRequest true "New review state"
// @Success      200 {object} util.APIResponse "Status updated"
// @Failure      400 {object} util.APIResponse "Invalid status value"
// @Failure      404 {object} util.APIResponse "Submission not found"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /kyc/submission/{id}/status [put]
func UpdateSubmissionStatus(c *gin.Context) {
	var req updateStatusRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	if !model.ValidStatus(req.Status) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid status value",
			Err: fmt.Errorf("unknown status %q", req.Status),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var sub model.Submission
	err := db.First(&sub, c.Param("id")).Error
	if err == gorm.ErrRecordNotFound {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Submission not found",
			Err: err,
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to fetch submission",
			Err: err,
		})
		return
	}

	reviewerEmail, _ := middleware.GetUserEmail(c)
	now := time.Now()
	sub.Status = req.Status
	sub.VerificationNotes = req.VerificationNotes
	sub.VerifiedBy = reviewerEmail
	sub.VerifiedAt = &now

	if err := db.Save(&sub).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update submission status",
			Err: err,
		})
		return
	}

	reviewerID, _ := middleware.GetUserID(c)
	util.LogSubmissionReviewed(reviewerID, reviewerEmail, sub.SubmissionID, sub.Status)

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "KYC status updated successfully",
	})
}
