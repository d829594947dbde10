package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission review states.
const (
	StatusPending     = "pending"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
	StatusUnderReview = "under_review"
)

// ValidStatus reports whether s is a recognized review state.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusUnderReview:
		return true
	}
	return false
}

// Submission is one KYC intake record. File fields hold opaque storage
// references; binary handling lives outside this service.
type Submission struct {
	gorm.Model
	SubmissionID string `gorm:"type:varchar(36);uniqueIndex;not null" json:"submission_id"`
	FullName     string `gorm:"type:varchar(191);not null" json:"full_name"`
	Email        string `gorm:"type:varchar(191);index" json:"email,omitempty"`
	Phone        string `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Address      string `gorm:"type:varchar(255)" json:"address,omitempty"`
	City         string `gorm:"type:varchar(128)" json:"city,omitempty"`
	State        string `gorm:"type:varchar(128)" json:"state,omitempty"`
	Country      string `gorm:"type:varchar(128)" json:"country,omitempty"`
	PostalCode   string `gorm:"type:varchar(32)" json:"postal_code,omitempty"`

	PokerPlatform string `gorm:"type:varchar(128)" json:"poker_platform,omitempty"`
	PlayerID      string `gorm:"type:varchar(64);index" json:"player_id,omitempty"`

	DriverLicensePath     string `gorm:"type:varchar(512)" json:"driver_license_path,omitempty"`
	VerificationVideoPath string `gorm:"type:varchar(512)" json:"verification_video_path,omitempty"`

	IPAddress         string         `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	DeviceFingerprint string         `gorm:"type:varchar(128)" json:"device_fingerprint,omitempty"`
	Geolocation       datatypes.JSON `gorm:"type:json" json:"geolocation,omitempty"`
	DeviceSpecs       datatypes.JSON `gorm:"type:json" json:"device_specs,omitempty"`

	Status            string     `gorm:"type:varchar(16);index;default:pending" json:"status"`
	VerificationNotes string     `gorm:"type:text" json:"verification_notes,omitempty"`
	VerifiedBy        string     `gorm:"type:varchar(191)" json:"verified_by,omitempty"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
}

// DeviceData holds the browser fingerprint block captured with a submission.
type DeviceData struct {
	gorm.Model
	SubmissionRef uint `gorm:"index;not null" json:"submission_ref"`

	DeviceID          string         `gorm:"type:varchar(128)" json:"device_id,omitempty"`
	BrowserInfo       datatypes.JSON `gorm:"type:json" json:"browser_info,omitempty"`
	ScreenResolution  string         `gorm:"type:varchar(32)" json:"screen_resolution,omitempty"`
	Timezone          string         `gorm:"type:varchar(64)" json:"timezone,omitempty"`
	Language          string         `gorm:"type:varchar(32)" json:"language,omitempty"`
	Platform          string         `gorm:"type:varchar(64)" json:"platform,omitempty"`
	UserAgent         string         `gorm:"type:varchar(512)" json:"user_agent,omitempty"`
	CanvasFingerprint string         `gorm:"type:varchar(128)" json:"canvas_fingerprint,omitempty"`
	WebGLFingerprint  string         `gorm:"type:varchar(128)" json:"webgl_fingerprint,omitempty"`
	AudioFingerprint  string         `gorm:"type:varchar(128)" json:"audio_fingerprint,omitempty"`
	Fonts             datatypes.JSON `gorm:"type:json" json:"fonts,omitempty"`
	Plugins           datatypes.JSON `gorm:"type:json" json:"plugins,omitempty"`
}
