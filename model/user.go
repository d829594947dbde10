package model

import (
	"gorm.io/gorm"
)

// User is a staff or club account able to log in to the review/reporting UI.
// The scope ids bound which rows the reporting layer lets the user see; the
// role decides which of them is authoritative.
type User struct {
	gorm.Model
	Name         string `gorm:"type:varchar(191);not null" json:"name"`
	Email        string `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"`
	Password     string `gorm:"type:varchar(255);not null" json:"-"`
	PasswordSalt string `gorm:"type:varchar(64)" json:"-"`
	RoleID       uint32 `gorm:"index" json:"role_id"`

	UnionID   string `gorm:"type:varchar(64)" json:"union_id,omitempty"`
	RegionID  string `gorm:"type:varchar(64)" json:"region_id,omitempty"`
	ClubID    string `gorm:"type:varchar(64)" json:"club_id,omitempty"`
	ManagerID string `gorm:"type:varchar(64)" json:"manager_id,omitempty"`

	FailedAttempts int    `gorm:"default:0" json:"-"`
	LockedUntil    *int64 `json:"-"`
}
