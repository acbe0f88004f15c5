// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "time"

// PacingTargetDTO represents a pacing target returned by the API
type PacingTargetDTO struct {
	ID               string    `json:"id" example:"64f1a2b3c4d5e6f7a8b9c0d1"`
	ClientName       string    `json:"clientName" example:"Acme Retail"`
	ClientSubgroupID int64     `json:"clientSubgroupId" example:"5"`
	TagName          string    `json:"tagName" example:"Search"`
	Channel          int       `json:"channel" example:"1"`
	TagType          string    `json:"tagType" example:"Category"`
	TagID            int64     `json:"tagId" example:"10"`
	Month            string    `json:"month" example:"2025-08"`
	SpendsTarget     float64   `json:"spendsTarget" example:"1000"`
	Status           bool      `json:"status" example:"true"`
	CreatedBy        string    `json:"createdBy,omitempty" example:"64f1a2b3c4d5e6f7a8b9c0d1"`
	ModifiedBy       string    `json:"modifiedBy,omitempty" example:"64f1a2b3c4d5e6f7a8b9c0d1"`
	LastModified     time.Time `json:"lastModified" example:"2025-08-15T16:30:00Z"`
	CreatedAt        time.Time `json:"createdAt" example:"2025-08-01T10:30:00Z"`
	UpdatedAt        time.Time `json:"updatedAt" example:"2025-08-15T16:30:00Z"`
}

// ListTargetsRequest represents query filters for listing pacing targets
type ListTargetsRequest struct {
	Month            string `query:"month" validate:"omitempty" example:"2025-08"`
	ClientSubgroupID string `query:"clientSubgroupId" validate:"omitempty" example:"5"`
	Search           string `query:"search" validate:"omitempty,max=255" example:"Search"`
}

// CreateTargetRequest represents the request payload for creating a pacing target
type CreateTargetRequest struct {
	ClientSubgroupID int64   `json:"clientSubgroupId" validate:"required" example:"5"`
	TagName          string  `json:"tagName" validate:"required,max=255" example:"Search"`
	Channel          int     `json:"channel" validate:"required" example:"1"`
	TagType          string  `json:"tagType" validate:"required,oneof=Category 'Sub Category' Account" example:"Category"`
	TagID            int64   `json:"tagId" validate:"omitempty,min=0" example:"10"`
	Month            string  `json:"month" validate:"required" example:"2025-08"`
	SpendsTarget     float64 `json:"spendsTarget" validate:"min=0" example:"1000"`
	Status           *bool   `json:"status" validate:"omitempty" example:"true"`
}

// UpdateTargetRequest represents the request payload for updating a pacing target's spend goal
type UpdateTargetRequest struct {
	SpendsTarget float64 `json:"spendsTarget" validate:"min=0" example:"1500"`
}

// ToggleStatusData carries the new status after a toggle
type ToggleStatusData struct {
	ID     string `json:"id" example:"64f1a2b3c4d5e6f7a8b9c0d1"`
	Status bool   `json:"status" example:"false"`
}

// ListTargetsData carries the target list plus its length
type ListTargetsData struct {
	Targets []PacingTargetDTO `json:"targets"`
	Total   int               `json:"total" example:"42"`
}

// Common error codes for target operations
const (
	ErrorCodeTargetNotFound      = "TARGET_NOT_FOUND"
	ErrorCodeTargetAlreadyExists = "TARGET_ALREADY_EXISTS"
	ErrorCodeInvalidTargetID     = "INVALID_TARGET_ID"
	ErrorCodeInvalidMonthFormat  = "INVALID_MONTH_FORMAT"
)
