// Package businessflow contains the business logic for the application.
package businessflow

import (
	"github.com/revinity/pacing-targets/app/dto"
	"github.com/revinity/pacing-targets/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds client-related information for request tracking
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToAuthUserDTO converts a user model to AuthUserDTO for authentication responses
func ToAuthUserDTO(user models.User) dto.AuthUserDTO {
	return dto.AuthUserDTO{
		ID:        user.ID.Hex(),
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// ToPacingTargetDTO converts a pacing target model to its API representation
func ToPacingTargetDTO(target models.PacingTarget) dto.PacingTargetDTO {
	return dto.PacingTargetDTO{
		ID:               target.ID.Hex(),
		ClientName:       target.ClientName,
		ClientSubgroupID: target.ClientSubgroupID,
		TagName:          target.TagName,
		Channel:          target.Channel,
		TagType:          target.TagType,
		TagID:            target.TagID,
		Month:            target.Month,
		SpendsTarget:     target.SpendsTarget,
		Status:           target.Status,
		CreatedBy:        target.CreatedBy,
		ModifiedBy:       target.ModifiedBy,
		LastModified:     target.LastModified,
		CreatedAt:        target.CreatedAt,
		UpdatedAt:        target.UpdatedAt,
	}
}

// ToTagDTO converts a reference tag to its API representation
func ToTagDTO(tag models.TagMaster) dto.TagDTO {
	return dto.TagDTO{
		ClientSubgroupID: tag.ClientSubgroupID,
		TagID:            tag.TagID,
		TagTypeID:        tag.TagTypeID,
		TagName:          tag.TagName,
		TagHeader:        tag.TagHeader(),
	}
}

// ToClientDTO converts a client subgroup to its API representation
func ToClientDTO(client models.ClientSubgroup) dto.ClientDTO {
	return dto.ClientDTO{
		ID:   client.ID,
		Name: client.ClientSubgroupName,
	}
}
