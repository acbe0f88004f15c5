// Package models contains domain entities and business models for the pacing targets system
package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Tag types a pacing target can be scoped to
const (
	TagTypeCategory    = "Category"
	TagTypeSubCategory = "Sub Category"
	TagTypeAccount     = "Account"
)

// Tag master type ids mapped to tag type labels
const (
	TagTypeIDCategory    = 1
	TagTypeIDSubCategory = 2
)

// AccountTagID is the synthetic tag id used for account-level targets.
// Account targets are not backed by a tag master row.
const AccountTagID = 0

// ValidChannels is the closed set of advertising channel ids a target may
// reference.
var ValidChannels = []int{1, 2, 27, 65, 109}

// IsValidChannel reports whether the given channel id belongs to the allow-list.
func IsValidChannel(channel int) bool {
	for _, c := range ValidChannels {
		if c == channel {
			return true
		}
	}
	return false
}

// IsValidTagType reports whether the given label is a recognized tag type.
func IsValidTagType(tagType string) bool {
	switch tagType {
	case TagTypeCategory, TagTypeSubCategory, TagTypeAccount:
		return true
	}
	return false
}

// CanonicalMonth renders a month/year pair in the canonical "YYYY-MM" storage
// format, e.g. (3, 2025) -> "2025-03".
func CanonicalMonth(month, year int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// PacingTarget is a monthly spend goal for a client subgroup on a channel,
// scoped to a tag. Stored in the pacing_targets collection.
// Unique by (client_subgroup_id, channel, tag_type, tag_id, month).
type PacingTarget struct {
	ID               bson.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientName       string        `bson:"clientName" json:"clientName"`
	ClientSubgroupID int64         `bson:"clientSubgroupId" json:"clientSubgroupId"`
	TagName          string        `bson:"tagName" json:"tagName"`
	Channel          int           `bson:"channel" json:"channel"`
	TagType          string        `bson:"tagType" json:"tagType"`
	TagID            int64         `bson:"tagId" json:"tagId"`
	Month            string        `bson:"month" json:"month"` // "YYYY-MM"
	SpendsTarget     float64       `bson:"spendsTarget" json:"spendsTarget"`
	Status           bool          `bson:"status" json:"status"`
	CreatedBy        string        `bson:"createdBy" json:"createdBy"`
	ModifiedBy       string        `bson:"modifiedBy" json:"modifiedBy"`
	LastModified     time.Time     `bson:"lastModified" json:"lastModified"`
	CreatedAt        time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// UniquenessKey identifies the tuple a pacing target must be unique by.
type UniquenessKey struct {
	ClientSubgroupID int64
	Channel          int
	TagType          string
	TagID            int64
	Month            string
}

// Key returns the uniqueness tuple of the target.
func (t *PacingTarget) Key() UniquenessKey {
	return UniquenessKey{
		ClientSubgroupID: t.ClientSubgroupID,
		Channel:          t.Channel,
		TagType:          t.TagType,
		TagID:            t.TagID,
		Month:            t.Month,
	}
}

// IsAccount reports whether the target is scoped at the account level.
func (t *PacingTarget) IsAccount() bool {
	return t.TagType == TagTypeAccount
}

// PacingTargetFilter represents filter criteria for pacing target queries
type PacingTargetFilter struct {
	ID               *bson.ObjectID
	ClientSubgroupID *int64
	Channel          *int
	TagType          *string
	TagID            *int64
	Month            *string
	Status           *bool
	Search           *string // case-insensitive substring match on tag name
}
