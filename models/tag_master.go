package models

// TagMaster is a read-only reference row describing an active tag a client
// subgroup may pace against.
// Table: revinity.tag_master
type TagMaster struct {
	ClientSubgroupID int64  `gorm:"column:client_subgroup_id;primaryKey" json:"client_subgroup_id"`
	TagID            int64  `gorm:"column:tag_id;primaryKey" json:"tag_id"`
	TagTypeID        int    `gorm:"column:tag_type_id" json:"tag_type_id"`
	TagName          string `gorm:"column:tag_name" json:"tag_name"`
	IsActive         bool   `gorm:"column:is_active" json:"-"`
}

func (TagMaster) TableName() string { return "revinity.tag_master" }

// TagHeader maps the numeric tag type to its display label. Unknown type ids
// yield an empty header, matching the reference SQL CASE expression.
func (t *TagMaster) TagHeader() string {
	switch t.TagTypeID {
	case TagTypeIDCategory:
		return TagTypeCategory
	case TagTypeIDSubCategory:
		return TagTypeSubCategory
	}
	return ""
}

// TagMasterFilter represents filter criteria for tag master queries
type TagMasterFilter struct {
	ClientSubgroupID *int64
	TagID            *int64
	TagTypeID        *int
	TagTypeIDs       []int
	TagName          *string
	NameContains     *string // case-insensitive substring match
	IsActive         *bool
}
