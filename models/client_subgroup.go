package models

// ClientSubgroup is a read-only reference row naming a client subgroup.
// Table: client_resource.client_subgroup_master
type ClientSubgroup struct {
	ID                 int64  `gorm:"column:id;primaryKey" json:"id"`
	ClientSubgroupName string `gorm:"column:client_subgroup_name" json:"client_subgroup_name"`
}

func (ClientSubgroup) TableName() string { return "client_resource.client_subgroup_master" }

// ClientSubgroupFilter represents filter criteria for client subgroup queries
type ClientSubgroupFilter struct {
	ID           *int64
	NameContains *string
}
