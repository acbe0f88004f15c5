// Package dto contains Data Transfer Objects for API request and response structures
package dto

// TagDTO represents a reference tag returned by the lookup endpoints
type TagDTO struct {
	ClientSubgroupID int64  `json:"client_subgroup_id" example:"5"`
	TagID            int64  `json:"tag_id" example:"10"`
	TagTypeID        int    `json:"tag_type_id" example:"1"`
	TagName          string `json:"tag_name" example:"Search"`
	TagHeader        string `json:"tag_header" example:"Category"`
}

// ClientDTO represents a client subgroup returned by the clients endpoint
type ClientDTO struct {
	ID   int64  `json:"id" example:"5"`
	Name string `json:"name" example:"Acme Retail"`
}

// TagListData carries a tag list plus its length
type TagListData struct {
	Tags  []TagDTO `json:"tags"`
	Total int      `json:"total" example:"17"`
}

// ClientListData carries the client list plus its length
type ClientListData struct {
	Clients []ClientDTO `json:"clients"`
	Total   int         `json:"total" example:"9"`
}

// Common error codes for tag lookup operations
const (
	ErrorCodeTagNotFound         = "TAG_NOT_FOUND"
	ErrorCodeSearchQueryTooShort = "SEARCH_QUERY_TOO_SHORT"
)
