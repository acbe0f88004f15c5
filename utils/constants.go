package utils

// Token and session time constants
const (
	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds (86400 seconds = 24 hours)
	AccessTokenTTLSeconds = 86400
)

// Cache key constants
const (
	// ClientListCacheKey stores the serialized client subgroup list
	ClientListCacheKey = "clients:list"
)

// Month formatting constants
const (
	// MonthLayout is the canonical storage format for a pacing month ("2006-01" -> "2025-03")
	MonthLayout = "2006-01"
)
