package apis

const (
	// HTTP Response Fields
	ETag = "ETag"

	APIVersion = "/api/v1"
)
