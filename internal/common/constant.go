package common

// AccessTokenHeaderName is the gRPC metadata key carrying the access token.
const AccessTokenHeaderName = "access_token"

// MinAutocompleteQueryLen is the shortest ingredient search query that
// produces results.
const MinAutocompleteQueryLen = 2

// MaxAutocompleteResults caps ingredient search results.
const MaxAutocompleteResults = 10
