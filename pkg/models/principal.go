package models

// API key scopes. A key only reaches the routes its scopes name.
const (
	ScopeRecommend = "recommend"
	ScopeHistory   = "history"
)

// KnownScopes lists every scope a key can be granted.
var KnownScopes = []string{ScopeRecommend, ScopeHistory}

// Principal is the authenticated caller, resolved by auth middleware.
type Principal struct {
	Email  string
	Scopes []string
}
