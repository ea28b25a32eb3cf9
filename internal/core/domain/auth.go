package domain

// TokenClaims holds the claims carried by an admin API token.
type TokenClaims struct {
	Subject   string `json:"subject"`
	Admin     bool   `json:"admin"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// AuthContext is the authenticated identity attached to a request.
type AuthContext struct {
	Subject string `json:"subject"`
	Admin   bool   `json:"admin"`
}

// IsAdmin reports whether the caller may trigger pipeline operations.
func (a *AuthContext) IsAdmin() bool {
	return a != nil && a.Admin
}
