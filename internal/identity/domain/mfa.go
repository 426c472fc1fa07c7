package domain

// MFAEnrollment is returned by MFA setup so the user can provision an
// authenticator app.
type MFAEnrollment struct {
	Secret string `json:"secret"`  // base32 encoded shared secret
	URI    string `json:"otpauth"` // otpauth:// provisioning URI
}

// LoginResult is the orchestrator's login outcome. Exactly one of the two
// shapes is populated: a token pair, or a pending MFA challenge carrying the
// user id and no tokens.
type LoginResult struct {
	MFARequired bool       `json:"mfa_required"`
	UserID      string     `json:"user_id,omitempty"`
	Tokens      *TokenPair `json:"tokens,omitempty"`
}
