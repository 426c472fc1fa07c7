package domain

// Identity is the claim set shared between the token service, the RBAC
// evaluator and the auth flows. It replaces passing whole User records (or
// loose field bags) across component boundaries.
type Identity struct {
	UserID string
	Email  string
	Roles  []string // role names
}
