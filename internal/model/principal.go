package model

// Principal is the authenticated actor performing an operation. It is
// produced by the bearer-token middleware; account management and token
// issuance live outside this service.
type Principal struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	IsStaff         bool   `json:"is_staff"`
	IsSuperuser     bool   `json:"is_superuser"`
	IsAuthenticated bool   `json:"-"`
}

// Elevated reports whether the principal holds staff or superuser rights.
func (p Principal) Elevated() bool {
	return p.IsStaff || p.IsSuperuser
}
