package domain

// Identity is the authenticated caller attached to a request or a
// realtime connection after the token has passed signature, expiry and
// revocation checks. TokenID is the jti of the presented token so the
// session can be revoked individually on logout.
type Identity struct {
	UserID    int64
	FirstName string
	LastName  string
	Email     string
	Role      Role
	TokenID   string
}

// IsAdmin reports whether the identity belongs to the administrative group.
func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
