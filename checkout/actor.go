package checkout

import "slices"

// Permission scopes carried in access tokens
const (
	ScopeAccessCheckout  = "access:checkout"
	ScopeAdministerOrder = "administer:orders"
)

// Actor is whoever is driving the checkout: an authenticated user or an
// anonymous visitor identified by a session token
type Actor struct {
	UserID       uint
	Scopes       []string
	SessionToken string
}

// IsAnonymous reports whether the actor has no user account
func (a Actor) IsAnonymous() bool {
	return a.UserID == 0
}

// HasPermission reports whether the actor holds the scope
func (a Actor) HasPermission(scope string) bool {
	return slices.Contains(a.Scopes, scope)
}

// IsOrderAdministrator reports whether the actor may check out any order
func (a Actor) IsOrderAdministrator() bool {
	return a.HasPermission(ScopeAccessCheckout) && a.HasPermission(ScopeAdministerOrder)
}

// UserRef returns the user id as a pointer, nil for anonymous actors
func (a Actor) UserRef() *uint {
	if a.IsAnonymous() {
		return nil
	}
	id := a.UserID
	return &id
}
