package auth

import "github.com/pizzafoundry/pizza-service/internal/apperr"

type reqKind int

const (
	reqSelf reqKind = iota
	reqGlobalAdmin
	reqFranchiseAdmin
)

// Requirement is one of a closed set of capability checks: acting on one's
// own record, holding the global admin role, or administering a specific
// franchise.
type Requirement struct {
	kind        reqKind
	userID      int64
	franchiseID int64
}

// Self requires the identity to be the target user.
func Self(userID int64) Requirement {
	return Requirement{kind: reqSelf, userID: userID}
}

// GlobalAdmin requires the global admin role.
func GlobalAdmin() Requirement {
	return Requirement{kind: reqGlobalAdmin}
}

// FranchiseAdmin requires a franchisee role scoped to exactly this
// franchise.
func FranchiseAdmin(franchiseID int64) Requirement {
	return Requirement{kind: reqFranchiseAdmin, franchiseID: franchiseID}
}

// Authorize evaluates the requirement against an authenticated identity.
// Global admins satisfy every requirement. Denial is always the same
// uniform error so a caller cannot learn whether the target resource exists.
func Authorize(id *Identity, req Requirement) error {
	if id == nil {
		return apperr.New(apperr.Unauthorized, "unauthorized")
	}
	if id.IsAdmin() {
		return nil
	}
	switch req.kind {
	case reqSelf:
		if id.UserID == req.userID {
			return nil
		}
	case reqFranchiseAdmin:
		if id.IsFranchiseAdmin(req.franchiseID) {
			return nil
		}
	}
	return apperr.New(apperr.Forbidden, "unauthorized")
}
