package authz

import (
	"errors"

	"github.com/caseflow-io/caseflow/pkg/auth"
)

var (
	// ErrNotFound means the resource (or a resolvable parent) does not
	// exist or is soft-deleted.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden means the resource exists but the principal's role
	// and ownership do not satisfy the active access variant.
	ErrForbidden = errors.New("access denied")
)

// Ownership is the minimal tuple needed to authorize access to a
// resource. It is derived fresh per decision and never persisted.
type Ownership struct {
	LocalOfficeID     *int64
	RegionID          *int64
	AssignedOfficerID *int64
}

// AccessVariant names the authorization policy for an operation. The
// three variants encode distinct organizational policies and must not
// be collapsed: an officer can record a check-in for any client in
// their office but only open full case files for clients personally
// assigned to them, and can never delete a check-in at all.
type AccessVariant int

const (
	// AccessStandard is the ownership check for generic read, update
	// and delete of clients and organizational units.
	AccessStandard AccessVariant = iota

	// AccessOfficeWide broadens Officer access to the whole local
	// office. Used for check-in recording and viewing.
	AccessOfficeWide

	// AccessDeleteRestricted denies Officer unconditionally. Used for
	// destructive operations on check-ins.
	AccessDeleteRestricted
)

func (v AccessVariant) String() string {
	switch v {
	case AccessStandard:
		return "standard"
	case AccessOfficeWide:
		return "office_wide"
	case AccessDeleteRestricted:
		return "delete_restricted"
	default:
		return "unknown"
	}
}

// IsAuthorized decides whether the principal may act on a resource
// with the given ownership under the given variant. Pure and
// deterministic. Any nil organizational field relevant to a comparison
// denies; unknown roles deny.
func IsAuthorized(p auth.Principal, o Ownership, v AccessVariant) bool {
	switch p.Role {
	case auth.RoleSuperAdmin:
		return true
	case auth.RoleRegionAdmin:
		return p.RegionID != nil && o.RegionID != nil && *p.RegionID == *o.RegionID
	case auth.RoleLocalOfficeAdmin:
		return sameOffice(p, o)
	case auth.RoleOfficer:
		switch v {
		case AccessOfficeWide:
			return sameOffice(p, o)
		case AccessDeleteRestricted:
			return false
		default:
			return o.AssignedOfficerID != nil && *o.AssignedOfficerID == p.ID
		}
	default:
		return false
	}
}

// DecisionRecorder observes authorization outcomes, keyed by variant
// name. Implementations must not block: decisions run on the request
// path.
type DecisionRecorder interface {
	RecordAuthzDecision(variant string, allowed bool)
}

// Decide evaluates IsAuthorized and reports the outcome to rec. A nil
// rec skips recording; the decision itself is unaffected.
func Decide(p auth.Principal, o Ownership, v AccessVariant, rec DecisionRecorder) bool {
	allowed := IsAuthorized(p, o, v)
	if rec != nil {
		rec.RecordAuthzDecision(v.String(), allowed)
	}
	return allowed
}

func sameOffice(p auth.Principal, o Ownership) bool {
	return p.LocalOfficeID != nil && o.LocalOfficeID != nil && *p.LocalOfficeID == *o.LocalOfficeID
}
