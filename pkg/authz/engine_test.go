package authz

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/caseflow-io/caseflow/pkg/auth"
)

func int64Ptr(v int64) *int64 { return &v }

func TestIsAuthorizedStandard(t *testing.T) {
	tests := []struct {
		name      string
		principal auth.Principal
		ownership Ownership
		want      bool
	}{
		{
			name:      "super admin always allowed",
			principal: auth.Principal{ID: 1, Role: auth.RoleSuperAdmin},
			ownership: Ownership{},
			want:      true,
		},
		{
			name:      "region admin matching region",
			principal: auth.Principal{ID: 2, Role: auth.RoleRegionAdmin, RegionID: int64Ptr(5)},
			ownership: Ownership{RegionID: int64Ptr(5), LocalOfficeID: int64Ptr(12), AssignedOfficerID: int64Ptr(99)},
			want:      true,
		},
		{
			name:      "region admin wrong region",
			principal: auth.Principal{ID: 2, Role: auth.RoleRegionAdmin, RegionID: int64Ptr(5)},
			ownership: Ownership{RegionID: int64Ptr(6), LocalOfficeID: int64Ptr(12), AssignedOfficerID: int64Ptr(99)},
			want:      false,
		},
		{
			name:      "region admin without region denied",
			principal: auth.Principal{ID: 2, Role: auth.RoleRegionAdmin},
			ownership: Ownership{RegionID: int64Ptr(5)},
			want:      false,
		},
		{
			name:      "region admin against ownership without region denied",
			principal: auth.Principal{ID: 2, Role: auth.RoleRegionAdmin, RegionID: int64Ptr(5)},
			ownership: Ownership{LocalOfficeID: int64Ptr(12)},
			want:      false,
		},
		{
			name:      "office admin matching office",
			principal: auth.Principal{ID: 3, Role: auth.RoleLocalOfficeAdmin, LocalOfficeID: int64Ptr(7)},
			ownership: Ownership{LocalOfficeID: int64Ptr(7), AssignedOfficerID: int64Ptr(99)},
			want:      true,
		},
		{
			name:      "office admin wrong office",
			principal: auth.Principal{ID: 3, Role: auth.RoleLocalOfficeAdmin, LocalOfficeID: int64Ptr(7)},
			ownership: Ownership{LocalOfficeID: int64Ptr(8)},
			want:      false,
		},
		{
			name:      "office admin without office denied",
			principal: auth.Principal{ID: 3, Role: auth.RoleLocalOfficeAdmin},
			ownership: Ownership{LocalOfficeID: int64Ptr(7)},
			want:      false,
		},
		{
			name:      "officer assigned to client",
			principal: auth.Principal{ID: 42, Role: auth.RoleOfficer, LocalOfficeID: int64Ptr(7)},
			ownership: Ownership{LocalOfficeID: int64Ptr(7), AssignedOfficerID: int64Ptr(42)},
			want:      true,
		},
		{
			name:      "officer not assigned even in same office",
			principal: auth.Principal{ID: 42, Role: auth.RoleOfficer, LocalOfficeID: int64Ptr(7)},
			ownership: Ownership{LocalOfficeID: int64Ptr(7), AssignedOfficerID: int64Ptr(999)},
			want:      false,
		},
		{
			name:      "officer against ownership without assignment denied",
			principal: auth.Principal{ID: 42, Role: auth.RoleOfficer, LocalOfficeID: int64Ptr(7)},
			ownership: Ownership{LocalOfficeID: int64Ptr(7)},
			want:      false,
		},
		{
			name:      "unknown role denied",
			principal: auth.Principal{ID: 9, Role: auth.Role("chief"), LocalOfficeID: int64Ptr(7), RegionID: int64Ptr(5)},
			ownership: Ownership{LocalOfficeID: int64Ptr(7), RegionID: int64Ptr(5), AssignedOfficerID: int64Ptr(9)},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthorized(tt.principal, tt.ownership, AccessStandard))
		})
	}
}

func TestIsAuthorizedOfficeWide(t *testing.T) {
	officer := auth.Principal{ID: 42, Role: auth.RoleOfficer, LocalOfficeID: int64Ptr(7)}

	// not their client, same office: broadened variant allows, standard denies
	own := Ownership{LocalOfficeID: int64Ptr(7), AssignedOfficerID: int64Ptr(999)}
	assert.True(t, IsAuthorized(officer, own, AccessOfficeWide))
	assert.False(t, IsAuthorized(officer, own, AccessStandard))

	// different office denies under both
	other := Ownership{LocalOfficeID: int64Ptr(8), AssignedOfficerID: int64Ptr(999)}
	assert.False(t, IsAuthorized(officer, other, AccessOfficeWide))
	assert.False(t, IsAuthorized(officer, other, AccessStandard))

	// officer with no office fails closed
	detached := auth.Principal{ID: 42, Role: auth.RoleOfficer}
	assert.False(t, IsAuthorized(detached, own, AccessOfficeWide))

	// admins behave identically to the standard variant
	admin := auth.Principal{ID: 3, Role: auth.RoleLocalOfficeAdmin, LocalOfficeID: int64Ptr(7)}
	assert.True(t, IsAuthorized(admin, own, AccessOfficeWide))
}

func TestIsAuthorizedDeleteRestricted(t *testing.T) {
	// officer denied even for their own client
	officer := auth.Principal{ID: 42, Role: auth.RoleOfficer, LocalOfficeID: int64Ptr(7)}
	own := Ownership{LocalOfficeID: int64Ptr(7), AssignedOfficerID: int64Ptr(42)}
	assert.True(t, IsAuthorized(officer, own, AccessStandard))
	assert.False(t, IsAuthorized(officer, own, AccessDeleteRestricted))

	// higher roles unaffected
	admin := auth.Principal{ID: 3, Role: auth.RoleLocalOfficeAdmin, LocalOfficeID: int64Ptr(7)}
	assert.True(t, IsAuthorized(admin, own, AccessDeleteRestricted))

	regAdmin := auth.Principal{ID: 4, Role: auth.RoleRegionAdmin, RegionID: int64Ptr(5)}
	assert.True(t, IsAuthorized(regAdmin, Ownership{RegionID: int64Ptr(5)}, AccessDeleteRestricted))

	super := auth.Principal{ID: 5, Role: auth.RoleSuperAdmin}
	assert.True(t, IsAuthorized(super, own, AccessDeleteRestricted))
}

// Scope must be monotonic over role rank: whenever a lower role is
// allowed, every higher role whose comparison field is present on the
// ownership is also allowed. A higher role whose field is absent fails
// closed no matter what the lower role decided, so those pairs are
// outside the property. Random search for counterexamples.
func TestScopeMonotonicOverRank(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	roles := []auth.Role{auth.RoleOfficer, auth.RoleLocalOfficeAdmin, auth.RoleRegionAdmin, auth.RoleSuperAdmin}
	variants := []AccessVariant{AccessStandard, AccessOfficeWide, AccessDeleteRestricted}

	maybeID := func() *int64 {
		if rng.Intn(4) == 0 {
			return nil
		}
		return int64Ptr(int64(rng.Intn(3) + 1))
	}

	for i := 0; i < 2000; i++ {
		own := Ownership{
			LocalOfficeID:     maybeID(),
			RegionID:          maybeID(),
			AssignedOfficerID: maybeID(),
		}
		id := int64(rng.Intn(3) + 1)
		if own.AssignedOfficerID != nil && rng.Intn(2) == 0 {
			id = *own.AssignedOfficerID
		}
		v := variants[rng.Intn(len(variants))]

		for lower := 0; lower < len(roles)-1; lower++ {
			p := auth.Principal{ID: id, Role: roles[lower], LocalOfficeID: own.LocalOfficeID, RegionID: own.RegionID}
			if !IsAuthorized(p, own, v) {
				continue
			}
			for higher := lower + 1; higher < len(roles); higher++ {
				if roles[higher] == auth.RoleLocalOfficeAdmin && own.LocalOfficeID == nil {
					continue
				}
				if roles[higher] == auth.RoleRegionAdmin && own.RegionID == nil {
					continue
				}
				up := p
				up.Role = roles[higher]
				assert.True(t, IsAuthorized(up, own, v),
					"role %s allowed but %s denied for ownership %+v variant %s",
					roles[lower], roles[higher], own, v)
			}
		}
	}
}

// The decision must be pure: identical inputs, identical results.
func TestDecisionIdempotent(t *testing.T) {
	p := auth.Principal{ID: 42, Role: auth.RoleOfficer, LocalOfficeID: int64Ptr(7)}
	own := Ownership{LocalOfficeID: int64Ptr(7), AssignedOfficerID: int64Ptr(42)}
	for _, v := range []AccessVariant{AccessStandard, AccessOfficeWide, AccessDeleteRestricted} {
		first := IsAuthorized(p, own, v)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, IsAuthorized(p, own, v))
		}
	}
}

type recordedDecision struct {
	variant string
	allowed bool
}

type fakeRecorder struct {
	decisions []recordedDecision
}

func (f *fakeRecorder) RecordAuthzDecision(variant string, allowed bool) {
	f.decisions = append(f.decisions, recordedDecision{variant, allowed})
}

func TestDecideReportsOutcome(t *testing.T) {
	rec := &fakeRecorder{}
	officer := auth.Principal{ID: 42, Role: auth.RoleOfficer, LocalOfficeID: int64Ptr(7)}
	own := Ownership{LocalOfficeID: int64Ptr(7), AssignedOfficerID: int64Ptr(43)}

	assert.False(t, Decide(officer, own, AccessStandard, rec))
	assert.True(t, Decide(officer, own, AccessOfficeWide, rec))

	assert.Equal(t, []recordedDecision{
		{"standard", false},
		{"office_wide", true},
	}, rec.decisions)

	// nil recorder only skips reporting
	assert.True(t, Decide(officer, own, AccessOfficeWide, nil))
}

func TestAccessVariantString(t *testing.T) {
	assert.Equal(t, "standard", AccessStandard.String())
	assert.Equal(t, "office_wide", AccessOfficeWide.String())
	assert.Equal(t, "delete_restricted", AccessDeleteRestricted.String())
	assert.Equal(t, "unknown", AccessVariant(99).String())
}
