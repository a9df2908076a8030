package auth

import "time"

// Role represents a staff role. Roles form a strict hierarchy of
// organizational scope: an Officer sees only their own caseload, a
// LocalOfficeAdmin everything in their office, a RegionAdmin everything
// under their region, and a SuperAdmin everything.
type Role string

const (
	RoleOfficer          Role = "officer"
	RoleLocalOfficeAdmin Role = "local_office_admin"
	RoleRegionAdmin      Role = "region_admin"
	RoleSuperAdmin       Role = "super_admin"
)

// Rank returns the position of the role in the scope hierarchy.
// Higher rank means wider scope. Unknown roles rank below Officer so
// that comparisons against them fail closed.
func (r Role) Rank() int {
	switch r {
	case RoleOfficer:
		return 1
	case RoleLocalOfficeAdmin:
		return 2
	case RoleRegionAdmin:
		return 3
	case RoleSuperAdmin:
		return 4
	default:
		return 0
	}
}

// Valid reports whether the role is one of the four known roles
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// Principal is the authenticated identity attached to a request after
// token verification. It lives for the duration of one request and is
// never persisted.
type Principal struct {
	ID            int64  `json:"id"`
	Role          Role   `json:"role"`
	LocalOfficeID *int64 `json:"local_office_id,omitempty"`
	RegionID      *int64 `json:"region_id,omitempty"`
}

// EmploymentStatus tracks whether a staff member is still in service
type EmploymentStatus string

const (
	EmploymentActive      EmploymentStatus = "active"
	EmploymentTransferred EmploymentStatus = "transferred"
	EmploymentRetired     EmploymentStatus = "retired"
	EmploymentOther       EmploymentStatus = "other"
)

// User represents a staff account as stored. The password hash is never
// serialized.
type User struct {
	ID               int64            `json:"id"`
	EmployeeNo       string           `json:"employee_no"`
	Name             string           `json:"name"`
	TitlePrefix      *string          `json:"title_prefix,omitempty"`
	TitleSuffix      *string          `json:"title_suffix,omitempty"`
	RankGrade        *string          `json:"rank_grade,omitempty"`
	Position         *string          `json:"position,omitempty"`
	LocalOfficeID    *int64           `json:"local_office_id,omitempty"`
	RegionID         *int64           `json:"region_id,omitempty"`
	EmploymentStatus EmploymentStatus `json:"employment_status"`
	Email            *string          `json:"email,omitempty"`
	Phone            *string          `json:"phone,omitempty"`
	Active           bool             `json:"active"`
	Role             Role             `json:"role"`
	PasswordHash     string           `json:"-"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	CreatedBy        *int64           `json:"created_by,omitempty"`
	UpdatedBy        *int64           `json:"updated_by,omitempty"`
	DeletedAt        *time.Time       `json:"deleted_at,omitempty"`
}

// Principal derives the request principal for this user
func (u *User) Principal() Principal {
	return Principal{
		ID:            u.ID,
		Role:          u.Role,
		LocalOfficeID: u.LocalOfficeID,
		RegionID:      u.RegionID,
	}
}
