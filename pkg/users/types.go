package users

import "github.com/caseflow-io/caseflow/pkg/auth"

// CreateUserRequest is the payload for creating a staff account
type CreateUserRequest struct {
	EmployeeNo    string    `json:"employee_no" validate:"required,min=3,max=50"`
	Name          string    `json:"name" validate:"required,min=2,max=200"`
	TitlePrefix   *string   `json:"title_prefix,omitempty"`
	TitleSuffix   *string   `json:"title_suffix,omitempty"`
	RankGrade     *string   `json:"rank_grade,omitempty"`
	Position      *string   `json:"position,omitempty"`
	LocalOfficeID *int64    `json:"local_office_id,omitempty"`
	RegionID      *int64    `json:"region_id,omitempty"`
	Email         *string   `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string   `json:"phone,omitempty"`
	Role          auth.Role `json:"role" validate:"required"`
	Password      string    `json:"password" validate:"required,min=8"`
}

// UpdateUserRequest is a partial update; only set fields change
type UpdateUserRequest struct {
	Name             *string                `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	TitlePrefix      *string                `json:"title_prefix,omitempty"`
	TitleSuffix      *string                `json:"title_suffix,omitempty"`
	RankGrade        *string                `json:"rank_grade,omitempty"`
	Position         *string                `json:"position,omitempty"`
	LocalOfficeID    *int64                 `json:"local_office_id,omitempty"`
	RegionID         *int64                 `json:"region_id,omitempty"`
	EmploymentStatus *auth.EmploymentStatus `json:"employment_status,omitempty"`
	Email            *string                `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string                `json:"phone,omitempty"`
	Active           *bool                  `json:"active,omitempty"`
	Role             *auth.Role             `json:"role,omitempty"`
	Password         *string                `json:"password,omitempty" validate:"omitempty,min=8"`
}

// ListFilter narrows the user list
type ListFilter struct {
	LocalOfficeID *int64
	RegionID      *int64
	Role          *auth.Role
}
