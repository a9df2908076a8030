package directory

import "time"

// Region is a top-level organizational unit
type Region struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Address    *string    `json:"address,omitempty"`
	City       *string    `json:"city,omitempty"`
	Province   *string    `json:"province,omitempty"`
	PostalCode *string    `json:"postal_code,omitempty"`
	Phone      *string    `json:"phone,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// LocalOffice belongs to exactly one region
type LocalOffice struct {
	ID         int64      `json:"id"`
	RegionID   int64      `json:"region_id"`
	Name       string     `json:"name"`
	Address    *string    `json:"address,omitempty"`
	City       *string    `json:"city,omitempty"`
	Province   *string    `json:"province,omitempty"`
	PostalCode *string    `json:"postal_code,omitempty"`
	Phone      *string    `json:"phone,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// CreateRegionRequest is the payload for creating a region
type CreateRegionRequest struct {
	Name       string  `json:"name" validate:"required,min=2,max=200"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	Province   *string `json:"province,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

// UpdateRegionRequest is a partial update; only set fields change
type UpdateRegionRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	Province   *string `json:"province,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

// CreateLocalOfficeRequest is the payload for creating a local office
type CreateLocalOfficeRequest struct {
	RegionID   int64   `json:"region_id" validate:"required,gt=0"`
	Name       string  `json:"name" validate:"required,min=2,max=200"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	Province   *string `json:"province,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

// UpdateLocalOfficeRequest is a partial update; only set fields change
type UpdateLocalOfficeRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	Province   *string `json:"province,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}
