package clients

import "time"

// Client is a case record for a person under supervision
type Client struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Gender              *string    `json:"gender,omitempty"`
	BirthPlace          *string    `json:"birth_place,omitempty"`
	BirthDate           *time.Time `json:"birth_date,omitempty"`
	Address             *string    `json:"address,omitempty"`
	Phone               *string    `json:"phone,omitempty"`
	NationalID          *string    `json:"national_id,omitempty"`
	CaseNumber          *string    `json:"case_number,omitempty"`
	SupervisionCategory *string    `json:"supervision_category,omitempty"`
	Status              string     `json:"status"`
	AssignedOfficerID   int64      `json:"assigned_officer_id"`
	LocalOfficeID       int64      `json:"local_office_id"`
	RegionID            *int64     `json:"region_id,omitempty"`
	OnlineAccess        bool       `json:"online_access"`
	PinHash             *string    `json:"-"`
	PhotoPath           *string    `json:"photo_path,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	CreatedBy           *int64     `json:"created_by,omitempty"`
	UpdatedBy           *int64     `json:"updated_by,omitempty"`
}

// CreateClientRequest is the payload for opening a case record. The
// owning office and region are never taken from the caller; they are
// derived from the assigned officer.
type CreateClientRequest struct {
	Name                string     `json:"name" validate:"required,min=2,max=200"`
	Gender              *string    `json:"gender,omitempty"`
	BirthPlace          *string    `json:"birth_place,omitempty"`
	BirthDate           *time.Time `json:"birth_date,omitempty"`
	Address             *string    `json:"address,omitempty"`
	Phone               *string    `json:"phone,omitempty"`
	NationalID          *string    `json:"national_id,omitempty"`
	CaseNumber          *string    `json:"case_number,omitempty"`
	SupervisionCategory *string    `json:"supervision_category,omitempty"`
	AssignedOfficerID   int64      `json:"assigned_officer_id" validate:"required,gt=0"`
}

// UpdateClientRequest is a partial update; only set fields change
type UpdateClientRequest struct {
	Name                *string    `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Gender              *string    `json:"gender,omitempty"`
	BirthPlace          *string    `json:"birth_place,omitempty"`
	BirthDate           *time.Time `json:"birth_date,omitempty"`
	Address             *string    `json:"address,omitempty"`
	Phone               *string    `json:"phone,omitempty"`
	NationalID          *string    `json:"national_id,omitempty"`
	CaseNumber          *string    `json:"case_number,omitempty"`
	SupervisionCategory *string    `json:"supervision_category,omitempty"`
	Status              *string    `json:"status,omitempty"`
	AssignedOfficerID   *int64     `json:"assigned_officer_id,omitempty" validate:"omitempty,gt=0"`
	PhotoPath           *string    `json:"photo_path,omitempty"`
}

// UpdateAccessRequest toggles unattended remote check-in for a client
// and optionally rotates their PIN.
type UpdateAccessRequest struct {
	OnlineAccess *bool   `json:"online_access,omitempty"`
	PIN          *string `json:"pin,omitempty" validate:"omitempty,len=6,numeric"`
}

// ListFilter narrows the client list. Filters only ever narrow the
// role-derived scope.
type ListFilter struct {
	AssignedOfficerID *int64
	LocalOfficeID     *int64
	RegionID          *int64
	Status            *string
	Search            *string
}

// Intake records the formal acceptance of a client into supervision
type Intake struct {
	ID               int64      `json:"id"`
	ClientID         int64      `json:"client_id"`
	IntakeDate       *time.Time `json:"intake_date,omitempty"`
	CaseNumber       *string    `json:"case_number,omitempty"`
	DecisionNumber   *string    `json:"decision_number,omitempty"`
	SupervisionStart *time.Time `json:"supervision_start,omitempty"`
	SupervisionEnd   *time.Time `json:"supervision_end,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IntakeRequest creates or patches an intake record
type IntakeRequest struct {
	IntakeDate       *time.Time `json:"intake_date,omitempty"`
	CaseNumber       *string    `json:"case_number,omitempty"`
	DecisionNumber   *string    `json:"decision_number,omitempty"`
	SupervisionStart *time.Time `json:"supervision_start,omitempty"`
	SupervisionEnd   *time.Time `json:"supervision_end,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

// LegalHistory records a prior offense and its verdict
type LegalHistory struct {
	ID           int64      `json:"id"`
	ClientID     int64      `json:"client_id"`
	Offense      *string    `json:"offense,omitempty"`
	Verdict      *string    `json:"verdict,omitempty"`
	Institution  *string    `json:"institution,omitempty"`
	DecisionDate *time.Time `json:"decision_date,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// LegalHistoryRequest creates or patches a legal history record
type LegalHistoryRequest struct {
	Offense      *string    `json:"offense,omitempty"`
	Verdict      *string    `json:"verdict,omitempty"`
	Institution  *string    `json:"institution,omitempty"`
	DecisionDate *time.Time `json:"decision_date,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// ReintegrationService records a program the client participates in
type ReintegrationService struct {
	ID        int64      `json:"id"`
	ClientID  int64      `json:"client_id"`
	Program   *string    `json:"program,omitempty"`
	Provider  *string    `json:"provider,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Outcome   *string    `json:"outcome,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ReintegrationServiceRequest creates or patches a reintegration record
type ReintegrationServiceRequest struct {
	Program   *string    `json:"program,omitempty"`
	Provider  *string    `json:"provider,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Outcome   *string    `json:"outcome,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

// LegalProcess tracks a court proceeding attached to an intake
type LegalProcess struct {
	ID          int64      `json:"id"`
	IntakeID    int64      `json:"intake_id"`
	Stage       *string    `json:"stage,omitempty"`
	Court       *string    `json:"court,omitempty"`
	HearingDate *time.Time `json:"hearing_date,omitempty"`
	Outcome     *string    `json:"outcome,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// LegalProcessRequest creates or patches a legal process record
type LegalProcessRequest struct {
	Stage       *string    `json:"stage,omitempty"`
	Court       *string    `json:"court,omitempty"`
	HearingDate *time.Time `json:"hearing_date,omitempty"`
	Outcome     *string    `json:"outcome,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// CheckInMethod distinguishes how a check-in was recorded
type CheckInMethod string

const (
	// CheckInMethodOfficer is a check-in entered by staff, possibly
	// for any client of their office (walk-in coverage).
	CheckInMethodOfficer CheckInMethod = "officer"
	// CheckInMethodKiosk is a self-service check-in at an office
	// terminal under a staff session.
	CheckInMethodKiosk CheckInMethod = "kiosk"
	// CheckInMethodRemote is an unattended check-in authenticated by
	// the client's PIN.
	CheckInMethodRemote CheckInMethod = "remote"
)

// CheckIn is one mandatory reporting event
type CheckIn struct {
	ID          int64         `json:"id"`
	ClientID    int64         `json:"client_id"`
	Method      CheckInMethod `json:"method"`
	CheckedInAt time.Time     `json:"checked_in_at"`
	PhotoPath   *string       `json:"photo_path,omitempty"`
	Latitude    *float64      `json:"latitude,omitempty"`
	Longitude   *float64      `json:"longitude,omitempty"`
	Notes       *string       `json:"notes,omitempty"`
	RecordedBy  *int64        `json:"recorded_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// CheckInRequest is the payload for recording a check-in
type CheckInRequest struct {
	PhotoPath *string  `json:"photo_path,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Notes     *string  `json:"notes,omitempty"`
}

// RemoteCheckInRequest is the public unattended check-in payload
type RemoteCheckInRequest struct {
	PIN       string   `json:"pin" validate:"required"`
	PhotoPath *string  `json:"photo_path,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Notes     *string  `json:"notes,omitempty"`
}
