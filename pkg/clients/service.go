package clients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/caseflow-io/caseflow/pkg/audit"
	"github.com/caseflow-io/caseflow/pkg/auth"
	"github.com/caseflow-io/caseflow/pkg/authz"
	"github.com/caseflow-io/caseflow/pkg/directory"
	"github.com/caseflow-io/caseflow/pkg/httputil"
)

var validate = validator.New()

// Service implements case record operations with row-level authorization
type Service struct {
	db        *sql.DB
	resolver  *authz.Resolver
	dir       *directory.Service
	audit     audit.Logger
	decisions authz.DecisionRecorder
}

// NewService creates a client service. auditLog and decisions may be nil.
func NewService(db *sql.DB, resolver *authz.Resolver, dir *directory.Service, auditLog audit.Logger, decisions authz.DecisionRecorder) *Service {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &Service{db: db, resolver: resolver, dir: dir, audit: auditLog, decisions: decisions}
}

const clientColumns = `id, name, gender, birth_place, birth_date, address, phone,
	national_id, case_number, supervision_category, status, assigned_officer_id,
	local_office_id, region_id, online_access, pin_hash, photo_path,
	created_at, updated_at, created_by, updated_by`

func scanClient(row interface{ Scan(...interface{}) error }) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Gender, &c.BirthPlace, &c.BirthDate, &c.Address,
		&c.Phone, &c.NationalID, &c.CaseNumber, &c.SupervisionCategory, &c.Status,
		&c.AssignedOfficerID, &c.LocalOfficeID, &c.RegionID, &c.OnlineAccess,
		&c.PinHash, &c.PhotoPath, &c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// officerOrg maps an officer to the office and region a client assigned
// to them must carry. An unknown or deleted officer is a caller error,
// and an officer without an office cannot hold a caseload.
func (s *Service) officerOrg(ctx context.Context, officerID int64) (int64, *int64, error) {
	officeID, regionID, err := s.dir.OfficerOrg(ctx, officerID)
	if errors.Is(err, authz.ErrNotFound) {
		return 0, nil, fmt.Errorf("%w: assigned officer %d does not exist", httputil.ErrBadRequest, officerID)
	}
	if err != nil {
		return 0, nil, err
	}
	if officeID == nil {
		return 0, nil, fmt.Errorf("%w: assigned officer %d has no local office", httputil.ErrBadRequest, officerID)
	}
	return *officeID, regionID, nil
}

// Create opens a case record. The owning office and region come from
// the assigned officer, never from the request, and the caller must
// hold authority over that ownership before the row exists.
func (s *Service) Create(ctx context.Context, p auth.Principal, req CreateClientRequest) (*Client, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", httputil.ErrBadRequest, err)
	}

	officeID, regionID, err := s.officerOrg(ctx, req.AssignedOfficerID)
	if err != nil {
		return nil, err
	}

	own := authz.Ownership{
		LocalOfficeID:     &officeID,
		RegionID:          regionID,
		AssignedOfficerID: &req.AssignedOfficerID,
	}
	if !authz.Decide(p, own, authz.AccessStandard, s.decisions) {
		return nil, authz.ErrForbidden
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO clients (name, gender, birth_place, birth_date, address, phone,
			national_id, case_number, supervision_category, assigned_officer_id,
			local_office_id, region_id, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		 RETURNING `+clientColumns,
		req.Name, req.Gender, req.BirthPlace, req.BirthDate, req.Address, req.Phone,
		req.NationalID, req.CaseNumber, req.SupervisionCategory, req.AssignedOfficerID,
		officeID, regionID, p.ID)

	c, err := scanClient(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return c, nil
}

// Get returns one case record the principal is authorized to see
func (s *Service) Get(ctx context.Context, p auth.Principal, id int64) (*Client, error) {
	own, err := s.resolver.ResolveClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.Decide(p, own, authz.AccessStandard, s.decisions) {
		return nil, authz.ErrForbidden
	}
	return s.load(ctx, id)
}

// List returns case records inside the principal's scope. The scope
// filter is derived from the role; caller filters only narrow it.
func (s *Service) List(ctx context.Context, p auth.Principal, filter ListFilter, page httputil.Pagination) ([]*Client, error) {
	var (
		where = []string{"deleted_at IS NULL"}
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch p.Role {
	case auth.RoleSuperAdmin:
		// unscoped
	case auth.RoleRegionAdmin:
		if p.RegionID == nil {
			where = append(where, "1=0")
		} else {
			where = append(where, "region_id = "+arg(*p.RegionID))
		}
	case auth.RoleLocalOfficeAdmin:
		if p.LocalOfficeID == nil {
			where = append(where, "1=0")
		} else {
			where = append(where, "local_office_id = "+arg(*p.LocalOfficeID))
		}
	case auth.RoleOfficer:
		where = append(where, "assigned_officer_id = "+arg(p.ID))
	default:
		where = append(where, "1=0")
	}

	if filter.AssignedOfficerID != nil {
		where = append(where, "assigned_officer_id = "+arg(*filter.AssignedOfficerID))
	}
	if filter.LocalOfficeID != nil {
		where = append(where, "local_office_id = "+arg(*filter.LocalOfficeID))
	}
	if filter.RegionID != nil {
		where = append(where, "region_id = "+arg(*filter.RegionID))
	}
	if filter.Status != nil {
		where = append(where, "status = "+arg(*filter.Status))
	}
	if filter.Search != nil {
		where = append(where, "name ILIKE "+arg("%"+*filter.Search+"%"))
	}

	query := `SELECT ` + clientColumns + ` FROM clients WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY name, id LIMIT ` + arg(page.Limit) + ` OFFSET ` + arg(page.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := []*Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// Update patches a case record. Reassigning the client re-derives the
// denormalized office and region from the new officer so ownership
// never goes stale.
func (s *Service) Update(ctx context.Context, p auth.Principal, id int64, req UpdateClientRequest) (*Client, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", httputil.ErrBadRequest, err)
	}

	own, err := s.resolver.ResolveClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.Decide(p, own, authz.AccessStandard, s.decisions) {
		return nil, authz.ErrForbidden
	}

	var (
		sets []string
		args []interface{}
	)
	add := func(column string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Gender != nil {
		add("gender", *req.Gender)
	}
	if req.BirthPlace != nil {
		add("birth_place", *req.BirthPlace)
	}
	if req.BirthDate != nil {
		add("birth_date", *req.BirthDate)
	}
	if req.Address != nil {
		add("address", *req.Address)
	}
	if req.Phone != nil {
		add("phone", *req.Phone)
	}
	if req.NationalID != nil {
		add("national_id", *req.NationalID)
	}
	if req.CaseNumber != nil {
		add("case_number", *req.CaseNumber)
	}
	if req.SupervisionCategory != nil {
		add("supervision_category", *req.SupervisionCategory)
	}
	if req.Status != nil {
		add("status", *req.Status)
	}
	if req.PhotoPath != nil {
		add("photo_path", *req.PhotoPath)
	}
	if req.AssignedOfficerID != nil {
		officeID, regionID, err := s.officerOrg(ctx, *req.AssignedOfficerID)
		if err != nil {
			return nil, err
		}
		add("assigned_officer_id", *req.AssignedOfficerID)
		add("local_office_id", officeID)
		add("region_id", regionID)
	}
	if len(sets) == 0 {
		return s.load(ctx, id)
	}
	add("updated_by", p.ID)
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE clients SET %s WHERE id = $%d AND deleted_at IS NULL RETURNING %s`,
		strings.Join(sets, ", "), len(args), clientColumns)

	c, err := scanClient(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return c, nil
}

// UpdateAccess toggles unattended check-in and rotates the client PIN
func (s *Service) UpdateAccess(ctx context.Context, p auth.Principal, id int64, req UpdateAccessRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", httputil.ErrBadRequest, err)
	}
	if req.OnlineAccess == nil && req.PIN == nil {
		return fmt.Errorf("%w: nothing to change", httputil.ErrBadRequest)
	}

	own, err := s.resolver.ResolveClient(ctx, id)
	if err != nil {
		return err
	}
	if !authz.Decide(p, own, authz.AccessStandard, s.decisions) {
		return authz.ErrForbidden
	}

	var (
		sets []string
		args []interface{}
	)
	add := func(column string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if req.OnlineAccess != nil {
		add("online_access", *req.OnlineAccess)
	}
	if req.PIN != nil {
		hash, err := auth.HashPassword(*req.PIN)
		if err != nil {
			return fmt.Errorf("failed to hash pin: %w", err)
		}
		add("pin_hash", hash)
	}
	add("updated_by", p.ID)
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE clients SET %s WHERE id = $%d AND deleted_at IS NULL`,
		strings.Join(sets, ", "), len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update client access: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return authz.ErrNotFound
	}
	return nil
}

// Delete soft deletes a case record and everything it owns stays
// unreachable through the resolver from then on.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id int64) error {
	own, err := s.resolver.ResolveClient(ctx, id)
	if err != nil {
		return err
	}
	if !authz.Decide(p, own, authz.AccessStandard, s.decisions) {
		return authz.ErrForbidden
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE clients SET deleted_at = now(), updated_by = $1, updated_at = now()
		 WHERE id = $2 AND deleted_at IS NULL`, p.ID, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	s.audit.Log(ctx, audit.Event{
		ActorID:      &p.ID,
		ActorRole:    p.Role,
		Action:       audit.ActionDelete,
		ResourceType: "client",
		ResourceID:   &id,
		Outcome:      audit.OutcomeSuccess,
	})
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*Client, error) {
	c, err := scanClient(s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1 AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	return c, nil
}
