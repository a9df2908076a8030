package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/caseflow-io/caseflow/pkg/audit"
	"github.com/caseflow-io/caseflow/pkg/auth"
	"github.com/caseflow-io/caseflow/pkg/authz"
	"github.com/caseflow-io/caseflow/pkg/httputil"
)

var validate = validator.New()

// Service implements directory operations over Postgres. Mutations are
// gated through the permission engine; reads are open to all
// authenticated staff since officers need office and region lists.
type Service struct {
	db        *sql.DB
	resolver  *authz.Resolver
	audit     audit.Logger
	decisions authz.DecisionRecorder
}

// NewService creates a directory service. auditLog and decisions may
// be nil.
func NewService(db *sql.DB, resolver *authz.Resolver, auditLog audit.Logger, decisions authz.DecisionRecorder) *Service {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &Service{db: db, resolver: resolver, audit: auditLog, decisions: decisions}
}

const regionColumns = `id, name, address, city, province, postal_code, phone, created_at, updated_at`

func scanRegion(row interface{ Scan(...interface{}) error }) (*Region, error) {
	var reg Region
	err := row.Scan(&reg.ID, &reg.Name, &reg.Address, &reg.City, &reg.Province,
		&reg.PostalCode, &reg.Phone, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// CreateRegion creates a region. SuperAdmin only.
func (s *Service) CreateRegion(ctx context.Context, p auth.Principal, req CreateRegionRequest) (*Region, error) {
	if p.Role != auth.RoleSuperAdmin {
		return nil, authz.ErrForbidden
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httputil.ErrBadRequest, err.Error())
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO regions (name, address, city, province, postal_code, phone)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+regionColumns,
		req.Name, req.Address, req.City, req.Province, req.PostalCode, req.Phone,
	)
	reg, err := scanRegion(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create region: %w", err)
	}
	return reg, nil
}

// GetRegion returns a region by id
func (s *Service) GetRegion(ctx context.Context, id int64) (*Region, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+regionColumns+` FROM regions WHERE id = $1 AND deleted_at IS NULL`, id)
	reg, err := scanRegion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get region: %w", err)
	}
	return reg, nil
}

// ListRegions returns all regions
func (s *Service) ListRegions(ctx context.Context, page httputil.Pagination) ([]*Region, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+regionColumns+` FROM regions WHERE deleted_at IS NULL
		 ORDER BY name LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	defer rows.Close()

	regions := make([]*Region, 0)
	for rows.Next() {
		reg, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, reg)
	}
	return regions, rows.Err()
}

// UpdateRegion applies a partial update. Authorized via the standard
// variant, so a RegionAdmin may edit their own region's details.
func (s *Service) UpdateRegion(ctx context.Context, p auth.Principal, id int64, req UpdateRegionRequest) (*Region, error) {
	own, err := s.resolver.ResolveRegion(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.Decide(p, own, authz.AccessStandard, s.decisions) {
		return nil, authz.ErrForbidden
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httputil.ErrBadRequest, err.Error())
	}

	set, args := buildUpdate(map[string]interface{}{
		"name":        req.Name,
		"address":     req.Address,
		"city":        req.City,
		"province":    req.Province,
		"postal_code": req.PostalCode,
		"phone":       req.Phone,
	})
	if set == "" {
		return s.GetRegion(ctx, id)
	}
	args = append(args, id)

	row := s.db.QueryRowContext(ctx,
		`UPDATE regions SET `+set+`, updated_at = now()
		 WHERE id = $`+fmt.Sprint(len(args))+` AND deleted_at IS NULL
		 RETURNING `+regionColumns, args...)
	reg, err := scanRegion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update region: %w", err)
	}
	return reg, nil
}

// DeleteRegion soft-deletes a region. SuperAdmin only: a region admin
// must not be able to remove their own region.
func (s *Service) DeleteRegion(ctx context.Context, p auth.Principal, id int64) error {
	if p.Role != auth.RoleSuperAdmin {
		if _, err := s.resolver.ResolveRegion(ctx, id); err != nil {
			return err
		}
		return authz.ErrForbidden
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE regions SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete region: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return authz.ErrNotFound
	}
	s.audit.Log(ctx, audit.Event{
		ActorID:      &p.ID,
		ActorRole:    p.Role,
		Action:       audit.ActionDelete,
		ResourceType: "region",
		ResourceID:   &id,
		Outcome:      audit.OutcomeSuccess,
	})
	return nil
}

const officeColumns = `id, region_id, name, address, city, province, postal_code, phone, created_at, updated_at`

func scanOffice(row interface{ Scan(...interface{}) error }) (*LocalOffice, error) {
	var off LocalOffice
	err := row.Scan(&off.ID, &off.RegionID, &off.Name, &off.Address, &off.City,
		&off.Province, &off.PostalCode, &off.Phone, &off.CreatedAt, &off.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &off, nil
}

// CreateLocalOffice creates an office under a region. The target
// region must exist and be within the principal's authority.
func (s *Service) CreateLocalOffice(ctx context.Context, p auth.Principal, req CreateLocalOfficeRequest) (*LocalOffice, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httputil.ErrBadRequest, err.Error())
	}

	own, err := s.resolver.ResolveRegion(ctx, req.RegionID)
	if errors.Is(err, authz.ErrNotFound) {
		return nil, fmt.Errorf("%w: region %d does not exist", httputil.ErrBadRequest, req.RegionID)
	}
	if err != nil {
		return nil, err
	}
	if !authz.Decide(p, own, authz.AccessStandard, s.decisions) {
		return nil, authz.ErrForbidden
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO local_offices (region_id, name, address, city, province, postal_code, phone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+officeColumns,
		req.RegionID, req.Name, req.Address, req.City, req.Province, req.PostalCode, req.Phone,
	)
	off, err := scanOffice(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create local office: %w", err)
	}
	return off, nil
}

// GetLocalOffice returns an office by id
func (s *Service) GetLocalOffice(ctx context.Context, id int64) (*LocalOffice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+officeColumns+` FROM local_offices WHERE id = $1 AND deleted_at IS NULL`, id)
	off, err := scanOffice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get local office: %w", err)
	}
	return off, nil
}

// ListLocalOffices returns offices, optionally restricted to a region
func (s *Service) ListLocalOffices(ctx context.Context, regionID *int64, page httputil.Pagination) ([]*LocalOffice, error) {
	query := `SELECT ` + officeColumns + ` FROM local_offices WHERE deleted_at IS NULL`
	args := []interface{}{}
	if regionID != nil {
		args = append(args, *regionID)
		query += fmt.Sprintf(" AND region_id = $%d", len(args))
	}
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list local offices: %w", err)
	}
	defer rows.Close()

	offices := make([]*LocalOffice, 0)
	for rows.Next() {
		off, err := scanOffice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan local office: %w", err)
		}
		offices = append(offices, off)
	}
	return offices, rows.Err()
}

// UpdateLocalOffice applies a partial update under the standard
// variant, so the owning office admin or region admin may edit it.
func (s *Service) UpdateLocalOffice(ctx context.Context, p auth.Principal, id int64, req UpdateLocalOfficeRequest) (*LocalOffice, error) {
	own, err := s.resolver.ResolveLocalOffice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.Decide(p, own, authz.AccessStandard, s.decisions) {
		return nil, authz.ErrForbidden
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httputil.ErrBadRequest, err.Error())
	}

	set, args := buildUpdate(map[string]interface{}{
		"name":        req.Name,
		"address":     req.Address,
		"city":        req.City,
		"province":    req.Province,
		"postal_code": req.PostalCode,
		"phone":       req.Phone,
	})
	if set == "" {
		return s.GetLocalOffice(ctx, id)
	}
	args = append(args, id)

	row := s.db.QueryRowContext(ctx,
		`UPDATE local_offices SET `+set+`, updated_at = now()
		 WHERE id = $`+fmt.Sprint(len(args))+` AND deleted_at IS NULL
		 RETURNING `+officeColumns, args...)
	off, err := scanOffice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update local office: %w", err)
	}
	return off, nil
}

// DeleteLocalOffice soft-deletes an office. Requires region-level
// authority or above: an office admin cannot remove their own office.
func (s *Service) DeleteLocalOffice(ctx context.Context, p auth.Principal, id int64) error {
	own, err := s.resolver.ResolveLocalOffice(ctx, id)
	if err != nil {
		return err
	}
	if p.Role.Rank() < auth.RoleRegionAdmin.Rank() || !authz.Decide(p, own, authz.AccessStandard, s.decisions) {
		return authz.ErrForbidden
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE local_offices SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete local office: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return authz.ErrNotFound
	}
	s.audit.Log(ctx, audit.Event{
		ActorID:      &p.ID,
		ActorRole:    p.Role,
		Action:       audit.ActionDelete,
		ResourceType: "local_office",
		ResourceID:   &id,
		Outcome:      audit.OutcomeSuccess,
	})
	return nil
}

// OfficeRegion returns the parent region of an office
func (s *Service) OfficeRegion(ctx context.Context, officeID int64) (int64, error) {
	var regionID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT region_id FROM local_offices WHERE id = $1 AND deleted_at IS NULL`,
		officeID).Scan(&regionID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, authz.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up office region: %w", err)
	}
	return regionID, nil
}

// OfficerOrg returns the office and region a staff member belongs to.
// Used by client writes to re-derive denormalized ownership.
func (s *Service) OfficerOrg(ctx context.Context, officerID int64) (officeID *int64, regionID *int64, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT u.local_office_id, l.region_id
		 FROM users u
		 LEFT JOIN local_offices l ON l.id = u.local_office_id AND l.deleted_at IS NULL
		 WHERE u.id = $1 AND u.deleted_at IS NULL`,
		officerID).Scan(&officeID, &regionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up officer org: %w", err)
	}
	return officeID, regionID, nil
}

// buildUpdate assembles SET clauses for the non-nil fields. Column
// names come from fixed internal maps, never from input.
func buildUpdate(fields map[string]interface{}) (string, []interface{}) {
	set := ""
	args := []interface{}{}
	for _, col := range sortedKeys(fields) {
		val := fields[col]
		ptr, ok := val.(*string)
		if !ok || ptr == nil {
			continue
		}
		args = append(args, *ptr)
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("%s = $%d", col, len(args))
	}
	return set, args
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
