package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"github.com/caseflow-io/caseflow/pkg/audit"
	"github.com/caseflow-io/caseflow/pkg/auth"
	"github.com/caseflow-io/caseflow/pkg/authz"
	"github.com/caseflow-io/caseflow/pkg/directory"
	"github.com/caseflow-io/caseflow/pkg/httputil"
)

var validate = validator.New()

// Service implements staff account operations over Postgres
type Service struct {
	db    *sql.DB
	dir   *directory.Service
	audit audit.Logger
}

// NewService creates a users service. auditLog may be nil.
func NewService(db *sql.DB, dir *directory.Service, auditLog audit.Logger) *Service {
	if auditLog == nil {
		auditLog = audit.NopLogger{}
	}
	return &Service{db: db, dir: dir, audit: auditLog}
}

const userColumns = `id, employee_no, name, title_prefix, title_suffix, rank_grade, position,
	local_office_id, region_id, employment_status, email, phone, active, role, password_hash,
	created_at, updated_at, created_by, updated_by`

func scanUser(row interface{ Scan(...interface{}) error }) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.EmployeeNo, &u.Name, &u.TitlePrefix, &u.TitleSuffix,
		&u.RankGrade, &u.Position, &u.LocalOfficeID, &u.RegionID, &u.EmploymentStatus,
		&u.Email, &u.Phone, &u.Active, &u.Role, &u.PasswordHash,
		&u.CreatedAt, &u.UpdatedAt, &u.CreatedBy, &u.UpdatedBy)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// canManage reports whether the principal may manage an account placed
// at the given office/region with the given role. Office admins stay
// inside their office, region admins inside their region, and neither
// may grant a role above their own rank.
func canManage(p auth.Principal, officeID, regionID *int64, role auth.Role) bool {
	if role != "" && !role.Valid() {
		return false
	}
	switch p.Role {
	case auth.RoleSuperAdmin:
		return true
	case auth.RoleRegionAdmin:
		if role != "" && role.Rank() > p.Role.Rank() {
			return false
		}
		return p.RegionID != nil && regionID != nil && *p.RegionID == *regionID
	case auth.RoleLocalOfficeAdmin:
		if role != "" && role.Rank() > p.Role.Rank() {
			return false
		}
		return p.LocalOfficeID != nil && officeID != nil && *p.LocalOfficeID == *officeID
	default:
		return false
	}
}

// Create adds a staff account. The target office's region is derived
// server-side so the stored region always matches the hierarchy.
func (s *Service) Create(ctx context.Context, p auth.Principal, req CreateUserRequest) (*auth.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httputil.ErrBadRequest, err.Error())
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", httputil.ErrBadRequest, req.Role)
	}

	regionID := req.RegionID
	if req.LocalOfficeID != nil {
		derived, err := s.dir.OfficeRegion(ctx, *req.LocalOfficeID)
		if errors.Is(err, authz.ErrNotFound) {
			return nil, fmt.Errorf("%w: local office %d does not exist", httputil.ErrBadRequest, *req.LocalOfficeID)
		}
		if err != nil {
			return nil, err
		}
		regionID = &derived
	}

	if !canManage(p, req.LocalOfficeID, regionID, req.Role) {
		return nil, authz.ErrForbidden
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (employee_no, name, title_prefix, title_suffix, rank_grade, position,
			local_office_id, region_id, email, phone, role, password_hash, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+userColumns,
		req.EmployeeNo, req.Name, req.TitlePrefix, req.TitleSuffix, req.RankGrade, req.Position,
		req.LocalOfficeID, regionID, req.Email, req.Phone, req.Role, hash, p.ID,
	)
	u, err := scanUser(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: employee number %s already exists", httputil.ErrBadRequest, req.EmployeeNo)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// Get returns a staff account. Staff can always read their own
// account; otherwise management authority over the target is required.
func (s *Service) Get(ctx context.Context, p auth.Principal, id int64) (*auth.User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.ID != id && !canManage(p, u.LocalOfficeID, u.RegionID, "") {
		return nil, authz.ErrForbidden
	}
	return u, nil
}

// GetByEmployeeNo looks up an active account for login. No authority
// check: this runs before authentication.
func (s *Service) GetByEmployeeNo(ctx context.Context, employeeNo string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE employee_no = $1 AND deleted_at IS NULL AND active`, employeeNo)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by employee number: %w", err)
	}
	return u, nil
}

// List returns accounts inside the principal's scope, optionally
// narrowed by filters. Caller filters narrow the scope, never widen it.
func (s *Service) List(ctx context.Context, p auth.Principal, filter ListFilter, page httputil.Pagination) ([]*auth.User, error) {
	where := []string{"deleted_at IS NULL"}
	args := []interface{}{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch p.Role {
	case auth.RoleSuperAdmin:
		// no implicit scope
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
	default:
		where = append(where, "id = "+arg(p.ID))
	}

	if filter.LocalOfficeID != nil {
		where = append(where, "local_office_id = "+arg(*filter.LocalOfficeID))
	}
	if filter.RegionID != nil {
		where = append(where, "region_id = "+arg(*filter.RegionID))
	}
	if filter.Role != nil {
		where = append(where, "role = "+arg(string(*filter.Role)))
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + strings.Join(where, " AND ") +
		fmt.Sprintf(" ORDER BY name LIMIT %s OFFSET %s", arg(page.Limit), arg(page.Offset))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*auth.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update applies a partial update. Authority is checked against both
// the account's current placement and, when the patch moves it, the
// target placement and role.
func (s *Service) Update(ctx context.Context, p auth.Principal, id int64, req UpdateUserRequest) (*auth.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", httputil.ErrBadRequest, err.Error())
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(p, current.LocalOfficeID, current.RegionID, current.Role) {
		return nil, authz.ErrForbidden
	}

	targetOffice := current.LocalOfficeID
	targetRegion := current.RegionID
	if req.LocalOfficeID != nil {
		derived, err := s.dir.OfficeRegion(ctx, *req.LocalOfficeID)
		if errors.Is(err, authz.ErrNotFound) {
			return nil, fmt.Errorf("%w: local office %d does not exist", httputil.ErrBadRequest, *req.LocalOfficeID)
		}
		if err != nil {
			return nil, err
		}
		targetOffice = req.LocalOfficeID
		targetRegion = &derived
	} else if req.RegionID != nil {
		targetRegion = req.RegionID
	}

	targetRole := current.Role
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", httputil.ErrBadRequest, *req.Role)
		}
		targetRole = *req.Role
	}
	if !canManage(p, targetOffice, targetRegion, targetRole) {
		return nil, authz.ErrForbidden
	}

	set := []string{}
	args := []interface{}{}
	add := func(col string, val interface{}) {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.TitlePrefix != nil {
		add("title_prefix", *req.TitlePrefix)
	}
	if req.TitleSuffix != nil {
		add("title_suffix", *req.TitleSuffix)
	}
	if req.RankGrade != nil {
		add("rank_grade", *req.RankGrade)
	}
	if req.Position != nil {
		add("position", *req.Position)
	}
	if req.LocalOfficeID != nil {
		add("local_office_id", *req.LocalOfficeID)
		add("region_id", *targetRegion)
	} else if req.RegionID != nil {
		add("region_id", *req.RegionID)
	}
	if req.EmploymentStatus != nil {
		add("employment_status", string(*req.EmploymentStatus))
	}
	if req.Email != nil {
		add("email", *req.Email)
	}
	if req.Phone != nil {
		add("phone", *req.Phone)
	}
	if req.Active != nil {
		add("active", *req.Active)
	}
	if req.Role != nil {
		add("role", string(*req.Role))
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		add("password_hash", hash)
	}
	if len(set) == 0 {
		return current, nil
	}
	add("updated_by", p.ID)

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE users SET %s, updated_at = now() WHERE id = $%d AND deleted_at IS NULL RETURNING %s`,
		strings.Join(set, ", "), len(args), userColumns)

	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

// Delete soft-deletes an account. SuperAdmin only.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id int64) error {
	if p.Role != auth.RoleSuperAdmin {
		if _, err := s.load(ctx, id); err != nil {
			return err
		}
		return authz.ErrForbidden
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET deleted_at = now(), active = FALSE
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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
		ResourceType: "user",
		ResourceID:   &id,
		Outcome:      audit.OutcomeSuccess,
	})
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
