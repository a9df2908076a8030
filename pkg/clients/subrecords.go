package clients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/caseflow-io/caseflow/pkg/auth"
	"github.com/caseflow-io/caseflow/pkg/authz"
)

// Sub-records inherit their authorization entirely from the owning
// client: every operation resolves the parent's ownership and runs the
// standard variant against it.

func (s *Service) authorize(p auth.Principal, own authz.Ownership, err error, v authz.AccessVariant) error {
	if err != nil {
		return err
	}
	if !authz.Decide(p, own, v, s.decisions) {
		return authz.ErrForbidden
	}
	return nil
}

const intakeColumns = `id, client_id, intake_date, case_number, decision_number,
	supervision_start, supervision_end, notes, created_at, updated_at`

func scanIntake(row interface{ Scan(...interface{}) error }) (*Intake, error) {
	var rec Intake
	err := row.Scan(&rec.ID, &rec.ClientID, &rec.IntakeDate, &rec.CaseNumber,
		&rec.DecisionNumber, &rec.SupervisionStart, &rec.SupervisionEnd, &rec.Notes,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIntake attaches an intake record to a client
func (s *Service) CreateIntake(ctx context.Context, p auth.Principal, clientID int64, req IntakeRequest) (*Intake, error) {
	own, err := s.resolver.ResolveClient(ctx, clientID)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return nil, err
	}

	rec, err := scanIntake(s.db.QueryRowContext(ctx,
		`INSERT INTO intakes (client_id, intake_date, case_number, decision_number,
			supervision_start, supervision_end, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+intakeColumns,
		clientID, req.IntakeDate, req.CaseNumber, req.DecisionNumber,
		req.SupervisionStart, req.SupervisionEnd, req.Notes))
	if err != nil {
		return nil, fmt.Errorf("failed to create intake: %w", err)
	}
	return rec, nil
}

// ListIntakes returns a client's intake records
func (s *Service) ListIntakes(ctx context.Context, p auth.Principal, clientID int64) ([]*Intake, error) {
	own, err := s.resolver.ResolveClient(ctx, clientID)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+intakeColumns+` FROM intakes
		 WHERE client_id = $1 AND deleted_at IS NULL ORDER BY id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list intakes: %w", err)
	}
	defer rows.Close()

	records := []*Intake{}
	for rows.Next() {
		rec, err := scanIntake(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan intake: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetIntake returns one intake record
func (s *Service) GetIntake(ctx context.Context, p auth.Principal, id int64) (*Intake, error) {
	own, err := s.resolver.ResolveIntake(ctx, id)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return nil, err
	}

	rec, err := scanIntake(s.db.QueryRowContext(ctx,
		`SELECT `+intakeColumns+` FROM intakes WHERE id = $1 AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load intake: %w", err)
	}
	return rec, nil
}

// UpdateIntake patches an intake record
func (s *Service) UpdateIntake(ctx context.Context, p auth.Principal, id int64, req IntakeRequest) (*Intake, error) {
	own, err := s.resolver.ResolveIntake(ctx, id)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return nil, err
	}

	sets := &setClause{}
	sets.add("intake_date", req.IntakeDate)
	sets.add("case_number", req.CaseNumber)
	sets.add("decision_number", req.DecisionNumber)
	sets.add("supervision_start", req.SupervisionStart)
	sets.add("supervision_end", req.SupervisionEnd)
	sets.add("notes", req.Notes)
	if sets.empty() {
		return s.GetIntake(ctx, p, id)
	}

	rec, err := scanIntake(s.db.QueryRowContext(ctx,
		sets.query("intakes", intakeColumns), sets.values(id)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update intake: %w", err)
	}
	return rec, nil
}

// DeleteIntake soft deletes an intake record
func (s *Service) DeleteIntake(ctx context.Context, p auth.Principal, id int64) error {
	own, err := s.resolver.ResolveIntake(ctx, id)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return err
	}
	return s.softDelete(ctx, "intakes", id)
}

const legalHistoryColumns = `id, client_id, offense, verdict, institution,
	decision_date, notes, created_at, updated_at`

func scanLegalHistory(row interface{ Scan(...interface{}) error }) (*LegalHistory, error) {
	var rec LegalHistory
	err := row.Scan(&rec.ID, &rec.ClientID, &rec.Offense, &rec.Verdict,
		&rec.Institution, &rec.DecisionDate, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateLegalHistory attaches a legal history record to a client
func (s *Service) CreateLegalHistory(ctx context.Context, p auth.Principal, clientID int64, req LegalHistoryRequest) (*LegalHistory, error) {
	own, err := s.resolver.ResolveClient(ctx, clientID)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return nil, err
	}

	rec, err := scanLegalHistory(s.db.QueryRowContext(ctx,
		`INSERT INTO legal_histories (client_id, offense, verdict, institution, decision_date, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+legalHistoryColumns,
		clientID, req.Offense, req.Verdict, req.Institution, req.DecisionDate, req.Notes))
	if err != nil {
		return nil, fmt.Errorf("failed to create legal history: %w", err)
	}
	return rec, nil
}

// ListLegalHistories returns a client's legal history records
func (s *Service) ListLegalHistories(ctx context.Context, p auth.Principal, clientID int64) ([]*LegalHistory, error) {
	own, err := s.resolver.ResolveClient(ctx, clientID)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+legalHistoryColumns+` FROM legal_histories
		 WHERE client_id = $1 AND deleted_at IS NULL ORDER BY id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list legal histories: %w", err)
	}
	defer rows.Close()

	records := []*LegalHistory{}
	for rows.Next() {
		rec, err := scanLegalHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan legal history: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateLegalHistory patches a legal history record
func (s *Service) UpdateLegalHistory(ctx context.Context, p auth.Principal, id int64, req LegalHistoryRequest) (*LegalHistory, error) {
	own, err := s.resolver.ResolveLegalHistory(ctx, id)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return nil, err
	}

	sets := &setClause{}
	sets.add("offense", req.Offense)
	sets.add("verdict", req.Verdict)
	sets.add("institution", req.Institution)
	sets.add("decision_date", req.DecisionDate)
	sets.add("notes", req.Notes)
	if sets.empty() {
		rec, err := scanLegalHistory(s.db.QueryRowContext(ctx,
			`SELECT `+legalHistoryColumns+` FROM legal_histories WHERE id = $1 AND deleted_at IS NULL`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authz.ErrNotFound
		}
		return rec, err
	}

	rec, err := scanLegalHistory(s.db.QueryRowContext(ctx,
		sets.query("legal_histories", legalHistoryColumns), sets.values(id)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update legal history: %w", err)
	}
	return rec, nil
}

// DeleteLegalHistory soft deletes a legal history record
func (s *Service) DeleteLegalHistory(ctx context.Context, p auth.Principal, id int64) error {
	own, err := s.resolver.ResolveLegalHistory(ctx, id)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return err
	}
	return s.softDelete(ctx, "legal_histories", id)
}

const reintegrationColumns = `id, client_id, program, provider, start_date,
	end_date, outcome, notes, created_at, updated_at`

func scanReintegrationService(row interface{ Scan(...interface{}) error }) (*ReintegrationService, error) {
	var rec ReintegrationService
	err := row.Scan(&rec.ID, &rec.ClientID, &rec.Program, &rec.Provider,
		&rec.StartDate, &rec.EndDate, &rec.Outcome, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateReintegrationService attaches a program record to a client
func (s *Service) CreateReintegrationService(ctx context.Context, p auth.Principal, clientID int64, req ReintegrationServiceRequest) (*ReintegrationService, error) {
	own, err := s.resolver.ResolveClient(ctx, clientID)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return nil, err
	}

	rec, err := scanReintegrationService(s.db.QueryRowContext(ctx,
		`INSERT INTO reintegration_services (client_id, program, provider, start_date, end_date, outcome, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+reintegrationColumns,
		clientID, req.Program, req.Provider, req.StartDate, req.EndDate, req.Outcome, req.Notes))
	if err != nil {
		return nil, fmt.Errorf("failed to create reintegration service: %w", err)
	}
	return rec, nil
}

// ListReintegrationServices returns a client's program records
func (s *Service) ListReintegrationServices(ctx context.Context, p auth.Principal, clientID int64) ([]*ReintegrationService, error) {
	own, err := s.resolver.ResolveClient(ctx, clientID)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reintegrationColumns+` FROM reintegration_services
		 WHERE client_id = $1 AND deleted_at IS NULL ORDER BY id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reintegration services: %w", err)
	}
	defer rows.Close()

	records := []*ReintegrationService{}
	for rows.Next() {
		rec, err := scanReintegrationService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reintegration service: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateReintegrationService patches a program record
func (s *Service) UpdateReintegrationService(ctx context.Context, p auth.Principal, id int64, req ReintegrationServiceRequest) (*ReintegrationService, error) {
	own, err := s.resolver.ResolveReintegrationService(ctx, id)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return nil, err
	}

	sets := &setClause{}
	sets.add("program", req.Program)
	sets.add("provider", req.Provider)
	sets.add("start_date", req.StartDate)
	sets.add("end_date", req.EndDate)
	sets.add("outcome", req.Outcome)
	sets.add("notes", req.Notes)
	if sets.empty() {
		rec, err := scanReintegrationService(s.db.QueryRowContext(ctx,
			`SELECT `+reintegrationColumns+` FROM reintegration_services WHERE id = $1 AND deleted_at IS NULL`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authz.ErrNotFound
		}
		return rec, err
	}

	rec, err := scanReintegrationService(s.db.QueryRowContext(ctx,
		sets.query("reintegration_services", reintegrationColumns), sets.values(id)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update reintegration service: %w", err)
	}
	return rec, nil
}

// DeleteReintegrationService soft deletes a program record
func (s *Service) DeleteReintegrationService(ctx context.Context, p auth.Principal, id int64) error {
	own, err := s.resolver.ResolveReintegrationService(ctx, id)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return err
	}
	return s.softDelete(ctx, "reintegration_services", id)
}

const legalProcessColumns = `id, intake_id, stage, court, hearing_date,
	outcome, notes, created_at, updated_at`

func scanLegalProcess(row interface{ Scan(...interface{}) error }) (*LegalProcess, error) {
	var rec LegalProcess
	err := row.Scan(&rec.ID, &rec.IntakeID, &rec.Stage, &rec.Court,
		&rec.HearingDate, &rec.Outcome, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateLegalProcess attaches a court proceeding to an intake. The
// ownership chain runs process -> intake -> client.
func (s *Service) CreateLegalProcess(ctx context.Context, p auth.Principal, intakeID int64, req LegalProcessRequest) (*LegalProcess, error) {
	own, err := s.resolver.ResolveIntake(ctx, intakeID)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return nil, err
	}

	rec, err := scanLegalProcess(s.db.QueryRowContext(ctx,
		`INSERT INTO legal_processes (intake_id, stage, court, hearing_date, outcome, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+legalProcessColumns,
		intakeID, req.Stage, req.Court, req.HearingDate, req.Outcome, req.Notes))
	if err != nil {
		return nil, fmt.Errorf("failed to create legal process: %w", err)
	}
	return rec, nil
}

// ListLegalProcesses returns the court proceedings of an intake
func (s *Service) ListLegalProcesses(ctx context.Context, p auth.Principal, intakeID int64) ([]*LegalProcess, error) {
	own, err := s.resolver.ResolveIntake(ctx, intakeID)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+legalProcessColumns+` FROM legal_processes
		 WHERE intake_id = $1 AND deleted_at IS NULL ORDER BY id`, intakeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list legal processes: %w", err)
	}
	defer rows.Close()

	records := []*LegalProcess{}
	for rows.Next() {
		rec, err := scanLegalProcess(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan legal process: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateLegalProcess patches a court proceeding
func (s *Service) UpdateLegalProcess(ctx context.Context, p auth.Principal, id int64, req LegalProcessRequest) (*LegalProcess, error) {
	own, err := s.resolver.ResolveLegalProcess(ctx, id)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return nil, err
	}

	sets := &setClause{}
	sets.add("stage", req.Stage)
	sets.add("court", req.Court)
	sets.add("hearing_date", req.HearingDate)
	sets.add("outcome", req.Outcome)
	sets.add("notes", req.Notes)
	if sets.empty() {
		rec, err := scanLegalProcess(s.db.QueryRowContext(ctx,
			`SELECT `+legalProcessColumns+` FROM legal_processes WHERE id = $1 AND deleted_at IS NULL`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authz.ErrNotFound
		}
		return rec, err
	}

	rec, err := scanLegalProcess(s.db.QueryRowContext(ctx,
		sets.query("legal_processes", legalProcessColumns), sets.values(id)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update legal process: %w", err)
	}
	return rec, nil
}

// DeleteLegalProcess soft deletes a court proceeding
func (s *Service) DeleteLegalProcess(ctx context.Context, p auth.Principal, id int64) error {
	own, err := s.resolver.ResolveLegalProcess(ctx, id)
	if err := s.authorize(p, own, err, authz.AccessStandard); err != nil {
		return err
	}
	return s.softDelete(ctx, "legal_processes", id)
}

func (s *Service) softDelete(ctx context.Context, table string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, table), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return authz.ErrNotFound
	}
	return nil
}

// setClause accumulates a partial UPDATE statement. Nil pointer values
// are skipped so absent payload fields leave columns untouched.
type setClause struct {
	sets []string
	args []interface{}
}

func (c *setClause) add(column string, v interface{}) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return
		}
		v = rv.Elem().Interface()
	}
	c.args = append(c.args, v)
	c.sets = append(c.sets, fmt.Sprintf("%s = $%d", column, len(c.args)))
}

func (c *setClause) empty() bool { return len(c.sets) == 0 }

func (c *setClause) query(table, returning string) string {
	return fmt.Sprintf(
		`UPDATE %s SET %s, updated_at = now() WHERE id = $%d AND deleted_at IS NULL RETURNING %s`,
		table, strings.Join(c.sets, ", "), len(c.args)+1, returning)
}

func (c *setClause) values(id int64) []interface{} {
	return append(c.args, id)
}
