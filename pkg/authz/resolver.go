package authz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Resolver loads ownership tuples from Postgres. Each resolve is one
// projection query, or two for sub-records that must hop through the
// parent client. Soft-deleted rows resolve to ErrNotFound.
type Resolver struct {
	db *sql.DB
}

// NewResolver creates a resolver backed by the given database
func NewResolver(db *sql.DB) *Resolver {
	return &Resolver{db: db}
}

// ResolveClient returns the ownership tuple for a client record
func (r *Resolver) ResolveClient(ctx context.Context, clientID int64) (Ownership, error) {
	var o Ownership
	err := r.db.QueryRowContext(ctx,
		`SELECT local_office_id, region_id, assigned_officer_id
		 FROM clients WHERE id = $1 AND deleted_at IS NULL`,
		clientID,
	).Scan(&o.LocalOfficeID, &o.RegionID, &o.AssignedOfficerID)
	if errors.Is(err, sql.ErrNoRows) {
		return Ownership{}, ErrNotFound
	}
	if err != nil {
		return Ownership{}, fmt.Errorf("resolving client %d: %w", clientID, err)
	}
	return o, nil
}

// ResolveIntake resolves ownership through the intake's parent client
func (r *Resolver) ResolveIntake(ctx context.Context, intakeID int64) (Ownership, error) {
	return r.resolveThroughClient(ctx, "intakes", intakeID)
}

// ResolveLegalHistory resolves ownership through the record's parent client
func (r *Resolver) ResolveLegalHistory(ctx context.Context, recordID int64) (Ownership, error) {
	return r.resolveThroughClient(ctx, "legal_histories", recordID)
}

// ResolveReintegrationService resolves ownership through the record's parent client
func (r *Resolver) ResolveReintegrationService(ctx context.Context, recordID int64) (Ownership, error) {
	return r.resolveThroughClient(ctx, "reintegration_services", recordID)
}

// ResolveCheckIn resolves ownership through the check-in's parent client
func (r *Resolver) ResolveCheckIn(ctx context.Context, checkInID int64) (Ownership, error) {
	return r.resolveThroughClient(ctx, "check_ins", checkInID)
}

// ResolveLegalProcess resolves ownership for a legal process, which
// hangs off an intake rather than directly off a client. The join
// keeps the hop count at two queries total.
func (r *Resolver) ResolveLegalProcess(ctx context.Context, processID int64) (Ownership, error) {
	var clientID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT i.client_id
		 FROM legal_processes p
		 JOIN intakes i ON i.id = p.intake_id AND i.deleted_at IS NULL
		 WHERE p.id = $1 AND p.deleted_at IS NULL`,
		processID,
	).Scan(&clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return Ownership{}, ErrNotFound
	}
	if err != nil {
		return Ownership{}, fmt.Errorf("resolving legal process %d: %w", processID, err)
	}
	return r.ResolveClient(ctx, clientID)
}

// ResolveLocalOffice returns an ownership tuple carrying the office's
// own id plus its parent region, so RegionAdmins can manage offices
// under their region.
func (r *Resolver) ResolveLocalOffice(ctx context.Context, officeID int64) (Ownership, error) {
	var regionID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT region_id FROM local_offices WHERE id = $1 AND deleted_at IS NULL`,
		officeID,
	).Scan(&regionID)
	if errors.Is(err, sql.ErrNoRows) {
		return Ownership{}, ErrNotFound
	}
	if err != nil {
		return Ownership{}, fmt.Errorf("resolving local office %d: %w", officeID, err)
	}
	id := officeID
	return Ownership{LocalOfficeID: &id, RegionID: &regionID}, nil
}

// ResolveRegion returns an ownership tuple carrying the region's own id
func (r *Resolver) ResolveRegion(ctx context.Context, regionID int64) (Ownership, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT TRUE FROM regions WHERE id = $1 AND deleted_at IS NULL`,
		regionID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return Ownership{}, ErrNotFound
	}
	if err != nil {
		return Ownership{}, fmt.Errorf("resolving region %d: %w", regionID, err)
	}
	id := regionID
	return Ownership{RegionID: &id}, nil
}

func (r *Resolver) resolveThroughClient(ctx context.Context, table string, recordID int64) (Ownership, error) {
	var clientID int64
	// table comes from a fixed internal set, never from input
	query := fmt.Sprintf(
		`SELECT client_id FROM %s WHERE id = $1 AND deleted_at IS NULL`, table)
	err := r.db.QueryRowContext(ctx, query, recordID).Scan(&clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return Ownership{}, ErrNotFound
	}
	if err != nil {
		return Ownership{}, fmt.Errorf("resolving %s record %d: %w", table, recordID, err)
	}
	return r.ResolveClient(ctx, clientID)
}
