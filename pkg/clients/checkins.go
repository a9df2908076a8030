package clients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/caseflow-io/caseflow/pkg/audit"
	"github.com/caseflow-io/caseflow/pkg/auth"
	"github.com/caseflow-io/caseflow/pkg/authz"
	"github.com/caseflow-io/caseflow/pkg/httputil"
)

const checkInColumns = `id, client_id, method, checked_in_at, photo_path,
	latitude, longitude, notes, recorded_by, created_at`

func scanCheckIn(row interface{ Scan(...interface{}) error }) (*CheckIn, error) {
	var c CheckIn
	err := row.Scan(&c.ID, &c.ClientID, &c.Method, &c.CheckedInAt, &c.PhotoPath,
		&c.Latitude, &c.Longitude, &c.Notes, &c.RecordedBy, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) insertCheckIn(ctx context.Context, clientID int64, method CheckInMethod, recordedBy *int64, req CheckInRequest) (*CheckIn, error) {
	c, err := scanCheckIn(s.db.QueryRowContext(ctx,
		`INSERT INTO check_ins (client_id, method, photo_path, latitude, longitude, notes, recorded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+checkInColumns,
		clientID, string(method), req.PhotoPath, req.Latitude, req.Longitude, req.Notes, recordedBy))
	if err != nil {
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}
	return c, nil
}

// RecordStaffCheckIn records a check-in entered by staff. Walk-in
// coverage is the norm here, so officers may record for any client of
// their office, not only their own caseload.
func (s *Service) RecordStaffCheckIn(ctx context.Context, p auth.Principal, clientID int64, req CheckInRequest) (*CheckIn, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", httputil.ErrBadRequest, err)
	}
	own, err := s.resolver.ResolveClient(ctx, clientID)
	if err := s.authorize(p, own, err, authz.AccessOfficeWide); err != nil {
		return nil, err
	}
	return s.insertCheckIn(ctx, clientID, CheckInMethodOfficer, &p.ID, req)
}

// RecordKioskCheckIn records a self-service check-in made at an office
// terminal running under a staff session.
func (s *Service) RecordKioskCheckIn(ctx context.Context, p auth.Principal, clientID int64, req CheckInRequest) (*CheckIn, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", httputil.ErrBadRequest, err)
	}
	own, err := s.resolver.ResolveClient(ctx, clientID)
	if err := s.authorize(p, own, err, authz.AccessOfficeWide); err != nil {
		return nil, err
	}
	return s.insertCheckIn(ctx, clientID, CheckInMethodKiosk, &p.ID, req)
}

// RecordRemoteCheckIn records an unattended check-in. There is no staff
// principal; the client authenticates with their PIN, and the attempt
// is audited whether it succeeds or not. A bad PIN and a client without
// remote access look identical to the caller.
func (s *Service) RecordRemoteCheckIn(ctx context.Context, clientID int64, req RemoteCheckInRequest) (*CheckIn, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", httputil.ErrBadRequest, err)
	}

	var (
		onlineAccess bool
		pinHash      *string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT online_access, pin_hash FROM clients WHERE id = $1 AND deleted_at IS NULL`,
		clientID).Scan(&onlineAccess, &pinHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client access: %w", err)
	}

	if !onlineAccess || pinHash == nil || !auth.CheckPassword(*pinHash, req.PIN) {
		s.audit.Log(ctx, audit.Event{
			Action:       audit.ActionRemoteCheckIn,
			ResourceType: "client",
			ResourceID:   &clientID,
			Outcome:      audit.OutcomeDenied,
		})
		return nil, authz.ErrForbidden
	}

	c, err := s.insertCheckIn(ctx, clientID, CheckInMethodRemote, nil, CheckInRequest{
		PhotoPath: req.PhotoPath,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.Event{
		Action:       audit.ActionRemoteCheckIn,
		ResourceType: "client",
		ResourceID:   &clientID,
		Outcome:      audit.OutcomeSuccess,
	})
	return c, nil
}

// ListCheckIns returns a client's check-in history. Visibility matches
// recording: office-wide for officers.
func (s *Service) ListCheckIns(ctx context.Context, p auth.Principal, clientID int64, page httputil.Pagination) ([]*CheckIn, error) {
	own, err := s.resolver.ResolveClient(ctx, clientID)
	if err := s.authorize(p, own, err, authz.AccessOfficeWide); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+checkInColumns+` FROM check_ins
		 WHERE client_id = $1 AND deleted_at IS NULL
		 ORDER BY checked_in_at DESC, id DESC LIMIT $2 OFFSET $3`,
		clientID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	defer rows.Close()

	checkIns := []*CheckIn{}
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		checkIns = append(checkIns, c)
	}
	return checkIns, rows.Err()
}

// DeleteCheckIn soft deletes a check-in. Check-ins are compliance
// evidence, so deletion runs under the restricted variant: officers are
// always denied regardless of ownership, and every delete is audited.
func (s *Service) DeleteCheckIn(ctx context.Context, p auth.Principal, id int64) error {
	own, err := s.resolver.ResolveCheckIn(ctx, id)
	if err := s.authorize(p, own, err, authz.AccessDeleteRestricted); err != nil {
		return err
	}

	if err := s.softDelete(ctx, "check_ins", id); err != nil {
		return err
	}
	s.audit.Log(ctx, audit.Event{
		ActorID:      &p.ID,
		ActorRole:    p.Role,
		Action:       audit.ActionDelete,
		ResourceType: "check_in",
		ResourceID:   &id,
		Outcome:      audit.OutcomeSuccess,
	})
	return nil
}
