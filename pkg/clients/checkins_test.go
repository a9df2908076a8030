package clients

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow-io/caseflow/pkg/audit"
	"github.com/caseflow-io/caseflow/pkg/auth"
	"github.com/caseflow-io/caseflow/pkg/authz"
	"github.com/caseflow-io/caseflow/pkg/httputil"
)

func checkInRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "client_id", "method", "checked_in_at",
		"photo_path", "latitude", "longitude", "notes", "recorded_by", "created_at"})
}

func addCheckInRow(rows *sqlmock.Rows, id, clientID int64, method string, recordedBy interface{}) *sqlmock.Rows {
	return rows.AddRow(id, clientID, method, now, nil, nil, nil, nil, recordedBy, now)
}

// Walk-in coverage: an officer may record a check-in for any client of
// their office, not only their own caseload.
func TestStaffCheckInForOfficeColleagueClient(t *testing.T) {
	s, mock, _ := newMockService(t)

	expectResolveClient(mock, 100, ownershipRows(7, 5, 43))
	mock.ExpectQuery(`INSERT INTO check_ins`).
		WithArgs(int64(100), "officer", nil, nil, nil, nil, int64(42)).
		WillReturnRows(addCheckInRow(checkInRows(), 1, 100, "officer", 42))

	officer := auth.Principal{ID: 42, Role: auth.RoleOfficer, LocalOfficeID: int64Ptr(7)}
	c, err := s.RecordStaffCheckIn(context.Background(), officer, 100, CheckInRequest{})
	require.NoError(t, err)
	assert.Equal(t, CheckInMethodOfficer, c.Method)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffCheckInOutsideOfficeForbidden(t *testing.T) {
	s, mock, _ := newMockService(t)

	expectResolveClient(mock, 100, ownershipRows(8, 5, 43))

	officer := auth.Principal{ID: 42, Role: auth.RoleOfficer, LocalOfficeID: int64Ptr(7)}
	_, err := s.RecordStaffCheckIn(context.Background(), officer, 100, CheckInRequest{})
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestKioskCheckInRecordsMethod(t *testing.T) {
	s, mock, _ := newMockService(t)

	expectResolveClient(mock, 100, ownershipRows(7, 5, 42))
	mock.ExpectQuery(`INSERT INTO check_ins`).
		WithArgs(int64(100), "kiosk", nil, nil, nil, nil, int64(42)).
		WillReturnRows(addCheckInRow(checkInRows(), 2, 100, "kiosk", 42))

	officer := auth.Principal{ID: 42, Role: auth.RoleOfficer, LocalOfficeID: int64Ptr(7)}
	c, err := s.RecordKioskCheckIn(context.Background(), officer, 100, CheckInRequest{})
	require.NoError(t, err)
	assert.Equal(t, CheckInMethodKiosk, c.Method)
}

func TestRemoteCheckInWithValidPin(t *testing.T) {
	s, mock, trail := newMockService(t)

	hash, err := auth.HashPassword("123456")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT online_access, pin_hash FROM clients`).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"online_access", "pin_hash"}).AddRow(true, hash))
	mock.ExpectQuery(`INSERT INTO check_ins`).
		WithArgs(int64(100), "remote", nil, nil, nil, nil, nil).
		WillReturnRows(addCheckInRow(checkInRows(), 3, 100, "remote", nil))

	c, err := s.RecordRemoteCheckIn(context.Background(), 100, RemoteCheckInRequest{PIN: "123456"})
	require.NoError(t, err)
	assert.Equal(t, CheckInMethodRemote, c.Method)
	assert.Nil(t, c.RecordedBy)

	require.Len(t, trail.events, 1)
	assert.Equal(t, audit.ActionRemoteCheckIn, trail.events[0].Action)
	assert.Equal(t, audit.OutcomeSuccess, trail.events[0].Outcome)
}

func TestRemoteCheckInWrongPinDeniedAndAudited(t *testing.T) {
	s, mock, trail := newMockService(t)

	hash, err := auth.HashPassword("123456")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT online_access, pin_hash FROM clients`).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"online_access", "pin_hash"}).AddRow(true, hash))

	_, err = s.RecordRemoteCheckIn(context.Background(), 100, RemoteCheckInRequest{PIN: "654321"})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	require.Len(t, trail.events, 1)
	assert.Equal(t, audit.OutcomeDenied, trail.events[0].Outcome)
}

// A client without remote access is denied the same way as a bad PIN
func TestRemoteCheckInWithoutOnlineAccess(t *testing.T) {
	s, mock, _ := newMockService(t)

	hash, err := auth.HashPassword("123456")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT online_access, pin_hash FROM clients`).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"online_access", "pin_hash"}).AddRow(false, hash))

	_, err = s.RecordRemoteCheckIn(context.Background(), 100, RemoteCheckInRequest{PIN: "123456"})
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestRemoteCheckInUnknownClient(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`SELECT online_access, pin_hash FROM clients`).
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	_, err := s.RecordRemoteCheckIn(context.Background(), 999, RemoteCheckInRequest{PIN: "123456"})
	assert.ErrorIs(t, err, authz.ErrNotFound)
}

func TestListCheckInsOfficeWide(t *testing.T) {
	s, mock, _ := newMockService(t)

	expectResolveClient(mock, 100, ownershipRows(7, 5, 43))
	mock.ExpectQuery(`FROM check_ins`).
		WithArgs(int64(100), 50, 0).
		WillReturnRows(addCheckInRow(checkInRows(), 1, 100, "officer", 43))

	officer := auth.Principal{ID: 42, Role: auth.RoleOfficer, LocalOfficeID: int64Ptr(7)}
	checkIns, err := s.ListCheckIns(context.Background(), officer, 100, httputil.Pagination{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, checkIns, 1)
}

// Officers never delete check-ins, even on their own caseload
func TestDeleteCheckInOfficerAlwaysDenied(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`SELECT client_id FROM check_ins`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"client_id"}).AddRow(100))
	expectResolveClient(mock, 100, ownershipRows(7, 5, 42))

	officer := auth.Principal{ID: 42, Role: auth.RoleOfficer, LocalOfficeID: int64Ptr(7)}
	err := s.DeleteCheckIn(context.Background(), officer, 1)
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestDeleteCheckInByOfficeAdminAudited(t *testing.T) {
	s, mock, trail := newMockService(t)

	mock.ExpectQuery(`SELECT client_id FROM check_ins`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"client_id"}).AddRow(100))
	expectResolveClient(mock, 100, ownershipRows(7, 5, 42))
	mock.ExpectExec(`UPDATE check_ins SET deleted_at`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	admin := auth.Principal{ID: 3, Role: auth.RoleLocalOfficeAdmin, LocalOfficeID: int64Ptr(7)}
	require.NoError(t, s.DeleteCheckIn(context.Background(), admin, 1))

	require.Len(t, trail.events, 1)
	assert.Equal(t, "check_in", trail.events[0].ResourceType)
}
