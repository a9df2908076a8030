package directory

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow-io/caseflow/pkg/audit"
	"github.com/caseflow-io/caseflow/pkg/auth"
	"github.com/caseflow-io/caseflow/pkg/authz"
	"github.com/caseflow-io/caseflow/pkg/httputil"
)

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

type recordingAudit struct {
	events []audit.Event
}

func (a *recordingAudit) Log(ctx context.Context, e audit.Event) {
	a.events = append(a.events, e)
}

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock, *recordingAudit) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	trail := &recordingAudit{}
	return NewService(db, authz.NewResolver(db), trail, nil), mock, trail
}

func regionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "address", "city", "province",
		"postal_code", "phone", "created_at", "updated_at"})
}

func officeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "region_id", "name", "address", "city",
		"province", "postal_code", "phone", "created_at", "updated_at"})
}

var (
	superAdmin = auth.Principal{ID: 1, Role: auth.RoleSuperAdmin}
	now        = time.Now()
)

func TestCreateRegionRequiresSuperAdmin(t *testing.T) {
	s, _, _ := newMockService(t)

	regionAdmin := auth.Principal{ID: 2, Role: auth.RoleRegionAdmin, RegionID: int64Ptr(5)}
	_, err := s.CreateRegion(context.Background(), regionAdmin, CreateRegionRequest{Name: "West Region"})
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestCreateRegion(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`INSERT INTO regions`).
		WithArgs("West Region", nil, nil, nil, nil, nil).
		WillReturnRows(regionRows().AddRow(5, "West Region", nil, nil, nil, nil, nil,
			now, now))

	reg, err := s.CreateRegion(context.Background(), superAdmin, CreateRegionRequest{Name: "West Region"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), reg.ID)
	assert.Equal(t, "West Region", reg.Name)
}

func TestCreateRegionValidation(t *testing.T) {
	s, _, _ := newMockService(t)

	_, err := s.CreateRegion(context.Background(), superAdmin, CreateRegionRequest{Name: ""})
	assert.ErrorIs(t, err, httputil.ErrBadRequest)
}

func TestUpdateRegionByOwningRegionAdmin(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`FROM regions`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"true"}).AddRow(true))
	mock.ExpectQuery(`UPDATE regions SET`).
		WithArgs("New Name", int64(5)).
		WillReturnRows(regionRows().AddRow(5, "New Name", nil, nil, nil, nil, nil,
			now, now))

	regionAdmin := auth.Principal{ID: 2, Role: auth.RoleRegionAdmin, RegionID: int64Ptr(5)}
	reg, err := s.UpdateRegion(context.Background(), regionAdmin, 5, UpdateRegionRequest{Name: strPtr("New Name")})
	require.NoError(t, err)
	assert.Equal(t, "New Name", reg.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRegionWrongRegionForbidden(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`FROM regions`).
		WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows([]string{"true"}).AddRow(true))

	regionAdmin := auth.Principal{ID: 2, Role: auth.RoleRegionAdmin, RegionID: int64Ptr(5)}
	_, err := s.UpdateRegion(context.Background(), regionAdmin, 6, UpdateRegionRequest{Name: strPtr("X")})
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestDeleteRegionNonSuperAdminForbidden(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`FROM regions`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"true"}).AddRow(true))

	regionAdmin := auth.Principal{ID: 2, Role: auth.RoleRegionAdmin, RegionID: int64Ptr(5)}
	err := s.DeleteRegion(context.Background(), regionAdmin, 5)
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestDeleteRegionAudited(t *testing.T) {
	s, mock, trail := newMockService(t)

	mock.ExpectExec(`UPDATE regions SET deleted_at`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.DeleteRegion(context.Background(), superAdmin, 5))

	require.Len(t, trail.events, 1)
	e := trail.events[0]
	assert.Equal(t, audit.ActionDelete, e.Action)
	assert.Equal(t, "region", e.ResourceType)
	require.NotNil(t, e.ResourceID)
	assert.Equal(t, int64(5), *e.ResourceID)
	assert.Equal(t, audit.OutcomeSuccess, e.Outcome)
}

func TestDeleteRegionMissing(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectExec(`UPDATE regions SET deleted_at`).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteRegion(context.Background(), superAdmin, 99)
	assert.ErrorIs(t, err, authz.ErrNotFound)
}

func TestCreateLocalOfficeByRegionAdmin(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`FROM regions`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"true"}).AddRow(true))
	mock.ExpectQuery(`INSERT INTO local_offices`).
		WithArgs(int64(5), "Downtown Office", nil, nil, nil, nil, nil).
		WillReturnRows(officeRows().AddRow(7, 5, "Downtown Office", nil, nil, nil, nil, nil,
			now, now))

	regionAdmin := auth.Principal{ID: 2, Role: auth.RoleRegionAdmin, RegionID: int64Ptr(5)}
	off, err := s.CreateLocalOffice(context.Background(), regionAdmin,
		CreateLocalOfficeRequest{RegionID: 5, Name: "Downtown Office"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), off.ID)
	assert.Equal(t, int64(5), off.RegionID)
}

// A missing target region is the caller's mistake, not a permission
// problem.
func TestCreateLocalOfficeUnknownRegion(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`FROM regions`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := s.CreateLocalOffice(context.Background(), superAdmin,
		CreateLocalOfficeRequest{RegionID: 99, Name: "Nowhere Office"})
	assert.ErrorIs(t, err, httputil.ErrBadRequest)
}

func TestCreateLocalOfficeOutsideRegionForbidden(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`FROM regions`).
		WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows([]string{"true"}).AddRow(true))

	regionAdmin := auth.Principal{ID: 2, Role: auth.RoleRegionAdmin, RegionID: int64Ptr(5)}
	_, err := s.CreateLocalOffice(context.Background(), regionAdmin,
		CreateLocalOfficeRequest{RegionID: 6, Name: "Elsewhere Office"})
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestUpdateLocalOfficeByOwnAdmin(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`SELECT region_id FROM local_offices`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"region_id"}).AddRow(5))
	mock.ExpectQuery(`UPDATE local_offices SET`).
		WithArgs("New Phone", int64(7)).
		WillReturnRows(officeRows().AddRow(7, 5, "Downtown Office", nil, nil, nil, nil, "New Phone",
			now, now))

	officeAdmin := auth.Principal{ID: 3, Role: auth.RoleLocalOfficeAdmin, LocalOfficeID: int64Ptr(7)}
	off, err := s.UpdateLocalOffice(context.Background(), officeAdmin, 7,
		UpdateLocalOfficeRequest{Phone: strPtr("New Phone")})
	require.NoError(t, err)
	assert.Equal(t, int64(7), off.ID)
}

// Office admins cannot delete their own office; that needs
// region-level authority.
func TestDeleteLocalOfficeRankCheck(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`SELECT region_id FROM local_offices`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"region_id"}).AddRow(5))

	officeAdmin := auth.Principal{ID: 3, Role: auth.RoleLocalOfficeAdmin, LocalOfficeID: int64Ptr(7)}
	err := s.DeleteLocalOffice(context.Background(), officeAdmin, 7)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	mock.ExpectQuery(`SELECT region_id FROM local_offices`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"region_id"}).AddRow(5))
	mock.ExpectExec(`UPDATE local_offices SET deleted_at`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	regionAdmin := auth.Principal{ID: 2, Role: auth.RoleRegionAdmin, RegionID: int64Ptr(5)}
	assert.NoError(t, s.DeleteLocalOffice(context.Background(), regionAdmin, 7))
}

func TestDeleteLocalOfficeAudited(t *testing.T) {
	s, mock, trail := newMockService(t)

	mock.ExpectQuery(`SELECT region_id FROM local_offices`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"region_id"}).AddRow(5))
	mock.ExpectExec(`UPDATE local_offices SET deleted_at`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	regionAdmin := auth.Principal{ID: 2, Role: auth.RoleRegionAdmin, RegionID: int64Ptr(5)}
	require.NoError(t, s.DeleteLocalOffice(context.Background(), regionAdmin, 7))

	require.Len(t, trail.events, 1)
	e := trail.events[0]
	assert.Equal(t, audit.ActionDelete, e.Action)
	assert.Equal(t, "local_office", e.ResourceType)
	require.NotNil(t, e.ResourceID)
	assert.Equal(t, int64(7), *e.ResourceID)
	require.NotNil(t, e.ActorID)
	assert.Equal(t, int64(2), *e.ActorID)
	assert.Equal(t, audit.OutcomeSuccess, e.Outcome)
}

func TestListLocalOfficesFilteredByRegion(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`FROM local_offices WHERE deleted_at IS NULL AND region_id`).
		WithArgs(int64(5), 50, 0).
		WillReturnRows(officeRows().
			AddRow(7, 5, "Downtown Office", nil, nil, nil, nil, nil, now, now).
			AddRow(8, 5, "Harbor Office", nil, nil, nil, nil, nil, now, now))

	offices, err := s.ListLocalOffices(context.Background(), int64Ptr(5),
		httputil.Pagination{Limit: 50, Offset: 0})
	require.NoError(t, err)
	assert.Len(t, offices, 2)
}

func TestOfficerOrg(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`FROM users u`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"local_office_id", "region_id"}).AddRow(7, 5))

	officeID, regionID, err := s.OfficerOrg(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, officeID)
	assert.Equal(t, int64(7), *officeID)
	require.NotNil(t, regionID)
	assert.Equal(t, int64(5), *regionID)
}

func TestOfficerOrgUnknownOfficer(t *testing.T) {
	s, mock, _ := newMockService(t)

	mock.ExpectQuery(`FROM users u`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, _, err := s.OfficerOrg(context.Background(), 99)
	assert.ErrorIs(t, err, authz.ErrNotFound)
}
