package workflow

import (
	"context"
	"testing"
	"time"

	"barangay/internal/domain/activity"
	"barangay/internal/domain/documents"
	"barangay/internal/domain/municipalities"
	"barangay/internal/reports"
	"barangay/internal/review"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentActivityIsScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitMembership(ctx, f.resident, f.sanIsidro.ID)
	require.NoError(t, err)
	_, err = f.svc.SubmitMembership(ctx, f.neighbor, f.poblacion.ID)
	require.NoError(t, err)

	entries, err := f.svc.RecentActivity(ctx, f.official, nil, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, activity.ActionBarangayRequestSubmitted, entries[0].Action)

	entries, err = f.svc.RecentActivity(ctx, f.admin, nil, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = f.svc.RecentActivity(ctx, f.resident, nil, 10)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestResidents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.SubmitMembership(ctx, f.resident, f.sanIsidro.ID)
	require.NoError(t, err)
	_, err = f.svc.ApproveMembership(ctx, f.official, req.ID)
	require.NoError(t, err)

	list, total, err := f.svc.Residents(ctx, f.official, ResidentQuery{Search: "dela"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, f.resident.UserID, list[0].ID)

	_, _, err = f.svc.Residents(ctx, f.resident, ResidentQuery{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDocumentReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resident := f.member(f.resident, f.sanIsidro)

	req, err := f.svc.SubmitDocument(ctx, resident, clearance())
	require.NoError(t, err)
	_, err = f.svc.ApproveDocument(ctx, f.official, req.ID, nil)
	require.NoError(t, err)
	_, err = f.svc.SubmitDocument(ctx, resident, DocumentInput{Type: documents.TypeBarangayID, Purpose: "ID"})
	require.NoError(t, err)

	from := f.now.Add(-24 * time.Hour)
	sum, err := f.svc.DocumentReport(ctx, f.official, nil, from, f.now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.ByStatus[review.DocumentApproved])
	assert.Equal(t, 1, sum.ByType[documents.TypeBarangayID])

	_, err = f.svc.DocumentReport(ctx, f.official, nil, f.now, from)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, reports.ErrBadRange)
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitMembership(ctx, f.resident, f.sanIsidro.ID)
	require.NoError(t, err)

	ov, err := f.svc.Overview(ctx, f.official, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ov.PendingMembershipRequests)

	_, err = f.svc.Overview(ctx, f.resident, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateMunicipality(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.CreateMunicipality(ctx, f.admin, municipalities.CreateInput{Name: " Bagong Silang ", Province: "Cavite"})
	require.NoError(t, err)
	assert.Equal(t, "Bagong Silang", m.Name)
	assert.Len(t, f.db.ActivityWith(activity.ActionMunicipalityCreated), 1)

	_, err = f.svc.CreateMunicipality(ctx, f.official, municipalities.CreateInput{Name: "X", Province: "Y"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.CreateMunicipality(ctx, f.admin, municipalities.CreateInput{Name: "", Province: "Y"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	all, err := f.svc.Municipalities(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
