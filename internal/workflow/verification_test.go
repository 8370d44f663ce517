package workflow

import (
	"context"
	"errors"
	"testing"

	"barangay/internal/domain/activity"
	"barangay/internal/domain/users"
	"barangay/internal/rbac"
	"barangay/internal/review"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proof(muni int64) VerificationInput {
	return VerificationInput{
		MunicipalityID: muni,
		Position:       "Barangay Kagawad",
		ProofURL:       "https://res.cloudinary.com/demo/image/upload/proof.jpg",
		ProofPublicID:  "verification/proof",
	}
}

func TestSubmitVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.CheckVerificationEligible(ctx, f.resident))

	req, err := f.svc.SubmitVerification(ctx, f.resident, proof(f.sanIsidro.ID))
	require.NoError(t, err)
	assert.Equal(t, review.StatusPending, req.Status)
	assert.Equal(t, "Barangay Kagawad", req.Position)
	assert.Len(t, f.db.ActivityWith(activity.ActionVerificationRequestSubmitted), 1)

	assert.ErrorIs(t, f.svc.CheckVerificationEligible(ctx, f.resident), review.ErrPendingVerification)
	_, err = f.svc.SubmitVerification(ctx, f.resident, proof(f.poblacion.ID))
	assert.ErrorIs(t, err, review.ErrPendingVerification)
	assert.Equal(t, 1, f.db.VerificationCount())

	assert.ErrorIs(t, f.svc.CheckVerificationEligible(ctx, f.official), ErrForbidden)
}

func TestSubmitVerificationValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := proof(f.sanIsidro.ID)
	in.Position = " "
	_, err := f.svc.SubmitVerification(ctx, f.resident, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = proof(f.sanIsidro.ID)
	in.ProofURL = ""
	_, err = f.svc.SubmitVerification(ctx, f.resident, in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Zero(t, f.db.VerificationCount())
}

func TestApproveVerificationPromotesRequester(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.SubmitVerification(ctx, f.resident, proof(f.sanIsidro.ID))
	require.NoError(t, err)

	got, err := f.svc.ApproveVerification(ctx, f.official, req.ID)
	require.NoError(t, err)
	assert.Equal(t, review.StatusApproved, got.Status)
	assert.NotNil(t, got.ReviewedAt)

	u, _ := f.db.User(f.resident.UserID)
	assert.Equal(t, rbac.RoleOfficial, u.Role)
	assert.True(t, u.IsVerified)
	require.NotNil(t, u.MunicipalityID)
	assert.Equal(t, f.sanIsidro.ID, *u.MunicipalityID)

	assert.Len(t, f.db.ActivityWith(activity.ActionVerificationRequestApproved), 1)
	require.Len(t, f.notes.all(), 1)
	assert.Equal(t, "verification_decision.tmpl", f.notes.all()[0].Template)

	_, err = f.svc.RejectVerification(ctx, f.official, req.ID, "too late")
	assert.ErrorIs(t, err, review.ErrNotFoundOrProcessed)
}

func TestRejectVerificationWithoutReasonMakesNoCalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.SubmitVerification(ctx, f.resident, proof(f.sanIsidro.ID))
	require.NoError(t, err)

	calls := f.db.TotalCalls()
	_, err = f.svc.RejectVerification(ctx, f.admin, req.ID, "")
	require.Error(t, err)
	assert.Equal(t, "Rejection reason is required", err.Error())
	assert.Equal(t, calls, f.db.TotalCalls())

	stored, _ := f.db.VerificationRequest(req.ID)
	assert.Equal(t, review.StatusPending, stored.Status)
}

func TestVerificationAuthority(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.SubmitVerification(ctx, f.resident, proof(f.sanIsidro.ID))
	require.NoError(t, err)

	_, err = f.svc.ApproveVerification(ctx, f.otherOfficial, req.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.RejectVerification(ctx, f.admin, req.ID, "Proof is blurry")
	require.NoError(t, err)
	assert.Equal(t, review.StatusRejected, got.Status)
	assert.Equal(t, "Proof is blurry", *got.RejectionReason)

	u, _ := f.db.User(f.resident.UserID)
	assert.Equal(t, rbac.RoleResident, u.Role)
	assert.False(t, u.IsVerified)
}

func TestApproveVerificationRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.SubmitVerification(ctx, f.resident, proof(f.sanIsidro.ID))
	require.NoError(t, err)

	f.db.Fail("activity.Append", errors.New("disk full"))
	_, err = f.svc.ApproveVerification(ctx, f.admin, req.ID)
	require.Error(t, err)

	u, _ := f.db.User(f.resident.UserID)
	assert.Equal(t, rbac.RoleResident, u.Role)
	stored, _ := f.db.VerificationRequest(req.ID)
	assert.Equal(t, review.StatusPending, stored.Status)
}

func TestCancelVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.SubmitVerification(ctx, f.resident, proof(f.sanIsidro.ID))
	require.NoError(t, err)

	gone, err := f.svc.CancelVerification(ctx, f.resident, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "verification/proof", gone.ProofPublicID)
	assert.Zero(t, f.db.VerificationCount())

	_, err = f.svc.CancelVerification(ctx, f.resident, req.ID)
	assert.ErrorIs(t, err, review.ErrNotFoundOrProcessed)
	require.NoError(t, f.svc.CheckVerificationEligible(ctx, f.resident))
}

func TestVerificationQueueScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitVerification(ctx, f.resident, proof(f.sanIsidro.ID))
	require.NoError(t, err)
	_, err = f.svc.SubmitVerification(ctx, f.neighbor, proof(f.poblacion.ID))
	require.NoError(t, err)

	_, total, err := f.svc.VerificationQueue(ctx, f.official, ReviewQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	pending := review.StatusPending
	_, total, err = f.svc.VerificationQueue(ctx, f.admin, ReviewQuery{Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	mine, _, err := f.svc.MyVerificationRequests(ctx, f.neighbor, Page{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.poblacion.ID, mine[0].MunicipalityID)
}

func TestApproveVerificationKeepsSuperAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.SubmitVerification(ctx, f.resident, proof(f.sanIsidro.ID))
	require.NoError(t, err)
	require.NoError(t, f.db.Repos().Users.SetRole(ctx, f.resident.UserID, rbac.RoleSuperAdmin))

	_, err = f.svc.ApproveVerification(ctx, f.official, req.ID)
	require.ErrorIs(t, err, users.ErrNotResident)

	u, _ := f.db.User(f.resident.UserID)
	assert.Equal(t, rbac.RoleSuperAdmin, u.Role)
	assert.False(t, u.IsVerified)
	assert.Nil(t, u.MunicipalityID)

	stored, _ := f.db.VerificationRequest(req.ID)
	assert.Equal(t, review.StatusPending, stored.Status)
	assert.Empty(t, f.db.ActivityWith(activity.ActionVerificationRequestApproved))
	assert.Empty(t, f.notes.all())
}
