package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"barangay/internal/domain/activity"
	"barangay/internal/domain/storage"
	"barangay/internal/domain/verification"
	"barangay/internal/notifications"
	"barangay/internal/rbac"
	"barangay/internal/review"
)

type VerificationInput struct {
	MunicipalityID int64
	Position       string
	ProofURL       string
	ProofPublicID  string
}

// CheckVerificationEligible tells a resident up front whether a new
// verification request would be accepted, so the proof is not uploaded
// for nothing.
func (s *Service) CheckVerificationEligible(ctx context.Context, sess Session) error {
	if err := s.require(sess, rbac.PermRequestVerification); err != nil {
		return err
	}
	pending, err := s.store.Repos().Verification.HasPending(ctx, sess.UserID)
	if err != nil {
		return err
	}
	if pending {
		return review.ErrPendingVerification
	}
	return nil
}

func (s *Service) SubmitVerification(ctx context.Context, sess Session, in VerificationInput) (*verification.Request, error) {
	if err := s.require(sess, rbac.PermRequestVerification); err != nil {
		return nil, err
	}
	in.Position = strings.TrimSpace(in.Position)
	switch {
	case in.MunicipalityID <= 0:
		return nil, invalid("municipality_id is required")
	case in.Position == "":
		return nil, invalid("position is required")
	case in.ProofURL == "":
		return nil, invalid("proof document is required")
	}

	var out *verification.Request
	err := s.store.WithTx(ctx, func(r *storage.Repositories) error {
		muni, err := r.Municipalities.GetByID(ctx, in.MunicipalityID)
		if err != nil {
			return err
		}
		pending, err := r.Verification.HasPending(ctx, sess.UserID)
		if err != nil {
			return err
		}
		if pending {
			return review.ErrPendingVerification
		}

		req, err := r.Verification.Create(ctx, verification.CreateInput{
			RequesterID:    sess.UserID,
			MunicipalityID: in.MunicipalityID,
			Position:       in.Position,
			ProofURL:       in.ProofURL,
			ProofPublicID:  in.ProofPublicID,
		})
		if err != nil {
			return err
		}
		if err := r.Activity.Append(ctx, &activity.Entry{
			ActorID:        sess.UserID,
			MunicipalityID: &in.MunicipalityID,
			Action:         activity.ActionVerificationRequestSubmitted,
			Details:        fmt.Sprintf("%s requested verification as %s of %s", sess.FullName, in.Position, muni.Name),
			EntityType:     entityVerification,
			EntityID:       &req.ID,
		}); err != nil {
			return err
		}
		req.MunicipalityName = muni.Name
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.committed(entityVerification, out.ID, sess, string(out.Status))
	return out, nil
}

// verificationReviewer reports whether the caller may decide verification
// requests for the municipality. Super admins hold the cross-municipality
// permission; officials review their own barangay only.
func verificationReviewer(sess Session, municipalityID int64) bool {
	if sess.Can(rbac.PermManageAllVerifications) {
		return true
	}
	return sess.Can(rbac.PermManageVerifications) && sess.Administers(municipalityID)
}

func (s *Service) pendingVerification(ctx context.Context, r *storage.Repositories, sess Session, id int64) (*verification.Request, error) {
	cur, err := r.Verification.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, verification.ErrNotFound) {
			return nil, review.ErrNotFoundOrProcessed
		}
		return nil, err
	}
	if !verificationReviewer(sess, cur.MunicipalityID) {
		return nil, ErrForbidden
	}
	if cur.Status != review.StatusPending {
		return nil, review.ErrNotFoundOrProcessed
	}
	return cur, nil
}

// ApproveVerification promotes the requester to official of the requested
// municipality.
func (s *Service) ApproveVerification(ctx context.Context, sess Session, id int64) (*verification.Request, error) {
	if err := s.require(sess, rbac.PermApproveRequest, rbac.PermManageVerifications); err != nil {
		return nil, err
	}

	var out *verification.Request
	err := s.store.WithTx(ctx, func(r *storage.Repositories) error {
		cur, err := s.pendingVerification(ctx, r, sess, id)
		if err != nil {
			return err
		}
		updated, err := r.Verification.MarkApproved(ctx, id, sess.UserID, s.now())
		if err != nil {
			return err
		}
		if err := r.Users.PromoteToOfficial(ctx, cur.RequesterID, cur.MunicipalityID); err != nil {
			return err
		}
		if err := r.Activity.Append(ctx, &activity.Entry{
			ActorID:        sess.UserID,
			MunicipalityID: &cur.MunicipalityID,
			Action:         activity.ActionVerificationRequestApproved,
			Details:        fmt.Sprintf("Verified %s as %s of %s", cur.RequesterName, cur.Position, cur.MunicipalityName),
			EntityType:     entityVerification,
			EntityID:       &cur.ID,
		}); err != nil {
			return err
		}
		out = withVerificationNames(updated, cur)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(entityVerification, out.ID, sess, string(out.Status))
	s.notify(notifications.VerificationDecision(verificationRecipient(out), out.ID, out.MunicipalityName, string(out.Status), ""))
	return out, nil
}

func (s *Service) RejectVerification(ctx context.Context, sess Session, id int64, reason string) (*verification.Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, review.ErrReasonRequired
	}
	if err := s.require(sess, rbac.PermRejectRequest, rbac.PermManageVerifications); err != nil {
		return nil, err
	}

	var out *verification.Request
	err := s.store.WithTx(ctx, func(r *storage.Repositories) error {
		cur, err := s.pendingVerification(ctx, r, sess, id)
		if err != nil {
			return err
		}
		updated, err := r.Verification.MarkRejected(ctx, id, sess.UserID, reason, s.now())
		if err != nil {
			return err
		}
		if err := r.Activity.Append(ctx, &activity.Entry{
			ActorID:        sess.UserID,
			MunicipalityID: &cur.MunicipalityID,
			Action:         activity.ActionVerificationRequestRejected,
			Details:        fmt.Sprintf("Rejected verification of %s for %s: %s", cur.RequesterName, cur.MunicipalityName, reason),
			EntityType:     entityVerification,
			EntityID:       &cur.ID,
		}); err != nil {
			return err
		}
		out = withVerificationNames(updated, cur)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(entityVerification, out.ID, sess, string(out.Status))
	s.notify(notifications.VerificationDecision(verificationRecipient(out), out.ID, out.MunicipalityName, string(out.Status), reason))
	return out, nil
}

// CancelVerification deletes the caller's pending request and returns it so
// the caller can release the uploaded proof.
func (s *Service) CancelVerification(ctx context.Context, sess Session, id int64) (*verification.Request, error) {
	if err := s.require(sess, rbac.PermRequestVerification); err != nil {
		return nil, err
	}

	var out *verification.Request
	err := s.store.WithTx(ctx, func(r *storage.Repositories) error {
		gone, err := r.Verification.DeletePending(ctx, id, sess.UserID)
		if err != nil {
			return err
		}
		out = gone
		return r.Activity.Append(ctx, &activity.Entry{
			ActorID:        sess.UserID,
			MunicipalityID: &gone.MunicipalityID,
			Action:         activity.ActionVerificationRequestCancelled,
			Details: fmt.Sprintf("%s cancelled a verification request for %s",
				sess.FullName, municipalityName(ctx, r.Municipalities, gone.MunicipalityID)),
			EntityType: entityVerification,
			EntityID:   &gone.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) MyVerificationRequests(ctx context.Context, sess Session, page Page) ([]verification.Request, int, error) {
	if err := s.require(sess, rbac.PermViewOwnRequests); err != nil {
		return nil, 0, err
	}
	return s.store.Repos().Verification.List(ctx, verification.Filter{
		RequesterID: &sess.UserID,
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
}

// VerificationQueue lists verification requests the caller reviews. Super
// admins see every municipality unless they narrow the query.
func (s *Service) VerificationQueue(ctx context.Context, sess Session, q ReviewQuery) ([]verification.Request, int, error) {
	if err := s.require(sess, rbac.PermManageVerifications); err != nil {
		return nil, 0, err
	}
	muni, err := sess.scope(q.MunicipalityID)
	if err != nil {
		return nil, 0, err
	}
	return s.store.Repos().Verification.List(ctx, verification.Filter{
		MunicipalityID: muni,
		Status:         q.Status,
		Limit:          q.Limit,
		Offset:         q.Offset,
	})
}

func withVerificationNames(updated, cur *verification.Request) *verification.Request {
	out := *updated
	out.RequesterName = cur.RequesterName
	out.RequesterEmail = cur.RequesterEmail
	out.MunicipalityName = cur.MunicipalityName
	return &out
}

func verificationRecipient(r *verification.Request) notifications.Recipient {
	return notifications.Recipient{UserID: r.RequesterID, Email: r.RequesterEmail, Name: r.RequesterName}
}
