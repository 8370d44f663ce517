package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"barangay/internal/domain/activity"
	"barangay/internal/domain/membership"
	"barangay/internal/domain/municipalities"
	"barangay/internal/domain/storage"
	"barangay/internal/notifications"
	"barangay/internal/rbac"
	"barangay/internal/review"
)

// SubmitMembership files a request for the caller to join a municipality.
func (s *Service) SubmitMembership(ctx context.Context, sess Session, municipalityID int64) (*membership.Request, error) {
	if err := s.require(sess, rbac.PermJoinBarangay); err != nil {
		return nil, err
	}
	if municipalityID <= 0 {
		return nil, invalid("municipality_id is required")
	}

	var out *membership.Request
	err := s.store.WithTx(ctx, func(r *storage.Repositories) error {
		muni, err := r.Municipalities.GetByID(ctx, municipalityID)
		if err != nil {
			return err
		}
		active, err := r.Membership.HasActive(ctx, sess.UserID, municipalityID)
		if err != nil {
			return err
		}
		if active {
			return review.ErrAlreadyRequested
		}

		req, err := r.Membership.Create(ctx, sess.UserID, municipalityID)
		if err != nil {
			return err
		}
		if err := r.Activity.Append(ctx, &activity.Entry{
			ActorID:        sess.UserID,
			MunicipalityID: &municipalityID,
			Action:         activity.ActionBarangayRequestSubmitted,
			Details:        fmt.Sprintf("%s requested to join %s", sess.FullName, muni.Name),
			EntityType:     entityMembership,
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
	s.committed(entityMembership, out.ID, sess, string(out.Status))
	return out, nil
}

// pendingMembership loads a request the caller may review. Requests outside
// the caller's municipality are reported as forbidden; decided ones as
// already processed.
func (s *Service) pendingMembership(ctx context.Context, r *storage.Repositories, sess Session, id int64) (*membership.Request, error) {
	cur, err := r.Membership.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return nil, review.ErrNotFoundOrProcessed
		}
		return nil, err
	}
	if !sess.Administers(cur.MunicipalityID) {
		return nil, ErrForbidden
	}
	if cur.Status != review.StatusPending {
		return nil, review.ErrNotFoundOrProcessed
	}
	return cur, nil
}

// ApproveMembership accepts a pending request and attaches the requester to
// the municipality.
func (s *Service) ApproveMembership(ctx context.Context, sess Session, id int64) (*membership.Request, error) {
	if err := s.require(sess, rbac.PermApproveRequest, rbac.PermManageBarangayRequests); err != nil {
		return nil, err
	}

	var out *membership.Request
	err := s.store.WithTx(ctx, func(r *storage.Repositories) error {
		cur, err := s.pendingMembership(ctx, r, sess, id)
		if err != nil {
			return err
		}
		updated, err := r.Membership.MarkApproved(ctx, id, sess.UserID, s.now())
		if err != nil {
			return err
		}
		if err := r.Users.SetMunicipality(ctx, cur.RequesterID, cur.MunicipalityID); err != nil {
			return err
		}
		if err := r.Activity.Append(ctx, &activity.Entry{
			ActorID:        sess.UserID,
			MunicipalityID: &cur.MunicipalityID,
			Action:         activity.ActionBarangayRequestApproved,
			Details:        fmt.Sprintf("Approved %s's request to join %s", cur.RequesterName, cur.MunicipalityName),
			EntityType:     entityMembership,
			EntityID:       &cur.ID,
		}); err != nil {
			return err
		}
		out = withMembershipNames(updated, cur)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(entityMembership, out.ID, sess, string(out.Status))
	s.notify(notifications.MembershipDecision(membershipRecipient(out), out.ID, out.MunicipalityName, string(out.Status), ""))
	return out, nil
}

// RejectMembership declines a pending request. The reason is mandatory and
// checked before anything is read.
func (s *Service) RejectMembership(ctx context.Context, sess Session, id int64, reason string) (*membership.Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, review.ErrReasonRequired
	}
	if err := s.require(sess, rbac.PermRejectRequest, rbac.PermManageBarangayRequests); err != nil {
		return nil, err
	}

	var out *membership.Request
	err := s.store.WithTx(ctx, func(r *storage.Repositories) error {
		cur, err := s.pendingMembership(ctx, r, sess, id)
		if err != nil {
			return err
		}
		updated, err := r.Membership.MarkRejected(ctx, id, sess.UserID, reason, s.now())
		if err != nil {
			return err
		}
		if err := r.Activity.Append(ctx, &activity.Entry{
			ActorID:        sess.UserID,
			MunicipalityID: &cur.MunicipalityID,
			Action:         activity.ActionBarangayRequestRejected,
			Details:        fmt.Sprintf("Rejected %s's request to join %s: %s", cur.RequesterName, cur.MunicipalityName, reason),
			EntityType:     entityMembership,
			EntityID:       &cur.ID,
		}); err != nil {
			return err
		}
		out = withMembershipNames(updated, cur)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(entityMembership, out.ID, sess, string(out.Status))
	s.notify(notifications.MembershipDecision(membershipRecipient(out), out.ID, out.MunicipalityName, string(out.Status), reason))
	return out, nil
}

// CancelMembership deletes the caller's own request while it is pending.
func (s *Service) CancelMembership(ctx context.Context, sess Session, id int64) error {
	if err := s.require(sess, rbac.PermJoinBarangay); err != nil {
		return err
	}

	return s.store.WithTx(ctx, func(r *storage.Repositories) error {
		gone, err := r.Membership.DeletePending(ctx, id, sess.UserID)
		if err != nil {
			return err
		}
		return r.Activity.Append(ctx, &activity.Entry{
			ActorID:        sess.UserID,
			MunicipalityID: &gone.MunicipalityID,
			Action:         activity.ActionBarangayRequestCancelled,
			Details:        fmt.Sprintf("%s cancelled a request to join %s", sess.FullName, municipalityName(ctx, r.Municipalities, gone.MunicipalityID)),
			EntityType:     entityMembership,
			EntityID:       &gone.ID,
		})
	})
}

func (s *Service) MyMembershipRequests(ctx context.Context, sess Session, page Page) ([]membership.Request, int, error) {
	if err := s.require(sess, rbac.PermViewOwnRequests); err != nil {
		return nil, 0, err
	}
	return s.store.Repos().Membership.List(ctx, membership.Filter{
		RequesterID: &sess.UserID,
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
}

// MembershipQueue lists requests the caller reviews.
func (s *Service) MembershipQueue(ctx context.Context, sess Session, q ReviewQuery) ([]membership.Request, int, error) {
	if err := s.require(sess, rbac.PermManageBarangayRequests); err != nil {
		return nil, 0, err
	}
	muni, err := sess.scope(q.MunicipalityID)
	if err != nil {
		return nil, 0, err
	}
	return s.store.Repos().Membership.List(ctx, membership.Filter{
		MunicipalityID: muni,
		Status:         q.Status,
		Limit:          q.Limit,
		Offset:         q.Offset,
	})
}

func withMembershipNames(updated, cur *membership.Request) *membership.Request {
	out := *updated
	out.RequesterName = cur.RequesterName
	out.RequesterEmail = cur.RequesterEmail
	out.MunicipalityName = cur.MunicipalityName
	return &out
}

func membershipRecipient(r *membership.Request) notifications.Recipient {
	return notifications.Recipient{UserID: r.RequesterID, Email: r.RequesterEmail, Name: r.RequesterName}
}

// municipalityName resolves a display name, falling back to the id.
func municipalityName(ctx context.Context, store municipalities.Store, id int64) string {
	m, err := store.GetByID(ctx, id)
	if err != nil {
		return fmt.Sprintf("barangay #%d", id)
	}
	return m.Name
}
