package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"barangay/internal/domain/activity"
	"barangay/internal/domain/documents"
	"barangay/internal/domain/storage"
	"barangay/internal/domain/users"
	"barangay/internal/notifications"
	"barangay/internal/rbac"
	"barangay/internal/review"
)

const maxPurposeLen = 500

type DocumentInput struct {
	Type    documents.Type
	Purpose string
}

// SubmitDocument files a document request with the caller's barangay.
func (s *Service) SubmitDocument(ctx context.Context, sess Session, in DocumentInput) (*documents.Request, error) {
	if err := s.require(sess, rbac.PermSubmitRequest); err != nil {
		return nil, err
	}
	if _, err := documents.ParseType(string(in.Type)); err != nil {
		return nil, invalid("%v", err)
	}
	in.Purpose = strings.TrimSpace(in.Purpose)
	if in.Purpose == "" {
		return nil, invalid("purpose is required")
	}
	if len(in.Purpose) > maxPurposeLen {
		return nil, invalid("purpose must be at most %d characters", maxPurposeLen)
	}
	if sess.MunicipalityID == nil {
		return nil, ErrNoMunicipality
	}
	muniID := *sess.MunicipalityID

	var out *documents.Request
	err := s.store.WithTx(ctx, func(r *storage.Repositories) error {
		req, err := r.Documents.Create(ctx, documents.CreateInput{
			RequesterID:    sess.UserID,
			MunicipalityID: muniID,
			Type:           in.Type,
			Purpose:        in.Purpose,
		})
		if err != nil {
			return err
		}
		s.refs.Stamp(req)
		if err := r.Activity.Append(ctx, &activity.Entry{
			ActorID:        sess.UserID,
			MunicipalityID: &muniID,
			Action:         activity.ActionDocumentRequestSubmitted,
			Details:        fmt.Sprintf("%s requested a %s (%s)", sess.FullName, documentLabel(req.Type), req.Reference),
			EntityType:     entityDocument,
			EntityID:       &req.ID,
		}); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.committed(entityDocument, out.ID, sess, string(out.Status))
	return out, nil
}

// ApproveDocument moves a pending request to approved.
func (s *Service) ApproveDocument(ctx context.Context, sess Session, id int64, remarks *string) (*documents.Request, error) {
	return s.transitionDocument(ctx, sess, id, review.DocumentApproved, trimmed(remarks))
}

// DenyDocument moves a pending request to denied. Remarks are optional
// unless the service is configured to require a denial reason.
func (s *Service) DenyDocument(ctx context.Context, sess Session, id int64, remarks *string) (*documents.Request, error) {
	remarks = trimmed(remarks)
	if s.cfg.RequireDenialReason && remarks == nil {
		return nil, review.ErrReasonRequired
	}
	return s.transitionDocument(ctx, sess, id, review.DocumentDenied, remarks)
}

// CompleteDocument marks an approved request as released to the resident.
func (s *Service) CompleteDocument(ctx context.Context, sess Session, id int64, remarks *string) (*documents.Request, error) {
	return s.transitionDocument(ctx, sess, id, review.DocumentCompleted, trimmed(remarks))
}

var documentActions = map[review.DocumentStatus]string{
	review.DocumentApproved:  activity.ActionDocumentRequestApproved,
	review.DocumentDenied:    activity.ActionDocumentRequestDenied,
	review.DocumentCompleted: activity.ActionDocumentRequestCompleted,
}

func (s *Service) transitionDocument(ctx context.Context, sess Session, id int64, to review.DocumentStatus, remarks *string) (*documents.Request, error) {
	perm := rbac.PermApproveRequest
	if to == review.DocumentDenied {
		perm = rbac.PermRejectRequest
	}
	if err := s.require(sess, perm); err != nil {
		return nil, err
	}
	from, err := review.DocumentSource(to)
	if err != nil {
		return nil, err
	}

	var (
		out       *documents.Request
		requester *users.User
	)
	err = s.store.WithTx(ctx, func(r *storage.Repositories) error {
		cur, err := r.Documents.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, documents.ErrNotFound) {
				return review.ErrNotFoundOrProcessed
			}
			return err
		}
		if !sess.Administers(cur.MunicipalityID) {
			return ErrForbidden
		}
		if cur.Status != from {
			return review.ErrNotFoundOrProcessed
		}

		updated, err := r.Documents.Transition(ctx, documents.TransitionInput{
			ID:         id,
			From:       from,
			To:         to,
			ReviewerID: sess.UserID,
			Remarks:    remarks,
			At:         s.now(),
		})
		if err != nil {
			return err
		}
		s.refs.Stamp(updated)

		details := fmt.Sprintf("%s %s for %s", documentLabel(updated.Type), to, cur.RequesterName)
		if remarks != nil {
			details += ": " + *remarks
		}
		if err := r.Activity.Append(ctx, &activity.Entry{
			ActorID:        sess.UserID,
			MunicipalityID: &cur.MunicipalityID,
			Action:         documentActions[to],
			Details:        details,
			EntityType:     entityDocument,
			EntityID:       &cur.ID,
		}); err != nil {
			return err
		}

		requester, err = r.Users.GetByID(ctx, cur.RequesterID)
		if err != nil && !errors.Is(err, users.ErrNotFound) {
			return err
		}
		updated.RequesterName = cur.RequesterName
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(entityDocument, out.ID, sess, string(out.Status))
	if requester != nil {
		s.notify(notifications.DocumentUpdate(
			notifications.Recipient{UserID: requester.ID, Email: requester.Email, Name: requester.FullName()},
			out.Reference, string(out.Type), string(out.Status), deref(out.Remarks)))
	}
	return out, nil
}

// Document returns a request the caller owns or administers.
func (s *Service) Document(ctx context.Context, sess Session, id int64) (*documents.Request, error) {
	req, err := s.store.Repos().Documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.RequesterID != sess.UserID && !(sess.Can(rbac.PermViewAllRequests) && sess.Administers(req.MunicipalityID)) {
		// Hide the existence of requests the caller cannot see.
		return nil, documents.ErrNotFound
	}
	s.refs.Stamp(req)
	return req, nil
}

// DocumentByReference looks a request up by the code printed on it.
func (s *Service) DocumentByReference(ctx context.Context, sess Session, ref string) (*documents.Request, error) {
	id, err := s.refs.Decode(ref)
	if err != nil {
		return nil, documents.ErrNotFound
	}
	return s.Document(ctx, sess, id)
}

func (s *Service) MyDocumentRequests(ctx context.Context, sess Session, q DocumentQuery) ([]documents.Request, int, error) {
	if err := s.require(sess, rbac.PermViewOwnRequests); err != nil {
		return nil, 0, err
	}
	items, total, err := s.store.Repos().Documents.List(ctx, documents.Filter{
		RequesterID: &sess.UserID,
		Status:      q.Status,
		Type:        q.Type,
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	s.stampAll(items)
	return items, total, nil
}

// DocumentQueue lists document requests for the caller's municipality.
func (s *Service) DocumentQueue(ctx context.Context, sess Session, q DocumentQuery) ([]documents.Request, int, error) {
	if err := s.require(sess, rbac.PermViewAllRequests); err != nil {
		return nil, 0, err
	}
	muni, err := sess.scope(q.MunicipalityID)
	if err != nil {
		return nil, 0, err
	}
	items, total, err := s.store.Repos().Documents.List(ctx, documents.Filter{
		MunicipalityID: muni,
		Status:         q.Status,
		Type:           q.Type,
		Limit:          q.Limit,
		Offset:         q.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	s.stampAll(items)
	return items, total, nil
}

func (s *Service) stampAll(items []documents.Request) {
	for i := range items {
		s.refs.Stamp(&items[i])
	}
}

func documentLabel(t documents.Type) string {
	return strings.ReplaceAll(string(t), "_", " ")
}
