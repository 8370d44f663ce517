// Package workflow runs the review workflows for membership, verification
// and document requests. Every state change commits together with its side
// effect and its activity log row; notifications go out after commit.
package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"barangay/internal/domain/documents"
	"barangay/internal/domain/storage"
	"barangay/internal/metrics"
	"barangay/internal/notifications"
	"barangay/internal/rbac"
	"barangay/internal/review"

	"go.uber.org/zap"
)

var (
	ErrForbidden      = errors.New("you are not allowed to perform this action")
	ErrNoMunicipality = errors.New("you are not a member of any barangay yet")
	ErrInvalidInput   = errors.New("invalid input")
)

const (
	entityMembership   = "membership_request"
	entityVerification = "verification_request"
	entityDocument     = "document_request"
	entityMunicipality = "municipality"
)

type Notifier interface {
	Notify(ev notifications.Event) bool
}

type Config struct {
	// RequireDenialReason makes document denials demand remarks the same
	// way membership and verification rejections demand a reason.
	RequireDenialReason bool
}

type Service struct {
	store    storage.Store
	notifier Notifier
	refs     *documents.References
	logger   *zap.SugaredLogger
	cfg      Config
	now      func() time.Time
}

func NewService(store storage.Store, notifier Notifier, refs *documents.References, logger *zap.SugaredLogger, cfg Config) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		refs:     refs,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *Service) require(sess Session, perms ...rbac.Permission) error {
	if !sess.CanAll(perms...) {
		return ErrForbidden
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// committed records a status change that has been durably written.
func (s *Service) committed(entity string, id int64, sess Session, status string) {
	metrics.WorkflowTransition(entity, status)
	s.logger.Infow("request status changed", "entity", entity, "id", id, "actor", sess.UserID, "status", status)
}

func (s *Service) notify(ev notifications.Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ev)
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

type Page struct {
	Limit  int
	Offset int
}

// ReviewQuery filters a membership or verification review queue. A nil
// MunicipalityID means every municipality the caller may see.
type ReviewQuery struct {
	MunicipalityID *int64
	Status         *review.Status
	Page
}

type DocumentQuery struct {
	MunicipalityID *int64
	Status         *review.DocumentStatus
	Type           *documents.Type
	Page
}
