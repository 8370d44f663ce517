package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"barangay/internal/domain/activity"
	"barangay/internal/domain/dashboard"
	"barangay/internal/domain/municipalities"
	"barangay/internal/domain/storage"
	"barangay/internal/domain/users"
	"barangay/internal/rbac"
	"barangay/internal/reports"
)

type ResidentQuery struct {
	MunicipalityID *int64
	Search         string
	Page
}

func (s *Service) Residents(ctx context.Context, sess Session, q ResidentQuery) ([]users.User, int, error) {
	if err := s.require(sess, rbac.PermManageResidents); err != nil {
		return nil, 0, err
	}
	muni, err := sess.scope(q.MunicipalityID)
	if err != nil {
		return nil, 0, err
	}
	return s.store.Repos().Users.ListResidents(ctx, users.ResidentFilter{
		MunicipalityID: muni,
		Search:         strings.TrimSpace(q.Search),
		Limit:          q.Limit,
		Offset:         q.Offset,
	})
}

// RecentActivity returns the latest audit entries the caller may see,
// newest first.
func (s *Service) RecentActivity(ctx context.Context, sess Session, municipalityID *int64, limit int) ([]activity.Entry, error) {
	if err := s.require(sess, rbac.PermViewActivity); err != nil {
		return nil, err
	}
	muni, err := sess.scope(municipalityID)
	if err != nil {
		return nil, err
	}
	return s.store.Repos().Activity.Recent(ctx, muni, limit)
}

func (s *Service) Overview(ctx context.Context, sess Session, municipalityID *int64) (*dashboard.Overview, error) {
	if err := s.require(sess, rbac.PermViewReports); err != nil {
		return nil, err
	}
	muni, err := sess.scope(municipalityID)
	if err != nil {
		return nil, err
	}
	return s.store.Repos().Dashboard.Overview(ctx, muni)
}

// DocumentReport summarizes document requests submitted in [from, to).
func (s *Service) DocumentReport(ctx context.Context, sess Session, municipalityID *int64, from, to time.Time) (*reports.DocumentSummary, error) {
	if err := s.require(sess, rbac.PermViewReports); err != nil {
		return nil, err
	}
	from, to, err := reports.Range(from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	muni, err := sess.scope(municipalityID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Repos().Documents.ListBetween(ctx, muni, from, to)
	if err != nil {
		return nil, err
	}
	sum := reports.Summarize(rows, from, to)
	return &sum, nil
}

func (s *Service) Municipalities(ctx context.Context) ([]municipalities.Municipality, error) {
	return s.store.Repos().Municipalities.List(ctx)
}

func (s *Service) CreateMunicipality(ctx context.Context, sess Session, in municipalities.CreateInput) (*municipalities.Municipality, error) {
	if err := s.require(sess, rbac.PermManageMunicipalities); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Province = strings.TrimSpace(in.Province)
	in.Region = trimmed(in.Region)
	if in.Name == "" || in.Province == "" {
		return nil, invalid("name and province are required")
	}

	var out *municipalities.Municipality
	err := s.store.WithTx(ctx, func(r *storage.Repositories) error {
		m, err := r.Municipalities.Create(ctx, in)
		if err != nil {
			return err
		}
		if err := r.Activity.Append(ctx, &activity.Entry{
			ActorID:        sess.UserID,
			MunicipalityID: &m.ID,
			Action:         activity.ActionMunicipalityCreated,
			Details:        fmt.Sprintf("Added %s, %s", m.Name, m.Province),
			EntityType:     entityMunicipality,
			EntityID:       &m.ID,
		}); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
