package storagetest

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"barangay/internal/domain/activity"
	"barangay/internal/domain/dashboard"
	"barangay/internal/domain/documents"
	"barangay/internal/domain/membership"
	"barangay/internal/domain/municipalities"
	"barangay/internal/domain/users"
	"barangay/internal/domain/verification"
	"barangay/internal/rbac"
	"barangay/internal/review"
)

type usersStore struct{ db *DB }

func (s *usersStore) Create(_ context.Context, u *users.User) error {
	if err := s.db.hit("users.Create"); err != nil {
		return err
	}
	defer s.db.lock()()
	email := strings.ToLower(u.Email)
	for _, existing := range s.db.st.users {
		if existing.Email == email {
			return users.ErrDuplicateEmail
		}
	}
	u.ID = s.db.nextID()
	u.Email = email
	if !u.Role.Valid() {
		u.Role = rbac.RoleResident
	}
	u.IsActive = true
	u.CreatedAt, u.UpdatedAt = s.db.Now(), s.db.Now()
	s.db.st.users[u.ID] = *u
	return nil
}

func (s *usersStore) GetByID(_ context.Context, id int64) (*users.User, error) {
	if err := s.db.hit("users.GetByID"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	u, ok := s.db.st.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &u, nil
}

func (s *usersStore) GetByEmail(_ context.Context, email string) (*users.User, error) {
	if err := s.db.hit("users.GetByEmail"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	email = strings.ToLower(email)
	for _, u := range s.db.st.users {
		if u.Email == email && u.IsActive {
			return &u, nil
		}
	}
	return nil, users.ErrNotFound
}

func (s *usersStore) update(op string, id int64, fn func(u *users.User)) error {
	if err := s.db.hit(op); err != nil {
		return err
	}
	defer s.db.lock()()
	u, ok := s.db.st.users[id]
	if !ok {
		return users.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = s.db.Now()
	s.db.st.users[id] = u
	return nil
}

func (s *usersStore) SetMunicipality(_ context.Context, userID, municipalityID int64) error {
	return s.updateResident("users.SetMunicipality", userID, func(u *users.User) {
		u.MunicipalityID = ptr(municipalityID)
	})
}

func (s *usersStore) PromoteToOfficial(_ context.Context, userID, municipalityID int64) error {
	return s.updateResident("users.PromoteToOfficial", userID, func(u *users.User) {
		u.Role = rbac.RoleOfficial
		u.IsVerified = true
		u.MunicipalityID = ptr(municipalityID)
	})
}

// updateResident mirrors the role = 'resident' guard of the SQL store.
func (s *usersStore) updateResident(op string, id int64, fn func(u *users.User)) error {
	if err := s.db.hit(op); err != nil {
		return err
	}
	defer s.db.lock()()
	u, ok := s.db.st.users[id]
	if !ok {
		return users.ErrNotFound
	}
	if u.Role != rbac.RoleResident {
		return users.ErrNotResident
	}
	fn(&u)
	u.UpdatedAt = s.db.Now()
	s.db.st.users[id] = u
	return nil
}

func (s *usersStore) SetRole(_ context.Context, userID int64, role rbac.Role) error {
	return s.update("users.SetRole", userID, func(u *users.User) { u.Role = role })
}

func (s *usersStore) ListResidents(_ context.Context, f users.ResidentFilter) ([]users.User, int, error) {
	if err := s.db.hit("users.ListResidents"); err != nil {
		return nil, 0, err
	}
	defer s.db.lock()()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []users.User
	for _, u := range s.db.st.users {
		if u.Role != rbac.RoleResident {
			continue
		}
		if f.MunicipalityID != nil && (u.MunicipalityID == nil || *u.MunicipalityID != *f.MunicipalityID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.FirstName+" "+u.LastName+" "+u.Email), search) {
			continue
		}
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b users.User) int {
		return cmp.Or(cmp.Compare(a.LastName, b.LastName), cmp.Compare(a.FirstName, b.FirstName), cmp.Compare(a.ID, b.ID))
	})
	limit := f.Limit
	if limit <= 0 {
		limit = 15
	}
	return page(out, limit, f.Offset), len(out), nil
}

func (s *usersStore) SaveRefreshToken(_ context.Context, userID int64, token string) error {
	if err := s.db.hit("users.SaveRefreshToken"); err != nil {
		return err
	}
	defer s.db.lock()()
	s.db.st.refreshTokens[userID] = token
	return nil
}

func (s *usersStore) DeleteRefreshToken(_ context.Context, userID int64) error {
	if err := s.db.hit("users.DeleteRefreshToken"); err != nil {
		return err
	}
	defer s.db.lock()()
	delete(s.db.st.refreshTokens, userID)
	return nil
}

func (s *usersStore) GetRefreshToken(_ context.Context, userID int64) (string, error) {
	if err := s.db.hit("users.GetRefreshToken"); err != nil {
		return "", err
	}
	defer s.db.lock()()
	t, ok := s.db.st.refreshTokens[userID]
	if !ok {
		return "", users.ErrNotFound
	}
	return t, nil
}

type municipalityStore struct{ db *DB }

func (s *municipalityStore) Create(_ context.Context, in municipalities.CreateInput) (*municipalities.Municipality, error) {
	if err := s.db.hit("municipalities.Create"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	for _, m := range s.db.st.municipalities {
		if strings.EqualFold(m.Name, strings.TrimSpace(in.Name)) && strings.EqualFold(m.Province, strings.TrimSpace(in.Province)) {
			return nil, municipalities.ErrDuplicate
		}
	}
	m := municipalities.Municipality{
		ID:        s.db.nextID(),
		Name:      strings.TrimSpace(in.Name),
		Province:  strings.TrimSpace(in.Province),
		Region:    in.Region,
		CreatedAt: s.db.Now(),
	}
	s.db.st.municipalities[m.ID] = m
	return &m, nil
}

func (s *municipalityStore) GetByID(_ context.Context, id int64) (*municipalities.Municipality, error) {
	if err := s.db.hit("municipalities.GetByID"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	m, ok := s.db.st.municipalities[id]
	if !ok {
		return nil, municipalities.ErrNotFound
	}
	return &m, nil
}

func (s *municipalityStore) List(_ context.Context) ([]municipalities.Municipality, error) {
	if err := s.db.hit("municipalities.List"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	out := make([]municipalities.Municipality, 0, len(s.db.st.municipalities))
	for _, m := range s.db.st.municipalities {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b municipalities.Municipality) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

type membershipStore struct{ db *DB }

// join fills the display fields the SQL store gets from joins. Callers hold
// the lock.
func (s *membershipStore) join(r membership.Request) membership.Request {
	if u, ok := s.db.st.users[r.RequesterID]; ok {
		r.RequesterName, r.RequesterEmail = u.FullName(), u.Email
	}
	if m, ok := s.db.st.municipalities[r.MunicipalityID]; ok {
		r.MunicipalityName = m.Name
	}
	return r
}

func (s *membershipStore) Create(_ context.Context, requesterID, municipalityID int64) (*membership.Request, error) {
	if err := s.db.hit("membership.Create"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	for _, r := range s.db.st.membership {
		if r.RequesterID == requesterID && r.MunicipalityID == municipalityID && r.Status.Active() {
			return nil, review.ErrAlreadyRequested
		}
	}
	r := membership.Request{
		ID:             s.db.nextID(),
		RequesterID:    requesterID,
		MunicipalityID: municipalityID,
		Status:         review.StatusPending,
		RequestedAt:    s.db.Now(),
	}
	s.db.st.membership[r.ID] = r
	return &r, nil
}

func (s *membershipStore) HasActive(_ context.Context, requesterID, municipalityID int64) (bool, error) {
	if err := s.db.hit("membership.HasActive"); err != nil {
		return false, err
	}
	defer s.db.lock()()
	for _, r := range s.db.st.membership {
		if r.RequesterID == requesterID && r.MunicipalityID == municipalityID && r.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (s *membershipStore) GetByID(_ context.Context, id int64) (*membership.Request, error) {
	if err := s.db.hit("membership.GetByID"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	r, ok := s.db.st.membership[id]
	if !ok {
		return nil, membership.ErrNotFound
	}
	r = s.join(r)
	return &r, nil
}

func (s *membershipStore) List(_ context.Context, f membership.Filter) ([]membership.Request, int, error) {
	if err := s.db.hit("membership.List"); err != nil {
		return nil, 0, err
	}
	defer s.db.lock()()
	var out []membership.Request
	for _, r := range s.db.st.membership {
		if f.RequesterID != nil && r.RequesterID != *f.RequesterID {
			continue
		}
		if f.MunicipalityID != nil && r.MunicipalityID != *f.MunicipalityID {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		out = append(out, s.join(r))
	}
	slices.SortFunc(out, func(a, b membership.Request) int {
		return cmp.Or(b.RequestedAt.Compare(a.RequestedAt), cmp.Compare(b.ID, a.ID))
	})
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (s *membershipStore) transition(op string, id int64, fn func(r *membership.Request)) (*membership.Request, error) {
	if err := s.db.hit(op); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	r, ok := s.db.st.membership[id]
	if !ok || r.Status != review.StatusPending {
		return nil, review.ErrNotFoundOrProcessed
	}
	fn(&r)
	s.db.st.membership[id] = r
	return &r, nil
}

func (s *membershipStore) MarkApproved(_ context.Context, id, reviewerID int64, at time.Time) (*membership.Request, error) {
	return s.transition("membership.MarkApproved", id, func(r *membership.Request) {
		r.Status, r.ReviewedAt, r.ReviewedBy = review.StatusApproved, ptr(at), ptr(reviewerID)
	})
}

func (s *membershipStore) MarkRejected(_ context.Context, id, reviewerID int64, reason string, at time.Time) (*membership.Request, error) {
	return s.transition("membership.MarkRejected", id, func(r *membership.Request) {
		r.Status, r.ReviewedAt, r.ReviewedBy = review.StatusRejected, ptr(at), ptr(reviewerID)
		r.RejectionReason = ptr(reason)
	})
}

func (s *membershipStore) DeletePending(_ context.Context, id, requesterID int64) (*membership.Request, error) {
	if err := s.db.hit("membership.DeletePending"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	r, ok := s.db.st.membership[id]
	if !ok || r.RequesterID != requesterID || r.Status != review.StatusPending {
		return nil, review.ErrNotFoundOrProcessed
	}
	delete(s.db.st.membership, id)
	return &r, nil
}

type verificationStore struct{ db *DB }

func (s *verificationStore) join(r verification.Request) verification.Request {
	if u, ok := s.db.st.users[r.RequesterID]; ok {
		r.RequesterName, r.RequesterEmail = u.FullName(), u.Email
	}
	if m, ok := s.db.st.municipalities[r.MunicipalityID]; ok {
		r.MunicipalityName = m.Name
	}
	return r
}

func (s *verificationStore) Create(_ context.Context, in verification.CreateInput) (*verification.Request, error) {
	if err := s.db.hit("verification.Create"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	for _, r := range s.db.st.verification {
		if r.RequesterID == in.RequesterID && r.Status == review.StatusPending {
			return nil, review.ErrPendingVerification
		}
	}
	r := verification.Request{
		ID:             s.db.nextID(),
		RequesterID:    in.RequesterID,
		MunicipalityID: in.MunicipalityID,
		Position:       in.Position,
		ProofURL:       in.ProofURL,
		ProofPublicID:  in.ProofPublicID,
		Status:         review.StatusPending,
		RequestedAt:    s.db.Now(),
	}
	s.db.st.verification[r.ID] = r
	return &r, nil
}

func (s *verificationStore) HasPending(_ context.Context, requesterID int64) (bool, error) {
	if err := s.db.hit("verification.HasPending"); err != nil {
		return false, err
	}
	defer s.db.lock()()
	for _, r := range s.db.st.verification {
		if r.RequesterID == requesterID && r.Status == review.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *verificationStore) GetByID(_ context.Context, id int64) (*verification.Request, error) {
	if err := s.db.hit("verification.GetByID"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	r, ok := s.db.st.verification[id]
	if !ok {
		return nil, verification.ErrNotFound
	}
	r = s.join(r)
	return &r, nil
}

func (s *verificationStore) List(_ context.Context, f verification.Filter) ([]verification.Request, int, error) {
	if err := s.db.hit("verification.List"); err != nil {
		return nil, 0, err
	}
	defer s.db.lock()()
	var out []verification.Request
	for _, r := range s.db.st.verification {
		if f.RequesterID != nil && r.RequesterID != *f.RequesterID {
			continue
		}
		if f.MunicipalityID != nil && r.MunicipalityID != *f.MunicipalityID {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		out = append(out, s.join(r))
	}
	slices.SortFunc(out, func(a, b verification.Request) int {
		return cmp.Or(b.RequestedAt.Compare(a.RequestedAt), cmp.Compare(b.ID, a.ID))
	})
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (s *verificationStore) transition(op string, id int64, fn func(r *verification.Request)) (*verification.Request, error) {
	if err := s.db.hit(op); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	r, ok := s.db.st.verification[id]
	if !ok || r.Status != review.StatusPending {
		return nil, review.ErrNotFoundOrProcessed
	}
	fn(&r)
	s.db.st.verification[id] = r
	return &r, nil
}

func (s *verificationStore) MarkApproved(_ context.Context, id, reviewerID int64, at time.Time) (*verification.Request, error) {
	return s.transition("verification.MarkApproved", id, func(r *verification.Request) {
		r.Status, r.ReviewedAt, r.ReviewedBy = review.StatusApproved, ptr(at), ptr(reviewerID)
	})
}

func (s *verificationStore) MarkRejected(_ context.Context, id, reviewerID int64, reason string, at time.Time) (*verification.Request, error) {
	return s.transition("verification.MarkRejected", id, func(r *verification.Request) {
		r.Status, r.ReviewedAt, r.ReviewedBy = review.StatusRejected, ptr(at), ptr(reviewerID)
		r.RejectionReason = ptr(reason)
	})
}

func (s *verificationStore) DeletePending(_ context.Context, id, requesterID int64) (*verification.Request, error) {
	if err := s.db.hit("verification.DeletePending"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	r, ok := s.db.st.verification[id]
	if !ok || r.RequesterID != requesterID || r.Status != review.StatusPending {
		return nil, review.ErrNotFoundOrProcessed
	}
	delete(s.db.st.verification, id)
	return &r, nil
}

type documentStore struct{ db *DB }

func (s *documentStore) join(r documents.Request) documents.Request {
	if u, ok := s.db.st.users[r.RequesterID]; ok {
		r.RequesterName = u.FullName()
	}
	return r
}

func (s *documentStore) Create(_ context.Context, in documents.CreateInput) (*documents.Request, error) {
	if err := s.db.hit("documents.Create"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	r := documents.Request{
		ID:             s.db.nextID(),
		RequesterID:    in.RequesterID,
		MunicipalityID: in.MunicipalityID,
		Type:           in.Type,
		Purpose:        in.Purpose,
		Status:         review.DocumentPending,
		SubmittedAt:    s.db.Now(),
	}
	s.db.st.documents[r.ID] = r
	return &r, nil
}

func (s *documentStore) GetByID(_ context.Context, id int64) (*documents.Request, error) {
	if err := s.db.hit("documents.GetByID"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	r, ok := s.db.st.documents[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	r = s.join(r)
	return &r, nil
}

func (s *documentStore) List(_ context.Context, f documents.Filter) ([]documents.Request, int, error) {
	if err := s.db.hit("documents.List"); err != nil {
		return nil, 0, err
	}
	defer s.db.lock()()
	var out []documents.Request
	for _, r := range s.db.st.documents {
		if f.RequesterID != nil && r.RequesterID != *f.RequesterID {
			continue
		}
		if f.MunicipalityID != nil && r.MunicipalityID != *f.MunicipalityID {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		if f.Type != nil && r.Type != *f.Type {
			continue
		}
		out = append(out, s.join(r))
	}
	slices.SortFunc(out, func(a, b documents.Request) int {
		return cmp.Or(b.SubmittedAt.Compare(a.SubmittedAt), cmp.Compare(b.ID, a.ID))
	})
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (s *documentStore) Transition(_ context.Context, in documents.TransitionInput) (*documents.Request, error) {
	if err := s.db.hit("documents.Transition"); err != nil {
		return nil, err
	}
	if !review.CanTransitionDocument(in.From, in.To) {
		return nil, review.ErrInvalidTransition
	}
	defer s.db.lock()()
	r, ok := s.db.st.documents[in.ID]
	if !ok || r.Status != in.From {
		return nil, review.ErrNotFoundOrProcessed
	}
	r.Status = in.To
	r.ReviewedBy, r.ReviewedAt = ptr(in.ReviewerID), ptr(in.At)
	if in.Remarks != nil {
		r.Remarks = in.Remarks
	}
	if in.To == review.DocumentCompleted {
		r.CompletedAt = ptr(in.At)
	}
	s.db.st.documents[in.ID] = r
	return &r, nil
}

func (s *documentStore) ListBetween(_ context.Context, municipalityID *int64, from, to time.Time) ([]documents.Request, error) {
	if err := s.db.hit("documents.ListBetween"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	var out []documents.Request
	for _, r := range s.db.st.documents {
		if r.SubmittedAt.Before(from) || !r.SubmittedAt.Before(to) {
			continue
		}
		if municipalityID != nil && r.MunicipalityID != *municipalityID {
			continue
		}
		out = append(out, s.join(r))
	}
	slices.SortFunc(out, func(a, b documents.Request) int {
		return cmp.Or(a.SubmittedAt.Compare(b.SubmittedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

type activityStore struct{ db *DB }

func (s *activityStore) Append(_ context.Context, e *activity.Entry) error {
	if err := s.db.hit("activity.Append"); err != nil {
		return err
	}
	defer s.db.lock()()
	e.ID = s.db.nextID()
	e.CreatedAt = s.db.Now()
	s.db.st.activity = append(s.db.st.activity, *e)
	return nil
}

func (s *activityStore) Recent(_ context.Context, municipalityID *int64, limit int) ([]activity.Entry, error) {
	if err := s.db.hit("activity.Recent"); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	defer s.db.lock()()
	out := make([]activity.Entry, 0, limit)
	for i := len(s.db.st.activity) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.db.st.activity[i]
		if municipalityID != nil && (e.MunicipalityID == nil || *e.MunicipalityID != *municipalityID) {
			continue
		}
		if u, ok := s.db.st.users[e.ActorID]; ok {
			e.ActorName = u.FullName()
		}
		out = append(out, e)
	}
	return out, nil
}

type dashboardStore struct{ db *DB }

func (s *dashboardStore) Overview(_ context.Context, municipalityID *int64) (*dashboard.Overview, error) {
	if err := s.db.hit("dashboard.Overview"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	in := func(id *int64) bool {
		return municipalityID == nil || (id != nil && *id == *municipalityID)
	}
	o := dashboard.Overview{MunicipalityID: municipalityID}
	for _, u := range s.db.st.users {
		if !in(u.MunicipalityID) {
			continue
		}
		switch {
		case u.Role == rbac.RoleResident:
			o.TotalResidents++
		case u.Role == rbac.RoleOfficial && u.IsVerified:
			o.VerifiedOfficials++
		}
	}
	for _, d := range s.db.st.documents {
		if !in(&d.MunicipalityID) {
			continue
		}
		o.TotalDocumentRequests++
		switch d.Status {
		case review.DocumentPending:
			o.PendingDocumentRequests++
		case review.DocumentApproved:
			o.ApprovedDocumentRequests++
		case review.DocumentDenied:
			o.DeniedDocumentRequests++
		case review.DocumentCompleted:
			o.CompletedDocumentRequests++
		}
	}
	for _, r := range s.db.st.membership {
		if in(&r.MunicipalityID) && r.Status == review.StatusPending {
			o.PendingMembershipRequests++
		}
	}
	for _, r := range s.db.st.verification {
		if in(&r.MunicipalityID) && r.Status == review.StatusPending {
			o.PendingVerificationRequests++
		}
	}
	if municipalityID == nil {
		o.TotalMunicipalities = int64(len(s.db.st.municipalities))
	}
	return &o, nil
}

type pushTokenStore struct{ db *DB }

func (s *pushTokenStore) Register(_ context.Context, userID int64, token, _ string) error {
	if err := s.db.hit("pushtokens.Register"); err != nil {
		return err
	}
	defer s.db.lock()()
	if s.db.st.pushTokens[userID] == nil {
		s.db.st.pushTokens[userID] = map[string]time.Time{}
	}
	s.db.st.pushTokens[userID][strings.TrimSpace(token)] = s.db.Now()
	return nil
}

func (s *pushTokenStore) Remove(_ context.Context, userID int64, token string) error {
	if err := s.db.hit("pushtokens.Remove"); err != nil {
		return err
	}
	defer s.db.lock()()
	delete(s.db.st.pushTokens[userID], token)
	return nil
}

func (s *pushTokenStore) RemoveTokens(_ context.Context, tokens []string) error {
	if err := s.db.hit("pushtokens.RemoveTokens"); err != nil {
		return err
	}
	defer s.db.lock()()
	for _, byToken := range s.db.st.pushTokens {
		for _, t := range tokens {
			delete(byToken, t)
		}
	}
	return nil
}

func (s *pushTokenStore) TokensFor(_ context.Context, userIDs []int64) (map[int64][]string, error) {
	if err := s.db.hit("pushtokens.TokensFor"); err != nil {
		return nil, err
	}
	defer s.db.lock()()
	out := make(map[int64][]string)
	for _, id := range userIDs {
		for t := range s.db.st.pushTokens[id] {
			out[id] = append(out[id], t)
		}
		slices.Sort(out[id])
	}
	return out, nil
}

func (s *pushTokenStore) PruneStale(_ context.Context, olderThan time.Duration) (int64, error) {
	if err := s.db.hit("pushtokens.PruneStale"); err != nil {
		return 0, err
	}
	defer s.db.lock()()
	cutoff := s.db.Now().Add(-olderThan)
	var n int64
	for _, byToken := range s.db.st.pushTokens {
		for t, at := range byToken {
			if at.Before(cutoff) {
				delete(byToken, t)
				n++
			}
		}
	}
	return n, nil
}
