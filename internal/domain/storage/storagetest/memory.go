// Package storagetest provides an in-memory storage.Store for tests.
// Transactions are serialized and roll back by restoring a snapshot.
package storagetest

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"barangay/internal/domain/activity"
	"barangay/internal/domain/documents"
	"barangay/internal/domain/membership"
	"barangay/internal/domain/municipalities"
	"barangay/internal/domain/storage"
	"barangay/internal/domain/users"
	"barangay/internal/domain/verification"
	"barangay/internal/rbac"
)

type state struct {
	seq            int64
	users          map[int64]users.User
	municipalities map[int64]municipalities.Municipality
	membership     map[int64]membership.Request
	verification   map[int64]verification.Request
	documents      map[int64]documents.Request
	activity       []activity.Entry
	refreshTokens  map[int64]string
	pushTokens     map[int64]map[string]time.Time
}

func (s *state) clone() state {
	c := *s
	c.users = maps.Clone(s.users)
	c.municipalities = maps.Clone(s.municipalities)
	c.membership = maps.Clone(s.membership)
	c.verification = maps.Clone(s.verification)
	c.documents = maps.Clone(s.documents)
	c.activity = slices.Clone(s.activity)
	c.refreshTokens = maps.Clone(s.refreshTokens)
	c.pushTokens = make(map[int64]map[string]time.Time, len(s.pushTokens))
	for k, v := range s.pushTokens {
		c.pushTokens[k] = maps.Clone(v)
	}
	return c
}

// DB is an in-memory database shared by every repository it hands out.
type DB struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   state

	calls    map[string]int
	failures map[string]error

	Commits   int
	Rollbacks int

	// Now stamps rows the way column defaults would.
	Now func() time.Time

	repos storage.Repositories
}

var _ storage.Store = (*DB)(nil)

func New() *DB {
	db := &DB{
		st: state{
			users:          map[int64]users.User{},
			municipalities: map[int64]municipalities.Municipality{},
			membership:     map[int64]membership.Request{},
			verification:   map[int64]verification.Request{},
			documents:      map[int64]documents.Request{},
			refreshTokens:  map[int64]string{},
			pushTokens:     map[int64]map[string]time.Time{},
		},
		calls:    map[string]int{},
		failures: map[string]error{},
		Now:      time.Now,
	}
	db.repos = storage.Repositories{
		Users:          &usersStore{db},
		Municipalities: &municipalityStore{db},
		Membership:     &membershipStore{db},
		Verification:   &verificationStore{db},
		Documents:      &documentStore{db},
		Activity:       &activityStore{db},
		Dashboard:      &dashboardStore{db},
		PushTokens:     &pushTokenStore{db},
	}
	return db
}

func (db *DB) Repos() *storage.Repositories { return &db.repos }

// WithTx runs fn with the shared repositories and restores the prior state
// when fn fails.
func (db *DB) WithTx(ctx context.Context, fn func(r *storage.Repositories) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	if err := db.hit("tx.begin"); err != nil {
		return err
	}

	db.mu.Lock()
	snapshot := db.st.clone()
	db.mu.Unlock()

	if err := fn(&db.repos); err != nil {
		db.mu.Lock()
		db.st = snapshot
		db.Rollbacks++
		db.mu.Unlock()
		return err
	}
	if err := ctx.Err(); err != nil {
		db.mu.Lock()
		db.st = snapshot
		db.Rollbacks++
		db.mu.Unlock()
		return err
	}

	db.mu.Lock()
	db.Commits++
	db.mu.Unlock()
	return nil
}

// Fail makes every later call to op return err. op is "<store>.<Method>",
// for example "activity.Append".
func (db *DB) Fail(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.failures[op] = err
}

// Calls reports how many times op was invoked.
func (db *DB) Calls(op string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls[op]
}

// TotalCalls counts every store call made so far.
func (db *DB) TotalCalls() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, c := range db.calls {
		n += c
	}
	return n
}

func (db *DB) hit(op string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.calls[op]++
	return db.failures[op]
}

// lock is taken by every store method after hit.
func (db *DB) lock() func() {
	db.mu.Lock()
	return db.mu.Unlock
}

func (db *DB) nextID() int64 {
	db.st.seq++
	return db.st.seq
}

// Seed helpers. They bypass failure injection and call counting.

func (db *DB) AddMunicipality(name, province string) municipalities.Municipality {
	defer db.lock()()
	m := municipalities.Municipality{ID: db.nextID(), Name: name, Province: province, CreatedAt: db.Now()}
	db.st.municipalities[m.ID] = m
	return m
}

// AddUser stores u, assigning an id. A zero role becomes resident.
func (db *DB) AddUser(u users.User) users.User {
	defer db.lock()()
	u.ID = db.nextID()
	if !u.Role.Valid() {
		u.Role = rbac.RoleResident
	}
	u.Email = strings.ToLower(u.Email)
	u.IsActive = true
	u.CreatedAt, u.UpdatedAt = db.Now(), db.Now()
	db.st.users[u.ID] = u
	return u
}

func (db *DB) User(id int64) (users.User, bool) {
	defer db.lock()()
	u, ok := db.st.users[id]
	return u, ok
}

func (db *DB) MembershipRequest(id int64) (membership.Request, bool) {
	defer db.lock()()
	r, ok := db.st.membership[id]
	return r, ok
}

func (db *DB) VerificationRequest(id int64) (verification.Request, bool) {
	defer db.lock()()
	r, ok := db.st.verification[id]
	return r, ok
}

func (db *DB) DocumentRequest(id int64) (documents.Request, bool) {
	defer db.lock()()
	r, ok := db.st.documents[id]
	return r, ok
}

func (db *DB) MembershipCount() int {
	defer db.lock()()
	return len(db.st.membership)
}

func (db *DB) VerificationCount() int {
	defer db.lock()()
	return len(db.st.verification)
}

// ActivityLog returns the audit trail in insertion order.
func (db *DB) ActivityLog() []activity.Entry {
	defer db.lock()()
	return slices.Clone(db.st.activity)
}

// ActivityWith returns the entries carrying action.
func (db *DB) ActivityWith(action string) []activity.Entry {
	var out []activity.Entry
	for _, e := range db.ActivityLog() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

func ptr[T any](v T) *T { return &v }
