package workflow

import (
	"sync"
	"testing"
	"time"

	"barangay/internal/domain/documents"
	"barangay/internal/domain/municipalities"
	"barangay/internal/domain/storage/storagetest"
	"barangay/internal/domain/users"
	"barangay/internal/notifications"
	"barangay/internal/rbac"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recorder) Notify(ev notifications.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true
}

func (r *recorder) all() []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.Event(nil), r.events...)
}

type fixture struct {
	db    *storagetest.DB
	svc   *Service
	notes *recorder
	now   time.Time

	sanIsidro, poblacion municipalities.Municipality

	resident      Session
	neighbor      Session
	official      Session
	otherOfficial Session
	admin         Session
}

func sessionOf(u users.User) Session {
	return Session{
		UserID:         u.ID,
		Role:           u.Role,
		MunicipalityID: u.MunicipalityID,
		FullName:       u.FullName(),
		Email:          u.Email,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:    storagetest.New(),
		notes: &recorder{},
		now:   time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC),
	}
	f.db.Now = func() time.Time { return f.now }

	refs, err := documents.NewReferences("test-salt")
	require.NoError(t, err)
	f.svc = NewService(f.db, f.notes, refs, zap.NewNop().Sugar(), Config{})
	f.svc.now = func() time.Time { return f.now }

	f.sanIsidro = f.db.AddMunicipality("San Isidro", "Laguna")
	f.poblacion = f.db.AddMunicipality("Poblacion", "Batangas")

	f.resident = sessionOf(f.db.AddUser(users.User{
		FirstName: "Juan", LastName: "Dela Cruz", Email: "juan@example.com", Role: rbac.RoleResident,
	}))
	f.neighbor = sessionOf(f.db.AddUser(users.User{
		FirstName: "Maria", LastName: "Santos", Email: "maria@example.com", Role: rbac.RoleResident,
	}))
	f.official = sessionOf(f.db.AddUser(users.User{
		FirstName: "Rosa", LastName: "Reyes", Email: "rosa@example.com", Role: rbac.RoleOfficial,
		MunicipalityID: &f.sanIsidro.ID, IsVerified: true,
	}))
	f.otherOfficial = sessionOf(f.db.AddUser(users.User{
		FirstName: "Pedro", LastName: "Garcia", Email: "pedro@example.com", Role: rbac.RoleOfficial,
		MunicipalityID: &f.poblacion.ID, IsVerified: true,
	}))
	f.admin = sessionOf(f.db.AddUser(users.User{
		FirstName: "Ana", LastName: "Lim", Email: "ana@example.com", Role: rbac.RoleSuperAdmin,
	}))
	return f
}

// member attaches the session's user to m directly.
func (f *fixture) member(s Session, m municipalities.Municipality) Session {
	id := m.ID
	s.MunicipalityID = &id
	return s
}
