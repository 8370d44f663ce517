package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"barangay/internal/auth"
	"barangay/internal/domain/documents"
	"barangay/internal/domain/municipalities"
	"barangay/internal/domain/storage/storagetest"
	"barangay/internal/domain/users"
	"barangay/internal/notifications"
	"barangay/internal/rbac"
	"barangay/internal/workflow"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFiles struct {
	mu        sync.Mutex
	uploaded  map[string][]byte
	destroyed []string
	uploadErr error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{uploaded: map[string][]byte{}}
}

func (f *fakeFiles) Upload(_ context.Context, r io.Reader, folder, publicID string) (*uploadedFile, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	id := folder + "/" + publicID
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded[id] = body
	return &uploadedFile{URL: "https://files.test/" + id, PublicID: id}, nil
}

func (f *fakeFiles) Destroy(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

func (f *fakeFiles) uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploaded)
}

func (f *fakeFiles) destroyedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.destroyed...)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (n *recordingNotifier) Notify(ev notifications.Event) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return true
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type stubCaptcha struct {
	err   error
	calls int
}

func (c *stubCaptcha) Verify(_ context.Context, _, _ string) error {
	c.calls++
	return c.err
}

type testServer struct {
	t       *testing.T
	app     *application
	handler http.Handler
	db      *storagetest.DB
	files   *fakeFiles
	notes   *recordingNotifier

	sanIsidro, poblacion municipalities.Municipality

	resident      users.User // member of San Isidro
	newcomer      users.User // no barangay yet
	official      users.User // San Isidro
	otherOfficial users.User // Poblacion
	admin         users.User
}

const testPassword = "correct-horse"

func newTestServer(t *testing.T, opts ...func(*application)) *testServer {
	t.Helper()

	db := storagetest.New()
	notes := &recordingNotifier{}
	files := newFakeFiles()
	logger := zap.NewNop().Sugar()

	refs, err := documents.NewReferences("test-salt")
	require.NoError(t, err)

	cfg := config{
		addr:        ":8080",
		env:         "test",
		frontendURL: "http://localhost:5173",
		auth: authConfig{
			basic: basicConfig{user: "ops", pass: "ops-secret"},
		},
	}

	app := &application{
		config:   cfg,
		store:    db,
		workflow: workflow.NewService(db, notes, refs, logger, workflow.Config{}),
		logger:   logger,
		files:    files,
		notifier: notes,
		authenticator: auth.NewJWTAuthenticator(auth.TokenConfig{
			Secret:        "access-secret",
			RefreshSecret: "refresh-secret",
			Issuer:        "barangay",
			Audience:      "barangay",
			AccessTTL:     time.Hour,
			RefreshTTL:    24 * time.Hour,
		}),
	}
	for _, opt := range opts {
		opt(app)
	}

	s := &testServer{t: t, app: app, db: db, files: files, notes: notes}
	s.sanIsidro = db.AddMunicipality("San Isidro", "Laguna")
	s.poblacion = db.AddMunicipality("Poblacion", "Batangas")

	s.resident = s.addUser("Rosa", "rosa@example.com", rbac.RoleResident, &s.sanIsidro.ID)
	s.newcomer = s.addUser("Nico", "nico@example.com", rbac.RoleResident, nil)
	s.official = s.addUser("Olga", "olga@example.com", rbac.RoleOfficial, &s.sanIsidro.ID)
	s.otherOfficial = s.addUser("Pedro", "pedro@example.com", rbac.RoleOfficial, &s.poblacion.ID)
	s.admin = s.addUser("Ada", "ada@example.com", rbac.RoleSuperAdmin, nil)

	s.handler = app.mount()
	return s
}

func (s *testServer) addUser(first, email string, role rbac.Role, muni *int64) users.User {
	s.t.Helper()
	u := users.User{FirstName: first, LastName: "Santos", Email: email, Role: role, MunicipalityID: muni}
	require.NoError(s.t, u.Password.Set(testPassword))
	return s.db.AddUser(u)
}

func (s *testServer) tokenFor(u users.User) string {
	s.t.Helper()
	access, _, err := s.app.authenticator.GenerateTokens(u.ID, u.Role)
	require.NoError(s.t, err)
	return access
}

type request struct {
	method      string
	path        string
	as          *users.User
	body        any
	raw         io.Reader
	contentType string
	header      http.Header
}

func (s *testServer) do(req request) *httptest.ResponseRecorder {
	s.t.Helper()

	var body io.Reader = req.raw
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		require.NoError(s.t, err)
		body = bytes.NewReader(buf)
		if req.contentType == "" {
			req.contentType = "application/json"
		}
	}

	r := httptest.NewRequest(req.method, req.path, body)
	if req.contentType != "" {
		r.Header.Set("Content-Type", req.contentType)
	}
	for k, v := range req.header {
		r.Header[k] = v
	}
	if req.as != nil {
		r.Header.Set("Authorization", "Bearer "+s.tokenFor(*req.as))
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, r)
	return rr
}

// decodeData unwraps the {"data": ...} envelope.
func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env.Data
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var out errorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func requireStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rr.Code, rr.Body.String())
}

func apiPath(format string, args ...any) string {
	return "/v1" + fmt.Sprintf(format, args...)
}

var errBoom = errors.New("boom")
