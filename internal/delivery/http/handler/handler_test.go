package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lab-checkout/internal/config"
	"lab-checkout/internal/domain/access"
	"lab-checkout/internal/domain/device"
	"lab-checkout/internal/domain/user"
	"lab-checkout/internal/events"
	"lab-checkout/internal/infrastructure/database/memory"
	"lab-checkout/internal/infrastructure/mail"
	"lab-checkout/internal/middleware"
	"lab-checkout/internal/usecase/backup"
	deviceUsecase "lab-checkout/internal/usecase/device"
	userUsecase "lab-checkout/internal/usecase/user"
	appErrors "lab-checkout/pkg/errors"
	"lab-checkout/pkg/utils"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *memory.Store
	cfg    *config.Config
}

type envelope struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Data         json.RawMessage `json:"data"`
	Redirect     string          `json:"redirect"`
	RequiredTier string          `json:"required_tier"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Server:      config.ServerConfig{BaseURL: "http://lab.test"},
		Session:     config.SessionConfig{Secret: "handler-secret", TTLHours: 1, CookieName: "lab_session"},
		Reservation: config.ReservationConfig{MaxReserveDays: 14, Terms: "Be kind."},
	}
	store := memory.NewStore()

	users := userUsecase.NewService(store.Users, store.ResetTokens, store.Sessions, mail.LogMailer{}, cfg)
	devices := deviceUsecase.NewService(store.Devices, store.Logins, store.History, store.Users, events.Nop{},
		cfg.Reservation.MaxReserveDays, cfg.Reservation.RenderedTerms())

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.IdentityMiddleware(users, userUsecase.NewResolver(store.Users), cfg.Session.CookieName))

	v1 := router.Group(apiPrefix)
	NewHomeHandler(nil).RegisterRoutes(v1)
	authHandler := NewAuthHandler(users, cfg.Session)
	authHandler.RegisterRoutes(v1)
	authHandler.RegisterSessionRoutes(v1)
	NewUserHandler(users, userUsecase.NewManager(store.Users, store.Devices, events.Nop{})).RegisterRoutes(v1)
	NewComputerHandler(devices).RegisterRoutes(v1)
	NewBackupHandler(backup.NewService(store.Devices, store.Logins, store.History, store.Users)).RegisterRoutes(v1)

	return &testServer{router: router, store: store, cfg: cfg}
}

// signIn creates an account with role and returns a bearer token for it.
func (s *testServer) signIn(t *testing.T, id string, role user.Role) string {
	t.Helper()
	ctx := context.Background()
	u := &user.User{ID: id, Name: "User " + id, Email: id + "@lab.edu", PasswordHashed: "x", Role: role}
	if err := s.store.Users.Create(ctx, u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	sess := &user.Session{ID: "sess-" + id, UserID: id, CreatedAt: time.Now()}
	if err := s.store.Sessions.Create(ctx, sess, time.Hour); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	token, err := utils.GenerateToken(id, sess.ID, s.cfg.Session.Secret, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") && w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *testServer) seedDevice(t *testing.T, tag string, status device.Status) {
	t.Helper()
	if err := s.store.Devices.Create(context.Background(), &device.Device{AssetTag: tag, Hostname: strings.ToLower(tag), Status: status}); err != nil {
		t.Fatalf("failed to seed device: %v", err)
	}
}

func TestSignedOutCallerIsRedirectedToLogin(t *testing.T) {
	s := newTestServer(t)
	s.seedDevice(t, "LAB-1", device.StatusAvailable)

	w, env := s.do(t, http.MethodGet, "/api/v1/computers/details/LAB-1", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if env.Redirect != "/login?redirect=%2Fcomputers%2Fdetails%2FLAB-1" {
		t.Fatalf("unexpected redirect %q", env.Redirect)
	}
}

func TestDeniedCallerGetsTierMessage(t *testing.T) {
	s := newTestServer(t)
	external := s.signIn(t, "ext-1", user.RoleExternal)
	student := s.signIn(t, "stu-1", user.RoleStudent)

	tests := []struct {
		name    string
		token   string
		path    string
		tier    access.Tier
		message string
	}{
		{"external on computers", external, "/api/v1/computers", access.TierInternal,
			"Access to this page is restricted to internal organization members."},
		{"student on users", student, "/api/v1/users", access.TierElevated,
			"Access to this page requires that you sign in as a faculty member or administrator."},
		{"student on backup", student, "/api/v1/backup", access.TierAdmin,
			"Access to this page requires that you sign in as an administrator."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(t, http.MethodGet, tt.path, tt.token, nil)
			if w.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", w.Code)
			}
			if env.RequiredTier != tt.tier.String() || env.Message != tt.message {
				t.Fatalf("unexpected envelope %+v", env)
			}
		})
	}
}

func TestComputerErrorsMapToStatus(t *testing.T) {
	s := newTestServer(t)
	student := s.signIn(t, "stu-1", user.RoleStudent)
	s.seedDevice(t, "LAB-1", device.StatusOffline)
	s.seedDevice(t, "LAB-BAD", device.Status("melted"))

	w, _ := s.do(t, http.MethodGet, "/api/v1/computers/details/NOPE", student, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown device, got %d", w.Code)
	}

	w, _ = s.do(t, http.MethodGet, "/api/v1/computers/details/LAB-BAD", student, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for corrupt device, got %d", w.Code)
	}

	body := map[string]interface{}{
		"reservation_end": time.Now().Add(time.Hour).Format(time.RFC3339),
		"accept_terms":    true,
	}
	w, env := s.do(t, http.MethodPost, "/api/v1/computers/checkout/LAB-1", student, body)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for offline device, got %d", w.Code)
	}
	if env.Message != `Computer "LAB-1" is not available for checkout` {
		t.Fatalf("unexpected message %q", env.Message)
	}

	w, _ = s.do(t, http.MethodPost, "/api/v1/computers/checkout/LAB-1", student, "not an object")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestCheckoutAndCheckIn(t *testing.T) {
	s := newTestServer(t)
	student := s.signIn(t, "stu-1", user.RoleStudent)
	s.seedDevice(t, "LAB-1", device.StatusAvailable)

	body := map[string]interface{}{
		"reservation_end": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"accept_terms":    true,
	}
	w, env := s.do(t, http.MethodPost, "/api/v1/computers/checkout/LAB-1", student, body)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("expected checkout to succeed, got %d %s", w.Code, w.Body.String())
	}

	w, env = s.do(t, http.MethodPost, "/api/v1/computers/checkin/LAB-1", student, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected check in to succeed, got %d %s", w.Code, w.Body.String())
	}
	var view deviceUsecase.ComputerView
	if err := json.Unmarshal(env.Data, &view); err != nil || view.Status != device.StatusPending {
		t.Fatalf("expected pending computer, got %s (%v)", env.Data, err)
	}
}

func TestCreateComputerReturnsCreated(t *testing.T) {
	s := newTestServer(t)
	admin := s.signIn(t, "adm-1", user.RoleAdmin)

	form := map[string]interface{}{"asset_tag": "LAB-9", "status": "available"}
	w, _ := s.do(t, http.MethodPut, "/api/v1/computers/edit/new", admin, form)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", w.Code, w.Body.String())
	}

	w, _ = s.do(t, http.MethodPut, "/api/v1/computers/edit/new", admin, form)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate tag, got %d", w.Code)
	}
}

func TestBackupDownload(t *testing.T) {
	s := newTestServer(t)
	admin := s.signIn(t, "adm-1", user.RoleAdmin)
	s.seedDevice(t, "LAB-1", device.StatusAvailable)

	w, _ := s.do(t, http.MethodGet, "/api/v1/backup/computers", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="computers.json"` {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if !strings.Contains(w.Body.String(), `"LAB-1"`) {
		t.Fatalf("expected LAB-1 in export, got %s", w.Body.String())
	}

	w, _ = s.do(t, http.MethodGet, "/api/v1/backup/secrets", admin, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown collection, got %d", w.Code)
	}
}

func TestHomeNavigation(t *testing.T) {
	s := newTestServer(t)
	faculty := s.signIn(t, "fac-1", user.RoleFaculty)

	tests := []struct {
		name  string
		token string
		want  []string
	}{
		{"signed out", "", []string{"/login", "/register"}},
		{"faculty", faculty, []string{"/account", "/computers", "/users"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(t, http.MethodGet, "/api/v1/home", tt.token, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var home struct {
				SignedIn bool `json:"signed_in"`
				Nav      []struct {
					Path string `json:"path"`
				} `json:"nav"`
			}
			if err := json.Unmarshal(env.Data, &home); err != nil {
				t.Fatalf("failed to decode home: %v", err)
			}
			if home.SignedIn != (tt.token != "") {
				t.Fatalf("expected signed_in %v, got %v", tt.token != "", home.SignedIn)
			}
			var got []string
			for _, r := range home.Nav {
				got = append(got, r.Path)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Fatalf("expected nav %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	s := newTestServer(t)
	hashed, err := utils.HashPassword("letters123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	_ = s.store.Users.Create(context.Background(), &user.User{
		ID: "stu-1", Name: "Ada", Email: "ada@lab.edu", PasswordHashed: hashed, Role: user.RoleStudent,
	})

	w, env := s.do(t, http.MethodPost, "/api/v1/auth/login?redirect=/computers", "", map[string]string{
		"email": "ada@lab.edu", "password": "letters123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	var auth userUsecase.AuthResponse
	if err := json.Unmarshal(env.Data, &auth); err != nil || auth.Redirect != "/computers" {
		t.Fatalf("expected redirect back to /computers, got %+v (%v)", auth, err)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "lab_session" {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly || cookie.Value == "" {
		t.Fatalf("expected http-only session cookie, got %+v", cookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/account", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected cookie to authenticate, got %d", rec.Code)
	}

	w, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@lab.edu", "password": "wrong-pass1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", w.Code)
	}
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"precondition", appErrors.Precondition("busy"), http.StatusConflict},
		{"validation", appErrors.NewAppError(appErrors.CodeValidation, "bad", nil), http.StatusBadRequest},
		{"account exists", appErrors.NewAppError("ACCOUNT_EXISTS", "taken", nil), http.StatusConflict},
		{"wrapped not found", fmt.Errorf("lookup: %w", user.ErrUserNotFound), http.StatusNotFound},
		{"invalid role", fmt.Errorf("resolve: %w", user.ErrInvalidUserRole), http.StatusInternalServerError},
		{"incomplete reservation", device.ErrIncompleteReservation, http.StatusInternalServerError},
		{"store outage", errors.New("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/computers", nil)

			RespondWithError(c, tt.err)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestRespondWithErrorWritesNothingWhenCancelled(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/computers", nil)

	RespondWithError(c, fmt.Errorf("list devices: %w", context.Canceled))
	if w.Body.Len() != 0 || c.Writer.Written() {
		t.Fatalf("expected no response, got %d %q", w.Code, w.Body.String())
	}
	if !c.IsAborted() {
		t.Fatalf("expected handler chain to be aborted")
	}
}

func TestServiceUnavailableMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)

	RespondWithError(c, errors.New("timeout"))
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if env.Success || env.Message != "Unable to process your request.  Please try again later." {
		t.Fatalf("unexpected envelope %+v", env)
	}
}
