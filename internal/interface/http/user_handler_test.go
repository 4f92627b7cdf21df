package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userapp "github.com/oksasatya/user-account-api/internal/application"
	"github.com/oksasatya/user-account-api/internal/domain/entity"
	repo "github.com/oksasatya/user-account-api/internal/domain/repository"
	handlers "github.com/oksasatya/user-account-api/internal/interface/http"
	"github.com/oksasatya/user-account-api/internal/router/modules"
	"github.com/oksasatya/user-account-api/pkg/helpers"
	"github.com/oksasatya/user-account-api/pkg/validation"
)

type memRepo struct {
	users map[string]*entity.User
}

func newMemRepo() *memRepo { return &memRepo{users: map[string]*entity.User{}} }

func (m *memRepo) emailTaken(email, excludeID string) bool {
	for _, u := range m.users {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *memRepo) Create(_ context.Context, u *entity.User) error {
	if m.emailTaken(u.Email, "") {
		return repo.ErrDuplicateEmail
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memRepo) List(_ context.Context) ([]*entity.User, error) {
	out := make([]*entity.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, u *entity.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	if m.emailTaken(u.Email, u.ID) {
		return repo.ErrDuplicateEmail
	}
	u.UpdatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

var _ repo.UserRepository = (*memRepo)(nil)

type testAPI struct {
	engine *gin.Engine
	repo   *memRepo
	jwt    *helpers.JWTManager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	store := newMemRepo()
	jwt := helpers.NewJWTManager("test-secret", time.Hour)
	svc := userapp.NewService(store, jwt, logger)
	handler := handlers.NewUserHandler(svc, logger)

	engine := gin.New()
	api := engine.Group("/api/v1")
	modules.New(handler, store, jwt).Register(api)

	return &testAPI{engine: engine, repo: store, jwt: jwt}
}

func (a *testAPI) do(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type userTokenData struct {
	User struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		IsAdmin bool   `json:"is_admin"`
	} `json:"user"`
	Token string `json:"token"`
}

func (a *testAPI) register(t *testing.T, name, email, password string) userTokenData {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/users", "", gin.H{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var data userTokenData
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	return data
}

// registerAdmin creates a user and flips the admin flag directly in the
// store, then logs in for a fresh token.
func (a *testAPI) registerAdmin(t *testing.T, email string) userTokenData {
	t.Helper()
	data := a.register(t, "Admin", email, "password123")
	a.repo.users[data.User.ID].IsAdmin = true
	w := a.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{
		"email": email, "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var out userTokenData
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &out))
	return out
}

func TestRegisterAndDuplicate(t *testing.T) {
	api := newTestAPI(t)

	data := api.register(t, "John", "john@example.com", "password123")
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, "john@example.com", data.User.Email)
	assert.False(t, data.User.IsAdmin)

	w := api.do(t, http.MethodPost, "/api/v1/users", "", gin.H{
		"name": "John Again", "email": "john@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, api.repo.users, 1)
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/users", "", gin.H{
		"name": "John", "email": "not-an-email", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRejectionsAreIndistinguishable(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "John", "john@example.com", "password123")

	wrongPwd := api.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{
		"email": "john@example.com", "password": "wrongwrong",
	})
	unknown := api.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{
		"email": "ghost@example.com", "password": "password123",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPwd.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, decode(t, wrongPwd).Message, decode(t, unknown).Message)
}

func TestProfileRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	data := api.register(t, "John", "john@example.com", "password123")

	w := api.do(t, http.MethodGet, "/api/v1/users/profile", data.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "john@example.com")
	assert.NotContains(t, w.Body.String(), "password")

	// no token
	w = api.do(t, http.MethodGet, "/api/v1/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfilePasswordSemantics(t *testing.T) {
	api := newTestAPI(t)
	data := api.register(t, "John", "john@example.com", "password123")

	// name-only update leaves the old password valid
	w := api.do(t, http.MethodPut, "/api/v1/users/profile", data.Token, gin.H{"name": "Johnny"})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{
		"email": "john@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// password update invalidates the old one
	w = api.do(t, http.MethodPut, "/api/v1/users/profile", data.Token, gin.H{"password": "betterpassword"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated userTokenData
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &updated))
	assert.NotEmpty(t, updated.Token)

	w = api.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{
		"email": "john@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{
		"email": "john@example.com", "password": "betterpassword",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminGateOnManagementRoutes(t *testing.T) {
	api := newTestAPI(t)
	member := api.register(t, "John", "john@example.com", "password123")

	w := api.do(t, http.MethodGet, "/api/v1/users", member.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := api.registerAdmin(t, "admin@example.com")
	w = api.do(t, http.MethodGet, "/api/v1/users", admin.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminGetByIDExcludesHash(t *testing.T) {
	api := newTestAPI(t)
	member := api.register(t, "John", "john@example.com", "password123")
	admin := api.registerAdmin(t, "admin@example.com")

	w := api.do(t, http.MethodGet, "/api/v1/users/"+member.User.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), member.User.ID)
	assert.NotContains(t, w.Body.String(), "password")

	w = api.do(t, http.MethodGet, "/api/v1/users/"+uuid.NewString(), admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminUpdateUser(t *testing.T) {
	api := newTestAPI(t)
	member := api.register(t, "John", "john@example.com", "password123")
	admin := api.registerAdmin(t, "admin@example.com")

	w := api.do(t, http.MethodPut, "/api/v1/users/"+member.User.ID, admin.Token, gin.H{
		"name": "Promoted John", "is_admin": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, api.repo.users[member.User.ID].IsAdmin)
	assert.Equal(t, "Promoted John", api.repo.users[member.User.ID].Name)

	w = api.do(t, http.MethodPut, "/api/v1/users/"+uuid.NewString(), admin.Token, gin.H{"name": "Nobody"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminDeleteUser(t *testing.T) {
	api := newTestAPI(t)
	member := api.register(t, "John", "john@example.com", "password123")
	admin := api.registerAdmin(t, "admin@example.com")

	w := api.do(t, http.MethodDelete, "/api/v1/users/"+uuid.NewString(), admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodDelete, "/api/v1/users/"+member.User.ID, admin.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/users/"+member.User.ID, admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// the deleted user's still-valid token no longer authenticates
	w = api.do(t, http.MethodGet, "/api/v1/users/profile", member.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
