package echo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	ssobridge "github.com/setpar/sso-bridge"
	"github.com/setpar/sso-bridge/cache"
	"github.com/setpar/sso-bridge/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

// --- Mock Implementations ---

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	if user.ID == "" {
		user.ID = "mock-generated-id"
	}
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockUserRepository) RenameUser(ctx context.Context, id string, newUsername string) error {
	args := m.Called(ctx, id, newUsername)
	return args.Error(0)
}

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) IsMultiTenant(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockSettingsRepository) EnableMultiTenant(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(hashedPassword, password string) error {
	args := m.Called(hashedPassword, password)
	return args.Error(0)
}

// --- Helpers ---

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newTestAPI(t *testing.T, secret string, users *MockUserRepository, settings *MockSettingsRepository) *echo.Echo {
	t.Helper()
	hasher := new(MockPasswordHasher)
	hasher.On("Hash", mock.AnythingOfType("string")).Return("hashed", nil).Maybe()
	store := cache.NewMemoryExchangeStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	service := ssobridge.NewService(ssobridge.ServiceOptions{SharedSecret: secret}, users, settings, hasher, store)

	e := echo.New()
	e.Use(NewBridgeAPI(service).Middleware())
	e.GET("/app", func(c echo.Context) error {
		return c.String(http.StatusOK, "fallthrough")
	})
	return e
}

// --- Tests ---

func TestMiddleware_NoTokenPassesThrough(t *testing.T) {
	e := newTestAPI(t, testSecret, new(MockUserRepository), new(MockSettingsRepository))

	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fallthrough", rec.Body.String())
}

func TestMiddleware_MissingSecretPassesThrough(t *testing.T) {
	e := newTestAPI(t, "", new(MockUserRepository), new(MockSettingsRepository))

	raw := signToken(t, testSecret, jwt.MapClaims{"userId": "U1"})
	req := httptest.NewRequest(http.MethodGet, "/app?"+TokenQueryParam+"="+url.QueryEscape(raw), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fallthrough", rec.Body.String())
}

func TestMiddleware_SuccessRedirects(t *testing.T) {
	users := new(MockUserRepository)
	settings := new(MockSettingsRepository)
	e := newTestAPI(t, testSecret, users, settings)

	settings.On("IsMultiTenant", mock.Anything).Return(true, nil)
	users.On("GetUserByUsername", mock.Anything, "setpar_u1").Return(nil, domain.ErrUserNotFound).Once()
	users.On("GetUserByUsername", mock.Anything, "setpar_a").Return(nil, domain.ErrUserNotFound).Once()
	users.On("CreateUser", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil).Once()

	raw := signToken(t, testSecret, jwt.MapClaims{
		"userId": "U1",
		"email":  "a@x.com",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/app?"+TokenQueryParam+"="+url.QueryEscape(raw), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, ssobridge.ExchangePath, location.Path)
	assert.Equal(t, "/app", location.Query().Get("redirectTo"))
	assert.NotEmpty(t, location.Query().Get("token"))
}

func TestMiddleware_InvalidTokenReturns401(t *testing.T) {
	e := newTestAPI(t, testSecret, new(MockUserRepository), new(MockSettingsRepository))

	req := httptest.NewRequest(http.MethodGet, "/app?"+TokenQueryParam+"=garbage", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
	assert.Len(t, body, 1, "error body carries a single field")
}

func TestMiddleware_ExpiredTokenReturns401(t *testing.T) {
	e := newTestAPI(t, testSecret, new(MockUserRepository), new(MockSettingsRepository))

	raw := signToken(t, testSecret, jwt.MapClaims{
		"userId": "U1",
		"exp":    time.Now().Add(-time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/app?"+TokenQueryParam+"="+url.QueryEscape(raw), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_MultiTenancyDisabledReturns403(t *testing.T) {
	users := new(MockUserRepository)
	settings := new(MockSettingsRepository)
	e := newTestAPI(t, testSecret, users, settings)

	settings.On("IsMultiTenant", mock.Anything).Return(false, nil).Once()

	raw := signToken(t, testSecret, jwt.MapClaims{
		"userId": "U1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/app?"+TokenQueryParam+"="+url.QueryEscape(raw), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	users.AssertNotCalled(t, "CreateUser")
}

func TestMiddleware_StoreFailureReturns500(t *testing.T) {
	users := new(MockUserRepository)
	settings := new(MockSettingsRepository)
	e := newTestAPI(t, testSecret, users, settings)

	settings.On("IsMultiTenant", mock.Anything).Return(false, assert.AnError).Once()

	raw := signToken(t, testSecret, jwt.MapClaims{
		"userId": "U1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/app?"+TokenQueryParam+"="+url.QueryEscape(raw), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
