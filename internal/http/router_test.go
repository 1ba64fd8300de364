package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-crm/internal/config"
	"github.com/pribylovaa/go-crm/internal/http/middleware"
	"github.com/pribylovaa/go-crm/internal/models"
	"github.com/pribylovaa/go-crm/internal/service"
	"github.com/pribylovaa/go-crm/internal/storage"
	"github.com/pribylovaa/go-crm/mocks"
)

const testPassword = "Abcdef1!"

func testAuthCfg() config.AuthConfig {
	return config.AuthConfig{
		SigningKey: "router-test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		Issuer:     "crm-service",
		Audience:   []string{"crm-frontend"},
		BCryptCost: bcrypt.MinCost,
	}
}

type testEnv struct {
	h   http.Handler
	st  *mocks.MockStorage
	reg *prometheus.Registry
}

func newEnv(t *testing.T, ready func() bool) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	svc := service.New(st, testAuthCfg())
	reg := prometheus.NewRegistry()

	h := NewRouter(svc, Options{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Timeout:        time.Second,
		CORSOrigins:    []string{"http://localhost:5173"},
		Metrics:        middleware.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Ready:          ready,
	})

	return &testEnv{h: h, st: st, reg: reg}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

func ann(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "65e0a0c9fd2f000000000001",
		FirstName:    "Ann",
		LastName:     "Lee",
		Email:        "ann@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
}

func loginForm(username, password string) *http.Request {
	form := url.Values{}
	if username != "" {
		form.Set("username", username)
	}
	if password != "" {
		form.Set("password", password)
	}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonReq(method, target, body, token string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func detail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var b struct {
		Detail    string `json:"detail"`
		Code      string `json:"code"`
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &b), rr.Body.String())
	require.NotEmpty(t, b.RequestID)
	return b.Detail
}

// login выполняет POST /token и возвращает access/refresh.
func login(t *testing.T, e *testEnv) (string, string) {
	t.Helper()

	e.st.EXPECT().UserByEmail(gomock.Any(), "ann@example.com").Return(ann(t), nil)

	rr := e.do(t, loginForm("ann@example.com", testPassword))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "bearer", out["token_type"])
	require.NotEmpty(t, out["access_token"])
	require.NotEmpty(t, out["refresh_token"])

	return out["access_token"], out["refresh_token"]
}

func TestLogin_OK(t *testing.T) {
	e := newEnv(t, nil)
	login(t, e)
}

func TestLogin_MissingFields(t *testing.T) {
	e := newEnv(t, nil)

	for _, req := range []*http.Request{
		loginForm("ann@example.com", ""),
		loginForm("", testPassword),
		loginForm("", ""),
	} {
		rr := e.do(t, req)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, "Missing username or password", detail(t, rr))
	}
}

func TestLogin_UnknownEmail_AndWrongPassword_SameAnswer(t *testing.T) {
	e := newEnv(t, nil)

	e.st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").Return(nil, storage.ErrNotFound)
	rr := e.do(t, loginForm("ghost@example.com", testPassword))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Incorrect email or password", detail(t, rr))

	e.st.EXPECT().UserByEmail(gomock.Any(), "ann@example.com").Return(ann(t), nil)
	rr = e.do(t, loginForm("ann@example.com", "Wrong123!"))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Incorrect email or password", detail(t, rr))
}

func TestGate_NoHeader_And_Basic_NoStorageAccess(t *testing.T) {
	// Любое обращение к хранилищу провалит тест: ожиданий у мока нет.
	e := newEnv(t, nil)

	rr1 := e.do(t, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	require.Equal(t, http.StatusUnauthorized, rr1.Code)
	require.Equal(t, "Token is missing", detail(t, rr1))

	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	req.Header.Set("Authorization", "Basic xyz")
	rr2 := e.do(t, req)
	require.Equal(t, http.StatusUnauthorized, rr2.Code)
	require.Equal(t, "Token is missing", detail(t, rr2))
}

func TestGate_GarbageToken(t *testing.T) {
	e := newEnv(t, nil)

	rr := e.do(t, jsonReq(http.MethodGet, "/contacts", "", "garbage"))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Token is invalid or expired", detail(t, rr))
}

func TestRefreshTokenAsBearer_Rejected(t *testing.T) {
	e := newEnv(t, nil)
	_, refresh := login(t, e)

	rr := e.do(t, jsonReq(http.MethodGet, "/users/me", "", refresh))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Token is invalid or expired", detail(t, rr))
}

func TestRefresh_OK(t *testing.T) {
	e := newEnv(t, nil)
	_, refresh := login(t, e)

	rr := e.do(t, jsonReq(http.MethodPost, "/token/refresh", `{"refresh_token":"`+refresh+`"}`, ""))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "bearer", out["token_type"])
	require.NotEmpty(t, out["access_token"])
	_, hasRefresh := out["refresh_token"]
	require.False(t, hasRefresh)

	// Новый access пускает через гейт.
	e.st.EXPECT().UserByEmail(gomock.Any(), "ann@example.com").Return(ann(t), nil)
	rr = e.do(t, jsonReq(http.MethodGet, "/users/me", "", out["access_token"].(string)))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	e := newEnv(t, nil)
	access, _ := login(t, e)

	rr := e.do(t, jsonReq(http.MethodPost, "/token/refresh", `{"refresh_token":"`+access+`"}`, ""))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Invalid or expired refresh token", detail(t, rr))
}

func TestRefresh_BadBodies(t *testing.T) {
	e := newEnv(t, nil)

	for _, body := range []string{"", "not json", `{}`, `{"refresh_token":""}`} {
		rr := e.do(t, jsonReq(http.MethodPost, "/token/refresh", body, ""))
		require.Equal(t, http.StatusBadRequest, rr.Code, body)
		require.Equal(t, "Refresh token missing", detail(t, rr))
	}

	rr := e.do(t, jsonReq(http.MethodPost, "/token/refresh", `{"refresh_token":"garbage"}`, ""))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Invalid or expired refresh token", detail(t, rr))
}

func TestRefresh_MissingSubject(t *testing.T) {
	e := newEnv(t, nil)
	cfg := testAuthCfg()
	now := time.Now()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"kind": "refresh",
		"iss":  cfg.Issuer,
		"aud":  cfg.Audience,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	}).SignedString([]byte(cfg.SigningKey))
	require.NoError(t, err)

	rr := e.do(t, jsonReq(http.MethodPost, "/token/refresh", `{"refresh_token":"`+tok+`"}`, ""))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "Invalid token payload", detail(t, rr))
}

func TestGetMe_NoSecretsOnWire(t *testing.T) {
	e := newEnv(t, nil)
	access, _ := login(t, e)

	e.st.EXPECT().UserByEmail(gomock.Any(), "ann@example.com").Return(ann(t), nil)

	rr := e.do(t, jsonReq(http.MethodGet, "/users/me", "", access))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotContains(t, rr.Body.String(), "hashed_password")
	require.NotContains(t, rr.Body.String(), "$2a$")

	var p map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	require.Equal(t, "65e0a0c9fd2f000000000001", p["_id"])
	require.Equal(t, "ann@example.com", p["email"])
	require.Equal(t, "user", p["role"])
}

func TestGetMe_UserGone(t *testing.T) {
	e := newEnv(t, nil)
	access, _ := login(t, e)

	e.st.EXPECT().UserByEmail(gomock.Any(), "ann@example.com").Return(nil, storage.ErrNotFound)

	rr := e.do(t, jsonReq(http.MethodGet, "/users/me", "", access))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "User not found", detail(t, rr))
}

func TestUpdateMe_IgnoresIdentityFields(t *testing.T) {
	e := newEnv(t, nil)
	access, _ := login(t, e)

	phone := "+1 555"
	updated := ann(t)
	updated.Phone = &phone

	gomock.InOrder(
		e.st.EXPECT().UpdateUser(gomock.Any(), "ann@example.com", models.ProfileUpdate{Phone: &phone}).Return(nil),
		e.st.EXPECT().UserByEmail(gomock.Any(), "ann@example.com").Return(updated, nil),
	)

	body := `{"_id":"ffffffffffffffffffffffff","email":"evil@example.com","phone":"+1 555"}`
	rr := e.do(t, jsonReq(http.MethodPut, "/users/me", body, access))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var p map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	require.Equal(t, "ann@example.com", p["email"])
	require.Equal(t, "65e0a0c9fd2f000000000001", p["_id"])
	require.Equal(t, "+1 555", p["phone"])
}

func TestUpdateMe_BadBodies(t *testing.T) {
	e := newEnv(t, nil)
	access, _ := login(t, e)

	tcs := []struct {
		body string
		want string
	}{
		{"", "No data provided"},
		{"   ", "No data provided"},
		{"{}", "No data provided"},
		{`{"role":"admin"}`, "Invalid request body"},
		{`{"hashed_password":"x"}`, "Invalid request body"},
		{`[1,2]`, "Invalid request body"},
		{`{"phone": 5}`, "Invalid request body"},
	}

	for _, tc := range tcs {
		rr := e.do(t, jsonReq(http.MethodPut, "/users/me", tc.body, access))
		require.Equal(t, http.StatusBadRequest, rr.Code, tc.body)
		require.Equal(t, tc.want, detail(t, rr), tc.body)
	}
}

func TestUpdateMe_OnlyIgnoredFields_ReturnsProfile(t *testing.T) {
	e := newEnv(t, nil)
	access, _ := login(t, e)

	e.st.EXPECT().UserByEmail(gomock.Any(), "ann@example.com").Return(ann(t), nil)

	rr := e.do(t, jsonReq(http.MethodPut, "/users/me", `{"email":"x@y.z"}`, access))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestContacts_ListEmpty(t *testing.T) {
	e := newEnv(t, nil)
	access, _ := login(t, e)

	e.st.EXPECT().ListContacts(gomock.Any()).Return([]models.Contact{}, nil)

	rr := e.do(t, jsonReq(http.MethodGet, "/contacts", "", access))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[]`, rr.Body.String())
}

const contactJSON = `{"name":"Bob","email":"bob@acme.io","phone":"+100","company":"Acme","position":"CEO","status":"active","tags":["vip"]}`

func TestContacts_Create(t *testing.T) {
	e := newEnv(t, nil)
	access, _ := login(t, e)

	e.st.EXPECT().SaveContact(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c *models.Contact) error {
			c.ID = "65e0a0c9fd2f0000000000cc"
			return nil
		})

	rr := e.do(t, jsonReq(http.MethodPost, "/contacts", contactJSON, access))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "65e0a0c9fd2f0000000000cc", out["_id"])
	require.NotEmpty(t, out["createdAt"])
}

func TestContacts_CreateDuplicate(t *testing.T) {
	e := newEnv(t, nil)
	access, _ := login(t, e)

	e.st.EXPECT().SaveContact(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

	rr := e.do(t, jsonReq(http.MethodPost, "/contacts", contactJSON, access))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Contact already exists", detail(t, rr))
}

func TestContacts_CreateInvalid(t *testing.T) {
	e := newEnv(t, nil)
	access, _ := login(t, e)

	rr := e.do(t, jsonReq(http.MethodPost, "/contacts", `{"name":"Bob","unknown":1}`, access))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Invalid request body", detail(t, rr))

	bad := strings.Replace(contactJSON, "bob@acme.io", "not-an-email", 1)
	rr = e.do(t, jsonReq(http.MethodPost, "/contacts", bad, access))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, detail(t, rr), "email")
}

func TestOps_LivezHealthzMetrics(t *testing.T) {
	ready := false
	e := newEnv(t, func() bool { return ready })

	rr := e.do(t, httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	ready = true
	rr = e.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "crm_http_requests_total")
}

func TestCORS_Preflight(t *testing.T) {
	e := newEnv(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/contacts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")

	rr := e.do(t, req)
	require.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/contacts", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rr = e.do(t, req)
	require.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
