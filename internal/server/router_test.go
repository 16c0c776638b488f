package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/internal/session"
	"github.com/eventboard/backend/internal/store"
	"github.com/eventboard/backend/internal/store/memory"
	"github.com/eventboard/backend/pkg/storage"
)

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sessions := session.NewMemoryStore(time.Minute)
	t.Cleanup(sessions.Close)
	disk, err := storage.NewDisk(t.TempDir(), "/uploads/files")
	require.NoError(t, err)

	return NewRouter(Deps{
		Events:        memory.NewCollection[models.Event](store.Events),
		Organizations: memory.NewCollection[models.Organization](store.Organizations),
		Users:         memory.NewCollection[models.User](store.Users, memory.Unique(models.UsernameField)),
		Reservations:  memory.NewCollection[models.Reservation](store.Reservations),
		Sessions: session.NewManager(sessions, session.NewSigner("test-secret"), time.Hour,
			session.CookieConfig{Name: "sid"}),
		Images: disk,
		Logger: zap.NewNop(),
	}, Options{
		MaxBodyBytes:     1 << 20,
		DefaultLocale:    "en",
		UploadDir:        disk.Dir(),
		UploadPublicPath: "/uploads/files",
	})
}

type client struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func (cl *client) do(method, url string, data any) (*httptest.ResponseRecorder, map[string]any) {
	cl.t.Helper()
	var body bytes.Buffer
	if data != nil {
		require.NoError(cl.t, json.NewEncoder(&body).Encode(data))
	}
	req := httptest.NewRequest(method, url, &body)
	req.Header.Set("Content-Type", "application/json")
	if cl.cookie != nil {
		req.AddCookie(cl.cookie)
	}
	w := httptest.NewRecorder()
	cl.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == "sid" {
			cl.cookie = c
			if c.MaxAge < 0 {
				cl.cookie = nil
			}
		}
	}
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func signup(t *testing.T, router *gin.Engine, body map[string]any) *client {
	t.Helper()
	cl := &client{t: t, router: router}
	w, _ := cl.do(http.MethodPost, "/signup", body)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, cl.cookie)
	return cl
}

func eventPayload(orgID string) map[string]any {
	return map[string]any{
		"name":        "Launch party",
		"orgId":       orgID,
		"description": "Come along",
		"location":    "Lisbon",
		"date":        "2024-09-01T18:00:00.000Z",
		"timecreated": "2024-08-01T10:00:00.000Z",
	}
}

func TestHealth(t *testing.T) {
	router := setupTestServer(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestAdminFlow(t *testing.T) {
	router := setupTestServer(t)
	admin := signup(t, router, map[string]any{
		"username": "boss@acme.com", "password": "hunter22",
		"userType": "admin", "orgName": "Acme Corp", "orgLocation": "Lisbon",
	})

	w, body := admin.do(http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := body["user"].(map[string]any)
	assert.Equal(t, "admin", me["userType"])
	assert.NotContains(t, me, "password")
	orgID := me["orgId"].(string)

	w, body = admin.do(http.MethodGet, "/orgs?mine=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme-corp", body["org"].(map[string]any)["name"])

	w, _ = admin.do(http.MethodPost, "/events", eventPayload(orgID))
	require.Equal(t, http.StatusCreated, w.Code)

	anon := &client{t: t, router: router}
	w, body = anon.do(http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["events"])

	w, _ = admin.do(http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, admin.cookie)

	w, _ = admin.do(http.MethodGet, "/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccessGates(t *testing.T) {
	router := setupTestServer(t)
	anon := &client{t: t, router: router}
	regular := signup(t, router, map[string]any{"username": "ana@example.com", "password": "secret"})

	cases := []struct {
		name   string
		cl     *client
		method string
		url    string
		want   int
	}{
		{"anonymous create event", anon, http.MethodPost, "/events", http.StatusUnauthorized},
		{"regular create event", regular, http.MethodPost, "/events", http.StatusForbidden},
		{"regular update org", regular, http.MethodPut, "/orgs/x", http.StatusForbidden},
		{"anonymous create org", anon, http.MethodPost, "/orgs", http.StatusUnauthorized},
		{"anonymous list reservations", anon, http.MethodGet, "/reservations", http.StatusUnauthorized},
		{"anonymous update reservation", anon, http.MethodPut, "/reservations/x", http.StatusUnauthorized},
		{"anonymous upload", anon, http.MethodPost, "/uploads", http.StatusUnauthorized},
		{"regular upload", regular, http.MethodPost, "/uploads", http.StatusForbidden},
		{"regular list reservations", regular, http.MethodGet, "/reservations", http.StatusOK},
		{"anonymous list events", anon, http.MethodGet, "/events", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := tc.cl.do(tc.method, tc.url, eventPayload("org-1"))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	router := setupTestServer(t)
	signup(t, router, map[string]any{"username": "ana@example.com", "password": "secret"})

	t.Run("Wrong password sets no cookie", func(t *testing.T) {
		cl := &client{t: t, router: router}
		w, _ := cl.do(http.MethodPost, "/login", map[string]any{"username": "ana@example.com", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, cl.cookie)
	})

	t.Run("Unknown username answers like a wrong password", func(t *testing.T) {
		wrong := &client{t: t, router: router}
		ww, _ := wrong.do(http.MethodPost, "/login", map[string]any{"username": "ana@example.com", "password": "nope"})

		cl := &client{t: t, router: router}
		w, body := cl.do(http.MethodPost, "/login", map[string]any{"username": "nobody@example.com", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, ww.Code, w.Code)
		assert.JSONEq(t, ww.Body.String(), w.Body.String())
		assert.Equal(t, "invalid username or password", body["message"])
		assert.Empty(t, w.Header().Values("Set-Cookie"))
		assert.Nil(t, cl.cookie)
	})

	t.Run("Success", func(t *testing.T) {
		cl := &client{t: t, router: router}
		w, body := cl.do(http.MethodPost, "/login", map[string]any{"username": "ana@example.com", "password": "secret"})
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, cl.cookie)
		assert.Equal(t, "ana@example.com", body["user"].(map[string]any)["username"])

		w, _ = cl.do(http.MethodGet, "/users/me", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Duplicate signup", func(t *testing.T) {
		cl := &client{t: t, router: router}
		w, _ := cl.do(http.MethodPost, "/signup", map[string]any{"username": "ana@example.com", "password": "other"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Nil(t, cl.cookie)
	})
}
