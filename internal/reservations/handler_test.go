package reservations

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/internal/store"
	"github.com/eventboard/backend/internal/store/memory"
	"github.com/eventboard/backend/internal/store/storetest"
)

func setupReservationTestRouter(t *testing.T) (*gin.Engine, *storetest.Counting[models.Reservation], *Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	docs := storetest.NewCounting[models.Reservation](memory.NewCollection[models.Reservation](store.Reservations))
	repo := NewRepository(docs)
	h := NewHandler(repo, zap.NewNop())

	router := gin.New()
	router.GET("/reservations", h.List)
	router.GET("/reservations/:id", h.Get)
	router.POST("/reservations", h.Create)
	router.PUT("/reservations/:id", h.Update)
	router.DELETE("/reservations/:id", h.Delete)
	return router, docs, repo
}

func createJSONHTTPRequest(method, url string, data interface{}) *http.Request {
	var body bytes.Buffer
	_ = json.NewEncoder(&body).Encode(data)
	req := httptest.NewRequest(method, url, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(router *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestCreateReservation(t *testing.T) {
	t.Run("Success - JSON", func(t *testing.T) {
		router, docs, _ := setupReservationTestRouter(t)

		w, body := serve(router, createJSONHTTPRequest(http.MethodPost, "/reservations", map[string]any{
			"name": "Ana Silva", "email": "ana@example.com", "seats": 2, "eventId": "evt-1",
		}))

		require.Equal(t, http.StatusCreated, w.Code)
		res := body["reservation"].(map[string]any)
		assert.NotEmpty(t, res["_id"])
		assert.EqualValues(t, 2, res["seats"])
		assert.EqualValues(t, 1, docs.Inserts())
	})

	t.Run("Success - form body", func(t *testing.T) {
		router, _, _ := setupReservationTestRouter(t)
		form := url.Values{
			"name": {"Ana Silva"}, "email": {"ana@example.com"}, "seats": {"3"}, "eventId": {"evt-1"},
		}
		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		w, body := serve(router, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.EqualValues(t, 3, body["reservation"].(map[string]any)["seats"])
	})

	t.Run("Failed - zero seats", func(t *testing.T) {
		router, docs, _ := setupReservationTestRouter(t)

		w, _ := serve(router, createJSONHTTPRequest(http.MethodPost, "/reservations", map[string]any{
			"name": "Ana Silva", "email": "ana@example.com", "seats": 0, "eventId": "evt-1",
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, docs.Calls())
	})

	t.Run("Failed - missing event", func(t *testing.T) {
		router, docs, _ := setupReservationTestRouter(t)

		w, body := serve(router, createJSONHTTPRequest(http.MethodPost, "/reservations", map[string]any{
			"name": "Ana Silva", "email": "ana@example.com",
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, body["message"], "eventId")
		assert.Zero(t, docs.Calls())
	})
}

func TestReservationLifecycle(t *testing.T) {
	router, _, repo := setupReservationTestRouter(t)
	created, err := repo.Create(context.Background(), &models.Reservation{
		Name: "Ana Silva", Email: "ana@example.com", EventID: "evt-1",
	})
	require.NoError(t, err)

	w, body := serve(router, httptest.NewRequest(http.MethodGet, "/reservations/"+created.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ana Silva", body["reservation"].(map[string]any)["name"])

	w, body = serve(router, createJSONHTTPRequest(http.MethodPut, "/reservations/"+created.ID, map[string]any{
		"name": "Ana Souza", "email": "ana@example.com", "eventId": "evt-1",
	}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["numReplaced"])

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", got.Name)
	assert.Equal(t, created.ID, got.ID)

	_, body = serve(router, httptest.NewRequest(http.MethodGet, "/reservations", nil))
	assert.EqualValues(t, 1, body["reservations"])

	w, _ = serve(router, httptest.NewRequest(http.MethodDelete, "/reservations/"+created.ID, nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
