package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventboard/backend/internal/models"
)

func newRedisStore(t *testing.T, now time.Time) (*RedisStore, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	st := NewRedisStore(db)
	st.now = func() time.Time { return now }
	return st, mock
}

func TestRedisStore_Create(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st, mock := newRedisStore(t, now)
	s := &Session{ID: "abc", UserID: "u1", UserType: models.UserTypeRegular, ExpiresAt: now.Add(2 * time.Hour)}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	mock.ExpectSet("session:abc", string(data), 2*time.Hour).SetVal("OK")

	require.NoError(t, st.Create(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_CreateExpired(t *testing.T) {
	now := time.Now()
	st, mock := newRedisStore(t, now)
	err := st.Create(context.Background(), &Session{ID: "abc", ExpiresAt: now.Add(-time.Second)})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Get(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st, mock := newRedisStore(t, now)
	s := Session{ID: "abc", UserID: "u1", UserType: models.UserTypeAdmin, ExpiresAt: now.Add(time.Hour)}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	mock.ExpectGet("session:abc").SetVal(string(data))
	got, err := st.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, models.UserTypeAdmin, got.UserType)
	assert.True(t, got.ExpiresAt.Equal(s.ExpiresAt))

	mock.ExpectGet("session:missing").RedisNil()
	_, err = st.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectGet("session:broken").SetErr(errors.New("connection refused"))
	_, err = st.Get(context.Background(), "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Delete(t *testing.T) {
	st, mock := newRedisStore(t, time.Now())
	mock.ExpectDel("session:abc").SetVal(1)
	require.NoError(t, st.Delete(context.Background(), "abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
