package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Get(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)
	ctx := context.Background()

	s := Session{
		ID:         "abc",
		IdentityID: uuid.New(),
		Email:      "ann@example.com",
		Role:       domain.RoleDoctor,
		ExpiresAt:  time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	mock.ExpectGet("session:abc").SetVal(string(data))
	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, s.IdentityID, got.IdentityID)
	assert.Equal(t, domain.RoleDoctor, got.Role)

	mock.ExpectGet("session:missing").RedisNil()
	got, err = store.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)

	mock.ExpectGet("session:boom").SetErr(errors.New("connection refused"))
	_, err = store.Get(ctx, "boom")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_CreateValidates(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)
	ctx := context.Background()

	assert.Error(t, store.Create(ctx, Session{ID: "x"}))
	assert.Error(t, store.Create(ctx, Session{ID: "x", IdentityID: uuid.New(), ExpiresAt: time.Now().Add(-time.Minute)}))

	mock.ExpectDel("session:gone").SetVal(1)
	assert.NoError(t, store.Update(ctx, Session{ID: "gone", ExpiresAt: time.Now().Add(-time.Minute)}))

	mock.ExpectDel("session:abc").SetVal(1)
	assert.NoError(t, store.Delete(ctx, "abc"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, "sid-1", time.Now().Add(time.Hour), CookieOptions{Secure: true})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, "/", cookies[0].Path)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	assert.Equal(t, "sid-1", ReadCookie(req, CookieOptions{}))

	rec = httptest.NewRecorder()
	ClearCookie(rec, CookieOptions{})
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)

	id1, err := GenerateID()
	require.NoError(t, err)
	id2, _ := GenerateID()
	assert.Len(t, id1, 43)
	assert.NotEqual(t, id1, id2)
}
