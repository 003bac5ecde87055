package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMux(t *testing.T) (*http.ServeMux, *Service) {
	t.Helper()
	svc, _ := newTestService(t)
	h := NewHandler(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", h.ListUsers)
	mux.HandleFunc("GET /users/{id}", h.GetUser)
	mux.HandleFunc("POST /users", h.CreateUser)
	mux.HandleFunc("PUT /users/{id}", h.UpdateUser)
	mux.HandleFunc("DELETE /users/{id}", h.DeleteUser)
	return mux, svc
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestHandler_CreateAndGet(t *testing.T) {
	mux, _ := newTestMux(t)

	w := do(mux, http.MethodPost, "/users", `{"username":"alice","password":"alice-password"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "alice-password")
	assert.NotContains(t, w.Body.String(), "password_hash")

	var created User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "alice", created.Username)
	assert.True(t, created.IsActive)

	w = do(mux, http.MethodGet, "/users/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	var fetched User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
}

func TestHandler_CreateErrors(t *testing.T) {
	mux, _ := newTestMux(t)

	w := do(mux, http.MethodPost, "/users", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "duplicate", body: `{"username":"alice","password":"pw"}`, wantStatus: http.StatusConflict},
		{name: "invalid json", body: `{"username":`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: `{"username":"bob","password":"pw","role":"x"}`, wantStatus: http.StatusBadRequest},
		{name: "validation", body: `{"username":"","password":"pw"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(mux, http.MethodPost, "/users", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandler_InvalidAndMissingID(t *testing.T) {
	mux, _ := newTestMux(t)
	missing := uuid.NewString()

	w := do(mux, http.MethodGet, "/users/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid user id", errorMessage(t, w))

	w = do(mux, http.MethodGet, "/users/"+missing, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user with id '"+missing+"' not found", errorMessage(t, w))

	w = do(mux, http.MethodPut, "/users/"+missing, `{"is_active":false}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(mux, http.MethodDelete, "/users/"+missing, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	mux, svc := newTestMux(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateInput{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	w := do(mux, http.MethodPut, "/users/"+u.ID, `{"is_active":false,"password":"next"}`)
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, "hashed:next", stored.PasswordHash)

	w = do(mux, http.MethodDelete, "/users/"+u.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err = svc.Get(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandler_List(t *testing.T) {
	mux, svc := newTestMux(t)
	ctx := context.Background()
	for _, name := range []string{"u1", "u2", "u3"} {
		_, err := svc.Create(ctx, CreateInput{Username: name, Password: "pw"})
		require.NoError(t, err)
	}

	w := do(mux, http.MethodGet, "/users?page=2&page_size=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.PageNumber)
	assert.Equal(t, 3, page.TotalRecordCount)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "u3", page.Records[0].Username)
	assert.Nil(t, page.Pagination.Next)
	require.NotNil(t, page.Pagination.Previous)

	w = do(mux, http.MethodGet, "/users?page=abc&page_size=-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, DefaultPageSize, page.PageSize)
}

func TestHandler_ListHugePage(t *testing.T) {
	mux, svc := newTestMux(t)
	_, err := svc.Create(context.Background(), CreateInput{Username: "u1", Password: "pw"})
	require.NoError(t, err)

	w := do(mux, http.MethodGet, "/users?page=1000000000000000000&page_size=10", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1_000_000_000_000_000_000, page.PageNumber)
	assert.Empty(t, page.Records)
	assert.Nil(t, page.Pagination.Next)
}
