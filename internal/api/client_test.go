package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic-client/internal/errs"
	"clinic-client/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Login(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.io", body["email"])
		assert.Equal(t, "pw", body["password"])
		assert.Equal(t, DeviceName, body["device_name"])

		_, _ = w.Write([]byte(`{"token":"tok-1","data":{"id":3,"name":"Ann","email":"a@b.io","role":"PATIENT"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api", 0, nil)
	u, err := c.Login(context.Background(), "a@b.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)
	assert.Equal(t, "tok-1", u.Token, "server token must be merged into the user")
	assert.Equal(t, model.RolePatient, u.Role)
	assert.Empty(t, c.Token(), "Login must not set the client credential itself")
}

func TestClient_BearerHeader(t *testing.T) {
	t.Parallel()
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, 0, nil)
	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, got, "no credential configured yet")

	c.SetToken("tok-9")
	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, "Bearer tok-9", got)

	c.SetToken("")
	require.NoError(t, c.Logout(context.Background()))
	assert.Empty(t, got, "cleared credential must not be sent")
}

func TestClient_SubmissionsQuery(t *testing.T) {
	t.Parallel()
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"data":[{"id":1,"title":"Headache","status":"PENDING"}],"pagination":{"currentPage":2,"totalPages":5}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 0, nil)

	page, err := c.Submissions(context.Background(), 2, "")
	require.NoError(t, err)
	assert.Equal(t, "page=2", rawQuery, "empty status means no status parameter")
	assert.Len(t, page.Items, 1)
	assert.Equal(t, model.Pagination{CurrentPage: 2, TotalPages: 5}, page.Pagination)

	_, err = c.Submissions(context.Background(), 1, string(model.StatusDone))
	require.NoError(t, err)
	assert.Equal(t, "page=1&status=DONE", rawQuery)
}

func TestClient_SubmissionAndCreate(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/submissions/42":
			_, _ = w.Write([]byte(`{"data":{"id":42,"title":"Back pain","symptoms":"dull ache","status":"IN_PROGRESS"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/submissions":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["title"] == "" || body["symptoms"] == "" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				return
			}
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 0, nil)

	sub, err := c.Submission(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), sub.ID)
	assert.Equal(t, model.StatusInProgress, sub.Status)

	require.NoError(t, c.CreateSubmission(context.Background(), "Back pain", "dull ache"))

	_, err = c.Submission(context.Background(), 7)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestClient_UpdateProfile(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/update", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// nil fields must be omitted from the payload
		_, hasName := body["name"]
		assert.False(t, hasName)
		assert.Equal(t, "555-0101", body["phone_number"])
		_, _ = w.Write([]byte(`{"data":{"phone_number":"555-0101","weight":61.5}}`))
	}))
	defer srv.Close()

	phone := "555-0101"
	c := New(srv.URL, 0, nil)
	patch, err := c.UpdateProfile(context.Background(), model.UserPatch{PhoneNumber: &phone})
	require.NoError(t, err)
	require.NotNil(t, patch.PhoneNumber)
	assert.Equal(t, "555-0101", *patch.PhoneNumber)
	require.NotNil(t, patch.Weight)
	assert.Equal(t, 61.5, *patch.Weight)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fields":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":{"fields":{"email":["invalid"]}}}`))
		case "/message":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"These credentials do not match our records."}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`<html>boom</html>`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 0, nil)

	err := c.do(context.Background(), http.MethodPost, "/fields", nil, nil)
	assert.Equal(t, "invalid", ErrorMessage(err))

	err = c.do(context.Background(), http.MethodPost, "/message", nil, nil)
	assert.Equal(t, "These credentials do not match our records.", ErrorMessage(err))
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	err = c.do(context.Background(), http.MethodPost, "/other", nil, nil)
	assert.Equal(t, GenericMessage, ErrorMessage(err), "unparseable envelope falls back to the generic message")
}

func TestErrorMessage_TransportFailure(t *testing.T) {
	t.Parallel()
	c := New("http://127.0.0.1:1", 0, nil) // nothing listens here
	err := c.Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, GenericMessage, ErrorMessage(err))
}

func TestError_DisplayMessage(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  Error
		want string
	}{
		{"message wins over fields", Error{Message: "nope", Fields: map[string][]string{"email": {"bad"}}}, "nope"},
		{"first field by sorted key", Error{Fields: map[string][]string{"weight": {"w"}, "email": {"e"}}}, "e"},
		{"skips empty field slots", Error{Fields: map[string][]string{"a": {}, "b": {"msg"}}}, "msg"},
		{"empty envelope", Error{StatusCode: 500}, GenericMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.DisplayMessage())
		})
	}
}
