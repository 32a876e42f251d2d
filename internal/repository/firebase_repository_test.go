package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFirebaseServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSnapshotReadsPathAsJSONResource(t *testing.T) {
	var gotPath, gotAuth string
	srv := newFirebaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.URL.Query().Get("auth")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"Voltage":"120","Voltage2":"121","Voltage3":"119"}`))
	})

	repo := NewFirebaseRepository(srv.URL+"/", "secret-token", 0)
	snap, err := repo.FetchSnapshot(context.Background(), "/UsersData/u1/readings")
	require.NoError(t, err)

	assert.Equal(t, "/UsersData/u1/readings.json", gotPath)
	assert.Equal(t, "secret-token", gotAuth)
	assert.True(t, snap.Exists())
	assert.Equal(t, 121.0, snap.Fields()["Voltage2"].Float())
}

func TestFetchSnapshotWithoutTokenSendsNoAuth(t *testing.T) {
	var hasAuth bool
	srv := newFirebaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.URL.Query()["auth"]
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := NewFirebaseRepository(srv.URL, "", 0).FetchSnapshot(context.Background(), "/p")
	require.NoError(t, err)
	assert.False(t, hasAuth)
}

func TestFetchSnapshotNullIsMissing(t *testing.T) {
	srv := newFirebaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("null"))
	})

	snap, err := NewFirebaseRepository(srv.URL, "", 0).FetchSnapshot(context.Background(), "/p/history")
	require.NoError(t, err)
	assert.False(t, snap.Exists())
}

func TestFetchSnapshotErrorStatusCarriesStoreMessage(t *testing.T) {
	srv := newFirebaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Permission denied"}`))
	})

	_, err := NewFirebaseRepository(srv.URL, "", 0).FetchSnapshot(context.Background(), "/p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Permission denied")
}

func TestFetchSnapshotMalformedBody(t *testing.T) {
	srv := newFirebaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Voltage":`))
	})

	_, err := NewFirebaseRepository(srv.URL, "", 0).FetchSnapshot(context.Background(), "/p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestFetchSnapshotUnreachableStore(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewFirebaseRepository(url, "", 0).FetchSnapshot(context.Background(), "/p")
	assert.Error(t, err)
}

func TestRestPath(t *testing.T) {
	assert.Equal(t, "/a/b.json", restPath("/a/b"))
	assert.Equal(t, "/a/b.json", restPath("a/b/"))
	assert.Equal(t, "/.json", restPath("/"))
}
