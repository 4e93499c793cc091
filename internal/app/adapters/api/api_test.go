package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmi/config"
	"tmi/pkg/logger"
)

func newTestAPI(t *testing.T, handler http.Handler) (*API, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	manager, err := config.New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, manager.Update(func(cfg *config.Config) {
		cfg.App.Username = "botto"
		cfg.App.OAuth = "oauth:secret"
		cfg.App.ClientID = "client123"
	}))

	a := New(logger.NewNop(), manager)
	a.baseURL = srv.URL
	return a, srv
}

func TestGetUserID(t *testing.T) {
	var requests atomic.Int32
	a, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "client123", r.Header.Get("Client-Id"))
		assert.Equal(t, "somestreamer", r.URL.Query().Get("login"))
		_, _ = w.Write([]byte(`{"data":[{"id":"777","login":"somestreamer"}]}`))
	}))

	id, err := a.GetUserID("SomeStreamer")
	require.NoError(t, err)
	assert.Equal(t, "777", id)

	// второй запрос должен уйти в кэш
	id, err = a.GetUserID("somestreamer")
	require.NoError(t, err)
	assert.Equal(t, "777", id)
	assert.Equal(t, int32(1), requests.Load())
}

func TestGetUserIDNotFound(t *testing.T) {
	a, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))

	_, err := a.GetUserID("nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGetUserIDServerError(t *testing.T) {
	a, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
	}))

	_, err := a.GetUserID("anyone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestGetEmoteSets(t *testing.T) {
	var requests atomic.Int32
	a, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, []string{"0", "33"}, r.URL.Query()["emote_set_id"])
		_, _ = w.Write([]byte(`{"data":[
			{"id":"25","name":"Kappa","emote_set_id":"0","owner_id":"0"},
			{"id":"1902","name":"Keepo","emote_set_id":"33","owner_id":"1"}
		]}`))
	}))

	sets, err := a.GetEmoteSets([]string{"0", "33"})
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "Kappa", sets[0].Name)
	assert.Equal(t, "33", sets[1].SetID)

	_, err = a.GetEmoteSets([]string{"0", "33"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())
}

func TestGetEmoteSetsEmptyInput(t *testing.T) {
	a, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty input")
	}))

	sets, err := a.GetEmoteSets(nil)
	require.NoError(t, err)
	assert.Nil(t, sets)
}
