package channels_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ogulcanaydogan/SafetyRing/pkg/channels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix_Send(t *testing.T) {
	var path, auth string
	var content map[string]any
	homeserver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&content))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"event_id":"$evt1"}`))
	}))
	defer homeserver.Close()

	m, err := channels.NewMatrix(homeserver.URL, "@ring:example.org", "secret-token", map[string]string{
		"+33611111111": "!family:example.org",
	})
	require.NoError(t, err)
	assert.Equal(t, "matrix", m.Name())
	assert.True(t, m.CanSend())

	require.NoError(t, m.Send(context.Background(), "+33611111111", "help at Paris"))
	assert.True(t, strings.Contains(path, "/rooms/!family:example.org/send/m.room.message/"), path)
	assert.Equal(t, "Bearer secret-token", auth)
	assert.Equal(t, "m.text", content["msgtype"])
	assert.Equal(t, "help at Paris", content["body"])
}

func TestMatrix_Send_UnknownHandle(t *testing.T) {
	m, err := channels.NewMatrix("https://matrix.example.org", "@ring:example.org", "t", map[string]string{
		"known": "!room:example.org",
	})
	require.NoError(t, err)

	err = m.Send(context.Background(), "unknown", "msg")
	assert.ErrorIs(t, err, channels.ErrNotConfigured)
}

func TestMatrix_Send_Forbidden(t *testing.T) {
	homeserver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errcode":"M_FORBIDDEN","error":"not in room"}`))
	}))
	defer homeserver.Close()

	m, err := channels.NewMatrix(homeserver.URL, "@ring:example.org", "t", map[string]string{"h": "!room:example.org"})
	require.NoError(t, err)
	assert.Error(t, m.Send(context.Background(), "h", "msg"))
}

func TestMatrix_NoRooms(t *testing.T) {
	m, err := channels.NewMatrix("https://matrix.example.org", "@ring:example.org", "t", nil)
	require.NoError(t, err)
	assert.False(t, m.CanSend())
}
