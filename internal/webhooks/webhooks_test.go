package webhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTargets(t *testing.T) {
	p := Payload{ProjectID: "P-00001"}
	urls := []string{
		"http://example.com/hook/{project_id}",
		"  http://example.com/other ",
		"",
		"ftp://example.com/nope",
		"not a url",
		"http://example.com/other",
	}

	got := ResolveTargets(urls, p)
	assert.Equal(t, []string{
		"http://example.com/hook/P-00001",
		"http://example.com/other",
	}, got)
}

func TestResolveTargets_Empty(t *testing.T) {
	assert.Empty(t, ResolveTargets(nil, Payload{}))
}

func TestDispatch_PostsPayload(t *testing.T) {
	var (
		mu       sync.Mutex
		received []Payload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, EventImportCompleted, r.Header.Get("X-Caseq-Event"))

		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var p Payload
		require.NoError(t, json.Unmarshal(data, &p))

		mu.Lock()
		received = append(received, p)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := Payload{ProjectID: "P-00001", Source: "testrail", Created: 3, SuitesCreated: 2}
	deliveries := New(time.Second).Dispatch(context.Background(), []string{srv.URL + "/a", srv.URL + "/b"}, p)

	require.Len(t, deliveries, 2)
	for _, d := range deliveries {
		assert.NoError(t, d.Err)
		assert.Equal(t, http.StatusNoContent, d.Status)
	}
	assert.Equal(t, srv.URL+"/a", deliveries[0].URL)

	require.Len(t, received, 2)
	for _, got := range received {
		assert.Equal(t, EventImportCompleted, got.Event)
		assert.Equal(t, "P-00001", got.ProjectID)
		assert.Equal(t, 3, got.Created)
		assert.Equal(t, 2, got.SuitesCreated)
	}
}

func TestDispatch_ReportsFailures(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	deliveries := New(time.Second).Dispatch(context.Background(), []string{ok.URL, broken.URL}, Payload{ProjectID: "P-00001"})

	require.Len(t, deliveries, 2)
	assert.NoError(t, deliveries[0].Err)
	assert.Equal(t, http.StatusOK, deliveries[0].Status)
	assert.Error(t, deliveries[1].Err)
	assert.Equal(t, http.StatusInternalServerError, deliveries[1].Status)
}

func TestDispatch_Timeout(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	deliveries := New(50*time.Millisecond).Dispatch(context.Background(), []string{slow.URL}, Payload{})
	require.Len(t, deliveries, 1)
	assert.Error(t, deliveries[0].Err)
}

func TestDispatch_NoTargets(t *testing.T) {
	assert.Nil(t, New(0).Dispatch(context.Background(), nil, Payload{}))
}
