package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeJobAPI is an httptest-backed stand-in for the batch-job API.
type fakeJobAPI struct {
	t *testing.T

	// startStatus overrides the HTTP status for run creation; the
	// statuses slice answers consecutive polls, last one repeating.
	startStatus int
	statuses    []JobStatus
	items       []any
	statusCalls atomic.Int64
}

func (f *fakeJobAPI) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /acts/", func(w http.ResponseWriter, r *http.Request) {
		if f.startStatus != 0 && f.startStatus != http.StatusCreated {
			http.Error(w, "boom", f.startStatus)
			return
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"data":{"id":"run-1"}}`)
	})
	mux.HandleFunc("GET /actor-runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		n := int(f.statusCalls.Add(1)) - 1
		if n >= len(f.statuses) {
			n = len(f.statuses) - 1
		}
		status := StatusRunning
		if n >= 0 {
			status = f.statuses[n]
		}
		fmt.Fprintf(w, `{"data":{"status":%q,"defaultDatasetId":"ds-1"}}`, status)
	})
	mux.HandleFunc("GET /datasets/ds-1/items", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(f.items); err != nil {
			f.t.Fatalf("encode items: %v", err)
		}
	})
	return httptest.NewServer(mux)
}

func newTestExtractor(serverURL string, strategy JobStrategy) *JobExtractor {
	client := NewJobClient(serverURL, "test-token", 5*time.Second)
	return NewJobExtractor(client, strategy, 5*time.Millisecond, 5, zap.NewNop())
}

func TestJobExtractSuccess(t *testing.T) {
	api := &fakeJobAPI{
		t:        t,
		statuses: []JobStatus{StatusRunning, StatusRunning, StatusSucceeded},
		items: []any{
			map[string]string{"dataType": "post", "title": "Interesting thread", "body": "Post body."},
			map[string]string{"dataType": "comment", "body": "First comment."},
		},
	}
	server := api.server()
	defer server.Close()

	e := newTestExtractor(server.URL, NewThreadStrategy("thread-actor"))
	result, err := e.Extract(context.Background(), "https://reddit.com/r/golang/comments/abc/x")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Interesting thread", result.Title)
	assert.Equal(t, "Post body.\n\nFirst comment.", result.Body)
	assert.Equal(t, KindDiscussionThread, result.Kind)
	assert.Equal(t, "https://reddit.com/r/golang/comments/abc/x", result.URL)
}

func TestJobExtractBodyCapped(t *testing.T) {
	api := &fakeJobAPI{
		t:        t,
		statuses: []JobStatus{StatusSucceeded},
		items: []any{
			map[string]string{"dataType": "post", "title": "Long", "body": strings.Repeat("x", 3000)},
		},
	}
	server := api.server()
	defer server.Close()

	e := newTestExtractor(server.URL, NewThreadStrategy("thread-actor"))
	result, err := e.Extract(context.Background(), "https://reddit.com/r/a/comments/b/c")
	require.NoError(t, err)
	assert.Len(t, result.Body, jobBodyLimit)
}

func TestJobExtractEmptyPayloadIsNoContentSuccess(t *testing.T) {
	api := &fakeJobAPI{
		t:        t,
		statuses: []JobStatus{StatusSucceeded},
		items:    []any{},
	}
	server := api.server()
	defer server.Close()

	e := newTestExtractor(server.URL, NewThreadStrategy("thread-actor"))
	result, err := e.Extract(context.Background(), "https://reddit.com/r/a/comments/b/c")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, BodyNoContent, result.Body)
	assert.Equal(t, threadFallbackTitle, result.Title)
	assert.Equal(t, KindDiscussionThread, result.Kind)
}

func TestJobExtractCreationFailure(t *testing.T) {
	api := &fakeJobAPI{t: t, startStatus: http.StatusInternalServerError}
	server := api.server()
	defer server.Close()

	e := newTestExtractor(server.URL, NewThreadStrategy("thread-actor"))
	result, err := e.Extract(context.Background(), "https://reddit.com/r/a/comments/b/c")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, BodyStartFailed, result.Body)
	assert.Equal(t, int64(0), api.statusCalls.Load(), "creation failure must not be polled or retried")
}

func TestJobExtractTerminalFailure(t *testing.T) {
	api := &fakeJobAPI{
		t:        t,
		statuses: []JobStatus{StatusRunning, StatusFailed},
	}
	server := api.server()
	defer server.Close()

	e := newTestExtractor(server.URL, NewThreadStrategy("thread-actor"))
	result, err := e.Extract(context.Background(), "https://reddit.com/r/a/comments/b/c")
	require.NoError(t, err)
	assert.Equal(t, BodyFailed, result.Body)
}

func TestJobExtractAbortedIsFailure(t *testing.T) {
	api := &fakeJobAPI{t: t, statuses: []JobStatus{StatusAborted}}
	server := api.server()
	defer server.Close()

	e := newTestExtractor(server.URL, NewThreadStrategy("thread-actor"))
	result, err := e.Extract(context.Background(), "https://reddit.com/r/a/comments/b/c")
	require.NoError(t, err)
	assert.Equal(t, BodyFailed, result.Body)
}

func TestJobExtractTimesOutWithinBudget(t *testing.T) {
	api := &fakeJobAPI{t: t, statuses: []JobStatus{StatusRunning}}
	server := api.server()
	defer server.Close()

	e := newTestExtractor(server.URL, NewThreadStrategy("thread-actor"))

	start := time.Now()
	result, err := e.Extract(context.Background(), "https://reddit.com/r/a/comments/b/c")
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.NotNil(t, result, "dispatched targets always yield a result")
	assert.Equal(t, BodyTimedOut, result.Body)
	assert.LessOrEqual(t, api.statusCalls.Load(), int64(5))
	assert.Less(t, elapsed, time.Second, "must terminate near interval times attempts")
}

func TestJobExtractPollErrorReadsAsPending(t *testing.T) {
	// Status endpoint always errors; each failure consumes an attempt
	// without aborting the loop, so the job ends as timed out.
	mux := http.NewServeMux()
	mux.HandleFunc("POST /acts/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"data":{"id":"run-1"}}`)
	})
	var polls atomic.Int64
	mux.HandleFunc("GET /actor-runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		http.Error(w, "flaky", http.StatusBadGateway)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewJobClient(server.URL, "test-token", 5*time.Second)
	e := NewJobExtractor(client, NewThreadStrategy("thread-actor"), 20*time.Millisecond, 3, zap.NewNop())
	result, err := e.Extract(context.Background(), "https://reddit.com/r/a/comments/b/c")
	require.NoError(t, err)
	assert.Equal(t, BodyTimedOut, result.Body)
	assert.Equal(t, int64(3), polls.Load())
}

func TestJobExtractDeclinesWithoutCredential(t *testing.T) {
	client := NewJobClient("http://unused.invalid", "", time.Second)
	e := NewJobExtractor(client, NewThreadStrategy("thread-actor"), time.Millisecond, 3, zap.NewNop())

	result, err := e.Extract(context.Background(), "https://reddit.com/r/a/comments/b/c")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestJobExtractVideoUsesPageTitleFallback(t *testing.T) {
	titleServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Great Talk</title></head><body></body></html>`)
	}))
	defer titleServer.Close()

	api := &fakeJobAPI{
		t:        t,
		statuses: []JobStatus{StatusSucceeded},
		items: []any{
			map[string]any{
				"subtitles": []map[string]string{{"language": "en", "plaintext": "transcript text here"}},
			},
		},
	}
	server := api.server()
	defer server.Close()

	strategy := NewVideoStrategy("video-actor", NewPageExtractor(time.Second))
	e := newTestExtractor(server.URL, strategy)

	result, err := e.Extract(context.Background(), titleServer.URL)
	require.NoError(t, err)
	assert.Equal(t, "Great Talk", result.Title, "item had no title; page title fetched up front wins")
	assert.Equal(t, "transcript text here", result.Body)
	assert.Equal(t, KindVideoTranscript, result.Kind)
}
