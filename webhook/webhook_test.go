package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliver_SignsBody(t *testing.T) {
	var (
		gotBody []byte
		gotSig  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ev := NewEvent(EventCrawlCompleted, "https://example.com/", map[string]int{"page_count": 3})
	ev.RecordID = 7
	require.NoError(t, NewNotifier().Deliver(context.Background(), srv.URL, "s3cret", ev))

	assert.True(t, Verify("s3cret", gotBody, gotSig))
	assert.False(t, Verify("wrong", gotBody, gotSig))

	var decoded Event
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, EventCrawlCompleted, decoded.Type)
	assert.Equal(t, "https://example.com/", decoded.SeedURL)
	assert.EqualValues(t, 7, decoded.RecordID)
}

func TestDeliver_NoSecretNoSignature(t *testing.T) {
	var sig atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig.Store(r.Header.Get(SignatureHeader))
	}))
	defer srv.Close()

	require.NoError(t, NewNotifier().Deliver(context.Background(), srv.URL, "", NewEvent(EventCrawlFailed, "https://example.com/", nil)))
	assert.Equal(t, "", sig.Load())
}

func TestDeliver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewNotifier().Deliver(context.Background(), srv.URL, "", NewEvent(EventCrawlFailed, "x", nil))
	assert.ErrorContains(t, err, "502")
}

func TestDeliverAsync_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier()
	n.delays = []time.Duration{0, time.Millisecond, time.Millisecond, time.Millisecond}

	select {
	case <-n.DeliverAsync(srv.URL, "", NewEvent(EventCrawlCompleted, "x", nil)):
	case <-time.After(5 * time.Second):
		t.Fatal("delivery did not finish")
	}
	assert.EqualValues(t, 3, calls.Load())
}

func TestVerify_RejectsMalformedHeader(t *testing.T) {
	assert.False(t, Verify("s", []byte("body"), ""))
	assert.False(t, Verify("s", []byte("body"), "md5=abc"))
}
