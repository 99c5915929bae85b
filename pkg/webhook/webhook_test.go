package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSender(url string) *Sender {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	s := NewSender(url, "shh", log)
	s.Backoff = time.Millisecond
	return s
}

func TestDeliver(t *testing.T) {
	var received Payload
	var secret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret = r.Header.Get("X-Webhook-Secret")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	deliveryID, attempts, err := testSender(srv.URL).Deliver(context.Background(), Payload{WeekID: "2025-W11"}, nil)

	require.NoError(t, err)
	assert.NotEmpty(t, deliveryID)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, "2025-W11", received.WeekID)
	assert.Equal(t, "shh", secret)
}

func TestDeliver_RetriesOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, attempts, err := testSender(srv.URL).Deliver(context.Background(), Payload{WeekID: "w1"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestDeliver_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, attempts, err := testSender(srv.URL).Deliver(context.Background(), Payload{WeekID: "w1"}, nil)

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestDeliver_DedupByWeekID(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := testSender(srv.URL)
	delivered := NewDeliverySet()

	_, _, err := sender.Deliver(context.Background(), Payload{WeekID: "2025-W11"}, delivered)
	require.NoError(t, err)

	deliveryID, attempts, err := sender.Deliver(context.Background(), Payload{WeekID: "2025-W11"}, delivered)
	require.NoError(t, err)
	assert.Empty(t, deliveryID)
	assert.Zero(t, attempts)
	assert.Equal(t, 1, calls)

	// A different week still goes out.
	_, _, err = sender.Deliver(context.Background(), Payload{WeekID: "2025-W12"}, delivered)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDeliverySet_EmptyIDNeverDeduped(t *testing.T) {
	delivered := NewDeliverySet()
	assert.True(t, delivered.MarkIfNew(""))
	assert.True(t, delivered.MarkIfNew(""))
}
