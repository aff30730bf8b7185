package charge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitcharge/internal/auth"
	"github.com/mmynk/splitcharge/internal/models"
)

func allocated(handles ...string) *models.Receipt {
	r := &models.Receipt{Name: "Dinner", Total: decimal.NewFromInt(int64(10 * len(handles)))}
	for _, h := range handles {
		r.Items = append(r.Items, models.Item{
			Amount:       decimal.NewFromInt(10),
			Participants: []models.Participant{models.Named(h)},
			Note:         "Dinner\n$10.00: " + h,
		})
	}
	return r
}

type recordingSink struct {
	mu      sync.Mutex
	charges []Charge
	failOn  string
}

func (s *recordingSink) Charge(_ context.Context, c Charge) error {
	if c.Handle == s.failOn {
		return errors.New("declined")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charges = append(s.charges, c)
	return nil
}

func (s *recordingSink) handles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.charges))
	for i, c := range s.charges {
		out[i] = c.Handle
	}
	return out
}

func TestFromReceipt(t *testing.T) {
	charges, err := FromReceipt(allocated("alice", "bob"))
	require.NoError(t, err)
	require.Len(t, charges, 2)
	assert.Equal(t, "alice", charges[0].Handle)
	assert.True(t, charges[0].Amount.Equal(decimal.NewFromInt(10)))

	for _, bad := range [][]models.Participant{
		{models.Me},
		{models.Everyone},
		{models.Named("a"), models.Named("b")},
		nil,
	} {
		r := &models.Receipt{Items: []models.Item{{Participants: bad, Amount: decimal.NewFromInt(1)}}}
		_, err := FromReceipt(r)
		assert.ErrorIs(t, err, ErrNotChargeable)
	}
}

func TestDryRunSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewDryRunSink(&buf)

	err := sink.Charge(context.Background(), Charge{Handle: "alice", Amount: decimal.RequireFromString("55"), Note: "Dinner\n$55.00: Pizza"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Charging")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "$55.00")
	assert.Contains(t, out, "Dinner\n$55.00: Pizza")
}

func TestDispatcher_Sequential(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	sink := &recordingSink{}

	sent, err := NewDispatcher(sink, 1, metrics).Dispatch(context.Background(), allocated("alice", "bob", "carol"))
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Equal(t, []string{"alice", "bob", "carol"}, sink.handles())

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.charges.WithLabelValues(ResultSubmitted)))
	assert.Equal(t, 30.0, testutil.ToFloat64(metrics.amount))
}

func TestDispatcher_StopsOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	sink := &recordingSink{failOn: "bob"}

	sent, err := NewDispatcher(sink, 1, metrics).Dispatch(context.Background(), allocated("alice", "bob", "carol"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bob")
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"alice"}, sink.handles())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.charges.WithLabelValues(ResultFailed)))
}

func TestDispatcher_Concurrent(t *testing.T) {
	sink := &recordingSink{}
	handles := []string{"a", "b", "c", "d", "e", "f", "g"}

	sent, err := NewDispatcher(sink, 3, nil).Dispatch(context.Background(), allocated(handles...))
	require.NoError(t, err)
	assert.Equal(t, len(handles), sent)
	assert.ElementsMatch(t, handles, sink.handles())
}

func TestDispatcher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	sent, err := NewDispatcher(sink, 1, nil).Dispatch(ctx, allocated("alice"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sent)
	assert.Empty(t, sink.handles())
}

func TestDispatcher_RejectsUnallocatedReceipt(t *testing.T) {
	r := allocated("alice")
	r.Items = append(r.Items, models.Item{Participants: []models.Participant{models.Me}, Amount: decimal.NewFromInt(1)})

	sink := &recordingSink{}
	_, err := NewDispatcher(sink, 1, nil).Dispatch(context.Background(), r)
	assert.ErrorIs(t, err, ErrNotChargeable)
	assert.Empty(t, sink.handles(), "nothing is charged when the receipt is invalid")
}

func newGateway(t *testing.T, tokens *auth.TokenSource, handler func(w http.ResponseWriter, req chargeRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if _, err := tokens.Validate(token); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		var req chargeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		handler(w, req)
	}))
}

func TestGatewaySink(t *testing.T) {
	tokens, err := auth.NewTokenSource("secret", "payer-h", time.Minute)
	require.NoError(t, err)
	charge := Charge{Handle: "alice", Amount: decimal.RequireFromString("27.5"), Note: "Dinner\n$27.50: Pizza"}

	t.Run("submits charge", func(t *testing.T) {
		var got chargeRequest
		server := newGateway(t, tokens, func(w http.ResponseWriter, req chargeRequest) {
			got = req
			w.WriteHeader(http.StatusCreated)
		})
		defer server.Close()

		sink := NewGatewaySink(GatewayConfig{URL: server.URL, RetryDelay: time.Millisecond}, tokens)
		require.NoError(t, sink.Charge(context.Background(), charge))

		assert.Equal(t, "alice", got.Handle)
		assert.Equal(t, "27.50", got.Amount)
		assert.Equal(t, charge.Note, got.Note)
		assert.NotEmpty(t, got.IdempotencyKey)
	})

	t.Run("retries server errors with the same key", func(t *testing.T) {
		var calls atomic.Int32
		keys := make(chan string, 3)
		server := newGateway(t, tokens, func(w http.ResponseWriter, req chargeRequest) {
			keys <- req.IdempotencyKey
			if calls.Add(1) < 3 {
				http.Error(w, "try again", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		defer server.Close()

		sink := NewGatewaySink(GatewayConfig{URL: server.URL, RetryAttempts: 3, RetryDelay: time.Millisecond}, tokens)
		require.NoError(t, sink.Charge(context.Background(), charge))
		assert.Equal(t, int32(3), calls.Load())

		first := <-keys
		assert.Equal(t, first, <-keys)
		assert.Equal(t, first, <-keys)
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		server := newGateway(t, tokens, func(w http.ResponseWriter, req chargeRequest) {
			calls.Add(1)
			http.Error(w, "unknown handle", http.StatusUnprocessableEntity)
		})
		defer server.Close()

		sink := NewGatewaySink(GatewayConfig{URL: server.URL, RetryAttempts: 3, RetryDelay: time.Millisecond}, tokens)
		err := sink.Charge(context.Background(), charge)
		require.ErrorIs(t, err, ErrGateway)
		assert.Contains(t, err.Error(), "unknown handle")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		var calls atomic.Int32
		server := newGateway(t, tokens, func(w http.ResponseWriter, req chargeRequest) {
			calls.Add(1)
			http.Error(w, "down", http.StatusBadGateway)
		})
		defer server.Close()

		sink := NewGatewaySink(GatewayConfig{URL: server.URL, RetryAttempts: 2, RetryDelay: time.Millisecond}, tokens)
		require.ErrorIs(t, sink.Charge(context.Background(), charge), ErrGateway)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("rejects a foreign token", func(t *testing.T) {
		server := newGateway(t, tokens, func(w http.ResponseWriter, req chargeRequest) {
			w.WriteHeader(http.StatusOK)
		})
		defer server.Close()

		other, err := auth.NewTokenSource("other", "payer-h", time.Minute)
		require.NoError(t, err)
		sink := NewGatewaySink(GatewayConfig{URL: server.URL, RetryDelay: time.Millisecond}, other)
		require.ErrorIs(t, sink.Charge(context.Background(), charge), ErrGateway)
	})
}
