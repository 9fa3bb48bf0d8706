package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/termdex/internal/catalog"
)

const bulbasaur = `{
  "name": "bulbasaur",
  "base_experience": 64,
  "height": 7,
  "weight": 69,
  "types": [{"slot": 1, "type": {"name": "grass", "url": "https://pokeapi.co/api/v2/type/12/"}}],
  "stats": [{"base_stat": 45, "effort": 0, "stat": {"name": "hp", "url": "u"}}]
}`

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	assert.Equal(t, "termdex", f.cfg.UserAgent)
	assert.Equal(t, 3, f.cfg.Tries)
	assert.Equal(t, 15*time.Second, f.cfg.Timeout)
	assert.Equal(t, "termdex", f.baseCollector.UserAgent)
	assert.True(t, f.baseCollector.AllowURLRevisit)
	assert.True(t, f.baseCollector.IgnoreRobotsTxt)
}

func TestFetchDecodesRecord(t *testing.T) {
	t.Parallel()

	var agent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent.Store(r.UserAgent())
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, bulbasaur)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 2 * time.Second}, zap.NewNop())
	rec, err := f.Fetch(context.Background(), srv.URL+"/api/v2/pokemon/1")
	require.NoError(t, err)
	assert.Equal(t, "bulbasaur", rec.Name)
	assert.Equal(t, 64, rec.BaseExperience)
	require.Len(t, rec.Types, 1)
	assert.Equal(t, "grass", rec.Types[0].Type.Name)
	require.Len(t, rec.Stats, 1)
	assert.Equal(t, 45, rec.Stats[0].BaseStat)
	assert.Equal(t, "termdex", agent.Load())
}

func TestFetchRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = fmt.Fprint(w, bulbasaur)
	}))
	defer srv.Close()

	f := New(Config{Tries: 3, Timeout: 2 * time.Second}, zap.NewNop())
	rec, err := f.Fetch(context.Background(), srv.URL+"/api/v2/pokemon/1")
	require.NoError(t, err)
	assert.Equal(t, "bulbasaur", rec.Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchSucceedsOnThirdAttempt(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	f := New(Config{Tries: 3}, zap.New(core))
	var calls int
	f.do = func(context.Context, string) ([]byte, error) {
		calls++
		if calls < 3 {
			return nil, fmt.Errorf("attempt %d failed", calls)
		}
		return []byte(bulbasaur), nil
	}

	rec, err := f.Fetch(context.Background(), "https://pokeapi.co/api/v2/pokemon/1")
	require.NoError(t, err)
	assert.Equal(t, "bulbasaur", rec.Name)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, logs.FilterMessage("fetch attempt failed").Len())
}

func TestFetchReturnsLastError(t *testing.T) {
	t.Parallel()

	f := New(Config{Tries: 3}, zap.NewNop())
	errs := []error{errors.New("first"), errors.New("second"), errors.New("third")}
	var calls int
	f.do = func(context.Context, string) ([]byte, error) {
		err := errs[calls]
		calls++
		return nil, err
	}

	_, err := f.Fetch(context.Background(), "https://pokeapi.co/api/v2/pokemon/1")
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, errs[2])
	assert.NotErrorIs(t, err, errs[0])
	assert.ErrorIs(t, err, catalog.ErrFetch)
}

func TestFetchDecodeErrorIsRetried(t *testing.T) {
	t.Parallel()

	f := New(Config{Tries: 2}, zap.NewNop())
	var calls int
	f.do = func(context.Context, string) ([]byte, error) {
		calls++
		return []byte("{not json"), nil
	}

	_, err := f.Fetch(context.Background(), "https://pokeapi.co/api/v2/pokemon/1")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, catalog.ErrFetch)
}

func TestFetchNotFoundIsFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := New(Config{Tries: 1, Timeout: 2 * time.Second}, zap.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL+"/api/v2/pokemon/9999")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrFetch)
}

func TestFetchCanceledContextIsNotRetried(t *testing.T) {
	t.Parallel()

	f := New(Config{Tries: 3}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	f.do = func(context.Context, string) ([]byte, error) {
		calls++
		cancel()
		return nil, errors.New("connection reset")
	}

	_, err := f.Fetch(ctx, "https://pokeapi.co/api/v2/pokemon/1")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, catalog.ErrFetch)
}
