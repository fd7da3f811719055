package modelbind

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/felixge/httpsnoop"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	mw1 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Trace", "1")
			next.ServeHTTP(w, r)
		})
	}
	mw2 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Trace", "2")
			next.ServeHTTP(w, r)
		})
	}

	finalHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Chain(h, mw1, mw2) == mw1(mw2(h))
	chain := Chain(finalHandler, mw1, mw2)

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	chain.ServeHTTP(w, r)

	assert.Equal(t, []string{"1", "2"}, w.Header().Values("X-Trace"))
}

func TestRecovery(t *testing.T) {
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("oops")
	})

	loggerCalled := false
	logger := func(ctx context.Context, err error) {
		loggerCalled = true
		assert.Equal(t, "panic: oops", err.Error())
	}

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	h := Recovery(WithHook(logger))(panicHandler)

	assert.NotPanics(t, func() {
		h.ServeHTTP(w, r)
	})

	assert.True(t, loggerCalled)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "PANIC")
}

func TestLogger(t *testing.T) {
	var (
		gotPath    string
		gotMetrics httpsnoop.Metrics
	)
	h := Logger(func(r *http.Request, m httpsnoop.Metrics) {
		gotPath = r.URL.Path
		gotMetrics = m
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/labels/1", nil))

	assert.Equal(t, "/labels/1", gotPath)
	assert.Equal(t, http.StatusCreated, gotMetrics.Code)
	assert.Equal(t, int64(5), gotMetrics.Written)
}

func TestRequestID(t *testing.T) {
	t.Run("Generate", func(t *testing.T) {
		var seen string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		require.NotEmpty(t, seen)
		_, err := xid.FromString(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("ReuseIncoming", func(t *testing.T) {
		var seen string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		}))

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(RequestIDHeader, "upstream-id")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, "upstream-id", seen)
		assert.Equal(t, "upstream-id", w.Header().Get(RequestIDHeader))
	})

	t.Run("EmptyContext", func(t *testing.T) {
		assert.Empty(t, RequestIDFromContext(context.Background()))
	})
}
