package jumpit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-jobscout-crawler/internal/source"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "테스트", map[string]string{"jobCategory": "서버/백엔드 개발자"}, 20, zap.NewNop().Sugar())
}

func TestFetchPage_ResultEnvelope(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "서버/백엔드 개발자", r.URL.Query().Get("jobCategory"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "false", r.URL.Query().Get("highlight"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{"totalCount":45,"page":2,"positions":[{"id":1,"title":"a"},{"id":2,"title":"b"}]}}`))
	})

	res, err := a.FetchPage(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 45, res.TotalCount)
	require.Len(t, res.Raw, 2)
	assert.Equal(t, "a", res.Raw[0]["title"])
}

func TestFetchPage_EnvelopeProbingOrder(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLen   int
		wantTotal int
	}{
		{
			name:      "top-level positions fallback",
			body:      `{"positions":[{"id":1}],"totalCount":1}`,
			wantLen:   1,
			wantTotal: 1,
		},
		{
			name:    "data as list",
			body:    `{"data":[{"id":1},{"id":2},{"id":3}]}`,
			wantLen: 3,
		},
		{
			name:      "data.positions nested",
			body:      `{"data":{"totalCount":9,"positions":[{"id":1}]}}`,
			wantLen:   1,
			wantTotal: 9,
		},
		{
			name:      "result wins over top-level when non-empty",
			body:      `{"result":{"totalCount":5,"positions":[{"id":10}]},"positions":[{"id":99}]}`,
			wantLen:   1,
			wantTotal: 5,
		},
		{
			name:    "no known payload path",
			body:    `{"message":"ok"}`,
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			res, err := a.FetchPage(context.Background(), 1)
			require.NoError(t, err)
			assert.Len(t, res.Raw, tt.wantLen)
			assert.Equal(t, tt.wantTotal, res.TotalCount)
		})
	}
}

func TestFetchPage_RateLimited(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := a.FetchPage(context.Background(), 1)
	assert.ErrorIs(t, err, source.ErrRateLimited)
}

func TestFetchPage_ServerErrorIsTransient(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := a.FetchPage(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, source.ErrRateLimited)
}

func TestFetchPage_MalformedBody(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": [broken`))
	})

	_, err := a.FetchPage(context.Background(), 1)
	assert.Error(t, err)
}

func TestFetchPage_SkipsNonObjectItems(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"positions":[{"id":1},"garbage",42]}`))
	})

	res, err := a.FetchPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, res.Raw, 1)
}
