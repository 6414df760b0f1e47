package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 2*time.Second)
}

func TestLoadAll(t *testing.T) {
	var gotPath string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"Country":"A","Code":"AAA","Year":70,"Underfive_mortality_rate":80}]`))
	})

	records, err := c.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/get_data/all", gotPath)
	require.Len(t, records, 1)
	assert.Equal(t, "AAA", records[0].Code)
	assert.Equal(t, 80.0, records[0].Value("Underfive_mortality_rate"))
}

func TestLoadFilteredNormalizesTerm(t *testing.T) {
	var gotPath string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[]`))
	})

	records, err := c.LoadFiltered(context.Background(), "  United States ")
	require.NoError(t, err)
	assert.Equal(t, "/get_data/united states", gotPath)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	_, err = c.LoadFiltered(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "/get_data/all", gotPath)
}

func TestLoadFilteredErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"status", http.StatusInternalServerError, `oops`, func(t *testing.T, err error) {
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, http.StatusInternalServerError, se.Code)
		}},
		{"malformed", http.StatusOK, `[{"Country":`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrDecode)
		}},
		{"object", http.StatusOK, `{"Country":"A"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrDecode)
		}},
		{"null", http.StatusOK, `null`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrDecode)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			records, err := c.LoadFiltered(context.Background(), "a")
			require.Error(t, err)
			assert.Nil(t, records)
			tt.check(t, err)
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).LoadAll(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestTimeout(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	})
	c.http.Timeout = 50 * time.Millisecond

	_, err := c.LoadAll(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}
