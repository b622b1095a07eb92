package location

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"travelbot/internal/chat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

type countingLocator struct {
	calls atomic.Int32
	loc   chat.Location
	err   error
}

func (c *countingLocator) Locate(context.Context) (chat.Location, error) {
	c.calls.Add(1)
	return c.loc, c.err
}

func TestAcquireSuccess(t *testing.T) {
	session := chat.NewSession()
	locator := &countingLocator{loc: chat.Location{Latitude: 10, Longitude: 20}}

	NewAcquirer(locator, session, nil).Acquire(context.Background())

	state := session.Snapshot()
	assert.True(t, state.LocationResolved)
	assert.Equal(t, &chat.Location{Latitude: 10, Longitude: 20}, state.Location)
}

func TestAcquireFailureStoresNil(t *testing.T) {
	session := chat.NewSession()
	locator := &countingLocator{err: errors.New("permission denied")}

	NewAcquirer(locator, session, nil).Acquire(context.Background())

	state := session.Snapshot()
	assert.True(t, state.LocationResolved)
	assert.Nil(t, state.Location)
}

func TestAcquireRunsOnce(t *testing.T) {
	session := chat.NewSession()
	locator := &countingLocator{err: ErrUnavailable}
	acquirer := NewAcquirer(locator, session, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acquirer.Acquire(context.Background())
		}()
	}
	wg.Wait()
	acquirer.Acquire(context.Background())

	assert.Equal(t, int32(1), locator.calls.Load())
}

func TestStaticAndDisabled(t *testing.T) {
	loc, err := Static{Latitude: 1.5, Longitude: -2.5}.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, chat.Location{Latitude: 1.5, Longitude: -2.5}, loc)

	_, err = Disabled{}.Locate(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestIPLocator(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    chat.Location
		wantErr bool
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"status":"success","lat":48.8566,"lon":2.3522,"city":"Paris"}`,
			want:   chat.Location{Latitude: 48.8566, Longitude: 2.3522},
		},
		{
			name:    "lookup failed",
			status:  http.StatusOK,
			body:    `{"status":"fail","message":"private range"}`,
			wantErr: true,
		},
		{
			name:    "missing coordinates",
			status:  http.StatusOK,
			body:    `{"status":"success"}`,
			wantErr: true,
		},
		{
			name:    "server error",
			status:  http.StatusServiceUnavailable,
			body:    `busy`,
			wantErr: true,
		},
		{
			name:    "garbage",
			status:  http.StatusOK,
			body:    `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewIPLocator(srv.URL, time.Second).Locate(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIPLocatorFailureFeedsAcquirer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	session := chat.NewSession()
	NewAcquirer(NewIPLocator(srv.URL, time.Second), session, nil).Acquire(context.Background())

	state := session.Snapshot()
	assert.True(t, state.LocationResolved)
	assert.Nil(t, state.Location)
}
