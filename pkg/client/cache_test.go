package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

type fetchResult struct {
	types []dashboard.WidgetTypeMeta
	err   error
}

func TestSharedFetchOutlivesCancelledCaller(t *testing.T) {
	cache := NewCatalogCache(time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	fetch := func(ctx context.Context) ([]dashboard.WidgetTypeMeta, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []dashboard.WidgetTypeMeta{{TypeKey: "News"}}, nil
	}

	first, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan fetchResult, 1)
	go func() {
		types, err := cache.GetOrFetch(first, fetch)
		firstDone <- fetchResult{types, err}
	}()
	<-started

	cancelFirst()
	res := <-firstDone
	assert.True(t, errors.Is(res.err, context.Canceled))

	secondDone := make(chan fetchResult, 1)
	go func() {
		types, err := cache.GetOrFetch(context.Background(), fetch)
		secondDone <- fetchResult{types, err}
	}()
	close(release)

	res = <-secondDone
	require.NoError(t, res.err)
	require.Len(t, res.types, 1)
	assert.Equal(t, "News", res.types[0].TypeKey)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestInvalidateDuringFetchDiscardsStaleCatalog(t *testing.T) {
	cache := NewCatalogCache(time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	fetch := func(context.Context) ([]dashboard.WidgetTypeMeta, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
			return []dashboard.WidgetTypeMeta{{TypeKey: "Retired"}}, nil
		}
		return []dashboard.WidgetTypeMeta{{TypeKey: "News"}}, nil
	}

	done := make(chan fetchResult, 1)
	go func() {
		types, err := cache.GetOrFetch(context.Background(), fetch)
		done <- fetchResult{types, err}
	}()
	<-started
	cache.Invalidate()
	close(release)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "Retired", res.types[0].TypeKey)

	types, err := cache.GetOrFetch(context.Background(), fetch)
	require.NoError(t, err)
	assert.Equal(t, "News", types[0].TypeKey)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCatalogCacheFollowsClientClock(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`[{"type_key":"News","name":"News","default_width":6,"default_height":10,
			"is_removable":true,"is_resizable":true,"is_draggable":true}]`))
	}))
	t.Cleanup(server.Close)

	now := time.UnixMilli(1700000000000)
	client, err := NewHTTPClient(HTTPConfig{
		BaseURL:    server.URL,
		CatalogTTL: time.Second,
		Clock:      func() time.Time { return now },
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = client.FetchCatalog(ctx)
	require.NoError(t, err)
	_, err = client.FetchCatalog(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	now = now.Add(2 * time.Second)
	_, err = client.FetchCatalog(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}
