package firebase

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/switzea/portal/internal/config"
)

func TestClientOptions(t *testing.T) {
	opts, source, err := clientOptions(&config.Config{GoogleApplicationCredentials: "/etc/sa.json", FirebaseServiceAccountJSONBase64: "ignored"})
	require.NoError(t, err)
	require.Equal(t, "file", source)
	require.Len(t, opts, 1)

	encoded := base64.StdEncoding.EncodeToString([]byte(`{"type":"service_account"}`))
	opts, source, err = clientOptions(&config.Config{FirebaseServiceAccountJSONBase64: encoded})
	require.NoError(t, err)
	require.Equal(t, "inline", source)
	require.Len(t, opts, 1)

	opts, source, err = clientOptions(&config.Config{})
	require.NoError(t, err)
	require.Equal(t, "adc", source)
	require.Empty(t, opts)

	_, _, err = clientOptions(&config.Config{FirebaseServiceAccountJSONBase64: "%%%"})
	require.ErrorIs(t, err, ErrInvalidServiceAccount)
}

func TestBackend_InitializesOnce(t *testing.T) {
	b := New(&config.Config{}, nil)
	var calls atomic.Int32
	want := &Backend{}
	b.init = func(context.Context) (*Backend, error) {
		calls.Add(1)
		return want, nil
	}

	got := make([]*Backend, 8)
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], _ = b.Backend(context.Background())
		}()
	}
	wg.Wait()
	for _, g := range got {
		require.Same(t, want, g)
	}
	require.Equal(t, int32(1), calls.Load())
	require.NoError(t, b.Close())
}

func TestBackend_FailureIsSticky(t *testing.T) {
	b := New(&config.Config{}, nil)
	boom := errors.New("no credentials")
	calls := 0
	b.init = func(context.Context) (*Backend, error) {
		calls++
		return nil, boom
	}

	for i := 0; i < 3; i++ {
		got, err := b.Backend(context.Background())
		require.ErrorIs(t, err, boom)
		require.Nil(t, got)
	}
	require.Equal(t, 1, calls)
}

func TestBackend_InvalidInlineCredentials(t *testing.T) {
	b := New(&config.Config{FirebaseProjectID: "switzea", FirebaseServiceAccountJSONBase64: "not base64!"}, nil)
	_, err := b.Backend(context.Background())
	require.ErrorIs(t, err, ErrInvalidServiceAccount)
}

func TestClose_BeforeUse(t *testing.T) {
	b := New(&config.Config{}, nil)
	require.NoError(t, b.Close())
	_, err := b.Backend(context.Background())
	require.Error(t, err)
}
