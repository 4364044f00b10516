package relay

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/nickspiker/photon/relay/relayfakes"
	"github.com/nickspiker/photon/retry"
	"github.com/nickspiker/photon/transfer"
)

func TestClient_SubmitSuccess(t *testing.T) {
	t.Parallel()

	transport := &relayfakes.FakeTransport{}
	transport.SubmitReturns(nil)
	client := NewClient(transport)

	req := transfer.RelayRequest{RecipientPubKey: [32]byte{1, 2, 3}, Payload: []byte("pre-sharded payload")}
	err := client.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, transport.SubmitCallCount())

	_, pubkey, compressed := transport.SubmitArgsForCall(0)
	require.Equal(t, req.RecipientPubKey, pubkey)

	decompressed, err := decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, req.Payload, decompressed)
}

func TestClient_SubmitRetriesOnTransientFailure(t *testing.T) {
	t.Parallel()

	transport := &relayfakes.FakeTransport{}
	attempts := 0
	transport.SubmitStub = func(_ context.Context, _ [32]byte, _ []byte) error {
		attempts++
		if attempts < 3 {
			return errors.New("relay unavailable")
		}
		return nil
	}
	client := NewClient(transport)

	req := transfer.RelayRequest{RecipientPubKey: [32]byte{9}, Payload: []byte("retry me")}
	err := client.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestClient_SubmitGivesUpOnContextCancellation(t *testing.T) {
	t.Parallel()

	transport := &relayfakes.FakeTransport{}
	transport.SubmitReturns(errors.New("relay unavailable"))
	client := NewClient(transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := transfer.RelayRequest{RecipientPubKey: [32]byte{1}, Payload: []byte("x")}
	err := client.Submit(ctx, req)
	require.Error(t, err)
}

func TestClient_SubmitHonorsInjectedOuterRetrier(t *testing.T) {
	t.Parallel()

	transport := &relayfakes.FakeTransport{}
	outerAttempts := 0
	transport.SubmitStub = func(_ context.Context, _ [32]byte, _ []byte) error {
		outerAttempts++
		if outerAttempts < 2 {
			return fmt.Errorf("relay endpoint unavailable: %w", retry.ErrRetryable)
		}
		return nil
	}

	client := NewClient(transport)
	client.newBackOff = func() backoff.BackOff { return &backoff.StopBackOff{} }

	retrier := retry.NewExponentialBackoffRetrier().
		WithMaxAttempts(2).
		WithInitialDelay(time.Millisecond).
		WithoutJitter()
	ctx := retry.ToContext(context.Background(), retrier)

	req := transfer.RelayRequest{RecipientPubKey: [32]byte{7}, Payload: []byte("outer retry")}
	err := client.Submit(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 2, outerAttempts)
}

func TestCompressDecompress_RoundTrip(t *testing.T) {
	t.Parallel()

	original := []byte("the original pre-sharding payload, repeated repeated repeated")
	compressed, err := compress(original)
	require.NoError(t, err)
	require.NotEmpty(t, compressed)

	decompressed, err := decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, original, decompressed)
}
