// Package relay implements the host-side convenience client for
// Photon Transport's last-resort escalation path: when both datagram
// and byte-pipe delivery of a SPEC have been exhausted, the core emits
// a relay hint (transfer.RelayRequest) carrying the original
// pre-sharding payload and the recipient's long-term public key. This
// package turns that hint into an actual submission against an
// external relay endpoint, compressing the payload and retrying
// transient failures — concerns the core itself never touches.
package relay

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"github.com/nickspiker/photon/retry"
	"github.com/nickspiker/photon/transfer"
)

// Transport submits a compressed payload to the relay's store-and-forward
// endpoint. The concrete endpoint (HTTP, gRPC, whatever) is an external
// collaborator outside this repository's scope; Transport is the seam.
//
//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -o relayfakes/transport.go . Transport
type Transport interface {
	Submit(ctx context.Context, recipientPubKey [32]byte, compressedPayload []byte) error
}

// Client wraps a Transport with zstd compression and exponential
// backoff, turning a bare transfer.RelayRequest into a best-effort
// submission.
type Client struct {
	transport  Transport
	newBackOff func() backoff.BackOff
}

// NewClient builds a relay Client around transport, using a fresh
// cenkalti/backoff exponential backoff policy per submission.
func NewClient(transport Transport) *Client {
	return &Client{
		transport: transport,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Submit compresses req.Payload with zstd and submits it to the relay
// endpoint, retrying any Transport error with exponential backoff until
// the backoff policy gives up or ctx is done.
//
// That backoff policy is fixed to the relay wire call itself. The outer
// attempt — whether to run the whole compress-then-submit sequence more
// than once, e.g. because the host wants to try a fallback relay
// endpoint on total failure — is left to whatever retry.Retrier the
// caller injects into ctx via retry.ToContext. With none injected,
// Submit behaves exactly as if there were no outer retry at all.
func (c *Client) Submit(ctx context.Context, req transfer.RelayRequest) error {
	return retry.DoVoid(ctx, func() error {
		compressed, err := compress(req.Payload)
		if err != nil {
			return fmt.Errorf("relay: compress payload: %w", err)
		}

		operation := func() error {
			return c.transport.Submit(ctx, req.RecipientPubKey, compressed)
		}

		if err := backoff.Retry(operation, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
			return fmt.Errorf("relay: submit: %w", err)
		}
		return nil
	})
}
