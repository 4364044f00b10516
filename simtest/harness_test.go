package simtest

import (
	"context"
	"crypto/ed25519"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	. "github.com/onsi/gomega"

	"github.com/nickspiker/photon"
	"github.com/nickspiker/photon/protocol"
)

// simClock is a manually advanced clock shared by both ends of a
// simulated link, so RTT and backoff math sees consistent timestamps
// on both sides without wall-clock flakiness.
type simClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSimClock() *simClock {
	return &simClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *simClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newSigner() *photon.Ed25519Signer {
	_, priv, err := ed25519.GenerateKey(nil)
	Expect(err).NotTo(HaveOccurred())
	signer, err := photon.NewEd25519Signer(priv)
	Expect(err).NotTo(HaveOccurred())
	return signer
}

// peer is one side of a simulated link: a Manager plus the name the
// other side uses to address it.
type peer struct {
	name string
	mgr  *photon.Manager
}

// link wires two Managers together with an in-memory wire, so tests can
// exercise the full Send -> HandleSpec -> ... -> TakeInboundData path
// without a real socket.
type link struct {
	ctx   context.Context
	a, b  peer
	clock *simClock
}

func newLink(ctx context.Context, clock *simClock, nameA string, mgrA *photon.Manager, nameB string, mgrB *photon.Manager) *link {
	return &link{ctx: ctx, clock: clock, a: peer{name: nameA, mgr: mgrA}, b: peer{name: nameB, mgr: mgrB}}
}

// route decodes raw and dispatches it against dst as if it arrived from
// fromPeer, returning every reply the dispatch produced.
func route(ctx context.Context, dst *photon.Manager, fromPeer string, raw []byte) [][]byte {
	pkt, ok := protocol.Decode(raw)
	if !ok {
		return nil
	}

	switch p := pkt.(type) {
	case *protocol.SpecPacket:
		if ack := dst.HandleSpec(ctx, fromPeer, p); ack != nil {
			return [][]byte{ack}
		}
		return nil
	case *protocol.AckPacket:
		return dst.HandleAck(ctx, fromPeer, p)
	case *protocol.DataPacket:
		if ack := dst.HandleData(ctx, fromPeer, p); ack != nil {
			return [][]byte{ack}
		}
		return nil
	case *protocol.NakPacket:
		return dst.HandleNak(ctx, fromPeer, p)
	case *protocol.ControlPacket:
		dst.HandleControl(ctx, fromPeer, p)
		return nil
	case *protocol.CompletePacket:
		dst.HandleComplete(ctx, fromPeer, p)
		return nil
	default:
		return nil
	}
}

// wireMsg is one in-flight frame, tagged with which side it is bound for.
type wireMsg struct {
	toA bool
	raw []byte
}

// drain pumps messages between the two ends of l to quiescence,
// processing each round's A-bound and B-bound traffic concurrently
// under an errgroup, since the two Managers are independent and each is
// only ever touched by its own goroutine. Safe because Manager is not
// shared across the two legs: a-bound traffic only calls l.a.mgr and
// b-bound traffic only calls l.b.mgr.
func (l *link) drain(initial []wireMsg, maxRounds int) {
	queue := initial
	for round := 0; len(queue) > 0 && round < maxRounds; round++ {
		var toA, toB []wireMsg
		for _, m := range queue {
			if m.toA {
				toA = append(toA, m)
			} else {
				toB = append(toB, m)
			}
		}
		queue = nil

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(l.ctx)
		g.Go(func() error {
			for _, m := range toA {
				for _, out := range route(gctx, l.a.mgr, l.b.name, m.raw) {
					mu.Lock()
					queue = append(queue, wireMsg{toA: false, raw: out})
					mu.Unlock()
				}
			}
			for _, done := range l.a.mgr.CheckInboundComplete(gctx, l.b.name) {
				mu.Lock()
				queue = append(queue, wireMsg{toA: false, raw: done})
				mu.Unlock()
			}
			return nil
		})
		g.Go(func() error {
			for _, m := range toB {
				for _, out := range route(gctx, l.b.mgr, l.a.name, m.raw) {
					mu.Lock()
					queue = append(queue, wireMsg{toA: true, raw: out})
					mu.Unlock()
				}
			}
			for _, done := range l.b.mgr.CheckInboundComplete(gctx, l.a.name) {
				mu.Lock()
				queue = append(queue, wireMsg{toA: true, raw: done})
				mu.Unlock()
			}
			return nil
		})
		_ = g.Wait()
	}
}

// sendAtoB has A Send payload to B and drains the exchange to
// quiescence, returning the transfer id A assigned.
func (l *link) sendAtoB(payload []byte) uint64 {
	specBytes, transferID, err := l.a.mgr.Send(l.ctx, l.b.name, payload)
	Expect(err).NotTo(HaveOccurred())
	l.drain([]wireMsg{{toA: false, raw: specBytes}}, 64)
	return transferID
}
