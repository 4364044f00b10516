package simtest

import (
	"bytes"
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nickspiker/photon"
	"github.com/nickspiker/photon/protocol"
)

func repeatingPayload(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i % 251)
	}
	return out
}

func newManagers(clock *simClock) (alice, bob *photon.Manager) {
	alice = photon.NewManager(clock, newSigner(), photon.DefaultConfig())
	bob = photon.NewManager(clock, newSigner(), photon.DefaultConfig())
	return alice, bob
}

var _ = Describe("end-to-end transfer", func() {
	var (
		ctx   context.Context
		clock *simClock
		l     *link
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = newSimClock()
		alice, bob := newManagers(clock)
		l = newLink(ctx, clock, "alice", alice, "bob", bob)
	})

	It("delivers a 3 packet payload with no loss", func() {
		payload := repeatingPayload(3 * 1024)
		l.sendAtoB(payload)

		got, ok := l.b.mgr.TakeInboundData(l.a.name, 'a')
		Expect(ok).To(BeTrue())
		Expect(bytes.Equal(got, payload)).To(BeTrue())
	})

	It("reassembles out-of-order DATA delivery", func() {
		payload := repeatingPayload(5 * 1024)

		specBytes, _, err := l.a.mgr.Send(ctx, l.b.name, payload)
		Expect(err).NotTo(HaveOccurred())

		ackBytes := route(ctx, l.b.mgr, l.a.name, specBytes)
		Expect(ackBytes).To(HaveLen(1))

		dataBytesList := route(ctx, l.a.mgr, l.b.name, ackBytes[0])
		Expect(dataBytesList).To(HaveLen(5))

		// Deliver to bob in arrival order 4, 0, 2, 1, 3 instead of 0..4.
		arrivalOrder := []int{4, 0, 2, 1, 3}
		var dataAcks [][]byte
		for i, seqIndex := range arrivalOrder {
			acks := route(ctx, l.b.mgr, l.a.name, dataBytesList[seqIndex])
			dataAcks = append(dataAcks, acks...)

			if i == 2 {
				missing, ok := l.b.mgr.InboundMissingSequences(l.a.name, 'a')
				Expect(ok).To(BeTrue())
				Expect(missing).To(ConsistOf(uint32(1), uint32(3)))
			}
		}

		var queue []wireMsg
		for _, ack := range dataAcks {
			queue = append(queue, wireMsg{toA: true, raw: ack})
		}
		l.drain(queue, 64)

		got, ok := l.b.mgr.TakeInboundData(l.a.name, 'a')
		Expect(ok).To(BeTrue())
		Expect(bytes.Equal(got, payload)).To(BeTrue())
	})

	It("delivers a short final packet", func() {
		payload := repeatingPayload(2*1024 + 512)
		l.sendAtoB(payload)

		got, ok := l.b.mgr.TakeInboundData(l.a.name, 'a')
		Expect(ok).To(BeTrue())
		Expect(got).To(HaveLen(len(payload)))
		Expect(bytes.Equal(got, payload)).To(BeTrue())
	})

	It("re-acknowledges a duplicate DATA packet with the same chunk hash and counts it once", func() {
		payload := []byte("abcd")

		specBytes, _, err := l.a.mgr.Send(ctx, l.b.name, payload)
		Expect(err).NotTo(HaveOccurred())

		ackBytes := route(ctx, l.b.mgr, l.a.name, specBytes)
		dataBytesList := route(ctx, l.a.mgr, l.b.name, ackBytes[0])
		Expect(dataBytesList).To(HaveLen(1))

		firstAcks := route(ctx, l.b.mgr, l.a.name, dataBytesList[0])
		secondAcks := route(ctx, l.b.mgr, l.a.name, dataBytesList[0])
		Expect(firstAcks).To(HaveLen(1))
		Expect(secondAcks).To(HaveLen(1))

		firstAck := firstAcks[0]
		secondAck := secondAcks[0]
		Expect(bytes.Equal(firstAck, secondAck)).To(BeTrue())

		dup, ok := l.b.mgr.InboundDuplicates(l.a.name, 'a')
		Expect(ok).To(BeTrue())
		Expect(dup).To(Equal(1))
	})

	It("runs two simultaneous transfers to one peer on separate stream ids", func() {
		first := repeatingPayload(1024)
		second := repeatingPayload(2048)

		specA, _, err := l.a.mgr.Send(ctx, l.b.name, first)
		Expect(err).NotTo(HaveOccurred())
		specB, _, err := l.a.mgr.Send(ctx, l.b.name, second)
		Expect(err).NotTo(HaveOccurred())

		firstSpec, ok := protocol.Decode(specA)
		Expect(ok).To(BeTrue())
		Expect(firstSpec.(*protocol.SpecPacket).StreamID).To(Equal(byte('a')))

		secondSpec, ok := protocol.Decode(specB)
		Expect(ok).To(BeTrue())
		Expect(secondSpec.(*protocol.SpecPacket).StreamID).To(Equal(byte('b')))

		l.drain([]wireMsg{{toA: false, raw: specA}, {toA: false, raw: specB}}, 64)

		gotFirst, ok := l.b.mgr.TakeInboundData(l.a.name, 'a')
		Expect(ok).To(BeTrue())
		Expect(bytes.Equal(gotFirst, first)).To(BeTrue())

		gotSecond, ok := l.b.mgr.TakeInboundData(l.a.name, 'b')
		Expect(ok).To(BeTrue())
		Expect(bytes.Equal(gotSecond, second)).To(BeTrue())
	})
})

var _ = Describe("SPEC retry under total loss", func() {
	It("backs off, falls back to the byte-pipe, and escalates to relay", func() {
		ctx := context.Background()
		clock := newSimClock()
		alice := photon.NewManager(clock, newSigner(), photon.DefaultConfig())

		var recipientPubKey [32]byte
		copy(recipientPubKey[:], []byte("bobs-long-term-public-key-bytes"))

		// SPEC is dropped on the wire every time: bob never sees it.
		_, _, err := alice.SendWithPubKey(ctx, "bob", []byte("payload"), &recipientPubKey)
		Expect(err).NotTo(HaveOccurred())

		var sawBytePipeFallback bool
		var relay *photon.TickAction
		for i := 0; i < 12; i++ {
			clock.Advance(33 * time.Second)
			actions := alice.Tick(ctx)
			for idx := range actions {
				a := actions[idx]
				Expect(a.WireBytes).NotTo(BeEmpty())
				if a.AlsoBytePipe {
					sawBytePipeFallback = true
				}
				if a.Relay != nil {
					relay = &a
				}
			}
		}

		Expect(sawBytePipeFallback).To(BeTrue())
		Expect(relay).NotTo(BeNil())
		Expect(relay.Relay.RecipientPubKey).To(Equal(recipientPubKey))
		Expect(relay.Relay.Payload).To(Equal([]byte("payload")))
	})
})
