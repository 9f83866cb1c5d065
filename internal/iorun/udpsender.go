// internal/iorun/udpsender.go
// UDPSender is the production Sender: a pre-connected UDP socket (spec.md
// §6: "a connected datagram socket"). Go models a connected UDP endpoint as
// a *net.UDPConn obtained from net.DialUDP rather than exposing
// io_uring-style completions directly, so Send hands each datagram to a
// small bounded worker pool that performs the write and invokes the
// completion callback when it returns — approximating the spec's async
// completion model on a platform without native submission queues. The
// initial dial retries with backoff (teacher's grpc_exporter.connect
// pattern); once connected, a send error never triggers a reconnect or a
// retry, matching spec.md §7's "external failure -> increment counter, no
// retry".
package iorun

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xet7/tigerbeetle/internal/logging"
	"github.com/xet7/tigerbeetle/internal/util"
)

// UDPSender writes datagrams to a connected UDP socket using a bounded
// worker pool sized to the completion pool's capacity, since there can
// never be more in-flight sends than outstanding completions.
type UDPSender struct {
	conn    *net.UDPConn
	work    chan sendJob
	wg      sync.WaitGroup
	closing chan struct{}
}

type sendJob struct {
	datagram   []byte
	onComplete func(err error)
}

// DialUDP connects to addr (host:port), retrying with full-jitter backoff
// until ctx is cancelled. workers bounds concurrent in-flight writes; pass
// statsdline.PacketCountMax().
func DialUDP(ctx context.Context, addr string, workers int) (*UDPSender, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}

	bo := util.NewBackoff()
	var conn *net.UDPConn
	for {
		conn, err = net.DialUDP("udp", nil, raddr)
		if err == nil {
			break
		}
		logging.Logger().Warn("udp dial failed, retrying", zap.Error(err))
		select {
		case <-time.After(bo.Next()):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if workers < 1 {
		workers = 1
	}
	s := &UDPSender{
		conn:    conn,
		work:    make(chan sendJob, workers),
		closing: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s, nil
}

func (s *UDPSender) worker() {
	defer s.wg.Done()
	for {
		select {
		case job := <-s.work:
			_, err := s.conn.Write(job.datagram)
			job.onComplete(err)
		case <-s.closing:
			return
		}
	}
}

// Send implements Sender. It never blocks beyond handing the job to the
// worker channel, which is sized to the number of workers — the emitter
// never submits more in-flight sends than the completion pool allows, so
// this channel send cannot block in practice.
func (s *UDPSender) Send(datagram []byte, onComplete func(err error)) {
	cp := make([]byte, len(datagram))
	copy(cp, datagram)
	s.work <- sendJob{datagram: cp, onComplete: onComplete}
}

// Close stops accepting new work and closes the socket. The tracer closes
// its own socket on deinit per spec.md §3's ownership rule; it does not
// close a borrowed I/O layer.
func (s *UDPSender) Close() error {
	close(s.closing)
	s.wg.Wait()
	return s.conn.Close()
}
