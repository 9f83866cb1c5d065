// Package remotecollector streams the tracer's Chrome-trace chunks to a
// central fleet-wide collector over gRPC, following the teacher's
// grpc_exporter: a persistent client stream with jittered exponential
// backoff reconnect. Unlike the teacher, this package never hand-authors
// protoc-generated message types — it builds the stream descriptor by hand
// and carries each chunk as a well-known google.protobuf.BytesValue, which
// keeps the wire contract to real, already-compiled protobuf types instead
// of freehand-generated .pb.go code (see DESIGN.md).
package remotecollector

import (
	"context"
	"io"
	"sync"
	"time"

	"crypto/tls"

	"github.com/cenkalti/backoff/v4"
	otelapi "go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/xet7/tigerbeetle/internal/logging"
	"github.com/xet7/tigerbeetle/pkg/otel"
)

const serviceStreamMethod = "/replicatracer.RemoteCollector/StreamSpans"

var streamDesc = grpc.StreamDesc{
	StreamName:    "StreamSpans",
	ClientStreams: true,
	ServerStreams: false,
}

// spanStream is the typed client-streaming handle this package builds by
// hand, equivalent to what protoc-gen-go-grpc would generate for a
// `rpc StreamSpans(stream google.protobuf.BytesValue) returns (google.protobuf.Empty)`
// method.
type spanStream = grpc.GenericClientStream[wrapperspb.BytesValue, emptypb.Empty]

// Config parameterises the remote-collector client.
type Config struct {
	Addr      string
	AuthToken string // sent as gRPC metadata "authorization: Bearer <token>"
	Retry     backoff.BackOff
}

// Client maintains one reconnecting client-streaming RPC, forwarding every
// Write call as a BytesValue chunk. It implements viewer.Hub's tracer.Writer
// shape (Write), so it can be attached alongside or instead of the local
// viewer hub.
//
// Write runs on the tracer's single logical thread (SPEC_FULL.md §5), while
// reconnect runs on its own goroutine after a failed send — mu guards conn
// and stream so neither goroutine observes a half-swapped connection.
type Client struct {
	cfg     Config
	closing chan struct{}

	mu     sync.Mutex
	conn   *grpc.ClientConn
	stream *spanStream
}

// Dial connects to the collector and opens the first stream. It makes one
// attempt and returns its error; it does not retry.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Retry == nil {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 500 * time.Millisecond
		bo.MaxInterval = 15 * time.Second
		bo.MaxElapsedTime = 0 // retry indefinitely; the tracer owns the lifetime
		cfg.Retry = bo
	}
	c := &Client{cfg: cfg, closing: make(chan struct{})}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Write implements tracer.Writer: each call forwards p as one BytesValue
// chunk. If no stream is connected, Write first connects synchronously. A
// send that fails with codes.Unavailable starts a background reconnect,
// which retries with cfg.Retry until it connects or the client is closed;
// the caller (internal/tracer) does not wait for it. Other send errors are
// returned without reconnecting.
func (c *Client) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)

	stream := c.currentStream()
	if stream == nil {
		if err := c.connect(context.Background()); err != nil {
			return 0, err
		}
		stream = c.currentStream()
	}
	if err := stream.SendMsg(&wrapperspb.BytesValue{Value: cp}); err != nil {
		if isUnavailable(err) {
			logging.Logger().Warn("remotecollector: send failed, reconnecting", zap.Error(err))
			go c.reconnect(context.Background())
		} else {
			logging.Logger().Warn("remotecollector: send failed", zap.Error(err))
		}
		return 0, err
	}
	return len(p), nil
}

// currentStream returns the live stream handle, or nil if none is connected.
func (c *Client) currentStream() *spanStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}

// Close ends the stream and the underlying connection.
func (c *Client) Close() error {
	close(c.closing)
	c.mu.Lock()
	stream, conn := c.stream, c.conn
	c.mu.Unlock()
	if stream != nil {
		_ = stream.CloseSend()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) connect(ctx context.Context) error {
	creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	conn, err := grpc.NewClient(c.cfg.Addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return err
	}

	md := metadata.New(nil)
	if c.cfg.AuthToken != "" {
		md.Set("authorization", "Bearer "+c.cfg.AuthToken)
	}
	streamCtx := metadata.NewOutgoingContext(ctx, md)

	stream, err := grpc.NewClientStream(streamCtx, &streamDesc, conn, serviceStreamMethod)
	if err != nil {
		_ = conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.stream = &spanStream{ClientStream: stream}
	c.mu.Unlock()
	return nil
}

func (c *Client) reconnect(ctx context.Context) {
	ctx, span := otel.StartLinkedSpan(ctx, otelapi.Tracer("remotecollector"), "reconnect")
	defer span.End()

	c.mu.Lock()
	oldStream, oldConn := c.stream, c.conn
	c.stream, c.conn = nil, nil
	c.mu.Unlock()
	if oldStream != nil {
		_ = oldStream.CloseSend()
	}
	if oldConn != nil {
		_ = oldConn.Close()
	}

	bo := c.cfg.Retry
	bo.Reset()
	for {
		next := bo.NextBackOff()
		if next == backoff.Stop {
			return
		}
		select {
		case <-time.After(next):
		case <-c.closing:
			return
		case <-ctx.Done():
			return
		}
		if err := c.connect(ctx); err == nil {
			return
		}
	}
}

// isUnavailable reports whether err is a transient gRPC transport error
// worth retrying rather than surfacing to the caller.
func isUnavailable(err error) bool {
	if err == nil || err == io.EOF {
		return false
	}
	return status.Code(err) == codes.Unavailable
}
