// internal/viewer/server.go
// HTTP listener exposing:
//   - /ws      – WebSocket endpoint streaming the live Chrome-trace tail
//   - /metrics – optional Prometheus scrape endpoint over internal/selfmetrics
//
// Grounded on the teacher's gateway listener: a gorilla/websocket upgrade
// handler that subscribes to the fan-out hub and forwards chunks until the
// client disconnects.
package viewer

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xet7/tigerbeetle/internal/logging"
	"github.com/xet7/tigerbeetle/internal/selfmetrics"
	"github.com/xet7/tigerbeetle/pkg/authtoken"
)

// Config controls the HTTP listener.
type Config struct {
	Addr          string
	EnableMetrics bool
	// Verifier, if non-nil, gates /ws behind a bearer token minted by
	// authtoken.Issuer for this replica.
	Verifier *authtoken.Verifier
	Replica  uint8
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Serve starts the HTTP listener in its own goroutine and returns the
// *http.Server so the caller can shut it down.
func Serve(cfg Config, hub *Hub) *http.Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handleWebSocket(cfg, hub))
	if cfg.EnableMetrics {
		selfmetrics.Register()
		mux.Handle("/metrics", promhttp.Handler())
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger().Warn("viewer http listener error", zap.Error(err))
		}
	}()
	logging.Logger().Info("viewer listener started", zap.String("addr", cfg.Addr))
	return srv
}

// Shutdown gracefully stops srv.
func Shutdown(ctx context.Context, srv *http.Server) error {
	return srv.Shutdown(ctx)
}

func handleWebSocket(cfg Config, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Verifier != nil {
			replica, err := authenticate(cfg.Verifier, r)
			if err != nil {
				logging.Logger().Debug("viewer: rejecting ws upgrade", zap.Error(err))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if replica != cfg.Replica {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Logger().Warn("viewer: ws upgrade failed", zap.Error(err))
			return
		}

		ch, unregister := hub.Subscribe()
		defer func() {
			unregister()
			_ = conn.Close()
		}()

		for buf := range ch {
			if err := conn.WriteMessage(websocket.TextMessage, buf); err != nil {
				logging.Logger().Debug("viewer: ws write failed", zap.Error(err))
				return
			}
		}
	}
}

func authenticate(v *authtoken.Verifier, r *http.Request) (uint8, error) {
	tok := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(tok) > len(prefix) && tok[:len(prefix)] == prefix {
		tok = tok[len(prefix):]
	} else if q := r.URL.Query().Get("token"); q != "" {
		tok = q
	}
	return v.Verify(tok)
}
