// Package server implements the orchestrator: accept loop, typed
// message dispatch, periodic cleanup, and the statistics every handler
// feeds. It is the one package that knows about every other layer
// (board/rules through the protocol codec), since binding them together is
// its whole job.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/seekerror/build"
	"github.com/seekerror/chessd/pkg/chesserr"
	"github.com/seekerror/chessd/pkg/client"
	"github.com/seekerror/chessd/pkg/clientreg"
	"github.com/seekerror/chessd/pkg/config"
	"github.com/seekerror/chessd/pkg/game"
	"github.com/seekerror/chessd/pkg/idgen"
	"github.com/seekerror/chessd/pkg/player"
	"github.com/seekerror/chessd/pkg/protocol"
	"github.com/seekerror/chessd/pkg/rules"
	"github.com/seekerror/chessd/pkg/session"
	"github.com/seekerror/chessd/pkg/transport"
	"github.com/seekerror/logw"
	"go.uber.org/atomic"
)

// version is the build stamp surfaced in ConnectResponse.ServerInfo.
var version = build.NewVersion(1, 0, 0)

// cleanupInterval is how often the reaper loop expires sessions and drops
// disconnected clients.
const cleanupInterval = 300 * time.Second

// uptimeInterval is how often the uptime counter in Statistics refreshes.
const uptimeInterval = 60 * time.Second

// idleAwayThreshold transitions an Online player to Away once unseen this
// long, ahead of their session itself expiring (SPEC_FULL supplemented
// feature, grounded on original_source's get_idle_players).
const idleAwayThreshold = 120 * time.Second

// Server is the chess server orchestrator: it owns every manager in the
// system and the accept loop that feeds them. All exported methods are
// safe for concurrent use.
type Server struct {
	cfg   config.Config
	clock Clock
	ids   idgen.RandomIdSource

	engine  *rules.Engine
	games   *game.Manager
	players *player.Registry
	sessions *session.Manager
	clients *clientreg.Registry
	stats   *Statistics

	httpServer *http.Server
	isRunning  atomic.Bool
	quit       chan struct{}
	wg         sync.WaitGroup
}

// New wires up a fresh server instance from its external collaborators. No
// goroutines are started until Run.
func New(cfg config.Config, clock Clock, ids idgen.RandomIdSource) *Server {
	engine := rules.NewEngine()
	limits := session.RateLimits{
		AuthBucketCapacity:  cfg.AuthBucketCapacity,
		AuthRefillRate:      cfg.AuthRefillRate,
		GuestBucketCapacity: cfg.GuestBucketCapacity,
		GuestRefillRate:     cfg.GuestRefillRate,
	}
	return &Server{
		cfg:      cfg,
		clock:    clock,
		ids:      ids,
		engine:   engine,
		games:    game.NewManager(ids, engine),
		players:  player.NewRegistry(ids),
		sessions: session.NewManager(ids, cfg.SessionTimeout(), limits),
		clients:  clientreg.New(),
		stats:    newStatistics(clock.NowSeconds()),
		quit:     make(chan struct{}),
	}
}

// Run binds the listen address, starts the cleanup loops, and blocks
// serving HTTP/websocket connections until the context is cancelled or
// Shutdown is called. ctx cancellation is the soft-shutdown trigger the
// accept loop checks at each iteration.
func (s *Server) Run(ctx context.Context) error {
	s.isRunning.Store(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)
	s.httpServer = &http.Server{Addr: s.cfg.Addr(), Handler: mux}

	s.wg.Add(2)
	go s.cleanupLoop(ctx)
	go s.uptimeLoop(ctx)

	logw.Infof(ctx, "chessd listening on %v", s.cfg.Addr())

	errc := make(chan error, 1)
	go func() { errc <- s.httpServer.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return chesserr.New(chesserr.IOError, "listen on %v: %v", s.cfg.Addr(), err)
		}
		return nil
	}
}

// handleUpgrade accepts one HTTP connection as a websocket client, subject
// to the maxConnections cap: over the cap, the socket is closed
// immediately rather than queued.
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if !s.isRunning.Load() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	if s.clients.Count() >= s.cfg.MaxConnections {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := transport.Upgrade(w, r)
	if err != nil {
		logw.Warningf(r.Context(), "upgrade failed: %v", err)
		return
	}

	connID := s.ids.NewID()
	c := client.New(connID, conn, s.dispatch, s.onClientClosed)
	s.clients.Add(c)
	s.stats.observeConcurrentClients(s.clients.Count())

	c.Start(context.Background())
}

func (s *Server) onClientClosed(connID string) {
	if _, ok := s.clients.Remove(connID); ok {
		logw.Debugf(context.Background(), "connection %v removed", connID)
	}
}

// cleanupLoop runs the 300s reaper: drop disconnected clients, expire
// sessions, and demote idle players to Away ahead of their session expiring
// outright.
func (s *Server) cleanupLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.isRunning.Load() {
				return
			}
			s.runCleanup(ctx)
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		}
	}
}

func (s *Server) runCleanup(ctx context.Context) {
	dropped := s.clients.CleanupDisconnected()
	expired := s.sessions.CleanupExpiredSessions()
	idle := s.players.IdlePlayers(idleAwayThreshold)
	for _, p := range idle {
		if p.Status() == player.Online {
			p.SetStatus(player.Away)
		}
	}
	logw.Infof(ctx, "cleanup: dropped %v clients, expired %v sessions, %v players idled", dropped, expired, len(idle))
}

// uptimeLoop refreshes the statistics uptime counter every 60s.
func (s *Server) uptimeLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(uptimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.isRunning.Load() {
				return
			}
			s.stats.refreshUptime(s.clock.NowSeconds())
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		}
	}
}

// Shutdown stops the accept loop, broadcasts a Disconnect notification,
// drains writers briefly, and runs cleanup once more. Shutdown is soft;
// in-flight connections terminate on their own stream closure.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.isRunning.CompareAndSwap(true, false) {
		return nil // already shutting down
	}
	close(s.quit)

	env, err := protocol.Notification(protocol.Disconnect, protocol.DisconnectRequest{Reason: "server shutting down"}, NowMillis(s.clock))
	if err == nil {
		s.clients.Broadcast(env)
	}

	time.Sleep(1 * time.Second)
	s.runCleanup(ctx)

	if s.httpServer != nil {
		_ = s.httpServer.Shutdown(ctx)
	}
	s.wg.Wait()
	return nil
}

// Statistics returns a point-in-time snapshot of server-wide counters.
func (s *Server) Statistics() Snapshot { return s.stats.Snapshot() }

func (s *Server) serverInfo() protocol.ServerInfo {
	return protocol.ServerInfo{
		ServerName:     "chessd",
		Version:        fmt.Sprintf("%v", version),
		MaxPlayers:     s.cfg.MaxConnections,
		CurrentPlayers: s.clients.Count(),
		Features:       []string{"chess", "chat", "rating", "spectate"},
	}
}
