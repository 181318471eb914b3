// SPDX-License-Identifier: GPL-2.0-only
// Source: other_examples alxayo-rtmp-go internal/rtmp/server/registry.go
// (mutex-guarded map keyed by a small id, entries removed on teardown)
// adapted from a stream registry to spec.md §9's connection arena: "use an
// arena keyed by a small integer connection id... 'delete self' becomes
// 'mark dead and drop from arena after the callback returns'." Accept-loop
// shape follows spec.md §4.8's SimpleServer<L> description directly.

package connector

import (
	"context"
	"net"
	"sync"

	"go.uber.org/zap"
)

type liveConn struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Server runs the accept loop spec.md §4.8 calls SimpleServer<L>: accept,
// dispatch, re-arm, until Serve's context is cancelled.
type Server struct {
	ln   net.Listener
	opts Options

	mu     sync.Mutex
	conns  map[uint64]liveConn
	nextID uint64
}

// NewServer wraps ln; accepted connections are handled per opts.
func NewServer(ln net.Listener, opts Options) *Server {
	return &Server{
		ln:    ln,
		opts:  opts,
		conns: make(map[uint64]liveConn),
	}
}

// Serve accepts connections until ctx is cancelled or Accept fails for a
// reason other than the listener having been closed by that cancellation.
// Each connection runs in its own goroutine under a child context so a
// Serve-wide stop cancels every in-flight connection; a single connection's
// error never stops the loop (spec.md §7 "resilient to per-connection
// errors").
func (s *Server) Serve(ctx context.Context) error {
	logger := s.opts.logger()

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.ln.Close()
		case <-stopWatch:
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		id := s.register(ctx)
		wg.Add(1)
		go func(id uint64, conn net.Conn) {
			defer wg.Done()
			connCtx, _ := s.get(id)
			defer s.unregister(id)
			defer conn.Close()

			if err := handleConn(connCtx, conn, s.opts); err != nil {
				logger.Error("connection failed", zap.Error(err), zap.Uint64("conn_id", id))
			}
		}(id, conn)
	}
}

// register allocates a connection id and a context cancelled either by Stop
// or by Serve's own context ending.
func (s *Server) register(parent context.Context) uint64 {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.conns[id] = liveConn{ctx: ctx, cancel: cancel}
	return id
}

func (s *Server) get(id uint64) (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lc, ok := s.conns[id]
	if !ok {
		return context.Background(), false
	}
	return lc.ctx, true
}

// unregister marks the connection dead and drops it from the arena; the
// callback that owned it has already returned by the time this runs.
func (s *Server) unregister(id uint64) {
	s.mu.Lock()
	lc, ok := s.conns[id]
	delete(s.conns, id)
	s.mu.Unlock()
	if ok {
		lc.cancel()
	}
}

// Stop cancels a single in-flight connection by id, if still present. Not
// required for a clean server-wide shutdown (cancelling Serve's ctx already
// does that); exposed for administrative per-connection control.
func (s *Server) Stop(id uint64) {
	s.mu.Lock()
	lc, ok := s.conns[id]
	s.mu.Unlock()
	if ok {
		lc.cancel()
	}
}

// Count reports how many connections are currently registered.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
