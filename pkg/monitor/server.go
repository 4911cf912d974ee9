// Package monitor exposes the watch daemon's status over HTTP and
// websocket. Clients query server and job information through JSON-RPC
// methods and may subscribe to a push feed of job-completion events.
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fgf-postproc/pkg/watcher"
)

// Version is reported by server.info.
const Version = "1.0.0"

// Source supplies the daemon state the server reports.
type Source interface {
	Jobs() []watcher.Job
	Status() watcher.Status
}

// Server is the status server.
type Server struct {
	source Source
	logger *zap.Logger

	httpServer *http.Server
	listener   net.Listener

	wsUpgrader websocket.Upgrader
	wsClients  map[int64]*wsClient
	subscribed map[int64]bool
	wsMu       sync.RWMutex
	nextWSID   int64

	startTime time.Time
}

// New builds a status server bound to addr.
func New(addr string, source Source, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		source:     source,
		logger:     logger.Named("monitor"),
		wsClients:  make(map[int64]*wsClient),
		subscribed: make(map[int64]bool),
		startTime:  time.Now(),
	}
	s.wsUpgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/websocket", s.handleWebSocket)
	mux.HandleFunc("/server/info", s.handleServerInfo)
	mux.HandleFunc("/watcher/status", s.handleWatcherStatus)
	mux.HandleFunc("/watcher/jobs", s.handleWatcherJobs)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start binds the listener and serves in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("binding status listener on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	s.logger.Info("status server listening", zap.String("addr", ln.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server failed", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Stop closes all clients and shuts the server down.
func (s *Server) Stop() error {
	s.wsMu.Lock()
	for _, client := range s.wsClients {
		client.close()
	}
	s.wsClients = make(map[int64]*wsClient)
	s.subscribed = make(map[int64]bool)
	s.wsMu.Unlock()

	return s.httpServer.Close()
}

// NotifyJobDone pushes a job-completion event to subscribed clients. Wire
// it to the watcher's completion callback.
func (s *Server) NotifyJobDone(job watcher.Job) {
	notification := rpcResponse{
		JSONRPC: "2.0",
		Method:  "notify_job_done",
		Params:  jobView(job),
	}

	s.wsMu.RLock()
	defer s.wsMu.RUnlock()
	for id, client := range s.wsClients {
		if s.subscribed[id] {
			client.send(notification)
		}
	}
}

// JSON-RPC structures

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params,omitempty"`
	ID      any            `json:"id,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method,omitempty"`
	Result  any       `json:"result,omitempty"`
	Params  any       `json:"params,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// dispatch routes one method call.
func (s *Server) dispatch(method string, client *wsClient) (any, error) {
	switch method {
	case "server.info":
		return s.serverInfo(), nil
	case "watcher.status":
		return s.watcherStatus(), nil
	case "watcher.jobs":
		return s.watcherJobs(), nil
	case "watcher.subscribe":
		if client == nil {
			return nil, fmt.Errorf("subscription requires a websocket connection")
		}
		s.wsMu.Lock()
		s.subscribed[client.id] = true
		s.wsMu.Unlock()
		return map[string]any{"subscribed": true}, nil
	default:
		return nil, fmt.Errorf("method not found: %s", method)
	}
}

func (s *Server) serverInfo() map[string]any {
	s.wsMu.RLock()
	clients := len(s.wsClients)
	s.wsMu.RUnlock()

	return map[string]any{
		"version":         Version,
		"uptime_seconds":  time.Since(s.startTime).Seconds(),
		"websocket_count": clients,
	}
}

func (s *Server) watcherStatus() map[string]any {
	if s.source == nil {
		return map[string]any{}
	}
	status := s.source.Status()
	return map[string]any{
		"dir":          status.Dir,
		"out_dir":      status.OutDir,
		"jobs_total":   status.JobsTotal,
		"jobs_running": status.JobsRunning,
		"jobs_done":    status.JobsDone,
		"jobs_failed":  status.JobsFailed,
	}
}

func (s *Server) watcherJobs() map[string]any {
	var views []map[string]any
	if s.source != nil {
		jobs := s.source.Jobs()
		views = make([]map[string]any, 0, len(jobs))
		for _, job := range jobs {
			views = append(views, jobView(job))
		}
	}
	return map[string]any{"jobs": views}
}

// jobView renders one job record for the wire.
func jobView(job watcher.Job) map[string]any {
	view := map[string]any{
		"id":     job.ID,
		"input":  job.Input,
		"output": job.Output,
		"state":  string(job.State),
	}
	if job.Error != "" {
		view["error"] = job.Error
	}
	if job.State == watcher.JobDone {
		view["paths_found"] = job.Stats.PathsFound
		view["paths_processed"] = job.Stats.PathsProcessed
		view["paths_skipped"] = job.Stats.PathsSkipped
		view["duration_seconds"] = job.Finished.Sub(job.Started).Seconds()
	}
	return view
}

// HTTP handlers

func (s *Server) handleServerInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{"result": s.serverInfo()})
}

func (s *Server) handleWatcherStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{"result": s.watcherStatus()})
}

func (s *Server) handleWatcherJobs(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{"result": s.watcherJobs()})
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// handleWebSocket upgrades the connection and runs the client pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		id:     atomic.AddInt64(&s.nextWSID, 1),
		conn:   conn,
		server: s,
		sendCh: make(chan any, 64),
		done:   make(chan struct{}),
	}

	s.wsMu.Lock()
	s.wsClients[client.id] = client
	s.wsMu.Unlock()
	s.logger.Debug("websocket client connected", zap.Int64("client_id", client.id))

	go client.writePump()
	client.readPump()
}

// removeClient drops a disconnected client and its subscription.
func (s *Server) removeClient(client *wsClient) {
	s.wsMu.Lock()
	delete(s.wsClients, client.id)
	delete(s.subscribed, client.id)
	s.wsMu.Unlock()
	s.logger.Debug("websocket client disconnected", zap.Int64("client_id", client.id))
}

// wsClient is one websocket connection.
type wsClient struct {
	id     int64
	conn   *websocket.Conn
	server *Server
	sendCh chan any
	done   chan struct{}
	once   sync.Once
}

func (c *wsClient) send(msg any) {
	select {
	case c.sendCh <- msg:
	case <-c.done:
	default:
		// Channel full; a slow client loses events rather than
		// blocking the notifier.
	}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *wsClient) readPump() {
	defer func() {
		c.server.removeClient(c)
		c.close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req rpcRequest
		if err := json.Unmarshal(message, &req); err != nil {
			c.send(rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "parse error"}})
			continue
		}

		result, err := c.server.dispatch(req.Method, c)
		if err != nil {
			c.send(rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: -32000, Message: err.Error()}, ID: req.ID})
			continue
		}
		c.send(rpcResponse{JSONRPC: "2.0", Result: result, ID: req.ID})
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
