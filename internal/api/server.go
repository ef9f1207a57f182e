// Package api exposes a running worker pool over HTTP: pool status,
// submission of synthetic jobs (rate limited per request, up to 1000 jobs
// each), Prometheus metrics and a websocket stream of job events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"

	"threadpool/internal/events"
	"threadpool/internal/logger"
	"threadpool/internal/worker"
)

const maxJobsPerRequest = 1000

// Config はAPIサーバーの設定
type Config struct {
	Addr           string
	SubmitRate     float64       // 1秒あたりの投入リクエスト上限（0で無制限）
	SubmitBurst    int           // バースト許容量
	MaxJobDuration time.Duration // 合成ジョブの最大処理時間
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		SubmitRate:     50,
		SubmitBurst:    100,
		MaxJobDuration: 10 * time.Second,
	}
}

// Server はAPIサーバー
type Server struct {
	config     Config
	dispatcher *worker.Dispatcher
	bus        *events.Bus
	gatherer   prometheus.Gatherer
	limiter    *rate.Limiter

	mu        sync.RWMutex
	wsClients map[*websocket.Conn]bool

	server *http.Server
}

// NewServer は新しいAPIサーバーを作成する
func NewServer(config Config, d *worker.Dispatcher, bus *events.Bus, gatherer prometheus.Gatherer) *Server {
	limit := rate.Inf
	if config.SubmitRate > 0 {
		limit = rate.Limit(config.SubmitRate)
	}
	burst := config.SubmitBurst
	if burst <= 0 {
		burst = 1
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		config:     config,
		dispatcher: d,
		bus:        bus,
		gatherer:   gatherer,
		limiter:    rate.NewLimiter(limit, burst),
		wsClients:  make(map[*websocket.Conn]bool),
	}
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// WebSocket
	mux.Handle("/ws", websocket.Handler(s.handleWebSocket))

	return mux
}

// Start はサーバーを開始し、ctx が終了するまでブロックする
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// バックグラウンドでイベント配信
	go s.broadcastLoop(ctx)

	logger.Info("api", "API Server starting on http://%s", s.config.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, s.dispatcher.Stats())
}

// JobRequest は合成ジョブの投入リクエスト
type JobRequest struct {
	Duration string `json:"duration,omitempty"`
	Count    int    `json:"count,omitempty"`
	Panic    bool   `json:"panic,omitempty"`
}

// JobResponse は投入結果
// 途中でプールが閉じた場合は、それまでに受理されたIDと Error を返す
type JobResponse struct {
	JobIDs []string `json:"job_ids"`
	Error  string   `json:"error,omitempty"`
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, count, err := s.buildJob(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// リクエスト単位で制限する。ジョブ数はバーストを超えうる
	if !s.limiter.Allow() {
		http.Error(w, "Submission rate exceeded", http.StatusTooManyRequests)
		return
	}

	resp := JobResponse{JobIDs: make([]string, 0, count)}
	for range count {
		h, err := s.dispatcher.Submit(job)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, worker.ErrPoolClosed) {
				status = http.StatusServiceUnavailable
			}
			resp.Error = err.Error()
			s.writeJSON(w, status, resp)
			return
		}
		resp.JobIDs = append(resp.JobIDs, h.ID())
	}

	s.writeJSON(w, http.StatusAccepted, resp)
}

// buildJob はリクエストから合成ジョブを作る
func (s *Server) buildJob(req JobRequest) (worker.Job, int, error) {
	count := req.Count
	if count == 0 {
		count = 1
	}
	if count < 0 || count > maxJobsPerRequest {
		return nil, 0, fmt.Errorf("count must be between 1 and %d", maxJobsPerRequest)
	}

	var d time.Duration
	if req.Duration != "" {
		var err error
		if d, err = time.ParseDuration(req.Duration); err != nil {
			return nil, 0, fmt.Errorf("invalid duration: %w", err)
		}
	}
	if d < 0 || (s.config.MaxJobDuration > 0 && d > s.config.MaxJobDuration) {
		return nil, 0, fmt.Errorf("duration must be between 0 and %v", s.config.MaxJobDuration)
	}

	shouldPanic := req.Panic
	return func() {
		if d > 0 {
			time.Sleep(d)
		}
		if shouldPanic {
			panic("requested panic")
		}
	}, count, nil
}

// WebSocket handling
func (s *Server) handleWebSocket(ws *websocket.Conn) {
	s.mu.Lock()
	s.wsClients[ws] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.wsClients, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	// Keep connection alive
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			break
		}
	}
}

// ClientCount は接続中のWebSocketクライアント数を返す
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wsClients)
}

func (s *Server) broadcast(data interface{}) {
	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for ws := range s.wsClients {
		clients = append(clients, ws)
	}
	s.mu.RUnlock()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	for _, ws := range clients {
		_ = websocket.Message.Send(ws, string(jsonData))
	}
}

// broadcastLoop はジョブイベントと定期的なステータスを配信する
func (s *Server) broadcastLoop(ctx context.Context) {
	var eventCh <-chan events.Event
	if s.bus != nil {
		eventCh = s.bus.Subscribe()
		defer s.bus.Unsubscribe(eventCh)
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-eventCh:
			if !ok {
				eventCh = nil
				continue
			}
			s.broadcast(map[string]interface{}{
				"type":  "event",
				"event": ev,
			})
		case <-ticker.C:
			s.broadcast(map[string]interface{}{
				"type":   "status",
				"status": s.dispatcher.Stats(),
			})
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("api", "Failed to encode JSON: %v", err)
	}
}
