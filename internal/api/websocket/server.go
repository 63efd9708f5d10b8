package websocket

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/fortuna/puckline/internal/pbp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is what the server pushes to clients.
type Message struct {
	Type      string      `json:"type"`
	GameID    string      `json:"game_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientMessage is what clients send. Subscribing with no game ids
// receives every game.
type ClientMessage struct {
	Type    string   `json:"type"`
	GameIDs []string `json:"game_ids,omitempty"`
}

// Server streams game record summaries to websocket clients. It is also a
// scrape sink, so every record a run delivers is broadcast.
type Server struct {
	hub    *Hub
	ctx    context.Context
	logger *log.Logger
}

// NewServer creates a websocket server. Run must be called before clients
// connect.
func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[ws] ", log.LstdFlags)
	}
	return &Server{
		hub:    NewHub(logger),
		ctx:    context.Background(),
		logger: logger,
	}
}

// Run drives the hub until ctx is done.
func (s *Server) Run(ctx context.Context) {
	s.ctx = ctx
	s.hub.Run(ctx)
}

// Register mounts the websocket routes.
func (s *Server) Register(r *mux.Router) {
	r.HandleFunc("/ws", s.handleConnect)
	r.HandleFunc("/ws/health", s.handleHealth).Methods(http.MethodGet)
}

// Handler returns a router serving only the websocket routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.Register(r)
	return r
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("failed to upgrade connection: %v", err)
		return
	}

	client := NewClient(s.hub, conn)
	if games := r.URL.Query()["game_id"]; len(games) > 0 {
		client.SetGames(games)
	}
	s.hub.register <- client

	go client.WritePump(s.ctx)
	go client.ReadPump(s.ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"clients": s.hub.ClientCount(),
		"dropped": s.hub.Dropped(),
	})
}

// Hub exposes the underlying hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Name identifies the server as a sink.
func (s *Server) Name() string {
	return "websocket"
}

// Write broadcasts a summary of the record.
func (s *Server) Write(_ context.Context, rec *pbp.GameRecord) error {
	s.BroadcastRecord(rec)
	return nil
}

// BroadcastRecord sends a game_record message to subscribed clients.
func (s *Server) BroadcastRecord(rec *pbp.GameRecord) bool {
	return s.hub.Broadcast(Message{
		Type:      "game_record",
		GameID:    rec.GameID,
		Payload:   pbp.Summarize(rec),
		Timestamp: time.Now().UTC(),
	})
}
