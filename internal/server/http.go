// Package server exposes the HTTP API and the websocket game transport.
package server

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gridspell/gridspell-server/internal/auth"
	"github.com/gridspell/gridspell-server/internal/game"
	"github.com/gridspell/gridspell-server/internal/repository"
	"github.com/gridspell/gridspell-server/internal/room"
	"github.com/gridspell/gridspell-server/internal/user"
)

// Server wires the REST endpoints and the per-room websocket hubs.
type Server struct {
	logger *zap.Logger
	tokens *auth.TokenService
	users  *user.Manager
	decks  *repository.DeckRepository
	rooms  *room.Manager

	engine   *gin.Engine
	upgrader websocket.Upgrader

	mu   sync.Mutex
	hubs map[string]*Hub
}

// New builds the router. allowedOrigins configures CORS and the websocket
// origin check; an empty list allows everything (development mode).
func New(tokens *auth.TokenService, users *user.Manager, decks *repository.DeckRepository, rooms *room.Manager, allowedOrigins []string, logger *zap.Logger) *Server {
	s := &Server{
		logger: logger,
		tokens: tokens,
		users:  users,
		decks:  decks,
		rooms:  rooms,
		hubs:   make(map[string]*Hub),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	engine.Use(cors.New(corsCfg))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)

	authed := api.Group("", tokens.Middleware())
	authed.GET("/decks", s.handleListDecks)
	authed.POST("/decks", s.handleSaveDeck)
	authed.GET("/rooms", s.handleListRooms)
	authed.POST("/rooms", s.handleCreateRoom)
	authed.POST("/rooms/:id/join", s.handleJoinRoom)

	engine.GET("/ws/rooms/:id", tokens.Middleware(), s.handleWS)

	s.engine = engine
	return s
}

// Handler returns the root http handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

type credentialsRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and password required"})
		return
	}
	id, err := s.users.Register(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrNameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "name taken"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := s.tokens.Issue(id, req.Name)
	if err != nil {
		s.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "name": req.Name, "token": token})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and password required"})
		return
	}
	u, err := s.users.Login(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad credentials"})
		return
	}
	token, err := s.tokens.Issue(u.ID, u.Name)
	if err != nil {
		s.logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": u.ID, "name": u.Name, "token": token})
}

func (s *Server) handleListDecks(c *gin.Context) {
	claims, _ := auth.UserFrom(c)
	decks, err := s.decks.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		s.logger.Error("deck list failed", zap.String("user_id", claims.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, decks)
}

type saveDeckRequest struct {
	ID   string        `json:"id"`
	Name string        `json:"name" binding:"required"`
	List game.DeckList `json:"list" binding:"required"`
}

func (s *Server) handleSaveDeck(c *gin.Context) {
	claims, _ := auth.UserFrom(c)
	var req saveDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and list required"})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	d := repository.Deck{ID: req.ID, UserID: claims.UserID, Name: req.Name, List: req.List}
	if err := s.decks.Save(c.Request.Context(), d); err != nil {
		s.logger.Error("deck save failed", zap.String("user_id", claims.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": req.ID})
}

func (s *Server) handleListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, s.rooms.List(c.Request.Context()))
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		req.Name = "game"
	}
	r := s.rooms.Create(c.Request.Context(), req.Name)
	c.JSON(http.StatusCreated, gin.H{"id": r.ID, "name": r.Name})
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	claims, _ := auth.UserFrom(c)
	var req struct {
		DeckID string `json:"deckId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deckId required"})
		return
	}
	deck, err := s.decks.Get(c.Request.Context(), req.DeckID)
	if err != nil {
		if errors.Is(err, repository.ErrDeckNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "deck not found"})
			return
		}
		s.logger.Error("deck load failed", zap.String("deck_id", req.DeckID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if deck.UserID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your deck"})
		return
	}
	r, err := s.rooms.Join(c.Request.Context(), c.Param("id"), claims.UserID, deck.List)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, room.ErrRoomFull):
			c.JSON(http.StatusConflict, gin.H{"error": "room full"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": r.ID, "players": r.Seats()})
}

// handleWS upgrades a seated player's connection and binds it to the
// room's hub.
func (s *Server) handleWS(c *gin.Context) {
	claims, _ := auth.UserFrom(c)
	r, err := s.rooms.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	seated := false
	for _, pid := range r.Seats() {
		if pid == claims.UserID {
			seated = true
			break
		}
	}
	if !seated {
		c.JSON(http.StatusForbidden, gin.H{"error": "join the room first"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	hub := s.hubFor(r)
	client := newClient(hub, conn, claims.UserID, s.logger)
	hub.attach(client)

	go client.writePump()
	go client.readPump()
}

func (s *Server) hubFor(r *room.Room) *Hub {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.hubs[r.ID]; ok {
		return h
	}
	h := newHub(r, s.logger)
	s.hubs[r.ID] = h
	return h
}
