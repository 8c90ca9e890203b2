// Package server exposes the orchestrator over HTTP and a websocket feed.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"roaster/pkg/address"
	"roaster/pkg/donation"
	"roaster/pkg/i18n"
	"roaster/pkg/orchestrator"
	"roaster/pkg/portfolio"
	"roaster/pkg/share"
	"roaster/pkg/wallet"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	orch     *orchestrator.Orchestrator
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	router   *gin.Engine

	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

// ErrorResponse is the body of every non-2xx reply. Message is localised in
// the current UI language.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StatusResponse struct {
	State    orchestrator.State `json:"state"`
	Modes    orchestrator.Modes `json:"modes"`
	Donation DonationMenu       `json:"donation"`
}

type DonationMenu struct {
	Amounts   []decimal.Decimal `json:"amounts"`
	Currency  string            `json:"currency"`
	Recipient string            `json:"recipient"`
}

type analyzeRequest struct {
	Address *string `json:"address"`
}

type donateRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type languageRequest struct {
	Language string `json:"language" binding:"required"`
}

type ShareResponse struct {
	Target string `json:"target"`
	URL    string `json:"url"`
	Text   string `json:"text"`
}

// NewServer builds the router. A nil gatherer serves the default registry.
func NewServer(o *orchestrator.Orchestrator, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		orch:     o,
		gatherer: gatherer,
		logger:   logger.Named("Server"),
		clients:  make(map[*websocket.Conn]bool),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))
	router.Use(zapMiddleware(s.logger))
	router.Use(gin.Recovery())

	api := router.Group("/api")
	api.GET("/status", s.handleStatus)
	api.POST("/connect", s.handleConnect)
	api.POST("/disconnect", s.handleDisconnect)
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/donate", s.handleDonate)
	api.POST("/language", s.handleLanguage)
	api.GET("/share/:target", s.handleShare)

	router.GET("/ws", s.handleWS)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	s.router = router
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, port int) error {
	go s.listenToOrchestrator(ctx)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("Shutting down API server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) status() StatusResponse {
	amounts, currency, recipient := s.orch.DonationMenu()
	return StatusResponse{
		State: s.orch.State(),
		Modes: s.orch.Modes(),
		Donation: DonationMenu{
			Amounts:   amounts,
			Currency:  currency,
			Recipient: recipient,
		},
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.status())
}

func (s *Server) handleConnect(c *gin.Context) {
	if err := s.orch.Connect(c.Request.Context()); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.orch.State())
}

func (s *Server) handleDisconnect(c *gin.Context) {
	s.orch.Disconnect()
	c.JSON(http.StatusOK, s.orch.State())
}

// handleAnalyze roasts the given address, or the session's address when the
// body has none.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Code: "BAD_REQUEST", Message: err.Error()})
			return
		}
	}

	var err error
	if req.Address != nil {
		err = s.orch.AnalyzeAddress(c.Request.Context(), *req.Address)
	} else {
		err = s.orch.Analyze(c.Request.Context())
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.orch.State())
}

func (s *Server) handleDonate(c *gin.Context) {
	var req donateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}
	receipt, err := s.orch.Donate(c.Request.Context(), req.Amount)
	if err != nil {
		s.writeError(c, err)
		return
	}
	lang := s.orch.State().Language
	msg := fmt.Sprintf(i18n.T(lang, i18n.DonationThanks), receipt.Request.Amount, receipt.Request.Currency)
	if receipt.Simulated {
		msg = fmt.Sprintf(i18n.T(lang, i18n.DonationDemo), receipt.Request.Amount, receipt.Request.Currency, receipt.Request.Recipient)
	}
	c.JSON(http.StatusOK, gin.H{"receipt": receipt, "message": msg})
}

func (s *Server) handleLanguage(c *gin.Context) {
	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}
	if err := s.orch.SetLanguage(req.Language); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.orch.State())
}

func (s *Server) handleShare(c *gin.Context) {
	st := s.orch.State()
	if st.Roast == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "NO_ROAST", Message: i18n.T(st.Language, i18n.NoWallet)})
		return
	}
	resp := ShareResponse{Target: c.Param("target"), Text: share.Text(st.Language, st.Roast.Text)}
	switch resp.Target {
	case "twitter", "x":
		resp.URL = share.TwitterURL(st.Language, st.Roast.Text)
	case "telegram":
		resp.URL = share.TelegramURL(st.Language, st.Roast.Text)
	default:
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "UNKNOWN_TARGET", Message: resp.Target})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// writeError maps component errors onto status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	lang := s.orch.State().Language
	status, code, key := http.StatusInternalServerError, "INTERNAL", i18n.Error

	var (
		ve *address.ValidationError
		ce *wallet.ConnectorError
		ae *portfolio.AnalysisError
		de *donation.DonationError
	)
	switch {
	case errors.As(err, &ve):
		status, code, key = http.StatusBadRequest, string(ve.Reason), i18n.InvalidAddress
		if ve.Reason == address.ReasonEmpty {
			key = i18n.AddressRequired
		}
	case errors.Is(err, orchestrator.ErrBusy):
		status, code, key = http.StatusConflict, "BUSY", i18n.Busy
	case errors.As(err, &ce):
		status, code, key = http.StatusBadGateway, string(ce.Kind), i18n.ConnectFailed
	case errors.Is(err, wallet.ErrInvalidTransition):
		status, code = http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, orchestrator.ErrSuperseded):
		status, code = http.StatusConflict, "SUPERSEDED"
	case errors.Is(err, orchestrator.ErrNoWallet):
		status, code, key = http.StatusBadRequest, "NO_WALLET", i18n.NoWallet
	case errors.Is(err, donation.ErrNotConnected):
		status, code, key = http.StatusForbidden, "NOT_CONNECTED", i18n.NoWallet
	case errors.Is(err, donation.ErrAmountNotAllowed):
		status, code = http.StatusBadRequest, "AMOUNT_NOT_ALLOWED"
	case errors.As(err, &de):
		status, code = http.StatusBadGateway, "BRIDGE_FAILURE"
	case errors.As(err, &ae):
		status, code = http.StatusBadGateway, "ANALYSIS_FAILED"
	case errors.Is(err, orchestrator.ErrUnsupportedLanguage):
		status, code = http.StatusBadRequest, "UNSUPPORTED_LANGUAGE"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusRequestTimeout, "CANCELLED"
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, ErrorResponse{Code: code, Message: i18n.T(lang, key)})
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	s.mu.Lock()
	s.clients[conn] = true
	_ = conn.WriteJSON(gin.H{"type": "initial", "status": s.status()})
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) listenToOrchestrator(ctx context.Context) {
	sub := s.orch.Subscribe()
	defer s.orch.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub:
			if !ok {
				return
			}
			s.broadcast(event)
		}
	}
}

func (s *Server) broadcast(event orchestrator.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(event); err != nil {
			_ = client.Close()
			delete(s.clients, client)
		}
	}
}

func zapMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIP", c.ClientIP()))
	}
}
