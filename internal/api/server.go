package api

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/marcus/quote-desk/internal/auth"
	"github.com/marcus/quote-desk/internal/config"
	"github.com/marcus/quote-desk/internal/mapping"
	"github.com/marcus/quote-desk/internal/models"
	"github.com/marcus/quote-desk/internal/quotes"
	"github.com/marcus/quote-desk/internal/upstream"
)

type Server struct {
	Quotes *quotes.Service
	Auth   *auth.Service
	Echo   *echo.Echo

	adminOnce sync.Once
	adminHash []byte
}

func NewServer(cfg config.Config, quoteSvc *quotes.Service, authSvc *auth.Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:4200"}
	allowedOrigins = append(allowedOrigins, cfg.CORSOrigins...)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
		AllowCredentials: true,
	}))

	s := &Server{
		Quotes: quoteSvc,
		Auth:   authSvc,
		Echo:   e,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	// Auth Routes
	s.Echo.GET("/auth/login", s.handleLogin)
	s.Echo.GET("/auth/callback", s.handleCallback)
	s.Echo.POST("/auth/logout", s.handleLogout)

	api := s.Echo.Group("/api/v1")
	api.Use(auth.Middleware)
	api.GET("/quotes", s.handleListQuotes)
	api.GET("/quotes/search", s.handleSearchQuotes)
	api.GET("/quotes/:id", s.handleGetQuote)
	api.POST("/quotes", s.handleCreateQuote)
	api.PATCH("/quotes/:id", s.handleUpdateQuote)
	api.PATCH("/quotes/:id/status", s.handleUpdateStatus)
	api.POST("/quotes/:id/comments", s.handleAddComment)
	api.GET("/stats", s.handleGetStats)
	api.GET("/connection", s.handleTestConnection)

	// Admin Routes
	admin := api.Group("/admin")
	admin.Use(s.adminMiddleware)
	admin.POST("/force-reauth", s.handleForceReauth)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogin starts (or restarts) the PKCE flow with a full redirect to the
// upstream authorization endpoint.
func (s *Server) handleLogin(c echo.Context) error {
	force := c.QueryParam("force") == "true"
	loginURL, err := s.Auth.BeginLogin(force)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not start authorization"})
	}
	return c.Redirect(http.StatusFound, loginURL)
}

// handleCallback finishes the code exchange. On success the browser gets a
// session cookie and a clean redirect so code/state never stay visible in
// the URL. A rejected exchange falls back to a fresh login redirect rather
// than looping on dead state.
func (s *Server) handleCallback(c echo.Context) error {
	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing code or state"})
	}

	if err := s.Auth.CompleteLogin(c.Request().Context(), code, state); err != nil {
		log.Printf("[api] code exchange failed: %v", err)
		loginURL, loginErr := s.Auth.BeginLogin(false)
		if loginErr != nil {
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "Authorization failed"})
		}
		return c.Redirect(http.StatusFound, loginURL)
	}

	session, err := auth.IssueSession()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not establish session"})
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookie,
		Value:    session,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, "/")
}

func (s *Server) handleLogout(c echo.Context) error {
	loginURL, err := s.Auth.Logout()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return c.JSON(http.StatusOK, map[string]string{"loginUrl": loginURL})
}

func (s *Server) handleListQuotes(c echo.Context) error {
	list, err := s.Quotes.List(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) handleSearchQuotes(c echo.Context) error {
	results, err := s.Quotes.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, results)
}

func (s *Server) handleGetQuote(c echo.Context) error {
	quote, err := s.Quotes.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, quote)
}

func (s *Server) handleCreateQuote(c echo.Context) error {
	var draft models.QuoteDraft
	if err := c.Bind(&draft); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	quote, err := s.Quotes.Create(c.Request().Context(), draft)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, quote)
}

func (s *Server) handleUpdateQuote(c echo.Context) error {
	var update models.QuoteUpdate
	if err := c.Bind(&update); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	quote, err := s.Quotes.Update(c.Request().Context(), c.Param("id"), update)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, quote)
}

func (s *Server) handleUpdateStatus(c echo.Context) error {
	var req struct {
		Status models.Status `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if !req.Status.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown status"})
	}

	quote, err := s.Quotes.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, quote)
}

func (s *Server) handleAddComment(c echo.Context) error {
	var req struct {
		Message    string `json:"message"`
		Author     string `json:"author"`
		AuthorType string `json:"authorType"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Comment message is required"})
	}

	quote, err := s.Quotes.AddComment(c.Request().Context(), c.Param("id"), req.Message, req.Author, req.AuthorType)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, quote)
}

func (s *Server) handleGetStats(c echo.Context) error {
	stats, err := s.Quotes.Stats(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleTestConnection(c echo.Context) error {
	meta, err := s.Quotes.TestConnection(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"connected": true, "portal": meta})
}

func (s *Server) handleForceReauth(c echo.Context) error {
	loginURL, err := s.Auth.Logout()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"loginUrl": loginURL})
}

// respondError maps service failures onto HTTP responses. Upstream auth
// expiry is the one non-error-shaped case: the frontend receives the login
// URL and performs the redirect the server cannot.
func (s *Server) respondError(c echo.Context, err error) error {
	var reauth *auth.ReauthRequiredError
	if errors.As(err, &reauth) {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error":    "Upstream authorization required",
			"loginUrl": reauth.LoginURL,
		})
	}

	var ve *mapping.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":  "Validation failed",
			"errors": ve.Messages,
		})
	}

	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return c.JSON(status, map[string]string{"error": apiErr.Message})
	}

	log.Printf("[api] internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// adminMiddleware guards operational endpoints with a bcrypt-hashed shared
// secret. With no hash configured the routes stay closed.
func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.adminOnce.Do(func() {
			if h := strings.TrimSpace(os.Getenv("QUOTEDESK_ADMIN_SECRET_HASH")); h != "" {
				s.adminHash = []byte(h)
			}
		})
		if len(s.adminHash) == 0 {
			return echo.NewHTTPError(http.StatusForbidden, "Admin endpoints are not configured")
		}

		secret := c.Request().Header.Get("X-Admin-Secret")
		if secret == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing X-Admin-Secret header")
		}
		if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(secret)); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid admin secret")
		}
		return next(c)
	}
}
