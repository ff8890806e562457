package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"bank-ledger/internal/auth"
	"bank-ledger/internal/config"
	"bank-ledger/internal/handler"
	"bank-ledger/internal/repository"
	"bank-ledger/internal/service"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
)

// Server represents the HTTP server
type Server struct {
	router        *mux.Router
	server        *http.Server
	db            *sql.DB
	logger        *slog.Logger
	port          string
	ledgerService *service.LedgerService
	accrualEvery  time.Duration
	accrualStop   chan struct{}
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sql.Open("postgres", cfg.GetDBConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("Successfully connected to database")
	}

	// Unit of work over the database
	store := repository.NewStore(db, logger)

	// Services
	userService := service.NewUserService(store, logger)
	accountService := service.NewAccountService(store, logger)
	ledgerService := service.NewLedgerService(store, logger)
	loanService := service.NewLoanService(store, logger)

	// Auth
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	// Handlers
	authHandler := handler.NewAuthHandler(userService, tokens)
	accountHandler := handler.NewAccountHandler(accountService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	loanHandler := handler.NewLoanHandler(loanService)
	statementHandler := handler.NewStatementHandler(accountService)
	adminHandler := handler.NewAdminHandler(loanService, ledgerService)

	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))

	// Public routes
	router.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	router.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Authenticated routes
	authed := auth.Middleware(tokens)

	accounts := router.PathPrefix("/accounts").Subrouter()
	accounts.Use(authed)
	accounts.HandleFunc("", accountHandler.Open).Methods("POST")
	accounts.HandleFunc("", accountHandler.List).Methods("GET")
	accounts.HandleFunc("/{number}", accountHandler.Get).Methods("GET")
	accounts.HandleFunc("/{number}/close", accountHandler.Close).Methods("POST")
	accounts.HandleFunc("/{number}/deposit", ledgerHandler.Deposit).Methods("POST")
	accounts.HandleFunc("/{number}/withdraw", ledgerHandler.Withdraw).Methods("POST")
	accounts.HandleFunc("/{number}/statement", statementHandler.Get).Methods("GET")

	transfers := router.PathPrefix("/transfers").Subrouter()
	transfers.Use(authed)
	transfers.HandleFunc("", ledgerHandler.Transfer).Methods("POST")

	loans := router.PathPrefix("/loans").Subrouter()
	loans.Use(authed)
	loans.HandleFunc("", loanHandler.Apply).Methods("POST")
	loans.HandleFunc("", loanHandler.List).Methods("GET")
	loans.HandleFunc("/{id}", loanHandler.Get).Methods("GET")
	loans.HandleFunc("/{id}/repay", loanHandler.Repay).Methods("POST")

	// Back-office routes
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(authed)
	admin.HandleFunc("/loans", adminHandler.ListLoans).Methods("GET")
	admin.HandleFunc("/loans/{id}/approve", adminHandler.ApproveLoan).Methods("POST")
	admin.HandleFunc("/loans/{id}/reject", adminHandler.RejectLoan).Methods("POST")
	admin.HandleFunc("/interest/run", adminHandler.RunInterest).Methods("POST")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database unavailable"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	return &Server{
		router:        router,
		db:            db,
		logger:        logger,
		ledgerService: ledgerService,
		accrualEvery:  cfg.InterestRunInterval,
	}, nil
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", time.Since(start),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.logger != nil {
		s.logger.Info("Starting server", "port", s.port)
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Error("Server failed to start", "error", err)
			}
		}
	}()

	if s.accrualEvery > 0 {
		s.startAccrualTicker()
	}

	return s.port, nil
}

// startAccrualTicker runs the interest accrual batch on a fixed interval.
func (s *Server) startAccrualTicker() {
	s.accrualStop = make(chan struct{})
	ticker := time.NewTicker(s.accrualEvery)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, _, err := s.ledgerService.AccrueAllInterest(time.Now()); err != nil {
					s.logger.Error("Scheduled interest run failed", "error", err)
				}
			case <-s.accrualStop:
				return
			}
		}
	}()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("Shutting down server")
	}

	if s.accrualStop != nil {
		close(s.accrualStop)
		s.accrualStop = nil
	}

	if s.db != nil {
		s.db.Close()
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer starts the server with the given configuration
func StartServer(cfg *config.Config) (*Server, string, error) {
	// Use a discard logger when running on an ephemeral test port
	var logger *slog.Logger
	if cfg.ServerPort == "0" {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		return nil, "", err
	}

	return server, port, nil
}
