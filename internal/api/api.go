package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/joescharf/shiplog/internal/auth"
	"github.com/joescharf/shiplog/internal/board"
	"github.com/joescharf/shiplog/internal/jira"
	"github.com/joescharf/shiplog/internal/logging"
	"github.com/joescharf/shiplog/internal/models"
	"github.com/joescharf/shiplog/internal/otp"
)

// OTPService issues and verifies login codes.
type OTPService interface {
	Issue(ctx context.Context, identity string) error
	Verify(ctx context.Context, identity, code string) (string, error)
}

// BoardService returns the current board.
type BoardService interface {
	Board(ctx context.Context) (*jira.Result, error)
}

// Options tunes a Server.
type Options struct {
	CutoffYear    int
	SecureCookie  bool
	RatePerMinute int
	RateBurst     int
	Logger        zerolog.Logger
}

// Server provides the HTTP handlers.
type Server struct {
	otp     OTPService
	tokens  auth.Validator
	boards  BoardService
	ui      http.Handler
	limiter *RateLimiter
	opts    Options
	log     zerolog.Logger
}

// NewServer creates a new API server. uiHandler serves every path not
// handled by the API and may be nil.
func NewServer(otpSvc OTPService, tokens auth.Validator, boards BoardService, uiHandler http.Handler, opts Options) *Server {
	if opts.CutoffYear == 0 {
		opts.CutoffYear = board.DefaultCutoffYear
	}
	if uiHandler == nil {
		uiHandler = http.NotFoundHandler()
	}
	return &Server{
		otp:     otpSvc,
		tokens:  tokens,
		boards:  boards,
		ui:      uiHandler,
		limiter: NewRateLimiter(opts.RatePerMinute, opts.RateBurst),
		opts:    opts,
		log:     opts.Logger.With().Str("component", "api").Logger(),
	}
}

// Router returns the full handler: request logging, then the session guard,
// then the routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/send-otp", s.limiter.Middleware(s.sendOTP))
	mux.HandleFunc("POST /api/verify-otp", s.limiter.Middleware(s.verifyOTP))
	mux.HandleFunc("POST /api/logout", s.logout)

	mux.HandleFunc("GET /api/me", s.me)
	mux.HandleFunc("GET /api/issues", s.listIssues)
	mux.HandleFunc("GET /api/board", s.getBoard)

	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	mux.Handle("/", s.ui)

	return logging.Middleware(s.log)(auth.Guard(s.tokens)(mux))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Login ---

type sendOTPRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (s *Server) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	err := s.otp.Issue(r.Context(), req.Email)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent successfully"})
	case errors.Is(err, otp.ErrValidation):
		writeError(w, http.StatusBadRequest, "Email is required")
	case errors.Is(err, otp.ErrAuthorization):
		s.log.Warn().Str("email", req.Email).Msg("otp requested for address not on allow-list")
		writeError(w, http.StatusForbidden, "Email not authorized")
	case errors.Is(err, otp.ErrDelivery):
		s.log.Error().Err(err).Str("email", req.Email).Msg("otp delivery failed")
		writeError(w, http.StatusInternalServerError, "Failed to send email")
	default:
		s.log.Error().Err(err).Msg("send otp")
		writeError(w, http.StatusInternalServerError, "Failed to process request")
	}
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	token, err := s.otp.Verify(r.Context(), req.Email, req.OTP)
	switch {
	case err == nil:
		cookie := auth.SessionCookie(token)
		cookie.Secure = s.opts.SecureCookie
		http.SetCookie(w, cookie)
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	case errors.Is(err, otp.ErrValidation):
		writeError(w, http.StatusBadRequest, "Email and OTP are required")
	case errors.Is(err, otp.ErrNotFound), errors.Is(err, otp.ErrInvalidCode), errors.Is(err, otp.ErrExpired):
		s.log.Info().Err(err).Str("email", req.Email).Msg("otp rejected")
		writeError(w, http.StatusBadRequest, "Invalid or expired OTP")
	case errors.Is(err, otp.ErrConfiguration):
		s.log.Error().Err(err).Msg("verify otp")
		writeError(w, http.StatusInternalServerError, "Server configuration error")
	default:
		s.log.Error().Err(err).Msg("verify otp")
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	cookie := auth.ClearedCookie()
	cookie.Secure = s.opts.SecureCookie
	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"email": identity})
}

// --- Board ---

type issuesResponse struct {
	Source    jira.Source    `json:"source"`
	Project   string         `json:"project"`
	FetchedAt time.Time      `json:"fetched_at"`
	Issues    []models.Issue `json:"issues"`
}

type boardResponse struct {
	Source      jira.Source    `json:"source"`
	Project     string         `json:"project"`
	Department  string         `json:"department"`
	View        board.View     `json:"view"`
	CutoffYear  int            `json:"cutoff_year"`
	Departments []string       `json:"departments"`
	Count       int            `json:"count"`
	Issues      []models.Issue `json:"issues"`
	Columns     []board.Column `json:"columns,omitempty"`
}

func (s *Server) fetchBoard(w http.ResponseWriter, r *http.Request) (*jira.Result, bool) {
	res, err := s.boards.Board(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("load board")
		if errors.Is(err, jira.ErrUpstream) {
			writeError(w, http.StatusBadGateway, "Failed to fetch issues")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch issues")
		return nil, false
	}
	return res, true
}

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	res, ok := s.fetchBoard(w, r)
	if !ok {
		return
	}
	issues := res.Issues
	if issues == nil {
		issues = []models.Issue{}
	}
	writeJSON(w, http.StatusOK, issuesResponse{
		Source:    res.Source,
		Project:   res.ProjectKey,
		FetchedAt: res.FetchedAt,
		Issues:    issues,
	})
}

func (s *Server) getBoard(w http.ResponseWriter, r *http.Request) {
	view, err := board.ParseView(r.URL.Query().Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dept := r.URL.Query().Get("department")
	if dept == "" {
		dept = board.AllDepartments
	}

	res, ok := s.fetchBoard(w, r)
	if !ok {
		return
	}

	filtered := board.Filter(res.Issues, board.Options{
		Department: dept,
		View:       view,
		CutoffYear: s.opts.CutoffYear,
	})
	resp := boardResponse{
		Source:      res.Source,
		Project:     res.ProjectKey,
		Department:  dept,
		View:        view,
		CutoffYear:  s.opts.CutoffYear,
		Departments: board.Departments(res.Issues),
		Count:       len(filtered),
		Issues:      filtered,
	}
	if view == board.ViewSprint {
		resp.Columns = board.Columns(filtered)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
