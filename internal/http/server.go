package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HabibaSabrina/rongin-academy-server/internal/auth"
	"github.com/HabibaSabrina/rongin-academy-server/internal/config"
	"github.com/HabibaSabrina/rongin-academy-server/internal/model"
	"github.com/HabibaSabrina/rongin-academy-server/internal/payments"
	"github.com/HabibaSabrina/rongin-academy-server/internal/repository"
)

type Server struct {
	cfg     config.Config
	store   repository.Store
	intents payments.IntentCreator
	logger  *zap.Logger
}

func NewServer(cfg config.Config, store repository.Store, intents payments.IntentCreator, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		intents: intents,
		logger:  logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.accessLog)
	r.Use(cors)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Rongin academy server is running"))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/jwt", s.handleIssueToken)

	r.With(s.authMiddleware, s.requireAdmin).Get("/users", s.handleListUsers)
	r.Get("/users/instructor", s.handleListInstructors)
	r.Get("/users/instructor/popular", s.handlePopularInstructors)
	r.Post("/users", s.handleRegisterUser)
	r.With(s.authMiddleware).Get("/users/admin/{email}", s.handleAdminStatus)
	r.Patch("/users/admin/{id}", s.handlePromoteAdmin)
	r.With(s.authMiddleware).Get("/users/instructor/{email}", s.handleInstructorStatus)
	r.Patch("/users/instructor/{id}", s.handlePromoteInstructor)

	r.Get("/classes", s.handleListClasses)
	r.Get("/classes/popular", s.handlePopularClasses)
	r.Post("/classes", s.handleCreateClass)
	r.Patch("/classes/feedback/{id}", s.handleClassFeedback)
	r.Patch("/classes/status/{id}", s.handleClassStatus)
	r.Patch("/classes/count/{id}", s.handleClassCount)
	r.Patch("/classes/update/{id}", s.handleClassSeat)

	r.Get("/student/{email}", s.handleListBookings)
	r.Get("/studentpayment/{id}", s.handleGetBooking)
	r.With(s.authMiddleware).Post("/student/{email}", s.handleBookClass)
	r.Delete("/student/{id}", s.handleCancelBooking)
	r.Patch("/student/{id}", s.handleMarkEnrolled)

	r.With(s.authMiddleware).Post("/create-payment-intent", s.handleCreatePaymentIntent)
	r.With(s.authMiddleware).Get("/payments", s.handleListPayments)
	r.With(s.authMiddleware).Post("/payments", s.handleRecordPayment)

	return r
}

// Auth

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

// requireAdmin reads the caller's stored role on every request; the token
// alone never grants a role.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return s.requireRole(next, model.RoleAdmin)
}

func (s *Server) requireInstructor(next http.Handler) http.Handler {
	return s.requireRole(next, model.RoleInstructor)
}

func (s *Server) requireRole(next http.Handler, role model.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		user, err := s.store.FindUserByEmail(r.Context(), claims.Email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			writeError(w, http.StatusInternalServerError, "storage_error")
			return
		}
		if user.Role != role {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Tokens

type identityRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var identity identityRequest
	if err := decodeJSON(r, &identity); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if identity.Email == "" {
		writeError(w, http.StatusBadRequest, "missing_email")
		return
	}
	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, auth.Claims{
		Email: identity.Email,
		Name:  identity.Name,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Users

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleListInstructors(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsersByRole(r.Context(), model.RoleInstructor, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handlePopularInstructors(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsersByRole(r.Context(), model.RoleInstructor, 6)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var user model.User
	if err := decodeJSON(r, &user); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if user.Email == "" {
		writeError(w, http.StatusBadRequest, "missing_email")
		return
	}
	if _, err := model.ParseRole(string(user.Role)); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	_, err := s.store.FindUserByEmail(r.Context(), user.Email)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]string{"message": "User already exists"})
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}

	id, err := s.store.InsertUser(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"insertedId": id})
}

// handleAdminStatus answers whether the given email holds the admin role.
// A caller may only ask about their own email; on mismatch the probe answers
// false without touching storage.
func (s *Server) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	s.handleRoleStatus(w, r, "admin", model.RoleAdmin)
}

func (s *Server) handleInstructorStatus(w http.ResponseWriter, r *http.Request) {
	s.handleRoleStatus(w, r, "instructor", model.RoleInstructor)
}

func (s *Server) handleRoleStatus(w http.ResponseWriter, r *http.Request, field string, role model.Role) {
	email := chi.URLParam(r, "email")
	claims := claimsFromContext(r.Context())
	if claims == nil || claims.Email != email {
		writeJSON(w, http.StatusOK, map[string]bool{field: false})
		return
	}
	user, err := s.store.FindUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]bool{field: false})
			return
		}
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{field: user.Role == role})
}

func (s *Server) handlePromoteAdmin(w http.ResponseWriter, r *http.Request) {
	s.promote(w, r, model.RoleAdmin)
}

func (s *Server) handlePromoteInstructor(w http.ResponseWriter, r *http.Request) {
	s.promote(w, r, model.RoleInstructor)
}

func (s *Server) promote(w http.ResponseWriter, r *http.Request, role model.Role) {
	res, err := s.store.SetUserRole(r.Context(), chi.URLParam(r, "id"), role)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Classes

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.store.ListClasses(r.Context(), r.URL.Query().Get("insEmail"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

func (s *Server) handlePopularClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.store.ListPopularClasses(r.Context(), 6)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var class model.Class
	if err := decodeJSON(r, &class); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if class.Status == "" {
		class.Status = model.ClassPending
	} else if _, err := model.ParseClassStatus(string(class.Status)); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	id, err := s.store.InsertClass(r.Context(), class)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"insertedId": id})
}

func (s *Server) handleClassFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Feedback string `json:"feedback"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	res, err := s.store.SetClassFeedback(r.Context(), chi.URLParam(r, "id"), req.Feedback)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClassStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	status, err := model.ParseClassStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}
	res, err := s.store.SetClassStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleClassCount performs the enrollment-time seat adjustment: one guarded
// document update so a full class can never go seat-negative.
func (s *Server) handleClassCount(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.TakeClassSeat(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidID):
			writeError(w, http.StatusBadRequest, "invalid_id")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "class_not_found")
		case errors.Is(err, repository.ErrNoSeats):
			writeError(w, http.StatusConflict, "no_seats_left")
		default:
			writeError(w, http.StatusInternalServerError, "storage_error")
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClassSeat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seat int `json:"seat"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Seat < 0 {
		writeError(w, http.StatusBadRequest, "invalid_seat")
		return
	}
	res, err := s.store.SetClassSeat(r.Context(), chi.URLParam(r, "id"), req.Seat)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Bookings

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.store.ListBookingsByStudent(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.store.FindBookingByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidID):
			writeError(w, http.StatusBadRequest, "invalid_id")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "booking_not_found")
		default:
			writeError(w, http.StatusInternalServerError, "storage_error")
		}
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleBookClass(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	var booking model.Booking
	if err := decodeJSON(r, &booking); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if booking.ClassID == "" {
		writeError(w, http.StatusBadRequest, "missing_class_id")
		return
	}
	booking.StudentEmail = email
	if booking.ClsStatus == "" {
		booking.ClsStatus = model.BookingSelected
	} else if _, err := model.ParseBookingStatus(string(booking.ClsStatus)); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	_, err := s.store.FindBooking(r.Context(), booking.ClassID, email)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Class already exists"})
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}

	id, err := s.store.InsertBooking(r.Context(), booking)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"insertedId": id})
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.DeleteBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMarkEnrolled(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.SetBookingStatus(r.Context(), chi.URLParam(r, "id"), model.BookingEnrolled)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Payments

func (s *Server) handleCreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Price float64 `json:"price"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_price")
		return
	}
	amount := int64(math.Round(req.Price * 100))

	clientSecret, err := s.intents.CreatePaymentIntent(r.Context(), amount)
	if err != nil {
		s.logger.Error("payment intent failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "payment_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": clientSecret})
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListPayments(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var payment model.Payment
	if err := decodeJSON(r, &payment); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if payment.Email == "" {
		writeError(w, http.StatusBadRequest, "missing_email")
		return
	}
	if payment.Date.IsZero() {
		payment.Date = time.Now().UTC()
	}

	id, err := s.store.InsertPayment(r.Context(), payment)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"insertedId": id})
}

// Middleware

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helpers

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrInvalidID) {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	writeError(w, http.StatusInternalServerError, "storage_error")
}
