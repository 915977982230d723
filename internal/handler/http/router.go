package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterOptions carries the transport settings taken from config.
type RouterOptions struct {
	AllowedOrigins []string
	Env            string
	LogLevel       slog.Level
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, attendanceHandler AttendanceHandler, deviceHandler DeviceHandler, streamHandler StreamHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-attendance"),
		slog.String("version", "v1.0.0"),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	// Biometric terminals; they authenticate by network placement, not tokens
	r.Route("/iclock", func(r chi.Router) {
		r.Get("/cdata", deviceHandler.Handshake)
		r.Post("/cdata", deviceHandler.Push)
	})

	r.Route("/api/v1/attendance", func(r chi.Router) {
		// SSE token is validated by the handler itself
		r.Get("/stream", streamHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Get("/stream/token", streamHandler.GetSSEToken)

			r.Route("/subjects/{ref}", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionAttendanceViewOwn))
				r.Get("/logs", attendanceHandler.GetSubjectLogs)
				r.Get("/daily", attendanceHandler.GetSubjectDaily)
			})

			// Manager only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager)

				r.With(middleware.RequirePermission(user.PermissionAttendanceCreate)).
					Post("/punches", attendanceHandler.CreatePunch)

				r.Route("/manual", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionAttendanceCreate)).
						Post("/", attendanceHandler.ManualCreate)
					r.With(middleware.RequirePermission(user.PermissionAttendanceCorrect)).
						Put("/", attendanceHandler.ManualUpdate)
				})

				r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll)).
					Get("/logs", attendanceHandler.ListLogs)

				r.Route("/daily", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll)).
						Get("/", attendanceHandler.ListDaily)
					r.With(middleware.RequirePermission(user.PermissionAttendanceCorrect)).
						Post("/rebuild", attendanceHandler.RebuildDay)
					r.With(middleware.RequirePermission(user.PermissionAttendanceExport)).
						Get("/export", attendanceHandler.ExportDaily)
				})
			})
		})
	})
	return r
}
