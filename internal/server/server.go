package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Worcesters/basicfit/internal/idempotency"
	"github.com/Worcesters/basicfit/internal/ingest"
	"github.com/Worcesters/basicfit/internal/models"
	"github.com/Worcesters/basicfit/internal/storage"
	"github.com/Worcesters/basicfit/internal/telemetry/metrics"
	"github.com/Worcesters/basicfit/internal/workout"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// workoutService is the part of *workout.Service the API exposes.
type workoutService interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int64, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, in workout.ProfileInput) (*models.User, error)
	UserStats(ctx context.Context, userID int64) (*models.UserStats, error)
	DataStats(ctx context.Context, userID int64) (*storage.DataStats, error)

	CreateMachine(ctx context.Context, in workout.MachineInput) (*models.Machine, error)
	GetMachine(ctx context.Context, id int64) (*models.Machine, error)
	ListMachines(ctx context.Context) ([]models.Machine, error)
	CreateVariant(ctx context.Context, in workout.VariantInput) (*models.MachineVariant, error)
	ListVariants(ctx context.Context, machineID int64) ([]models.MachineVariant, error)
	ListTrainingModes(ctx context.Context) ([]models.TrainingMode, error)

	CreateSession(ctx context.Context, in workout.CreateSessionInput) (*models.Session, error)
	GetSession(ctx context.Context, id int64) (*models.Session, error)
	ListSessions(ctx context.Context, in workout.ListSessionsInput) (*workout.SessionPage, error)
	StartSession(ctx context.Context, id int64) (*models.Session, error)
	FinishSession(ctx context.Context, id int64) (*models.Session, error)
	CancelSession(ctx context.Context, id int64) (*models.Session, error)
	SuspendSession(ctx context.Context, id int64) (*models.Session, error)
	ResumeSession(ctx context.Context, id int64) (*models.Session, error)
	RecordSessionFeedback(ctx context.Context, id int64, fb workout.Feedback) (*models.Session, error)
	SaveCompletedSession(ctx context.Context, in workout.CompletedSessionInput) (*workout.CompletedSessionResult, error)

	PlanExercise(ctx context.Context, in workout.PlanExerciseInput) (*models.ExerciseEntry, error)
	SaveExerciseEntry(ctx context.Context, in models.ExerciseEntry) (*models.ExerciseEntry, error)
	CompleteExerciseEntry(ctx context.Context, id int64, in workout.CompleteInput) (*workout.CompletedExercise, error)
	CreateSetRecord(ctx context.Context, in workout.CreateSetInput) (*models.SetRecord, error)
	RecordSetResult(ctx context.Context, in workout.RecordSetInput) (*models.SetRecord, error)

	EvaluateAndApplyProgression(ctx context.Context, exerciseID int64) (*models.ProgressionResult, error)
	GetRecommendation(ctx context.Context, userID, machineID, modeID int64) (*models.Recommendation, error)
	ListTrackers(ctx context.Context, userID int64) ([]models.ProgressionTracker, error)
}

// alphaImporter stores an Alpha Progression export for a user.
type alphaImporter interface {
	Ingest(ctx context.Context, r io.Reader, userID int64) (*ingest.Result, error)
}

// Params holds the dependencies of a Server. Optional parts are disabled
// when left nil.
type Params struct {
	Service workoutService
	Alpha   alphaImporter
	Log     *slog.Logger
	APIKey  string
	Metrics *metrics.Manager

	// Registry is served on /metrics.
	Registry *prometheus.Registry
	// RateLimiter limits the write routes to WritesPerMin requests.
	RateLimiter  RequestRateLimiter
	WritesPerMin int
	// Idempotency replays responses of retried writes for IdempotencyTTL.
	Idempotency    idempotency.Store
	IdempotencyTTL time.Duration
	// WhoIs resolves tailnet callers. Without it every request acts as the
	// local development user.
	WhoIs WhoIsClient
	// MCP is mounted on /mcp behind the identity middleware. Handlers read
	// the caller with UserID.
	MCP http.Handler
	// Tracing wraps the router in otelhttp.
	Tracing bool
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc      workoutService
	alpha    alphaImporter
	log      *slog.Logger
	metrics  *metrics.Manager
	identity *identityResolver
	handler  http.Handler
}

// New creates a new Server with all routes configured.
func New(p Params) *Server {
	if p.Metrics == nil {
		p.Metrics = metrics.NewTestManager()
	}
	s := &Server{
		svc:      p.Service,
		alpha:    p.Alpha,
		log:      p.Log,
		metrics:  p.Metrics,
		identity: newIdentityResolver(p.Service, p.WhoIs, p.Log),
	}
	router := s.routes(p)
	s.handler = router
	if p.Tracing {
		s.handler = otelhttp.NewHandler(router, "basicfit-api")
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes(p Params) chi.Router {
	router := chi.NewRouter()
	router.Use(PanicRecovery(s.log, s.metrics))
	router.Use(RequestID)
	router.Use(RequestLogging(s.log))
	router.Use(RequestMetrics(s.metrics))
	router.Use(CORS)
	router.Use(DrainAndCloseRequest)

	router.Get("/health", s.handleHealth)
	if p.Registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}
	if p.MCP != nil {
		router.Group(func(r chi.Router) {
			r.Use(s.identity.middleware)
			r.Handle("/mcp", p.MCP)
			r.Handle("/mcp/*", p.MCP)
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity.middleware)

		// Reads (no API key, tsnet handles access)
		r.Get("/me", s.handleMe)
		r.Get("/stats", s.handleUserStats)
		r.Get("/data-stats", s.handleDataStats)
		r.Get("/modes", s.handleListModes)
		r.Get("/machines", s.handleListMachines)
		r.Get("/machines/{id}", s.handleGetMachine)
		r.Get("/machines/{id}/variants", s.handleListVariants)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/trackers", s.handleListTrackers)
		r.Get("/recommendations", s.handleRecommendation)

		// Writes (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(p.APIKey))
			if p.RateLimiter != nil && p.WritesPerMin > 0 {
				r.Use(RateLimit(p.RateLimiter, s.metrics, "writes", p.WritesPerMin))
			}
			if p.Idempotency != nil {
				r.Use(Idempotency(p.Idempotency, p.IdempotencyTTL, s.metrics, s.log))
			}

			r.Put("/me", s.handleUpdateProfile)
			r.Post("/machines", s.handleCreateMachine)
			r.Post("/machines/{id}/variants", s.handleCreateVariant)

			r.Post("/sessions", s.handleCreateSession)
			r.Post("/sessions/{id}/start", s.sessionAction(s.svc.StartSession))
			r.Post("/sessions/{id}/finish", s.sessionAction(s.svc.FinishSession))
			r.Post("/sessions/{id}/cancel", s.sessionAction(s.svc.CancelSession))
			r.Post("/sessions/{id}/suspend", s.sessionAction(s.svc.SuspendSession))
			r.Post("/sessions/{id}/resume", s.sessionAction(s.svc.ResumeSession))
			r.Post("/sessions/{id}/feedback", s.handleSessionFeedback)
			r.Post("/sessions/{id}/exercises", s.handlePlanExercise)
			r.Post("/completed-sessions", s.handleSaveCompleted)

			r.Put("/exercises/{id}", s.handleSaveExercise)
			r.Post("/exercises/{id}/complete", s.handleCompleteExercise)
			r.Post("/exercises/{id}/evaluate", s.handleEvaluateProgression)
			r.Post("/exercises/{id}/sets", s.handleCreateSet)
			r.Put("/sets/{id}", s.handleRecordSet)

			if s.alpha != nil {
				r.Post("/import/alpha", s.handleAlphaImport)
			}
		})
	})
	return router
}
