package handlers

import (
	"net/http"

	"github.com/ad/go-workshop-core/internal/config"
	"github.com/ad/go-workshop-core/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP surface delegates to.
type Deps struct {
	Progression *services.ProgressionEngine
	Guard       *services.WorkshopLockGuard
	Assessments *services.AssessmentService
	Reports     *services.ReportService
	Reset       *services.ResetEngine
	Invites     *services.InviteEngine
	Messages    MessageSource
	Notifier    services.AdminNotifier
	Gatherer    prometheus.Gatherer
}

type Server struct {
	cfg         config.Config
	progression *services.ProgressionEngine
	guard       *services.WorkshopLockGuard
	assessments *services.AssessmentService
	reports     *services.ReportService
	reset       *services.ResetEngine
	invites     *services.InviteEngine
	messages    MessageSource
	notifier    services.AdminNotifier
	gatherer    prometheus.Gatherer
}

func NewServer(cfg config.Config, deps Deps) *Server {
	s := &Server{
		cfg:         cfg,
		progression: deps.Progression,
		guard:       deps.Guard,
		assessments: deps.Assessments,
		reports:     deps.Reports,
		reset:       deps.Reset,
		invites:     deps.Invites,
		messages:    deps.Messages,
		notifier:    deps.Notifier,
		gatherer:    deps.Gatherer,
	}
	if s.notifier == nil {
		s.notifier = services.LogNotifier{}
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger, s.recoverPanic)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.With(s.authMiddleware).Get("/progress/{appType}", s.handleGetProgress)
	r.With(s.authMiddleware).Post("/progress/{appType}", s.handleProgressEvent)
	r.With(s.authMiddleware).Post("/progress/{appType}/video", s.handleVideoProgress)
	r.With(s.authMiddleware).Get("/progress/{appType}/status", s.handleLockStatus)

	r.With(s.authMiddleware).Get("/assessments/{appType}", s.handleListAssessments)
	r.With(s.authMiddleware).Post("/assessments/{appType}", s.handleSaveAssessment)

	r.With(s.authMiddleware, s.requireManager).Post("/admin/users/{userID}/reset", s.handleResetUser)
	r.With(s.authMiddleware, s.requireManager).Get("/admin/users/{userID}/reports", s.handleListReports)
	r.With(s.authMiddleware, s.requireManager).Post("/admin/users/{userID}/reports/{reportType}", s.handleStoreReport)

	// Verification runs before the invitee has an account.
	r.Get("/invites/{code}", s.handleVerifyInvite)
	r.With(s.authMiddleware).Post("/invites", s.handleIssueInvite)
	r.With(s.authMiddleware).Get("/invites", s.handleListInvites)
	r.With(s.authMiddleware).Delete("/invites/{code}", s.handleRevokeInvite)
	r.With(s.authMiddleware).Post("/invites/{code}/redeem", s.handleRedeemInvite)

	return r
}
