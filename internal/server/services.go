package server

import (
	"time"

	"github.com/ziadkadry99/examdesk/internal/attempt"
	"github.com/ziadkadry99/examdesk/internal/audit"
	"github.com/ziadkadry99/examdesk/internal/db"
	"github.com/ziadkadry99/examdesk/internal/exam"
	"github.com/ziadkadry99/examdesk/internal/grading"
	"github.com/ziadkadry99/examdesk/internal/highlight"
	"github.com/ziadkadry99/examdesk/internal/logger"
	"github.com/ziadkadry99/examdesk/internal/passage"
)

// Services bundles the feature stores and services that share one database.
type Services struct {
	Audit    *audit.Store
	Exams    *exam.Store
	Attempts *attempt.Service
	Grader   *grading.Grader
	Renderer *passage.Renderer
	Engine   *highlight.Engine
}

// NewServices builds every feature service on top of database.
func NewServices(database *db.DB, engineOpts highlight.Options, scrollDelay time.Duration, log *logger.Logger) *Services {
	log = logger.OrNop(log)

	trail := audit.NewStore(database)
	exams := exam.NewStore(database)
	attempts := attempt.NewStore(database)
	engine := highlight.NewEngine(log.Component("highlight"), engineOpts)
	renderer := passage.NewRenderer(log.Component("renderer"), engine, scrollDelay)

	return &Services{
		Audit:    trail,
		Exams:    exams,
		Attempts: attempt.NewService(attempts, exams, renderer, engine, trail, log.Component("attempts")),
		Grader:   grading.NewGrader(exams, attempts, trail, log.Component("grading")),
		Renderer: renderer,
		Engine:   engine,
	}
}

// Mount registers all feature routes on the server's router.
func (s *Server) Mount(svc *Services) {
	r := s.router

	audit.RegisterRoutes(r, svc.Audit)
	exam.RegisterRoutes(r, svc.Exams, svc.Renderer)
	attempt.RegisterRoutes(r, svc.Attempts)
	grading.RegisterRoutes(r, svc.Grader)
}
