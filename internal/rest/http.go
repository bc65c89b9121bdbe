package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Server struct {
	log     *logrus.Entry
	app     App
	address string
	version string
}

func NewServer(log *logrus.Logger, app App, address, version string) *Server {
	return &Server{
		log:     log.WithField("component", "rest"),
		app:     app,
		address: address,
		version: version,
	}
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("err during shutdown: %v", err)
		}
	}()
	s.log.Infof("listening on %s", s.address)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/version", s.versionHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Post("/auth/login", s.loginHandler)
			r.Get("/auth/google/callback", s.googleCallbackHandler)
			r.Group(func(r chi.Router) {
				r.Use(s.jwtAuth)
				r.Get("/auth/google", s.googleConnectHandler)
				r.Get("/profile", s.profileHandler)
				r.Post("/profile/password", s.changePasswordHandler)
				r.Get("/meetings/freebusy", s.freeBusyHandler)
				r.Post("/meetings", s.bookMeetingHandler)
				r.Get("/meetings", s.getMeetingsHandler)
				r.Get("/meetings/{id}", s.getMeetingHandler)
				r.Post("/questions", s.askQuestionHandler)
				r.Get("/questions", s.getQuestionsHandler)
				r.Get("/questions/{id}", s.getQuestionHandler)
				r.Post("/questions/{id}/messages", s.replyHandler)
				r.Patch("/questions/{id}/status", s.questionStatusHandler)
				r.Route("/admin", func(r chi.Router) {
					r.Use(s.adminOnly)
					r.Post("/projects", s.createProjectHandler)
					r.Get("/projects", s.getProjectsHandler)
					r.Post("/projects/{id}/staff", s.addStaffHandler)
					r.Post("/projects/{id}/clients", s.inviteClientHandler)
				})
			})
		})
	})
	return r
}
