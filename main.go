package main

import (
	"log"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"github.com/hirehub/job-board/internal/config"
	"github.com/hirehub/job-board/internal/database"
	"github.com/hirehub/job-board/internal/email"
	"github.com/hirehub/job-board/internal/handler"
	"github.com/hirehub/job-board/internal/job"
	"github.com/hirehub/job-board/internal/server"
	"github.com/hirehub/job-board/internal/user"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config: %+v", err)
	}
	conn, err := database.GetDbConn(
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)
	emailClient, err := email.NewClient(cfg.EmailAPIKey, cfg.AdminEmail, cfg.NoReplyEmail, cfg.SiteName)
	if err != nil {
		log.Fatalf("unable to initialise email client: %v", err)
	}
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)

	svr := server.NewServer(
		cfg,
		conn,
		mux.NewRouter(),
		emailClient,
		sessionStore,
	)

	jobRepo := job.NewRepository(conn)
	userRepo := user.NewRepository(conn)

	svr.RegisterRoute("/health", handler.HealthHandler(svr), []string{"GET"})

	svr.RegisterRoute("/api/auth/register", handler.RegisterHandler(svr, userRepo), []string{"POST"})
	svr.RegisterRoute("/api/auth/login", handler.LoginHandler(svr, userRepo), []string{"POST"})
	svr.RegisterRoute("/api/auth/logout", handler.LogoutHandler(svr), []string{"POST"})
	svr.RegisterRoute("/api/auth/me", handler.MeHandler(svr, userRepo), []string{"GET"})

	svr.RegisterRoute("/api/jobs", handler.JobsHandler(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/api/jobs", handler.CreateJobHandler(svr, jobRepo), []string{"POST"})
	svr.RegisterRoute("/api/jobs", handler.UpdateJobHandler(svr, jobRepo), []string{"PATCH"})
	svr.RegisterRoute("/api/jobs", handler.ApplyHandler(svr, jobRepo, userRepo), []string{"PUT"})
	svr.RegisterRoute("/api/jobs", handler.DeleteJobHandler(svr, jobRepo), []string{"DELETE"})
	svr.RegisterRoute("/api/jobs/{slug}", handler.JobBySlugHandler(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/api/jobs/{id}/applications", handler.ApplicationsForJobHandler(svr, jobRepo), []string{"GET"})

	svr.RegisterRoute("/api/job-stats", handler.JobStatsHandler(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/api/applied-jobs", handler.AppliedJobsHandler(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/api/saved-jobs", handler.SavedJobsHandler(svr, jobRepo), []string{"GET"})

	svr.RegisterRoute("/api/jobseeker/update", handler.UpdateJobSeekerProfileHandler(svr, userRepo), []string{"POST"})
	svr.RegisterRoute("/api/company/update", handler.UpdateCompanyProfileHandler(svr, userRepo), []string{"POST"})

	svr.RegisterRoute("/api/internal/recount-applicants", handler.RecountApplicantsHandler(svr, jobRepo), []string{"POST"})

	log.Fatal(svr.Run())
}
