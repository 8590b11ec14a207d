package handler

import (
	"net/http"

	"github.com/hirehub/job-board/internal/job"
	"github.com/hirehub/job-board/internal/server"
	"github.com/hirehub/job-board/internal/user"
)

type jobRepository interface {
	CreateJob(rq *job.JobRq) (job.Job, error)
	JobsByCompany(companyName string) ([]*job.Job, error)
	CompanyNames() ([]string, error)
	JobByID(jobID string) (*job.Job, error)
	JobBySlug(jobSlug string) (*job.Job, error)
	UpdateJobStatus(jobID, status string) error
	DeleteJob(jobID string) error
	ToggleSaveJob(jobID, userEmail string) (bool, error)
	ApplyToJob(jobID, userEmail, availability, resumeURL string) (bool, error)
	AppliedJobsForUser(userEmail string) ([]*job.Job, error)
	SavedJobsForUser(userEmail string) ([]*job.Job, error)
	StatsForUser(userEmail string) (job.Stats, error)
	ApplicationsForJob(jobID string) ([]job.Application, error)
}

type userGetter interface {
	UserByEmail(email string) (user.User, error)
	UserByID(id string) (user.User, error)
	RecruiterByCompanyName(companyName string) (user.User, error)
}

type userSaver interface {
	CreateUser(username, email, passwordHash, role string) (user.User, error)
	UpdateJobSeekerProfile(rq user.JobSeekerProfileRq) error
	UpdateRecruiterProfile(rq user.RecruiterProfileRq) error
	UpdateResumeURL(email, resumeURL string) error
}

type userGetSaver interface {
	userGetter
	userSaver
}

func HealthHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svr.Conn != nil {
			if err := svr.Conn.Ping(); err != nil {
				svr.Log(err, "health check unable to ping database")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "database unreachable"})
				return
			}
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": "ok"})
	}
}
