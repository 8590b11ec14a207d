package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/segmentio/ksuid"

	"github.com/hirehub/job-board/internal/email"
	"github.com/hirehub/job-board/internal/job"
	"github.com/hirehub/job-board/internal/middleware"
	"github.com/hirehub/job-board/internal/server"
)

// JobsHandler lists jobs newest first. `?companyName=` filters by exact
// company, `?mode=companies` returns only the distinct company names (cached).
func JobsHandler(svr server.Server, jobRepo jobRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mode") == "companies" {
			if cached, ok := svr.CacheGet(server.CacheKeyCompanyNames); ok {
				var names []string
				if err := json.Unmarshal(cached, &names); err == nil {
					svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "companies": names})
					return
				}
			}
			names, err := jobRepo.CompanyNames()
			if err != nil {
				svr.Log(err, "unable to retrieve company names")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			if buf, err := json.Marshal(names); err == nil {
				if err := svr.CacheSet(server.CacheKeyCompanyNames, buf); err != nil {
					svr.Log(err, "unable to cache company names")
				}
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "companies": names})
			return
		}
		jobs, err := jobRepo.JobsByCompany(r.URL.Query().Get("companyName"))
		if err != nil {
			svr.Log(err, "unable to retrieve jobs")
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "jobs": jobs})
	}
}

// CreateJobHandler lets a signed-on recruiter post a job under their own
// company. Rich-text fields are sanitized before they hit storage.
func CreateJobHandler(svr server.Server, jobRepo jobRepository) http.HandlerFunc {
	return middleware.RecruiterAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
			if err != nil {
				svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "not signed on"})
				return
			}
			var rq job.JobRq
			if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request body"})
				return
			}
			rq.Title = strings.TrimSpace(rq.Title)
			if rq.Title == "" || rq.Category == "" || rq.JobType == "" {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "jobTitle, category and jobType are required"})
				return
			}
			if claims.CompanyName == "" {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "complete your company profile before posting"})
				return
			}
			// postings always belong to the poster's company
			rq.CompanyName = claims.CompanyName
			rq.Description = svr.SanitizeHTML(rq.Description)
			rq.Requirements = svr.SanitizeHTML(rq.Requirements)
			created, err := jobRepo.CreateJob(&rq)
			if err != nil {
				svr.Log(err, "unable to create job")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			if err := svr.CacheDelete(server.CacheKeyCompanyNames); err != nil {
				svr.Log(err, "unable to invalidate company names cache")
			}
			svr.JSON(w, http.StatusCreated, map[string]interface{}{"success": true, "job": created})
		},
	)
}

// UpdateJobHandler serves two PATCH shapes. With `?id=` it is a recruiter
// status update restricted to the owning company. Without it, the body
// carries {id, userEmail} and the handler toggles the user's saved state.
func UpdateJobHandler(svr server.Server, jobRepo jobRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if jobID := r.URL.Query().Get("id"); jobID != "" {
			updateJobStatus(svr, jobRepo, jobID, w, r)
			return
		}
		toggleSaveJob(svr, jobRepo, w, r)
	}
}

func updateJobStatus(svr server.Server, jobRepo jobRepository, jobID string, w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
	if err != nil {
		svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "not signed on"})
		return
	}
	if !claims.IsRecruiter() {
		svr.JSON(w, http.StatusForbidden, map[string]interface{}{"success": false, "error": "recruiter account required"})
		return
	}
	if _, err := ksuid.Parse(jobID); err != nil {
		svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid job id"})
		return
	}
	var rq job.StatusRq
	if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
		svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request body"})
		return
	}
	if !job.ValidStatus(rq.Status) {
		svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": fmt.Sprintf("status must be %s or %s", job.StatusActive, job.StatusClosed)})
		return
	}
	existing, err := jobRepo.JobByID(jobID)
	if err == sql.ErrNoRows {
		svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "job not found"})
		return
	}
	if err != nil {
		svr.Log(err, "unable to load job for status update")
		svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
		return
	}
	if existing.CompanyName != claims.CompanyName {
		svr.JSON(w, http.StatusForbidden, map[string]interface{}{"success": false, "error": "job belongs to another company"})
		return
	}
	if err := jobRepo.UpdateJobStatus(jobID, rq.Status); err != nil {
		if err == sql.ErrNoRows {
			svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "job not found"})
			return
		}
		svr.Log(err, "unable to update job status")
		svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
		return
	}
	svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "status updated", "status": rq.Status})
}

func toggleSaveJob(svr server.Server, jobRepo jobRepository, w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
	if err != nil {
		svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "not signed on"})
		return
	}
	var rq job.SaveRq
	if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
		svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request body"})
		return
	}
	if rq.ID == "" {
		svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "id is required"})
		return
	}
	if _, err := ksuid.Parse(rq.ID); err != nil {
		svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid job id"})
		return
	}
	// only the signed-on user's own saved set can be changed
	userEmail := claims.Email
	saved, err := jobRepo.ToggleSaveJob(rq.ID, userEmail)
	if err == sql.ErrNoRows {
		svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "job not found"})
		return
	}
	if err != nil {
		svr.Log(err, "unable to toggle saved job")
		svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
		return
	}
	message := "job removed from saved"
	if saved {
		message = "job saved"
	}
	svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "saved": saved, "message": message})
}

// ApplyHandler records an application for the signed-on seeker. Re-applying
// is a no-op and is reported as such. When the payload carries a resume URL
// it is also stored on the user's profile for next time.
func ApplyHandler(svr server.Server, jobRepo jobRepository, userRepo userGetSaver) http.HandlerFunc {
	return middleware.UserAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
			if err != nil {
				svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "not signed on"})
				return
			}
			var rq job.ApplyRq
			if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request body"})
				return
			}
			if rq.ID == "" {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "id is required"})
				return
			}
			if _, err := ksuid.Parse(rq.ID); err != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid job id"})
				return
			}
			userEmail := claims.Email
			u, err := userRepo.UserByEmail(userEmail)
			if err == sql.ErrNoRows {
				svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "user not found"})
				return
			}
			if err != nil {
				svr.Log(err, "unable to load user on apply")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			resumeURL := rq.Resume
			if resumeURL == "" {
				resumeURL = u.ResumeURL
			}
			applied, err := jobRepo.ApplyToJob(rq.ID, userEmail, rq.Availability, resumeURL)
			if err == sql.ErrNoRows {
				svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "job not found"})
				return
			}
			if err != nil {
				svr.Log(err, "unable to apply to job")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			if !applied {
				svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "applied": false, "message": "already applied to this job"})
				return
			}
			if rq.Resume != "" && rq.Resume != u.ResumeURL {
				// only resumes on the storage host get copied to the profile
				if prefix := svr.GetConfig().ResumeStorageURLPrefix; prefix != "" && !strings.HasPrefix(rq.Resume, prefix) {
					svr.Log(fmt.Errorf("resume url %q is not on the storage host", rq.Resume), "skipping profile resume update")
				} else if err := userRepo.UpdateResumeURL(userEmail, rq.Resume); err != nil {
					svr.Log(err, "unable to store resume url on profile")
				}
			}
			sendApplicationEmails(svr, jobRepo, userRepo, rq.ID, u.Username, userEmail)
			svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "applied": true, "message": "application submitted"})
		},
	)
}

// best effort, failures are logged and never surfaced to the applicant
func sendApplicationEmails(svr server.Server, jobRepo jobRepository, userRepo userGetter, jobID, username, userEmail string) {
	j, err := jobRepo.JobByID(jobID)
	if err != nil {
		svr.Log(err, "unable to load job for application emails")
		return
	}
	from := email.Address{Name: svr.GetEmail().DefaultSenderName(), Email: svr.GetEmail().NoReplySenderAddress()}
	replyTo := email.Address{Email: svr.GetEmail().SupportSenderAddress()}
	err = svr.GetEmail().SendEmail(
		from,
		email.Address{Name: username, Email: userEmail},
		replyTo,
		fmt.Sprintf("Application received: %s at %s", j.Title, j.CompanyName),
		fmt.Sprintf("Hi %s,\n\nYour application for %s at %s has been received. The recruiter will review it and get back to you.\n\nView the posting: %s%s/jobs/%s\n", username, j.Title, j.CompanyName, svr.GetConfig().URLProtocol, svr.GetConfig().SiteHost, j.Slug),
	)
	if err != nil {
		svr.Log(err, "unable to send application confirmation email")
	}
	rec, err := userRepo.RecruiterByCompanyName(j.CompanyName)
	if err != nil {
		svr.Log(err, "unable to resolve recruiter for application notification")
		return
	}
	err = svr.GetEmail().SendEmail(
		from,
		email.Address{Name: rec.Username, Email: rec.Email},
		replyTo,
		fmt.Sprintf("New application: %s", j.Title),
		fmt.Sprintf("%s applied to your posting %s. Review all applications on your dashboard.\n", userEmail, j.Title),
	)
	if err != nil {
		svr.Log(err, "unable to send application notification email")
	}
}

// DeleteJobHandler removes a posting owned by the signed-on recruiter's
// company along with its saved and application rows.
func DeleteJobHandler(svr server.Server, jobRepo jobRepository) http.HandlerFunc {
	return middleware.RecruiterAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
			if err != nil {
				svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "not signed on"})
				return
			}
			jobID := r.URL.Query().Get("id")
			if jobID == "" {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "id is required"})
				return
			}
			if _, err := ksuid.Parse(jobID); err != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid job id"})
				return
			}
			existing, err := jobRepo.JobByID(jobID)
			if err == sql.ErrNoRows {
				svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "job not found"})
				return
			}
			if err != nil {
				svr.Log(err, "unable to load job for delete")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			if existing.CompanyName != claims.CompanyName {
				svr.JSON(w, http.StatusForbidden, map[string]interface{}{"success": false, "error": "job belongs to another company"})
				return
			}
			if err := jobRepo.DeleteJob(jobID); err != nil {
				if err == sql.ErrNoRows {
					svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "job not found"})
					return
				}
				svr.Log(err, "unable to delete job")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			if err := svr.CacheDelete(server.CacheKeyCompanyNames); err != nil {
				svr.Log(err, "unable to invalidate company names cache")
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "job deleted"})
		},
	)
}

// JobBySlugHandler returns a single job by its URL slug.
func JobBySlugHandler(svr server.Server, jobRepo jobRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		j, err := jobRepo.JobBySlug(vars["slug"])
		if err == sql.ErrNoRows {
			svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "job not found"})
			return
		}
		if err != nil {
			svr.Log(err, "unable to load job by slug")
			svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "job": j})
	}
}

// ApplicationsForJobHandler lists a posting's applications for the
// recruiter that owns it.
func ApplicationsForJobHandler(svr server.Server, jobRepo jobRepository) http.HandlerFunc {
	return middleware.RecruiterAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
			if err != nil {
				svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "not signed on"})
				return
			}
			jobID := mux.Vars(r)["id"]
			if _, err := ksuid.Parse(jobID); err != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid job id"})
				return
			}
			j, err := jobRepo.JobByID(jobID)
			if err == sql.ErrNoRows {
				svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "job not found"})
				return
			}
			if err != nil {
				svr.Log(err, "unable to load job for applications listing")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			if j.CompanyName != claims.CompanyName {
				svr.JSON(w, http.StatusForbidden, map[string]interface{}{"success": false, "error": "job belongs to another company"})
				return
			}
			applications, err := jobRepo.ApplicationsForJob(jobID)
			if err != nil {
				svr.Log(err, "unable to list applications")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "applications": applications})
		},
	)
}

// JobStatsHandler returns the signed-on seeker's dashboard counters.
func JobStatsHandler(svr server.Server, jobRepo jobRepository) http.HandlerFunc {
	return middleware.UserAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
			if err != nil {
				svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "not signed on"})
				return
			}
			stats, err := jobRepo.StatsForUser(claims.Email)
			if err != nil {
				svr.Log(err, "unable to compute job stats")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "stats": stats})
		},
	)
}

// AppliedJobsHandler lists the jobs the signed-on user has applied to.
func AppliedJobsHandler(svr server.Server, jobRepo jobRepository) http.HandlerFunc {
	return userJobSetHandler(svr, "unable to list applied jobs", func(userEmail string) ([]*job.Job, error) {
		return jobRepo.AppliedJobsForUser(userEmail)
	})
}

// SavedJobsHandler lists the jobs the signed-on user has saved.
func SavedJobsHandler(svr server.Server, jobRepo jobRepository) http.HandlerFunc {
	return userJobSetHandler(svr, "unable to list saved jobs", func(userEmail string) ([]*job.Job, error) {
		return jobRepo.SavedJobsForUser(userEmail)
	})
}

func userJobSetHandler(svr server.Server, errMsg string, list func(userEmail string) ([]*job.Job, error)) http.HandlerFunc {
	return middleware.UserAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
			if err != nil {
				svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "not signed on"})
				return
			}
			jobs, err := list(claims.Email)
			if err != nil {
				svr.Log(err, errMsg)
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "jobs": jobs})
		},
	)
}
