package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/hirehub/job-board/internal/middleware"
	"github.com/hirehub/job-board/internal/server"
	"github.com/hirehub/job-board/internal/user"
)

// UpdateJobSeekerProfileHandler merges the submitted fields into the
// signed-on seeker's profile. Empty fields leave the stored value alone.
func UpdateJobSeekerProfileHandler(svr server.Server, userRepo userGetSaver) http.HandlerFunc {
	return middleware.UserAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
			if err != nil {
				svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "not signed on"})
				return
			}
			var rq user.JobSeekerProfileRq
			if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request body"})
				return
			}
			rq.UserID = claims.UserID
			rq.Bio = svr.SanitizeHTML(rq.Bio)
			if rq.ResumeURL != "" {
				if ok, reason := validResumeURL(svr, rq.ResumeURL); !ok {
					svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": reason})
					return
				}
			}
			if err := userRepo.UpdateJobSeekerProfile(rq); err != nil {
				if err == sql.ErrNoRows {
					svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "user not found"})
					return
				}
				svr.Log(err, "unable to update job seeker profile")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			u, err := userRepo.UserByID(claims.UserID)
			if err != nil {
				svr.Log(err, "unable to reload user after profile update")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": u})
		},
	)
}

// UpdateCompanyProfileHandler merges the submitted fields into the
// signed-on recruiter's company profile.
func UpdateCompanyProfileHandler(svr server.Server, userRepo userGetSaver) http.HandlerFunc {
	return middleware.RecruiterAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
			if err != nil {
				svr.JSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "error": "not signed on"})
				return
			}
			var rq user.RecruiterProfileRq
			if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "invalid request body"})
				return
			}
			rq.UserID = claims.UserID
			rq.CompanyDescription = svr.SanitizeHTML(rq.CompanyDescription)
			if rq.TeamSize != "" && !user.ValidTeamSize(rq.TeamSize) {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "teamSize must be one of " + strings.Join(user.TeamSizeBuckets, ", ")})
				return
			}
			if rq.FoundedYear != 0 && (rq.FoundedYear < 1800 || rq.FoundedYear > time.Now().Year()) {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "foundedYear is out of range"})
				return
			}
			if err := userRepo.UpdateRecruiterProfile(rq); err != nil {
				if err == sql.ErrNoRows {
					svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "user not found"})
					return
				}
				svr.Log(err, "unable to update company profile")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			u, err := userRepo.UserByID(claims.UserID)
			if err != nil {
				svr.Log(err, "unable to reload user after company update")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": u})
		},
	)
}

// validResumeURL checks the URL points at the configured storage host and
// HEAD-resolves to a PDF.
func validResumeURL(svr server.Server, resumeURL string) (bool, string) {
	prefix := svr.GetConfig().ResumeStorageURLPrefix
	if prefix != "" && !strings.HasPrefix(resumeURL, prefix) {
		return false, "resume must be uploaded to the resume storage host"
	}
	client := &http.Client{Timeout: 5 * time.Second}
	res, err := client.Head(resumeURL)
	if err != nil {
		return false, "resume url is not reachable"
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return false, "resume url is not reachable"
	}
	if !strings.HasPrefix(res.Header.Get("Content-Type"), "application/pdf") {
		return false, "resume must be a pdf"
	}
	return true, ""
}
