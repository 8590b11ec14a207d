package handler

import (
	"net/http"

	"github.com/hirehub/job-board/internal/middleware"
	"github.com/hirehub/job-board/internal/server"
)

type applicantRecounter interface {
	RecountApplicants() (int64, error)
}

// RecountApplicantsHandler repairs applicants counters that no longer match
// the application set. Machine token protected, intended for cron.
func RecountApplicantsHandler(svr server.Server, jobRepo applicantRecounter) http.HandlerFunc {
	return middleware.MachineAuthenticatedMiddleware(
		svr.GetConfig().MachineToken,
		func(w http.ResponseWriter, r *http.Request) {
			corrected, err := jobRepo.RecountApplicants()
			if err != nil {
				svr.Log(err, "unable to recount applicants")
				svr.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal error"})
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "corrected": corrected})
		},
	)
}
