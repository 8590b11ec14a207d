package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/hirehub/job-board/internal/config"
	"github.com/hirehub/job-board/internal/job"
	"github.com/hirehub/job-board/internal/user"
)

func seedJob(t *testing.T, jobRepo *fakeJobRepo, companyName, title string) job.Job {
	t.Helper()
	j, err := jobRepo.CreateJob(&job.JobRq{
		Title:       title,
		CompanyName: companyName,
		Location:    "Remote",
		Category:    "Engineering",
		JobType:     "Full-time",
		Description: "<p>build things</p>",
	})
	require.NoError(t, err)

	return j
}

func seeker(email string) user.User {
	return user.User{ID: "seeker-" + email, Email: email, Username: "seeker", Role: user.RoleJobSeeker}
}

func recruiter(email, companyName string) user.User {
	return user.User{ID: "recruiter-" + email, Email: email, Username: "recruiter", Role: user.RoleRecruiter, CompanyName: companyName}
}

func TestJobsHandlerListsAndFilters(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	seedJob(t, jobRepo, "Acme", "Backend Engineer")
	seedJob(t, jobRepo, "Acme", "SRE")
	seedJob(t, jobRepo, "Globex", "Data Engineer")

	w := httptest.NewRecorder()
	JobsHandler(svr, jobRepo)(w, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Len(t, body["jobs"], 3)

	w = httptest.NewRecorder()
	JobsHandler(svr, jobRepo)(w, httptest.NewRequest(http.MethodGet, "/api/jobs?companyName=Acme", nil))
	body = decodeBody(t, w)
	require.Len(t, body["jobs"], 2)
}

func TestJobsHandlerCompaniesModeUsesCache(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	seedJob(t, jobRepo, "Acme", "Backend Engineer")
	seedJob(t, jobRepo, "Globex", "Data Engineer")

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		JobsHandler(svr, jobRepo)(w, httptest.NewRequest(http.MethodGet, "/api/jobs?mode=companies", nil))
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		require.ElementsMatch(t, []interface{}{"Acme", "Globex"}, body["companies"])
	}
	require.Equal(t, 1, jobRepo.companyNamesCalls, "repeat requests should be served from cache")
}

func TestCreateJobHandler(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{"jobTitle":"Backend Engineer","companyName":"Spoofed Inc","category":"Engineering","jobType":"Full-time","description":"<p>go</p><script>alert(1)</script>"}`))
	r.AddCookie(signOnCookie(t, svr, recruiter("rec@acme.com", "Acme")))
	CreateJobHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	created := body["job"].(map[string]interface{})
	require.Equal(t, "Acme", created["companyName"], "posting always belongs to the poster's company")
	require.NotContains(t, created["description"], "<script>")
	require.Equal(t, job.StatusActive, created["status"])
	require.NotEmpty(t, created["slug"])
	require.EqualValues(t, 0, created["applicants"])
	require.Empty(t, created["savedUsers"])
	require.Empty(t, created["appliedUsers"])
}

func TestCreateJobHandlerValidation(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	cookie := signOnCookie(t, svr, recruiter("rec@acme.com", "Acme"))

	for name, payload := range map[string]string{
		"missing title":    `{"category":"Engineering","jobType":"Full-time"}`,
		"missing category": `{"jobTitle":"Backend Engineer","jobType":"Full-time"}`,
		"missing job type": `{"jobTitle":"Backend Engineer","category":"Engineering"}`,
		"broken body":      `{`,
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(payload))
			r.AddCookie(cookie)
			CreateJobHandler(svr, jobRepo)(w, r)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateJobHandlerRequiresRecruiter(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{"jobTitle":"Backend Engineer"}`))
	CreateJobHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{"jobTitle":"Backend Engineer"}`))
	r.AddCookie(signOnCookie(t, svr, seeker("jane@example.com")))
	CreateJobHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateJobStatus(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	j := seedJob(t, jobRepo, "Acme", "Backend Engineer")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPatch, "/api/jobs?id="+j.ID, strings.NewReader(`{"status":"Closed"}`))
	r.AddCookie(signOnCookie(t, svr, recruiter("rec@acme.com", "Acme")))
	UpdateJobHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	updated, err := jobRepo.JobByID(j.ID)
	require.NoError(t, err)
	require.Equal(t, job.StatusClosed, updated.Status)
}

func TestUpdateJobStatusRejectsUnknownStatus(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	j := seedJob(t, jobRepo, "Acme", "Backend Engineer")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPatch, "/api/jobs?id="+j.ID, strings.NewReader(`{"status":"Archived"}`))
	r.AddCookie(signOnCookie(t, svr, recruiter("rec@acme.com", "Acme")))
	UpdateJobHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateJobStatusOwnership(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	j := seedJob(t, jobRepo, "Acme", "Backend Engineer")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPatch, "/api/jobs?id="+j.ID, strings.NewReader(`{"status":"Closed"}`))
	r.AddCookie(signOnCookie(t, svr, recruiter("rec@globex.com", "Globex")))
	UpdateJobHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusForbidden, w.Code)

	unchanged, err := jobRepo.JobByID(j.ID)
	require.NoError(t, err)
	require.Equal(t, job.StatusActive, unchanged.Status)
}

func TestUpdateJobStatusInvalidID(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPatch, "/api/jobs?id=not-a-ksuid", strings.NewReader(`{"status":"Closed"}`))
	r.AddCookie(signOnCookie(t, svr, recruiter("rec@acme.com", "Acme")))
	UpdateJobHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleSaveJob(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	j := seedJob(t, jobRepo, "Acme", "Backend Engineer")
	u := seeker("jane@example.com")
	cookie := signOnCookie(t, svr, u)

	toggle := func() map[string]interface{} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPatch, "/api/jobs", strings.NewReader(fmt.Sprintf(`{"id":%q,"userEmail":%q}`, j.ID, u.Email)))
		r.AddCookie(cookie)
		UpdateJobHandler(svr, jobRepo)(w, r)
		require.Equal(t, http.StatusOK, w.Code)
		return decodeBody(t, w)
	}

	body := toggle()
	require.Equal(t, true, body["saved"])
	got, err := jobRepo.JobByID(j.ID)
	require.NoError(t, err)
	require.Equal(t, []string{u.Email}, got.SavedUsers)

	body = toggle()
	require.Equal(t, false, body["saved"])
	got, err = jobRepo.JobByID(j.ID)
	require.NoError(t, err)
	require.Empty(t, got.SavedUsers, "a toggle pair should leave the saved set unchanged")
}

func TestToggleSaveJobIgnoresSpoofedEmail(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	j := seedJob(t, jobRepo, "Acme", "Backend Engineer")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPatch, "/api/jobs", strings.NewReader(fmt.Sprintf(`{"id":%q,"userEmail":"victim@example.com"}`, j.ID)))
	r.AddCookie(signOnCookie(t, svr, seeker("jane@example.com")))
	UpdateJobHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := jobRepo.JobByID(j.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"jane@example.com"}, got.SavedUsers, "only the signed-on user's saved set can change")
}

func TestApplyHandler(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	userRepo := newFakeUserRepo()
	u := registerSeeker(t, userRepo, "jane@example.com", "s3cret")
	j := seedJob(t, jobRepo, "Acme", "Backend Engineer")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPut, "/api/jobs", strings.NewReader(fmt.Sprintf(`{"id":%q,"userEmail":%q,"availability":"2 weeks","resume":"https://resumes.hirehub.test/jane.pdf"}`, j.ID, u.Email)))
	r.AddCookie(signOnCookie(t, svr, u))
	ApplyHandler(svr, jobRepo, userRepo)(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, true, body["applied"])

	got, err := jobRepo.JobByID(j.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Applicants)
	require.Equal(t, []string{u.Email}, got.AppliedUsers)

	applications, err := jobRepo.ApplicationsForJob(j.ID)
	require.NoError(t, err)
	require.Len(t, applications, 1)
	require.Equal(t, "2 weeks", applications[0].Availability)
	require.Equal(t, "https://resumes.hirehub.test/jane.pdf", applications[0].ResumeURL)

	stored, err := userRepo.UserByEmail(u.Email)
	require.NoError(t, err)
	require.Equal(t, "https://resumes.hirehub.test/jane.pdf", stored.ResumeURL, "resume from the application is kept on the profile")
}

func TestApplyHandlerOffPrefixResumeNotStoredOnProfile(t *testing.T) {
	svr := newTestServer(t, func(cfg *config.Config) {
		cfg.ResumeStorageURLPrefix = "https://resumes.hirehub.test"
	})
	jobRepo := newFakeJobRepo()
	userRepo := newFakeUserRepo()
	u := registerSeeker(t, userRepo, "jane@example.com", "s3cret")
	j := seedJob(t, jobRepo, "Acme", "Backend Engineer")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPut, "/api/jobs", strings.NewReader(fmt.Sprintf(`{"id":%q,"userEmail":%q,"resume":"https://elsewhere.test/x.pdf"}`, j.ID, u.Email)))
	r.AddCookie(signOnCookie(t, svr, u))
	ApplyHandler(svr, jobRepo, userRepo)(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, true, body["applied"])

	stored, err := userRepo.UserByEmail(u.Email)
	require.NoError(t, err)
	require.Empty(t, stored.ResumeURL, "off-prefix resume must not land on the profile")

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPut, "/api/jobs", strings.NewReader(fmt.Sprintf(`{"id":%q,"userEmail":%q,"resume":"https://resumes.hirehub.test/jane.pdf"}`, seedJob(t, jobRepo, "Acme", "SRE").ID, u.Email)))
	r.AddCookie(signOnCookie(t, svr, u))
	ApplyHandler(svr, jobRepo, userRepo)(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	stored, err = userRepo.UserByEmail(u.Email)
	require.NoError(t, err)
	require.Equal(t, "https://resumes.hirehub.test/jane.pdf", stored.ResumeURL)
}

func TestApplyHandlerReapplyIsNoop(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	userRepo := newFakeUserRepo()
	u := registerSeeker(t, userRepo, "jane@example.com", "s3cret")
	j := seedJob(t, jobRepo, "Acme", "Backend Engineer")
	cookie := signOnCookie(t, svr, u)

	apply := func() map[string]interface{} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/api/jobs", strings.NewReader(fmt.Sprintf(`{"id":%q,"userEmail":%q}`, j.ID, u.Email)))
		r.AddCookie(cookie)
		ApplyHandler(svr, jobRepo, userRepo)(w, r)
		require.Equal(t, http.StatusOK, w.Code)
		return decodeBody(t, w)
	}

	body := apply()
	require.Equal(t, true, body["applied"])
	body = apply()
	require.Equal(t, false, body["applied"])

	got, err := jobRepo.JobByID(j.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Applicants, "applicants must match the applied set size")
	require.Len(t, got.AppliedUsers, 1)
}

func TestApplyHandlerUnknownJob(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	userRepo := newFakeUserRepo()
	u := registerSeeker(t, userRepo, "jane@example.com", "s3cret")
	missing := seedJob(t, jobRepo, "Acme", "Backend Engineer")
	require.NoError(t, jobRepo.DeleteJob(missing.ID))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPut, "/api/jobs", strings.NewReader(fmt.Sprintf(`{"id":%q,"userEmail":%q}`, missing.ID, u.Email)))
	r.AddCookie(signOnCookie(t, svr, u))
	ApplyHandler(svr, jobRepo, userRepo)(w, r)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteJobHandler(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	j := seedJob(t, jobRepo, "Acme", "Backend Engineer")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/api/jobs?id="+j.ID, nil)
	r.AddCookie(signOnCookie(t, svr, recruiter("rec@globex.com", "Globex")))
	DeleteJobHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodDelete, "/api/jobs?id="+j.ID, nil)
	r.AddCookie(signOnCookie(t, svr, recruiter("rec@acme.com", "Acme")))
	DeleteJobHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := jobRepo.JobByID(j.ID)
	require.Error(t, err)

	// deleting again reports not found
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodDelete, "/api/jobs?id="+j.ID, nil)
	r.AddCookie(signOnCookie(t, svr, recruiter("rec@acme.com", "Acme")))
	DeleteJobHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobBySlugHandler(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	j := seedJob(t, jobRepo, "Acme", "Backend Engineer")

	router := mux.NewRouter()
	router.HandleFunc("/api/jobs/{slug}", JobBySlugHandler(svr, jobRepo)).Methods(http.MethodGet)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs/"+j.Slug, nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	got := body["job"].(map[string]interface{})
	require.Equal(t, j.ID, got["id"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs/no-such-job", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplicationsForJobHandler(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	j := seedJob(t, jobRepo, "Acme", "Backend Engineer")
	_, err := jobRepo.ApplyToJob(j.ID, "jane@example.com", "immediate", "")
	require.NoError(t, err)

	router := mux.NewRouter()
	router.HandleFunc("/api/jobs/{id}/applications", ApplicationsForJobHandler(svr, jobRepo)).Methods(http.MethodGet)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/jobs/"+j.ID+"/applications", nil)
	r.AddCookie(signOnCookie(t, svr, recruiter("rec@acme.com", "Acme")))
	router.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Len(t, body["applications"], 1)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/jobs/"+j.ID+"/applications", nil)
	r.AddCookie(signOnCookie(t, svr, recruiter("rec@globex.com", "Globex")))
	router.ServeHTTP(w, r)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestJobStatsHandler(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	u := seeker("jane@example.com")
	j1 := seedJob(t, jobRepo, "Acme", "Backend Engineer")
	j2 := seedJob(t, jobRepo, "Globex", "Data Engineer")
	_, err := jobRepo.ApplyToJob(j1.ID, u.Email, "", "")
	require.NoError(t, err)
	_, err = jobRepo.ToggleSaveJob(j1.ID, u.Email)
	require.NoError(t, err)
	_, err = jobRepo.ToggleSaveJob(j2.ID, u.Email)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/job-stats", nil)
	r.AddCookie(signOnCookie(t, svr, u))
	JobStatsHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	stats := body["stats"].(map[string]interface{})
	require.EqualValues(t, 1, stats["appliedJobs"])
	require.EqualValues(t, 2, stats["savedJobs"])
	require.EqualValues(t, 0, stats["interviews"])
}

func TestAppliedAndSavedJobsHandlers(t *testing.T) {
	svr := newTestServer(t)
	jobRepo := newFakeJobRepo()
	u := seeker("jane@example.com")
	j1 := seedJob(t, jobRepo, "Acme", "Backend Engineer")
	j2 := seedJob(t, jobRepo, "Globex", "Data Engineer")
	_, err := jobRepo.ApplyToJob(j1.ID, u.Email, "", "")
	require.NoError(t, err)
	_, err = jobRepo.ToggleSaveJob(j2.ID, u.Email)
	require.NoError(t, err)
	cookie := signOnCookie(t, svr, u)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/applied-jobs", nil)
	r.AddCookie(cookie)
	AppliedJobsHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	jobs := body["jobs"].([]interface{})
	require.Len(t, jobs, 1)
	require.Equal(t, j1.ID, jobs[0].(map[string]interface{})["id"])

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/saved-jobs", nil)
	r.AddCookie(cookie)
	SavedJobsHandler(svr, jobRepo)(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	jobs = body["jobs"].([]interface{})
	require.Len(t, jobs, 1)
	require.Equal(t, j2.ID, jobs[0].(map[string]interface{})["id"])

	w = httptest.NewRecorder()
	SavedJobsHandler(svr, jobRepo)(w, httptest.NewRequest(http.MethodGet, "/api/saved-jobs", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
