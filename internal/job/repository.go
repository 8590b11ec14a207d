package job

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"github.com/segmentio/ksuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

const jobSelect = `SELECT j.id, j.company_name, j.company_logo_url, j.title, j.location, j.category, j.job_type, j.description, j.requirements, j.salary_min, j.salary_max, j.status, j.slug, j.applicants, j.created_at, j.updated_at,
	COALESCE(array_remove(array_agg(DISTINCT s.user_email), NULL), '{}') AS saved_users,
	COALESCE(array_remove(array_agg(DISTINCT a.user_email), NULL), '{}') AS applied_users
	FROM job j
	LEFT JOIN job_saved s ON s.job_id = j.id
	LEFT JOIN job_application a ON a.job_id = j.id`

func (r *Repository) CreateJob(rq *JobRq) (Job, error) {
	jobID, err := ksuid.NewRandom()
	if err != nil {
		return Job{}, err
	}
	now := time.Now().UTC()
	j := Job{
		ID:             jobID.String(),
		CompanyName:    rq.CompanyName,
		CompanyLogoURL: rq.CompanyLogoURL,
		Title:          rq.Title,
		Location:       rq.Location,
		Category:       rq.Category,
		JobType:        rq.JobType,
		Description:    rq.Description,
		Requirements:   rq.Requirements,
		SalaryMin:      rq.SalaryMin,
		SalaryMax:      rq.SalaryMax,
		Status:         StatusActive,
		Slug:           slug.Make(fmt.Sprintf("%s %s %d", rq.Title, rq.CompanyName, now.Unix())),
		Applicants:     0,
		SavedUsers:     []string{},
		AppliedUsers:   []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
		TimeAgo:        humanize.Time(now),
	}
	_, err = r.db.Exec(
		`INSERT INTO job (id, company_name, company_logo_url, title, location, category, job_type, description, requirements, salary_min, salary_max, status, slug, applicants, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 0, $14, $14)`,
		j.ID,
		j.CompanyName,
		j.CompanyLogoURL,
		j.Title,
		j.Location,
		j.Category,
		j.JobType,
		j.Description,
		j.Requirements,
		j.SalaryMin,
		j.SalaryMax,
		j.Status,
		j.Slug,
		now,
	)
	if err != nil {
		return Job{}, err
	}

	return j, nil
}

// JobsByCompany returns all jobs, newest first, optionally filtered by exact
// company name match. An empty companyName returns everything.
func (r *Repository) JobsByCompany(companyName string) ([]*Job, error) {
	jobs := []*Job{}
	rows, err := r.db.Query(
		jobSelect+` WHERE ($1 = '' OR j.company_name = $1) GROUP BY j.id ORDER BY j.created_at DESC`,
		companyName,
	)
	if err == sql.ErrNoRows {
		return jobs, nil
	}
	if err != nil {
		return jobs, err
	}
	defer rows.Close()
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

// CompanyNames returns the distinct set of companies with at least one posting.
func (r *Repository) CompanyNames() ([]string, error) {
	names := []string{}
	rows, err := r.db.Query(`SELECT DISTINCT company_name FROM job ORDER BY company_name ASC`)
	if err == sql.ErrNoRows {
		return names, nil
	}
	if err != nil {
		return names, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return names, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

func (r *Repository) JobByID(jobID string) (*Job, error) {
	row := r.db.QueryRow(jobSelect+` WHERE j.id = $1 GROUP BY j.id`, jobID)
	return scanJob(row)
}

func (r *Repository) JobBySlug(jobSlug string) (*Job, error) {
	row := r.db.QueryRow(jobSelect+` WHERE j.slug = $1 GROUP BY j.id`, jobSlug)
	return scanJob(row)
}

// UpdateJobStatus sets the job status and stamps updated_at.
// Returns sql.ErrNoRows when the job does not exist.
func (r *Repository) UpdateJobStatus(jobID, status string) error {
	res, err := r.db.Exec(`UPDATE job SET status = $2, updated_at = NOW() WHERE id = $1`, jobID, status)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteJob removes the job; saved and application rows cascade.
// Returns sql.ErrNoRows when the job does not exist.
func (r *Repository) DeleteJob(jobID string) error {
	res, err := r.db.Exec(`DELETE FROM job WHERE id = $1`, jobID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ToggleSaveJob flips the user's membership in the job's saved set and reports
// the resulting state. The delete-then-conditional-insert keeps a pair of
// toggles idempotent even when requests race.
func (r *Repository) ToggleSaveJob(jobID, userEmail string) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()
	var exists bool
	if err := tx.QueryRow(`SELECT true FROM job WHERE id = $1`, jobID).Scan(&exists); err != nil {
		return false, err
	}
	res, err := tx.Exec(`DELETE FROM job_saved WHERE job_id = $1 AND user_email = $2`, jobID, userEmail)
	if err != nil {
		return false, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	saved := false
	if deleted == 0 {
		if _, err := tx.Exec(
			`INSERT INTO job_saved (job_id, user_email, saved_at) VALUES ($1, $2, NOW()) ON CONFLICT (job_id, user_email) DO NOTHING`,
			jobID,
			userEmail,
		); err != nil {
			return false, err
		}
		saved = true
	}
	if _, err := tx.Exec(`UPDATE job SET updated_at = NOW() WHERE id = $1`, jobID); err != nil {
		return false, err
	}

	return saved, tx.Commit()
}

// ApplyToJob records an application. The conditional insert against the
// (job_id, user_email) primary key makes re-applying a no-op and guards the
// applicants counter increment, so the counter cannot drift from the set size.
func (r *Repository) ApplyToJob(jobID, userEmail, availability, resumeURL string) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()
	var exists bool
	if err := tx.QueryRow(`SELECT true FROM job WHERE id = $1`, jobID).Scan(&exists); err != nil {
		return false, err
	}
	applicationID, err := ksuid.NewRandom()
	if err != nil {
		return false, err
	}
	var nullResumeURL sql.NullString
	if resumeURL != "" {
		nullResumeURL = sql.NullString{String: resumeURL, Valid: true}
	}
	res, err := tx.Exec(
		`INSERT INTO job_application (id, job_id, user_email, availability, resume_url, applied_at) VALUES ($1, $2, $3, $4, $5, NOW()) ON CONFLICT (job_id, user_email) DO NOTHING`,
		applicationID.String(),
		jobID,
		userEmail,
		availability,
		nullResumeURL,
	)
	if err != nil {
		return false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted == 0 {
		// already applied, leave the counter and the record alone
		return false, tx.Commit()
	}
	if _, err := tx.Exec(`UPDATE job SET applicants = applicants + 1, updated_at = NOW() WHERE id = $1`, jobID); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (r *Repository) AppliedJobsForUser(userEmail string) ([]*Job, error) {
	return r.jobsForUserSet(`SELECT job_id FROM job_application WHERE user_email = $1`, userEmail)
}

func (r *Repository) SavedJobsForUser(userEmail string) ([]*Job, error) {
	return r.jobsForUserSet(`SELECT job_id FROM job_saved WHERE user_email = $1`, userEmail)
}

func (r *Repository) jobsForUserSet(memberQuery, userEmail string) ([]*Job, error) {
	jobs := []*Job{}
	rows, err := r.db.Query(
		jobSelect+` WHERE j.id IN (`+memberQuery+`) GROUP BY j.id ORDER BY j.created_at DESC`,
		userEmail,
	)
	if err == sql.ErrNoRows {
		return jobs, nil
	}
	if err != nil {
		return jobs, err
	}
	defer rows.Close()
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

// StatsForUser counts the jobs whose applied and saved sets contain the email.
func (r *Repository) StatsForUser(userEmail string) (Stats, error) {
	stats := Stats{}
	row := r.db.QueryRow(
		`SELECT
			(SELECT count(*) FROM job_application WHERE user_email = $1) AS applied,
			(SELECT count(*) FROM job_saved WHERE user_email = $1) AS saved`,
		userEmail,
	)
	if err := row.Scan(&stats.AppliedJobs, &stats.SavedJobs); err != nil {
		return stats, err
	}
	return stats, nil
}

func (r *Repository) ApplicationsForJob(jobID string) ([]Application, error) {
	applications := []Application{}
	rows, err := r.db.Query(
		`SELECT id, job_id, user_email, availability, resume_url, applied_at FROM job_application WHERE job_id = $1 ORDER BY applied_at ASC`,
		jobID,
	)
	if err == sql.ErrNoRows {
		return applications, nil
	}
	if err != nil {
		return applications, err
	}
	defer rows.Close()
	for rows.Next() {
		var a Application
		var availability, resumeURL sql.NullString
		if err := rows.Scan(&a.ID, &a.JobID, &a.UserEmail, &availability, &resumeURL, &a.AppliedAt); err != nil {
			return applications, err
		}
		a.Availability = availability.String
		a.ResumeURL = resumeURL.String
		applications = append(applications, a)
	}

	return applications, rows.Err()
}

// RecountApplicants repairs any applicants counter that disagrees with the
// application set, returning the number of jobs corrected.
func (r *Repository) RecountApplicants() (int64, error) {
	res, err := r.db.Exec(
		`UPDATE job SET applicants = cte.c FROM (SELECT j.id AS job_id, count(a.user_email) AS c FROM job j LEFT JOIN job_application a ON a.job_id = j.id GROUP BY j.id) cte WHERE cte.job_id = id AND applicants != cte.c`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type row interface {
	Scan(dest ...interface{}) error
}

func scanJob(res row) (*Job, error) {
	j := &Job{}
	var companyLogoURL, location, category, jobType, description, requirements, salaryMin, salaryMax sql.NullString
	var savedUsers, appliedUsers []string
	err := res.Scan(
		&j.ID,
		&j.CompanyName,
		&companyLogoURL,
		&j.Title,
		&location,
		&category,
		&jobType,
		&description,
		&requirements,
		&salaryMin,
		&salaryMax,
		&j.Status,
		&j.Slug,
		&j.Applicants,
		&j.CreatedAt,
		&j.UpdatedAt,
		pq.Array(&savedUsers),
		pq.Array(&appliedUsers),
	)
	if err != nil {
		return nil, err
	}
	j.CompanyLogoURL = companyLogoURL.String
	j.Location = location.String
	j.Category = category.String
	j.JobType = jobType.String
	j.Description = description.String
	j.Requirements = requirements.String
	j.SalaryMin = salaryMin.String
	j.SalaryMax = salaryMax.String
	if savedUsers == nil {
		savedUsers = []string{}
	}
	if appliedUsers == nil {
		appliedUsers = []string{}
	}
	j.SavedUsers = savedUsers
	j.AppliedUsers = appliedUsers
	j.TimeAgo = humanize.Time(j.CreatedAt)

	return j, nil
}
