package job

import (
	"time"
)

const (
	StatusActive = "Active"
	StatusClosed = "Closed"
)

func ValidStatus(status string) bool {
	return status == StatusActive || status == StatusClosed
}

type Job struct {
	ID             string    `json:"id"`
	CompanyName    string    `json:"companyName"`
	CompanyLogoURL string    `json:"companyLogo,omitempty"`
	Title          string    `json:"jobTitle"`
	Location       string    `json:"location,omitempty"`
	Category       string    `json:"category,omitempty"`
	JobType        string    `json:"jobType,omitempty"`
	Description    string    `json:"description,omitempty"`
	Requirements   string    `json:"requirements,omitempty"`
	SalaryMin      string    `json:"salaryMin,omitempty"`
	SalaryMax      string    `json:"salaryMax,omitempty"`
	Status         string    `json:"status"`
	Slug           string    `json:"slug"`
	Applicants     int       `json:"applicants"`
	SavedUsers     []string  `json:"savedUsers"`
	AppliedUsers   []string  `json:"appliedUsers"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	TimeAgo        string    `json:"timeAgo,omitempty"`
}

// JobRq is the create payload submitted by a recruiter.
type JobRq struct {
	Title          string `json:"jobTitle"`
	Location       string `json:"location"`
	Category       string `json:"category"`
	JobType        string `json:"jobType"`
	Description    string `json:"description"`
	Requirements   string `json:"requirements"`
	CompanyName    string `json:"companyName"`
	CompanyLogoURL string `json:"companyLogo,omitempty"`
	SalaryMin      string `json:"salaryMin,omitempty"`
	SalaryMax      string `json:"salaryMax,omitempty"`
}

type StatusRq struct {
	Status string `json:"status"`
}

type SaveRq struct {
	ID        string `json:"id"`
	UserEmail string `json:"userEmail"`
}

type ApplyRq struct {
	ID           string `json:"id"`
	UserEmail    string `json:"userEmail"`
	Availability string `json:"availability"`
	Resume       string `json:"resume,omitempty"`
}

// Application is one append-only record of a seeker applying to a job.
type Application struct {
	ID           string    `json:"id"`
	JobID        string    `json:"jobId"`
	UserEmail    string    `json:"userEmail"`
	Availability string    `json:"availability,omitempty"`
	ResumeURL    string    `json:"resume,omitempty"`
	AppliedAt    time.Time `json:"appliedAt"`
}

type Stats struct {
	AppliedJobs int `json:"appliedJobs"`
	SavedJobs   int `json:"savedJobs"`
	Interviews  int `json:"interviews"`
}
