package user

import (
	"strings"
	"time"
)

const (
	RoleJobSeeker = "job_seeker"
	RoleRecruiter = "recruiter"
)

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`

	// job seeker profile
	ImageURL     string   `json:"image,omitempty"`
	Bio          string   `json:"bio,omitempty"`
	Skills       string   `json:"-"`
	SkillsArray  []string `json:"skills,omitempty"`
	Location     string   `json:"location,omitempty"`
	ResumeURL    string   `json:"resumeUrl,omitempty"`
	LinkedinURL  string   `json:"linkedin,omitempty"`
	GithubURL    string   `json:"github,omitempty"`
	PortfolioURL string   `json:"portfolio,omitempty"`

	// recruiter profile
	CompanyName        string `json:"companyName,omitempty"`
	CompanyLogoURL     string `json:"companyLogo,omitempty"`
	Website            string `json:"website,omitempty"`
	CompanyDescription string `json:"companyDescription,omitempty"`
	TeamSize           string `json:"teamSize,omitempty"`
	FoundedYear        int    `json:"foundedYear,omitempty"`

	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
	CreatedAtHumanized string    `json:"memberSince,omitempty"`
}

func ValidRole(role string) bool {
	return role == RoleJobSeeker || role == RoleRecruiter
}

// TeamSizeBuckets are the allowed values for a recruiter's team size.
var TeamSizeBuckets = []string{"1-10", "11-50", "51-200", "201-500", "500+"}

func ValidTeamSize(teamSize string) bool {
	for _, b := range TeamSizeBuckets {
		if teamSize == b {
			return true
		}
	}
	return false
}

// Skills are stored as a single comma separated column, order preserved.
func JoinSkills(skills []string) string {
	trimmed := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		trimmed = append(trimmed, s)
	}
	return strings.Join(trimmed, ",")
}

func SplitSkills(skills string) []string {
	if strings.TrimSpace(skills) == "" {
		return []string{}
	}
	parts := strings.Split(skills, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

type SocialLinks struct {
	Linkedin  string `json:"linkedin,omitempty"`
	Github    string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

type JobSeekerProfileRq struct {
	UserID      string      `json:"userId"`
	Username    string      `json:"username,omitempty"`
	ImageURL    string      `json:"image,omitempty"`
	Bio         string      `json:"bio,omitempty"`
	Skills      []string    `json:"skills,omitempty"`
	Location    string      `json:"location,omitempty"`
	ResumeURL   string      `json:"resumeUrl,omitempty"`
	SocialLinks SocialLinks `json:"socialLinks,omitempty"`
}

type RecruiterProfileRq struct {
	UserID             string `json:"userId"`
	CompanyName        string `json:"companyName,omitempty"`
	CompanyLogoURL     string `json:"companyLogo,omitempty"`
	Website            string `json:"website,omitempty"`
	Location           string `json:"location,omitempty"`
	CompanyDescription string `json:"description,omitempty"`
	TeamSize           string `json:"teamSize,omitempty"`
	FoundedYear        int    `json:"foundedYear,omitempty"`
	Linkedin           string `json:"linkedin,omitempty"`
}
