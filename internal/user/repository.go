package user

import (
	"database/sql"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/segmentio/ksuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

// CreateUser inserts a new account with the given credentials and role.
// Returns the created user or sql error (unique violation on duplicate email).
func (r *Repository) CreateUser(username, email, passwordHash, role string) (User, error) {
	u := User{}
	userID, err := ksuid.NewRandom()
	if err != nil {
		return u, err
	}
	now := time.Now().UTC()
	u.ID = userID.String()
	u.Username = username
	u.Email = email
	u.PasswordHash = passwordHash
	u.Role = role
	u.CreatedAt = now
	u.UpdatedAt = now
	u.CreatedAtHumanized = humanize.Time(now)
	_, err = r.db.Exec(
		`INSERT INTO users (id, email, password_hash, username, role, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.Username,
		u.Role,
		now,
	)
	if err != nil {
		return User{}, err
	}

	return u, nil
}

func (r *Repository) UserByEmail(email string) (User, error) {
	row := r.db.QueryRow(
		`SELECT id, email, password_hash, username, role, image_url, bio, skills, location, resume_url, linkedin_url, github_url, portfolio_url, company_name, company_logo_url, website, company_description, team_size, founded_year, created_at, updated_at FROM users WHERE lower(email) = lower($1)`,
		email,
	)
	return scanUser(row)
}

func (r *Repository) UserByID(id string) (User, error) {
	row := r.db.QueryRow(
		`SELECT id, email, password_hash, username, role, image_url, bio, skills, location, resume_url, linkedin_url, github_url, portfolio_url, company_name, company_logo_url, website, company_description, team_size, founded_year, created_at, updated_at FROM users WHERE id = $1`,
		id,
	)
	return scanUser(row)
}

// UpdateJobSeekerProfile merge-sets the provided fields, leaving absent ones untouched.
func (r *Repository) UpdateJobSeekerProfile(rq JobSeekerProfileRq) error {
	_, err := r.db.Exec(
		`UPDATE users SET
			username = COALESCE(NULLIF($2, ''), username),
			image_url = COALESCE(NULLIF($3, ''), image_url),
			bio = COALESCE(NULLIF($4, ''), bio),
			skills = COALESCE(NULLIF($5, ''), skills),
			location = COALESCE(NULLIF($6, ''), location),
			resume_url = COALESCE(NULLIF($7, ''), resume_url),
			linkedin_url = COALESCE(NULLIF($8, ''), linkedin_url),
			github_url = COALESCE(NULLIF($9, ''), github_url),
			portfolio_url = COALESCE(NULLIF($10, ''), portfolio_url),
			updated_at = NOW()
		WHERE id = $1`,
		rq.UserID,
		rq.Username,
		rq.ImageURL,
		rq.Bio,
		JoinSkills(rq.Skills),
		rq.Location,
		rq.ResumeURL,
		rq.SocialLinks.Linkedin,
		rq.SocialLinks.Github,
		rq.SocialLinks.Portfolio,
	)
	return err
}

// UpdateRecruiterProfile merge-sets the provided company fields.
func (r *Repository) UpdateRecruiterProfile(rq RecruiterProfileRq) error {
	_, err := r.db.Exec(
		`UPDATE users SET
			company_name = COALESCE(NULLIF($2, ''), company_name),
			company_logo_url = COALESCE(NULLIF($3, ''), company_logo_url),
			website = COALESCE(NULLIF($4, ''), website),
			location = COALESCE(NULLIF($5, ''), location),
			company_description = COALESCE(NULLIF($6, ''), company_description),
			team_size = COALESCE(NULLIF($7, ''), team_size),
			founded_year = COALESCE(NULLIF($8, 0), founded_year),
			linkedin_url = COALESCE(NULLIF($9, ''), linkedin_url),
			updated_at = NOW()
		WHERE id = $1`,
		rq.UserID,
		rq.CompanyName,
		rq.CompanyLogoURL,
		rq.Website,
		rq.Location,
		rq.CompanyDescription,
		rq.TeamSize,
		rq.FoundedYear,
		rq.Linkedin,
	)
	return err
}

// UpdateResumeURL is used by the apply flow to opportunistically keep the
// seeker's stored resume in sync with the one submitted on an application.
func (r *Repository) UpdateResumeURL(email, resumeURL string) error {
	_, err := r.db.Exec(
		`UPDATE users SET resume_url = $2, updated_at = NOW() WHERE lower(email) = lower($1)`,
		email,
		resumeURL,
	)
	return err
}

// RecruiterByCompanyName resolves the recruiter account owning a company.
// Company names are unique among recruiters.
func (r *Repository) RecruiterByCompanyName(companyName string) (User, error) {
	row := r.db.QueryRow(
		`SELECT id, email, password_hash, username, role, image_url, bio, skills, location, resume_url, linkedin_url, github_url, portfolio_url, company_name, company_logo_url, website, company_description, team_size, founded_year, created_at, updated_at FROM users WHERE role = 'recruiter' AND company_name = $1`,
		companyName,
	)
	return scanUser(row)
}

// RecruitersMissingCompanyDescription lists recruiter accounts that have a
// website on file but no company description yet. Used by the profile
// backfill cron.
func (r *Repository) RecruitersMissingCompanyDescription() ([]User, error) {
	users := []User{}
	rows, err := r.db.Query(
		`SELECT id, email, password_hash, username, role, image_url, bio, skills, location, resume_url, linkedin_url, github_url, portfolio_url, company_name, company_logo_url, website, company_description, team_size, founded_year, created_at, updated_at
		FROM users
		WHERE role = 'recruiter'
		AND COALESCE(website, '') != ''
		AND COALESCE(company_description, '') = ''`,
	)
	if err == sql.ErrNoRows {
		return users, nil
	}
	if err != nil {
		return users, err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return users, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *Repository) DeleteUserByEmail(email string) error {
	_, err := r.db.Exec(`DELETE FROM users WHERE email = $1`, email)
	return err
}

type row interface {
	Scan(dest ...interface{}) error
}

func scanUser(res row) (User, error) {
	u := User{}
	var passwordHash, imageURL, bio, skills, location, resumeURL sql.NullString
	var linkedinURL, githubURL, portfolioURL sql.NullString
	var companyName, companyLogoURL, website, companyDescription, teamSize sql.NullString
	var foundedYear sql.NullInt64
	err := res.Scan(
		&u.ID,
		&u.Email,
		&passwordHash,
		&u.Username,
		&u.Role,
		&imageURL,
		&bio,
		&skills,
		&location,
		&resumeURL,
		&linkedinURL,
		&githubURL,
		&portfolioURL,
		&companyName,
		&companyLogoURL,
		&website,
		&companyDescription,
		&teamSize,
		&foundedYear,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	u.PasswordHash = passwordHash.String
	u.ImageURL = imageURL.String
	u.Bio = bio.String
	u.Skills = skills.String
	u.SkillsArray = SplitSkills(u.Skills)
	u.Location = location.String
	u.ResumeURL = resumeURL.String
	u.LinkedinURL = linkedinURL.String
	u.GithubURL = githubURL.String
	u.PortfolioURL = portfolioURL.String
	u.CompanyName = companyName.String
	u.CompanyLogoURL = companyLogoURL.String
	u.Website = website.String
	u.CompanyDescription = companyDescription.String
	u.TeamSize = teamSize.String
	u.FoundedYear = int(foundedYear.Int64)
	u.CreatedAtHumanized = humanize.Time(u.CreatedAt)

	return u, nil
}
