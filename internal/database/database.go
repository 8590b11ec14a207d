package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Table Structure:
//
// CREATE TABLE IF NOT EXISTS users (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	email VARCHAR(255) NOT NULL UNIQUE,
// 	password_hash VARCHAR(100) DEFAULT NULL,
// 	username VARCHAR(255) NOT NULL,
// 	role VARCHAR(20) NOT NULL,
// 	image_url TEXT DEFAULT NULL,
// 	bio TEXT DEFAULT NULL,
// 	skills TEXT DEFAULT NULL,
// 	location VARCHAR(255) DEFAULT NULL,
// 	resume_url TEXT DEFAULT NULL,
// 	linkedin_url TEXT DEFAULT NULL,
// 	github_url TEXT DEFAULT NULL,
// 	portfolio_url TEXT DEFAULT NULL,
// 	company_name VARCHAR(255) DEFAULT NULL,
// 	company_logo_url TEXT DEFAULT NULL,
// 	website TEXT DEFAULT NULL,
// 	company_description TEXT DEFAULT NULL,
// 	team_size VARCHAR(20) DEFAULT NULL,
// 	founded_year INTEGER DEFAULT NULL,
// 	created_at TIMESTAMP NOT NULL,
// 	updated_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(id)
// );
// CREATE UNIQUE INDEX users_company_name_idx ON users (company_name) WHERE role = 'recruiter';

// CREATE TABLE IF NOT EXISTS job (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	company_name VARCHAR(255) NOT NULL,
// 	company_logo_url TEXT DEFAULT NULL,
// 	title VARCHAR(255) NOT NULL,
// 	location VARCHAR(255) DEFAULT NULL,
// 	category VARCHAR(100) DEFAULT NULL,
// 	job_type VARCHAR(50) DEFAULT NULL,
// 	description TEXT DEFAULT NULL,
// 	requirements TEXT DEFAULT NULL,
// 	salary_min VARCHAR(50) DEFAULT NULL,
// 	salary_max VARCHAR(50) DEFAULT NULL,
// 	status VARCHAR(20) NOT NULL DEFAULT 'Active',
// 	slug VARCHAR(255) NOT NULL UNIQUE,
// 	applicants INTEGER NOT NULL DEFAULT 0,
// 	created_at TIMESTAMP NOT NULL,
// 	updated_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(id)
// );
// CREATE INDEX job_company_name_idx ON job (company_name);
// CREATE INDEX job_created_at_idx ON job (created_at);

// CREATE TABLE IF NOT EXISTS job_saved (
// 	job_id CHAR(27) NOT NULL REFERENCES job (id) ON DELETE CASCADE,
// 	user_email VARCHAR(255) NOT NULL,
// 	saved_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(job_id, user_email)
// );
// CREATE INDEX job_saved_user_email_idx ON job_saved (user_email);

// CREATE TABLE IF NOT EXISTS job_application (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	job_id CHAR(27) NOT NULL REFERENCES job (id) ON DELETE CASCADE,
// 	user_email VARCHAR(255) NOT NULL,
// 	availability VARCHAR(50) DEFAULT NULL,
// 	resume_url TEXT DEFAULT NULL,
// 	applied_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(job_id, user_email)
// );
// CREATE INDEX job_application_user_email_idx ON job_application (user_email);

// GetDbConn tries to establish a connection to postgres and return the connection handler
func GetDbConn(databaseUser string, databasePassword string, databaseHost string, databasePort string, databaseName string, sslMode string) (*sql.DB, error) {
	databaseURL := fmt.Sprintf("postgres://%v:%v@%v:%v/%v?sslmode=%s",
		databaseUser,
		databasePassword,
		databaseHost,
		databasePort,
		databaseName,
		sslMode,
	)
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// CloseDbConn closes db conn
func CloseDbConn(conn *sql.DB) {
	conn.Close()
}
