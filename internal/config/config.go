package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

type Config struct {
	Port                   string
	DatabaseUser           string
	DatabasePassword       string
	DatabaseHost           string
	DatabasePort           string
	DatabaseName           string
	DatabaseSSLMode        string
	SessionKey             []byte
	JwtSigningKey          []byte
	Env                    string // either prod or dev, will disable https redirect and few other bits
	SentryDSN              string
	EmailAPIKey            string
	AdminEmail             string
	NoReplyEmail           string // used for transactional emails
	MachineToken           string // protects internal maintenance endpoints
	SiteName               string
	SiteHost               string
	ResumeStorageURLPrefix string // resumes must live under this prefix to be accepted
	URLProtocol            string
}

func LoadConfig() (Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		return Config{}, fmt.Errorf("PORT cannot be empty")
	}
	databaseUser := os.Getenv("DATABASE_USER")
	if databaseUser == "" {
		return Config{}, fmt.Errorf("DATABASE_USER cannot be empty")
	}
	databasePassword := os.Getenv("DATABASE_PASSWORD")
	if databasePassword == "" {
		return Config{}, fmt.Errorf("DATABASE_PASSWORD cannot be empty")
	}
	databaseHost := os.Getenv("DATABASE_HOST")
	if databaseHost == "" {
		return Config{}, fmt.Errorf("DATABASE_HOST cannot be empty")
	}
	databasePort := os.Getenv("DATABASE_PORT")
	if databasePort == "" {
		return Config{}, fmt.Errorf("DATABASE_PORT cannot be empty")
	}
	databaseName := os.Getenv("DATABASE_NAME")
	if databaseName == "" {
		return Config{}, fmt.Errorf("DATABASE_NAME cannot be empty")
	}
	databaseSSLMode := os.Getenv("DATABASE_SSL_MODE")
	if databaseSSLMode == "" {
		return Config{}, fmt.Errorf("DATABASE_SSL_MODE cannot be empty")
	}
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		return Config{}, fmt.Errorf("ENV cannot be empty")
	}
	sessionKeyString := os.Getenv("SESSION_KEY")
	if sessionKeyString == "" {
		return Config{}, fmt.Errorf("SESSION_KEY cannot be empty")
	}
	sessionKeyBytes, err := base64.StdEncoding.DecodeString(sessionKeyString)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode session key to bytes")
	}
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY cannot be empty")
	}
	jwtSigningKeyBytes, err := base64.StdEncoding.DecodeString(jwtSigningKey)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode jwt signing key to bytes")
	}
	emailAPIKey := os.Getenv("EMAIL_API_KEY")
	if emailAPIKey == "" {
		return Config{}, fmt.Errorf("EMAIL_API_KEY cannot be empty")
	}
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		return Config{}, fmt.Errorf("ADMIN_EMAIL cannot be empty")
	}
	noReplyEmail := os.Getenv("NO_REPLY_EMAIL")
	if noReplyEmail == "" {
		return Config{}, fmt.Errorf("NO_REPLY_EMAIL cannot be empty")
	}
	machineToken := os.Getenv("MACHINE_TOKEN")
	if machineToken == "" {
		return Config{}, fmt.Errorf("MACHINE_TOKEN cannot be empty")
	}
	siteName := os.Getenv("SITE_NAME")
	if siteName == "" {
		return Config{}, fmt.Errorf("SITE_NAME cannot be empty")
	}
	siteHost := os.Getenv("SITE_HOST")
	if siteHost == "" {
		return Config{}, fmt.Errorf("SITE_HOST cannot be empty")
	}
	resumeStorageURLPrefix := os.Getenv("RESUME_STORAGE_URL_PREFIX")
	if resumeStorageURLPrefix == "" {
		return Config{}, fmt.Errorf("RESUME_STORAGE_URL_PREFIX cannot be empty")
	}
	sentryDSN := os.Getenv("SENTRY_DSN")
	urlProtocol := "http://"
	if !strings.EqualFold(env, "dev") {
		urlProtocol = "https://"
	}

	return Config{
		Port:                   port,
		DatabaseUser:           databaseUser,
		DatabasePassword:       databasePassword,
		DatabaseHost:           databaseHost,
		DatabasePort:           databasePort,
		DatabaseName:           databaseName,
		DatabaseSSLMode:        databaseSSLMode,
		SessionKey:             sessionKeyBytes,
		JwtSigningKey:          jwtSigningKeyBytes,
		Env:                    env,
		SentryDSN:              sentryDSN,
		EmailAPIKey:            emailAPIKey,
		AdminEmail:             adminEmail,
		NoReplyEmail:           noReplyEmail,
		MachineToken:           machineToken,
		SiteName:               siteName,
		SiteHost:               siteHost,
		ResumeStorageURLPrefix: resumeStorageURLPrefix,
		URLProtocol:            urlProtocol,
	}, nil
}
