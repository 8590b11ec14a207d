package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hirehub/job-board/internal/config"
	"github.com/hirehub/job-board/internal/database"
	"github.com/hirehub/job-board/internal/user"
)

// Backfills company descriptions and social links for recruiter profiles
// that have a website on file but no description yet. Run as a cron.
func main() {
	log.Println("backfilling recruiter company profiles")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config %v", err)
	}
	conn, err := database.GetDbConn(
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)

	userRepo := user.NewRepository(conn)
	recruiters, err := userRepo.RecruitersMissingCompanyDescription()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("found %d recruiter profiles to backfill...\n", len(recruiters))

	client := &http.Client{Timeout: 10 * time.Second}
	for _, rec := range recruiters {
		res, err := client.Get(rec.Website)
		if err != nil {
			log.Println(err)
			continue
		}
		if res.StatusCode != http.StatusOK {
			log.Printf("GET %s: status code error: %d %s", rec.Website, res.StatusCode, res.Status)
			res.Body.Close()
			continue
		}
		doc, err := goquery.NewDocumentFromReader(res.Body)
		res.Body.Close()
		if err != nil {
			log.Println(err)
			continue
		}

		description := doc.Find("title").Text()
		doc.Find("meta").Each(func(i int, s *goquery.Selection) {
			if name, _ := s.Attr("name"); strings.EqualFold(name, "description") {
				if desc, ok := s.Attr("content"); ok && desc != "" {
					description = desc
				}
			}
		})
		linkedin := ""
		doc.Find("a").Each(func(i int, s *goquery.Selection) {
			if href, ok := s.Attr("href"); ok && strings.Contains(href, "linkedin.com/") && linkedin == "" {
				linkedin = href
			}
		})
		if description == "" {
			log.Printf("no description found for %s (%s)", rec.CompanyName, rec.Website)
			continue
		}
		if err := userRepo.UpdateRecruiterProfile(user.RecruiterProfileRq{
			UserID:             rec.ID,
			CompanyDescription: description,
			Linkedin:           linkedin,
		}); err != nil {
			log.Println(err)
			continue
		}
		log.Printf("backfilled %s from %s (linkedin: %s)\n", rec.CompanyName, rec.Website, linkedin)
	}
}
