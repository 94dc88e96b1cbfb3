// Command edlink-scrape runs one scrape from the terminal and writes the
// result as a JSON artifact, without needing the HTTP service, PostgreSQL or
// NATS.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sodiqardianto/edlink-scrap/common/config"
	"github.com/sodiqardianto/edlink-scrap/common/logger"
	"github.com/sodiqardianto/edlink-scrap/common/services"
	"github.com/sodiqardianto/edlink-scrap/repository"
	"github.com/sodiqardianto/edlink-scrap/scraper"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file, using environment variables")
	}
	logger.Init()

	email := flag.String("email", os.Getenv("EDLINK_EMAIL"), "dashboard login email")
	password := flag.String("password", os.Getenv("EDLINK_PASSWORD"), "dashboard login password")
	term := flag.String("term", os.Getenv("EDLINK_TERM"), "semester to select, e.g. '2024 Ganjil' (optional)")
	output := flag.String("output", "", "output directory (defaults to SCRAPER_OUTPUT_DIR)")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "email and password are required (flags or EDLINK_EMAIL / EDLINK_PASSWORD)")
		os.Exit(2)
	}

	cfg := config.DefaultConfig()
	cfg.LoadFromEnv()
	if *output != "" {
		cfg.Scraper.OutputDir = *output
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus := scraper.NewBus()
	bus.RegisterSink(func(event scraper.ProgressEvent) {
		log.Info().Str("status", string(event.Status)).Msg(event.Message)
	})

	runner := scraper.NewRunner(
		scraper.NewSessionManager(cfg.Scraper),
		scraper.NewBrowserStages(cfg.Scraper),
		&memoryStore{},
		bus,
	)

	result, err := runner.Run(ctx, scraper.RunParams{
		SessionID: uuid.NewString(),
		Email:     *email,
		Password:  *password,
		Term:      *term,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Scrape failed")
	}

	exporter := scraper.NewExporter(cfg.Scraper.OutputDir, nil, "")
	path, err := exporter.Export(ctx, result)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write result file")
	}

	log.Info().
		Int("courses", result.CoursesCount).
		Int("duration_seconds", result.DurationSeconds).
		Str("path", path).
		Msg("Scrape finished")
}

// memoryStore satisfies the runner's persistence boundary without a database;
// the exported JSON file is the only output of a CLI run.
type memoryStore struct{}

func (m *memoryStore) UpsertCourse(ctx context.Context, arg repository.UpsertCourseParams) (repository.Course, error) {
	return repository.Course{
		ID:         uuid.NewString(),
		Code:       arg.Code,
		Name:       arg.Name,
		Term:       arg.Term,
		ClassCode:  arg.ClassCode,
		Program:    arg.Program,
		Instructor: arg.Instructor,
		Schedule:   arg.Schedule,
	}, nil
}

func (m *memoryStore) UpsertGroup(ctx context.Context, courseID, name string) (repository.Group, error) {
	return repository.Group{
		ID:       uuid.NewString(),
		CourseID: courseID,
		Name:     name,
	}, nil
}

func (m *memoryStore) ReplaceMembers(ctx context.Context, groupID string, members []services.MemberInput) ([]repository.Member, error) {
	saved := make([]repository.Member, 0, len(members))
	for _, member := range members {
		saved = append(saved, repository.Member{
			ID:      uuid.NewString(),
			GroupID: groupID,
			Name:    member.Name,
			Role:    member.Role,
		})
	}
	return saved, nil
}
