package logger

import (
	"context"
	"os"
	"time"

	"github.com/sodiqardianto/edlink-scrap/common/db"
	"github.com/sodiqardianto/edlink-scrap/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. LOG_LEVEL and LOG_PRETTY are the
// only recognized knobs.
func Init() {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// ScrapeLogHook implements zerolog.Hook and persists info-and-above events
// into the scrape_logs table.
type ScrapeLogHook struct {
	db *db.DB
}

// NewScrapeLogHook creates a new log hook
func NewScrapeLogHook(db *db.DB) *ScrapeLogHook {
	return &ScrapeLogHook{
		db: db,
	}
}

// Run implements zerolog.Hook.Run
func (h *ScrapeLogHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level < zerolog.InfoLevel {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

	// Written asynchronously to not block the logging call site.
	go func() {
		defer cancel()
		if err := h.logToDatabase(ctx, level.String(), msg); err != nil {
			// Don't log through the hooked logger here, that would recurse.
			return
		}
	}()
}

func (h *ScrapeLogHook) logToDatabase(ctx context.Context, eventType, msg string) error {
	params := repository.CreateScrapeLogParams{
		ID:        uuid.New().String(),
		EventType: eventType,
		Message:   pgtype.Text{String: msg, Valid: msg != ""},
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	return h.db.Queries.CreateScrapeLog(ctx, params)
}

// InitializeLogging attaches the database hook to the global logger.
func InitializeLogging(db *db.DB) {
	hook := NewScrapeLogHook(db)
	log.Logger = log.Logger.Hook(hook)
}
