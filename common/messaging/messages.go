package messaging

// Subjects used by the scrape service.
const (
	// SubjectScrapeJobs carries ScrapeRequest payloads consumed by the run worker.
	SubjectScrapeJobs = "scraper.jobs"

	// SubjectProgressPrefix is the prefix for per-session progress mirrors;
	// the full subject is SubjectProgressPrefix + sessionID.
	SubjectProgressPrefix = "scraper.progress."

	// StreamName is the JetStream stream holding all scraper subjects.
	StreamName = "SCRAPER"
)

// ScrapeRequest is the payload published to SubjectScrapeJobs.
type ScrapeRequest struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Term      string `json:"term"`
}
