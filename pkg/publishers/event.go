package publishers

import (
	"time"

	"github.com/samvad-hq/keyword-image-harvester/internal/domain"
)

// Event is the payload published downstream for each match record of a run.
type Event struct {
	RunID       string             `json:"run_id"`
	Keyword     string             `json:"keyword"`
	Match       domain.MatchRecord `json:"match"`
	CollectedAt time.Time          `json:"collected_at"`
}

// NewEvent stamps a match record with its run and the current time.
func NewEvent(runID, keyword string, match domain.MatchRecord) Event {
	return Event{
		RunID:       runID,
		Keyword:     keyword,
		Match:       match,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are copied onto message metadata where the sink supports it.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"run_id":  e.RunID,
		"keyword": e.Keyword,
	}
}
