package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReportDispatchMessage asks a worker to build a report for a period and
// deliver it to a destination address. The worker re-reads the record store
// itself; the message stays small and replayable.
type ReportDispatchMessage struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	Format      string    `json:"format"`
	PeriodFrom  string    `json:"period_from,omitempty"`
	PeriodTo    string    `json:"period_to,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewReportDispatchMessage(destination, format, periodFrom, periodTo string) *ReportDispatchMessage {
	return &ReportDispatchMessage{
		ID:          uuid.NewString(),
		Destination: destination,
		Format:      format,
		PeriodFrom:  periodFrom,
		PeriodTo:    periodTo,
		Timestamp:   time.Now(),
	}
}

func (m *ReportDispatchMessage) Validate() error {
	if m.Destination == "" {
		return fmt.Errorf("dispatch %s: empty destination", m.ID)
	}
	return nil
}

func (m *ReportDispatchMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportDispatchMessageFromJSON(data []byte) (*ReportDispatchMessage, error) {
	var msg ReportDispatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
