package audit

import (
	"bufio"
	"encoding/json"
	"io"
)

// Record is one parsed audit log line. Unknown fields are ignored so the
// reader stays compatible across record shapes.
type Record struct {
	Time      string `json:"time" yaml:"time"`
	Level     string `json:"level" yaml:"level"`
	EventType string `json:"event_type" yaml:"event_type"`
	Command   string `json:"command,omitempty" yaml:"command,omitempty"`
	Args      string `json:"args,omitempty" yaml:"args,omitempty"`
	Status    string `json:"status,omitempty" yaml:"status,omitempty"`
	Action    string `json:"action,omitempty" yaml:"action,omitempty"`
	ExitCode  *int   `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	AuditID   string `json:"audit_id,omitempty" yaml:"audit_id,omitempty"`
}

// Summary aggregates an audit trail.
type Summary struct {
	Total     int            `json:"total" yaml:"total"`
	ByEvent   map[string]int `json:"by_event" yaml:"by_event"`
	ByStatus  map[string]int `json:"by_status" yaml:"by_status"`
	ByCommand map[string]int `json:"by_command" yaml:"by_command"`
}

// Blocked returns the number of records rejected before execution.
func (s Summary) Blocked() int {
	return s.ByStatus[StatusBlockedCommand] + s.ByStatus[StatusBlockedArgument]
}

// ReadLog parses a JSON-lines audit trail. Malformed lines are skipped so
// a partially written final line never breaks review.
func ReadLog(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record Record
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, scanner.Err()
}

// Summarize aggregates records into per-event, per-status and per-command
// counts.
func Summarize(records []Record) Summary {
	summary := Summary{
		ByEvent:   make(map[string]int),
		ByStatus:  make(map[string]int),
		ByCommand: make(map[string]int),
	}
	for _, record := range records {
		summary.Total++
		if record.EventType != "" {
			summary.ByEvent[record.EventType]++
		}
		if record.Status != "" {
			summary.ByStatus[record.Status]++
		}
		if record.Command != "" {
			summary.ByCommand[record.Command]++
		}
	}
	return summary
}
