package ledger

import (
	"fmt"
	"time"
)

// Payload fields written by the ledger.
const (
	FieldEventType   = "event_type"
	FieldSeverity    = "severity"
	FieldTimestamp   = "timestamp"
	FieldSource      = "source"
	FieldDetails     = "details"
	FieldActionTaken = "action_taken"
	FieldSignature   = "signature"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

const (
	DefaultEventType = "security_event"
	DefaultSeverity  = SeverityMedium
	DefaultSource    = "unknown"
	DefaultAction    = "logged"
)

// Event is the description of a security event handed to the ledger by a
// producer. Zero fields are replaced by their defaults.
type Event struct {
	Type     string         `json:"type"`
	Severity string         `json:"severity"`
	Source   string         `json:"source"`
	Details  map[string]any `json:"details"`
	Action   string         `json:"action"`
}

// EventFromMap reads the recognized keys type, severity, source, details and
// action from a free-form event. Every other key is copied into the details
// unless details already holds it. A details value that is not an object is
// kept under details["value"].
func EventFromMap(data map[string]any) Event {
	e := Event{
		Type:     stringField(data, "type"),
		Severity: stringField(data, "severity"),
		Source:   stringField(data, "source"),
		Action:   stringField(data, "action"),
		Details:  map[string]any{},
	}
	switch d := data["details"].(type) {
	case nil:
	case map[string]any:
		e.Details = cloneMap(d)
	default:
		e.Details["value"] = cloneValue(d)
	}
	for k, v := range data {
		switch k {
		case "type", "severity", "source", "details", "action":
			continue
		}
		if _, ok := e.Details[k]; !ok {
			e.Details[k] = cloneValue(v)
		}
	}
	return e
}

func stringField(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// payload builds the normalized block payload, without signature.
func (e Event) payload(ts time.Time) map[string]any {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	return map[string]any{
		FieldEventType:   orDefault(e.Type, DefaultEventType),
		FieldSeverity:    orDefault(e.Severity, DefaultSeverity),
		FieldTimestamp:   ts.Format(time.RFC3339Nano),
		FieldSource:      orDefault(e.Source, DefaultSource),
		FieldDetails:     details,
		FieldActionTaken: orDefault(e.Action, DefaultAction),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
