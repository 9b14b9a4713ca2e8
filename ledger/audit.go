package ledger

import "time"

// AuditFilter selects events for AuditEvents. Zero fields match everything.
type AuditFilter struct {
	// EventType keeps only events whose normalized type matches exactly.
	EventType string
	// Since keeps only blocks created at or after this time.
	Since time.Time
}

// EventView is the audit-facing projection of a block. It never exposes the
// nonce or the payload signature.
type EventView struct {
	BlockIndex int            `json:"block_index"`
	Timestamp  time.Time      `json:"timestamp"`
	EventType  string         `json:"event_type"`
	Severity   string         `json:"severity"`
	Details    map[string]any `json:"details"`
	BlockHash  string         `json:"block_hash"`
}

// AuditEvents returns the events matching f, oldest first. The genesis block
// is never included. Repeated calls over an unchanged chain return equal
// results.
func (l *Ledger) AuditEvents(f AuditFilter) []EventView {
	chain := l.snapshot()
	views := make([]EventView, 0, len(chain)-1)
	for _, b := range chain[1:] {
		if !f.Since.IsZero() && b.Timestamp.Before(f.Since) {
			continue
		}
		eventType, _ := b.Payload[FieldEventType].(string)
		if f.EventType != "" && eventType != f.EventType {
			continue
		}
		severity, _ := b.Payload[FieldSeverity].(string)
		details, _ := b.Payload[FieldDetails].(map[string]any)
		views = append(views, EventView{
			BlockIndex: b.Index,
			Timestamp:  b.Timestamp,
			EventType:  eventType,
			Severity:   severity,
			Details:    cloneMap(details),
			BlockHash:  b.Hash,
		})
	}
	return views
}
