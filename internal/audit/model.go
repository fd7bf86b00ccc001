package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/previmed/registro/internal/shared/types"
)

// canonicalJSON produces deterministic JSON output with sorted map keys.
// Go maps have random iteration order, so hashing requires a canonical
// encoding or verification would fail on replay.
func canonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	return canonicalMarshal(parsed)
}

func canonicalMarshal(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyBytes, _ := json.Marshal(k)
			buf.Write(keyBytes)
			buf.WriteByte(':')
			valBytes, err := canonicalMarshal(val[k])
			if err != nil {
				return nil, err
			}
			buf.Write(valBytes)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil

	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			itemBytes, err := canonicalMarshal(item)
			if err != nil {
				return nil, err
			}
			buf.Write(itemBytes)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil

	default:
		return json.Marshal(val)
	}
}

// ActorType defines who performed an audited action
type ActorType string

const (
	ActorTypeCenter   ActorType = "medical_center"
	ActorTypeProvider ActorType = "payment_provider"
	ActorTypeSystem   ActorType = "system"
)

// Entry is an immutable audit log record. Each entry carries the hash of
// its predecessor, so any after-the-fact edit breaks the chain.
type Entry struct {
	ID        types.ID  `json:"id"`
	Sequence  int64     `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Hash      string    `json:"hash"`
	PrevHash  string    `json:"prev_hash,omitempty"`

	ActorType  ActorType `json:"actor_type"`
	ActorEmail string    `json:"actor_email,omitempty"`

	Action       string `json:"action"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id,omitempty"`

	Changes map[string]any `json:"changes,omitempty"`
}

// NewEntry creates an audit entry and seals it with its content hash
func NewEntry(actorType ActorType, actorEmail, action, resourceType, resourceID string, changes map[string]any, prevHash string) *Entry {
	entry := &Entry{
		ID:           types.NewID(),
		Timestamp:    time.Now().UTC().Truncate(time.Microsecond),
		PrevHash:     prevHash,
		ActorType:    actorType,
		ActorEmail:   actorEmail,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Changes:      changes,
	}
	entry.Hash = entry.computeHash()
	return entry
}

// computeHash hashes the entry content with SHA-256 over canonical JSON.
// Timestamps are always rendered in UTC so verification is independent
// of the verifier's timezone.
func (e *Entry) computeHash() string {
	data := map[string]any{
		"id":            e.ID,
		"timestamp":     e.Timestamp.UTC().Format(time.RFC3339Nano),
		"prev_hash":     e.PrevHash,
		"actor_type":    e.ActorType,
		"actor_email":   e.ActorEmail,
		"action":        e.Action,
		"resource_type": e.ResourceType,
	}
	if e.ResourceID != "" {
		data["resource_id"] = e.ResourceID
	}
	if len(e.Changes) > 0 {
		data["changes"] = e.Changes
	}

	jsonData, _ := canonicalJSON(data)
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}

// VerifyHash checks that the entry content still matches its stored hash
func (e *Entry) VerifyHash() bool {
	return e.Hash == e.computeHash()
}

// ComputeHash returns the correct hash for the entry's current content
func (e *Entry) ComputeHash() string {
	return e.computeHash()
}

// ListFilter narrows audit listings
type ListFilter struct {
	Action       string     `json:"action,omitempty"`
	ActorEmail   string     `json:"actor_email,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}

// Audited actions, mirroring the domain event types
const (
	ActionIncidentRegistered  = "incident.registered"
	ActionRiskEscalated       = "patient.risk_escalated"
	ActionSubscriptionCreated = "subscription.created"
	ActionSubscriptionActive  = "subscription.activated"
)
