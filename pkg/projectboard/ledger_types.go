package projectboard

import (
	"encoding/json"
	"fmt"
	"time"
)

// Actor identifies who performed an audited action. It is a closed
// enumeration so reporting logic cannot silently mis-classify a writer.
type Actor string

const (
	ActorUser   Actor = "User"
	ActorAI     Actor = "AI"
	ActorSystem Actor = "System"
)

// Validate checks if the Actor is a valid enum value.
func (a Actor) Validate() error {
	switch a {
	case ActorUser, ActorAI, ActorSystem:
		return nil
	default:
		return fmt.Errorf("unknown actor: %q", a)
	}
}

// DataClassification is the sensitivity label attached to a ledger record.
type DataClassification string

const (
	ClassificationPublic       DataClassification = "PUBLIC"
	ClassificationInternal     DataClassification = "INTERNAL"
	ClassificationConfidential DataClassification = "CONFIDENTIAL"
	ClassificationRestricted   DataClassification = "RESTRICTED"
)

// Validate checks if the DataClassification is a valid enum value.
func (c DataClassification) Validate() error {
	switch c {
	case ClassificationPublic, ClassificationInternal,
		ClassificationConfidential, ClassificationRestricted:
		return nil
	default:
		return fmt.Errorf("unknown data classification: %q", c)
	}
}

// SourceSystem identifies where a ledger record originated.
type SourceSystem string

const (
	SourceLocal       SourceSystem = "Local"
	SourceExternalVCS SourceSystem = "ExternalVCS"
	SourceManual      SourceSystem = "Manual"
	SourceThirdParty  SourceSystem = "ThirdParty"
)

// Validate checks if the SourceSystem is a valid enum value.
func (s SourceSystem) Validate() error {
	switch s {
	case SourceLocal, SourceExternalVCS, SourceManual, SourceThirdParty:
		return nil
	default:
		return fmt.Errorf("unknown source system: %q", s)
	}
}

// DetailsKind tags which variant of Details is populated.
type DetailsKind string

const (
	DetailsKindArtifact DetailsKind = "artifact"
	DetailsKindLink     DetailsKind = "link"
	DetailsKindCommit   DetailsKind = "commit"
	DetailsKindGeneric  DetailsKind = "generic"
)

// Validate checks if the DetailsKind is a valid enum value.
func (k DetailsKind) Validate() error {
	switch k {
	case DetailsKindArtifact, DetailsKindLink, DetailsKindCommit, DetailsKindGeneric:
		return nil
	default:
		return fmt.Errorf("unknown details kind: %q", k)
	}
}

// ArtifactDetails describes a CRUD action on a single stored artifact.
type ArtifactDetails struct {
	Collection string `json:"collection"`
	EntityID   string `json:"entity_id"`
}

// LinkDetails describes a link or unlink action.
type LinkDetails struct {
	SourceID string   `json:"source_id"`
	TargetID string   `json:"target_id"`
	Kind     LinkKind `json:"kind"`
}

// CommitDetails describes an externally ingested version control event.
type CommitDetails struct {
	ExternalID string          `json:"external_id"`
	AuthorName string          `json:"author_name,omitempty"`
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
}

// Details is the payload of a ledger record, modeled as a tagged union over
// the known event categories with a generic raw fallback. Consumers switch on
// Kind instead of duck-typing an opaque map.
type Details struct {
	Kind     DetailsKind      `json:"kind"`
	Artifact *ArtifactDetails `json:"artifact,omitempty"`
	Link     *LinkDetails     `json:"link,omitempty"`
	Commit   *CommitDetails   `json:"commit,omitempty"`
	Raw      json.RawMessage  `json:"raw,omitempty"`
}

// ArtifactChange builds Details for a CRUD action on one artifact.
func ArtifactChange(collection, entityID string) Details {
	return Details{
		Kind:     DetailsKindArtifact,
		Artifact: &ArtifactDetails{Collection: collection, EntityID: entityID},
	}
}

// LinkChange builds Details for a link or unlink action.
func LinkChange(l Link) Details {
	return Details{
		Kind: DetailsKindLink,
		Link: &LinkDetails{SourceID: l.SourceID, TargetID: l.TargetID, Kind: l.Kind},
	}
}

// CommitChange builds Details for an ingested VCS event.
func CommitChange(externalID, authorName string, raw json.RawMessage) Details {
	return Details{
		Kind:   DetailsKindCommit,
		Commit: &CommitDetails{ExternalID: externalID, AuthorName: authorName, RawPayload: raw},
	}
}

// GenericChange builds Details carrying an opaque payload.
func GenericChange(raw json.RawMessage) Details {
	return Details{Kind: DetailsKindGeneric, Raw: raw}
}

// Validate checks that exactly the variant named by Kind is populated.
func (d *Details) Validate() error {
	if err := d.Kind.Validate(); err != nil {
		return err
	}
	switch d.Kind {
	case DetailsKindArtifact:
		if d.Artifact == nil {
			return fmt.Errorf("artifact details missing for kind %q", d.Kind)
		}
	case DetailsKindLink:
		if d.Link == nil {
			return fmt.Errorf("link details missing for kind %q", d.Kind)
		}
	case DetailsKindCommit:
		if d.Commit == nil {
			return fmt.Errorf("commit details missing for kind %q", d.Kind)
		}
	case DetailsKindGeneric:
		// Raw may legitimately be empty.
	}
	return nil
}

// LedgerRecord is one immutable line of the append-only audit ledger.
// ID, Timestamp and the hash fields are assigned at append time and never
// mutated thereafter. All fields are structs or scalars (no maps) so that
// json.Marshal produces a deterministic byte sequence for hashing.
type LedgerRecord struct {
	ID                 string             `json:"id"`
	Timestamp          time.Time          `json:"timestamp"`
	EventType          string             `json:"event_type"`
	Actor              Actor              `json:"actor"`
	Summary            string             `json:"summary"`
	Details            Details            `json:"details"`
	DataClassification DataClassification `json:"data_classification"`
	SourceSystem       SourceSystem       `json:"source_system"`
	PrevHash           string             `json:"prev_hash"`
	EntryHash          string             `json:"entry_hash"`
}

// Validate checks if the LedgerRecord has valid field values. Hash fields
// are excluded: they are owned by the ledger, not by callers.
func (r *LedgerRecord) Validate() error {
	if r.Timestamp.IsZero() {
		return fmt.Errorf("ledger record timestamp cannot be zero")
	}
	if r.EventType == "" {
		return fmt.Errorf("ledger record event type cannot be empty")
	}
	if err := r.Actor.Validate(); err != nil {
		return fmt.Errorf("invalid ledger record actor: %w", err)
	}
	if err := r.DataClassification.Validate(); err != nil {
		return fmt.Errorf("invalid ledger record classification: %w", err)
	}
	if err := r.SourceSystem.Validate(); err != nil {
		return fmt.Errorf("invalid ledger record source system: %w", err)
	}
	if err := r.Details.Validate(); err != nil {
		return fmt.Errorf("invalid ledger record details: %w", err)
	}
	return nil
}
