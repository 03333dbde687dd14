// Package projectboard provides type-safe Go definitions and Redis schema
// patterns for the Veritrail project board. The board is the canonical state
// store for a single governed project: artifact collections, the link graph
// between them, the project's documents, and the append-only audit ledger.
//
// All Redis keys are namespaced by project name to enable multiple projects
// to safely coexist on a single Redis server.
package projectboard

import (
	"fmt"
	"strings"
)

// RequirementStatus is the lifecycle state of a requirement.
type RequirementStatus string

const (
	RequirementStatusDraft       RequirementStatus = "draft"
	RequirementStatusApproved    RequirementStatus = "approved"
	RequirementStatusImplemented RequirementStatus = "implemented"
	RequirementStatusVerified    RequirementStatus = "verified"
)

// Validate checks if the RequirementStatus is a valid enum value.
func (s RequirementStatus) Validate() error {
	switch s {
	case RequirementStatusDraft, RequirementStatusApproved,
		RequirementStatusImplemented, RequirementStatusVerified:
		return nil
	default:
		return fmt.Errorf("unknown requirement status: %q", s)
	}
}

// Requirement is a single tracked requirement in the artifact store.
type Requirement struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Status      RequirementStatus `json:"status"`
}

// Validate checks if the Requirement has valid field values.
func (r *Requirement) Validate() error {
	if err := validateEntityID(r.ID); err != nil {
		return fmt.Errorf("invalid requirement ID: %w", err)
	}
	if r.Description == "" {
		return fmt.Errorf("requirement description cannot be empty")
	}
	if err := r.Status.Validate(); err != nil {
		return fmt.Errorf("invalid requirement status: %w", err)
	}
	return nil
}

// TestStatus is the execution state of a test case.
type TestStatus string

const (
	TestStatusNotRun TestStatus = "NotRun"
	TestStatusPassed TestStatus = "Passed"
	TestStatusFailed TestStatus = "Failed"
)

// Validate checks if the TestStatus is a valid enum value.
func (s TestStatus) Validate() error {
	switch s {
	case TestStatusNotRun, TestStatusPassed, TestStatusFailed:
		return nil
	default:
		return fmt.Errorf("unknown test status: %q", s)
	}
}

// Origin identifies what kind of author produced or last touched an artifact.
// AI-assisted edits are first-class and must stay distinguishable from human
// edits for scoring and reporting.
type Origin string

const (
	OriginUser       Origin = "User"
	OriginAI         Origin = "AI"
	OriginAutomation Origin = "Automation"
)

// Validate checks if the Origin is a valid enum value.
func (o Origin) Validate() error {
	switch o {
	case OriginUser, OriginAI, OriginAutomation:
		return nil
	default:
		return fmt.Errorf("unknown origin: %q", o)
	}
}

// TestCase is a single test case, optionally with a Gherkin scenario body.
type TestCase struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      TestStatus `json:"status"`
	Gherkin     string     `json:"gherkin,omitempty"`
	CreatedBy   Origin     `json:"created_by"`
	UpdatedBy   Origin     `json:"updated_by"`
}

// Validate checks if the TestCase has valid field values.
func (tc *TestCase) Validate() error {
	if err := validateEntityID(tc.ID); err != nil {
		return fmt.Errorf("invalid test case ID: %w", err)
	}
	if tc.Description == "" {
		return fmt.Errorf("test case description cannot be empty")
	}
	if err := tc.Status.Validate(); err != nil {
		return fmt.Errorf("invalid test case status: %w", err)
	}
	if err := tc.CreatedBy.Validate(); err != nil {
		return fmt.Errorf("invalid test case created_by: %w", err)
	}
	if err := tc.UpdatedBy.Validate(); err != nil {
		return fmt.Errorf("invalid test case updated_by: %w", err)
	}
	return nil
}

// Risk is a tracked project risk.
type Risk struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Validate checks if the Risk has valid field values.
func (r *Risk) Validate() error {
	if err := validateEntityID(r.ID); err != nil {
		return fmt.Errorf("invalid risk ID: %w", err)
	}
	if r.Description == "" {
		return fmt.Errorf("risk description cannot be empty")
	}
	return nil
}

// ConfigurationItem is a tracked configuration item (a deployable or
// controlled component of the project).
type ConfigurationItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Validate checks if the ConfigurationItem has valid field values.
func (ci *ConfigurationItem) Validate() error {
	if err := validateEntityID(ci.ID); err != nil {
		return fmt.Errorf("invalid configuration item ID: %w", err)
	}
	if ci.Name == "" {
		return fmt.Errorf("configuration item name cannot be empty")
	}
	return nil
}

// Issue is a read-only mirror of an issue in an external tracker. Issue
// numbers are assigned by the external system, never generated locally, and
// issues are only ever written by ingestion.
type Issue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
}

// Validate checks if the Issue has valid field values.
func (i *Issue) Validate() error {
	if i.Number <= 0 {
		return fmt.Errorf("issue number must be positive, got %d", i.Number)
	}
	if i.Title == "" {
		return fmt.Errorf("issue title cannot be empty")
	}
	return nil
}

// IssueRef returns the link-graph identifier for an externally tracked issue.
// Issues live in their own number space, so they get a prefixed identifier to
// keep them from colliding with locally assigned artifact IDs.
func IssueRef(number int) string {
	return fmt.Sprintf("issue:%d", number)
}

// Document is a project document: a title plus its ordered section titles.
// Section titles are weak evidence signals for the maturity scorer (for
// example, whether a security section exists at all).
type Document struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Sections []string `json:"sections,omitempty"`
}

// Validate checks if the Document has valid field values.
func (d *Document) Validate() error {
	if err := validateEntityID(d.ID); err != nil {
		return fmt.Errorf("invalid document ID: %w", err)
	}
	if d.Title == "" {
		return fmt.Errorf("document title cannot be empty")
	}
	return nil
}

// LinkKind identifies which pair of collections a link may join.
type LinkKind string

const (
	// LinkKindRequirementIssue joins a Requirement to an external Issue.
	LinkKindRequirementIssue LinkKind = "requirement-issue"

	// LinkKindIssueConfigurationItem joins an external Issue to a ConfigurationItem.
	LinkKindIssueConfigurationItem LinkKind = "issue-configuration-item"

	// LinkKindIssueRisk joins an external Issue to a Risk.
	LinkKindIssueRisk LinkKind = "issue-risk"
)

// Validate checks if the LinkKind is a valid enum value.
func (k LinkKind) Validate() error {
	switch k {
	case LinkKindRequirementIssue, LinkKindIssueConfigurationItem, LinkKindIssueRisk:
		return nil
	default:
		return fmt.Errorf("unknown link kind: %q", k)
	}
}

// Link is an undirected association between two artifacts. SourceID and
// TargetID follow the collection order named by the kind (requirement→issue,
// issue→configuration item, issue→risk); traversal treats both ends equally.
type Link struct {
	SourceID string   `json:"source_id"`
	TargetID string   `json:"target_id"`
	Kind     LinkKind `json:"kind"`
}

// Validate checks if the Link has valid field values. Endpoint existence is
// checked by the client at link time, not here.
func (l *Link) Validate() error {
	if err := validateEntityID(l.SourceID); err != nil {
		return fmt.Errorf("invalid link source ID: %w", err)
	}
	if err := validateEntityID(l.TargetID); err != nil {
		return fmt.Errorf("invalid link target ID: %w", err)
	}
	if l.SourceID == l.TargetID {
		return fmt.Errorf("link cannot join an artifact to itself")
	}
	if err := l.Kind.Validate(); err != nil {
		return fmt.Errorf("invalid link kind: %w", err)
	}
	return nil
}

// Touches reports whether the link has id as either endpoint.
func (l *Link) Touches(id string) bool {
	return l.SourceID == id || l.TargetID == id
}

// Other returns the opposite endpoint from id. Returns "" if id is not an
// endpoint of the link.
func (l *Link) Other(id string) string {
	switch id {
	case l.SourceID:
		return l.TargetID
	case l.TargetID:
		return l.SourceID
	default:
		return ""
	}
}

// validateEntityID rejects IDs that cannot be stored or indexed safely.
// The "|" character is reserved as the adjacency set member separator.
func validateEntityID(id string) error {
	if id == "" {
		return fmt.Errorf("ID cannot be empty")
	}
	if strings.ContainsAny(id, "| \t\n") {
		return fmt.Errorf("ID %q contains reserved characters", id)
	}
	return nil
}
