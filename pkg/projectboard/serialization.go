package projectboard

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Serialization helpers for converting between Go structs and Redis hashes.
//
// Entities are stored as Redis hashes (string-to-string maps); list-valued
// fields are JSON-encoded into a single hash field. Links are stored as set
// members encoded "source|target|kind", which is why "|" is a reserved
// character in entity IDs.

// RequirementToHash converts a Requirement to Redis hash format.
func RequirementToHash(r *Requirement) map[string]interface{} {
	return map[string]interface{}{
		"id":          r.ID,
		"description": r.Description,
		"status":      string(r.Status),
	}
}

// HashToRequirement converts a Redis hash to a Requirement.
func HashToRequirement(hash map[string]string) *Requirement {
	return &Requirement{
		ID:          hash["id"],
		Description: hash["description"],
		Status:      RequirementStatus(hash["status"]),
	}
}

// TestCaseToHash converts a TestCase to Redis hash format.
func TestCaseToHash(tc *TestCase) map[string]interface{} {
	return map[string]interface{}{
		"id":          tc.ID,
		"description": tc.Description,
		"status":      string(tc.Status),
		"gherkin":     tc.Gherkin,
		"created_by":  string(tc.CreatedBy),
		"updated_by":  string(tc.UpdatedBy),
	}
}

// HashToTestCase converts a Redis hash to a TestCase.
func HashToTestCase(hash map[string]string) *TestCase {
	return &TestCase{
		ID:          hash["id"],
		Description: hash["description"],
		Status:      TestStatus(hash["status"]),
		Gherkin:     hash["gherkin"],
		CreatedBy:   Origin(hash["created_by"]),
		UpdatedBy:   Origin(hash["updated_by"]),
	}
}

// RiskToHash converts a Risk to Redis hash format.
func RiskToHash(r *Risk) map[string]interface{} {
	return map[string]interface{}{
		"id":          r.ID,
		"description": r.Description,
	}
}

// HashToRisk converts a Redis hash to a Risk.
func HashToRisk(hash map[string]string) *Risk {
	return &Risk{
		ID:          hash["id"],
		Description: hash["description"],
	}
}

// ConfigurationItemToHash converts a ConfigurationItem to Redis hash format.
func ConfigurationItemToHash(ci *ConfigurationItem) map[string]interface{} {
	return map[string]interface{}{
		"id":   ci.ID,
		"name": ci.Name,
	}
}

// HashToConfigurationItem converts a Redis hash to a ConfigurationItem.
func HashToConfigurationItem(hash map[string]string) *ConfigurationItem {
	return &ConfigurationItem{
		ID:   hash["id"],
		Name: hash["name"],
	}
}

// IssueToHash converts an Issue to Redis hash format.
func IssueToHash(i *Issue) map[string]interface{} {
	return map[string]interface{}{
		"number": i.Number,
		"title":  i.Title,
		"url":    i.URL,
	}
}

// HashToIssue converts a Redis hash to an Issue.
func HashToIssue(hash map[string]string) (*Issue, error) {
	number, err := strconv.Atoi(hash["number"])
	if err != nil {
		return nil, fmt.Errorf("invalid issue number field: %w", err)
	}
	return &Issue{
		Number: number,
		Title:  hash["title"],
		URL:    hash["url"],
	}, nil
}

// DocumentToHash converts a Document to Redis hash format.
// The sections array is JSON-encoded to preserve order.
func DocumentToHash(d *Document) (map[string]interface{}, error) {
	sectionsJSON, err := json.Marshal(d.Sections)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document sections: %w", err)
	}
	return map[string]interface{}{
		"id":       d.ID,
		"title":    d.Title,
		"sections": string(sectionsJSON),
	}, nil
}

// HashToDocument converts a Redis hash to a Document.
func HashToDocument(hash map[string]string) (*Document, error) {
	var sections []string
	if sectionsJSON := hash["sections"]; sectionsJSON != "" {
		if err := json.Unmarshal([]byte(sectionsJSON), &sections); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document sections: %w", err)
		}
	}
	if sections == nil {
		sections = []string{}
	}
	return &Document{
		ID:       hash["id"],
		Title:    hash["title"],
		Sections: sections,
	}, nil
}

// EncodeLink encodes a link as an adjacency set member: "source|target|kind".
func EncodeLink(l Link) string {
	return fmt.Sprintf("%s|%s|%s", l.SourceID, l.TargetID, l.Kind)
}

// DecodeLink parses an adjacency set member back into a Link.
func DecodeLink(member string) (Link, error) {
	parts := strings.Split(member, "|")
	if len(parts) != 3 {
		return Link{}, fmt.Errorf("malformed link member: %q", member)
	}
	l := Link{SourceID: parts[0], TargetID: parts[1], Kind: LinkKind(parts[2])}
	if err := l.Validate(); err != nil {
		return Link{}, fmt.Errorf("malformed link member %q: %w", member, err)
	}
	return l, nil
}
