package projectboard

import (
	"testing"
	"time"
)

// validTestRecord builds a ledger record that passes validation.
func validTestRecord() *LedgerRecord {
	return &LedgerRecord{
		Timestamp:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		EventType:          "REQUIREMENT_CREATE",
		Actor:              ActorUser,
		Summary:            "Created requirement REQ-1",
		Details:            ArtifactChange(CollectionRequirements, "REQ-1"),
		DataClassification: ClassificationInternal,
		SourceSystem:       SourceLocal,
	}
}

func zeroTime() time.Time {
	return time.Time{}
}

// TestRequirementValidate_Valid tests that valid requirements pass validation
func TestRequirementValidate_Valid(t *testing.T) {
	r := &Requirement{
		ID:          "REQ-1",
		Description: "The system shall record every mutation",
		Status:      RequirementStatusDraft,
	}

	if err := r.Validate(); err != nil {
		t.Errorf("valid requirement failed validation: %v", err)
	}
}

// TestRequirementValidate_Invalid tests the rejection paths
func TestRequirementValidate_Invalid(t *testing.T) {
	cases := []struct {
		name string
		req  Requirement
	}{
		{"empty ID", Requirement{ID: "", Description: "x", Status: RequirementStatusDraft}},
		{"reserved character in ID", Requirement{ID: "REQ|1", Description: "x", Status: RequirementStatusDraft}},
		{"empty description", Requirement{ID: "REQ-1", Description: "", Status: RequirementStatusDraft}},
		{"unknown status", Requirement{ID: "REQ-1", Description: "x", Status: "bogus"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.req.Validate(); err == nil {
				t.Error("expected validation to fail, but it passed")
			}
		})
	}
}

// TestTestCaseValidate tests test case validation including origin enums
func TestTestCaseValidate(t *testing.T) {
	tc := &TestCase{
		ID:          "TC-1",
		Description: "login succeeds with valid credentials",
		Status:      TestStatusPassed,
		Gherkin:     "Given a registered user\nWhen they log in\nThen they see the dashboard",
		CreatedBy:   OriginUser,
		UpdatedBy:   OriginAI,
	}

	if err := tc.Validate(); err != nil {
		t.Errorf("valid test case failed validation: %v", err)
	}

	tc.Status = "Skipped"
	if err := tc.Validate(); err == nil {
		t.Error("expected unknown test status to fail validation")
	}

	tc.Status = TestStatusNotRun
	tc.UpdatedBy = "robot"
	if err := tc.Validate(); err == nil {
		t.Error("expected unknown origin to fail validation")
	}
}

// TestIssueValidate tests that issue numbers must be externally assigned positives
func TestIssueValidate(t *testing.T) {
	issue := &Issue{Number: 42, Title: "Crash on empty import", URL: "https://example.com/issues/42"}
	if err := issue.Validate(); err != nil {
		t.Errorf("valid issue failed validation: %v", err)
	}

	issue.Number = 0
	if err := issue.Validate(); err == nil {
		t.Error("expected zero issue number to fail validation")
	}

	issue.Number = 42
	issue.Title = ""
	if err := issue.Validate(); err == nil {
		t.Error("expected empty issue title to fail validation")
	}
}

// TestIssueRef tests the link-graph identifier for issues
func TestIssueRef(t *testing.T) {
	if got := IssueRef(42); got != "issue:42" {
		t.Errorf("IssueRef(42) = %q, want %q", got, "issue:42")
	}
}

// TestLinkValidate tests link field validation
func TestLinkValidate(t *testing.T) {
	l := &Link{SourceID: "REQ-1", TargetID: IssueRef(42), Kind: LinkKindRequirementIssue}
	if err := l.Validate(); err != nil {
		t.Errorf("valid link failed validation: %v", err)
	}

	self := &Link{SourceID: "REQ-1", TargetID: "REQ-1", Kind: LinkKindRequirementIssue}
	if err := self.Validate(); err == nil {
		t.Error("expected self link to fail validation")
	}

	bogus := &Link{SourceID: "REQ-1", TargetID: IssueRef(42), Kind: "requirement-testcase"}
	if err := bogus.Validate(); err == nil {
		t.Error("expected unknown link kind to fail validation")
	}
}

// TestLinkTouchesAndOther tests undirected traversal helpers
func TestLinkTouchesAndOther(t *testing.T) {
	l := &Link{SourceID: "REQ-1", TargetID: IssueRef(7), Kind: LinkKindRequirementIssue}

	if !l.Touches("REQ-1") || !l.Touches("issue:7") {
		t.Error("link should touch both endpoints")
	}
	if l.Touches("REQ-2") {
		t.Error("link should not touch an unrelated ID")
	}
	if got := l.Other("REQ-1"); got != "issue:7" {
		t.Errorf("Other(REQ-1) = %q, want issue:7", got)
	}
	if got := l.Other("issue:7"); got != "REQ-1" {
		t.Errorf("Other(issue:7) = %q, want REQ-1", got)
	}
	if got := l.Other("REQ-2"); got != "" {
		t.Errorf("Other with non-endpoint should be empty, got %q", got)
	}
}

// TestLedgerRecordValidate tests append-time validation of ledger records
func TestLedgerRecordValidate(t *testing.T) {
	rec := validTestRecord()
	if err := rec.Validate(); err != nil {
		t.Errorf("valid ledger record failed validation: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*LedgerRecord)
	}{
		{"zero timestamp", func(r *LedgerRecord) { r.Timestamp = zeroTime() }},
		{"empty event type", func(r *LedgerRecord) { r.EventType = "" }},
		{"unknown actor", func(r *LedgerRecord) { r.Actor = "Committee" }},
		{"unknown classification", func(r *LedgerRecord) { r.DataClassification = "SECRET" }},
		{"unknown source system", func(r *LedgerRecord) { r.SourceSystem = "Fax" }},
		{"details variant mismatch", func(r *LedgerRecord) { r.Details = Details{Kind: DetailsKindLink} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := validTestRecord()
			tc.mutate(rec)
			if err := rec.Validate(); err == nil {
				t.Error("expected validation to fail, but it passed")
			}
		})
	}
}

// TestDetailsTaggedUnion tests that constructors populate the right variant
func TestDetailsTaggedUnion(t *testing.T) {
	d := ArtifactChange(CollectionRequirements, "REQ-1")
	if d.Kind != DetailsKindArtifact || d.Artifact == nil || d.Artifact.EntityID != "REQ-1" {
		t.Errorf("ArtifactChange built wrong details: %+v", d)
	}

	l := LinkChange(Link{SourceID: "REQ-1", TargetID: IssueRef(1), Kind: LinkKindRequirementIssue})
	if l.Kind != DetailsKindLink || l.Link == nil {
		t.Errorf("LinkChange built wrong details: %+v", l)
	}

	c := CommitChange("abc123", "dev", nil)
	if c.Kind != DetailsKindCommit || c.Commit == nil || c.Commit.ExternalID != "abc123" {
		t.Errorf("CommitChange built wrong details: %+v", c)
	}

	g := GenericChange([]byte(`{"note":"manual entry"}`))
	if g.Kind != DetailsKindGeneric {
		t.Errorf("GenericChange built wrong details: %+v", g)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("generic details with raw payload failed validation: %v", err)
	}
}
