// Package engine is the single write path for project state. Every mutation
// goes through one Engine, which serializes writes, validates input before
// touching the store, and appends exactly one audit record per successful
// mutation. Reads (snapshots, queries, scoring) never go through the engine.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/veritrail/veritrail/internal/ledger"
	"github.com/veritrail/veritrail/pkg/projectboard"
)

// System lifecycle event types. CRUD event types follow the
// <COLLECTION>_<VERB> convention and are built at the call site.
const (
	EventProjectInit = "SYSTEM_PROJECT_INIT"
	EventIssueSync   = "SYSTEM_ISSUE_SYNC"
)

// Engine coordinates the artifact store and the audit ledger behind a
// single mutex. Holding the lock across read-modify-write keeps the
// create/update distinction and the hash chain consistent.
type Engine struct {
	client *projectboard.Client
	ledger *ledger.Ledger
	mu     sync.Mutex
}

// New creates an engine over an existing store client and ledger.
func New(client *projectboard.Client, lgr *ledger.Ledger) *Engine {
	return &Engine{client: client, ledger: lgr}
}

// record appends one audit record for a completed local mutation and
// returns its assigned ID.
func (e *Engine) record(ctx context.Context, eventType string, actor projectboard.Actor, summary string, details projectboard.Details) (string, error) {
	id, err := e.ledger.Append(ctx, projectboard.LedgerRecord{
		Timestamp:          time.Now().UTC(),
		EventType:          eventType,
		Actor:              actor,
		Summary:            summary,
		Details:            details,
		DataClassification: projectboard.ClassificationInternal,
		SourceSystem:       projectboard.SourceLocal,
	})
	if err != nil {
		return "", fmt.Errorf("mutation applied but audit append failed: %w", err)
	}
	return id, nil
}

// upsertVerb reports CREATE or UPDATE depending on prior existence.
func upsertVerb(err error) (string, error) {
	if err == nil {
		return "UPDATE", nil
	}
	if projectboard.IsNotFound(err) {
		return "CREATE", nil
	}
	return "", err
}

// verbWord maps an event verb to its summary form.
func verbWord(verb string) string {
	if verb == "UPDATE" {
		return "Updated"
	}
	return "Created"
}

// Init marks a project as initialized. Appending the genesis record also
// anchors the hash chain.
func (e *Engine) Init(ctx context.Context, actor projectboard.Actor) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	raw, _ := json.Marshal(map[string]string{"project": e.client.Project()})
	e.logEvent("project_init", map[string]interface{}{"project": e.client.Project()})
	return e.record(ctx, EventProjectInit, actor,
		fmt.Sprintf("Initialized project %s", e.client.Project()),
		projectboard.GenericChange(raw))
}

// PutRequirement creates or updates a requirement and returns the audit
// record ID.
func (e *Engine) PutRequirement(ctx context.Context, actor projectboard.Actor, r *projectboard.Requirement) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}
	if err := r.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	_, getErr := e.client.GetRequirement(ctx, r.ID)
	verb, err := upsertVerb(getErr)
	if err != nil {
		return "", err
	}
	if err := e.client.PutRequirement(ctx, r); err != nil {
		return "", err
	}
	e.logEvent("requirement_put", map[string]interface{}{"id": r.ID, "verb": verb})
	return e.record(ctx, "REQUIREMENT_"+verb, actor,
		fmt.Sprintf("%s requirement %s", verbWord(verb), r.ID),
		projectboard.ArtifactChange(projectboard.CollectionRequirements, r.ID))
}

// DeleteRequirement removes a requirement and every link touching it.
func (e *Engine) DeleteRequirement(ctx context.Context, actor projectboard.Actor, id string) (string, error) {
	return e.deleteEntity(ctx, actor, projectboard.CollectionRequirements, id, "requirement",
		func() error { return e.client.DeleteRequirement(ctx, id) })
}

// PutTestCase creates or updates a test case.
func (e *Engine) PutTestCase(ctx context.Context, actor projectboard.Actor, tc *projectboard.TestCase) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}
	if err := tc.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	_, getErr := e.client.GetTestCase(ctx, tc.ID)
	verb, err := upsertVerb(getErr)
	if err != nil {
		return "", err
	}
	if err := e.client.PutTestCase(ctx, tc); err != nil {
		return "", err
	}
	e.logEvent("testcase_put", map[string]interface{}{"id": tc.ID, "verb": verb, "status": string(tc.Status)})
	return e.record(ctx, "TESTCASE_"+verb, actor,
		fmt.Sprintf("%s test case %s", verbWord(verb), tc.ID),
		projectboard.ArtifactChange(projectboard.CollectionTestCases, tc.ID))
}

// DeleteTestCase removes a test case and every link touching it.
func (e *Engine) DeleteTestCase(ctx context.Context, actor projectboard.Actor, id string) (string, error) {
	return e.deleteEntity(ctx, actor, projectboard.CollectionTestCases, id, "test case",
		func() error { return e.client.DeleteTestCase(ctx, id) })
}

// PutRisk creates or updates a risk.
func (e *Engine) PutRisk(ctx context.Context, actor projectboard.Actor, r *projectboard.Risk) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}
	if err := r.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	_, getErr := e.client.GetRisk(ctx, r.ID)
	verb, err := upsertVerb(getErr)
	if err != nil {
		return "", err
	}
	if err := e.client.PutRisk(ctx, r); err != nil {
		return "", err
	}
	e.logEvent("risk_put", map[string]interface{}{"id": r.ID, "verb": verb})
	return e.record(ctx, "RISK_"+verb, actor,
		fmt.Sprintf("%s risk %s", verbWord(verb), r.ID),
		projectboard.ArtifactChange(projectboard.CollectionRisks, r.ID))
}

// DeleteRisk removes a risk and every link touching it.
func (e *Engine) DeleteRisk(ctx context.Context, actor projectboard.Actor, id string) (string, error) {
	return e.deleteEntity(ctx, actor, projectboard.CollectionRisks, id, "risk",
		func() error { return e.client.DeleteRisk(ctx, id) })
}

// PutConfigurationItem creates or updates a configuration item.
func (e *Engine) PutConfigurationItem(ctx context.Context, actor projectboard.Actor, ci *projectboard.ConfigurationItem) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}
	if err := ci.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	_, getErr := e.client.GetConfigurationItem(ctx, ci.ID)
	verb, err := upsertVerb(getErr)
	if err != nil {
		return "", err
	}
	if err := e.client.PutConfigurationItem(ctx, ci); err != nil {
		return "", err
	}
	e.logEvent("configitem_put", map[string]interface{}{"id": ci.ID, "verb": verb})
	return e.record(ctx, "CONFIGITEM_"+verb, actor,
		fmt.Sprintf("%s configuration item %s", verbWord(verb), ci.ID),
		projectboard.ArtifactChange(projectboard.CollectionConfigurationItems, ci.ID))
}

// DeleteConfigurationItem removes a configuration item and every link
// touching it.
func (e *Engine) DeleteConfigurationItem(ctx context.Context, actor projectboard.Actor, id string) (string, error) {
	return e.deleteEntity(ctx, actor, projectboard.CollectionConfigurationItems, id, "configuration item",
		func() error { return e.client.DeleteConfigurationItem(ctx, id) })
}

// PutDocument creates or updates a document.
func (e *Engine) PutDocument(ctx context.Context, actor projectboard.Actor, d *projectboard.Document) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}
	if err := d.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	_, getErr := e.client.GetDocument(ctx, d.ID)
	verb, err := upsertVerb(getErr)
	if err != nil {
		return "", err
	}
	if err := e.client.PutDocument(ctx, d); err != nil {
		return "", err
	}
	e.logEvent("document_put", map[string]interface{}{"id": d.ID, "verb": verb})
	return e.record(ctx, "DOCUMENT_"+verb, actor,
		fmt.Sprintf("%s document %s", verbWord(verb), d.ID),
		projectboard.ArtifactChange(projectboard.CollectionDocuments, d.ID))
}

// DeleteDocument removes a document.
func (e *Engine) DeleteDocument(ctx context.Context, actor projectboard.Actor, id string) (string, error) {
	return e.deleteEntity(ctx, actor, projectboard.CollectionDocuments, id, "document",
		func() error { return e.client.DeleteDocument(ctx, id) })
}

// deleteEntity is the shared delete path. The store cascades link removal;
// the engine counts the links first so the audit summary reflects them.
func (e *Engine) deleteEntity(ctx context.Context, actor projectboard.Actor, collection, id, noun string, del func() error) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	links, err := e.client.LinksOf(ctx, id)
	if err != nil {
		return "", err
	}
	if err := del(); err != nil {
		return "", err
	}
	e.logEvent("entity_deleted", map[string]interface{}{"collection": collection, "id": id, "links_removed": len(links)})

	summary := fmt.Sprintf("Deleted %s %s", noun, id)
	if len(links) > 0 {
		summary = fmt.Sprintf("Deleted %s %s and %d link(s)", noun, id, len(links))
	}
	verb := "DELETE"
	return e.record(ctx, crudEventType(collection, verb), actor, summary,
		projectboard.ArtifactChange(collection, id))
}

// crudEventType builds the <COLLECTION>_<VERB> event type name.
func crudEventType(collection, verb string) string {
	names := map[string]string{
		projectboard.CollectionRequirements:       "REQUIREMENT",
		projectboard.CollectionTestCases:          "TESTCASE",
		projectboard.CollectionRisks:              "RISK",
		projectboard.CollectionConfigurationItems: "CONFIGITEM",
		projectboard.CollectionIssues:             "ISSUE",
		projectboard.CollectionDocuments:          "DOCUMENT",
	}
	return names[collection] + "_" + verb
}

// Link records a typed edge between two existing artifacts.
func (e *Engine) Link(ctx context.Context, actor projectboard.Actor, l projectboard.Link) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}
	if err := l.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.Link(ctx, l); err != nil {
		return "", err
	}
	e.logEvent("link_created", map[string]interface{}{"source": l.SourceID, "target": l.TargetID, "kind": string(l.Kind)})
	return e.record(ctx, "LINK_CREATE", actor,
		fmt.Sprintf("Linked %s to %s (%s)", l.SourceID, l.TargetID, l.Kind),
		projectboard.LinkChange(l))
}

// Unlink removes a typed edge. Removing an absent edge is not an error and
// leaves no audit trace; removed reports whether an edge existed.
func (e *Engine) Unlink(ctx context.Context, actor projectboard.Actor, l projectboard.Link) (recordID string, removed bool, err error) {
	if err := actor.Validate(); err != nil {
		return "", false, err
	}
	if err := l.Validate(); err != nil {
		return "", false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	removed, err = e.client.Unlink(ctx, l)
	if err != nil || !removed {
		return "", removed, err
	}
	e.logEvent("link_removed", map[string]interface{}{"source": l.SourceID, "target": l.TargetID, "kind": string(l.Kind)})
	recordID, err = e.record(ctx, "LINK_DELETE", actor,
		fmt.Sprintf("Unlinked %s from %s (%s)", l.SourceID, l.TargetID, l.Kind),
		projectboard.LinkChange(l))
	return recordID, true, err
}

// SyncResult summarizes one issue mirror synchronization.
type SyncResult struct {
	Synced int `json:"synced"`
	Pruned int `json:"pruned"`
}

// SyncIssues upserts the local issue mirror from an external tracker
// snapshot. With prune set, mirrored issues absent from the snapshot are
// deleted along with their links. The whole sync is one audit record.
func (e *Engine) SyncIssues(ctx context.Context, issues []projectboard.Issue, prune bool) (SyncResult, error) {
	for i := range issues {
		if err := issues[i].Validate(); err != nil {
			return SyncResult{}, err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var res SyncResult
	seen := make(map[int]bool, len(issues))
	for i := range issues {
		if err := e.client.PutIssue(ctx, &issues[i]); err != nil {
			return res, err
		}
		seen[issues[i].Number] = true
		res.Synced++
	}

	if prune {
		existing, err := e.client.ListIssues(ctx)
		if err != nil {
			return res, err
		}
		for _, iss := range existing {
			if seen[iss.Number] {
				continue
			}
			if err := e.client.DeleteIssue(ctx, iss.Number); err != nil {
				return res, err
			}
			res.Pruned++
		}
	}

	e.logEvent("issues_synced", map[string]interface{}{"synced": res.Synced, "pruned": res.Pruned})
	raw, _ := json.Marshal(res)
	_, err := e.ledger.Append(ctx, projectboard.LedgerRecord{
		Timestamp:          time.Now().UTC(),
		EventType:          EventIssueSync,
		Actor:              projectboard.ActorSystem,
		Summary:            fmt.Sprintf("Synchronized %d issue(s), pruned %d", res.Synced, res.Pruned),
		Details:            projectboard.GenericChange(raw),
		DataClassification: projectboard.ClassificationInternal,
		SourceSystem:       projectboard.SourceThirdParty,
	})
	return res, err
}

// IngestCommits records externally fetched commit events through the
// deduplicating ingestion path.
func (e *Engine) IngestCommits(ctx context.Context, events []ledger.ExternalEvent) ([]ledger.IngestResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	results, err := e.ledger.IngestExternal(ctx, events, projectboard.SourceExternalVCS)
	if err != nil {
		return results, err
	}
	appended := 0
	for _, r := range results {
		if r.Status == ledger.IngestAppended {
			appended++
		}
	}
	e.logEvent("commits_ingested", map[string]interface{}{"received": len(events), "appended": appended})
	return results, nil
}

// Snapshot reads a point-in-time view of all project artifacts and links.
func (e *Engine) Snapshot(ctx context.Context) (*projectboard.Snapshot, error) {
	return e.client.Snapshot(ctx)
}

// logEvent logs a structured event in JSON format.
func (e *Engine) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "engine"
	data["event_type"] = eventType
	data["project"] = e.client.Project()

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Engine] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
