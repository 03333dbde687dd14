package projectboard

import "fmt"

// Redis key pattern helpers
//
// All Redis keys are namespaced by project name to enable multiple projects
// to safely coexist on a single Redis server.
//
// Entity pattern: veritrail:{project}:{collection}:{id}
// Index pattern:  veritrail:{project}:{collection}s (set of ids)
// Graph pattern:  veritrail:{project}:links:{id} (adjacency set)
// Ledger pattern: veritrail:{project}:ledger (list, oldest first)

// Collection names used in keys and in ledger details.
const (
	CollectionRequirements       = "requirement"
	CollectionTestCases          = "testcase"
	CollectionRisks              = "risk"
	CollectionConfigurationItems = "configitem"
	CollectionIssues             = "issue"
	CollectionDocuments          = "document"
)

// EntityKey returns the Redis key for one stored entity.
// Pattern: veritrail:{project}:{collection}:{id}
func EntityKey(project, collection, id string) string {
	return fmt.Sprintf("veritrail:%s:%s:%s", project, collection, id)
}

// IndexKey returns the Redis key for a collection's id index set.
// Pattern: veritrail:{project}:index:{collection}
func IndexKey(project, collection string) string {
	return fmt.Sprintf("veritrail:%s:index:%s", project, collection)
}

// AdjacencyKey returns the Redis key for an artifact's adjacency set.
// Pattern: veritrail:{project}:links:{id}
func AdjacencyKey(project, id string) string {
	return fmt.Sprintf("veritrail:%s:links:%s", project, id)
}

// LinkIndexKey returns the Redis key for the set of all links in the graph.
// Pattern: veritrail:{project}:links
func LinkIndexKey(project string) string {
	return fmt.Sprintf("veritrail:%s:links", project)
}

// LedgerKey returns the Redis key for the append-only ledger list.
// Pattern: veritrail:{project}:ledger
func LedgerKey(project string) string {
	return fmt.Sprintf("veritrail:%s:ledger", project)
}

// FingerprintKey returns the Redis key for the ingestion dedupe set.
// Pattern: veritrail:{project}:ledger:fingerprints
func FingerprintKey(project string) string {
	return fmt.Sprintf("veritrail:%s:ledger:fingerprints", project)
}
