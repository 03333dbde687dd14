// Package vcs adapts external version control and issue tracking systems to
// the engine's ingestion contracts. Adapters only fetch and normalize; they
// never write to the store or the ledger themselves.
package vcs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v47/github"
	"golang.org/x/oauth2"

	"github.com/veritrail/veritrail/internal/ledger"
	"github.com/veritrail/veritrail/pkg/projectboard"
)

// GitHubFetcher reads commits and issues from a GitHub repository.
type GitHubFetcher struct {
	client *github.Client
}

// NewGitHubFetcher creates a fetcher. An empty token means unauthenticated
// access, which GitHub rate-limits aggressively but allows for public repos.
func NewGitHubFetcher(ctx context.Context, token string) *GitHubFetcher {
	if token == "" {
		return &GitHubFetcher{client: github.NewClient(nil)}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &GitHubFetcher{client: github.NewClient(oauth2.NewClient(ctx, ts))}
}

// FetchCommits lists commits on the default branch since the given time and
// normalizes them for ingestion. A zero since fetches the full history.
// Cancellation and timeouts belong to the caller's context; the fetcher does
// not retry.
func (f *GitHubFetcher) FetchCommits(ctx context.Context, owner, repo string, since time.Time) ([]ledger.ExternalEvent, error) {
	opt := &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var events []ledger.ExternalEvent
	for {
		commits, resp, err := f.client.Repositories.ListCommits(ctx, owner, repo, opt)
		if err != nil {
			return nil, fmt.Errorf("failed to list commits for %s/%s: %w", owner, repo, err)
		}
		for _, c := range commits {
			events = append(events, commitToEvent(c))
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return events, nil
}

// FetchIssues lists all issues of a repository for mirror synchronization.
// Pull requests, which GitHub reports through the same API, are skipped.
func (f *GitHubFetcher) FetchIssues(ctx context.Context, owner, repo string) ([]projectboard.Issue, error) {
	opt := &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var issues []projectboard.Issue
	for {
		page, resp, err := f.client.Issues.ListByRepo(ctx, owner, repo, opt)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues for %s/%s: %w", owner, repo, err)
		}
		for _, iss := range page {
			if iss.IsPullRequest() {
				continue
			}
			issues = append(issues, projectboard.Issue{
				Number: safeInt(iss.Number),
				Title:  safeString(iss.Title),
				URL:    safeString(iss.HTMLURL),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return issues, nil
}

// commitToEvent normalizes one GitHub commit. The commit SHA is the external
// identifier; the author timestamp is the event time.
func commitToEvent(c *github.RepositoryCommit) ledger.ExternalEvent {
	ev := ledger.ExternalEvent{
		ExternalID: safeString(c.SHA),
	}
	if commit := c.Commit; commit != nil {
		ev.Summary = firstLine(safeString(commit.Message))
		if author := commit.Author; author != nil {
			ev.AuthorName = safeString(author.Name)
			if author.Date != nil {
				ev.Timestamp = author.Date.UTC()
			}
		}
	}
	raw, err := json.Marshal(map[string]string{
		"sha": ev.ExternalID,
		"url": safeString(c.HTMLURL),
	})
	if err == nil {
		ev.RawPayload = raw
	}
	return ev
}

// firstLine returns the subject line of a commit message.
func firstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return strings.TrimSpace(message[:i])
	}
	return strings.TrimSpace(message)
}

// safeString safely dereferences a string pointer, returning an empty string
// if the pointer is nil.
func safeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// safeInt safely dereferences an int pointer, returning 0 if the pointer is nil.
func safeInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
