package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"toolbridge/internal/atlassian"

	"github.com/samber/lo"
)

// AtlassianService 是 Atlassian 工具依赖的最小接口，由 *atlassian.Client 实现。
type AtlassianService interface {
	BaseURL() string
	CreateIssue(ctx context.Context, in atlassian.IssueInput) (atlassian.Issue, error)
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]atlassian.Issue, error)
	UpdateIssue(ctx context.Context, in atlassian.IssueUpdate) (atlassian.UpdateResult, error)
	CreatePage(ctx context.Context, in atlassian.PageInput) (atlassian.Page, error)
	SearchPages(ctx context.Context, text, spaceKey string, limit int) ([]atlassian.Page, error)
}

const (
	ToolCreateJiraIssue       = "create_jira_issue"
	ToolSearchJiraIssues      = "search_jira_issues"
	ToolCreateConfluencePage  = "create_confluence_page"
	ToolSearchConfluencePages = "search_confluence_pages"
	ToolUpdateJiraIssue       = "update_jira_issue"
)

// 搜索结果中页面正文的最大长度（按 rune 计）。
const pageBodyLimit = 2000

type CreateJiraIssueInput struct {
	Project     string `json:"project" jsonschema_description:"Project key (e.g., PROJ, DEV, BUG)"`
	Summary     string `json:"summary" jsonschema_description:"Brief summary of the issue"`
	Description string `json:"description" jsonschema_description:"Detailed description of the issue"`
	IssueType   string `json:"issueType" jsonschema:"enum=Bug,enum=Story,enum=Task,enum=Epic,enum=Subtask,enum=Improvement" jsonschema_description:"Type of issue (Bug, Story, Task, Epic, etc.)"`
	Assignee    string `json:"assignee,omitempty" jsonschema_description:"Email address of the assignee (optional)"`
	Priority    string `json:"priority,omitempty" jsonschema:"enum=Highest,enum=High,enum=Medium,enum=Low,enum=Lowest" jsonschema_description:"Priority level (optional)"`
}

type SearchJiraIssuesInput struct {
	JQL        string `json:"jql" jsonschema_description:"JQL query string (e.g., \"project = PROJ AND status = Open\", \"assignee = currentUser()\", \"created >= -7d\")"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"minimum=1,maximum=100,default=50" jsonschema_description:"Maximum number of results to return"`
}

type CreateConfluencePageInput struct {
	SpaceKey string `json:"spaceKey" jsonschema_description:"Confluence space key (e.g., TEAM, DOC, KB)"`
	Title    string `json:"title" jsonschema_description:"Page title"`
	Content  string `json:"content" jsonschema_description:"Page content in markdown format"`
	ParentID string `json:"parentId,omitempty" jsonschema_description:"Parent page ID (optional, for creating child pages)"`
}

type SearchConfluencePagesInput struct {
	Query      string `json:"query" jsonschema_description:"Search query text"`
	SpaceKey   string `json:"spaceKey,omitempty" jsonschema_description:"Confluence space key to limit search (optional)"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"minimum=1,maximum=50,default=25" jsonschema_description:"Maximum number of results to return"`
}

type UpdateJiraIssueInput struct {
	IssueKey    string `json:"issueKey" jsonschema_description:"Jira issue key (e.g., PROJ-123)"`
	Summary     string `json:"summary,omitempty" jsonschema_description:"Updated summary (optional)"`
	Description string `json:"description,omitempty" jsonschema_description:"Updated description (optional)"`
	Assignee    string `json:"assignee,omitempty" jsonschema_description:"Email address of new assignee (optional)"`
	Status      string `json:"status,omitempty" jsonschema:"enum=Open,enum=In Progress,enum=Done,enum=Closed,enum=Resolved" jsonschema_description:"New status (optional)"`
	Comment     string `json:"comment,omitempty" jsonschema_description:"Add a comment to the issue (optional)"`
}

type issueCreated struct {
	atlassian.Issue
	URL string `json:"url,omitempty"`
}

type issueList struct {
	Total  int               `json:"total"`
	Issues []atlassian.Issue `json:"issues"`
}

type pageList struct {
	Total int              `json:"total"`
	Pages []atlassian.Page `json:"pages"`
}

// AtlassianHandlers 返回 Jira 与 Confluence 的五个工具。
func AtlassianHandlers(svc AtlassianService) []Handler {
	return []Handler{
		newHandler(ToolCreateJiraIssue, "Create a new Jira issue in a specified project",
			func(ctx context.Context, in CreateJiraIssueInput) (any, error) {
				if err := requireFields(map[string]string{"project": in.Project, "summary": in.Summary}); err != nil {
					return nil, err
				}
				if err := oneOf("issueType", in.IssueType, atlassian.IssueTypes); err != nil {
					return nil, err
				}
				if err := oneOf("priority", in.Priority, atlassian.Priorities); err != nil {
					return nil, err
				}
				issue, err := svc.CreateIssue(ctx, atlassian.IssueInput{
					Project:     in.Project,
					Summary:     in.Summary,
					Description: in.Description,
					IssueType:   in.IssueType,
					Assignee:    in.Assignee,
					Priority:    in.Priority,
				})
				if err != nil {
					return nil, err
				}
				out := issueCreated{Issue: issue}
				if base := svc.BaseURL(); base != "" && issue.Key != "" {
					out.URL = base + "/browse/" + issue.Key
				}
				return out, nil
			}),
		newHandler(ToolSearchJiraIssues, "Search for Jira issues using JQL (Jira Query Language)",
			func(ctx context.Context, in SearchJiraIssuesInput) (any, error) {
				if err := requireFields(map[string]string{"jql": in.JQL}); err != nil {
					return nil, err
				}
				issues, err := svc.SearchIssues(ctx, in.JQL, in.MaxResults)
				if err != nil {
					return nil, err
				}
				return issueList{Total: len(issues), Issues: nonNil(issues)}, nil
			}),
		newHandler(ToolCreateConfluencePage, "Create a new Confluence page with markdown content",
			func(ctx context.Context, in CreateConfluencePageInput) (any, error) {
				if err := requireFields(map[string]string{
					"spaceKey": in.SpaceKey, "title": in.Title, "content": in.Content,
				}); err != nil {
					return nil, err
				}
				return svc.CreatePage(ctx, atlassian.PageInput{
					SpaceKey: in.SpaceKey,
					Title:    in.Title,
					Markdown: in.Content,
					ParentID: in.ParentID,
				})
			}),
		newHandler(ToolSearchConfluencePages, "Search for Confluence pages by text content",
			func(ctx context.Context, in SearchConfluencePagesInput) (any, error) {
				if err := requireFields(map[string]string{"query": in.Query}); err != nil {
					return nil, err
				}
				pages, err := svc.SearchPages(ctx, in.Query, in.SpaceKey, in.MaxResults)
				if err != nil {
					return nil, err
				}
				pages = lo.Map(pages, func(p atlassian.Page, _ int) atlassian.Page {
					p.Body = clip(p.Body, pageBodyLimit)
					return p
				})
				return pageList{Total: len(pages), Pages: nonNil(pages)}, nil
			}),
		newHandler(ToolUpdateJiraIssue, "Update an existing Jira issue",
			func(ctx context.Context, in UpdateJiraIssueInput) (any, error) {
				if err := requireFields(map[string]string{"issueKey": in.IssueKey}); err != nil {
					return nil, err
				}
				res, err := svc.UpdateIssue(ctx, atlassian.IssueUpdate{
					Key:         in.IssueKey,
					Summary:     in.Summary,
					Description: in.Description,
					Assignee:    in.Assignee,
					Status:      in.Status,
					Comment:     in.Comment,
				})
				if atlassian.IsNotFound(err) {
					return nil, fmt.Errorf("issue %s not found (check the key with search_jira_issues): %w", in.IssueKey, err)
				}
				if err != nil {
					return nil, err
				}
				return res, nil
			}),
	}
}

// requireFields 按字段名排序报告所有缺失的必填参数。
func requireFields(fields map[string]string) error {
	missing := lo.Filter(lo.Keys(fields), func(name string, _ int) bool {
		return strings.TrimSpace(fields[name]) == ""
	})
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", "))
}

func oneOf(field, value string, allowed []string) error {
	if value == "" || lo.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("invalid %s %q (allowed: %s)", field, value, strings.Join(allowed, ", "))
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func clip(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
