package atlassian

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	pathIssue      = "/rest/api/3/issue"
	pathSearch     = "/rest/api/3/search"
	pathMyself     = "/rest/api/3/myself"
	pathUserSearch = "/rest/api/3/user/search"

	DefaultJiraSearchResults = 50
	MaxJiraSearchResults     = 100
	DefaultIssueType         = "Task"

	searchFields = "summary,description,status,assignee,reporter,created,updated"
)

var (
	IssueTypes = []string{"Bug", "Story", "Task", "Epic", "Subtask", "Improvement"}
	Priorities = []string{"Highest", "High", "Medium", "Low", "Lowest"}
	Statuses   = []string{"Open", "In Progress", "Done", "Closed", "Resolved"}
)

// Issue 是返回给调用方的 Jira issue 摘要。
type Issue struct {
	Key         string `json:"key"`
	ID          string `json:"id"`
	Self        string `json:"self"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Assignee    string `json:"assignee,omitempty"`
	Reporter    string `json:"reporter,omitempty"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
}

type IssueInput struct {
	Project     string
	Summary     string
	Description string
	IssueType   string
	// Assignee 为邮箱地址，创建前会解析成 accountId。
	Assignee string
	Priority string
}

// IssueUpdate 中的空字段表示不修改。
type IssueUpdate struct {
	Key         string
	Summary     string
	Description string
	Assignee    string
	Status      string
	Comment     string
}

// UpdateResult 记录实际执行的修改项。
type UpdateResult struct {
	Key     string   `json:"key"`
	Changed []string `json:"changed"`
}

type User struct {
	AccountID    string `json:"accountId"`
	EmailAddress string `json:"emailAddress"`
	DisplayName  string `json:"displayName"`
}

type issueFields struct {
	Summary     string   `json:"summary"`
	Description *adfNode `json:"description"`
	Status      *struct {
		Name string `json:"name"`
	} `json:"status"`
	Assignee *User  `json:"assignee"`
	Reporter *User  `json:"reporter"`
	Created  string `json:"created"`
	Updated  string `json:"updated"`
}

type issueRecord struct {
	Key    string      `json:"key"`
	ID     string      `json:"id"`
	Self   string      `json:"self"`
	Fields issueFields `json:"fields"`
}

func (r issueRecord) toIssue() Issue {
	issue := Issue{
		Key:         r.Key,
		ID:          r.ID,
		Self:        r.Self,
		Summary:     r.Fields.Summary,
		Description: adfText(r.Fields.Description),
		Created:     r.Fields.Created,
		Updated:     r.Fields.Updated,
	}
	if r.Fields.Status != nil {
		issue.Status = r.Fields.Status.Name
	}
	issue.Assignee = userLabel(r.Fields.Assignee)
	issue.Reporter = userLabel(r.Fields.Reporter)
	return issue
}

func userLabel(u *User) string {
	if u == nil {
		return ""
	}
	if u.EmailAddress != "" {
		return u.EmailAddress
	}
	return u.DisplayName
}

// CreateIssue 创建 issue，描述以 ADF 文档提交。
func (c *Client) CreateIssue(ctx context.Context, in IssueInput) (Issue, error) {
	const op = "create Jira issue"
	if strings.TrimSpace(in.Project) == "" || strings.TrimSpace(in.Summary) == "" {
		return Issue{}, fmt.Errorf("%s: project and summary are required", op)
	}
	issueType := strings.TrimSpace(in.IssueType)
	if issueType == "" {
		issueType = DefaultIssueType
	}

	fields := map[string]any{
		"project":     map[string]any{"key": strings.TrimSpace(in.Project)},
		"summary":     in.Summary,
		"description": adfDocument(in.Description),
		"issuetype":   map[string]any{"name": issueType},
	}
	if email := strings.TrimSpace(in.Assignee); email != "" {
		accountID, err := c.lookupAccountID(ctx, email)
		if err != nil {
			return Issue{}, err
		}
		fields["assignee"] = map[string]any{"accountId": accountID}
	}
	if priority := strings.TrimSpace(in.Priority); priority != "" {
		fields["priority"] = map[string]any{"name": priority}
	}

	var created struct {
		Key  string `json:"key"`
		ID   string `json:"id"`
		Self string `json:"self"`
	}
	if err := c.do(ctx, op, http.MethodPost, pathIssue, nil, map[string]any{"fields": fields}, &created); err != nil {
		return Issue{}, err
	}
	log.Infof("created Jira issue %s", created.Key)

	now := time.Now().UTC().Format(time.RFC3339)
	return Issue{
		Key:         created.Key,
		ID:          created.ID,
		Self:        created.Self,
		Summary:     in.Summary,
		Description: in.Description,
		Status:      "Open",
		Assignee:    strings.TrimSpace(in.Assignee),
		Reporter:    c.email,
		Created:     now,
		Updated:     now,
	}, nil
}

// SearchIssues 执行 JQL 查询。maxResults <= 0 时取默认值 50，上限 100。
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) ([]Issue, error) {
	const op = "search Jira issues"
	if strings.TrimSpace(jql) == "" {
		return nil, fmt.Errorf("%s: jql is required", op)
	}
	query := url.Values{}
	query.Set("jql", jql)
	query.Set("maxResults", strconv.Itoa(clampLimit(maxResults, DefaultJiraSearchResults, MaxJiraSearchResults)))
	query.Set("fields", searchFields)

	var result struct {
		Total  int           `json:"total"`
		Issues []issueRecord `json:"issues"`
	}
	if err := c.do(ctx, op, http.MethodGet, pathSearch, query, nil, &result); err != nil {
		return nil, err
	}
	log.Infof("found %d Jira issues", len(result.Issues))
	return lo.Map(result.Issues, func(r issueRecord, _ int) Issue {
		return r.toIssue()
	}), nil
}

// UpdateIssue 依次修改字段、执行状态流转并追加评论。
// 某一步失败时返回已完成的修改项与错误。
func (c *Client) UpdateIssue(ctx context.Context, in IssueUpdate) (UpdateResult, error) {
	const op = "update Jira issue"
	key := strings.TrimSpace(in.Key)
	if key == "" {
		return UpdateResult{}, fmt.Errorf("%s: issue key is required", op)
	}
	res := UpdateResult{Key: key, Changed: []string{}}
	issuePath := pathIssue + "/" + url.PathEscape(key)

	fields := map[string]any{}
	if in.Summary != "" {
		fields["summary"] = in.Summary
	}
	if in.Description != "" {
		fields["description"] = adfDocument(in.Description)
	}
	if email := strings.TrimSpace(in.Assignee); email != "" {
		accountID, err := c.lookupAccountID(ctx, email)
		if err != nil {
			return res, err
		}
		fields["assignee"] = map[string]any{"accountId": accountID}
	}
	if in.Summary == "" && in.Description == "" && in.Assignee == "" && in.Status == "" && in.Comment == "" {
		return res, fmt.Errorf("%s %s: nothing to update", op, key)
	}

	if len(fields) > 0 {
		if err := c.do(ctx, op, http.MethodPut, issuePath, nil, map[string]any{"fields": fields}, nil); err != nil {
			return res, err
		}
		res.Changed = append(res.Changed, sortedKeys(fields)...)
	}
	if status := strings.TrimSpace(in.Status); status != "" {
		if err := c.transition(ctx, issuePath, status); err != nil {
			return res, err
		}
		res.Changed = append(res.Changed, "status")
	}
	if strings.TrimSpace(in.Comment) != "" {
		body := map[string]any{"body": adfDocument(in.Comment)}
		if err := c.do(ctx, "comment on Jira issue", http.MethodPost, issuePath+"/comment", nil, body, nil); err != nil {
			return res, err
		}
		res.Changed = append(res.Changed, "comment")
	}
	log.Infof("updated Jira issue %s: %s", key, strings.Join(res.Changed, ","))
	return res, nil
}

type transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   struct {
		Name string `json:"name"`
	} `json:"to"`
}

// transition 查找目标状态（名称不区分大小写）对应的流转并执行。
func (c *Client) transition(ctx context.Context, issuePath, status string) error {
	const op = "transition Jira issue"
	var list struct {
		Transitions []transition `json:"transitions"`
	}
	if err := c.do(ctx, op, http.MethodGet, issuePath+"/transitions", nil, nil, &list); err != nil {
		return err
	}
	match, ok := lo.Find(list.Transitions, func(t transition) bool {
		return strings.EqualFold(t.To.Name, status) || strings.EqualFold(t.Name, status)
	})
	if !ok {
		available := lo.Map(list.Transitions, func(t transition, _ int) string { return t.To.Name })
		return fmt.Errorf("%s: no transition to status %q (available: %s)", op, status, strings.Join(available, ", "))
	}
	body := map[string]any{"transition": map[string]any{"id": match.ID}}
	return c.do(ctx, op, http.MethodPost, issuePath+"/transitions", nil, body, nil)
}

// ErrUserNotFound 表示邮箱无法解析为 Jira 账号。
var ErrUserNotFound = errors.New("jira user not found")

func (c *Client) lookupAccountID(ctx context.Context, email string) (string, error) {
	query := url.Values{}
	query.Set("query", email)
	var users []User
	if err := c.do(ctx, "look up Jira user", http.MethodGet, pathUserSearch, query, nil, &users); err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	if u, ok := lo.Find(users, func(u User) bool { return strings.EqualFold(u.EmailAddress, email) }); ok {
		return u.AccountID, nil
	}
	return users[0].AccountID, nil
}

// Myself 返回当前凭据对应的账号，用于校验凭据。
func (c *Client) Myself(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, "get current Jira user", http.MethodGet, pathMyself, nil, nil, &u)
	return u, err
}

func sortedKeys(m map[string]any) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
