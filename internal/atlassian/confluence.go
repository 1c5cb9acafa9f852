package atlassian

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	pathContent       = "/wiki/rest/api/content"
	pathContentSearch = "/wiki/rest/api/content/search"

	DefaultConfluenceSearchResults = 25
	MaxConfluenceSearchResults     = 50
)

type Page struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	SpaceKey  string `json:"space_key"`
	SpaceName string `json:"space_name"`
	// Body 是 Confluence storage 格式（XHTML）。
	Body   string `json:"body,omitempty"`
	WebURL string `json:"web_url"`
}

type PageInput struct {
	SpaceKey string
	Title    string
	// Markdown 会在提交前转换为 storage 格式。
	Markdown string
	ParentID string
}

type pageRecord struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Space  *struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"space"`
	Body *struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Links struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
}

func (c *Client) toPage(r pageRecord) Page {
	p := Page{
		ID:     r.ID,
		Title:  r.Title,
		Type:   r.Type,
		Status: r.Status,
	}
	if r.Space != nil {
		p.SpaceKey = r.Space.Key
		p.SpaceName = r.Space.Name
	}
	if r.Body != nil {
		p.Body = r.Body.Storage.Value
	}
	if r.Links.WebUI != "" {
		p.WebURL = c.baseURL + "/wiki" + r.Links.WebUI
	}
	return p
}

// CreatePage 创建页面；ParentID 非空时作为祖先页面。
func (c *Client) CreatePage(ctx context.Context, in PageInput) (Page, error) {
	const op = "create Confluence page"
	if strings.TrimSpace(in.SpaceKey) == "" || strings.TrimSpace(in.Title) == "" {
		return Page{}, fmt.Errorf("%s: space key and title are required", op)
	}
	storage := MarkdownToStorage(in.Markdown)
	body := map[string]any{
		"type":  "page",
		"title": in.Title,
		"space": map[string]any{"key": strings.TrimSpace(in.SpaceKey)},
		"body": map[string]any{
			"storage": map[string]any{
				"value":          storage,
				"representation": "storage",
			},
		},
	}
	if parent := strings.TrimSpace(in.ParentID); parent != "" {
		body["ancestors"] = []map[string]any{{"id": parent}}
	}

	var rec pageRecord
	if err := c.do(ctx, op, http.MethodPost, pathContent, nil, body, &rec); err != nil {
		return Page{}, err
	}
	log.Infof("created Confluence page %q (%s)", rec.Title, rec.ID)

	page := c.toPage(rec)
	page.Body = storage
	return page, nil
}

// SearchPages 用 CQL 做全文搜索，可限定空间。limit <= 0 时取默认值 25，上限 50。
func (c *Client) SearchPages(ctx context.Context, text, spaceKey string, limit int) ([]Page, error) {
	const op = "search Confluence pages"
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: query is required", op)
	}
	query := url.Values{}
	query.Set("cql", BuildCQL(text, spaceKey))
	query.Set("limit", strconv.Itoa(clampLimit(limit, DefaultConfluenceSearchResults, MaxConfluenceSearchResults)))
	query.Set("expand", "body.storage,space")

	var result struct {
		Results []pageRecord `json:"results"`
	}
	if err := c.do(ctx, op, http.MethodGet, pathContentSearch, query, nil, &result); err != nil {
		return nil, err
	}
	log.Infof("found %d Confluence pages", len(result.Results))
	return lo.Map(result.Results, func(r pageRecord, _ int) Page {
		return c.toPage(r)
	}), nil
}

// BuildCQL 构造 text ~ "q" [AND space.key = "K"]，对引号与反斜杠转义。
func BuildCQL(text, spaceKey string) string {
	cql := fmt.Sprintf(`text ~ "%s"`, escapeCQL(text))
	if key := strings.TrimSpace(spaceKey); key != "" {
		cql += fmt.Sprintf(` AND space.key = "%s"`, escapeCQL(key))
	}
	return cql
}

func escapeCQL(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
