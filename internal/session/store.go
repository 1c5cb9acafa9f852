// Package session 把 ask 的完整对话保存为 JSON，便于之后继续。
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"toolbridge/internal/agent"

	"github.com/google/uuid"
)

// ErrNoSessions 表示会话目录为空或不存在。
var ErrNoSessions = errors.New("no sessions found")

type Record struct {
	ID       string          `json:"id"`
	Provider string          `json:"provider,omitempty"`
	Model    string          `json:"model,omitempty"`
	Messages []agent.Message `json:"messages"`
	Updated  time.Time       `json:"updated"`
}

// Title 返回第一条用户文本的首行，用于列表展示。
func (r Record) Title() string {
	for _, msg := range r.Messages {
		if msg.Role != agent.RoleUser {
			continue
		}
		text := strings.TrimSpace(msg.Text())
		if text == "" {
			continue
		}
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}
		return text
	}
	return ""
}

type Store struct {
	Dir string
}

func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".toolbridge", "sessions"), nil
}

func NewDefault() (*Store, error) {
	d, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return &Store{Dir: d}, nil
}

func (s *Store) path(id string) (string, error) {
	if s == nil || strings.TrimSpace(s.Dir) == "" {
		return "", errors.New("session store dir is empty")
	}
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	return filepath.Join(s.Dir, id+".json"), nil
}

// Save 写入记录并返回其 ID；ID 为空时生成新的 UUID。
func (s *Store) Save(rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	path, err := s.path(rec.ID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	if rec.Messages == nil {
		rec.Messages = []agent.Message{}
	}
	if rec.Updated.IsZero() {
		rec.Updated = time.Now()
	}
	text, err := agent.MarshalIndentNoEscape(rec, "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(text+"\n"), 0o600); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *Store) Load(id string) (Record, error) {
	var rec Record
	path, err := s.path(id)
	if err != nil {
		return rec, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parse session %s: %w", id, err)
	}
	return rec, nil
}

// Last 返回最近更新的会话。
func (s *Store) Last() (Record, error) {
	records, err := s.List()
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, ErrNoSessions
	}
	return records[0], nil
}

func (s *Store) ListIDs() ([]string, error) {
	if s == nil || strings.TrimSpace(s.Dir) == "" {
		return nil, errors.New("session store dir is empty")
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}

// List 返回可解析的会话，按更新时间倒序；损坏的文件被跳过。
func (s *Store) List() ([]Record, error) {
	ids, err := s.ListIDs()
	if err != nil {
		return nil, err
	}
	var records []Record
	for _, id := range ids {
		rec, err := s.Load(id)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Updated.After(records[j].Updated)
	})
	return records, nil
}
