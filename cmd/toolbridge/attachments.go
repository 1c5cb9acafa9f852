package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"toolbridge/internal/agent"
)

// loadImages 读取图片附件并编码为 base64 ImageBlock，媒体类型优先按扩展名判断。
func loadImages(paths []string) ([]agent.ImageBlock, error) {
	var out []agent.ImageBlock
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", p, err)
		}
		mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
		if mediaType == "" {
			mediaType = http.DetectContentType(data)
		}
		if i := strings.Index(mediaType, ";"); i >= 0 {
			mediaType = strings.TrimSpace(mediaType[:i])
		}
		if !strings.HasPrefix(mediaType, "image/") {
			return nil, fmt.Errorf("%s is not an image (%s)", p, mediaType)
		}
		out = append(out, agent.NewImage(mediaType, base64.StdEncoding.EncodeToString(data)))
	}
	return out, nil
}

// loadTranscript 读取 JSON 格式的历史消息，path 为空时返回 nil。
func loadTranscript(path string) ([]agent.Message, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var msgs []agent.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	return msgs, nil
}

func saveTranscript(path string, msgs []agent.Message) error {
	if msgs == nil {
		msgs = []agent.Message{}
	}
	text, err := agent.MarshalIndentNoEscape(msgs, "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(text+"\n"), 0o644)
}
