package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// overrideFlag 收集可重复的 -c key=value 参数。
type overrideFlag []string

func (s *overrideFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *overrideFlag) Set(v string) error {
	key, _, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	*s = append(*s, v)
	return nil
}

// csvSlice 接受逗号分隔或重复出现的值，去掉空项与重复项。
type csvSlice []string

func (s *csvSlice) String() string {
	return strings.Join(*s, ",")
}

func (s *csvSlice) Set(v string) error {
	for _, p := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			*s = append(*s, trimmed)
		}
	}
	*s = lo.Uniq(*s)
	return nil
}
