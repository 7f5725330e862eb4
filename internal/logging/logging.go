// Package logging 根据配置构建进程日志器。
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// New 返回写入 w 的日志器。level 取 debug、info、warn 或 error；
// format 取 text 或 json。
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL value %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT value %q", format)
	}
}
