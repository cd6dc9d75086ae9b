package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/replyre/kiit-lms-final-sub000/config"
)

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Error("非法日志级别应返回错误")
	}
}

func TestNewLogger_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger(&config.LogConfig{
		Level:      "info",
		Format:     "json",
		File:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	})
	if err != nil {
		t.Fatalf("NewLogger 失败: %v", err)
	}

	logger.Info("草稿已保存")
	logger.Debug("不应写入")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "草稿已保存") {
		t.Errorf("日志文件缺少 info 记录: %s", content)
	}
	if strings.Contains(content, "不应写入") {
		t.Error("debug 记录不应写入 info 级别日志")
	}
}
