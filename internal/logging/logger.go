package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New 创建 logrus Logger
// level: "debug", "info", "warn", "error"（默认 info）
// format: "json" 或 "text"（默认 text）
func New(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	// 同步到标准 logger，供 httpx 等包级调用使用
	logrus.SetLevel(lvl)
	logrus.SetFormatter(logger.Formatter)

	return logger
}

// Component 返回带 component 字段的 Entry
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	return logger.WithField("component", name)
}
