package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Config 日誌設定
type Config struct {
	Level      string `yaml:"level" env:"LEVEL"`             // debug, info, warn, error
	Format     string `yaml:"format" env:"FORMAT"`           // text, json, logfmt
	Prefix     string `yaml:"prefix" env:"PREFIX"`           // 每行前綴，例如服務名稱
	TimeFormat string `yaml:"time_format" env:"TIME_FORMAT"` // Go time layout
}

var formatters = map[string]log.Formatter{
	"json":   log.JSONFormatter,
	"text":   log.TextFormatter,
	"logfmt": log.LogfmtFormatter,
}

// New 建立以 charmbracelet/log 為 Handler 的 slog.Logger
//
// 參數:
//
//	cfg: 日誌設定，未知的 Level/Format 分別退回 info/text
//	w: 輸出目標，nil 時使用 os.Stdout
//
// 回傳:
//
//	*slog.Logger: 可直接注入各層使用
func New(cfg Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	formatter := log.TextFormatter
	if f, ok := formatters[cfg.Format]; ok {
		formatter = f
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = "2006-01-02 15:04:05.000"
	}

	handler := log.NewWithOptions(w, log.Options{
		ReportCaller:    level == log.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		Level:           level,
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	handler.SetStyles(styles())
	return slog.New(handler)
}

// Setup 建立 Logger 並設為 slog 預設值
func Setup(cfg Config) *slog.Logger {
	l := New(cfg, os.Stdout)
	slog.SetDefault(l)
	return l
}

func styles() *log.Styles {
	s := log.DefaultStyles()
	levelColors := map[log.Level]lipgloss.AdaptiveColor{
		log.ErrorLevel: {Light: "#FF6B6B", Dark: "#FF6B6B"},
		log.WarnLevel:  {Light: "#EE6FF8", Dark: "#EE6FF8"},
		log.InfoLevel:  {Light: "#04B575", Dark: "#04B575"},
		log.DebugLevel: {Light: "#7E57C2", Dark: "#7E57C2"},
	}
	for level, color := range levelColors {
		s.Levels[level] = s.Levels[level].Bold(true).Foreground(color)
	}
	s.Keys["error"] = lipgloss.NewStyle().Foreground(levelColors[log.ErrorLevel])
	s.Values["error"] = lipgloss.NewStyle().Bold(true)
	s.Keys["outcome"] = lipgloss.NewStyle().Foreground(levelColors[log.InfoLevel])
	return s
}
