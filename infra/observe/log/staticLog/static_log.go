// 进程级日志, 默认输出到 stderr, Init 后可切换为按大小滚动的文件
package staticLog

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string `yaml:"level"`        // debug/info/warn/error
	File       string `yaml:"file"`         // 为空则只写 stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`  // 单个文件上限
	MaxBackups int    `yaml:"max_backups"`  // 保留旧文件数
	MaxAgeDays int    `yaml:"max_age_days"` // 旧文件保留天数
	Compress   bool   `yaml:"compress"`
	Console    bool   `yaml:"console"` // 写文件时是否同时写 stderr
}

var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.000"})
	return l
}

// Init 按配置重置 Log 的级别与输出; 返回的 closer 用于关闭滚动文件
func Init(cfg Config) (io.Closer, error) {
	if cfg.Level != "" {
		lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
		if err != nil {
			return nil, err
		}
		Log.SetLevel(lvl)
	}
	if cfg.File == "" {
		Log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	roller := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	if cfg.Console {
		Log.SetOutput(io.MultiWriter(os.Stderr, roller))
	} else {
		Log.SetOutput(roller)
	}
	return roller, nil
}

// ConfigWarn 非致命的参数冲突告警, 不中断计算
func ConfigWarn(format string, args ...any) {
	Log.WithField("warning", "configuration").Warnf(format, args...)
}
