package alert

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"market-maker-sim/infrastructure/logger"
)

// LogChannel 把告警写入结构化日志
type LogChannel struct {
	log  *logger.Logger
	name string
}

// NewLogChannel 创建日志告警通道
func NewLogChannel(name string, log *logger.Logger) *LogChannel {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogChannel{log: log, name: name}
}

func (c *LogChannel) Send(alert Alert) error {
	fields := make([]zap.Field, 0, len(alert.Fields)+2)
	fields = append(fields, zap.String("alert_level", string(alert.Level)), zap.Time("alert_ts", alert.Timestamp))
	for k, v := range alert.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	switch alert.Level {
	case LevelCritical, LevelError:
		c.log.Error(alert.Message, fields...)
	case LevelWarning:
		c.log.Warn(alert.Message, fields...)
	default:
		c.log.Info(alert.Message, fields...)
	}
	return nil
}

func (c *LogChannel) Name() string { return c.name }

// ConsoleChannel 终端告警通道（彩色输出）
type ConsoleChannel struct {
	name string
	out  io.Writer
	mu   sync.Mutex
}

// NewConsoleChannel 创建控制台告警通道
func NewConsoleChannel(name string, out io.Writer) *ConsoleChannel {
	return &ConsoleChannel{name: name, out: out}
}

func (c *ConsoleChannel) Send(alert Alert) error {
	colorReset := "\033[0m"
	var colorCode string
	switch alert.Level {
	case LevelInfo:
		colorCode = "\033[32m" // 绿色
	case LevelWarning:
		colorCode = "\033[33m" // 黄色
	case LevelError:
		colorCode = "\033[31m" // 红色
	case LevelCritical:
		colorCode = "\033[35m" // 紫色
	default:
		colorCode = colorReset
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]%s %s - %s", colorCode, alert.Level, colorReset,
		alert.Timestamp.Format("2006-01-02 15:04:05"), alert.Message)
	if len(alert.Fields) > 0 {
		keys := make([]string, 0, len(alert.Fields))
		for k := range alert.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, alert.Fields[k])
		}
	}
	b.WriteByte('\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, b.String())
	return err
}

func (c *ConsoleChannel) Name() string { return c.name }
