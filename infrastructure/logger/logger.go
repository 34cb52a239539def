package logger

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"market-maker-sim/monitor/logschema"
)

// Logger 封装zap日志器，提供结构化日志功能
type Logger struct {
	*zap.Logger
	config Config
}

// Config 日志配置
type Config struct {
	Level      string   `yaml:"level"`       // debug, info, warn, error
	Outputs    []string `yaml:"outputs"`     // stdout, file
	OutputFile string   `yaml:"output_file"` // 日志文件路径
	ErrorFile  string   `yaml:"error_file"`  // 错误日志单独文件
	Format     string   `yaml:"format"`      // json 或 console
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Outputs: []string{"stdout"},
		Format:  "json",
	}
}

// New 创建新的Logger实例
func New(cfg Config) (*Logger, error) {
	// 解析日志级别
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	cores := []zapcore.Core{}

	if contains(cfg.Outputs, "stdout") {
		var encoder zapcore.Encoder
		if cfg.Format == "console" {
			encoder = zapcore.NewConsoleEncoder(encoderConfig)
		} else {
			encoder = zapcore.NewJSONEncoder(encoderConfig)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	if contains(cfg.Outputs, "file") && cfg.OutputFile != "" {
		fileWriter, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file failed: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(fileWriter), level))
	}

	// 错误日志单独文件
	if cfg.ErrorFile != "" {
		errorWriter, err := os.OpenFile(cfg.ErrorFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open error log file failed: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(errorWriter),
			zapcore.ErrorLevel,
		))
	}

	core := zapcore.NewTee(cores...)
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return &Logger{Logger: zapLogger, config: cfg}, nil
}

// NewNop 返回丢弃所有输出的 Logger，测试和库调用方未提供 logger 时使用。
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// FromZap 包装已有的 zap.Logger（例如 zaptest/observer）。
func FromZap(z *zap.Logger) *Logger {
	return &Logger{Logger: z}
}

// WithFields 添加字段返回新的logger
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.With(toZap(fields)...),
		config: l.config,
	}
}

// logEvent 按 schema 校验字段，缺字段时额外打一条 warn 但不丢弃原事件。
func (l *Logger) logEvent(level zapcore.Level, msg, event string, fields map[string]interface{}) {
	if !l.Core().Enabled(level) {
		return
	}
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err := logschema.Validate(event, fields); err != nil {
		l.Warn("log_schema_violation", zap.String("event", event), zap.Error(err))
	}
	fields["event"] = event
	fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if ce := l.Check(level, msg); ce != nil {
		ce.Write(toZap(fields)...)
	}
}

// LogTick 记录一次完整处理的 tick（debug 级别，量大）。
func (l *Logger) LogTick(fields map[string]interface{}) {
	l.logEvent(zapcore.DebugLevel, "tick_event", logschema.EventTickProcessed, fields)
}

// LogSkip 记录被跳过的 tick
func (l *Logger) LogSkip(seq uint64, reason string, err error) {
	fields := map[string]interface{}{"seq": seq, "reason": reason}
	if err != nil {
		fields["error"] = err.Error()
	}
	l.logEvent(zapcore.WarnLevel, "tick_event", logschema.EventTickSkipped, fields)
}

// LogFill 记录模拟成交
func (l *Logger) LogFill(fillID, side string, price, size float64) {
	l.logEvent(zapcore.DebugLevel, "trade_event", logschema.EventFill, map[string]interface{}{
		"fill_id": fillID,
		"side":    side,
		"price":   price,
		"size":    size,
	})
}

// LogRisk 记录风控事件，例如回撤跨档
func (l *Logger) LogRisk(event string, fields map[string]interface{}) {
	l.logEvent(zapcore.WarnLevel, "risk_event", event, fields)
}

// LogConfigReload 记录配置热更新
func (l *Logger) LogConfigReload(path string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["path"] = path
	l.logEvent(zapcore.InfoLevel, "config_event", logschema.EventConfigReload, fields)
}

// LogSummary 记录一次运行的汇总
func (l *Logger) LogSummary(fields map[string]interface{}) {
	l.logEvent(zapcore.InfoLevel, "summary_event", logschema.EventRunSummary, fields)
}

// LogError 记录错误并附带上下文
func (l *Logger) LogError(err error, context map[string]interface{}) {
	if context == nil {
		context = make(map[string]interface{})
	}
	context["error"] = err.Error()
	context["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	l.Error("error_event", toZap(context)...)
}

// Close 关闭日志器
func (l *Logger) Close() error {
	return l.Sync()
}

func toZap(fields map[string]interface{}) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return zapFields
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
