package utils

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig controls InitLogger. Every field has a sane zero value so a
// bare LogConfig{} yields a usable JSON logger at info level on stderr.
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json (default) or text
	Output      string // file path, or "" / "stderr" / "stdout"
	Development bool
}

// Logger wraps a zap.Logger and a cached sugared logger.
type Logger struct {
	Logger *zap.Logger
	sugar  *zap.SugaredLogger
}

// InitLogger builds a Logger from config. It never panics: an unusable
// Output path falls back to stderr.
func InitLogger(config LogConfig) *Logger {
	level := parseLevel(config.Level)

	var encoder zapcore.Encoder
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if config.Format == "text" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	sink := resolveSink(config.Output)

	core := zapcore.NewCore(encoder, sink, level)

	var opts []zap.Option
	if config.Development {
		opts = append(opts, zap.Development(), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zl := zap.New(core, opts...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

// resolveSink opens the requested output, falling back to stderr when the
// path cannot be opened (missing directory, permissions, etc).
func resolveSink(output string) zapcore.WriteSyncer {
	switch output {
	case "", "stderr":
		return zapcore.Lock(os.Stderr)
	case "stdout":
		return zapcore.Lock(os.Stdout)
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.Lock(f)
}

func parseLevel(input string) zapcore.Level {
	switch input {
	case "debug", "DEBUG":
		return zapcore.DebugLevel
	case "info", "INFO":
		return zapcore.InfoLevel
	case "warn", "WARN", "warning", "WARNING":
		return zapcore.WarnLevel
	case "error", "ERROR":
		return zapcore.ErrorLevel
	case "fatal", "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}

// Info/Debug/Warn/Error log at the given level with structured fields.
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.Logger.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.Logger.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.Logger.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.Logger.Error(msg, fields...) }

// With returns a new Logger carrying the given fields on every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	zl := l.Logger.With(fields...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

// WithComponent, WithExchange, WithSymbol and WithPairID are shorthand for
// the field constructors below, used at the start of a package's logger
// chain (e.g. logger.WithComponent("bot").WithSymbol(pair)).
func (l *Logger) WithComponent(name string) *Logger { return l.With(Component(name)) }
func (l *Logger) WithExchange(name string) *Logger  { return l.With(Exchange(name)) }
func (l *Logger) WithSymbol(name string) *Logger    { return l.With(Symbol(name)) }
func (l *Logger) WithPairID(id int) *Logger         { return l.With(PairID(id)) }

// Sugar returns the cached SugaredLogger for printf-style logging.
func (l *Logger) Sugar() *zap.SugaredLogger { return l.sugar }

// ============================================================
// Global logger
// ============================================================

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// GetGlobalLogger returns the process-wide logger, lazily creating a
// default one (info level, JSON, stderr) on first use.
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// InitGlobalLogger builds a logger from config and installs it globally.
func InitGlobalLogger(config LogConfig) *Logger {
	logger := InitLogger(config)
	SetGlobalLogger(logger)
	return logger
}

// SetGlobalLogger installs an already-built logger as the global one.
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// L is a short alias for GetGlobalLogger.
func L() *Logger { return GetGlobalLogger() }

func Debug(msg string, fields ...zap.Field) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetGlobalLogger().Error(msg, fields...) }

func Debugf(format string, args ...interface{}) { GetGlobalLogger().sugar.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { GetGlobalLogger().sugar.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { GetGlobalLogger().sugar.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { GetGlobalLogger().sugar.Errorf(format, args...) }

// ============================================================
// Field constructors
// ============================================================

func Exchange(name string) zap.Field   { return zap.String("exchange", name) }
func Symbol(name string) zap.Field     { return zap.String("symbol", name) }
func PairID(id int) zap.Field          { return zap.Int("pair_id", id) }
func OrderID(id string) zap.Field      { return zap.String("order_id", id) }
func Price(v float64) zap.Field        { return zap.Float64("price", v) }
func Volume(v float64) zap.Field       { return zap.Float64("volume", v) }
func Spread(v float64) zap.Field       { return zap.Float64("spread", v) }
func PNL(v float64) zap.Field          { return zap.Float64("pnl", v) }
func Side(v string) zap.Field          { return zap.String("side", v) }
func State(v string) zap.Field         { return zap.String("state", v) }
func Latency(v float64) zap.Field      { return zap.Float64("latency_ms", v) }
func RequestID(id string) zap.Field    { return zap.String("request_id", id) }
func UserID(id int) zap.Field          { return zap.Int("user_id", id) }
func Component(name string) zap.Field  { return zap.String("component", name) }

// Re-exported zap field constructors so callers need only import pkg/utils.
func String(key, value string) zap.Field     { return zap.String(key, value) }
func Int(key string, value int) zap.Field    { return zap.Int(key, value) }
func Int64(key string, value int64) zap.Field { return zap.Int64(key, value) }
func Float64(key string, value float64) zap.Field { return zap.Float64(key, value) }
func Bool(key string, value bool) zap.Field  { return zap.Bool(key, value) }
func Err(err error) zap.Field                { return zap.Error(err) }
func Any(key string, value interface{}) zap.Field { return zap.Any(key, value) }

// fieldsToInterface flattens zap fields into alternating key/value pairs,
// preserving field order, for callers that need to hand them to a non-zap
// sink (e.g. the sugared logger's printf-style variants).
func fieldsToInterface(fields []zap.Field) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		enc := zapcore.NewMapObjectEncoder()
		f.AddTo(enc)
		out = append(out, f.Key, enc.Fields[f.Key])
	}
	return out
}
