package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a logger for the given mode: "prod"/"production" emits JSON at
// info, "test" stays quiet below warn, anything else is the colored
// development encoder at debug.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(sanitizeKVs(keysAndValues)...)}
}

type keyClass int

const (
	keyPlain keyClass = iota
	keyRedact
	keyHash
)

// Substrings matched against lowercased log keys. Layout "tokens" are design
// tokens, so only credential-shaped keys are redacted.
var (
	redactKeyParts = []string{"lock_token", "authorization", "password", "secret", "cookie", "api_key", "apikey"}
	hashKeyParts   = []string{"session_id", "user_id"}
)

type redactor struct {
	once    sync.Once
	enabled bool
	salt    string
}

var defaultRedactor redactor

func (r *redactor) on() bool {
	r.once.Do(func() {
		switch strings.TrimSpace(strings.ToLower(os.Getenv("LOG_REDACTION_ENABLED"))) {
		case "0", "false", "no", "off":
			r.enabled = false
		default:
			r.enabled = true
		}
		r.salt = strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))
	})
	return r.enabled
}

func sanitizeKVs(kv []interface{}) []interface{} {
	if len(kv) == 0 || !defaultRedactor.on() {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		key := toString(kv[i])
		out = append(out, key, defaultRedactor.value(normalizeKey(key), kv[i+1]))
	}
	if len(kv)%2 == 1 {
		out = append(out, kv[len(kv)-1])
	}
	return out
}

func normalizeKey(k string) string { return strings.ToLower(strings.TrimSpace(k)) }

func classify(key string) keyClass {
	for _, part := range redactKeyParts {
		if strings.Contains(key, part) {
			return keyRedact
		}
	}
	for _, part := range hashKeyParts {
		if strings.Contains(key, part) {
			return keyHash
		}
	}
	return keyPlain
}

func (r *redactor) value(key string, val interface{}) interface{} {
	if key == "" {
		return val
	}
	switch classify(key) {
	case keyRedact:
		return "[REDACTED]"
	case keyHash:
		return r.hash(val)
	}
	nested, ok := val.(map[string]interface{})
	if !ok {
		return val
	}
	out := make(map[string]interface{}, len(nested))
	for k, v := range nested {
		out[k] = r.value(normalizeKey(k), v)
	}
	return out
}

// hash keeps a short salted digest so one session's lines can still be
// correlated.
func (r *redactor) hash(val interface{}) string {
	raw := toString(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
