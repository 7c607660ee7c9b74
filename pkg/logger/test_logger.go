package logger

import (
	"strings"
	"sync"
)

// TestLogger is a Logger implementation for tests that captures messages
// instead of writing them anywhere. Child loggers created by WithField(s)
// record into the root logger so tests inspect a single place.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	fields   map[string]interface{}
	root     *TestLogger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{
		messages: make([]LogMessage, 0),
		fields:   make(map[string]interface{}),
	}
}

func (l *TestLogger) rootLogger() *TestLogger {
	if l.root != nil {
		return l.root
	}
	return l
}

func (l *TestLogger) log(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	root := l.rootLogger()
	root.mu.Lock()
	defer root.mu.Unlock()
	root.messages = append(root.messages, LogMessage{Level: level, Message: msg, Fields: merged})
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

// WithField returns a logger carrying the extra field
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a logger carrying the extra fields
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	child := &TestLogger{
		fields: make(map[string]interface{}, len(l.fields)+len(fields)),
		root:   l.rootLogger(),
	}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for k, v := range fields {
		child.fields[k] = v
	}
	return child
}

// WithError returns a logger carrying an error field
func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// Messages returns a copy of all captured messages
func (l *TestLogger) Messages() []LogMessage {
	root := l.rootLogger()
	root.mu.Lock()
	defer root.mu.Unlock()
	out := make([]LogMessage, len(root.messages))
	copy(out, root.messages)
	return out
}

// HasMessage reports whether any captured message contains the substring
func (l *TestLogger) HasMessage(substr string) bool {
	for _, m := range l.Messages() {
		if strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}
