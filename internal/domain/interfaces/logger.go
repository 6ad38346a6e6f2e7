// Package interfaces defines core domain contracts.
//
//nolint:revive // Package name 'interfaces' is intentional for domain layer
package interfaces

import (
	"fmt"
	"strings"
	"sync"
)

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs debug-level messages
	Debug(msg string, fields ...Field)

	// Info logs informational messages
	Info(msg string, fields ...Field)

	// Warn logs warning messages
	Warn(msg string, fields ...Field)

	// Error logs error messages
	Error(msg string, fields ...Field)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field (convenience function)
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// NoOpLogger is a logger that does nothing (useful for tests)
type NoOpLogger struct{}

// Debug does nothing (no-op implementation)
func (n *NoOpLogger) Debug(_ string, _ ...Field) {}

// Info does nothing (no-op implementation)
func (n *NoOpLogger) Info(_ string, _ ...Field) {}

// Warn does nothing (no-op implementation)
func (n *NoOpLogger) Warn(_ string, _ ...Field) {}

// Error does nothing (no-op implementation)
func (n *NoOpLogger) Error(_ string, _ ...Field) {}

// MemoryLogger keeps every entry in memory so tests can assert on them.
// Safe for concurrent use.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []string
}

// Debug records a debug entry
func (m *MemoryLogger) Debug(msg string, fields ...Field) { m.record("DEBUG", msg, fields) }

// Info records an info entry
func (m *MemoryLogger) Info(msg string, fields ...Field) { m.record("INFO", msg, fields) }

// Warn records a warning entry
func (m *MemoryLogger) Warn(msg string, fields ...Field) { m.record("WARN", msg, fields) }

// Error records an error entry
func (m *MemoryLogger) Error(msg string, fields ...Field) { m.record("ERROR", msg, fields) }

// Entries returns a copy of the recorded lines, formatted as "LEVEL: msg k=v ..."
func (m *MemoryLogger) Entries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	copy(out, m.entries)
	return out
}

// Contains reports whether any recorded line with the given level contains all substrings
func (m *MemoryLogger) Contains(level string, substrings ...string) bool {
	for _, line := range m.Entries() {
		if !strings.HasPrefix(line, level+": ") {
			continue
		}
		matched := true
		for _, s := range substrings {
			if !strings.Contains(line, s) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func (m *MemoryLogger) record(level, msg string, fields []Field) {
	var b strings.Builder
	b.WriteString(level + ": " + msg)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	m.mu.Lock()
	m.entries = append(m.entries, b.String())
	m.mu.Unlock()
}
