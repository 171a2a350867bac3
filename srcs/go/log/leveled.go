package log

import (
	"fmt"
	"strings"
)

// Leveled adapts a Logger to the key/value style used by HTTP client
// libraries (retryablehttp.LeveledLogger).
type Leveled struct {
	L *Logger
}

func (a Leveled) Error(msg string, kvs ...interface{}) {
	a.L.Errorf("%s", withFields(msg, kvs))
}

func (a Leveled) Warn(msg string, kvs ...interface{}) {
	a.L.Warnf("%s", withFields(msg, kvs))
}

func (a Leveled) Info(msg string, kvs ...interface{}) {
	a.L.Debugf("%s", withFields(msg, kvs))
}

func (a Leveled) Debug(msg string, kvs ...interface{}) {
	a.L.Debugf("%s", withFields(msg, kvs))
}

func withFields(msg string, kvs []interface{}) string {
	if len(kvs) == 0 {
		return msg
	}
	parts := []string{msg}
	for i := 0; i < len(kvs); i += 2 {
		if i+1 < len(kvs) {
			parts = append(parts, fmt.Sprintf("%v=%v", kvs[i], kvs[i+1]))
		} else {
			parts = append(parts, fmt.Sprintf("%v", kvs[i]))
		}
	}
	return strings.Join(parts, " ")
}
