// pkg/logger/formatter.go

package logger

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CustomFormatter renders compact colored lines for development output. It
// pulls the request and delivery fields to the front so a tail of the log
// reads as one event per line.
type CustomFormatter struct {
	TimestampFormat string
	FullTimestamp   bool
}

const (
	red    = 31
	green  = 32
	yellow = 33
	blue   = 36
	gray   = 37
)

// knownFields are printed first, in this order.
var knownFields = []string{"method", "path", "status", "latency", "client_ip", "account_id", "kind", "delivery"}

func getColorByLevel(level logrus.Level) int {
	switch level {
	case logrus.ErrorLevel:
		return red
	case logrus.WarnLevel:
		return yellow
	case logrus.DebugLevel:
		return gray
	default:
		return blue
	}
}

func colorize(color int, msg string) string {
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, msg)
}

func statusColor(status int) int {
	switch {
	case status >= 500:
		return red
	case status >= 400:
		return yellow
	default:
		return green
	}
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf *bytes.Buffer
	if entry.Buffer != nil {
		buf = entry.Buffer
	} else {
		buf = &bytes.Buffer{}
	}

	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = time.RFC3339
	}
	timestamp := entry.Time.Format(tsFormat)
	if !f.FullTimestamp {
		if idx := strings.IndexByte(timestamp, 'T'); idx >= 0 {
			timestamp = timestamp[idx+1:]
		}
	}

	level := strings.ToUpper(entry.Level.String())
	coloredLevel := colorize(getColorByLevel(entry.Level), fmt.Sprintf("%-7s", level))

	fields := make([]string, 0, len(entry.Data))
	seen := make(map[string]bool, len(knownFields))
	for _, k := range knownFields {
		v, ok := entry.Data[k]
		if !ok {
			continue
		}
		seen[k] = true
		if k == "status" {
			if status, ok := v.(int); ok {
				fields = append(fields, colorize(statusColor(status), fmt.Sprintf("status=%d", status)))
				continue
			}
		}
		fields = append(fields, fmt.Sprintf("%s=%v", k, v))
	}

	rest := make([]string, 0, len(entry.Data))
	for k, v := range entry.Data {
		if !seen[k] {
			rest = append(rest, fmt.Sprintf("%s=%v", k, v))
		}
	}
	sort.Strings(rest)
	fields = append(fields, rest...)

	if entry.HasCaller() {
		fields = append(fields, colorize(gray, fmt.Sprintf("file=%s:%d", entry.Caller.File, entry.Caller.Line)))
	}

	if len(fields) > 0 {
		fmt.Fprintf(buf, "%s %s %s | %s\n",
			colorize(gray, timestamp),
			coloredLevel,
			entry.Message,
			strings.Join(fields, " "),
		)
	} else {
		fmt.Fprintf(buf, "%s %s %s\n",
			colorize(gray, timestamp),
			coloredLevel,
			entry.Message,
		)
	}

	return buf.Bytes(), nil
}
