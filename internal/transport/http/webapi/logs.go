package webapi

import (
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	httptransport "lobsterboard-server-go/internal/transport/http"
)

const logTailLines = 50

// handleLogs returns the tail of the gateway log as raw lines.
func (s *Service) handleLogs(c *gin.Context) {
	data, err := os.ReadFile(s.Config.Data.GatewayLog)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, gin.H{"lines": []string{}})
			return
		}
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	lines := nonEmptyLines(string(data))
	if len(lines) > logTailLines {
		lines = lines[len(lines)-logTailLines:]
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// LogEntry is one classified line of the system log feed.
type LogEntry struct {
	Time     string `json:"time"`
	Level    string `json:"level"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

var (
	logErrorPattern   = regexp.MustCompile(`(?i)\b(error|fatal)\b`)
	logWarnPattern    = regexp.MustCompile(`(?i)\bwarn`)
	logOKPattern      = regexp.MustCompile(`(?i)\b(ok|success|ready|started|connected)\b`)
	logTimePattern    = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z?)`)
	logTimePrefix     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z?\s*`)
	logCronPattern    = regexp.MustCompile(`(?i)\b(cron|schedule)\b`)
	logAuthPattern    = regexp.MustCompile(`(?i)\b(auth|login|token)\b`)
	logSessionPattern = regexp.MustCompile(`(?i)\b(session|agent)\b`)
	logExecPattern    = regexp.MustCompile(`(?i)\b(exec|command)\b`)
	logFilePattern    = regexp.MustCompile(`(?i)\b(file|read|write)\b`)
	logGatewayPattern = regexp.MustCompile(`(?i)\b(restart|gateway|start)\b`)
)

func classifyLogLine(line string, now time.Time) LogEntry {
	e := LogEntry{Level: "INFO", Category: "system"}

	switch {
	case logErrorPattern.MatchString(line):
		e.Level = "ERROR"
	case logWarnPattern.MatchString(line):
		e.Level = "WARN"
	case logOKPattern.MatchString(line):
		e.Level = "OK"
	}

	if m := logTimePattern.FindString(line); m != "" {
		e.Time = m
	} else {
		e.Time = now.UTC().Format(time.RFC3339)
	}

	switch {
	case logCronPattern.MatchString(line):
		e.Category = "cron"
	case logAuthPattern.MatchString(line):
		e.Category = "auth"
	case logSessionPattern.MatchString(line):
		e.Category = "session"
	case logExecPattern.MatchString(line):
		e.Category = "exec"
	case logFilePattern.MatchString(line):
		e.Category = "file"
	case logGatewayPattern.MatchString(line):
		e.Category = "gateway"
	}

	e.Message = strings.TrimSpace(logTimePrefix.ReplaceAllString(line, ""))
	return e
}

// handleSystemLog returns the newest gateway log lines as structured
// entries, newest first.
func (s *Service) handleSystemLog(c *gin.Context) {
	maxLines := 50
	if v, err := strconv.Atoi(c.Query("max")); err == nil {
		maxLines = v
	}
	if maxLines < 1 {
		maxLines = 1
	}
	if maxLines > 200 {
		maxLines = 200
	}

	data, err := os.ReadFile(s.Config.Data.GatewayLog)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "entries": []LogEntry{}})
		return
	}

	lines := nonEmptyLines(string(data))
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}

	now := time.Now()
	entries := make([]LogEntry, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		entries = append(entries, classifyLogLine(lines[i], now))
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "entries": entries})
}

func nonEmptyLines(s string) []string {
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
