package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

// status and outcome share one closed vocabulary
var outcomes = map[string]struct{}{
	"ok":           {},
	"fail":         {},
	"skip":         {},
	"retry":        {},
	"rate_limited": {},
	"cancelled":    {},
	"rejected":     {},
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func normalizeOutcome(v string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	_, ok := outcomes[v]
	return v, ok
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"stage",
	"next_stage",
	"command",
	"action",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"request_id",
	"request_type",
	"options",
	"broadcast_id",
	"recipients",
	"delivered",
	"failed",
	"page",
	"pages",
	"count",
	"driver",
	"db",
	"host",
	"mode",
	"listen",
	"public_url",
	"endpoint",
	"err",
	"err_code",
	"error_kind",
	"cause",
	"attempts",
	"elapsed_ms",
}
