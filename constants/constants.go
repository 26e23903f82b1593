package constants

import (
	"os"
	"strings"
)

const (
	DefaultAddr           = ":8080"
	DefaultLogLevel       = "info"
	DefaultMaxUploadBytes = 32 * 1024 * 1024
	DefaultConfigFile     = "chartview.yml"
)

const (
	AddrEnv           = "CHARTVIEW_ADDR"
	LogLevelEnv       = "CHARTVIEW_LOG_LEVEL"
	AllowedOriginsEnv = "CHARTVIEW_ALLOWED_ORIGINS"
	MaxUploadBytesEnv = "CHARTVIEW_MAX_UPLOAD_BYTES"
	RedrawDelayEnv    = "CHARTVIEW_REDRAW_DELAY"
)

func GetAddr() string {
	addr := os.Getenv(AddrEnv)
	if addr != "" {
		return addr
	}
	return DefaultAddr
}

func GetLogLevel() string {
	level := os.Getenv(LogLevelEnv)
	if level != "" {
		return strings.ToLower(level)
	}
	return DefaultLogLevel
}

// GetAllowedOrigins reads a comma separated origin list; nil when unset.
func GetAllowedOrigins() []string {
	raw := os.Getenv(AllowedOriginsEnv)
	if raw == "" {
		return nil
	}
	var res []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			res = append(res, origin)
		}
	}
	return res
}
