package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPhase      = "phase"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyFormat     = "format"
	KeyRoute      = "route"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyBytes      = "bytes"
	KeyDone       = "done"
	KeyTotal      = "total"
	KeyDurationMS = "duration_ms"
	KeyTrigger    = "trigger"
	KeyError      = "error"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Phase(name string) slog.Attr      { return slog.String(KeyPhase, name) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Format(f string) slog.Attr        { return slog.String(KeyFormat, f) }
func Route(name string) slog.Attr      { return slog.String(KeyRoute, name) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func Bytes(n int) slog.Attr            { return slog.Int(KeyBytes, n) }
func Done(n int) slog.Attr             { return slog.Int(KeyDone, n) }
func Total(n int) slog.Attr            { return slog.Int(KeyTotal, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Trigger(reason string) slog.Attr  { return slog.String(KeyTrigger, reason) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
