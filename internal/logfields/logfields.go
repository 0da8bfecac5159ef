package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyProject    = "project"
	KeyField      = "field"
	KeyAsset      = "asset"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyDest       = "dest"
	KeyMode       = "mode"
	KeyRequestID  = "request_id"
	KeyPreviewID  = "preview_id"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeySlides     = "slides"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Project(p string) slog.Attr       { return slog.String(KeyProject, p) }
func Field(path string) slog.Attr      { return slog.String(KeyField, path) }
func Asset(p string) slog.Attr         { return slog.String(KeyAsset, p) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Dest(p string) slog.Attr          { return slog.String(KeyDest, p) }
func Mode(m string) slog.Attr          { return slog.String(KeyMode, m) }
func RequestID(id string) slog.Attr    { return slog.String(KeyRequestID, id) }
func PreviewID(id uint64) slog.Attr    { return slog.Uint64(KeyPreviewID, id) }
func Slides(n int) slog.Attr           { return slog.Int(KeySlides, n) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func Since(start time.Time) slog.Attr {
	return DurationMS(float64(time.Since(start).Microseconds()) / 1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
