package logger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
)

// zlHandler adapts log/slog.Handler onto a zerolog.Logger so packages that
// take the standard slog.Logger (e.g. net/http middlewares lifted from the
// examples corpus) still end up writing RoadPulse's zerolog JSON lines,
// with request/feed/run fields pulled from context via FromContext.
type zlHandler struct {
	zl     *zerolog.Logger
	attr   []slog.Attr
	groups []string
}

func NewSlog(zl *zerolog.Logger) *slog.Logger {
	return slog.New(&zlHandler{zl: zl})
}

func (h *zlHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h *zlHandler) Handle(ctx context.Context, r slog.Record) error {
	base := FromContext(ctx, h.zl)

	var ev *zerolog.Event
	switch {
	case r.Level <= slog.LevelDebug:
		ev = base.Debug()
	case r.Level == slog.LevelWarn:
		ev = base.Warn()
	case r.Level >= slog.LevelError:
		ev = base.Error()
	default:
		ev = base.Info()
	}

	for _, a := range h.attr {
		ev = addAttr(ev, h.groups, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		ev = addAttr(ev, h.groups, a)
		return true
	})

	ev.Msg(r.Message)
	return nil
}

func (h *zlHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attr = append(append([]slog.Attr{}, cp.attr...), attrs...)
	return &cp
}

// WithGroup namespaces every attr logged through the returned handler
// under name, joined with dots, matching slog's own group convention
// (e.g. "http.status_code") instead of discarding the group name.
func (h *zlHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	cp := *h
	cp.groups = append(append([]string{}, cp.groups...), name)
	return &cp
}

func addAttr(ev *zerolog.Event, groups []string, a slog.Attr) *zerolog.Event {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			ev = addAttr(ev, append(groups, a.Key), ga)
		}
		return ev
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return ev.Str(key, a.Value.String())
	case slog.KindInt64:
		return ev.Int64(key, a.Value.Int64())
	case slog.KindFloat64:
		return ev.Float64(key, a.Value.Float64())
	case slog.KindBool:
		return ev.Bool(key, a.Value.Bool())
	default:
		return ev.Interface(key, a.Value.Any())
	}
}
