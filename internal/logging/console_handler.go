package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	consoleTime  = "2006-01-02T15:04:05.000Z07:00"
	levelColumns = 5
)

// consoleHandler writes one line per record:
//
//	<time> <LEVEL> <service>/<component> [<state>]: <message> key=value ...
//
// Attributes rendered through WithAttrs are formatted once and reused.
type consoleHandler struct {
	out    *syncWriter
	level  slog.Leveler
	source bool
	color  bool

	head   header
	group  string
	fields []byte
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(p)
	return err
}

// header holds the top-level attributes shown before the message.
type header struct {
	service   string
	component string
	state     string
}

func (hd *header) capture(key string, v slog.Value) bool {
	switch key {
	case FieldService:
		hd.service = v.String()
	case FieldComponent:
		hd.component = v.String()
	case FieldState:
		hd.state = v.String()
	default:
		return false
	}
	return true
}

func (hd header) scope() string {
	var b strings.Builder
	b.WriteString(hd.service)
	if hd.component != "" {
		if b.Len() > 0 {
			b.WriteByte('/')
		}
		b.WriteString(hd.component)
	}
	if hd.state != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("[" + hd.state + "]")
	}
	return b.String()
}

func newConsoleHandler(w io.Writer, level slog.Leveler, source, color bool) *consoleHandler {
	return &consoleHandler{out: &syncWriter{w: w}, level: level, source: source, color: color}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	head := h.head
	var tail []byte
	r.Attrs(func(a slog.Attr) bool {
		tail = appendAttr(tail, &head, h.group, a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	buf := make([]byte, 0, 96+len(r.Message)+len(h.fields)+len(tail))
	buf = ts.UTC().AppendFormat(buf, consoleTime)
	buf = append(buf, ' ')
	buf = h.appendLevel(buf, r.Level)
	if scope := head.scope(); scope != "" {
		buf = append(buf, ' ')
		buf = append(buf, scope...)
		buf = append(buf, ':')
	}
	buf = append(buf, ' ')
	if msg := strings.TrimSpace(r.Message); msg != "" {
		buf = append(buf, msg...)
	} else {
		buf = append(buf, '-')
	}
	if h.source && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		buf = fmt.Appendf(buf, " (%s:%d)", filepath.Base(frame.File), frame.Line)
	}
	buf = append(buf, h.fields...)
	buf = append(buf, tail...)
	buf = append(buf, '\n')
	return h.out.write(buf)
}

func (h *consoleHandler) appendLevel(buf []byte, level slog.Level) []byte {
	label, color := levelStyle(level)
	if h.color {
		buf = append(buf, color.EscapeSeq()...)
		buf = append(buf, label...)
		buf = append(buf, text.EscapeReset...)
	} else {
		buf = append(buf, label...)
	}
	for i := len(label); i < levelColumns; i++ {
		buf = append(buf, ' ')
	}
	return buf
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.fields = h.fields[:len(h.fields):len(h.fields)]
	for _, a := range attrs {
		next.fields = appendAttr(next.fields, &next.head, next.group, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.group + name + "."
	return &next
}

// appendAttr renders a as " key=value". Header keys outside any group are
// captured into hd instead.
func appendAttr(buf []byte, hd *header, group string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		prefix := group
		if a.Key != "" {
			prefix = group + a.Key + "."
		}
		for _, member := range a.Value.Group() {
			buf = appendAttr(buf, hd, prefix, member)
		}
		return buf
	}
	if group == "" && hd.capture(a.Key, a.Value) {
		return buf
	}
	buf = append(buf, ' ')
	buf = append(buf, group...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	return appendValue(buf, a.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = v.String()
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsFunc(s, mustQuote) {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func mustQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"' || r == '\\'
}

func levelStyle(level slog.Level) (string, text.Color) {
	switch {
	case level >= slog.LevelError:
		return "ERROR", text.FgRed
	case level >= slog.LevelWarn:
		return "WARN", text.FgYellow
	case level >= slog.LevelInfo:
		return "INFO", text.FgBlue
	default:
		return "DEBUG", text.FgHiBlack
	}
}
