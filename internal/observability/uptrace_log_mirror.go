package observability

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap/zapcore"
)

const (
	uptraceLogInstrumentation = "goal-alerts/internal/platform/logging"
	maxLogValueDepth          = 3
)

// Per-cycle chatter. Goals, reminders and delivery failures always go out.
var uptraceSkippedMessages = map[string]struct{}{
	"poll cycle finished": {},
	"schedule refreshed":  {},
	"cycle finished":      {},
}

// Engine log keys renamed into dotted attribute namespaces so goal, poll and
// subscriber fields group together in the Uptrace log explorer.
var uptraceAttributeKeys = map[string]string{
	"match_id":    "goal.match_id",
	"key":         "goal.key",
	"score_delta": "goal.score_delta",
	"minute":      "goal.minute",
	"cycle_id":    "poll.cycle_id",
	"live":        "poll.live",
	"goals":       "poll.goals",
	"reminders":   "poll.reminders",
	"recipient":   "subscriber.recipient",
	"admin":       "subscriber.recipient",
	"tier":        "subscriber.tier",
	"provider":    "provider.name",
	"state":       "provider.breaker_state",
	"error":       "exception.message",
}

type uptraceLogMirror struct {
	logger otellog.Logger
}

func newUptraceLogMirror(serviceVersion string) logging.MirrorFunc {
	m := uptraceLogMirror{
		logger: otelglobal.Logger(uptraceLogInstrumentation, otellog.WithInstrumentationVersion(serviceVersion)),
	}
	return m.emit
}

func (m uptraceLogMirror) emit(ctx context.Context, level logging.Level, msg string, args ...any) {
	if shouldSkipUptraceLog(level, msg) {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	severity := toOTelSeverity(level)
	if !m.logger.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: msg}) {
		return
	}

	var record otellog.Record
	stamp := time.Now().UTC()
	record.SetTimestamp(stamp)
	record.SetObservedTimestamp(stamp)
	record.SetSeverity(severity)
	record.SetSeverityText(strings.ToUpper(level.String()))
	record.SetEventName(msg)
	record.SetBody(otellog.StringValue(msg))
	record.AddAttributes(buildOTelLogAttributes(args)...)
	m.logger.Emit(ctx, record)
}

func shouldSkipUptraceLog(level logging.Level, msg string) bool {
	if level >= logging.LevelWarn {
		return false
	}
	_, skip := uptraceSkippedMessages[msg]
	return skip
}

func uptraceAttributeKey(key string) string {
	if mapped, ok := uptraceAttributeKeys[key]; ok {
		return mapped
	}
	return key
}

func buildOTelLogAttributes(args []any) []otellog.KeyValue {
	attrs := make([]otellog.KeyValue, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprintf("arg_%d", i/2)
		if k, ok := args[i].(string); ok && strings.TrimSpace(k) != "" {
			key = uptraceAttributeKey(k)
		}
		if i+1 >= len(args) {
			attrs = append(attrs, otellog.Empty(key))
			continue
		}
		attrs = append(attrs, otellog.KeyValue{Key: key, Value: toOTelLogValue(args[i+1], 0)})
	}
	return attrs
}

var otelSeverities = map[zapcore.Level]otellog.Severity{
	zapcore.DebugLevel:  otellog.SeverityDebug,
	zapcore.InfoLevel:   otellog.SeverityInfo,
	zapcore.WarnLevel:   otellog.SeverityWarn,
	zapcore.ErrorLevel:  otellog.SeverityError,
	zapcore.DPanicLevel: otellog.SeverityFatal,
	zapcore.PanicLevel:  otellog.SeverityFatal,
	zapcore.FatalLevel:  otellog.SeverityFatal,
}

func toOTelSeverity(level zapcore.Level) otellog.Severity {
	if severity, ok := otelSeverities[level]; ok {
		return severity
	}
	if level < zapcore.DebugLevel {
		return otellog.SeverityDebug
	}
	return otellog.SeverityError
}

// toOTelLogValue converts a log argument by kind, so named string and integer
// types such as subscriber tiers, recipient ids and breaker states keep their
// underlying value instead of being formatted.
func toOTelLogValue(value any, depth int) otellog.Value {
	if value == nil {
		return otellog.Value{}
	}
	if depth >= maxLogValueDepth {
		return otellog.StringValue(fmt.Sprint(value))
	}

	switch v := value.(type) {
	case time.Time:
		return otellog.StringValue(v.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return otellog.StringValue(v.String())
	case error:
		return otellog.StringValue(v.Error())
	case fmt.Stringer:
		return otellog.StringValue(v.String())
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return otellog.StringValue(rv.String())
	case reflect.Bool:
		return otellog.BoolValue(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return otellog.Int64Value(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return otellog.Int64Value(int64(u))
		}
		return otellog.StringValue(fmt.Sprint(value))
	case reflect.Float32, reflect.Float64:
		return otellog.Float64Value(rv.Float())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return otellog.Value{}
		}
		return toOTelLogValue(rv.Elem().Interface(), depth+1)
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			out := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(out), rv)
			return otellog.BytesValue(out)
		}
		items := make([]otellog.Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, toOTelLogValue(rv.Index(i).Interface(), depth+1))
		}
		return otellog.SliceValue(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return otellog.StringValue(fmt.Sprint(value))
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		kvs := make([]otellog.KeyValue, 0, len(keys))
		for _, key := range keys {
			kvs = append(kvs, otellog.KeyValue{
				Key:   key.String(),
				Value: toOTelLogValue(rv.MapIndex(key).Interface(), depth+1),
			})
		}
		return otellog.MapValue(kvs...)
	default:
		return otellog.StringValue(fmt.Sprint(value))
	}
}
