package observability

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/goal-alerts/internal/config"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	betterStackQueueSize     = 1024
	betterStackBatchSize     = 50
	betterStackFlushInterval = time.Second
	betterStackDrainTimeout  = 5 * time.Second
)

// InitBetterStackLogger tees the process logger into Better Stack. Records
// below BetterStackMinLevel stay on stdout only. Every shipped record carries
// the service, environment and active match provider.
func InitBetterStackLogger(cfg config.Config, baseLogger *logging.Logger) (*logging.Logger, ShutdownFunc, error) {
	if baseLogger == nil {
		baseLogger = logging.NewJSON(cfg.LogLevel)
	}

	tel := cfg.Telemetry
	if !tel.BetterStackEnabled {
		baseLogger.Info("betterstack disabled")
		return baseLogger, noopShutdown, nil
	}

	endpoint := betterStackURL(tel.BetterStackEndpoint)
	if endpoint == "" {
		return nil, nil, crerr.New("betterstack endpoint cannot be empty")
	}

	shipper := newBetterStackShipper(endpoint, strings.TrimSpace(tel.BetterStackToken), tel.BetterStackTimeout)
	encoder := zapcore.NewJSONEncoder(logging.EncoderConfig())
	remote := zapcore.NewCore(encoder.Clone(), zapcore.AddSync(shipper), tel.BetterStackMinLevel).With([]zapcore.Field{
		zap.String("service", cfg.ServiceName),
		zap.String("env", cfg.AppEnv),
		zap.String("provider", cfg.Provider.Name),
	})
	local := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), cfg.LogLevel)

	logger := logging.FromZap(zap.New(
		zapcore.NewTee(local, remote),
		zap.AddCaller(),
		zap.AddCallerSkip(2),
		zap.AddStacktrace(zapcore.ErrorLevel),
	))
	logger.Info("betterstack enabled", "endpoint", endpoint, "min_level", tel.BetterStackMinLevel.String())

	shutdown := func(ctx context.Context) error {
		if ctx == nil {
			ctx = context.Background()
		}
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, betterStackDrainTimeout)
			defer cancel()
		}
		if err := shipper.Close(ctx); err != nil {
			return crerr.Wrap(err, "drain betterstack queue")
		}
		if err := logger.Sync(); err != nil && !isStdoutSyncError(err) {
			return err
		}
		return nil
	}
	return logger, shutdown, nil
}

func betterStackURL(raw string) string {
	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		return ""
	case strings.HasPrefix(value, "http://"), strings.HasPrefix(value, "https://"):
		return value
	default:
		return "https://" + value
	}
}

// betterStackShipper is a zapcore.WriteSyncer that batches encoded records
// into JSON arrays and posts them from one background goroutine. Write never
// blocks; a full queue drops the record and counts it.
type betterStackShipper struct {
	endpoint string
	token    string
	client   *http.Client

	mu      sync.RWMutex
	closed  bool
	records chan []byte
	done    chan struct{}
	dropped atomic.Uint64
}

func newBetterStackShipper(endpoint, token string, timeout time.Duration) *betterStackShipper {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	s := &betterStackShipper{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
		records:  make(chan []byte, betterStackQueueSize),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *betterStackShipper) Write(p []byte) (int, error) {
	record := bytes.TrimSpace(p)
	if len(record) == 0 {
		return len(p), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return len(p), nil
	}

	select {
	case s.records <- bytes.Clone(record):
	default:
		if n := s.dropped.Add(1); n == 1 || n%100 == 0 {
			fmt.Fprintf(os.Stderr, "betterstack queue full; dropped logs=%d\n", n)
		}
	}
	return len(p), nil
}

func (s *betterStackShipper) Sync() error { return nil }

func (s *betterStackShipper) run() {
	defer close(s.done)

	ticker := time.NewTicker(betterStackFlushInterval)
	defer ticker.Stop()

	batch := make([][]byte, 0, betterStackBatchSize)
	for {
		select {
		case record, ok := <-s.records:
			if !ok {
				s.post(batch)
				return
			}
			batch = append(batch, record)
			if len(batch) >= betterStackBatchSize {
				s.post(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			s.post(batch)
			batch = batch[:0]
		}
	}
}

func (s *betterStackShipper) post(batch [][]byte) {
	if len(batch) == 0 {
		return
	}

	body := bytebufferpool.Get()
	defer bytebufferpool.Put(body)
	_ = body.WriteByte('[')
	for i, record := range batch {
		if i > 0 {
			_ = body.WriteByte(',')
		}
		_, _ = body.Write(record)
	}
	_ = body.WriteByte(']')

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.endpoint, bytes.NewReader(body.B))
	if err != nil {
		fmt.Fprintf(os.Stderr, "betterstack build request failed: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "betterstack ship %d logs failed: %v\n", len(batch), err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		fmt.Fprintf(os.Stderr, "betterstack ship %d logs got status=%d\n", len(batch), resp.StatusCode)
	}
}

// Close stops intake and waits for the queued records to be posted.
func (s *betterStackShipper) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.records)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isStdoutSyncError reports the errors fsync returns for terminals and pipes.
func isStdoutSyncError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "bad file descriptor") || strings.Contains(msg, "invalid argument")
}
