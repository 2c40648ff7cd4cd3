package services

import (
	"context"
	"sync"
	"time"

	"github.com/cyphera/cyphera-agent/internal/interfaces"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"go.uber.org/zap"
)

const defaultActivityTimeout = 10 * time.Second

// ActivityService fans activity records out to sinks without blocking the caller.
// Delivery is best effort; sink failures are logged and dropped.
type ActivityService struct {
	sinks   []interfaces.ActivitySink
	timeout time.Duration
	wg      sync.WaitGroup
	logger  *zap.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(timeout time.Duration, sinks ...interfaces.ActivitySink) *ActivityService {
	if timeout <= 0 {
		timeout = defaultActivityTimeout
	}
	return &ActivityService{
		sinks:   sinks,
		timeout: timeout,
		logger:  logger.ForComponent(logger.ComponentActivity),
	}
}

// Record emits record to every sink in the background.
func (s *ActivityService) Record(ctx context.Context, record business.ActivityRecord) {
	base := context.WithoutCancel(ctx)
	for _, sink := range s.sinks {
		s.wg.Add(1)
		go func(sink interfaces.ActivitySink) {
			defer s.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Activity sink panicked",
						zap.String("sink", sink.Name()),
						zap.Any("panic", r))
				}
			}()

			emitCtx, cancel := context.WithTimeout(base, s.timeout)
			defer cancel()
			if err := sink.Emit(emitCtx, record); err != nil {
				s.logger.Warn("Failed to emit activity record",
					zap.String("sink", sink.Name()),
					zap.String("execution_id", record.ExecutionID.String()),
					zap.String("grant_id", record.GrantID.String()),
					zap.Error(err))
			}
		}(sink)
	}
}

// Wait blocks until in-flight emissions finish. Used on shutdown.
func (s *ActivityService) Wait() {
	s.wg.Wait()
}

// LogSink writes activity records to the structured log.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink() *LogSink {
	return &LogSink{logger: logger.ForComponent(logger.ComponentActivity)}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Emit(_ context.Context, record business.ActivityRecord) error {
	s.logger.Info("Redemption outcome",
		zap.String("execution_id", record.ExecutionID.String()),
		zap.String("grant_id", record.GrantID.String()),
		zap.String("status", string(record.Status)),
		zap.String("amount_in", record.AmountIn),
		zap.String("amount_out", record.AmountOut),
		zap.String("source_id", record.SourceUsed),
		zap.String("failure_reason", record.FailureReason),
		zap.String("tx_reference", record.ExternalReference))
	return nil
}
