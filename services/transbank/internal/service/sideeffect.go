package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/webpay-bridge/platform/observability"
)

// Outcome результат побочной записи. Используется только для логов и метрик,
// на HTTP-ответ не влияет.
type Outcome struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Succeeded true, если запись прошла без ошибки
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Result метка для метрик: "succeeded" или "failed"
func (o Outcome) Result() string {
	if o.Succeeded() {
		return "succeeded"
	}
	return "failed"
}

// OutcomeRecorder записывает исходы побочных записей в метрики; nil допустим
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, outcome Outcome)
}

// panicError паника внутри побочной записи, вместе со стеком
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// sideEffectRunner выполняет побочные записи на контексте, отвязанном от отмены запроса.
// Клиент может закрыть соединение сразу после ответа, запись всё равно доедет до хранилища.
type sideEffectRunner struct {
	logger   *zap.Logger
	timeout  time.Duration
	recorder OutcomeRecorder
}

func (r sideEffectRunner) run(ctx context.Context, name string, fn func(ctx context.Context) error) (out Outcome) {
	log := observability.L(ctx, r.logger)
	start := time.Now()

	wctx := context.WithoutCancel(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(wctx, r.timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			out.Err = &panicError{value: p, stack: debug.Stack()}
		}
		out.Name = name
		out.Duration = time.Since(start)

		if out.Succeeded() {
			log.Debug("side effect succeeded",
				zap.String("write", name),
				zap.Duration("duration", out.Duration),
			)
		} else {
			log.Error("side effect failed",
				zap.String("write", name),
				zap.Duration("duration", out.Duration),
				zap.Error(out.Err),
			)
		}
		if r.recorder != nil {
			r.recorder.RecordOutcome(wctx, out)
		}
	}()

	out.Err = fn(wctx)
	return out
}
