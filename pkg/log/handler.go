package log

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"

	gderrors "github.com/YuminosukeSato/gdlinreg/pkg/errors"
)

// ErrFmtHandler is a slog handler that expands errors created by pkg/errors:
// it adds the cockroachdb stack trace and a structured error code.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps a standard slog handler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{
		handler: handler,
	}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var logged error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == ErrAttrKey {
			if err, ok := attr.Value.Any().(error); ok {
				logged = err
			}
			return false
		}
		return true
	})
	if logged != nil {
		if stacktrace := extractStacktrace(logged); stacktrace != "" {
			r.AddAttrs(slog.String(StacktraceAttrKey, stacktrace))
		}
		if code := ErrorCode(logged); code != "" {
			r.AddAttrs(slog.String(ErrorCodeKey, code))
		}
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	if errors.GetReportableStackTrace(err) != nil {
		return fmt.Sprintf("%+v", err)
	}
	return ""
}

// ErrorCode maps the typed errors of pkg/errors to the standard error codes.
func ErrorCode(err error) string {
	var (
		notFitted *gderrors.NotFittedError
		dim       *gderrors.DimensionError
		numeric   *gderrors.NumericalInstabilityError
	)
	switch {
	case gderrors.As(err, &notFitted):
		return ErrorNotFitted
	case gderrors.As(err, &dim):
		return ErrorDimensionMismatch
	case gderrors.As(err, &numeric):
		return ErrorDivergence
	case gderrors.Is(err, gderrors.ErrEmptyData):
		return ErrorEmptyData
	}
	return ""
}
