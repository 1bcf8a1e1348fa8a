package tools

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/stayscout/internal/clock/system"
	"github.com/JakeFAU/stayscout/internal/id/uuid"
	"github.com/JakeFAU/stayscout/internal/metrics"
	"github.com/JakeFAU/stayscout/internal/toolerr"
)

const (
	outcomeOK = "ok"
	// unknownToolLabel keeps arbitrary caller-supplied names out of metric labels.
	unknownToolLabel = "unknown"
)

// Clock times tool calls.
type Clock interface {
	Now() time.Time
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.clock = c
		}
	}
}

// Dispatcher routes tool calls through validation, the handler and the
// result envelope. It is safe for concurrent use.
type Dispatcher struct {
	registry *Registry
	ids      uuid.Generator
	clock    Clock
	logger   *zap.Logger
}

// NewDispatcher builds a Dispatcher over a registry.
func NewDispatcher(registry *Registry, logger *zap.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = &Registry{index: map[string]*entry{}}
	}
	d := &Dispatcher{
		registry: registry,
		ids:      uuid.New(),
		clock:    system.New(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ListTools returns the registry's descriptors in declaration order.
func (d *Dispatcher) ListTools() []Descriptor {
	return d.registry.Descriptors()
}

// CallTool validates args for the named tool, runs its handler and wraps the
// payload. Every returned error is a *toolerr.Error.
func (d *Dispatcher) CallTool(ctx context.Context, name string, args map[string]any) (result Result, err error) {
	start := d.clock.Now()
	callID := d.ids.MustID()
	logger := d.logger.With(zap.String("call_id", callID), zap.String("tool", name))
	logger.Info("tool call", zap.Any("arguments", args))

	label := unknownToolLabel
	defer func() {
		elapsed := d.clock.Now().Sub(start)
		if err != nil {
			metrics.ObserveToolCall(label, string(toolerr.KindOf(err)), elapsed)
			logger.Warn("tool call failed", zap.Duration("duration", elapsed), zap.Error(err))
			return
		}
		metrics.ObserveToolCall(label, outcomeOK, elapsed)
		logger.Info("tool call completed", zap.Duration("duration", elapsed))
	}()

	e, ok := d.registry.lookup(name)
	if !ok {
		return Result{}, toolerr.UnknownTool(name)
	}
	label = e.descriptor.Name

	coerced, err := coerce(e.tool.Fields, args)
	if err != nil {
		return Result{}, err
	}
	if err := e.validate(coerced); err != nil {
		return Result{}, toolerr.InvalidArguments("%v", err)
	}

	payload, err := invoke(ctx, e.tool.Handler, Call{
		ID:   callID,
		Tool: e.descriptor.Name,
		Args: coerced,
		Raw:  args,
	})
	if err != nil {
		return Result{}, toolerr.As(err)
	}

	result, err = TextResult(payload)
	if err != nil {
		return Result{}, toolerr.Internal("failed to encode result", err)
	}
	return result, nil
}

func invoke(ctx context.Context, h Handler, call Call) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = toolerr.Internal("tool handler panicked", fmt.Errorf("panic: %v", r))
		}
	}()
	return h(ctx, call)
}
