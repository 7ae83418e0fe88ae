package app

import (
	"context"
	"errors"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

// Service 可受控启停的后台服务（HTTP、worker）
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 运行一组服务：任一服务退出或收到停机信号时整体停机
type Runner struct {
	services []Service
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// RunWithOptions 挂接系统信号后运行
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("app: runner is required")
	}
	opts = normalizeOptions(opts)

	ctx := context.Background()
	if len(opts.Signals) > 0 {
		notifyCtx, cancel := signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
		ctx = notifyCtx
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// Run 启动全部服务并阻塞，直到 ctx 取消或任一服务退出，随后统一 Stop
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("app: no services to run")
	}
	for _, svc := range r.services {
		if svc == nil {
			return errors.New("app: nil service registered")
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type exit struct {
		name string
		err  error
	}
	exits := make(chan exit, len(r.services))
	for _, svc := range r.services {
		svc := svc
		go func() {
			if log != nil {
				log.Infow("service_start", "service", svc.Name())
			}
			exits <- exit{name: svc.Name(), err: svc.Start(runCtx)}
		}()
	}

	var runErr error
	select {
	case <-runCtx.Done():
		runErr = runCtx.Err()
	case e := <-exits:
		runErr = e.err
		if e.err != nil && log != nil {
			log.Errorw("service_failed", "service", e.name, "error", e.err)
		}
	}
	cancel()

	if stopTimeout <= 0 {
		stopTimeout = defaultShutdownTimeout
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	for _, svc := range r.services {
		if err := svc.Stop(stopCtx); err != nil && log != nil {
			log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
