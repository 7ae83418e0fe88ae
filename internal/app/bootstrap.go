package app

import (
	"errors"

	"github.com/mercato-next/internal/config"
	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/provider"
	"github.com/mercato-next/internal/router"
	"github.com/mercato-next/internal/worker"
)

func listenAddr(cfg *config.Config) string {
	return cfg.Server.Host + ":" + cfg.Server.Port
}

// BuildRunner 按启动模式组装服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)
	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(listenAddr(cfg), engine))
	}

	if mode == ModeAll || mode == ModeWorker {
		workerService, err := worker.NewService(container)
		switch {
		case err == nil:
			services = append(services, workerService)
		case mode == ModeWorker:
			// 纯 worker 模式下队列不可用没有退路
			return nil, err
		default:
			logger.Warnw("worker_disabled", "error", err)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}
	return NewRunner(services...), nil
}

// Run 组装依赖并阻塞运行直到收到退出信号
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", listenAddr(opts.Config), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
