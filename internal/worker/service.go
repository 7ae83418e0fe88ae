package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/provider"
	"github.com/mercato-next/internal/queue"
)

// Service 异步任务消费服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建消费服务
func NewService(container *provider.Container) (*Service, error) {
	if container == nil || container.Config == nil {
		return nil, errors.New("worker: container is required")
	}
	if !container.Config.Queue.Enabled {
		return nil, errors.New("worker: queue is disabled in config")
	}

	redisOpt, serverCfg := queue.BuildServerConfig(&container.Config.Queue)
	server := asynq.NewServer(redisOpt, serverCfg)

	consumer := NewConsumer(container)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名
func (s *Service) Name() string {
	return s.name
}

// Start 启动消费循环，阻塞直到 Stop 被调用
func (s *Service) Start(ctx context.Context) error {
	logger.Infow("worker_starting")
	if err := s.server.Run(s.mux); err != nil {
		return err
	}
	return nil
}

// Stop 优雅停止
func (s *Service) Stop(ctx context.Context) error {
	logger.Infow("worker_stopping")
	s.server.Shutdown()
	return nil
}
