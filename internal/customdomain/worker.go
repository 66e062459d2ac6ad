package customdomain

import (
	"context"
	"time"

	"go_sitebuilder/internal/model"

	"github.com/sirupsen/logrus"
)

// WorkerConfig 域名巡检配置
type WorkerConfig struct {
	IntervalSec int
	BatchSize   int
	Logger      *logrus.Entry
}

// Worker 定期校验 pending 域名、激活 verified 域名
type Worker struct {
	ctx       context.Context
	cancel    context.CancelFunc
	svc       *Service
	logger    *logrus.Entry
	interval  time.Duration
	batchSize int
}

// NewWorker 创建巡检 worker
func NewWorker(svc *Service, cfg WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	if cfg.IntervalSec <= 0 {
		cfg.IntervalSec = 60
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Worker{
		ctx:       ctx,
		cancel:    cancel,
		svc:       svc,
		logger:    logger.WithField("component", "custom-domain-worker"),
		interval:  time.Duration(cfg.IntervalSec) * time.Second,
		batchSize: cfg.BatchSize,
	}
}

// Start 启动
func (w *Worker) Start() {
	w.logger.Info("Starting custom domain worker...")
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.RunOnce(w.ctx)
			case <-w.ctx.Done():
				w.logger.Info("Stopping custom domain worker...")
				return
			}
		}
	}()
}

// Stop 停止
func (w *Worker) Stop() {
	w.cancel()
}

// RunOnce 执行一轮：pending → verify，verified → activate
func (w *Worker) RunOnce(ctx context.Context) {
	pending, err := w.batch(ctx, model.DomainStatusPending)
	if err != nil {
		w.logger.WithError(err).Error("Failed to load pending domains")
		return
	}
	for i := range pending {
		if err := w.svc.verify(ctx, &pending[i]); err != nil {
			w.logger.WithError(err).WithField("domain", pending[i].Domain).Warn("Verification failed")
		}
	}

	verified, err := w.batch(ctx, model.DomainStatusVerified)
	if err != nil {
		w.logger.WithError(err).Error("Failed to load verified domains")
		return
	}
	for i := range verified {
		if err := w.svc.activate(ctx, &verified[i]); err != nil {
			w.logger.WithError(err).WithField("domain", verified[i].Domain).Warn("Activation failed")
		}
	}

	if len(pending)+len(verified) > 0 {
		w.logger.WithFields(logrus.Fields{
			"pending":  len(pending),
			"verified": len(verified),
		}).Debug("Custom domain round completed")
	}
}

// batch 按最近检查时间升序取一批，优先处理从未检查过的
func (w *Worker) batch(ctx context.Context, status model.DomainStatus) ([]model.CustomDomain, error) {
	var domains []model.CustomDomain
	err := w.svc.db.WithContext(ctx).
		Where("status = ?", status).
		Order("last_checked_at IS NOT NULL, last_checked_at ASC, id ASC").
		Limit(w.batchSize).
		Find(&domains).Error
	return domains, err
}
