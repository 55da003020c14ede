// sweeper.go — фоновая очистка осиротевших файлов.
//
// Файл считается осиротевшим, если он старше периода grace и ни один пост
// на него не ссылается. Такие файлы остаются, когда загрузка прошла,
// а создание поста — нет.
//
// Запускается как горутина с периодическим тикером (SF_SWEEP_INTERVAL).
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/snapfeed/internal/clock"
	"github.com/bigkaa/snapfeed/internal/domain/model"
	"github.com/bigkaa/snapfeed/internal/repository"
)

// sweepBatchSize — максимальное число ссылок в одном запросе к БД.
const sweepBatchSize = 500

// Prometheus метрики очистки
var (
	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sf_sweep_runs_total",
		Help: "Общее количество запусков очистки осиротевших файлов",
	})

	sweepAssetsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sf_sweep_assets_deleted_total",
		Help: "Общее количество удалённых осиротевших файлов",
	})

	sweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sf_sweep_duration_seconds",
		Help:    "Длительность очистки в секундах",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// SweepResult — результат одного запуска очистки.
type SweepResult struct {
	// Scanned — количество файлов старше grace
	Scanned int
	// Deleted — количество удалённых файлов
	Deleted int
	// Errors — количество ошибок
	Errors   int
	Duration time.Duration
}

// SweeperService — сервис очистки осиротевших файлов.
type SweeperService struct {
	assets   AssetLister
	posts    repository.PostRepository
	clock    clock.Clock
	interval time.Duration
	grace    time.Duration
	logger   *slog.Logger

	mu     sync.Mutex // защита от параллельного запуска RunOnce
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeperService создаёт сервис очистки.
func NewSweeperService(
	assets AssetLister,
	posts repository.PostRepository,
	c clock.Clock,
	interval, grace time.Duration,
	logger *slog.Logger,
) *SweeperService {
	return &SweeperService{
		assets:   assets,
		posts:    posts,
		clock:    c,
		interval: interval,
		grace:    grace,
		logger:   logger.With(slog.String("component", "sweeper")),
	}
}

// Start запускает фоновую горутину очистки.
func (s *SweeperService) Start(ctx context.Context) {
	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(sweepCtx)

	s.logger.Info("Очистка осиротевших файлов запущена",
		slog.String("interval", s.interval.String()),
		slog.String("grace", s.grace.String()),
	)
}

// Stop останавливает фоновую очистку и дожидается завершения текущего прохода.
func (s *SweeperService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("Очистка осиротевших файлов остановлена")
}

func (s *SweeperService) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один проход очистки.
func (s *SweeperService) RunOnce(ctx context.Context) *SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result := &SweepResult{}

	defer func() {
		result.Duration = time.Since(start)
		sweepRunsTotal.Inc()
		sweepAssetsDeletedTotal.Add(float64(result.Deleted))
		sweepDurationSeconds.Observe(result.Duration.Seconds())

		s.logger.Info("Очистка завершена",
			slog.Int("scanned", result.Scanned),
			slog.Int("deleted", result.Deleted),
			slog.Int("errors", result.Errors),
			slog.Duration("duration", result.Duration),
		)
	}()

	stored, err := s.assets.List()
	if err != nil {
		s.logger.Error("Ошибка получения списка файлов", slog.String("error", err.Error()))
		result.Errors++
		return result
	}

	cutoff := s.clock.NowUtc().Add(-s.grace)
	var candidates []model.StoredAsset
	for _, a := range stored {
		if a.ModTime.Before(cutoff) {
			candidates = append(candidates, a)
		}
	}
	result.Scanned = len(candidates)

	for i := 0; i < len(candidates); i += sweepBatchSize {
		if ctx.Err() != nil {
			return result
		}
		batch := candidates[i:min(i+sweepBatchSize, len(candidates))]

		refs := make([]string, len(batch))
		for j, a := range batch {
			refs[j] = a.Reference
		}
		used, err := s.posts.ReferencedImageURLs(ctx, refs)
		if err != nil {
			s.logger.Error("Ошибка проверки ссылок на файлы", slog.String("error", err.Error()))
			result.Errors++
			continue
		}

		for _, a := range batch {
			if used[a.Reference] {
				continue
			}
			if err := s.assets.Delete(a.Reference); err != nil {
				s.logger.Error("Ошибка удаления осиротевшего файла",
					slog.String("reference", a.Reference),
					slog.String("error", err.Error()),
				)
				result.Errors++
				continue
			}
			s.logger.Debug("Осиротевший файл удалён", slog.String("reference", a.Reference))
			result.Deleted++
		}
	}

	return result
}
