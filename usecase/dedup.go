package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	domainDedup "github.com/AzielCF/az-citas/domains/dedup"
	"github.com/AzielCF/az-citas/repository"
)

const (
	DefaultDedupRetention     = 7 * 24 * time.Hour
	DefaultDedupSweepInterval = time.Hour
)

type DedupOptions struct {
	Retention     time.Duration
	SweepInterval time.Duration
}

// DedupService admite cada message id una sola vez. Consulta primero el store
// durable (si hay) y siempre actualiza la cache en memoria, de modo que una
// caída posterior del store no vuelva a abrir la ventana.
type DedupService struct {
	durable domainDedup.IMarkerStore
	memory  *repository.MemoryProcessedMessageCache
	opts    DedupOptions
	now     func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDedupService acepta durable nil para operar solo en memoria.
func NewDedupService(durable domainDedup.IMarkerStore, memory *repository.MemoryProcessedMessageCache, opts DedupOptions) *DedupService {
	if memory == nil {
		memory = repository.NewMemoryProcessedMessageCache(repository.DefaultMemoryCapacity, repository.DefaultMemoryTTL)
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultDedupRetention
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultDedupSweepInterval
	}
	return &DedupService{
		durable: durable,
		memory:  memory,
		opts:    opts,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

var _ domainDedup.IGate = (*DedupService)(nil)

func (s *DedupService) IsDuplicate(ctx context.Context, messageID string) bool {
	if messageID == "" {
		return false
	}
	if s.durable != nil {
		seen, err := s.durable.Seen(ctx, messageID)
		if err != nil {
			logrus.WithError(err).WithField("message_id", messageID).Warn("[DEDUP] Durable store unavailable, using memory")
		} else if seen {
			s.memory.AddIfAbsent(messageID)
			return true
		}
	}
	return s.memory.Contains(messageID)
}

func (s *DedupService) MarkProcessed(ctx context.Context, messageID string) {
	if messageID == "" {
		return
	}
	s.memory.AddIfAbsent(messageID)
	if s.durable == nil {
		return
	}
	if _, err := s.durable.Mark(ctx, messageID, s.now().UTC()); err != nil {
		logrus.WithError(err).WithField("message_id", messageID).Warn("[DEDUP] Could not persist processed marker")
	}
}

// CheckAndMark marca el id y devuelve true si ya se había visto.
// Un id vacío nunca es duplicado.
func (s *DedupService) CheckAndMark(ctx context.Context, messageID string) bool {
	if messageID == "" {
		return false
	}
	memExisted := s.memory.AddIfAbsent(messageID)
	if s.durable == nil {
		return memExisted
	}
	inserted, err := s.durable.Mark(ctx, messageID, s.now().UTC())
	if err != nil {
		logrus.WithError(err).WithField("message_id", messageID).Warn("[DEDUP] Durable store unavailable, using memory")
		return memExisted
	}
	return !inserted || memExisted
}

// Cleanup purga la memoria expirada y los marcadores durables fuera de retención.
func (s *DedupService) Cleanup(ctx context.Context) (int64, error) {
	removed := int64(s.memory.Sweep())
	if s.durable == nil {
		return removed, nil
	}
	n, err := s.durable.Cleanup(ctx, s.now().UTC().Add(-s.opts.Retention))
	if err != nil {
		return removed, err
	}
	return removed + n, nil
}

// Start lanza el barrido periódico; Stop lo detiene.
func (s *DedupService) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				n, err := s.Cleanup(ctx)
				if err != nil {
					logrus.WithError(err).Warn("[DEDUP] Cleanup failed")
					continue
				}
				if n > 0 {
					logrus.WithField("removed", n).Debug("[DEDUP] Cleanup done")
				}
			}
		}
	}()
}

func (s *DedupService) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}
