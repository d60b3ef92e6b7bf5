package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	domainHealth "github.com/AzielCF/az-citas/domains/health"
)

const defaultProbeTimeout = 3 * time.Second

type healthService struct {
	probes  []domainHealth.Probe
	timeout time.Duration
}

func NewHealthService(probes ...domainHealth.Probe) domainHealth.IHealthUsecase {
	return &healthService{probes: probes, timeout: defaultProbeTimeout}
}

func (s *healthService) CheckAll(ctx context.Context) ([]domainHealth.HealthRecord, bool) {
	records := make([]domainHealth.HealthRecord, 0, len(s.probes))
	healthy := true
	for _, probe := range s.probes {
		records = append(records, s.check(ctx, probe))
		if records[len(records)-1].Status != domainHealth.StatusOk {
			healthy = false
		}
	}
	return records, healthy
}

func (s *healthService) check(ctx context.Context, probe domainHealth.Probe) domainHealth.HealthRecord {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := probe.Ping(ctx)
	rec := domainHealth.HealthRecord{
		Component:   probe.Name,
		Status:      domainHealth.StatusOk,
		LastChecked: start.UTC(),
		LatencyMS:   time.Since(start).Milliseconds(),
	}
	if err != nil {
		rec.Status = domainHealth.StatusError
		rec.LastMessage = err.Error()
		logrus.WithError(err).WithField("component", probe.Name).Warn("[HEALTH] Probe failed")
	}
	return rec
}
