package service

import (
	"context"

	"github.com/okian/taskflow/pkg/logger"
	"github.com/okian/taskflow/pkg/metrics"
)

// publishUtilization exports the team overview as gauges. It runs on the
// snapshot schedule and after every successful roster reload.
func (s *Service) publishUtilization(ctx context.Context) {
	o, err := s.overview(ctx)
	if err != nil {
		s.logger.Warn(ctx, "capacity snapshot failed", logger.Error(err))
		metrics.RecordErrorByComponent("service", "snapshot")
		return
	}

	metrics.ResetMemberUtilization()
	for _, m := range o.Members {
		metrics.UpdateMemberUtilization(m.MemberID, m.Workload.UtilizationPercent)
	}
	metrics.UpdateTeamUtilization(o.Totals.AverageUtilization)

	s.logger.Debug(ctx, "capacity snapshot published",
		logger.Int("members", len(o.Members)),
		logger.Float64("totalCapacity", o.Totals.TotalCapacity),
		logger.Float64("totalAssigned", o.Totals.TotalAssigned),
		logger.Float64("averageUtilization", o.Totals.AverageUtilization),
	)
}

func (s *Service) onReload(ctx context.Context, err error) {
	if err != nil {
		return
	}
	s.publishUtilization(ctx)
}
