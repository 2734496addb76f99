package service

import (
	"context"
	"math/rand/v2"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/tip"
	"go.uber.org/zap"
)

type TipService struct {
	repo tip.Repository
	log  *zap.Logger
	pick func(n int) int
}

func NewTipService(repo tip.Repository, log *zap.Logger) *TipService {
	return &TipService{repo: repo, log: log, pick: rand.IntN}
}

// DailyTip returns a random stored tip, or tip.Fallback when none can be read.
func (s *TipService) DailyTip(ctx context.Context) *tip.DailyTip {
	n, err := s.repo.Count(ctx)
	if err != nil {
		s.log.Warn("counting daily tips", zap.Error(err))
		return fallbackTip()
	}
	if n == 0 {
		return fallbackTip()
	}

	t, err := s.repo.At(ctx, s.pick(int(n)))
	if err != nil {
		s.log.Warn("loading daily tip", zap.Error(err))
		return fallbackTip()
	}
	return t
}

func fallbackTip() *tip.DailyTip {
	t := tip.Fallback
	return &t
}
