package main

import (
	"fmt"

	"github.com/phrazzld/scry-srs/internal/config"
	"github.com/phrazzld/scry-srs/internal/domain/srs"
	"github.com/phrazzld/scry-srs/internal/service/review"
)

// schedulerParams builds the scheduling constants from configuration.
// Zero values in cfg keep the built-in defaults.
func schedulerParams(cfg config.SchedulerConfig) (*srs.Params, error) {
	params, err := srs.NewParams(srs.ParamsConfig{
		DefaultEaseFactor:  cfg.DefaultEaseFactor,
		MinEaseFactor:      cfg.MinEaseFactor,
		MaxEaseFactor:      cfg.MaxEaseFactor,
		FailureEasePenalty: cfg.FailureEasePenalty,
		InitialInterval:    cfg.InitialInterval,
		SecondInterval:     cfg.SecondInterval,
		ThirdInterval:      cfg.ThirdInterval,
		PassingQuality:     cfg.PassingQuality,
		ExcellentQuality:   cfg.ExcellentQuality,
		EasyModifier:       cfg.EasyModifier,
		MediumModifier:     cfg.MediumModifier,
		HardModifier:       cfg.HardModifier,
		VeryHardModifier:   cfg.VeryHardModifier,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler configuration: %w", err)
	}
	return params, nil
}

func reviewConfig(cfg *config.Config) review.Config {
	return review.Config{
		Retry: review.RetryConfig{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
		Queue: review.QueueConfig{
			DefaultSize: cfg.Queue.DefaultSize,
			MaxSize:     cfg.Queue.MaxSize,
		},
	}
}
