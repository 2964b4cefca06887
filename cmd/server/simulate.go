package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/domain/srs"
)

// simulation describes a run of reviews against a single fresh item.
// Every review shares the same telemetry apart from its quality.
type simulation struct {
	Qualities      []int
	Difficulty     domain.Difficulty
	ResponseTimeMs int64
	HintsUsed      int
	Attempts       int
	Start          time.Time
}

// simulationStep is the schedule after one review.
type simulationStep struct {
	Review     int
	Quality    int
	Modifier   float64
	ReviewedAt time.Time
	Item       *domain.ReviewItem
}

// simulate replays the reviews. Each review after the first happens on the
// date the previous one scheduled.
func simulate(scheduler srs.Service, sim simulation) ([]simulationStep, error) {
	if len(sim.Qualities) == 0 {
		return nil, domain.NewValidationError("quality", "requires at least one score", nil)
	}

	at := sim.Start.UTC()
	item, err := scheduler.NewItem(uuid.New(), uuid.New(), domain.ItemTypeVocabulary, "en", at)
	if err != nil {
		return nil, err
	}

	steps := make([]simulationStep, 0, len(sim.Qualities))
	for i, quality := range sim.Qualities {
		input, err := domain.NewPerformanceInput(quality, sim.ResponseTimeMs, sim.HintsUsed, sim.Attempts, sim.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("review %d: %w", i+1, err)
		}
		modifier, err := scheduler.Evaluate(input)
		if err != nil {
			return nil, fmt.Errorf("review %d: %w", i+1, err)
		}
		if item, err = scheduler.ApplyReview(item, input, modifier, at); err != nil {
			return nil, fmt.Errorf("review %d: %w", i+1, err)
		}

		steps = append(steps, simulationStep{
			Review:     i + 1,
			Quality:    quality,
			Modifier:   modifier,
			ReviewedAt: at,
			Item:       item,
		})
		at = item.NextReviewAt
	}
	return steps, nil
}

func writeSimulation(out io.Writer, steps []simulationStep) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REVIEW\tDATE\tQUALITY\tMODIFIER\tEASE\tREPS\tINTERVAL\tNEXT")
	for _, s := range steps {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\t%.2f\t%d\t%d\t%s\n",
			s.Review,
			s.ReviewedAt.Format(time.DateOnly),
			s.Quality,
			s.Modifier,
			s.Item.EaseFactor,
			s.Item.Repetitions,
			s.Item.Interval,
			s.Item.NextReviewAt.Format(time.DateOnly),
		)
	}
	return tw.Flush()
}
