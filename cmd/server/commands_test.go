package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-srs/internal/config"
	"github.com/phrazzld/scry-srs/internal/domain"
	"github.com/phrazzld/scry-srs/internal/domain/srs"
	"github.com/phrazzld/scry-srs/internal/platform/logger"
	"github.com/phrazzld/scry-srs/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate(t *testing.T) {
	t.Parallel()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	steps, err := simulate(srs.NewDefaultService(), simulation{
		Qualities:      []int{5, 4, 3, 1},
		Difficulty:     domain.DifficultyMedium,
		ResponseTimeMs: 8000,
		Attempts:       1,
		Start:          start,
	})
	require.NoError(t, err)
	require.Len(t, steps, 4)

	intervals := make([]int, len(steps))
	for i, s := range steps {
		intervals[i] = s.Item.Interval
		assert.InDelta(t, 1.0, s.Modifier, 1e-9)
	}
	// 7 * 2.5 = 17.5 rounds up, then the failure resets
	assert.Equal(t, []int{3, 7, 18, 1}, intervals)
	assert.Equal(t, start.AddDate(0, 0, 10), steps[2].ReviewedAt)
	assert.Equal(t, 0, steps[3].Item.Repetitions)
}

func TestSimulateRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := simulate(srs.NewDefaultService(), simulation{Difficulty: domain.DifficultyEasy, ResponseTimeMs: 1, Attempts: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = simulate(srs.NewDefaultService(), simulation{
		Qualities:      []int{4, 9},
		Difficulty:     domain.DifficultyEasy,
		ResponseTimeMs: 1000,
		Attempts:       1,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "review 2")
}

func TestSimulateCommand(t *testing.T) {
	t.Parallel()

	out, err := runRoot(t, "simulate", "--quality", "5,4,3", "--start", "2024-01-01")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "INTERVAL")
	assert.Contains(t, lines[1], "2024-01-04")
	assert.Contains(t, lines[2], "2024-01-11")
	assert.Contains(t, lines[3], "2024-01-29")

	_, err = runRoot(t, "simulate", "--difficulty", "impossible")
	assert.Error(t, err)

	_, err = runRoot(t, "simulate", "--start", "01/02/2024")
	assert.Error(t, err)
}

func TestMigrateCommandSQLite(t *testing.T) {
	t.Parallel()
	path := writeConfigFile(t, filepath.Join(t.TempDir(), "scry.db"))

	_, err := runRoot(t, "migrate", "--config", path)
	require.NoError(t, err)

	_, err = runRoot(t, "migrate", "status", "--config", path)
	require.NoError(t, err)

	_, err = runRoot(t, "migrate", "down", "--config", path)
	require.NoError(t, err)

	_, err = runRoot(t, "migrate", "sideways", "--config", path)
	assert.Error(t, err)
}

func TestOpenStoreSQLiteAutoMigrates(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Database = config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		URL:         filepath.Join(t.TempDir(), "scry.db"),
		AutoMigrate: true,
	}
	app := newTestApplication(t, cfg)
	require.NotNil(t, app.db)

	userID := uuid.New()
	item, err := app.reviewService.IntroduceItem(context.Background(), userID, uuid.New(), domain.ItemTypeGrammar, "fr")
	require.NoError(t, err)

	got, err := app.itemStore.Get(context.Background(), userID, item.ItemID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
}

func TestTokenCommand(t *testing.T) {
	t.Parallel()
	path := writeConfigFile(t, filepath.Join(t.TempDir(), "scry.db"))
	userID := uuid.New()

	out, err := runRoot(t, "token", "--user", userID.String(), "--config", path)
	require.NoError(t, err)

	var token string
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "token:"); ok {
			token = strings.TrimSpace(rest)
		}
	}
	require.NotEmpty(t, token)

	jwtService, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)
	claims, err := jwtService.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	_, err = runRoot(t, "token", "--user", "not-a-uuid", "--config", path)
	assert.Error(t, err)
}

func TestApplicationDeliversEventsAsynchronously(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Events = config.EventsConfig{Workers: 2, QueueSize: 8}
	log, buf := logger.NewTestLogger(t)

	app, err := newApplication(context.Background(), cfg, log)
	require.NoError(t, err)
	require.NotNil(t, app.asyncEmitter)

	userID := uuid.New()
	item, err := app.reviewService.IntroduceItem(context.Background(), userID, uuid.New(), domain.ItemTypePhrase, "de")
	require.NoError(t, err)
	input, err := domain.NewPerformanceInput(5, 2000, 0, 1, domain.DifficultyEasy)
	require.NoError(t, err)
	_, err = app.reviewService.SubmitReview(context.Background(), userID, item.ItemID, input)
	require.NoError(t, err)

	// cleanup drains the queue before returning
	app.cleanup()
	logger.AssertLogContains(t, buf, "review recorded")
}
