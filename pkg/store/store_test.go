package store

import (
	"context"
	"testing"
	"time"

	"github.com/neg-0/overwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestClient(t *testing.T) *Client {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("overwatch_test"),
		postgres.WithUsername("overwatch"),
		postgres.WithPassword("overwatch"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := Config{
		Host: host, Port: port.Int(), User: "overwatch", Password: "overwatch",
		Database: "overwatch_test", SSLMode: "disable",
		MaxOpenConns: 10, MaxIdleConns: 5,
		ConnMaxLifetime: time.Hour, ConnMaxIdleTime: 15 * time.Minute,
	}
	client, err := NewClient(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestClient_ScenarioLifecycle(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	scenario := &models.Scenario{
		Name: "Pacific Contingency", Theater: "INDOPACOM", Adversary: "RED",
		StartDate: time.Now().UTC(), EndDate: time.Now().UTC().Add(72 * time.Hour),
	}
	require.NoError(t, client.CreateScenario(ctx, scenario))
	assert.NotEmpty(t, scenario.ID)

	fetched, found, err := client.GetScenario(ctx, scenario.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, scenario.Name, fetched.Name)

	require.NoError(t, client.UpdateGenerationProgress(ctx, scenario.ID, models.GenerationGenerating, "missions", 50, ""))
	fetched, _, err = client.GetScenario(ctx, scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, fetched.GenerationProgress)

	require.NoError(t, client.DeleteScenario(ctx, scenario.ID))
	_, found, err = client.GetScenario(ctx, scenario.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClient_StrategyDocumentCascadeAndTierLookup(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	scenario := &models.Scenario{Name: "Test", Theater: "T", Adversary: "A", StartDate: time.Now(), EndDate: time.Now()}
	require.NoError(t, client.CreateScenario(ctx, scenario))

	nds := &models.StrategyDocument{ScenarioID: scenario.ID, Tier: models.TierNDS, DocType: models.DocNDS, Title: "NDS", EffectiveDate: time.Now()}
	require.NoError(t, client.CreateStrategyDocument(ctx, nds))

	parent, found, err := client.HighestTierStrategyDocBelow(ctx, scenario.ID, models.TierJSCP)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, nds.ID, parent.ID)

	_, found, err = client.HighestTierStrategyDocBelow(ctx, scenario.ID, models.TierNDS)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClient_SimEventReplayIsTimeOrdered(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	scenario := &models.Scenario{Name: "Test", Theater: "T", Adversary: "A", StartDate: time.Now(), EndDate: time.Now()}
	require.NoError(t, client.CreateScenario(ctx, scenario))

	base := time.Now().UTC()
	for i, et := range []models.SimEventType{models.EventInformational, models.EventMSELFired, models.EventBDARecorded} {
		require.NoError(t, client.CreateSimEvent(ctx, &models.SimEvent{
			ScenarioID: scenario.ID, Time: base.Add(time.Duration(i) * time.Minute), EventType: et,
		}))
	}

	events, err := client.EventsUpTo(ctx, scenario.ID, base.Add(90*time.Second))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventInformational, events[0].EventType)
	assert.Equal(t, models.EventMSELFired, events[1].EventType)
}
