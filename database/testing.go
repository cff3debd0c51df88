package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"logportal/config"
	"logportal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestApp describes one seeded application for tests.
type TestApp struct {
	Key         string
	DisplayName string
	MatchMode   models.MatchMode
}

// SetupTestExecutor seeds a SQLite database per app under a temporary
// directory and returns an Executor wired to them through ${VAR}
// placeholders that fall back to the local files.
// Pools are closed when the test ends.
func SetupTestExecutor(t *testing.T, spec SeedSpec, apps ...TestApp) (*Executor, *config.Registry) {
	t.Helper()

	dir := t.TempDir()
	ctx := context.Background()

	registryApps := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		appSpec := spec
		appSpec.AppName = app.Key
		_, err := SeedFile(ctx, filepath.Join(dir, app.Key+".db"), appSpec)
		require.NoError(t, err)

		query := DefaultSelectQuery
		if app.MatchMode == models.MatchPattern {
			query = PatternSelectQuery
		}
		registryApps = append(registryApps, models.Application{
			Key:              app.Key,
			DisplayName:      app.DisplayName,
			ConnectionString: "${TEST_DB_URI_" + app.Key + "}",
			SelectQuery:      query,
			MatchMode:        app.MatchMode,
		})
	}

	reg, err := config.NewRegistry(registryApps)
	require.NoError(t, err)

	resolver := config.NewResolver(reg, nil, dir)
	resolver.LookupEnv = func(string) (string, bool) { return "", false }

	pools := NewPools(DefaultPoolOptions(), zap.NewNop())
	t.Cleanup(pools.Close)

	return NewExecutor(resolver, pools, 10*time.Second, zap.NewNop()), reg
}

// RequestFor builds a request covering the last span up to now.
func RequestFor(app string, span time.Duration, limit int) models.QueryRequest {
	end := time.Now().UTC()
	return models.QueryRequest{
		Application: app,
		Start:       end.Add(-span),
		End:         end,
		TimeSpan:    int(span / time.Minute),
		Limit:       limit,
	}
}
