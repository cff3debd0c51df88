package database

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnection(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantDriver string
		wantDSN    string
		wantErr    error
	}{
		{name: "sqlite relative", uri: "sqlite:///db/magento.db", wantDriver: "sqlite", wantDSN: "db/magento.db"},
		{name: "sqlite absolute", uri: "sqlite:////var/lib/portal/fe.db", wantDriver: "sqlite", wantDSN: "/var/lib/portal/fe.db"},
		{name: "sqlite memory", uri: "sqlite://", wantDriver: "sqlite", wantDSN: ":memory:"},
		{name: "postgres", uri: "postgres://u:p@h:5432/db", wantDriver: "pgx", wantDSN: "postgres://u:p@h:5432/db?default_query_exec_mode=simple_protocol"},
		{name: "postgresql with driver suffix", uri: "postgresql+psycopg2://u:p@h/db?sslmode=disable", wantDriver: "pgx", wantDSN: "postgres://u:p@h/db?sslmode=disable&default_query_exec_mode=simple_protocol"},
		{name: "postgres explicit exec mode kept", uri: "postgres://u:p@h/db?default_query_exec_mode=exec", wantDriver: "pgx", wantDSN: "postgres://u:p@h/db?default_query_exec_mode=exec"},
		{name: "unresolved placeholder", uri: "${DB_URI_FE}", wantErr: ErrUnresolvedPlaceholder},
		{name: "oracle unsupported", uri: "oracle+cx_oracle://u:p@//h:1521/svc", wantErr: ErrUnsupportedScheme},
		{name: "no scheme", uri: "db/magento.db", wantErr: ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := ParseConnection(tt.uri)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				var dae *DataAccessError
				assert.ErrorAs(t, err, &dae)
				assert.NotContains(t, err.Error(), "u:p", "credentials must not leak")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestParseConnection_PostgresBindsClientSide(t *testing.T) {
	for _, uri := range []string{
		"postgresql://portal:x@db.internal:5432/magento",
		"postgresql+psycopg2://portal:x@db.internal/magento?sslmode=disable",
	} {
		t.Run(uri, func(t *testing.T) {
			driver, dsn, err := ParseConnection(uri)
			require.NoError(t, err)
			require.Equal(t, driverPostgres, driver)

			cfg, err := pgx.ParseConfig(dsn)
			require.NoError(t, err)
			assert.Equal(t, pgx.QueryExecModeSimpleProtocol, cfg.DefaultQueryExecMode)
		})
	}
}
