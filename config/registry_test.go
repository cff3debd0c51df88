package config

import (
	"os"
	"path/filepath"
	"testing"

	"logportal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryJSON = `{
  "FE_UAT": {
    "display_name": "B2C Front-end Logs",
    "connection_string": "${DB_URI_FE_UAT}",
    "select_query": "SELECT * FROM b2c_audit_log WHERE JSESSION_ID LIKE :jsid LIMIT :limit"
  },
  "magento": {
    "display_name": "Magento Logs",
    "connection_string": "sqlite:///db/magento.db",
    "select_query": "SELECT * FROM logs WHERE app_name = :app_name AND (:jsid IS NULL OR jsession_id = :jsid) LIMIT :limit"
  },
  "selfcare": {
    "display_name": "Selfcare Logs",
    "connection_string": "postgres://u:p@db:5432/sc",
    "select_query": "SELECT * FROM t WHERE sid LIKE :jsid",
    "match_mode": "exact"
  }
}`

func TestParseRegistry_JSON(t *testing.T) {
	reg, err := ParseRegistry([]byte(registryJSON))
	require.NoError(t, err)

	assert.Equal(t, []string{"B2C Front-end Logs", "Magento Logs", "Selfcare Logs"}, reg.DisplayNames())

	fe, err := reg.Lookup("B2C Front-end Logs")
	require.NoError(t, err)
	assert.Equal(t, "FE_UAT", fe.Key)
	assert.Equal(t, "${DB_URI_FE_UAT}", fe.ConnectionString)
	assert.Equal(t, models.MatchPattern, fe.MatchMode, "LIKE :jsid derives pattern mode")

	mg, err := reg.Lookup("Magento Logs")
	require.NoError(t, err)
	assert.Equal(t, models.MatchExact, mg.MatchMode)

	sc, ok := reg.ByKey("selfcare")
	require.True(t, ok)
	assert.Equal(t, models.MatchExact, sc.MatchMode, "declared mode wins over template text")
}

func TestParseRegistry_YAML(t *testing.T) {
	doc := `
tibco:
  display_name: TIBCO
  connection_string: ${DB_URI_TIBCO}
  select_query: SELECT * FROM logs LIMIT :limit
  match_mode: pattern
`
	reg, err := ParseRegistry([]byte(doc))
	require.NoError(t, err)

	app, err := reg.Lookup("TIBCO")
	require.NoError(t, err)
	assert.Equal(t, models.MatchPattern, app.MatchMode)
}

func TestParseRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		errMsg string
	}{
		{
			name:   "not a mapping",
			doc:    `["a"]`,
			errMsg: "must be a mapping",
		},
		{
			name:   "empty document",
			doc:    ``,
			errMsg: "registry is empty",
		},
		{
			name:   "duplicate display name",
			doc:    `{"a": {"display_name": "X", "select_query": "q"}, "b": {"display_name": "X", "select_query": "q"}}`,
			errMsg: "duplicate display_name",
		},
		{
			name:   "missing display name",
			doc:    `{"a": {"select_query": "q"}}`,
			errMsg: "display_name is required",
		},
		{
			name:   "missing query",
			doc:    `{"a": {"display_name": "A"}}`,
			errMsg: "select_query is required",
		},
		{
			name:   "bad match mode",
			doc:    `{"a": {"display_name": "A", "select_query": "q", "match_mode": "fuzzy"}}`,
			errMsg: "unknown match_mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRegistry_LookupUnknown(t *testing.T) {
	reg, err := ParseRegistry([]byte(registryJSON))
	require.NoError(t, err)

	_, err = reg.Lookup("Nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, reg.Has("Nope"))
	assert.True(t, reg.Has("Magento Logs"))
}

func TestRegistry_ApplicationsIsACopy(t *testing.T) {
	reg, err := ParseRegistry([]byte(registryJSON))
	require.NoError(t, err)

	apps := reg.Applications()
	apps[0].DisplayName = "mutated"

	assert.Equal(t, "B2C Front-end Logs", reg.Applications()[0].DisplayName)
}

func TestLoadRegistry_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db_config.json")
	require.NoError(t, os.WriteFile(path, []byte(registryJSON), 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Applications(), 3)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
