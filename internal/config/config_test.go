package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalStores = `
stores:
  - name: ksp
    base_url: https://ksp.example
    search_path: /search?q={query}
    selectors:
      item: .product
      name: .title
      price: .price
`

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid minimal config",
			yaml: `
database:
  host: localhost
  name: testdb
  user: testuser
` + minimalStores,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, DriverPostgres, cfg.Database.Driver)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "testdb", cfg.Database.Name)
				assert.Equal(t, "testuser", cfg.Database.User)
				require.Len(t, cfg.Stores, 1)
				assert.Equal(t, "ksp", cfg.Stores[0].Name)
				assert.Equal(t, ".price", cfg.Stores[0].Selectors.Price)
			},
		},
		{
			name: "defaults applied",
			yaml: `
database:
  driver: sqlite
` + minimalStores,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "retail-price-tracker.db", cfg.Database.Path)

				e := cfg.Engine
				assert.Equal(t, time.Hour, e.DefaultPollInterval)
				assert.InDelta(t, 0.1, e.JitterValue(), 0)
				assert.InDelta(t, 4.0, e.StaleMultiplier, 0)
				assert.Equal(t, 5, e.StaleAfter)
				assert.Equal(t, 15*time.Second, e.JobTimeout)
				assert.Equal(t, 3, e.MaxAttempts)
				assert.Equal(t, 30*time.Second, e.DrainTimeout)
				assert.Equal(t, 3, e.Breaker.Threshold)
				assert.Equal(t, 5*time.Minute, e.Breaker.Window)
				assert.Equal(t, 2*time.Minute, e.Breaker.Cooldown)
				assert.Equal(t, time.Minute, e.Maintenance.SweepInterval)

				assert.InDelta(t, 0.75, cfg.Normalizer.SimilarityThreshold, 0)
				assert.InDelta(t, 0.02, cfg.Normalizer.PriceTolerance, 0)
				assert.Equal(t, "ILS", cfg.Normalizer.DefaultCurrency)

				s := cfg.Stores[0]
				assert.Equal(t, KindHTML, s.Kind)
				assert.Equal(t, "ILS", s.Currency)
				assert.Equal(t, 4, s.Sessions.Size)
				assert.Equal(t, 15*time.Second, s.Sessions.Timeout)

				assert.Equal(t, 7*24*time.Hour, cfg.Alerts.DefaultDuration)
				assert.Equal(t, 5, cfg.Dispatcher.MaxAttempts)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
				assert.Equal(t, "retail-price-tracker", cfg.Telemetry.ServiceName)
			},
		},
		{
			name: "jitter can be disabled",
			yaml: `
database:
  driver: sqlite
engine:
  jitter: 0
` + minimalStores,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				require.NotNil(t, cfg.Engine.Jitter)
				assert.Zero(t, cfg.Engine.JitterValue())
			},
		},
		{
			name: "json store needs no selectors",
			yaml: `
database:
  driver: sqlite
stores:
  - name: ivory
    kind: json
    base_url: https://ivory.example
    currency: usd
    concurrency: 1
    rate_limit:
      per_second: 0.5
      daily_limit: 1000
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				s := cfg.Stores[0]
				assert.Equal(t, KindJSON, s.Kind)
				assert.Equal(t, "usd", s.Currency)
				assert.Equal(t, 1, s.Concurrency)
				assert.InDelta(t, 0.5, s.RateLimit.PerSecond, 0)
				assert.Equal(t, int64(1000), s.RateLimit.DailyLimit)
			},
		},
		{
			name: "missing database host",
			yaml: `
database:
  name: testdb
  user: testuser
` + minimalStores,
			wantErr: "database.host is required",
		},
		{
			name: "missing database user",
			yaml: `
database:
  host: localhost
  name: testdb
` + minimalStores,
			wantErr: "database.user is required",
		},
		{
			name: "invalid database driver",
			yaml: `
database:
  driver: mysql
` + minimalStores,
			wantErr: `database.driver must be one of: postgres, sqlite (got "mysql")`,
		},
		{
			name: "no stores",
			yaml: `
database:
  driver: sqlite
`,
			wantErr: "stores: at least one store is required",
		},
		{
			name: "duplicate store",
			yaml: `
database:
  driver: sqlite
stores:
  - name: ksp
    kind: json
    base_url: https://a.example
  - name: ksp
    kind: json
    base_url: https://b.example
`,
			wantErr: "stores[ksp]: duplicate store name",
		},
		{
			name: "html store without selectors",
			yaml: `
database:
  driver: sqlite
stores:
  - name: bug
    base_url: https://bug.example
`,
			wantErr: "stores[bug].selectors: name and price are required",
		},
		{
			name: "unknown store kind",
			yaml: `
database:
  driver: sqlite
stores:
  - name: bug
    kind: graphql
    base_url: https://bug.example
`,
			wantErr: `stores[bug].kind must be one of: html, json (got "graphql")`,
		},
		{
			name: "jitter out of range",
			yaml: `
database:
  driver: sqlite
engine:
  jitter: 1.5
` + minimalStores,
			wantErr: "engine.jitter must be in [0,1)",
		},
		{
			name: "store concurrency above global",
			yaml: `
database:
  driver: sqlite
engine:
  global_concurrency: 2
  store_concurrency: 4
` + minimalStores,
			wantErr: "engine.store_concurrency (4) exceeds engine.global_concurrency (2)",
		},
		{
			name: "discord enabled without url",
			yaml: `
database:
  driver: sqlite
notifications:
  discord:
    enabled: true
` + minimalStores,
			wantErr: "notifications.discord.webhook_url is required when discord is enabled",
		},
		{
			name: "telemetry enabled without endpoint",
			yaml: `
database:
  driver: sqlite
telemetry:
  enabled: true
` + minimalStores,
			wantErr: "telemetry.endpoint is required when telemetry is enabled",
		},
		{
			name: "invalid log level",
			yaml: `
database:
  driver: sqlite
logging:
  level: verbose
` + minimalStores,
			wantErr: `logging.level must be one of: debug, info, warn, error (got "verbose")`,
		},
		{
			name:    "invalid YAML",
			yaml:    "database: [",
			wantErr: "parsing config YAML",
		},
		{
			name: "env var substitution",
			yaml: `
database:
  host: ${TEST_RPT_DB_HOST}
  name: tracker
  user: tracker
  password: ${TEST_RPT_DB_PASSWORD}
notifications:
  discord:
    enabled: true
    webhook_url: ${TEST_RPT_DISCORD_URL}
` + minimalStores,
			envVars: map[string]string{
				"TEST_RPT_DB_HOST":     "db.internal",
				"TEST_RPT_DB_PASSWORD": "s3cret",
				"TEST_RPT_DISCORD_URL": "https://discord.example/api/webhooks/1/abc",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "db.internal", cfg.Database.Host)
				assert.Equal(t, "s3cret", cfg.Database.Password)
				assert.Equal(t, "https://discord.example/api/webhooks/1/abc", cfg.Notifications.Discord.WebhookURL)
			},
		},
		{
			name: "full config",
			yaml: `
server:
  host: 127.0.0.1
  port: 9090
database:
  driver: sqlite
  path: /var/lib/rpt/rpt.db
engine:
  default_poll_interval: 30m
  job_timeout: 20s
  breaker:
    threshold: 5
    cooldown: 10m
normalizer:
  aliases:
    אינטל: intel
` + minimalStores + `
alerts:
  default_duration: 72h
dispatcher:
  workers: 4
logging:
  level: debug
  format: json
telemetry:
  enabled: true
  endpoint: otel-collector:4317
  insecure: true
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "/var/lib/rpt/rpt.db", cfg.Database.Path)
				assert.Equal(t, 30*time.Minute, cfg.Engine.DefaultPollInterval)
				assert.Equal(t, 20*time.Second, cfg.Engine.JobTimeout)
				assert.Equal(t, 5, cfg.Engine.Breaker.Threshold)
				assert.Equal(t, 10*time.Minute, cfg.Engine.Breaker.Cooldown)
				assert.Equal(t, "intel", cfg.Normalizer.Aliases["אינטל"])
				assert.Equal(t, 72*time.Hour, cfg.Alerts.DefaultDuration)
				assert.Equal(t, 4, cfg.Dispatcher.Workers)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.True(t, cfg.Telemetry.Enabled)
				assert.Equal(t, "otel-collector:4317", cfg.Telemetry.Endpoint)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_AggregatesErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
logging:
  level: loud
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	for _, want := range []string{
		"database.host is required",
		"database.name is required",
		"stores: at least one store is required",
		"logging.level must be one of",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "basic DSN",
			cfg: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				Name:     "testdb",
				User:     "testuser",
				Password: "testpass",
				SSLMode:  "disable",
			},
			want: "host=localhost port=5432 dbname=testdb user=testuser password=testpass sslmode=disable",
		},
		{
			name: "production DSN",
			cfg: DatabaseConfig{
				Host:     "db.example.com",
				Port:     5433,
				Name:     "tracker",
				User:     "admin",
				Password: "s3cret",
				SSLMode:  "require",
			},
			want: "host=db.example.com port=5433 dbname=tracker user=admin password=s3cret sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}
