package pg

import "time"

// Config holds PostgreSQL connection settings, loadable via pkg/config.
type Config struct {
	ConnectionString  string        `env:"PG_CONN_URL,required"`                  // ConnectionString is the connection string to the database.
	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`     // MaxOpenConns is the maximum number of open connections.
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`      // MaxIdleConns is the minimum number of idle connections kept.
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"` // HealthCheckPeriod is the period between pool health checks.
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of connection attempts at startup.
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"` // RetryInterval is the base delay between attempts.

	MigrationsTable string `env:"PG_MIGRATIONS_TABLE" envDefault:"schema_migrations"` // MigrationsTable stores the applied migration versions.
}
