package types

import (
	"net"
	"strconv"
	"time"
)

// Config represents the minisearch configuration
type Config struct {
	// HTTP server configuration
	Host                  string        `json:"host" env:"HOST,default=0.0.0.0"`
	Port                  int           `json:"port" env:"PORT,default=3000"`
	Environment           string        `json:"environment" env:"APP_ENV,default=development"`
	ServerReadTimeout     time.Duration `json:"server_read_timeout" env:"SERVER_READ_TIMEOUT,default=15s"`
	ServerWriteTimeout    time.Duration `json:"server_write_timeout" env:"SERVER_WRITE_TIMEOUT,default=60s"`
	ServerIdleTimeout     time.Duration `json:"server_idle_timeout" env:"SERVER_IDLE_TIMEOUT,default=120s"`
	ServerShutdownTimeout time.Duration `json:"server_shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	RateLimitPerMinute    int           `json:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE,default=120"`
	TrustProxyHeaders     bool          `json:"trust_proxy_headers" env:"TRUST_PROXY_HEADERS,default=false"`
	CORSAllowedOrigins    string        `json:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS,default=*"`

	// External search engine configuration
	EnginePath           string        `json:"engine_path" env:"SEARCH_ENGINE_PATH,default=./search_engine"`
	EngineWorkDir        string        `json:"engine_workdir" env:"SEARCH_ENGINE_WORKDIR,default=."`
	EngineMaxOutputBytes int           `json:"engine_max_output_bytes" env:"SEARCH_ENGINE_MAX_OUTPUT_BYTES,default=1048576"`
	EngineTimeout        time.Duration `json:"engine_timeout" env:"SEARCH_ENGINE_TIMEOUT,default=30s"`
	EngineMaxConcurrency int           `json:"engine_max_concurrency" env:"SEARCH_ENGINE_MAX_CONCURRENCY,default=16"`
	EngineMaxQueued      int           `json:"engine_max_queued" env:"SEARCH_ENGINE_MAX_QUEUED,default=64"`
	MaxQueryLength       int           `json:"max_query_length" env:"SEARCH_MAX_QUERY_LENGTH,default=1024"`

	// Logging configuration
	LogLevel  string `json:"log_level" env:"LOG_LEVEL,default=info"`
	LogFormat string `json:"log_format" env:"LOG_FORMAT,default=json"`

	// Outcome statistics store
	StatsEnabled bool   `json:"stats_enabled" env:"STATS_ENABLED,default=true"`
	StatsDBPath  string `json:"stats_db_path" env:"STATS_DB_PATH"`

	// OpenTelemetry configuration
	OTelEnabled              bool          `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string        `json:"otel_service_name" env:"OTEL_SERVICE_NAME,default=minisearch"`
	OTelExporterOTLPEndpoint string        `json:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelExporterOTLPProtocol string        `json:"otel_exporter_otlp_protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL,default=http/protobuf"`
	OTelResourceAttributes   string        `json:"otel_resource_attributes" env:"OTEL_RESOURCE_ATTRIBUTES"`
	OTelTracesSampler        string        `json:"otel_traces_sampler" env:"OTEL_TRACES_SAMPLER,default=always_on"`
	OTelTracesSamplerArg     float64       `json:"otel_traces_sampler_arg" env:"OTEL_TRACES_SAMPLER_ARG,default=1.0"`
	OTelMetricExportInterval time.Duration `json:"otel_metric_export_interval" env:"OTEL_METRIC_EXPORT_INTERVAL,default=60s"`
}

// Addr returns the host:port the HTTP server binds to
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
