package observability

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ca-srg/minisearch/internal/types"
)

const (
	defaultServiceName          = "minisearch"
	defaultMetricExportInterval = 60 * time.Second

	protocolHTTP = "http/protobuf"
	protocolGRPC = "grpc"

	samplerAlwaysOn     = "always_on"
	samplerAlwaysOff    = "always_off"
	samplerTraceIDRatio = "traceidratio"
	samplerParentBased  = "parentbased_always_on"

	resourceServiceNameKey = "service.name"
)

// Config keeps OpenTelemetry runtime settings resolved from the global configuration.
type Config struct {
	Enabled              bool
	ServiceName          string
	ExporterEndpoint     string
	ExporterProtocol     string
	ResourceAttributes   map[string]string
	TracesSampler        string
	TracesSamplerArg     float64
	MetricExportInterval time.Duration
}

// LoadConfig resolves observability settings from the root config and validates them.
func LoadConfig(cfg *types.Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("observability: nil root configuration provided")
	}

	attrs, err := parseResourceAttributes(cfg.OTelResourceAttributes)
	if err != nil {
		return nil, fmt.Errorf("observability: failed to parse resource attributes: %w", err)
	}

	otelCfg := &Config{
		Enabled:              cfg.OTelEnabled,
		ServiceName:          strings.TrimSpace(cfg.OTelServiceName),
		ExporterEndpoint:     strings.TrimSpace(cfg.OTelExporterOTLPEndpoint),
		ExporterProtocol:     cfg.OTelExporterOTLPProtocol,
		ResourceAttributes:   attrs,
		TracesSampler:        cfg.OTelTracesSampler,
		TracesSamplerArg:     cfg.OTelTracesSamplerArg,
		MetricExportInterval: cfg.OTelMetricExportInterval,
	}
	if err := otelCfg.Validate(); err != nil {
		return nil, err
	}
	return otelCfg, nil
}

// Validate fills defaults and checks the exporter settings when telemetry is enabled.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("observability: config is nil")
	}

	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	c.ExporterProtocol = strings.ToLower(strings.TrimSpace(c.ExporterProtocol))
	if c.ExporterProtocol == "" {
		c.ExporterProtocol = protocolHTTP
	}
	c.TracesSampler = strings.ToLower(strings.TrimSpace(c.TracesSampler))
	if c.TracesSampler == "" {
		c.TracesSampler = samplerAlwaysOn
	}
	if c.MetricExportInterval <= 0 {
		c.MetricExportInterval = defaultMetricExportInterval
	}
	if c.ResourceAttributes == nil {
		c.ResourceAttributes = make(map[string]string)
	}
	if _, ok := c.ResourceAttributes[resourceServiceNameKey]; !ok {
		c.ResourceAttributes[resourceServiceNameKey] = c.ServiceName
	}

	if !c.Enabled {
		return nil
	}

	if err := validateEndpoint(c.ExporterProtocol, c.ExporterEndpoint); err != nil {
		return fmt.Errorf("observability: %w", err)
	}

	switch c.TracesSampler {
	case samplerAlwaysOn, samplerAlwaysOff, samplerParentBased:
	case samplerTraceIDRatio:
		if c.TracesSamplerArg <= 0 || c.TracesSamplerArg > 1 {
			return fmt.Errorf("observability: traces sampler argument must be in (0, 1] for traceidratio")
		}
	default:
		return fmt.Errorf("observability: unsupported traces sampler %q", c.TracesSampler)
	}

	return nil
}

func validateEndpoint(protocol, endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("OTLP exporter endpoint is required when OpenTelemetry is enabled")
	}

	switch protocol {
	case protocolHTTP:
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return fmt.Errorf("invalid OTLP exporter endpoint: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("OTLP exporter endpoint must use http or https with %s", protocolHTTP)
		}
		if parsed.Host == "" {
			return fmt.Errorf("OTLP exporter endpoint must include a host")
		}
	case protocolGRPC:
		if _, _, err := parseGRPCEndpoint(endpoint); err != nil {
			return fmt.Errorf("invalid OTLP gRPC endpoint: %w", err)
		}
	default:
		return fmt.Errorf("unsupported OTLP exporter protocol %q", protocol)
	}
	return nil
}

// parseResourceAttributes reads the OTEL_RESOURCE_ATTRIBUTES "k=v,k2=v2" form.
func parseResourceAttributes(input string) (map[string]string, error) {
	attrs := make(map[string]string)
	for _, pair := range strings.Split(input, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid resource attribute %q", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("resource attribute key cannot be empty")
		}
		attrs[key] = strings.TrimSpace(value)
	}
	return attrs, nil
}
