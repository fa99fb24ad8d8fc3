package observability

import "testing"

func TestNormalizeOTLPHTTPPath(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name     string
		endpoint string
		suffix   string
		want     string
		wantErr  bool
	}{
		{
			name:     "no path appends suffix",
			endpoint: "https://collector:4318",
			suffix:   "/v1/metrics",
			want:     "https://collector:4318/v1/metrics",
		},
		{
			name:     "prefix path keeps prefix",
			endpoint: "https://example.com/otlp/",
			suffix:   "v1/traces",
			want:     "https://example.com/otlp/v1/traces",
		},
		{
			name:     "suffix already present",
			endpoint: "https://example.com/otlp/v1/metrics/",
			suffix:   "/v1/metrics",
			want:     "https://example.com/otlp/v1/metrics",
		},
		{
			name:     "query string preserved",
			endpoint: "http://localhost:4318?token=abc",
			suffix:   "/v1/traces",
			want:     "http://localhost:4318/v1/traces?token=abc",
		},
		{
			name:     "empty endpoint error",
			endpoint: " ",
			suffix:   "/v1/metrics",
			wantErr:  true,
		},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := normalizeOTLPHTTPPath(tt.endpoint, tt.suffix)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseGRPCEndpoint(t *testing.T) {
	testcases := []struct {
		raw          string
		wantEndpoint string
		wantInsecure bool
		wantErr      bool
	}{
		{raw: "collector:4317", wantEndpoint: "collector:4317", wantInsecure: true},
		{raw: "grpc://collector:4317", wantEndpoint: "collector:4317", wantInsecure: true},
		{raw: "https://collector:4317", wantEndpoint: "collector:4317", wantInsecure: false},
		{raw: "grpcs://collector:4317/", wantEndpoint: "collector:4317", wantInsecure: false},
		{raw: "collector", wantErr: true},
		{raw: "ftp://collector:21", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range testcases {
		endpoint, insecure, err := parseGRPCEndpoint(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.raw, err)
			continue
		}
		if endpoint != tt.wantEndpoint || insecure != tt.wantInsecure {
			t.Errorf("%q: got (%q, %v), want (%q, %v)", tt.raw, endpoint, insecure, tt.wantEndpoint, tt.wantInsecure)
		}
	}
}
