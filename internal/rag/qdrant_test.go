package rag

import "testing"

func TestParseQdrantURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		wantHost string
		wantPort int
		wantTLS  bool
		wantErr  bool
	}{
		{
			name:     "empty defaults to local grpc",
			raw:      "",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:     "http with explicit port",
			raw:      "http://qdrant:6333",
			wantHost: "qdrant",
			wantPort: 6333,
		},
		{
			name:     "https enables tls",
			raw:      "https://qdrant.example.com:6334",
			wantHost: "qdrant.example.com",
			wantPort: 6334,
			wantTLS:  true,
		},
		{
			name:     "no scheme assumed http",
			raw:      "qdrant:6333",
			wantHost: "qdrant",
			wantPort: 6333,
		},
		{
			name:     "no port defaults to grpc port",
			raw:      "http://qdrant",
			wantHost: "qdrant",
			wantPort: 6334,
		},
		{
			name:    "scheme only",
			raw:     "http://",
			wantErr: true,
		},
		{
			name:    "non-numeric port",
			raw:     "http://qdrant:abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			host, port, useTLS, err := ParseQdrantURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQdrantURL(%q): %v", tt.raw, err)
			}
			if host != tt.wantHost || port != tt.wantPort || useTLS != tt.wantTLS {
				t.Errorf("got (%q, %d, %v), want (%q, %d, %v)",
					host, port, useTLS, tt.wantHost, tt.wantPort, tt.wantTLS)
			}
		})
	}
}
