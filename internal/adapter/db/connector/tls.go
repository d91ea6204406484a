package connector

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig returns a client TLS config that verifies the server certificate
// against host. Roots come from caFile when set, otherwise the system pool.
func TLSConfig(host, caFile string) (*tls.Config, error) {
	tc := &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}
	if caFile == "" {
		return tc, nil
	}

	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", caFile)
	}
	tc.RootCAs = pool

	return tc, nil
}
