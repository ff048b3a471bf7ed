package mkmtls

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func TestGenerateVerifiesAgainstCA(t *testing.T) {
	dir := t.TempDir()

	files, err := Generate(dir, []string{"videolib.local", "10.0.0.7"}, time.Hour)
	require.NoError(t, err)
	assert.Len(t, files, 5)

	pair, err := tls.LoadX509KeyPair(filepath.Join(dir, "videolib.local.crt"), filepath.Join(dir, "videolib.local.key"))
	require.NoError(t, err)

	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"videolib.local"}, leaf.DNSNames)
	assert.Len(t, leaf.IPAddresses, 3)

	caPEM, err := os.ReadFile(filepath.Join(dir, caCertFile))
	require.NoError(t, err)
	pool := x509.NewCertPool()
	require.True(t, pool.AppendCertsFromPEM(caPEM))

	for _, usage := range []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth} {
		_, err = leaf.Verify(x509.VerifyOptions{
			DNSName:   "videolib.local",
			Roots:     pool,
			KeyUsages: []x509.ExtKeyUsage{usage},
		})
		assert.NoError(t, err)
	}
}

func TestGenerateReusesCA(t *testing.T) {
	dir := t.TempDir()

	_, err := Generate(dir, []string{"a.local"}, time.Hour)
	require.NoError(t, err)
	ca1, err := os.ReadFile(filepath.Join(dir, caCertFile))
	require.NoError(t, err)

	files, err := Generate(dir, []string{"b.local"}, time.Hour)
	require.NoError(t, err)
	assert.Len(t, files, 3)

	ca2, err := os.ReadFile(filepath.Join(dir, caCertFile))
	require.NoError(t, err)
	assert.Equal(t, ca1, ca2)
}

func TestGenerateSecret(t *testing.T) {
	dir := t.TempDir()

	_, err := Generate(dir, []string{"api.example.com"}, time.Hour)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "api.example.com-tls-secret.yaml"))
	require.NoError(t, err)

	var s secret
	require.NoError(t, yaml.Unmarshal(raw, &s))
	assert.Equal(t, "Secret", s.Kind)
	assert.Equal(t, "api-example-com-mtls", s.Metadata["name"])

	cert, err := os.ReadFile(filepath.Join(dir, "api.example.com.crt"))
	require.NoError(t, err)
	assert.Equal(t, cert, s.Data["tls.crt"])
}

func TestGenerateNeedsName(t *testing.T) {
	_, err := Generate(t.TempDir(), nil, time.Hour)
	assert.Error(t, err)
}
