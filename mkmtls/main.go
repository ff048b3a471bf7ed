package mkmtls

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

const (
	caKeyFile  = "ca.key"
	caCertFile = "ca.crt"
)

var (
	dir      string
	validity time.Duration
)

var CMD = &cobra.Command{
	Use:   "gencert [dns_name...]",
	Short: "create a local CA and a certificate for server --server-cert / client --cert",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := Generate(dir, args, validity)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", f)
		}
		return nil
	},
}

func init() {
	CMD.Flags().StringVar(&dir, "dir", ".", "Directory for the CA and certificate files")
	CMD.Flags().DurationVar(&validity, "validity", 10*365*24*time.Hour, "Lifetime of new certificates")
}

type secret struct {
	ApiVersion string            `json:"apiVersion"`
	Kind       string            `json:"kind"`
	Metadata   map[string]string `json:"metadata"`
	Type       string            `json:"type"`
	Data       map[string][]byte `json:"data"`
}

// k8sSecret renders a kubernetes tls secret. []byte values are base64 encoded by the marshaller.
func k8sSecret(name string, keyPEM, certPEM, caPEM []byte) ([]byte, error) {
	return yaml.Marshal(secret{
		ApiVersion: "v1",
		Kind:       "Secret",
		Metadata:   map[string]string{"name": name},
		Type:       "kubernetes.io/tls",
		Data: map[string][]byte{
			"tls.crt": certPEM,
			"tls.key": keyPEM,
			"ca.crt":  caPEM,
		},
	})
}

// Generate reuses or creates the CA in dir and issues a certificate for dnsNames,
// usable for both server and client auth. It returns the files written.
func Generate(dir string, dnsNames []string, validity time.Duration) ([]string, error) {
	if len(dnsNames) == 0 {
		return nil, fmt.Errorf("at least one dns name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string

	caKey, caCert, created, err := loadOrCreateCA(dir, validity)
	if err != nil {
		return nil, fmt.Errorf("ca: %w", err)
	}
	if created {
		written = append(written, filepath.Join(dir, caKeyFile), filepath.Join(dir, caCertFile))
	}

	files, err := generateTLSCert(dir, caKey, caCert, dnsNames, validity)
	if err != nil {
		return nil, err
	}
	return append(written, files...), nil
}

func loadOrCreateCA(dir string, validity time.Duration) (ed25519.PrivateKey, *x509.Certificate, bool, error) {
	_, keyErr := os.Stat(filepath.Join(dir, caKeyFile))
	_, certErr := os.Stat(filepath.Join(dir, caCertFile))

	if keyErr == nil && certErr == nil {
		key, cert, err := loadCA(dir)
		return key, cert, false, err
	}

	key, cert, err := createCA(dir, validity)
	return key, cert, true, err
}

func loadCA(dir string) (ed25519.PrivateKey, *x509.Certificate, error) {
	keyPEM, err := os.ReadFile(filepath.Join(dir, caKeyFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CA key: %w", err)
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, nil, fmt.Errorf("failed to parse CA key PEM")
	}

	caKey, err := x509.ParsePKCS8PrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CA key: %w", err)
	}

	edKey, ok := caKey.(ed25519.PrivateKey)
	if !ok {
		return nil, nil, fmt.Errorf("private key is not an Ed25519 key")
	}

	certPEM, err := os.ReadFile(filepath.Join(dir, caCertFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CA cert: %w", err)
	}

	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return nil, nil, fmt.Errorf("failed to parse CA cert PEM")
	}

	caCert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CA cert: %w", err)
	}

	return edKey, caCert, nil
}

func serial() (*big.Int, error) {
	return rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
}

func createCA(dir string, validity time.Duration) (ed25519.PrivateKey, *x509.Certificate, error) {
	_, caKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate CA private key: %w", err)
	}

	caKeyBytes, err := x509.MarshalPKCS8PrivateKey(caKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	serialNumber, err := serial()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := time.Now()
	caTemplate := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"videolib"},
			CommonName:   "videolib local CA",
		},
		NotBefore:             now,
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
	}

	caCertDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, caKey.Public(), caKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create CA certificate: %w", err)
	}

	caKeyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: caKeyBytes})
	if err := os.WriteFile(filepath.Join(dir, caKeyFile), caKeyPEM, 0o600); err != nil {
		return nil, nil, fmt.Errorf("failed to save CA private key: %w", err)
	}

	caCertPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: caCertDER})
	if err := os.WriteFile(filepath.Join(dir, caCertFile), caCertPEM, 0o644); err != nil {
		return nil, nil, fmt.Errorf("failed to save CA certificate: %w", err)
	}

	caCert, err := x509.ParseCertificate(caCertDER)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse created CA certificate: %w", err)
	}

	return caKey, caCert, nil
}

func generateTLSCert(dir string, caKey ed25519.PrivateKey, caCert *x509.Certificate, dnsNames []string, validity time.Duration) ([]string, error) {
	_, certKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate certificate key: %w", err)
	}

	serialNumber, err := serial()
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	// ip literals go to IPAddresses, localhost is always reachable
	ips := []net.IP{net.ParseIP("127.0.0.1"), net.IPv6loopback}
	var names []string
	for _, n := range dnsNames {
		if ip := net.ParseIP(n); ip != nil {
			ips = append(ips, ip)
		} else {
			names = append(names, n)
		}
	}

	now := time.Now()
	certTemplate := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"videolib"},
			CommonName:   dnsNames[0],
		},
		NotBefore:             now,
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		DNSNames:              names,
		IPAddresses:           ips,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, certTemplate, caCert, certKey.Public(), caKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	certKeyBytes, err := x509.MarshalPKCS8PrivateKey(certKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal certificate key: %w", err)
	}

	caCertPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: caCert.Raw})
	certKeyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: certKeyBytes})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	base := filepath.Join(dir, dnsNames[0])
	keyFile := base + ".key"
	certFile := base + ".crt"
	secretFile := base + "-tls-secret.yaml"

	if err := os.WriteFile(keyFile, certKeyPEM, 0o600); err != nil {
		return nil, fmt.Errorf("failed to save certificate key: %w", err)
	}
	if err := os.WriteFile(certFile, certPEM, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save certificate: %w", err)
	}

	secretName := strings.ReplaceAll(dnsNames[0], ".", "-") + "-mtls"
	secretYAML, err := k8sSecret(secretName, certKeyPEM, certPEM, caCertPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to render Kubernetes secret: %w", err)
	}
	if err := os.WriteFile(secretFile, secretYAML, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save Kubernetes secret YAML: %w", err)
	}

	return []string{keyFile, certFile, secretFile}, nil
}
