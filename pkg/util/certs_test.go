package util

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"com.aviebrantz.studio-site/pkg/config"
	"github.com/stretchr/testify/require"
)

func writePEM(t *testing.T, cert *tls.Certificate) (keyPath, certPath string) {
	t.Helper()
	dir := t.TempDir()
	keyPath = filepath.Join(dir, "server-key.pem")
	certPath = filepath.Join(dir, "server.pem")

	keyBytes, err := x509.MarshalPKCS8PrivateKey(cert.PrivateKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyBytes}), 0o600))
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Certificate[0]}), 0o600))
	return keyPath, certPath
}

func TestSelfSignedHosts(t *testing.T) {
	cert, err := SelfSigned("localhost", "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, []string{"localhost"}, cert.Leaf.DNSNames)
	require.Len(t, cert.Leaf.IPAddresses, 1)
	require.NoError(t, cert.Leaf.VerifyHostname("localhost"))
}

func TestLoadKeyAndCertificateRoundTrip(t *testing.T) {
	cert, err := SelfSigned("localhost")
	require.NoError(t, err)
	keyPath, certPath := writePEM(t, cert)

	loaded, err := ServerCertificate(config.TLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath})
	require.NoError(t, err)
	require.Equal(t, cert.Certificate, loaded.Certificate)

	_, err = tls.X509KeyPair(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: loaded.Certificate[0]}),
		mustRead(t, keyPath),
	)
	require.NoError(t, err)
}

func TestLoadRejectsSwappedFiles(t *testing.T) {
	cert, err := SelfSigned("localhost")
	require.NoError(t, err)
	keyPath, certPath := writePEM(t, cert)

	_, err = LoadKey(certPath)
	require.Error(t, err)
	_, err = LoadCertificate(keyPath)
	require.Error(t, err)
}

func TestServerCertificateFallsBackToSelfSigned(t *testing.T) {
	cert, err := ServerCertificate(config.TLSConfig{Enabled: true}, "studio.local")
	require.NoError(t, err)
	require.Equal(t, []string{"studio.local"}, cert.Leaf.DNSNames)
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
