package services

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func generateTestKeyPair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func testPrivateKeyPEM(t *testing.T) string {
	t.Helper()
	_, priv := generateTestKeyPair(t)
	block, err := ssh.MarshalPrivateKey(priv, "repoinit-test")
	require.NoError(t, err)
	return string(pem.EncodeToMemory(block))
}

func testEncryptedPrivateKeyPEM(t *testing.T) string {
	t.Helper()
	_, priv := generateTestKeyPair(t)
	block, err := ssh.MarshalPrivateKeyWithPassphrase(priv, "repoinit-test", []byte("hunter2"))
	require.NoError(t, err)
	return string(pem.EncodeToMemory(block))
}

// testKnownHostsLine renders a known_hosts entry for host with a fresh key
func testKnownHostsLine(t *testing.T, host string) string {
	t.Helper()
	pub, _ := generateTestKeyPair(t)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return host + " " + string(ssh.MarshalAuthorizedKey(sshPub))
}
