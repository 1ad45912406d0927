package keys_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-session-auth/token/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSAKeyPairPEMRoundtrip(t *testing.T) {
	original, err := keys.GenerateRSAKeyPair("rsa-key", 2048)
	require.NoError(t, err)

	privatePEM, err := original.ExportPrivateKeyPEM()
	require.NoError(t, err)
	publicPEM, err := original.ExportPublicKeyPEM()
	require.NoError(t, err)

	loaded, err := keys.LoadKeyPairFromPEM("rsa-key", keys.RS256, privatePEM, publicPEM)
	require.NoError(t, err)
	assert.Equal(t, keys.RS256, loaded.Algorithm)

	// A token signed by the original key pair verifies against the loaded one
	signer := keys.NewKeyPairSigner(loaded)
	assert.Equal(t, "RS256", signer.GetSigningMethod().Alg())
}

func TestEd25519KeyPairPEMRoundtrip(t *testing.T) {
	original, err := keys.GenerateEd25519KeyPair("ed-key")
	require.NoError(t, err)

	privatePEM, err := original.ExportPrivateKeyPEM()
	require.NoError(t, err)
	publicPEM, err := original.ExportPublicKeyPEM()
	require.NoError(t, err)

	loaded, err := keys.LoadKeyPairFromPEM("ed-key", keys.EdDSA, privatePEM, publicPEM)
	require.NoError(t, err)
	assert.Equal(t, keys.EdDSA, loaded.Algorithm)
	assert.Equal(t, "EdDSA", loaded.GetSigningMethod().Alg())
}

func TestLoadKeyPairRejectsAlgorithmMismatch(t *testing.T) {
	keyPair, err := keys.GenerateRSAKeyPair("rsa-key", 2048)
	require.NoError(t, err)

	privatePEM, err := keyPair.ExportPrivateKeyPEM()
	require.NoError(t, err)
	publicPEM, err := keyPair.ExportPublicKeyPEM()
	require.NoError(t, err)

	_, err = keys.LoadKeyPairFromPEM("rsa-key", keys.EdDSA, privatePEM, publicPEM)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match configured algorithm")
}

func TestLoadPrivateKeyFromPEMRejectsGarbage(t *testing.T) {
	_, err := keys.LoadPrivateKeyFromPEM("not a pem block")
	assert.Error(t, err)
}

func TestRSAJWK(t *testing.T) {
	keyPair, err := keys.GenerateRSAKeyPair("rsa-key", 2048)
	require.NoError(t, err)

	jwk, err := keyPair.ToJWK()
	require.NoError(t, err)
	assert.Equal(t, "RSA", jwk.Kty)
	assert.Equal(t, "sig", jwk.Use)
	assert.Equal(t, "rsa-key", jwk.Kid)
	assert.Equal(t, keys.RS256, jwk.Alg)
	assert.NotEmpty(t, jwk.N)
	assert.NotEmpty(t, jwk.E)
}

func TestEd25519JWK(t *testing.T) {
	keyPair, err := keys.GenerateEd25519KeyPair("ed-key")
	require.NoError(t, err)

	jwk, err := keyPair.ToJWK()
	require.NoError(t, err)
	assert.Equal(t, "OKP", jwk.Kty)
	assert.Equal(t, "Ed25519", jwk.Crv)
	assert.NotEmpty(t, jwk.X)
	assert.Empty(t, jwk.N)
}

func TestResolvePEM(t *testing.T) {
	t.Run("inline wins over path", func(t *testing.T) {
		pem, err := keys.ResolvePEM("inline-material", "/does/not/exist")
		require.NoError(t, err)
		assert.Equal(t, "inline-material", pem)
	})

	t.Run("reads from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "key.pem")
		require.NoError(t, os.WriteFile(path, []byte("file-material"), 0o600))

		pem, err := keys.ResolvePEM("", path)
		require.NoError(t, err)
		assert.Equal(t, "file-material", pem)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := keys.ResolvePEM("", "")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := keys.ResolvePEM("", "/does/not/exist.pem")
		assert.Error(t, err)
	})
}
