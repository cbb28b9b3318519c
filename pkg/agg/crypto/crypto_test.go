package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymmetricPairwiseDerivation(t *testing.T) {
	alice := GenerateKeyPair()
	bob := GenerateKeyPair()

	seedAB := PairwiseSeed(alice.Private, bob.Public)
	seedBA := PairwiseSeed(bob.Private, alice.Public)
	assert.Equal(t, seedAB, seedBA)

	keyAB, err := PairwiseAESKey(alice.Private, bob.Public, alice.Public, bob.Public)
	require.NoError(t, err)
	keyBA, err := PairwiseAESKey(bob.Private, alice.Public, bob.Public, alice.Public)
	require.NoError(t, err)
	assert.Equal(t, keyAB, keyBA)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	alice := GenerateKeyPair()
	bob := GenerateKeyPair()
	key, err := PairwiseAESKey(alice.Private, bob.Public, alice.Public, bob.Public)
	require.NoError(t, err)

	plaintext := []byte("alice|bob|keyshare|seedshare|3")
	ciphertext, iv, err := Encrypt(key, plaintext)
	require.NoError(t, err)

	got, err := Decrypt(key, iv, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestDecryptFailsOnTamperedCiphertext(t *testing.T) {
	alice := GenerateKeyPair()
	bob := GenerateKeyPair()
	key, err := PairwiseAESKey(alice.Private, bob.Public, alice.Public, bob.Public)
	require.NoError(t, err)

	ciphertext, iv, err := Encrypt(key, []byte("payload"))
	require.NoError(t, err)
	ciphertext[0] ^= 0xFF

	_, err = Decrypt(key, iv, ciphertext)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestExportImportPrivateKeyRoundTrip(t *testing.T) {
	kp := GenerateKeyPair()
	data := ExportPrivateKey(kp.Private)
	sk, err := ImportPrivateKey(data)
	require.NoError(t, err)
	assert.True(t, sk.Equal(kp.Private))
}
