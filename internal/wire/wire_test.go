package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/secure-aggregation/pkg/party"
)

func TestPublicKeyBroadcastRoundTrip(t *testing.T) {
	pkb := PublicKeyBroadcast{
		party.IDFromUint64(1): {SeedPK: []byte{1, 2, 3}, EncPK: []byte{4, 5, 6}},
		party.IDFromUint64(2): {SeedPK: []byte{7, 8, 9}, EncPK: []byte{10, 11, 12}},
	}

	data, err := Marshal(pkb)
	require.NoError(t, err)

	var got PublicKeyBroadcast
	require.NoError(t, Unmarshal(data, &got))
	assert.Equal(t, pkb, got)
}

func TestCiphertextPlaintextRoundTrip(t *testing.T) {
	p := CiphertextPlaintext{
		Sender:        party.IDFromUint64(1),
		Recipient:     party.IDFromUint64(2),
		KeyShare:      []byte{0xAA},
		SelfSeedShare: []byte{0xBB},
		Index:         2,
	}
	data, err := Marshal(p)
	require.NoError(t, err)

	var got CiphertextPlaintext
	require.NoError(t, Unmarshal(data, &got))
	assert.Equal(t, p, got)
}

func TestCiphertextKeyString(t *testing.T) {
	k := CiphertextKey{Sender: party.IDFromUint64(1), Recipient: party.IDFromUint64(2)}
	assert.Contains(t, k.String(), "|")
}
