package curve

// KeyPair is an ECDH key pair on secp256k1: used for both K_seed and K_enc
// (spec.md §3), which share this one curve per §9's resolved Open Question.
type KeyPair struct {
	Private *Scalar
	Public  *Point
}

// GenerateKeyPair samples a fresh ECDH key pair.
func GenerateKeyPair() *KeyPair {
	sk := SampleScalar()
	return &KeyPair{Private: sk, Public: sk.ActOnBase()}
}

// ECDH computes the shared point sk * pk, the raw ECDH output to be fed
// through HKDF before use as key material (§4.1).
func ECDH(sk *Scalar, pk *Point) *Point {
	return sk.Act(pk)
}
