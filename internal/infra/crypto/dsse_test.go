package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"

	"attestd/internal/domain"
)

func generateTestKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	sum := sha256.Sum256(pub)
	return pub, priv, hex.EncodeToString(sum[:])
}

func TestSignVerify_RoundTrip(t *testing.T) {
	pub, priv, kid := generateTestKey(t)
	payload := []byte(`{"a":1,"b":"két"}`)

	env, err := SignEnvelope(domain.PayloadTypeInToto, payload, priv, kid)
	if err != nil {
		t.Fatalf("sign envelope: %v", err)
	}
	if env.PayloadType != domain.PayloadTypeInToto {
		t.Fatalf("payloadType = %q", env.PayloadType)
	}
	if len(env.Signatures) != 1 || env.Signatures[0].KeyID != kid {
		t.Fatalf("unexpected signatures: %+v", env.Signatures)
	}

	result, err := VerifyEnvelope(env, []domain.TrustedKey{{KeyID: kid, PublicKey: pub}})
	if err != nil {
		t.Fatalf("verify envelope: %v", err)
	}
	if !bytes.Equal(result.Payload, payload) {
		t.Fatalf("payload = %q, want %q", result.Payload, payload)
	}
	if result.KeyID != kid {
		t.Fatalf("matched keyid = %q, want %q", result.KeyID, kid)
	}
}

func TestVerifyEnvelope_TamperedPayload(t *testing.T) {
	pub, priv, kid := generateTestKey(t)
	payload := []byte(`{"subject":"app.bin"}`)

	env, err := SignEnvelope(domain.PayloadTypeInToto, payload, priv, kid)
	if err != nil {
		t.Fatalf("sign envelope: %v", err)
	}

	decoded, err := base64.RawURLEncoding.DecodeString(env.Payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	for i := range decoded {
		tampered := append([]byte(nil), decoded...)
		tampered[i] ^= 0x01
		mutated := env
		mutated.Payload = base64.RawURLEncoding.EncodeToString(tampered)

		_, err := VerifyEnvelope(mutated, []domain.TrustedKey{{KeyID: kid, PublicKey: pub}})
		if !errors.Is(err, domain.ErrSignatureInvalid) {
			t.Fatalf("byte %d: err = %v, want ErrSignatureInvalid", i, err)
		}
	}
}

func TestVerifyEnvelope_MultiKey(t *testing.T) {
	pub1, priv1, kid1 := generateTestKey(t)
	pub2, _, kid2 := generateTestKey(t)

	env, err := SignEnvelope(domain.PayloadTypeInToto, []byte(`{"x":true}`), priv1, kid1)
	if err != nil {
		t.Fatalf("sign envelope: %v", err)
	}

	both := []domain.TrustedKey{
		{KeyID: kid1, PublicKey: pub1},
		{KeyID: kid2, PublicKey: pub2},
	}
	result, err := VerifyEnvelope(env, both)
	if err != nil {
		t.Fatalf("verify with {K1,K2}: %v", err)
	}
	if result.KeyID != kid1 {
		t.Fatalf("matched keyid = %q, want %q", result.KeyID, kid1)
	}

	_, err = VerifyEnvelope(env, []domain.TrustedKey{{KeyID: kid2, PublicKey: pub2}})
	if !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("verify with {K2}: err = %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyEnvelope_FallsBackWhenKeyIDUnknown(t *testing.T) {
	pub, priv, kid := generateTestKey(t)

	env, err := SignEnvelope(domain.PayloadTypeInToto, []byte(`{}`), priv, "some-other-id")
	if err != nil {
		t.Fatalf("sign envelope: %v", err)
	}
	// The entry's keyid matches nothing; every trusted key is still tried.
	result, err := VerifyEnvelope(env, []domain.TrustedKey{{KeyID: kid, PublicKey: pub}})
	if err != nil {
		t.Fatalf("verify envelope: %v", err)
	}
	if result.KeyID != kid {
		t.Fatalf("matched keyid = %q, want %q", result.KeyID, kid)
	}
}

func TestVerifyEnvelope_Malformed(t *testing.T) {
	pub, priv, kid := generateTestKey(t)
	valid, err := SignEnvelope(domain.PayloadTypeInToto, []byte(`{}`), priv, kid)
	if err != nil {
		t.Fatalf("sign envelope: %v", err)
	}
	keys := []domain.TrustedKey{{KeyID: kid, PublicKey: pub}}

	cases := []struct {
		name   string
		mutate func(env domain.Envelope) domain.Envelope
	}{
		{"missing payloadType", func(env domain.Envelope) domain.Envelope {
			env.PayloadType = ""
			return env
		}},
		{"missing payload", func(env domain.Envelope) domain.Envelope {
			env.Payload = ""
			return env
		}},
		{"no signatures", func(env domain.Envelope) domain.Envelope {
			env.Signatures = nil
			return env
		}},
		{"bad payload base64", func(env domain.Envelope) domain.Envelope {
			env.Payload = "!!!not-base64!!!"
			return env
		}},
		{"bad signature base64", func(env domain.Envelope) domain.Envelope {
			env.Signatures = []domain.EnvelopeSignature{{Sig: "!!!"}}
			return env
		}},
		{"short signature", func(env domain.Envelope) domain.Envelope {
			env.Signatures = []domain.EnvelopeSignature{{Sig: base64.RawURLEncoding.EncodeToString([]byte("short"))}}
			return env
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VerifyEnvelope(tc.mutate(valid), keys)
			if !errors.Is(err, domain.ErrMalformedEnvelope) {
				t.Fatalf("err = %v, want ErrMalformedEnvelope", err)
			}
		})
	}
}

func TestVerifyEnvelope_AcceptsPaddedBase64(t *testing.T) {
	pub, priv, kid := generateTestKey(t)
	payload := []byte(`{"padded":1}`)
	env, err := SignEnvelope(domain.PayloadTypeInToto, payload, priv, kid)
	if err != nil {
		t.Fatalf("sign envelope: %v", err)
	}
	decoded, _ := base64.RawURLEncoding.DecodeString(env.Payload)
	env.Payload = base64.URLEncoding.EncodeToString(decoded)

	result, err := VerifyEnvelope(env, []domain.TrustedKey{{KeyID: kid, PublicKey: pub}})
	if err != nil {
		t.Fatalf("verify padded payload: %v", err)
	}
	if !bytes.Equal(result.Payload, payload) {
		t.Fatalf("payload mismatch after padding normalization")
	}
}
