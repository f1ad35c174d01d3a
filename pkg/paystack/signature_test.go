package paystack

import "testing"

func TestVerifySignature(t *testing.T) {
	secret := "sk_test_123"
	payload := []byte(`{"event":"charge.success","data":{"reference":"TXN_1"}}`)
	valid := Sign(secret, payload)

	cases := []struct {
		name      string
		secret    string
		payload   []byte
		signature string
		want      bool
	}{
		{"valid", secret, payload, valid, true},
		{"uppercase hex", secret, payload, toUpper(valid), true},
		{"wrong secret", "sk_test_other", payload, valid, false},
		{"tampered payload", secret, []byte(`{"event":"charge.success"}`), valid, false},
		{"empty signature", secret, payload, "", false},
		{"empty payload", secret, nil, valid, false},
		{"empty secret", "", payload, valid, false},
		{"not hex", secret, payload, "zz", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := VerifySignature(tc.secret, tc.payload, tc.signature); got != tc.want {
				t.Fatalf("VerifySignature() = %v, want %v", got, tc.want)
			}
		})
	}
}

func toUpper(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'f' {
			out[i] = c - 32
		}
	}
	return string(out)
}
