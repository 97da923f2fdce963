//go:build go1.18

package domain

import "testing"

// FuzzParseHash checks that parsing never panics and that accepted values
// round-trip through their canonical encoding.
func FuzzParseHash(f *testing.F) {
	f.Add("")
	f.Add("0x")
	f.Add("00000000000000000000000000000000000000000000000000000000000000000")
	f.Add("0000000000000000000000000000000000000000000000000000000000000000")
	f.Add("not-hex")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		h, err := ParseHash(input)
		if err != nil {
			return
		}
		roundTrip, err := ParseHash(h.String())
		if err != nil {
			t.Errorf("valid hash failed round-trip: %v", err)
		}
		if roundTrip != h {
			t.Error("round-trip changed hash value")
		}
	})
}

func FuzzParseAddress(f *testing.F) {
	f.Add("SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7")
	f.Add("")
	f.Add("a b")

	f.Fuzz(func(t *testing.T, input string) {
		addr, err := ParseAddress(input)
		if err != nil {
			return
		}
		if addr.String() != input {
			t.Error("address must not be rewritten")
		}
	})
}
