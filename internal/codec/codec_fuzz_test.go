package codec

import (
	"testing"

	studioerrors "github.com/polarcraft/polarstudio/internal/errors"
)

// FuzzDecode checks that untrusted tokens never panic, that failures are
// always typed and atomic, and that anything accepted re-encodes stably.
func FuzzDecode(f *testing.F) {
	seeds := []string{
		"",
		"1",
		"1~S_0_0_0~P_10_5_45_a30",
		"1~W_20.125_-3.5_90_a45_r.5",
		"2~S_0_0_0",
		"1~Zq_0_0_0",
		"1~S_0_0_0_w",
		"1~~",
		"999999999999999999999",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		state, err := Decode(Token(raw))
		if err != nil {
			if state != nil {
				t.Fatalf("partial state returned with error %v", err)
			}
			if !studioerrors.IsMalformed(err) && !studioerrors.IsUnknownComponent(err) && !studioerrors.IsUnsupportedVersion(err) {
				t.Fatalf("untyped decode error: %v", err)
			}
			return
		}

		first := Encode(state)
		again, err := Decode(first)
		if err != nil {
			t.Fatalf("re-decoding %q failed: %v", first, err)
		}
		if second := Encode(again); second != first {
			t.Fatalf("encoding not stable: %q then %q", first, second)
		}
		if est := NewEstimator(nil).Estimate(state); est < len(first) {
			t.Fatalf("estimate %d below encoded length %d", est, len(first))
		}
	})
}
