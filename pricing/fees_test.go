package pricing

import (
	"errors"
	"testing"
)

func TestGrossUp_knownAmounts(t *testing.T) {
	cases := []struct {
		net  int64
		want int64
	}{
		{100, 134},
		{999, 1060},
		{10000, 10330},
		{150000, 154511},
	}
	for _, c := range cases {
		got, err := GrossUp(c.net)
		if err != nil {
			t.Fatalf("GrossUp(%d): %v", c.net, err)
		}
		if got != c.want {
			t.Errorf("GrossUp(%d) = %d, want %d", c.net, got, c.want)
		}
	}
}

// The gross amount must cover the fee exactly or better, and must be the
// smallest integer doing so. Checked with integer arithmetic: with a 2.9%
// fee, gross covers net iff gross*971 >= (net+30)*1000.
func TestGrossUp_minimalCover(t *testing.T) {
	for _, net := range []int64{1, 7, 99, 100, 101, 999, 2500, 10000, 123456, 999999} {
		gross, err := GrossUp(net)
		if err != nil {
			t.Fatalf("GrossUp(%d): %v", net, err)
		}
		need := (net + 30) * 1000
		if gross*971 < need {
			t.Errorf("GrossUp(%d) = %d does not cover the fee", net, gross)
		}
		if (gross-1)*971 >= need {
			t.Errorf("GrossUp(%d) = %d is not minimal", net, gross)
		}
	}
}

func TestGrossUp_rejectsNonPositive(t *testing.T) {
	for _, net := range []int64{0, -1, -100} {
		if _, err := GrossUp(net); !errors.Is(err, ErrNonPositiveAmount) {
			t.Errorf("GrossUp(%d): expected ErrNonPositiveAmount, got %v", net, err)
		}
	}
}

func TestGrossUpWith_customFee(t *testing.T) {
	// 1% + 0 fixed: ceil(1000 / 0.99) = 1011
	got, err := GrossUpWith(1000, 0.01, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1011 {
		t.Errorf("GrossUpWith(1000, 0.01, 0) = %d, want 1011", got)
	}
}
