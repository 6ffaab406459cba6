package ids

import (
	"errors"
	"reflect"
	"testing"
)

func TestEncodePixelList(t *testing.T) {
	got, err := EncodePixelList([]string{"147125", "148126"})
	if err != nil {
		t.Fatalf("EncodePixelList() error = %v", err)
	}
	if want := "147,125;148,126"; got != want {
		t.Errorf("EncodePixelList() = %q, want %q", got, want)
	}

	got, err = EncodePixelList(nil)
	if err != nil || got != "" {
		t.Errorf("EncodePixelList(nil) = %q, %v; want empty, nil", got, err)
	}
}

func TestEncodePixelListMalformed(t *testing.T) {
	for _, id := range []string{"14712", "1471250", "14712a", ""} {
		t.Run(id, func(t *testing.T) {
			_, err := EncodePixelList([]string{"147125", id})
			if !errors.Is(err, ErrMalformedID) {
				t.Errorf("EncodePixelList(%q) error = %v, want ErrMalformedID", id, err)
			}
		})
	}
}

func TestPixelRoundTrip(t *testing.T) {
	for _, id := range []string{"000000", "147125", "999999", "135142"} {
		enc, err := EncodePixelList([]string{id})
		if err != nil {
			t.Fatalf("EncodePixelList(%q) error = %v", id, err)
		}
		dec, err := DecodePixelList(enc)
		if err != nil {
			t.Fatalf("DecodePixelList(%q) error = %v", enc, err)
		}
		if !reflect.DeepEqual(dec, []string{id}) {
			t.Errorf("round trip %q = %v", id, dec)
		}
	}
}

func TestDecodePixelList(t *testing.T) {
	got, err := DecodePixelList("135,142;135,143;135,144")
	if err != nil {
		t.Fatalf("DecodePixelList() error = %v", err)
	}
	want := []string{"135142", "135143", "135144"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DecodePixelList() = %v, want %v", got, want)
	}

	for _, bad := range []string{"135142", "135,142;136", "1,2,3"} {
		if _, err := DecodePixelList(bad); !errors.Is(err, ErrMalformedID) {
			t.Errorf("DecodePixelList(%q) error = %v, want ErrMalformedID", bad, err)
		}
	}
}

func TestDecodePixelXY(t *testing.T) {
	got, err := DecodePixelXY("135,142;136,143")
	if err != nil {
		t.Fatalf("DecodePixelXY() error = %v", err)
	}
	want := []XY{{X: "135", Y: "142"}, {X: "136", Y: "143"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DecodePixelXY() = %v, want %v", got, want)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" 10, 11,,12 ,")
	want := []string{"10", "11", "12"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList() = %v, want %v", got, want)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Errorf("SplitList(\"\") = %v, want empty", got)
	}
}

func TestGauges(t *testing.T) {
	if got := EncodeGaugeList([]string{"10", "11", "12"}); got != "10,11,12" {
		t.Errorf("EncodeGaugeList() = %q", got)
	}

	if err := ValidateGauges([]string{"1", "33"}); err != nil {
		t.Errorf("ValidateGauges() error = %v", err)
	}
	for _, bad := range []string{"0", "-1", "x", "1.5"} {
		if err := ValidateGauges([]string{bad}); !errors.Is(err, ErrMalformedID) {
			t.Errorf("ValidateGauges(%q) error = %v, want ErrMalformedID", bad, err)
		}
	}

	all := DefaultGauges()
	if len(all) != DefaultGaugeCount || all[0] != "1" || all[len(all)-1] != "33" {
		t.Errorf("DefaultGauges() = %v", all)
	}
}
