package cardnum

import "testing"

func TestLastFour(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"4111111111111111", "1111"},
		{"2222405343248877", "8877"},
		{"1234", "1234"},
		{"123", LastFourFallback},
		{"", LastFourFallback},
	}
	for _, c := range cases {
		if got := LastFour(c.in); got != c.out {
			t.Fatalf("LastFour(%q) = %q want %q", c.in, got, c.out)
		}
	}
}

func TestLastFour_Idempotent(t *testing.T) {
	once := LastFour("4111111111111111")
	if twice := LastFour(once); twice != once {
		t.Fatalf("LastFour(LastFour(x)) = %q want %q", twice, once)
	}
}

func TestIsDigits(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"0123456789", true},
		{"", true},
		{"4111 1111", false},
		{"12a4", false},
		{"-1", false},
	}
	for _, c := range cases {
		if got := IsDigits(c.in); got != c.ok {
			t.Fatalf("IsDigits(%q) = %v want %v", c.in, got, c.ok)
		}
	}
}

func TestMask(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"4111111111111111", "************1111"},
		{"12345", "*2345"},
		{"1234", "****"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Mask(c.in); got != c.out {
			t.Fatalf("Mask(%q) = %q want %q", c.in, got, c.out)
		}
	}
}
