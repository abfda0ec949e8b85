package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got, err := parseHeaders(" api-key = abc , x-tenant=buyers ,")
	if err != nil {
		t.Fatalf("parseHeaders: %v", err)
	}
	if len(got) != 2 || got["api-key"] != "abc" || got["x-tenant"] != "buyers" {
		t.Fatalf("headers: got=%v", got)
	}
	if got, err := parseHeaders(""); err != nil || len(got) != 0 {
		t.Fatalf("empty: want=empty,nil got=%v,%v", got, err)
	}
	if _, err := parseHeaders("api-key"); err == nil {
		t.Fatalf("missing value should fail")
	}
}

func TestClampRatio(t *testing.T) {
	for _, tc := range []struct{ in, want float64 }{
		{0, 0.1},
		{-1, 0.1},
		{0.5, 0.5},
		{3, 1},
	} {
		if got := clampRatio(tc.in); got != tc.want {
			t.Fatalf("clampRatio(%v): want=%v got=%v", tc.in, tc.want, got)
		}
	}
}
