package pagination

import "testing"

func TestParamsNormalize(t *testing.T) {
	tests := []struct {
		in     Params
		want   Params
		offset int
	}{
		{in: Params{}, want: Params{Page: 1, Limit: 10}, offset: 0},
		{in: Params{Page: 3, Limit: 20}, want: Params{Page: 3, Limit: 20}, offset: 40},
		{in: Params{Page: -2, Limit: 500}, want: Params{Page: 1, Limit: 100}, offset: 0},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Fatalf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
		if got := tt.in.Offset(); got != tt.offset {
			t.Fatalf("Offset(%+v) = %d, want %d", tt.in, got, tt.offset)
		}
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{250, 0, 25},
	}
	for _, c := range cases {
		if got := TotalPages(c.total, c.limit); got != c.want {
			t.Fatalf("TotalPages(%d,%d) = %d, want %d", c.total, c.limit, got, c.want)
		}
	}
}
