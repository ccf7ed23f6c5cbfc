package buckets

import "testing"

func TestBoundaries(t *testing.T) {
	tests := []struct {
		name string
		fn   func(int64) Index
		tMs  int64
		want Index
	}{
		{"second", Second, 1999, 1},
		{"second-boundary", Second, 2000, 2},
		{"tenSeconds", TenSeconds, 19999, 1},
		{"minute", Minute, 120000, 2},
		{"fiveMinutes", FiveMinutes, 300000, 1},
		{"hour", Hour, 3600000, 1},
		{"day", Day, 86400000, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.tMs); got != tt.want {
				t.Errorf("%s(%d) = %d, want %d", tt.name, tt.tMs, got, tt.want)
			}
		})
	}
}

func TestMonotonic(t *testing.T) {
	if Minute(0) >= Minute(60000) {
		t.Error("expected minute bucket to advance across a minute boundary")
	}
}
