package reservation

import "testing"

func TestCheckSchedule(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		time    string
		wantErr bool
	}{
		{"valid evening", "2026-09-15", "19:30", false},
		{"opening edge", "2026-09-15", "10:00", false},
		{"last slot", "2026-09-15", "22:59", false},
		{"before opening", "2026-09-15", "09:59", true},
		{"after closing", "2026-09-15", "23:00", true},
		{"bad date", "15-09-2026", "19:30", true},
		{"bad time", "2026-09-15", "7pm", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := checkSchedule(tt.date, tt.time)
			if (err != nil) != tt.wantErr {
				t.Fatalf("checkSchedule(%q, %q) error = %v, wantErr %v", tt.date, tt.time, err, tt.wantErr)
			}
		})
	}
}
