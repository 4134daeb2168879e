package order

import "testing"

func TestCheckPickupTime(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"12:30", false},
		{"10:00", false},
		{"22:59", false},
		{"09:59", true},
		{"23:00", true},
		{"noonish", true},
	}

	for _, tt := range tests {
		if err := checkPickupTime(tt.raw); (err != nil) != tt.wantErr {
			t.Errorf("checkPickupTime(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{Pending, Confirmed, Preparing, Ready, Completed, Cancelled} {
		if !ValidStatus(s) {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if ValidStatus("eaten") {
		t.Error("expected an unknown status to be invalid")
	}
}
