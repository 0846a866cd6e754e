package reminders

import (
	"strings"
	"testing"
	"time"
)

func TestParseOffset(t *testing.T) {
	tests := []struct {
		spec    string
		want    time.Duration
		key     string
		wantErr bool
	}{
		{spec: AtTimeOfEvent, want: 0, key: "0m"},
		{spec: "at time of event", want: 0, key: "0m"},
		{spec: TenMinutes, want: 10 * time.Minute, key: "10m"},
		{spec: ThirtyMinutes, want: 30 * time.Minute, key: "30m"},
		{spec: OneHour, want: time.Hour, key: "60m"},
		{spec: OneDay, want: 24 * time.Hour, key: "1440m"},
		{spec: "2 hours before", want: 2 * time.Hour, key: "120m"},
		{spec: "45 mins before", want: 45 * time.Minute, key: "45m"},
		{spec: "10m", want: 10 * time.Minute, key: "10m"},
		{spec: " 1h ", want: time.Hour, key: "60m"},
		{spec: "3d", want: 72 * time.Hour, key: "4320m"},
		{spec: "", wantErr: true},
		{spec: "soon", wantErr: true},
		{spec: "10 minutes after", wantErr: true},
		{spec: "-5m", wantErr: true},
		{spec: "400d", wantErr: true},
		{spec: "99999999999999999999m", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseOffset(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseOffset(%q) = %+v, want error", tt.spec, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOffset(%q) error = %v", tt.spec, err)
			}
			if got.Before != tt.want || got.Key != tt.key {
				t.Errorf("ParseOffset(%q) = %+v, want {%v %s}", tt.spec, got, tt.want, tt.key)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, key, err := ParseClock("07:30")
	if err != nil {
		t.Fatal(err)
	}
	if h != 7 || m != 30 || key != "0730" {
		t.Errorf("ParseClock = %d %d %q", h, m, key)
	}
	for _, bad := range []string{"", "7:30pm", "25:00", "12:60", "noon"} {
		if _, _, _, err := ParseClock(bad); err == nil {
			t.Errorf("ParseClock(%q) succeeded, want error", bad)
		}
	}
}

func FuzzParseOffset(f *testing.F) {
	for _, seed := range []string{AtTimeOfEvent, ThirtyMinutes, OneDay, "10m", "2 hours before", "", "x"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, spec string) {
		off, err := ParseOffset(spec)
		if err != nil {
			return
		}
		if off.Before < 0 || off.Before > maxOffsetMinutes*time.Minute {
			t.Fatalf("ParseOffset(%q).Before = %v out of range", spec, off.Before)
		}
		if strings.Contains(off.Key, "-") {
			t.Fatalf("ParseOffset(%q).Key = %q contains '-'", spec, off.Key)
		}
	})
}
