package booking

import (
	"testing"
	"time"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"pending", StatusPending, true},
		{"Confirmed", StatusConfirmed, true},
		{"to_confirm", StatusPending, true},
		{"rescheduled", StatusPending, true},
		{"cancelled", StatusCancelled, true},
		{"booked", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeStatus(tt.in)
		if ok != tt.ok {
			t.Errorf("NormalizeStatus(%q): ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusCancelled},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Errorf("expected %s -> %s to be allowed", tr[0], tr[1])
		}
	}

	terminal := []string{StatusCancelled, StatusCompleted, StatusMissed}
	targets := []string{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusMissed}
	for _, from := range terminal {
		for _, to := range targets {
			if CanTransition(from, to) {
				t.Errorf("%s is terminal, %s -> %s must be rejected", from, from, to)
			}
		}
	}

	if CanTransition(StatusConfirmed, StatusConfirmed) {
		t.Error("confirmed -> confirmed must be rejected")
	}
}

func TestAppointment_EffectiveStatus(t *testing.T) {
	now := time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC)
	past := now.Add(-2 * time.Hour)
	future := now.Add(2 * time.Hour)

	tests := []struct {
		name   string
		status string
		start  time.Time
		want   string
	}{
		{"future pending stays pending", StatusPending, future, StatusPending},
		{"future confirmed stays confirmed", StatusConfirmed, future, StatusConfirmed},
		{"past confirmed reads completed", StatusConfirmed, past, StatusCompleted},
		{"past pending reads missed", StatusPending, past, StatusMissed},
		{"past cancelled stays cancelled", StatusCancelled, past, StatusCancelled},
	}
	for _, tt := range tests {
		a := &Appointment{Status: tt.status, StartTime: tt.start, MinutesDuration: 60}
		if got := a.EffectiveStatus(now); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestAppointment_EndTime(t *testing.T) {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	a := &Appointment{StartTime: start, MinutesDuration: 45}
	want := start.Add(45 * time.Minute)
	if !a.EndTime().Equal(want) {
		t.Errorf("expected %v, got %v", want, a.EndTime())
	}
}
