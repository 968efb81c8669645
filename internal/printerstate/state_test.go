package printerstate

import "testing"

func TestNewDefaults(t *testing.T) {
	s := New("office-printer", 8631)

	if !s.Accepting() {
		t.Error("new state should be accepting jobs")
	}
	if s.Status() != StatusIdle {
		t.Errorf("status = %v, want %v", s.Status(), StatusIdle)
	}
	if got := s.StateReasons(); len(got) != 1 || got[0] != "none" {
		t.Errorf("state reasons = %v, want [none]", got)
	}
}

func TestSetAcceptingUpdatesReasons(t *testing.T) {
	s := New("p", 8631)
	s.SetAccepting(false)

	if s.Accepting() {
		t.Error("Accepting() should be false")
	}
	if got := s.StateReasons(); len(got) != 1 || got[0] != "paused" {
		t.Errorf("state reasons = %v, want [paused]", got)
	}

	s.SetAccepting(true)
	if got := s.StateReasons(); len(got) != 1 || got[0] != "none" {
		t.Errorf("state reasons after resume = %v, want [none]", got)
	}
}

func TestParseFaultMode(t *testing.T) {
	cases := []struct {
		in      string
		want    FaultMode
		wantErr bool
	}{
		{"", FaultOff, false},
		{"off", FaultOff, false},
		{"server-error", FaultServerError, false},
		{"client-error", FaultClientError, false},
		{"aborted", FaultAborted, false},
		{"unsupported-format", FaultUnsupportedFormat, false},
		{"bogus", "", true},
	}
	for _, c := range cases {
		got, ok := ParseFaultMode(c.in)
		if ok == c.wantErr {
			t.Errorf("ParseFaultMode(%q) ok = %v, want %v", c.in, ok, !c.wantErr)
		}
		if ok && got != c.want {
			t.Errorf("ParseFaultMode(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestJobIDCounterOnlyIncreases(t *testing.T) {
	s := New("p", 8631)
	s.SetJobIDCounter(5)
	s.SetJobIDCounter(3)
	if s.JobIDCounter() != 5 {
		t.Errorf("JobIDCounter() = %d, want 5 (monotonic)", s.JobIDCounter())
	}
}
