package timecode

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Duration
	}{
		{name: "zero", input: "0:00:00", want: 0},
		{name: "plain", input: "1:02:03", want: time.Hour + 2*time.Minute + 3*time.Second},
		{name: "one fraction digit is tenths", input: "0:00:01.4", want: 1400 * time.Millisecond},
		{name: "two fraction digits", input: "0:00:01.45", want: 1450 * time.Millisecond},
		{name: "three fraction digits", input: "0:00:01.456", want: 1456 * time.Millisecond},
		{name: "two hour digits", input: "12:59:59.999", want: 12*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond},
		{name: "minutes beyond the clock range still parse", input: "0:75:00", want: 75 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	inputs := []string{
		"",
		"1:2:3",
		"123:00:00",
		"00:00",
		"1:00:00.1234",
		"-1:00:00",
		"abc",
		"1:00:00 extra",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse(input); !errors.Is(err, ErrInvalidTimecode) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidTimecode", input, err)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "zero", d: 0, want: "0:00:00.00"},
		{name: "typical", d: time.Hour + 2*time.Minute + 3450*time.Millisecond, want: "1:02:03.45"},
		{name: "rounds to hundredths", d: 3456 * time.Millisecond, want: "0:00:03.46"},
		{name: "negative clamps to zero", d: -time.Second, want: "0:00:00.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.d); got != tt.want {
				t.Errorf("Format(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestFormatMillis(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "zero", d: 0, want: "0:00:00.000"},
		{name: "typical", d: time.Hour + 2*time.Minute + 3456*time.Millisecond, want: "1:02:03.456"},
		{name: "ten hours", d: 10 * time.Hour, want: "10:00:00.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMillis(tt.d); got != tt.want {
				t.Errorf("FormatMillis(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "minutes seconds", input: "5:30", want: "0:05:30.000"},
		{name: "padded minutes", input: "05:30", want: "0:05:30.000"},
		{name: "full clock", input: "1:05:30", want: "1:05:30.000"},
		{name: "short fraction pads right", input: "1:05:30.5", want: "1:05:30.500"},
		{name: "short form with millis", input: "10:02.250", want: "0:10:02.250"},
		{name: "large minute count passes through", input: "75:00", want: "0:75:00.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	for _, input := range []string{"", "5", "1:2", "::", "1:00:00:00"} {
		t.Run("invalid "+input, func(t *testing.T) {
			if _, err := Normalize(input); !errors.Is(err, ErrInvalidTimecode) {
				t.Errorf("Normalize(%q) error = %v, want ErrInvalidTimecode", input, err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	durations := []time.Duration{
		0,
		time.Second,
		1456 * time.Millisecond,
		time.Hour + 23*time.Minute + 45*time.Second + 678*time.Millisecond,
		11*time.Hour + 59*time.Minute + 59*time.Second + 990*time.Millisecond,
	}

	for _, d := range durations {
		got, err := Parse(FormatMillis(d))
		if err != nil {
			t.Fatalf("Parse(FormatMillis(%v)) returned error: %v", d, err)
		}
		if got != d {
			t.Errorf("millis round trip of %v = %v", d, got)
		}

		got, err = Parse(Format(d))
		if err != nil {
			t.Fatalf("Parse(Format(%v)) returned error: %v", d, err)
		}
		if diff := got - d; diff < -10*time.Millisecond || diff > 10*time.Millisecond {
			t.Errorf("display round trip of %v = %v, off by %v", d, got, diff)
		}
	}
}
