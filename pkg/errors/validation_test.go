package errors

import "testing"

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"pla", false},
		{"JSON", false},
		{"blif", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v", tt.input, GetCode(err))
		}
	}
}

func TestValidateMethod(t *testing.T) {
	for _, m := range Methods {
		if err := ValidateMethod(m); err != nil {
			t.Errorf("ValidateMethod(%q) = %v", m, err)
		}
	}
	if err := ValidateMethod("z3"); !Is(err, ErrCodeInvalidConfig) {
		t.Errorf("ValidateMethod(z3) = %v", err)
	}
}

func TestValidateNumbers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"quality 0", ValidateQuality(0), false},
		{"quality -1", ValidateQuality(-1), true},
		{"verbosity 2", ValidateVerbosity(2), false},
		{"verbosity 3", ValidateVerbosity(3), true},
		{"dims ok", ValidateDimensions(3, 1), false},
		{"zero inputs", ValidateDimensions(0, 1), true},
		{"zero outputs", ValidateDimensions(4, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", tt.err, tt.wantErr)
			}
		})
	}
}
