package validation

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with subdomain",
			email:   "user@mail.example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "user+tag@example.com",
			wantErr: false,
		},
		{
			name:    "missing @",
			email:   "testexample.com",
			wantErr: true,
		},
		{
			name:    "missing domain",
			email:   "test@",
			wantErr: true,
		},
		{
			name:    "missing local part",
			email:   "@example.com",
			wantErr: true,
		},
		{
			name:    "empty string",
			email:   "",
			wantErr: true,
		},
		{
			name:    "spaces in email",
			email:   "test @example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "valid username",
			input:   "ada_lovelace",
			wantErr: false,
		},
		{
			name:    "with hyphen and digits",
			input:   "mary-jane99",
			wantErr: false,
		},
		{
			name:    "empty username",
			input:   "",
			wantErr: true,
		},
		{
			name:    "too short",
			input:   "ab",
			wantErr: true,
		},
		{
			name:    "too long",
			input:   strings.Repeat("a", 33),
			wantErr: true,
		},
		{
			name:    "space inside",
			input:   "ada lovelace",
			wantErr: true,
		},
		{
			name:    "apostrophe",
			input:   "o'brien",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOptionalEmail(t *testing.T) {
	if err := ValidateOptionalEmail("  "); err != nil {
		t.Errorf("blank email should be accepted, got %v", err)
	}
	if err := ValidateOptionalEmail("nope"); err == nil {
		t.Error("malformed email should be rejected")
	}
}

func TestPreferenceValidators(t *testing.T) {
	tests := []struct {
		name    string
		check   func(string) error
		input   string
		wantErr bool
	}{
		{"grade 9th", ValidateGrade, "9th", false},
		{"grade College", ValidateGrade, "College", false},
		{"grade 8th", ValidateGrade, "8th", true},
		{"difficulty Simple", ValidateDifficulty, "Simple", false},
		{"difficulty Advanced", ValidateDifficulty, "Advanced", false},
		{"difficulty lowercase", ValidateDifficulty, "standard", true},
		{"theme Sunset", ValidateTheme, "Sunset", false},
		{"theme Auto", ValidateTheme, "Auto", false},
		{"theme unknown", ValidateTheme, "Neon", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDailyGoal(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{" 10 ", 10, false},
		{"1", 1, false},
		{"0", 0, true},
		{"11", 0, true},
		{"three", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDailyGoal(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDailyGoal(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDailyGoal(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "valid password",
			password: "password123",
			wantErr:  false,
		},
		{
			name:     "password exactly 8 characters",
			password: "pass1234",
			wantErr:  false,
		},
		{
			name:     "password too short",
			password: "pass123",
			wantErr:  true,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  true,
		},
		{
			name:     "long password",
			password: "thisIsAVeryLongPasswordThatShouldBeValid123",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
