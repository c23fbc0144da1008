package middleware

import "testing"

func TestValidateVideoID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantID  string
		wantErr bool
	}{
		{"valid short", "dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"valid with dash", "abc-def_123", "abc-def_123", false},
		{"trims whitespace", "  abc  ", "abc", false},
		{"empty", "", "", true},
		{"too long 33", "123456789012345678901234567890123", "", true},
		{"exactly 32", "12345678901234567890123456789012", "12345678901234567890123456789012", false},
		{"invalid chars", "abc def", "", true},
		{"sql injection", "a'; DROP--", "", true},
		{"unicode", "abcédef", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateVideoID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.wantID {
				t.Errorf("got %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestValidateUUID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"dashed v4", "9b2b4e1a-55cb-44c1-9af0-bd73a1b7b1e6", "9b2b4e1a-55cb-44c1-9af0-bd73a1b7b1e6", false},
		{"hex digest", "d02189f2a63f1c7a34e6b8c9f0a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3", "d02189f2a63f1c7a34e6b8c9f0a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3", false},
		{"empty", "", "", true},
		{"too long 67", "d02189f2a63f1c7a34e6b8c9f0a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e", "", true},
		{"invalid chars", "not a uuid!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateUUID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateHashPrefix(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid 4 chars", "abcd", "abcd", false},
		{"valid 8 chars", "abcd1234", "abcd1234", false},
		{"uppercase normalized", "ABCD", "abcd", false},
		{"too short", "abc", "", true},
		{"too long 33", "abcdef0123456789abcdef0123456789a", "", true},
		{"non-hex", "ghij", "", true},
		{"trims whitespace", " abcd ", "abcd", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateHashPrefix(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid 36 chars", "abcdefghijklmnopqrstuvwxyz0123456789", false},
		{"valid with dash", "abcdefghijklmnopqrstuvwxyz-_0123456789", false},
		{"too short 29", "abcdefghijklmnopqrstuvwxyz012", true},
		{"exactly 30", "abcdefghijklmnopqrstuvwxyz0123", false},
		{"empty", "", true},
		{"invalid chars", "abcdefghijklmnopqrstuvwxyz'; DROP--", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errMsg := ValidateUserID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
		})
	}
}

func TestValidatePublicUserID(t *testing.T) {
	valid := "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"
	if got, errMsg := ValidatePublicUserID(valid); errMsg != "" || got != valid {
		t.Errorf("valid hash rejected: %q %s", got, errMsg)
	}
	if _, errMsg := ValidatePublicUserID("abcd1234"); errMsg == "" {
		t.Error("short hash should be rejected")
	}
	if _, errMsg := ValidatePublicUserID(""); errMsg == "" {
		t.Error("empty should be rejected")
	}
}

func TestValidateUserAgent(t *testing.T) {
	if got := ValidateUserAgent("  OpenSkip/1.0  "); got != "OpenSkip/1.0" {
		t.Errorf("trim failed: got %q", got)
	}
	long := ""
	for i := 0; i < 200; i++ {
		long += "x"
	}
	if got := ValidateUserAgent(long); len(got) != MaxUserAgentLen {
		t.Errorf("truncation failed: got len %d, want %d", len(got), MaxUserAgentLen)
	}
}
