package config

import (
	"testing"
)

func TestResolveHost(t *testing.T) {
	tests := []struct {
		host     string
		inDocker bool
		expected string
	}{
		{"mydb.example.com", true, "mydb.example.com"},
		{"host.docker.internal", true, "host.docker.internal"},
		{"localhost", true, "host.docker.internal"},
		{"127.0.0.1", true, "host.docker.internal"},
		{"::1", true, "host.docker.internal"},
		{"localhost", false, "localhost"},
		{"127.0.0.1", false, "127.0.0.1"},
	}

	for _, tt := range tests {
		if got := resolveHost(tt.host, tt.inDocker); got != tt.expected {
			t.Errorf("resolveHost(%q, %v) = %q, want %q", tt.host, tt.inDocker, got, tt.expected)
		}
	}
}

func TestResolveHostForDocker_RemoteHostUnchanged(t *testing.T) {
	// remote hosts are never rewritten, whatever IsRunningInDocker reports
	if got := ResolveHostForDocker("mydb.example.com"); got != "mydb.example.com" {
		t.Errorf("ResolveHostForDocker rewrote a remote host: %q", got)
	}
}
