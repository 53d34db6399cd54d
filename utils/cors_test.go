package utils

import "testing"

func TestIsAllowedOrigin(t *testing.T) {
	tests := map[string]bool{
		"":                            false,
		"http://localhost:5173":       true,
		"http://127.0.0.1:8090":       true,
		"http://192.168.1.20":         true,
		"http://10.0.0.5:3000":        true,
		"http://mybox.local":          true,
		"http://nas":                  true,
		"https://example.com":         false,
		"https://8.8.8.8":             false,
		"not a url":                   false,
		"http://sub.example.com:8080": false,
	}
	for origin, want := range tests {
		if got := IsAllowedOrigin(origin); got != want {
			t.Errorf("IsAllowedOrigin(%q) = %v, want %v", origin, got, want)
		}
	}
}
