package logger

import "testing"

func TestSanitizeHashesSessionIDs(t *testing.T) {
	got := sanitizeKVs([]interface{}{"session_id", "sess-123", "layout_hash", "abc"})
	if len(got) != 4 {
		t.Fatalf("len: want=4 got=%d", len(got))
	}
	hashed, ok := got[1].(string)
	if !ok || hashed == "sess-123" || len(hashed) != len("hash:")+12 {
		t.Fatalf("session_id should be hashed, got=%v", got[1])
	}
	if got[3] != "abc" {
		t.Fatalf("layout_hash should pass through, got=%v", got[3])
	}
}

func TestSanitizeKeepsDesignTokens(t *testing.T) {
	got := sanitizeKVs([]interface{}{"tokens", map[string]interface{}{"border_radius": "8px"}, "lock_token", "t-1"})
	m, ok := got[1].(map[string]interface{})
	if !ok || m["border_radius"] != "8px" {
		t.Fatalf("design tokens should not be redacted, got=%v", got[1])
	}
	if got[3] != "[REDACTED]" {
		t.Fatalf("lock_token: want=[REDACTED] got=%v", got[3])
	}
}

func TestSanitizeOddKeyValueCount(t *testing.T) {
	got := sanitizeKVs([]interface{}{"component", "selector", "dangling"})
	if len(got) != 3 || got[2] != "dangling" {
		t.Fatalf("dangling key should be preserved, got=%v", got)
	}
}

func TestClassifyKeys(t *testing.T) {
	cases := map[string]keyClass{
		"lock_token":     keyRedact,
		"redis_password": keyRedact,
		"user_id":        keyHash,
		"session_id":     keyHash,
		"layout_hash":    keyPlain,
		"suggested_id":   keyPlain,
	}
	for key, want := range cases {
		if got := classify(key); got != want {
			t.Fatalf("%s: want=%d got=%d", key, want, got)
		}
	}
}
