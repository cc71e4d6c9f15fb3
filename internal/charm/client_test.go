// ABOUTME: Tests for charm key helpers and configuration defaults
// ABOUTME: KV operations need a charm account and are exercised through the storage fakes
package charm

import "testing"

func TestDocumentKeyRoundTrip(t *testing.T) {
	key := DocumentKey("abc-123")
	if key != "doc:abc-123" {
		t.Errorf("DocumentKey() = %s, want doc:abc-123", key)
	}
	if got := DocumentID(key); got != "abc-123" {
		t.Errorf("DocumentID() = %s, want abc-123", got)
	}
}

func TestMetaKey(t *testing.T) {
	if got := MetaKey("dimension"); got != "meta:dimension" {
		t.Errorf("MetaKey() = %s, want meta:dimension", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("CHARM_HOST", "")
	cfg := DefaultConfig()
	if cfg.Host != "cloud.charm.sh" {
		t.Errorf("Host = %s, want cloud.charm.sh", cfg.Host)
	}
	if cfg.DBName != "docqa" || !cfg.AutoSync {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}

	t.Setenv("CHARM_HOST", "charm.example.com")
	if got := DefaultConfig().Host; got != "charm.example.com" {
		t.Errorf("Host = %s, want charm.example.com from env", got)
	}
}
