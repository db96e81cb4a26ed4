package identity

import "testing"

func TestUUIDIsDeterministic(t *testing.T) {
	first := ItemUUID("node", "42")
	second := ItemUUID("node", " 42 ")
	if first != second {
		t.Fatalf("expected stable ids, got %s and %s", first, second)
	}
	if first == RevisionUUID("node", "42") {
		t.Fatalf("expected item and revision ids to differ")
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if got := UUID("   "); got.String() != "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("expected nil uuid, got %s", got)
	}
}

func TestResolverKeyDependsOnDocument(t *testing.T) {
	a := ResolverKey("file:///a.json", []byte(`{"type":"object"}`))
	b := ResolverKey("file:///a.json", []byte(`{"type":"string"}`))
	if a == b {
		t.Fatalf("expected different keys for different documents")
	}
	if a != ResolverKey("file:///a.json", []byte(`{"type":"object"}`)) {
		t.Fatalf("expected same key for identical input")
	}
}
