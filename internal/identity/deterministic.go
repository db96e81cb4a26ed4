package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must prefix keys by domain so different record kinds never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// ItemUUID is the primary key of a stored item.
func ItemUUID(entityType, id string) uuid.UUID {
	return UUID("patternbuilder:item:" + strings.TrimSpace(entityType) + ":" + strings.TrimSpace(id))
}

// RevisionUUID is the primary key of a stored item revision.
func RevisionUUID(entityType, revisionID string) uuid.UUID {
	return UUID("patternbuilder:revision:" + strings.TrimSpace(entityType) + ":" + strings.TrimSpace(revisionID))
}

// ResolverKey identifies a resolved schema document by source and content.
func ResolverKey(uri string, document []byte) string {
	return UUID("patternbuilder:resolver:" + uri + "\x00" + string(document)).String()
}
