package storage

import "fmt"

// Canonical object storage layout. These functions are the only place paths
// are constructed; a document record's StoragePath must have been produced
// here, and lookups never probe alternative layouts at request time.

// DocumentPath returns the storage path for a document's uploaded bytes.
func DocumentPath(workspaceID, documentID, ext string) string {
	return fmt.Sprintf("workspaces/%s/documents/%s%s", workspaceID, documentID, ext)
}

// ArtifactPath returns the storage path for one of a document's processing
// artifacts (rendered page images, per-page text).
func ArtifactPath(workspaceID, documentID, name string) string {
	return fmt.Sprintf("workspaces/%s/documents/%s/artifacts/%s", workspaceID, documentID, name)
}
