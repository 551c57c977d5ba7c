package storage

import "testing"

func TestDocumentPath(t *testing.T) {
	got := DocumentPath("ws-1", "doc-1", ".pdf")
	want := "workspaces/ws-1/documents/doc-1.pdf"
	if got != want {
		t.Errorf("DocumentPath() = %q, want %q", got, want)
	}
}

func TestArtifactPath(t *testing.T) {
	got := ArtifactPath("ws-1", "doc-1", "page-3.png")
	want := "workspaces/ws-1/documents/doc-1/artifacts/page-3.png"
	if got != want {
		t.Errorf("ArtifactPath() = %q, want %q", got, want)
	}
}
