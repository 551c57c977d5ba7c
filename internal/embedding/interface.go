package embedding

import "fmt"

// EmbeddingError reports a provider failure. Callers either fail the whole
// batch or omit the failed item from the index; a placeholder vector is
// never substituted because it corrupts similarity ranking.
type EmbeddingError struct {
	Provider string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed (%s): %v", e.Provider, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }
