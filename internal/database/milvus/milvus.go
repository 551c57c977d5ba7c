package milvus

import (
	"context"
	"fmt"

	"docqa/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Field names of the chunk embedding collection.
const (
	FieldID          = "id"
	FieldDocumentID  = "document_id"
	FieldWorkspaceID = "workspace_id"
	FieldEmbedding   = "embedding"
)

// Client wraps the Milvus SDK client together with its collection settings.
type Client struct {
	Client client.Client
	Config *config.MilvusConfig
}

// New connects to Milvus at the configured address.
func New(ctx context.Context, cfg *config.MilvusConfig) (*Client, error) {
	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to Milvus: %w", err)
	}
	return &Client{Client: c, Config: cfg}, nil
}

// EnsureCollection creates the chunk embedding collection and its index when
// they do not exist yet. The embedding field dimensionality is fixed by
// configuration; every vector written later must match it.
func (c *Client) EnsureCollection(ctx context.Context) error {
	name := c.Config.Collection

	has, err := c.Client.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("cannot check collection '%s': %w", name, err)
	}
	if has {
		return nil
	}

	schema := entity.NewSchema().
		WithName(name).
		WithDescription("document chunk embeddings").
		WithField(entity.NewField().
			WithName(FieldID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(FieldDocumentID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64)).
		WithField(entity.NewField().
			WithName(FieldWorkspaceID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64)).
		WithField(entity.NewField().
			WithName(FieldEmbedding).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(c.Config.VectorDim)))

	if err := c.Client.CreateCollection(ctx, schema, 1); err != nil {
		return fmt.Errorf("cannot create collection '%s': %w", name, err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.L2, 128)
	if err != nil {
		return fmt.Errorf("cannot build index definition: %w", err)
	}
	if err := c.Client.CreateIndex(ctx, name, FieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("cannot create index on '%s': %w", name, err)
	}

	return nil
}

// HealthCheck verifies connectivity to Milvus.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return fmt.Errorf("Milvus client is not initialized")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("Milvus health check failed: %w", err)
	}
	return nil
}

// Close shuts down the connection.
func (c *Client) Close() {
	if c != nil && c.Client != nil {
		c.Client.Close()
	}
}
