package makerworks

import (
	"context"
	"fmt"
	"io"
)

// ListModels returns the browsable model catalog.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var models []Model
	if err := c.Get(ctx, "/models", &models); err != nil {
		return nil, wrapOpError("list models", err)
	}
	return models, nil
}

// GetModel retrieves a single model by ID.
func (c *Client) GetModel(ctx context.Context, id string) (*Model, error) {
	var model Model
	if err := c.Get(ctx, fmt.Sprintf("/models/%s", id), &model); err != nil {
		return nil, wrapOpError("get model", err)
	}
	return &model, nil
}

// UploadModel uploads a printable model file with its metadata and
// returns the stored model.
func (c *Client) UploadModel(ctx context.Context, up ModelUpload, filename string, r io.Reader) (*Model, error) {
	fields := map[string]string{
		"name":        up.Name,
		"description": up.Description,
		"tags":        up.Tags,
		"credit":      up.Credit,
	}

	var model Model
	if err := c.upload(ctx, "/upload", "file", filename, r, fields, &model); err != nil {
		return nil, wrapOpError("upload model", err)
	}
	return &model, nil
}

// ListFilaments returns all available filaments.
func (c *Client) ListFilaments(ctx context.Context) ([]Filament, error) {
	var filaments []Filament
	if err := c.Get(ctx, "/filaments", &filaments); err != nil {
		return nil, wrapOpError("list filaments", err)
	}
	return filaments, nil
}

// CreateFilament adds a filament to the inventory (admin only).
func (c *Client) CreateFilament(ctx context.Context, nf NewFilament) (*Filament, error) {
	var filament Filament
	if err := c.Post(ctx, "/filaments", nf, &filament); err != nil {
		return nil, wrapOpError("create filament", err)
	}
	return &filament, nil
}

// UpdateFilament applies a partial filament update (admin only).
func (c *Client) UpdateFilament(ctx context.Context, id string, update FilamentUpdate) (*Filament, error) {
	var filament Filament
	if err := c.Put(ctx, fmt.Sprintf("/filaments/%s", id), update, &filament); err != nil {
		return nil, wrapOpError("update filament", err)
	}
	return &filament, nil
}

// DeleteFilament removes a filament from the inventory (admin only).
func (c *Client) DeleteFilament(ctx context.Context, id string) error {
	if err := c.Delete(ctx, fmt.Sprintf("/filaments/%s", id)); err != nil {
		return wrapOpError("delete filament", err)
	}
	return nil
}
