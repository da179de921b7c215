package render

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// BackgroundLoader fetches and decodes a template background by reference.
type BackgroundLoader interface {
	LoadBackground(ctx context.Context, ref string) (image.Image, error)
}

// ObjectReader is the storage side of StoreLoader.
type ObjectReader interface {
	ReadObject(ctx context.Context, ref string) ([]byte, error)
}

// StoreLoader decodes backgrounds read from object storage.
type StoreLoader struct {
	Store ObjectReader
}

func (l StoreLoader) LoadBackground(ctx context.Context, ref string) (image.Image, error) {
	data, err := l.Store.ReadObject(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode background %s: %w", ref, err)
	}
	return img, nil
}
