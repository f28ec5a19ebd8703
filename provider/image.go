package provider

import (
	"context"
	"errors"

	"ai_creation_broker/media"
)

const (
	imageProvider   = "ClipDrop"
	storageProvider = "Cloudinary"
)

// ImageGenerate renders Input.Prompt to an image and stores it.
type ImageGenerate struct {
	Generator media.ImageGenerator
	Storage   media.Storage
}

func (ImageGenerate) Capability() Capability { return CapImageGenerate }

func (a ImageGenerate) Invoke(ctx context.Context, in Input) (Output, error) {
	img, err := a.Generator.TextToImage(ctx, in.Prompt)
	if err != nil {
		return Output{}, fail(imageProvider, err)
	}
	asset, err := a.Storage.Upload(ctx, "generated.png", img, "")
	if err != nil {
		return Output{}, fail(storageProvider, err)
	}
	return Output{Content: asset.SecureURL}, nil
}

// BackgroundRemove uploads Input.Image with background removal applied.
type BackgroundRemove struct {
	Storage media.Storage
}

func (BackgroundRemove) Capability() Capability { return CapBackgroundRemove }

func (a BackgroundRemove) Invoke(ctx context.Context, in Input) (Output, error) {
	asset, err := a.Storage.Upload(ctx, in.ImageName, in.Image, media.TransformBackgroundRemoval)
	if err != nil {
		return Output{}, fail(storageProvider, err)
	}
	return Output{Content: asset.SecureURL}, nil
}

// ObjectRemove uploads Input.Image and returns a delivery URL that removes
// Input.Object with generative fill.
type ObjectRemove struct {
	Storage media.Storage
}

func (ObjectRemove) Capability() Capability { return CapObjectRemove }

func (a ObjectRemove) Invoke(ctx context.Context, in Input) (Output, error) {
	if in.Object == "" {
		return Output{}, fail(storageProvider, errors.New("object name required"))
	}
	asset, err := a.Storage.Upload(ctx, in.ImageName, in.Image, "")
	if err != nil {
		return Output{}, fail(storageProvider, err)
	}
	return Output{Content: a.Storage.URL(asset.PublicID, media.GenRemove(in.Object))}, nil
}
