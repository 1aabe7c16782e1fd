package imagesource

import (
	"context"
	"errors"

	apperrors "github.com/anime-shed/truecost-inspector-go/internal/errors"
)

// Source is everything a client may send to identify the frame: inline base64
// (optionally a data URL), a URL, or raw bytes. Exactly one is used.
type Source struct {
	Base64 string
	URL    string
	Raw    []byte
}

// URLValidator guards server-side fetches.
type URLValidator interface {
	ValidateImageURL(imageURL string) error
}

// Resolver turns a Source into an Image.
type Resolver struct {
	validator URLValidator
	http      Fetcher
	azure     *AzureBlobFetcher
}

// NewResolver wires the fetchers. azure may be nil.
func NewResolver(validator URLValidator, httpFetcher Fetcher, azure *AzureBlobFetcher) *Resolver {
	return &Resolver{validator: validator, http: httpFetcher, azure: azure}
}

// Resolve returns a validation error when no image was supplied or the payload is
// not an image; fetch failures are reported as upstream errors.
func (r *Resolver) Resolve(ctx context.Context, src Source) (Image, error) {
	switch {
	case len(src.Raw) > 0:
		img, err := FromBytes(src.Raw)
		if err != nil {
			return Image{}, apperrors.NewValidationError("invalid image", err)
		}
		return img, nil
	case src.Base64 != "":
		img, err := DecodeDataURL(src.Base64)
		if err != nil {
			return Image{}, apperrors.NewValidationError("invalid image", err)
		}
		return img, nil
	case src.URL != "":
		return r.fetch(ctx, src.URL)
	default:
		return Image{}, apperrors.NewValidationError("No image", ErrNoImage)
	}
}

func (r *Resolver) fetch(ctx context.Context, imageURL string) (Image, error) {
	if err := r.validator.ValidateImageURL(imageURL); err != nil {
		return Image{}, err
	}

	var (
		img Image
		err error
	)
	if r.azure != nil && r.azure.Handles(imageURL) {
		img, err = r.azure.Fetch(ctx, imageURL)
	} else {
		img, err = r.http.Fetch(ctx, imageURL)
	}
	if err != nil {
		if errors.Is(err, ErrNotAnImage) {
			return Image{}, apperrors.NewValidationError("URL does not point to an image", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return Image{}, apperrors.NewTimeoutError("image fetch timed out", err)
		}
		return Image{}, apperrors.NewUpstreamError("failed to fetch image", nil, err)
	}
	return img, nil
}
