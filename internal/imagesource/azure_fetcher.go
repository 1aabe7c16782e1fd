package imagesource

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureBlobFetcher downloads frames that the capture surface uploaded to Azure
// Blob Storage.
type AzureBlobFetcher struct {
	client   *azblob.Client
	host     string
	maxBytes int64
}

// NewAzureBlobFetcher authenticates with a shared key.
func NewAzureBlobFetcher(accountName, accountKey string, maxBytes int64) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credential: %w", err)
	}

	host := fmt.Sprintf("%s.blob.core.windows.net", accountName)
	client, err := azblob.NewClientWithSharedKeyCredential("https://"+host, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}

	return &AzureBlobFetcher{client: client, host: host, maxBytes: maxBytes}, nil
}

// Handles reports whether imageURL points at this fetcher's storage account.
func (s *AzureBlobFetcher) Handles(imageURL string) bool {
	u, err := url.Parse(imageURL)
	return err == nil && strings.EqualFold(u.Host, s.host)
}

func (s *AzureBlobFetcher) Fetch(ctx context.Context, blobURL string) (Image, error) {
	containerName, blobName, err := ParseBlobURL(blobURL)
	if err != nil {
		return Image{}, err
	}

	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return Image{}, fmt.Errorf("download failed: %w", err)
	}
	body := resp.Body
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("failed to read blob: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return Image{}, fmt.Errorf("image exceeds %d bytes", s.maxBytes)
	}
	return FromBytes(data)
}

// ParseBlobURL splits https://<account>.blob.core.windows.net/<container>/<blob>.
func ParseBlobURL(blobURL string) (containerName, blobName string, err error) {
	u, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}
	path := strings.TrimPrefix(u.Path, "/")
	containerName, blobName, found := strings.Cut(path, "/")
	if !found || containerName == "" || blobName == "" {
		return "", "", fmt.Errorf("invalid blob URL: expected /<container>/<blob>, got %q", u.Path)
	}
	return containerName, blobName, nil
}
