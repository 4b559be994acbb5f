package store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/klauspost/compress/gzip"
)

// AzureStore is the BlobStore implementation backed by an Azure storage
// account, authenticated with a shared account key.
type AzureStore struct {
	client *azblob.Client
}

// NewAzureStore connects to a storage account using its name and shared key.
func NewAzureStore(accountName, accountKey string) (*AzureStore, error) {
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid storage account credentials: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create blob service client for account %s: %w", accountName, err)
	}
	return &AzureStore{client: client}, nil
}

// ListBlobs returns all blob names in a container.
func (s *AzureStore) ListBlobs(ctx context.Context, container string) ([]string, error) {
	var names []string
	pager := s.client.NewListBlobsFlatPager(container, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing blobs in container %s: %w", container, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

// FetchBlob downloads one blob. Archived log blobs with a .gz suffix are
// decompressed transparently.
func (s *AzureStore) FetchBlob(ctx context.Context, container, name string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		return nil, fmt.Errorf("error downloading blob %s: %w", name, err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("error decompressing blob %s: %w", name, err)
		}
		defer gz.Close()
		reader = gz
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading blob %s: %w", name, err)
	}
	return data, nil
}
