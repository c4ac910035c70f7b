package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// azureStore implements ObjectStore over Azure Blob Storage. Buckets map to
// containers, keys to blob names.
type azureStore struct {
	client *azblob.Client
}

func NewAzureStore(accountName string, accountKey string) (ObjectStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &azureStore{client: client}, nil
}

func (s *azureStore) Fetch(ctx context.Context, ref ObjectRef) ([]byte, error) {
	downloadResponse, err := s.client.DownloadStream(ctx, ref.Bucket, ref.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	return io.ReadAll(retryReader)
}

// Copy stages the blob through memory. Moderated content is bounded by the
// request body limit, so a buffered copy is acceptable here.
func (s *azureStore) Copy(ctx context.Context, src, dst ObjectRef) error {
	data, err := s.Fetch(ctx, src)
	if err != nil {
		return fmt.Errorf("copy source read failed: %w", err)
	}
	if _, err := s.client.UploadBuffer(ctx, dst.Bucket, dst.Key, data, nil); err != nil {
		return fmt.Errorf("copy upload failed: %w", err)
	}
	return nil
}

func (s *azureStore) Delete(ctx context.Context, ref ObjectRef) error {
	if _, err := s.client.DeleteBlob(ctx, ref.Bucket, ref.Key, nil); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

func (s *azureStore) Tag(ctx context.Context, ref ObjectRef, key, value string) error {
	blobClient := s.client.ServiceClient().
		NewContainerClient(ref.Bucket).
		NewBlobClient(ref.Key)
	if _, err := blobClient.SetTags(ctx, map[string]string{key: value}, nil); err != nil {
		return fmt.Errorf("tagging failed: %w", err)
	}
	return nil
}
