package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
)

// AzureBlobStore reads a partitioned container on Azure Blob Storage.
// Adapted from arx-os-arxos's storage backend: client construction from a
// connection string, container-scoped blob listing via the flat pager,
// azcore.ResponseError for not-found checks.
type AzureBlobStore struct {
	client        *azblob.Client
	containerName string
}

// NewAzureBlobStore builds a client for accountName's blob endpoint,
// authorised by the SharedAccessSignature extracted from connectionString.
// Both accountName and connectionString are required.
func NewAzureBlobStore(ctx context.Context, accountName, containerName, connectionString string) (*AzureBlobStore, error) {
	if accountName == "" || connectionString == "" {
		return nil, engineerr.New(engineerr.InvalidConfig, "azure store: missing account name or SAS connection string")
	}
	sas, err := extractSAS(connectionString)
	if err != nil {
		return nil, err
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/?%s", accountName, sas)
	client, err := azblob.NewClientWithNoCredential(serviceURL, nil)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.StorageError, "create azure client", err)
	}

	if _, err := client.ServiceClient().NewContainerClient(containerName).GetProperties(ctx, nil); err != nil {
		return nil, engineerr.Wrap(engineerr.StorageError, "access container "+containerName, err)
	}

	return &AzureBlobStore{client: client, containerName: containerName}, nil
}

// connectionString parsing: `;`-separated key=value pairs, empty pairs
// ignored, a pair missing `=` fails InvalidConfig; the SharedAccessSignature
// value is what callers actually need.
func extractSAS(connectionString string) (string, error) {
	pairs := strings.Split(connectionString, ";")
	for _, p := range pairs {
		if p == "" {
			continue
		}
		eq := strings.IndexByte(p, '=')
		if eq < 0 {
			return "", engineerr.New(engineerr.InvalidConfig, "azure connection string: malformed pair "+p)
		}
		key := p[:eq]
		val := p[eq+1:]
		if key == "SharedAccessSignature" {
			return val, nil
		}
	}
	return "", engineerr.New(engineerr.InvalidConfig, "azure connection string: missing SharedAccessSignature")
}

func (s *AzureBlobStore) List(ctx context.Context, extension string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	suffix := "." + extension
	containerClient := s.client.ServiceClient().NewContainerClient(s.containerName)
	pager := containerClient.NewListBlobsFlatPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, engineerr.Wrap(engineerr.StorageError, "list azure blobs", err)
		}
		for _, blob := range page.Segment.BlobItems {
			if blob.Name == nil || !strings.HasSuffix(*blob.Name, suffix) {
				continue
			}
			dir := (*blob.Name)[:strings.LastIndex(*blob.Name, "/")+1]
			size := int64(0)
			if blob.Properties != nil && blob.Properties.ContentLength != nil {
				size = *blob.Properties.ContentLength
			}
			out = append(out, ObjectInfo{
				Key:       *blob.Name,
				Partition: parsePartitionPath(strings.Split(strings.TrimSuffix(dir, "/"), "/")),
				Size:      size,
			})
		}
	}
	return out, nil
}

func (s *AzureBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	blobClient := s.client.ServiceClient().NewContainerClient(s.containerName).NewBlobClient(key)
	resp, err := blobClient.DownloadStream(ctx, nil)
	if err != nil {
		if isNotFoundError(err) {
			return nil, engineerr.New(engineerr.StorageError, "azure blob not found: "+key)
		}
		return nil, engineerr.Wrap(engineerr.StorageError, "download azure blob "+key, err)
	}
	return resp.Body, nil
}

func isNotFoundError(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == 404
	}
	return false
}
