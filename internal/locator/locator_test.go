package locator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blobName(resource, year, month, day, hour string) string {
	return fmt.Sprintf("resourceId=/SUBSCRIPTIONS/S1/RESOURCEGROUPS/RG/PROVIDERS/MICROSOFT.NETWORK/NETWORKSECURITYGROUPS/%s/y=%s/m=%s/d=%s/h=%s/m=00/macAddress=000D3AF87856/PT1H.json",
		resource, year, month, day, hour)
}

func TestIndexGroupsByResourceAndBucket(t *testing.T) {
	names := []string{
		blobName("NSG-B", "2024", "01", "15", "10"),
		blobName("NSG-A", "2024", "01", "15", "10"),
		blobName("NSG-A", "2024", "01", "15", "11"),
		blobName("NSG-A", "2024", "01", "15", "11"), // same partition, second blob
		blobName("NSG-A", "2024", "01", "15", "12"),
	}

	idx := NewIndex(names)
	assert.Equal(t, []string{"NSG-A", "NSG-B"}, idx.Resources())

	buckets := idx.Buckets("NSG-A", 0)
	require.Len(t, buckets, 3)
	assert.Equal(t, "y=2024/m=01/d=15/h=12/m=00", buckets[0], "most recent bucket first")
	assert.Equal(t, "y=2024/m=01/d=15/h=10/m=00", buckets[2])

	assert.Len(t, idx.Blobs("NSG-A", "y=2024/m=01/d=15/h=11/m=00"), 2)
	assert.Len(t, idx.Blobs("NSG-B", "y=2024/m=01/d=15/h=10/m=00"), 1)
}

func TestBucketsTruncatedToLookback(t *testing.T) {
	names := []string{
		blobName("NSG-A", "2024", "01", "15", "09"),
		blobName("NSG-A", "2024", "01", "15", "10"),
		blobName("NSG-A", "2024", "01", "15", "11"),
	}

	idx := NewIndex(names)
	buckets := idx.Buckets("NSG-A", 2)
	require.Len(t, buckets, 2)
	assert.Equal(t, "y=2024/m=01/d=15/h=11/m=00", buckets[0])
	assert.Equal(t, "y=2024/m=01/d=15/h=10/m=00", buckets[1])
}

func TestShortPathsAreSkipped(t *testing.T) {
	idx := NewIndex([]string{
		"only/five/path/segments/here",
		"bookkeeping.json",
		blobName("NSG-A", "2024", "01", "15", "10"),
	})

	assert.Equal(t, []string{"NSG-A"}, idx.Resources())
}

func TestEmptyBlobList(t *testing.T) {
	idx := NewIndex(nil)
	assert.Empty(t, idx.Resources())
	assert.Empty(t, idx.Buckets("anything", 5))
	assert.Empty(t, idx.Blobs("anything", "bucket"))
}
