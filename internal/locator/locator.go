// Package locator resolves the fixed path layout of Azure diagnostics blobs
// into (resource, time-bucket) partitions.
//
// A flow-log blob name looks like:
//
//	resourceId=/SUBSCRIPTIONS/<sub>/RESOURCEGROUPS/<rg>/PROVIDERS/
//	MICROSOFT.NETWORK/NETWORKSECURITYGROUPS/<name>/y=2024/m=01/d=15/h=10/m=00/
//	macAddress=.../PT1H.json
//
// Split on "/", the resource name sits at segment 8 and the five time
// hierarchy segments (year/month/day/hour/minute) at 9 through 13.
package locator

import (
	"sort"
	"strings"
)

const (
	resourceIndex   = 8
	timeBucketStart = 9
	timeBucketEnd   = 14
	minSegments     = timeBucketEnd
)

// Index groups a container's blob names by resource and hourly time bucket.
// Blob names too short to carry a partition key are skipped while building
// the index; that is expected for bookkeeping blobs and is not an error.
type Index struct {
	partitions map[string]map[string][]string // resource -> bucket -> blob names
}

// NewIndex builds an index from the full list of blob names in a container.
func NewIndex(blobNames []string) *Index {
	idx := &Index{partitions: make(map[string]map[string][]string)}
	for _, name := range blobNames {
		resource, bucket, ok := partitionKey(name)
		if !ok {
			continue
		}
		buckets, ok := idx.partitions[resource]
		if !ok {
			buckets = make(map[string][]string)
			idx.partitions[resource] = buckets
		}
		buckets[bucket] = append(buckets[bucket], name)
	}
	return idx
}

// partitionKey extracts the (resource, time-bucket) pair from a blob name.
func partitionKey(blobName string) (resource, bucket string, ok bool) {
	parts := strings.Split(blobName, "/")
	if len(parts) < minSegments {
		return "", "", false
	}
	return parts[resourceIndex], strings.Join(parts[timeBucketStart:timeBucketEnd], "/"), true
}

// Resources returns the distinct resource names seen in the container,
// sorted for deterministic iteration.
func (idx *Index) Resources() []string {
	resources := make([]string, 0, len(idx.partitions))
	for resource := range idx.partitions {
		resources = append(resources, resource)
	}
	sort.Strings(resources)
	return resources
}

// Buckets returns the distinct time buckets for a resource, most recent
// first, truncated to lookback entries. A lookback of 0 or less returns all
// buckets. There is one bucket per hour, so lookback is effectively a number
// of hours.
func (idx *Index) Buckets(resource string, lookback int) []string {
	bucketMap, ok := idx.partitions[resource]
	if !ok {
		return nil
	}
	buckets := make([]string, 0, len(bucketMap))
	for bucket := range bucketMap {
		buckets = append(buckets, bucket)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(buckets)))
	if lookback > 0 && len(buckets) > lookback {
		buckets = buckets[:lookback]
	}
	return buckets
}

// Blobs returns the blob names belonging to one (resource, bucket) partition.
func (idx *Index) Blobs(resource, bucket string) []string {
	bucketMap, ok := idx.partitions[resource]
	if !ok {
		return nil
	}
	return bucketMap[bucket]
}
