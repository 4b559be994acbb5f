// Package runner sequences the pipeline: partition discovery, bounded
// parallel fetch, decode, filter, sort, aggregate.
package runner

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"flowlog-analyzer/internal/aggregate"
	"flowlog-analyzer/internal/decoder"
	"flowlog-analyzer/internal/filter"
	"flowlog-analyzer/internal/locator"
	"flowlog-analyzer/internal/model"
	"flowlog-analyzer/internal/store"
	"flowlog-analyzer/pkg/wellknown"
)

// Runner drives one analysis run against a blob store.
type Runner struct {
	Store   store.BlobStore
	Workers int
}

// Result is the filtered, timestamp-sorted record set plus its counter
// totals.
type Result struct {
	Records []model.FlowRecord
	Totals  model.Totals
}

// Run executes the pipeline for the given options. A failure to list one
// container, or to fetch or decode one blob, is logged and skipped; only the
// surviving partitions contribute to the result.
func (r *Runner) Run(ctx context.Context, opts *model.Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var records []model.FlowRecord
	for _, container := range containersFor(opts) {
		records = append(records, r.collectContainer(ctx, container, opts)...)
	}

	chain := filter.NewChain(opts, time.Now())
	filtered := chain.Apply(records)
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	return &Result{
		Records: filtered,
		Totals:  aggregate.Sum(filtered),
	}, nil
}

// containersFor maps the analyzer mode onto storage container names.
func containersFor(opts *model.Options) []string {
	var containers []string
	if opts.WantsNSG() {
		if opts.VNetFlowLogs {
			containers = append(containers, wellknown.VNetFlowLogsContainer)
		} else {
			containers = append(containers, wellknown.NSGFlowLogsContainer)
		}
	}
	if opts.WantsFirewall() {
		containers = append(containers, wellknown.FirewallLogsContainer)
	}
	return containers
}

// collectContainer lists one container, resolves its partitions, and decodes
// the blobs of the selected lookback window. Blob fetches run in parallel
// under a bounded worker group; decode and filter are pure, so no ordering
// is needed before the final sort.
func (r *Runner) collectContainer(ctx context.Context, container string, opts *model.Options) []model.FlowRecord {
	names, err := r.Store.ListBlobs(ctx, container)
	if err != nil {
		slog.Error("Could not list blobs, skipping container", "container", container, "error", err)
		return nil
	}

	idx := locator.NewIndex(names)
	slog.Debug("Container indexed", "container", container, "blobs", len(names), "resources", len(idx.Resources()))

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	var mu sync.Mutex
	var records []model.FlowRecord

	for _, resource := range idx.Resources() {
		if opts.ResourceName != "" && !strings.EqualFold(resource, opts.ResourceName) {
			continue
		}
		for _, bucket := range idx.Buckets(resource, opts.Hours) {
			for _, blobName := range idx.Blobs(resource, bucket) {
				blobName := blobName
				group.Go(func() error {
					data, err := r.Store.FetchBlob(gctx, container, blobName)
					if err != nil {
						slog.Warn("Could not fetch blob, skipping", "blob", blobName, "error", err)
						return nil
					}
					decoded, err := decoder.Decode(data)
					if err != nil {
						slog.Warn("Could not decode blob, skipping", "blob", blobName, "error", err)
						return nil
					}
					mu.Lock()
					records = append(records, decoded...)
					mu.Unlock()
					return nil
				})
			}
		}
	}
	group.Wait()
	return records
}
