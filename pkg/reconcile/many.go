// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
	klog "k8s.io/klog/v2"

	"github.com/quarto-go/qcore/pkg/ast"
)

// DocPair is one independent before/after document pair.
type DocPair struct {
	Before *ast.Pandoc
	After  *ast.Pandoc
}

// ComputeMany computes plans for independent document pairs concurrently,
// bounded by a weighted semaphore sized to the machine. Only the pure
// compute phase runs off the calling goroutine; Apply stays synchronous
// and is the caller's responsibility per pair. The returned slice is
// index-aligned with pairs. An error is returned only when ctx is
// cancelled before all plans are computed.
func ComputeMany(ctx context.Context, pairs []DocPair) ([]*Plan, error) {
	sem := semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))
	plans := make([]*Plan, len(pairs))
	var wg sync.WaitGroup

	for i, pair := range pairs {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int, pair DocPair) {
			defer sem.Release(1)
			defer wg.Done()
			plans[i] = Compute(pair.Before, pair.After)
		}(i, pair)
	}

	wg.Wait()
	klog.V(4).Infof("reconcile: computed %d plans", len(plans))
	return plans, nil
}
