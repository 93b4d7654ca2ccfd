package federation

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/registry"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	// DefaultConcurrency is the default number of concurrent partner calls
	DefaultConcurrency = 10

	// DefaultPartnerTimeout bounds each individual partner call
	DefaultPartnerTimeout = 5 * time.Second
)

// partnerResult is the outcome of one partner fan-out call.
type partnerResult[T any] struct {
	partner registry.Partner
	items   []T
	err     error
}

type indexedPartner struct {
	index   int
	partner registry.Partner
}

type indexedResult[T any] struct {
	index  int
	result partnerResult[T]
}

// fanOut issues one fetch per partner through a bounded worker pool. Each
// call runs under its own timeout; a partner that errors or times out yields
// a result with err set rather than failing the batch. Results come back in
// partner order.
func fanOut[T any](
	ctx context.Context,
	partners []registry.Partner,
	concurrency int,
	partnerTimeout time.Duration,
	logger ectologger.Logger,
	fetch func(ctx context.Context, partner registry.Partner) ([]T, error),
) []partnerResult[T] {
	if len(partners) == 0 {
		return nil
	}

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > len(partners) {
		concurrency = len(partners)
	}
	if partnerTimeout <= 0 {
		partnerTimeout = DefaultPartnerTimeout
	}

	partnerChan := make(chan indexedPartner, len(partners))
	resultChan := make(chan indexedResult[T], len(partners))

	var wg sync.WaitGroup
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range partnerChan {
				select {
				case <-workerCtx.Done():
					resultChan <- indexedResult[T]{
						index:  p.index,
						result: partnerResult[T]{partner: p.partner, err: workerCtx.Err()},
					}
					continue
				default:
				}

				start := time.Now()
				callCtx, callCancel := context.WithTimeout(workerCtx, partnerTimeout)
				tracing.AddTenant(callCtx, p.partner.Tenant.ID.String())
				items, err := fetch(callCtx, p.partner)
				callCancel()

				status := "success"
				if err != nil {
					status = "error"
					logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
						"partner_tenant_id": p.partner.Tenant.ID,
					}).Warn("partner fan-out call failed")
				}
				metrics.RecordPartnerFetch(p.partner.Tenant.ID.String(), status, time.Since(start).Seconds())

				resultChan <- indexedResult[T]{
					index:  p.index,
					result: partnerResult[T]{partner: p.partner, items: items, err: err},
				}
			}
		}()
	}

	go func() {
		for i, p := range partners {
			select {
			case <-workerCtx.Done():
			case partnerChan <- indexedPartner{index: i, partner: p}:
				continue
			}
			// Context cancelled before the partner was handed to a worker.
			resultChan <- indexedResult[T]{
				index:  i,
				result: partnerResult[T]{partner: p, err: workerCtx.Err()},
			}
		}
		close(partnerChan)
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]partnerResult[T], len(partners))
	collected := 0
	for res := range resultChan {
		results[res.index] = res.result
		collected++
		if collected == len(partners) {
			break
		}
	}

	return results
}
