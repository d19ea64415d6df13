package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

// maxPages caps any pagination loop. A listing that claims more pages than
// this is treated as an upstream fault rather than followed forever.
const maxPages = 1000

// TokenPager fetches one page of a token-paginated listing: the items, plus
// the next-page token, empty when the listing is exhausted.
type TokenPager func(ctx context.Context, pageToken string) (items []json.RawMessage, nextToken string, err error)

// CollectTokenPages follows the next-page token until exhausted and returns
// the concatenated items. A failed page aborts the whole listing; no
// partial list is ever returned.
func CollectTokenPages(ctx context.Context, network string, fetch TokenPager) ([]json.RawMessage, error) {
	var all []json.RawMessage
	token := ""

	for page := 0; page < maxPages; page++ {
		items, next, err := fetch(ctx, token)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if next == "" {
			return all, nil
		}
		if next == token {
			return nil, &errortypes.UpstreamError{
				Message: fmt.Sprintf("%s: pagination repeated token %q", network, next),
			}
		}
		token = next
	}
	return nil, &errortypes.UpstreamError{
		Message: fmt.Sprintf("%s: pagination exceeded %d pages", network, maxPages),
	}
}

// NumberedPager fetches one page of a page-number listing (1-based): the
// items, plus the total item count the upstream reports.
type NumberedPager func(ctx context.Context, pageNo int) (items []json.RawMessage, total int, err error)

// CollectNumberedPages loops page numbers until the collected count reaches
// the reported total. An empty page before the total is reached aborts the
// listing rather than spinning.
func CollectNumberedPages(ctx context.Context, network string, fetch NumberedPager) ([]json.RawMessage, error) {
	var all []json.RawMessage

	for pageNo := 1; pageNo <= maxPages; pageNo++ {
		items, total, err := fetch(ctx, pageNo)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(all) >= total {
			return all, nil
		}
		if len(items) == 0 {
			return nil, &errortypes.UpstreamError{
				Message: fmt.Sprintf("%s: page %d empty with %d of %d items collected", network, pageNo, len(all), total),
			}
		}
	}
	return nil, &errortypes.UpstreamError{
		Message: fmt.Sprintf("%s: pagination exceeded %d pages", network, maxPages),
	}
}
