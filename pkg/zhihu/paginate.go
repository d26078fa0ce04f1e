package zhihu

import (
	"context"
	"time"

	"zhexport/pkg/logger"
	"zhexport/pkg/ratelimit"
)

// maxEmptyPages is how many consecutive pages may come back empty before
// the walk gives up. The API occasionally returns an empty page without
// setting is_end; three in a row means the listing is exhausted or broken.
const maxEmptyPages = 3

// Paginator walks Zhihu's cursor-paged list endpoints. The next cursor
// from the response is authoritative; offset arithmetic is only a fallback
// for responses that omit the paging envelope.
type Paginator struct {
	client    *Client
	pacer     ratelimit.Pacer
	pageDelay time.Duration
	log       logger.Logger
}

// NewPaginator creates a paginator that pauses pageDelay between pages
func NewPaginator(client *Client, pacer ratelimit.Pacer, pageDelay time.Duration, log logger.Logger) *Paginator {
	if log == nil {
		log = logger.GetLogger()
	}
	if pacer == nil {
		pacer = &ratelimit.SleepPacer{}
	}
	return &Paginator{client: client, pacer: pacer, pageDelay: pageDelay, log: log}
}

// Collections lists every favorites folder of a user
func (p *Paginator) Collections(ctx context.Context, urlToken string) ([]Collection, error) {
	var all []Collection

	err := p.walk(ctx, CollectionsURL(urlToken, 0, DefaultPageSize), func(offset int) string {
		return CollectionsURL(urlToken, offset, DefaultPageSize)
	}, func(pageURL string) (int, Paging, error) {
		var resp CollectionListResponse
		if err := p.client.GetJSON(ctx, pageURL, &resp); err != nil {
			return 0, Paging{}, err
		}
		all = append(all, resp.Data...)
		return len(resp.Data), resp.Paging, nil
	})

	return all, err
}

// Items lists a collection's saved entries, oldest request order first as
// the API returns them. A positive limit truncates the result; zero means
// everything.
func (p *Paginator) Items(ctx context.Context, collectionID string, limit int) ([]CollectionItem, error) {
	var all []CollectionItem

	err := p.walk(ctx, CollectionItemsURL(collectionID, 0, DefaultPageSize), func(offset int) string {
		return CollectionItemsURL(collectionID, offset, DefaultPageSize)
	}, func(pageURL string) (int, Paging, error) {
		var resp CollectionItemsResponse
		if err := p.client.GetJSON(ctx, pageURL, &resp); err != nil {
			return 0, Paging{}, err
		}
		all = append(all, resp.Data...)
		if limit > 0 && len(all) >= limit {
			all = all[:limit]
			done := true
			return len(resp.Data), Paging{IsEnd: &done}, nil
		}
		return len(resp.Data), resp.Paging, nil
	})

	return all, err
}

// CollectionMeta fetches one collection's title and declared item count
func (p *Paginator) CollectionMeta(ctx context.Context, collectionID string) (*Collection, error) {
	var col Collection
	if err := p.client.GetJSON(ctx, CollectionURL(collectionID), &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// walk drives one list endpoint until the API declares the end, the pages
// dry up, or ctx is cancelled. fetch returns how many items the page held
// plus its paging envelope.
func (p *Paginator) walk(ctx context.Context, firstURL string, urlAt func(offset int) string, fetch func(pageURL string) (int, Paging, error)) error {
	pageURL := firstURL
	offset := 0
	emptyStreak := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		count, paging, err := fetch(pageURL)
		if err != nil {
			return err
		}
		offset += DefaultPageSize

		if count == 0 {
			emptyStreak++
			if emptyStreak >= maxEmptyPages {
				p.log.WarnWithFields("stopping after consecutive empty pages", map[string]interface{}{
					"url":   pageURL,
					"pages": emptyStreak,
				})
				return nil
			}
		} else {
			emptyStreak = 0
		}

		if paging.Ended() {
			return nil
		}

		if paging.Next != "" {
			pageURL = paging.Next
		} else if paging.IsEnd == nil {
			// No paging envelope at all: fall back to offset stepping.
			// An empty page without an envelope also terminates unless
			// the streak logic is still probing.
			pageURL = urlAt(offset)
		} else {
			// is_end explicitly false but no cursor given.
			pageURL = urlAt(offset)
		}

		if p.pageDelay > 0 {
			if err := p.pacer.Pause(ctx, p.pageDelay); err != nil {
				return err
			}
		}
	}
}
