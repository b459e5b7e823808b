package crawler

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// crawlLevels is the parallel traversal: each depth level is fetched by up
// to c.concurrency workers before the next level starts. Pages of one level
// are collected in completion order; links for the next level keep the
// order of the pages that produced them.
func (r *run) crawlLevels(ctx context.Context) error {
	frontier := []string{r.seed}

	for depth := 0; depth <= r.opts.MaxDepth && len(frontier) > 0; depth++ {
		found := make([][]string, len(frontier))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.c.concurrency)
		for i, pageURL := range frontier {
			if r.state.full() {
				break
			}
			g.Go(func() error {
				links, err := r.step(gctx, pageURL, depth)
				found[i] = links
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if err := contextError(ctx, r.seed); err != nil {
			return err
		}

		var next []string
		for _, links := range found {
			next = append(next, links...)
		}
		frontier = next
	}
	return nil
}
