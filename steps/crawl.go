package steps

import (
	"github.com/seoforge/onboard/logging"
	"github.com/seoforge/onboard/wizard"
)

// CrawlPages is the bespoke handler for the crawl-pages step. The crawl
// is the one step that spans multiple collaborator calls: enqueue the
// crawl job, poll it to completion, then finalize so the indexed pages
// become the content inventory.
func CrawlPages(hc wizard.HandlerContext) (wizard.Stats, error) {
	if hc.Token.Aborted() {
		return nil, wizard.ErrAborted
	}

	res, err := hc.Backend.Call(hc.Context, "crawl/enqueue", map[string]any{"step": "crawl-pages"})
	if err != nil {
		return nil, err
	}

	stats := make(wizard.Stats)
	if res.Async() {
		hc.Logger.Debug("crawl job enqueued", "job_id", res.JobID)
		result, err := hc.Poller.Poll(hc.Context, res.JobID, hc.Token, hc.Silent)
		if err != nil {
			return nil, err
		}
		stats.Merge(wizard.NumericStats(result))
	} else {
		// Small sites crawl synchronously.
		stats.Merge(wizard.NumericStats(res.Data))
	}

	if hc.Token.Aborted() {
		return nil, wizard.ErrAborted
	}

	fin, err := hc.Backend.Call(hc.Context, "crawl/finalize", map[string]any{"step": "crawl-pages"})
	if err != nil {
		return nil, err
	}
	stats.Merge(wizard.NumericStats(fin.Data))

	if !hc.Silent {
		hc.Stream.Appendf(logging.SeverityInfo, "crawl finished: %d pages discovered", stats["pagesDiscovered"])
	}
	return stats, nil
}
