package steps

import "github.com/seoforge/onboard/wizard"

// Phase ids. The refresh scheduler and handlers reference these.
const (
	PhaseDiscovery    = "discovery"
	PhaseConnections  = "connections"
	PhaseDataSync     = "data-sync"
	PhaseAISetup      = "ai-setup"
	PhaseContentSeed  = "content-seed"
	PhaseOptimization = "final-optimization"
)

// Phases returns the ordered phase plan. Progress ranges tile the full
// 0..100 scale; the validator in wizard.NewPlan enforces that.
func Phases() []wizard.Phase {
	return []wizard.Phase{
		{
			ID:    PhaseDiscovery,
			Title: "Site discovery",
			Mode:  wizard.Sequential,
			StepIDs: []string{
				"verify-domain", "crawl-pages", "detect-platform", "fetch-sitemap",
			},
			ProgressStart: 0, ProgressEnd: 15,
		},
		{
			ID:    PhaseConnections,
			Title: "Account connections",
			Mode:  wizard.Parallel,
			StepIDs: []string{
				"connect-analytics", "connect-search-console", "connect-business-profile",
				"connect-social-accounts", "import-reviews",
			},
			ProgressStart: 15, ProgressEnd: 35,
		},
		{
			ID:    PhaseDataSync,
			Title: "Data sync",
			Mode:  wizard.Sequential,
			StepIDs: []string{
				"sync-keywords", "sync-backlinks", "sync-competitors", "build-content-inventory",
			},
			ProgressStart: 35, ProgressEnd: 55,
		},
		{
			ID:    PhaseAISetup,
			Title: "AI setup",
			Mode:  wizard.Parallel,
			StepIDs: []string{
				"train-brand-voice", "build-topic-graph", "generate-persona",
				"score-content", "setup-signals",
			},
			ProgressStart: 55, ProgressEnd: 75,
		},
		{
			ID:    PhaseContentSeed,
			Title: "Content seeding",
			Mode:  wizard.Sequential,
			StepIDs: []string{
				"generate-starter-posts", "draft-social-calendar", "prepare-review-replies",
			},
			ProgressStart: 75, ProgressEnd: 90,
		},
		{
			ID:    PhaseOptimization,
			Title: "Final optimization",
			Mode:  wizard.Sequential,
			StepIDs: []string{
				"apply-recommendations", "activate-monitoring",
			},
			ProgressStart: 90, ProgressEnd: 100,
		},
	}
}

// Definitions returns every step in the catalog. Steps without a bespoke
// handler run the generic endpoint path; job-backed endpoints hand back a
// job id that the executor polls.
func Definitions() []wizard.StepDefinition {
	return []wizard.StepDefinition{
		// discovery
		{
			ID: "verify-domain", PhaseID: PhaseDiscovery,
			Title:       "Verify domain",
			Description: "Confirm the site resolves and we are allowed to work on it.",
			Endpoint:    "domain/verify",
			Critical:    true,
		},
		{
			ID: "crawl-pages", PhaseID: PhaseDiscovery,
			Title:       "Crawl site pages",
			Description: "Discover and index the site's pages.",
			Endpoint:    "crawl/enqueue",
			Critical:    true,
		},
		{
			ID: "detect-platform", PhaseID: PhaseDiscovery,
			Title:       "Detect platform",
			Description: "Identify the CMS and tech stack behind the site.",
			Endpoint:    "platform/detect",
		},
		{
			ID: "fetch-sitemap", PhaseID: PhaseDiscovery,
			Title:       "Fetch sitemap",
			Description: "Pull the sitemap for additional URLs.",
			Endpoint:    "sitemap/fetch",
		},

		// connections
		{
			ID: "connect-analytics", PhaseID: PhaseConnections,
			Title:       "Connect analytics",
			Description: "Link the tenant's web analytics property.",
			Endpoint:    "integrations/analytics/connect",
		},
		{
			ID: "connect-search-console", PhaseID: PhaseConnections,
			Title:       "Connect Search Console",
			Description: "Link the verified Search Console property.",
			Endpoint:    "integrations/search-console/connect",
		},
		{
			ID: "connect-business-profile", PhaseID: PhaseConnections,
			Title:       "Connect business profile",
			Description: "Link the business profile listing.",
			Endpoint:    "integrations/business-profile/connect",
		},
		{
			ID: "connect-social-accounts", PhaseID: PhaseConnections,
			Title:       "Connect social accounts",
			Description: "Link the tenant's social publishing accounts.",
			Endpoint:    "integrations/social/connect",
		},
		{
			ID: "import-reviews", PhaseID: PhaseConnections,
			Title:       "Import reviews",
			Description: "Pull existing customer reviews into the platform.",
			Endpoint:    "reviews/import",
		},

		// data-sync
		{
			ID: "sync-keywords", PhaseID: PhaseDataSync,
			Title:       "Sync keywords",
			Description: "Import ranking keywords and positions.",
			Endpoint:    "keywords/sync",
			Critical:    true,
		},
		{
			ID: "sync-backlinks", PhaseID: PhaseDataSync,
			Title:       "Sync backlinks",
			Description: "Import the backlink profile.",
			Endpoint:    "backlinks/sync",
		},
		{
			ID: "sync-competitors", PhaseID: PhaseDataSync,
			Title:       "Sync competitors",
			Description: "Identify and import competitor domains.",
			Endpoint:    "competitors/sync",
		},
		{
			ID: "build-content-inventory", PhaseID: PhaseDataSync,
			Title:       "Build content inventory",
			Description: "Catalog existing content from crawled pages.",
			Endpoint:    "content/inventory/build",
			Critical:    true,
			// The crawl already builds the inventory as a side effect, so a
			// successful crawl satisfies this step without a second pass.
			AutoCompletedBy: "crawl-pages",
		},

		// ai-setup
		{
			ID: "train-brand-voice", PhaseID: PhaseAISetup,
			Title:       "Train brand voice",
			Description: "Train the writing model on the tenant's existing content.",
			Endpoint:    "ai/brand-voice/train",
		},
		{
			ID: "build-topic-graph", PhaseID: PhaseAISetup,
			Title:       "Build topic graph",
			Description: "Map the site's topical coverage and gaps.",
			Endpoint:    "ai/topic-graph/build",
		},
		{
			ID: "generate-persona", PhaseID: PhaseAISetup,
			Title:       "Generate audience persona",
			Description: "Derive the target audience profile.",
			Endpoint:    "ai/persona/generate",
		},
		{
			ID: "score-content", PhaseID: PhaseAISetup,
			Title:       "Score existing content",
			Description: "Grade existing pages for quality and optimization potential.",
			Endpoint:    "ai/content/score",
		},
		{
			ID: "setup-signals", PhaseID: PhaseAISetup,
			Title:       "Set up ranking signals",
			Description: "Configure the signal collectors for this site.",
			Endpoint:    "ai/signals/setup",
		},

		// content-seed
		{
			ID: "generate-starter-posts", PhaseID: PhaseContentSeed,
			Title:       "Generate starter posts",
			Description: "Draft an initial batch of posts in the trained voice.",
			Endpoint:    "content/starter-posts/generate",
		},
		{
			ID: "draft-social-calendar", PhaseID: PhaseContentSeed,
			Title:       "Draft social calendar",
			Description: "Lay out the first month of social publishing.",
			Endpoint:    "social/calendar/draft",
		},
		{
			ID: "prepare-review-replies", PhaseID: PhaseContentSeed,
			Title:       "Prepare review replies",
			Description: "Draft replies for unanswered customer reviews.",
			Endpoint:    "reviews/replies/prepare",
		},

		// final-optimization
		{
			ID: "apply-recommendations", PhaseID: PhaseOptimization,
			Title:       "Apply recommendations",
			Description: "Apply the initial on-site optimization set.",
			Endpoint:    "recommendations/apply",
			Critical:    true,
		},
		{
			ID: "activate-monitoring", PhaseID: PhaseOptimization,
			Title:       "Activate monitoring",
			Description: "Turn on rank tracking and alerting.",
			Endpoint:    "monitoring/activate",
			Critical:    true,
		},
	}
}

// NewPlan compiles the production catalog.
func NewPlan() (*wizard.Plan, error) {
	return wizard.NewPlan(Phases(), Definitions())
}

// Handlers returns the bespoke step handlers keyed by step id.
func Handlers() map[string]wizard.StepHandler {
	return map[string]wizard.StepHandler{
		"crawl-pages": wizard.HandlerFunc(CrawlPages),
	}
}
