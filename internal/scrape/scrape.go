
package scrape

import (
	"context"

	"politefetch/internal/config"
	"politefetch/internal/crawler"
	"politefetch/internal/models"
	"politefetch/internal/parser"
	"politefetch/internal/robots"
	"politefetch/internal/sink"
	"politefetch/pkg/logger"
)

type PermissionChecker interface {
	Allowed(ctx context.Context, target, userAgent string) bool
}

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) crawler.Outcome
}

type Saver interface {
	Save(content, filename string) error
}

// Pipeline runs check, fetch and save for one URL at a time. Each Run starts
// from scratch; a failed step ends that run.
type Pipeline struct {
	checker   PermissionChecker
	fetcher   Fetcher
	saver     Saver
	parser    *parser.Parser
	log       *logger.Logger
	userAgent string
	output    string
}

func NewPipeline(checker PermissionChecker, fetcher Fetcher, saver Saver, l *logger.Logger, userAgent, output string) *Pipeline {
	return &Pipeline{
		checker:   checker,
		fetcher:   fetcher,
		saver:     saver,
		parser:    parser.New(),
		log:       l,
		userAgent: userAgent,
		output:    output,
	}
}

// New wires the real checker, fetcher and sink from cfg.
func New(cfg config.Config, l *logger.Logger) *Pipeline {
	client := crawler.NewStdClient(cfg.Timeout, cfg.DialTimeout)
	opts := []crawler.Option{crawler.WithSizeCap(cfg.MaxBodyBytes)}
	// The wildcard agent still identifies itself as ProductToken on the wire,
	// so robots.txt is tested for that name; groups for "*" apply as fallback.
	robotsAgent := crawler.ProductToken
	if cfg.UserAgent != config.DefaultUserAgent {
		opts = append(opts, crawler.WithUserAgent(cfg.UserAgent))
		robotsAgent = cfg.UserAgent
	}
	return NewPipeline(
		robots.NewChecker(client, l),
		crawler.NewHTTPClient(client, cfg.Delay, l, opts...),
		sink.New(l),
		l,
		robotsAgent,
		cfg.Output,
	)
}

func (p *Pipeline) Run(ctx context.Context, target string) models.Report {
	return p.RunTo(ctx, target, p.output)
}

// RunTo is Run with an explicit destination file.
func (p *Pipeline) RunTo(ctx context.Context, target, output string) models.Report {
	report := models.Report{URL: target}
	p.log.Infof("Starting scrape for %s", target)

	if !p.checker.Allowed(ctx, target, p.userAgent) {
		p.log.Deniedf("Scraping not permitted by robots.txt.")
		report.Status = models.StatusDenied
		return report
	}
	report.Allowed = true
	p.log.Allowedf("Scraping permitted. Fetching page...")

	out := p.fetcher.Fetch(ctx, target)
	report.Outcome = out.Kind.String()
	report.StatusCode = out.StatusCode
	report.FinalURL = out.FinalURL
	report.FetchMs = out.Elapsed.Milliseconds()
	if !out.OK() || out.Body == "" {
		p.log.Errorf("Failed to fetch content.")
		report.Status = models.StatusFetchFailed
		if out.Err != nil {
			report.Error = out.Err.Error()
		}
		return report
	}

	size := len(out.Body)
	report.Bytes = size
	p.log.Successf("Successfully fetched %s (%d bytes)", target, size)

	if parser.IsHTML(out.ContentType) {
		if meta, err := p.parser.Summarize(out.Body); err == nil {
			report.Page = &meta
		}
	}

	report.Output = output
	if err := p.saver.Save(out.Body, output); err != nil {
		report.Status = models.StatusSaveFailed
		report.Error = err.Error()
		return report
	}
	report.Status = models.StatusSaved
	return report
}
