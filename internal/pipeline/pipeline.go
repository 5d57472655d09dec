// Package pipeline drives the crawl: makes index, models per make, trims
// per model, then spec and option extraction per trim. Every stage is
// resumable; entities already in the store are skipped, so an interrupted
// run picks up where it left off.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/alexx-ftw/km77-scraper/internal/discover"
	"github.com/alexx-ftw/km77-scraper/internal/fetcher"
	"github.com/alexx-ftw/km77-scraper/internal/parser"
	"github.com/alexx-ftw/km77-scraper/internal/store"
	"github.com/alexx-ftw/km77-scraper/internal/ui"
	"github.com/alexx-ftw/km77-scraper/pkg/models"
)

// Pipeline holds the crawl dependencies.
type Pipeline struct {
	store   *store.Store
	fetch   fetcher.Fetcher
	parser  *parser.Parser
	baseURL string
	workers int
	log     zerolog.Logger
	out     io.Writer
}

// New creates a Pipeline. workers bounds the concurrent markup fetches per
// stage; discovery and inserts stay sequential so ids and warnings are
// deterministic.
func New(st *store.Store, f fetcher.Fetcher, p *parser.Parser, baseURL string, workers int, log zerolog.Logger) *Pipeline {
	if workers <= 0 {
		workers = 4
	}
	return &Pipeline{
		store:   st,
		fetch:   f,
		parser:  p,
		baseURL: strings.TrimRight(baseURL, "/"),
		workers: workers,
		log:     log,
		out:     os.Stdout,
	}
}

// Run executes the full crawl.
func (p *Pipeline) Run(ctx context.Context) error {
	makes, err := p.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading hierarchy: %w", err)
	}
	p.log.Info().Int("makes", len(makes)).Msg("hierarchy loaded")

	makes, err = p.ensureMakes(ctx, makes)
	if err != nil {
		return err
	}
	p.summary(ctx)

	if err := p.ensureModels(ctx, makes); err != nil {
		return err
	}
	p.summary(ctx)

	if err := p.ensureTrims(ctx, makes); err != nil {
		return err
	}
	p.summary(ctx)

	if err := p.ensureSpecOps(ctx, makes); err != nil {
		return err
	}
	p.summary(ctx)

	return nil
}

// ensureMakes populates the makes list from the brand index page when the
// store is empty. A failed index fetch is fatal; there is nothing to crawl
// without it.
func (p *Pipeline) ensureMakes(ctx context.Context, makes []*models.Make) ([]*models.Make, error) {
	if len(makes) > 0 {
		return makes, nil
	}

	fmt.Fprintln(p.out, ui.Bold("Discovering makes."))
	raw, err := p.fetch.Fetch(ctx, p.baseURL+"/coches")
	if err != nil {
		return nil, fmt.Errorf("fetching makes index: %w", err)
	}

	children, err := discover.Makes(raw, p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("discovering makes: %w", err)
	}
	p.log.Info().Int("found", len(children)).Msg("makes discovered")

	bar := progressbar.Default(int64(len(children)), "Inserting makes")
	for _, c := range children {
		_ = bar.Add(1)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if hasMake(makes, c.Name) {
			continue
		}
		id, err := p.store.NextID(ctx, store.KindMake)
		if err != nil {
			return nil, err
		}
		mk := &models.Make{ID: id, Name: c.Name, ChildrenURL: c.URL}
		if err := p.store.InsertMake(ctx, mk); err != nil {
			p.log.Error().Err(err).Str("make", mk.Name).Msg("insert failed, skipping")
			continue
		}
		makes = append(makes, mk)
	}
	return makes, nil
}

// ensureModels discovers the models of every make that has none yet.
func (p *Pipeline) ensureModels(ctx context.Context, makes []*models.Make) error {
	var pending []*models.Make
	for _, mk := range makes {
		if len(mk.Models) == 0 {
			pending = append(pending, mk)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	fmt.Fprintln(p.out, ui.Bold("Getting the models for each make."))
	if err := p.prefetch(ctx, store.KindMake, len(pending), func(i int) (*fetchTarget, error) {
		mk := pending[i]
		return &fetchTarget{id: mk.ID, name: mk.Name, url: mk.ChildrenURL, raw: &mk.RawMarkup}, nil
	}); err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(pending)), "Processing makes")
	for _, mk := range pending {
		_ = bar.Add(1)
		if err := ctx.Err(); err != nil {
			return err
		}
		// Index entries whose listing URL is not under the car section are
		// ads and navigation chrome, not makes.
		if !strings.Contains(mk.ChildrenURL, "coches") {
			p.log.Debug().Str("make", mk.Name).Str("url", mk.ChildrenURL).Msg("not a model listing, skipping")
			continue
		}
		if mk.RawMarkup == "" {
			continue
		}
		children, err := discover.Models(mk.RawMarkup, p.baseURL)
		if err != nil {
			p.log.Error().Err(err).Str("make", mk.Name).Msg("model discovery failed, skipping")
			continue
		}
		for _, c := range children {
			if mk.HasModel(c.Name) {
				continue
			}
			id, err := p.store.NextID(ctx, store.KindModel)
			if err != nil {
				return err
			}
			m := &models.Model{ID: id, Name: c.Name, Year: c.Extra, ChildrenURL: c.URL, Make: mk}
			if err := p.store.InsertModel(ctx, m); err != nil {
				p.log.Error().Err(err).Str("model", m.Name).Msg("insert failed, skipping")
				continue
			}
			mk.AddModel(m)
		}
	}
	return nil
}

// ensureTrims discovers the trims of every model that has none yet.
func (p *Pipeline) ensureTrims(ctx context.Context, makes []*models.Make) error {
	var pending []*models.Model
	for _, mk := range makes {
		for _, m := range mk.Models {
			if len(m.Trims) == 0 {
				pending = append(pending, m)
			}
		}
	}
	if len(pending) == 0 {
		return nil
	}

	fmt.Fprintln(p.out, ui.Bold("Getting the trims for each model."))
	if err := p.prefetch(ctx, store.KindModel, len(pending), func(i int) (*fetchTarget, error) {
		m := pending[i]
		return &fetchTarget{id: m.ID, name: m.Name, url: m.ChildrenURL, raw: &m.RawMarkup}, nil
	}); err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(pending)), "Processing models")
	for _, m := range pending {
		_ = bar.Add(1)
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.RawMarkup == "" {
			continue
		}
		children, err := discover.Trims(m.RawMarkup, p.baseURL)
		if err != nil {
			p.log.Error().Err(err).Str("model", m.Name).Msg("trim discovery failed, skipping")
			continue
		}
		for _, c := range children {
			// Informational pages list no purchasable configurations.
			if strings.Contains(c.URL, "informacion") {
				p.log.Debug().Str("url", c.URL).Msg("informational page, skipping")
				continue
			}
			if m.HasTrim(c.Name) {
				continue
			}
			id, err := p.store.NextID(ctx, store.KindTrim)
			if err != nil {
				return err
			}
			t := &models.Trim{ID: id, Name: c.Name, Production: c.Extra, ChildrenURL: c.URL, Model: m}
			if err := p.store.InsertTrim(ctx, t); err != nil {
				p.log.Error().Err(err).Str("trim", t.Name).Msg("insert failed, skipping")
				continue
			}
			m.AddTrim(t)
		}
	}
	return nil
}

// ensureSpecOps extracts and persists the spec and option records for every
// trim that does not have both yet.
func (p *Pipeline) ensureSpecOps(ctx context.Context, makes []*models.Make) error {
	var pending []*models.Trim
	for _, mk := range makes {
		for _, m := range mk.Models {
			for _, t := range m.Trims {
				if !t.HasSpecOps() {
					pending = append(pending, t)
				}
			}
		}
	}
	if len(pending) == 0 {
		return nil
	}

	fmt.Fprintln(p.out, ui.Bold("Getting the specs and options for each trim."))
	if err := p.prefetch(ctx, store.KindTrim, len(pending), func(i int) (*fetchTarget, error) {
		t := pending[i]
		return &fetchTarget{id: t.ID, name: t.Name, url: t.ChildrenURL, raw: &t.RawMarkup, trim: true}, nil
	}); err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(pending)), "Extracting records")
	for _, t := range pending {
		_ = bar.Add(1)
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.RawMarkup == "" {
			continue
		}
		specs, options := p.parser.ParseSpecOps(t.RawMarkup)
		if err := p.store.WriteRecords(ctx, t.ID, store.RecordSpecs, specs); err != nil {
			p.log.Error().Err(err).Str("trim", t.Name).Msg("persisting specs failed, skipping")
			continue
		}
		if err := p.store.WriteRecords(ctx, t.ID, store.RecordOptions, options); err != nil {
			p.log.Error().Err(err).Str("trim", t.Name).Msg("persisting options failed, skipping")
			continue
		}
		t.Specs = specs
		t.Options = options
	}
	return nil
}

// fetchTarget is one markup fetch of a prefetch stage. raw points into the
// entity so the stage sees the result; trim targets also pull the
// equipment page, where the option tables live.
type fetchTarget struct {
	id   int64
	name string
	url  string
	raw  *string
	trim bool
}

// prefetch fills in missing raw markup for n entities with bounded
// concurrency, writing through to the store as pages arrive. A failed
// fetch is logged and leaves the markup empty; nothing durable is written,
// so the next run retries the entity.
func (p *Pipeline) prefetch(ctx context.Context, kind store.Kind, n int, target func(i int) (*fetchTarget, error)) error {
	bar := progressbar.Default(int64(n), "Fetching sources")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := 0; i < n; i++ {
		tgt, err := target(i)
		if err != nil {
			return err
		}
		if *tgt.raw != "" {
			p.log.Debug().Str("entity", tgt.name).Msg("markup already stored")
			_ = bar.Add(1)
			continue
		}
		g.Go(func() error {
			defer func() { _ = bar.Add(1) }()

			raw, err := p.fetch.Fetch(gctx, tgt.url)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				p.log.Error().Err(err).Str("entity", tgt.name).Str("url", tgt.url).Msg("fetch failed, skipping")
				return nil
			}
			if tgt.trim {
				equipment, err := p.fetch.Fetch(gctx, tgt.url+"/equipamiento")
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					p.log.Warn().Err(err).Str("entity", tgt.name).Msg("equipment page fetch failed")
				}
				raw += equipment
			}
			if err := p.store.WriteRaw(gctx, kind, tgt.id, raw); err != nil {
				p.log.Error().Err(err).Str("entity", tgt.name).Msg("storing markup failed")
				return nil
			}
			*tgt.raw = raw
			return nil
		})
	}
	return g.Wait()
}

// RefetchMissing refetches raw markup for trims that have none stored.
func (p *Pipeline) RefetchMissing(ctx context.Context) error {
	trims, err := p.store.TrimsMissingRaw(ctx)
	if err != nil {
		return err
	}
	if len(trims) == 0 {
		fmt.Fprintln(p.out, ui.Info("No trims are missing markup."))
		return nil
	}

	fmt.Fprintln(p.out, ui.Bold(fmt.Sprintf("Refetching markup for %d trims.", len(trims))))
	return p.prefetch(ctx, store.KindTrim, len(trims), func(i int) (*fetchTarget, error) {
		t := trims[i]
		return &fetchTarget{id: t.ID, name: t.Name, url: t.ChildrenURL, raw: &t.RawMarkup, trim: true}, nil
	})
}

// summary prints the colored database counts after a stage.
func (p *Pipeline) summary(ctx context.Context) {
	c, err := p.store.Counts(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("counting entities failed")
		return
	}
	fmt.Fprintf(p.out, "%s makes  %s models  %s trims  %s with records\n",
		ui.Success(strconv.FormatInt(c.Makes, 10)),
		ui.Success(strconv.FormatInt(c.Models, 10)),
		ui.Success(strconv.FormatInt(c.Trims, 10)),
		ui.Stage(strconv.FormatInt(c.WithRecords, 10)))
}

func hasMake(makes []*models.Make, name string) bool {
	for _, mk := range makes {
		if mk.Name == name {
			return true
		}
	}
	return false
}
