package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsintel/backend/internal/ai"
	"github.com/opsintel/backend/internal/clipboard"
	"github.com/opsintel/backend/internal/ingest"
	"github.com/opsintel/backend/internal/models"
	"github.com/opsintel/backend/internal/utils"
)

var (
	ErrUnknownDataset = errors.New("unknown dataset")
	ErrDatasetBusy    = errors.New("dataset is analyzing or already analyzed, reset it first")
	ErrNoContent      = errors.New("no content provided")
)

const (
	analysisFailedMessage  = "Analysis failed."
	synthesisFailedMessage = "Global Synthesis failed."
	clipboardFailedMessage = "Clipboard access denied or empty."
	minSynthesisPeriods    = 2
)

// Archiver receives completed results. It is write-only: nothing read back
// from it ever reaches session state.
type Archiver interface {
	ArchiveAnalysis(ctx context.Context, datasetID string, res models.AnalysisResult) error
	ArchiveSynthesis(ctx context.Context, res models.GlobalSynthesisResult) error
}

type Options struct {
	Analyzer         ai.Analyzer
	Clipboard        clipboard.Reader
	Archive          Archiver
	Logger           zerolog.Logger
	ProgressInterval time.Duration
	Now              func() time.Time
}

// Controller owns all per-session state: dataset slots, their content,
// cached results and statuses, and the global synthesis.
type Controller struct {
	analyzer ai.Analyzer
	clip     clipboard.Reader
	archive  Archiver
	logger   zerolog.Logger
	interval time.Duration
	now      func() time.Time

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	datasets []models.Dataset
	contents map[string]string
	results  map[string]models.AnalysisResult
	statuses map[string]models.Status
	progress map[string]*Progress
	// generation is bumped on reset so late completions are discarded
	generation map[string]uint64
	// failures holds the settle-time error per id, GlobalID included
	failures map[string]string
	global   *models.GlobalSynthesisResult
	active   string
	lastErr  string
}

func DefaultDatasets() []models.Dataset {
	return []models.Dataset{
		{ID: "curr", Name: "Current Week", Timestamp: time.Date(2023, 11, 1, 9, 0, 0, 0, time.UTC), Status: models.SyncPending},
		{ID: "prev", Name: "Previous Week", Timestamp: time.Date(2023, 10, 25, 18, 0, 0, 0, time.UTC), Status: models.SyncPending},
		{ID: "hist", Name: "Earlier Hist.", Timestamp: time.Date(2023, 10, 18, 18, 0, 0, 0, time.UTC), Status: models.SyncPending},
	}
}

func New(opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.System{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	datasets := DefaultDatasets()
	return &Controller{
		analyzer:   opts.Analyzer,
		clip:       opts.Clipboard,
		archive:    opts.Archive,
		logger:     opts.Logger,
		interval:   opts.ProgressInterval,
		now:        opts.Now,
		base:       ctx,
		cancel:     cancel,
		datasets:   datasets,
		contents:   map[string]string{},
		results:    map[string]models.AnalysisResult{},
		statuses:   map[string]models.Status{},
		progress:   map[string]*Progress{},
		generation: map[string]uint64{},
		failures:   map[string]string{},
		active:     datasets[0].ID,
	}
}

// Activate makes id the active view. A dataset with content, no result and
// no analysis in flight starts exactly one analysis; the returned flag
// reports whether this call started it. The global view only opens once a
// synthesis has been started.
func (c *Controller) Activate(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == models.GlobalID {
		if c.statusLocked(models.GlobalID) != models.StatusIdle {
			c.active = id
		}
		return false, nil
	}
	if !c.knownLocked(id) {
		return false, fmt.Errorf("%w: %s", ErrUnknownDataset, id)
	}
	c.active = id
	return c.maybeAnalyzeLocked(id), nil
}

// SetContent stores raw text for a dataset. If the dataset is active the
// activation guard runs again, so loading content into the open view starts
// its analysis.
func (c *Controller) SetContent(id, text string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writableLocked(id); err != nil {
		return false, err
	}
	if text == "" {
		return false, ErrNoContent
	}
	c.contents[id] = text
	c.logger.Info().Str("dataset_id", id).Int("bytes", len(text)).Msg("dataset content loaded")

	if c.active != id {
		return false, nil
	}
	return c.maybeAnalyzeLocked(id), nil
}

// Ingest decodes an uploaded file and stores it as content. Decoding errors
// leave the dataset untouched and are surfaced as the session error.
func (c *Controller) Ingest(id, filename string, data []byte) (bool, error) {
	c.mu.Lock()
	err := c.writableLocked(id)
	c.mu.Unlock()
	if err != nil {
		return false, err
	}

	text, err := ingest.Decode(filename, data)
	if err != nil {
		c.surface(err.Error())
		return false, err
	}
	return c.SetContent(id, text)
}

func (c *Controller) PasteClipboard(id string) (bool, error) {
	c.mu.Lock()
	err := c.writableLocked(id)
	c.mu.Unlock()
	if err != nil {
		return false, err
	}

	text, err := c.clip.ReadText()
	if err != nil {
		c.surface(clipboardFailedMessage)
		return false, err
	}
	return c.SetContent(id, text)
}

func (c *Controller) LoadSample(id string) (bool, error) {
	return c.SetContent(id, SampleData)
}

// Reset drops result, content and status of one dataset only.
func (c *Controller) Reset(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.knownLocked(id) {
		return fmt.Errorf("%w: %s", ErrUnknownDataset, id)
	}
	c.resetLocked(id)
	return nil
}

// ResetAll clears every result, content, status and the surfaced error in a
// single critical section.
func (c *Controller) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range c.datasets {
		c.resetLocked(d.ID)
	}
	c.generation[models.GlobalID]++
	delete(c.statuses, models.GlobalID)
	delete(c.failures, models.GlobalID)
	c.global = nil
	c.lastErr = ""
	c.logger.Info().Msg("session reset")
}

// Synthesize starts the cross-period synthesis. It is refused, not failed,
// while fewer than two datasets have a result or a synthesis is in flight.
func (c *Controller) Synthesize() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.statuses[models.GlobalID] == models.StatusAnalyzing {
		return false
	}
	if len(c.results) < minSynthesisPeriods {
		return false
	}

	periods := make([]ai.Period, 0, len(c.results))
	for _, d := range c.datasets {
		if res, ok := c.results[d.ID]; ok {
			periods = append(periods, ai.Period{DatasetID: d.ID, Result: res})
		}
	}
	c.statuses[models.GlobalID] = models.StatusAnalyzing
	delete(c.failures, models.GlobalID)
	c.active = models.GlobalID
	gen := c.generation[models.GlobalID]

	c.wg.Add(1)
	go c.runSynthesis(periods, gen)
	return true
}

func (c *Controller) DismissError() {
	c.mu.Lock()
	c.lastErr = ""
	c.mu.Unlock()
}

// Wait blocks until every in-flight call has settled or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close aborts in-flight calls. Only used at process shutdown.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) maybeAnalyzeLocked(id string) bool {
	content := c.contents[id]
	if content == "" {
		return false
	}
	if _, ok := c.results[id]; ok {
		return false
	}
	if c.statuses[id] == models.StatusAnalyzing {
		return false
	}

	c.statuses[id] = models.StatusAnalyzing
	delete(c.failures, id)
	c.lastErr = ""
	p := StartProgress(c.interval, len(AnalysisSteps))
	c.progress[id] = p
	gen := c.generation[id]

	c.logger.Info().
		Str("dataset_id", id).
		Str("content_fp", utils.ShortFingerprint(content)).
		Msg("analysis started")

	c.wg.Add(1)
	go c.runAnalysis(id, content, gen, p)
	return true
}

func (c *Controller) runAnalysis(id, content string, gen uint64, p *Progress) {
	defer c.wg.Done()
	start := time.Now()

	res, err := c.analyzer.Analyze(c.base, content)
	p.Stop()

	c.mu.Lock()
	if c.progress[id] == p {
		delete(c.progress, id)
	}
	if c.generation[id] != gen {
		c.mu.Unlock()
		c.logger.Info().Str("dataset_id", id).Msg("discarding analysis for reset dataset")
		return
	}
	if err != nil {
		c.statuses[id] = models.StatusError
		c.failures[id] = messageOr(err, analysisFailedMessage)
		c.lastErr = c.failures[id]
		c.mu.Unlock()
		c.logger.Error().Err(err).Str("dataset_id", id).Int64("elapsed_ms", time.Since(start).Milliseconds()).Msg("analysis failed")
		return
	}
	c.results[id] = res
	c.statuses[id] = models.StatusCompleted
	for i := range c.datasets {
		if c.datasets[i].ID == id {
			c.datasets[i].Status = models.SyncSynced
			c.datasets[i].Timestamp = c.now()
		}
	}
	c.mu.Unlock()

	c.logger.Info().Str("dataset_id", id).Int64("elapsed_ms", time.Since(start).Milliseconds()).Msg("analysis completed")
	if c.archive != nil {
		if err := c.archive.ArchiveAnalysis(c.base, id, res); err != nil {
			c.logger.Warn().Err(err).Str("dataset_id", id).Msg("archive analysis failed")
		}
	}
}

func (c *Controller) runSynthesis(periods []ai.Period, gen uint64) {
	defer c.wg.Done()
	start := time.Now()

	res, err := c.analyzer.Synthesize(c.base, periods)

	c.mu.Lock()
	if c.generation[models.GlobalID] != gen {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.statuses[models.GlobalID] = models.StatusError
		c.failures[models.GlobalID] = synthesisFailedMessage
		c.lastErr = synthesisFailedMessage
		c.mu.Unlock()
		c.logger.Error().Err(err).Int("periods", len(periods)).Msg("synthesis failed")
		return
	}
	c.global = &res
	c.statuses[models.GlobalID] = models.StatusCompleted
	c.mu.Unlock()

	c.logger.Info().Int("periods", len(periods)).Int64("elapsed_ms", time.Since(start).Milliseconds()).Msg("synthesis completed")
	if c.archive != nil {
		if err := c.archive.ArchiveSynthesis(c.base, res); err != nil {
			c.logger.Warn().Err(err).Msg("archive synthesis failed")
		}
	}
}

func (c *Controller) resetLocked(id string) {
	if p, ok := c.progress[id]; ok {
		// Stop waits on the ticker goroutine, which never takes c.mu.
		p.Stop()
		delete(c.progress, id)
	}
	c.generation[id]++
	delete(c.results, id)
	delete(c.contents, id)
	delete(c.statuses, id)
	delete(c.failures, id)
	for i := range c.datasets {
		if c.datasets[i].ID == id {
			c.datasets[i].Status = models.SyncEmpty
		}
	}
}

func (c *Controller) writableLocked(id string) error {
	if !c.knownLocked(id) {
		return fmt.Errorf("%w: %s", ErrUnknownDataset, id)
	}
	if _, ok := c.results[id]; ok {
		return ErrDatasetBusy
	}
	if c.statuses[id] == models.StatusAnalyzing {
		return ErrDatasetBusy
	}
	return nil
}

func (c *Controller) knownLocked(id string) bool {
	for _, d := range c.datasets {
		if d.ID == id {
			return true
		}
	}
	return false
}

func (c *Controller) surface(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

func messageOr(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
