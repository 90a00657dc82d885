package session

import (
	"fmt"

	"github.com/opsintel/backend/internal/models"
)

type DatasetView struct {
	models.Dataset
	Analysis   models.Status `json:"analysis_status"`
	HasContent bool          `json:"has_content"`
	HasResult  bool          `json:"has_result"`
}

type Snapshot struct {
	Active             string        `json:"active"`
	Datasets           []DatasetView `json:"datasets"`
	Ready              int           `json:"ready"`
	SynthesisAvailable bool          `json:"synthesis_available"`
	GlobalStatus       models.Status `json:"global_status"`
	Error              string        `json:"error,omitempty"`
}

type AnalysisView struct {
	DatasetID string                 `json:"dataset_id"`
	Status    models.Status          `json:"status"`
	Step      int                    `json:"step"`
	Steps     []Step                 `json:"steps,omitempty"`
	Result    *models.AnalysisResult `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

type GlobalView struct {
	Status    models.Status                 `json:"status"`
	Ready     int                           `json:"ready"`
	Available bool                          `json:"available"`
	Result    *models.GlobalSynthesisResult `json:"result,omitempty"`
	Error     string                        `json:"error,omitempty"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	views := make([]DatasetView, 0, len(c.datasets))
	for _, d := range c.datasets {
		_, hasResult := c.results[d.ID]
		views = append(views, DatasetView{
			Dataset:    d,
			Analysis:   c.statusLocked(d.ID),
			HasContent: c.contents[d.ID] != "",
			HasResult:  hasResult,
		})
	}
	return Snapshot{
		Active:             c.active,
		Datasets:           views,
		Ready:              len(c.results),
		SynthesisAvailable: len(c.results) >= minSynthesisPeriods,
		GlobalStatus:       c.statusLocked(models.GlobalID),
		Error:              c.lastErr,
	}
}

// Ready is the number of datasets holding a completed result.
func (c *Controller) Ready() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func (c *Controller) Status(id string) models.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked(id)
}

func (c *Controller) Result(id string) (models.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.results[id]
	return res, ok
}

func (c *Controller) Content(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.contents[id]
	return text, ok
}

func (c *Controller) Dataset(id string) (models.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.datasets {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Dataset{}, fmt.Errorf("%w: %s", ErrUnknownDataset, id)
}

func (c *Controller) Analysis(id string) (AnalysisView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.knownLocked(id) {
		return AnalysisView{}, fmt.Errorf("%w: %s", ErrUnknownDataset, id)
	}
	view := AnalysisView{DatasetID: id, Status: c.statusLocked(id)}
	if p, ok := c.progress[id]; ok {
		view.Step = p.Step()
		view.Steps = AnalysisSteps
	}
	if res, ok := c.results[id]; ok {
		view.Result = &res
	}
	if view.Status == models.StatusError {
		view.Error = c.failures[id]
	}
	return view, nil
}

func (c *Controller) Global() GlobalView {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := GlobalView{
		Status:    c.statusLocked(models.GlobalID),
		Ready:     len(c.results),
		Available: len(c.results) >= minSynthesisPeriods,
		Result:    c.global,
	}
	if view.Status == models.StatusError {
		view.Error = c.failures[models.GlobalID]
	}
	return view
}

// SurfacedError is the message shown inline until dismissed or reset.
func (c *Controller) SurfacedError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) statusLocked(id string) models.Status {
	if s, ok := c.statuses[id]; ok {
		return s
	}
	return models.StatusIdle
}
