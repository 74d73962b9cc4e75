package promptchain

import (
	"sync"
	"time"

	"github.com/simon020286/promptchain/models"
)

// eventBus delivers events to the registered listeners. Delivery is
// synchronous so listeners observe the events of a run in order.
type eventBus struct {
	listeners []models.EventListener
	mutex     sync.RWMutex
}

func newEventBus() *eventBus {
	return &eventBus{
		listeners: make([]models.EventListener, 0),
	}
}

// addListener registers a new listener
func (eb *eventBus) addListener(listener models.EventListener) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	eb.listeners = append(eb.listeners, listener)
}

// removeAllListeners removes all listeners
func (eb *eventBus) removeAllListeners() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	eb.listeners = make([]models.EventListener, 0)
}

// emit sends an event to all registered listeners
func (eb *eventBus) emit(eventType models.EventType, data map[string]interface{}) {
	eb.mutex.RLock()
	listeners := make([]models.EventListener, len(eb.listeners))
	copy(listeners, eb.listeners)
	eb.mutex.RUnlock()

	event := models.Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
	for _, listener := range listeners {
		listener.OnEvent(event)
	}
}

func (eb *eventBus) emitRunStarted(runID, pipeline string, stages int) {
	eb.emit(models.EventRunStarted, map[string]interface{}{
		"run_id":   runID,
		"pipeline": pipeline,
		"stages":   stages,
	})
}

func (eb *eventBus) emitRunCompleted(runID string, duration time.Duration) {
	eb.emit(models.EventRunCompleted, map[string]interface{}{
		"run_id":   runID,
		"duration": duration,
	})
}

func (eb *eventBus) emitRunAborted(runID, stageID string, err error) {
	eb.emit(models.EventRunAborted, map[string]interface{}{
		"run_id":   runID,
		"stage_id": stageID,
		"error":    err.Error(),
	})
}

func (eb *eventBus) emitStageStarted(runID string, stage *Stage, index, total int) {
	eb.emit(models.EventStageStarted, map[string]interface{}{
		"run_id":   runID,
		"stage_id": stage.ID,
		"title":    stage.Title,
		"progress": stage.Progress,
		"index":    index,
		"total":    total,
	})
}

func (eb *eventBus) emitStageCompleted(runID string, stage *Stage, index int, duration time.Duration) {
	eb.emit(models.EventStageCompleted, map[string]interface{}{
		"run_id":   runID,
		"stage_id": stage.ID,
		"title":    stage.Title,
		"index":    index,
		"duration": duration,
	})
}

func (eb *eventBus) emitStageError(runID string, stage *Stage, index int, err error) {
	eb.emit(models.EventStageError, map[string]interface{}{
		"run_id":   runID,
		"stage_id": stage.ID,
		"title":    stage.Title,
		"index":    index,
		"error":    err.Error(),
	})
}

func (eb *eventBus) emitStageOutput(runID string, stage *Stage, output *models.StepOutput) {
	eb.emit(models.EventStageOutput, map[string]interface{}{
		"run_id":   runID,
		"stage_id": stage.ID,
		"title":    stage.Title,
		"output":   output.Data,
	})
}
