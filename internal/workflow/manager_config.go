package workflow

import (
	"transvox/internal/queue"
	"transvox/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Downloader  stage.Handler
	Extractor   stage.Handler
	Transcriber stage.Handler
	Translator  stage.Handler
	Synthesizer stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

// ConfigureStages registers the concrete stage handlers the workflow will run.
func (m *Manager) ConfigureStages(set StageSet) {
	var stages []pipelineStage

	if set.Downloader != nil {
		stages = append(stages, pipelineStage{
			name:             "downloader",
			handler:          set.Downloader,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusDownloading,
			doneStatus:       queue.StatusDownloaded,
		})
	}
	if set.Extractor != nil {
		stages = append(stages, pipelineStage{
			name:             "extractor",
			handler:          set.Extractor,
			startStatus:      queue.StatusDownloaded,
			processingStatus: queue.StatusExtracting,
			doneStatus:       queue.StatusExtracted,
		})
	}
	if set.Transcriber != nil {
		stages = append(stages, pipelineStage{
			name:             "transcriber",
			handler:          set.Transcriber,
			startStatus:      queue.StatusExtracted,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
		})
	}
	if set.Translator != nil {
		stages = append(stages, pipelineStage{
			name:             "translator",
			handler:          set.Translator,
			startStatus:      queue.StatusTranscribed,
			processingStatus: queue.StatusTranslating,
			doneStatus:       queue.StatusTranslated,
		})
	}
	if set.Synthesizer != nil {
		stages = append(stages, pipelineStage{
			name:             "synthesizer",
			handler:          set.Synthesizer,
			startStatus:      queue.StatusTranslated,
			processingStatus: queue.StatusSynthesizing,
			doneStatus:       queue.StatusCompleted,
		})
	}

	m.mu.Lock()
	m.stages = stages
	m.stageByStart = make(map[queue.Status]pipelineStage, len(stages))
	m.statusOrder = make([]queue.Status, 0, len(stages))
	for _, stg := range stages {
		m.stageByStart[stg.startStatus] = stg
		m.statusOrder = append(m.statusOrder, stg.startStatus)
	}
	m.mu.Unlock()
}
