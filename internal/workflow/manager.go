package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"transvox/internal/config"
	"transvox/internal/logging"
	"transvox/internal/queue"
	"transvox/internal/stage"
)

// Manager coordinates queue processing using registered stage handlers.
// Stages run sequentially: one item occupies one stage at a time.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration

	stages       []pipelineStage
	stageByStart map[queue.Status]pipelineStage
	statusOrder  []queue.Status

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastItem *queue.Item
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	poll := time.Duration(cfg.Workflow.QueuePollInterval) * time.Second
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		pollInterval: poll,
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.statusOrder) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, err := m.store.NextForStatuses(ctx, m.statusOrder...)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("failed to fetch next queue item", logging.Error(err))
			m.waitForItemOrShutdown(ctx)
			continue
		}
		if item == nil {
			m.waitForItemOrShutdown(ctx)
			continue
		}

		if err := m.processItem(ctx, item); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

// ProcessNext takes the oldest runnable item through exactly one stage.
// It returns the item processed, or nil when the queue has no runnable work.
func (m *Manager) ProcessNext(ctx context.Context) (*queue.Item, error) {
	item, err := m.store.NextForStatuses(ctx, m.statusOrder...)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	if err := m.processItem(ctx, item); err != nil {
		return item, err
	}
	return m.store.GetByID(ctx, item.ID)
}

// RunItem drives a single item through every remaining stage until it
// completes or fails. Used by the one-shot CLI commands.
func (m *Manager) RunItem(ctx context.Context, id int64) (*queue.Item, error) {
	for {
		item, err := m.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, errors.New("queue item not found")
		}
		if item.Status == queue.StatusCompleted || item.Status == queue.StatusFailed {
			return item, nil
		}
		if _, ok := m.stageByStart[item.Status]; !ok {
			return item, nil
		}
		if err := m.processItem(ctx, item); err != nil {
			if errors.Is(err, context.Canceled) {
				return item, err
			}
			return m.store.GetByID(ctx, id)
		}
	}
}

func (m *Manager) waitForItemOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}

// Health reports the readiness of every configured stage.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	m.mu.RLock()
	stages := m.stages
	m.mu.RUnlock()

	checks := make([]stage.Health, 0, len(stages))
	for _, stg := range stages {
		if stg.handler == nil {
			continue
		}
		checks = append(checks, stg.handler.HealthCheck(ctx))
	}
	return checks
}

// Running reports whether background processing is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastError returns the most recent stage or queue failure observed.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// LastItem returns a copy of the most recently processed item.
func (m *Manager) LastItem() *queue.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastItem == nil {
		return nil
	}
	cp := *m.lastItem
	return &cp
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastItem(item *queue.Item) {
	m.mu.Lock()
	if item != nil {
		cp := *item
		m.lastItem = &cp
	}
	m.mu.Unlock()
}
