package analytics

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nulzo/care-assist/internal/ai"
	"github.com/nulzo/care-assist/internal/store"
	"github.com/nulzo/care-assist/internal/store/model"
	"go.uber.org/zap"
)

const (
	StatusSuccess   = "success"
	StatusExhausted = "exhausted"
)

// Ingestor handles the asynchronous persistence of generation logs.
// It satisfies ai.Recorder.
type Ingestor interface {
	Record(gen *ai.Generation)
	Start(ctx context.Context)
	Stop()
}

type ingestor struct {
	logger    *zap.Logger
	repo      store.Repository
	logChan   chan *model.GenerationLog
	batchSize int
	flushTime time.Duration

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

func NewIngestor(logger *zap.Logger, repo store.Repository) Ingestor {
	return &ingestor{
		logger:    logger,
		repo:      repo,
		logChan:   make(chan *model.GenerationLog, 10000),
		batchSize: 50,
		flushTime: 5 * time.Second,
		done:      make(chan struct{}),
	}
}

func (i *ingestor) Record(gen *ai.Generation) {
	log := ToLog(gen)

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.stopped {
		return
	}

	select {
	case i.logChan <- log:
	default:
		i.logger.Warn("Analytics buffer full, dropping log", zap.String("generation_id", log.ID))
	}
}

func (i *ingestor) Start(ctx context.Context) {
	go i.worker(ctx)
}

// Stop drains the buffer and waits for the final flush.
func (i *ingestor) Stop() {
	i.mu.Lock()
	if i.stopped {
		i.mu.Unlock()
		return
	}
	i.stopped = true
	close(i.logChan)
	i.mu.Unlock()

	<-i.done
}

func (i *ingestor) worker(ctx context.Context) {
	defer close(i.done)

	batch := make([]*model.GenerationLog, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		for _, log := range batch {
			if err := i.repo.Generations().Log(context.Background(), log); err != nil {
				i.logger.Error("Failed to persist generation log", zap.String("id", log.ID), zap.Error(err))
			}
		}
		batch = batch[:0]
	}

	for {
		select {
		case log, ok := <-i.logChan:
			if !ok {
				flush()
				return
			}
			batch = append(batch, log)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			// pick up whatever is already buffered
			for {
				select {
				case log, ok := <-i.logChan:
					if !ok {
						flush()
						return
					}
					batch = append(batch, log)
				default:
					flush()
					return
				}
			}
		}
	}
}

// ToLog flattens a generation into its stored form.
func ToLog(gen *ai.Generation) *model.GenerationLog {
	log := &model.GenerationLog{
		ID:           gen.ID,
		Feature:      gen.Feature,
		Status:       StatusSuccess,
		AttemptCount: len(gen.Attempts),
		AttemptsJSON: "[]",
		LatencyMS:    gen.Latency.Milliseconds(),
		CreatedAt:    gen.CreatedAt.UTC(),
	}
	if gen.Exhausted || gen.Result == nil {
		log.Status = StatusExhausted
	} else {
		log.ProviderID = string(gen.Result.Provider)
	}
	if len(gen.Attempts) > 0 {
		if b, err := json.Marshal(gen.Attempts); err == nil {
			log.AttemptsJSON = string(b)
		}
	}
	return log
}
