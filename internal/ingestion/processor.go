package ingestion

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"marketlive/internal/identity"
	"marketlive/internal/logger"
	"marketlive/internal/metrics"
	shipmentUC "marketlive/internal/usecase/shipment"
	appErrors "marketlive/pkg/errors"

	"go.uber.org/zap"
)

// Upserter applies a tracking snapshot to the shipment store.
type Upserter interface {
	Upsert(ctx context.Context, id *identity.Identity, req *shipmentUC.UpsertShipmentRequest) (*shipmentUC.UpsertResult, error)
}

type ProcessorConfig struct {
	Workers    int
	BufferSize int           // per worker
	Timeout    time.Duration // per upsert
}

func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		Workers:    4,
		BufferSize: 256,
		Timeout:    10 * time.Second,
	}
}

// Processor fans feed messages out to a fixed pool of workers. Messages for
// the same shipment always land on the same worker so they apply in arrival order.
type Processor struct {
	upserter Upserter
	metrics  *metrics.Metrics
	stats    *StatsTracker
	cfg      ProcessorConfig
	queues   []chan *CarrierUpdate
	now      func() time.Time
}

func NewProcessor(upserter Upserter, m *metrics.Metrics, cfg ProcessorConfig) *Processor {
	def := DefaultProcessorConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	queues := make([]chan *CarrierUpdate, cfg.Workers)
	for i := range queues {
		queues[i] = make(chan *CarrierUpdate, cfg.BufferSize)
	}

	return &Processor{
		upserter: upserter,
		metrics:  m,
		stats:    NewStatsTracker(),
		cfg:      cfg,
		queues:   queues,
		now:      time.Now,
	}
}

// HandleMessage is the MQTT callback. It never blocks the client's router.
func (p *Processor) HandleMessage(topic string, payload []byte) {
	p.stats.Update(func(s *FeedStats) { s.MessagesReceived++ })

	update, err := ParseCarrierUpdate(topic, payload)
	if err != nil {
		logger.Warn("Invalid carrier feed message",
			zap.String("topic", topic),
			zap.Error(err),
		)
		p.stats.Update(func(s *FeedStats) { s.MessagesInvalid++ })
		p.metrics.RecordFeedMessage("invalid")
		return
	}

	p.Submit(update)
}

// Submit queues u and reports whether it was accepted. A full queue drops the message.
func (p *Processor) Submit(u *CarrierUpdate) bool {
	select {
	case p.queues[p.shard(u.ShipmentID)] <- u:
		return true
	default:
		logger.Warn("Carrier feed buffer full, dropping message",
			zap.String("shipment_id", u.ShipmentID),
			zap.String("carrier_id", u.CarrierID),
		)
		p.stats.Update(func(s *FeedStats) { s.MessagesDropped++ })
		p.metrics.RecordFeedMessage("dropped")
		return false
	}
}

// Run processes queued messages until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	logger.Info("Carrier feed processor started", zap.Int("workers", p.cfg.Workers))

	var wg sync.WaitGroup
	for i, queue := range p.queues {
		wg.Add(1)
		go func(id int, queue <-chan *CarrierUpdate) {
			defer wg.Done()
			p.worker(ctx, id, queue)
		}(i, queue)
	}
	wg.Wait()

	logger.Info("Carrier feed processor stopped")
	return nil
}

func (p *Processor) Stats() FeedStats {
	return p.stats.Snapshot()
}

func (p *Processor) worker(ctx context.Context, id int, queue <-chan *CarrierUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-queue:
			p.process(ctx, id, u)
		}
	}
}

func (p *Processor) process(ctx context.Context, worker int, u *CarrierUpdate) {
	start := p.now()
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	result, err := p.upserter.Upsert(ctx, nil, u.ToUpsertRequest())
	if err != nil {
		code := appErrors.CodeOf(err)
		invalid := code == appErrors.CodeValidation || code == appErrors.CodeInvalidStatus
		logger.Error("Carrier feed upsert failed",
			zap.Int("worker", worker),
			zap.String("shipment_id", u.ShipmentID),
			zap.String("carrier_id", u.CarrierID),
			zap.Bool("invalid", invalid),
			zap.Error(err),
		)
		if invalid {
			p.stats.Update(func(s *FeedStats) { s.MessagesInvalid++ })
			p.metrics.RecordFeedMessage("invalid")
			return
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		p.stats.Update(func(s *FeedStats) { s.MessagesFailed++ })
		p.metrics.RecordFeedMessage("error")
		return
	}

	elapsed := p.now().Sub(start)
	p.stats.Update(func(s *FeedStats) {
		s.observe(elapsed, p.now())
		if result.StatusChanged {
			s.StatusChanges++
		}
	})
	p.metrics.RecordFeedMessage("ok")
}

func (p *Processor) shard(shipmentID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(shipmentID))
	return int(h.Sum32() % uint32(len(p.queues)))
}
