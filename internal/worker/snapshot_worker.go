package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/paperforge/paperforge-backend/internal/block"
	"github.com/paperforge/paperforge-backend/internal/config"
	"github.com/paperforge/paperforge-backend/internal/document"
	"github.com/paperforge/paperforge-backend/internal/repository"
)

// SnapshotWorker consumes the snapshot queues and refreshes the derived
// plain-text columns used for search. Snapshots are extracted from the
// stored rich documents and never written back into them.
type SnapshotWorker struct {
	pool   *pgxpool.Pool
	papers *repository.PaperRepository
	blocks *repository.PaperBlockRepository
	rdb    *redis.Client
	log    zerolog.Logger
}

// NewSnapshotWorker creates a new SnapshotWorker.
func NewSnapshotWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		pool:   pool,
		papers: repository.NewPaperRepository(pool),
		blocks: repository.NewPaperBlockRepository(pool),
		rdb:    rdb,
		log:    log.With().Str("component", "snapshot_worker").Logger(),
	}
}

type paperSnapshotPayload struct {
	PaperID int64 `json:"paper_id"`
}

type blockSnapshotPayload struct {
	BlockID int64 `json:"block_id"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *SnapshotWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SnapshotWorker) processNext(ctx context.Context) {
	// BLPop blocks on both queues until an item is available or timeout.
	result, err := w.rdb.BLPop(ctx, time.Second,
		config.WorkerKey.PaperSnapshotQueue,
		config.WorkerKey.BlockSnapshotQueue,
	).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}
	queue, raw := result[0], result[1]

	if err := w.process(ctx, queue, raw); err != nil {
		w.log.Error().Err(err).Str("queue", queue).Msg("Snapshot error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, queue, raw)
		time.Sleep(5 * time.Second)
	}
}

func (w *SnapshotWorker) process(ctx context.Context, queue, raw string) error {
	switch queue {
	case config.WorkerKey.PaperSnapshotQueue:
		var payload paperSnapshotPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			w.log.Error().Err(err).Msg("Unmarshal error")
			return nil // Poison message; drop instead of retrying forever.
		}
		return w.snapshotPaper(ctx, payload.PaperID)
	case config.WorkerKey.BlockSnapshotQueue:
		var payload blockSnapshotPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			w.log.Error().Err(err).Msg("Unmarshal error")
			return nil
		}
		return w.snapshotBlock(ctx, payload.BlockID)
	}
	return nil
}

// snapshotPaper recomputes a paper's plain-text column from its stored
// content tree. A missing paper is fine: it was deleted after enqueue.
func (w *SnapshotWorker) snapshotPaper(ctx context.Context, paperID int64) error {
	var contentDoc []byte
	err := w.pool.QueryRow(ctx,
		`SELECT content_doc FROM papers WHERE id = $1`, paperID,
	).Scan(&contentDoc)
	if err != nil {
		w.log.Debug().Int64("paper_id", paperID).Msg("Paper gone before snapshot")
		return nil
	}

	doc, err := document.Parse(contentDoc)
	if err != nil {
		w.log.Error().Err(err).Int64("paper_id", paperID).Msg("Stored document failed to parse")
		return nil
	}

	return w.papers.UpdatePlainText(ctx, paperID, document.PlainText(doc))
}

// snapshotBlock recomputes a block's plain-text column from its stored
// question sub-document.
func (w *SnapshotWorker) snapshotBlock(ctx context.Context, blockID int64) error {
	var blockDoc []byte
	err := w.pool.QueryRow(ctx,
		`SELECT block_doc FROM paper_blocks WHERE id = $1`, blockID,
	).Scan(&blockDoc)
	if err != nil {
		w.log.Debug().Int64("block_id", blockID).Msg("Block gone before snapshot")
		return nil
	}

	var doc block.Doc
	if err := json.Unmarshal(blockDoc, &doc); err != nil {
		w.log.Error().Err(err).Int64("block_id", blockID).Msg("Stored block doc failed to parse")
		return nil
	}

	return w.blocks.UpdatePlainText(ctx, blockID, doc.PlainText())
}

// drain processes all remaining items in both queues before shutdown.
func (w *SnapshotWorker) drain(ctx context.Context) {
	drained := 0
	for _, queue := range []string{config.WorkerKey.PaperSnapshotQueue, config.WorkerKey.BlockSnapshotQueue} {
		for {
			raw, err := w.rdb.LPop(ctx, queue).Result()
			if err != nil {
				break
			}
			if err := w.process(ctx, queue, raw); err != nil {
				w.log.Error().Err(err).Msg("Drain snapshot error")
				w.rdb.RPush(ctx, queue, raw)
				break
			}
			drained++
		}
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
