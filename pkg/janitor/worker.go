package janitor

import (
	"context"
	"errors"

	"com.aviebrantz.studio-site/pkg/core/store/files"
	"com.aviebrantz.studio-site/pkg/metrics"
	"github.com/apex/log"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"gocloud.dev/pubsub"
)

type FileDeleter interface {
	Delete(ctx context.Context, id string) error
}

// Worker retries deletes of orphaned files until the store confirms
// they are gone.
type Worker struct {
	sub    *pubsub.Subscription
	files  FileDeleter
	logger *log.Entry
}

func NewWorker(sub *pubsub.Subscription, files FileDeleter) *Worker {
	return &Worker{
		sub:    sub,
		files:  files,
		logger: log.WithField("module", "orphan-janitor"),
	}
}

// Run receives until ctx is done or the subscription shuts down.
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.sub.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		w.handle(ctx, msg)
	}
}

func (w *Worker) handle(ctx context.Context, msg *pubsub.Message) {
	if msg.Metadata[metadataKind] != kindOrphan {
		w.logger.Warnf("dropping unknown message kind %q", msg.Metadata[metadataKind])
		msg.Ack()
		return
	}

	orphan, err := decodeOrphan(msg.Body)
	if err != nil || orphan.FileID == "" {
		w.logger.Warnf("Invalid msg format :%v", err)
		// Drop msg
		msg.Ack()
		return
	}

	logger := w.logger.WithFields(log.Fields{
		"file":    orphan.FileID,
		"project": orphan.ProjectID,
	})

	err = w.files.Delete(ctx, orphan.FileID)
	switch {
	case err == nil:
		logger.Info("orphaned file deleted")
		recordRetry(ctx, "deleted")
		msg.Ack()
	case errors.Is(err, files.ErrNotFound):
		logger.Info("orphaned file already gone")
		recordRetry(ctx, "missing")
		msg.Ack()
	default:
		logger.Errorf("err deleting orphaned file: %v", err)
		recordRetry(ctx, "failed")
		if msg.Nackable() {
			msg.Nack()
		}
	}
}

func recordRetry(ctx context.Context, result string) {
	ctx, err := tag.New(ctx, tag.Insert(metrics.KeyResult, result))
	if err != nil {
		return
	}
	stats.Record(ctx, metrics.MJanitorRetries.M(1))
}
