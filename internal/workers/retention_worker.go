package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hanneswrnr/glasschadenmelden/internal/logger"
	"github.com/hanneswrnr/glasschadenmelden/internal/repositories"
	chatRepo "github.com/hanneswrnr/glasschadenmelden/internal/repositories/chat"
	"github.com/hanneswrnr/glasschadenmelden/internal/storage"
)

// RetentionWorker purges chat history of claims whose completion passed the
// retention window. Runs shortly after midnight UTC so the purge lines up
// with the day countdown shown to users.
type RetentionWorker struct {
	claims        *repositories.ClaimRepository
	messages      *chatRepo.MessageRepository
	attachments   *chatRepo.MessageAttachmentRepository
	store         storage.Storage
	retentionDays int

	cron *cron.Cron
}

func NewRetentionWorker(
	claims *repositories.ClaimRepository,
	messages *chatRepo.MessageRepository,
	attachments *chatRepo.MessageAttachmentRepository,
	store storage.Storage,
	retentionDays int,
) *RetentionWorker {
	return &RetentionWorker{
		claims:        claims,
		messages:      messages,
		attachments:   attachments,
		store:         store,
		retentionDays: retentionDays,
		cron:          cron.New(cron.WithLocation(time.UTC)),
	}
}

func (w *RetentionWorker) Start() error {
	if _, err := w.cron.AddFunc("5 0 * * *", w.runOnce); err != nil {
		return err
	}
	w.cron.Start()
	logger.Info("Retention worker started", "retention_days", w.retentionDays)
	return nil
}

func (w *RetentionWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}

func (w *RetentionWorker) runOnce() {
	cutoff := time.Now().UTC().AddDate(0, 0, -w.retentionDays)

	claimIDs, err := w.claims.CompletedBefore(cutoff)
	if err != nil {
		logger.WithError(err).Error("retention: could not list expired claims")
		return
	}
	if len(claimIDs) == 0 {
		return
	}

	logger.Info("Retention purge starting", "claims", len(claimIDs), "cutoff", cutoff)

	for _, claimID := range claimIDs {
		w.purgeClaim(claimID)
	}
}

func (w *RetentionWorker) purgeClaim(claimID string) {
	ctx := context.Background()

	attachments, err := w.attachments.ListByClaim(claimID)
	if err != nil {
		logger.WithError(err).Error("retention: could not list attachments", "claim_id", claimID)
		return
	}

	for _, att := range attachments {
		if err := w.store.Delete(ctx, att.FilePath); err != nil {
			// Orphaned files are cheaper than a stuck purge; log and move on.
			logger.WithError(err).Warn("retention: could not delete stored file",
				"claim_id", claimID, "file_path", att.FilePath)
		}
	}

	if err := w.attachments.DeleteByClaim(claimID); err != nil {
		logger.WithError(err).Error("retention: could not delete attachment records", "claim_id", claimID)
		return
	}

	deleted, err := w.messages.DeleteByClaim(claimID)
	if err != nil {
		logger.WithError(err).Error("retention: could not delete messages", "claim_id", claimID)
		return
	}

	logger.Info("Chat history purged", "claim_id", claimID, "messages", deleted, "files", len(attachments))
}
