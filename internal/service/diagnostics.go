package service

import (
	"context"
	"encoding/json"
	"time"

	"gig-marketplace/internal/model"
	"gig-marketplace/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Webhook pipeline stages recorded by the DiagnosticLogger.
const (
	StageReceived          = "webhook_received"
	StageSignatureVerified = "signature_verified"
	StageSignatureFailed   = "signature_failed"
	StageEventIgnored      = "event_ignored"
	StageMetadataExtracted = "metadata_extracted"
	StageMetadataMissing   = "metadata_missing"
	StageOfferResolved     = "offer_resolved"
	StageOfferNotFound     = "offer_not_found"
	StageOrderInserted     = "order_inserted"
	StageDuplicateDelivery = "duplicate_delivery"
	StageFailed            = "processing_failed"
	StageAcknowledged      = "acknowledged"
)

// DiagnosticLogger appends a timestamped record per webhook stage.
// Log never fails: write errors are reported to zap and dropped.
type DiagnosticLogger interface {
	Log(ctx context.Context, stage string, payload any)
}

type diagnosticLoggerImpl struct {
	webhookLogRepo repository.WebhookLogRepository
	log            *zap.Logger
	now            func() time.Time
}

func NewDiagnosticLogger(webhookLogRepo repository.WebhookLogRepository, log *zap.Logger) DiagnosticLogger {
	return &diagnosticLoggerImpl{
		webhookLogRepo: webhookLogRepo,
		log:            log.Named("webhook_log"),
		now:            time.Now,
	}
}

func (d *diagnosticLoggerImpl) Log(ctx context.Context, stage string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		d.log.Warn("encode diagnostic payload", zap.String("stage", stage), zap.Error(err))
		data = []byte(`{}`)
	}

	d.log.Info(stage, zap.ByteString("data", data))

	// the caller's request may be cancelled right after a failure; the
	// record of that failure should still be written
	err = d.webhookLogRepo.Append(context.WithoutCancel(ctx), &model.WebhookLog{
		Stage:     stage,
		Data:      datatypes.JSON(data),
		Timestamp: d.now(),
	})
	if err != nil {
		d.log.Error("append webhook log", zap.String("stage", stage), zap.Error(err))
	}
}
