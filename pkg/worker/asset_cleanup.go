package worker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/robinjoseph08/golib/logger"
)

// ProcessAssetCleanupJob deletes an external video asset whose deletion
// failed during a request. Deleting an asset that is already gone succeeds.
func (w *Worker) ProcessAssetCleanupJob(ctx context.Context, job *models.Job) error {
	if err := job.UnmarshalData(); err != nil {
		return err
	}
	data, ok := job.DataParsed.(*models.JobAssetCleanupData)
	if !ok || data.AssetID == "" {
		return errors.New("asset cleanup job has no asset id")
	}

	if err := w.host.DeleteAsset(ctx, data.AssetID); err != nil {
		return errors.Wrapf(err, "failed to delete asset %s", data.AssetID)
	}

	logger.FromContext(ctx).Info("deleted video asset", logger.Data{
		"asset_id": data.AssetID,
		"reason":   data.Reason,
	})
	return nil
}
