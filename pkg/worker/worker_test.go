package worker

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/config"
	"github.com/prog-daiki/codeDot-backend/pkg/joblogs"
	"github.com/prog-daiki/codeDot-backend/pkg/jobs"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/prog-daiki/codeDot-backend/pkg/testutils"
	"github.com/prog-daiki/codeDot-backend/pkg/videoassets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testContext struct {
	ctx           context.Context
	worker        *Worker
	host          *videoassets.FakeHost
	jobService    *jobs.Service
	jobLogService *joblogs.Service
}

func newTestContext(t *testing.T) *testContext {
	t.Helper()
	db := testutils.NewTestDB(t)
	host := videoassets.NewFakeHost()
	return &testContext{
		ctx:           context.Background(),
		worker:        New(config.NewForTest(), db, host),
		host:          host,
		jobService:    jobs.NewService(db),
		jobLogService: joblogs.NewService(db),
	}
}

func (tc *testContext) reload(t *testing.T, id int) *models.Job {
	t.Helper()
	job, err := tc.jobService.RetrieveJob(tc.ctx, jobs.RetrieveJobOptions{ID: &id})
	require.NoError(t, err)
	return job
}

func TestRunJob_AssetCleanup(t *testing.T) {
	t.Parallel()
	tc := newTestContext(t)

	job, err := tc.jobService.EnqueueAssetCleanup(tc.ctx, "asset-9", "chapter deleted")
	require.NoError(t, err)

	tc.worker.runJob(job)

	got := tc.reload(t, job.ID)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Nil(t, got.ProcessID)
	assert.Equal(t, []string{"asset-9"}, tc.host.Deleted())
}

func TestRunJob_RetriesUntilMaxAttempts(t *testing.T) {
	t.Parallel()
	tc := newTestContext(t)
	tc.host.DeleteErr = errors.New("host down")

	job, err := tc.jobService.EnqueueAssetCleanup(tc.ctx, "asset-9", "chapter deleted")
	require.NoError(t, err)

	for i := 1; i < MaxAttempts; i++ {
		tc.worker.runJob(tc.reload(t, job.ID))
		got := tc.reload(t, job.ID)
		assert.Equal(t, models.JobStatusPending, got.Status)
		assert.Equal(t, i, got.Attempts)
		assert.Nil(t, got.ProcessID)
		require.NotNil(t, got.LastError)
		assert.Contains(t, *got.LastError, "host down")
	}

	tc.worker.runJob(tc.reload(t, job.ID))
	got := tc.reload(t, job.ID)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, MaxAttempts, got.Attempts)
}

func TestRunJob_UnknownType(t *testing.T) {
	t.Parallel()
	tc := newTestContext(t)

	job := &models.Job{Type: "mystery", Data: "{}"}
	require.NoError(t, tc.jobService.CreateJob(tc.ctx, job))

	tc.worker.runJob(job)

	got := tc.reload(t, job.ID)
	assert.Equal(t, models.JobStatusPending, got.Status)
	assert.Equal(t, 1, got.Attempts)
}

func TestStartAndShutdown(t *testing.T) {
	t.Parallel()
	tc := newTestContext(t)
	tc.worker.interval = 10 * time.Millisecond

	job, err := tc.jobService.EnqueueAssetCleanup(tc.ctx, "asset-3", "course deleted")
	require.NoError(t, err)

	tc.worker.Start()
	assert.Eventually(t, func() bool {
		got, err := tc.jobService.RetrieveJob(tc.ctx, jobs.RetrieveJobOptions{ID: &job.ID})
		return err == nil && got.Status == models.JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
	tc.worker.Shutdown()

	assert.Contains(t, tc.host.Deleted(), "asset-3")
}

func TestRunJob_WritesJobLogs(t *testing.T) {
	t.Parallel()
	tc := newTestContext(t)
	tc.host.DeleteErr = errors.New("host down")

	job, err := tc.jobService.EnqueueAssetCleanup(tc.ctx, "asset-9", "chapter deleted")
	require.NoError(t, err)

	tc.worker.runJob(tc.reload(t, job.ID))
	tc.host.DeleteErr = nil
	tc.worker.runJob(tc.reload(t, job.ID))

	logs, err := tc.jobLogService.ListJobLogs(tc.ctx, joblogs.ListJobLogsOptions{JobID: &job.ID})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.JobLogLevelWarn, logs[0].Level)
	require.NotNil(t, logs[0].Data)
	assert.Contains(t, *logs[0].Data, "host down")
	assert.Equal(t, models.JobLogLevelInfo, logs[1].Level)
	for _, l := range logs {
		require.NotNil(t, l.AssetID)
		assert.Equal(t, "asset-9", *l.AssetID)
	}

	warnings, err := tc.jobLogService.ListJobLogs(tc.ctx, joblogs.ListJobLogsOptions{
		JobID:  &job.ID,
		Levels: []string{models.JobLogLevelWarn},
	})
	require.NoError(t, err)
	assert.Len(t, warnings, 1)

	after, err := tc.jobLogService.ListJobLogs(tc.ctx, joblogs.ListJobLogsOptions{JobID: &job.ID, AfterID: &logs[0].ID})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, logs[1].ID, after[0].ID)
}
