package jobs

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/prog-daiki/codeDot-backend/pkg/testutils"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerList_FiltersByStatus(t *testing.T) {
	t.Parallel()
	db := testutils.NewTestDB(t)
	svc := NewService(db)
	h := &handler{jobService: svc}
	ctx := context.Background()

	pending, err := svc.EnqueueAssetCleanup(ctx, "asset-1", "chapter deleted")
	require.NoError(t, err)
	failed, err := svc.EnqueueAssetCleanup(ctx, "asset-2", "course deleted")
	require.NoError(t, err)
	failed.Status = models.JobStatusFailed
	require.NoError(t, svc.UpdateJob(ctx, failed, UpdateJobOptions{Columns: []string{"status"}}))

	c, rr := testutils.NewContext(t, http.MethodGet, "/jobs?status=pending", "", nil)
	require.NoError(t, h.list(c))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Jobs  []*models.Job `json:"jobs"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, pending.ID, resp.Jobs[0].ID)
}

func TestHandlerList_RejectsUnknownStatus(t *testing.T) {
	t.Parallel()
	db := testutils.NewTestDB(t)
	h := &handler{jobService: NewService(db)}

	c, _ := testutils.NewContext(t, http.MethodGet, "/jobs?status=sleeping", "", nil)
	err := h.list(c)

	var codeErr *errcodes.Error
	require.True(t, errors.As(err, &codeErr))
	assert.Equal(t, errcodes.CodeValidation, codeErr.Code)
}

func TestHandlerRetrieve_NonNumericID(t *testing.T) {
	t.Parallel()
	db := testutils.NewTestDB(t)
	h := &handler{jobService: NewService(db)}

	c, _ := testutils.NewContext(t, http.MethodGet, "/jobs/abc", "", nil)
	testutils.SetParams(c, "/jobs/:id", "id", "abc")
	err := h.retrieve(c)

	var codeErr *errcodes.Error
	require.True(t, errors.As(err, &codeErr))
	assert.Equal(t, http.StatusNotFound, codeErr.HTTPCode)
}
