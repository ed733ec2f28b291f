package purchases

import (
	"net/http"
	"testing"

	"github.com/prog-daiki/codeDot-backend/pkg/auth"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/prog-daiki/codeDot-backend/pkg/testutils"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buyer = &auth.User{ID: "u1", Email: "u1@example.com"}

func TestHandlerCheckout(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := &handler{purchaseService: f.svc, checkout: f.checkout}
	course := f.course(t, pointerutil.Int(1500))

	c, rr := testutils.NewContext(t, http.MethodPost, "/", "", buyer)
	testutils.SetParams(c, "/courses/:id/checkout", "id", course.ID)
	require.NoError(t, h.checkoutPaid(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var got CheckoutResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "https://checkout.example.com/cs_1", got.URL)
	assert.Equal(t, "u1@example.com", f.processor.Customers()[0].Email)
}

func TestHandlerCheckoutFreeThenList(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := &handler{purchaseService: f.svc, checkout: f.checkout}
	course := f.course(t, pointerutil.Int(0))

	c, rr := testutils.NewContext(t, http.MethodPost, "/", "", buyer)
	testutils.SetParams(c, "/courses/:id/checkout/free", "id", course.ID)
	require.NoError(t, h.checkoutFree(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	c, rr = testutils.NewContext(t, http.MethodGet, "/courses/purchased", "", buyer)
	require.NoError(t, h.listPurchased(c))

	var got []*models.Course
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, course.ID, got[0].ID)
}

func TestHandlers_RequireUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := &handler{purchaseService: f.svc, checkout: f.checkout}

	c, _ := testutils.NewContext(t, http.MethodGet, "/courses/purchased", "", nil)
	requireCode(t, h.listPurchased(c), errcodes.CodeUnauthorized)
}
