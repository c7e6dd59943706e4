package workorderserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	womemory "github.com/Apurer/go-gin-workorders/internal/domains/workorders/adapters/memory"
	woapp "github.com/Apurer/go-gin-workorders/internal/domains/workorders/application"
	apierrors "github.com/Apurer/go-gin-workorders/internal/shared/errors"
)

type testActor struct {
	id   string
	role string
}

var (
	carla  = testActor{"carla", "contractor"}
	alice  = testActor{"alice", "technician"}
	bob    = testActor{"bob", "technician"}
	connie = testActor{"connie", "consultant"}
	sam    = testActor{"sam", "supplier"}
)

type workOrderBody struct {
	ID             string   `json:"id"`
	Status         string   `json:"status"`
	AcceptedBy     string   `json:"accepted_by"`
	AllowedActions []string `json:"allowed_actions"`
	Version        int64    `json:"version"`
	Quote          struct {
		Subtotal string `json:"subtotal"`
		Tax      string `json:"tax"`
		Total    string `json:"total"`
	} `json:"quote"`
	Referral *struct {
		SupplyItem string `json:"supply_item"`
	} `json:"referral"`
	ConsultantApproval *struct {
		ConsultantIdentity string `json:"consultant_identity"`
	} `json:"consultant_approval"`
	SupplierApproval *struct {
		SupplierIdentity string `json:"supplier_identity"`
	} `json:"supplier_approval"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service := woapp.NewService(womemory.NewRepository())
	router := gin.New()
	return NewRouterWithGinEngine(router, ApiHandleFunctions{WorkOrderAPI: NewWorkOrderAPI(service)})
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, actor *testActor, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set(HeaderActorID, actor.id)
		req.Header.Set(HeaderActorRole, actor.role)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) workOrderBody {
	t.Helper()
	var out workOrderBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) apierrors.ProblemDetail {
	t.Helper()
	require.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem), rec.Body.String())
	return problem
}

func createOrder(t *testing.T, router *gin.Engine) workOrderBody {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/v1/work-orders", &carla, map[string]any{
		"customer": map[string]any{"name": "Jane Doe", "phone": "555-0100"},
		"vehicle":  map[string]any{"make": "Honda", "model": "Civic", "year": 2019},
		"activity": map[string]any{"type": "repair", "description": "Front bumper damage"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeOrder(t, rec)
}

func TestPingIsPublic(t *testing.T) {
	router := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/ping", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingActorHeadersAreUnauthorized(t *testing.T) {
	router := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/v1/work-orders", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, apierrors.TypeUnauthorized, decodeProblem(t, rec).Type)

	rec = doRequest(t, router, http.MethodGet, "/v1/work-orders", &testActor{"mallory", "janitor"}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateWorkOrder(t *testing.T) {
	router := newTestRouter(t)
	created := createOrder(t, router)

	require.NotEmpty(t, created.ID)
	require.Equal(t, "pending", created.Status)
	require.Equal(t, int64(1), created.Version)
	require.Equal(t, "0.00", created.Quote.Total)
	require.Equal(t, []string{"cancel"}, created.AllowedActions)
}

func TestCreateWorkOrderRejectsTechnician(t *testing.T) {
	router := newTestRouter(t)
	rec := doRequest(t, router, http.MethodPost, "/v1/work-orders", &alice, map[string]any{
		"customer": map[string]any{"name": "Jane", "phone": "1"},
		"vehicle":  map[string]any{"make": "Honda", "model": "Civic"},
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, apierrors.TypeForbidden, decodeProblem(t, rec).Type)
}

func TestCreateWorkOrderValidation(t *testing.T) {
	router := newTestRouter(t)
	rec := doRequest(t, router, http.MethodPost, "/v1/work-orders", &carla, map[string]any{
		"customer": map[string]any{"phone": "1"},
		"vehicle":  map[string]any{"make": "Honda", "model": "Civic"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, apierrors.TypeValidation, decodeProblem(t, rec).Type)
}

func TestMalformedJSONIsBadRequest(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/work-orders", bytes.NewBufferString("{"))
	req.Header.Set(HeaderActorID, carla.id)
	req.Header.Set(HeaderActorRole, carla.role)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, apierrors.TypeBadRequest, decodeProblem(t, rec).Type)
}

func TestGetWorkOrderNotFound(t *testing.T) {
	router := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/v1/work-orders/missing", &alice, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, apierrors.TypeNotFound, decodeProblem(t, rec).Type)
}

func TestFullReferralChainOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	order := createOrder(t, router)
	base := "/v1/work-orders/" + order.ID

	rec := doRequest(t, router, http.MethodPut, base+"/status", &bob, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accepted := decodeOrder(t, rec)
	require.Equal(t, "in_progress", accepted.Status)
	require.Equal(t, "bob", accepted.AcceptedBy)
	require.Equal(t, []string{"refer", "complete"}, accepted.AllowedActions)

	rec = doRequest(t, router, http.MethodPost, base+"/items", &bob, map[string]any{
		"kind": "part", "description": "Oil Filter", "quantity": 2, "unit_price": "12.50",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	priced := decodeOrder(t, rec)
	require.Equal(t, "25.00", priced.Quote.Subtotal)
	require.Equal(t, "3.00", priced.Quote.Tax)
	require.Equal(t, "28.00", priced.Quote.Total)

	rec = doRequest(t, router, http.MethodPut, base+"/refer", &bob, map[string]string{"supply_item": "Front Bumper"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	referred := decodeOrder(t, rec)
	require.Equal(t, "referred_consultant", referred.Status)
	require.Equal(t, "Front Bumper", referred.Referral.SupplyItem)

	rec = doRequest(t, router, http.MethodPost, base+"/items", &bob, map[string]any{
		"description": "Wiper", "quantity": 1, "unit_price": 5,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, apierrors.TypeOrderLocked, decodeProblem(t, rec).Type)

	rec = doRequest(t, router, http.MethodPut, base+"/approve", &sam, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, apierrors.TypeInvalidTransition, decodeProblem(t, rec).Type)

	rec = doRequest(t, router, http.MethodPut, base+"/approve", &connie, map[string]string{"decision": "approve"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	forwarded := decodeOrder(t, rec)
	require.Equal(t, "referred_supplier", forwarded.Status)
	require.Equal(t, "connie", forwarded.ConsultantApproval.ConsultantIdentity)

	rec = doRequest(t, router, http.MethodPut, base+"/approve", &sam, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	supplied := decodeOrder(t, rec)
	require.Equal(t, "supplier_approved", supplied.Status)
	require.Equal(t, "sam", supplied.SupplierApproval.SupplierIdentity)

	rec = doRequest(t, router, http.MethodPut, base+"/status", &bob, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	completed := decodeOrder(t, rec)
	require.Equal(t, "completed", completed.Status)
	require.Nil(t, completed.Referral)
	require.Empty(t, completed.AllowedActions)
}

func TestApproveWithEmptyChunkedBodyDefaultsToApprove(t *testing.T) {
	router := newTestRouter(t)
	order := createOrder(t, router)
	base := "/v1/work-orders/" + order.ID
	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodPut, base+"/status", &bob, map[string]string{"status": "in_progress"}).Code)
	require.Equal(t, http.StatusOK, doRequest(t, router, http.MethodPut, base+"/refer", &bob, map[string]string{"supply_item": "Front Bumper"}).Code)

	req := httptest.NewRequest(http.MethodPut, base+"/approve", strings.NewReader(""))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderActorID, connie.id)
	req.Header.Set(HeaderActorRole, connie.role)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "referred_supplier", decodeOrder(t, rec).Status)

	rec = doRequest(t, router, http.MethodPut, base+"/approve", &sam, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodPut, base+"/approve", strings.NewReader("{"))
	req.Header.Set(HeaderActorID, sam.id)
	req.Header.Set(HeaderActorRole, sam.role)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSecondAcceptIsAlreadyClaimed(t *testing.T) {
	router := newTestRouter(t)
	order := createOrder(t, router)
	path := "/v1/work-orders/" + order.ID + "/status"

	rec := doRequest(t, router, http.MethodPut, path, &alice, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPut, path, &bob, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, apierrors.TypeAlreadyClaimed, decodeProblem(t, rec).Type)
}

func TestUpdateStatusRejectsUnreachableTargets(t *testing.T) {
	router := newTestRouter(t)
	order := createOrder(t, router)
	rec := doRequest(t, router, http.MethodPut, "/v1/work-orders/"+order.ID+"/status", &alice, map[string]string{"status": "supplier_approved"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, apierrors.TypeValidation, decodeProblem(t, rec).Type)
}

func TestListWorkOrdersFilters(t *testing.T) {
	router := newTestRouter(t)
	first := createOrder(t, router)
	createOrder(t, router)

	rec := doRequest(t, router, http.MethodPut, "/v1/work-orders/"+first.ID+"/status", &alice, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, rec.Code)

	var list []workOrderBody
	rec = doRequest(t, router, http.MethodGet, "/v1/work-orders?status=pending", &bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = doRequest(t, router, http.MethodGet, "/v1/work-orders?accepted_by=alice", &alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, first.ID, list[0].ID)

	rec = doRequest(t, router, http.MethodGet, "/v1/work-orders", &carla, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)

	rec = doRequest(t, router, http.MethodGet, "/v1/work-orders?status=archived", &carla, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
