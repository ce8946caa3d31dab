package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"cheffnex/internal/events"
	"cheffnex/internal/middleware"
	"cheffnex/internal/models"
	"cheffnex/internal/repository"
)

type fakeBoard struct {
	orders     map[primitive.ObjectID]models.OrderWithItems
	lastFilter repository.ListFilter
	summary    repository.Summary
	from, to   time.Time
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{orders: map[primitive.ObjectID]models.OrderWithItems{}}
}

func (b *fakeBoard) add(restaurantID primitive.ObjectID, status models.OrderStatus, phone string) models.Order {
	order := models.Order{
		ID:           primitive.NewObjectID(),
		RestaurantID: restaurantID,
		CustomerName: "Ana",
		Status:       status,
		TotalAmount:  30,
		CreatedAt:    time.Now(),
	}
	if phone != "" {
		order.CustomerPhone = &phone
	}
	b.orders[order.ID] = models.OrderWithItems{Order: order}
	return order
}

func (b *fakeBoard) List(_ context.Context, restaurantID primitive.ObjectID, f repository.ListFilter) ([]models.OrderWithItems, int64, error) {
	b.lastFilter = f
	out := make([]models.OrderWithItems, 0)
	for _, o := range b.orders {
		if o.RestaurantID == restaurantID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (b *fakeBoard) Get(_ context.Context, restaurantID, id primitive.ObjectID) (models.OrderWithItems, error) {
	o, ok := b.orders[id]
	if !ok || o.RestaurantID != restaurantID {
		return models.OrderWithItems{}, repository.ErrNotFound
	}
	return o, nil
}

func (b *fakeBoard) UpdateStatus(ctx context.Context, restaurantID, id primitive.ObjectID, next models.OrderStatus) (models.Order, error) {
	o, err := b.Get(ctx, restaurantID, id)
	if err != nil {
		return models.Order{}, err
	}
	if !o.Status.CanTransition(next) {
		return models.Order{}, repository.ErrInvalidTransition
	}
	o.Status = next
	b.orders[id] = o
	return o.Order, nil
}

func (b *fakeBoard) Delete(ctx context.Context, restaurantID, id primitive.ObjectID) error {
	if _, err := b.Get(ctx, restaurantID, id); err != nil {
		return err
	}
	delete(b.orders, id)
	return nil
}

func (b *fakeBoard) Summary(_ context.Context, _ primitive.ObjectID, from, to time.Time) (repository.Summary, error) {
	b.from, b.to = from, to
	return b.summary, nil
}

type fakeStaff struct {
	members []models.Staff
}

func (s *fakeStaff) ByEmail(_ context.Context, email string) (models.Staff, error) {
	for _, m := range s.members {
		if m.Email == email {
			return m, nil
		}
	}
	return models.Staff{}, repository.ErrNotFound
}

func (s *fakeStaff) List(_ context.Context, restaurantID primitive.ObjectID, role string) ([]models.Staff, error) {
	out := make([]models.Staff, 0)
	for _, m := range s.members {
		if m.RestaurantID == restaurantID && m.Role == role {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStaff) Count(ctx context.Context, restaurantID primitive.ObjectID, role string) (int64, error) {
	list, _ := s.List(ctx, restaurantID, role)
	return int64(len(list)), nil
}

func (s *fakeStaff) Create(_ context.Context, member *models.Staff) error {
	for _, m := range s.members {
		if m.Email == member.Email {
			return repository.ErrDuplicate
		}
	}
	member.ID = primitive.NewObjectID()
	s.members = append(s.members, *member)
	return nil
}

func (s *fakeStaff) Delete(_ context.Context, restaurantID, id primitive.ObjectID, role string) error {
	for i, m := range s.members {
		if m.ID == id && m.RestaurantID == restaurantID && m.Role == role {
			s.members = append(s.members[:i], s.members[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeExpenses struct {
	total float64
}

func (e *fakeExpenses) List(context.Context, primitive.ObjectID, time.Time, time.Time) ([]models.Expense, error) {
	return []models.Expense{}, nil
}
func (e *fakeExpenses) Create(_ context.Context, expense *models.Expense) error {
	expense.ID = primitive.NewObjectID()
	return nil
}
func (e *fakeExpenses) Delete(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}
func (e *fakeExpenses) Total(context.Context, primitive.ObjectID, time.Time, time.Time) (float64, error) {
	return e.total, nil
}

type adminFixture struct {
	restaurantID primitive.ObjectID
	board        *fakeBoard
	staff        *fakeStaff
	expenses     *fakeExpenses
	events       *recordedEvents
	maxWaiters   int
}

func newAdminFixture() *adminFixture {
	return &adminFixture{
		restaurantID: primitive.NewObjectID(),
		board:        newFakeBoard(),
		staff:        &fakeStaff{},
		expenses:     &fakeExpenses{},
		events:       &recordedEvents{},
		maxWaiters:   2,
	}
}

func (f *adminFixture) router() *gin.Engine {
	r := gin.New()
	r.POST("/admin/login", StaffLogin(f.staff, testSecret, time.Hour))

	admin := r.Group("/admin/api")
	admin.Use(middleware.StaffAuth(testSecret))
	admin.GET("/orders", GetOrders(f.board))
	admin.GET("/orders/:id", GetOrder(f.board))
	admin.PATCH("/orders/:id/status", UpdateOrderStatus(f.board, f.events))
	admin.GET("/orders/:id/notify", OrderNotifyLink(f.board))
	admin.DELETE("/orders/:id", DeleteOrder(f.board, f.events))
	admin.GET("/reports/summary", ReportSummary(f.board, f.expenses))

	owner := admin.Group("")
	owner.Use(middleware.RequireRole(models.RoleOwner))
	owner.GET("/waiters", GetWaiters(f.staff))
	owner.POST("/waiters", CreateWaiter(f.staff, f.maxWaiters))
	owner.DELETE("/waiters/:id", DeleteWaiter(f.staff))
	return r
}

func (f *adminFixture) auth(t *testing.T, role string) []string {
	token, _ := staffToken(t, f.restaurantID, role)
	return []string{"Authorization", "Bearer " + token}
}

func TestStaffLogin(t *testing.T) {
	f := newAdminFixture()
	hash, err := bcrypt.GenerateFromPassword([]byte("segredo1"), bcrypt.MinCost)
	require.NoError(t, err)
	f.staff.members = append(f.staff.members, models.Staff{
		ID:           primitive.NewObjectID(),
		RestaurantID: f.restaurantID,
		Email:        "dono@cheffnex.test",
		PasswordHash: string(hash),
		Role:         models.RoleOwner,
	})
	r := f.router()

	w := doJSON(t, r, http.MethodPost, "/admin/login", gin.H{"email": "Dono@Cheffnex.test", "password": "segredo1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, f.restaurantID.Hex(), body["restaurantId"])

	w = doJSON(t, r, http.MethodGet, "/admin/api/orders", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/admin/login", gin.H{"email": "dono@cheffnex.test", "password": "errada"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/admin/login", gin.H{"email": "ninguem@cheffnex.test", "password": "segredo1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	f := newAdminFixture()
	r := f.router()

	w := doJSON(t, r, http.MethodGet, "/admin/api/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/admin/api/waiters", nil, f.auth(t, models.RoleWaiter)...)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetOrdersParsesFilters(t *testing.T) {
	f := newAdminFixture()
	f.board.add(f.restaurantID, models.OrderStatusNew, "")
	f.board.add(primitive.NewObjectID(), models.OrderStatusNew, "")
	r := f.router()

	w := doJSON(t, r, http.MethodGet, "/admin/api/orders?status=new,%20Preparing&page=2&limit=500", nil, f.auth(t, models.RoleWaiter)...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []models.OrderStatus{models.OrderStatusNew, models.OrderStatusPreparing}, f.board.lastFilter.Statuses)
	assert.Equal(t, 2, f.board.lastFilter.Page)
	assert.Equal(t, maxPageSize, f.board.lastFilter.Limit)
	body := decode[map[string]any](t, w)
	assert.Equal(t, float64(1), body["total"])

	w = doJSON(t, r, http.MethodGet, "/admin/api/orders?status=LOST", nil, f.auth(t, models.RoleWaiter)...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/admin/api/orders?page=0", nil, f.auth(t, models.RoleWaiter)...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newAdminFixture()
	order := f.board.add(f.restaurantID, models.OrderStatusNew, "")
	foreign := f.board.add(primitive.NewObjectID(), models.OrderStatusNew, "")
	r := f.router()
	auth := f.auth(t, models.RoleWaiter)

	w := doJSON(t, r, http.MethodPatch, "/admin/api/orders/"+order.ID.Hex()+"/status", gin.H{"status": "DISPATCHED"}, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "DISPATCHED", decode[map[string]any](t, w)["status"])
	assert.Equal(t, []events.Type{events.OrderStatusChanged}, f.events.types())

	w = doJSON(t, r, http.MethodPatch, "/admin/api/orders/"+order.ID.Hex()+"/status", gin.H{"status": "DISPATCHED"}, auth...)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/admin/api/orders/"+order.ID.Hex()+"/status", gin.H{"status": "COMPLETED"}, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPatch, "/admin/api/orders/"+order.ID.Hex()+"/status", gin.H{"status": "NEW"}, auth...)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/admin/api/orders/"+order.ID.Hex()+"/status", gin.H{"status": "LOST"}, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/admin/api/orders/"+foreign.ID.Hex()+"/status", gin.H{"status": "PREPARING"}, auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteOrderPublishes(t *testing.T) {
	f := newAdminFixture()
	order := f.board.add(f.restaurantID, models.OrderStatusNew, "")
	r := f.router()
	auth := f.auth(t, models.RoleOwner)

	w := doJSON(t, r, http.MethodDelete, "/admin/api/orders/"+order.ID.Hex(), nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []events.Type{events.OrderDeleted}, f.events.types())

	w = doJSON(t, r, http.MethodDelete, "/admin/api/orders/"+order.ID.Hex(), nil, auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderNotifyLink(t *testing.T) {
	f := newAdminFixture()
	dispatched := f.board.add(f.restaurantID, models.OrderStatusDispatched, "(11) 99999-8888")
	completed := f.board.add(f.restaurantID, models.OrderStatusCompleted, "11999998888")
	preparing := f.board.add(f.restaurantID, models.OrderStatusPreparing, "11999998888")
	noPhone := f.board.add(f.restaurantID, models.OrderStatusDispatched, "")
	r := f.router()
	auth := f.auth(t, models.RoleWaiter)

	w := doJSON(t, r, http.MethodGet, "/admin/api/orders/"+dispatched.ID.Hex()+"/notify", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]string](t, w)
	assert.Equal(t, "Ola Ana! Seu pedido saiu para entrega!", body["message"])
	assert.Equal(t, "https://wa.me/11999998888?text=Ola%20Ana!%20Seu%20pedido%20saiu%20para%20entrega!", body["link"])

	w = doJSON(t, r, http.MethodGet, "/admin/api/orders/"+completed.ID.Hex()+"/notify", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ola Ana! Seu pedido esta pronto!", decode[map[string]string](t, w)["message"])

	w = doJSON(t, r, http.MethodGet, "/admin/api/orders/"+preparing.ID.Hex()+"/notify", nil, auth...)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, http.MethodGet, "/admin/api/orders/"+noPhone.ID.Hex()+"/notify", nil, auth...)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreateWaiterRespectsLimit(t *testing.T) {
	f := newAdminFixture()
	r := f.router()
	auth := f.auth(t, models.RoleOwner)

	for _, email := range []string{"a@cheffnex.test", "b@cheffnex.test"} {
		w := doJSON(t, r, http.MethodPost, "/admin/api/waiters", gin.H{"email": email, "password": "segredo1", "fullName": "Garcom"}, auth...)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.NotContains(t, w.Body.String(), "passwordHash")
	}

	w := doJSON(t, r, http.MethodPost, "/admin/api/waiters", gin.H{"email": "c@cheffnex.test", "password": "segredo1", "fullName": "Garcom"}, auth...)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/admin/api/waiters", gin.H{"email": "not-an-email", "password": "segredo1", "fullName": "Garcom"}, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/admin/api/waiters", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string][]models.Staff](t, w)
	assert.Len(t, body["data"], 2)
}

func TestDeleteWaiterRefusesSelf(t *testing.T) {
	f := newAdminFixture()
	r := f.router()
	token, selfID := staffToken(t, f.restaurantID, models.RoleOwner)

	w := doJSON(t, r, http.MethodDelete, "/admin/api/waiters/"+selfID.Hex(), nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/admin/api/waiters/"+primitive.NewObjectID().Hex(), nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportSummaryRange(t *testing.T) {
	f := newAdminFixture()
	f.board.summary = repository.Summary{Orders: 3, Revenue: 90}
	f.expenses.total = 25
	r := f.router()
	auth := f.auth(t, models.RoleOwner)

	w := doJSON(t, r, http.MethodGet, "/admin/api/reports/summary?from=2026-03-01&to=2026-03-31", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, "2026-03-01", body["from"])
	assert.Equal(t, "2026-03-31", body["to"])
	assert.Equal(t, 65.0, body["profit"])
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), f.board.to)

	w = doJSON(t, r, http.MethodGet, "/admin/api/reports/summary?from=2026-03-10&to=2026-03-01", nil, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/admin/api/reports/summary?from=march", nil, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportRangeDefaultsToCurrentMonth(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/api/reports/summary", nil)

	from, to, err := reportRange(c, time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), to)
}
