package patient

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShubhamKarampure/HealthyTray/internal/domain/meal"
	"github.com/ShubhamKarampure/HealthyTray/internal/domain/staff"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/apperr"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/auth"
)

// -- Mock Repository --

type mockPatientRepo struct {
	mu    sync.Mutex
	store map[uuid.UUID]*Patient
	// assignments maps staff id to the patients whose plans reference them.
	pantry   map[uuid.UUID][]uuid.UUID
	delivery map[uuid.UUID][]uuid.UUID
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{
		store:    make(map[uuid.UUID]*Patient),
		pantry:   make(map[uuid.UUID][]uuid.UUID),
		delivery: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, apperr.NotFound("patient not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[p.ID]; !ok {
		return apperr.NotFound("patient not found")
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return apperr.NotFound("patient not found")
	}
	delete(m.store, id)
	return nil
}

func (m *mockPatientRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.store[id]
	return ok, nil
}

func (m *mockPatientRepo) page(ids []uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Patient
	for _, id := range ids {
		if p, ok := m.store[id]; ok {
			cp := *p
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(m.store))
	for id := range m.store {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	return m.page(ids, limit, offset)
}

func (m *mockPatientRepo) ListByPantryStaff(_ context.Context, staffID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	return m.page(m.pantry[staffID], limit, offset)
}

func (m *mockPatientRepo) ListByDeliveryPersonnel(_ context.Context, staffID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	return m.page(m.delivery[staffID], limit, offset)
}

type fakePlans map[uuid.UUID]*meal.PlanView

func (f fakePlans) PlansForPatients(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*meal.PlanView, error) {
	out := make(map[uuid.UUID]*meal.PlanView)
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// -- Helpers --

func ptr[T any](v T) *T { return &v }

func validInput(name string) Input {
	return Input{
		Name:             ptr(name),
		Diseases:         ptr("Diabetes"),
		Allergies:        ptr("Pollen"),
		RoomNumber:       ptr("101"),
		BedNumber:        ptr("A1"),
		FloorNumber:      ptr(1),
		Age:              ptr(45),
		Gender:           ptr("Male"),
		ContactInfo:      ptr("9876543210"),
		EmergencyContact: ptr("9876123456"),
	}
}

func newTestService() (*Service, *mockPatientRepo) {
	repo := newMockPatientRepo()
	return NewService(repo), repo
}

// -- Tests --

func TestCreatePatient(t *testing.T) {
	svc, _ := newTestService()
	p, err := svc.CreatePatient(context.Background(), validInput("  Aarav Sharma "))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Aarav Sharma", p.Name)
	assert.Equal(t, 45, p.Age)
}

func TestCreatePatient_MissingFields(t *testing.T) {
	svc, repo := newTestService()
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"name", func(in *Input) { in.Name = nil }},
		{"blank name", func(in *Input) { in.Name = ptr("  ") }},
		{"age", func(in *Input) { in.Age = nil }},
		{"gender", func(in *Input) { in.Gender = nil }},
		{"room", func(in *Input) { in.RoomNumber = nil }},
		{"bed", func(in *Input) { in.BedNumber = nil }},
		{"floor", func(in *Input) { in.FloorNumber = nil }},
		{"negative age", func(in *Input) { in.Age = ptr(-1) }},
		{"unknown gender", func(in *Input) { in.Gender = ptr("X") }},
		{"negative floor", func(in *Input) { in.FloorNumber = ptr(-2) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput("Saanvi Patel")
			tt.mutate(&in)
			_, err := svc.CreatePatient(context.Background(), in)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
	assert.Empty(t, repo.store)
}

func TestGetPatient_WithPlan(t *testing.T) {
	svc, _ := newTestService()
	p, err := svc.CreatePatient(context.Background(), validInput("Vihaan Reddy"))
	require.NoError(t, err)

	plan := &meal.PlanView{DietPlan: meal.DietPlan{ID: uuid.New(), PatientID: p.ID}}
	svc.SetPlanReader(fakePlans{p.ID: plan})

	got, err := svc.GetPatient(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DietPlan)
	assert.Equal(t, plan.ID, got.DietPlan.ID)
}

func TestGetPatient_RepeatedReadsMatch(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	p, err := svc.CreatePatient(ctx, validInput("Ishaan Gupta"))
	require.NoError(t, err)

	pantry := &staff.Summary{ID: uuid.New(), Name: "pantry", ContactInfo: "9000000001"}
	runner := &staff.Summary{ID: uuid.New(), Name: "runner", ContactInfo: "9000000002"}
	slotID := uuid.New()
	plan := &meal.PlanView{
		DietPlan: meal.DietPlan{ID: uuid.New(), PatientID: p.ID, MorningMealID: &slotID},
		MorningMeal: &meal.SlotView{
			MealSlot: meal.MealSlot{
				ID:                  slotID,
				PatientID:           p.ID,
				MealType:            meal.Morning,
				Ingredients:         "oats",
				PreparationStatus:   meal.PreparationCompleted,
				DeliveryStatus:      meal.DeliveryPending,
				PantryStaffID:       pantry.ID,
				DeliveryPersonnelID: &runner.ID,
			},
			PantryStaff:       pantry,
			DeliveryPersonnel: runner,
		},
	}
	svc.SetPlanReader(fakePlans{p.ID: plan})

	first, err := svc.GetPatient(ctx, p.ID)
	require.NoError(t, err)
	second, err := svc.GetPatient(ctx, p.ID)
	require.NoError(t, err)

	require.NotNil(t, first.DietPlan)
	require.NotNil(t, first.DietPlan.MorningMeal)
	assert.Equal(t, "runner", first.DietPlan.MorningMeal.DeliveryPersonnel.Name)
	assert.Equal(t, first, second)
}

func TestGetPatient_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.GetPatient(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdatePatient_Partial(t *testing.T) {
	svc, _ := newTestService()
	p, err := svc.CreatePatient(context.Background(), validInput("Isha Gupta"))
	require.NoError(t, err)

	updated, err := svc.UpdatePatient(context.Background(), p.ID, Input{RoomNumber: ptr("204"), Age: ptr(33)})
	require.NoError(t, err)
	assert.Equal(t, "204", updated.RoomNumber)
	assert.Equal(t, 33, updated.Age)
	assert.Equal(t, "Isha Gupta", updated.Name, "unspecified fields are preserved")
	assert.Equal(t, "A1", updated.BedNumber)

	_, err = svc.UpdatePatient(context.Background(), p.ID, Input{Gender: ptr("Unknown")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.UpdatePatient(context.Background(), uuid.New(), Input{Age: ptr(1)})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeletePatient(t *testing.T) {
	svc, _ := newTestService()
	p, err := svc.CreatePatient(context.Background(), validInput("Kabir Kumar"))
	require.NoError(t, err)

	require.NoError(t, svc.DeletePatient(context.Background(), p.ID))
	ok, err := svc.PatientExists(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	err = svc.DeletePatient(context.Background(), p.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListPatients_RoleScoped(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	a, _ := svc.CreatePatient(ctx, validInput("Maya Desai"))
	b, _ := svc.CreatePatient(ctx, validInput("Arjun Yadav"))
	_, _ = svc.CreatePatient(ctx, validInput("Neha Mehta"))

	manager := auth.Principal{UserID: uuid.New(), Role: auth.RoleManager}
	pantry := auth.Principal{UserID: uuid.New(), Role: auth.RolePantry}
	delivery := auth.Principal{UserID: uuid.New(), Role: auth.RoleDelivery}
	repo.pantry[pantry.UserID] = []uuid.UUID{a.ID, b.ID}
	repo.delivery[delivery.UserID] = []uuid.UUID{b.ID}

	all, total, err := svc.ListPatients(ctx, manager, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)

	mine, total, err := svc.ListPatients(ctx, pantry, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, mine, 2)

	deliveries, total, err := svc.ListPatients(ctx, delivery, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, b.ID, deliveries[0].ID)

	none, total, err := svc.ListPatients(ctx, auth.Principal{UserID: uuid.New(), Role: auth.RoleDelivery}, 20, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)

	_, _, err = svc.ListPatients(ctx, auth.Principal{UserID: uuid.New(), Role: auth.Role("Chef")}, 20, 0)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
}

func TestListPatients_Pagination(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, n := range []string{"Ravi Singh", "Shruti Joshi", "Aarav Sharma"} {
		_, err := svc.CreatePatient(ctx, validInput(n))
		require.NoError(t, err)
	}
	manager := auth.Principal{UserID: uuid.New(), Role: auth.RoleManager}

	page, total, err := svc.ListPatients(ctx, manager, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Shruti Joshi", page[0].Name)
}
