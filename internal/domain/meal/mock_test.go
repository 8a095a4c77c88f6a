package meal

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ShubhamKarampure/HealthyTray/internal/domain/staff"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/apperr"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/auth"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/streams"
)

// memStore backs both repositories so the transactor can roll them back together.
type memStore struct {
	mu         sync.Mutex
	slots      map[uuid.UUID]*MealSlot
	plans      map[uuid.UUID]*DietPlan // by patient id
	seq        int
	failAttach error
}

func newMemStore() *memStore {
	return &memStore{slots: make(map[uuid.UUID]*MealSlot), plans: make(map[uuid.UUID]*DietPlan)}
}

type memSnapshot struct {
	slots map[uuid.UUID]MealSlot
	plans map[uuid.UUID]DietPlan
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{slots: make(map[uuid.UUID]MealSlot), plans: make(map[uuid.UUID]DietPlan)}
	for k, v := range s.slots {
		snap.slots[k] = *v
	}
	for k, v := range s.plans {
		snap.plans[k] = *v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = make(map[uuid.UUID]*MealSlot)
	for k, v := range snap.slots {
		cp := v
		s.slots[k] = &cp
	}
	s.plans = make(map[uuid.UUID]*DietPlan)
	for k, v := range snap.plans {
		cp := v
		s.plans[k] = &cp
	}
}

// memTransactor discards every write made by fn when it fails.
type memTransactor struct {
	store *memStore
	calls int
}

func (t *memTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

type memSlotRepo struct{ s *memStore }

func (r memSlotRepo) Create(_ context.Context, m *MealSlot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = uuid.New()
	r.s.seq++
	m.CreatedAt = fixedNow.Add(secondsOf(r.s.seq))
	m.UpdatedAt = m.CreatedAt
	cp := *m
	r.s.slots[m.ID] = &cp
	return nil
}

func (r memSlotRepo) GetByID(_ context.Context, id uuid.UUID) (*MealSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.slots[id]
	if !ok {
		return nil, apperr.NotFound("meal not found")
	}
	cp := *m
	return &cp, nil
}

func (r memSlotRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*MealSlot, error) {
	return r.GetByID(ctx, id)
}

func (r memSlotRepo) Update(_ context.Context, m *MealSlot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.slots[m.ID]; !ok {
		return apperr.NotFound("meal not found")
	}
	if (m.DeliveryStatus == DeliveryDelivered) != (m.DeliveredAt != nil) {
		return apperr.Validation("meal_slots_delivered_at_check violated")
	}
	cp := *m
	r.s.slots[m.ID] = &cp
	return nil
}

func (r memSlotRepo) GetMany(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*MealSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]*MealSlot)
	for _, id := range ids {
		if m, ok := r.s.slots[id]; ok {
			cp := *m
			out[id] = &cp
		}
	}
	return out, nil
}

func (r memSlotRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*MealSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*MealSlot
	for _, m := range r.s.slots {
		if m.PatientID == patientID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memPlanRepo struct{ s *memStore }

func (r memPlanRepo) GetByPatient(_ context.Context, patientID uuid.UUID) (*DietPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.plans[patientID]
	if !ok {
		return nil, apperr.NotFound("diet plan not found")
	}
	cp := *p
	return &cp, nil
}

func (r memPlanRepo) ListByPatients(_ context.Context, patientIDs []uuid.UUID) ([]*DietPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*DietPlan
	for _, id := range patientIDs {
		if p, ok := r.s.plans[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memPlanRepo) AttachSlot(_ context.Context, patientID uuid.UUID, mt MealType, slotID uuid.UUID) (*DietPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAttach != nil {
		return nil, r.s.failAttach
	}
	p, ok := r.s.plans[patientID]
	if !ok {
		p = &DietPlan{ID: uuid.New(), PatientID: patientID, CreatedAt: fixedNow}
		r.s.plans[patientID] = p
	}
	p.SetSlot(mt, slotID)
	cp := *p
	return &cp, nil
}

type fakePatients map[uuid.UUID]bool

func (f fakePatients) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	return f[id], nil
}

type fakeDirectory map[uuid.UUID]*staff.User

func (f fakeDirectory) ResolveUser(_ context.Context, id uuid.UUID) (*staff.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (f fakeDirectory) add(name string, role auth.Role) auth.Principal {
	id := uuid.New()
	f[id] = &staff.User{ID: id, Name: name, Email: name + "@hospital.test", Role: role, ContactInfo: "98765"}
	return auth.Principal{UserID: id, Role: role}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []streams.MealEvent
	err    error
}

func (p *recordingPublisher) PublishMealEvent(_ context.Context, ev streams.MealEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, ev)
	return "0-1", nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

var errAttach = errors.New("attach failed")
