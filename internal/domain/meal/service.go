package meal

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShubhamKarampure/HealthyTray/internal/domain/staff"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/apperr"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/auth"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/db"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/streams"
)

// PatientLookup reports whether a patient exists.
type PatientLookup interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// StaffDirectory resolves staff accounts. *staff.Service satisfies it.
type StaffDirectory interface {
	ResolveUser(ctx context.Context, id uuid.UUID) (*staff.User, error)
}

type Service struct {
	slots    SlotRepository
	plans    PlanRepository
	tx       db.Transactor
	patients PatientLookup
	staff    StaffDirectory
	events   EventPublisher
	now      func() time.Time
}

func NewService(slots SlotRepository, plans PlanRepository, tx db.Transactor, patients PatientLookup, dir StaffDirectory) *Service {
	return &Service{
		slots:    slots,
		plans:    plans,
		tx:       tx,
		patients: patients,
		staff:    dir,
		now:      time.Now,
	}
}

// SetEventPublisher enables meal workflow events.
func (s *Service) SetEventPublisher(p EventPublisher) {
	s.events = p
}

// AssignMealInput is the Manager's request to (re)assign one meal type.
type AssignMealInput struct {
	MealType      string `json:"mealType"`
	Ingredients   string `json:"ingredients"`
	Instructions  string `json:"instructions"`
	PantryStaffID string `json:"pantryStaffId"`
}

// AssignMeal creates a fresh slot and makes it the patient's current slot for
// the meal type. The slot and the plan change commit together.
func (s *Service) AssignMeal(ctx context.Context, actor auth.Principal, patientID uuid.UUID, in AssignMealInput) (*SlotView, error) {
	if !actor.IsManager() {
		return nil, apperr.Forbidden("only managers can assign meals")
	}
	mt, ok := ParseMealType(in.MealType)
	if !ok {
		return nil, apperr.Validation("invalid meal type")
	}
	pantryID, err := uuid.Parse(strings.TrimSpace(in.PantryStaffID))
	if err != nil {
		return nil, apperr.Validation("invalid pantry staff id")
	}

	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	pantry, err := s.requireStaff(ctx, pantryID, auth.RolePantry, "pantry staff not found", "invalid pantry staff")
	if err != nil {
		return nil, err
	}

	slot := &MealSlot{
		PatientID:         patientID,
		MealType:          mt,
		Ingredients:       strings.TrimSpace(in.Ingredients),
		Instructions:      strings.TrimSpace(in.Instructions),
		PreparationStatus: PreparationPending,
		DeliveryStatus:    DeliveryPending,
		PantryStaffID:     pantry.ID,
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.slots.Create(ctx, slot); err != nil {
			return err
		}
		_, err := s.plans.AttachSlot(ctx, patientID, mt, slot.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, streams.EventMealAssigned, slot, actor)
	summary := pantry.Summary()
	return &SlotView{MealSlot: *slot, PantryStaff: &summary}, nil
}

// StatusUpdate is a partial change to a slot's workflow fields. Nil fields
// are left alone.
type StatusUpdate struct {
	PreparationStatus   *string `json:"preparationStatus"`
	DeliveryStatus      *string `json:"deliveryStatus"`
	DeliveryPersonnelID *string `json:"deliveryPersonnelId"`
	DeliveryNotes       *string `json:"deliveryNotes"`
}

func (u StatusUpdate) empty() bool {
	return u.PreparationStatus == nil && u.DeliveryStatus == nil &&
		u.DeliveryPersonnelID == nil && u.DeliveryNotes == nil
}

// UpdateStatus applies a status change under the workflow gate. The slot row
// is locked for the duration so the precondition check and the write agree.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Principal, mealID uuid.UUID, upd StatusUpdate) (*SlotView, error) {
	if upd.empty() {
		return nil, apperr.Validation("no status change requested")
	}

	var prep PreparationStatus
	if upd.PreparationStatus != nil {
		var ok bool
		if prep, ok = ParsePreparationStatus(*upd.PreparationStatus); !ok {
			return nil, apperr.Validation("invalid preparation status")
		}
	}
	var delivery DeliveryStatus
	if upd.DeliveryStatus != nil {
		var ok bool
		if delivery, ok = ParseDeliveryStatus(*upd.DeliveryStatus); !ok {
			return nil, apperr.Validation("invalid delivery status")
		}
	}
	var deliveryID uuid.UUID
	if upd.DeliveryPersonnelID != nil {
		id, err := uuid.Parse(strings.TrimSpace(*upd.DeliveryPersonnelID))
		if err != nil {
			return nil, apperr.Validation("invalid delivery personnel id")
		}
		deliveryID = id
	}

	var slot *MealSlot
	assigned := false
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		m, err := s.slots.GetForUpdate(ctx, mealID)
		if err != nil {
			return err
		}

		if upd.DeliveryPersonnelID != nil {
			if err := s.assignDelivery(ctx, actor, m, deliveryID); err != nil {
				return err
			}
			assigned = true
		}
		if upd.PreparationStatus != nil {
			if err := checkPreparation(actor, m); err != nil {
				return err
			}
			if err := applyPreparation(m, prep); err != nil {
				return err
			}
		}
		if upd.DeliveryStatus != nil || upd.DeliveryNotes != nil {
			if err := checkDelivery(actor, m); err != nil {
				return err
			}
		}
		if upd.DeliveryStatus != nil {
			if err := applyDelivery(m, delivery, s.now()); err != nil {
				return err
			}
		}
		if upd.DeliveryNotes != nil {
			m.DeliveryNotes = strings.TrimSpace(*upd.DeliveryNotes)
		}

		if err := s.slots.Update(ctx, m); err != nil {
			return err
		}
		slot = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	if assigned {
		s.publish(ctx, streams.EventDeliveryPersonnelSet, slot, actor)
	}
	if upd.PreparationStatus != nil || upd.DeliveryStatus != nil || upd.DeliveryNotes != nil {
		s.publish(ctx, streams.EventMealStatusChanged, slot, actor)
	}
	return s.expandSlot(ctx, slot, newStaffCache(s.staff))
}

// AssignDeliveryPersonnel is the single operation that sets who delivers a
// slot. UpdateStatus delegates to it when a request names delivery personnel.
func (s *Service) AssignDeliveryPersonnel(ctx context.Context, actor auth.Principal, mealID uuid.UUID, deliveryPersonnelID string) (*SlotView, error) {
	deliveryID, err := uuid.Parse(strings.TrimSpace(deliveryPersonnelID))
	if err != nil {
		return nil, apperr.Validation("invalid delivery personnel id")
	}

	var slot *MealSlot
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		m, err := s.slots.GetForUpdate(ctx, mealID)
		if err != nil {
			return err
		}
		if err := s.assignDelivery(ctx, actor, m, deliveryID); err != nil {
			return err
		}
		if err := s.slots.Update(ctx, m); err != nil {
			return err
		}
		slot = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, streams.EventDeliveryPersonnelSet, slot, actor)
	return s.expandSlot(ctx, slot, newStaffCache(s.staff))
}

func (s *Service) assignDelivery(ctx context.Context, actor auth.Principal, m *MealSlot, deliveryID uuid.UUID) error {
	if err := checkAssignDelivery(actor, m); err != nil {
		return err
	}
	if m.IsDelivered() {
		return apperr.Conflict("meal already delivered")
	}
	u, err := s.requireStaff(ctx, deliveryID, auth.RoleDelivery, "delivery personnel not found", "invalid delivery personnel")
	if err != nil {
		return err
	}
	m.DeliveryPersonnelID = &u.ID
	return nil
}

// GetPatientMeals returns the patient's diet plan with its current slots and
// their staff expanded.
func (s *Service) GetPatientMeals(ctx context.Context, patientID uuid.UUID) (*PlanView, error) {
	plan, err := s.plans.GetByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	views, err := s.expandPlans(ctx, []*DietPlan{plan})
	if err != nil {
		return nil, err
	}
	return views[plan.PatientID], nil
}

// PlansForPatients returns the expanded plan of each listed patient that has
// one, keyed by patient id.
func (s *Service) PlansForPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]*PlanView, error) {
	plans, err := s.plans.ListByPatients(ctx, patientIDs)
	if err != nil {
		return nil, err
	}
	return s.expandPlans(ctx, plans)
}

// GetMeal returns one slot with its staff expanded.
func (s *Service) GetMeal(ctx context.Context, mealID uuid.UUID) (*SlotView, error) {
	m, err := s.slots.GetByID(ctx, mealID)
	if err != nil {
		return nil, err
	}
	return s.expandSlot(ctx, m, newStaffCache(s.staff))
}

// ListPatientMealHistory returns every slot created for the patient,
// including superseded ones, newest first.
func (s *Service) ListPatientMealHistory(ctx context.Context, patientID uuid.UUID) ([]*SlotView, error) {
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	slots, err := s.slots.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	cache := newStaffCache(s.staff)
	out := make([]*SlotView, 0, len(slots))
	for _, m := range slots {
		v, err := s.expandSlot(ctx, m, cache)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) requirePatient(ctx context.Context, id uuid.UUID) error {
	ok, err := s.patients.PatientExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("patient not found")
	}
	return nil
}

// requireStaff resolves id and checks it holds role. An unknown id is
// NotFound; a user with another role is a validation failure.
func (s *Service) requireStaff(ctx context.Context, id uuid.UUID, role auth.Role, notFound, wrongRole string) (*staff.User, error) {
	u, err := s.staff.ResolveUser(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound(notFound)
		}
		return nil, err
	}
	if u.Role != role {
		return nil, apperr.Validation(wrongRole)
	}
	return u, nil
}

func (s *Service) expandPlans(ctx context.Context, plans []*DietPlan) (map[uuid.UUID]*PlanView, error) {
	var ids []uuid.UUID
	for _, p := range plans {
		ids = append(ids, p.slotIDs()...)
	}
	slots, err := s.slots.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	cache := newStaffCache(s.staff)
	out := make(map[uuid.UUID]*PlanView, len(plans))
	for _, p := range plans {
		view := &PlanView{DietPlan: *p}
		for _, mt := range MealTypes {
			id := p.SlotID(mt)
			if id == nil {
				continue
			}
			m, ok := slots[*id]
			if !ok {
				continue
			}
			sv, err := s.expandSlot(ctx, m, cache)
			if err != nil {
				return nil, err
			}
			switch mt {
			case Morning:
				view.MorningMeal = sv
			case Evening:
				view.EveningMeal = sv
			case Night:
				view.NightMeal = sv
			}
		}
		out[p.PatientID] = view
	}
	return out, nil
}

func (s *Service) expandSlot(ctx context.Context, m *MealSlot, cache *staffCache) (*SlotView, error) {
	v := &SlotView{MealSlot: *m}
	var err error
	if v.PantryStaff, err = cache.summary(ctx, m.PantryStaffID); err != nil {
		return nil, err
	}
	if m.DeliveryPersonnelID != nil {
		if v.DeliveryPersonnel, err = cache.summary(ctx, *m.DeliveryPersonnelID); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// staffCache memoizes staff lookups while expanding one response.
type staffCache struct {
	dir  StaffDirectory
	seen map[uuid.UUID]*staff.Summary
}

func newStaffCache(dir StaffDirectory) *staffCache {
	return &staffCache{dir: dir, seen: make(map[uuid.UUID]*staff.Summary)}
}

func (c *staffCache) summary(ctx context.Context, id uuid.UUID) (*staff.Summary, error) {
	if s, ok := c.seen[id]; ok {
		return s, nil
	}
	u, err := c.dir.ResolveUser(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			c.seen[id] = nil
			return nil, nil
		}
		return nil, err
	}
	sum := u.Summary()
	c.seen[id] = &sum
	return &sum, nil
}
