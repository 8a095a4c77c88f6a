package patient

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ShubhamKarampure/HealthyTray/internal/domain/meal"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/apperr"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/auth"
)

// PlanReader expands diet plans for patients. *meal.Service satisfies it.
type PlanReader interface {
	PlansForPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]*meal.PlanView, error)
}

type Service struct {
	patients PatientRepository
	plans    PlanReader
}

func NewService(patients PatientRepository) *Service {
	return &Service{patients: patients}
}

// SetPlanReader attaches diet plan expansion. Without it patients are
// returned with a nil plan.
func (s *Service) SetPlanReader(r PlanReader) {
	s.plans = r
}

var validGenders = map[string]bool{
	"Male":   true,
	"Female": true,
	"Other":  true,
}

const maxAge = 150

func (s *Service) CreatePatient(ctx context.Context, in Input) (*Patient, error) {
	switch {
	case in.Name == nil || strings.TrimSpace(*in.Name) == "":
		return nil, apperr.Validation("name is required")
	case in.Age == nil:
		return nil, apperr.Validation("age is required")
	case in.Gender == nil || strings.TrimSpace(*in.Gender) == "":
		return nil, apperr.Validation("gender is required")
	case in.RoomNumber == nil || strings.TrimSpace(*in.RoomNumber) == "":
		return nil, apperr.Validation("roomNumber is required")
	case in.BedNumber == nil || strings.TrimSpace(*in.BedNumber) == "":
		return nil, apperr.Validation("bedNumber is required")
	case in.FloorNumber == nil:
		return nil, apperr.Validation("floorNumber is required")
	}

	p := &Patient{}
	apply(p, in)
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*WithPlan, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := s.withPlans(ctx, []*Patient{p})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ListPatients returns the patients visible to the caller: every patient for
// a Manager, otherwise only those whose current plan assigns a meal to them.
func (s *Service) ListPatients(ctx context.Context, actor auth.Principal, limit, offset int) ([]*WithPlan, int, error) {
	var (
		items []*Patient
		total int
		err   error
	)
	switch actor.Role {
	case auth.RoleManager:
		items, total, err = s.patients.List(ctx, limit, offset)
	case auth.RolePantry:
		items, total, err = s.patients.ListByPantryStaff(ctx, actor.UserID, limit, offset)
	case auth.RoleDelivery:
		items, total, err = s.patients.ListByDeliveryPersonnel(ctx, actor.UserID, limit, offset)
	default:
		return nil, 0, apperr.Forbidden("forbidden: insufficient permissions")
	}
	if err != nil {
		return nil, 0, err
	}
	out, err := s.withPlans(ctx, items)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdatePatient applies the non-nil fields of in.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, in Input) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(p, in)
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePatient removes the patient along with its plan and meal slots.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.patients.Exists(ctx, id)
}

func (s *Service) withPlans(ctx context.Context, items []*Patient) ([]*WithPlan, error) {
	out := make([]*WithPlan, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}

	var plans map[uuid.UUID]*meal.PlanView
	if s.plans != nil {
		ids := make([]uuid.UUID, len(items))
		for i, p := range items {
			ids[i] = p.ID
		}
		var err error
		if plans, err = s.plans.PlansForPatients(ctx, ids); err != nil {
			return nil, err
		}
	}
	for _, p := range items {
		out = append(out, &WithPlan{Patient: *p, DietPlan: plans[p.ID]})
	}
	return out, nil
}

func apply(p *Patient, in Input) {
	setString(&p.Name, in.Name)
	setString(&p.Diseases, in.Diseases)
	setString(&p.Allergies, in.Allergies)
	setString(&p.RoomNumber, in.RoomNumber)
	setString(&p.BedNumber, in.BedNumber)
	setString(&p.Gender, in.Gender)
	setString(&p.ContactInfo, in.ContactInfo)
	setString(&p.EmergencyContact, in.EmergencyContact)
	if in.FloorNumber != nil {
		p.FloorNumber = *in.FloorNumber
	}
	if in.Age != nil {
		p.Age = *in.Age
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func validate(p *Patient) error {
	if p.Name == "" {
		return apperr.Validation("name is required")
	}
	if p.Age < 0 || p.Age > maxAge {
		return apperr.Validationf("age must be between 0 and %d", maxAge)
	}
	if !validGenders[p.Gender] {
		return apperr.Validation("gender must be Male, Female or Other")
	}
	if p.RoomNumber == "" || p.BedNumber == "" {
		return apperr.Validation("roomNumber and bedNumber are required")
	}
	if p.FloorNumber < 0 {
		return apperr.Validation("floorNumber must not be negative")
	}
	return nil
}
