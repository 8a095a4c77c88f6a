package meal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ShubhamKarampure/HealthyTray/internal/platform/db"
)

// -- Meal Slot --

type slotRepoPG struct{ pool *pgxpool.Pool }

func NewSlotRepoPG(pool *pgxpool.Pool) SlotRepository {
	return &slotRepoPG{pool: pool}
}

const slotCols = `id, patient_id, meal_type, ingredients, instructions,
	preparation_status, delivery_status, pantry_staff_id, delivery_personnel_id,
	delivered_at, delivery_notes, created_at, updated_at`

func scanSlot(row pgx.Row) (*MealSlot, error) {
	var m MealSlot
	var mealType, prep, delivery string
	err := row.Scan(&m.ID, &m.PatientID, &mealType, &m.Ingredients, &m.Instructions,
		&prep, &delivery, &m.PantryStaffID, &m.DeliveryPersonnelID,
		&m.DeliveredAt, &m.DeliveryNotes, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.MealType = MealType(mealType)
	m.PreparationStatus = PreparationStatus(prep)
	m.DeliveryStatus = DeliveryStatus(delivery)
	return &m, nil
}

func (r *slotRepoPG) Create(ctx context.Context, m *MealSlot) error {
	m.ID = uuid.New()
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO meal_slots (`+slotCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		m.ID, m.PatientID, string(m.MealType), m.Ingredients, m.Instructions,
		string(m.PreparationStatus), string(m.DeliveryStatus), m.PantryStaffID, m.DeliveryPersonnelID,
		m.DeliveredAt, m.DeliveryNotes, m.CreatedAt, m.UpdatedAt)
	return db.Classify(err, "create meal slot", "meal not found")
}

func (r *slotRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MealSlot, error) {
	m, err := scanSlot(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+slotCols+` FROM meal_slots WHERE id = $1`, id))
	if err != nil {
		return nil, db.Classify(err, "get meal slot", "meal not found")
	}
	return m, nil
}

func (r *slotRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*MealSlot, error) {
	m, err := scanSlot(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+slotCols+` FROM meal_slots WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, db.Classify(err, "lock meal slot", "meal not found")
	}
	return m, nil
}

func (r *slotRepoPG) Update(ctx context.Context, m *MealSlot) error {
	m.UpdatedAt = time.Now().UTC()
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE meal_slots SET
			ingredients = $2, instructions = $3,
			preparation_status = $4, delivery_status = $5,
			pantry_staff_id = $6, delivery_personnel_id = $7,
			delivered_at = $8, delivery_notes = $9, updated_at = $10
		WHERE id = $1`,
		m.ID, m.Ingredients, m.Instructions,
		string(m.PreparationStatus), string(m.DeliveryStatus),
		m.PantryStaffID, m.DeliveryPersonnelID,
		m.DeliveredAt, m.DeliveryNotes, m.UpdatedAt)
	if err != nil {
		return db.Classify(err, "update meal slot", "meal not found")
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows, "update meal slot", "meal not found")
	}
	return nil
}

func (r *slotRepoPG) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*MealSlot, error) {
	out := make(map[uuid.UUID]*MealSlot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+slotCols+` FROM meal_slots WHERE id = ANY($1::uuid[])`, uuidStrings(ids))
	if err != nil {
		return nil, db.Classify(err, "get meal slots", "")
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanSlot(rows)
		if err != nil {
			return nil, db.Classify(err, "scan meal slot", "")
		}
		out[m.ID] = m
	}
	return out, db.Classify(rows.Err(), "get meal slots", "")
}

func (r *slotRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*MealSlot, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+slotCols+` FROM meal_slots WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, db.Classify(err, "list meal slots", "")
	}
	defer rows.Close()
	var out []*MealSlot
	for rows.Next() {
		m, err := scanSlot(rows)
		if err != nil {
			return nil, db.Classify(err, "scan meal slot", "")
		}
		out = append(out, m)
	}
	return out, db.Classify(rows.Err(), "list meal slots", "")
}

// -- Diet Plan --

type planRepoPG struct{ pool *pgxpool.Pool }

func NewPlanRepoPG(pool *pgxpool.Pool) PlanRepository {
	return &planRepoPG{pool: pool}
}

const planCols = `id, patient_id, morning_meal_id, evening_meal_id, night_meal_id, created_at, updated_at`

func scanPlan(row pgx.Row) (*DietPlan, error) {
	var p DietPlan
	err := row.Scan(&p.ID, &p.PatientID, &p.MorningMealID, &p.EveningMealID, &p.NightMealID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *planRepoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*DietPlan, error) {
	p, err := scanPlan(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+planCols+` FROM diet_plans WHERE patient_id = $1`, patientID))
	if err != nil {
		return nil, db.Classify(err, "get diet plan", "diet plan not found")
	}
	return p, nil
}

func (r *planRepoPG) ListByPatients(ctx context.Context, patientIDs []uuid.UUID) ([]*DietPlan, error) {
	if len(patientIDs) == 0 {
		return nil, nil
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+planCols+` FROM diet_plans WHERE patient_id = ANY($1::uuid[])`, uuidStrings(patientIDs))
	if err != nil {
		return nil, db.Classify(err, "list diet plans", "")
	}
	defer rows.Close()
	var out []*DietPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, db.Classify(err, "scan diet plan", "")
		}
		out = append(out, p)
	}
	return out, db.Classify(rows.Err(), "list diet plans", "")
}

// slotColumn maps a meal type to its plan column. The set is closed, so the
// result is safe to splice into SQL.
func slotColumn(mt MealType) (string, error) {
	switch mt {
	case Morning:
		return "morning_meal_id", nil
	case Evening:
		return "evening_meal_id", nil
	case Night:
		return "night_meal_id", nil
	}
	return "", fmt.Errorf("unknown meal type %q", mt)
}

// AttachSlot upserts on the unique patient_id so two concurrent first
// assignments for one patient converge on a single plan.
func (r *planRepoPG) AttachSlot(ctx context.Context, patientID uuid.UUID, mt MealType, slotID uuid.UUID) (*DietPlan, error) {
	col, err := slotColumn(mt)
	if err != nil {
		return nil, err
	}
	p, err := scanPlan(db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO diet_plans (id, patient_id, `+col+`, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (patient_id) DO UPDATE
			SET `+col+` = EXCLUDED.`+col+`, updated_at = NOW()
		RETURNING `+planCols,
		uuid.New(), patientID, slotID))
	if err != nil {
		return nil, db.Classify(err, "attach meal to diet plan", "patient not found")
	}
	return p, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
