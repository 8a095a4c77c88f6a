package patient

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ShubhamKarampure/HealthyTray/internal/platform/db"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, name, diseases, allergies, room_number, bed_number, floor_number,
	age, gender, contact_info, emergency_contact, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Diseases, &p.Allergies, &p.RoomNumber, &p.BedNumber, &p.FloorNumber,
		&p.Age, &p.Gender, &p.ContactInfo, &p.EmergencyContact, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO patients (`+patientCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.Name, p.Diseases, p.Allergies, p.RoomNumber, p.BedNumber, p.FloorNumber,
		p.Age, p.Gender, p.ContactInfo, p.EmergencyContact, p.CreatedAt, p.UpdatedAt)
	return db.Classify(err, "create patient", "patient not found")
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if err != nil {
		return nil, db.Classify(err, "get patient", "patient not found")
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE patients SET
			name = $2, diseases = $3, allergies = $4, room_number = $5, bed_number = $6,
			floor_number = $7, age = $8, gender = $9, contact_info = $10,
			emergency_contact = $11, updated_at = $12
		WHERE id = $1`,
		p.ID, p.Name, p.Diseases, p.Allergies, p.RoomNumber, p.BedNumber,
		p.FloorNumber, p.Age, p.Gender, p.ContactInfo,
		p.EmergencyContact, p.UpdatedAt)
	if err != nil {
		return db.Classify(err, "update patient", "patient not found")
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows, "update patient", "patient not found")
	}
	return nil
}

// Delete removes the patient. The plan and every meal slot cascade.
func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return db.Classify(err, "delete patient", "patient not found")
	}
	if tag.RowsAffected() == 0 {
		return db.Classify(pgx.ErrNoRows, "delete patient", "patient not found")
	}
	return nil
}

func (r *patientRepoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, db.Classify(err, "check patient", "patient not found")
	}
	return ok, nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return r.list(ctx, `TRUE`, nil, limit, offset)
}

// assignedFilter matches patients whose current plan has a slot whose
// staffCol equals $1.
func assignedFilter(staffCol string) string {
	return `EXISTS (
		SELECT 1 FROM diet_plans dp
		JOIN meal_slots ms ON ms.id IN (dp.morning_meal_id, dp.evening_meal_id, dp.night_meal_id)
		WHERE dp.patient_id = patients.id AND ms.` + staffCol + ` = $1)`
}

func (r *patientRepoPG) ListByPantryStaff(ctx context.Context, staffID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	return r.list(ctx, assignedFilter("pantry_staff_id"), []interface{}{staffID}, limit, offset)
}

func (r *patientRepoPG) ListByDeliveryPersonnel(ctx context.Context, staffID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	return r.list(ctx, assignedFilter("delivery_personnel_id"), []interface{}{staffID}, limit, offset)
}

func (r *patientRepoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Patient, int, error) {
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM patients WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, db.Classify(err, "count patients", "")
	}

	n := len(args)
	pageArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := conn.Query(ctx, `SELECT `+patientCols+` FROM patients WHERE `+where+
		` ORDER BY floor_number, room_number, bed_number, created_at`+
		` LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2), pageArgs...)
	if err != nil {
		return nil, 0, db.Classify(err, "list patients", "")
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, db.Classify(err, "scan patient", "")
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Classify(err, "list patients", "")
	}
	return items, total, nil
}
