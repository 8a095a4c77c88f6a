package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShubhamKarampure/HealthyTray/internal/domain/patient"
	"github.com/ShubhamKarampure/HealthyTray/internal/domain/staff"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/apperr"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/auth"
)

type seedPatient struct {
	name, diseases, allergies string
	room, bed                 string
	floor, age                int
	gender                    string
	contact, emergency        string
}

var seedPatients = []seedPatient{
	{"Aarav Sharma", "Diabetes", "Pollen", "101", "A1", 1, 45, "Male", "9876543210", "9876123456"},
	{"Saanvi Patel", "Asthma", "Dust", "102", "A2", 1, 38, "Female", "9123456789", "9876543210"},
	{"Vihaan Reddy", "Hypertension", "Peanuts", "201", "B1", 2, 50, "Male", "9081726354", "9876543120"},
	{"Isha Gupta", "Flu", "Milk", "202", "B2", 2, 27, "Female", "8899776655", "9123456790"},
	{"Kabir Kumar", "Malaria", "Mosquitoes", "103", "C1", 1, 34, "Male", "9345678901", "9876543211"},
	{"Maya Desai", "Typhoid", "Eggs", "104", "C2", 1, 23, "Female", "9098765432", "9876123458"},
	{"Arjun Yadav", "Chronic Cough", "None", "301", "D1", 3, 40, "Male", "9223344556", "9998887777"},
	{"Neha Mehta", "Cold", "Cold Drinks", "302", "D2", 3, 31, "Female", "9654321098", "9876543222"},
	{"Ravi Singh", "Cancer", "Gluten", "401", "E1", 4, 55, "Male", "9876123457", "9333554422"},
	{"Shruti Joshi", "Cholesterol", "Soy", "402", "E2", 4, 28, "Female", "9345678765", "9998886666"},
}

func (s seedPatient) input() patient.Input {
	return patient.Input{
		Name:             &s.name,
		Diseases:         &s.diseases,
		Allergies:        &s.allergies,
		RoomNumber:       &s.room,
		BedNumber:        &s.bed,
		FloorNumber:      &s.floor,
		Age:              &s.age,
		Gender:           &s.gender,
		ContactInfo:      &s.contact,
		EmergencyContact: &s.emergency,
	}
}

// demoPassword is shared by the --with-staff accounts.
const demoPassword = "healthytray-demo"

var seedStaff = []staff.RegisterInput{
	{Name: "Hospital Manager", Email: "manager@healthytray.local", Role: string(auth.RoleManager), ContactInfo: "9000000001"},
	{Name: "Pantry Staff", Email: "pantry@healthytray.local", Role: string(auth.RolePantry), ContactInfo: "9000000002"},
	{Name: "Delivery Staff", Email: "delivery@healthytray.local", Role: string(auth.RoleDelivery), ContactInfo: "9000000003"},
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample patients (and optionally demo staff accounts)",
		RunE: func(cmd *cobra.Command, args []string) error {
			withStaff, _ := cmd.Flags().GetBool("with-staff")
			force, _ := cmd.Flags().GetBool("force")

			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			svcs, _ := newServices(pool, cfg)

			n, err := seedPatientRecords(ctx, svcs.patient, force)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d patient(s).\n", n)

			if withStaff {
				n, err := seedStaffAccounts(ctx, svcs.staff)
				if err != nil {
					return err
				}
				fmt.Printf("Seeded %d staff account(s) with password %q.\n", n, demoPassword)
			}
			return nil
		},
	}
	cmd.Flags().Bool("with-staff", false, "Also create demo Manager, Pantry and Delivery accounts")
	cmd.Flags().Bool("force", false, "Insert sample patients even if patients already exist")
	return cmd
}

// seedPatientRecords inserts the sample patients unless the table already has
// rows and force is false.
func seedPatientRecords(ctx context.Context, svc *patient.Service, force bool) (int, error) {
	if !force {
		_, total, err := svc.ListPatients(ctx, auth.Principal{Role: auth.RoleManager}, 1, 0)
		if err != nil {
			return 0, err
		}
		if total > 0 {
			return 0, nil
		}
	}
	for i, sp := range seedPatients {
		if _, err := svc.CreatePatient(ctx, sp.input()); err != nil {
			return i, fmt.Errorf("seed patient %q: %w", sp.name, err)
		}
	}
	return len(seedPatients), nil
}

// seedStaffAccounts registers the demo accounts, skipping emails that are
// already taken.
func seedStaffAccounts(ctx context.Context, svc *staff.Service) (int, error) {
	created := 0
	for _, in := range seedStaff {
		in.Password = demoPassword
		if _, err := svc.Register(ctx, in); err != nil {
			if apperr.Is(err, apperr.KindConflict) {
				continue
			}
			return created, fmt.Errorf("seed staff %q: %w", in.Email, err)
		}
		created++
	}
	return created, nil
}
