package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShubhamKarampure/HealthyTray/internal/domain/meal"
	"github.com/ShubhamKarampure/HealthyTray/internal/domain/staff"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/apperr"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/auth"
)

func TestMealWorkflow_AssignPrepareDeliver(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	manager := a.createStaff(t, auth.RoleManager)
	pantry := a.createStaff(t, auth.RolePantry)
	delivery := a.createStaff(t, auth.RoleDelivery)
	p := a.createPatient(t, "Aarav Sharma")

	slot, err := a.meal.AssignMeal(ctx, manager, p.ID, meal.AssignMealInput{
		MealType:      "Morning",
		Ingredients:   "Oats, milk",
		Instructions:  "Low sugar",
		PantryStaffID: pantry.UserID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, meal.PreparationPending, slot.PreparationStatus)

	_, err = a.meal.UpdateStatus(ctx, pantry, slot.ID, meal.StatusUpdate{PreparationStatus: ptr("InProgress")})
	require.NoError(t, err)
	_, err = a.meal.UpdateStatus(ctx, pantry, slot.ID, meal.StatusUpdate{
		PreparationStatus:   ptr("Completed"),
		DeliveryPersonnelID: ptr(delivery.UserID.String()),
	})
	require.NoError(t, err)

	done, err := a.meal.UpdateStatus(ctx, delivery, slot.ID, meal.StatusUpdate{
		DeliveryStatus: ptr("Delivered"),
		DeliveryNotes:  ptr("Left with nurse"),
	})
	require.NoError(t, err)
	assert.Equal(t, meal.DeliveryDelivered, done.DeliveryStatus)
	require.NotNil(t, done.DeliveredAt)
	require.NotNil(t, done.DeliveryPersonnel)
	assert.Equal(t, delivery.UserID, done.DeliveryPersonnel.ID)

	plan, err := a.meal.GetPatientMeals(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, plan.MorningMeal)
	assert.Equal(t, slot.ID, plan.MorningMeal.ID)
	assert.Equal(t, "Left with nurse", plan.MorningMeal.DeliveryNotes)
	assert.Nil(t, plan.EveningMeal)

	_, err = a.meal.UpdateStatus(ctx, delivery, slot.ID, meal.StatusUpdate{DeliveryStatus: ptr("Pending")})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "delivered is terminal: %v", err)
}

func TestMealWorkflow_ReassignKeepsHistory(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	manager := a.createStaff(t, auth.RoleManager)
	pantry := a.createStaff(t, auth.RolePantry)
	p := a.createPatient(t, "Saanvi Patel")

	assign := func(ingredients string) *meal.SlotView {
		s, err := a.meal.AssignMeal(ctx, manager, p.ID, meal.AssignMealInput{
			MealType: "Night", Ingredients: ingredients, PantryStaffID: pantry.UserID.String(),
		})
		require.NoError(t, err)
		return s
	}
	first := assign("Rice, dal")
	second := assign("Khichdi")

	plan, err := a.meal.GetPatientMeals(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, plan.NightMeal)
	assert.Equal(t, second.ID, plan.NightMeal.ID)

	history, err := a.meal.ListPatientMealHistory(ctx, p.ID)
	require.NoError(t, err)
	ids := make([]uuid.UUID, len(history))
	for i, h := range history {
		ids[i] = h.ID
	}
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)

	old, err := a.meal.GetMeal(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rice, dal", old.Ingredients)
}

func TestMealWorkflow_ConcurrentAssignCreatesOnePlan(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	manager := a.createStaff(t, auth.RoleManager)
	pantry := a.createStaff(t, auth.RolePantry)
	p := a.createPatient(t, "Vihaan Reddy")

	var wg sync.WaitGroup
	errs := make([]error, len(meal.MealTypes))
	for i, mt := range meal.MealTypes {
		wg.Add(1)
		go func(i int, mt meal.MealType) {
			defer wg.Done()
			_, errs[i] = a.meal.AssignMeal(ctx, manager, p.ID, meal.AssignMealInput{
				MealType: string(mt), Ingredients: "Soup", PantryStaffID: pantry.UserID.String(),
			})
		}(i, mt)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var plans int
	err := requireEnv(t).Pool.QueryRow(ctx, `SELECT count(*) FROM diet_plans WHERE patient_id = $1`, p.ID).Scan(&plans)
	require.NoError(t, err)
	assert.Equal(t, 1, plans)

	plan, err := a.meal.GetPatientMeals(ctx, p.ID)
	require.NoError(t, err)
	assert.NotNil(t, plan.MorningMeal)
	assert.NotNil(t, plan.EveningMeal)
	assert.NotNil(t, plan.NightMeal)
}

func TestMealWorkflow_GateRejectsOtherStaff(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	manager := a.createStaff(t, auth.RoleManager)
	pantry := a.createStaff(t, auth.RolePantry)
	otherPantry := a.createStaff(t, auth.RolePantry)
	p := a.createPatient(t, "Isha Gupta")

	slot, err := a.meal.AssignMeal(ctx, manager, p.ID, meal.AssignMealInput{
		MealType: "Evening", Ingredients: "Idli", PantryStaffID: pantry.UserID.String(),
	})
	require.NoError(t, err)

	_, err = a.meal.UpdateStatus(ctx, otherPantry, slot.ID, meal.StatusUpdate{PreparationStatus: ptr("InProgress")})
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	_, err = a.meal.UpdateStatus(ctx, pantry, slot.ID, meal.StatusUpdate{DeliveryStatus: ptr("Delivered")})
	require.Error(t, err)

	unchanged, err := a.meal.GetMeal(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, meal.PreparationPending, unchanged.PreparationStatus)
	assert.Equal(t, meal.DeliveryPending, unchanged.DeliveryStatus)
}

func TestPatients_RoleScopedListAndCascade(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	manager := a.createStaff(t, auth.RoleManager)
	pantry := a.createStaff(t, auth.RolePantry)
	delivery := a.createStaff(t, auth.RoleDelivery)
	assigned := a.createPatient(t, "Kabir Kumar")
	a.createPatient(t, "Maya Desai")

	slot, err := a.meal.AssignMeal(ctx, manager, assigned.ID, meal.AssignMealInput{
		MealType: "Morning", Ingredients: "Poha", PantryStaffID: pantry.UserID.String(),
	})
	require.NoError(t, err)
	_, err = a.meal.AssignDeliveryPersonnel(ctx, pantry, slot.ID, delivery.UserID.String())
	require.NoError(t, err)

	for _, actor := range []auth.Principal{pantry, delivery} {
		items, total, err := a.patient.ListPatients(ctx, actor, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total, actor.Role)
		require.Len(t, items, 1)
		assert.Equal(t, assigned.ID, items[0].ID)
		require.NotNil(t, items[0].DietPlan)
		assert.Equal(t, slot.ID, items[0].DietPlan.MorningMeal.ID)
	}

	_, total, err := a.patient.ListPatients(ctx, manager, 20, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, 2)

	require.NoError(t, a.patient.DeletePatient(ctx, assigned.ID))
	_, err = a.meal.GetMeal(ctx, slot.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "slots are removed with the patient")
	_, err = a.meal.GetPatientMeals(ctx, assigned.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestStaff_DuplicateEmailAndLogin(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	mgr := a.createStaff(t, auth.RoleManager)
	u, err := a.staff.ResolveUser(ctx, mgr.UserID)
	require.NoError(t, err)

	_, err = a.staff.Register(ctx, staffInput(u.Email))
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	res, err := a.staff.Login(ctx, u.Email, "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = a.staff.Login(ctx, u.Email, "wrong-password")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func staffInput(email string) staff.RegisterInput {
	return staff.RegisterInput{
		Name:     "Duplicate",
		Email:    email,
		Password: "password123",
		Role:     string(auth.RolePantry),
	}
}
