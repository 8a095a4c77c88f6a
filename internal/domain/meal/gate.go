package meal

import (
	"time"

	"github.com/ShubhamKarampure/HealthyTray/internal/platform/apperr"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/auth"
)

// The workflow gate. Every role and transition rule for meal slots lives in
// this file; the service applies the rules, it does not restate them.

// checkPreparation allows a Manager, or the pantry staff the slot is
// assigned to, to move the preparation axis.
func checkPreparation(p auth.Principal, m *MealSlot) error {
	switch p.Role {
	case auth.RoleManager:
		return nil
	case auth.RolePantry:
		if m.PantryStaffID == p.UserID {
			return nil
		}
		return apperr.Forbidden("meal is assigned to another pantry staff member")
	}
	return apperr.Forbidden("only pantry staff or managers can update preparation status")
}

// checkDelivery allows a Manager, or the delivery personnel the slot is
// assigned to, to move the delivery axis or attach delivery notes.
func checkDelivery(p auth.Principal, m *MealSlot) error {
	switch p.Role {
	case auth.RoleManager:
		return nil
	case auth.RoleDelivery:
		if m.DeliveryPersonnelID != nil && *m.DeliveryPersonnelID == p.UserID {
			return nil
		}
		return apperr.Forbidden("meal is not assigned to you for delivery")
	}
	return apperr.Forbidden("only delivery personnel or managers can update delivery status")
}

// checkAssignDelivery allows a Manager, or the slot's pantry staff member
// handing the meal off, to choose who delivers it.
func checkAssignDelivery(p auth.Principal, m *MealSlot) error {
	switch p.Role {
	case auth.RoleManager:
		return nil
	case auth.RolePantry:
		if m.PantryStaffID == p.UserID {
			return nil
		}
		return apperr.Forbidden("meal is assigned to another pantry staff member")
	}
	return apperr.Forbidden("only pantry staff or managers can assign delivery personnel")
}

// applyPreparation moves the preparation axis. Regressions are allowed until
// the meal has been delivered.
func applyPreparation(m *MealSlot, to PreparationStatus) error {
	if m.IsDelivered() {
		if m.PreparationStatus == to {
			return nil
		}
		return apperr.Conflict("meal already delivered")
	}
	m.PreparationStatus = to
	return nil
}

// applyDelivery moves the delivery axis. Delivered is terminal and requires
// a completed preparation; deliveredAt is stamped on the first transition
// only.
func applyDelivery(m *MealSlot, to DeliveryStatus, now time.Time) error {
	switch to {
	case DeliveryDelivered:
		if m.IsDelivered() {
			return nil
		}
		if m.PreparationStatus != PreparationCompleted {
			return apperr.Conflict("meal must be completed before it is delivered")
		}
		t := now.UTC()
		m.DeliveryStatus = DeliveryDelivered
		m.DeliveredAt = &t
	case DeliveryPending:
		if m.IsDelivered() {
			return apperr.Conflict("meal already delivered")
		}
	}
	return nil
}
