package meal

import (
	"context"
	"time"

	"github.com/ShubhamKarampure/HealthyTray/internal/platform/auth"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/streams"
)

// EventPublisher receives committed meal changes. *streams.Publisher
// satisfies it.
type EventPublisher interface {
	PublishMealEvent(ctx context.Context, ev streams.MealEvent) (string, error)
}

const publishTimeout = 2 * time.Second

func newMealEvent(kind string, m *MealSlot, actor auth.Principal, at time.Time) streams.MealEvent {
	ev := streams.MealEvent{
		Type:              kind,
		MealID:            m.ID.String(),
		PatientID:         m.PatientID.String(),
		MealType:          string(m.MealType),
		PreparationStatus: string(m.PreparationStatus),
		DeliveryStatus:    string(m.DeliveryStatus),
		PantryStaffID:     m.PantryStaffID.String(),
		ActorID:           actor.UserID.String(),
		ActorRole:         string(actor.Role),
		OccurredAt:        at.UTC(),
	}
	if m.DeliveryPersonnelID != nil {
		ev.DeliveryPersonnelID = m.DeliveryPersonnelID.String()
	}
	return ev
}

// publish runs after commit. The write has already happened, so neither a
// cancelled request nor a broker failure is reported to the caller.
func (s *Service) publish(ctx context.Context, kind string, m *MealSlot, actor auth.Principal) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	_, _ = s.events.PublishMealEvent(ctx, newMealEvent(kind, m, actor, s.now()))
}
