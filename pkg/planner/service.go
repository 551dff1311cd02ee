// Package planner holds the activation-plan service layer. The status
// state machine lives here: the repository stores whatever status it is
// given, and this package decides which transitions are legal.
package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/pjbaur/potaplan/pkg/stores"
	"github.com/pjbaur/potaplan/pkg/telemetry"
)

// ErrIllegalTransition is returned when a status change violates the
// draft -> finalized -> completed, any -> cancelled state machine.
var ErrIllegalTransition = errors.New("illegal plan status transition")

// ErrPlanNotFound is returned when the target plan does not exist.
var ErrPlanNotFound = errors.New("plan not found")

// legalTransitions maps each status to the statuses it may move to.
// Completed and cancelled are terminal apart from cancellation itself.
var legalTransitions = map[stores.PlanStatus][]stores.PlanStatus{
	stores.PlanStatusDraft:     {stores.PlanStatusFinalized, stores.PlanStatusCancelled},
	stores.PlanStatusFinalized: {stores.PlanStatusCompleted, stores.PlanStatusCancelled},
	stores.PlanStatusCompleted: {stores.PlanStatusCancelled},
	stores.PlanStatusCancelled: {},
}

// Service coordinates plan mutations that need more than a dumb field
// store: status transitions and weather snapshotting.
type Service struct {
	plans   *stores.PlanRepo
	weather *stores.WeatherRepo
	log     *telemetry.Logger
}

// NewService creates a planner service.
func NewService(plans *stores.PlanRepo, weather *stores.WeatherRepo, log *telemetry.Logger) *Service {
	return &Service{
		plans:   plans,
		weather: weather,
		log:     log.NewComponentLogger("planner"),
	}
}

// Finalize moves a draft plan to finalized.
func (s *Service) Finalize(ctx context.Context, id int64) (*stores.Plan, error) {
	return s.transition(ctx, id, stores.PlanStatusFinalized)
}

// Complete moves a finalized plan to completed.
func (s *Service) Complete(ctx context.Context, id int64) (*stores.Plan, error) {
	return s.transition(ctx, id, stores.PlanStatusCompleted)
}

// Cancel moves any plan to cancelled.
func (s *Service) Cancel(ctx context.Context, id int64) (*stores.Plan, error) {
	return s.transition(ctx, id, stores.PlanStatusCancelled)
}

func (s *Service) transition(ctx context.Context, id int64, target stores.PlanStatus) (*stores.Plan, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: %d", ErrPlanNotFound, id)
	}

	if !transitionAllowed(plan.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, plan.Status, target)
	}

	updated, err := s.plans.Update(ctx, id, stores.PlanUpdate{Status: &target})
	if err != nil {
		return nil, err
	}
	s.log.WithField("plan_id", id).Infof("plan %s", target)
	return updated, nil
}

func transitionAllowed(from, to stores.PlanStatus) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// SnapshotWeather copies the cached forecast for the plan's park and
// date onto the plan as an opaque blob, recording the conditions the
// operator planned against. A cache miss leaves the plan untouched and
// is reported so the caller can fetch first.
func (s *Service) SnapshotWeather(ctx context.Context, id int64) (*stores.Plan, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: %d", ErrPlanNotFound, id)
	}

	cached, err := s.weather.Get(ctx, plan.Park.Latitude, plan.Park.Longitude, plan.PlannedDate)
	if err != nil {
		return nil, err
	}
	if cached == nil {
		return nil, fmt.Errorf("no cached forecast for %s on %s", plan.Park.Reference, plan.PlannedDate)
	}
	if cached.IsStale {
		s.log.WithField("plan_id", id).Warn("snapshotting a stale forecast")
	}

	return s.plans.Update(ctx, id, stores.PlanUpdate{WeatherSnapshot: &cached.Entry.Data})
}
