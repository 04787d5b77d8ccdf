package usecases

import (
	"context"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// SearchStrategy is one (transport, time) rung of a progressive search
// ladder. Ladders are tried in order until a rung yields results.
type SearchStrategy struct {
	Transport domain.TransportMode `json:"transport"`
	Minutes   int                  `json:"minutes"`
}

// nearestLadder escalates a nearest-POI search: short walking radii first,
// then increasingly wide driving radii.
var nearestLadder = []SearchStrategy{
	{Transport: domain.TransportWalking, Minutes: 10},
	{Transport: domain.TransportDriving, Minutes: 10},
	{Transport: domain.TransportWalking, Minutes: 20},
	{Transport: domain.TransportDriving, Minutes: 20},
	{Transport: domain.TransportWalking, Minutes: 30},
	{Transport: domain.TransportDriving, Minutes: 30},
	{Transport: domain.TransportWalking, Minutes: 60},
	{Transport: domain.TransportDriving, Minutes: 60},
}

// AnchorLadder builds the escalation ladder for searches around an anchor:
// walking and driving at the caller's constraint, then at 30 and 60 minutes.
func AnchorLadder(constraintMinutes *int) []SearchStrategy {
	minutes := []int{30, 60}
	if constraintMinutes != nil && *constraintMinutes > 0 {
		minutes = append([]int{*constraintMinutes}, minutes...)
	}

	seen := make(map[SearchStrategy]bool)
	var ladder []SearchStrategy
	for _, m := range minutes {
		for _, mode := range []domain.TransportMode{domain.TransportWalking, domain.TransportDriving} {
			s := SearchStrategy{Transport: mode, Minutes: m}
			if seen[s] {
				continue
			}
			seen[s] = true
			ladder = append(ladder, s)
		}
	}
	return ladder
}

// FirstSuccess walks a ladder in order and returns the first non-empty
// result set together with the rung that produced it. A failing rung does
// not abort the walk. The returned error is non-nil only when the walk
// ended on a failure: a clean empty result at a wider rung clears it, so
// callers can tell "nothing anywhere" from "the widest search failed".
func FirstSuccess[T any](ctx context.Context, ladder []SearchStrategy, search func(context.Context, SearchStrategy) ([]T, error)) ([]T, SearchStrategy, error) {
	var lastErr error
	for _, rung := range ladder {
		if err := ctx.Err(); err != nil {
			return nil, SearchStrategy{}, err
		}
		found, err := search(ctx, rung)
		if err != nil {
			lastErr = err
			continue
		}
		if len(found) > 0 {
			return found, rung, nil
		}
		lastErr = nil
	}
	return nil, SearchStrategy{}, lastErr
}
