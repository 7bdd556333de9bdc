package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// fakeProvider is a configurable in-memory HockeyVictoriaProvider shared by
// the stage tests. Ladders and team stats are keyed "{comp}_{fixture}" and
// "{comp}_{team}", rounds "{comp}_{fixture}_{round}". A missing ladder,
// detail, or stats entry answers ErrNotFound; a missing round answers an
// empty page, which is what the site does inside a season.
type fakeProvider struct {
	mu sync.Mutex

	indexBlocks []ExternalCompetitionBlock
	indexErr    error

	ladders    map[string][]ExternalLadderRow
	ladderErrs map[string]error

	rounds    map[string][]ExternalGameCard
	roundErrs map[string]error

	details    map[string]ExternalGameDetail
	detailErrs map[string]error

	teamStats map[string]ExternalTeamStats
	statsErrs map[string]error

	calls map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		ladders:    map[string][]ExternalLadderRow{},
		ladderErrs: map[string]error{},
		rounds:     map[string][]ExternalGameCard{},
		roundErrs:  map[string]error{},
		details:    map[string]ExternalGameDetail{},
		detailErrs: map[string]error{},
		teamStats:  map[string]ExternalTeamStats{},
		statsErrs:  map[string]error{},
		calls:      map[string]int{},
	}
}

func (f *fakeProvider) count(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
}

func (f *fakeProvider) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeProvider) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeProvider) FetchCompetitionsIndex(_ context.Context) ([]ExternalCompetitionBlock, error) {
	f.count("index")
	if f.indexErr != nil {
		return nil, f.indexErr
	}
	return f.indexBlocks, nil
}

func (f *fakeProvider) FetchLadder(_ context.Context, compID, fixtureID string) ([]ExternalLadderRow, error) {
	key := compID + "_" + fixtureID
	f.count("ladder:" + key)
	if err := f.ladderErrs[key]; err != nil {
		return nil, err
	}
	rows, ok := f.ladders[key]
	if !ok {
		return nil, fmt.Errorf("%w: ladder %s", ErrNotFound, key)
	}
	return rows, nil
}

func (f *fakeProvider) FetchRound(_ context.Context, compID, fixtureID string, round int) ([]ExternalGameCard, error) {
	key := compID + "_" + fixtureID + "_" + strconv.Itoa(round)
	f.count("round:" + key)
	if err := f.roundErrs[key]; err != nil {
		return nil, err
	}
	return f.rounds[key], nil
}

func (f *fakeProvider) FetchGameDetail(_ context.Context, gameID string) (ExternalGameDetail, error) {
	f.count("detail:" + gameID)
	if err := f.detailErrs[gameID]; err != nil {
		return ExternalGameDetail{}, err
	}
	detail, ok := f.details[gameID]
	if !ok {
		return ExternalGameDetail{}, fmt.Errorf("%w: game %s", ErrNotFound, gameID)
	}
	return detail, nil
}

func (f *fakeProvider) FetchTeamStats(_ context.Context, compID, teamID string) (ExternalTeamStats, error) {
	key := compID + "_" + teamID
	f.count("stats:" + key)
	if err := f.statsErrs[key]; err != nil {
		return ExternalTeamStats{}, err
	}
	stats, ok := f.teamStats[key]
	if !ok {
		return ExternalTeamStats{}, fmt.Errorf("%w: team stats %s", ErrNotFound, key)
	}
	return stats, nil
}

func intPtr(n int) *int { return &n }
