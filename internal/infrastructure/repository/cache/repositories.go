package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/grade"
	"github.com/mentonehc/hvsync/internal/domain/team"
	basecache "github.com/mentonehc/hvsync/internal/platform/cache"
)

// TeamRepository is a read-through wrapper over the team store. Stage
// selectors hit the same listings several times per run, and on Firestore
// every one of those reads is a billed document fetch.
type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) Get(ctx context.Context, id string) (team.Team, bool, error) {
	key := "team:id:" + id
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return cachedTeam{value: cloneTeam(item), exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeam)
	return cloneTeam(cached.value), cached.exists, nil
}

func (r *TeamRepository) List(ctx context.Context, q team.Query) ([]team.Team, error) {
	v, err := r.cache.GetOrLoad(ctx, teamListKey(q), func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx, q)
		if err != nil {
			return nil, err
		}
		return cloneTeams(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]team.Team)
	return cloneTeams(items), nil
}

func (r *TeamRepository) UpsertBatch(ctx context.Context, items []team.Team) error {
	if err := r.next.UpsertBatch(ctx, items); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "team:")
	return nil
}

func (r *TeamRepository) UpdateLadder(ctx context.Context, updates []team.LadderUpdate) error {
	if err := r.next.UpdateLadder(ctx, updates); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "team:")
	return nil
}

func teamListKey(q team.Query) string {
	return "team:list:" + q.CompetitionID + ":" + q.GradeID + ":" +
		strconv.FormatBool(q.HomeClubOnly) + ":" + strconv.Itoa(q.Limit)
}

type cachedTeam struct {
	value  team.Team
	exists bool
}

func cloneTeam(item team.Team) team.Team {
	out := item
	if item.LadderStats != nil {
		stats := *item.LadderStats
		out.LadderStats = &stats
	}
	return out
}

func cloneTeams(items []team.Team) []team.Team {
	out := make([]team.Team, len(items))
	for i, item := range items {
		out[i] = cloneTeam(item)
	}
	return out
}

// GradeRepository is a read-through wrapper over the grade store.
type GradeRepository struct {
	next  grade.Repository
	cache *basecache.Store
}

func NewGradeRepository(next grade.Repository, cache *basecache.Store) *GradeRepository {
	return &GradeRepository{next: next, cache: cache}
}

func (r *GradeRepository) Get(ctx context.Context, id string) (grade.Grade, bool, error) {
	key := "grade:id:" + id
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return cachedGrade{value: item, exists: exists}, nil
	})
	if err != nil {
		return grade.Grade{}, false, err
	}

	cached, _ := v.(cachedGrade)
	return cached.value, cached.exists, nil
}

func (r *GradeRepository) List(ctx context.Context) ([]grade.Grade, error) {
	v, err := r.cache.GetOrLoad(ctx, "grade:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]grade.Grade(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]grade.Grade)
	return append([]grade.Grade(nil), items...), nil
}

// ListStale is not cached: the cutoff moves with every call, so a cached
// answer would keep serving grades that were checked in the meantime.
func (r *GradeRepository) ListStale(ctx context.Context, cutoff time.Time) ([]grade.Grade, error) {
	return r.next.ListStale(ctx, cutoff)
}

func (r *GradeRepository) UpsertBatch(ctx context.Context, items []grade.Grade) error {
	if err := r.next.UpsertBatch(ctx, items); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "grade:")
	return nil
}

func (r *GradeRepository) TouchChecked(ctx context.Context, ids []string, at time.Time) error {
	if err := r.next.TouchChecked(ctx, ids, at); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "grade:")
	return nil
}

type cachedGrade struct {
	value  grade.Grade
	exists bool
}
