// README: Location store backed by Redis GEO plus a hash of recording times.
package location

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"slotwise/internal/types"
)

const (
	lastJobGeoKey  = "technicians:last_job"
	lastJobTimeKey = "technicians:last_job:recorded_at"
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) SetLastJob(ctx context.Context, snap Snapshot) error {
	pipe := s.redis.TxPipeline()
	pipe.GeoAdd(ctx, lastJobGeoKey, &redis.GeoLocation{
		Name:      string(snap.TechnicianID),
		Longitude: snap.Position.Lng,
		Latitude:  snap.Position.Lat,
	})
	pipe.HSet(ctx, lastJobTimeKey, string(snap.TechnicianID), snap.RecordedAt.UnixMilli())
	_, err := pipe.Exec(ctx)
	return err
}

// GetLastJob returns the stored snapshot and whether one exists.
func (s *Store) GetLastJob(ctx context.Context, id types.ID) (Snapshot, bool, error) {
	pipe := s.redis.Pipeline()
	posCmd := pipe.GeoPos(ctx, lastJobGeoKey, string(id))
	atCmd := pipe.HGet(ctx, lastJobTimeKey, string(id))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return Snapshot{}, false, err
	}

	pos, err := posCmd.Result()
	if err != nil {
		return Snapshot{}, false, err
	}
	if len(pos) == 0 || pos[0] == nil {
		return Snapshot{}, false, nil
	}
	snap := Snapshot{
		TechnicianID: id,
		Position:     types.Point{Lat: pos[0].Latitude, Lng: pos[0].Longitude},
	}

	raw, err := atCmd.Result()
	if err == redis.Nil {
		return snap, true, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("parsing recorded_at for %s: %w", id, err)
	}
	snap.RecordedAt = time.UnixMilli(ms)
	return snap, true, nil
}

func (s *Store) DeleteLastJob(ctx context.Context, id types.ID) error {
	pipe := s.redis.TxPipeline()
	pipe.ZRem(ctx, lastJobGeoKey, string(id))
	pipe.HDel(ctx, lastJobTimeKey, string(id))
	_, err := pipe.Exec(ctx)
	return err
}
