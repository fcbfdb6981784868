// Package refnum hands out human-readable order and reservation numbers.
package refnum

import (
	"context"
	"fmt"
	"time"

	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/utils"

	"github.com/go-redis/redis/v8"
)

const (
	PrefixOrder       = "PED"
	PrefixReservation = "RES"
)

// Generator produces PREFIX-YYYYMMDD-NNNNNN numbers from a daily Redis counter.
// Without Redis, or when Redis fails, it falls back to a random suffix.
type Generator struct {
	client *redis.Client
	loc    *time.Location
	log    *logger.Logger
	now    func() time.Time
}

func NewGenerator(client *redis.Client, loc *time.Location, log *logger.Logger) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{client: client, loc: loc, log: log, now: time.Now}
}

func (g *Generator) Next(ctx context.Context, prefix string) string {
	day := g.now().In(g.loc)
	if g.client == nil {
		return utils.RandomReference(prefix, day)
	}

	key := fmt.Sprintf("seq:%s:%s", prefix, day.Format("20060102"))
	seq, err := g.client.Incr(ctx, key).Result()
	if err != nil {
		g.log.Warn("REFNUM", fmt.Sprintf("Sequence %s unavailable, using random suffix: %v", key, err))
		return utils.RandomReference(prefix, day)
	}
	if seq == 1 {
		g.client.Expire(ctx, key, 48*time.Hour)
	}
	return utils.SequencedReference(prefix, day, seq)
}

// Random returns a number with a random suffix, which never has the shape of a sequenced one.
func (g *Generator) Random(prefix string) string {
	return utils.RandomReference(prefix, g.now().In(g.loc))
}
