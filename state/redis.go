package state

import (
	"context"
	"fmt"
	"github.com/go-redis/redis/v8"
	"github.com/shimmeringbee/somfycul/rollingcode"
	"strconv"
)

var _ Gateway = (*RedisGateway)(nil)

const (
	hashKey      = "enc_key"
	hashCode     = "rolling_code"
	hashPosition = "current_pos"
)

// RedisGateway keeps one hash per identity, named Prefix + identity.
type RedisGateway struct {
	Client redis.Cmdable
	Prefix string
}

func (g *RedisGateway) key(id string) string {
	return g.Prefix + id
}

func (g *RedisGateway) Load(ctx context.Context, id string) (Record, bool, error) {
	values, err := g.Client.HGetAll(ctx, g.key(id)).Result()
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: failed to read hash '%s': %w", ErrPersistenceFailure, g.key(id), err)
	}

	if len(values) == 0 {
		return Record{}, false, nil
	}

	r, err := recordFromHash(values)
	if err != nil {
		return Record{}, false, err
	}

	return r, true, nil
}

func (g *RedisGateway) Save(ctx context.Context, id string, r Record) error {
	key := g.key(id)

	_, err := g.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, hashKey, int64(r.Rolling.Key), hashCode, int64(r.Rolling.Code))

		if r.Position != nil {
			pipe.HSet(ctx, key, hashPosition, int64(*r.Position))
		} else {
			pipe.HDel(ctx, key, hashPosition)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("%w: failed to write hash '%s': %w", ErrPersistenceFailure, key, err)
	}

	return nil
}

func recordFromHash(values map[string]string) (Record, error) {
	key, err := strconv.ParseInt(values[hashKey], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %w", ErrInvalidRecord, hashKey, err)
	}

	code, err := strconv.ParseInt(values[hashCode], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %w", ErrInvalidRecord, hashCode, err)
	}

	var position *int

	if raw, found := values[hashPosition]; found {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %s: %w", ErrInvalidRecord, hashPosition, err)
		}

		position = &p
	}

	if err := validateRecord(key, code, position); err != nil {
		return Record{}, err
	}

	return Record{
		Rolling:  rollingcode.State{Key: uint8(key), Code: uint16(code)},
		Position: position,
	}, nil
}
