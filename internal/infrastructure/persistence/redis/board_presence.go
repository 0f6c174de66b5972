package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrBlockIDEmpty is returned when the block ID is empty.
var ErrBlockIDEmpty = errors.New("board_presence: block ID cannot be empty")

// BoardPresence tracks which participants are connected to each block's
// drawing board. One set per board, refreshed on every join and expiring
// after inactivity, so a crashed instance never leaves ghosts forever.
type BoardPresence struct {
	client *redis.Client
}

// NewBoardPresence creates a new BoardPresence tracker.
func NewBoardPresence(client *redis.Client) *BoardPresence {
	return &BoardPresence{client: client}
}

func presenceKey(blockID string) string {
	return PrefixBoard + blockID + ":participants"
}

// Joined records a participant joining a block's board.
func (t *BoardPresence) Joined(ctx context.Context, blockID, participantID string) error {
	if blockID == "" {
		return ErrBlockIDEmpty
	}
	key := presenceKey(blockID)

	pipe := t.client.Pipeline()
	pipe.SAdd(ctx, key, participantID)
	pipe.Expire(ctx, key, TTLBoardPresence)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("board_presence: join: %w", err)
	}
	return nil
}

// Left records a participant leaving a block's board.
func (t *BoardPresence) Left(ctx context.Context, blockID, participantID string) error {
	if blockID == "" {
		return ErrBlockIDEmpty
	}
	if err := t.client.SRem(ctx, presenceKey(blockID), participantID).Err(); err != nil {
		return fmt.Errorf("board_presence: leave: %w", err)
	}
	return nil
}

// Participants returns the IDs currently present on a block's board.
func (t *BoardPresence) Participants(ctx context.Context, blockID string) ([]string, error) {
	if blockID == "" {
		return nil, ErrBlockIDEmpty
	}
	ids, err := t.client.SMembers(ctx, presenceKey(blockID)).Result()
	if err != nil {
		return nil, fmt.Errorf("board_presence: members: %w", err)
	}
	return ids, nil
}

// Count returns the number of participants on a block's board.
func (t *BoardPresence) Count(ctx context.Context, blockID string) (int64, error) {
	if blockID == "" {
		return 0, ErrBlockIDEmpty
	}
	n, err := t.client.SCard(ctx, presenceKey(blockID)).Result()
	if err != nil {
		return 0, fmt.Errorf("board_presence: count: %w", err)
	}
	return n, nil
}
