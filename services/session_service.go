package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"raffle-system/internal/status"
	"raffle-system/models"
	"raffle-system/utils"
)

// SessionService keeps each customer's wizard state (identity, pending
// selection, step) in Redis so a returning session skips the identify
// step. One session hash and one selection set per session id, both
// expiring together.
type SessionService struct {
	Redis     *redis.Client
	unitPrice decimal.Decimal
	ttl       time.Duration
}

func NewSessionService(redisClient *redis.Client, unitPrice decimal.Decimal, ttl time.Duration) *SessionService {
	return &SessionService{
		Redis:     redisClient,
		unitPrice: unitPrice,
		ttl:       ttl,
	}
}

func sessionKey(sessionID string) string   { return fmt.Sprintf("session:%s", sessionID) }
func selectionKey(sessionID string) string { return fmt.Sprintf("selection:%s", sessionID) }

// Identify validates and stores the buyer identity, moving the session to
// the browse step. The contact is stored in its masked form; that exact
// string is what my-tickets later matches against.
func (s *SessionService) Identify(ctx context.Context, sessionID, name, contact string) (models.Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Identity{}, status.ErrEmptyName
	}
	masked := utils.FormatPhone(contact)
	if !utils.ValidContact(masked) {
		return models.Identity{}, status.ErrInvalidContact
	}

	key := sessionKey(sessionID)
	if err := s.Redis.HSet(ctx, key,
		"name", name,
		"contact", masked,
		"state", models.StateBrowse,
	).Err(); err != nil {
		return models.Identity{}, fmt.Errorf("store identity: %w", err)
	}
	if err := s.Redis.Expire(ctx, key, s.ttl).Err(); err != nil {
		return models.Identity{}, fmt.Errorf("expire session: %w", err)
	}

	return models.Identity{Name: name, Contact: masked, Identified: true}, nil
}

// Identity loads the remembered buyer, if any.
func (s *SessionService) Identity(ctx context.Context, sessionID string) (models.Identity, error) {
	data, err := s.Redis.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return models.Identity{}, fmt.Errorf("load identity: %w", err)
	}
	identity := models.Identity{
		Name:    data["name"],
		Contact: data["contact"],
	}
	identity.Identified = identity.Contact != ""
	return identity, nil
}

// ResetIdentity clears the remembered buyer and any pending selection.
func (s *SessionService) ResetIdentity(ctx context.Context, sessionID string) error {
	if err := s.Redis.Del(ctx, sessionKey(sessionID), selectionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("reset identity: %w", err)
	}
	return nil
}

// ToggleNumber flips membership of number in the pending selection.
// Only available tickets are selectable; toggling anything else is a
// no-op, mirroring the disabled grid buttons.
func (s *SessionService) ToggleNumber(ctx context.Context, sessionID string, number int, ticketStatus string) (bool, error) {
	if ticketStatus != models.StatusAvailable {
		return false, nil
	}

	key := selectionKey(sessionID)
	member := strconv.Itoa(number)

	selected, err := s.Redis.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("check selection: %w", err)
	}

	if selected {
		if err := s.Redis.SRem(ctx, key, member).Err(); err != nil {
			return false, fmt.Errorf("deselect number: %w", err)
		}
		return false, nil
	}

	if err := s.Redis.SAdd(ctx, key, member).Err(); err != nil {
		return false, fmt.Errorf("select number: %w", err)
	}
	if err := s.Redis.Expire(ctx, key, s.ttl).Err(); err != nil {
		return false, fmt.Errorf("expire selection: %w", err)
	}
	return true, nil
}

// Selection returns the pending numbers sorted ascending.
func (s *SessionService) Selection(ctx context.Context, sessionID string) ([]int, error) {
	members, err := s.Redis.SMembers(ctx, selectionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}
	numbers := make([]int, 0, len(members))
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}

// Review snapshots the pending selection and its total, moving the
// session to the review step.
func (s *SessionService) Review(ctx context.Context, sessionID string) (models.ReviewSnapshot, error) {
	numbers, err := s.Selection(ctx, sessionID)
	if err != nil {
		return models.ReviewSnapshot{}, err
	}
	if len(numbers) == 0 {
		return models.ReviewSnapshot{}, status.ErrEmptySelection
	}
	if err := s.Redis.HSet(ctx, sessionKey(sessionID), "state", models.StateReview).Err(); err != nil {
		return models.ReviewSnapshot{}, fmt.Errorf("store state: %w", err)
	}

	return models.ReviewSnapshot{
		Numbers: numbers,
		Count:   len(numbers),
		Total:   s.unitPrice.Mul(decimal.NewFromInt(int64(len(numbers)))),
	}, nil
}

// CompleteReservation clears the selection after an accepted reservation.
// It is only called on success, so a failed reserve leaves the selection
// intact and the session in browse.
func (s *SessionService) CompleteReservation(ctx context.Context, sessionID string) error {
	if err := s.Redis.Del(ctx, selectionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear selection: %w", err)
	}
	if err := s.Redis.HSet(ctx, sessionKey(sessionID), "state", models.StateSubmitted).Err(); err != nil {
		return fmt.Errorf("store state: %w", err)
	}
	return nil
}

// SplitMine picks the buyer's tickets out of the full pool by exact
// contact string match and splits them into pending and confirmed. A
// contact masked differently than at reservation time will not match;
// that is intentional, the stored string is the identity.
func SplitMine(tickets []models.Ticket, contact string) models.MyTickets {
	var mine models.MyTickets
	if contact == "" {
		return mine
	}
	for _, t := range tickets {
		if t.BuyerContact != contact {
			continue
		}
		switch t.Status {
		case models.StatusReserved:
			mine.Pending = append(mine.Pending, t)
		case models.StatusPaid:
			mine.Confirmed = append(mine.Confirmed, t)
		}
	}
	return mine
}
