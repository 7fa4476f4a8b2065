package chat

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/suPer8Hu/shopchat/internal/cart"
	"github.com/suPer8Hu/shopchat/internal/catalog"
	"github.com/suPer8Hu/shopchat/internal/common"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateSession(ctx context.Context, userID uint64) (*Session, error) {
	sid, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	s := &Session{SessionID: sid, UserID: userID}
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repo) FindSession(ctx context.Context, userID uint64, sessionID string) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) LatestSession(ctx context.Context, userID uint64) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) TouchSession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Model(&Session{}).
		Where("session_id = ?", sessionID).
		Update("updated_at", time.Now()).Error
}

func (r *Repo) Sessions(ctx context.Context, userID uint64) ([]Session, error) {
	var out []Session
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) AppendMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// RecentMessages returns the most recent messages, newest first.
func (r *Repo) RecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// ListMessages returns messages in DESC id order (newest -> oldest) for
// cursor pagination.
func (r *Repo) ListMessages(ctx context.Context, userID uint64, sessionID string, limit int, beforeID uint64) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("id DESC").
		Limit(limit)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var msgs []Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// SessionSummary is one row of the session list, with a preview of the last
// message.
type SessionSummary struct {
	Session
	LastMessage string `json:"last_message"`
}

// SessionSummaries lists the user's sessions newest-updated first. The
// per-session previews are independent read-only lookups, fetched
// concurrently.
func (r *Repo) SessionSummaries(ctx context.Context, userID uint64) ([]SessionSummary, error) {
	sessions, err := r.Sessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]SessionSummary, len(sessions))
	var wg sync.WaitGroup
	wg.Add(len(sessions))
	for i, s := range sessions {
		go func(i int, s Session) {
			defer wg.Done()
			out[i] = SessionSummary{Session: s}
			msgs, err := r.RecentMessages(ctx, s.SessionID, 1)
			if err != nil {
				log.Printf("[Repo] session preview failed session=%s err=%v", s.SessionID, err)
				return
			}
			if len(msgs) > 0 {
				out[i].LastMessage = msgs[0].Content
			}
		}(i, s)
	}
	wg.Wait()
	return out, nil
}

// Job CRUD

func (r *Repo) CreateJob(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) GetJobByID(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repo) UpdateJobStatusRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning).Error
}

func (r *Repo) MarkJobSucceeded(ctx context.Context, id string, sessionID string, assistantMsgID uint64) error {
	// assistantMsgID 0 means the assistant message write failed after a
	// successful reply; store NULL rather than a dangling zero reference.
	var msgID any
	if assistantMsgID != 0 {
		msgID = assistantMsgID
	}
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            JobSucceeded,
			"result_session_id": sessionID,
			"result_message_id": msgID,
			"error":             nil,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            JobFailed,
			"error":             errMsg,
			"result_session_id": nil,
			"result_message_id": nil,
		}).Error
}

func (r *Repo) getJobByUserAndIdempotencyKey(ctx context.Context, userID uint64, key string) (*Job, error) {
	var job Job
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateJobOrGetExisting tries to create a job; if (user_id, idempotency_key)
// already exists, it returns the existing job instead.
func (r *Repo) CreateJobOrGetExisting(ctx context.Context, job *Job) (*Job, bool, error) {
	if job.IdempotencyKey == nil || *job.IdempotencyKey == "" {
		job.IdempotencyKey = nil
		if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
			return nil, false, err
		}
		return job, true, nil
	}

	err := r.db.WithContext(ctx).Create(job).Error
	if err == nil {
		return job, true, nil
	}

	existing, getErr := r.getJobByUserAndIdempotencyKey(ctx, job.UserID, *job.IdempotencyKey)
	if getErr == nil {
		return existing, false, nil
	}
	if errors.Is(getErr, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	return nil, false, getErr
}

// Store combines the chat repo with the cart repo into the full Storage
// contract the orchestrator consumes.
type Store struct {
	*Repo
	carts *cart.Repo
}

var _ Storage = (*Store)(nil)

func NewStore(chatRepo *Repo, cartRepo *cart.Repo) *Store {
	return &Store{Repo: chatRepo, carts: cartRepo}
}

func (s *Store) CartItems(ctx context.Context, userID uint64) ([]cart.Item, error) {
	return s.carts.CartItems(ctx, userID)
}

func (s *Store) UpsertCartItem(ctx context.Context, userID uint64, p catalog.ProductRef, qty int) (*cart.Item, error) {
	return s.carts.UpsertCartItem(ctx, userID, p, qty)
}

func (s *Store) RemoveNewestCartItem(ctx context.Context, userID uint64) (*cart.Item, error) {
	return s.carts.RemoveNewestCartItem(ctx, userID)
}

func (s *Store) PurchaseHistory(ctx context.Context, userID uint64, limit int) ([]cart.Purchase, error) {
	return s.carts.PurchaseHistory(ctx, userID, limit)
}
