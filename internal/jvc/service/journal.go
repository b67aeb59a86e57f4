package service

import (
	"context"
	"sync"
	"time"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/pkg/idgen"
	"github.com/rs/zerolog"
)

// JournalService 有界的操作日志，按时间顺序保存最近的变更操作
type JournalService struct {
	mu      sync.Mutex
	entries []entity.JournalEntry
	start   int
	count   int
	idGen   *idgen.Generator
	now     func() time.Time
}

// NewJournalService 创建容量为 capacity 的操作日志
func NewJournalService(capacity int) *JournalService {
	if capacity <= 0 {
		capacity = 256
	}
	return &JournalService{
		entries: make([]entity.JournalEntry, capacity),
		idGen:   idgen.DefaultGenerator(),
		now:     time.Now,
	}
}

// Append 追加一条日志，满时覆盖最旧的条目
func (j *JournalService) Append(ctx context.Context, operation, message string) {
	id, err := j.idGen.GenerateID()
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to generate journal entry ID")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entry := entity.JournalEntry{
		ID:        id,
		Time:      j.now().UTC().Format(time.RFC3339Nano),
		Operation: operation,
		Message:   message,
	}

	capacity := len(j.entries)
	if j.count < capacity {
		j.entries[(j.start+j.count)%capacity] = entry
		j.count++
		return
	}
	j.entries[j.start] = entry
	j.start = (j.start + 1) % capacity
}

// List 返回最新的 limit 条日志（旧的在前），limit <= 0 返回全部
// 返回的条目同时写入日志
func (j *JournalService) List(ctx context.Context, req *entity.JournalListRequest) (*entity.JournalListReply, error) {
	j.mu.Lock()
	n := j.count
	if req.Limit > 0 && req.Limit < n {
		n = req.Limit
	}
	out := make([]entity.JournalEntry, n)
	capacity := len(j.entries)
	skip := j.count - n
	for i := 0; i < n; i++ {
		out[i] = j.entries[(j.start+skip+i)%capacity]
	}
	j.mu.Unlock()

	logger := zerolog.Ctx(ctx)
	for _, e := range out {
		logger.Info().
			Uint64("id", e.ID).
			Str("time", e.Time).
			Str("operation", e.Operation).
			Msg(e.Message)
	}

	return &entity.JournalListReply{Entries: out}, nil
}

// Len 当前条目数
func (j *JournalService) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}
