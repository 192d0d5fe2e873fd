package cart

import (
	"context"
	"errors"
	"sync"
)

// Store は1セッション分のカート。
// 変更のたびに保存先へ書き込み、購読者に新しい状態を通知する。
type Store struct {
	mu        sync.Mutex
	lines     []Line
	persister Persister
	logger    Logger

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// Open は保存済みのカートを読み込む。読めないときは空のカートで始める。
func Open(ctx context.Context, p Persister, logger Logger) *Store {
	if logger == nil {
		logger = nopLogger{}
	}
	s := &Store{
		lines:     []Line{},
		persister: p,
		logger:    logger,
		subs:      map[int]func(Snapshot){},
	}
	if p == nil {
		return s
	}

	lines, err := p.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			logger.Warnf("cart: load failed, starting empty: %v", err)
		}
		return s
	}
	s.lines = normalize(lines)
	return s
}

// Subscribe は変更通知を登録し、解除用の関数を返す
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// AddItem は同じIDなら数量+1、なければ数量1で末尾に追加する
func (s *Store) AddItem(ctx context.Context, item Item) Snapshot {
	return s.mutate(ctx, func(lines []Line) ([]Line, bool) {
		for i := range lines {
			if lines[i].ID == item.ID {
				lines[i].Quantity++
				return lines, true
			}
		}
		return append(lines, Line{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: 1,
			ImageURL: item.ImageURL,
		}), true
	})
}

// UpdateQuantity は数量を置き換える。1未満は削除、知らないIDは何もしない。
func (s *Store) UpdateQuantity(ctx context.Context, id int64, quantity int64) Snapshot {
	if quantity < 1 {
		return s.RemoveItem(ctx, id)
	}
	return s.mutate(ctx, func(lines []Line) ([]Line, bool) {
		for i := range lines {
			if lines[i].ID == id {
				if lines[i].Quantity == quantity {
					return lines, false
				}
				lines[i].Quantity = quantity
				return lines, true
			}
		}
		return lines, false
	})
}

// Decrement は数量-1。数量1の行は削除する。
func (s *Store) Decrement(ctx context.Context, id int64) Snapshot {
	return s.mutate(ctx, func(lines []Line) ([]Line, bool) {
		for i := range lines {
			if lines[i].ID != id {
				continue
			}
			if lines[i].Quantity <= 1 {
				return append(lines[:i], lines[i+1:]...), true
			}
			lines[i].Quantity--
			return lines, true
		}
		return lines, false
	})
}

func (s *Store) RemoveItem(ctx context.Context, id int64) Snapshot {
	return s.mutate(ctx, func(lines []Line) ([]Line, bool) {
		for i := range lines {
			if lines[i].ID == id {
				return append(lines[:i], lines[i+1:]...), true
			}
		}
		return lines, false
	})
}

// Clear は無条件に空にする
func (s *Store) Clear(ctx context.Context) Snapshot {
	return s.mutate(ctx, func(lines []Line) ([]Line, bool) {
		return lines[:0], true
	})
}

func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeTotals(s.lines)
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newSnapshot(s.lines)
}

func (s *Store) mutate(ctx context.Context, fn func([]Line) ([]Line, bool)) Snapshot {
	s.mu.Lock()
	lines, changed := fn(s.lines)
	s.lines = lines
	snap := newSnapshot(s.lines)
	if changed {
		s.save(ctx, snap.Items)
	}
	s.mu.Unlock()

	if changed {
		s.notify(snap)
	}
	return snap
}

// 保存は失敗しても呼び出し元に返さない
func (s *Store) save(ctx context.Context, lines []Line) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, lines); err != nil {
		s.logger.Warnf("cart: save failed: %v", err)
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
