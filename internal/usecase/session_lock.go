package usecase

import (
	"context"
	"sync"
)

// セッションIDごとの排他。同じカートの読み込みから保存までを1リクエストずつにする。
// 1プロセス内だけで効く。
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sem  chan struct{}
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: map[string]*sessionLock{}}
}

// acquire はロックを取り、解放用の関数を返す。待っている間にctxが終わればエラー。
func (l *sessionLocks) acquire(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[sessionID]
	if !ok {
		e = &sessionLock{sem: make(chan struct{}, 1)}
		l.locks[sessionID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(sessionID, e, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(sessionID, e, true) })
	}, nil
}

func (l *sessionLocks) release(sessionID string, e *sessionLock, held bool) {
	if held {
		<-e.sem
	}
	l.mu.Lock()
	e.refs--
	// 誰も使っていなければ消す
	if e.refs == 0 {
		delete(l.locks, sessionID)
	}
	l.mu.Unlock()
}

// 使用中のセッション数（テスト用）
func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
