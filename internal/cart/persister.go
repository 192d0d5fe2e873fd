package cart

import (
	"context"
	"errors"
	"sync"
)

// 保存先が空のとき
var ErrNoSnapshot = errors.New("no cart snapshot")

// カートの保存先。Storeはこれ以外の保存方法を知らない。
type Persister interface {
	Load(ctx context.Context) ([]Line, error)
	Save(ctx context.Context, lines []Line) error
}

// Logger は保存失敗の警告だけを出す
type Logger interface {
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...interface{}) {}

// メモリ上の保存先（テスト・開発用）
type MemoryPersister struct {
	mu  sync.Mutex
	raw []byte

	// 設定するとLoad/Saveがそのエラーを返す
	LoadErr error
	SaveErr error
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

// SetRaw は保存済みデータを直接差し込む
func (p *MemoryPersister) SetRaw(raw []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raw = raw
}

func (p *MemoryPersister) Raw() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.raw
}

func (p *MemoryPersister) Load(ctx context.Context) ([]Line, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.LoadErr != nil {
		return nil, p.LoadErr
	}
	if p.raw == nil {
		return nil, ErrNoSnapshot
	}
	return Decode(p.raw)
}

func (p *MemoryPersister) Save(ctx context.Context, lines []Line) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SaveErr != nil {
		return p.SaveErr
	}
	raw, err := Encode(lines)
	if err != nil {
		return err
	}
	p.raw = raw
	return nil
}
