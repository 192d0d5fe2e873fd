package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// カートの1行（メニュー項目1つ分）
type Line struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
	ImageURL string          `json:"image_url,omitempty"`
}

// カートに入れる前のメニュー項目
type Item struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	ImageURL string
}

// 合計（毎回計算し直す）
type Totals struct {
	TotalItems  int64           `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// 購読者とAPIに渡すカートの状態
type Snapshot struct {
	Items []Line `json:"items"`
	Totals
	IsEmpty bool `json:"is_empty"`
}

// Subtotal は単価×数量
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

func computeTotals(lines []Line) Totals {
	t := Totals{TotalAmount: decimal.Zero}
	for _, l := range lines {
		t.TotalItems += l.Quantity
		t.TotalAmount = t.TotalAmount.Add(l.Subtotal())
	}
	return t
}

func newSnapshot(lines []Line) Snapshot {
	items := make([]Line, len(lines))
	copy(items, lines)
	return Snapshot{
		Items:   items,
		Totals:  computeTotals(items),
		IsEmpty: len(items) == 0,
	}
}

// Encode は保存用のJSON配列にする
func Encode(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}

// Decode は保存済みJSONを読み、壊れた行は捨てる。
// 数量1未満・負の価格の行は除外し、同じIDは1行にまとめる。
func Decode(raw []byte) ([]Line, error) {
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, err
	}
	return normalize(lines), nil
}

func normalize(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	index := make(map[int64]int, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 || l.Price.IsNegative() {
			continue
		}
		if i, ok := index[l.ID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ID] = len(out)
		out = append(out, l)
	}
	return out
}
