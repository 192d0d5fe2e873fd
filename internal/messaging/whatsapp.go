package messaging

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// 注文メッセージに載せる1行
type MessageLine struct {
	Name     string
	Quantity int64
	Price    decimal.Decimal
}

// 注文メッセージの材料
type OrderMessage struct {
	OrderID  int64
	Name     string
	Phone    string
	Address  string
	Notes    string
	Lines    []MessageLine
	Total    decimal.Decimal
	Currency string
}

const (
	noAddress = "غير محدد"
	noNotes   = "لا توجد ملاحظات"
)

// Render は店側に送る注文テキストを作る。金額は小数2桁。
func (m OrderMessage) Render() string {
	address := strings.TrimSpace(m.Address)
	if address == "" {
		address = noAddress
	}
	notes := strings.TrimSpace(m.Notes)
	if notes == "" {
		notes = noNotes
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🍽️ طلب جديد #%d 🍽️\n\n", m.OrderID)
	b.WriteString("👤 معلومات العميل:\n")
	fmt.Fprintf(&b, "الاسم: %s\n", m.Name)
	fmt.Fprintf(&b, "الهاتف: %s\n", m.Phone)
	fmt.Fprintf(&b, "العنوان: %s\n\n", address)
	b.WriteString("🛒 الطلب:\n")
	for _, l := range m.Lines {
		sub := l.Price.Mul(decimal.NewFromInt(l.Quantity))
		fmt.Fprintf(&b, "- %s (%d) - %s %s\n", l.Name, l.Quantity, sub.StringFixed(2), m.Currency)
	}
	fmt.Fprintf(&b, "\n💰 المجموع: %s %s\n\n", m.Total.StringFixed(2), m.Currency)
	fmt.Fprintf(&b, "📝 ملاحظات: %s", notes)
	return b.String()
}

// DeepLink は wa.me のURL。電話番号は数字だけ残す。
func DeepLink(phone string, text string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, phone)
	// 空白は + ではなく %20
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
