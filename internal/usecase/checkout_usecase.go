package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain/model"
	"storefront/internal/events"
	"storefront/internal/messaging"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// メニュー項目が消えた明細の表示名
const deletedItemLabel = "صنف محذوف"

var errIdempotencyRace = errors.New("idempotency key taken concurrently")

// 注文確定（チェックアウト）
type CheckoutUsecase struct {
	tx        repo.TransactionManager
	carts     *CartUsecase
	publisher events.Publisher
	logger    cart.Logger
	handoff   HandoffConfig
}

// 店側に注文を送るWhatsAppの設定
type HandoffConfig struct {
	Phone    string
	Currency string
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	carts *CartUsecase,
	publisher events.Publisher,
	logger cart.Logger,
	handoff HandoffConfig,
) *CheckoutUsecase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = discardLogger{}
	}
	return &CheckoutUsecase{tx: tx, carts: carts, publisher: publisher, logger: logger, handoff: handoff}
}

type PlaceOrderInput struct {
	Name           string
	Phone          string
	Address        string
	Notes          string
	IdempotencyKey string
}

type OrderItemOutput struct {
	MenuItemID int64           `json:"menu_item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int64           `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	// メニューから削除済み
	Deleted bool `json:"deleted"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerAddress *string           `json:"customer_address"`
	Notes           *string           `json:"notes"`
	Status          string            `json:"status"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

type PlaceOrderOutput struct {
	Order       OrderOutput `json:"order"`
	WhatsAppURL string      `json:"whatsapp_url"`
	WhatsAppQR  string      `json:"whatsapp_qr,omitempty"`
	// 同じ冪等キーの再送で既存注文を返した
	Replayed bool `json:"replayed"`
}

// PlaceOrder はカートから注文を作り、カートを空にしてWhatsAppのリンクを返す
func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, sessionID string, in PlaceOrderInput) (PlaceOrderOutput, error) {
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	if name == "" || phone == "" {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "name and phone required")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	var out OrderOutput
	replayed := false

	// カートの読み込みから空にするまで同じセッションの変更を止める
	err := u.carts.withCart(ctx, sessionID, func(store *cart.Store) error {
		var err error
		out, replayed, err = u.placeOrder(ctx, sessionID, key, store, newPendingOrder(name, phone, in))
		if err != nil || replayed {
			return err
		}
		// コミット後にカートを空にする
		store.Clear(ctx)
		return nil
	})
	if err != nil {
		return PlaceOrderOutput{}, err
	}

	if !replayed {
		if err := u.publisher.PublishOrderPlaced(ctx, toOrderPlaced(out)); err != nil {
			u.logger.Warnf("order %d: publish order.placed failed: %v", out.ID, err)
		}
	}

	link, qr := u.whatsApp(out)
	return PlaceOrderOutput{Order: out, WhatsAppURL: link, WhatsAppQR: qr, Replayed: replayed}, nil
}

func newPendingOrder(name, phone string, in PlaceOrderInput) model.Order {
	return model.Order{
		CustomerName:    name,
		CustomerPhone:   phone,
		CustomerAddress: optional(in.Address),
		Notes:           optional(in.Notes),
		Status:          model.OrderStatusPending,
	}
}

// placeOrder は注文と明細を1つのTxで書く。同じセッションの同じキーなら既存の注文を返す。
func (u *CheckoutUsecase) placeOrder(ctx context.Context, sessionID, key string, store *cart.Store, order model.Order) (OrderOutput, bool, error) {
	var out OrderOutput
	replayed := false

	//注文処理はトランザクション
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		if key != "" {
			existing, found, err := findOrderByKey(ctx, r, sessionID, key)
			if err != nil {
				return err
			}
			if found {
				out = existing
				replayed = true
				return nil
			}
		}

		lines := store.Lines()
		if len(lines) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		now := time.Now()
		order.SessionID = sessionID
		order.TotalAmount = store.Totals().TotalAmount
		order.CreatedAt = now
		if key != "" {
			order.IdempotencyKey = &key
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err == repo.ErrConflict && key != "" {
			return errIdempotencyRace
		}
		if err != nil {
			return dbError(err)
		}
		order.ID = orderID

		//注文時点の名前と単価を残す
		orderItems := make([]model.OrderItem, 0, len(lines))
		views := make([]repo.OrderItemView, 0, len(lines))
		for _, l := range lines {
			it := model.OrderItem{
				MenuItemID:   l.ID,
				NameSnapshot: l.Name,
				Quantity:     l.Quantity,
				Price:        l.Price,
				CreatedAt:    now,
			}
			orderItems = append(orderItems, it)
			lineName := l.Name
			views = append(views, repo.OrderItemView{OrderItem: it, MenuItemName: &lineName})
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return dbError(err)
		}

		out = toOrderOutput(order, views)
		return nil
	})
	if errors.Is(err, errIdempotencyRace) {
		//同時に同じキーが入った。失敗したTxの外でもう一回検索して同じ結果を返す
		err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			existing, found, err := findOrderByKey(ctx, r, sessionID, key)
			if err != nil {
				return err
			}
			if !found {
				return NewHTTPError(http.StatusConflict, "idempotency conflict")
			}
			out = existing
			replayed = true
			return nil
		})
	}
	if err != nil {
		return OrderOutput{}, false, err
	}
	return out, replayed, nil
}

// キーはセッションごと。他のセッションの注文は見えない。
func findOrderByKey(ctx context.Context, r repo.TxRepos, sessionID, key string) (OrderOutput, bool, error) {
	o, found, err := r.Orders().FindByIdempotencyKey(ctx, sessionID, key)
	if err != nil {
		return OrderOutput{}, false, dbError(err)
	}
	if !found {
		return OrderOutput{}, false, nil
	}
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, false, dbError(err)
	}
	return toOrderOutput(o, items), true, nil
}

// WhatsAppのリンクとQR（QRは失敗しても空で返す）
func (u *CheckoutUsecase) whatsApp(o OrderOutput) (string, string) {
	link := u.handoff.link(o)
	qr, err := messaging.QRCodeDataURL(link)
	if err != nil {
		u.logger.Warnf("order %d: qr failed: %v", o.ID, err)
		return link, ""
	}
	return link, qr
}

func (h HandoffConfig) link(o OrderOutput) string {
	return messaging.DeepLink(h.Phone, orderMessage(o, h.Currency).Render())
}

func orderMessage(o OrderOutput, currency string) messaging.OrderMessage {
	m := messaging.OrderMessage{
		OrderID:  o.ID,
		Name:     o.CustomerName,
		Phone:    o.CustomerPhone,
		Total:    o.TotalAmount,
		Currency: currency,
	}
	if o.CustomerAddress != nil {
		m.Address = *o.CustomerAddress
	}
	if o.Notes != nil {
		m.Notes = *o.Notes
	}
	for _, it := range o.Items {
		m.Lines = append(m.Lines, messaging.MessageLine{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return m
}

func toOrderPlaced(o OrderOutput) events.OrderPlaced {
	ev := events.OrderPlaced{
		OrderID:       o.ID,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		TotalAmount:   o.TotalAmount,
		Status:        o.Status,
		Items:         make([]events.OrderPlacedItem, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, events.OrderPlacedItem{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			Price:      it.Price,
		})
	}
	return ev
}

// 名前は注文時点のものを優先。無ければ今のメニュー名、それも無ければ削除済み表示。
func toOrderOutput(o model.Order, items []repo.OrderItemView) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		name := it.NameSnapshot
		if name == "" && it.MenuItemName != nil {
			name = *it.MenuItemName
		}
		if name == "" {
			name = deletedItemLabel
		}
		outItems = append(outItems, OrderItemOutput{
			MenuItemID: it.MenuItemID,
			Name:       name,
			Price:      it.Price,
			Quantity:   it.Quantity,
			Subtotal:   it.Price.Mul(decimal.NewFromInt(it.Quantity)),
			Deleted:    it.MenuItemName == nil,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerAddress: o.CustomerAddress,
		Notes:           o.Notes,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
