package model

// 管理画面から進められる遷移（前進のみ）
var adminTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusCanceled},
	OrderStatusPaid:      {OrderStatusPreparing, OrderStatusShipped, OrderStatusCanceled},
	OrderStatusPreparing: {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

// ParseOrderStatus は既知のステータスだけを受け付ける。
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusPaid, OrderStatusPreparing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCanceled, OrderStatusRefunded:
		return st, true
	}
	return "", false
}

// AdminTransitions は管理者に提示する遷移先。終端ステータスは空。
func AdminTransitions(from OrderStatus) []OrderStatus {
	next := adminTransitions[from]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

func CanAdminTransition(from, to OrderStatus) bool {
	for _, s := range adminTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransition は決済による pending -> paid も含む。
func CanTransition(from, to OrderStatus) bool {
	if from == OrderStatusPending && to == OrderStatusPaid {
		return true
	}
	return CanAdminTransition(from, to)
}

func (s OrderStatus) IsTerminal() bool {
	return len(adminTransitions[s]) == 0
}
