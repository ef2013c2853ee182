package store

import "sync"

// Ключи поколений загрузок. Ответ загрузки применяется, только если после её старта
// не началась новая загрузка того же ключа.
const (
	genProducts      = "products"
	genProduct       = "product"
	genCategories    = "categories"
	genOrders        = "orders"
	genOrder         = "order"
	genProfile       = "profile"
	genAddresses     = "addresses"
	genPayment       = "paymentMethods"
	genNotifications = "notifications"
)

type generations struct {
	mu      sync.Mutex
	m       map[string]uint64
	pending map[string]int
}

func newGenerations() *generations {
	return &generations{m: make(map[string]uint64), pending: make(map[string]int)}
}

// next начинает новую загрузку key и возвращает её поколение.
func (g *generations) next(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.m[key]++
	g.pending[key]++
	return g.m[key]
}

// finish завершает загрузку key поколения gen. current == false, если загрузка устарела.
// idle сообщает, что ни одна загрузка key и shared больше не выполняется: только тогда
// устаревший ответ может снять флаг загрузки среза.
func (g *generations) finish(key string, gen uint64, shared ...string) (current, idle bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending[key] > 0 {
		g.pending[key]--
	}
	current = g.m[key] == gen

	idle = g.pending[key] == 0
	for _, k := range shared {
		idle = idle && g.pending[k] == 0
	}
	return current, idle
}

// invalidate делает устаревшими все начатые загрузки (например, при смене пользователя).
func (g *generations) invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for k := range g.m {
		g.m[k]++
	}
}
