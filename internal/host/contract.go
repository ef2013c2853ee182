// Package host связывает фрагменты витрины с единственными экземплярами состояния,
// клиентов и шины.
//
// Фрагмент не импортирует другие фрагменты и не создаёт свои копии store или клиентов:
// всё нужное он получает через Contract при монтировании. Версия контракта задаётся в semver;
// фрагмент объявляет минимальную требуемую версию, и хост отказывает в монтировании
// при несовместимости.
package host

import (
	"context"

	"github.com/DRSN-tech/storefront-shell/internal/events"
	"github.com/DRSN-tech/storefront-shell/internal/infrastructure/api"
	"github.com/DRSN-tech/storefront-shell/internal/store"
	"github.com/DRSN-tech/storefront-shell/pkg/clock"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
)

// ContractVersion — версия контракта, который публикует этот хост.
const ContractVersion = "v1.1.0"

// Contract — то, что хост передаёт фрагменту при монтировании.
type Contract interface {
	Version() string
	Store() *store.Store
	Clients() *api.Clients
	Bus() *events.Bus
	Logger() logger.Logger
	Clock() clock.Clock
}

// Unmount освобождает всё, что фрагмент захватил в Mount (подписки, горутины).
type Unmount func(ctx context.Context) error

type Fragment interface {
	Name() string
	// Requires возвращает минимальную версию контракта, например "v1.0.0".
	Requires() string
	Mount(ctx context.Context, c Contract) (Unmount, error)
}

type contract struct {
	store   *store.Store
	clients *api.Clients
	bus     *events.Bus
	logger  logger.Logger
	clock   clock.Clock
}

func (c *contract) Version() string       { return ContractVersion }
func (c *contract) Store() *store.Store   { return c.store }
func (c *contract) Clients() *api.Clients { return c.clients }
func (c *contract) Bus() *events.Bus      { return c.bus }
func (c *contract) Logger() logger.Logger { return c.logger }
func (c *contract) Clock() clock.Clock    { return c.clock }

// missing перечисляет незаполненные части контракта.
func (c *contract) missing() []string {
	var out []string
	if c.store == nil {
		out = append(out, "store")
	}
	if c.clients == nil {
		out = append(out, "clients")
	}
	if c.bus == nil {
		out = append(out, "bus")
	}
	if c.logger == nil {
		out = append(out, "logger")
	}
	if c.clock == nil {
		out = append(out, "clock")
	}

	return out
}
