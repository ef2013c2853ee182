package grpc

import (
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HostService — имя сервиса хоста в протоколе grpc.health.v1. Фрагменты публикуются как
// "fragment.<name>".
const HostService = "storefront.Host"

type HealthService struct {
	server *health.Server
	logger logger.Logger
}

func NewHealthService(logger logger.Logger) *HealthService {
	return &HealthService{server: health.NewServer(), logger: logger}
}

// Serving переводит хост (и пустое имя сервиса) в SERVING.
func (h *HealthService) Serving() {
	h.server.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.server.SetServingStatus(HostService, healthpb.HealthCheckResponse_SERVING)
}

// FragmentChanged подходит для host.Deps.OnMountChange.
func (h *HealthService) FragmentChanged(name string, mounted bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if mounted {
		status = healthpb.HealthCheckResponse_SERVING
	}

	h.server.SetServingStatus("fragment."+name, status)
	h.logger.Debugf("health: fragment.%s -> %s", name, status)
}

// Shutdown переводит все сервисы в NOT_SERVING; последующие обновления игнорируются.
func (h *HealthService) Shutdown() {
	h.server.Shutdown()
}
