package http

import (
	"net/http"

	"github.com/DRSN-tech/storefront-shell/internal/domain"
	"github.com/DRSN-tech/storefront-shell/internal/host"
	"github.com/DRSN-tech/storefront-shell/internal/store"
	"github.com/DRSN-tech/storefront-shell/pkg/logger"
)

type HostHandler struct {
	host   *host.Host
	store  *store.Store
	logger logger.Logger
}

func NewHostHandler(h *host.Host, st *store.Store, logger logger.Logger) *HostHandler {
	return &HostHandler{host: h, store: st, logger: logger}
}

type ContractResponse struct {
	Version    string   `json:"version"`
	Registered []string `json:"registered"`
	Mounted    []string `json:"mounted"`
}

type ThemeRequest struct {
	Theme domain.Theme `json:"theme"`
}

type ThemeResponse struct {
	Theme domain.Theme `json:"theme"`
}

// getContract
//
//	@Summary		Версия контракта хоста
//	@Description	Возвращает версию контракта и списки зарегистрированных и смонтированных фрагментов
//	@Tags			host
//	@Produce		json
//	@Success		200	{object}	ContractResponse
//	@Router			/contract [get]
func (h *HostHandler) getContract(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, http.StatusOK, ContractResponse{
		Version:    host.ContractVersion,
		Registered: h.host.Registered(),
		Mounted:    h.host.Mounted(),
	})
}

// getState
//
//	@Summary		Текущее состояние
//	@Description	Снимок всех разделов состояния. Токены в ответ не попадают
//	@Tags			host
//	@Produce		json
//	@Success		200	{object}	store.State
//	@Router			/state [get]
func (h *HostHandler) getState(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, http.StatusOK, h.store.GetState())
}

// setTheme
//
//	@Summary		Смена темы
//	@Tags			ui
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ThemeRequest	true	"light, dark или system"
//	@Success		200		{object}	ThemeResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/ui/theme [put]
func (h *HostHandler) setTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e400, err.Error())
		WriteError(w, err)
		return
	}

	if err := h.store.UI().SetTheme(req.Theme); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e400, err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, ThemeResponse{Theme: h.store.GetState().UI.Theme})
}
