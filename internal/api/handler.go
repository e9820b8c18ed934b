package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"daoTracker/internal/events"
	"daoTracker/internal/fees"
	"daoTracker/internal/ledger"
	"daoTracker/internal/model"
)

// SnapshotSource yields the latest published ledger snapshot.
type SnapshotSource interface {
	Latest() *ledger.Snapshot
}

// Handler holds the dependencies for API handlers.
type Handler struct {
	Source  SnapshotSource
	Metrics http.Handler
	Logger  *zap.Logger
}

func NewHandler(src SnapshotSource, metricsHandler http.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		Source:  src,
		Metrics: metricsHandler,
		Logger:  logger,
	}
}

// NewRouter creates and configures the HTTP router with all API routes.
func (h *Handler) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/_liveness", h.HandleLiveness).Methods(http.MethodGet)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods(http.MethodGet)
	}

	r.HandleFunc("/api/state", h.RequireSnapshot(h.HandleState)).Methods(http.MethodGet)
	r.HandleFunc("/api/wallets", h.RequireSnapshot(h.HandleWalletsList)).Methods(http.MethodGet)
	r.HandleFunc("/api/wallets/{address}", h.RequireSnapshot(h.HandleWalletDetail)).Methods(http.MethodGet)
	r.HandleFunc("/api/votings", h.RequireSnapshot(h.HandleVotingsList)).Methods(http.MethodGet)
	r.HandleFunc("/api/votings/{id}", h.RequireSnapshot(h.HandleVotingDetail)).Methods(http.MethodGet)
	r.HandleFunc("/api/epochs", h.RequireSnapshot(h.HandleEpochsList)).Methods(http.MethodGet)

	return r
}

type snapshotHandler func(w http.ResponseWriter, r *http.Request, snap *ledger.Snapshot)

// RequireSnapshot answers 503 until the first snapshot is published.
func (h *Handler) RequireSnapshot(next snapshotHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := h.Source.Latest()
		if snap == nil {
			writeError(w, http.StatusServiceUnavailable, "state not loaded yet")
			return
		}
		next(w, r, snap)
	}
}

func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

type stateView struct {
	ChainID          uint64                    `json:"chain_id"`
	LastBlock        uint64                    `json:"last_block"`
	EpochIndex       uint64                    `json:"epoch_index"`
	APR              decimal.Decimal           `json:"apr"`
	StakeTarget      model.Amount              `json:"stake_target"`
	Wallets          int                       `json:"wallets"`
	Votings          int                       `json:"votings"`
	Epochs           int                       `json:"epochs"`
	DaoApps          *events.SetDaoApps        `json:"dao_apps,omitempty"`
	Erc20Addresses   []common.Address          `json:"erc20_addresses"`
	VestingAddresses []common.Address          `json:"vesting_addresses"`
	Treasuries       map[string]model.Treasury `json:"treasuries"`
	PoolInfo         *model.PoolInfo           `json:"pool_info,omitempty"`
	Circulation      *model.Circulation        `json:"circulation,omitempty"`
	Summary          ledger.Summary            `json:"summary"`
}

func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request, snap *ledger.Snapshot) {
	writeResult(w, stateView{
		ChainID:          snap.ChainID,
		LastBlock:        snap.LastBlock,
		EpochIndex:       snap.EpochIndex,
		APR:              snap.APR,
		StakeTarget:      snap.StakeTarget,
		Wallets:          len(snap.Wallets),
		Votings:          len(snap.Votings),
		Epochs:           len(snap.Epochs),
		DaoApps:          snap.DaoApps,
		Erc20Addresses:   snap.Erc20Addresses,
		VestingAddresses: snap.VestingAddresses,
		Treasuries:       snap.Treasuries,
		PoolInfo:         snap.PoolInfo,
		Circulation:      snap.Circulation,
		Summary:          snap.Summary,
	})
}

func (h *Handler) HandleWalletsList(w http.ResponseWriter, r *http.Request, snap *ledger.Snapshot) {
	writeResult(w, snap.WalletList())
}

type walletView struct {
	model.Wallet
	Grant         bool                  `json:"grant"`
	RewardHistory []ledger.EpochReward  `json:"reward_history"`
	Events        []events.OnChainEvent `json:"events"`
	Fees          model.TxFeeTotal      `json:"fees"`
}

// HandleWalletDetail answers 400 for a malformed address and 404 for an
// address that is not a DAO member.
func (h *Handler) HandleWalletDetail(w http.ResponseWriter, r *http.Request, snap *ledger.Snapshot) {
	raw := mux.Vars(r)["address"]
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}
	address := common.HexToAddress(raw)
	wallet, ok := snap.Member(address)
	if !ok {
		writeError(w, http.StatusNotFound, "not a DAO member")
		return
	}
	list := snap.WalletEvents[address]
	if list == nil {
		list = []events.OnChainEvent{}
	}
	_, grant := snap.Grants[address]
	writeResult(w, walletView{
		Wallet:        wallet,
		Grant:         grant,
		RewardHistory: snap.RewardHistory(address),
		Events:        list,
		Fees:          fees.Total(list),
	})
}

type votingView struct {
	ID string `json:"id"`
	model.Voting
}

func (h *Handler) HandleVotingsList(w http.ResponseWriter, r *http.Request, snap *ledger.Snapshot) {
	list := snap.VotingList()
	out := make([]votingView, 0, len(list))
	for _, v := range list {
		out = append(out, votingView{ID: model.FormatVotingKey(v.Key), Voting: v})
	}
	writeResult(w, out)
}

type votingDetailView struct {
	votingView
	Events []events.OnChainEvent `json:"events"`
	Fees   model.TxFeeTotal      `json:"fees"`
}

func (h *Handler) HandleVotingDetail(w http.ResponseWriter, r *http.Request, snap *ledger.Snapshot) {
	key, err := model.ParseVotingKey(strings.ToLower(mux.Vars(r)["id"]))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, ok := snap.Votings[key]
	if !ok {
		writeError(w, http.StatusNotFound, "voting not found")
		return
	}
	list := snap.VotingEvents[key]
	if list == nil {
		list = []events.OnChainEvent{}
	}
	writeResult(w, votingDetailView{
		votingView: votingView{ID: model.FormatVotingKey(key), Voting: v},
		Events:     list,
		Fees:       fees.Total(list),
	})
}

func (h *Handler) HandleEpochsList(w http.ResponseWriter, r *http.Request, snap *ledger.Snapshot) {
	writeResult(w, snap.EpochList())
}

func writeResult(w http.ResponseWriter, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": result})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
