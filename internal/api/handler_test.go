package api

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daoTracker/internal/events"
	"daoTracker/internal/ledger"
	"daoTracker/internal/model"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

type staticSource struct {
	snap *ledger.Snapshot
}

func (s staticSource) Latest() *ledger.Snapshot { return s.snap }

func onChain(block, index uint64, entry events.Event) events.OnChainEvent {
	return events.OnChainEvent{
		Entry:       entry,
		Timestamp:   1600000000 + block,
		BlockNumber: block,
		LogIndex:    index,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(block*1000 + index)),
	}
}

func sampleSnapshot(t *testing.T) *ledger.Snapshot {
	t.Helper()
	l := ledger.New(1, nil, nil)
	for _, e := range []events.OnChainEvent{
		onChain(10, 0, events.Staked{User: alice, Amount: model.NewAmount(1000), MintedShares: model.NewAmount(1000), UserShares: model.NewAmount(1000)}),
		onChain(11, 0, events.Staked{User: bob, Amount: model.NewAmount(400), MintedShares: model.NewAmount(400), UserShares: model.NewAmount(400)}),
		onChain(12, 0, events.StartVote{Agent: model.AgentSecondary, VoteID: 7, Creator: alice, Metadata: "m"}),
	} {
		require.NoError(t, l.Fold(e))
	}
	l.AdvanceTo(20)
	return l.Snapshot()
}

func serve(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHandlerRoutes(t *testing.T) {
	router := NewHandler(staticSource{snap: sampleSnapshot(t)}, nil, nil).NewRouter()

	t.Run("state", func(t *testing.T) {
		rec, body := serve(t, router, "/api/state")
		require.Equal(t, http.StatusOK, rec.Code)
		var state struct {
			ChainID   uint64 `json:"chain_id"`
			LastBlock uint64 `json:"last_block"`
			Wallets   int    `json:"wallets"`
			Votings   int    `json:"votings"`
			Summary   struct {
				TotalShares string `json:"total_shares"`
			} `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(body["result"], &state))
		assert.Equal(t, uint64(1), state.ChainID)
		assert.Equal(t, uint64(20), state.LastBlock)
		assert.Equal(t, 2, state.Wallets)
		assert.Equal(t, 1, state.Votings)
		assert.Equal(t, "1400", state.Summary.TotalShares)
	})

	t.Run("wallets ordered by voting power", func(t *testing.T) {
		rec, body := serve(t, router, "/api/wallets")
		require.Equal(t, http.StatusOK, rec.Code)
		var wallets []model.Wallet
		require.NoError(t, json.Unmarshal(body["result"], &wallets))
		require.Len(t, wallets, 2)
		assert.Equal(t, alice, wallets[0].Address)
		assert.Equal(t, bob, wallets[1].Address)
	})

	t.Run("wallet detail", func(t *testing.T) {
		rec, body := serve(t, router, "/api/wallets/"+alice.Hex())
		require.Equal(t, http.StatusOK, rec.Code)
		var wallet struct {
			Address common.Address    `json:"address"`
			Shares  string            `json:"shares"`
			Votes   uint64            `json:"votes"`
			Events  []json.RawMessage `json:"events"`
		}
		require.NoError(t, json.Unmarshal(body["result"], &wallet))
		assert.Equal(t, alice, wallet.Address)
		assert.Equal(t, "1000", wallet.Shares)
		assert.Equal(t, uint64(1), wallet.Votes)
		assert.Len(t, wallet.Events, 2)
	})

	t.Run("wallet errors", func(t *testing.T) {
		rec, body := serve(t, router, "/api/wallets/0x1234")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body, "error")

		rec, _ = serve(t, router, "/api/wallets/0x3333333333333333333333333333333333333333")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("votings", func(t *testing.T) {
		rec, body := serve(t, router, "/api/votings")
		require.Equal(t, http.StatusOK, rec.Code)
		var votings []struct {
			ID       string `json:"id"`
			VotedYes string `json:"voted_yes"`
		}
		require.NoError(t, json.Unmarshal(body["result"], &votings))
		require.Len(t, votings, 1)
		assert.Equal(t, "s-7", votings[0].ID)
		assert.Equal(t, "1000", votings[0].VotedYes)
	})

	t.Run("voting detail", func(t *testing.T) {
		rec, body := serve(t, router, "/api/votings/s-7")
		require.Equal(t, http.StatusOK, rec.Code)
		var voting struct {
			ID       string            `json:"id"`
			Metadata string            `json:"metadata"`
			Events   []json.RawMessage `json:"events"`
		}
		require.NoError(t, json.Unmarshal(body["result"], &voting))
		assert.Equal(t, "s-7", voting.ID)
		assert.Equal(t, "m", voting.Metadata)
		assert.Len(t, voting.Events, 1)

		rec, _ = serve(t, router, "/api/votings/p-7")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec, _ = serve(t, router, "/api/votings/x-7")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("epochs", func(t *testing.T) {
		rec, body := serve(t, router, "/api/epochs")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, string(body["result"]))
	})

	t.Run("liveness", func(t *testing.T) {
		rec, body := serve(t, router, "/_liveness")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `"ok"`, string(body["status"]))
	})
}

func TestHandlerWithoutSnapshot(t *testing.T) {
	router := NewHandler(staticSource{}, nil, nil).NewRouter()
	rec, body := serve(t, router, "/api/state")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, body, "error")
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"metrics":true}`))
	})
	router := NewHandler(staticSource{}, metrics, nil).NewRouter()
	rec, body := serve(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "metrics")

	rec = httptest.NewRecorder()
	NewHandler(staticSource{}, nil, nil).NewRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
