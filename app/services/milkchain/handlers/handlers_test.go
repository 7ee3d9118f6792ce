package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/milkchain/app/services/milkchain/handlers"
	"github.com/ardanlabs/milkchain/business/core/guard"
	"github.com/ardanlabs/milkchain/business/core/order"
	"github.com/ardanlabs/milkchain/business/core/order/stores/ordermem"
	"github.com/ardanlabs/milkchain/business/core/relay"
	"github.com/ardanlabs/milkchain/business/core/user"
	"github.com/ardanlabs/milkchain/business/core/user/stores/usermem"
	"github.com/ardanlabs/milkchain/business/sys/database"
	"github.com/ardanlabs/milkchain/foundation/contract"
	"github.com/ardanlabs/milkchain/foundation/events"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	farmerAddr    = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
	processorAddr = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
)

type fakeContract struct {
	callErr     error
	transactErr error
	calls       int
	transacts   int
}

func (f *fakeContract) Call(ctx context.Context, from common.Address, method string, args ...any) ([]any, error) {
	f.calls++
	if f.callErr != nil {
		return nil, f.callErr
	}

	switch method {
	case relay.MethodViewOrder:
		return []any{common.HexToAddress(processorAddr), big.NewInt(100), uint8(0)}, nil
	case relay.MethodViewOffers:
		return []any{[]*big.Int{big.NewInt(1), big.NewInt(2)}}, nil
	case relay.MethodGetAllTransactions:
		return []any{[]string{"order 1 created"}}, nil
	}
	return []any{big.NewInt(1)}, nil
}

func (f *fakeContract) Transact(ctx context.Context, from common.Address, method string, args ...any) (common.Hash, error) {
	f.transacts++
	if f.transactErr != nil {
		return common.Hash{}, f.transactErr
	}
	return common.HexToHash("0xabcd"), nil
}

func (f *fakeContract) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash, BlockNumber: big.NewInt(9)}, nil
}

type testApp struct {
	mux      http.Handler
	users    *usermem.Store
	orders   *ordermem.Store
	contract *fakeContract
}

func newTestApp() testApp {
	return newTestAppWithOrigin("")
}

func newTestAppWithOrigin(origin string) testApp {
	log := zap.NewNop().Sugar()

	users := usermem.NewStore()
	orders := ordermem.NewStore()
	fc := fakeContract{}

	userCore := user.NewCore(log, users)

	relayCore := relay.NewCore(relay.Config{
		Log:      log,
		Guard:    guard.New(log, userCore, guard.Config{}),
		Contract: &fc,
		Orders:   order.NewCore(log, orders),
		Events:   events.New(),
	})

	mux := handlers.APIMux(handlers.APIMuxConfig{
		Shutdown:   make(chan os.Signal, 1),
		Log:        log,
		CORSOrigin: origin,
		User:       userCore,
		Relay:      relayCore,
		Evts:       events.New(),
	})

	return testApp{mux: mux, users: users, orders: orders, contract: &fc}
}

func (ta testApp) do(method string, path string, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}

	w := httptest.NewRecorder()
	ta.mux.ServeHTTP(w, r)

	return w
}

func (ta testApp) register(t *testing.T, address string, role user.Role) string {
	t.Helper()

	body := fmt.Sprintf(`{"user_blockchain_address":%q,"role":%q,"name":"Bill","mobile":"0400000000","email":"bill@example.com","address":"1 Farm Rd"}`, address, role)

	w := ta.do(http.MethodPost, "/users", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("\t%s\tShould be able to register a %s: %d %s", failed, role, w.Code, w.Body)
	}

	var resp struct {
		ID string `json:"userID"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("\t%s\tShould be able to decode the register response: %s", failed, err)
	}

	return resp.ID
}

// =============================================================================

func Test_Users(t *testing.T) {
	ta := newTestApp()

	t.Log("Given the need to manage users.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen registering and reading back a user.", testID)
		{
			id := ta.register(t, farmerAddr, user.RoleFarmer)

			w := ta.do(http.MethodGet, "/users/"+id, "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould get a 200 reading the user: %d", failed, testID, w.Code)
			}

			var got map[string]any
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould decode the user: %s", failed, testID, err)
			}

			exp := map[string]any{
				"userID":                  id,
				"user_blockchain_address": farmerAddr,
				"role":                    "Farmer",
				"name":                    "Bill",
				"mobile":                  "0400000000",
				"email":                   "bill@example.com",
				"address":                 "1 Farm Rd",
			}
			for k, v := range exp {
				if got[k] != v {
					t.Fatalf("\t%s\tTest %d:\tShould get %s=%v, got %v.", failed, testID, k, v, got[k])
				}
			}
			t.Logf("\t%s\tTest %d:\tShould get back every submitted field.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen updating and deleting an unknown user.", testID)
		{
			w := ta.do(http.MethodPut, "/users/unknown", `{"name":"Jill"}`)
			if w.Code != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould get a 404 on update: %d", failed, testID, w.Code)
			}
			if !strings.Contains(w.Body.String(), "User unknown doesn't exist or has been deleted") {
				t.Fatalf("\t%s\tTest %d:\tShould name the user in the error: %s", failed, testID, w.Body)
			}

			w = ta.do(http.MethodDelete, "/users/unknown", "")
			if w.Code != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould get a 404 on delete: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould get a 404 for both.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen registering with a missing role.", testID)
		{
			w := ta.do(http.MethodPost, "/users", fmt.Sprintf(`{"user_blockchain_address":%q,"name":"Bill"}`, farmerAddr))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould get a 400: %d", failed, testID, w.Code)
			}
			if !strings.Contains(w.Body.String(), `"role"`) {
				t.Fatalf("\t%s\tTest %d:\tShould name the role field: %s", failed, testID, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould get a 400 naming the field.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen paging through users.", testID)
		{
			ta := newTestApp()
			for range 25 {
				ta.register(t, farmerAddr, user.RoleFarmer)
			}

			w := ta.do(http.MethodGet, "/listAllUsers?page=3&per_page=10", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould get a 200: %d", failed, testID, w.Code)
			}

			var resp struct {
				Users []map[string]any `json:"users"`
				Page  int              `json:"page"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould decode the page: %s", failed, testID, err)
			}
			if len(resp.Users) != 5 || resp.Page != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould get the 5 tail records of page 3, got %d on page %d.", failed, testID, len(resp.Users), resp.Page)
			}
			t.Logf("\t%s\tTest %d:\tShould get the tail records.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen asking for a page past the int range.", testID)
		{
			ta := newTestApp()
			ta.register(t, farmerAddr, user.RoleFarmer)

			for _, path := range []string{
				"/listAllUsers?page=4611686018427387904&per_page=4",
				"/listAllUsers?page=1&per_page=100000",
			} {
				w := ta.do(http.MethodGet, path, "")
				if w.Code != http.StatusBadRequest {
					t.Fatalf("\t%s\tTest %d:\tShould get a 400 for %s: %d %s", failed, testID, path, w.Code, w.Body)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould get a 400.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the store is down.", testID)
		{
			ta := newTestApp()
			ta.users.Err = fmt.Errorf("%w: server selection timeout", database.ErrUnavailable)

			w := ta.do(http.MethodGet, "/users/anything", "")
			if w.Code != http.StatusServiceUnavailable {
				t.Fatalf("\t%s\tTest %d:\tShould get a 503: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould get a 503.", success, testID)
		}
	}
}

func Test_FarmerProcessor(t *testing.T) {
	t.Log("Given the need to relay supply chain operations.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a processor creates an order.", testID)
		{
			ta := newTestApp()
			ta.register(t, processorAddr, user.RoleProcessor)

			w := ta.do(http.MethodPost, "/farmerProcessor/createOrder", fmt.Sprintf(`{"quantity":100,"contractAddress":%q}`, processorAddr))
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould get a 200: %d %s", failed, testID, w.Code, w.Body)
			}

			var resp struct {
				Status          string `json:"status"`
				TransactionHash string `json:"transactionHash"`
				BlockNumber     uint64 `json:"blockNumber"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould decode the response: %s", failed, testID, err)
			}
			if resp.Status != "Order Created!!!" || resp.BlockNumber != 9 {
				t.Fatalf("\t%s\tTest %d:\tShould get the created status: %+v", failed, testID, resp)
			}

			ords, err := ta.orders.Query(context.Background(), 1, 10)
			if err != nil || len(ords) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould have exactly one order summary: %d %v", failed, testID, len(ords), err)
			}
			if ords[0].Quantity != 100 || ords[0].ProcessorAddress != processorAddr {
				t.Fatalf("\t%s\tTest %d:\tShould record quantity and caller: %+v", failed, testID, ords[0])
			}
			t.Logf("\t%s\tTest %d:\tShould record one order summary.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a farmer creates an order.", testID)
		{
			ta := newTestApp()
			ta.register(t, farmerAddr, user.RoleFarmer)

			w := ta.do(http.MethodPost, "/farmerProcessor/createOrder", fmt.Sprintf(`{"quantity":100,"contractAddress":%q}`, farmerAddr))
			if w.Code != http.StatusForbidden {
				t.Fatalf("\t%s\tTest %d:\tShould get a 403: %d", failed, testID, w.Code)
			}
			if !strings.Contains(w.Body.String(), "Only Processor is allowed to use this function") {
				t.Fatalf("\t%s\tTest %d:\tShould name the required role: %s", failed, testID, w.Body)
			}
			if ta.contract.calls != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not simulate, got %d calls.", failed, testID, ta.contract.calls)
			}
			t.Logf("\t%s\tTest %d:\tShould be forbidden without a simulation.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen an unregistered caller creates an offer.", testID)
		{
			ta := newTestApp()

			body := fmt.Sprintf(`{"orderId":1,"productionDate":1700000000,"pricePerLiter":12,"origin":"Cork","contractAddress":%q}`, farmerAddr)
			w := ta.do(http.MethodPost, "/farmerProcessor/createOffer", body)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould be let through: %d %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould be let through.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the simulation fails.", testID)
		{
			ta := newTestApp()
			ta.register(t, processorAddr, user.RoleProcessor)
			ta.contract.callErr = fmt.Errorf("%w: createOrder: quantity too large", contract.ErrSimulationReverted)

			w := ta.do(http.MethodPost, "/farmerProcessor/createOrder", fmt.Sprintf(`{"quantity":100,"contractAddress":%q}`, processorAddr))
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("\t%s\tTest %d:\tShould get a 500: %d", failed, testID, w.Code)
			}
			if !strings.Contains(w.Body.String(), "simulation_reverted") {
				t.Fatalf("\t%s\tTest %d:\tShould name the failure kind: %s", failed, testID, w.Body)
			}
			if ta.contract.transacts != 0 || ta.orders.Len() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not broadcast or record: %d %d", failed, testID, ta.contract.transacts, ta.orders.Len())
			}
			t.Logf("\t%s\tTest %d:\tShould not broadcast or record.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the broadcast fails.", testID)
		{
			ta := newTestApp()
			ta.register(t, processorAddr, user.RoleProcessor)
			ta.contract.transactErr = fmt.Errorf("%w: createOrder: nonce too low", contract.ErrBroadcastFailed)

			w := ta.do(http.MethodPost, "/farmerProcessor/createOrder", fmt.Sprintf(`{"quantity":100,"contractAddress":%q}`, processorAddr))
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("\t%s\tTest %d:\tShould get a 500: %d", failed, testID, w.Code)
			}
			if !strings.Contains(w.Body.String(), "broadcast_failed") {
				t.Fatalf("\t%s\tTest %d:\tShould name the failure kind: %s", failed, testID, w.Body)
			}
			if ta.orders.Len() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not record an order: %d", failed, testID, ta.orders.Len())
			}
			t.Logf("\t%s\tTest %d:\tShould name the kind and not record.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the peer is down during a read.", testID)
		{
			ta := newTestApp()
			ta.contract.callErr = fmt.Errorf("%w: dial tcp 127.0.0.1:8545: connection refused", contract.ErrPeerUnavailable)

			w := ta.do(http.MethodGet, "/farmerProcessor/viewOrder?_orderId=1", "")
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("\t%s\tTest %d:\tShould get a 500: %d", failed, testID, w.Code)
			}
			if !strings.Contains(w.Body.String(), "peer_unavailable") {
				t.Fatalf("\t%s\tTest %d:\tShould name the failure kind: %s", failed, testID, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould get a 500 naming the kind.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen viewing an order without an id.", testID)
		{
			ta := newTestApp()

			w := ta.do(http.MethodGet, "/farmerProcessor/viewOrder", "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould get a 400: %d", failed, testID, w.Code)
			}
			if !strings.Contains(w.Body.String(), "Missing _orderId parameter") {
				t.Fatalf("\t%s\tTest %d:\tShould name the parameter: %s", failed, testID, w.Body)
			}
			if ta.contract.calls != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not contact the peer.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get a 400 without contacting the peer.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen reading contract state.", testID)
		{
			ta := newTestApp()

			for path, key := range map[string]string{
				"/farmerProcessor/viewOrder?_orderId=1": "order",
				"/farmerProcessor/viewOffers?orderId=1": "offers",
				"/farmerProcessor/getAllTransactions":   "transactions",
			} {
				w := ta.do(http.MethodGet, path, "")
				if w.Code != http.StatusOK {
					t.Fatalf("\t%s\tTest %d:\tShould get a 200 for %s: %d", failed, testID, path, w.Code)
				}

				var resp map[string]any
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould decode %s: %s", failed, testID, path, err)
				}
				if _, exists := resp[key]; !exists {
					t.Fatalf("\t%s\tTest %d:\tShould find %q in %s.", failed, testID, key, path)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould get the decoded contract state.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a payload is missing the caller.", testID)
		{
			ta := newTestApp()

			w := ta.do(http.MethodPost, "/farmerProcessor/acceptOffer", `{"orderId":1,"offerId":2}`)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould get a 400: %d", failed, testID, w.Code)
			}
			if !strings.Contains(w.Body.String(), "contractAddress") {
				t.Fatalf("\t%s\tTest %d:\tShould name the field: %s", failed, testID, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould get a 400 naming the field.", success, testID)
		}
	}
}

func Test_Events(t *testing.T) {
	t.Log("Given the need to stream relay events to a browser.")
	{
		ta := newTestAppWithOrigin("https://dairy.example")
		srv := httptest.NewServer(ta.mux)
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/farmerProcessor/events"

		testID := 0
		t.Logf("\tTest %d:\tWhen a foreign site opens the socket.", testID)
		{
			conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
			if err == nil {
				conn.Close()
				t.Fatalf("\t%s\tTest %d:\tShould refuse the upgrade.", failed, testID)
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Fatalf("\t%s\tTest %d:\tShould get a 403: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get a 403.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the configured site opens the socket.", testID)
		{
			conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://dairy.example"}})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould upgrade: %s", failed, testID, err)
			}
			conn.Close()
			t.Logf("\t%s\tTest %d:\tShould upgrade.", success, testID)
		}
	}
}
