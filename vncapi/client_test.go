package vncapi

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
)

// newTestClient returns a client talking to handler
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	srvr := httptest.NewServer(handler)
	servers := NewAPIServers(strings.TrimPrefix(srvr.URL, "http://"))
	return New(servers, Config{}), srvr
}

func TestCreate(t *testing.T) {
	var gotBody map[string]core.Resource
	nc, srvr := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/virtual-networks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		content, _ := ioutil.ReadAll(r.Body)
		json.Unmarshal(content, &gotBody)
		w.Write([]byte(`{"virtual-network": {"uuid": "vn-1", "fq_name": ["default-domain", "admin", "net1"]}}`))
	})
	defer srvr.Close()

	obj, err := nc.Create(context.Background(), "virtual-network", core.Resource{"display_name": "net1"})
	if err != nil {
		t.Fatalf("create failed. Err: %v", err)
	}

	if obj["uuid"] != "vn-1" {
		t.Fatalf("unexpected object returned: %+v", obj)
	}
	if gotBody["virtual-network"]["display_name"] != "net1" {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestReadNotFound(t *testing.T) {
	nc, srvr := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "virtual-network vn-2 not found", http.StatusNotFound)
	})
	defer srvr.Close()

	_, err := nc.Read(context.Background(), "virtual-network", "vn-2")
	if err == nil {
		t.Fatalf("read succeeded, expected to fail")
	}
	if !IsNotFound(err) || IsConflict(err) {
		t.Fatalf("unexpected error %v", err)
	}
	if code, ok := StatusCode(err); !ok || code != http.StatusNotFound {
		t.Fatalf("unexpected status code %d", code)
	}
}

func TestReadMissingEnvelope(t *testing.T) {
	nc, srvr := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"logical-router": {"uuid": "r1"}}`))
	})
	defer srvr.Close()

	if _, err := nc.Read(context.Background(), "virtual-network", "r1"); err == nil {
		t.Fatalf("read of mismatching envelope succeeded")
	}
}

func TestAuthTokenHeader(t *testing.T) {
	var mu sync.Mutex
	tokens := map[string]string{}
	nc, srvr := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tokens[r.URL.Path] = r.Header.Get(AuthTokenHeader)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	defer srvr.Close()

	ctx := context.Background()
	if err := nc.Delete(WithAuthToken(ctx, "token-a"), "port", "a"); err != nil {
		t.Fatalf("delete failed. Err: %v", err)
	}
	if err := nc.Delete(ctx, "port", "b"); err != nil {
		t.Fatalf("delete failed. Err: %v", err)
	}

	if tokens["/port/a"] != "token-a" {
		t.Fatalf("token not forwarded: %+v", tokens)
	}
	if tokens["/port/b"] != "" {
		t.Fatalf("token leaked into an unauthenticated call: %+v", tokens)
	}
}

func TestListAndCount(t *testing.T) {
	nc, srvr := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/virtual-networks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("parent_id") != "proj-1" || query.Get("filters") != "a==1,b==2" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}

		if query.Get("count") == "true" {
			w.Write([]byte(`{"virtual-networks": {"count": 2}}`))
			return
		}
		if query.Get("detail") != "true" {
			t.Errorf("list without detail: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"virtual-networks": [{"virtual-network": {"uuid": "1"}}, {"virtual-network": {"uuid": "2"}}]}`))
	})
	defer srvr.Close()

	opts := ListOptions{ParentID: "proj-1", Filters: map[string]string{"b": "2", "a": "1"}}
	objs, err := nc.List(context.Background(), "virtual-network", opts)
	if err != nil {
		t.Fatalf("list failed. Err: %v", err)
	}
	if len(objs) != 2 || objs[0]["uuid"] != "1" || objs[1]["uuid"] != "2" {
		t.Fatalf("unexpected list result %+v", objs)
	}

	count, err := nc.Count(context.Background(), "virtual-network", opts)
	if err != nil {
		t.Fatalf("count failed. Err: %v", err)
	}
	if count != 2 {
		t.Fatalf("unexpected count %d", count)
	}
}

func TestRefUpdate(t *testing.T) {
	var req map[string]interface{}
	nc, srvr := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/ref-update" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&req)
		w.Write([]byte(`{"uuid": "r1"}`))
	})
	defer srvr.Close()

	err := nc.RefUpdate(context.Background(), "logical-router", "r1", "virtual-machine-interface", "p1", RefAdd)
	if err != nil {
		t.Fatalf("ref update failed. Err: %v", err)
	}

	if req["type"] != "logical-router" || req["ref-uuid"] != "p1" || req["operation"] != "ADD" {
		t.Fatalf("unexpected ref update request %+v", req)
	}
}

func TestRequestFailureInvalidServer(t *testing.T) {
	nc := New(NewAPIServers("127.0.0.1:1"), Config{})
	if err := nc.Delete(context.Background(), "port", "a"); err == nil {
		t.Fatalf("request succeeded, expected to fail")
	}

	nc = New(NewAPIServers(), Config{})
	if err := nc.Delete(context.Background(), "port", "a"); err != errNoAPIServers {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestClientTimeout(t *testing.T) {
	for _, tc := range []struct {
		timeout, expected time.Duration
	}{
		{0, defaultTimeout},
		{-time.Second, defaultTimeout},
		{5 * time.Second, 5 * time.Second},
	} {
		if nc := New(NewAPIServers(), Config{Timeout: tc.timeout}); nc.httpC.Timeout != tc.expected {
			t.Fatalf("timeout %v: client uses %v", tc.timeout, nc.httpC.Timeout)
		}
	}
}

func TestIsAuthenticated(t *testing.T) {
	for _, tc := range []struct {
		code    int
		authed  bool
		failure bool
	}{
		{http.StatusOK, false, false},
		{http.StatusUnauthorized, true, false},
		{http.StatusServiceUnavailable, false, true},
	} {
		code := tc.code
		nc, srvr := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				t.Errorf("unexpected probe path %s", r.URL.Path)
			}
			w.WriteHeader(code)
		})

		server := nc.Servers().Snapshot()[0]
		authed, err := nc.IsAuthenticated(context.Background(), server)
		srvr.Close()

		if (err != nil) != tc.failure {
			t.Fatalf("status %d: unexpected error %v", tc.code, err)
		}
		if authed != tc.authed {
			t.Fatalf("status %d: authenticated %v, expected %v", tc.code, authed, tc.authed)
		}
	}
}
