package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
	"github.com/OpenSDN-io/tf-neutron-plugin/handlers"
	"github.com/OpenSDN-io/tf-neutron-plugin/vncapi"

	. "gopkg.in/check.v1"
)

var _ core.NeutronPlugin = &ContrailPlugin{}

func Test(t *testing.T) { TestingT(t) }

// probeClient is the fake api server with a configurable auth mode
type probeClient struct {
	*vncapi.FakeClient

	mu            sync.Mutex
	authenticated bool
	probeErr      error
	probes        []string
}

func (pc *probeClient) IsAuthenticated(ctx context.Context, server string) (bool, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.probes = append(pc.probes, server)
	return pc.authenticated, pc.probeErr
}

// fakeInterfaceHandler records the router interface requests it gets
type fakeInterfaceHandler struct {
	calls [][]string
}

func (fh *fakeInterfaceHandler) AddRouterInterface(ctx context.Context, reqCtx core.RequestContext, routerID, portID, subnetID string) (core.Resource, error) {
	fh.calls = append(fh.calls, []string{"add", routerID, portID, subnetID})
	return core.Resource{"id": routerID, "port_id": portID, "subnet_id": subnetID}, nil
}

func (fh *fakeInterfaceHandler) RemoveRouterInterface(ctx context.Context, reqCtx core.RequestContext, routerID, portID, subnetID string) (core.Resource, error) {
	fh.calls = append(fh.calls, []string{"remove", routerID, portID, subnetID})
	return core.Resource{"id": routerID, "port_id": portID, "subnet_id": subnetID}, nil
}

// tenantHandler overwrites the request context it is handed
type tenantHandler struct {
	core.ResourceHandler
	seen core.RequestContext
}

func (th *tenantHandler) ResourceGet(ctx context.Context, reqCtx core.RequestContext, id string, fields []string) (core.Resource, error) {
	th.seen = reqCtx
	reqCtx.TenantID = "overwritten"
	return core.Resource{"id": id}, nil
}

type pluginSuite struct {
	fc           *vncapi.FakeClient
	pc           *probeClient
	p            *ContrailPlugin
	ifaceHandler *fakeInterfaceHandler
	ifaceBuilds  int
}

var _ = Suite(&pluginSuite{})

var adminCtx = &core.RequestContext{TenantID: "8a3ef6a4-4b3e-4f46-9a51-03e1a47e2c10", IsAdmin: true}

func (s *pluginSuite) SetUpTest(c *C) {
	s.fc = vncapi.NewFakeClient()
	s.pc = &probeClient{FakeClient: s.fc}
	s.p = New(s.pc, vncapi.NewAPIServers("a:8082", "b:8082"), handlers.Options{})

	s.ifaceHandler = &fakeInterfaceHandler{}
	s.ifaceBuilds = 0
	s.p.newRouterInterface = func(client handlers.VncClient, opts handlers.Options) core.RouterInterfaceHandler {
		s.ifaceBuilds++
		return s.ifaceHandler
	}
}

func (s *pluginSuite) TestCreateStripsUnspecified(c *C) {
	body := core.Body{"network": core.Resource{
		"name":        "net1",
		"description": core.NotSpecified,
		"shared":      false,
	}}

	net, err := s.p.CreateResource(context.Background(), core.Network, adminCtx, body)
	c.Assert(err, IsNil)
	c.Assert(net["name"], Equals, "net1")
	c.Assert(net["shared"], Equals, false)

	_, ok := net["description"]
	c.Assert(ok, Equals, false)

	obj, err := s.fc.Read(context.Background(), "virtual-network", net["id"].(string))
	c.Assert(err, IsNil)
	_, ok = obj["id_perms"]
	c.Assert(ok, Equals, false)
}

func (s *pluginSuite) TestUpdateStripsUnspecified(c *C) {
	ctx := context.Background()
	net, err := s.p.CreateResource(ctx, core.Network, adminCtx, core.Body{"network": core.Resource{"name": "net1"}})
	c.Assert(err, IsNil)

	id := net["id"].(string)
	body := core.Body{"network": core.Resource{"name": "net2", "shared": core.NotSpecified}}
	net, err = s.p.UpdateResource(ctx, core.Network, adminCtx, id, body)
	c.Assert(err, IsNil)
	c.Assert(net["name"], Equals, "net2")

	obj, err := s.fc.Read(ctx, "virtual-network", id)
	c.Assert(err, IsNil)
	_, ok := obj["is_shared"]
	c.Assert(ok, Equals, false)
}

func (s *pluginSuite) TestMissingBody(c *C) {
	_, err := s.p.CreateResource(context.Background(), core.Subnet, adminCtx, core.Body{"network": core.Resource{}})
	c.Assert(core.IsBadRequest(err), Equals, true)

	_, err = s.p.UpdateResource(context.Background(), core.Subnet, adminCtx, "s1", core.Body{})
	c.Assert(core.IsBadRequest(err), Equals, true)
	c.Assert(s.pc.probes, HasLen, 0)
}

func (s *pluginSuite) TestCountWrapping(c *C) {
	ctx := context.Background()
	for _, name := range []string{"a", "b"} {
		_, err := s.p.CreateResource(ctx, core.Network, adminCtx, core.Body{"network": core.Resource{"name": name}})
		c.Assert(err, IsNil)
	}

	count, err := s.p.CountResources(ctx, core.Network, adminCtx, nil)
	c.Assert(err, IsNil)
	c.Assert(*count, Equals, core.Count{Count: 2})

	content, err := json.Marshal(count)
	c.Assert(err, IsNil)
	c.Assert(string(content), Equals, `{"count":2}`)

	list, err := s.p.ListResources(ctx, core.Network, adminCtx, core.Filters{"name": {"b"}}, nil)
	c.Assert(err, IsNil)
	c.Assert(list, HasLen, 1)
	c.Assert(list[0]["name"], Equals, "b")
}

func (s *pluginSuite) TestGetDelete(c *C) {
	ctx := context.Background()
	router, err := s.p.CreateResource(ctx, core.Router, adminCtx, core.Body{"router": core.Resource{"name": "r1"}})
	c.Assert(err, IsNil)
	id := router["id"].(string)

	got, err := s.p.GetResource(ctx, core.Router, adminCtx, id, []string{"name"})
	c.Assert(err, IsNil)
	c.Assert(got, DeepEquals, core.Resource{"name": "r1"})

	c.Assert(s.p.DeleteResource(ctx, core.Router, adminCtx, id), IsNil)

	_, err = s.p.GetResource(ctx, core.Router, adminCtx, id, nil)
	c.Assert(vncapi.IsNotFound(err), Equals, true)
}

func (s *pluginSuite) TestRouterInterfaceValidation(c *C) {
	ctx := context.Background()

	for _, info := range []core.Resource{nil, {}, {"name": "r1"}} {
		_, err := s.p.AddRouterInterface(ctx, adminCtx, "r1", info)
		c.Assert(err, ErrorMatches, "Bad router request: Either subnet_id or port_id must be specified.")
		_, err = s.p.RemoveRouterInterface(ctx, adminCtx, "r1", info)
		c.Assert(err, ErrorMatches, "Bad router request: Either subnet_id or port_id must be specified.")
	}

	both := core.Resource{"port_id": "p1", "subnet_id": "s1"}
	_, err := s.p.AddRouterInterface(ctx, adminCtx, "r1", both)
	c.Assert(err, ErrorMatches, "Bad router request: Cannot specify both subnet-id and port-id.")
	_, err = s.p.RemoveRouterInterface(ctx, adminCtx, "r1", both)
	c.Assert(err, ErrorMatches, "Bad router request: Cannot specify both subnet-id and port-id.")

	for _, info := range []core.Resource{{"port_id": nil}, {"port_id": ""}, {"subnet_id": 123}, {"subnet_id": []interface{}{"s1"}}} {
		_, err := s.p.AddRouterInterface(ctx, adminCtx, "r1", info)
		c.Assert(core.IsBadRequest(err), Equals, true, Commentf("info %v: %v", info, err))
		c.Assert(err, ErrorMatches, "Bad router request: Invalid (port|subnet)_id .*")
		_, err = s.p.RemoveRouterInterface(ctx, adminCtx, "r1", info)
		c.Assert(core.IsBadRequest(err), Equals, true, Commentf("info %v: %v", info, err))
	}

	c.Assert(s.pc.probes, HasLen, 0)
	c.Assert(s.ifaceBuilds, Equals, 0)
}

func (s *pluginSuite) TestRouterInterfaceDelegation(c *C) {
	ctx := context.Background()

	info, err := s.p.AddRouterInterface(ctx, adminCtx, "r1", core.Resource{"subnet_id": "s1"})
	c.Assert(err, IsNil)
	c.Assert(info["subnet_id"], Equals, "s1")

	_, err = s.p.RemoveRouterInterface(ctx, adminCtx, "r1", core.Resource{"port_id": "p1"})
	c.Assert(err, IsNil)

	c.Assert(s.ifaceHandler.calls, DeepEquals, [][]string{
		{"add", "r1", "", "s1"},
		{"remove", "r1", "p1", ""},
	})
	c.Assert(s.ifaceBuilds, Equals, 2)
}

func (s *pluginSuite) TestUnregisteredTypePanics(c *C) {
	s.p.registry[core.Port] = nil

	c.Assert(func() {
		s.p.GetResource(context.Background(), core.Port, adminCtx, "p1", nil)
	}, PanicMatches, "no handler registered for resource type port")

	c.Assert(func() {
		s.p.DeleteResource(context.Background(), core.ResourceType(42), adminCtx, "p1")
	}, PanicMatches, "no handler registered for resource type ResourceType\\(42\\)")
}

func (s *pluginSuite) TestRequestContextCopied(c *C) {
	th := &tenantHandler{}
	s.p.registry[core.Network] = th

	reqCtx := &core.RequestContext{TenantID: "t1", UserID: "u1"}
	_, err := s.p.GetResource(context.Background(), core.Network, reqCtx, "n1", nil)
	c.Assert(err, IsNil)

	c.Assert(th.seen, DeepEquals, core.RequestContext{TenantID: "t1", UserID: "u1"})
	c.Assert(reqCtx.TenantID, Equals, "t1")
}

func (s *pluginSuite) tokens() []string {
	tokens := []string{}
	for _, call := range s.fc.Calls() {
		tokens = append(tokens, call.Token)
	}
	return tokens
}

func (s *pluginSuite) TestTokenBoundWhenAuthenticated(c *C) {
	s.pc.authenticated = true
	ctx := core.WithUserToken(context.Background(), "token-a")

	_, err := s.p.CreateResource(ctx, core.Network, adminCtx, core.Body{"network": core.Resource{"name": "n"}})
	c.Assert(err, IsNil)

	tokens := s.tokens()
	c.Assert(len(tokens) > 0, Equals, true)
	for _, token := range tokens {
		c.Assert(token, Equals, "token-a")
	}
}

func (s *pluginSuite) TestNoTokenWhenAuthenticated(c *C) {
	s.pc.authenticated = true

	_, err := s.p.ListResources(context.Background(), core.Network, adminCtx, nil, nil)
	c.Assert(err, IsNil)
	c.Assert(s.tokens(), DeepEquals, []string{""})
}

func (s *pluginSuite) TestTokenDroppedWhenNotAuthenticated(c *C) {
	ctx := core.WithUserToken(context.Background(), "token-a")

	_, err := s.p.ListResources(ctx, core.Network, adminCtx, nil, nil)
	c.Assert(err, IsNil)
	c.Assert(s.tokens(), DeepEquals, []string{""})
}

func (s *pluginSuite) TestConcurrentTokensDoNotMix(c *C) {
	s.pc.authenticated = true

	var wg sync.WaitGroup
	for _, token := range []string{"token-a", "token-b", "token-c", "token-d"} {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			ctx := core.WithUserToken(context.Background(), token)
			s.p.CountResources(ctx, core.Network, adminCtx, nil)
		}(token)
	}
	wg.Wait()

	seen := map[string]int{}
	for _, token := range s.tokens() {
		seen[token]++
	}
	c.Assert(seen, DeepEquals, map[string]int{"token-a": 1, "token-b": 1, "token-c": 1, "token-d": 1})
}

func (s *pluginSuite) TestProbeFailurePropagates(c *C) {
	s.pc.probeErr = errors.New("api server unavailable")

	_, err := s.p.GetResource(context.Background(), core.Network, adminCtx, "n1", nil)
	c.Assert(err, ErrorMatches, "api server unavailable")
	c.Assert(s.fc.Calls(), HasLen, 0)
}

func (s *pluginSuite) TestProbeRoundRobin(c *C) {
	for i := 0; i < 3; i++ {
		s.p.ListResources(context.Background(), core.Network, adminCtx, nil, nil)
	}
	c.Assert(s.pc.probes, DeepEquals, []string{"a:8082", "b:8082", "a:8082"})
}
