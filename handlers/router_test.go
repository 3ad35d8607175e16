package handlers

import (
	"context"
	"testing"

	"github.com/OpenSDN-io/tf-neutron-plugin/core"
	"github.com/OpenSDN-io/tf-neutron-plugin/vncapi"
)

// refFailClient fails every reference update
type refFailClient struct {
	*vncapi.FakeClient
}

func (rc refFailClient) RefUpdate(ctx context.Context, objType, id, refType, refUUID string, op vncapi.RefOperation) error {
	return vncapi.Conflict(objType, id, "reference update rejected")
}

type routerFixture struct {
	fc       *vncapi.FakeClient
	rh       *RouterInterfaceHandler
	routerID string
	subnetID string
}

func newRouterFixture(t *testing.T) *routerFixture {
	ctx := context.Background()
	fc := vncapi.NewFakeClient()

	router, err := NewRouterHandler(fc, Options{}).ResourceCreate(ctx, tenantACtx, core.Resource{"name": "r1"})
	if err != nil {
		t.Fatalf("router create failed. Err: %v", err)
	}
	net := createNetwork(t, NewNetworkHandler(fc, Options{}), tenantACtx, core.Resource{"name": "n1"})
	subnet, err := NewSubnetHandler(fc, Options{}).ResourceCreate(ctx, tenantACtx, core.Resource{
		"network_id": net["id"],
		"cidr":       "10.0.0.0/24",
	})
	if err != nil {
		t.Fatalf("subnet create failed. Err: %v", err)
	}

	return &routerFixture{
		fc:       fc,
		rh:       NewRouterInterfaceHandler(fc, Options{}),
		routerID: router["id"].(string),
		subnetID: subnet["id"].(string),
	}
}

func (f *routerFixture) routerRefs(t *testing.T) []interface{} {
	obj, err := f.fc.Read(context.Background(), "logical-router", f.routerID)
	if err != nil {
		t.Fatalf("router read failed. Err: %v", err)
	}
	return refsToIDs(obj["virtual_machine_interface_refs"])
}

func TestAddRemoveInterfaceBySubnet(t *testing.T) {
	ctx := context.Background()
	f := newRouterFixture(t)

	info, err := f.rh.AddRouterInterface(ctx, tenantACtx, f.routerID, "", f.subnetID)
	if err != nil {
		t.Fatalf("add router interface failed. Err: %v", err)
	}
	portID, _ := info["port_id"].(string)
	if info["id"] != f.routerID || info["subnet_id"] != f.subnetID || portID == "" {
		t.Fatalf("unexpected interface info %+v", info)
	}
	if info["tenant_id"] != tenantID(tenantA) {
		t.Fatalf("unexpected interface tenant %+v", info)
	}

	port, err := f.rh.ports.ResourceGet(ctx, tenantACtx, portID, nil)
	if err != nil {
		t.Fatalf("interface port read failed. Err: %v", err)
	}
	if port["device_owner"] != DeviceOwnerRouterInterface || port["device_id"] != f.routerID {
		t.Fatalf("unexpected interface port %+v", port)
	}
	ips := asList(port["fixed_ips"])
	if ip, _ := asMap(ips[0]); ip["ip_address"] != "10.0.0.1" {
		t.Fatalf("interface port does not hold the gateway: %+v", port)
	}

	if refs := f.routerRefs(t); len(refs) != 1 || refs[0] != portID {
		t.Fatalf("unexpected router refs %v", refs)
	}

	if _, err := f.rh.AddRouterInterface(ctx, tenantACtx, f.routerID, "", f.subnetID); !core.IsBadRequest(err) {
		t.Fatalf("second interface on the subnet returned %v", err)
	}

	info, err = f.rh.RemoveRouterInterface(ctx, tenantACtx, f.routerID, "", f.subnetID)
	if err != nil {
		t.Fatalf("remove router interface failed. Err: %v", err)
	}
	if info["port_id"] != portID {
		t.Fatalf("unexpected interface info %+v", info)
	}
	if refs := f.routerRefs(t); len(refs) != 0 {
		t.Fatalf("router refs not removed: %v", refs)
	}
	if _, err := f.fc.Read(ctx, "virtual-machine-interface", portID); !vncapi.IsNotFound(err) {
		t.Fatalf("interface port not deleted. Err: %v", err)
	}

	if _, err := f.rh.RemoveRouterInterface(ctx, tenantACtx, f.routerID, "", f.subnetID); !vncapi.IsNotFound(err) {
		t.Fatalf("remove of a missing interface returned %v", err)
	}
}

func TestAddInterfaceByPort(t *testing.T) {
	ctx := context.Background()
	f := newRouterFixture(t)
	ports := f.rh.ports

	newPort := func(owner string) string {
		port, err := ports.ResourceCreate(ctx, tenantACtx, core.Resource{
			"network_id": "n1",
			"device_id":  owner,
			"fixed_ips":  []interface{}{map[string]interface{}{"subnet_id": f.subnetID, "ip_address": "10.0.0.9"}},
		})
		if err != nil {
			t.Fatalf("port create failed. Err: %v", err)
		}
		return port["id"].(string)
	}

	busy := newPort("vm-1")
	if _, err := f.rh.AddRouterInterface(ctx, tenantACtx, f.routerID, busy, ""); !vncapi.IsConflict(err) {
		t.Fatalf("add of a port in use returned %v", err)
	}
	if _, err := f.rh.RemoveRouterInterface(ctx, tenantACtx, f.routerID, busy, ""); !vncapi.IsNotFound(err) {
		t.Fatalf("remove of a port not on the router returned %v", err)
	}

	free := newPort("")
	info, err := f.rh.AddRouterInterface(ctx, tenantACtx, f.routerID, free, "")
	if err != nil {
		t.Fatalf("add router interface failed. Err: %v", err)
	}
	if info["port_id"] != free || info["subnet_id"] != f.subnetID {
		t.Fatalf("unexpected interface info %+v", info)
	}

	port, _ := ports.ResourceGet(ctx, tenantACtx, free, nil)
	if port["device_id"] != f.routerID || port["device_owner"] != DeviceOwnerRouterInterface {
		t.Fatalf("port not claimed by the router: %+v", port)
	}

	if _, err := f.rh.RemoveRouterInterface(ctx, tenantACtx, f.routerID, free, ""); err != nil {
		t.Fatalf("remove router interface failed. Err: %v", err)
	}
	if refs := f.routerRefs(t); len(refs) != 0 {
		t.Fatalf("router refs not removed: %v", refs)
	}
}

func TestAddInterfaceUnknownRouter(t *testing.T) {
	f := newRouterFixture(t)

	_, err := f.rh.AddRouterInterface(context.Background(), tenantACtx, "missing", "", f.subnetID)
	if !vncapi.IsNotFound(err) {
		t.Fatalf("add on a missing router returned %v", err)
	}
	for _, call := range f.fc.Calls() {
		if call.Op == "create" && call.ObjType == "virtual-machine-interface" {
			t.Fatalf("port created for a missing router")
		}
	}
}

func TestAddInterfaceRefUpdateFailure(t *testing.T) {
	ctx := context.Background()
	f := newRouterFixture(t)
	failing := NewRouterInterfaceHandler(refFailClient{f.fc}, Options{})

	if _, err := failing.AddRouterInterface(ctx, tenantACtx, f.routerID, "", f.subnetID); !vncapi.IsConflict(err) {
		t.Fatalf("add with a failing ref update returned %v", err)
	}
	ports, _ := f.fc.List(ctx, "virtual-machine-interface", vncapi.ListOptions{})
	if len(ports) != 0 {
		t.Fatalf("interface port left after a failed add: %+v", ports)
	}
	if _, err := f.rh.AddRouterInterface(ctx, tenantACtx, f.routerID, "", f.subnetID); err != nil {
		t.Fatalf("add after a failed add returned %v", err)
	}

	port, err := f.rh.ports.ResourceCreate(ctx, tenantACtx, core.Resource{
		"network_id": "n1",
		"fixed_ips":  []interface{}{map[string]interface{}{"subnet_id": f.subnetID, "ip_address": "10.0.0.9"}},
	})
	if err != nil {
		t.Fatalf("port create failed. Err: %v", err)
	}
	portID := port["id"].(string)
	if _, err := failing.AddRouterInterface(ctx, tenantACtx, f.routerID, portID, ""); !vncapi.IsConflict(err) {
		t.Fatalf("add of a port with a failing ref update returned %v", err)
	}
	port, _ = f.rh.ports.ResourceGet(ctx, tenantACtx, portID, nil)
	if port["device_id"] != "" || port["device_owner"] == DeviceOwnerRouterInterface {
		t.Fatalf("port still claimed after a failed add: %+v", port)
	}
}
