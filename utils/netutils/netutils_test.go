package netutils

import (
	"testing"
)

func TestValidateBindAddress(t *testing.T) {
	for _, addr := range []string{"0.0.0.0:9697", "10.0.0.1:1", ":9697"} {
		if err := ValidateBindAddress(addr); err != nil {
			t.Fatalf("bind address %s rejected. Err: %v", addr, err)
		}
	}

	for _, addr := range []string{"9697", "10.0.0.1", "10.0.0.1:0", "10.0.0.1:65536", "10.0.0.1:http", "host-1:9697"} {
		if err := ValidateBindAddress(addr); err == nil {
			t.Fatalf("invalid bind address %s accepted", addr)
		}
	}
}

func TestAdvertiseAddr(t *testing.T) {
	host, port, err := AdvertiseAddr("10.0.0.1:9697")
	if err != nil {
		t.Fatalf("Error getting advertise address. Err: %v", err)
	}
	if host != "10.0.0.1" || port != 9697 {
		t.Fatalf("unexpected advertise address %s:%d", host, port)
	}

	if _, _, err := AdvertiseAddr("10.0.0.1"); err == nil {
		t.Fatalf("advertise address of an invalid listen url")
	}
}
