package dns

import (
	"context"
	"net"
	"testing"
)

func TestLookupIPLiteral(t *testing.T) {
	for _, host := range []string{"127.0.0.1", "::1"} {
		got, err := Lookup(context.Background(), host)
		if err != nil || got != host {
			t.Fatalf("Lookup(%q) = %q, %v", host, got, err)
		}
	}
}

func TestPreferIPv4(t *testing.T) {
	got, err := preferIPv4([]string{"::1", "10.0.0.1"})
	if err != nil || got != "10.0.0.1" {
		t.Fatalf("expected the IPv4 address, got %q %v", got, err)
	}
	if got, _ := preferIPv4([]string{"::1"}); got != "::1" {
		t.Fatalf("expected IPv6 fallback, got %q", got)
	}
	if _, err := preferIPv4(nil); err == nil {
		t.Fatal("expected error for no addresses")
	}
}

func TestTrimBrackets(t *testing.T) {
	if got := trimBrackets("[2620:fe::fe]"); got != "2620:fe::fe" {
		t.Fatalf("unexpected %q", got)
	}
	if got := trimBrackets("9.9.9.9"); got != "9.9.9.9" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestDialContextLoopback(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		if c, err := ln.Accept(); err == nil {
			c.Close()
		}
	}()

	conn, err := DialContext(context.Background(), "tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()
}
