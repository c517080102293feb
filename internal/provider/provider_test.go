package provider

import (
	"context"
	"net"
	"net/rpc"
	"testing"
	"time"
)

func TestNullProviderAlwaysUnavailable(t *testing.T) {
	info, err := NullProvider{}.AttrpathInfo(context.Background(), []string{"pkgs", "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Available {
		t.Fatalf("expected NullProvider to report unavailable, got %+v", info)
	}
	if len(info.Path) != 2 || info.Path[1] != "hello" {
		t.Fatalf("expected Path to be echoed back, got %+v", info.Path)
	}
}

// fakeProvider backs the in-process RPC roundtrip test below.
type fakeProvider struct{}

func (fakeProvider) AttrpathInfo(_ context.Context, path []string) (AttrpathInfo, error) {
	return AttrpathInfo{Path: path, Summary: "a package", Available: true}, nil
}

func TestRPCRoundTrip(t *testing.T) {
	server := rpc.NewServer()
	if err := server.RegisterName("Plugin", &rpcServer{impl: fakeProvider{}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go server.Accept(ln)

	conn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	client := &rpcClient{client: rpc.NewClient(conn)}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	info, err := client.AttrpathInfo(ctx, []string{"pkgs", "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Available || info.Summary != "a package" {
		t.Fatalf("expected the roundtripped info, got %+v", info)
	}
}
