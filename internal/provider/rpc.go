package provider

import (
	"context"
	"net/rpc"

	goplugin "github.com/hashicorp/go-plugin"
)

// Handshake is the shared handshake both host and plugin must present.
// Cookie values are deliberately specific to this protocol so a stray
// non-provider executable fails the handshake instead of being dispensed.
var Handshake = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "NIXD_SUB000_PROVIDER_PLUGIN",
	MagicCookieValue: "attrpath-info-v1",
}

// PluginMap is the set of pluggable services this host dispenses by name.
var PluginMap = map[string]goplugin.Plugin{
	"attrpathinfo": &AttrpathInfoPlugin{},
}

// AttrpathInfoPlugin adapts Provider to go-plugin's net/rpc transport.
type AttrpathInfoPlugin struct {
	// Impl is set on the plugin-process side before serving; left nil on
	// the host side, which only ever calls Client.
	Impl Provider
}

// Server returns the net/rpc service the plugin process registers.
func (p *AttrpathInfoPlugin) Server(*goplugin.MuxBroker) (interface{}, error) {
	return &rpcServer{impl: p.Impl}, nil
}

// Client returns the host-side stub that satisfies Provider over RPC.
func (p *AttrpathInfoPlugin) Client(_ *goplugin.MuxBroker, client *rpc.Client) (interface{}, error) {
	return &rpcClient{client: client}, nil
}

// attrpathInfoArgs is the net/rpc request payload. context.Context does
// not serialize, so the caller's deadline is enforced by Client (which
// races the RPC call against ctx.Done) rather than sent over the wire.
type attrpathInfoArgs struct {
	Path []string
}

// rpcServer runs in the plugin process and forwards calls to Impl.
type rpcServer struct {
	impl Provider
}

func (s *rpcServer) AttrpathInfo(args attrpathInfoArgs, resp *AttrpathInfo) error {
	info, err := s.impl.AttrpathInfo(context.Background(), args.Path)
	if err != nil {
		return err
	}
	*resp = info
	return nil
}

// rpcClient runs in the host process and implements Provider by calling
// out to the plugin over net/rpc.
type rpcClient struct {
	client *rpc.Client
}

// AttrpathInfo implements Provider.
func (c *rpcClient) AttrpathInfo(ctx context.Context, path []string) (AttrpathInfo, error) {
	type result struct {
		info AttrpathInfo
		err  error
	}
	done := make(chan result, 1)
	call := c.client.Go("Plugin.AttrpathInfo", attrpathInfoArgs{Path: path}, new(AttrpathInfo), make(chan *rpc.Call, 1))
	go func() {
		<-call.Done
		resp, _ := call.Reply.(*AttrpathInfo)
		r := result{err: call.Error}
		if resp != nil {
			r.info = *resp
		}
		done <- r
	}()
	select {
	case <-ctx.Done():
		return AttrpathInfo{Path: path}, ctx.Err()
	case r := <-done:
		return r.info, r.err
	}
}
