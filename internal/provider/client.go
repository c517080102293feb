package provider

import (
	"fmt"
	"os/exec"

	goplugin "github.com/hashicorp/go-plugin"
)

// Launch starts the provider plugin binary at path and returns a Provider
// talking to it over net/rpc, plus a cleanup func the caller must invoke
// (typically deferred) to kill the plugin process.
func Launch(path string, args ...string) (Provider, func(), error) {
	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap,
		Cmd:             exec.Command(path, args...),
		AllowedProtocols: []goplugin.Protocol{
			goplugin.ProtocolNetRPC,
		},
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("provider: connect to plugin: %w", err)
	}
	raw, err := rpcClient.Dispense("attrpathinfo")
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("provider: dispense attrpathinfo: %w", err)
	}
	p, ok := raw.(Provider)
	if !ok {
		client.Kill()
		return nil, nil, fmt.Errorf("provider: dispensed value does not implement Provider")
	}
	return p, client.Kill, nil
}

// Serve runs impl as a provider plugin process. A plugin binary's main
// calls this and nothing else.
func Serve(impl Provider) {
	goplugin.Serve(&goplugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]goplugin.Plugin{
			"attrpathinfo": &AttrpathInfoPlugin{Impl: impl},
		},
	})
}
