// Copyright 2025 The A2A Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agentcard

import (
	"fmt"
	"strings"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"golang.org/x/mod/semver"
)

// Interface is a transport declaration found in a card.
type Interface struct {
	// Transport is the parsed transport, empty when Name is not recognized.
	Transport a2a.TransportType
	// Name is the transport name as published.
	Name string
	// URL is the declared endpoint, possibly empty.
	URL string
}

// Interfaces lists the additionalInterfaces entries of card in manifest
// order. Entries may name the transport in "transport" or "type" and the
// endpoint in "url" or "endpoint".
func Interfaces(card map[string]any) []Interface {
	list, _ := card["additionalInterfaces"].([]any)
	var out []Interface
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := firstString(m, "transport", "type")
		if name == "" {
			continue
		}
		iface := Interface{Name: name, URL: firstString(m, "url", "endpoint")}
		if t, err := a2a.ParseTransportType(name); err == nil {
			iface.Transport = t
		}
		out = append(out, iface)
	}
	return out
}

// PreferredTransport returns the card's preferred transport. A card without
// preferredTransport prefers JSON-RPC. ok is false when the declared name is
// not a known transport.
func PreferredTransport(card map[string]any) (t a2a.TransportType, ok bool) {
	name, present := card["preferredTransport"].(string)
	if !present || strings.TrimSpace(name) == "" {
		return a2a.TransportJSONRPC, true
	}
	t, err := a2a.ParseTransportType(name)
	if err != nil {
		return "", false
	}
	return t, true
}

// SupportedTransports returns the transports declared by card in manifest
// order: the preferred transport first, then additionalInterfaces.
// Duplicates and unknown names are skipped.
func SupportedTransports(card map[string]any) []a2a.TransportType {
	var out []a2a.TransportType
	seen := map[a2a.TransportType]bool{}
	add := func(t a2a.TransportType) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
	}
	if t, ok := PreferredTransport(card); ok {
		add(t)
	}
	for _, iface := range Interfaces(card) {
		add(iface.Transport)
	}
	return out
}

// Endpoints maps every declared transport to its endpoint. A root "endpoint"
// field is a JSON-RPC endpoint, otherwise the root "url" belongs to the
// preferred transport. additionalInterfaces override both.
func Endpoints(card map[string]any) map[a2a.TransportType]string {
	out := map[a2a.TransportType]string{}
	if ep, ok := card["endpoint"].(string); ok && ep != "" {
		out[a2a.TransportJSONRPC] = ep
	} else if u, ok := card["url"].(string); ok && u != "" {
		if t, ok := PreferredTransport(card); ok {
			out[t] = u
		}
	}
	for _, iface := range Interfaces(card) {
		if iface.Transport != "" && iface.URL != "" {
			out[iface.Transport] = iface.URL
		}
	}
	return out
}

// ValidateTransportConsistency reports problems with the transport
// declarations of card. An empty result means the card is usable.
func ValidateTransportConsistency(card map[string]any) []string {
	var issues []string
	if name, ok := card["preferredTransport"].(string); ok {
		if _, err := a2a.ParseTransportType(name); err != nil {
			issues = append(issues, fmt.Sprintf("unknown preferredTransport %q", name))
		}
	}

	supported := SupportedTransports(card)
	if len(supported) == 0 {
		return append(issues, "no supported transports declared in Agent Card")
	}

	endpoints := Endpoints(card)
	for _, t := range supported {
		if _, ok := endpoints[t]; !ok {
			issues = append(issues, fmt.Sprintf("transport %s declared but no endpoint provided", t.Protocol()))
		}
	}
	for _, iface := range Interfaces(card) {
		if iface.Transport == "" {
			issues = append(issues, fmt.Sprintf("unknown transport type in additionalInterfaces: %s", iface.Name))
		}
	}
	return issues
}

// Streaming reports the capabilities.streaming flag.
func Streaming(card map[string]any) bool {
	return capability(card, "streaming")
}

// PushNotifications reports the capabilities.pushNotifications flag.
func PushNotifications(card map[string]any) bool {
	return capability(card, "pushNotifications")
}

// SupportsAuthenticatedExtendedCard reports whether the agent serves an extended card.
func SupportsAuthenticatedExtendedCard(card map[string]any) bool {
	v, _ := card["supportsAuthenticatedExtendedCard"].(bool)
	return v
}

// ProtocolVersion returns the declared protocolVersion, or "" when absent.
func ProtocolVersion(card map[string]any) string {
	v, _ := card["protocolVersion"].(string)
	return v
}

// CheckProtocolVersion reports whether version is a semantic version with the
// same major and minor as the kit's protocol version.
func CheckProtocolVersion(version string) error {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("protocolVersion %q is not a semantic version", version)
	}
	want := semver.MajorMinor("v" + a2a.ProtocolVersion)
	if got := semver.MajorMinor(v); got != want {
		return fmt.Errorf("protocolVersion %q is not compatible with %s", version, a2a.ProtocolVersion)
	}
	return nil
}

// SecuritySchemes returns the securitySchemes object keyed by scheme name.
func SecuritySchemes(card map[string]any) map[a2a.SecuritySchemeName]map[string]any {
	raw, _ := card["securitySchemes"].(map[string]any)
	out := make(map[a2a.SecuritySchemeName]map[string]any, len(raw))
	for name, v := range raw {
		if m, ok := v.(map[string]any); ok {
			out[a2a.SecuritySchemeName(name)] = m
		}
	}
	return out
}

// Security returns the card's security requirement alternatives.
func Security(card map[string]any) []a2a.SecurityRequirements {
	list, _ := card["security"].([]any)
	var out []a2a.SecurityRequirements
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		req := a2a.SecurityRequirements{}
		for name, scopes := range m {
			var s []string
			if arr, ok := scopes.([]any); ok {
				for _, scope := range arr {
					if str, ok := scope.(string); ok {
						s = append(s, str)
					}
				}
			}
			req[a2a.SecuritySchemeName(name)] = s
		}
		out = append(out, req)
	}
	return out
}

func capability(card map[string]any, name string) bool {
	caps, _ := card["capabilities"].(map[string]any)
	v, _ := caps[name].(bool)
	return v
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
