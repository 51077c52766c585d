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

package main

import (
	"github.com/spf13/cobra"

	"github.com/a2aproject/a2a-tck-go/a2aclient/agentcard"
	"github.com/a2aproject/a2a-tck-go/adapter"
)

func newDiscoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Fetch the Agent Card and report the transports the agent declares",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m := a.newManager()
			defer func() { _ = m.Close() }()

			if err := m.Discover(ctx, false); err != nil {
				return err
			}
			card, err := m.Card(ctx)
			if err != nil {
				return err
			}
			issues := adapter.AssertValidAgentCard(card)
			agent := map[string]any{
				"name":                                 card["name"],
				"version":                              card["version"],
				"protocol_version":                     agentcard.ProtocolVersion(card),
				"streaming":                            agentcard.Streaming(card),
				"push_notifications":                   agentcard.PushNotifications(card),
				"supports_authenticated_extended_card": agentcard.SupportsAuthenticatedExtendedCard(card),
			}
			if err := a.writeJSON(map[string]any{
				"discovery":   m.Info(ctx),
				"agent":       agent,
				"card_issues": nonNil(issues),
			}); err != nil {
				return err
			}
			if a.strict && len(issues) > 0 {
				return &errNotCompliant{what: "agent card"}
			}
			return nil
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
