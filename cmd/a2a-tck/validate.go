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

	"github.com/a2aproject/a2a-tck-go/log"
	"github.com/a2aproject/a2a-tck-go/validation"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every transport client for method mapping and transport compliance",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m := a.newManager()
			defer func() { _ = m.Close() }()

			clients, err := m.AllClients(ctx)
			if err != nil {
				return err
			}
			report := validation.ValidateCompliance(clients)
			log.Info(ctx, "compliance validation finished",
				"compliant", report.Compliant,
				"transports", report.Summary.TransportsTested,
				"issues", len(report.Issues))
			if err := a.writeJSON(report); err != nil {
				return err
			}
			if a.strict && !report.Compliant {
				return &errNotCompliant{what: "transport compliance"}
			}
			return nil
		},
	}
}
