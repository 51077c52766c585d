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

package validation

import (
	"fmt"
	"slices"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
)

// Checklist lists what a transport must and may offer.
type Checklist struct {
	RequiredMethods  []a2a.Operation
	OptionalMethods  []a2a.Operation
	RequiredFeatures []string
	OptionalFeatures []string
}

var (
	baseRequiredMethods = []a2a.Operation{a2a.OpSendMessage, a2a.OpGetTask, a2a.OpCancelTask, a2a.OpGetAgentCard}
	baseOptionalMethods = []a2a.Operation{a2a.OpSendStreamingMessage, a2a.OpResubscribeTask}
)

var checklists = map[a2a.TransportType]Checklist{
	a2a.TransportJSONRPC: {
		RequiredMethods:  baseRequiredMethods,
		OptionalMethods:  baseOptionalMethods,
		RequiredFeatures: []string{a2aclient.FeatureSSEStreaming, a2aclient.FeatureJSONRPCErrorCodes},
	},
	a2a.TransportGRPC: {
		RequiredMethods: append(slices.Clone(baseRequiredMethods), a2a.OpListTasks),
		OptionalMethods: baseOptionalMethods,
		RequiredFeatures: []string{
			a2aclient.FeatureProtobufSerialization,
			a2aclient.FeatureGRPCStreaming,
			a2aclient.FeatureGRPCMetadata,
		},
		OptionalFeatures: []string{a2aclient.FeatureBidirectionalStreaming},
	},
	a2a.TransportREST: {
		RequiredMethods: append(slices.Clone(baseRequiredMethods), a2a.OpListTasks),
		OptionalMethods: baseOptionalMethods,
		RequiredFeatures: []string{
			a2aclient.FeatureHTTPStatusCodes,
			a2aclient.FeatureRESTURLPatterns,
			a2aclient.FeatureSSEStreaming,
		},
		OptionalFeatures: []string{a2aclient.FeatureHTTPCaching, a2aclient.FeatureConditionalRequests},
	},
}

// ChecklistFor returns the compliance checklist of t.
func ChecklistFor(t a2a.TransportType) (Checklist, bool) {
	c, ok := checklists[t]
	return c, ok
}

// ComplianceResult is the outcome of [ValidateTransportCompliance].
type ComplianceResult struct {
	Transport                 a2a.TransportType `json:"transport_type"`
	Compliant                 bool              `json:"compliant"`
	Issues                    []string          `json:"issues"`
	RequiredMethods           []a2a.Operation   `json:"required_methods"`
	OptionalMethods           []a2a.Operation   `json:"optional_methods"`
	AvailableOptionalMethods  []a2a.Operation   `json:"available_optional_methods"`
	RequiredFeatures          []string          `json:"required_features"`
	OptionalFeatures          []string          `json:"optional_features"`
	AvailableOptionalFeatures []string          `json:"available_optional_features"`
}

// ValidateTransportCompliance checks a client against the checklist of its
// transport.
func ValidateTransportCompliance(client a2aclient.Transport) ComplianceResult {
	t := client.Type()
	result := ComplianceResult{
		Transport:                 t,
		Issues:                    []string{},
		AvailableOptionalMethods:  []a2a.Operation{},
		AvailableOptionalFeatures: []string{},
	}
	list, ok := checklists[t]
	if !ok {
		result.Issues = append(result.Issues, fmt.Sprintf("Unknown transport type: %s", t))
		return result
	}
	result.RequiredMethods = list.RequiredMethods
	result.OptionalMethods = list.OptionalMethods
	result.RequiredFeatures = list.RequiredFeatures
	result.OptionalFeatures = list.OptionalFeatures

	for _, op := range list.RequiredMethods {
		if !hasOperation(client, op) {
			result.Issues = append(result.Issues, fmt.Sprintf("Missing required method: %s", op))
		}
	}
	for _, op := range list.OptionalMethods {
		if hasOperation(client, op) {
			result.AvailableOptionalMethods = append(result.AvailableOptionalMethods, op)
		}
	}

	features := client.Features()
	for _, f := range list.RequiredFeatures {
		if !slices.Contains(features, f) {
			result.Issues = append(result.Issues, fmt.Sprintf("Missing required feature: %s", f))
		}
	}
	for _, f := range list.OptionalFeatures {
		if slices.Contains(features, f) {
			result.AvailableOptionalFeatures = append(result.AvailableOptionalFeatures, f)
		}
	}

	result.Compliant = len(result.Issues) == 0
	return result
}

// Summary counts the outcome of a [Report].
type Summary struct {
	TransportsTested       int  `json:"transports_tested"`
	CompliantTransports    int  `json:"compliant_transports"`
	MethodMappingCompliant bool `json:"method_mapping_compliant"`
	NamingCompliant        bool `json:"naming_compliant"`
}

// Report aggregates every static check over a set of clients.
type Report struct {
	Compliant     bool                                   `json:"overall_compliant"`
	Transports    map[a2a.TransportType]ComplianceResult `json:"transport_compliance"`
	MethodMapping MappingResult                          `json:"method_mapping"`
	Naming        map[a2a.TransportType]NamingResult     `json:"naming"`
	Issues        []string                               `json:"issues"`
	Summary       Summary                                `json:"summary"`
}

// ValidateCompliance runs transport compliance and naming checks on every
// client, and method mapping when more than one transport is available.
func ValidateCompliance(clients map[a2a.TransportType]a2aclient.Transport) Report {
	report := Report{
		Compliant:  true,
		Transports: map[a2a.TransportType]ComplianceResult{},
		Naming:     map[a2a.TransportType]NamingResult{},
		Issues:     []string{},
		Summary:    Summary{TransportsTested: len(clients), NamingCompliant: true},
	}
	if len(clients) == 0 {
		report.Compliant = false
		report.Issues = append(report.Issues, "No transport clients to validate")
	}

	for _, t := range orderedTransports(clients) {
		compliance := ValidateTransportCompliance(clients[t])
		report.Transports[t] = compliance
		if compliance.Compliant {
			report.Summary.CompliantTransports++
		} else {
			report.Compliant = false
			for _, issue := range compliance.Issues {
				report.Issues = append(report.Issues, fmt.Sprintf("%s: %s", t, issue))
			}
		}

		naming := ValidateClientNaming(clients[t])
		report.Naming[t] = naming
		if !naming.Compliant {
			report.Compliant = false
			report.Summary.NamingCompliant = false
			for _, issue := range naming.Issues {
				report.Issues = append(report.Issues, fmt.Sprintf("%s: %s", t, issue))
			}
		}
	}

	if len(clients) > 1 {
		asAny := make(map[a2a.TransportType]any, len(clients))
		for t, c := range clients {
			asAny[t] = c
		}
		report.MethodMapping = ValidateMethodMapping(asAny)
		if !report.MethodMapping.Compliant {
			report.Compliant = false
			report.Issues = append(report.Issues, report.MethodMapping.Issues...)
		}
	} else {
		report.MethodMapping = MappingResult{
			Compliant: true,
			Issues:    []string{},
			Message:   "Single transport, method mapping not applicable",
		}
	}
	report.Summary.MethodMappingCompliant = report.MethodMapping.Compliant
	return report
}
