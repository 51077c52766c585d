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

package a2a

// SecuritySchemeType is the "type" discriminator of an Agent Card security scheme,
// following the OpenAPI 3.0 Security Scheme Object.
type SecuritySchemeType string

const (
	SecuritySchemeAPIKey        SecuritySchemeType = "apiKey"
	SecuritySchemeHTTP          SecuritySchemeType = "http"
	SecuritySchemeOAuth2        SecuritySchemeType = "oauth2"
	SecuritySchemeOpenIDConnect SecuritySchemeType = "openIdConnect"
	SecuritySchemeMutualTLS     SecuritySchemeType = "mutualTLS"
)

// APIKeyLocation is where an API key security scheme expects the key.
type APIKeyLocation string

const (
	APIKeyInHeader APIKeyLocation = "header"
	APIKeyInQuery  APIKeyLocation = "query"
	APIKeyInCookie APIKeyLocation = "cookie"
)

// SecuritySchemeName names a scheme in the Agent Card securitySchemes object
// and references it from the security requirements.
type SecuritySchemeName string

// SecurityRequirements is one alternative of the card's "security" list: all the
// named schemes must be satisfied together. The list itself is an OR of these ANDs.
type SecurityRequirements map[SecuritySchemeName][]string
