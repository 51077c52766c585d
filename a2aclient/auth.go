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

package a2aclient

import (
	"context"
	"errors"
	"strings"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient/agentcard"
	"github.com/a2aproject/a2a-tck-go/log"
)

// ErrCredentialNotFound is returned by [CredentialsService] if no credential
// is available for a scheme.
var ErrCredentialNotFound = errors.New("credential not found")

// AuthCredential represents a security-scheme specific credential (eg. a JWT token).
type AuthCredential string

// CredentialsService is used by [AuthHeaders] for resolving credentials.
type CredentialsService interface {
	// Get retrieves the credential for the named scheme of the given type.
	Get(ctx context.Context, name a2a.SecuritySchemeName, schemeType a2a.SecuritySchemeType) (AuthCredential, error)
}

// StaticCredentials implements [CredentialsService] with fixed secrets.
// PerScheme takes precedence. Otherwise BearerToken serves http, oauth2 and
// openIdConnect schemes and APIKey serves apiKey schemes.
type StaticCredentials struct {
	BearerToken string
	APIKey      string
	PerScheme   map[a2a.SecuritySchemeName]AuthCredential
}

var _ CredentialsService = (*StaticCredentials)(nil)

// Get implements [CredentialsService].
func (c *StaticCredentials) Get(ctx context.Context, name a2a.SecuritySchemeName, schemeType a2a.SecuritySchemeType) (AuthCredential, error) {
	if cred, ok := c.PerScheme[name]; ok {
		return cred, nil
	}
	switch schemeType {
	case a2a.SecuritySchemeHTTP, a2a.SecuritySchemeOAuth2, a2a.SecuritySchemeOpenIDConnect:
		if c.BearerToken != "" {
			return AuthCredential(c.BearerToken), nil
		}
	case a2a.SecuritySchemeAPIKey:
		if c.APIKey != "" {
			return AuthCredential(c.APIKey), nil
		}
	}
	return "", ErrCredentialNotFound
}

// AuthHeaders resolves credentials against the security requirements of
// card and returns the headers that satisfy the first alternative for which
// every scheme has a credential. The result is empty when none does.
func AuthHeaders(ctx context.Context, card map[string]any, svc CredentialsService) ServiceParams {
	params := ServiceParams{}
	if svc == nil {
		return params
	}
	schemes := agentcard.SecuritySchemes(card)
	for _, requirement := range agentcard.Security(card) {
		candidate := ServiceParams{}
		satisfied := true
		for name := range requirement {
			scheme, ok := schemes[name]
			if !ok {
				satisfied = false
				break
			}
			if !applyScheme(ctx, candidate, svc, name, scheme) {
				satisfied = false
				break
			}
		}
		if satisfied && len(candidate) > 0 {
			return candidate
		}
	}
	return params
}

func applyScheme(ctx context.Context, params ServiceParams, svc CredentialsService, name a2a.SecuritySchemeName, scheme map[string]any) bool {
	schemeType, _ := scheme["type"].(string)
	credential, err := svc.Get(ctx, name, a2a.SecuritySchemeType(schemeType))
	if errors.Is(err, ErrCredentialNotFound) {
		return false
	}
	if err != nil {
		log.Error(ctx, "credentials service error", err, "scheme", name)
		return false
	}

	switch a2a.SecuritySchemeType(schemeType) {
	case a2a.SecuritySchemeHTTP:
		if s, _ := scheme["scheme"].(string); s != "" && !strings.EqualFold(s, "bearer") {
			log.Warn(ctx, "unsupported http auth scheme", "scheme", name, "type", s)
			return false
		}
		params.Append("Authorization", "Bearer "+string(credential))
	case a2a.SecuritySchemeOAuth2, a2a.SecuritySchemeOpenIDConnect:
		params.Append("Authorization", "Bearer "+string(credential))
	case a2a.SecuritySchemeAPIKey:
		in, _ := scheme["in"].(string)
		header, _ := scheme["name"].(string)
		if a2a.APIKeyLocation(in) != a2a.APIKeyInHeader || header == "" {
			log.Warn(ctx, "api key location not supported", "scheme", name, "in", in)
			return false
		}
		params.Append(header, string(credential))
	default:
		return false
	}
	return true
}
