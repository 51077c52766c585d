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

// Package pathtemplate parses, expands and checks REST route templates of the
// form /v1/{resource}[/{id}]...[:{action}], such as
// /v1/tasks/{id}/pushNotificationConfigs/{configId} or /v1/tasks/{id}:cancel.
package pathtemplate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	versionRe     = regexp.MustCompile(`^v[0-9]+$`)
	resourceRe    = regexp.MustCompile(`^[a-z][a-zA-Z]*$`)
	placeholderRe = regexp.MustCompile(`^\{[a-zA-Z][a-zA-Z0-9]*\}$`)
	actionRe      = regexp.MustCompile(`^[a-z][a-zA-Z]*$`)
)

type segment struct {
	literal string
	// variable is set for {name} segments.
	variable string
}

// Template represents a compiled route template.
type Template struct {
	raw      string
	segments []segment
	action   string
}

// New compiles a raw route template.
func New(raw string) (*Template, error) {
	path := trimSlash(raw)
	if path == "" {
		return nil, fmt.Errorf("empty template")
	}
	tpl := &Template{raw: raw}
	if i := strings.LastIndexByte(path, ':'); i >= 0 && !strings.Contains(path[i:], "/") {
		tpl.action = path[i+1:]
		path = path[:i]
		if tpl.action == "" {
			return nil, fmt.Errorf("empty action in %s", raw)
		}
	}
	for s := range strings.SplitSeq(path, "/") {
		if s == "" {
			return nil, fmt.Errorf("empty segment in %s", raw)
		}
		if strings.HasPrefix(s, "{") || strings.HasSuffix(s, "}") {
			if !placeholderRe.MatchString(s) {
				return nil, fmt.Errorf("invalid placeholder %q in %s", s, raw)
			}
			tpl.segments = append(tpl.segments, segment{variable: s[1 : len(s)-1]})
			continue
		}
		tpl.segments = append(tpl.segments, segment{literal: s})
	}
	return tpl, nil
}

// MustNew is New for templates known to be valid.
func MustNew(raw string) *Template {
	tpl, err := New(raw)
	if err != nil {
		panic(err)
	}
	return tpl
}

// String returns the raw template.
func (t *Template) String() string {
	return t.raw
}

// Variables returns placeholder names in order of appearance.
func (t *Template) Variables() []string {
	var vars []string
	for _, s := range t.segments {
		if s.variable != "" {
			vars = append(vars, s.variable)
		}
	}
	return vars
}

// Expand substitutes every placeholder with its path-escaped value.
// A missing or empty value is an error.
func (t *Template) Expand(vars map[string]string) (string, error) {
	var b strings.Builder
	for _, s := range t.segments {
		b.WriteByte('/')
		if s.variable == "" {
			b.WriteString(s.literal)
			continue
		}
		v, ok := vars[s.variable]
		if !ok || v == "" {
			return "", fmt.Errorf("missing value for {%s} in %s", s.variable, t.raw)
		}
		b.WriteString(url.PathEscape(v))
	}
	if t.action != "" {
		b.WriteByte(':')
		b.WriteString(t.action)
	}
	return b.String(), nil
}

// Match attempts to match the provided path against the template and returns
// the unescaped placeholder values.
func (t *Template) Match(path string) (map[string]string, bool) {
	path = trimSlash(path)
	if t.action != "" {
		var found bool
		path, found = strings.CutSuffix(path, ":"+t.action)
		if !found {
			return nil, false
		}
	}
	parts := strings.Split(path, "/")
	if len(parts) != len(t.segments) {
		return nil, false
	}
	vars := map[string]string{}
	for i, s := range t.segments {
		if s.variable == "" {
			if parts[i] != s.literal {
				return nil, false
			}
			continue
		}
		v, err := url.PathUnescape(parts[i])
		if err != nil || v == "" {
			return nil, false
		}
		vars[s.variable] = v
	}
	return vars, true
}

// Check validates the REST route shape: a version segment, then one or more
// lowerCamel resource segments each optionally followed by a single
// {placeholder}, then an optional :action suffix.
func Check(raw string) error {
	tpl, err := New(raw)
	if err != nil {
		return err
	}
	if len(tpl.segments) < 2 || !versionRe.MatchString(tpl.segments[0].literal) {
		return fmt.Errorf("path %s must start with a version segment followed by a resource", raw)
	}
	prevWasResource := false
	for _, s := range tpl.segments[1:] {
		switch {
		case s.variable != "":
			if !prevWasResource {
				return fmt.Errorf("placeholder {%s} in %s must follow a resource segment", s.variable, raw)
			}
			prevWasResource = false
		case resourceRe.MatchString(s.literal):
			if prevWasResource {
				return fmt.Errorf("resource %q in %s must not directly follow another resource", s.literal, raw)
			}
			prevWasResource = true
		default:
			return fmt.Errorf("resource segment %q in %s is not lowerCamelCase", s.literal, raw)
		}
	}
	if tpl.action != "" && !actionRe.MatchString(tpl.action) {
		return fmt.Errorf("action %q in %s is not lowerCamelCase", tpl.action, raw)
	}
	return nil
}

func trimSlash(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, "/"), "/")
}
