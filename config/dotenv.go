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

package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/a2aproject/a2a-tck-go/log"
)

// LoadDotEnv loads .env from the working directory and from the directory
// of configPath when one is given. Variables already set in the environment
// are not overwritten, and missing or unreadable files are skipped.
func LoadDotEnv(configPath string) {
	paths := []string{".env"}
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(abs), ".env"))
		}
	}
	for _, path := range paths {
		loadIfExists(path)
	}
}

func loadIfExists(path string) {
	ctx := context.Background()
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Debug(ctx, "failed to load .env file", "path", path, "error", err)
		return
	}
	log.Debug(ctx, "loaded environment from .env", "path", path)
}
