// Copyright (c) Choko (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"github.com/curioswitch/go-curiostack/config"
)

type Storage struct {
	// Backend selects the persistence variant: local, jsonbin, or
	// firestore.
	Backend string `koanf:"backend"`

	// DataDir is the directory for the local file store.
	DataDir string `koanf:"datadir"`
}

type JSONBin struct {
	// Endpoint overrides the bin API base URL, e.g. for a self-hosted
	// compatible service. Empty uses the public jsonbin.io API.
	Endpoint string `koanf:"endpoint"`
}

type Assist struct {
	// Provider selects the generative backend: gemini or openai.
	Provider string `koanf:"provider"`

	// Model overrides the provider's default model name.
	Model string `koanf:"model"`
}

type Images struct {
	// Bucket is the public Cloud Storage bucket for recipe and plan
	// photos. Empty keeps images inline as data URLs.
	Bucket string `koanf:"bucket"`
}

type Config struct {
	config.Common

	// Storage is the configuration for persistence.
	Storage Storage `koanf:"storage"`

	// JSONBin is the configuration for the remote bin sync service.
	JSONBin JSONBin `koanf:"jsonbin"`

	// Assist is the configuration for the AI assistant.
	Assist Assist `koanf:"assist"`

	// Images is the configuration for photo uploads.
	Images Images `koanf:"images"`
}
