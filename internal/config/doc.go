// Package config provides configuration structures and utilities for
// wikirun: traversal limits, embedding service settings, politeness
// controls, and report preferences.
package config
