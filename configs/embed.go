// Package configs embeds the configuration templates written by
// `searchmark config init`.
//
// Templates are compiled into the binary so that every distribution can
// create a config without the source tree. Edit the .yaml files in this
// directory and rebuild to change them.
package configs

import _ "embed"

// UserConfigTemplate is written to ~/.config/searchmark/config.yaml by
// `searchmark config init`. It documents every setting with its default.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is written to .searchmark.yaml by
// `searchmark config init --project`.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
