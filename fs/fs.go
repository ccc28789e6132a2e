// Package appfs embeds files needed at runtime so the binary ships self-contained.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
