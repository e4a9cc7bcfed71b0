// ABOUTME: Embeds HTML templates and the default help text into the binary
// ABOUTME: Provides templateFS and helpFS for loading them at runtime

package console

import "embed"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed help/*.md
var helpFS embed.FS
