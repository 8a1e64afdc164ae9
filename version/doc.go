// Package version provides version information and build metadata for tgfs.
//
// Values come from, in order:
//   - Compile-time variables (Version, Commit, Date) set via -ldflags
//   - Runtime build info from debug.ReadBuildInfo(), including the vcs settings
//   - Fallback defaults for development builds
//
// Release builds set them with:
//
//	-ldflags "-X github.com/dendrascience/telegram-media-fuse/version.Version=v1.0.0 -X github.com/dendrascience/telegram-media-fuse/version.Commit=abc123"
//
// GetInfo also reports the Go toolchain and the linked gotd/td version, since
// Telegram protocol issues are usually specific to one client release.
package version
