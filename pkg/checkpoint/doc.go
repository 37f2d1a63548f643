// Package checkpoint saves and resumes export sync progress.
//
// A checkpoint is scoped to one sync target (a sitemap or every sitemap)
// and one export format. It records the last job-list page that was fully
// queued, the exports that finished and the ones that failed, so an
// interrupted sync skips finished exports and retries failed ones.
//
// Checkpoints live in the platform data directory:
//   - Linux: $XDG_DATA_HOME/webscraper/checkpoints/ or ~/.local/share/webscraper/checkpoints/
//   - macOS: ~/Library/Application Support/webscraper/checkpoints/
//   - Windows: %APPDATA%/webscraper/checkpoints/
package checkpoint
