// Package config loads and validates the dispatcher's startup
// configuration: chunk_size, max_threads, and the WPK repository path from
// spec.md §3's Config, plus the dispatcher-tuning knobs spec.md §1 leaves
// as external concerns (queue capacity, pop timeout, socket path, log
// destination). Source format and validation style follow
// gurre-ddb-pitr/config, loaded here from YAML via gopkg.in/yaml.v3 rather
// than flags, since this process is a long-running daemon, not a one-shot
// CLI job.
package config
