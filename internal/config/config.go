package config

import (
	"github.com/spf13/viper"
)

// Keys and defaults, registered by SetDefaults
const (
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
	KeyHashAlgorithm    = "hash.algorithm"
	KeyHashChunkSize    = "hash.chunk_size"
	KeyHashWorkers      = "hash.workers"
	KeyHashRetries      = "hash.retries"
	KeySearchExclude    = "search.exclude"
	KeySearchLineage    = "search.lineage"
	KeySearchAllowDirty = "search.allow_dirty"
)

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyHashAlgorithm, "sha1")
	v.SetDefault(KeyHashChunkSize, 1<<20)
	v.SetDefault(KeyHashWorkers, 4)
	v.SetDefault(KeyHashRetries, 2)
	v.SetDefault(KeySearchExclude, []string{})
	v.SetDefault(KeySearchLineage, true)
	v.SetDefault(KeySearchAllowDirty, false)
}

// GetLogLevel returns the logrus level name
func GetLogLevel() string {
	return viper.GetString(KeyLogLevel)
}

// GetLogFormat returns "text" or "json"
func GetLogFormat() string {
	return viper.GetString(KeyLogFormat)
}

// GetHashAlgorithm returns the content digest algorithm
func GetHashAlgorithm() string {
	return viper.GetString(KeyHashAlgorithm)
}

// GetHashChunkSize returns the read buffer size in bytes
func GetHashChunkSize() int {
	return viper.GetInt(KeyHashChunkSize)
}

// GetHashWorkers returns the number of workers hashing the snapshot
func GetHashWorkers() int {
	return viper.GetInt(KeyHashWorkers)
}

// GetHashRetries returns how often a failing file read is retried
func GetHashRetries() int {
	return viper.GetInt(KeyHashRetries)
}

// GetExcludePatterns returns configured exclude globs
func GetExcludePatterns() []string {
	return viper.GetStringSlice(KeySearchExclude)
}

// GetLineageEnabled reports whether mainline lineage is computed per commit
func GetLineageEnabled() bool {
	return viper.GetBool(KeySearchLineage)
}

// GetAllowDirty reports whether a repository with local changes may be scanned
func GetAllowDirty() bool {
	return viper.GetBool(KeySearchAllowDirty)
}

// DefaultConfig is written by `closest init`
const DefaultConfig = `[log]
level = "info"    # debug | info | warn | error
format = "text"   # text | json

[hash]
algorithm = "sha1"    # sha1 | sha256
chunk_size = 1048576  # read buffer in bytes, never changes digests
workers = 4           # parallel workers for hashing the snapshot
retries = 2           # extra attempts for a file that fails to read

[search]
exclude = []        # doublestar globs excluded on both sides
lineage = true      # report in_master_lineage per commit
allow_dirty = false
`
