package config

import (
	"photoframe/internal/fsutil"
)

// configTemplate is written when no configuration file exists. The user
// must fill in the Discourse credentials before installing.
const configTemplate = `# Photoframe configuration.
# Fill in the Discourse credentials, then run 'photoframe install'.

DISCOURSE_BASE_URL=https://discourse.example.com
DISCOURSE_API_KEY=
DISCOURSE_API_USERNAME=
DISCOURSE_TAG=photoframe

# Minutes between fetch runs.
FETCH_INTERVAL=60

# Maximum number of images kept on disk; the oldest are deleted first.
IMAGE_LIMIT=100

# Where downloaded images are stored. Defaults to images/ next to this file.
#IMAGE_DIR=

# Topics processed per batch.
BATCH_SIZE=20

# debug, info, warn, or error.
LOG_LEVEL=info
`

// WriteTemplate creates the configuration file from the template. The
// file carries API credentials, so it is written 0600.
func WriteTemplate() error {
	return fsutil.WriteFileAtomic(FilePath(), []byte(configTemplate), 0600)
}
