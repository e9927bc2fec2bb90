package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// SetInterval persists a successfully applied fetch interval back to the
// configuration file. Collaborator-owned keys are read and written back
// untouched; a missing file is created from scratch (reschedule self-heals
// a host that was never installed).
func SetInterval(minutes int) error {
	path := FilePath()

	values, err := godotenv.Read(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config file %s; %w", path, err)
		}
		values = make(map[string]string)
	}

	values["FETCH_INTERVAL"] = strconv.Itoa(minutes)

	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("failed to write config file %s; %w", path, err)
	}
	return nil
}
