package env

import "github.com/windwatts/curtailment-mining-watcher/common/config"

// IsCI returns true if we are in CI mode.
func IsCI() bool {
	ci := config.GetString("CI", "false")
	return ci == "true"
}

// ResetDatabase returns true if the database should be dropped and migrated on start.
func ResetDatabase() bool {
	return config.GetBool("RESET_DATABASE", false)
}
