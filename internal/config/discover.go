package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// FileName is the base name searched for when no config file is given.
const FileName = ".flash"

// SearchDirs returns the directories searched for a config file: the working
// directory first, then the home directory.
func SearchDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	return dirs
}

// Discover returns the config file to load. An explicit path always wins.
// Otherwise the first ".flash.yaml" (or ".flash.yml") found in dirs is used.
// Files with other extensions are not config files for flash and are passed
// over. It returns "" when there is nothing to load.
func Discover(explicit string, dirs ...string) string {
	if explicit != "" {
		return explicit
	}
	for _, dir := range dirs {
		if path := discoverIn(dir); path != "" {
			return path
		}
	}
	return ""
}

func discoverIn(dir string) string {
	v := viper.New()
	v.SetConfigName(FileName)
	v.AddConfigPath(dir)

	// The content is decoded strictly by LoadFile; here only the location
	// matters, so a parse failure still yields the path.
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return ""
	}
	path := v.ConfigFileUsed()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return path
	}
	// A stray .flash.json or .flash.toml shadows YAML files in viper's
	// search order.
	for _, ext := range []string{".yaml", ".yml"} {
		candidate := filepath.Join(dir, FileName+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
