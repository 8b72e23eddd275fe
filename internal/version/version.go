package version

import (
	"encoding/json"
	"log"
	"os"
)

// Info identifies the running build. Release images stamp version.json;
// anything built outside the pipeline reports "dev".
type Info struct {
	Version string `json:"version"`
}

// Load resolves the build version. TUNEVAULT_VERSION wins when set, so a
// container can carry its tag without touching the filesystem.
func Load() Info {
	if v := os.Getenv("TUNEVAULT_VERSION"); v != "" {
		return Info{Version: v}
	}
	data, err := os.ReadFile("version.json")
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not read version.json: %v", err)
		}
		return Info{Version: "dev"}
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		log.Printf("warning: could not parse version.json: %v", err)
		return Info{Version: "dev"}
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}
