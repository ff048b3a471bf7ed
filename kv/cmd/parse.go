package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aep/videolib/api"
	"sigs.k8s.io/yaml"
)

// parseFile accepts a store document ({"videos": [...]}) or a bare list, as JSON or YAML.
func parseFile(file string) ([]api.Video, error) {
	var data []byte
	var err error

	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return parseVideos(data)
}

func parseVideos(data []byte) ([]api.Video, error) {
	var videos []api.Video
	if err := yaml.Unmarshal(data, &videos); err != nil {
		var doc struct {
			Videos []api.Video `json:"videos"`
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse videos: %w", err)
		}
		videos = doc.Videos
	}

	for i := range videos {
		if videos[i].Tags == nil {
			videos[i].Tags = []string{}
		}
	}
	return videos, nil
}

func checkRecords(videos []api.Video) error {
	seen := make(map[string]bool, len(videos))
	for i, v := range videos {
		if v.Id == "" {
			return fmt.Errorf("video #%d: id must not be empty", i)
		}
		if seen[v.Id] {
			return fmt.Errorf("video %s: duplicate id", v.Id)
		}
		seen[v.Id] = true

		if strings.TrimSpace(v.Title) == "" {
			return fmt.Errorf("video %s: title must not be blank", v.Id)
		}
		if v.Duration <= 0 {
			return fmt.Errorf("video %s: duration must be positive", v.Id)
		}
		if v.Views < 0 {
			return fmt.Errorf("video %s: views must not be negative", v.Id)
		}
	}
	return nil
}
