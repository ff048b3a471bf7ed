package client

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aep/videolib/api"
	"sigs.k8s.io/yaml"
)

func parseFile(file string) ([]api.CreateVideoRequest, error) {
	var data []byte
	var err error

	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}

	return parseDocuments(string(data))
}

// parseDocuments reads one CreateVideoRequest per YAML document.
func parseDocuments(data string) ([]api.CreateVideoRequest, error) {
	docs := strings.Split(data, "---\n")
	var objects []api.CreateVideoRequest

	for _, doc := range docs {
		if strings.TrimSpace(doc) == "" {
			continue
		}

		var obj api.CreateVideoRequest
		if err := yaml.Unmarshal([]byte(doc), &obj); err != nil {
			return nil, fmt.Errorf("failed to parse document: %v", err)
		}

		objects = append(objects, obj)
	}

	return objects, nil
}

type editDoc struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// editable renders the fields a user may change. Everything else is read-only and left out.
func editable(v *api.Video) []byte {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	enc, _ := yaml.Marshal(editDoc{Title: v.Title, Tags: tags})
	return enc
}

func parseEdit(data []byte) (api.UpdateVideoRequest, error) {
	var doc editDoc
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return api.UpdateVideoRequest{}, fmt.Errorf("failed to parse edited video: %v", err)
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	return api.UpdateVideoRequest{Title: &doc.Title, Tags: &doc.Tags}, nil
}
