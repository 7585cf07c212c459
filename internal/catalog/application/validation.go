package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/distribution/reference"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
)

const maxImageNameLength = 48

var imageNamePattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// pluginIDFromImage validates image and returns its last path segment,
// which is the plugin id.
func pluginIDFromImage(image string) (string, error) {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return "", &domain.InvalidArgumentError{Key: "image", Reason: err.Error()}
	}
	path := reference.Path(named)
	name := path[strings.LastIndex(path, "/")+1:]
	if len(name) > maxImageNameLength {
		return "", &domain.InvalidArgumentError{Key: "image", Reason: fmt.Sprintf("image name %q exceeds %d characters", name, maxImageNameLength)}
	}
	if !imageNamePattern.MatchString(name) {
		return "", &domain.InvalidArgumentError{Key: "image", Reason: fmt.Sprintf("image name %q may only contain letters, digits and hyphens", name)}
	}
	return name, nil
}

// validateRegistry checks the registry type and the per-plugin settings it needs.
func validateRegistry(registryType domain.RegistryType, registryConfig map[string]string) error {
	if !registryType.IsValid() {
		return &domain.InvalidArgumentError{Key: "registry_type", Reason: fmt.Sprintf("unsupported registry type %q", registryType)}
	}
	if registryType == domain.RegistryAWSPrivateECR && registryConfig["account_id"] == "" {
		return &domain.InvalidArgumentError{Key: "registry_config.account_id", Reason: "required for AWS_PRIVATE_ECR"}
	}
	return nil
}

// validateJSONSchema checks that doc compiles as a JSON schema document.
// An empty document is accepted.
func validateJSONSchema(key string, doc map[string]any) error {
	if len(doc) == 0 {
		return nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return &domain.InvalidArgumentError{Key: key, Reason: err.Error()}
	}
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &domain.InvalidArgumentError{Key: key, Reason: err.Error()}
	}

	url := key + ".schema.json"
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)
	if err := compiler.AddResource(url, parsed); err != nil {
		return &domain.InvalidArgumentError{Key: key, Reason: err.Error()}
	}
	if _, err := compiler.Compile(url); err != nil {
		return &domain.InvalidArgumentError{Key: key, Reason: err.Error()}
	}
	return nil
}

func requireFields(fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			return &domain.InvalidArgumentError{Key: fields[i], Reason: "required"}
		}
	}
	return nil
}
