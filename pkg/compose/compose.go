package compose

import (
	"github.com/sirupsen/logrus"
)

// Docker Compose labels.
const (
	// ComposeProjectLabel specifies the project name of the container in Docker Compose.
	ComposeProjectLabel = "com.docker.compose.project"
	// ComposeServiceLabel specifies the service name of the container in Docker Compose.
	ComposeServiceLabel = "com.docker.compose.service"
	// ComposeWorkingDirLabel specifies the directory Docker Compose was run from.
	ComposeWorkingDirLabel = "com.docker.compose.project.working_dir"
)

// GetProjectName extracts the project name from Docker Compose labels.
//
// If the com.docker.compose.project label is present, returns its value.
// Otherwise, returns an empty string.
//
// Parameters:
//   - labels: Map of container labels.
//
// Returns:
//   - string: Project name if present, empty string otherwise.
func GetProjectName(labels map[string]string) string {
	return labelValue(labels, ComposeProjectLabel)
}

// GetServiceName extracts the service name from Docker Compose labels.
//
// If the com.docker.compose.service label is present, returns its value.
// Otherwise, returns an empty string.
//
// Parameters:
//   - labels: Map of container labels.
//
// Returns:
//   - string: Service name if present, empty string otherwise.
func GetServiceName(labels map[string]string) string {
	return labelValue(labels, ComposeServiceLabel)
}

// GetWorkingDir extracts the directory the project was started from.
func GetWorkingDir(labels map[string]string) string {
	return labelValue(labels, ComposeWorkingDirLabel)
}

func labelValue(labels map[string]string, label string) string {
	if labels == nil {
		return ""
	}

	value, ok := labels[label]
	if !ok {
		return ""
	}

	logrus.WithFields(logrus.Fields{
		"label": label,
		"value": value,
	}).Trace("Retrieved compose label")

	return value
}
