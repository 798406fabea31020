// Package mocks provides Docker Engine API handlers for ghttp test servers.
package mocks

import (
	"encoding/json"
	"net/http"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

// PullImageHandler verifies an image pull of tag and streams the given progress messages.
func PullImageHandler(tag string, messages ...string) http.HandlerFunc {
	return ghttp.CombineHandlers(
		ghttp.VerifyRequest("POST", gomega.HaveSuffix("/images/create")),
		func(w http.ResponseWriter, r *http.Request) {
			gomega.Expect(r.URL.Query().Get("tag")).To(gomega.Equal(tag))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)

			for _, message := range messages {
				_, _ = w.Write([]byte(message + "\n"))
			}
		},
	)
}

// PullProgress is a typical successful pull stream.
var PullProgress = []string{
	`{"status":"Pulling from ferrum_node","id":"master-101"}`,
	`{"status":"Digest: sha256:4dbc5f9c07028a985e14d1393e849ea07f68804c4293050d5a641b138db72daa"}`,
	`{"status":"Status: Downloaded newer image for ferrum_node:master-101"}`,
}

// PullStreamError is a pull stream failing after the request was accepted.
var PullStreamError = []string{
	`{"status":"Pulling from ferrum_node","id":"master-404"}`,
	`{"errorDetail":{"message":"manifest unknown"},"error":"manifest unknown"}`,
}

// TagImageHandler verifies a tag request for repo:tag and answers 201.
func TagImageHandler(repo, tag string) http.HandlerFunc {
	return ghttp.CombineHandlers(
		ghttp.VerifyRequest("POST", gomega.MatchRegexp(`/images/.+/tag$`)),
		func(w http.ResponseWriter, r *http.Request) {
			gomega.Expect(r.URL.Query().Get("repo")).To(gomega.HaveSuffix(repo))
			gomega.Expect(r.URL.Query().Get("tag")).To(gomega.Equal(tag))
			w.WriteHeader(http.StatusCreated)
		},
	)
}

// ListContainersHandler verifies the label filters of a container listing and serves summaries.
func ListContainersHandler(labels []string, summaries []container.Summary) http.HandlerFunc {
	return ghttp.CombineHandlers(
		ghttp.VerifyRequest("GET", gomega.HaveSuffix("/containers/json")),
		func(w http.ResponseWriter, r *http.Request) {
			args, err := filters.FromJSON(r.URL.Query().Get("filters"))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(args.Get("label")).To(gomega.ConsistOf(labels))

			w.Header().Set("Content-Type", "application/json")
			gomega.Expect(json.NewEncoder(w).Encode(summaries)).To(gomega.Succeed())
		},
	)
}

// GetContainerHandler serves the inspect response of a container, or 404 if info is nil.
func GetContainerHandler(containerID string, info *container.InspectResponse) http.HandlerFunc {
	response := ghttp.RespondWithJSONEncoded(http.StatusNotFound, map[string]string{
		"message": "No such container: " + containerID,
	})
	if info != nil {
		response = ghttp.RespondWithJSONEncoded(http.StatusOK, info)
	}

	return ghttp.CombineHandlers(
		ghttp.VerifyRequest("GET", gomega.HaveSuffix("/containers/%s/json", containerID)),
		response,
	)
}

// ErrorHandler answers any request with status and a Docker error message.
func ErrorHandler(status int, message string) http.HandlerFunc {
	return ghttp.RespondWithJSONEncoded(status, map[string]string{"message": message})
}
