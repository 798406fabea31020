package container

import (
	"context"
	"errors"
	"net/http"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	dockerContainer "github.com/docker/docker/api/types/container"
	dockerClient "github.com/docker/docker/client"

	"github.com/nicholas-fedor/tagwatch/pkg/compose"
	mockContainer "github.com/nicholas-fedor/tagwatch/pkg/container/mocks"
)

const testImage = "123456789012.dkr.ecr.eu-west-1.amazonaws.com/ferrum_node"

var _ = ginkgo.Describe("the client", func() {
	var (
		docker     *dockerClient.Client
		mockServer *ghttp.Server
		c          Client
	)

	ginkgo.BeforeEach(func() {
		mockServer = ghttp.NewServer()
		docker, _ = dockerClient.NewClientWithOpts(
			dockerClient.WithHost(mockServer.URL()),
			dockerClient.WithHTTPClient(mockServer.HTTPTestServer.Client()),
			dockerClient.WithVersion("1.44"))
		c = NewClientWithAPI(docker)
	})
	ginkgo.AfterEach(func() {
		mockServer.Close()
	})

	ginkgo.It("should report the API version", func() {
		gomega.Expect(c.GetVersion()).To(gomega.Equal("1.44"))
	})

	ginkgo.When("pulling an image", func() {
		ginkgo.It("should drain the progress stream", func() {
			mockServer.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyHeaderKV("X-Registry-Auth", "encoded-auth"),
				mockContainer.PullImageHandler("master-101", mockContainer.PullProgress...),
			))

			err := c.PullImage(context.Background(), testImage+":master-101", "encoded-auth")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(mockServer.ReceivedRequests()).To(gomega.HaveLen(1))
		})

		ginkgo.It("should fail on an error reported inside the stream", func() {
			mockServer.AppendHandlers(
				mockContainer.PullImageHandler("master-404", mockContainer.PullStreamError...),
			)

			err := c.PullImage(context.Background(), testImage+":master-404", "")
			gomega.Expect(errors.Is(err, errReadPullResponseFailed)).To(gomega.BeTrue())
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("manifest unknown"))
		})

		ginkgo.It("should fail when the daemon rejects the request", func() {
			mockServer.AppendHandlers(
				mockContainer.ErrorHandler(http.StatusInternalServerError, "registry unreachable"),
			)

			err := c.PullImage(context.Background(), testImage+":master-101", "")
			gomega.Expect(errors.Is(err, errPullImageFailed)).To(gomega.BeTrue())
		})
	})

	ginkgo.When("tagging an image", func() {
		ginkgo.It("should create the alias", func() {
			mockServer.AppendHandlers(mockContainer.TagImageHandler("ferrum_node", "master-101"))

			err := c.TagImage(context.Background(), testImage+":master-101", "ferrum_node:master-101")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("should wrap failures", func() {
			mockServer.AppendHandlers(mockContainer.ErrorHandler(http.StatusNotFound, "No such image"))

			err := c.TagImage(context.Background(), testImage+":master-101", "ferrum_node:master-101")
			gomega.Expect(errors.Is(err, errTagImageFailed)).To(gomega.BeTrue())
		})
	})

	ginkgo.When("looking up the service container", func() {
		serviceLabel := compose.ComposeServiceLabel + "=node"
		projectLabel := compose.ComposeProjectLabel + "=testnet"

		summary := dockerContainer.Summary{
			ID:     "b978af0b858aa8855cce46b628817d4ed58e58f2c4f66c9b9c5449134ed4c008",
			Image:  "sha256:19d07168491a3f9e2798a9bed96544e34d57ddc4757a4ac5bb199dea896c87fd",
			Labels: map[string]string{compose.ComposeServiceLabel: "node"},
		}

		ginkgo.It("should return the configured image", func() {
			mockServer.AppendHandlers(
				mockContainer.ListContainersHandler(
					[]string{serviceLabel, projectLabel},
					[]dockerContainer.Summary{summary},
				),
				mockContainer.GetContainerHandler(summary.ID, &dockerContainer.InspectResponse{
					ContainerJSONBase: &dockerContainer.ContainerJSONBase{ID: summary.ID},
					Config:            &dockerContainer.Config{Image: testImage + ":master-99"},
				}),
			)

			image, err := c.ServiceImage(context.Background(), "testnet", "node")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(image).To(gomega.Equal(testImage + ":master-99"))
		})

		ginkgo.It("should filter by service only without a project", func() {
			mockServer.AppendHandlers(
				mockContainer.ListContainersHandler([]string{serviceLabel}, nil),
			)

			_, err := c.ServiceImage(context.Background(), "", "node")
			gomega.Expect(errors.Is(err, ErrServiceNotFound)).To(gomega.BeTrue())
		})

		ginkgo.It("should skip containers that disappear", func() {
			mockServer.AppendHandlers(
				mockContainer.ListContainersHandler(
					[]string{serviceLabel, projectLabel},
					[]dockerContainer.Summary{summary},
				),
				mockContainer.GetContainerHandler(summary.ID, nil),
			)

			_, err := c.ServiceImage(context.Background(), "testnet", "node")
			gomega.Expect(errors.Is(err, ErrServiceNotFound)).To(gomega.BeTrue())
		})

		ginkgo.It("should wrap listing failures", func() {
			mockServer.AppendHandlers(mockContainer.ErrorHandler(http.StatusInternalServerError, "daemon busy"))

			_, err := c.ServiceImage(context.Background(), "testnet", "node")
			gomega.Expect(errors.Is(err, errListContainersFailed)).To(gomega.BeTrue())
		})
	})
})
