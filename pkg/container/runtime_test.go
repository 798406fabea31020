package container_test

import (
	"context"
	"errors"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/nicholas-fedor/tagwatch/pkg/container"
	"github.com/nicholas-fedor/tagwatch/pkg/registry/auth"
	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

const ecrHost = "123456789012.dkr.ecr.eu-west-1.amazonaws.com"

type fakeClient struct {
	pulled  []string
	auths   []string
	tagged  [][2]string
	image   string
	pullErr error
	findErr error
}

func (f *fakeClient) PullImage(_ context.Context, imageRef, registryAuth string) error {
	f.pulled = append(f.pulled, imageRef)
	f.auths = append(f.auths, registryAuth)

	return f.pullErr
}

func (f *fakeClient) TagImage(_ context.Context, source, target string) error {
	f.tagged = append(f.tagged, [2]string{source, target})

	return nil
}

func (f *fakeClient) ServiceImage(context.Context, string, string) (string, error) {
	return f.image, f.findErr
}

func (f *fakeClient) GetVersion() string { return "1.44" }

type tokenSource struct{}

func (tokenSource) Credentials(context.Context) (types.Credentials, error) {
	return types.Credentials{Username: "AWS", Password: "token", ServerAddress: "https://" + ecrHost}, nil
}

var _ = ginkgo.Describe("the runtime", func() {
	var cli *fakeClient

	ginkgo.BeforeEach(func() {
		cli = &fakeClient{}
	})

	ginkgo.It("should pull the tagged image with registry credentials", func() {
		runtime := container.NewRuntime(cli, auth.NewProvider(tokenSource{}), container.RuntimeOptions{
			Host:       ecrHost,
			Repository: "ferrum_node",
		})

		gomega.Expect(runtime.Pull(context.Background(), "master-101")).To(gomega.Succeed())
		gomega.Expect(cli.pulled).To(gomega.Equal([]string{ecrHost + "/ferrum_node:master-101"}))
		gomega.Expect(cli.auths[0]).NotTo(gomega.BeEmpty())
		gomega.Expect(cli.tagged).To(gomega.BeEmpty())
	})

	ginkgo.It("should apply the local alias after pulling", func() {
		runtime := container.NewRuntime(cli, nil, container.RuntimeOptions{
			Host:       ecrHost,
			Repository: "ferrum_node",
			LocalImage: "ferrum_node",
		})

		gomega.Expect(runtime.Pull(context.Background(), "master-101")).To(gomega.Succeed())
		gomega.Expect(cli.tagged).To(gomega.Equal([][2]string{
			{ecrHost + "/ferrum_node:master-101", "ferrum_node:master-101"},
		}))
	})

	ginkgo.It("should not alias a failed pull", func() {
		cli.pullErr = errors.New("manifest unknown")
		runtime := container.NewRuntime(cli, nil, container.RuntimeOptions{
			Host:       ecrHost,
			Repository: "ferrum_node",
			LocalImage: "ferrum_node",
		})

		gomega.Expect(runtime.Pull(context.Background(), "master-101")).To(gomega.MatchError(cli.pullErr))
		gomega.Expect(cli.tagged).To(gomega.BeEmpty())
	})

	ginkgo.It("should reject tags that cannot form a reference", func() {
		runtime := container.NewRuntime(cli, nil, container.RuntimeOptions{Host: ecrHost, Repository: "ferrum_node"})

		gomega.Expect(runtime.Pull(context.Background(), "bad tag")).NotTo(gomega.Succeed())
		gomega.Expect(cli.pulled).To(gomega.BeEmpty())
	})

	ginkgo.Describe("CurrentTag", func() {
		ginkgo.It("should return the tag of the running service", func() {
			cli.image = ecrHost + "/ferrum_node:master-99"
			runtime := container.NewRuntime(cli, nil, container.RuntimeOptions{})

			tag, ok, err := runtime.CurrentTag(context.Background(), "testnet", "node")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(tag).To(gomega.Equal(types.ImageTag("master-99")))
		})

		ginkgo.It("should report untagged images", func() {
			cli.image = "sha256:19d07168491a3f9e2798a9bed96544e34d57ddc4757a4ac5bb199dea896c87fd"
			runtime := container.NewRuntime(cli, nil, container.RuntimeOptions{})

			_, ok, err := runtime.CurrentTag(context.Background(), "testnet", "node")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("should pass lookup errors through", func() {
			cli.findErr = container.ErrServiceNotFound
			runtime := container.NewRuntime(cli, nil, container.RuntimeOptions{})

			_, _, err := runtime.CurrentTag(context.Background(), "testnet", "node")
			gomega.Expect(errors.Is(err, container.ErrServiceNotFound)).To(gomega.BeTrue())
		})
	})
})
